package passes

import (
	"time"
)

// Bisection limits. The time tolerance is far below anything the distance
// filter can resolve; the iteration cap guarantees termination on numerical
// edge cases (flat elevation profiles, rate evaluating to the same sign at
// every probe).
const (
	bisectTimeTol = time.Microsecond
	bisectMaxIter = 10000
)

// MaxElevation is the refined closest-approach estimate for a window: the
// instant the elevation rate changes sign, the elevation there, and the
// sub-satellite point.
//
// Converged is false when the bisection gave up before reaching the time
// tolerance, either through the degenerate no-sign-change exit or the
// iteration cap. The estimate is still the best midpoint available and
// callers may use it; the flag lets diagnostics tell the cases apart.
type MaxElevation struct {
	Time         time.Time
	ElevationDeg float64
	SatLat       float64 // degrees
	SatLon       float64 // degrees
	Converged    bool
	Iterations   int
}

// MaxElevationBetween finds the maximum-elevation instant inside [lo, hi] by
// bisecting on the sign of the elevation rate. The bracket is assumed to
// contain a single rate sign change, which holds for any rise/set window.
func (d *Detector) MaxElevationBetween(lo, hi time.Time) (MaxElevation, error) {
	loObs, err := d.Prop.Observe(lo, d.Observer)
	if err != nil {
		return MaxElevation{}, err
	}
	hiObs, err := d.Prop.Observe(hi, d.Observer)
	if err != nil {
		return MaxElevation{}, err
	}
	loRate := loObs.ElevationRateDeg
	hiRate := hiObs.ElevationRateDeg

	mid := lo.Add(hi.Sub(lo) / 2)
	obs, err := d.Prop.Observe(mid, d.Observer)
	if err != nil {
		return MaxElevation{}, err
	}

	iter := 0
	for hi.Sub(lo) > bisectTimeTol && iter < bisectMaxIter {
		rate := obs.ElevationRateDeg
		if rate*loRate < 0 {
			hi = mid
			hiRate = rate
		} else if rate*hiRate < 0 {
			lo = mid
			loRate = rate
		} else {
			// No sign change detectable from here: keep the midpoint as
			// the best estimate.
			break
		}
		iter++
		mid = lo.Add(hi.Sub(lo) / 2)
		obs, err = d.Prop.Observe(mid, d.Observer)
		if err != nil {
			return MaxElevation{}, err
		}
	}

	return MaxElevation{
		Time:         mid,
		ElevationDeg: obs.ElevationDeg,
		SatLat:       obs.SatLat,
		SatLon:       obs.SatLon,
		Converged:    hi.Sub(lo) <= bisectTimeTol,
		Iterations:   iter,
	}, nil
}
