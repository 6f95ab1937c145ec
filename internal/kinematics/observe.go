package kinematics

import (
	"math"
	"time"

	"github.com/CyanideCN/satpass/internal/transform"
)

// Observation is one satellite/observer geometry sample: the sub-satellite
// point plus the observer-relative look angles at a single instant.
type Observation struct {
	Time             time.Time
	SatLat           float64 // degrees
	SatLon           float64 // degrees, [-180,180]
	SatAltKm         float64
	AzimuthDeg       float64
	ElevationDeg     float64
	ElevationRateDeg float64 // deg/s
	RangeKm          float64
}

// Observe computes the full observation of the satellite from obs at t.
func (p *Propagator) Observe(t time.Time, obs transform.ObserverPosition) (Observation, error) {
	ecef, err := p.StateECEF(t)
	if err != nil {
		return Observation{}, err
	}

	la := transform.ECEFToLookAngles(obs, ecef)
	geo := transform.ECEFToGeodetic(ecef.X, ecef.Y, ecef.Z)

	return Observation{
		Time:             t,
		SatLat:           geo.LatDeg,
		SatLon:           geo.LonDeg,
		SatAltKm:         geo.AltM / 1000.0,
		AzimuthDeg:       la.AzimuthDeg,
		ElevationDeg:     la.ElevationDeg,
		ElevationRateDeg: la.ElevationRateDeg,
		RangeKm:          la.RangeKm,
	}, nil
}

// Crossing refinement tolerances. The elevation tolerance mirrors the scan
// band logic: once the bracket pins the threshold to a millidegree the
// remaining time error is far below the fine scan step.
const (
	crossingMaxIter = 50
	crossingTimeTol = 5 * time.Millisecond
	crossingElevTol = 0.001 // degrees
)

// RefineRise pins the exact time elevation crosses up through minElev inside
// [lo,hi] by bisection and returns the observation at the crossing.
func (p *Propagator) RefineRise(obs transform.ObserverPosition, lo, hi time.Time, minElev float64) (Observation, error) {
	return p.refineCrossing(obs, lo, hi, minElev, true)
}

// RefineSet pins the exact time elevation crosses down through minElev
// inside [lo,hi] by bisection and returns the observation at the crossing.
func (p *Propagator) RefineSet(obs transform.ObserverPosition, lo, hi time.Time, minElev float64) (Observation, error) {
	return p.refineCrossing(obs, lo, hi, minElev, false)
}

func (p *Propagator) refineCrossing(obs transform.ObserverPosition, lo, hi time.Time, minElev float64, rising bool) (Observation, error) {
	var mid time.Time
	for i := 0; i < crossingMaxIter && hi.Sub(lo) > crossingTimeTol; i++ {
		mid = lo.Add(hi.Sub(lo) / 2)
		o, err := p.Observe(mid, obs)
		if err != nil {
			return Observation{}, err
		}
		if math.Abs(o.ElevationDeg-minElev) < crossingElevTol {
			return o, nil
		}

		below := o.ElevationDeg < minElev
		if rising == below {
			// Rising and still below, or setting and still above: the
			// crossing is later.
			lo = mid
		} else {
			hi = mid
		}
	}

	return p.Observe(lo.Add(hi.Sub(lo)/2), obs)
}
