// Package passes scans satellite/observer geometry over time to find
// visibility windows (rise and set crossings) and the instant of maximum
// elevation inside each window.
package passes

import (
	"time"

	"github.com/CyanideCN/satpass/internal/kinematics"
	"github.com/CyanideCN/satpass/internal/transform"
)

// Scan stepping policy. Far from the visibility threshold a coarse step is
// enough; inside the band the scan drops to the fine step, because a coarse
// step would overshoot the crossing and misread its sign. The fine step is
// the precision floor of detection; crossings are then pinned by bisection.
const (
	coarseStep = 10 * time.Second
	fineStep   = 1 * time.Second
	bandDeg    = 5.0 // elevation distance from threshold that triggers fine stepping

	// Cap on the backward walk to a rise boundary before the scan start.
	// An always-visible satellite (e.g. geostationary over the observer)
	// has no rise to find; half an orbit of LEO motion is more than any
	// real window.
	maxBackwardWalk = time.Hour
)

// Window is one completed visibility window. Rise and Set are always
// present; partial windows cut off by the scan horizon are never emitted.
type Window struct {
	Rise kinematics.Observation
	Set  kinematics.Observation
	Max  *MaxElevation // populated when the scan requests it
}

// Detector scans one satellite against one observer location.
type Detector struct {
	Prop     *kinematics.Propagator
	Observer transform.ObserverPosition
	MinElev  float64 // degrees, visibility threshold
}

// stepFor returns the scan step given the current elevation distance from
// the threshold.
func (d *Detector) stepFor(elevation float64) time.Duration {
	if diff := elevation - d.MinElev; diff > bandDeg || diff < -bandDeg {
		return coarseStep
	}
	return fineStep
}

// Scan walks [start, stop] and returns every completed visibility window.
// When withMax is set, each window also carries its maximum-elevation
// observation. Propagation failures abort the scan.
func (d *Detector) Scan(start, stop time.Time, withMax bool) ([]Window, error) {
	cur := start

	first, err := d.Prop.Observe(cur, d.Observer)
	if err != nil {
		return nil, err
	}
	if first.ElevationDeg >= d.MinElev {
		// Mid-pass at the scan start: walk back to the true rise so the
		// first window is not truncated at start.
		cur, err = d.walkBackBelowThreshold(cur)
		if err != nil {
			return nil, err
		}
	}

	var windows []Window
	for {
		rise, next, err := d.scanForRise(cur, stop)
		if err != nil {
			return nil, err
		}
		if rise == nil {
			return windows, nil // horizon reached while searching for a rise
		}
		cur = next

		set, next, err := d.scanForSet(cur, stop)
		if err != nil {
			return nil, err
		}
		if set == nil {
			return windows, nil // horizon reached mid-window: discard the partial
		}
		cur = next

		w := Window{Rise: *rise, Set: *set}
		if withMax {
			max, err := d.MaxElevationBetween(rise.Time, set.Time)
			if err != nil {
				return nil, err
			}
			w.Max = &max
		}
		windows = append(windows, w)
	}
}

// walkBackBelowThreshold steps backward from t until the satellite is below
// the visibility threshold, so the subsequent forward scan detects the rise
// properly. Gives up after maxBackwardWalk and returns the original time.
func (d *Detector) walkBackBelowThreshold(t time.Time) (time.Time, error) {
	cur := t
	for t.Sub(cur) < maxBackwardWalk {
		o, err := d.Prop.Observe(cur, d.Observer)
		if err != nil {
			return time.Time{}, err
		}
		if o.ElevationDeg < d.MinElev {
			return cur, nil
		}
		cur = cur.Add(-d.stepFor(o.ElevationDeg))
	}
	return t, nil
}

// scanForRise advances until elevation is at or above the threshold and
// climbing, refines the crossing, and returns it together with the scan
// resume time. A nil observation means the horizon was reached first.
func (d *Detector) scanForRise(cur, stop time.Time) (*kinematics.Observation, time.Time, error) {
	for {
		if !cur.Before(stop) {
			return nil, cur, nil
		}
		o, err := d.Prop.Observe(cur, d.Observer)
		if err != nil {
			return nil, cur, err
		}
		if o.ElevationDeg >= d.MinElev && o.ElevationRateDeg > 0 {
			rise, err := d.Prop.RefineRise(d.Observer, cur.Add(-fineStep), cur, d.MinElev)
			if err != nil {
				return nil, cur, err
			}
			return &rise, cur.Add(fineStep), nil
		}
		cur = cur.Add(d.stepFor(o.ElevationDeg))
	}
}

// scanForSet advances until elevation is at or below the threshold and
// sinking, refines the crossing, and returns it with the scan resume time.
func (d *Detector) scanForSet(cur, stop time.Time) (*kinematics.Observation, time.Time, error) {
	for {
		o, err := d.Prop.Observe(cur, d.Observer)
		if err != nil {
			return nil, cur, err
		}
		if o.ElevationDeg <= d.MinElev && o.ElevationRateDeg < 0 {
			set, err := d.Prop.RefineSet(d.Observer, cur.Add(-fineStep), cur, d.MinElev)
			if err != nil {
				return nil, cur, err
			}
			return &set, cur.Add(fineStep), nil
		}
		cur = cur.Add(d.stepFor(o.ElevationDeg))
		if !cur.Before(stop) {
			return nil, cur, nil
		}
	}
}
