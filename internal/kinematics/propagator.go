// Package kinematics answers "where is the satellite and how does an
// observer see it" queries: SGP4 propagation, observer-relative elevation
// and elevation rate, and high-precision threshold-crossing refinement.
package kinematics

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/CyanideCN/satpass/internal/tle"
	"github.com/CyanideCN/satpass/internal/transform"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite
//
// Selected for: most community adoption, pure Go (no CGO), battle-tested
// since 2016, explicit TEME output.
//
// Note: Propagate() takes Satellite by value so SGP4 error codes are not
// visible to the caller. Propagation failures are detected by checking the
// output for NaN/Inf and unreasonable position magnitudes.

// Propagator wraps the SGP4 model for one element record.
type Propagator struct {
	sat   satellite.Satellite
	epoch time.Time
}

// NewPropagator initializes the SGP4 model from an element record.
//
// Pre-validates the element lines before handing them to the library,
// because go-satellite calls log.Fatal on malformed input (which would kill
// the process).
func NewPropagator(entry tle.Entry) (*Propagator, error) {
	if err := validateLines(entry.Line1, entry.Line2); err != nil {
		return nil, fmt.Errorf("invalid element record: %w", err)
	}

	sat := satellite.TLEToSat(entry.Line1, entry.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed: code=%d %s", sat.Error, sat.ErrorStr)
	}
	return &Propagator{sat: sat, epoch: entry.Epoch}, nil
}

// Epoch returns the element record's epoch.
func (p *Propagator) Epoch() time.Time { return p.epoch }

// validateLines performs basic format validation on element lines.
func validateLines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// StateECEF computes the satellite's ECEF state vector at t.
//
// The library propagates on whole UTC seconds; the sub-second remainder is
// advanced along the velocity vector, which stays within a few meters of the
// true position over one second of LEO motion.
func (p *Propagator) StateECEF(t time.Time) (transform.PositionECEF, error) {
	t = t.UTC()
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	if hasNaNOrInf(pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z) {
		return transform.PositionECEF{}, fmt.Errorf("sgp4 propagation failed at %v: output is NaN/Inf", t)
	}

	// Sanity check: position magnitude between ~6200 km and ~50000 km.
	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < 6200.0 || mag > 50000.0 {
		return transform.PositionECEF{}, fmt.Errorf("sgp4 propagation failed at %v: unreasonable position magnitude %.1f km", t, mag)
	}

	frac := float64(t.Nanosecond()) / 1e9
	teme := transform.PositionTEME{
		X:  pos.X + vel.X*frac,
		Y:  pos.Y + vel.Y*frac,
		Z:  pos.Z + vel.Z*frac,
		VX: vel.X,
		VY: vel.Y,
		VZ: vel.Z,
	}
	return transform.TEMEToECEF(teme, t), nil
}

func hasNaNOrInf(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
