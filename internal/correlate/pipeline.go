// Package correlate runs the per-fix pass search: for every storm fix it
// selects the applicable element record, scans for visibility windows,
// refines each closest-approach candidate against the interpolated storm
// position, and keeps the events passing the intensity and distance
// thresholds.
package correlate

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/CyanideCN/satpass/internal/config"
	"github.com/CyanideCN/satpass/internal/geodesy"
	"github.com/CyanideCN/satpass/internal/kinematics"
	"github.com/CyanideCN/satpass/internal/metrics"
	"github.com/CyanideCN/satpass/internal/passes"
	"github.com/CyanideCN/satpass/internal/tle"
	"github.com/CyanideCN/satpass/internal/track"
	"github.com/CyanideCN/satpass/internal/transform"
)

// refineHalfSpan is the tight re-scan radius around a candidate closest
// approach. The first scan used the storm position at the fix, not at the
// candidate time; one hour centered on the candidate is enough to redo the
// geometry from the interpolated position.
const refineHalfSpan = 30 * time.Minute

// Event is one correlated overpass: the refined closest approach of the
// satellite to the interpolated storm center.
type Event struct {
	Time        time.Time // closest approach
	DistanceKm  float64   // ground distance, satellite nadir to storm center
	ZenithDeg   float64   // 90° − elevation at closest approach
	IntensityKt float64   // interpolated storm intensity
}

// Pipeline correlates a storm track against an element store. All inputs
// are immutable once the pipeline is built, so fixes can be processed in
// parallel without locking.
type Pipeline struct {
	elements *tle.Store
	track    *track.Store
	props    []*kinematics.Propagator // index-aligned with elements
	cfg      config.Config
	logger   *slog.Logger
}

// New builds the pipeline, initializing one propagator per element record.
// Records the SGP4 model rejects are kept as gaps: fixes selecting them are
// skipped at run time rather than failing the batch.
func New(elements *tle.Store, trk *track.Store, cfg config.Config, logger *slog.Logger) *Pipeline {
	props := make([]*kinematics.Propagator, elements.Len())
	for i := 0; i < elements.Len(); i++ {
		prop, err := kinematics.NewPropagator(elements.At(i))
		if err != nil {
			logger.Warn("skipping unusable element record", "index", i, "epoch", elements.At(i).Epoch, "error", err)
			continue
		}
		props[i] = prop
	}

	return &Pipeline{
		elements: elements,
		track:    trk,
		props:    props,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run correlates every track fix and returns the flattened events.
// Each fix is processed in its own goroutine, bounded by a semaphore; fixes
// share only read-only state, and each carries its own interpolation cursor.
// Output order follows fix order, with each fix's events chronological.
func (p *Pipeline) Run(ctx context.Context) []Event {
	workers := p.cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	results := make([][]Event, p.track.Len())
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := 0; i < p.track.Len(); i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			results[idx] = p.correlateFix(ctx, idx)
			metrics.FixProcessed()
		}(i)
	}

	wg.Wait()

	var all []Event
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

// correlateFix runs the two-pass search for a single storm fix.
func (p *Pipeline) correlateFix(ctx context.Context, idx int) []Event {
	fix := p.track.At(idx)

	ei, ok := p.elements.Select(fix.Time)
	if !ok || p.props[ei] == nil {
		metrics.CandidateSkipped(metrics.SkipNoElements)
		return nil
	}
	prop := p.props[ei]

	span := time.Duration(p.cfg.StepHours * float64(time.Hour))
	det := &passes.Detector{
		Prop:     prop,
		Observer: transform.NewObserverPosition(fix.Lat, fix.Lon, 0),
		MinElev:  p.cfg.MinElevationDeg,
	}

	windows, err := det.Scan(fix.Time, fix.Time.Add(span), true)
	if err != nil {
		p.logger.Warn("window scan failed", "fix_time", fix.Time, "error", err)
		metrics.PropagationError()
		return nil
	}
	metrics.WindowsDetected(len(windows))
	for _, w := range windows {
		metrics.RefinementIterations(w.Max.Iterations)
	}

	// The cursor starts at this fix and then follows the candidate times,
	// which arrive in chronological order within the scan.
	cursor := track.Cursor(idx)

	var events []Event
	for _, w := range windows {
		if ctx.Err() != nil {
			return events
		}

		cpa := w.Max.Time
		pt, ok := p.track.Interpolate(cpa, &cursor)
		if !ok {
			metrics.CandidateSkipped(metrics.SkipOutOfTrack)
			continue
		}
		if pt.Intensity < p.cfg.IntensityThresholdKt {
			metrics.CandidateSkipped(metrics.SkipIntensity)
			continue
		}

		// Second pass: the first scan saw the storm where it was at the
		// fix, up to several hours before the approach. Redo the geometry
		// around the candidate from the interpolated storm position.
		refDet := &passes.Detector{
			Prop:     prop,
			Observer: transform.NewObserverPosition(pt.Lat, pt.Lon, 0),
			MinElev:  p.cfg.MinElevationDeg,
		}
		refined, err := refDet.Scan(cpa.Add(-refineHalfSpan), cpa.Add(refineHalfSpan), true)
		if err != nil {
			p.logger.Warn("refinement scan failed", "cpa", cpa, "error", err)
			metrics.PropagationError()
			continue
		}

		for _, rw := range refined {
			metrics.RefinementIterations(rw.Max.Iterations)
			dist := geodesy.DistanceKm(pt.Lat, pt.Lon, rw.Max.SatLat, rw.Max.SatLon)
			if dist > p.cfg.DistanceThresholdKm {
				metrics.CandidateSkipped(metrics.SkipDistance)
				continue
			}
			events = append(events, Event{
				Time:        rw.Max.Time,
				DistanceKm:  dist,
				ZenithDeg:   90.0 - rw.Max.ElevationDeg,
				IntensityKt: pt.Intensity,
			})
			metrics.EventEmitted()
		}
	}

	return events
}
