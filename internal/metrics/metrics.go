// Package metrics instruments a correlation run. Long batch jobs over full
// seasons of tracks take minutes; exposing the counters over an optional
// listener lets an operator watch progress instead of waiting blind.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	elementsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satpass_elements_loaded",
			Help: "Number of orbital-element records in the store.",
		},
	)

	trackFixesLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satpass_track_fixes_loaded",
			Help: "Number of storm-track fixes retained after filtering.",
		},
	)

	fixesProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "satpass_fixes_processed_total",
			Help: "Track fixes the correlation pipeline has finished.",
		},
	)

	windowsDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "satpass_windows_detected_total",
			Help: "Visibility windows found across all scans.",
		},
	)

	candidatesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satpass_candidates_skipped_total",
			Help: "Closest-approach candidates dropped before emission.",
		},
		[]string{"reason"},
	)

	eventsEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "satpass_events_emitted_total",
			Help: "Correlated pass events passing all thresholds.",
		},
	)

	propagationErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "satpass_propagation_errors_total",
			Help: "Scans aborted by SGP4 propagation failures.",
		},
	)

	refinementIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "satpass_refinement_iterations",
			Help:    "Bisection iterations needed to pin a maximum elevation.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)

func init() {
	prometheus.MustRegister(elementsLoaded)
	prometheus.MustRegister(trackFixesLoaded)
	prometheus.MustRegister(fixesProcessed)
	prometheus.MustRegister(windowsDetected)
	prometheus.MustRegister(candidatesSkipped)
	prometheus.MustRegister(eventsEmitted)
	prometheus.MustRegister(propagationErrors)
	prometheus.MustRegister(refinementIterations)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetElementsLoaded records the element store size.
func SetElementsLoaded(n int) {
	elementsLoaded.Set(float64(n))
}

// SetTrackFixesLoaded records the track store size.
func SetTrackFixesLoaded(n int) {
	trackFixesLoaded.Set(float64(n))
}

// FixProcessed marks one track fix as fully correlated.
func FixProcessed() {
	fixesProcessed.Inc()
}

// WindowsDetected adds to the visibility-window count.
func WindowsDetected(n int) {
	windowsDetected.Add(float64(n))
}

// Skip reasons for CandidateSkipped.
const (
	SkipNoElements = "no_elements"
	SkipOutOfTrack = "out_of_track"
	SkipIntensity  = "below_intensity"
	SkipDistance   = "beyond_distance"
)

// CandidateSkipped counts a dropped closest-approach candidate.
func CandidateSkipped(reason string) {
	candidatesSkipped.WithLabelValues(reason).Inc()
}

// EventEmitted counts one correlated pass event.
func EventEmitted() {
	eventsEmitted.Inc()
}

// PropagationError counts a scan aborted by a propagation failure.
func PropagationError() {
	propagationErrors.Inc()
}

// RefinementIterations records the bisection cost of one refined maximum.
func RefinementIterations(n int) {
	refinementIterations.Observe(float64(n))
}
