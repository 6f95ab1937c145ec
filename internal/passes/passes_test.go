package passes

import (
	"testing"
	"time"

	"github.com/CyanideCN/satpass/internal/kinematics"
	"github.com/CyanideCN/satpass/internal/tle"
	"github.com/CyanideCN/satpass/internal/transform"
)

// Real ISS element set (epoch Feb 2025, valid for pass geometry tests).
var issEntry = tle.Entry{
	Line1: "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993",
	Line2: "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058",
	Epoch: time.Date(2025, 2, 14, 4, 19, 40, 0, time.UTC),
}

var scanStart = time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)

func newDetector(t *testing.T) *Detector {
	t.Helper()
	prop, err := kinematics.NewPropagator(issEntry)
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}
	return &Detector{
		Prop:     prop,
		Observer: transform.NewObserverPosition(40.7128, -74.006, 0),
		MinElev:  0,
	}
}

func TestScanFindsCompleteWindows(t *testing.T) {
	d := newDetector(t)

	windows, err := d.Scan(scanStart, scanStart.Add(24*time.Hour), true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(windows) == 0 {
		t.Fatal("expected at least one ISS visibility window over NYC in 24h")
	}

	for i, w := range windows {
		if !w.Rise.Time.Before(w.Set.Time) {
			t.Errorf("window %d: rise %v not before set %v", i, w.Rise.Time, w.Set.Time)
		}
		if w.Rise.ElevationDeg < -0.1 || w.Rise.ElevationDeg > 0.1 {
			t.Errorf("window %d: rise elevation %f not at threshold", i, w.Rise.ElevationDeg)
		}
		if w.Rise.ElevationRateDeg <= 0 {
			t.Errorf("window %d: rise rate %f not positive", i, w.Rise.ElevationRateDeg)
		}
		if w.Set.ElevationRateDeg >= 0 {
			t.Errorf("window %d: set rate %f not negative", i, w.Set.ElevationRateDeg)
		}

		if w.Max == nil {
			t.Fatalf("window %d: missing max-elevation observation", i)
		}
		if w.Max.Time.Before(w.Rise.Time) || w.Max.Time.After(w.Set.Time) {
			t.Errorf("window %d: max time %v outside window", i, w.Max.Time)
		}
		if w.Max.ElevationDeg < w.Rise.ElevationDeg || w.Max.ElevationDeg > 90 {
			t.Errorf("window %d: max elevation %f implausible", i, w.Max.ElevationDeg)
		}
		if !w.Max.Converged {
			t.Errorf("window %d: bisection did not converge (%d iterations)", i, w.Max.Iterations)
		}

		t.Logf("window %d: rise=%v maxEl=%.1f° at %v set=%v iters=%d",
			i, w.Rise.Time.Format(time.RFC3339), w.Max.ElevationDeg,
			w.Max.Time.Format(time.RFC3339), w.Set.Time.Format(time.RFC3339), w.Max.Iterations)
	}

	// Chronological and non-overlapping.
	for i := 1; i < len(windows); i++ {
		if !windows[i-1].Set.Time.Before(windows[i].Rise.Time) {
			t.Errorf("windows %d and %d overlap", i-1, i)
		}
	}
}

func TestScanMidPassWalksBackToRise(t *testing.T) {
	d := newDetector(t)

	windows, err := d.Scan(scanStart, scanStart.Add(24*time.Hour), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) == 0 {
		t.Fatal("no windows found")
	}
	ref := windows[0]

	// Start a new scan in the middle of the first window: the rise must be
	// recovered by the backward walk, not truncated at the scan start.
	mid := ref.Rise.Time.Add(ref.Set.Time.Sub(ref.Rise.Time) / 2)
	windows2, err := d.Scan(mid, mid.Add(time.Hour), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(windows2) == 0 {
		t.Fatal("mid-pass scan found no windows")
	}
	got := windows2[0]
	if got.Rise.Time.After(mid) {
		t.Errorf("rise %v is after the scan start %v; backward walk failed", got.Rise.Time, mid)
	}
	if delta := got.Rise.Time.Sub(ref.Rise.Time); delta < -2*time.Second || delta > 2*time.Second {
		t.Errorf("recovered rise %v differs from reference %v by %v", got.Rise.Time, ref.Rise.Time, delta)
	}
}

func TestScanDiscardsPartialWindow(t *testing.T) {
	d := newDetector(t)

	windows, err := d.Scan(scanStart, scanStart.Add(24*time.Hour), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) == 0 {
		t.Fatal("no windows found")
	}
	first := windows[0]

	// Stop the scan before the first window sets: no one-sided window may
	// be emitted.
	stop := first.Rise.Time.Add(30 * time.Second)
	if !stop.Before(first.Set.Time) {
		t.Skip("first window shorter than 30s")
	}
	partial, err := d.Scan(scanStart, stop, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(partial) != 0 {
		t.Errorf("expected no windows from truncated scan, got %d", len(partial))
	}
}

func TestMaxElevationDegenerateBracket(t *testing.T) {
	d := newDetector(t)

	windows, err := d.Scan(scanStart, scanStart.Add(24*time.Hour), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) == 0 {
		t.Fatal("no windows found")
	}

	// A bracket entirely on the rising side has no rate sign change; the
	// refiner must give up immediately and say so.
	rise := windows[0].Rise.Time
	max, err := d.MaxElevationBetween(rise, rise.Add(10*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if max.Converged {
		t.Error("expected non-converged result for a monotonic bracket")
	}
	if max.Iterations != 0 {
		t.Errorf("degenerate bracket took %d iterations, want 0", max.Iterations)
	}
	if max.Time.IsZero() {
		t.Error("degenerate result should still carry the midpoint estimate")
	}
}

func TestStepPolicy(t *testing.T) {
	d := newDetector(t)

	cases := []struct {
		elevation float64
		want      time.Duration
	}{
		{-40, coarseStep},
		{-5.1, coarseStep},
		{-4.9, fineStep},
		{0, fineStep},
		{4.9, fineStep},
		{5.1, coarseStep},
		{60, coarseStep},
	}
	for _, c := range cases {
		if got := d.stepFor(c.elevation); got != c.want {
			t.Errorf("stepFor(%f) = %v, want %v", c.elevation, got, c.want)
		}
	}
}

func BenchmarkScan24h(b *testing.B) {
	prop, err := kinematics.NewPropagator(issEntry)
	if err != nil {
		b.Fatal(err)
	}
	d := &Detector{
		Prop:     prop,
		Observer: transform.NewObserverPosition(40.7128, -74.006, 0),
		MinElev:  0,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Scan(scanStart, scanStart.Add(24*time.Hour), true); err != nil {
			b.Fatal(err)
		}
	}
}
