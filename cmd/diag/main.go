// Command diag scans one ground site for visibility windows, bypassing the
// track correlation. Useful for checking element data and pass geometry in
// isolation.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/CyanideCN/satpass/internal/kinematics"
	"github.com/CyanideCN/satpass/internal/passes"
	"github.com/CyanideCN/satpass/internal/tle"
	"github.com/CyanideCN/satpass/internal/transform"
)

func main() {
	var (
		lat     = flag.Float64("lat", 39.7392, "site latitude in degrees")
		lon     = flag.Float64("lon", -104.9903, "site longitude in degrees")
		alt     = flag.Float64("alt", 0, "site altitude in meters")
		hours   = flag.Float64("hours", 24, "scan horizon in hours")
		minElev = flag.Float64("min-elevation", 0, "visibility threshold in degrees")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <tle-file>\n", os.Args[0])
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Println("ERROR reading element file:", err)
		os.Exit(1)
	}
	entries, err := tle.Parse(bytes.NewReader(data))
	if err != nil {
		fmt.Println("ERROR parsing element file:", err)
		os.Exit(1)
	}
	store := tle.NewStore(entries)
	fmt.Printf("Loaded %d element records, epochs %v .. %v\n",
		store.Len(), store.At(0).Epoch, store.At(store.Len()-1).Epoch)

	now := time.Now().UTC()
	idx, ok := store.Select(now)
	if !ok {
		fmt.Println("ERROR: empty element store")
		os.Exit(1)
	}
	entry := store.At(idx)
	fmt.Printf("Selected record %d, epoch %v (%.1f h from now)\n",
		idx, entry.Epoch, now.Sub(entry.Epoch).Hours())

	prop, err := kinematics.NewPropagator(entry)
	if err != nil {
		fmt.Println("ERROR initializing propagator:", err)
		os.Exit(1)
	}

	det := &passes.Detector{
		Prop:     prop,
		Observer: transform.NewObserverPosition(*lat, *lon, *alt),
		MinElev:  *minElev,
	}
	windows, err := det.Scan(now, now.Add(time.Duration(*hours*float64(time.Hour))), true)
	if err != nil {
		fmt.Println("ERROR scanning:", err)
		os.Exit(1)
	}

	for i, w := range windows {
		fmt.Printf("  window %d: rise=%v set=%v maxEl=%.1f° at %v (converged=%v, nadir %.2f,%.2f)\n",
			i, w.Rise.Time.Format(time.RFC3339), w.Set.Time.Format(time.RFC3339),
			w.Max.ElevationDeg, w.Max.Time.Format(time.RFC3339),
			w.Max.Converged, w.Max.SatLat, w.Max.SatLon)
	}
	fmt.Printf("\nTotal windows found: %d\n", len(windows))
}
