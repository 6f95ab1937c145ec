package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/CyanideCN/satpass/internal/config"
	"github.com/CyanideCN/satpass/internal/correlate"
	"github.com/CyanideCN/satpass/internal/health"
	"github.com/CyanideCN/satpass/internal/metrics"
	"github.com/CyanideCN/satpass/internal/product"
	"github.com/CyanideCN/satpass/internal/tle"
	"github.com/CyanideCN/satpass/internal/track"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	var (
		configPath = flag.String("config", "", "YAML config file (also SATPASS_CONFIG)")
		step       = flag.Float64("step", 0, "scan horizon and track cadence in hours")
		intensity  = flag.Float64("intensity", 0, "minimum storm intensity in knots")
		distance   = flag.Float64("distance", 0, "maximum nadir-to-center distance in km")
		productArg = flag.String("product", "", "granule naming platform: aqua or terra")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [tle-file-or-url] <b-deck-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var tleSource, deckPath string
	switch flag.NArg() {
	case 2:
		tleSource, deckPath = flag.Arg(0), flag.Arg(1)
	case 1:
		// Element source from config or SATPASS_TLE_SOURCE.
		tleSource, deckPath = cfg.TLESource, flag.Arg(0)
	}
	if tleSource == "" || deckPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Flags beat both file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "step":
			cfg.StepHours = *step
		case "intensity":
			cfg.IntensityThresholdKt = *intensity
		case "distance":
			cfg.DistanceThresholdKm = *distance
		case "product":
			cfg.Product = *productArg
		}
	})
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	platform, err := product.ParsePlatform(cfg.Product)
	if err != nil {
		logger.Error("invalid product platform", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	elements, err := loadElements(ctx, logger, tleSource)
	if err != nil {
		logger.Error("failed to load element sets", "source", tleSource, "error", err)
		os.Exit(1)
	}
	metrics.SetElementsLoaded(elements.Len())
	logger.Info("element sets loaded", "source", tleSource, "count", elements.Len())

	trk, err := loadTrack(deckPath, cfg.CadenceHours())
	if err != nil {
		logger.Error("failed to load storm track", "path", deckPath, "error", err)
		os.Exit(1)
	}
	metrics.SetTrackFixesLoaded(trk.Len())
	logger.Info("storm track loaded", "path", deckPath, "fixes", trk.Len(), "cadence_hours", cfg.CadenceHours())

	if cfg.MetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			mux.HandleFunc("/healthz", health.Healthz)
			mux.HandleFunc("/readyz", health.Readyz)
			logger.Info("serving metrics", "addr", cfg.MetricsAddress)
			if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
				logger.Warn("metrics listener stopped", "error", err)
			}
		}()
	}

	start := time.Now()
	events := correlate.New(elements, trk, cfg, logger).Run(ctx)
	logger.Info("correlation finished", "events", len(events), "elapsed", time.Since(start).String())

	for _, e := range events {
		printEvent(os.Stdout, e, platform)
	}

	if ctx.Err() != nil {
		os.Exit(1)
	}
}

func loadElements(ctx context.Context, logger *slog.Logger, source string) (*tle.Store, error) {
	var data []byte
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		logger.Info("fetching element sets", "url", source)
		data, err = tle.NewFetcher(source).Fetch(ctx)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	entries, err := tle.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no element sets in %s", source)
	}
	return tle.NewStore(entries), nil
}

func loadTrack(path string, cadenceHours int) (*track.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	trk, err := track.Parse(f, cadenceHours)
	if err != nil {
		return nil, err
	}
	if trk.Len() == 0 {
		return nil, fmt.Errorf("no usable fixes in %s", path)
	}
	return trk, nil
}

func printEvent(w io.Writer, e correlate.Event, platform product.Platform) {
	line := fmt.Sprintf("%s - Distance: %4.0f km  Zenith: %4.1f° Intensity: %3.0f kt",
		e.Time.UTC().Format("2006-01-02 15:04:05"), e.DistanceKm, e.ZenithDeg, e.IntensityKt)
	if name := platform.GranuleName(e.Time); name != "" {
		line += "   " + name
	}
	fmt.Fprintln(w, line)
}
