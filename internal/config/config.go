// Package config holds the knobs of a correlation run: scan cadence,
// event thresholds, parallelism, and the optional metrics listener.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config captures the settings of one correlation run.
type Config struct {
	// StepHours is the track cadence and per-fix scan horizon in hours.
	StepHours float64 `yaml:"stepHours"`
	// IntensityThresholdKt drops candidates whose interpolated storm
	// intensity is below this many knots.
	IntensityThresholdKt float64 `yaml:"intensityThresholdKt"`
	// DistanceThresholdKm drops refined events farther than this from the
	// storm center.
	DistanceThresholdKm float64 `yaml:"distanceThresholdKm"`
	// MinElevationDeg is the visibility threshold for window detection.
	MinElevationDeg float64 `yaml:"minElevationDeg"`
	// Workers bounds the parallel per-fix correlation; 0 means NumCPU.
	Workers int `yaml:"workers"`
	// MetricsAddress, when non-empty, serves Prometheus metrics during the
	// run (e.g. ":2112").
	MetricsAddress string `yaml:"metricsAddress"`
	// Product selects granule naming in the report: "aqua", "terra" or "".
	Product string `yaml:"product"`
	// TLESource, when non-empty, is the element-set path or URL used when
	// the command line does not name one.
	TLESource string `yaml:"tleSource"`
}

// Default returns the standard thresholds: 6-hourly cadence, 100 kt
// intensity, 1165 km ground distance, horizon-level visibility.
func Default() Config {
	return Config{
		StepHours:            6,
		IntensityThresholdKt: 100,
		DistanceThresholdKm:  1165,
		MinElevationDeg:      0,
		Workers:              runtime.NumCPU(),
	}
}

// Load initialises Config from an optional YAML file and SATPASS_*
// environment overrides, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("SATPASS_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	if c.StepHours <= 0 {
		return fmt.Errorf("stepHours must be > 0, got %v", c.StepHours)
	}
	if c.IntensityThresholdKt < 0 {
		return fmt.Errorf("intensityThresholdKt must be >= 0, got %v", c.IntensityThresholdKt)
	}
	if c.DistanceThresholdKm < 0 {
		return fmt.Errorf("distanceThresholdKm must be >= 0, got %v", c.DistanceThresholdKm)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}

// CadenceHours is the whole-hour cadence used by the track filter: the
// integer floor of StepHours, at least 1.
func (c Config) CadenceHours() int {
	h := int(c.StepHours)
	if h < 1 {
		h = 1
	}
	return h
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SATPASS_STEP_HOURS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.StepHours = f
		}
	}
	if v := os.Getenv("SATPASS_INTENSITY_KT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.IntensityThresholdKt = f
		}
	}
	if v := os.Getenv("SATPASS_DISTANCE_KM"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.DistanceThresholdKm = f
		}
	}
	if v := os.Getenv("SATPASS_MIN_ELEVATION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MinElevationDeg = f
		}
	}
	if v := os.Getenv("SATPASS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("SATPASS_METRICS_ADDR"); v != "" {
		cfg.MetricsAddress = v
	}
	if v := os.Getenv("SATPASS_PRODUCT"); v != "" {
		cfg.Product = v
	}
	if v := os.Getenv("SATPASS_TLE_SOURCE"); v != "" {
		cfg.TLESource = v
	}
}
