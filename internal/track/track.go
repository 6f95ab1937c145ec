// Package track loads best-track ("b-deck") storm fixes and interpolates the
// track to arbitrary query times. Fields live at fixed byte offsets; the
// format is a rigid convention from the forecast-center ecosystem, so the
// offsets are kept as documented constants rather than parsed by grammar.
package track

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Fixed-column field positions (0-indexed byte ranges).
const (
	timeStart = 8  // YYYYMMDDHH
	timeEnd   = 18
	hourStart = 16 // hour-of-day digits inside the time field
	latStart  = 35 // tenths of a degree, 3 digits
	latSign   = 38 // 'N' or 'S'
	lonStart  = 41 // tenths of a degree, 4 digits
	lonSign   = 45 // 'E' or 'W'
	windStart = 48 // knots, 3 digits
	windEnd   = 51
)

// missingWind is the sentinel the source uses for an unknown intensity.
const missingWind = 999

// Fix is one storm-track observation.
type Fix struct {
	Time      time.Time
	Lat       float64 // degrees, south negative
	Lon       float64 // degrees east in [0,360)
	Intensity float64 // knots, 0 when unknown
}

// Point is an interpolated track state.
type Point struct {
	Lat       float64
	Lon       float64
	Intensity float64
}

// Cursor is caller-held search state for Interpolate. Each worker keeps its
// own; seeding it near the expected bracket makes a monotonically advancing
// sequence of queries amortized O(1).
type Cursor int

// ParseError reports a malformed field in a track record.
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("track: line %d: %s: %v", e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("track: line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Store holds the filtered, strictly time-ordered track. Immutable after
// Parse; safe for concurrent readers.
type Store struct {
	fixes []Fix
}

// Parse reads b-deck lines from r, keeping only records whose hour-of-day is
// a multiple of cadenceHours and the first record per distinct timestamp.
// Malformed numeric fields abort the parse.
func Parse(r io.Reader, cadenceHours int) (*Store, error) {
	if cadenceHours < 1 {
		cadenceHours = 1
	}

	scanner := bufio.NewScanner(r)
	var fixes []Fix
	lastTime := ""
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		if len(line) < lonSign+1 {
			return nil, &ParseError{Line: n, Msg: fmt.Sprintf("record too short (%d bytes)", len(line))}
		}

		timeField := line[timeStart:timeEnd]
		hour, err := strconv.Atoi(line[hourStart:timeEnd])
		if err != nil {
			return nil, &ParseError{Line: n, Msg: "invalid hour", Err: err}
		}
		if hour%cadenceHours != 0 {
			continue
		}
		if timeField == lastTime {
			continue
		}
		lastTime = timeField

		ts, err := time.Parse("2006010215", timeField)
		if err != nil {
			return nil, &ParseError{Line: n, Msg: "invalid timestamp", Err: err}
		}

		lat, err := parseLat(line)
		if err != nil {
			return nil, &ParseError{Line: n, Msg: "invalid latitude", Err: err}
		}
		lon, err := parseLon(line)
		if err != nil {
			return nil, &ParseError{Line: n, Msg: "invalid longitude", Err: err}
		}
		wind, err := parseWind(line)
		if err != nil {
			return nil, &ParseError{Line: n, Msg: "invalid intensity", Err: err}
		}

		fixes = append(fixes, Fix{Time: ts, Lat: lat, Lon: lon, Intensity: wind})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading track data: %w", err)
	}

	return &Store{fixes: fixes}, nil
}

func parseLat(line string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(line[latStart:latSign]), 64)
	if err != nil {
		return 0, err
	}
	lat := v / 10.0
	if line[latSign] == 'S' {
		lat = -lat
	}
	return lat, nil
}

func parseLon(line string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(line[lonStart:lonSign]), 64)
	if err != nil {
		return 0, err
	}
	lon := v / 10.0
	// West longitudes are folded into [0,360) east.
	if line[lonSign] == 'W' {
		lon = 360.0 - lon
	}
	return lon, nil
}

func parseWind(line string) (float64, error) {
	var field string
	if len(line) < windEnd+1 {
		// Short-style records drop padding before the wind field; the value
		// is then the last 3 characters of the line.
		field = line[len(line)-3:]
	} else {
		field = line[windStart:windEnd]
	}
	wind, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, err
	}
	if wind == missingWind {
		wind = 0
	}
	return float64(wind), nil
}

// Len returns the number of retained fixes.
func (s *Store) Len() int { return len(s.fixes) }

// At returns the fix at index i.
func (s *Store) At(i int) Fix { return s.fixes[i] }

// Interpolate resolves the track state at t. It returns false when t is
// outside [first.Time, last.Time]; exact timestamp hits return the stored fix
// verbatim, and anything between two fixes is linearly interpolated.
//
// cur is advanced forward fix by fix while queries increase; a query behind
// the cursor's bracket relocates by binary search over the whole track. On
// every successful resolution cur is left at the lower bracket index.
func (s *Store) Interpolate(t time.Time, cur *Cursor) (Point, bool) {
	if len(s.fixes) == 0 {
		return Point{}, false
	}
	if t.Before(s.fixes[0].Time) || t.After(s.fixes[len(s.fixes)-1].Time) {
		return Point{}, false
	}

	i := int(*cur)
	if i > len(s.fixes)-1 {
		i = len(s.fixes) - 1
	}
	if i < 0 {
		i = 0
	}

	if t.Before(s.fixes[i].Time) {
		// Query moved backward: relocate with a full binary search.
		j := sort.Search(len(s.fixes), func(k int) bool {
			return !s.fixes[k].Time.Before(t)
		})
		if j < len(s.fixes) && s.fixes[j].Time.Equal(t) {
			*cur = Cursor(j)
			return pointAt(s.fixes[j]), true
		}
		if j == 0 || j >= len(s.fixes) {
			return Point{}, false
		}
		i = j - 1
	} else {
		for i+1 < len(s.fixes) && s.fixes[i+1].Time.Before(t) {
			i++
		}
	}

	if s.fixes[i].Time.Equal(t) {
		*cur = Cursor(i)
		return pointAt(s.fixes[i]), true
	}
	if i+1 < len(s.fixes) && s.fixes[i+1].Time.Equal(t) {
		*cur = Cursor(i + 1)
		return pointAt(s.fixes[i+1]), true
	}
	if i+1 >= len(s.fixes) {
		return Point{}, false
	}

	f0, f1 := s.fixes[i], s.fixes[i+1]
	factor := t.Sub(f0.Time).Seconds() / f1.Time.Sub(f0.Time).Seconds()

	*cur = Cursor(i)
	return Point{
		Lat:       f0.Lat + factor*(f1.Lat-f0.Lat),
		Lon:       f0.Lon + factor*(f1.Lon-f0.Lon),
		Intensity: f0.Intensity + factor*(f1.Intensity-f0.Intensity),
	}, true
}

func pointAt(f Fix) Point {
	return Point{Lat: f.Lat, Lon: f.Lon, Intensity: f.Intensity}
}
