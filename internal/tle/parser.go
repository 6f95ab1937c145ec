package tle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Epoch field position in line 1 (0-indexed byte range), YYDDD.DDDDDDDD.
const (
	epochStart = 18
	epochEnd   = 32
)

// Parse reads consecutive line pairs from r and extracts each record's epoch.
// Blank lines and optional name lines between records are ignored; a record
// whose epoch field is absent or malformed aborts the parse with a ParseError.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	var lineNums []int
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line == "" {
			continue
		}
		// Name lines carried by 3-line files are not element data.
		if !strings.HasPrefix(line, "1 ") && !strings.HasPrefix(line, "2 ") {
			continue
		}
		lines = append(lines, line)
		lineNums = append(lineNums, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading element data: %w", err)
	}

	var entries []Entry
	for i := 0; i+1 < len(lines); i += 2 {
		line1, line2 := lines[i], lines[i+1]
		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			return nil, &ParseError{Line: lineNums[i], Msg: "element lines out of order"}
		}
		if len(line1) < epochEnd {
			return nil, &ParseError{Line: lineNums[i], Msg: fmt.Sprintf("line 1 too short for epoch field (%d bytes)", len(line1))}
		}

		epoch, err := parseEpoch(strings.TrimSpace(line1[epochStart:epochEnd]))
		if err != nil {
			return nil, &ParseError{Line: lineNums[i], Msg: "invalid epoch", Err: err}
		}

		entries = append(entries, Entry{Line1: line1, Line2: line2, Epoch: epoch})
	}

	return entries, nil
}

// parseEpoch converts a YYDDD.DDDDDDDD epoch string to time.Time.
// Two-digit years pivot at 57: 00-56 → 2000s, 57-99 → 1900s. The fractional
// day is rounded to whole seconds.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch year %q: %w", s[:2], err)
	}
	if year < 57 {
		year += 2000
	} else {
		year += 1900
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch day %q: %w", s[2:], err)
	}
	if dayOfYear < 1 {
		return time.Time{}, fmt.Errorf("epoch day %f out of range", dayOfYear)
	}

	wholeDays := int(dayOfYear)
	secs := int(float64(86400)*(dayOfYear-float64(wholeDays)) + 0.5)

	// Day 1 is January 1st.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, wholeDays-1).
		Add(time.Duration(secs) * time.Second)
	return t, nil
}
