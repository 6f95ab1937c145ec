// Package product maps pass times to remote-sensing product filenames so an
// operator can go straight from a correlated event to the matching granule.
package product

import (
	"fmt"
	"strings"
	"time"
)

// Platform selects the imaging platform whose granule naming applies.
type Platform string

const (
	PlatformNone  Platform = ""
	PlatformAqua  Platform = "aqua"
	PlatformTerra Platform = "terra"
)

// ParsePlatform converts a configuration string to a Platform.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PlatformNone, nil
	case "aqua":
		return PlatformAqua, nil
	case "terra":
		return PlatformTerra, nil
	default:
		return PlatformNone, fmt.Errorf("unknown platform %q (want aqua or terra)", s)
	}
}

// GranuleName returns the MODIS level-1B granule name covering t, or "" for
// PlatformNone. MODIS granules are cut every 5 minutes, so the scan time is
// rounded down to the most recent 5-minute boundary.
func (p Platform) GranuleName(t time.Time) string {
	var prefix string
	switch p {
	case PlatformAqua:
		prefix = "MYD021KM"
	case PlatformTerra:
		prefix = "MOD021KM"
	default:
		return ""
	}

	t = t.UTC()
	minute := (t.Minute() / 5) * 5
	return fmt.Sprintf("%s.A%04d%03d.%02d%02d", prefix, t.Year(), t.YearDay(), t.Hour(), minute)
}
