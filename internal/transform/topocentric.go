package transform

import "math"

// WGS-84 ellipsoid parameters.
const (
	wgs84A  = 6378137.0             // semi-major axis (meters)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// ObserverPosition holds a ground observer in both geodetic and ECEF frames.
// The ECEF coordinates are precomputed once so repeated look-angle queries
// against the same observer avoid the ellipsoid math.
type ObserverPosition struct {
	LatRad, LonRad, AltM float64
	ECEFx, ECEFy, ECEFz  float64 // meters
}

// LookAngles is the observer-relative geometry of a satellite: where it sits
// on the sky and how fast it is climbing or sinking.
type LookAngles struct {
	AzimuthDeg       float64 // 0 = North, clockwise
	ElevationDeg     float64 // 0 = horizon, 90 = zenith
	ElevationRateDeg float64 // deg/s, positive while rising
	RangeKm          float64
}

// NewObserverPosition creates an ObserverPosition from geodetic coordinates
// (degrees, meters above the WGS-84 ellipsoid). Longitudes in [0,360) are
// accepted as-is; the trigonometry is periodic.
func NewObserverPosition(latDeg, lonDeg, altM float64) ObserverPosition {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Radius of curvature in the prime vertical.
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return ObserverPosition{
		LatRad: lat,
		LonRad: lon,
		AltM:   altM,
		ECEFx:  (n + altM) * cosLat * math.Cos(lon),
		ECEFy:  (n + altM) * cosLat * math.Sin(lon),
		ECEFz:  (n*(1-wgs84E2) + altM) * sinLat,
	}
}

// ECEFToLookAngles computes azimuth, elevation, elevation rate, and range
// from an observer to a satellite ECEF state vector (meters, m/s).
//
// The range vector is rotated into the SEZ (South-East-Zenith) topocentric
// frame (Vallado Section 4.4). The observer is stationary in ECEF, so the
// relative velocity in SEZ is just the satellite's ECEF velocity rotated the
// same way, which gives the elevation rate in closed form:
//
//	el  = asin(z/ρ)
//	el' = (ż·ρ − z·ρ̇) / (ρ·√(s²+e²))
func ECEFToLookAngles(obs ObserverPosition, sat PositionECEF) LookAngles {
	rx := sat.X - obs.ECEFx
	ry := sat.Y - obs.ECEFy
	rz := sat.Z - obs.ECEFz

	sinLat := math.Sin(obs.LatRad)
	cosLat := math.Cos(obs.LatRad)
	sinLon := math.Sin(obs.LonRad)
	cosLon := math.Cos(obs.LonRad)

	south := sinLat*cosLon*rx + sinLat*sinLon*ry - cosLat*rz
	east := -sinLon*rx + cosLon*ry
	zenith := cosLat*cosLon*rx + cosLat*sinLon*ry + sinLat*rz

	vSouth := sinLat*cosLon*sat.VX + sinLat*sinLon*sat.VY - cosLat*sat.VZ
	vEast := -sinLon*sat.VX + cosLon*sat.VY
	vZenith := cosLat*cosLon*sat.VX + cosLat*sinLon*sat.VY + sinLat*sat.VZ

	rng := math.Sqrt(south*south + east*east + zenith*zenith)
	if rng == 0 {
		rng = 1e-9
	}
	rngRate := (south*vSouth + east*vEast + zenith*vZenith) / rng

	el := math.Asin(zenith / rng)

	// North = -South in SEZ, so azimuth clockwise from North is atan2(E, -S).
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	horiz := math.Sqrt(south*south + east*east)
	var elRate float64
	if horiz > 1e-9 {
		elRate = (vZenith*rng - zenith*rngRate) / (rng * horiz)
	}

	return LookAngles{
		AzimuthDeg:       az * 180.0 / math.Pi,
		ElevationDeg:     el * 180.0 / math.Pi,
		ElevationRateDeg: elRate * 180.0 / math.Pi,
		RangeKm:          rng / 1000.0,
	}
}
