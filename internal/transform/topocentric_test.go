package transform

import (
	"math"
	"testing"
	"time"
)

func ecefMag(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}

func TestNewObserverPosition_ECEFMagnitude(t *testing.T) {
	// Sea-level observer on the equator: magnitude equals the equatorial radius.
	obs := NewObserverPosition(0, 0, 0)
	if mag := ecefMag(obs.ECEFx, obs.ECEFy, obs.ECEFz); math.Abs(mag-6378137.0) > 1.0 {
		t.Errorf("equatorial observer ECEF magnitude = %.1f m, want ~6378137 m", mag)
	}

	// North pole: polar radius.
	obs2 := NewObserverPosition(90, 0, 0)
	if mag := ecefMag(obs2.ECEFx, obs2.ECEFy, obs2.ECEFz); math.Abs(mag-6356752.3) > 1.0 {
		t.Errorf("polar observer ECEF magnitude = %.1f m, want ~6356752 m", mag)
	}
}

func TestNewObserverPosition_WrappedLongitude(t *testing.T) {
	// 280°E and -80°E are the same meridian; storm tracks use the [0,360) form.
	a := NewObserverPosition(25, 280, 0)
	b := NewObserverPosition(25, -80, 0)
	if math.Abs(a.ECEFx-b.ECEFx) > 1e-6 || math.Abs(a.ECEFy-b.ECEFy) > 1e-6 || math.Abs(a.ECEFz-b.ECEFz) > 1e-6 {
		t.Errorf("280E observer = (%f,%f,%f), -80E observer = (%f,%f,%f)",
			a.ECEFx, a.ECEFy, a.ECEFz, b.ECEFx, b.ECEFy, b.ECEFz)
	}
}

func TestECEFToLookAngles_DirectlyOverhead(t *testing.T) {
	obs := NewObserverPosition(0, 0, 0)

	// Satellite 400 km straight up from the equator/prime-meridian observer,
	// moving radially outward so the elevation rate is exactly zero.
	sat := PositionECEF{X: obs.ECEFx + 400000.0, Y: obs.ECEFy, Z: obs.ECEFz, VX: 1000}

	la := ECEFToLookAngles(obs, sat)
	if math.Abs(la.ElevationDeg-90.0) > 0.1 {
		t.Errorf("overhead elevation = %.2f deg, want ~90", la.ElevationDeg)
	}
	if math.Abs(la.RangeKm-400.0) > 1.0 {
		t.Errorf("overhead range = %.2f km, want ~400", la.RangeKm)
	}
}

func TestECEFToLookAngles_ElevationRateSign(t *testing.T) {
	obs := NewObserverPosition(0, 0, 0)

	// Satellite offset to the east at 400 km altitude, moving westward toward
	// the observer's zenith: elevation must be climbing.
	sat := PositionECEF{
		X:  obs.ECEFx + 400000.0,
		Y:  500000.0,
		Z:  0,
		VY: -7000.0,
	}
	la := ECEFToLookAngles(obs, sat)
	if la.ElevationRateDeg <= 0 {
		t.Errorf("approaching satellite elevation rate = %f deg/s, want > 0", la.ElevationRateDeg)
	}

	// Same geometry moving away: elevation must be sinking.
	sat.VY = 7000.0
	la = ECEFToLookAngles(obs, sat)
	if la.ElevationRateDeg >= 0 {
		t.Errorf("receding satellite elevation rate = %f deg/s, want < 0", la.ElevationRateDeg)
	}
}

func TestECEFToLookAngles_RateMatchesFiniteDifference(t *testing.T) {
	obs := NewObserverPosition(30, 250, 0)

	// A satellite on a mid-pass trajectory: compare the analytic rate against
	// a central finite difference of the elevation along the velocity.
	sat := PositionECEF{
		X: obs.ECEFx * 1.05, Y: obs.ECEFy*1.05 + 600000, Z: obs.ECEFz*1.05 - 300000,
		VX: -2000, VY: 5500, VZ: 3000,
	}

	const dt = 0.01
	before := PositionECEF{X: sat.X - sat.VX*dt, Y: sat.Y - sat.VY*dt, Z: sat.Z - sat.VZ*dt}
	after := PositionECEF{X: sat.X + sat.VX*dt, Y: sat.Y + sat.VY*dt, Z: sat.Z + sat.VZ*dt}

	elBefore := ECEFToLookAngles(obs, before).ElevationDeg
	elAfter := ECEFToLookAngles(obs, after).ElevationDeg
	numeric := (elAfter - elBefore) / (2 * dt)

	analytic := ECEFToLookAngles(obs, sat).ElevationRateDeg
	if math.Abs(analytic-numeric) > 1e-3 {
		t.Errorf("analytic rate %f deg/s vs finite difference %f deg/s", analytic, numeric)
	}
}

func TestGMST_J2000Reference(t *testing.T) {
	// GMST at the J2000.0 epoch (2000-01-01 12:00 UT) is 280.4606°.
	g := GMST(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	want := 280.4606 * math.Pi / 180.0
	if math.Abs(g-want) > 1e-4 {
		t.Errorf("GMST(J2000) = %f rad, want %f rad", g, want)
	}
}

func TestECEFToGeodetic_RoundTrip(t *testing.T) {
	cases := []struct {
		lat, lon, alt float64
	}{
		{0, 0, 0},
		{27.5867, -82.4251, 0},
		{51.6, 100.0, 420000},
		{-45.0, -170.0, 800000},
	}
	for _, c := range cases {
		obs := NewObserverPosition(c.lat, c.lon, c.alt)
		geo := ECEFToGeodetic(obs.ECEFx, obs.ECEFy, obs.ECEFz)
		if math.Abs(geo.LatDeg-c.lat) > 1e-6 {
			t.Errorf("lat %f round-trips to %f", c.lat, geo.LatDeg)
		}
		if math.Abs(geo.LonDeg-c.lon) > 1e-6 {
			t.Errorf("lon %f round-trips to %f", c.lon, geo.LonDeg)
		}
		if math.Abs(geo.AltM-c.alt) > 0.01 {
			t.Errorf("alt %f round-trips to %f", c.alt, geo.AltM)
		}
	}
}

func TestTEMEToECEF_PreservesMagnitude(t *testing.T) {
	// The GMST rotation is a pure Z rotation: position magnitude is invariant.
	teme := PositionTEME{X: 4000, Y: -3000, Z: 4500, VX: 5, VY: 4, VZ: -3}
	when := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)

	ecef := TEMEToECEF(teme, when)
	magTEME := ecefMag(teme.X, teme.Y, teme.Z) * 1000.0
	magECEF := ecefMag(ecef.X, ecef.Y, ecef.Z)
	if math.Abs(magTEME-magECEF) > 1e-3 {
		t.Errorf("TEME magnitude %.3f m vs ECEF magnitude %.3f m", magTEME, magECEF)
	}
	if ecef.Z != teme.Z*1000.0 {
		t.Errorf("Z component changed: %f -> %f", teme.Z*1000.0, ecef.Z)
	}
}
