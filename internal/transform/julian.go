package transform

import (
	"math"
	"time"

	"github.com/star/skyframe/internal/sky"
)

// j2000 is the Julian Date of the J2000.0 epoch (2000-01-01 12:00 TT).
const j2000 = 2451545.0

// JulianDate converts a UTC instant to a Julian Date. The TT-UTC offset is
// ignored; it moves precession by far less than a readout digit.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	y := float64(t.Year())
	m := float64(t.Month())
	if m <= 2 {
		y--
		m += 12
	}
	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	dayFrac := (float64(t.Hour()) +
		float64(t.Minute())/60 +
		(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600) / 24

	return math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) +
		float64(t.Day()) + b - 1524.5 + dayFrac
}

// GMST returns Greenwich mean sidereal time in radians, IAU-82 model
// (Vallado eq. 3-47).
func GMST(t time.Time) float64 {
	tu := (JulianDate(t) - j2000) / 36525.0

	// Seconds of time; 876600h = 3155760000 s.
	sec := 67310.54841 +
		(3155760000.0+8640184.812866)*tu +
		0.093104*tu*tu -
		6.2e-6*tu*tu*tu

	sec = math.Mod(sec, 86400)
	if sec < 0 {
		sec += 86400
	}
	return sec / 86400 * 2 * math.Pi
}

// LocalSiderealTime returns the mean sidereal time in degrees [0,360) at
// an east-positive longitude.
func LocalSiderealTime(t time.Time, lonDeg float64) float64 {
	return sky.NormalizeRA(sky.Deg(GMST(t)) + lonDeg)
}

// HourAngle returns the hour angle in degrees [-180,180) of a J2000
// position, measured against its apparent RA at t.
func HourAngle(c sky.Coordinate, t time.Time, lonDeg float64) float64 {
	app := c
	if c.Epoch == sky.J2000 {
		app = ToApparent(c, t)
	}
	ha := sky.NormalizeRA(LocalSiderealTime(t, lonDeg) - app.RA)
	if ha >= 180 {
		ha -= 360
	}
	return ha
}
