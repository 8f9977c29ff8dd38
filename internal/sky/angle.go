package sky

import "math"

const (
	deg2rad = math.Pi / 180.0
	rad2deg = 180.0 / math.Pi
)

// Rad converts degrees to radians.
func Rad(deg float64) float64 { return deg * deg2rad }

// Deg converts radians to degrees.
func Deg(rad float64) float64 { return rad * rad2deg }

// NormalizeRA wraps an RA value into [0,360).
func NormalizeRA(ra float64) float64 {
	ra = math.Mod(ra, 360.0)
	if ra < 0 {
		ra += 360.0
	}
	// -1e-17 + 360 rounds to 360.
	if ra >= 360.0 {
		ra = 0
	}
	return ra
}

// NormalizeRotation wraps a position angle into [0,360).
func NormalizeRotation(deg float64) float64 {
	return NormalizeRA(deg)
}

// Normalize wraps RA into [0,360) and folds a declination that stepped past
// a pole back onto the sphere, moving RA by 180°.
func Normalize(ra, dec float64) (float64, float64) {
	if dec > 90 || dec < -90 {
		dec = math.Mod(dec+90, 360)
		if dec < 0 {
			dec += 360
		}
		dec -= 90
		if dec > 90 {
			dec = 180 - dec
			ra += 180
		}
	}
	return NormalizeRA(ra), dec
}

// MathAngle converts a screen rotation (clockwise-positive) into the
// counter-clockwise angle used by the planar math. This is the only place
// the sign flips.
func MathAngle(rotationDeg float64) float64 {
	return -rotationDeg
}

// Rotate turns the planar offset (x, y), with y pointing north/up, by the
// given screen rotation.
func Rotate(x, y, rotationDeg float64) (float64, float64) {
	theta := Rad(MathAngle(rotationDeg))
	sin, cos := math.Sincos(theta)
	return x*cos - y*sin, x*sin + y*cos
}
