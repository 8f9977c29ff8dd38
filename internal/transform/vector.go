package transform

import (
	"math"

	"github.com/star/skyframe/internal/sky"
)

// Vec3 is a Cartesian vector on or near the unit celestial sphere.
type Vec3 struct {
	X, Y, Z float64
}

// UnitVector returns the direction of (ra, dec) in degrees.
func UnitVector(raDeg, decDeg float64) Vec3 {
	sRA, cRA := math.Sincos(sky.Rad(raDeg))
	sDec, cDec := math.Sincos(sky.Rad(decDeg))
	return Vec3{X: cDec * cRA, Y: cDec * sRA, Z: sDec}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Scale returns k·v.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// RADec converts the vector back to degrees, RA in [0,360).
// The vector need not be normalized. At the poles atan2(0, 0) yields RA 0.
func (v Vec3) RADec() (float64, float64) {
	n := v.Norm()
	if n == 0 {
		return 0, 0
	}
	z := v.Z / n
	// Rounding can push |z| a hair past 1.
	if z > 1 {
		z = 1
	} else if z < -1 {
		z = -1
	}
	ra := sky.NormalizeRA(sky.Deg(math.Atan2(v.Y, v.X)))
	return ra, sky.Deg(math.Asin(z))
}
