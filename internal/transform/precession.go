package transform

import (
	"math"
	"time"

	"github.com/star/skyframe/internal/sky"
)

// arcsec2rad converts arcseconds to radians.
const arcsec2rad = math.Pi / (180.0 * 3600.0)

// Matrix3 is a row-major 3×3 rotation matrix.
type Matrix3 [3][3]float64

// Apply returns m·v.
func (m Matrix3) Apply(v Vec3) Vec3 {
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Transpose returns mᵗ, which is the inverse for a rotation matrix.
func (m Matrix3) Transpose() Matrix3 {
	var t Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = m[j][i]
		}
	}
	return t
}

// JulianCenturies returns T, Julian centuries since J2000.0.
func JulianCenturies(t time.Time) float64 {
	return (JulianDate(t.UTC()) - j2000) / 36525.0
}

// PrecessionAngles returns the IAU 1976 angles ζ, z, θ in radians.
//
// Lieske et al. (1977), with J2000 as the fixed starting epoch:
//
//	ζ = 2306.2181″T + 0.30188″T² + 0.017998″T³
//	z = 2306.2181″T + 1.09468″T² + 0.018203″T³
//	θ = 2004.3109″T − 0.42665″T² − 0.041833″T³
func PrecessionAngles(T float64) (zeta, z, theta float64) {
	T2 := T * T
	T3 := T2 * T
	zeta = (2306.2181*T + 0.30188*T2 + 0.017998*T3) * arcsec2rad
	z = (2306.2181*T + 1.09468*T2 + 0.018203*T3) * arcsec2rad
	theta = (2004.3109*T - 0.42665*T2 - 0.041833*T3) * arcsec2rad
	return zeta, z, theta
}

// PrecessionMatrix builds P = R3(−z)·R2(θ)·R3(−ζ), which carries a J2000
// unit vector to the mean equator and equinox of the given instant.
func PrecessionMatrix(at time.Time) Matrix3 {
	zeta, z, theta := PrecessionAngles(JulianCenturies(at))

	sZeta, cZeta := math.Sincos(zeta)
	sZ, cZ := math.Sincos(z)
	sTheta, cTheta := math.Sincos(theta)

	return Matrix3{
		{
			cZeta*cZ*cTheta - sZeta*sZ,
			-sZeta*cZ*cTheta - cZeta*sZ,
			-cZ * sTheta,
		},
		{
			cZeta*sZ*cTheta + sZeta*cZ,
			-sZeta*sZ*cTheta + cZeta*cZ,
			-sZ * sTheta,
		},
		{
			cZeta * sTheta,
			-sZeta * sTheta,
			cTheta,
		},
	}
}

// ToApparent precesses a J2000 coordinate to the mean equinox of at (JNow).
// Nutation and aberration are not applied.
func ToApparent(c sky.Coordinate, at time.Time) sky.Coordinate {
	return rotate(c, PrecessionMatrix(at), sky.JNow)
}

// ToJ2000 is the exact inverse of ToApparent for the same instant: it applies
// the transpose of the forward matrix.
func ToJ2000(c sky.Coordinate, at time.Time) sky.Coordinate {
	return rotate(c, PrecessionMatrix(at).Transpose(), sky.J2000)
}

func rotate(c sky.Coordinate, m Matrix3, epoch sky.Epoch) sky.Coordinate {
	v := m.Apply(UnitVector(c.RA, c.Dec))
	ra, dec := v.RADec()
	return sky.Coordinate{RA: ra, Dec: dec, Epoch: epoch}
}
