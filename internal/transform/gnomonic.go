package transform

import (
	"math"

	"github.com/star/skyframe/internal/sky"
)

// Frame is the local orthonormal basis at a point on the sphere: Radial
// points at the point, East and North span the tangent plane.
type Frame struct {
	Radial, East, North Vec3
}

// LocalFrame builds the basis at center. At the poles East is taken along
// +RA of the center's RA so the frame stays orthonormal.
func LocalFrame(center sky.Coordinate) Frame {
	sRA, cRA := math.Sincos(sky.Rad(center.RA))
	sDec, cDec := math.Sincos(sky.Rad(center.Dec))
	return Frame{
		Radial: Vec3{X: cDec * cRA, Y: cDec * sRA, Z: sDec},
		East:   Vec3{X: -sRA, Y: cRA, Z: 0},
		North:  Vec3{X: -sDec * cRA, Y: -sDec * sRA, Z: cDec},
	}
}

// Project maps a planar offset (east, north) in degrees, tangent to the
// sphere at center, back onto the sphere. The offset length is the angular
// distance travelled from center along the great circle in that direction.
//
// This is a single shared plane: it is only accurate close to center and
// must not be used for exported mosaic panel positions.
func Project(center sky.Coordinate, eastDeg, northDeg float64) sky.Coordinate {
	if eastDeg == 0 && northDeg == 0 {
		return center
	}
	f := LocalFrame(center)

	r := math.Hypot(eastDeg, northDeg)
	sinR, cosR := math.Sincos(sky.Rad(r))
	dir := f.East.Scale(eastDeg / r).Add(f.North.Scale(northDeg / r))
	p := f.Radial.Scale(cosR).Add(dir.Scale(sinR))

	ra, dec := p.RADec()
	return sky.Coordinate{RA: ra, Dec: dec, Epoch: center.Epoch}
}

// Offset is the inverse of Project: it returns the (east, north) offset in
// degrees that Project would need to reach target from center.
func Offset(center, target sky.Coordinate) (float64, float64) {
	f := LocalFrame(center)
	p := UnitVector(target.RA, target.Dec)

	e := p.Dot(f.East)
	n := p.Dot(f.North)
	s := math.Hypot(e, n)
	if s == 0 {
		return 0, 0
	}
	r := sky.Deg(math.Atan2(s, p.Dot(f.Radial)))
	return e / s * r, n / s * r
}
