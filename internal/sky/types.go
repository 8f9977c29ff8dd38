// Package sky holds the value types shared by the framing engine.
//
// Every type here is a plain value recomputed from a FramingState on demand.
// Angles are degrees unless the field name says otherwise.
package sky

import "math"

// Epoch tags the reference frame a Coordinate is expressed in.
type Epoch int

const (
	J2000 Epoch = iota
	JNow
)

func (e Epoch) String() string {
	switch e {
	case J2000:
		return "J2000"
	case JNow:
		return "JNow"
	default:
		return "unknown"
	}
}

// Coordinate is an equatorial position. RA is kept in [0,360).
type Coordinate struct {
	RA    float64
	Dec   float64
	Epoch Epoch
}

// NewCoordinate returns a coordinate with RA and Dec normalized.
func NewCoordinate(ra, dec float64, epoch Epoch) Coordinate {
	ra, dec = Normalize(ra, dec)
	return Coordinate{RA: ra, Dec: dec, Epoch: epoch}
}

// IsFinite reports whether both components are usable numbers.
func (c Coordinate) IsFinite() bool {
	return !math.IsNaN(c.RA) && !math.IsInf(c.RA, 0) && !math.IsNaN(c.Dec) && !math.IsInf(c.Dec, 0)
}

// FovSpec is the field of view of one rig, in arcminutes.
type FovSpec struct {
	WidthArcmin  float64
	HeightArcmin float64
}

// WidthDeg returns the width in degrees.
func (f FovSpec) WidthDeg() float64 { return f.WidthArcmin / 60.0 }

// HeightDeg returns the height in degrees.
func (f FovSpec) HeightDeg() float64 { return f.HeightArcmin / 60.0 }

// MosaicGrid describes an R×C panel layout. OverlapPct is in [0,100).
type MosaicGrid struct {
	Cols       int
	Rows       int
	OverlapPct float64
}

// SinglePanel is the degenerate 1×1 grid.
var SinglePanel = MosaicGrid{Cols: 1, Rows: 1}

// Overlap returns the overlap as a fraction.
func (g MosaicGrid) Overlap() float64 { return g.OverlapPct / 100.0 }

// Count returns the number of panels.
func (g MosaicGrid) Count() int { return g.Cols * g.Rows }

// FramingState is the authoritative framing owned by a session.
// Center is always J2000. When Locked, the effective center follows the
// live object position instead of Center.
type FramingState struct {
	Center   Coordinate
	Rotation float64
	FOV      FovSpec
	Grid     MosaicGrid
	Locked   bool
}

// PanelFootprint is one mosaic panel on the sky. Corners run
// bottom-left, bottom-right, top-right, top-left in the unrotated frame.
type PanelFootprint struct {
	Row         int
	Col         int
	Center      Coordinate
	Corners     [4]Coordinate
	PoleClamped bool
}

// ScreenRect is a rectangle in pixels relative to the viewport center,
// with Y growing downward. RotationDeg is applied about the viewport center.
type ScreenRect struct {
	X           float64
	Y           float64
	W           float64
	H           float64
	RotationDeg float64
}
