// Package mosaic computes mosaic panel positions by spherical stepping.
//
// Each panel is placed independently: its declination is the center
// declination plus the rotated row offset, and its RA is the center RA plus
// the rotated column offset divided by cos(panel declination). This is how
// acquisition software lays out mosaics. It is not equivalent to projecting
// the grid through one tangent plane at the mosaic center; the two diverge by
// arcminutes above roughly 60° declination, so nothing in this package may
// go through the transform package's tangent-plane projection.
package mosaic

import (
	"errors"
	"fmt"
	"math"

	"github.com/star/skyframe/internal/sky"
)

// PoleClampDeg bounds the declination used for the RA cosine correction.
// Beyond it cos(dec) is held at cos(PoleClampDeg), so RA steps stay finite
// near the pole at the cost of accuracy there. The value is inherited from
// observed behavior, not derived.
var PoleClampDeg = 89.9

// ErrNonFinite is returned when a panel position cannot be represented.
var ErrNonFinite = errors.New("non-finite panel position")

// Layout holds the per-grid quantities shared by every panel.
type Layout struct {
	Center   sky.Coordinate
	Rotation float64
	WStep    float64 // degrees between column centers
	HStep    float64 // degrees between row centers
	HalfW    float64
	HalfH    float64
	Grid     sky.MosaicGrid
}

// NewLayout derives the step sizes for a state. The state is not validated.
func NewLayout(center sky.Coordinate, state sky.FramingState) Layout {
	keep := 1 - state.Grid.Overlap()
	return Layout{
		Center:   center,
		Rotation: state.Rotation,
		WStep:    state.FOV.WidthDeg() * keep,
		HStep:    state.FOV.HeightDeg() * keep,
		HalfW:    state.FOV.WidthDeg() / 2,
		HalfH:    state.FOV.HeightDeg() / 2,
		Grid:     state.Grid,
	}
}

// Offset returns the unrotated planar offset in degrees of panel (row, col)
// from the mosaic center. Row 0 is the southernmost row and col 0 the
// westernmost column.
func (l Layout) Offset(row, col int) (float64, float64) {
	cx := (float64(col) - float64(l.Grid.Cols-1)/2) * l.WStep
	cy := (float64(row) - float64(l.Grid.Rows-1)/2) * l.HStep
	return cx, cy
}

// Panel steps one panel onto the sky.
func (l Layout) Panel(row, col int) (sky.PanelFootprint, error) {
	cx, cy := l.Offset(row, col)

	center, clamped := Step(l.Center, cx, cy, l.Rotation)
	p := sky.PanelFootprint{Row: row, Col: col, Center: center, PoleClamped: clamped}

	corners := [4][2]float64{
		{cx - l.HalfW, cy - l.HalfH},
		{cx + l.HalfW, cy - l.HalfH},
		{cx + l.HalfW, cy + l.HalfH},
		{cx - l.HalfW, cy + l.HalfH},
	}
	for i, c := range corners {
		var cc bool
		p.Corners[i], cc = Step(l.Center, c[0], c[1], l.Rotation)
		p.PoleClamped = p.PoleClamped || cc
	}

	if !center.IsFinite() {
		return p, fmt.Errorf("%w: panel row=%d col=%d", ErrNonFinite, row, col)
	}
	for i, c := range p.Corners {
		if !c.IsFinite() {
			return p, fmt.Errorf("%w: panel row=%d col=%d corner %d", ErrNonFinite, row, col, i)
		}
	}
	return p, nil
}

// Step moves from center by the planar offset (x east, y north) in degrees,
// after turning it by the screen rotation. It reports whether the cosine
// correction was clamped.
func Step(center sky.Coordinate, x, y, rotationDeg float64) (sky.Coordinate, bool) {
	rx, ry := sky.Rotate(x, y, rotationDeg)

	dec := center.Dec + ry
	cos, clamped := clampedCos(dec)
	ra := center.RA + rx/cos

	ra, dec = sky.Normalize(ra, dec)
	return sky.Coordinate{RA: ra, Dec: dec, Epoch: center.Epoch}, clamped
}

func clampedCos(dec float64) (float64, bool) {
	if math.Abs(dec) > PoleClampDeg {
		return math.Cos(sky.Rad(PoleClampDeg)), true
	}
	return math.Cos(sky.Rad(dec)), false
}

// Panels returns every panel of the state's grid, row-major from row 0.
// Any failing panel fails the whole call, as exported plans must be
// all-or-nothing.
func Panels(state sky.FramingState) ([]sky.PanelFootprint, error) {
	return PanelsAt(state.Center, state)
}

// PanelsAt is Panels with an explicit mosaic center.
func PanelsAt(center sky.Coordinate, state sky.FramingState) ([]sky.PanelFootprint, error) {
	if err := state.Grid.Validate(); err != nil {
		return nil, err
	}
	if err := state.FOV.Validate(); err != nil {
		return nil, err
	}
	l := NewLayout(center, state)
	panels := make([]sky.PanelFootprint, 0, state.Grid.Count())
	for row := 0; row < state.Grid.Rows; row++ {
		for col := 0; col < state.Grid.Cols; col++ {
			p, err := l.Panel(row, col)
			if err != nil {
				return nil, err
			}
			panels = append(panels, p)
		}
	}
	return panels, nil
}

// PanelFunc places panel (row, col) of a layout on the sky.
type PanelFunc func(l Layout, row, col int) (sky.PanelFootprint, error)

// PanelsBestEffort places every panel with place and returns the ones that
// succeed. Failed panels are left out and their errors joined. Invalid grid
// or FOV fails the whole call.
func PanelsBestEffort(center sky.Coordinate, state sky.FramingState, place PanelFunc) ([]sky.PanelFootprint, error) {
	if err := state.Grid.Validate(); err != nil {
		return nil, err
	}
	if err := state.FOV.Validate(); err != nil {
		return nil, err
	}
	l := NewLayout(center, state)
	panels := make([]sky.PanelFootprint, 0, state.Grid.Count())
	var errs []error
	for row := 0; row < state.Grid.Rows; row++ {
		for col := 0; col < state.Grid.Cols; col++ {
			p, err := place(l, row, col)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			panels = append(panels, p)
		}
	}
	return panels, errors.Join(errs...)
}
