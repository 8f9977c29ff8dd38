// Package overlay produces the geometry the sky viewer draws over the
// target: either a rigid on-screen rectangle layout when the overlay is
// locked to the viewport center, or sky-space polygons through a shared
// tangent plane when it is detached.
package overlay

import (
	"fmt"

	"github.com/star/skyframe/internal/sky"
)

// Viewport is the sky viewer's current visible width and pixel size.
type Viewport struct {
	ViewWidthDeg float64
	WidthPx      float64
	HeightPx     float64
}

// Validate rejects a viewport that cannot produce a pixel scale.
func (v Viewport) Validate() error {
	if !(v.ViewWidthDeg > 0) {
		return fmt.Errorf("%w: view width must be positive, got %f", sky.ErrInvalidGeometry, v.ViewWidthDeg)
	}
	if !(v.WidthPx > 0) || !(v.HeightPx > 0) {
		return fmt.Errorf("%w: viewport size must be positive, got %fx%f", sky.ErrInvalidGeometry, v.WidthPx, v.HeightPx)
	}
	return nil
}

// PixelsPerDeg returns the horizontal screen scale.
func (v Viewport) PixelsPerDeg() float64 {
	return v.WidthPx / v.ViewWidthDeg
}

// ScreenLayout is a mosaic drawn as one rotated container. Panes are placed
// unrotated inside it; Rotation is applied once to the whole container
// about the viewport center.
type ScreenLayout struct {
	Rotation float64
	Width    float64 // unrotated container bounds, px
	Height   float64
	Panes    []sky.ScreenRect
}

// Screen lays out one rectangle per panel relative to the viewport center.
// Rows follow the mosaic convention (row 0 at the bottom) so Y is negated
// for screen space where Y grows downward.
func Screen(vp Viewport, fov sky.FovSpec, grid sky.MosaicGrid, rotation float64) (ScreenLayout, error) {
	if err := vp.Validate(); err != nil {
		return ScreenLayout{}, err
	}
	if err := fov.Validate(); err != nil {
		return ScreenLayout{}, err
	}
	if err := grid.Validate(); err != nil {
		return ScreenLayout{}, err
	}

	scale := vp.PixelsPerDeg()
	paneW := fov.WidthDeg() * scale
	paneH := fov.HeightDeg() * scale
	keep := 1 - grid.Overlap()
	stepW := paneW * keep
	stepH := paneH * keep

	rot := sky.NormalizeRotation(rotation)
	layout := ScreenLayout{
		Rotation: rot,
		Width:    paneW + stepW*float64(grid.Cols-1),
		Height:   paneH + stepH*float64(grid.Rows-1),
		Panes:    make([]sky.ScreenRect, 0, grid.Count()),
	}
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			cx := (float64(col) - float64(grid.Cols-1)/2) * stepW
			cy := -(float64(row) - float64(grid.Rows-1)/2) * stepH
			layout.Panes = append(layout.Panes, sky.ScreenRect{
				X:           cx - paneW/2,
				Y:           cy - paneH/2,
				W:           paneW,
				H:           paneH,
				RotationDeg: rot,
			})
		}
	}
	return layout, nil
}

// Corners returns the rectangle's four corners in screen pixels relative to
// the viewport center after applying RotationDeg, starting at the top-left
// corner and going clockwise on screen.
func Corners(r sky.ScreenRect) [4][2]float64 {
	pts := [4][2]float64{
		{r.X, r.Y},
		{r.X + r.W, r.Y},
		{r.X + r.W, r.Y + r.H},
		{r.X, r.Y + r.H},
	}
	for i, p := range pts {
		// Flip to Y-up, rotate, flip back.
		x, y := sky.Rotate(p[0], -p[1], r.RotationDeg)
		pts[i] = [2]float64{x, -y}
	}
	return pts
}
