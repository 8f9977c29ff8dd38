package sky

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry is returned for non-positive FOV dimensions, empty grids
// and out-of-range overlap. Values are never clamped into range.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Validate checks the field of view.
func (f FovSpec) Validate() error {
	if !(f.WidthArcmin > 0) || math.IsInf(f.WidthArcmin, 0) {
		return fmt.Errorf("%w: fov width must be positive, got %f", ErrInvalidGeometry, f.WidthArcmin)
	}
	if !(f.HeightArcmin > 0) || math.IsInf(f.HeightArcmin, 0) {
		return fmt.Errorf("%w: fov height must be positive, got %f", ErrInvalidGeometry, f.HeightArcmin)
	}
	return nil
}

// Validate checks the mosaic grid.
func (g MosaicGrid) Validate() error {
	if g.Cols < 1 {
		return fmt.Errorf("%w: grid cols must be at least 1, got %d", ErrInvalidGeometry, g.Cols)
	}
	if g.Rows < 1 {
		return fmt.Errorf("%w: grid rows must be at least 1, got %d", ErrInvalidGeometry, g.Rows)
	}
	if !(g.OverlapPct >= 0 && g.OverlapPct < 100) {
		return fmt.Errorf("%w: overlap must be in [0,100), got %f", ErrInvalidGeometry, g.OverlapPct)
	}
	return nil
}

// Validate checks every geometry-affecting field of the state.
func (s FramingState) Validate() error {
	if !s.Center.IsFinite() || s.Center.Dec < -90 || s.Center.Dec > 90 {
		return fmt.Errorf("%w: center (%f, %f) is not a sky position", ErrInvalidGeometry, s.Center.RA, s.Center.Dec)
	}
	if math.IsNaN(s.Rotation) || math.IsInf(s.Rotation, 0) {
		return fmt.Errorf("%w: rotation must be finite, got %f", ErrInvalidGeometry, s.Rotation)
	}
	if err := s.FOV.Validate(); err != nil {
		return err
	}
	return s.Grid.Validate()
}
