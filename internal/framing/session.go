// Package framing owns the authoritative framing state and drives the
// geometry packages on behalf of the sky viewer.
package framing

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/star/skyframe/internal/coords"
	"github.com/star/skyframe/internal/metrics"
	"github.com/star/skyframe/internal/mosaic"
	"github.com/star/skyframe/internal/overlay"
	"github.com/star/skyframe/internal/sky"
	"github.com/star/skyframe/internal/transform"
)

// Mode selects how the overlay follows the target.
type Mode int

const (
	// Unlocked draws the footprint at the stored center through the tangent
	// plane and lets the user nudge it.
	Unlocked Mode = iota
	// Locked keeps the overlay centered on the live object position.
	Locked
)

func (m Mode) String() string {
	if m == Locked {
		return "locked"
	}
	return "unlocked"
}

// Overlay is the drawable geometry for the current mode. Exactly one of
// Screen or Sky is populated.
type Overlay struct {
	Mode    Mode
	Screen  overlay.ScreenLayout
	Sky     []sky.PanelFootprint
	Skipped int // panels left out of a best-effort sky footprint
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the time source used for epoch conversion.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithViewport sets the initial viewer size used by the locked overlay.
func WithViewport(vp overlay.Viewport) Option {
	return func(s *Session) { s.viewport = vp }
}

// Session is a single framing. It is not safe for concurrent use; callers
// drive it from one event loop.
type Session struct {
	state    sky.FramingState
	live     sky.Coordinate
	hasLive  bool
	viewport overlay.Viewport
	now      func() time.Time
	logger   *slog.Logger
}

// NewSession validates the initial state and returns a session for it.
// A JNow center is converted to J2000 at the session clock.
func NewSession(state sky.FramingState, logger *slog.Logger, opts ...Option) (*Session, error) {
	s := &Session{
		now:    time.Now,
		logger: logger.With("component", "framing"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("initial framing: %w", err)
	}
	state.Center = s.toJ2000(sky.NewCoordinate(state.Center.RA, state.Center.Dec, state.Center.Epoch))
	state.Rotation = sky.NormalizeRotation(state.Rotation)
	s.state = state
	return s, nil
}

// Mode returns the current lock mode.
func (s *Session) Mode() Mode {
	if s.state.Locked {
		return Locked
	}
	return Unlocked
}

// State returns a copy of the framing state.
func (s *Session) State() sky.FramingState {
	return s.state
}

// EffectiveCenter is the live object position while locked and a position
// is known, otherwise the stored center.
func (s *Session) EffectiveCenter() sky.Coordinate {
	if s.state.Locked && s.hasLive {
		return s.live
	}
	return s.state.Center
}

// SetLocked switches modes. Unlocking adopts the last live position as the
// stored center so the footprint stays where it was drawn.
func (s *Session) SetLocked(locked bool) {
	if s.state.Locked == locked {
		return
	}
	if !locked && s.hasLive {
		s.state.Center = s.live
	}
	s.state.Locked = locked
	s.logger.Debug("mode changed", "mode", s.Mode().String())
}

// UpdateObject records the live object position reported by the tracker.
func (s *Session) UpdateObject(c sky.Coordinate) error {
	if err := validCenter(c); err != nil {
		return fmt.Errorf("object position: %w", err)
	}
	s.live = s.toJ2000(sky.NewCoordinate(c.RA, c.Dec, c.Epoch))
	s.hasLive = true
	return nil
}

// Nudge moves the framing by (dx, dy) arcminutes in the rotated frame: dx
// along the panel width and dy along its height, so at rotation 0 they are
// east and north and at 90 an arrow-key dx moves the center south. While
// locked it ignores the delta and recenters on the live object.
func (s *Session) Nudge(dxArcmin, dyArcmin float64) error {
	if s.state.Locked {
		if s.hasLive {
			s.state.Center = s.live
		}
		s.logger.Debug("nudge while locked, recentered on object")
		return nil
	}

	next, clamped := mosaic.Step(s.state.Center, dxArcmin/60, dyArcmin/60, s.state.Rotation)
	if !next.IsFinite() {
		return fmt.Errorf("%w: nudge by (%v, %v) arcmin", mosaic.ErrNonFinite, dxArcmin, dyArcmin)
	}
	if clamped {
		metrics.IncPoleClamped()
		s.logger.Warn("nudge near pole, RA offset uses clamped cosine",
			"dec", next.Dec,
			"clamp_deg", mosaic.PoleClampDeg,
		)
	}
	s.state.Center = next
	return nil
}

// SetRotation sets the position angle, normalized into [0,360).
func (s *Session) SetRotation(deg float64) error {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return fmt.Errorf("%w: rotation must be finite, got %v", sky.ErrInvalidGeometry, deg)
	}
	s.state.Rotation = sky.NormalizeRotation(deg)
	return nil
}

// Flip90 turns the framing a quarter turn clockwise.
func (s *Session) Flip90() {
	s.state.Rotation = sky.NormalizeRotation(s.state.Rotation + 90)
}

// SetCenter moves the stored center. A JNow coordinate is converted first.
func (s *Session) SetCenter(c sky.Coordinate) error {
	if err := validCenter(c); err != nil {
		return fmt.Errorf("center: %w", err)
	}
	s.state.Center = s.toJ2000(sky.NewCoordinate(c.RA, c.Dec, c.Epoch))
	return nil
}

// SetCenterFromStrings parses typed RA/Dec in the given epoch. Both fields
// are checked so the caller can flag every bad input at once.
func (s *Session) SetCenterFromStrings(ra, dec string, epoch sky.Epoch) error {
	raDeg, raErr := coords.ParseRA(ra)
	decDeg, decErr := coords.ParseDec(dec)
	if err := errors.Join(raErr, decErr); err != nil {
		for _, e := range []error{raErr, decErr} {
			var pe *coords.ParseError
			if errors.As(e, &pe) {
				metrics.IncParseFailure(pe.Field)
			}
		}
		return err
	}
	return s.SetCenter(sky.NewCoordinate(raDeg, decDeg, epoch))
}

// SetFOV replaces the field of view.
func (s *Session) SetFOV(fov sky.FovSpec) error {
	if err := fov.Validate(); err != nil {
		return err
	}
	s.state.FOV = fov
	return nil
}

// SetGrid replaces the mosaic grid.
func (s *Session) SetGrid(grid sky.MosaicGrid) error {
	if err := grid.Validate(); err != nil {
		return err
	}
	s.state.Grid = grid
	return nil
}

// SetViewport records the viewer size after a zoom or resize.
func (s *Session) SetViewport(vp overlay.Viewport) error {
	if err := vp.Validate(); err != nil {
		return err
	}
	s.viewport = vp
	return nil
}

// ComputePanels returns the exportable panel plan at the effective center.
// It never depends on the lock mode's drawing path and fails as a whole.
func (s *Session) ComputePanels() ([]sky.PanelFootprint, error) {
	start := time.Now()
	panels, err := mosaic.PanelsAt(s.EffectiveCenter(), s.state)
	metrics.ObserveCompute("panels", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("compute panels: %w", err)
	}

	clamped := 0
	for _, p := range panels {
		if p.PoleClamped {
			clamped++
		}
	}
	if clamped > 0 {
		metrics.IncPoleClamped()
		s.logger.Warn("framing near pole, RA steps use clamped cosine",
			"panels", clamped,
			"dec", s.EffectiveCenter().Dec,
			"clamp_deg", mosaic.PoleClampDeg,
		)
	}
	metrics.AddPanels("export", len(panels))
	return panels, nil
}

// ComputeOverlay returns the geometry to draw for the current mode.
// Invalid geometry is an error; panels that fail to project in the sky
// footprint are only counted in Skipped.
func (s *Session) ComputeOverlay() (Overlay, error) {
	start := time.Now()
	defer func() { metrics.ObserveCompute("overlay", time.Since(start)) }()

	if s.state.Locked {
		layout, err := overlay.Screen(s.viewport, s.state.FOV, s.state.Grid, s.state.Rotation)
		if err != nil {
			return Overlay{}, fmt.Errorf("screen overlay: %w", err)
		}
		metrics.AddPanels("overlay", len(layout.Panes))
		return Overlay{Mode: Locked, Screen: layout}, nil
	}

	fp, err := overlay.SkyFootprint(s.state.Center, s.state)
	if errors.Is(err, sky.ErrInvalidGeometry) {
		return Overlay{}, fmt.Errorf("sky overlay: %w", err)
	}
	out := Overlay{Mode: Unlocked, Sky: fp, Skipped: s.state.Grid.Count() - len(fp)}
	if err != nil {
		metrics.AddOverlaySkipped(out.Skipped)
		s.logger.Warn("overlay panels skipped", "skipped", out.Skipped, "error", err)
	}
	metrics.AddPanels("overlay", len(fp))
	return out, nil
}

// Readout formats the effective center in the apparent epoch at the
// session clock.
func (s *Session) Readout() (string, string) {
	app := transform.ToApparent(s.EffectiveCenter(), s.now())
	return coords.FormatRAHMS(app.RA), coords.FormatDecDMS(app.Dec)
}

// Sidereal returns the local sidereal time and the hour angle of the
// effective center, both in degrees, at an east-positive longitude.
func (s *Session) Sidereal(lonDeg float64) (lst, ha float64) {
	at := s.now()
	return transform.LocalSiderealTime(at, lonDeg), transform.HourAngle(s.EffectiveCenter(), at, lonDeg)
}

func (s *Session) toJ2000(c sky.Coordinate) sky.Coordinate {
	if c.Epoch == sky.JNow {
		return transform.ToJ2000(c, s.now())
	}
	return c
}

func validCenter(c sky.Coordinate) error {
	if !c.IsFinite() {
		return fmt.Errorf("%w: non-finite position %+v", sky.ErrInvalidGeometry, c)
	}
	if c.Dec < -90 || c.Dec > 90 {
		return fmt.Errorf("%w: declination %v outside [-90,90]", sky.ErrInvalidGeometry, c.Dec)
	}
	return nil
}
