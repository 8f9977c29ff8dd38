package framing

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/star/skyframe/internal/coords"
	"github.com/star/skyframe/internal/mosaic"
	"github.com/star/skyframe/internal/overlay"
	"github.com/star/skyframe/internal/sky"
	"github.com/star/skyframe/internal/transform"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// j2000Noon is the J2000.0 instant, where precession is the identity.
var j2000Noon = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

func testState() sky.FramingState {
	return sky.FramingState{
		Center: sky.Coordinate{RA: 100, Dec: 0},
		FOV:    sky.FovSpec{WidthArcmin: 120, HeightArcmin: 80},
		Grid:   sky.MosaicGrid{Cols: 2, Rows: 2, OverlapPct: 10},
	}
}

func newTestSession(t *testing.T, state sky.FramingState, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(state, testLogger(), opts...)
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	return s
}

func TestNewSessionRejectsInvalidGeometry(t *testing.T) {
	state := testState()
	state.Grid.Rows = 0
	if _, err := NewSession(state, testLogger()); !errors.Is(err, sky.ErrInvalidGeometry) {
		t.Errorf("NewSession(rows=0) error = %v, want ErrInvalidGeometry", err)
	}

	state = testState()
	state.FOV.HeightArcmin = 0
	if _, err := NewSession(state, testLogger()); !errors.Is(err, sky.ErrInvalidGeometry) {
		t.Errorf("NewSession(height=0) error = %v, want ErrInvalidGeometry", err)
	}
}

func TestNewSessionNormalizes(t *testing.T) {
	state := testState()
	state.Center.RA = 370
	state.Rotation = -90
	s := newTestSession(t, state)

	got := s.State()
	if got.Center.RA != 10 {
		t.Errorf("Center.RA = %v, want 10", got.Center.RA)
	}
	if got.Rotation != 270 {
		t.Errorf("Rotation = %v, want 270", got.Rotation)
	}
	if s.Mode() != Unlocked {
		t.Errorf("Mode() = %v, want unlocked", s.Mode())
	}
}

func TestFlip90FourTimesIsIdentity(t *testing.T) {
	for _, rot := range []float64{0, 33.5, 270, 359.75} {
		state := testState()
		state.Rotation = rot
		s := newTestSession(t, state)
		for i := 0; i < 4; i++ {
			s.Flip90()
		}
		if got := s.State().Rotation; math.Abs(got-rot) > 1e-9 {
			t.Errorf("rotation after 4 flips = %v, want %v", got, rot)
		}
	}
}

func TestSetRotation(t *testing.T) {
	s := newTestSession(t, testState())
	if err := s.SetRotation(-45); err != nil {
		t.Fatalf("SetRotation() error: %v", err)
	}
	if got := s.State().Rotation; got != 315 {
		t.Errorf("Rotation = %v, want 315", got)
	}
	if err := s.SetRotation(math.Inf(1)); !errors.Is(err, sky.ErrInvalidGeometry) {
		t.Errorf("SetRotation(+Inf) error = %v, want ErrInvalidGeometry", err)
	}
	if got := s.State().Rotation; got != 315 {
		t.Errorf("Rotation changed to %v after rejected update", got)
	}
}

func TestNudgeUnlockedAtEquator(t *testing.T) {
	s := newTestSession(t, testState())
	if err := s.Nudge(60, 0); err != nil {
		t.Fatalf("Nudge() error: %v", err)
	}
	c := s.State().Center
	if c.RA != 101 || c.Dec != 0 {
		t.Errorf("center after nudge = (%v, %v), want (101, 0)", c.RA, c.Dec)
	}

	// Rotated 90° clockwise, east on screen points south on the sky.
	if err := s.SetRotation(90); err != nil {
		t.Fatalf("SetRotation() error: %v", err)
	}
	if err := s.Nudge(30, 0); err != nil {
		t.Fatalf("Nudge() error: %v", err)
	}
	c = s.State().Center
	if math.Abs(c.RA-101) > 1e-12 || math.Abs(c.Dec+0.5) > 1e-12 {
		t.Errorf("center after rotated nudge = (%v, %v), want (101, -0.5)", c.RA, c.Dec)
	}
}

func TestNudgeNearPoleStaysFinite(t *testing.T) {
	state := testState()
	state.Center = sky.Coordinate{RA: 30, Dec: 89.99}

	s := newTestSession(t, state)
	if err := s.Nudge(0, 1); err != nil {
		t.Fatalf("Nudge(0, +1) error: %v", err)
	}
	c := s.State().Center
	if !c.IsFinite() || c.Dec > 90 || c.Dec < -90 {
		t.Errorf("Nudge(0, +1) at dec 89.99 = %+v, want a finite sky position", c)
	}

	s = newTestSession(t, state)
	if err := s.Nudge(1, 0); err != nil {
		t.Fatalf("Nudge(+1, 0) error: %v", err)
	}
	c = s.State().Center
	wantRA := 30 + (1.0/60)/math.Cos(sky.Rad(mosaic.PoleClampDeg))
	if math.Abs(c.RA-wantRA) > 1e-9 {
		t.Errorf("RA after Nudge(+1, 0) = %v, want %v (clamped cosine)", c.RA, wantRA)
	}
	if c.Dec != 89.99 {
		t.Errorf("Dec after Nudge(+1, 0) = %v, want 89.99", c.Dec)
	}
}

func TestNudgeLockedRecentersOnObject(t *testing.T) {
	s := newTestSession(t, testState())
	live := sky.Coordinate{RA: 50, Dec: 20}
	if err := s.UpdateObject(live); err != nil {
		t.Fatalf("UpdateObject() error: %v", err)
	}
	s.SetLocked(true)
	if s.Mode() != Locked {
		t.Fatalf("Mode() = %v, want locked", s.Mode())
	}

	if err := s.Nudge(30, 30); err != nil {
		t.Fatalf("Nudge() error: %v", err)
	}
	if got := s.State().Center; got != live {
		t.Errorf("center after locked nudge = %+v, want live object %+v", got, live)
	}
}

func TestLockModeEffectiveCenter(t *testing.T) {
	s := newTestSession(t, testState())
	stored := s.State().Center

	// Locked without a live position falls back to the stored center.
	s.SetLocked(true)
	if got := s.EffectiveCenter(); got != stored {
		t.Errorf("EffectiveCenter() = %+v, want stored %+v", got, stored)
	}

	live := sky.Coordinate{RA: 210, Dec: -15}
	if err := s.UpdateObject(live); err != nil {
		t.Fatalf("UpdateObject() error: %v", err)
	}
	if got := s.EffectiveCenter(); got != live {
		t.Errorf("EffectiveCenter() = %+v, want live %+v", got, live)
	}

	s.SetLocked(false)
	if got := s.State().Center; got != live {
		t.Errorf("center after unlock = %+v, want %+v", got, live)
	}
	if err := s.UpdateObject(sky.Coordinate{RA: 1, Dec: 1}); err != nil {
		t.Fatalf("UpdateObject() error: %v", err)
	}
	if got := s.EffectiveCenter(); got != live {
		t.Errorf("EffectiveCenter() while unlocked = %+v, want stored %+v", got, live)
	}
}

func TestUpdateObjectRejectsNonFinite(t *testing.T) {
	s := newTestSession(t, testState())
	if err := s.UpdateObject(sky.Coordinate{RA: math.NaN(), Dec: 0}); !errors.Is(err, sky.ErrInvalidGeometry) {
		t.Errorf("UpdateObject(NaN) error = %v, want ErrInvalidGeometry", err)
	}
	if err := s.SetCenter(sky.Coordinate{RA: 10, Dec: math.Inf(1)}); !errors.Is(err, sky.ErrInvalidGeometry) {
		t.Errorf("SetCenter(dec=+Inf) error = %v, want ErrInvalidGeometry", err)
	}
	if got := s.State().Center; got.RA != 100 || got.Dec != 0 {
		t.Errorf("center changed to %+v after rejected update", got)
	}
	if err := s.SetCenter(sky.Coordinate{RA: 0, Dec: 91}); !errors.Is(err, sky.ErrInvalidGeometry) {
		t.Errorf("SetCenter(dec=91) error = %v, want ErrInvalidGeometry", err)
	}
}

func TestComputePanelsIgnoresDrawingMode(t *testing.T) {
	s := newTestSession(t, testState())
	unlocked, err := s.ComputePanels()
	if err != nil {
		t.Fatalf("ComputePanels() error: %v", err)
	}
	want, err := mosaic.Panels(s.State())
	if err != nil {
		t.Fatalf("Panels() error: %v", err)
	}
	for i := range want {
		if unlocked[i].Center != want[i].Center {
			t.Errorf("panel %d = %+v, want %+v", i, unlocked[i].Center, want[i].Center)
		}
	}

	// Locking without a live position must not move the plan.
	s.SetLocked(true)
	locked, err := s.ComputePanels()
	if err != nil {
		t.Fatalf("ComputePanels() error: %v", err)
	}
	for i := range want {
		if locked[i].Center != want[i].Center {
			t.Errorf("locked panel %d = %+v, want %+v", i, locked[i].Center, want[i].Center)
		}
	}
}

func TestComputePanelsFollowsLiveObject(t *testing.T) {
	state := testState()
	state.Grid = sky.SinglePanel
	s := newTestSession(t, state)

	live := sky.Coordinate{RA: 83.82, Dec: -5.39}
	if err := s.UpdateObject(live); err != nil {
		t.Fatalf("UpdateObject() error: %v", err)
	}
	s.SetLocked(true)

	panels, err := s.ComputePanels()
	if err != nil {
		t.Fatalf("ComputePanels() error: %v", err)
	}
	if panels[0].Center != live {
		t.Errorf("panel center = %+v, want live %+v", panels[0].Center, live)
	}
}

func TestComputeOverlayDispatchesOnMode(t *testing.T) {
	vp := overlay.Viewport{ViewWidthDeg: 8, WidthPx: 800, HeightPx: 600}
	s := newTestSession(t, testState(), WithViewport(vp))

	ov, err := s.ComputeOverlay()
	if err != nil {
		t.Fatalf("ComputeOverlay() unlocked error: %v", err)
	}
	if ov.Mode != Unlocked || len(ov.Sky) != 4 || ov.Skipped != 0 || len(ov.Screen.Panes) != 0 {
		t.Errorf("unlocked overlay = %+v, want 4 sky panels", ov)
	}

	s.SetLocked(true)
	ov, err = s.ComputeOverlay()
	if err != nil {
		t.Fatalf("ComputeOverlay() locked error: %v", err)
	}
	if ov.Mode != Locked || len(ov.Screen.Panes) != 4 || len(ov.Sky) != 0 {
		t.Errorf("locked overlay = %+v, want 4 screen panes", ov)
	}
	// 2° pane at 100 px/deg.
	if w := ov.Screen.Panes[0].W; w != 200 {
		t.Errorf("pane width = %v, want 200", w)
	}
}

func TestComputeOverlayLockedNeedsViewport(t *testing.T) {
	s := newTestSession(t, testState())
	s.SetLocked(true)
	if _, err := s.ComputeOverlay(); !errors.Is(err, sky.ErrInvalidGeometry) {
		t.Errorf("ComputeOverlay() without viewport error = %v, want ErrInvalidGeometry", err)
	}
	if err := s.SetViewport(overlay.Viewport{}); !errors.Is(err, sky.ErrInvalidGeometry) {
		t.Errorf("SetViewport(zero) error = %v, want ErrInvalidGeometry", err)
	}
}

func TestSettersRejectInvalidGeometry(t *testing.T) {
	s := newTestSession(t, testState())
	before := s.State()

	if err := s.SetFOV(sky.FovSpec{WidthArcmin: -1, HeightArcmin: 10}); !errors.Is(err, sky.ErrInvalidGeometry) {
		t.Errorf("SetFOV() error = %v, want ErrInvalidGeometry", err)
	}
	if err := s.SetGrid(sky.MosaicGrid{Cols: 2, Rows: 2, OverlapPct: 100}); !errors.Is(err, sky.ErrInvalidGeometry) {
		t.Errorf("SetGrid() error = %v, want ErrInvalidGeometry", err)
	}
	if got := s.State(); got != before {
		t.Errorf("state changed after rejected updates: %+v", got)
	}

	if err := s.SetGrid(sky.MosaicGrid{Cols: 3, Rows: 1}); err != nil {
		t.Fatalf("SetGrid() error: %v", err)
	}
	if got := s.State().Grid.Count(); got != 3 {
		t.Errorf("grid count = %d, want 3", got)
	}
}

func TestReadoutAtJ2000(t *testing.T) {
	state := testState()
	state.Center = sky.Coordinate{RA: 15, Dec: -30.5}
	s := newTestSession(t, state, fixedClock(j2000Noon))

	ra, dec := s.Readout()
	if ra != "01:00:00.00" || dec != "-30:30:00.0" {
		t.Errorf("Readout() = (%q, %q), want (01:00:00.00, -30:30:00.0)", ra, dec)
	}
}

func TestReadoutIsApparent(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	state := testState()
	state.Center = sky.Coordinate{RA: 83.822083, Dec: -5.391111}
	s := newTestSession(t, state, fixedClock(at))

	app := transform.ToApparent(state.Center, at)
	ra, dec := s.Readout()
	if ra != coords.FormatRAHMS(app.RA) || dec != coords.FormatDecDMS(app.Dec) {
		t.Errorf("Readout() = (%q, %q), want JNow (%q, %q)", ra, dec,
			coords.FormatRAHMS(app.RA), coords.FormatDecDMS(app.Dec))
	}
	// A quarter century of precession moves RA by more than a second of time.
	if j2000RA := coords.FormatRAHMS(state.Center.RA); ra == j2000RA {
		t.Errorf("Readout() RA %q equals the J2000 value", ra)
	}
}

func TestSetCenterFromStrings(t *testing.T) {
	s := newTestSession(t, testState(), fixedClock(j2000Noon))
	if err := s.SetCenterFromStrings("05:35:17.3", "-05:23:28", sky.J2000); err != nil {
		t.Fatalf("SetCenterFromStrings() error: %v", err)
	}
	c := s.State().Center
	if math.Abs(c.RA-83.822083) > 1e-6 || math.Abs(c.Dec+5.391111) > 1e-6 {
		t.Errorf("center = (%v, %v), want (83.822083, -5.391111)", c.RA, c.Dec)
	}
}

func TestSetCenterFromStringsConvertsJNow(t *testing.T) {
	at := time.Date(2025, 11, 20, 3, 0, 0, 0, time.UTC)
	s := newTestSession(t, testState(), fixedClock(at))
	if err := s.SetCenterFromStrings("10.5", "+41.25", sky.JNow); err != nil {
		t.Fatalf("SetCenterFromStrings() error: %v", err)
	}
	c := s.State().Center
	if c.Epoch != sky.J2000 {
		t.Errorf("stored epoch = %v, want J2000", c.Epoch)
	}
	back := transform.ToApparent(c, at)
	if math.Abs(back.RA-10.5) > 1e-9 || math.Abs(back.Dec-41.25) > 1e-9 {
		t.Errorf("stored center precesses back to (%v, %v), want (10.5, 41.25)", back.RA, back.Dec)
	}
}

func TestSetCenterFromStringsReportsBothFields(t *testing.T) {
	s := newTestSession(t, testState())
	before := s.State().Center

	err := s.SetCenterFromStrings("25:00:00", "north", sky.J2000)
	if !errors.Is(err, coords.ErrParse) {
		t.Fatalf("error = %v, want ErrParse", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "parse ra") || !strings.Contains(msg, "parse dec") {
		t.Errorf("error %q does not name both fields", msg)
	}
	if got := s.State().Center; got != before {
		t.Errorf("center changed to %+v after parse failure", got)
	}
}

func TestSiderealAtEffectiveCenter(t *testing.T) {
	const lon = 15.0
	s := newTestSession(t, testState(), fixedClock(j2000Noon))

	lst, ha := s.Sidereal(lon)
	if want := transform.LocalSiderealTime(j2000Noon, lon); lst != want {
		t.Errorf("lst = %v, want %v", lst, want)
	}
	// Precession is the identity at J2000.0, so HA is plain LST - RA.
	want := sky.NormalizeRA(lst - 100)
	if want >= 180 {
		want -= 360
	}
	if math.Abs(ha-want) > 1e-9 {
		t.Errorf("ha = %v, want %v", ha, want)
	}

	s.SetLocked(true)
	if err := s.UpdateObject(sky.Coordinate{RA: lst, Dec: 20}); err != nil {
		t.Fatalf("UpdateObject() error: %v", err)
	}
	if _, ha := s.Sidereal(lon); math.Abs(ha) > 1e-9 {
		t.Errorf("ha of object on the meridian = %v, want 0", ha)
	}
}
