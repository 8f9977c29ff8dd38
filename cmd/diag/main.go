// Command diag prints how far per-panel spherical stepping and a single
// tangent-plane projection disagree across declinations, plus the time basis
// used for epoch conversion.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/star/skyframe/internal/mosaic"
	"github.com/star/skyframe/internal/sky"
	"github.com/star/skyframe/internal/transform"
)

var declinations = []float64{0, 30, 45, 60, 70, 80, 85, 89, 89.95}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	now := time.Now().UTC().Truncate(time.Second)
	printTimeBasis(os.Stdout, now)

	state := sky.FramingState{
		FOV:  sky.FovSpec{WidthArcmin: 120, HeightArcmin: 120},
		Grid: sky.MosaicGrid{Cols: 3, Rows: 3, OverlapPct: 10},
	}
	if err := printDivergence(os.Stdout, state); err != nil {
		logger.Error("divergence table failed", "error", err)
		os.Exit(1)
	}
}

func printTimeBasis(w io.Writer, at time.Time) {
	jd := transform.JulianDate(at)
	ref := satellite.JDay(at.Year(), int(at.Month()), at.Day(), at.Hour(), at.Minute(), at.Second())
	zeta, z, theta := transform.PrecessionAngles(transform.JulianCenturies(at))
	const rad2arcsec = 180 / math.Pi * 3600

	fmt.Fprintf(w, "Instant:      %s\n", at.Format(time.RFC3339))
	fmt.Fprintf(w, "JD:           %.6f (go-satellite %.6f)\n", jd, ref)
	fmt.Fprintf(w, "GMST:         %.6f° (go-satellite %.6f°)\n",
		sky.Deg(transform.GMST(at)), sky.Deg(satellite.ThetaG_JD(ref)))
	fmt.Fprintf(w, "Precession:   ζ=%.2f″ z=%.2f″ θ=%.2f″\n\n",
		zeta*rad2arcsec, z*rad2arcsec, theta*rad2arcsec)
}

// printDivergence compares the top-right panel of the grid under both
// models at each declination.
func printDivergence(w io.Writer, state sky.FramingState) error {
	fmt.Fprintf(w, "%8s  %14s  %14s  %10s  %9s  %9s  %s\n",
		"Dec", "stepped", "projected", "sep\"", "dE\"", "dN\"", "clamped")
	for _, dec := range declinations {
		state.Center = sky.Coordinate{RA: 180, Dec: dec}
		panels, err := mosaic.Panels(state)
		if err != nil {
			return fmt.Errorf("dec %v: %w", dec, err)
		}
		last := panels[len(panels)-1]

		l := mosaic.NewLayout(state.Center, state)
		cx, cy := l.Offset(last.Row, last.Col)
		rx, ry := sky.Rotate(cx, cy, state.Rotation)
		projected := transform.Project(state.Center, rx, ry)
		// Where the stepped panel lands on the tangent plane.
		e, n := transform.Offset(state.Center, last.Center)

		fmt.Fprintf(w, "%8.2f  %6.2f,%7.3f  %6.2f,%7.3f  %10.1f  %9.1f  %9.1f  %v\n",
			dec,
			last.Center.RA, last.Center.Dec,
			projected.RA, projected.Dec,
			separationArcsec(last.Center, projected),
			(e-rx)*3600, (n-ry)*3600,
			last.PoleClamped,
		)
	}
	return nil
}

func separationArcsec(a, b sky.Coordinate) float64 {
	d := transform.UnitVector(a.RA, a.Dec).Dot(transform.UnitVector(b.RA, b.Dec))
	return sky.Deg(math.Acos(math.Max(-1, math.Min(1, d)))) * 3600
}
