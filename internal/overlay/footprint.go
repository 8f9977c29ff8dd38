package overlay

import (
	"fmt"

	"github.com/star/skyframe/internal/mosaic"
	"github.com/star/skyframe/internal/sky"
	"github.com/star/skyframe/internal/transform"
)

// SkyFootprint projects the framing outline through one tangent plane at
// center. It is for drawing only: positions differ from the exported panels
// at high declination.
//
// Rendering is best effort. A panel that does not project to finite
// coordinates is dropped and reported in the joined error while the rest are
// still returned.
func SkyFootprint(center sky.Coordinate, state sky.FramingState) ([]sky.PanelFootprint, error) {
	return mosaic.PanelsBestEffort(center, state, projectPanel)
}

func projectPanel(l mosaic.Layout, row, col int) (sky.PanelFootprint, error) {
	cx, cy := l.Offset(row, col)
	p := sky.PanelFootprint{Row: row, Col: col, Center: project(l, cx, cy)}

	p.Corners = [4]sky.Coordinate{
		project(l, cx-l.HalfW, cy-l.HalfH),
		project(l, cx+l.HalfW, cy-l.HalfH),
		project(l, cx+l.HalfW, cy+l.HalfH),
		project(l, cx-l.HalfW, cy+l.HalfH),
	}

	if !p.Center.IsFinite() {
		return p, fmt.Errorf("%w: footprint row=%d col=%d", mosaic.ErrNonFinite, row, col)
	}
	for i, c := range p.Corners {
		if !c.IsFinite() {
			return p, fmt.Errorf("%w: footprint row=%d col=%d corner %d", mosaic.ErrNonFinite, row, col, i)
		}
	}
	return p, nil
}

func project(l mosaic.Layout, x, y float64) sky.Coordinate {
	rx, ry := sky.Rotate(x, y, l.Rotation)
	return transform.Project(l.Center, rx, ry)
}
