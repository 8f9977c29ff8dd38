// Package export writes mosaic plans and framing links in the formats
// consumed outside the engine.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/star/skyframe/internal/coords"
	"github.com/star/skyframe/internal/sky"
)

// CSVHeader is the exact header line the mosaic planner imports.
const CSVHeader = "Pane, RA, DEC, Position Angle (East), Pane width (arcmins), Pane height (arcmins), Overlap, Row, Column"

// ErrEmptyPlan is returned when there are no panels to export.
var ErrEmptyPlan = errors.New("empty mosaic plan")

// PaneName returns "{target}_Rot{round(rotation)}_P{index}", index from 1.
func PaneName(target string, rotation float64, index int) string {
	return fmt.Sprintf("%s_Rot%d_P%d", target, int(math.Round(rotation)), index)
}

// CSVRows renders one line per panel in panel order. Every panel must be
// finite or nothing is returned.
func CSVRows(target string, state sky.FramingState, panels []sky.PanelFootprint) ([]string, error) {
	if len(panels) == 0 {
		return nil, ErrEmptyPlan
	}
	rows := make([]string, 0, len(panels))
	for i, p := range panels {
		if !p.Center.IsFinite() {
			return nil, fmt.Errorf("panel row=%d col=%d has no finite position", p.Row, p.Col)
		}
		rows = append(rows, strings.Join([]string{
			PaneName(target, state.Rotation, i+1),
			coords.FormatRACSV(p.Center.RA),
			coords.FormatDecCSV(p.Center.Dec),
			fmt.Sprintf("%.2f", state.Rotation),
			fmt.Sprintf("%.2f", state.FOV.WidthArcmin),
			fmt.Sprintf("%.2f", state.FOV.HeightArcmin),
			fmt.Sprintf("%.0f%%", state.Grid.OverlapPct),
			fmt.Sprintf("%d", p.Row+1),
			fmt.Sprintf("%d", p.Col+1),
		}, ", "))
	}
	return rows, nil
}

// WriteCSV writes the header and all panel rows. Rows are rendered before
// anything is written so a failing panel leaves w untouched.
func WriteCSV(w io.Writer, target string, state sky.FramingState, panels []sky.PanelFootprint) error {
	rows, err := CSVRows(target, state, panels)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(CSVHeader + "\n"); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range rows {
		if _, err := bw.WriteString(r + "\n"); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
