// Package coords converts between decimal degrees and the sexagesimal
// strings shown in readouts and written to mosaic plan exports.
package coords

import (
	"fmt"
	"math"

	"github.com/star/skyframe/internal/sky"
)

// csvDegreeSign is the masculine ordinal indicator (U+00BA), not U+00B0.
// The mosaic planner that imports our CSV expects exactly this rune.
const csvDegreeSign = "º"

// FormatRAHMS renders RA as "HH:MM:SS.ss".
func FormatRAHMS(deg float64) string {
	const perDay = 24 * 3600 * 100
	cs := int64(math.Round(sky.NormalizeRA(deg) / 15 * 3600 * 100))
	cs %= perDay

	h := cs / 360000
	m := cs / 6000 % 60
	s := cs % 6000
	return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, s/100, s%100)
}

// FormatDecDMS renders Dec as "±DD:MM:SS.s". The sign is taken from the
// input, so a small negative that rounds to zero still prints "-".
func FormatDecDMS(deg float64) string {
	ds := int64(math.Round(math.Abs(deg) * 36000))

	d := ds / 36000
	m := ds / 600 % 60
	s := ds % 600
	return fmt.Sprintf("%s%02d:%02d:%02d.%d", sign(deg), d, m, s/10, s%10)
}

// FormatRACSV renders RA as `HHhr MM' SS"` with seconds rounded to the
// nearest integer.
func FormatRACSV(deg float64) string {
	secs := roundSeconds(sky.NormalizeRA(deg)/15) % (24 * 3600)

	h := secs / 3600
	m := secs / 60 % 60
	s := secs % 60
	return fmt.Sprintf("%02dhr %02d' %02d\"", h, m, s)
}

// FormatDecCSV renders Dec as `±DDº MM' SS"` with seconds rounded to the
// nearest integer.
func FormatDecCSV(deg float64) string {
	secs := roundSeconds(math.Abs(deg))

	d := secs / 3600
	m := secs / 60 % 60
	s := secs % 60
	return fmt.Sprintf("%s%02d%s %02d' %02d\"", sign(deg), d, csvDegreeSign, m, s)
}

// roundSeconds converts a value in hours or degrees to whole arc/time
// seconds. Rounding first means 59.6" carries into the next minute.
func roundSeconds(v float64) int64 {
	return int64(math.Round(v * 3600))
}

func sign(deg float64) string {
	if math.Signbit(deg) {
		return "-"
	}
	return "+"
}
