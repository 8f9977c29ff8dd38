package export

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/star/skyframe/internal/sky"
)

// ErrInvalidQuery is wrapped by every DecodeQuery failure.
var ErrInvalidQuery = errors.New("invalid share query")

// ShareState is everything a shared framing link carries.
type ShareState struct {
	Rig      string
	RA       float64
	Dec      float64
	Rotation float64
	Survey   string

	Blend        string
	BlendOpacity float64

	MosaicCols    int
	MosaicRows    int
	MosaicOverlap float64

	ImgBrightness float64
	ImgContrast   float64
	ImgGamma      float64
	ImgSaturation float64

	GeoBelt bool
}

// DefaultShareState holds the values a reader assumes for absent fields.
func DefaultShareState() ShareState {
	return ShareState{
		BlendOpacity:  1,
		MosaicCols:    1,
		MosaicRows:    1,
		MosaicOverlap: 10,
		ImgContrast:   1,
		ImgGamma:      1,
		ImgSaturation: 1,
	}
}

// ShareFromFraming captures a framing for a link. Display-only fields take
// their defaults.
func ShareFromFraming(rig string, state sky.FramingState) ShareState {
	s := DefaultShareState()
	s.Rig = rig
	s.RA = state.Center.RA
	s.Dec = state.Center.Dec
	s.Rotation = state.Rotation
	s.MosaicCols = state.Grid.Cols
	s.MosaicRows = state.Grid.Rows
	s.MosaicOverlap = state.Grid.OverlapPct
	return s
}

// Framing rebuilds the geometry part of a shared link. The FOV comes from
// the rig, which the link only names.
func (s ShareState) Framing(fov sky.FovSpec) sky.FramingState {
	return sky.FramingState{
		Center:   sky.NewCoordinate(s.RA, s.Dec, sky.J2000),
		Rotation: sky.NormalizeRotation(s.Rotation),
		FOV:      fov,
		Grid: sky.MosaicGrid{
			Cols:       s.MosaicCols,
			Rows:       s.MosaicRows,
			OverlapPct: s.MosaicOverlap,
		},
	}
}

type queryField struct {
	key    string
	format func(ShareState) string
	parse  func(*ShareState, string) error
	always bool // written even at its default
}

var queryFields = []queryField{
	{key: "rig", format: func(s ShareState) string { return s.Rig }, parse: setString(func(s *ShareState) *string { return &s.Rig })},
	{key: "ra", always: true, format: func(s ShareState) string { return fixed(s.RA, 6) }, parse: setFloat(func(s *ShareState) *float64 { return &s.RA })},
	{key: "dec", always: true, format: func(s ShareState) string { return fixed(s.Dec, 6) }, parse: setFloat(func(s *ShareState) *float64 { return &s.Dec })},
	{key: "rot", format: func(s ShareState) string { return formatRotation(s.Rotation) }, parse: setFloat(func(s *ShareState) *float64 { return &s.Rotation })},
	{key: "survey", format: func(s ShareState) string { return s.Survey }, parse: setString(func(s *ShareState) *string { return &s.Survey })},
	{key: "blend", format: func(s ShareState) string { return s.Blend }, parse: setString(func(s *ShareState) *string { return &s.Blend })},
	{key: "blend_op", format: func(s ShareState) string { return fixed(s.BlendOpacity, 2) }, parse: setFloat(func(s *ShareState) *float64 { return &s.BlendOpacity })},
	{key: "m_cols", format: func(s ShareState) string { return strconv.Itoa(s.MosaicCols) }, parse: setInt(func(s *ShareState) *int { return &s.MosaicCols })},
	{key: "m_rows", format: func(s ShareState) string { return strconv.Itoa(s.MosaicRows) }, parse: setInt(func(s *ShareState) *int { return &s.MosaicRows })},
	{key: "m_ov", format: func(s ShareState) string { return strconv.FormatFloat(s.MosaicOverlap, 'f', -1, 64) }, parse: setFloat(func(s *ShareState) *float64 { return &s.MosaicOverlap })},
	{key: "img_b", format: func(s ShareState) string { return fixed(s.ImgBrightness, 2) }, parse: setFloat(func(s *ShareState) *float64 { return &s.ImgBrightness })},
	{key: "img_c", format: func(s ShareState) string { return fixed(s.ImgContrast, 2) }, parse: setFloat(func(s *ShareState) *float64 { return &s.ImgContrast })},
	{key: "img_g", format: func(s ShareState) string { return fixed(s.ImgGamma, 2) }, parse: setFloat(func(s *ShareState) *float64 { return &s.ImgGamma })},
	{key: "img_s", format: func(s ShareState) string { return fixed(s.ImgSaturation, 2) }, parse: setFloat(func(s *ShareState) *float64 { return &s.ImgSaturation })},
	{key: "geo_belt", format: func(s ShareState) string { return strconv.FormatBool(s.GeoBelt) }, parse: setBool(func(s *ShareState) *bool { return &s.GeoBelt })},
}

// EncodeQuery renders s as a query string in fixed field order. A field is
// omitted when its rendered value equals the rendered default, so a reader
// can tell an explicit override from "use default".
func EncodeQuery(s ShareState) string {
	def := DefaultShareState()
	parts := make([]string, 0, len(queryFields))
	for _, f := range queryFields {
		v := f.format(s)
		if !f.always && v == f.format(def) {
			continue
		}
		parts = append(parts, f.key+"="+url.QueryEscape(v))
	}
	return strings.Join(parts, "&")
}

// DecodeQuery starts from the defaults and applies every field present in
// the query. Unknown keys are ignored. All malformed fields are reported.
func DecodeQuery(raw string) (ShareState, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return ShareState{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	s := DefaultShareState()
	var errs []error
	for _, f := range queryFields {
		if !values.Has(f.key) {
			continue
		}
		if err := f.parse(&s, values.Get(f.key)); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrInvalidQuery, f.key, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return ShareState{}, err
	}
	return s, nil
}

func fixed(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func formatRotation(rot float64) string {
	return strconv.Itoa(int(math.Round(sky.NormalizeRotation(rot))) % 360)
}

func setString(field func(*ShareState) *string) func(*ShareState, string) error {
	return func(s *ShareState, v string) error {
		*field(s) = v
		return nil
	}
}

func setFloat(field func(*ShareState) *float64) func(*ShareState, string) error {
	return func(s *ShareState, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("not finite: %q", v)
		}
		*field(s) = f
		return nil
	}
}

func setInt(field func(*ShareState) *int) func(*ShareState, string) error {
	return func(s *ShareState, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(s) = n
		return nil
	}
}

func setBool(field func(*ShareState) *bool) func(*ShareState, string) error {
	return func(s *ShareState, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(s) = b
		return nil
	}
}
