// Package rigs loads the named optical trains a framing can be planned for.
package rigs

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/star/skyframe/internal/sky"
)

// ErrUnknownRig is returned when a rig name is not in the catalog.
var ErrUnknownRig = errors.New("unknown rig")

// DefaultRigName is the built-in rig available without a catalog file.
const DefaultRigName = "default"

// Rig is one telescope and camera combination. Either the explicit FOV or
// the focal length with both sensor dimensions must be set; the explicit
// FOV wins when both are present.
type Rig struct {
	Label           string  `mapstructure:"label"`
	FovWidthArcmin  float64 `mapstructure:"fov_width_arcmin"`
	FovHeightArcmin float64 `mapstructure:"fov_height_arcmin"`
	FocalLengthMm   float64 `mapstructure:"focal_length_mm"`
	Reducer         float64 `mapstructure:"reducer"` // focal multiplier, 0 means none
	SensorWidthMm   float64 `mapstructure:"sensor_width_mm"`
	SensorHeightMm  float64 `mapstructure:"sensor_height_mm"`
}

// FOV returns the rig's field of view.
// Formula: FOV = 2 × arctan(sensor / (2 × focal × reducer))
func (r Rig) FOV() (sky.FovSpec, error) {
	if r.FovWidthArcmin != 0 || r.FovHeightArcmin != 0 {
		fov := sky.FovSpec{WidthArcmin: r.FovWidthArcmin, HeightArcmin: r.FovHeightArcmin}
		return fov, fov.Validate()
	}

	focal := r.FocalLengthMm
	if r.Reducer != 0 {
		focal *= r.Reducer
	}
	if !(focal > 0) {
		return sky.FovSpec{}, fmt.Errorf("%w: rig needs a fov or a positive focal length", sky.ErrInvalidGeometry)
	}
	fov := sky.FovSpec{
		WidthArcmin:  opticalArcmin(r.SensorWidthMm, focal),
		HeightArcmin: opticalArcmin(r.SensorHeightMm, focal),
	}
	if err := fov.Validate(); err != nil {
		return sky.FovSpec{}, fmt.Errorf("rig sensor size: %w", err)
	}
	return fov, nil
}

func opticalArcmin(sensorMm, focalMm float64) float64 {
	return sky.Deg(2*math.Atan(sensorMm/(2*focalMm))) * 60
}

// Catalog is the set of rigs plus the one selected when none is named.
type Catalog struct {
	Default string         `mapstructure:"default"`
	Rigs    map[string]Rig `mapstructure:"rigs"`
}

// Load reads a YAML or JSON catalog file on top of the built-in default
// rig. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	v := viper.New()
	v.SetDefault("default", DefaultRigName)
	v.SetDefault("rigs."+DefaultRigName+".label", "1° × 1° field")
	v.SetDefault("rigs."+DefaultRigName+".fov_width_arcmin", 60)
	v.SetDefault("rigs."+DefaultRigName+".fov_height_arcmin", 60)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading rig catalog: %w", err)
		}
	}

	var c Catalog
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding rig catalog: %w", err)
	}
	c.Default = strings.ToLower(c.Default)
	if _, ok := c.Rigs[c.Default]; !ok {
		return nil, fmt.Errorf("%w: default %q", ErrUnknownRig, c.Default)
	}
	for name, r := range c.Rigs {
		if _, err := r.FOV(); err != nil {
			return nil, fmt.Errorf("rig %q: %w", name, err)
		}
	}
	return &c, nil
}

// Lookup returns the named rig, or the default rig for an empty name.
// Names are case-insensitive.
func (c *Catalog) Lookup(name string) (Rig, error) {
	if name == "" {
		name = c.Default
	}
	r, ok := c.Rigs[strings.ToLower(name)]
	if !ok {
		return Rig{}, fmt.Errorf("%w: %q", ErrUnknownRig, name)
	}
	return r, nil
}

// FOV is Lookup followed by Rig.FOV.
func (c *Catalog) FOV(name string) (sky.FovSpec, error) {
	r, err := c.Lookup(name)
	if err != nil {
		return sky.FovSpec{}, err
	}
	return r.FOV()
}

// Names lists the catalog's rig names in order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Rigs))
	for name := range c.Rigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
