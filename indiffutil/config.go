/*
Copyright © 2019 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package indiffutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/indiff"
	"github.com/spatialmodel/indiff/coord"
	"github.com/spf13/cast"
)

// Operator holds the settings shared by the commands that apply
// difference, derivative, and advection operators.
type Operator struct {
	// Kind is the stencil kind.
	Kind indiff.Kind

	// Dim is the dimension to operate along.
	Dim string

	// Config holds the spacing, order, edge fill, and number of workers.
	Config indiff.Config

	// Coord is the kind of coordinate: cartesian, x, y, z, pressure,
	// sigma, lon, lat, or eta.
	Coord string

	// CoordVar is the variable holding the coordinate values. If it is
	// empty, the coordinate carried by each field along Dim is used.
	CoordVar string

	// Cyclic specifies whether the coordinate wraps around.
	Cyclic bool

	// Circumference is the period of a cyclic cartesian coordinate.
	Circumference float64

	// Radius is the planetary radius in meters.
	Radius float64

	// Oper is the operator mode for latitude derivatives: grad or divg.
	Oper string

	// LatVar is the latitude variable used by longitude derivatives.
	LatVar string

	// Variables are the names of the variables to operate on.
	Variables []string
}

// OperatorConfig unmarshals the operator settings from a viper
// configuration.
func OperatorConfig(cfg *viper.Viper) (*Operator, error) {
	kind, err := indiff.ParseKind(cfg.GetString("kind"))
	if err != nil {
		return nil, err
	}
	spacing, err := ParseSpacing(cfg.Get("spacing"))
	if err != nil {
		return nil, err
	}
	order, err := cast.ToIntE(cfg.Get("order"))
	if err != nil {
		return nil, fmt.Errorf("indiffutil: parsing order: %v", err)
	}
	fill, err := indiff.ParseEdgeFill(cfg.GetString("fill"))
	if err != nil {
		return nil, err
	}
	o := &Operator{
		Kind: kind,
		Dim:  os.ExpandEnv(cfg.GetString("dim")),
		Config: indiff.Config{
			Spacing: spacing,
			Order:   order,
			Fill:    fill,
			Workers: cfg.GetInt("workers"),
		},
		Coord:         strings.ToLower(cfg.GetString("coord")),
		CoordVar:      os.ExpandEnv(cfg.GetString("coordvar")),
		Cyclic:        cfg.GetBool("cyclic"),
		Circumference: cfg.GetFloat64("circumference"),
		Radius:        cfg.GetFloat64("radius"),
		Oper:          cfg.GetString("oper"),
		LatVar:        os.ExpandEnv(cfg.GetString("latvar")),
		Variables:     expandStringSlice(cfg.GetStringSlice("variables")),
	}
	if o.Dim == "" {
		return nil, fmt.Errorf("indiffutil: the dimension to operate along (dim) is not specified")
	}
	if o.Coord == "" {
		o.Coord = "cartesian"
	}
	if o.Radius == 0 {
		if o.Radius, err = coord.RadiusMeters(coord.EarthRadius); err != nil {
			return nil, err
		}
	}
	if err := o.Config.Validate(kind); err != nil && o.Coord != "eta" {
		return nil, err
	}
	return o, nil
}

// ParseSpacing converts a configuration value to a stencil spacing,
// which must be a positive integer.
func ParseSpacing(v interface{}) (int, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, &indiff.OpError{Op: "parse spacing", Err: indiff.ErrInvalidSpacing, Detail: err.Error()}
	}
	if f != math.Trunc(f) || f < 1 {
		return 0, &indiff.OpError{Op: "parse spacing", Err: indiff.ErrInvalidSpacing,
			Detail: fmt.Sprintf("%v is not a positive integer", v)}
	}
	return int(f), nil
}

// Coordinate returns the coordinate that o describes for field f, which
// is part of dataset d, and the metric terms it needs.
func (o *Operator) Coordinate(d *indiff.Dataset, f indiff.Field) (coord.Coordinate, coord.Metric, error) {
	var m coord.Metric
	var cf indiff.Field
	var err error
	if o.CoordVar != "" {
		cf, err = d.Get(o.CoordVar)
	} else {
		cf, err = f.CoordField(o.Dim)
	}
	if err != nil {
		return nil, m, err
	}
	circumference := 0.
	if o.Cyclic {
		circumference = o.Circumference
		if !(circumference > 0) && o.Coord != "lon" && o.Coord != "lat" {
			return nil, m, fmt.Errorf("indiffutil: cyclic %s coordinate needs a positive circumference but it is %g", o.Coord, circumference)
		}
	}
	switch o.Coord {
	case "cartesian", "x":
		c, err := coord.NewX(cf, o.Dim, circumference)
		return c, m, err
	case "y":
		c, err := coord.NewY(cf, o.Dim, circumference)
		return c, m, err
	case "z":
		c, err := coord.NewZ(cf, o.Dim)
		return c, m, err
	case "pressure":
		c, err := coord.NewPressure(cf, o.Dim)
		return c, m, err
	case "sigma":
		c, err := coord.NewSigma(cf, o.Dim)
		return c, m, err
	case "lon":
		lat, err := o.latitude(d, f)
		if err != nil {
			return nil, m, err
		}
		m.Lat = lat
		c, err := coord.NewLon(cf, o.Dim, o.Radius, o.Cyclic)
		return c, m, err
	case "lat":
		m.Lat = cf
		m.Oper = o.Oper
		c, err := coord.NewLat(cf, o.Dim, o.Radius, o.Cyclic)
		return c, m, err
	default:
		return nil, m, fmt.Errorf("indiffutil: invalid coordinate type '%s'", o.Coord)
	}
}

// latitude returns the latitude field for longitude derivatives, either
// from variable LatVar or from the coordinate of f along LatVar.
func (o *Operator) latitude(d *indiff.Dataset, f indiff.Field) (indiff.Field, error) {
	if lat, ok := d.Fields[o.LatVar]; ok {
		return lat, nil
	}
	if f.HasDim(o.LatVar) {
		return f.CoordField(o.LatVar)
	}
	return indiff.Field{}, fmt.Errorf("indiffutil: longitude derivatives need latitude variable '%s'", o.LatVar)
}

// checkOutputVars removes end lines and expands environment
// variables in the output variables.
func checkOutputVars(vars map[string]string) map[string]string {
	o := make(map[string]string, len(vars))
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		o[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return o
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(ctx context.Context, f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`indiffutil: you need to specify an output file configuration variable (for example: OutputFile="output.nc")`)
	}
	f = os.ExpandEnv(f)
	if IsBlob(f) {
		url, err := url.Parse(f)
		if err != nil {
			return f, err
		}
		if _, err = OpenBucket(ctx, url.Scheme+"://"+url.Host); err != nil {
			return f, fmt.Errorf("indiffutil: error when checking OutputFile location: %v", err)
		}
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("indiffutil: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// toIntSliceE converts a configuration value to a slice of integers,
// accounting for the fact that it might be a json array if it was set
// from a command line argument.
func toIntSliceE(s interface{}) ([]int, error) {
	switch v := s.(type) {
	case nil:
		return nil, nil
	case []int:
		return v, nil
	case []interface{}:
		o := make([]int, len(v))
		for i, val := range v {
			var err error
			if o[i], err = cast.ToIntE(val); err != nil {
				return nil, err
			}
		}
		return o, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		var o []int
		if err := json.Unmarshal([]byte(v), &o); err != nil {
			return nil, err
		}
		return o, nil
	default:
		return cast.ToIntSliceE(s)
	}
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if strings.TrimSpace(v) == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("indiffutil: parsing %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("indiffutil: invalid type for variable %s: %#v", varName, i)
	}
}
