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

package coord

import (
	"fmt"
	"math"

	"github.com/spatialmodel/indiff"
)

// Lon is a longitude coordinate on a sphere.
type Lon struct {
	Base

	// Radius is the radius of the sphere in meters.
	Radius float64
}

// NewLon creates a longitude coordinate from f, in degrees or radians,
// on a sphere of the given radius in meters. Longitude is cyclic with a
// circumference of 2π unless cyclic is false.
func NewLon(f indiff.Field, dim string, radius float64, cyclic bool) (*Lon, error) {
	b, err := NewBase(ToRadians(f, false), dim)
	if err != nil {
		return nil, err
	}
	if err := checkRadius(radius); err != nil {
		return nil, err
	}
	if cyclic {
		if err := b.setCyclic(2 * math.Pi); err != nil {
			return nil, err
		}
	}
	return &Lon{Base: b, Radius: radius}, nil
}

// DerivPrefactor returns 1 / (R cos(lat)). m.Lat must be set.
func (l *Lon) DerivPrefactor(m Metric) (indiff.Field, error) {
	if m.Lat.Data == nil {
		return indiff.Field{}, ErrMissingLatitude
	}
	r := l.Radius
	p := ToRadians(m.Lat, false).Apply(func(lat float64) float64 {
		return 1 / (r * math.Cos(lat))
	})
	p.Name, p.Units = "lon_prefactor", "1/m"
	return p, nil
}

// DerivFactor returns 1.
func (l *Lon) DerivFactor(Metric) (indiff.Field, error) { return identity(), nil }

// Lat is a latitude coordinate on a sphere. It is never cyclic.
type Lat struct {
	Base

	// Radius is the radius of the sphere in meters.
	Radius float64
}

// NewLat creates a latitude coordinate from f, in degrees or radians,
// on a sphere of the given radius in meters. cyclic must be false; it is
// accepted so that all horizontal coordinates can be created alike.
func NewLat(f indiff.Field, dim string, radius float64, cyclic bool) (*Lat, error) {
	if cyclic {
		return nil, ErrCyclicLatitude
	}
	b, err := NewBase(ToRadians(f, false), dim)
	if err != nil {
		return nil, err
	}
	if err := checkRadius(radius); err != nil {
		return nil, err
	}
	return &Lat{Base: b, Radius: radius}, nil
}

// DerivPrefactor returns 1/R for gradients and 1/(R cos(lat)) for
// divergences.
func (l *Lat) DerivPrefactor(m Metric) (indiff.Field, error) {
	r := l.Radius
	switch m.Oper {
	case "", "grad":
		return indiff.Scalar(1 / r), nil
	case "divg":
		p := l.field.Apply(func(lat float64) float64 { return 1 / (r * math.Cos(lat)) })
		p.Name, p.Units = "lat_prefactor", "1/m"
		return p, nil
	}
	return indiff.Field{}, l.invalidOper("derivative prefactor", m.Oper)
}

// DerivFactor returns 1 for gradients and cos(lat) for divergences.
func (l *Lat) DerivFactor(m Metric) (indiff.Field, error) {
	switch m.Oper {
	case "", "grad":
		return identity(), nil
	case "divg":
		f := l.field.Apply(math.Cos)
		f.Name, f.Units = "lat_factor", "1"
		return f, nil
	}
	return indiff.Field{}, l.invalidOper("derivative factor", m.Oper)
}

func (l *Lat) invalidOper(op, oper string) error {
	return &indiff.OpError{Op: op, Dim: l.dim, Err: indiff.ErrInvalidOperatorMode,
		Detail: fmt.Sprintf("operator must be \"grad\" or \"divg\"; got %q", oper)}
}

func checkRadius(radius float64) error {
	if !(radius > 0) {
		return fmt.Errorf("coord: radius must be positive; got %g", radius)
	}
	return nil
}
