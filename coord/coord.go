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

// Package coord describes the physical coordinates that fields are
// differentiated along, and the metric factors that turn a finite
// difference along a coordinate into a physical derivative.
package coord

import (
	"errors"
	"fmt"

	"github.com/spatialmodel/indiff"
)

var (
	// ErrMissingLatitude is returned when a metric factor needs latitude
	// but none was supplied.
	ErrMissingLatitude = errors.New("coord: latitude is required")

	// ErrCyclicLatitude is returned when a latitude coordinate is
	// requested to be cyclic.
	ErrCyclicLatitude = errors.New("coord: latitude cannot be cyclic")
)

// Metric holds the information that metric factors may depend on.
type Metric struct {
	// Lat is latitude, which longitude metric factors depend on.
	Lat indiff.Field

	// Oper is the operator being computed: "grad" (the default) or
	// "divg".
	Oper string
}

// A Coordinate is a physical coordinate along one dimension.
type Coordinate interface {
	// Field returns the coordinate values. Angles are in radians.
	Field() indiff.Field

	// Dim returns the dimension the coordinate lies along.
	Dim() string

	// Cyclic returns whether the coordinate wraps around.
	Cyclic() bool

	// Circumference returns the period of a cyclic coordinate.
	Circumference() float64

	// DerivPrefactor returns the factor that multiplies the result of a
	// derivative along the coordinate.
	DerivPrefactor(m Metric) (indiff.Field, error)

	// DerivFactor returns the factor that the differentiated field is
	// multiplied by before differencing.
	DerivFactor(m Metric) (indiff.Field, error)
}

// Base holds the state common to all coordinates. Its metric factors are
// not implemented; concrete coordinates embed it and provide them.
type Base struct {
	field         indiff.Field
	dim           string
	cyclic        bool
	circumference float64
}

// NewBase creates a coordinate from the values in f along dim. If dim is
// empty, f must be one-dimensional and its only dimension is used.
func NewBase(f indiff.Field, dim string) (Base, error) {
	if dim == "" {
		if len(f.Dims) != 1 {
			return Base{}, fmt.Errorf("coord: a dimension must be specified for coordinate %q with dimensions %v",
				f.Name, f.Dims)
		}
		dim = f.Dims[0]
	}
	if !f.HasDim(dim) {
		return Base{}, &indiff.OpError{Op: "new coordinate", Dim: dim, Err: indiff.ErrMissingDim,
			Detail: fmt.Sprintf("coordinate %q has dimensions %v", f.Name, f.Dims)}
	}
	return Base{field: f, dim: dim}, nil
}

// Field returns the coordinate values.
func (b Base) Field() indiff.Field { return b.field }

// Dim returns the coordinate dimension.
func (b Base) Dim() string { return b.dim }

// Cyclic returns whether the coordinate wraps around.
func (b Base) Cyclic() bool { return b.cyclic }

// Circumference returns the period of a cyclic coordinate, or zero.
func (b Base) Circumference() float64 { return b.circumference }

// DerivPrefactor is not implemented for Base.
func (b Base) DerivPrefactor(Metric) (indiff.Field, error) {
	return indiff.Field{}, b.notImplemented("derivative prefactor")
}

// DerivFactor is not implemented for Base.
func (b Base) DerivFactor(Metric) (indiff.Field, error) {
	return indiff.Field{}, b.notImplemented("derivative factor")
}

func (b Base) notImplemented(op string) error {
	return &indiff.OpError{Op: op, Dim: b.dim, Err: indiff.ErrNotImplemented,
		Detail: "generic coordinates have no metric factors"}
}

// setCyclic marks the coordinate as cyclic with the given period.
func (b *Base) setCyclic(circumference float64) error {
	if !(circumference > 0) {
		return fmt.Errorf("coord: cyclic coordinate along %q needs a positive circumference; got %g",
			b.dim, circumference)
	}
	b.cyclic, b.circumference = true, circumference
	return nil
}

// identity is the metric factor of Cartesian coordinates.
func identity() indiff.Field { return indiff.Scalar(1) }

// Cartesian is a coordinate whose metric factors are both 1.
type Cartesian struct{ Base }

// DerivPrefactor returns 1.
func (Cartesian) DerivPrefactor(Metric) (indiff.Field, error) { return identity(), nil }

// DerivFactor returns 1.
func (Cartesian) DerivFactor(Metric) (indiff.Field, error) { return identity(), nil }

// X is a Cartesian horizontal coordinate.
type X struct{ Cartesian }

// NewX creates an x coordinate. If circumference is positive, the
// coordinate is cyclic with that period.
func NewX(f indiff.Field, dim string, circumference float64) (*X, error) {
	b, err := newHoriz(f, dim, circumference)
	if err != nil {
		return nil, err
	}
	return &X{Cartesian{b}}, nil
}

// Y is a Cartesian horizontal coordinate.
type Y struct{ Cartesian }

// NewY creates a y coordinate. If circumference is positive, the
// coordinate is cyclic with that period.
func NewY(f indiff.Field, dim string, circumference float64) (*Y, error) {
	b, err := newHoriz(f, dim, circumference)
	if err != nil {
		return nil, err
	}
	return &Y{Cartesian{b}}, nil
}

func newHoriz(f indiff.Field, dim string, circumference float64) (Base, error) {
	b, err := NewBase(f, dim)
	if err != nil {
		return Base{}, err
	}
	if circumference < 0 {
		return Base{}, fmt.Errorf("coord: negative circumference %g along %q", circumference, b.dim)
	}
	if circumference > 0 {
		if err := b.setCyclic(circumference); err != nil {
			return Base{}, err
		}
	}
	return b, nil
}

// Z is a height vertical coordinate.
type Z struct{ Cartesian }

// NewZ creates a height coordinate.
func NewZ(f indiff.Field, dim string) (*Z, error) {
	b, err := NewBase(f, dim)
	if err != nil {
		return nil, err
	}
	return &Z{Cartesian{b}}, nil
}

// Pressure is a pressure vertical coordinate.
type Pressure struct{ Cartesian }

// NewPressure creates a pressure coordinate.
func NewPressure(f indiff.Field, dim string) (*Pressure, error) {
	b, err := NewBase(f, dim)
	if err != nil {
		return nil, err
	}
	return &Pressure{Cartesian{b}}, nil
}

// Sigma is a vertical coordinate of pressure divided by surface pressure.
type Sigma struct{ Cartesian }

// NewSigma creates a sigma coordinate.
func NewSigma(f indiff.Field, dim string) (*Sigma, error) {
	b, err := NewBase(f, dim)
	if err != nil {
		return nil, err
	}
	return &Sigma{Cartesian{b}}, nil
}

// Pressure returns the pressure at the sigma levels for surface
// pressure ps, which should not have the sigma dimension.
func (s *Sigma) Pressure(ps indiff.Field) (indiff.Field, error) {
	p, err := s.field.Mul(ps)
	if err != nil {
		return indiff.Field{}, fmt.Errorf("coord: sigma pressure: %v", err)
	}
	p.Name = "pressure"
	p.Units = ps.Units
	return p, nil
}
