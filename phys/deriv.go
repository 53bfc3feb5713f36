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

// Package phys computes derivatives and advection along physical
// coordinates, applying metric factors, cyclic boundaries, and the
// conversion of horizontal derivatives on hybrid sigma-pressure levels
// to constant pressure.
package phys

import (
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/indiff"
	"github.com/spatialmodel/indiff/coord"
)

// Deriv returns the derivative of f along coordinate c with stencil kind
// k: prefactor * d(factor * f)/dc, where the metric prefactor and factor
// are those of c for m.
//
// If c is cyclic, f is extended across the periodic boundary so that the
// result has the shape of f. Edge fill is not used in that case; a fill
// request is ignored with a warning.
func Deriv(c coord.Coordinate, k indiff.Kind, f indiff.Field, cfg indiff.Config, m coord.Metric) (indiff.Field, error) {
	dim := c.Dim()
	factor, err := c.DerivFactor(m)
	if err != nil {
		return indiff.Field{}, err
	}
	prefactor, err := c.DerivPrefactor(m)
	if err != nil {
		return indiff.Field{}, err
	}
	g, err := f.Mul(factor)
	if err != nil {
		return indiff.Field{}, err
	}
	g.Name, g.Units, g.Description = f.Name, f.Units, f.Description

	var d indiff.Field
	if c.Cyclic() {
		d, err = cyclicDeriv(c, k, g, cfg)
	} else {
		d, err = indiff.Deriv(k, g, c.Field(), dim, cfg)
	}
	if err != nil {
		return indiff.Field{}, err
	}
	if prefactor, err = trimTo(prefactor, c, f.Len(dim), k, cfg); err != nil {
		return indiff.Field{}, err
	}
	return d.Mul(prefactor)
}

// cyclicDeriv differentiates f along the cyclic coordinate c.
func cyclicDeriv(c coord.Coordinate, k indiff.Kind, f indiff.Field, cfg indiff.Config) (indiff.Field, error) {
	dim := c.Dim()
	if cfg.Fill != indiff.Truncate {
		indiff.Log.WithFields(logrus.Fields{
			"field": f.Name,
			"dim":   dim,
			"fill":  cfg.Fill.String(),
		}).Warn("indiff: edge fill is not used along cyclic dimensions")
		cfg.Fill = indiff.Truncate
	}
	if err := cfg.Validate(k); err != nil {
		return indiff.Field{}, err
	}
	w := cfg.Spacing * cfg.OrderFor(k)
	n := f.Len(dim)
	fw, err := indiff.Wraparound(f, dim, w, w, c.Circumference())
	if err != nil {
		return indiff.Field{}, err
	}
	cw, err := indiff.WraparoundCoord(c.Field(), dim, w, w, c.Circumference())
	if err != nil {
		return indiff.Field{}, err
	}
	d, err := indiff.Deriv(k, fw, cw, dim, cfg)
	if err != nil {
		return indiff.Field{}, err
	}
	start, _ := indiff.DerivRange(k, n+2*w, cfg)
	return d.Slice(dim, w-start, w-start+n)
}

// trimTo slices f along the dimension of c to line up with the result of
// a derivative along c with kind k and cfg of a field of length n. Fields
// that do not have that length along it are returned unchanged, as are
// fields along cyclic coordinates, whose derivatives are not truncated.
func trimTo(f indiff.Field, c coord.Coordinate, n int, k indiff.Kind, cfg indiff.Config) (indiff.Field, error) {
	dim := c.Dim()
	if c.Cyclic() || !f.HasDim(dim) || f.Len(dim) != n {
		return f, nil
	}
	start, end := indiff.DerivRange(k, n, cfg)
	if start == 0 && end == n {
		return f, nil
	}
	return f.Slice(dim, start, end)
}
