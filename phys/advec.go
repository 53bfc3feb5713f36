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

package phys

import (
	"github.com/spatialmodel/indiff"
	"github.com/spatialmodel/indiff/coord"
)

// Advect returns the upwind advection term flow * df/dc along coordinate
// c, combining the forward and backward derivatives from Deriv by the
// sign of flow. flow must have the dimensions of f. cfg.Order defaults to
// 2. Along cyclic coordinates the result has the shape of f; otherwise
// the edges not filled by cfg.Fill are dropped as in indiff.Upwind.
func Advect(c coord.Coordinate, f, flow indiff.Field, cfg indiff.Config, m coord.Metric) (indiff.Field, error) {
	dcfg := cfg
	dcfg.Order = cfg.AdvectionOrder()
	dcfg.Fill = indiff.FillBoth
	if c.Cyclic() {
		dcfg.Fill = indiff.Truncate
	}
	fwd, err := Deriv(c, indiff.Forward, f, dcfg, m)
	if err != nil {
		return indiff.Field{}, err
	}
	bwd, err := Deriv(c, indiff.Backward, f, dcfg, m)
	if err != nil {
		return indiff.Field{}, err
	}
	if c.Cyclic() {
		return upwindCombine(fwd, bwd, flow)
	}
	return indiff.UpwindFromDerivs(fwd, bwd, flow, c.Dim(), cfg)
}

// upwindCombine returns pos(flow)*bwd + neg(flow)*fwd for derivatives
// that are valid everywhere, such as along cyclic coordinates.
func upwindCombine(fwd, bwd, flow indiff.Field) (indiff.Field, error) {
	pos, neg := indiff.SplitFlow(flow)
	a, err := bwd.Mul(pos)
	if err != nil {
		return indiff.Field{}, err
	}
	b, err := fwd.Mul(neg)
	if err != nil {
		return indiff.Field{}, err
	}
	return a.Add(b)
}

// EtaDeriv returns the derivative of f along the full levels of eta
// coordinate e with respect to pressure, using the full-level pressure
// computed from surface pressure ps as the coordinate.
func EtaDeriv(e *coord.Eta, k indiff.Kind, f, ps indiff.Field, cfg indiff.Config) (indiff.Field, error) {
	pfull, err := e.PfullFromPs(ps)
	if err != nil {
		return indiff.Field{}, err
	}
	return indiff.Deriv(k, f, pfull, e.FullDim, cfg)
}

// EtaAdvect returns the upwind vertical advection term omega * df/dp
// along the full levels of e, where omega is the vertical velocity in
// pressure coordinates.
func EtaAdvect(e *coord.Eta, f, omega, ps indiff.Field, cfg indiff.Config) (indiff.Field, error) {
	dcfg := cfg
	dcfg.Order = cfg.AdvectionOrder()
	dcfg.Fill = indiff.FillBoth
	fwd, err := EtaDeriv(e, indiff.Forward, f, ps, dcfg)
	if err != nil {
		return indiff.Field{}, err
	}
	bwd, err := EtaDeriv(e, indiff.Backward, f, ps, dcfg)
	if err != nil {
		return indiff.Field{}, err
	}
	return indiff.UpwindFromDerivs(fwd, bwd, omega, e.FullDim, cfg)
}
