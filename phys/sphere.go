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
	"fmt"

	"github.com/spatialmodel/indiff"
	"github.com/spatialmodel/indiff/coord"
)

// Sphere computes horizontal derivatives on a sphere.
type Sphere struct {
	Lon *coord.Lon
	Lat *coord.Lat
}

// DDx returns the zonal derivative of f, which must have the longitude
// and latitude dimensions.
func (s Sphere) DDx(k indiff.Kind, f indiff.Field, cfg indiff.Config) (indiff.Field, error) {
	return Deriv(s.Lon, k, f, cfg, s.metric(""))
}

// DDy returns the meridional derivative of f for operator oper, which is
// "grad" or "divg".
func (s Sphere) DDy(k indiff.Kind, f indiff.Field, cfg indiff.Config, oper string) (indiff.Field, error) {
	return Deriv(s.Lat, k, f, cfg, s.metric(oper))
}

func (s Sphere) metric(oper string) coord.Metric {
	return coord.Metric{Lat: s.Lat.Field(), Oper: oper}
}

// HorizGrad returns the sum of the zonal and meridional gradient
// components of f. Where either derivative drops edge points, the sum is
// restricted to the points where both are defined.
func (s Sphere) HorizGrad(k indiff.Kind, f indiff.Field, cfg indiff.Config) (indiff.Field, error) {
	dx, err := s.DDx(k, f, cfg)
	if err != nil {
		return indiff.Field{}, err
	}
	dy, err := s.DDy(k, f, cfg, "grad")
	if err != nil {
		return indiff.Field{}, err
	}
	return s.sum(k, cfg, f, dx, dy)
}

// HorizDivg returns the horizontal divergence of the vector (u, v).
func (s Sphere) HorizDivg(k indiff.Kind, u, v indiff.Field, cfg indiff.Config) (indiff.Field, error) {
	dx, err := s.DDx(k, u, cfg)
	if err != nil {
		return indiff.Field{}, err
	}
	dy, err := s.DDy(k, v, cfg, "divg")
	if err != nil {
		return indiff.Field{}, err
	}
	return s.sum(k, cfg, u, dx, dy)
}

// sum adds a zonal derivative dx and a meridional derivative dy of
// fields shaped like f, trimming each to the other's extent.
func (s Sphere) sum(k indiff.Kind, cfg indiff.Config, f, dx, dy indiff.Field) (indiff.Field, error) {
	var err error
	if dx, err = trimTo(dx, s.Lat, f.Len(s.Lat.Dim()), k, cfg); err != nil {
		return indiff.Field{}, err
	}
	if dy, err = trimTo(dy, s.Lon, f.Len(s.Lon.Dim()), k, cfg); err != nil {
		return indiff.Field{}, err
	}
	o, err := dx.Add(dy)
	if err != nil {
		return indiff.Field{}, fmt.Errorf("phys: horizontal sum: %v", err)
	}
	return o, nil
}

// SphereEta computes derivatives on a sphere with hybrid sigma-pressure
// vertical levels. Horizontal derivatives are at constant pressure.
type SphereEta struct {
	Sphere
	Eta *coord.Eta
}

// constP converts dfdx, the derivative of f along horizontal coordinate c
// on eta levels, to constant pressure:
//
//	dfdx + df/deta * bk_full * dpsdx / (dpk/deta + dbk/deta * ps)
//
// where dpsdx is the derivative of surface pressure ps along c.
func (s SphereEta) constP(c coord.Coordinate, k indiff.Kind, cfg indiff.Config, f, dfdx, ps, dpsdx indiff.Field) (indiff.Field, error) {
	e := s.Eta
	dfdeta, err := e.DDetaFromPfull(f)
	if err != nil {
		return indiff.Field{}, err
	}
	bkFull, err := e.ToPfullFromPhalf(e.BK)
	if err != nil {
		return indiff.Field{}, err
	}
	dpk, err := e.DDetaFromPhalf(e.PK)
	if err != nil {
		return indiff.Field{}, err
	}
	dbk, err := e.DDetaFromPhalf(e.BK)
	if err != nil {
		return indiff.Field{}, err
	}
	n := f.Len(c.Dim())
	if dfdeta, err = trimTo(dfdeta, c, n, k, cfg); err != nil {
		return indiff.Field{}, err
	}
	if ps, err = trimTo(ps, c, n, k, cfg); err != nil {
		return indiff.Field{}, err
	}
	// dp/deta = dpk/deta + dbk/deta * ps
	dpdeta, err := outer(dbk, ps, e.FullDim)
	if err != nil {
		return indiff.Field{}, err
	}
	if dpdeta, err = dpdeta.Add(dpk); err != nil {
		return indiff.Field{}, err
	}
	num, err := outer(bkFull, dpsdx, e.FullDim)
	if err != nil {
		return indiff.Field{}, err
	}
	ratio, err := num.Div(dpdeta)
	if err != nil {
		return indiff.Field{}, err
	}
	corr, err := dfdeta.Mul(ratio)
	if err != nil {
		return indiff.Field{}, err
	}
	o, err := dfdx.Add(corr)
	if err != nil {
		return indiff.Field{}, fmt.Errorf("phys: constant-pressure correction: %v", err)
	}
	return o, nil
}

// outer returns a * b for a one-dimensional along vdim and b without
// vdim, with vdim as the first dimension.
func outer(a, b indiff.Field, vdim string) (indiff.Field, error) {
	dims := append([]string{vdim}, b.Dims...)
	shape := append([]int{a.Len(vdim)}, b.Shape()...)
	ab, err := a.Broadcast(dims, shape, b.Coords)
	if err != nil {
		return indiff.Field{}, err
	}
	return ab.Mul(b)
}

// horizConstP returns the derivative of f along the horizontal
// coordinate c at constant pressure.
func (s SphereEta) horizConstP(c coord.Coordinate, k indiff.Kind, f, ps indiff.Field, cfg indiff.Config, m coord.Metric) (indiff.Field, error) {
	dfdx, err := Deriv(c, k, f, cfg, m)
	if err != nil {
		return indiff.Field{}, err
	}
	dpsdx, err := Deriv(c, k, ps, cfg, m)
	if err != nil {
		return indiff.Field{}, err
	}
	return s.constP(c, k, cfg, f, dfdx, ps, dpsdx)
}

// DDxConstP returns the zonal derivative of f at constant pressure for
// surface pressure ps.
func (s SphereEta) DDxConstP(k indiff.Kind, f, ps indiff.Field, cfg indiff.Config) (indiff.Field, error) {
	return s.horizConstP(s.Lon, k, f, ps, cfg, s.metric(""))
}

// DDyConstP returns the meridional gradient of f at constant pressure
// for surface pressure ps.
func (s SphereEta) DDyConstP(k indiff.Kind, f, ps indiff.Field, cfg indiff.Config) (indiff.Field, error) {
	return s.horizConstP(s.Lat, k, f, ps, cfg, s.metric("grad"))
}

// HorizGradConstP returns the sum of the zonal and meridional gradient
// components of f at constant pressure.
func (s SphereEta) HorizGradConstP(k indiff.Kind, f, ps indiff.Field, cfg indiff.Config) (indiff.Field, error) {
	dx, err := s.DDxConstP(k, f, ps, cfg)
	if err != nil {
		return indiff.Field{}, err
	}
	dy, err := s.DDyConstP(k, f, ps, cfg)
	if err != nil {
		return indiff.Field{}, err
	}
	return s.sum(k, cfg, f, dx, dy)
}

// advectConstP returns the upwind advection of f by flow along the
// horizontal coordinate c at constant pressure.
func (s SphereEta) advectConstP(c coord.Coordinate, f, flow, ps indiff.Field, cfg indiff.Config, m coord.Metric) (indiff.Field, error) {
	dcfg := cfg
	dcfg.Order = cfg.AdvectionOrder()
	dcfg.Fill = indiff.FillBoth
	if c.Cyclic() {
		dcfg.Fill = indiff.Truncate
	}
	fwd, err := s.horizConstP(c, indiff.Forward, f, ps, dcfg, m)
	if err != nil {
		return indiff.Field{}, err
	}
	bwd, err := s.horizConstP(c, indiff.Backward, f, ps, dcfg, m)
	if err != nil {
		return indiff.Field{}, err
	}
	if c.Cyclic() {
		return upwindCombine(fwd, bwd, flow)
	}
	return indiff.UpwindFromDerivs(fwd, bwd, flow, c.Dim(), cfg)
}

// AdvectX returns the zonal upwind advection of f by zonal wind u at
// constant pressure.
func (s SphereEta) AdvectX(f, u, ps indiff.Field, cfg indiff.Config) (indiff.Field, error) {
	return s.advectConstP(s.Lon, f, u, ps, cfg, s.metric(""))
}

// AdvectY returns the meridional upwind advection of f by meridional wind
// v at constant pressure.
func (s SphereEta) AdvectY(f, v, ps indiff.Field, cfg indiff.Config) (indiff.Field, error) {
	return s.advectConstP(s.Lat, f, v, ps, cfg, s.metric("grad"))
}

// AdvectZ returns the vertical upwind advection of f by pressure
// velocity omega.
func (s SphereEta) AdvectZ(f, omega, ps indiff.Field, cfg indiff.Config) (indiff.Field, error) {
	return EtaAdvect(s.Eta, f, omega, ps, cfg)
}

// Advect3D returns the sum of the zonal, meridional, and vertical upwind
// advection of f. Edge points dropped along any dimension are dropped
// from the sum.
func (s SphereEta) Advect3D(f, u, v, omega, ps indiff.Field, cfg indiff.Config) (indiff.Field, error) {
	x, err := s.AdvectX(f, u, ps, cfg)
	if err != nil {
		return indiff.Field{}, err
	}
	y, err := s.AdvectY(f, v, ps, cfg)
	if err != nil {
		return indiff.Field{}, err
	}
	z, err := s.AdvectZ(f, omega, ps, cfg)
	if err != nil {
		return indiff.Field{}, err
	}
	terms := []indiff.Field{x, y, z}
	axes := []coord.Coordinate{s.Lon, s.Lat, s.Eta}
	for i := range terms {
		for j, c := range axes {
			if i == j {
				continue
			}
			if terms[i], err = trimUpwind(terms[i], c, f.Len(c.Dim()), cfg); err != nil {
				return indiff.Field{}, err
			}
		}
	}
	sum, err := terms[0].Add(terms[1])
	if err != nil {
		return indiff.Field{}, err
	}
	if sum, err = sum.Add(terms[2]); err != nil {
		return indiff.Field{}, err
	}
	sum.Name = "advection"
	return sum, nil
}

// trimUpwind slices f along the dimension of c to the points kept by
// upwind advection along c of a field of length n.
func trimUpwind(f indiff.Field, c coord.Coordinate, n int, cfg indiff.Config) (indiff.Field, error) {
	dim := c.Dim()
	if c.Cyclic() || !f.HasDim(dim) || f.Len(dim) != n {
		return f, nil
	}
	start, end := 0, n
	order := cfg.AdvectionOrder()
	if cfg.Fill != indiff.FillBoth && cfg.Fill != indiff.FillLeft {
		start = order
	}
	if cfg.Fill != indiff.FillBoth && cfg.Fill != indiff.FillRight {
		end = n - order
	}
	if start == 0 && end == n {
		return f, nil
	}
	return f.Slice(dim, start, end)
}
