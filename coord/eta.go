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

	"github.com/spatialmodel/indiff"
)

// ReferencePressure [Pa] is the surface pressure used to compute the
// nominal full-level pressures of an Eta coordinate.
const ReferencePressure = 100000.

// Eta is a hybrid sigma-pressure vertical coordinate. The pressure at
// level interface k is PK[k] + BK[k]*ps, where ps is surface pressure.
// Interfaces ("half levels") lie along HalfDim and the layers between
// them ("full levels") along FullDim.
type Eta struct {
	Cartesian

	PK, BK           indiff.Field
	HalfDim, FullDim string
}

// NewEta creates an eta coordinate from the one-dimensional interface
// coefficients pk [Pa] and bk [-]. If halfDim is empty, the dimension
// of pk is used.
func NewEta(pk, bk indiff.Field, halfDim, fullDim string) (*Eta, error) {
	if halfDim == "" && len(pk.Dims) == 1 {
		halfDim = pk.Dims[0]
	}
	for _, v := range []indiff.Field{pk, bk} {
		if len(v.Dims) != 1 || v.Dims[0] != halfDim {
			return nil, fmt.Errorf("coord: eta coefficient %q must have the single dimension %q; has %v",
				v.Name, halfDim, v.Dims)
		}
	}
	if pk.Len(halfDim) != bk.Len(halfDim) {
		return nil, &indiff.OpError{Op: "new eta coordinate", Dim: halfDim, Err: indiff.ErrShapeMismatch,
			Detail: fmt.Sprintf("pk length %d != bk length %d", pk.Len(halfDim), bk.Len(halfDim))}
	}
	if pk.Len(halfDim) < 3 {
		return nil, &indiff.OpError{Op: "new eta coordinate", Dim: halfDim, Err: indiff.ErrInsufficientLength,
			Detail: fmt.Sprintf("need at least 3 interfaces; have %d", pk.Len(halfDim))}
	}
	if fullDim == "" || fullDim == halfDim {
		return nil, fmt.Errorf("coord: eta full-level dimension %q must be distinct from %q", fullDim, halfDim)
	}
	e := &Eta{PK: pk, BK: bk, HalfDim: halfDim, FullDim: fullDim}
	pfull, err := e.PfullFromPs(indiff.Scalar(ReferencePressure))
	if err != nil {
		return nil, err
	}
	e.Cartesian.Base = Base{field: pfull, dim: fullDim}
	return e, nil
}

// PhalfFromPs returns the pressure at the level interfaces for surface
// pressure ps, which must not have the vertical dimensions. The
// interface dimension is placed first.
func (e *Eta) PhalfFromPs(ps indiff.Field) (indiff.Field, error) {
	if ps.HasDim(e.HalfDim) || ps.HasDim(e.FullDim) {
		return indiff.Field{}, fmt.Errorf("coord: surface pressure must not have a vertical dimension; has %v", ps.Dims)
	}
	dims := append([]string{e.HalfDim}, ps.Dims...)
	shape := append([]int{e.PK.Len(e.HalfDim)}, ps.Shape()...)
	coords := make(map[string][]float64, len(ps.Coords)+1)
	for d, c := range ps.Coords {
		coords[d] = c
	}
	if c, ok := e.PK.Coords[e.HalfDim]; ok {
		coords[e.HalfDim] = c
	}
	var b [3]indiff.Field
	for i, v := range []indiff.Field{e.PK, e.BK, ps} {
		var err error
		if b[i], err = v.Broadcast(dims, shape, coords); err != nil {
			return indiff.Field{}, fmt.Errorf("coord: phalf: %v", err)
		}
	}
	bps, err := b[1].Mul(b[2])
	if err != nil {
		return indiff.Field{}, err
	}
	p, err := b[0].Add(bps)
	if err != nil {
		return indiff.Field{}, err
	}
	p.Name, p.Units, p.Description = "phalf", ps.Units, "pressure at level interfaces"
	return p, nil
}

// ToPfullFromPhalf averages arr, defined at level interfaces, to the full
// levels between them: 0.5*(arr[k]+arr[k+1]).
func (e *Eta) ToPfullFromPhalf(arr indiff.Field) (indiff.Field, error) {
	n := arr.Len(e.HalfDim)
	lo, err := arr.Slice(e.HalfDim, 0, n-1)
	if err != nil {
		return indiff.Field{}, err
	}
	hi, err := arr.Slice(e.HalfDim, 1, n)
	if err != nil {
		return indiff.Field{}, err
	}
	sum, err := lo.Add(hi)
	if err != nil {
		return indiff.Field{}, err
	}
	return e.halfToFull(sum.Scale(0.5), arr)
}

// PfullFromPs returns the pressure at the full levels for surface
// pressure ps.
func (e *Eta) PfullFromPs(ps indiff.Field) (indiff.Field, error) {
	phalf, err := e.PhalfFromPs(ps)
	if err != nil {
		return indiff.Field{}, err
	}
	p, err := e.ToPfullFromPhalf(phalf)
	if err != nil {
		return indiff.Field{}, err
	}
	p.Name, p.Description = "pfull", "pressure at full levels"
	return p, nil
}

// DDetaFromPhalf returns the difference across each full level of arr,
// which is defined at level interfaces: arr[k+1]-arr[k].
func (e *Eta) DDetaFromPhalf(arr indiff.Field) (indiff.Field, error) {
	d, err := indiff.ForwardDiff(arr, e.HalfDim, 1)
	if err != nil {
		return indiff.Field{}, err
	}
	return e.halfToFull(d, arr)
}

// DDetaFromPfull returns the difference of arr, which is defined at full
// levels, per full level. Interior levels use the centered difference
// divided by two and the top and bottom levels use one-sided differences.
func (e *Eta) DDetaFromPfull(arr indiff.Field) (indiff.Field, error) {
	d, err := indiff.CenteredDiff(arr, e.FullDim, 1, indiff.FillBoth)
	if err != nil {
		return indiff.Field{}, err
	}
	n := d.Len(e.FullDim)
	top, err := d.Slice(e.FullDim, 0, 1)
	if err != nil {
		return indiff.Field{}, err
	}
	mid, err := d.Slice(e.FullDim, 1, n-1)
	if err != nil {
		return indiff.Field{}, err
	}
	bottom, err := d.Slice(e.FullDim, n-1, n)
	if err != nil {
		return indiff.Field{}, err
	}
	return indiff.Concat(e.FullDim, top, mid.Scale(0.5), bottom)
}

// DpFromPs returns the pressure thickness of each full level for surface
// pressure ps.
func (e *Eta) DpFromPs(ps indiff.Field) (indiff.Field, error) {
	phalf, err := e.PhalfFromPs(ps)
	if err != nil {
		return indiff.Field{}, err
	}
	dp, err := e.DDetaFromPhalf(phalf)
	if err != nil {
		return indiff.Field{}, err
	}
	dp.Name, dp.Description = "dp", "pressure thickness of full levels"
	return dp, nil
}

// halfToFull moves g, computed from the interface field src, to the full
// level dimension. If src has interface coordinates, g gets their
// midpoints.
func (e *Eta) halfToFull(g, src indiff.Field) (indiff.Field, error) {
	g, err := g.Rename(e.HalfDim, e.FullDim)
	if err != nil {
		return indiff.Field{}, err
	}
	c, ok := src.Coords[e.HalfDim]
	if !ok {
		return g, nil
	}
	mid := make([]float64, len(c)-1)
	for i := range mid {
		mid[i] = 0.5 * (c[i] + c[i+1])
	}
	return g.WithCoord(e.FullDim, mid)
}
