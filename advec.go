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

package indiff

import "github.com/ctessum/sparse"

// AdvectionOrder returns the order of accuracy used for upwind
// advection, which defaults to 2.
func (c Config) AdvectionOrder() int {
	if c.Order == 0 {
		return 2
	}
	return c.Order
}

// Upwind returns the upwind-differencing approximation of
// flow * df/dcoord along dim.
//
// Where the flow is positive the backward (upstream) derivative is used, and
// where it is negative the forward derivative is used. Both derivatives are
// computed with edge fill; at the first point the backward derivative is
// replaced by the forward one and at the last point the forward derivative is
// replaced by the backward one. Unless cfg.Fill fills them, the order points
// nearest each edge are dropped from the result.
func Upwind(f, flow, coord Field, dim string, cfg Config) (Field, error) {
	order := cfg.AdvectionOrder()
	dcfg := cfg
	dcfg.Order = order
	dcfg.Fill = FillBoth
	fwd, err := Deriv(Forward, f, coord, dim, dcfg)
	if err != nil {
		return Field{}, err
	}
	bwd, err := Deriv(Backward, f, coord, dim, dcfg)
	if err != nil {
		return Field{}, err
	}
	return UpwindFromDerivs(fwd, bwd, flow, dim, cfg)
}

// UpwindFromDerivs combines precomputed forward and backward derivatives,
// which must cover the whole domain along dim, into an upwind advection
// term. See Upwind for details.
func UpwindFromDerivs(fwd, bwd, flow Field, dim string, cfg Config) (Field, error) {
	const op = "upwind advection"
	order := cfg.AdvectionOrder()
	axis, err := fwd.Axis(dim)
	if err != nil {
		return Field{}, err
	}
	bwd, err = bwd.BroadcastLike(fwd)
	if err != nil {
		return Field{}, opErr(op, dim, ErrShapeMismatch, "backward derivative: %v", err)
	}
	flow, err = flow.BroadcastLike(fwd)
	if err != nil {
		return Field{}, opErr(op, dim, ErrShapeMismatch, "flow: %v", err)
	}
	n := fwd.Len(dim)
	if n < 1 {
		return Field{}, opErr(op, dim, ErrInsufficientLength, "empty field")
	}

	// Forward differencing on the left edge, backward on the right edge.
	bwdData, fwdData := bwd.Data.Copy(), fwd.Data.Copy()
	bwdData.Shape, fwdData.Shape = bwd.Shape(), fwd.Shape()
	copyIndex(bwdData, fwd.Data, axis, 0)
	copyIndex(fwdData, bwd.Data, axis, n-1)

	pos, neg := SplitFlow(flow)
	data := sparse.ZerosDense(fwd.Shape()...)
	for i := range data.Elements {
		data.Elements[i] = pos.Data.Elements[i]*bwdData.Elements[i] + neg.Data.Elements[i]*fwdData.Elements[i]
	}
	out := fwd.like(data)

	start, end := 0, n
	if !cfg.Fill.left() {
		start = order
	}
	if !cfg.Fill.right() {
		end = n - order
	}
	if start == 0 && end == n {
		return out, nil
	}
	if end <= start {
		return Field{}, opErr(op, dim, ErrInsufficientLength,
			"length %d leaves no points after dropping %d edge points", n, order)
	}
	return out.Slice(dim, start, end)
}

// copyIndex sets dst to src at index i along axis.
func copyIndex(dst, src *sparse.DenseArray, axis, i int) {
	outer, n, inner := stride(dst.Shape, axis)
	for o := 0; o < outer; o++ {
		p := (o*n + i) * inner
		copy(dst.Elements[p:p+inner], src.Elements[p:p+inner])
	}
}

// SplitFlow splits flow into its positive part, with negative values set
// to zero, and its negative part, with non-negative values set to zero.
// pos + neg == flow and pos * neg == 0 everywhere.
func SplitFlow(flow Field) (pos, neg Field) {
	pos = flow.Apply(func(v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	})
	neg = flow.Apply(func(v float64) float64 {
		if v >= 0 {
			return 0
		}
		return v
	})
	return pos, neg
}

// CenteredAdvect returns flow * df/dcoord along dim using the centered
// derivative. flow must have the shape of f; it is trimmed to match the
// derivative when edge points are dropped.
func CenteredAdvect(f, flow, coord Field, dim string, cfg Config) (Field, error) {
	d, err := Deriv(Centered, f, coord, dim, cfg)
	if err != nil {
		return Field{}, err
	}
	if n := flow.Len(dim); n != d.Len(dim) {
		start, end := DerivRange(Centered, n, cfg)
		if flow, err = flow.Slice(dim, start, end); err != nil {
			return Field{}, err
		}
	}
	return d.Mul(flow)
}
