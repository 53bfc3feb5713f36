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

// ForwardDeriv returns the forward-differencing approximation of
// df/dcoord along dim.
func ForwardDeriv(f, coord Field, dim string, cfg Config) (Field, error) {
	return Deriv(Forward, f, coord, dim, cfg)
}

// BackwardDeriv returns the backward-differencing approximation of
// df/dcoord along dim.
func BackwardDeriv(f, coord Field, dim string, cfg Config) (Field, error) {
	return Deriv(Backward, f, coord, dim, cfg)
}

// CenteredDeriv returns the centered-differencing approximation of
// df/dcoord along dim.
func CenteredDeriv(f, coord Field, dim string, cfg Config) (Field, error) {
	return Deriv(Centered, f, coord, dim, cfg)
}

// DerivOwnCoord is Deriv using the coordinate that f carries along dim.
func DerivOwnCoord(k Kind, f Field, dim string, cfg Config) (Field, error) {
	c, err := f.CoordField(dim)
	if err != nil {
		return Field{}, err
	}
	return Deriv(k, f, c, dim, cfg)
}

// Deriv returns the finite-difference approximation of df/dcoord along dim
// using stencil kind k.
//
// coord is either one-dimensional along dim or has the same dimensions
// as f, for example pressure varying in space.
//
// Order 2 one-sided and order 4 centered derivatives are computed by
// Richardson extrapolation of the derivatives at spacing s and 2s.
// Without edge fill, the result is s*order points shorter than f on the
// side lacking neighbors for one-sided kinds, and s*order/2 points
// shorter on each side for Centered. With edge fill, the missing points
// are computed with the opposite-sided derivative of the same order
// (order 2 at most for the edges of a centered derivative) and the
// result has the shape of f.
func Deriv(k Kind, f, coord Field, dim string, cfg Config) (Field, error) {
	op := k.String() + " derivative"
	order, err := cfg.check(op, dim, k)
	if err != nil {
		return Field{}, err
	}
	if _, err := f.Axis(dim); err != nil {
		return Field{}, err
	}
	c, err := derivCoord(op, f, coord, dim)
	if err != nil {
		return Field{}, err
	}
	s, n := cfg.Spacing, f.Len(dim)
	if need := minLength(k, s, order, cfg.Fill); n < need {
		return Field{}, opErr(op, dim, ErrInsufficientLength,
			"length %d < %d required for spacing %d and order %d", n, need, s, order)
	}
	interior, err := derivTrunc(k, f, c, dim, s, order, cfg.Workers)
	if err != nil {
		return Field{}, err
	}
	switch k {
	case Forward:
		if !cfg.Fill.right() {
			return interior, nil
		}
		w := s * order
		edge, err := derivEdge(Backward, f, c, dim, n-2*w, n, s, order, cfg.Workers)
		if err != nil {
			return Field{}, err
		}
		return Concat(dim, interior, edge)
	case Backward:
		if !cfg.Fill.left() {
			return interior, nil
		}
		w := s * order
		edge, err := derivEdge(Forward, f, c, dim, 0, 2*w, s, order, cfg.Workers)
		if err != nil {
			return Field{}, err
		}
		return Concat(dim, edge, interior)
	default:
		h := s * order / 2
		q := min(order, 2)
		parts := []Field{interior}
		if cfg.Fill.left() {
			edge, err := derivEdge(Forward, f, c, dim, 0, h+s*q, s, q, cfg.Workers)
			if err != nil {
				return Field{}, err
			}
			parts = append([]Field{edge}, parts...)
		}
		if cfg.Fill.right() {
			edge, err := derivEdge(Backward, f, c, dim, n-h-s*q, n, s, q, cfg.Workers)
			if err != nil {
				return Field{}, err
			}
			parts = append(parts, edge)
		}
		if len(parts) == 1 {
			return interior, nil
		}
		return Concat(dim, parts...)
	}
}

// DerivRange returns the index range [start, end) of a field of length n
// along the differencing dimension that the result of Deriv with kind k
// and cfg lines up with.
func DerivRange(k Kind, n int, cfg Config) (start, end int) {
	w := cfg.Spacing * cfg.OrderFor(k)
	start, end = 0, n
	switch k {
	case Forward:
		if !cfg.Fill.right() {
			end = n - w
		}
	case Backward:
		if !cfg.Fill.left() {
			start = w
		}
	case Centered:
		if !cfg.Fill.left() {
			start = w / 2
		}
		if !cfg.Fill.right() {
			end = n - w/2
		}
	}
	return start, end
}

// minLength returns the shortest field that can be differentiated
// with the given settings.
func minLength(k Kind, s, order int, fill EdgeFill) int {
	need := s*order + 1
	switch k {
	case Forward:
		if fill.right() {
			need = max(need, 2*s*order)
		}
	case Backward:
		if fill.left() {
			need = max(need, 2*s*order)
		}
	case Centered:
		if fill != Truncate {
			need = max(need, s*order/2+s*min(order, 2))
		}
	}
	return need
}

// derivCoord checks coord and broadcasts it to the shape of f.
func derivCoord(op string, f, coord Field, dim string) (Field, error) {
	if !coord.HasDim(dim) {
		return Field{}, opErr(op, dim, ErrMissingDim, "coordinate %q does not have the differencing dimension", coord.Name)
	}
	if coord.Len(dim) != f.Len(dim) {
		return Field{}, opErr(op, dim, ErrShapeMismatch, "coordinate length %d != field length %d",
			coord.Len(dim), f.Len(dim))
	}
	c, err := coord.BroadcastLike(f)
	if err != nil {
		return Field{}, opErr(op, dim, ErrShapeMismatch, "%v", err)
	}
	return c, nil
}

// derivBase divides the difference of f by the difference of c.
func derivBase(k Kind, f, c Field, dim string, s, workers int) (Field, error) {
	cfg := Config{Spacing: s, Workers: workers}
	df, err := Diff(k, f, dim, cfg)
	if err != nil {
		return Field{}, err
	}
	dc, err := Diff(k, c, dim, cfg)
	if err != nil {
		return Field{}, err
	}
	return df.Div(dc)
}

// derivTrunc returns the derivative without edge fill.
func derivTrunc(k Kind, f, c Field, dim string, s, order, workers int) (Field, error) {
	if order == 1 || (k == Centered && order == 2) {
		return derivBase(k, f, c, dim, s, workers)
	}
	lower := order / 2
	single, err := derivTrunc(k, f, c, dim, s, lower, workers)
	if err != nil {
		return Field{}, err
	}
	double, err := derivTrunc(k, f, c, dim, 2*s, lower, workers)
	if err != nil {
		return Field{}, err
	}
	// Align the single-spacing term with the index range of the
	// double-spacing term.
	m := single.Len(dim)
	switch k {
	case Forward:
		single, err = single.Slice(dim, 0, m-s)
	case Backward:
		single, err = single.Slice(dim, s, m)
	case Centered:
		single, err = single.Slice(dim, s, m-s)
	}
	if err != nil {
		return Field{}, err
	}
	if k == Centered {
		// (4 D(s) - D(2s)) / 3
		o, err := single.Scale(4).Sub(double)
		if err != nil {
			return Field{}, err
		}
		return o.Scale(1. / 3), nil
	}
	// 2 D(s) - D(2s)
	return single.Scale(2).Sub(double)
}

// derivEdge computes the truncated derivative of kind k on the edge slice
// [start, end), which is sized so that the result covers exactly the
// missing edge points.
func derivEdge(k Kind, f, c Field, dim string, start, end, s, order, workers int) (Field, error) {
	fe, err := f.Slice(dim, start, end)
	if err != nil {
		return Field{}, err
	}
	ce, err := c.Slice(dim, start, end)
	if err != nil {
		return Field{}, err
	}
	return derivTrunc(k, fe, ce, dim, s, order, workers)
}
