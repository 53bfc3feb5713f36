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

import (
	"gonum.org/v1/gonum/floats"
)

// ForwardDiff returns f[i+spacing] - f[i] along dim. The result is
// spacing points shorter than f and takes the coordinates of the
// left-hand stencil points.
func ForwardDiff(f Field, dim string, spacing int) (Field, error) {
	return Diff(Forward, f, dim, Config{Spacing: spacing})
}

// BackwardDiff returns f[i] - f[i-spacing] along dim. The result is
// spacing points shorter than f and takes the coordinates of the
// right-hand stencil points.
func BackwardDiff(f Field, dim string, spacing int) (Field, error) {
	return Diff(Backward, f, dim, Config{Spacing: spacing})
}

// CenteredDiff returns f[i+spacing] - f[i-spacing] along dim. Unless fill
// is Truncate, the points within spacing of the edges selected by fill are
// filled with one-sided differences.
func CenteredDiff(f Field, dim string, spacing int, fill EdgeFill) (Field, error) {
	return Diff(Centered, f, dim, Config{Spacing: spacing, Fill: fill})
}

// Diff differences f along dim with the stencil kind k, using
// cfg.Spacing and cfg.Fill. cfg.Order is ignored.
//
// A one-sided difference can only be missing points on one side: the
// right for Forward and the left for Backward. Fill values on that side are
// computed with the opposite-sided difference; fill requests for the other
// side are ignored.
func Diff(k Kind, f Field, dim string, cfg Config) (Field, error) {
	op := k.String() + " difference"
	if err := checkSpacing(op, dim, cfg.Spacing); err != nil {
		return Field{}, err
	}
	if _, err := f.Axis(dim); err != nil {
		return Field{}, err
	}
	s, n := cfg.Spacing, f.Len(dim)
	need := s + 1
	if k == Centered {
		need = 2*s + 1
	}
	if (k == Forward && cfg.Fill.right()) || (k == Backward && cfg.Fill.left()) {
		need = max(need, 2*s)
	}
	if n < need {
		return Field{}, opErr(op, dim, ErrInsufficientLength,
			"length %d < %d required for spacing %d", n, need, s)
	}
	switch k {
	case Forward:
		interior, err := fwdDiff(f, dim, s, cfg.Workers)
		if err != nil || !cfg.Fill.right() {
			return interior, err
		}
		edge, err := edgeDiff(Backward, f, dim, n-2*s, n, s, cfg.Workers)
		if err != nil {
			return Field{}, err
		}
		return Concat(dim, interior, edge)
	case Backward:
		interior, err := bwdDiff(f, dim, s, cfg.Workers)
		if err != nil || !cfg.Fill.left() {
			return interior, err
		}
		edge, err := edgeDiff(Forward, f, dim, 0, 2*s, s, cfg.Workers)
		if err != nil {
			return Field{}, err
		}
		return Concat(dim, edge, interior)
	case Centered:
		return cenDiff(f, dim, s, cfg.Fill, cfg.Workers)
	}
	return Field{}, opErr(op, dim, ErrInvalidOperatorMode, "unknown kind %d", int(k))
}

// fwdDiff is the forward difference primitive. The other stencils are
// built from it.
func fwdDiff(f Field, dim string, s, workers int) (Field, error) {
	axis, err := f.Axis(dim)
	if err != nil {
		return Field{}, err
	}
	n := f.Data.Shape[axis]
	data := MapLanes(f.Data, axis, n-s, workers, func(dst, src []float64) {
		floats.SubTo(dst, src[s:], src[:n-s])
	})
	out := f.like(data)
	if c, ok := f.Coords[dim]; ok {
		out.Coords[dim] = c[:n-s]
	}
	return out, nil
}

// bwdDiff mirrors fwdDiff: reverse, forward difference, reverse, negate.
func bwdDiff(f Field, dim string, s, workers int) (Field, error) {
	r, err := f.Reverse(dim)
	if err != nil {
		return Field{}, err
	}
	d, err := fwdDiff(r, dim, s, workers)
	if err != nil {
		return Field{}, err
	}
	d, err = d.Reverse(dim)
	if err != nil {
		return Field{}, err
	}
	return d.Scale(-1), nil
}

// cenDiff adds the forward difference of the right-shifted slice to the
// backward difference of the left-shifted slice.
func cenDiff(f Field, dim string, s int, fill EdgeFill, workers int) (Field, error) {
	n := f.Len(dim)
	right, err := f.Slice(dim, s, n)
	if err != nil {
		return Field{}, err
	}
	left, err := f.Slice(dim, 0, n-s)
	if err != nil {
		return Field{}, err
	}
	fwd, err := fwdDiff(right, dim, s, workers)
	if err != nil {
		return Field{}, err
	}
	bwd, err := bwdDiff(left, dim, s, workers)
	if err != nil {
		return Field{}, err
	}
	interior, err := fwd.Add(bwd)
	if err != nil {
		return Field{}, err
	}
	parts := []Field{interior}
	if fill.left() {
		edge, err := edgeDiff(Forward, f, dim, 0, 2*s, s, workers)
		if err != nil {
			return Field{}, err
		}
		parts = append([]Field{edge}, parts...)
	}
	if fill.right() {
		edge, err := edgeDiff(Backward, f, dim, n-2*s, n, s, workers)
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

// edgeDiff computes the one-sided difference of kind k on f[start:end].
func edgeDiff(k Kind, f Field, dim string, start, end, s, workers int) (Field, error) {
	edge, err := f.Slice(dim, start, end)
	if err != nil {
		return Field{}, err
	}
	if k == Forward {
		return fwdDiff(edge, dim, s, workers)
	}
	return bwdDiff(edge, dim, s, workers)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
