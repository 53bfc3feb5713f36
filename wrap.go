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

// Wraparound extends f along the cyclic dimension dim. The first
// leftToRight points are appended after the last point with their
// coordinate increased by circumference, and the last rightToLeft points
// are prepended before the first point with their coordinate decreased
// by circumference. Both extensions are taken from f itself, so the result
// is [last rightToLeft points, f, first leftToRight points].
func Wraparound(f Field, dim string, leftToRight, rightToLeft int, circumference float64) (Field, error) {
	const op = "wraparound"
	if _, err := f.Axis(dim); err != nil {
		return Field{}, err
	}
	n := f.Len(dim)
	if leftToRight < 0 || rightToLeft < 0 {
		return Field{}, opErr(op, dim, ErrInvalidSpacing, "negative number of points (%d, %d)", leftToRight, rightToLeft)
	}
	if leftToRight > n || rightToLeft > n {
		return Field{}, opErr(op, dim, ErrInsufficientLength,
			"cannot wrap %d and %d points of a dimension of length %d", leftToRight, rightToLeft, n)
	}
	parts := make([]Field, 0, 3)
	if rightToLeft > 0 {
		edge, err := shiftedSlice(f, dim, n-rightToLeft, n, -circumference)
		if err != nil {
			return Field{}, err
		}
		parts = append(parts, edge)
	}
	parts = append(parts, f)
	if leftToRight > 0 {
		edge, err := shiftedSlice(f, dim, 0, leftToRight, circumference)
		if err != nil {
			return Field{}, err
		}
		parts = append(parts, edge)
	}
	if len(parts) == 1 {
		return f, nil
	}
	out, err := Concat(dim, parts...)
	if err != nil {
		return Field{}, err
	}
	out.Name, out.Units, out.Description = f.Name, f.Units, f.Description
	return out, nil
}

// shiftedSlice returns f[start:end] along dim with its coordinate along
// dim shifted by delta.
func shiftedSlice(f Field, dim string, start, end int, delta float64) (Field, error) {
	edge, err := f.Slice(dim, start, end)
	if err != nil {
		return Field{}, err
	}
	if c, ok := edge.Coords[dim]; ok {
		shifted := make([]float64, len(c))
		for i, v := range c {
			shifted[i] = v + delta
		}
		edge.Coords[dim] = shifted
	}
	return edge, nil
}

// Unwrap removes the leftToRight points appended and the rightToLeft points
// prepended by Wraparound, so the result lines up with the original
// field along dim.
func Unwrap(f Field, dim string, leftToRight, rightToLeft int) (Field, error) {
	n := f.Len(dim)
	return f.Slice(dim, rightToLeft, n-leftToRight)
}

// WraparoundCoord is Wraparound for a coordinate field, whose values are
// themselves coordinates along dim: the values of the wrapped points are
// shifted by the circumference along with their coordinates.
func WraparoundCoord(c Field, dim string, leftToRight, rightToLeft int, circumference float64) (Field, error) {
	w, err := Wraparound(c, dim, leftToRight, rightToLeft, circumference)
	if err != nil || (leftToRight == 0 && rightToLeft == 0) {
		return w, err
	}
	w = w.Copy()
	axis, _ := w.Axis(dim)
	outer, n, inner := stride(w.Data.Shape, axis)
	for o := 0; o < outer; o++ {
		for i := 0; i < n; i++ {
			var delta float64
			switch {
			case i < rightToLeft:
				delta = -circumference
			case i >= n-leftToRight:
				delta = circumference
			default:
				continue
			}
			p := (o*n + i) * inner
			for k := p; k < p+inner; k++ {
				w.Data.Elements[k] += delta
			}
		}
	}
	return w, nil
}
