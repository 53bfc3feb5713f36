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
	"fmt"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// Field is an N-dimensional array with named dimensions and optional
// coordinate values along each dimension.
//
// Fields are handled as values. No function in this module writes into the
// Data or Coords of a Field it was given, so Fields may share storage and
// may be used concurrently.
type Field struct {
	Name        string
	Units       string
	Description string

	// Dims holds the dimension names in storage order.
	Dims []string

	// Coords holds coordinate values for some or all dimensions.
	// Coords[d] must have length Data.Shape[i] where Dims[i] == d.
	Coords map[string][]float64

	// Data holds the values in row-major order.
	Data *sparse.DenseArray
}

// NewField creates a new field and checks that dims, data, and coords
// are consistent with each other. coords may be nil.
func NewField(name string, dims []string, data *sparse.DenseArray, coords map[string][]float64) (Field, error) {
	f := Field{Name: name, Dims: dims, Data: data, Coords: coords}
	if err := f.check(); err != nil {
		return Field{}, err
	}
	return f, nil
}

// NewField1D creates a one-dimensional field along dim whose coordinate
// along dim is coord. If coord is nil, the field has no coordinate values.
func NewField1D(name, dim string, values, coord []float64) (Field, error) {
	data := sparse.ZerosDense(len(values))
	copy(data.Elements, values)
	var coords map[string][]float64
	if coord != nil {
		coords = map[string][]float64{dim: append([]float64(nil), coord...)}
	}
	return NewField(name, []string{dim}, data, coords)
}

// Scalar returns a zero-dimensional field holding v.
func Scalar(v float64) Field {
	data := sparse.ZerosDense()
	data.Elements[0] = v
	return Field{Data: data}
}

func (f Field) check() error {
	if f.Data == nil {
		return &OpError{Op: "new field", Err: ErrShapeMismatch, Detail: "data is nil"}
	}
	if len(f.Dims) != len(f.Data.Shape) {
		return opErr("new field", "", ErrShapeMismatch, "%d dimension names for %d-dimensional data",
			len(f.Dims), len(f.Data.Shape))
	}
	n := 1
	for _, l := range f.Data.Shape {
		n *= l
	}
	if n != len(f.Data.Elements) {
		return opErr("new field", "", ErrShapeMismatch, "shape %v has %d elements but data has %d",
			f.Data.Shape, n, len(f.Data.Elements))
	}
	seen := make(map[string]bool)
	for _, d := range f.Dims {
		if seen[d] {
			return opErr("new field", d, ErrShapeMismatch, "duplicate dimension")
		}
		seen[d] = true
	}
	for d, c := range f.Coords {
		i := f.index(d)
		if i < 0 {
			return opErr("new field", d, ErrMissingDim, "coordinate for a dimension the field does not have")
		}
		if len(c) != f.Data.Shape[i] {
			return opErr("new field", d, ErrShapeMismatch, "coordinate length %d != dimension length %d",
				len(c), f.Data.Shape[i])
		}
	}
	return nil
}

func (f Field) index(dim string) int {
	for i, d := range f.Dims {
		if d == dim {
			return i
		}
	}
	return -1
}

// Axis returns the storage index of dim.
func (f Field) Axis(dim string) (int, error) {
	i := f.index(dim)
	if i < 0 {
		return -1, opErr("axis", dim, ErrMissingDim, "field %q has dimensions %v", f.Name, f.Dims)
	}
	return i, nil
}

// HasDim returns whether f has dimension dim.
func (f Field) HasDim(dim string) bool { return f.index(dim) >= 0 }

// Len returns the length of f along dim, or 0 if f does not have dim.
func (f Field) Len(dim string) int {
	i := f.index(dim)
	if i < 0 {
		return 0
	}
	return f.Data.Shape[i]
}

// Shape returns a copy of the shape of f.
func (f Field) Shape() []int {
	return append([]int(nil), f.Data.Shape...)
}

// Values returns the underlying elements. The returned slice must not be
// modified.
func (f Field) Values() []float64 { return f.Data.Elements }

// Coord returns the coordinate values along dim. If f does not carry
// coordinate values for dim, grid indices are returned.
func (f Field) Coord(dim string) []float64 {
	if c, ok := f.Coords[dim]; ok {
		return c
	}
	n := f.Len(dim)
	c := make([]float64, n)
	for i := range c {
		c[i] = float64(i)
	}
	return c
}

// CoordField returns the coordinate along dim as a one-dimensional field.
func (f Field) CoordField(dim string) (Field, error) {
	if _, err := f.Axis(dim); err != nil {
		return Field{}, err
	}
	c := f.Coord(dim)
	o, err := NewField1D(dim, dim, c, c)
	if err != nil {
		return Field{}, err
	}
	return o, nil
}

// WithCoord returns a copy of f with the coordinate along dim set to values.
func (f Field) WithCoord(dim string, values []float64) (Field, error) {
	i, err := f.Axis(dim)
	if err != nil {
		return Field{}, err
	}
	if len(values) != f.Data.Shape[i] {
		return Field{}, opErr("set coordinate", dim, ErrShapeMismatch,
			"coordinate length %d != dimension length %d", len(values), f.Data.Shape[i])
	}
	o := f.shallow()
	o.Coords[dim] = values
	return o, nil
}

// Rename returns a copy of f with dimension oldDim renamed to newDim.
func (f Field) Rename(oldDim, newDim string) (Field, error) {
	i, err := f.Axis(oldDim)
	if err != nil {
		return Field{}, err
	}
	if oldDim == newDim {
		return f, nil
	}
	if f.HasDim(newDim) {
		return Field{}, opErr("rename", newDim, ErrShapeMismatch, "field already has this dimension")
	}
	o := f.shallow()
	o.Dims[i] = newDim
	if c, ok := o.Coords[oldDim]; ok {
		delete(o.Coords, oldDim)
		o.Coords[newDim] = c
	}
	return o, nil
}

// shallow returns a copy of f with new Dims and Coords containers
// that share their contents with f.
func (f Field) shallow() Field {
	o := f
	o.Dims = append([]string(nil), f.Dims...)
	o.Coords = make(map[string][]float64, len(f.Coords))
	for k, v := range f.Coords {
		o.Coords[k] = v
	}
	return o
}

// like returns a field with the metadata of f and new data.
func (f Field) like(data *sparse.DenseArray) Field {
	o := f.shallow()
	o.Data = data
	return o
}

// Copy returns a deep copy of f.
func (f Field) Copy() Field {
	o := f.shallow()
	for k, v := range o.Coords {
		o.Coords[k] = append([]float64(nil), v...)
	}
	o.Data = sparse.ZerosDense(f.Shape()...)
	copy(o.Data.Elements, f.Data.Elements)
	return o
}

// stride returns the number of lanes before and after axis and the
// length of axis.
func stride(shape []int, axis int) (outer, n, inner int) {
	outer, inner = 1, 1
	for i := 0; i < axis; i++ {
		outer *= shape[i]
	}
	for i := axis + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[axis], inner
}

// Slice returns the portion of f with index in [start, end) along dim.
func (f Field) Slice(dim string, start, end int) (Field, error) {
	axis, err := f.Axis(dim)
	if err != nil {
		return Field{}, err
	}
	outer, n, inner := stride(f.Data.Shape, axis)
	if start < 0 || end > n || start > end {
		return Field{}, opErr("slice", dim, ErrInsufficientLength, "range [%d, %d) is outside of [0, %d)", start, end, n)
	}
	shape := f.Shape()
	shape[axis] = end - start
	data := sparse.ZerosDense(shape...)
	m := end - start
	for o := 0; o < outer; o++ {
		copy(data.Elements[o*m*inner:(o+1)*m*inner], f.Data.Elements[(o*n+start)*inner:(o*n+end)*inner])
	}
	out := f.like(data)
	if c, ok := f.Coords[dim]; ok {
		out.Coords[dim] = c[start:end]
	}
	return out, nil
}

// Reverse returns f with the order of dim reversed.
func (f Field) Reverse(dim string) (Field, error) {
	axis, err := f.Axis(dim)
	if err != nil {
		return Field{}, err
	}
	outer, n, inner := stride(f.Data.Shape, axis)
	data := sparse.ZerosDense(f.Shape()...)
	for o := 0; o < outer; o++ {
		for i := 0; i < n; i++ {
			dst := (o*n + i) * inner
			src := (o*n + n - 1 - i) * inner
			copy(data.Elements[dst:dst+inner], f.Data.Elements[src:src+inner])
		}
	}
	out := f.like(data)
	if c, ok := f.Coords[dim]; ok {
		r := make([]float64, len(c))
		for i, v := range c {
			r[len(c)-1-i] = v
		}
		out.Coords[dim] = r
	}
	return out, nil
}

// Concat joins fields along dim. All fields must have the same dimensions
// in the same order, and the same lengths along all dimensions except dim.
// The coordinate along dim is joined only if all fields carry one.
// Metadata is taken from the first field.
func Concat(dim string, fields ...Field) (Field, error) {
	if len(fields) == 0 {
		return Field{}, opErr("concatenate", dim, ErrShapeMismatch, "no fields")
	}
	first := fields[0]
	axis, err := first.Axis(dim)
	if err != nil {
		return Field{}, err
	}
	total := 0
	haveCoord := true
	for _, g := range fields {
		if len(g.Dims) != len(first.Dims) {
			return Field{}, opErr("concatenate", dim, ErrShapeMismatch, "dimensions %v != %v", g.Dims, first.Dims)
		}
		for i, d := range g.Dims {
			if d != first.Dims[i] {
				return Field{}, opErr("concatenate", dim, ErrShapeMismatch, "dimensions %v != %v", g.Dims, first.Dims)
			}
			if i != axis && g.Data.Shape[i] != first.Data.Shape[i] {
				return Field{}, opErr("concatenate", dim, ErrShapeMismatch, "shape %v != %v", g.Data.Shape, first.Data.Shape)
			}
		}
		total += g.Data.Shape[axis]
		if _, ok := g.Coords[dim]; !ok {
			haveCoord = false
		}
	}
	shape := first.Shape()
	shape[axis] = total
	data := sparse.ZerosDense(shape...)
	outer, _, inner := stride(shape, axis)
	for o := 0; o < outer; o++ {
		pos := o * total * inner
		for _, g := range fields {
			m := g.Data.Shape[axis]
			copy(data.Elements[pos:pos+m*inner], g.Data.Elements[o*m*inner:(o+1)*m*inner])
			pos += m * inner
		}
	}
	out := first.like(data)
	delete(out.Coords, dim)
	if haveCoord {
		c := make([]float64, 0, total)
		for _, g := range fields {
			c = append(c, g.Coords[dim]...)
		}
		out.Coords[dim] = c
	}
	return out, nil
}

// Apply returns a new field with fn applied to every element of f.
func (f Field) Apply(fn func(float64) float64) Field {
	data := sparse.ZerosDense(f.Shape()...)
	for i, v := range f.Data.Elements {
		data.Elements[i] = fn(v)
	}
	return f.like(data)
}

// Scale returns f multiplied by c.
func (f Field) Scale(c float64) Field {
	data := sparse.ZerosDense(f.Shape()...)
	copy(data.Elements, f.Data.Elements)
	floats.Scale(c, data.Elements)
	return f.like(data)
}

// Add returns f + g. See Broadcast for the rules for combining fields
// with different dimensions.
func (f Field) Add(g Field) (Field, error) {
	return binary("add", f, g, func(dst, a, b []float64) { floats.AddTo(dst, a, b) })
}

// Sub returns f - g.
func (f Field) Sub(g Field) (Field, error) {
	return binary("subtract", f, g, func(dst, a, b []float64) { floats.SubTo(dst, a, b) })
}

// Mul returns f * g.
func (f Field) Mul(g Field) (Field, error) {
	return binary("multiply", f, g, func(dst, a, b []float64) { floats.MulTo(dst, a, b) })
}

// Div returns f / g.
func (f Field) Div(g Field) (Field, error) {
	return binary("divide", f, g, func(dst, a, b []float64) { floats.DivTo(dst, a, b) })
}

// binary combines f and g elementwise. The field with fewer dimensions is
// broadcast to the other, which also supplies the output metadata.
func binary(op string, f, g Field, fn func(dst, a, b []float64)) (Field, error) {
	big, small := f, g
	swapped := false
	if len(g.Dims) > len(f.Dims) {
		big, small = g, f
		swapped = true
	}
	sb, err := small.BroadcastLike(big)
	if err != nil {
		return Field{}, opErr(op, "", ErrShapeMismatch, "%v", err)
	}
	data := sparse.ZerosDense(big.Shape()...)
	if swapped {
		fn(data.Elements, sb.Data.Elements, big.Data.Elements)
	} else {
		fn(data.Elements, big.Data.Elements, sb.Data.Elements)
	}
	return big.like(data), nil
}

// BroadcastLike expands f to the dimensions, shape, and coordinates of g.
// Every dimension of f must be a dimension of g with the same length.
func (f Field) BroadcastLike(g Field) (Field, error) {
	return f.Broadcast(g.Dims, g.Data.Shape, g.Coords)
}

// Broadcast expands f to a field with dimensions dims and the given shape,
// repeating values along dimensions that f does not have. The dimensions of
// f may appear in any order in dims. coords supplies coordinates for the
// new dimensions and may be nil.
func (f Field) Broadcast(dims []string, shape []int, coords map[string][]float64) (Field, error) {
	if len(dims) != len(shape) {
		return Field{}, opErr("broadcast", "", ErrShapeMismatch, "%d dimensions with shape %v", len(dims), shape)
	}
	// srcStride[i] is the element stride in f of output dimension i.
	srcStride := make([]int, len(dims))
	same := len(dims) == len(f.Dims)
	found := 0
	for i, d := range dims {
		j := f.index(d)
		if j < 0 {
			continue
		}
		found++
		if f.Data.Shape[j] != shape[i] {
			return Field{}, opErr("broadcast", d, ErrShapeMismatch, "length %d != %d", f.Data.Shape[j], shape[i])
		}
		if j != i {
			same = false
		}
		s := 1
		for k := j + 1; k < len(f.Dims); k++ {
			s *= f.Data.Shape[k]
		}
		srcStride[i] = s
	}
	if found != len(f.Dims) {
		return Field{}, opErr("broadcast", "", ErrShapeMismatch, "dimensions %v are not a subset of %v", f.Dims, dims)
	}
	if same {
		return f, nil
	}
	data := sparse.ZerosDense(append([]int(nil), shape...)...)
	idx := make([]int, len(shape))
	src := 0
	for i := range data.Elements {
		data.Elements[i] = f.Data.Elements[src]
		// Advance the odometer.
		for k := len(idx) - 1; k >= 0; k-- {
			idx[k]++
			src += srcStride[k]
			if idx[k] < shape[k] {
				break
			}
			src -= srcStride[k] * idx[k]
			idx[k] = 0
		}
	}
	out := f.shallow()
	out.Dims = append([]string(nil), dims...)
	out.Data = data
	for d, c := range coords {
		if _, ok := out.Coords[d]; !ok {
			out.Coords[d] = c
		}
	}
	return out, nil
}

// Lane returns the values of f along dim at the position given by the
// indices of the other dimensions, in the order they appear in f.Dims
// with dim skipped.
func (f Field) Lane(dim string, at ...int) ([]float64, error) {
	axis, err := f.Axis(dim)
	if err != nil {
		return nil, err
	}
	if len(at) != len(f.Dims)-1 {
		return nil, opErr("lane", dim, ErrShapeMismatch, "need %d indices but have %d", len(f.Dims)-1, len(at))
	}
	index := make([]int, len(f.Dims))
	for i, j := 0, 0; i < len(f.Dims); i++ {
		if i == axis {
			continue
		}
		index[i] = at[j]
		j++
	}
	for i, v := range index {
		if v < 0 || v >= f.Data.Shape[i] {
			return nil, opErr("lane", dim, ErrShapeMismatch, "index %d is outside of dimension %q with length %d",
				v, f.Dims[i], f.Data.Shape[i])
		}
	}
	_, n, inner := stride(f.Data.Shape, axis)
	start := f.Data.Index1d(index...)
	o := make([]float64, n)
	for i := range o {
		o[i] = f.Data.Elements[start+i*inner]
	}
	return o, nil
}

// Max returns the maximum value in f.
func (f Field) Max() float64 { return floats.Max(f.Data.Elements) }

// Min returns the minimum value in f.
func (f Field) Min() float64 { return floats.Min(f.Data.Elements) }

// AbsMax returns the maximum absolute value in f.
func (f Field) AbsMax() float64 { return f.Data.AbsMax() }

func (f Field) String() string {
	return fmt.Sprintf("Field(%s %v %v)", f.Name, f.Dims, f.Data.Shape)
}
