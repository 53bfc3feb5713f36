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
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Dataset is a collection of named fields that share dimensions, as read
// from or written to a netCDF file.
type Dataset struct {
	// Fields holds the variables by name.
	Fields map[string]Field

	// Comment is stored as the global "comment" attribute.
	Comment string
}

// NewDataset returns a dataset holding fields.
func NewDataset(fields ...Field) (*Dataset, error) {
	d := &Dataset{Fields: make(map[string]Field)}
	for _, f := range fields {
		if err := d.Add(f); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Add adds f to the dataset, replacing any field with the same name.
// The lengths of f's dimensions must match those of the fields already
// present.
func (d *Dataset) Add(f Field) error {
	if f.Name == "" {
		return &OpError{Op: "add to dataset", Err: ErrShapeMismatch, Detail: "field has no name"}
	}
	lengths := d.dimLengths(f.Name)
	for i, dim := range f.Dims {
		if n, ok := lengths[dim]; ok && n != f.Data.Shape[i] {
			return opErr("add to dataset", dim, ErrShapeMismatch,
				"field %q has length %d but the dataset has length %d", f.Name, f.Data.Shape[i], n)
		}
	}
	if d.Fields == nil {
		d.Fields = make(map[string]Field)
	}
	d.Fields[f.Name] = f
	return nil
}

// Get returns the field called name.
func (d *Dataset) Get(name string) (Field, error) {
	f, ok := d.Fields[name]
	if !ok {
		return Field{}, &OpError{Op: "get from dataset", Err: ErrMissingDim,
			Detail: fmt.Sprintf("no variable %q; have %v", name, d.Names())}
	}
	return f, nil
}

// Names returns the sorted names of the fields in d.
func (d *Dataset) Names() []string {
	names := make([]string, 0, len(d.Fields))
	for n := range d.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// dimLengths returns the length of every dimension in d, skipping the
// field called skip.
func (d *Dataset) dimLengths(skip string) map[string]int {
	o := make(map[string]int)
	for name, f := range d.Fields {
		if name == skip {
			continue
		}
		for i, dim := range f.Dims {
			o[dim] = f.Data.Shape[i]
		}
	}
	return o
}

// LoadDataset reads all variables from a netCDF file. One-dimensional
// variables named after their dimension are used as coordinates of the
// other variables. Record (unlimited) variables are skipped.
func LoadDataset(rw cdf.ReaderWriterAt) (*Dataset, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("indiff.LoadDataset: %v", err)
	}
	d := &Dataset{Fields: make(map[string]Field)}
	if c, ok := f.Header.GetAttribute("", "comment").(string); ok {
		d.Comment = c
	}
	for _, v := range f.Header.Variables() {
		if f.Header.IsRecordVariable(v) {
			Log.WithField("variable", v).Warn("indiff: skipping netCDF record variable")
			continue
		}
		dims := f.Header.Dimensions(v)
		lengths := f.Header.Lengths(v)
		data := sparse.ZerosDense(lengths...)
		if err := readNCF(f, v, data); err != nil {
			return nil, fmt.Errorf("indiff.LoadDataset: variable %s: %v", v, err)
		}
		fld := Field{
			Name:   v,
			Dims:   dims,
			Coords: make(map[string][]float64),
			Data:   data,
		}
		if s, ok := f.Header.GetAttribute(v, "units").(string); ok {
			fld.Units = s
		}
		if s, ok := f.Header.GetAttribute(v, "description").(string); ok {
			fld.Description = s
		}
		d.Fields[v] = fld
	}

	// Attach coordinates.
	for name, c := range d.Fields {
		if len(c.Dims) != 1 || c.Dims[0] != name {
			continue
		}
		for _, fld := range d.Fields {
			if fld.HasDim(name) {
				fld.Coords[name] = c.Data.Elements
			}
		}
	}
	return d, nil
}

// readNCF reads variable v into data, converting to float64.
func readNCF(f *cdf.File, v string, data *sparse.DenseArray) error {
	n := len(data.Elements)
	if n == 0 {
		return nil
	}
	buf := f.Header.ZeroValue(v, n)
	r := f.Reader(v, nil, nil)
	if _, err := r.Read(buf); err != nil {
		return err
	}
	switch b := buf.(type) {
	case []float64:
		copy(data.Elements, b)
	case []float32:
		for i, e := range b {
			data.Elements[i] = float64(e)
		}
	case []int32:
		for i, e := range b {
			data.Elements[i] = float64(e)
		}
	case []int16:
		for i, e := range b {
			data.Elements[i] = float64(e)
		}
	case []uint8:
		for i, e := range b {
			data.Elements[i] = float64(e)
		}
	default:
		return fmt.Errorf("unsupported data type %T", buf)
	}
	return nil
}

// Write writes d to netCDF file w. Coordinates that are not already
// variables are written as one-dimensional variables named after their
// dimension.
func (d *Dataset) Write(w *os.File) error {
	fields := make(map[string]Field, len(d.Fields))
	for name, f := range d.Fields {
		if len(f.Dims) == 0 {
			return fmt.Errorf("indiff: variable %s has no dimensions and cannot be written to netcdf", name)
		}
		fields[name] = f
	}
	lengths := make(map[string]int)
	for _, name := range d.Names() {
		f := fields[name]
		for i, dim := range f.Dims {
			if n, ok := lengths[dim]; ok && n != f.Data.Shape[i] {
				return fmt.Errorf("indiff: dimension %s has lengths %d and %d", dim, n, f.Data.Shape[i])
			}
			lengths[dim] = f.Data.Shape[i]
			if c, ok := f.Coords[dim]; ok {
				if _, ok := fields[dim]; !ok {
					cf, err := NewField1D(dim, dim, c, nil)
					if err != nil {
						return err
					}
					fields[dim] = cf
				}
			}
		}
	}

	// Sort the names so they write in the same order every time.
	dims := make([]string, 0, len(lengths))
	for dim := range lengths {
		dims = append(dims, dim)
	}
	sort.Strings(dims)
	dimLengths := make([]int, len(dims))
	for i, dim := range dims {
		dimLengths[i] = lengths[dim]
	}
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)

	h := cdf.NewHeader(dims, dimLengths)
	if d.Comment != "" {
		h.AddAttribute("", "comment", d.Comment)
	}
	for _, name := range names {
		f := fields[name]
		h.AddVariable(name, f.Dims, []float64{0})
		if f.Description != "" {
			h.AddAttribute(name, "description", f.Description)
		}
		if f.Units != "" {
			h.AddAttribute(name, "units", f.Units)
		}
	}
	h.Define()

	ff, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	for _, name := range names {
		if err = writeNCF(ff, name, fields[name].Data); err != nil {
			return fmt.Errorf("indiff: writing variable %s to netcdf file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeNCF(f *cdf.File, v string, data *sparse.DenseArray) error {
	// Check that data matches dimensions.
	n := 1
	for _, l := range data.Shape {
		n *= l
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	end := f.Header.Lengths(v)
	start := make([]int, len(end))
	w := f.Writer(v, start, end)
	_, err := w.Write(data.Elements)
	return err
}
