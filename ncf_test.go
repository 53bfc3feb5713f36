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
	"io/ioutil"
	"os"
	"testing"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

func testDataset(t *testing.T) *Dataset {
	temp := field2D(t, 3, 4, func(j, i int) float64 { return float64(100*j + i) })
	temp.Name, temp.Units, temp.Description = "T", "K", "temperature"
	ps, err := NewField1D("ps", "y", []float64{1000, 990, 980}, []float64{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	ps.Units = "hPa"
	d, err := NewDataset(temp, ps)
	if err != nil {
		t.Fatal(err)
	}
	d.Comment = "test data"
	return d
}

func TestDatasetAdd(t *testing.T) {
	d := testDataset(t)
	bad, err := NewField1D("bad", "y", []float64{1, 2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Add(bad); err == nil {
		t.Error("expected a shape mismatch")
	}
	if _, err := d.Get("missing"); err == nil {
		t.Error("expected an error for a missing variable")
	}
	if want := []string{"T", "ps"}; len(d.Names()) != 2 || d.Names()[0] != want[0] || d.Names()[1] != want[1] {
		t.Errorf("names %v, want %v", d.Names(), want)
	}
}

func TestDatasetNetCDF(t *testing.T) {
	d := testDataset(t)
	f, err := ioutil.TempFile("", "indiff_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	if err := d.Write(f); err != nil {
		t.Fatal(err)
	}
	f.Close()

	f, err = os.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	d2, err := LoadDataset(f)
	if err != nil {
		t.Fatal(err)
	}
	if d2.Comment != d.Comment {
		t.Errorf("comment %q != %q", d2.Comment, d.Comment)
	}
	// The coordinates are written as variables.
	if want := []string{"T", "ps", "x", "y"}; len(d2.Names()) != len(want) {
		t.Fatalf("names %v, want %v", d2.Names(), want)
	}
	for _, name := range []string{"T", "ps"} {
		want, have := d.Fields[name], d2.Fields[name]
		t.Run(name, func(t *testing.T) {
			if !equalShape(have.Shape(), want.Shape()) {
				t.Fatalf("shape %v != %v", have.Shape(), want.Shape())
			}
			if !floats.Equal(have.Values(), want.Values()) {
				t.Errorf("values %v != %v", have.Values(), want.Values())
			}
			if have.Units != want.Units || have.Description != want.Description {
				t.Errorf("attributes (%q, %q) != (%q, %q)", have.Units, have.Description, want.Units, want.Description)
			}
			for i, dim := range want.Dims {
				if have.Dims[i] != dim {
					t.Errorf("dims %v != %v", have.Dims, want.Dims)
				}
				if !floats.Equal(have.Coord(dim), want.Coord(dim)) {
					t.Errorf("%s coordinate %v != %v", dim, have.Coord(dim), want.Coord(dim))
				}
			}
		})
	}

	// The loaded data can be differentiated with its own coordinates.
	dT, err := DerivOwnCoord(Centered, d2.Fields["T"], "y", DefaultConfig().WithFill(true))
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range dT.Values() {
		if different(v, 100, testTolerance) {
			t.Errorf("%d: %g != 100", i, v)
		}
	}
}

func TestDatasetWriteScalar(t *testing.T) {
	d, err := NewDataset(Field{Name: "s", Data: sparse.ZerosDense()})
	if err != nil {
		t.Fatal(err)
	}
	f, err := ioutil.TempFile("", "indiff_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	defer f.Close()
	if err := d.Write(f); err == nil {
		t.Error("expected an error for a scalar variable")
	}
}
