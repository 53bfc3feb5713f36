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
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestWraparound(t *testing.T) {
	x := arange(0, 1, 5)
	f := field1D(t, x, x)
	w, err := Wraparound(f, "x", 2, 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{2, 3, 4, 0, 1, 2, 3, 4, 0, 1}; !floats.Equal(w.Values(), want) {
		t.Errorf("values: have %v, want %v", w.Values(), want)
	}
	if want := []float64{-8, -7, -6, 0, 1, 2, 3, 4, 10, 11}; !floats.Equal(w.Coord("x"), want) {
		t.Errorf("coord: have %v, want %v", w.Coord("x"), want)
	}
	if w.Name != f.Name {
		t.Errorf("name %q != %q", w.Name, f.Name)
	}

	u, err := Unwrap(w, "x", 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(u.Values(), f.Values()) || !floats.Equal(u.Coord("x"), f.Coord("x")) {
		t.Errorf("round trip: have %v at %v", u.Values(), u.Coord("x"))
	}
	if !floats.Equal(f.Coord("x"), x) {
		t.Errorf("input coordinate was modified: %v", f.Coord("x"))
	}

	same, err := Wraparound(f, "x", 0, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(same.Values(), f.Values()) {
		t.Errorf("no wrapping: %v", same.Values())
	}
}

func TestWraparound2D(t *testing.T) {
	f := field2D(t, 3, 4, func(j, i int) float64 { return float64(10*j + i) })
	w, err := Wraparound(f, "x", 1, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{3, 6}; !equalShape(w.Shape(), want) {
		t.Fatalf("shape %v, want %v", w.Shape(), want)
	}
	for j := 0; j < 3; j++ {
		lane, err := w.Lane("x", j)
		if err != nil {
			t.Fatal(err)
		}
		b := float64(10 * j)
		if want := []float64{b + 3, b, b + 1, b + 2, b + 3, b}; !floats.Equal(lane, want) {
			t.Errorf("row %d: have %v, want %v", j, lane, want)
		}
	}
	if !floats.Equal(w.Coord("y"), f.Coord("y")) {
		t.Errorf("y coordinate changed: %v", w.Coord("y"))
	}
}

func TestWraparoundCoord(t *testing.T) {
	x := arange(0, 90, 4)
	c := field1D(t, x, x)
	w, err := WraparoundCoord(c, "x", 1, 2, 360)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{-180, -90, 0, 90, 180, 270, 360}
	if !floats.Equal(w.Values(), want) {
		t.Errorf("values: have %v, want %v", w.Values(), want)
	}
	if !floats.Equal(w.Coord("x"), want) {
		t.Errorf("coord: have %v, want %v", w.Coord("x"), want)
	}
	if !floats.Equal(c.Values(), x) {
		t.Errorf("input was modified: %v", c.Values())
	}
}

// A derivative of wrapped data has no edge effects: the points next to
// the edges see neighbors from the other side of the domain.
func TestWraparoundDeriv(t *testing.T) {
	const n = 36
	h := 2 * math.Pi / n
	x := arange(0, h, n)
	v := make([]float64, n)
	for i, xi := range x {
		v[i] = math.Sin(xi)
	}
	f := field1D(t, v, x)
	cfg := DefaultConfig()
	wf, err := Wraparound(f, "x", 1, 1, 2*math.Pi)
	if err != nil {
		t.Fatal(err)
	}
	d, err := DerivOwnCoord(Centered, wf, "x", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if d.Len("x") != n {
		t.Fatalf("length %d, want %d", d.Len("x"), n)
	}
	if want := (v[1] - v[n-1]) / (2 * h); different(d.Values()[0], want, 1.e-12) {
		t.Errorf("left edge: %g != %g", d.Values()[0], want)
	}
	if want := (v[0] - v[n-2]) / (2 * h); different(d.Values()[n-1], want, 1.e-12) {
		t.Errorf("right edge: %g != %g", d.Values()[n-1], want)
	}
	for i, xi := range d.Coord("x") {
		if math.Abs(d.Values()[i]-math.Cos(xi)) > 0.01 {
			t.Errorf("%d: %g != cos(%g)", i, d.Values()[i], xi)
		}
	}
}

func TestWraparoundErrors(t *testing.T) {
	f := field1D(t, arange(0, 1, 5), nil)
	if _, err := Wraparound(f, "x", -1, 0, 10); !errors.Is(err, ErrInvalidSpacing) {
		t.Errorf("negative count: %v", err)
	}
	if _, err := Wraparound(f, "x", 0, 6, 10); !errors.Is(err, ErrInsufficientLength) {
		t.Errorf("count > length: %v", err)
	}
	if _, err := Wraparound(f, "y", 1, 1, 10); !errors.Is(err, ErrMissingDim) {
		t.Errorf("missing dimension: %v", err)
	}
}
