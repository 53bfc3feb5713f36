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
	"fmt"
	"math"
	"testing"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// derivCase is one combination of derivative settings.
type derivCase struct {
	kind Kind
	cfg  Config
}

func (c derivCase) String() string {
	return fmt.Sprintf("%v_s%d_o%d_%v", c.kind, c.cfg.Spacing, c.cfg.Order, c.cfg.Fill)
}

// derivCases returns all supported combinations of kind, order, fill and
// spacings 1 and 2.
func derivCases() []derivCase {
	var o []derivCase
	for _, k := range []Kind{Forward, Backward, Centered} {
		for _, order := range k.validOrders() {
			for _, fill := range []EdgeFill{Truncate, FillBoth, FillLeft, FillRight} {
				for _, s := range []int{1, 2} {
					o = append(o, derivCase{kind: k, cfg: Config{Spacing: s, Order: order, Fill: fill}})
				}
			}
		}
	}
	return o
}

// wantLen returns the expected output length for an input of length n.
func (c derivCase) wantLen(n int) int {
	w := c.cfg.Spacing * c.cfg.Order
	switch c.kind {
	case Forward:
		if c.cfg.Fill == FillBoth || c.cfg.Fill == FillRight {
			return n
		}
		return n - w
	case Backward:
		if c.cfg.Fill == FillBoth || c.cfg.Fill == FillLeft {
			return n
		}
		return n - w
	}
	switch c.cfg.Fill {
	case FillBoth:
		return n
	case Truncate:
		return n - w
	}
	return n - w/2
}

func TestDerivConcrete(t *testing.T) {
	x := arange(0, 1, 10)
	f := field1D(t, x, x)
	d, err := ForwardDeriv(f, f, "x", DefaultConfig().WithOrder(1))
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1}; !floats.Equal(d.Values(), want) {
		t.Errorf("no fill: %v", d.Values())
	}
	d, err = ForwardDeriv(f, f, "x", DefaultConfig().WithOrder(1).WithFill(true))
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}; !floats.Equal(d.Values(), want) {
		t.Errorf("fill: %v", d.Values())
	}
	if !floats.Equal(d.Coord("x"), x) {
		t.Errorf("coordinate %v", d.Coord("x"))
	}
}

func TestDerivZeroSlope(t *testing.T) {
	const n = 20
	ones := make([]float64, n)
	floats.AddConst(1, ones)
	f := field1D(t, ones, arange(0, 0.5, n))
	for _, c := range derivCases() {
		t.Run(c.String(), func(t *testing.T) {
			d, err := DerivOwnCoord(c.kind, f, "x", c.cfg)
			if err != nil {
				t.Fatal(err)
			}
			if d.AbsMax() != 0 {
				t.Errorf("derivative of a constant: %v", d.Values())
			}
		})
	}
}

func TestDerivConstantSlope(t *testing.T) {
	const n = 20
	x := arange(0, 1, n)
	f := field1D(t, x, x)
	for _, c := range derivCases() {
		t.Run(c.String(), func(t *testing.T) {
			d, err := Deriv(c.kind, f, f, "x", c.cfg)
			if err != nil {
				t.Fatal(err)
			}
			if d.Len("x") != c.wantLen(n) {
				t.Errorf("length %d, want %d", d.Len("x"), c.wantLen(n))
			}
			for i, v := range d.Values() {
				if math.Abs(v-1) > testTolerance {
					t.Errorf("%d: %g", i, v)
				}
			}
			start, end := DerivRange(c.kind, n, c.cfg)
			if !floats.Equal(d.Coord("x"), x[start:end]) {
				t.Errorf("coordinate %v, want %v", d.Coord("x"), x[start:end])
			}
		})
	}
}

func TestDerivScaling(t *testing.T) {
	const n = 16
	x := arange(0, 0.3, n)
	y := make([]float64, n)
	for i, v := range x {
		y[i] = math.Exp(v) * math.Sin(3*v)
	}
	f := field1D(t, y, x)
	for _, c := range derivCases() {
		t.Run(c.String(), func(t *testing.T) {
			d, err := DerivOwnCoord(c.kind, f, "x", c.cfg)
			if err != nil {
				t.Fatal(err)
			}
			d5, err := DerivOwnCoord(c.kind, f.Scale(-5), "x", c.cfg)
			if err != nil {
				t.Fatal(err)
			}
			if !floats.EqualApprox(d5.Values(), d.Scale(-5).Values(), 1.e-10) {
				t.Errorf("have %v, want %v", d5.Values(), d.Scale(-5).Values())
			}
		})
	}
}

// Order 2 one-sided derivatives of x² are exact, and order 1 derivatives
// have an error equal to the grid spacing.
func TestDerivRichardson(t *testing.T) {
	const n, h = 20, 0.1
	x := arange(0, h, n)
	sq := make([]float64, n)
	for i, v := range x {
		sq[i] = v * v
	}
	f := field1D(t, sq, x)
	for _, k := range []Kind{Forward, Backward} {
		maxErr := func(order int) float64 {
			d, err := DerivOwnCoord(k, f, "x", DefaultConfig().WithOrder(order))
			if err != nil {
				t.Fatal(err)
			}
			var e float64
			for i, xi := range d.Coord("x") {
				e = math.Max(e, math.Abs(d.Values()[i]-2*xi))
			}
			return e
		}
		e1, e2 := maxErr(1), maxErr(2)
		if math.Abs(e1-h) > 1.e-10 {
			t.Errorf("%v order 1 error = %g, want %g", k, e1, h)
		}
		if e2 > 1.e-10 || e2 >= e1 {
			t.Errorf("%v order 2 error = %g", k, e2)
		}
	}
}

// The error of each scheme shrinks with the grid spacing at the rate
// given by its order of accuracy.
func TestDerivConvergence(t *testing.T) {
	tests := []struct {
		kind  Kind
		order int
	}{
		{Forward, 1}, {Forward, 2}, {Backward, 1}, {Backward, 2}, {Centered, 2}, {Centered, 4},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v_%d", test.kind, test.order), func(t *testing.T) {
			var logH, logErr []float64
			for _, n := range []int{10, 20, 40, 80} {
				h := 1 / float64(n)
				x := arange(0, h, n+1)
				y := make([]float64, len(x))
				for i, v := range x {
					y[i] = math.Sin(v)
				}
				f := field1D(t, y, x)
				d, err := DerivOwnCoord(test.kind, f, "x", DefaultConfig().WithOrder(test.order))
				if err != nil {
					t.Fatal(err)
				}
				var e float64
				for i, xi := range d.Coord("x") {
					e = math.Max(e, math.Abs(d.Values()[i]-math.Cos(xi)))
				}
				logH = append(logH, math.Log(h))
				logErr = append(logErr, math.Log(e))
			}
			slope, _, rsquared, _, _, _ := stats.LinearRegression(logH, logErr)
			if math.Abs(slope-float64(test.order)) > 0.25 || rsquared < 0.99 {
				t.Errorf("convergence rate %.3f (r² %.4f), want %d", slope, rsquared, test.order)
			}
		})
	}
}

func TestDerivNonuniformCoord(t *testing.T) {
	x := []float64{0, 0.5, 1.5, 3, 5, 7.5, 10.5}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 3*v - 2
	}
	f := field1D(t, y, x)
	for _, k := range []Kind{Forward, Backward, Centered} {
		d, err := DerivOwnCoord(k, f, "x", DefaultConfig().WithFill(true))
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range d.Values() {
			if math.Abs(v-3) > testTolerance {
				t.Errorf("%v %d: %g", k, i, v)
			}
		}
	}
}

// A coordinate can vary along dimensions other than the differencing
// dimension, as pressure does on terrain-following levels.
func TestDerivMultidimensionalCoord(t *testing.T) {
	const ny, nx = 3, 6
	c := field2D(t, ny, nx, func(j, i int) float64 { return float64((j + 1) * i) })
	f := c.Scale(2)
	for _, k := range []Kind{Forward, Backward, Centered} {
		d, err := Deriv(k, f, c, "x", DefaultConfig().WithFill(true))
		if err != nil {
			t.Fatal(err)
		}
		if !equalShape(d.Shape(), f.Shape()) {
			t.Errorf("%v: shape %v", k, d.Shape())
		}
		for i, v := range d.Values() {
			if math.Abs(v-2) > testTolerance {
				t.Errorf("%v %d: %g", k, i, v)
			}
		}
	}
	// A one-dimensional coordinate is broadcast along the other dimensions.
	x, err := NewField1D("x", "x", arange(0, 0.5, nx), nil)
	if err != nil {
		t.Fatal(err)
	}
	d, err := CenteredDeriv(f, x, "x", DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{ny, nx - 2}; !equalShape(d.Shape(), want) {
		t.Errorf("shape %v != %v", d.Shape(), want)
	}
}

func TestDerivErrors(t *testing.T) {
	f := field1D(t, arange(0, 1, 5), nil)
	tests := []struct {
		name string
		kind Kind
		cfg  Config
		want error
	}{
		{"order 3 forward", Forward, Config{Spacing: 1, Order: 3}, ErrUnsupportedOrder},
		{"order 1 centered", Centered, Config{Spacing: 1, Order: 1}, ErrUnsupportedOrder},
		{"order 4 backward", Backward, Config{Spacing: 1, Order: 4}, ErrUnsupportedOrder},
		{"zero spacing", Forward, Config{}, ErrInvalidSpacing},
		{"too short", Centered, Config{Spacing: 1, Order: 4, Fill: FillBoth}, nil},
		{"too short spacing 2", Centered, Config{Spacing: 2, Order: 4}, ErrInsufficientLength},
		{"too short fill", Forward, Config{Spacing: 2, Order: 2, Fill: FillBoth}, ErrInsufficientLength},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d, err := DerivOwnCoord(test.kind, f, "x", test.cfg)
			if !errors.Is(err, test.want) {
				t.Errorf("error %v, want %v", err, test.want)
			}
			if err != nil && d.Data != nil {
				t.Error("partial result returned with error")
			}
		})
	}

	other, err := NewField1D("c", "y", arange(0, 1, 5), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ForwardDeriv(f, other, "x", DefaultConfig()); !errors.Is(err, ErrMissingDim) {
		t.Errorf("coordinate without dim: %v", err)
	}
	short, err := NewField1D("c", "x", arange(0, 1, 4), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ForwardDeriv(f, short, "x", DefaultConfig()); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("short coordinate: %v", err)
	}
	if err := (Config{Spacing: 1, Order: 3}).Validate(Centered); !errors.Is(err, ErrUnsupportedOrder) {
		t.Errorf("validate: %v", err)
	}
}

func TestParse(t *testing.T) {
	for s, want := range map[string]Kind{"fwd": Forward, "Backward": Backward, "centered": Centered} {
		k, err := ParseKind(s)
		if err != nil || k != want {
			t.Errorf("ParseKind(%q) = %v, %v", s, k, err)
		}
	}
	if _, err := ParseKind("sideways"); !errors.Is(err, ErrInvalidOperatorMode) {
		t.Errorf("bad kind: %v", err)
	}
	for s, want := range map[string]EdgeFill{"": Truncate, "true": FillBoth, "left": FillLeft, "RIGHT": FillRight} {
		e, err := ParseEdgeFill(s)
		if err != nil || e != want {
			t.Errorf("ParseEdgeFill(%q) = %v, %v", s, e, err)
		}
	}
	if _, err := ParseEdgeFill("up"); !errors.Is(err, ErrInvalidOperatorMode) {
		t.Errorf("bad fill: %v", err)
	}
}

var benchField Field

func BenchmarkCenteredDeriv(b *testing.B) {
	const ny, nx = 200, 300
	data := sparse.ZerosDense(ny, nx)
	for i := range data.Elements {
		data.Elements[i] = math.Sin(float64(i))
	}
	f, err := NewField("f", []string{"y", "x"}, data, nil)
	if err != nil {
		b.Fatal(err)
	}
	cfg := DefaultConfig().WithOrder(4).WithFill(true)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchField, err = DerivOwnCoord(Centered, f, "y", cfg)
		if err != nil {
			b.Fatal(err)
		}
	}
}
