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
	"errors"
	"math"
	"testing"

	"github.com/ctessum/unit"
	"github.com/spatialmodel/indiff"
	"gonum.org/v1/gonum/floats"
)

const testTolerance = 1.e-10

const radius = 6370997.

func field1D(t *testing.T, name, dim string, v []float64) indiff.Field {
	f, err := indiff.NewField1D(name, dim, v, v)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestBaseNotImplemented(t *testing.T) {
	b, err := NewBase(field1D(t, "x", "x", []float64{0, 1, 2}), "")
	if err != nil {
		t.Fatal(err)
	}
	if b.Dim() != "x" {
		t.Errorf("dim = %q", b.Dim())
	}
	if _, err := b.DerivPrefactor(Metric{}); !errors.Is(err, indiff.ErrNotImplemented) {
		t.Errorf("prefactor error = %v", err)
	}
	if _, err := b.DerivFactor(Metric{}); !errors.Is(err, indiff.ErrNotImplemented) {
		t.Errorf("factor error = %v", err)
	}
	if _, err := NewBase(field1D(t, "x", "x", []float64{0, 1}), "y"); !errors.Is(err, indiff.ErrMissingDim) {
		t.Errorf("missing dim error = %v", err)
	}
}

func TestCartesian(t *testing.T) {
	x := field1D(t, "x", "x", []float64{0, 1, 2, 3})
	xc, err := NewX(x, "x", 0)
	if err != nil {
		t.Fatal(err)
	}
	yc, err := NewY(x, "x", 4)
	if err != nil {
		t.Fatal(err)
	}
	zc, err := NewZ(x, "x")
	if err != nil {
		t.Fatal(err)
	}
	pc, err := NewPressure(x, "x")
	if err != nil {
		t.Fatal(err)
	}
	sc, err := NewSigma(x, "x")
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []Coordinate{xc, yc, zc, pc, sc} {
		p, err := c.DerivPrefactor(Metric{})
		if err != nil {
			t.Fatal(err)
		}
		f, err := c.DerivFactor(Metric{})
		if err != nil {
			t.Fatal(err)
		}
		if p.Values()[0] != 1 || f.Values()[0] != 1 {
			t.Errorf("%T: prefactor %v, factor %v; want 1, 1", c, p.Values(), f.Values())
		}
	}
	if xc.Cyclic() || !yc.Cyclic() || yc.Circumference() != 4 {
		t.Errorf("cyclic settings: x %v, y %v %g", xc.Cyclic(), yc.Cyclic(), yc.Circumference())
	}
	if _, err := NewX(x, "x", -1); err == nil {
		t.Error("negative circumference should fail")
	}
}

func TestSigmaPressure(t *testing.T) {
	s, err := NewSigma(field1D(t, "sigma", "sigma", []float64{0.1, 0.5, 1}), "")
	if err != nil {
		t.Fatal(err)
	}
	p, err := s.Pressure(indiff.Scalar(1000))
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(p.Values(), []float64{100, 500, 1000}, testTolerance) {
		t.Errorf("pressure = %v", p.Values())
	}
}

func TestLon(t *testing.T) {
	lon, err := NewLon(field1D(t, "lon", "lon", []float64{0, 90, 180, 270}), "", radius, true)
	if err != nil {
		t.Fatal(err)
	}
	if !lon.Cyclic() || lon.Circumference() != 2*math.Pi {
		t.Errorf("cyclic %v, circumference %g", lon.Cyclic(), lon.Circumference())
	}
	if v := lon.Field().Values(); !floats.EqualApprox(v, []float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2}, testTolerance) {
		t.Errorf("longitude not converted to radians: %v", v)
	}
	lat := field1D(t, "lat", "lat", []float64{0, 60})
	p, err := lon.DerivPrefactor(Metric{Lat: lat})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2}
	if have := p.Scale(radius).Values(); !floats.EqualApprox(have, want, testTolerance) {
		t.Errorf("prefactor*R = %v; want %v", have, want)
	}
	if _, err := lon.DerivPrefactor(Metric{}); err != ErrMissingLatitude {
		t.Errorf("missing latitude error = %v", err)
	}
	f, err := lon.DerivFactor(Metric{Lat: lat})
	if err != nil {
		t.Fatal(err)
	}
	if f.Values()[0] != 1 {
		t.Errorf("factor = %v", f.Values())
	}
	if _, err := NewLon(lat, "", 0, true); err == nil {
		t.Error("zero radius should fail")
	}
}

func TestLat(t *testing.T) {
	lat, err := NewLat(field1D(t, "lat", "lat", []float64{-60, 0, 60}), "", radius, false)
	if err != nil {
		t.Fatal(err)
	}
	if lat.Cyclic() {
		t.Error("latitude should not be cyclic")
	}
	for _, oper := range []string{"", "grad"} {
		p, err := lat.DerivPrefactor(Metric{Oper: oper})
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(p.Values()[0]-1/radius) > 1.e-20 {
			t.Errorf("%q prefactor = %v", oper, p.Values())
		}
	}
	p, err := lat.DerivPrefactor(Metric{Oper: "divg"})
	if err != nil {
		t.Fatal(err)
	}
	if have := p.Scale(radius).Values(); !floats.EqualApprox(have, []float64{2, 1, 2}, testTolerance) {
		t.Errorf("divg prefactor*R = %v", have)
	}
	f, err := lat.DerivFactor(Metric{Oper: "divg"})
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(f.Values(), []float64{0.5, 1, 0.5}, testTolerance) {
		t.Errorf("divg factor = %v", f.Values())
	}
	if _, err := lat.DerivPrefactor(Metric{Oper: "curl"}); !errors.Is(err, indiff.ErrInvalidOperatorMode) {
		t.Errorf("prefactor error = %v", err)
	}
	if _, err := lat.DerivFactor(Metric{Oper: "curl"}); !errors.Is(err, indiff.ErrInvalidOperatorMode) {
		t.Errorf("factor error = %v", err)
	}
	if _, err := NewLat(lat.Field(), "", radius, true); err != ErrCyclicLatitude {
		t.Errorf("cyclic latitude error = %v", err)
	}
}

func TestToRadians(t *testing.T) {
	small := []float64{0, 0.5, 1}
	tests := []struct {
		name    string
		units   string
		values  []float64
		isDelta bool
		want    []float64
	}{
		{name: "units", units: "degrees_north", values: small, want: []float64{0, 0.5 * math.Pi / 180, math.Pi / 180}},
		{name: "magnitude", values: []float64{0, 90, 360}, want: []float64{0, math.Pi / 2, 2 * math.Pi}},
		{name: "radians", units: "radians", values: small, want: small},
		{name: "delta", values: small, isDelta: true, want: []float64{0, 0.5 * math.Pi / 180, math.Pi / 180}},
		{name: "small delta", values: []float64{0.01, 0.02}, isDelta: true, want: []float64{0.01, 0.02}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := field1D(t, "angle", "x", test.values)
			f.Units = test.units
			r := ToRadians(f, test.isDelta)
			if !floats.EqualApprox(r.Values(), test.want, testTolerance) {
				t.Errorf("have %v, want %v", r.Values(), test.want)
			}
			if !floats.Equal(f.Values(), test.values) {
				t.Error("input was modified")
			}
		})
	}
}

func TestRadiusMeters(t *testing.T) {
	r, err := RadiusMeters(EarthRadius)
	if err != nil {
		t.Fatal(err)
	}
	if r != radius {
		t.Errorf("radius = %g", r)
	}
	if _, err := RadiusMeters(unit.New(1, unit.Kilogram)); err == nil {
		t.Error("mass should not be accepted as a radius")
	}
	if _, err := RadiusMeters(unit.New(-1, unit.Meter)); err == nil {
		t.Error("negative radius should not be accepted")
	}
}
