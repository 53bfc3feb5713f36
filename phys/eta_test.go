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

package phys

import (
	"math"
	"testing"

	"github.com/spatialmodel/indiff"
	"github.com/spatialmodel/indiff/coord"
)

func testEta(t *testing.T) *coord.Eta {
	pk, err := indiff.NewField1D("pk", "phalf", []float64{100, 2000, 5000, 9000, 12000, 10000, 6000, 2000, 0}, nil)
	if err != nil {
		t.Fatal(err)
	}
	bk, err := indiff.NewField1D("bk", "phalf", []float64{0, 0, 0, 0.05, 0.15, 0.35, 0.6, 0.85, 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	e, err := coord.NewEta(pk, bk, "phalf", "pfull")
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestEtaDeriv(t *testing.T) {
	e := testEta(t)
	lon := grid(0, 10, 4)
	ps := newField(t, "ps", []string{"lon"}, [][]float64{lon}, func(x []float64) float64 {
		return 100000 - 10*x[0]
	})
	p, err := e.PfullFromPs(ps)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []indiff.Kind{indiff.Forward, indiff.Backward, indiff.Centered} {
		cfg := indiff.DefaultConfig()
		if k == indiff.Centered {
			cfg = cfg.WithOrder(4)
		}
		d, err := EtaDeriv(e, k, p.Scale(3), ps, cfg)
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range d.Values() {
			if math.Abs(v-3) > 1.e-9 {
				t.Errorf("%v %d: %g", k, i, v)
			}
		}
	}

	omega := p.Apply(func(float64) float64 { return 2 })
	a, err := EtaAdvect(e, p.Scale(3), omega, ps, indiff.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if n := a.Len("pfull"); n != 8-4 {
		t.Errorf("length %d", n)
	}
	for i, v := range a.Values() {
		if math.Abs(v-6) > 1.e-9 {
			t.Errorf("advection %d: %g", i, v)
		}
	}
}

func testSphereEta(t *testing.T) (SphereEta, []float64, []float64, []float64) {
	lat, lon := grid(-45, 10, 10), grid(0, 10, 36)
	e := testEta(t)
	return SphereEta{Sphere: testSphere(t, lat, lon), Eta: e}, e.Field().Coord("pfull"), lat, lon
}

func TestConstPNoVerticalVariation(t *testing.T) {
	s, lev, lat, lon := testSphereEta(t)
	dims := []string{"pfull", "lat", "lon"}
	coords := [][]float64{lev, lat, lon}
	f := newField(t, "f", dims, coords, func(x []float64) float64 { return math.Sin(rad(x[2])) + x[1] })
	ps := newField(t, "ps", []string{"lat", "lon"}, [][]float64{lat, lon}, func(x []float64) float64 {
		return 100000 + 500*math.Cos(rad(x[1]))
	})
	cfg := indiff.DefaultConfig()
	for _, test := range []struct {
		name   string
		constP func(indiff.Kind, indiff.Field, indiff.Field, indiff.Config) (indiff.Field, error)
		plain  func(indiff.Kind, indiff.Field, indiff.Config) (indiff.Field, error)
	}{
		{"x", s.DDxConstP, s.DDx},
		{"y", s.DDyConstP, func(k indiff.Kind, f indiff.Field, cfg indiff.Config) (indiff.Field, error) {
			return s.DDy(k, f, cfg, "grad")
		}},
		{"grad", s.HorizGradConstP, s.HorizGrad},
	} {
		t.Run(test.name, func(t *testing.T) {
			have, err := test.constP(indiff.Centered, f, ps, cfg)
			if err != nil {
				t.Fatal(err)
			}
			want, err := test.plain(indiff.Centered, f, cfg)
			if err != nil {
				t.Fatal(err)
			}
			hv, wv := have.Values(), want.Values()
			if len(hv) != len(wv) {
				t.Fatalf("length %d != %d", len(hv), len(wv))
			}
			for i := range hv {
				if math.Abs(hv[i]-wv[i]) > 1.e-20 {
					t.Errorf("%d: %g != %g", i, hv[i], wv[i])
				}
			}
		})
	}
}

func TestConstPCorrection(t *testing.T) {
	s, lev, lat, lon := testSphereEta(t)
	dims := []string{"pfull", "lat", "lon"}
	coords := [][]float64{lev, lat, lon}
	level := make(map[float64]float64)
	for k, p := range lev {
		level[p] = float64(k)
	}
	// f varies only from level to level, by 1 per level.
	f := newField(t, "f", dims, coords, func(x []float64) float64 { return level[x[0]] })
	ps := newField(t, "ps", []string{"lat", "lon"}, [][]float64{lat, lon}, func(x []float64) float64 {
		return 100000 + 500*math.Sin(rad(x[1]))
	})
	cfg := indiff.DefaultConfig()
	have, err := s.DDxConstP(indiff.Centered, f, ps, cfg)
	if err != nil {
		t.Fatal(err)
	}
	dpsdx, err := s.DDx(indiff.Centered, ps, cfg)
	if err != nil {
		t.Fatal(err)
	}
	pk, bk := s.Eta.PK.Values(), s.Eta.BK.Values()
	for k := range lev {
		bkFull := 0.5 * (bk[k] + bk[k+1])
		for j := range lat {
			row, err := have.Lane("lon", k, j)
			if err != nil {
				t.Fatal(err)
			}
			dps, err := dpsdx.Lane("lon", j)
			if err != nil {
				t.Fatal(err)
			}
			psRow, err := ps.Lane("lon", j)
			if err != nil {
				t.Fatal(err)
			}
			for i := range lon {
				want := bkFull * dps[i] / (pk[k+1] - pk[k] + (bk[k+1]-bk[k])*psRow[i])
				if math.Abs(row[i]-want) > 1.e-12*math.Max(math.Abs(want), 1.e-12) {
					t.Errorf("level %d lat %d lon %d: %g != %g", k, j, i, row[i], want)
				}
			}
		}
	}
}

func TestAdvect3D(t *testing.T) {
	s, lev, lat, lon := testSphereEta(t)
	dims := []string{"pfull", "lat", "lon"}
	coords := [][]float64{lev, lat, lon}
	f := newField(t, "f", dims, coords, func(x []float64) float64 { return x[1] * x[2] })
	zero := f.Apply(func(float64) float64 { return 0 })
	ps := newField(t, "ps", []string{"lat", "lon"}, [][]float64{lat, lon}, func([]float64) float64 { return 100000 })

	a, err := s.Advect3D(f, zero, zero, zero, ps, indiff.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{len(lev) - 4, len(lat) - 4, len(lon)}; !equalShape(a.Shape(), want) {
		t.Errorf("shape %v != %v", a.Shape(), want)
	}
	if a.AbsMax() != 0 {
		t.Errorf("advection by zero flow = %g", a.AbsMax())
	}

	filled, err := s.Advect3D(f, zero, zero, zero, ps, indiff.DefaultConfig().WithFill(true))
	if err != nil {
		t.Fatal(err)
	}
	if !equalShape(filled.Shape(), f.Shape()) {
		t.Errorf("filled shape %v != %v", filled.Shape(), f.Shape())
	}
}
