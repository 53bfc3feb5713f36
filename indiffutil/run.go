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

package indiffutil

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/indiff"
	"github.com/spatialmodel/indiff/coord"
	"github.com/spatialmodel/indiff/phys"
)

// Vertical holds the settings of the hybrid sigma-pressure (eta)
// vertical coordinate.
type Vertical struct {
	// EtaFile is a TOML file holding the pk and bk coefficients. If it
	// is empty, the pk and bk variables of the input file are used.
	EtaFile string

	// HalfDim and FullDim are the dimensions of the layer interfaces
	// and layer midpoints.
	HalfDim, FullDim string

	// PsVar is the surface pressure variable, in Pa.
	PsVar string
}

// eta returns the eta coordinate and the surface pressure.
func (v *Vertical) eta(d *indiff.Dataset) (*coord.Eta, indiff.Field, error) {
	e, err := etaCoordinate(v.EtaFile, v.HalfDim, v.FullDim, d)
	if err != nil {
		return nil, indiff.Field{}, err
	}
	ps, err := d.Get(v.PsVar)
	if err != nil {
		return nil, indiff.Field{}, fmt.Errorf("indiffutil: surface pressure: %v", err)
	}
	return e, ps, nil
}

// computeFunc calculates a result from variable v of dataset d.
type computeFunc func(d *indiff.Dataset, v string) (indiff.Field, error)

// Diff writes the differences of the selected variables in inputFile
// to outputFile.
func Diff(ctx context.Context, inputFile, outputFile string, op *Operator, outputVars map[string]string) error {
	return apply(ctx, "diff", inputFile, outputFile, op.Variables, outputVars, "%s_diff",
		func(d *indiff.Dataset, v string) (indiff.Field, error) {
			f, err := d.Get(v)
			if err != nil {
				return indiff.Field{}, err
			}
			return indiff.Diff(op.Kind, f, op.Dim, op.Config)
		})
}

// Deriv writes the derivatives of the selected variables in inputFile
// to outputFile. vert is only used for eta coordinates.
func Deriv(ctx context.Context, inputFile, outputFile string, op *Operator, vert *Vertical, outputVars map[string]string) error {
	return apply(ctx, "deriv", inputFile, outputFile, op.Variables, outputVars, "%s_deriv",
		func(d *indiff.Dataset, v string) (indiff.Field, error) {
			return derivative(d, v, op, vert)
		})
}

func derivative(d *indiff.Dataset, v string, op *Operator, vert *Vertical) (indiff.Field, error) {
	f, err := d.Get(v)
	if err != nil {
		return indiff.Field{}, err
	}
	if op.Coord == "eta" {
		e, ps, err := vert.eta(d)
		if err != nil {
			return indiff.Field{}, err
		}
		return phys.EtaDeriv(e, op.Kind, f, ps, op.Config)
	}
	c, m, err := op.Coordinate(d, f)
	if err != nil {
		return indiff.Field{}, err
	}
	return phys.Deriv(c, op.Kind, f, op.Config, m)
}

// Advect writes the upwind advection by flow variable flowVar of the
// selected variables in inputFile to outputFile.
func Advect(ctx context.Context, inputFile, outputFile, flowVar string, op *Operator, vert *Vertical, outputVars map[string]string) error {
	return apply(ctx, "advect", inputFile, outputFile, op.Variables, outputVars, "%s_advec",
		func(d *indiff.Dataset, v string) (indiff.Field, error) {
			f, err := d.Get(v)
			if err != nil {
				return indiff.Field{}, err
			}
			flow, err := d.Get(flowVar)
			if err != nil {
				return indiff.Field{}, fmt.Errorf("indiffutil: flow: %v", err)
			}
			if op.Coord == "eta" {
				e, ps, err := vert.eta(d)
				if err != nil {
					return indiff.Field{}, err
				}
				return phys.EtaAdvect(e, f, flow, ps, op.Config)
			}
			c, m, err := op.Coordinate(d, f)
			if err != nil {
				return indiff.Field{}, err
			}
			return phys.Advect(c, f, flow, op.Config, m)
		})
}

// Advect3D writes the three-dimensional upwind advection of the selected
// variables in inputFile to outputFile. The variables must have the
// dimensions lonDim, latDim, and vert.FullDim; flows holds the names of the
// zonal, meridional, and vertical (omega) flow variables.
func Advect3D(ctx context.Context, inputFile, outputFile, lonDim, latDim string, flows [3]string, op *Operator, vert *Vertical, outputVars map[string]string) error {
	return apply(ctx, "advect3d", inputFile, outputFile, op.Variables, outputVars, "%s_advec3d",
		func(d *indiff.Dataset, v string) (indiff.Field, error) {
			f, err := d.Get(v)
			if err != nil {
				return indiff.Field{}, err
			}
			var fl [3]indiff.Field
			for i, name := range flows {
				if fl[i], err = d.Get(name); err != nil {
					return indiff.Field{}, fmt.Errorf("indiffutil: flow: %v", err)
				}
			}
			e, ps, err := vert.eta(d)
			if err != nil {
				return indiff.Field{}, err
			}
			lonf, err := f.CoordField(lonDim)
			if err != nil {
				return indiff.Field{}, err
			}
			latf, err := f.CoordField(latDim)
			if err != nil {
				return indiff.Field{}, err
			}
			lon, err := coord.NewLon(lonf, lonDim, op.Radius, op.Cyclic)
			if err != nil {
				return indiff.Field{}, err
			}
			lat, err := coord.NewLat(latf, latDim, op.Radius, false)
			if err != nil {
				return indiff.Field{}, err
			}
			s := phys.SphereEta{Sphere: phys.Sphere{Lon: lon, Lat: lat}, Eta: e}
			return s.Advect3D(f, fl[0], fl[1], fl[2], ps, op.Config)
		})
}

// Eta writes the interface pressures (phalf), midpoint pressures (pfull),
// and layer thicknesses (dp) calculated from the surface pressure in
// inputFile to outputFile.
func Eta(ctx context.Context, inputFile, outputFile string, vert *Vertical, outputVars map[string]string) error {
	d, err := loadInput(ctx, inputFile)
	if err != nil {
		return err
	}
	e, ps, err := vert.eta(d)
	if err != nil {
		return err
	}
	phalf, err := e.PhalfFromPs(ps)
	if err != nil {
		return err
	}
	pfull, err := e.PfullFromPs(ps)
	if err != nil {
		return err
	}
	dp, err := e.DpFromPs(ps)
	if err != nil {
		return err
	}
	phalf.Name, pfull.Name, dp.Name = "phalf", "pfull", "dp"
	out, err := indiff.NewDataset(phalf, pfull, dp)
	if err != nil {
		return err
	}
	out.Comment = "pressure calculated from " + inputFile
	return writeOutput(ctx, out, d, outputFile, outputVars)
}

// apply runs compute concurrently for each of vars and writes the results,
// named using format, and any output variables to outputFile.
func apply(ctx context.Context, name, inputFile, outputFile string, vars []string, outputVars map[string]string, format string, compute computeFunc) error {
	if len(vars) == 0 {
		return fmt.Errorf("indiffutil: %s: no variables specified", name)
	}
	d, err := loadInput(ctx, inputFile)
	if err != nil {
		return err
	}

	type result struct {
		f   indiff.Field
		err error
	}
	results := make([]result, len(vars))
	errChan := make(chan error, len(vars))
	for i, v := range vars {
		go func(i int, v string) {
			f, err := compute(d, v)
			if err != nil {
				err = fmt.Errorf("indiffutil: %s of %s: %v", name, v, err)
			}
			results[i] = result{f: f, err: err}
			errChan <- err
		}(i, v)
	}
	for range vars {
		if err := <-errChan; err != nil {
			return err
		}
	}

	out := &indiff.Dataset{Comment: fmt.Sprintf("indiff %s of %s", name, inputFile)}
	for i, v := range vars {
		f := results[i].f
		f.Name = fmt.Sprintf(format, v)
		if err := out.Add(f); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"variable": v,
			"output":   f.Name,
			"shape":    f.Shape(),
		}).Info("indiffutil: calculated " + name)
	}
	return writeOutput(ctx, out, d, outputFile, outputVars)
}

// loadInput downloads inputFile if necessary and loads it.
func loadInput(ctx context.Context, inputFile string) (*indiff.Dataset, error) {
	path, err := maybeDownload(ctx, os.ExpandEnv(inputFile))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("indiffutil: opening input file: %v", err)
	}
	defer f.Close()
	d, err := indiff.LoadDataset(f)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"file":      inputFile,
		"variables": d.Names(),
	}).Info("indiffutil: loaded input")
	return d, nil
}

// writeOutput adds the output variables, calculated from the results in
// out and the inputs in in, to out and writes it to outputFile.
func writeOutput(ctx context.Context, out, in *indiff.Dataset, outputFile string, outputVars map[string]string) error {
	if len(outputVars) > 0 {
		all := &indiff.Dataset{Fields: make(map[string]indiff.Field)}
		for n, f := range in.Fields {
			all.Fields[n] = f
		}
		for n, f := range out.Fields {
			all.Fields[n] = f
		}
		o, err := indiff.NewOutputter(outputVars, nil)
		if err != nil {
			return err
		}
		derived, err := o.Outputs(all)
		if err != nil {
			return err
		}
		for _, n := range derived.Names() {
			f := derived.Fields[n]
			if len(f.Dims) == 0 {
				logrus.WithFields(logrus.Fields{
					"variable": n,
					"value":    f.Values()[0],
				}).Info("indiffutil: scalar output variable")
				continue
			}
			if err := out.Add(f); err != nil {
				return err
			}
		}
	}

	var u uploader
	path, err := u.maybeUpload(outputFile)
	if err != nil {
		return err
	}
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("indiffutil: creating output file: %v", err)
	}
	if err := out.Write(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"file":      outputFile,
		"variables": out.Names(),
	}).Info("indiffutil: wrote output")
	return u.upload(ctx)
}
