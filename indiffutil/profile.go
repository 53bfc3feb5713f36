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
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/indiff"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	profileWidth  = 6 * vg.Inch
	profileHeight = 6 * vg.Inch
)

// Profile writes a PNG image to outputFile with plots of variable
// op.Variables[0] and its derivative along op.Dim. index gives the
// position along the other dimensions of the variable, in the order they
// appear in the variable.
func Profile(ctx context.Context, inputFile, outputFile string, op *Operator, vert *Vertical, index []int) error {
	if len(op.Variables) != 1 {
		return fmt.Errorf("indiffutil: profile needs exactly one variable but got %d", len(op.Variables))
	}
	v := op.Variables[0]
	d, err := loadInput(ctx, inputFile)
	if err != nil {
		return err
	}
	f, err := d.Get(v)
	if err != nil {
		return err
	}
	df, err := derivative(d, v, op, vert)
	if err != nil {
		return fmt.Errorf("indiffutil: profile of %s: %v", v, err)
	}
	df.Name = fmt.Sprintf("d%s/d%s", v, op.Dim)

	var u uploader
	path, err := u.maybeUpload(os.ExpandEnv(outputFile))
	if err != nil {
		return err
	}
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("indiffutil: creating profile file: %v", err)
	}
	if err := writeProfile(w, f, df, op.Dim, index); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"variable": v,
		"dim":      op.Dim,
		"index":    index,
		"file":     outputFile,
	}).Info("indiffutil: wrote profile")
	return u.upload(ctx)
}

// writeProfile plots the lanes of f and df along dim at index, one
// above the other, and writes them to w as a PNG image.
func writeProfile(w io.Writer, f, df indiff.Field, dim string, index []int) error {
	var plots [][]*plot.Plot
	for _, fld := range []indiff.Field{f, df} {
		p, err := profilePlot(fld, dim, index)
		if err != nil {
			return err
		}
		plots = append(plots, []*plot.Plot{p})
	}
	img := vgimg.New(profileWidth, profileHeight)
	dc := draw.New(img)
	t := draw.Tiles{Rows: len(plots), Cols: 1, PadY: vg.Millimeter, PadTop: vg.Millimeter, PadBottom: vg.Millimeter}
	canvases := plot.Align(plots, t, dc)
	for j := range plots {
		plots[j][0].Draw(canvases[j][0])
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("indiffutil: writing profile: %v", err)
	}
	return nil
}

// profilePlot returns a line plot of f along dim at index.
func profilePlot(f indiff.Field, dim string, index []int) (*plot.Plot, error) {
	y, err := f.Lane(dim, index...)
	if err != nil {
		return nil, err
	}
	x := f.Coord(dim)
	pts := make(plotter.XYs, len(y))
	for i := range y {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	p, err := plot.New()
	if err != nil {
		return nil, err
	}
	p.X.Label.Text = dim
	p.Y.Label.Text = f.Name
	if f.Units != "" {
		p.Y.Label.Text += " (" + f.Units + ")"
	}
	if err := plotutil.AddLinePoints(p, f.Name, pts); err != nil {
		return nil, err
	}
	return p, nil
}
