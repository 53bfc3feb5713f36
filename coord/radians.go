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
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/unit"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/indiff"
)

// EarthRadius is the radius of the Earth used by default for spherical
// coordinates.
var EarthRadius = unit.New(6370997, unit.Meter)

// RadiusMeters returns the value of planetary radius r in meters, checking
// that r is a positive length.
func RadiusMeters(r *unit.Unit) (float64, error) {
	if r == nil {
		return 0, fmt.Errorf("coord: missing radius")
	}
	if err := r.Check(unit.Meter); err != nil {
		return 0, fmt.Errorf("coord: radius: %v", err)
	}
	if !(r.Value() > 0) {
		return 0, fmt.Errorf("coord: radius must be positive; got %g", r.Value())
	}
	return r.Value(), nil
}

// Thresholds of the absolute value above which angles are assumed to be in
// degrees.
const (
	degreeThreshold      = 4 * math.Pi
	degreeDeltaThreshold = 0.1 * math.Pi
)

// ToRadians returns f in radians. f is converted from degrees if its
// units start with "degrees" or, failing that, if its largest absolute
// value is too large to be in radians. isDelta indicates that f holds
// angle differences rather than angles, which lowers that threshold.
// Conversions are logged as warnings to indiff.Log.
func ToRadians(f indiff.Field, isDelta bool) indiff.Field {
	if f.Data == nil || len(f.Data.Elements) == 0 {
		return f
	}
	if strings.HasPrefix(strings.ToLower(f.Units), "degrees") {
		return degToRad(f, "units")
	}
	threshold := degreeThreshold
	if isDelta {
		threshold = degreeDeltaThreshold
	}
	if f.AbsMax() > threshold {
		return degToRad(f, "magnitude")
	}
	return f
}

func degToRad(f indiff.Field, reason string) indiff.Field {
	indiff.Log.WithFields(logrus.Fields{
		"name":   f.Name,
		"units":  f.Units,
		"reason": reason,
	}).Warn("indiff: converting degrees to radians")
	o := f.Scale(math.Pi / 180)
	o.Units = "radians"
	return o
}
