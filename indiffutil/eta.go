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
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/indiff"
	"github.com/spatialmodel/indiff/coord"
)

// EtaLevels holds the hybrid sigma-pressure coefficients at the
// interfaces of a vertical grid, ordered from the top of the
// atmosphere down. In TOML:
//
//	pk = [100.0, 2000.0, 5000.0, 0.0]
//	bk = [0.0, 0.0, 0.2, 1.0]
type EtaLevels struct {
	// PK is the pressure part of the interface pressures, in Pa.
	PK []float64 `toml:"pk"`

	// BK is the sigma part of the interface pressures.
	BK []float64 `toml:"bk"`
}

// ReadEtaLevels reads eta levels from a TOML file.
func ReadEtaLevels(path string) (*EtaLevels, error) {
	l := new(EtaLevels)
	md, err := toml.DecodeFile(os.ExpandEnv(path), l)
	if err != nil {
		return nil, fmt.Errorf("indiffutil: reading eta levels: %v", err)
	}
	if u := md.Undecoded(); len(u) > 0 {
		return nil, fmt.Errorf("indiffutil: unknown keys in eta level file %s: %v", path, u)
	}
	return l, nil
}

// Eta returns the eta coordinate for the levels.
func (l *EtaLevels) Eta(halfDim, fullDim string) (*coord.Eta, error) {
	pk, err := indiff.NewField1D("pk", halfDim, l.PK, nil)
	if err != nil {
		return nil, err
	}
	bk, err := indiff.NewField1D("bk", halfDim, l.BK, nil)
	if err != nil {
		return nil, err
	}
	pk.Units = "Pa"
	return coord.NewEta(pk, bk, halfDim, fullDim)
}

// etaCoordinate returns the eta coordinate configured by the etafile
// option or, if that is empty, by the pk and bk variables in d.
func etaCoordinate(etaFile, halfDim, fullDim string, d *indiff.Dataset) (*coord.Eta, error) {
	if etaFile != "" {
		l, err := ReadEtaLevels(etaFile)
		if err != nil {
			return nil, err
		}
		return l.Eta(halfDim, fullDim)
	}
	pk, err := d.Get("pk")
	if err != nil {
		return nil, fmt.Errorf("indiffutil: eta coordinate needs etafile or variables pk and bk: %v", err)
	}
	bk, err := d.Get("bk")
	if err != nil {
		return nil, fmt.Errorf("indiffutil: eta coordinate needs etafile or variables pk and bk: %v", err)
	}
	return coord.NewEta(pk, bk, halfDim, fullDim)
}
