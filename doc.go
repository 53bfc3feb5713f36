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

// Package indiff computes finite-difference derivatives and advection
// terms of gridded fields along named dimensions.
//
// Fields carry named dimensions and coordinates. Differences, derivatives
// (forward, backward, and centered, with Richardson extrapolation for
// higher orders), and upwind advection operate along one dimension at a
// time, with optional filling of the edge points that lack a full stencil.
// The coord and phys packages add physical coordinates such as longitude,
// latitude, and hybrid sigma-pressure levels.
package indiff

// Version gives the version number.
const Version = "0.1.0"
