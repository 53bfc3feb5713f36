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
)

// These are the error classes returned by the operators in this package.
// Returned errors wrap one of them, so they can be checked with errors.Is.
var (
	// ErrInvalidSpacing is returned when a stencil spacing is not a
	// positive integer.
	ErrInvalidSpacing = errors.New("invalid spacing")

	// ErrInsufficientLength is returned when a field is too short along the
	// differencing dimension for the requested stencil.
	ErrInsufficientLength = errors.New("array too short for stencil")

	// ErrUnsupportedOrder is returned when the requested order of accuracy
	// is not available for the chosen scheme.
	ErrUnsupportedOrder = errors.New("unsupported order")

	// ErrInvalidOperatorMode is returned for an unrecognized operator mode,
	// for example a latitude operator that is neither "grad" nor "divg".
	ErrInvalidOperatorMode = errors.New("invalid operator mode")

	// ErrNotImplemented is returned by abstract coordinate methods that a
	// concrete coordinate has not overridden.
	ErrNotImplemented = errors.New("not implemented")

	// ErrShapeMismatch is returned when two fields cannot be combined.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrMissingDim is returned when a field does not have the requested
	// dimension.
	ErrMissingDim = errors.New("missing dimension")
)

// OpError records a failed operation and the dimension it was
// operating along.
type OpError struct {
	Op     string // operation, e.g. "forward derivative"
	Dim    string // differencing dimension, may be empty
	Err    error  // one of the Err* values above
	Detail string // additional information, may be empty
}

func (e *OpError) Error() string {
	s := "indiff: " + e.Op
	if e.Dim != "" {
		s += fmt.Sprintf(" along %q", e.Dim)
	}
	s += ": " + e.Err.Error()
	if e.Detail != "" {
		s += ": " + e.Detail
	}
	return s
}

// Unwrap returns the underlying error class.
func (e *OpError) Unwrap() error { return e.Err }

func opErr(op, dim string, err error, format string, a ...interface{}) error {
	return &OpError{Op: op, Dim: dim, Err: err, Detail: fmt.Sprintf(format, a...)}
}
