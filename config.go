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
	"fmt"
	"strings"
)

// Kind selects the differencing stencil used by an operator.
type Kind int

const (
	// Forward differencing uses the point and its neighbor(s) in the
	// direction of increasing index.
	Forward Kind = iota
	// Backward differencing uses the point and its neighbor(s) in the
	// direction of decreasing index.
	Backward
	// Centered differencing uses neighbors on both sides of the point.
	Centered
)

func (k Kind) String() string {
	switch k {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Centered:
		return "centered"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind returns the Kind matching s, which can be "forward", "fwd",
// "backward", "bwd", "centered", or "cen".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "fwd":
		return Forward, nil
	case "backward", "bwd":
		return Backward, nil
	case "centered", "centred", "cen":
		return Centered, nil
	}
	return 0, &OpError{Op: "parse kind", Err: ErrInvalidOperatorMode,
		Detail: fmt.Sprintf("%q is not forward, backward, or centered", s)}
}

// validOrders returns the orders of accuracy available for k.
func (k Kind) validOrders() []int {
	if k == Centered {
		return []int{2, 4}
	}
	return []int{1, 2}
}

// EdgeFill specifies what happens to boundary points that do not have the
// neighbors required by a stencil.
type EdgeFill int

const (
	// Truncate drops boundary points, so the output is shorter than the
	// input along the differencing dimension.
	Truncate EdgeFill = iota
	// FillBoth reconstructs boundary points on both sides.
	FillBoth
	// FillLeft reconstructs boundary points at the low-index side only.
	FillLeft
	// FillRight reconstructs boundary points at the high-index side only.
	FillRight
)

func (e EdgeFill) left() bool  { return e == FillBoth || e == FillLeft }
func (e EdgeFill) right() bool { return e == FillBoth || e == FillRight }

func (e EdgeFill) String() string {
	switch e {
	case Truncate:
		return "truncate"
	case FillBoth:
		return "both"
	case FillLeft:
		return "left"
	case FillRight:
		return "right"
	default:
		return fmt.Sprintf("EdgeFill(%d)", int(e))
	}
}

// ParseEdgeFill returns the EdgeFill matching s. "true" is an alias for
// "both" and "false" or "none" for "truncate".
func ParseEdgeFill(s string) (EdgeFill, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "truncate", "none", "false", "":
		return Truncate, nil
	case "both", "true":
		return FillBoth, nil
	case "left":
		return FillLeft, nil
	case "right":
		return FillRight, nil
	}
	return 0, &OpError{Op: "parse edge fill", Err: ErrInvalidOperatorMode,
		Detail: fmt.Sprintf("%q is not truncate, both, left, or right", s)}
}

// Config holds the settings shared by the difference, derivative, and
// advection operators. It is passed by value; the zero value of a field
// selects its default where one is documented.
type Config struct {
	// Spacing is the number of grid points between stencil points.
	// It must be at least 1. Default 1.
	Spacing int

	// Order is the order of accuracy. One-sided derivatives support 1 and 2,
	// centered derivatives support 2 and 4. Zero selects the default:
	// 1 for one-sided derivatives and 2 for centered derivatives and
	// for upwind advection.
	Order int

	// Fill selects the edge handling. Default Truncate.
	Fill EdgeFill

	// Workers is the maximum number of goroutines used to process
	// independent lanes of a field. Zero means runtime.GOMAXPROCS(0).
	Workers int
}

// DefaultConfig returns a Config with spacing 1, the default order,
// and no edge fill.
func DefaultConfig() Config {
	return Config{Spacing: 1}
}

// WithFill returns a copy of c with Fill set to FillBoth if fill is true
// and Truncate otherwise.
func (c Config) WithFill(fill bool) Config {
	if fill {
		c.Fill = FillBoth
	} else {
		c.Fill = Truncate
	}
	return c
}

// WithOrder returns a copy of c with the given order.
func (c Config) WithOrder(order int) Config {
	c.Order = order
	return c
}

// OrderFor returns the order of accuracy used with kind k, applying the
// default when Order is zero.
func (c Config) OrderFor(k Kind) int {
	if c.Order != 0 {
		return c.Order
	}
	if k == Centered {
		return 2
	}
	return 1
}

// Validate checks the spacing and order of c for use with
// a derivative of kind k.
func (c Config) Validate(k Kind) error {
	_, err := c.check(k.String()+" derivative", "", k)
	return err
}

func (c Config) check(op, dim string, k Kind) (order int, err error) {
	if err := checkSpacing(op, dim, c.Spacing); err != nil {
		return 0, err
	}
	order = c.OrderFor(k)
	for _, o := range k.validOrders() {
		if o == order {
			return order, nil
		}
	}
	return 0, opErr(op, dim, ErrUnsupportedOrder,
		"order %d is not supported by %s differencing, which supports %v", order, k, k.validOrders())
}

func checkSpacing(op, dim string, spacing int) error {
	if spacing < 1 {
		return opErr(op, dim, ErrInvalidSpacing, "spacing must be a positive integer but is %d", spacing)
	}
	return nil
}
