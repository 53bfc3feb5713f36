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
	"math"
	"regexp"
	"sort"

	"github.com/Knetic/govaluate"
	"gonum.org/v1/gonum/floats"
)

// Outputter calculates derived output variables from the fields of a
// Dataset.
//
// Each output variable is defined by an expression that can use the
// fields of the dataset, other output variables, and functions.
// Expressions are evaluated element by element after the fields they use
// are broadcast to a common shape, except for the reducing functions
// 'sum(x)' and 'max(x)', whose argument must be a single variable name and
// which are evaluated over all elements of that variable.
type Outputter struct {
	outputVariables map[string]string
	outputFunctions map[string]govaluate.ExpressionFunction
	expressions     map[string]*govaluate.EvaluableExpression
}

// reducers are the functions that are applied to whole variables.
var reducers = map[string]func([]float64) float64{
	"sum": floats.Sum,
	"max": floats.Max,
}

var reduceRegexp = regexp.MustCompile(`\b(sum|max)\(\s*([A-Za-z_]\w*)\s*\)`)

// NewOutputter initializes a new Outputter and adds a set of default
// output functions. Default functions include:
//
// 'exp(x)' which applies the exponential function e^x.
//
// 'abs(x)' which returns the absolute value of x.
//
// 'sum(x)' which sums a variable across all grid cells.
//
// 'max(x)' which returns the maximum of a variable across all grid cells.
func NewOutputter(outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	funcs := map[string]govaluate.ExpressionFunction{
		"exp": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("indiff: got %d arguments for function 'exp', but needs 1", len(arg))
			}
			return math.Exp(arg[0].(float64)), nil
		},
		"abs": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("indiff: got %d arguments for function 'abs', but needs 1", len(arg))
			}
			return math.Abs(arg[0].(float64)), nil
		},
	}
	for name, reduce := range reducers {
		name, reduce := name, reduce
		funcs[name] = func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("indiff: got %d arguments for function '%s', but needs 1", len(arg), name)
			}
			v, ok := arg[0].([]float64)
			if !ok {
				return nil, fmt.Errorf("indiff: the argument of function '%s' must be a variable name", name)
			}
			return reduce(v), nil
		}
	}
	for key, val := range outputFunctions {
		funcs[key] = val
	}

	o := &Outputter{
		outputVariables: make(map[string]string, len(outputVariables)),
		outputFunctions: funcs,
		expressions:     make(map[string]*govaluate.EvaluableExpression, len(outputVariables)),
	}
	for name, expr := range outputVariables {
		o.outputVariables[name] = expr
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, funcs)
		if err != nil {
			return nil, fmt.Errorf("indiff: output variable %s: %v", name, err)
		}
		o.expressions[name] = e
	}
	return o, nil
}

// Names returns the sorted output variable names.
func (o *Outputter) Names() []string {
	names := make([]string, 0, len(o.outputVariables))
	for n := range o.outputVariables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Outputs calculates the output variables from the fields in d and returns
// them as a new Dataset.
func (o *Outputter) Outputs(d *Dataset) (*Dataset, error) {
	out := &Dataset{Fields: make(map[string]Field), Comment: d.Comment}
	for _, name := range o.Names() {
		if _, err := o.output(name, d, out, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// output calculates output variable name, first calculating any output
// variables it depends on. visiting holds the variables currently being
// calculated.
func (o *Outputter) output(name string, d, out *Dataset, visiting map[string]bool) (Field, error) {
	if f, ok := out.Fields[name]; ok {
		return f, nil
	}
	if visiting[name] {
		return Field{}, fmt.Errorf("indiff: output variable %s is defined in terms of itself", name)
	}
	if visiting == nil {
		visiting = make(map[string]bool)
	}
	visiting[name] = true
	defer delete(visiting, name)

	lookup := func(v string) (Field, error) {
		if _, ok := o.outputVariables[v]; ok && v != name {
			return o.output(v, d, out, visiting)
		}
		if f, ok := d.Fields[v]; ok {
			return f, nil
		}
		return Field{}, fmt.Errorf("indiff: output variable %s: undefined variable name '%s'", name, v)
	}

	// Replace reductions with their values.
	expr := o.outputVariables[name]
	params := make(map[string]interface{})
	for _, m := range reduceRegexp.FindAllStringSubmatch(expr, -1) {
		f, err := lookup(m[2])
		if err != nil {
			return Field{}, err
		}
		key := m[1] + "_of_" + m[2]
		params[key] = reducers[m[1]](f.Values())
	}
	e := o.expressions[name]
	if len(params) > 0 {
		expr = reduceRegexp.ReplaceAllString(expr, "${1}_of_${2}")
		var err error
		e, err = govaluate.NewEvaluableExpressionWithFunctions(expr, o.outputFunctions)
		if err != nil {
			return Field{}, fmt.Errorf("indiff: output variable %s: %v", name, err)
		}
	}

	var vars []string
	var inputs []Field
	var target Field
	for _, v := range removeDuplicates(e.Vars()) {
		if _, ok := params[v]; ok {
			continue
		}
		f, err := lookup(v)
		if err != nil {
			return Field{}, err
		}
		vars = append(vars, v)
		inputs = append(inputs, f)
		if len(f.Dims) > len(target.Dims) || target.Data == nil {
			target = f
		}
	}
	if target.Data == nil {
		target = Scalar(0)
	}
	for i, f := range inputs {
		b, err := f.BroadcastLike(target)
		if err != nil {
			return Field{}, fmt.Errorf("indiff: output variable %s: %v", name, err)
		}
		inputs[i] = b
	}

	result := target.like(target.Data.Copy())
	result.Name, result.Units, result.Description = name, "", o.outputVariables[name]
	for i := range result.Data.Elements {
		for j, v := range vars {
			params[v] = inputs[j].Data.Elements[i]
		}
		r, err := e.Evaluate(params)
		if err != nil {
			return Field{}, fmt.Errorf("indiff: output variable %s: %v", name, err)
		}
		switch rv := r.(type) {
		case float64:
			result.Data.Elements[i] = rv
		case bool:
			if rv {
				result.Data.Elements[i] = 1
			} else {
				result.Data.Elements[i] = 0
			}
		default:
			return Field{}, fmt.Errorf("indiff: output variable %s: result has type %T, not a number", name, r)
		}
	}
	out.Fields[name] = result
	return result, nil
}

// removeDuplicates removes all duplicated strings from a slice, returning a
// slice that contains only unique strings.
func removeDuplicates(s []string) []string {
	result := make([]string, 0, len(s))
	seen := make(map[string]struct{})
	for _, val := range s {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = struct{}{}
		}
	}
	return result
}
