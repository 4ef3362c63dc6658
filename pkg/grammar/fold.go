/*
Copyright © 2023 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package grammar

import (
	"math/big"

	"github.com/zclconf/go-cty/cty"
)

// Constant folding over cty values. Integer results that do not fit
// in 64 bits are left for the runtime.

func isZero(v cty.Value) bool {
	return v.Type() == cty.Number && v.Equals(cty.Zero).True()
}

// intConst returns v as an integer constant if it has an exact
// 64-bit integer value.
func intConst(v cty.Value) (cty.Value, bool) {
	n, ok := int64Of(v)
	if !ok {
		return cty.NilVal, false
	}
	return cty.NumberIntVal(n), true
}

func int64Of(v cty.Value) (int64, bool) {
	if v.Type() != cty.Number {
		return 0, false
	}
	n, acc := v.AsBigFloat().Int64()
	return n, acc == big.Exact
}

func boolConst(v cty.Value) cty.Value {
	if v.True() {
		return cty.NumberIntVal(1)
	}
	return cty.NumberIntVal(0)
}

// Fold a type-checked binary expression whose operands are both
// constants.
func fold(e *BinaryExpr) (*ConstExpr, bool) {
	xk, ok := e.X.(*ConstExpr)
	if !ok {
		return nil, false
	}
	yk, ok := e.Y.(*ConstExpr)
	if !ok {
		return nil, false
	}
	x, y := xk.Value, yk.Value

	var v cty.Value
	if x.Type() == cty.String {
		switch e.Op {
		case "+":
			v = cty.StringVal(x.AsString() + y.AsString())
		case "==":
			v = boolConst(x.Equals(y))
		case "!=":
			v = boolConst(x.NotEqual(y))
		default:
			return nil, false
		}
		return &ConstExpr{Value: v, Range: e.Range}, true
	}

	switch e.Op {
	case "+":
		v = x.Add(y)
	case "-":
		v = x.Subtract(y)
	case "*":
		v = x.Multiply(y)
	case "/":
		if isZero(y) {
			return nil, false
		}
		// Integer division truncates toward zero.
		q, _ := x.Divide(y).AsBigFloat().Int(nil)
		v = cty.NumberVal(new(big.Float).SetInt(q))
	case "==":
		v = boolConst(x.Equals(y))
	case "!=":
		v = boolConst(x.NotEqual(y))
	case "<":
		v = boolConst(x.LessThan(y))
	case ">":
		v = boolConst(x.GreaterThan(y))
	case "<=":
		v = boolConst(x.LessThanOrEqualTo(y))
	case ">=":
		v = boolConst(x.GreaterThanOrEqualTo(y))
	default:
		return nil, false
	}
	if v, ok = intConst(v); !ok {
		return nil, false
	}
	return &ConstExpr{Value: v, Range: e.Range}, true
}
