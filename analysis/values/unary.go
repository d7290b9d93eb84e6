// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package values

import "math"

// UnaryOp is a unary operator or a cast
type UnaryOp int

// Unary operators and casts
const (
	Negate UnaryOp = iota
	Plus
	LogicalNot
	BitNot
	CastInt
	CastFloat
	CastString
	CastBool
	CastUnset
)

var unaryOps = map[string]UnaryOp{
	"-": Negate, "+": Plus, "!": LogicalNot, "~": BitNot,
	"int": CastInt, "integer": CastInt, "float": CastFloat, "double": CastFloat, "real": CastFloat,
	"string": CastString, "binary": CastString, "bool": CastBool, "boolean": CastBool, "unset": CastUnset,
}

// ParseUnaryOp returns the unary operator of the PHP token s, or the cast to the type named s. Casts to array and
// object depend on the memory and are not unary operators of the lattice.
func ParseUnaryOp(s string) (UnaryOp, bool) {
	op, ok := unaryOps[s]
	return op, ok
}

// Unary evaluates a unary operator or a scalar cast on v
func Unary(op UnaryOp, v Value) Result {
	switch v.(type) {
	case Long, LongInterval, AnyLongint:
		if op != LogicalNot && op != CastBool && op != CastUnset {
			fatalf("long integer operand %s of unary operator is not supported", v)
		}
	}
	switch op {
	case Negate:
		return negateNumber(v)
	case Plus:
		return ToNumber(v)
	case LogicalNot:
		return Of(negate(BooleanOf(v)))
	case BitNot:
		switch x := v.(type) {
		case Integer:
			return Of(^x)
		case Float:
			return Of(^floatToInteger(float64(x)).(Integer))
		case String:
			b := []byte(x)
			for i := range b {
				b[i] = ^b[i]
			}
			return Of(String(b))
		case AnyString:
			return Of(AnyString{})
		}
		r := ToInteger(v)
		r.Values = []Value{AnyInteger{}}
		return r
	case CastInt:
		return ToInteger(v)
	case CastFloat:
		return ToFloat(v)
	case CastString:
		s, issues := ToString(v)
		return Result{Values: []Value{s}, Issues: issues}
	case CastBool:
		return Of(BooleanOf(v))
	default:
		return Of(Undefined{})
	}
}

func negateNumber(v Value) Result {
	r := ToNumber(v)
	switch x := r.Values[0].(type) {
	case Integer:
		if x == math.MinInt64 {
			r.Values[0] = Float(-float64(x))
		} else {
			r.Values[0] = -x
		}
	case Float:
		r.Values[0] = -x
	case IntegerInterval:
		if x.Lo == math.MinInt64 {
			r.Values[0] = AnyNumeric{}
		} else {
			r.Values[0] = mkInterval(-x.Hi, -x.Lo)
		}
	case FloatInterval:
		r.Values[0] = mkFloatInterval(-x.Hi, -x.Lo)
	}
	return r
}

// IncDec evaluates ++ (inc is true) or -- on v. Null incremented is 1 and null decremented stays null; booleans are
// not changed; non-numeric strings are incremented alphanumerically.
func IncDec(v Value, inc bool) Result {
	switch x := v.(type) {
	case Long, LongInterval, AnyLongint:
		fatalf("long integer operand %s of increment is not supported", v)
	case Undefined:
		if inc {
			return Of(Integer(1))
		}
		return Of(Undefined{})
	case Boolean, AnyBoolean, Array, AnyArray, Object, AnyObject, Resource, AnyResource:
		return Of(v)
	case String:
		n, numeric := parseNumber(string(x))
		if numeric {
			return IncDec(n, inc)
		}
		if x == "" {
			if inc {
				return Of(String("1"))
			}
			return Of(Integer(-1))
		}
		if !inc {
			return Of(x)
		}
		return Of(String(incrementString(string(x))))
	case AnyString:
		return Of(AnyString{}, AnyNumeric{})
	case AnyScalar, AnyValue, AnyCompound:
		return Of(v)
	}
	one := Value(Integer(1))
	if inc {
		return Binary(Add, v, one)
	}
	return Binary(Sub, v, one)
}

// incrementString increments the alphanumeric string s: "a" becomes "b", "Az" becomes "Ba", "zz" becomes "aaa"
func incrementString(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		c := b[i]
		switch {
		case c == 'z':
			b[i] = 'a'
		case c == 'Z':
			b[i] = 'A'
		case c == '9':
			b[i] = '0'
		case (c >= 'a' && c < 'z') || (c >= 'A' && c < 'Z') || (c >= '0' && c < '9'):
			b[i] = c + 1
			return string(b)
		default:
			return string(b)
		}
	}
	// carry out of the first character
	var first byte
	switch {
	case s[0] >= 'a' && s[0] <= 'z':
		first = 'a'
	case s[0] >= 'A' && s[0] <= 'Z':
		first = 'A'
	default:
		first = '1'
	}
	return string(append([]byte{first}, b...))
}
