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

import (
	"math"
	"strings"
)

// compareScalars evaluates a comparison operator between two scalars, concrete or abstract
func compareScalars(op BinaryOp, left, right Value) Value {
	switch op {
	case Identical:
		return identical(left, right)
	case NotIdentical:
		return negate(identical(left, right))
	case Equal:
		return looseEqual(left, right)
	case NotEqual:
		return negate(looseEqual(left, right))
	}
	if IsConcrete(left) && IsConcrete(right) {
		c := compareConcrete(left, right)
		switch op {
		case LessThan:
			return Boolean(c < 0)
		case LessOrEqual:
			return Boolean(c <= 0)
		case GreaterThan:
			return Boolean(c > 0)
		default:
			return Boolean(c >= 0)
		}
	}
	return compareAbstract(op, left, right)
}

func negate(v Value) Value {
	if b, ok := v.(Boolean); ok {
		return !b
	}
	return v
}

// identical implements === on scalars: values of different runtime types are never identical
func identical(left, right Value) Value {
	if TypesOf(left)&TypesOf(right) == 0 {
		return Boolean(false)
	}
	if IsConcrete(left) && IsConcrete(right) {
		if lf, ok := left.(Float); ok {
			// NaN is not identical to itself
			return Boolean(float64(lf) == float64(right.(Float)))
		}
		return Boolean(left == right)
	}
	// an interval and a concrete value of the same type
	lo1, hi1, ok1 := bounds(left)
	lo2, hi2, ok2 := bounds(right)
	if ok1 && ok2 && (hi1 < lo2 || hi2 < lo1) {
		return Boolean(false)
	}
	return AnyBoolean{}
}

// looseEqual implements == on scalars
func looseEqual(left, right Value) Value {
	if IsConcrete(left) && IsConcrete(right) {
		return Boolean(compareConcrete(left, right) == 0 && !isNaN(left) && !isNaN(right))
	}
	lt, rt := TypesOf(left), TypesOf(right)
	// comparisons with booleans and null are comparisons of the boolean conversions, except null and strings
	if lt == TBool || rt == TBool || (lt == TNull && rt&TString == 0) || (rt == TNull && lt&TString == 0) {
		lb, lok := ToBoolean(left)
		rb, rok := ToBoolean(right)
		if lok && rok {
			return Boolean(lb == rb)
		}
		return AnyBoolean{}
	}
	if lt|rt == TString {
		// a concrete non-numeric string can only be equal to a string with the same content
		return AnyBoolean{}
	}
	if lt&(TString|TNull|TBool) == 0 && rt&(TString|TNull|TBool) == 0 {
		lo1, hi1, ok1 := bounds(numberOf(left))
		lo2, hi2, ok2 := bounds(numberOf(right))
		if ok1 && ok2 {
			if hi1 < lo2 || hi2 < lo1 {
				return Boolean(false)
			}
			if lo1 == hi1 && lo2 == hi2 && lo1 == lo2 {
				return Boolean(true)
			}
		}
	}
	return AnyBoolean{}
}

func isNaN(v Value) bool {
	f, ok := v.(Float)
	return ok && math.IsNaN(float64(f))
}

func numberOf(v Value) Value {
	r := ToNumber(v)
	return r.Values[0]
}

// compareAbstract evaluates the ordering operators when an operand is abstract
func compareAbstract(op BinaryOp, left, right Value) Value {
	lt, rt := TypesOf(left), TypesOf(right)
	if lt&(TString|TNull|TBool) != 0 || rt&(TString|TNull|TBool) != 0 {
		return AnyBoolean{}
	}
	lo1, hi1, ok1 := bounds(numberOf(left))
	lo2, hi2, ok2 := bounds(numberOf(right))
	if !ok1 || !ok2 {
		return AnyBoolean{}
	}
	switch op {
	case LessThan:
		return decide(hi1 < lo2, lo1 >= hi2)
	case LessOrEqual:
		return decide(hi1 <= lo2, lo1 > hi2)
	case GreaterThan:
		return decide(lo1 > hi2, hi1 <= lo2)
	default:
		return decide(lo1 >= hi2, hi1 < lo2)
	}
}

func decide(always, never bool) Value {
	switch {
	case always:
		return Boolean(true)
	case never:
		return Boolean(false)
	}
	return AnyBoolean{}
}

// bounds returns the numeric range of integer and float values, concrete or intervals
func bounds(v Value) (lo, hi float64, ok bool) {
	switch x := v.(type) {
	case Integer:
		return float64(x), float64(x), true
	case Float:
		if math.IsNaN(float64(x)) {
			return 0, 0, false
		}
		return float64(x), float64(x), true
	case IntegerInterval:
		return float64(x.Lo), float64(x.Hi), true
	case FloatInterval:
		return x.Lo, x.Hi, true
	}
	return 0, 0, false
}

// compareConcrete compares two concrete scalars with the loose comparison rules, returning -1, 0 or 1
func compareConcrete(left, right Value) int {
	_, lnull := left.(Undefined)
	_, rnull := right.(Undefined)
	ls, lstr := left.(String)
	rs, rstr := right.(String)
	switch {
	case lnull && rstr:
		return strings.Compare("", string(rs))
	case rnull && lstr:
		return strings.Compare(string(ls), "")
	case lstr && rstr:
		ln, lnum := parseNumber(string(ls))
		rn, rnum := parseNumber(string(rs))
		if lnum && rnum {
			return compareNumbers(ln, rn)
		}
		return strings.Compare(string(ls), string(rs))
	}
	_, lbool := left.(Boolean)
	_, rbool := right.(Boolean)
	if lbool || rbool || lnull || rnull {
		lb, _ := ToBoolean(left)
		rb, _ := ToBoolean(right)
		return compareBools(lb, rb)
	}
	return compareNumbers(numberOf(left), numberOf(right))
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

func compareNumbers(a, b Value) int {
	if ai, ok := a.(Integer); ok {
		if bi, ok := b.(Integer); ok {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			}
			return 0
		}
	}
	af, _, _ := bounds(a)
	bf, _, _ := bounds(b)
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	}
	return 0
}
