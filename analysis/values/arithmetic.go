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

// arithmetic evaluates + - * / % on operands converted to numbers.
// Division and modulo by a divisor that is zero, false or null produce false and a DIVISION_BY_ZERO issue. When the
// divisor may be zero, the result contains false and the result of the division by the non-zero divisors.
func arithmetic(op BinaryOp, left, right Value) Result {
	lr, rr := ToNumber(left), ToNumber(right)
	res := Result{Issues: append(append([]Issue{}, lr.Issues...), rr.Issues...)}
	l, r := lr.Values[0], rr.Values[0]
	if op == Mod {
		l, r = numberToInteger(l), numberToInteger(r)
	}
	if op == Div || op == Mod {
		zero, maybe := mayBeZero(r)
		if zero || maybe {
			res.Values = append(res.Values, Boolean(false))
			res.Issues = append(res.Issues, Issue{DivisionByZero, "division by zero"})
		}
		if zero {
			return res
		}
	}
	return res.Merge(numeric(op, l, r))
}

// mayBeZero returns whether the number n is zero, or possibly zero
func mayBeZero(n Value) (zero bool, maybe bool) {
	switch x := n.(type) {
	case Integer:
		return x == 0, false
	case Float:
		return x == 0, false
	case IntegerInterval:
		if x.Lo == 0 && x.Hi == 0 {
			return true, false
		}
		return false, x.Lo <= 0 && x.Hi >= 0
	case FloatInterval:
		if x.Lo == 0 && x.Hi == 0 {
			return true, false
		}
		return false, x.Lo <= 0 && x.Hi >= 0
	}
	return false, true
}

// numeric evaluates an arithmetic operator on two numbers, dispatching on the left then the right operand
func numeric(op BinaryOp, l, r Value) Result {
	switch a := l.(type) {
	case Integer:
		switch b := r.(type) {
		case Integer:
			return Of(intOp(op, int64(a), int64(b)))
		case Float:
			return Of(floatOp(op, float64(a), float64(b)))
		case IntegerInterval:
			return Of(intervalOp(op, IntegerInterval{int64(a), int64(a)}, b))
		case FloatInterval:
			return Of(floatIntervalOp(op, FloatInterval{float64(a), float64(a)}, b))
		}
	case Float:
		switch b := r.(type) {
		case Integer:
			return Of(floatOp(op, float64(a), float64(b)))
		case Float:
			return Of(floatOp(op, float64(a), float64(b)))
		case IntegerInterval:
			return Of(floatIntervalOp(op, FloatInterval{float64(a), float64(a)}, FloatInterval{float64(b.Lo), float64(b.Hi)}))
		case FloatInterval:
			return Of(floatIntervalOp(op, FloatInterval{float64(a), float64(a)}, b))
		}
	case IntegerInterval:
		switch b := r.(type) {
		case Integer:
			return Of(intervalOp(op, a, IntegerInterval{int64(b), int64(b)}))
		case Float:
			return Of(floatIntervalOp(op, FloatInterval{float64(a.Lo), float64(a.Hi)}, FloatInterval{float64(b), float64(b)}))
		case IntegerInterval:
			return Of(intervalOp(op, a, b))
		case FloatInterval:
			return Of(floatIntervalOp(op, FloatInterval{float64(a.Lo), float64(a.Hi)}, b))
		}
	case FloatInterval:
		switch b := r.(type) {
		case Integer:
			return Of(floatIntervalOp(op, a, FloatInterval{float64(b), float64(b)}))
		case Float:
			return Of(floatIntervalOp(op, a, FloatInterval{float64(b), float64(b)}))
		case IntegerInterval:
			return Of(floatIntervalOp(op, a, FloatInterval{float64(b.Lo), float64(b.Hi)}))
		case FloatInterval:
			return Of(floatIntervalOp(op, a, b))
		}
	}
	return Of(abstractNumeric(op, l, r))
}

// abstractNumeric returns the abstract result type of an arithmetic operation on abstract numbers.
// Integer overflow of abstract integers is not modeled.
func abstractNumeric(op BinaryOp, l, r Value) Value {
	if op == Mod {
		return AnyInteger{}
	}
	lt, rt := TypesOf(l), TypesOf(r)
	switch {
	case lt == TInt && rt == TInt && op != Div:
		return AnyInteger{}
	case lt == TFloat || rt == TFloat:
		return AnyFloat{}
	}
	return AnyNumeric{}
}

func mkInterval(lo, hi int64) Value {
	if lo == hi {
		return Integer(lo)
	}
	return IntegerInterval{lo, hi}
}

func mkFloatInterval(lo, hi float64) Value {
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return AnyFloat{}
	}
	if lo == hi {
		return Float(lo)
	}
	return FloatInterval{lo, hi}
}

func addOverflows(a, b int64) bool {
	c := a + b
	return (c > a) != (b > 0)
}

func subOverflows(a, b int64) bool {
	c := a - b
	return (c < a) != (b > 0)
}

func mulOverflows(a, b int64) bool {
	if a == 0 || b == 0 {
		return false
	}
	c := a * b
	return c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64)
}

// intOp evaluates op on concrete integers; integer overflow produces a float. The divisor is not zero.
func intOp(op BinaryOp, a, b int64) Value {
	switch op {
	case Add:
		if addOverflows(a, b) {
			return Float(float64(a) + float64(b))
		}
		return Integer(a + b)
	case Sub:
		if subOverflows(a, b) {
			return Float(float64(a) - float64(b))
		}
		return Integer(a - b)
	case Mul:
		if mulOverflows(a, b) {
			return Float(float64(a) * float64(b))
		}
		return Integer(a * b)
	case Div:
		if a == math.MinInt64 && b == -1 {
			return Float(-float64(a))
		}
		if a%b == 0 {
			return Integer(a / b)
		}
		return Float(float64(a) / float64(b))
	default:
		if b == -1 {
			return Integer(0)
		}
		return Integer(a % b)
	}
}

// floatOp evaluates op on concrete floats. The divisor is not zero.
func floatOp(op BinaryOp, a, b float64) Value {
	switch op {
	case Add:
		return Float(a + b)
	case Sub:
		return Float(a - b)
	case Mul:
		return Float(a * b)
	case Div:
		return Float(a / b)
	default:
		return intOp(Mod, int64(a), int64(b))
	}
}

// intervalOp evaluates op on integer intervals
func intervalOp(op BinaryOp, a, b IntegerInterval) Value {
	switch op {
	case Add:
		if addOverflows(a.Lo, b.Lo) || addOverflows(a.Hi, b.Hi) {
			return AnyNumeric{}
		}
		return mkInterval(a.Lo+b.Lo, a.Hi+b.Hi)
	case Sub:
		if subOverflows(a.Lo, b.Hi) || subOverflows(a.Hi, b.Lo) {
			return AnyNumeric{}
		}
		return mkInterval(a.Lo-b.Hi, a.Hi-b.Lo)
	case Mul:
		corners := [4][2]int64{{a.Lo, b.Lo}, {a.Lo, b.Hi}, {a.Hi, b.Lo}, {a.Hi, b.Hi}}
		lo, hi := int64(math.MaxInt64), int64(math.MinInt64)
		for _, c := range corners {
			if mulOverflows(c[0], c[1]) {
				return AnyNumeric{}
			}
			p := c[0] * c[1]
			if p < lo {
				lo = p
			}
			if p > hi {
				hi = p
			}
		}
		return mkInterval(lo, hi)
	case Mod:
		if b.Lo == math.MinInt64 {
			return AnyInteger{}
		}
		m := b.Hi
		if -b.Lo > m {
			m = -b.Lo
		}
		if m == 0 {
			return AnyInteger{}
		}
		switch {
		case a.Lo >= 0:
			return mkInterval(0, minInt(a.Hi, m-1))
		case a.Hi <= 0:
			return mkInterval(maxInt(a.Lo, -(m-1)), 0)
		}
		return mkInterval(-(m - 1), m-1)
	}
	return AnyNumeric{}
}

// floatIntervalOp evaluates op on float intervals
func floatIntervalOp(op BinaryOp, a, b FloatInterval) Value {
	var corners [4]float64
	switch op {
	case Add:
		return mkFloatInterval(a.Lo+b.Lo, a.Hi+b.Hi)
	case Sub:
		return mkFloatInterval(a.Lo-b.Hi, a.Hi-b.Lo)
	case Mul:
		corners = [4]float64{a.Lo * b.Lo, a.Lo * b.Hi, a.Hi * b.Lo, a.Hi * b.Hi}
	case Div:
		if b.Lo <= 0 && b.Hi >= 0 {
			return AnyFloat{}
		}
		corners = [4]float64{a.Lo / b.Lo, a.Lo / b.Hi, a.Hi / b.Lo, a.Hi / b.Hi}
	default:
		return AnyInteger{}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range corners {
		lo = math.Min(lo, c)
		hi = math.Max(hi, c)
	}
	return mkFloatInterval(lo, hi)
}

func minInt(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
