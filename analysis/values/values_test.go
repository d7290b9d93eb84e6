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
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func expectValues(t *testing.T, what string, r Result, want ...Value) {
	t.Helper()
	if diff := cmp.Diff(want, r.Values); diff != "" {
		t.Errorf("%s: unexpected values (-want +got):\n%s", what, diff)
	}
}

func TestDivisionByZero(t *testing.T) {
	for _, zero := range []Value{Integer(0), Float(0), Boolean(false), Undefined{}, String("0"), String("abc")} {
		for _, op := range []BinaryOp{Div, Mod} {
			r := Binary(op, Integer(5), zero)
			expectValues(t, "5 "+op.String()+" "+zero.String(), r, Boolean(false))
			if len(r.Issues) != 1 || r.Issues[0].Kind != DivisionByZero {
				t.Errorf("5 %s %s: expected one DIVISION_BY_ZERO issue, got %v", op, zero, r.Issues)
			}
		}
	}
	// modulo converts the divisor to an integer
	r := Binary(Mod, Integer(5), Float(0.5))
	expectValues(t, "5 % 0.5", r, Boolean(false))
}

func TestDivisionByPossiblyZero(t *testing.T) {
	r := Binary(Div, Integer(10), IntegerInterval{-1, 1})
	if len(r.Issues) != 1 || r.Issues[0].Kind != DivisionByZero {
		t.Fatalf("expected a DIVISION_BY_ZERO issue, got %v", r.Issues)
	}
	if len(r.Values) != 2 || r.Values[0] != Boolean(false) {
		t.Errorf("expected false and the non-zero outcome, got %v", r.Values)
	}
	r = Binary(Mod, Integer(7), AnyInteger{})
	expectValues(t, "7 % AnyInteger", r, Boolean(false), AnyInteger{})
	r = Binary(Mod, Integer(7), IntegerInterval{1, 3})
	expectValues(t, "7 % [1..3]", r, IntegerInterval{0, 2})
	if len(r.Issues) != 0 {
		t.Errorf("non-zero divisor should not raise issues")
	}
}

func TestLongIsFatal(t *testing.T) {
	defer func() {
		x := recover()
		err, ok := x.(error)
		var fatal *FatalError
		if !ok || !errors.As(err, &fatal) {
			t.Fatalf("expected a *FatalError panic, got %v", x)
		}
	}()
	Binary(Add, Integer(1), Long(2))
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		op   BinaryOp
		l, r Value
		want Value
	}{
		{Add, Integer(1), Integer(2), Integer(3)},
		{Add, Integer(math.MaxInt64), Integer(1), Float(float64(math.MaxInt64) + 1)},
		{Sub, String("10"), Integer(4), Integer(6)},
		{Mul, String("1.5"), Integer(2), Float(3)},
		{Div, Integer(6), Integer(3), Integer(2)},
		{Div, Integer(7), Integer(2), Float(3.5)},
		{Mod, Integer(-7), Integer(3), Integer(-1)},
		{Add, Boolean(true), Undefined{}, Integer(1)},
		{Add, IntegerInterval{0, 5}, Integer(1), IntegerInterval{1, 6}},
		{Mul, IntegerInterval{-2, 3}, IntegerInterval{-1, 4}, IntegerInterval{-8, 12}},
		{Add, AnyInteger{}, Integer(1), AnyInteger{}},
		{Add, AnyFloat{}, Integer(1), AnyFloat{}},
		{Add, AnyString{}, Integer(1), AnyNumeric{}},
		{Sub, FloatInterval{0, 1}, Float(0.5), FloatInterval{-0.5, 0.5}},
	}
	for _, c := range cases {
		r := Binary(c.op, c.l, c.r)
		expectValues(t, c.l.String()+" "+c.op.String()+" "+c.r.String(), r, c.want)
	}
}

func TestComparison(t *testing.T) {
	cases := []struct {
		op   BinaryOp
		l, r Value
		want Value
	}{
		{Equal, Integer(1), String("1"), Boolean(true)},
		{Identical, Integer(1), String("1"), Boolean(false)},
		{Equal, String("abc"), Integer(0), Boolean(true)},
		{Equal, Undefined{}, Boolean(false), Boolean(true)},
		{Equal, Undefined{}, String(""), Boolean(true)},
		{Equal, String("1e1"), String("10"), Boolean(true)},
		{LessThan, String("a"), String("b"), Boolean(true)},
		{LessThan, Integer(3), Float(2.5), Boolean(false)},
		{NotIdentical, AnyInteger{}, AnyString{}, Boolean(true)},
		{Identical, AnyInteger{}, Integer(1), AnyBoolean{}},
		{LessThan, IntegerInterval{0, 10}, Integer(20), Boolean(true)},
		{GreaterOrEqual, IntegerInterval{0, 10}, Integer(5), AnyBoolean{}},
		{LessThan, AnyInteger{}, Integer(1000), AnyBoolean{}},
		{Equal, AnyBoolean{}, Boolean(true), AnyBoolean{}},
		{Equal, Float(math.NaN()), Float(math.NaN()), Boolean(false)},
	}
	for _, c := range cases {
		r := Binary(c.op, c.l, c.r)
		expectValues(t, c.l.String()+" "+c.op.String()+" "+c.r.String(), r, c.want)
	}
}

func TestObjectScalar(t *testing.T) {
	o := Object{Site: "a.php#3", Class: "Foo"}
	for _, s := range []Value{Integer(1), AnyInteger{}, AnyString{}, AnyScalar{}} {
		expectValues(t, "object === scalar", Binary(Identical, o, s), Boolean(false))
		expectValues(t, "scalar !== object", Binary(NotIdentical, s, o), Boolean(true))
	}
	r := Binary(LessThan, o, Integer(1))
	expectValues(t, "object < 1", r, AnyBoolean{})
	if len(r.Issues) != 1 || r.Issues[0].Kind != ObjectConversion {
		t.Errorf("expected an OBJECT_CONVERSION issue, got %v", r.Issues)
	}
	expectValues(t, "object == null", Binary(Equal, o, Undefined{}), Boolean(false))
	expectValues(t, "object === object", Binary(Identical, o, o), Boolean(true))
	summary := o
	summary.Summary = true
	expectValues(t, "summary === summary", Binary(Identical, summary, summary), AnyBoolean{})
	expectValues(t, "object && 0", Binary(And, o, Integer(0)), Boolean(false))
}

func TestLogicalAndBitwise(t *testing.T) {
	expectValues(t, "1 && AnyBoolean", Binary(And, Integer(1), AnyBoolean{}), AnyBoolean{})
	expectValues(t, "0 && AnyBoolean", Binary(And, Integer(0), AnyBoolean{}), Boolean(false))
	expectValues(t, "AnyBoolean || 'a'", Binary(Or, AnyBoolean{}, String("a")), Boolean(true))
	expectValues(t, "1 xor 1", Binary(Xor, Integer(1), Integer(1)), Boolean(false))
	expectValues(t, "6 & 3", Binary(BitAnd, Integer(6), Integer(3)), Integer(2))
	expectValues(t, "1 << 3", Binary(ShiftLeft, Integer(1), Integer(3)), Integer(8))
	expectValues(t, "-8 >> 70", Binary(ShiftRight, Integer(-8), Integer(70)), Integer(-1))
	expectValues(t, "'ab' | 'c'", Binary(BitOr, String("ab"), String("c")), String("cb"))
	r := Binary(ShiftLeft, Integer(1), Integer(-1))
	if len(r.Issues) != 1 || r.Issues[0].Kind != NegativeShift {
		t.Errorf("expected a NEGATIVE_SHIFT issue, got %v", r.Issues)
	}
}

func TestConversions(t *testing.T) {
	strs := []struct {
		v    Value
		want Value
	}{
		{Undefined{}, String("")},
		{Boolean(true), String("1")},
		{Integer(-3), String("-3")},
		{Float(1.5), String("1.5")},
		{Float(2), String("2")},
		{Resource{ID: 4}, String("Resource id #4")},
		{AnyInteger{}, AnyString{}},
	}
	for _, c := range strs {
		got, _ := ToString(c.v)
		if got != c.want {
			t.Errorf("ToString(%s): expected %s, got %s", c.v, c.want, got)
		}
	}
	if _, issues := ToString(Object{Site: "s", Class: "C"}); len(issues) != 1 {
		t.Errorf("converting an object to a string should raise an issue")
	}
	for _, c := range []struct {
		s       string
		want    Value
		numeric bool
	}{
		{"12", Integer(12), true},
		{" 12 ", Integer(12), true},
		{"12abc", Integer(12), false},
		{"1.5e3", Float(1500), true},
		{".5", Float(0.5), true},
		{"abc", Integer(0), false},
		{"-", Integer(0), false},
	} {
		got, numeric := parseNumber(c.s)
		if got != c.want || numeric != c.numeric {
			t.Errorf("parseNumber(%q): expected %s/%v, got %s/%v", c.s, c.want, c.numeric, got, numeric)
		}
	}
	if b, known := ToBoolean(String("0")); !known || b {
		t.Errorf("\"0\" should be false")
	}
	if _, known := ToBoolean(IntegerInterval{-1, 1}); known {
		t.Errorf("[-1..1] has no known boolean value")
	}
	if k, ok := ToKey(Float(3.7)); !ok || k != "3" {
		t.Errorf("float keys are truncated, got %q", k)
	}
	if KeyValue("3") != Integer(3) || KeyValue("03") != String("03") {
		t.Errorf("only canonical integer keys are integers")
	}
}

func TestConcatAndUnary(t *testing.T) {
	expectValues(t, "'a' . 1", Concat(String("a"), Integer(1)), String("a1"))
	expectValues(t, "'a' . AnyInteger", Concat(String("a"), AnyInteger{}), AnyString{})
	expectValues(t, "-5", Unary(Negate, Integer(5)), Integer(-5))
	expectValues(t, "!AnyBoolean", Unary(LogicalNot, AnyBoolean{}), AnyBoolean{})
	expectValues(t, "!''", Unary(LogicalNot, String("")), Boolean(true))
	expectValues(t, "(int)'12abc'", Unary(CastInt, String("12abc")), Integer(12))
	expectValues(t, "(float)[1..2]", Unary(CastFloat, IntegerInterval{1, 2}), FloatInterval{1, 2})
	expectValues(t, "null++", IncDec(Undefined{}, true), Integer(1))
	expectValues(t, "'Az'++", IncDec(String("Az"), true), String("Ba"))
	expectValues(t, "'zz'++", IncDec(String("zz"), true), String("aaa"))
	expectValues(t, "'9'++", IncDec(String("9"), true), Integer(10))
	expectValues(t, "AnyInteger--", IncDec(AnyInteger{}, false), AnyInteger{})
}

func TestWidenAndJoin(t *testing.T) {
	for v, want := range map[Value]Value{
		Integer(4):            AnyInteger{},
		IntegerInterval{1, 9}: AnyInteger{},
		Float(1.5):            AnyFloat{},
		String("a"):           AnyString{},
		Boolean(true):         Boolean(true),
		Object{Site: "s"}:     Object{Site: "s"},
		AnyInteger{}:          AnyInteger{},
	} {
		if got := Widen(v); got != want {
			t.Errorf("Widen(%s): expected %s, got %s", v, want, got)
		}
	}
	if j, ok := Join(Integer(3), IntegerInterval{-1, 1}); !ok || j != (IntegerInterval{-1, 3}) {
		t.Errorf("unexpected join %v", j)
	}
	if _, ok := Join(Integer(3), Float(1)); ok {
		t.Errorf("floats cannot be joined with integers")
	}
	if !Covers(AnyScalar{}, Integer(1)) || Covers(AnyInteger{}, String("1")) || !Covers(AnyValue{}, Undefined{}) {
		t.Errorf("unexpected coverage")
	}
}

func TestAbstractValuesEqualByType(t *testing.T) {
	m := map[Value]int{}
	m[AnyInteger{}]++
	m[AnyInteger{}]++
	m[Integer(1)]++
	m[Float(1)]++
	if len(m) != 3 || m[AnyInteger{}] != 2 {
		t.Errorf("values should be equal by structure, got %v", m)
	}
	if !IsAbstract(AnyArray{}) || IsAbstract(String("a")) || !IsAbstract(IntegerInterval{0, 1}) {
		t.Errorf("unexpected abstractness")
	}
	if !IsScalar(AnyNumeric{}) || IsScalar(AnyCompound{}) || IsScalar(AnyValue{}) {
		t.Errorf("unexpected scalarness")
	}
}
