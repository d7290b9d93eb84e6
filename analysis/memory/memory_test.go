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

package memory

import (
	"errors"
	"math"
	"testing"

	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/values"
	"golang.org/x/exp/slices"
)

func str(s string) values.Value { return values.String(s) }

func num(i int64) values.Value { return values.Integer(i) }

func assign(s *Snapshot, p Path, vs ...values.Value) {
	s.Assign(p, NewEntry(vs...))
}

func expectEntry(t *testing.T, s *Snapshot, p Path, want ...values.Value) {
	t.Helper()
	got := s.ReadValue(p)
	if !got.Equal(NewEntry(want...)) {
		t.Errorf("%s: expected %s, got %s\n%s", p, NewEntry(want...), got, s.Dump())
	}
}

func TestIndexEncoding(t *testing.T) {
	i := Variable(1, "a").Child(Key("0")).Child(FieldNamed("f")).Child(AnyKey)
	if i.String() != "$a@1[0]->f[?]" {
		t.Errorf("unexpected rendering %s", i)
	}
	segs := i.Segments()
	if !slices.Equal(segs, []Segment{Key("0"), FieldNamed("f"), AnyKey}) {
		t.Errorf("unexpected segments %v", segs)
	}
	parent, last, ok := i.Parent()
	if !ok || last != AnyKey || parent != Variable(1, "a").Child(Key("0")).Child(FieldNamed("f")) {
		t.Errorf("unexpected parent %s %s", parent, last)
	}
	if !i.HasAny() || parent.HasAny() {
		t.Errorf("unexpected HasAny")
	}
	if !Variable(1, "a").IsPrefixOf(i) || Variable(1, "ab").IsPrefixOf(i) {
		t.Errorf("unexpected prefix relation")
	}
	// keys with separators are quoted
	if k := Control("x").Child(Key("a]b")).String(); k != `ctl:x["a]b"]` {
		t.Errorf("unexpected rendering %s", k)
	}
	p := VariablePath("a").Index("0").Field("f").AnyIndex()
	if p.String() != "$a[0]->f[?]" || p.IsMust() {
		t.Errorf("unexpected path %s", p)
	}
	if !VariablePath("a").Index("0").IsMust() || VariablePath("a", "b").IsMust() {
		t.Errorf("unexpected must paths")
	}
}

func TestReadUndefined(t *testing.T) {
	s := New()
	expectEntry(t, s, VariablePath("x"), values.Undefined{})
	if s.IsDefined(VariablePath("x")) {
		t.Errorf("x should not be defined")
	}
	assign(s, VariablePath("x"), values.Undefined{})
	if !s.IsDefined(VariablePath("x")) {
		t.Errorf("x is defined with null")
	}
	expectEntry(t, s, VariablePath("y").Index("a").Field("b"), values.Undefined{})
}

func TestStrongAndWeakUpdate(t *testing.T) {
	s := New()
	assign(s, VariablePath("a"), num(1))
	assign(s, VariablePath("a"), num(2))
	expectEntry(t, s, VariablePath("a"), num(2))

	assign(s, VariablePath("b"), str("b"))
	assign(s, VariablePath("a", "b"), str("new"))
	expectEntry(t, s, VariablePath("a"), num(2), str("new"))
	expectEntry(t, s, VariablePath("b"), str("b"), str("new"))

	// writing an unknown variable writes every variable weakly
	assign(s, AnyVariablePath(), num(9))
	expectEntry(t, s, VariablePath("a"), num(2), str("new"), num(9))
	expectEntry(t, s, VariablePath("zz"), values.Undefined{}, num(9))
}

func TestBranchMergeWithUndefined(t *testing.T) {
	thenBranch := New()
	assign(thenBranch, VariablePath("x"), str("a"))
	elseBranch := New()
	merged := New()
	merged.Extend(thenBranch, elseBranch)
	expectEntry(t, merged, VariablePath("x"), values.Undefined{}, str("a"))
}

func buildInputs() []*Snapshot {
	a := New()
	assign(a, VariablePath("x"), num(1))
	assign(a, VariablePath("arr").Index("k"), str("v"))
	a.AssignAlias(VariablePath("r"), VariablePath("x"))
	a.SetWarning(Warning{Kind: "W", Message: "a", Pos: ir.Pos{File: "f.php", Line: 1}})

	b := New()
	assign(b, VariablePath("x"), num(2))
	assign(b, VariablePath("arr").Index("j"), str("w"))
	o := b.CreateObject("f.php:3", "C")
	assign(b, VariablePath("o"), o)
	assign(b, VariablePath("o").Field("f"), num(3))

	c := New()
	assign(c, VariablePath("y"), num(3))
	c.AssignAlias(VariablePath("r"), VariablePath("y"))
	c.SetWarning(Warning{Kind: "W", Message: "c", Pos: ir.Pos{File: "f.php", Line: 2}})
	return []*Snapshot{a, b, c}
}

func TestExtendCommutativeAndIdempotent(t *testing.T) {
	in := buildInputs()
	a, b, c := in[0], in[1], in[2]
	orders := [][]*Snapshot{{a, b, c}, {c, b, a}, {b, a, c}, {a, b, c, a, c}}
	var first *Snapshot
	for i, order := range orders {
		s := New()
		s.Extend(order...)
		if first == nil {
			first = s
			continue
		}
		if !s.Equal(first) {
			t.Errorf("order %d: extend result differs:\n%s\nvs\n%s", i, s.Dump(), first.Dump())
		}
	}
	again := New()
	again.Extend(first)
	if !again.Equal(first) {
		t.Errorf("extending a single snapshot should copy it")
	}
	twice := New()
	twice.Extend(first, first)
	if !twice.Equal(first) {
		t.Errorf("extend is not idempotent:\n%s\nvs\n%s", twice.Dump(), first.Dump())
	}

	expectEntry(t, first, VariablePath("x"), values.Undefined{}, num(1), num(2))
	expectEntry(t, first, VariablePath("arr").Index("k"), values.Undefined{}, str("v"))
	expectEntry(t, first, VariablePath("o").Field("f"), values.Undefined{}, num(3))
	// r is bound to x, to y, or is undefined
	expectEntry(t, first, VariablePath("r"), values.Undefined{}, num(1), num(2), num(3))
	if len(first.ReadWarnings()) != 2 {
		t.Errorf("expected the warnings of both branches, got %v", first.ReadWarnings())
	}
}

func TestExtendLevelDoesNotDependOnOrder(t *testing.T) {
	global, callee := New(), New()
	callee.EnterCallLevel(2)
	for _, order := range [][]*Snapshot{{global, callee}, {callee, global}} {
		s := New()
		s.Extend(order...)
		if s.CallLevel() != 2 {
			t.Errorf("extend of levels %d and %d has level %d, want 2",
				order[0].CallLevel(), order[1].CallLevel(), s.CallLevel())
		}
	}
}

func TestNaNEntries(t *testing.T) {
	nan := values.Float(math.NaN())
	e := NewEntry(nan, nan, values.FloatInterval{Lo: math.NaN(), Hi: 1})
	if !e.Equal(NewEntry(values.AnyFloat{})) {
		t.Errorf("NaN floats should be stored as AnyFloat, got %s", e)
	}
	if !e.Equal(NewEntry(nan)) {
		t.Errorf("entries holding NaN should be equal")
	}
	s := New()
	assign(s, VariablePath("f"), nan)
	s.StartTransaction()
	assign(s, VariablePath("f"), nan)
	if s.CommitTransaction() {
		t.Errorf("assigning NaN again should not change the snapshot")
	}
}

func TestAliasMust(t *testing.T) {
	s := New()
	assign(s, VariablePath("b"), str("old"))
	s.AssignAlias(VariablePath("a"), VariablePath("b"))
	assign(s, VariablePath("a"), str("X"))
	expectEntry(t, s, VariablePath("b"), str("X"))
	assign(s, VariablePath("b"), str("Y"))
	expectEntry(t, s, VariablePath("a"), str("Y"))
}

func TestAliasMay(t *testing.T) {
	left := New()
	assign(left, VariablePath("b"), str("old"))
	assign(left, VariablePath("c"), str("old"))
	right := left.Clone()
	left.AssignAlias(VariablePath("a"), VariablePath("b"))
	right.AssignAlias(VariablePath("a"), VariablePath("c"))
	s := New()
	s.Extend(left, right)
	assign(s, VariablePath("a"), str("new"))
	expectEntry(t, s, VariablePath("b"), str("old"), str("new"))
	expectEntry(t, s, VariablePath("c"), str("old"), str("new"))
	expectEntry(t, s, VariablePath("a"), str("old"), str("new"))
}

func TestAliasRebindAndUnset(t *testing.T) {
	s := New()
	assign(s, VariablePath("b"), num(5))
	s.AssignAlias(VariablePath("a"), VariablePath("b"))
	s.Unset(VariablePath("b"))
	expectEntry(t, s, VariablePath("a"), num(5))
	if s.IsDefined(VariablePath("b")) {
		t.Errorf("b should be unset")
	}

	// rebinding the target of a reference keeps the value of the other references
	assign(s, VariablePath("c"), num(7))
	s.AssignAlias(VariablePath("d"), VariablePath("a"))
	s.AssignAlias(VariablePath("a"), VariablePath("c"))
	expectEntry(t, s, VariablePath("d"), num(5))
	expectEntry(t, s, VariablePath("a"), num(7))
	assign(s, VariablePath("a"), num(8))
	expectEntry(t, s, VariablePath("c"), num(8))
	expectEntry(t, s, VariablePath("d"), num(5))
}

func TestArrayCopySemantics(t *testing.T) {
	s := New()
	assign(s, VariablePath("a").Index("0"), num(1))
	assign(s, VariablePath("a").Index("1").Index("x"), str("deep"))
	s.Copy(VariablePath("a"), VariablePath("b"))
	assign(s, VariablePath("b").Index("0"), num(2))
	assign(s, VariablePath("b").Index("1").Index("x"), str("changed"))
	expectEntry(t, s, VariablePath("a").Index("0"), num(1))
	expectEntry(t, s, VariablePath("a").Index("1").Index("x"), str("deep"))
	expectEntry(t, s, VariablePath("b").Index("0"), num(2))
	expectEntry(t, s, VariablePath("b").Index("1").Index("x"), str("changed"))
	expectEntry(t, s, VariablePath("b"), values.Array{Owner: Variable(Global, "b")})
	keys, unknown := s.Keys(VariablePath("b"))
	if !slices.Equal(keys, []string{"0", "1"}) || unknown {
		t.Errorf("unexpected keys %v %v", keys, unknown)
	}
	// self assignment of an element
	assign(s, VariablePath("a").Index("2"), s.ReadValue(VariablePath("a")).Values()...)
	expectEntry(t, s, VariablePath("a").Index("2").Index("0"), num(1))
	expectEntry(t, s, VariablePath("a").Index("2").Index("2"), values.Undefined{})
}

func TestReferenceInArrayIsShared(t *testing.T) {
	s := New()
	assign(s, VariablePath("a").Index("0"), num(1))
	s.AssignAlias(VariablePath("x"), VariablePath("a").Index("0"))
	s.Copy(VariablePath("a"), VariablePath("b"))
	assign(s, VariablePath("b").Index("0"), num(3))
	expectEntry(t, s, VariablePath("x"), num(3))
	expectEntry(t, s, VariablePath("a").Index("0"), num(3))

	// overwriting the array keeps the referenced element alive
	assign(s, VariablePath("a"), num(0))
	expectEntry(t, s, VariablePath("x"), num(3))
	assign(s, VariablePath("x"), num(4))
	expectEntry(t, s, VariablePath("b").Index("0"), num(4))
}

func TestUnknownKeys(t *testing.T) {
	s := New()
	assign(s, VariablePath("a").Index("0"), num(1))
	assign(s, VariablePath("a").Index("k"), str("v"))
	assign(s, VariablePath("a").AnyIndex(), str("z"))
	expectEntry(t, s, VariablePath("a").Index("0"), num(1), str("z"))
	expectEntry(t, s, VariablePath("a").Index("k"), str("v"), str("z"))
	expectEntry(t, s, VariablePath("a").Index("5"), values.Undefined{}, str("z"))
	expectEntry(t, s, VariablePath("a").AnyIndex(), values.Undefined{}, num(1), str("v"), str("z"))
	keys, unknown := s.Keys(VariablePath("a"))
	if !slices.Equal(keys, []string{"0", "k"}) || !unknown {
		t.Errorf("unexpected keys %v %v", keys, unknown)
	}
	if e := s.ReadElements(VariablePath("a")); !e.Equal(NewEntry(num(1), str("v"), str("z"), values.Undefined{})) {
		t.Errorf("unexpected elements %s", e)
	}
}

func TestStringIndexAndScalars(t *testing.T) {
	s := New()
	assign(s, VariablePath("s"), str("abc"))
	expectEntry(t, s, VariablePath("s").Index("1"), str("b"))
	expectEntry(t, s, VariablePath("s").Index("-1"), str("c"))
	assign(s, VariablePath("n"), num(3))
	expectEntry(t, s, VariablePath("n").Index("0"), values.Undefined{})
	assign(s, VariablePath("n").Index("0"), num(1))
	expectEntry(t, s, VariablePath("n"), num(3))
	assign(s, VariablePath("u"), values.AnyArray{})
	expectEntry(t, s, VariablePath("u").Index("0").Field("f"), values.AnyValue{})
}

func TestObjectMultipleObjectsInVariableWrite(t *testing.T) {
	left := New()
	o1 := left.CreateObject("f.php:3", "C")
	assign(left, VariablePath("obj"), o1)
	assign(left, VariablePath("obj").Field("field"), str("value"))
	right := New()
	o2 := right.CreateObject("f.php:5", "C")
	assign(right, VariablePath("obj"), o2)
	assign(right, VariablePath("obj").Field("field"), str("value"))

	s := New()
	s.Extend(left, right)
	assign(s, VariablePath("obj").Field("field"), str("newValue"))
	expectEntry(t, s, VariablePath("obj").Field("field"), str("newValue"))

	// once an object is held by another variable, writing through a variable holding several objects is weak
	s.Copy(VariablePath("obj"), VariablePath("other"))
	assign(s, VariablePath("obj").Field("field"), str("last"))
	expectEntry(t, s, VariablePath("obj").Field("field"), str("newValue"), str("last"))
}

func TestObjectsAreHandles(t *testing.T) {
	s := New()
	o := s.CreateObject("f.php:1", "C")
	assign(s, VariablePath("a"), o)
	s.Copy(VariablePath("a"), VariablePath("b"))
	assign(s, VariablePath("b").Field("f"), num(1))
	expectEntry(t, s, VariablePath("a").Field("f"), num(1))
	if names := s.FieldNames(o); !slices.Equal(names, []string{"f"}) {
		t.Errorf("unexpected fields %v", names)
	}
	// writing a field of null creates an object
	assign(s, VariablePath("n").Field("g"), num(2))
	if objs := s.Objects(VariablePath("n")); len(objs) != 1 || objs[0].Class != "stdClass" {
		t.Errorf("expected a stdClass object, got %v", objs)
	}
}

func TestRecencyAbstraction(t *testing.T) {
	s := New()
	first := s.CreateObject("f.php:1", "C")
	assign(s, VariablePath("p"), first)
	assign(s, VariablePath("p").Field("f"), num(1))
	second := s.CreateObject("f.php:1", "C")
	assign(s, VariablePath("q"), second)
	assign(s, VariablePath("q").Field("f"), num(2))

	summary := values.Object{Site: "f.php:1", Class: "C", Summary: true}
	expectEntry(t, s, VariablePath("p"), summary)
	expectEntry(t, s, VariablePath("p").Field("f"), num(1))
	expectEntry(t, s, VariablePath("q").Field("f"), num(2))
	// the summary object stands for several objects: its fields are weakly updated
	assign(s, VariablePath("p").Field("f"), num(3))
	expectEntry(t, s, VariablePath("p").Field("f"), num(1), num(3))

	s.CreateObject("f.php:1", "C")
	expectEntry(t, s, VariablePath("q"), summary)
	expectEntry(t, s, VariablePath("q").Field("f"), num(1), num(2), num(3))
}

func TestMergeWithCallLevel(t *testing.T) {
	caller := New()
	assign(caller, VariablePath("g"), num(1))
	assign(caller, VariablePath("local"), str("l"))

	callee := caller.Clone()
	callee.EnterCallLevel(1)
	assign(callee, VariablePath("x"), num(5))
	assign(callee, VariablePath("g").At(Global), num(2))
	assign(callee, ControlPath(ReturnName).At(1), str("r"))
	expectEntry(t, callee, VariablePath("local"), values.Undefined{})

	out := New()
	out.MergeWithCallLevel(Global, caller, []*Snapshot{callee})
	if out.CallLevel() != Global {
		t.Errorf("expected the caller level")
	}
	expectEntry(t, out, VariablePath("g"), num(2))
	expectEntry(t, out, VariablePath("local"), str("l"))
	if out.IsDefined(VariablePath("x").At(1)) || out.IsDefined(ControlPath(ReturnName).At(1)) {
		t.Errorf("callee locations should be dropped:\n%s", out.Dump())
	}
}

func TestMergeRecursiveCall(t *testing.T) {
	caller := New()
	caller.EnterCallLevel(1)
	assign(caller, VariablePath("x"), num(7))
	callee := caller.Clone()
	assign(callee, VariablePath("x"), num(5))

	out := New()
	out.MergeWithCallLevel(1, caller, []*Snapshot{callee})
	expectEntry(t, out, VariablePath("x"), num(5), num(7))
}

func TestTransactions(t *testing.T) {
	s := New()
	s.StartTransaction()
	assign(s, VariablePath("x"), num(1))
	if !s.CommitTransaction() || !s.HasChanges() {
		t.Errorf("expected a change")
	}
	s.StartTransaction()
	assign(s, VariablePath("x"), num(1))
	if s.CommitTransaction() {
		t.Errorf("writing the same value should not change the snapshot:\n%s", s.Dump())
	}
	defer func() {
		var fatal *values.FatalError
		if err, ok := recover().(error); !ok || !errors.As(err, &fatal) {
			t.Errorf("expected a fatal error when writing a committed snapshot")
		}
	}()
	assign(s, VariablePath("x"), num(2))
}

func TestWidenChanged(t *testing.T) {
	s := New()
	assign(s, VariablePath("i"), num(0))
	assign(s, VariablePath("test"), str("keep"))
	s.StartTransaction()
	assign(s, VariablePath("i"), num(0), num(1))
	if n := s.WidenChanged(); n != 1 {
		t.Errorf("expected one widened location, got %d", n)
	}
	expectEntry(t, s, VariablePath("i"), values.AnyInteger{})
	expectEntry(t, s, VariablePath("test"), str("keep"))
	s.CommitTransaction()
}

func TestDeclarations(t *testing.T) {
	s := New()
	s.DeclareFunction("Foo", values.Native{Name: "foo"})
	if e := s.ResolveFunction("foo"); !e.Equal(NewEntry(values.Native{Name: "foo"})) {
		t.Errorf("unexpected declaration %s", e)
	}
	if _, ok := s.ReadConstant("C"); ok {
		t.Errorf("C is not declared")
	}
	s.DeclareConstant("C", NewEntry(num(1)))
	if e, ok := s.ReadConstant("C"); !ok || !e.Equal(NewEntry(num(1))) {
		t.Errorf("unexpected constant %s", e)
	}
	s.ClearTemporaries(Global)
	assign(s, TemporaryPath("t"), num(1))
	s.ClearTemporaries(Global)
	if s.IsDefined(TemporaryPath("t")) {
		t.Errorf("temporaries should be cleared")
	}
}
