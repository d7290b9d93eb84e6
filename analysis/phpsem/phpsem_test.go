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

package phpsem_test

import (
	"testing"

	"github.com/awslabs/ar-php-tools/analysis/flow"
	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/phpsem"
	"github.com/awslabs/ar-php-tools/analysis/values"
	"github.com/awslabs/ar-php-tools/internal/analysistest"
)

func run(t *testing.T, body ...ir.Stmt) *flow.ForwardAnalysis {
	t.Helper()
	p := analysistest.NewIRProgram()
	p.AddFile("main.php", body...)
	return analysistest.RunIR(t, nil, p, "main.php")
}

func read(t *testing.T, a *flow.ForwardAnalysis, name string) memory.Entry {
	t.Helper()
	out := a.Output()
	if out == nil {
		t.Fatalf("end of the script not reached")
	}
	return out.ReadValue(memory.VariablePath(name))
}

func expect(t *testing.T, a *flow.ForwardAnalysis, name string, want ...values.Value) {
	t.Helper()
	if got := read(t, a, name); !got.Equal(memory.NewEntry(want...)) {
		t.Errorf("$%s = %s, want %s", name, got, memory.NewEntry(want...))
	}
}

func expectWarning(t *testing.T, a *flow.ForwardAnalysis, kind string) {
	t.Helper()
	if !analysistest.HasWarning(a, kind) {
		t.Errorf("expected a %s warning, got %v", kind, analysistest.WarningKinds(a))
	}
}

func expectNoWarning(t *testing.T, a *flow.ForwardAnalysis, kind string) {
	t.Helper()
	if analysistest.HasWarning(a, kind) {
		t.Errorf("unexpected %s warning", kind)
	}
}

func isObjectOf(v values.Value, class string) bool {
	o, ok := v.(values.Object)
	return ok && o.Class == class
}

func TestArithmeticAndConcat(t *testing.T) {
	a := run(t,
		ir.Do(ir.Set(ir.Var("x"), ir.Bin("+", ir.Lit(1), ir.Lit(2)))),
		ir.Do(ir.Set(ir.Var("s"), ir.Bin(".", ir.Lit("a"), ir.Var("x")))),
		ir.Do(ir.SetOp(".", ir.Var("s"), ir.Lit("!"))),
	)
	expect(t, a, "x", values.Integer(3))
	expect(t, a, "s", values.String("a3!"))
}

func TestDivisionByZeroWarning(t *testing.T) {
	a := run(t, ir.Do(ir.Set(ir.Var("x"), ir.Bin("/", ir.Lit(1), ir.Lit(0)))))
	expectWarning(t, a, string(values.DivisionByZero))
}

func TestNatives(t *testing.T) {
	a := run(t,
		ir.Do(ir.Set(ir.Var("n"), ir.CallFn("strlen", ir.Lit("abc")))),
		ir.Do(ir.Set(ir.Var("u"), ir.CallFn("strtoupper", ir.Lit("ab")))),
		ir.Do(ir.Set(ir.Var("h"), ir.CallFn("htmlspecialchars", ir.Lit("<a href='x'>")))),
		ir.Do(ir.Set(ir.Var("r"), ir.CallFn("str_repeat", ir.Lit("ab"), ir.Lit(3)))),
		ir.Do(ir.Set(ir.Var("i"), ir.CallFn("is_int", ir.Lit(3)))),
		ir.Do(ir.Set(ir.Var("m"), ir.CallFn("mt_rand", ir.Lit(1), ir.Lit(6)))),
	)
	expect(t, a, "n", values.Integer(3))
	expect(t, a, "u", values.String("AB"))
	expect(t, a, "h", values.String("&lt;a href=&#039;x&#039;&gt;"))
	expect(t, a, "r", values.String("ababab"))
	expect(t, a, "i", values.Boolean(true))
	expect(t, a, "m", values.IntegerInterval{Lo: 1, Hi: 6})
}

func TestNativeWarningAtCallSite(t *testing.T) {
	call := ir.CallFn("strlen")
	ir.SetPos(call, ir.Pos{Line: 7, Col: 6})
	stmt := ir.Do(ir.Set(ir.Var("n"), call))
	ir.SetPos(stmt, ir.Pos{Line: 7, Col: 1})
	a := run(t, stmt)
	var found bool
	for _, w := range a.Warnings() {
		if w.Kind != phpsem.WrongArgumentCount {
			continue
		}
		found = true
		if w.Pos != (ir.Pos{File: "main.php", Line: 7, Col: 6}) {
			t.Errorf("warning of the native call at %s, want main.php:7:6", w.Pos)
		}
	}
	if !found {
		t.Errorf("expected a %s warning, got %v", phpsem.WrongArgumentCount, analysistest.WarningKinds(a))
	}
}

func TestNativeByReference(t *testing.T) {
	a := run(t,
		ir.Do(ir.Set(ir.Var("a"), ir.Arr(nil, ir.Lit(1)))),
		ir.Do(ir.CallFn("array_push", ir.Var("a"), ir.Lit(2))),
		ir.Do(ir.Set(ir.Var("c"), ir.CallFn("count", ir.Var("a")))),
		ir.Do(ir.Set(ir.Var("e"), ir.Idx(ir.Var("a"), ir.Lit(1)))),
		ir.Do(ir.Set(ir.Var("s"), ir.CallFn("implode", ir.Lit(","), ir.Var("a")))),
	)
	expect(t, a, "c", values.Integer(2))
	expect(t, a, "e", values.Integer(2))
	expect(t, a, "s", values.String("1,2"))
}

func TestUndefinedFunction(t *testing.T) {
	a := run(t, ir.Do(ir.Set(ir.Var("x"), ir.CallFn("nope"))))
	expectWarning(t, a, phpsem.UndefinedFunction)
	expect(t, a, "x", values.AnyValue{})
}

func TestCallWithDefaults(t *testing.T) {
	f := ir.Func("f", []string{"a", "b"}, ir.Ret(ir.Bin("+", ir.Var("a"), ir.Var("b"))))
	f.Params[1].Default = ir.Lit(10)
	a := run(t,
		f,
		ir.Do(ir.Set(ir.Var("x"), ir.CallFn("f", ir.Lit(1)))),
		ir.Do(ir.Set(ir.Var("y"), ir.CallFn("F", ir.Lit(1), ir.Lit(2)))),
	)
	expect(t, a, "x", values.Integer(11))
	expect(t, a, "y", values.Integer(3))
	expectNoWarning(t, a, phpsem.WrongArgumentCount)
}

func TestMissingArgument(t *testing.T) {
	a := run(t,
		ir.Func("f", []string{"a"}, ir.Ret(ir.Var("a"))),
		ir.Do(ir.Set(ir.Var("x"), ir.CallFn("f"))),
	)
	expectWarning(t, a, phpsem.WrongArgumentCount)
	expect(t, a, "x", values.Undefined{})
}

func TestByReferenceParameter(t *testing.T) {
	f := ir.Func("inc", []string{"v"}, ir.Do(ir.Set(ir.Var("v"), ir.Bin("+", ir.Var("v"), ir.Lit(1)))))
	f.Params[0].ByRef = true
	a := run(t,
		f,
		ir.Do(ir.Set(ir.Var("x"), ir.Lit(1))),
		ir.Do(ir.CallFn("inc", ir.Var("x"))),
	)
	expect(t, a, "x", values.Integer(2))
	expect(t, a, "v", values.Undefined{})
}

func TestMethodCallBindsThis(t *testing.T) {
	get := ir.Func("get", nil, ir.Ret(ir.Fld(ir.Var("this"), "v")))
	a := run(t,
		ir.Class("C", "", get),
		ir.Do(ir.Set(ir.Var("o"), ir.NewObj("C"))),
		ir.Do(ir.Set(ir.Fld(ir.Var("o"), "v"), ir.Lit(5))),
		ir.Do(ir.Set(ir.Var("r"), ir.CallMethod(ir.Var("o"), "get"))),
	)
	expect(t, a, "r", values.Integer(5))
	expectNoWarning(t, a, phpsem.UndefinedMethod)
}

func TestInheritedMethodAndProperties(t *testing.T) {
	base := &ir.ClassDecl{Name: "Base", Props: []ir.Property{{Name: "p", Default: ir.Lit("init")}}}
	get := ir.Func("get", nil, ir.Ret(ir.Fld(ir.Var("this"), "p")))
	get.Class = base
	base.Methods = []*ir.FunctionDecl{get}
	a := run(t,
		base,
		ir.Class("Child", "Base"),
		ir.Do(ir.Set(ir.Var("o"), ir.NewObj("Child"))),
		ir.Do(ir.Set(ir.Var("r"), ir.CallMethod(ir.Var("o"), "get"))),
		ir.Do(ir.Set(ir.Var("i"), &ir.InstanceOf{X: ir.Var("o"), Class: "Base"})),
	)
	expect(t, a, "r", values.String("init"))
	expect(t, a, "i", values.Boolean(true))
}

func TestCallOnNonObject(t *testing.T) {
	a := run(t,
		ir.Do(ir.Set(ir.Var("x"), ir.Lit(1))),
		ir.Do(ir.CallMethod(ir.Var("x"), "m")),
	)
	expectWarning(t, a, phpsem.NonObjectCall)
}

func TestUndefinedClassAndMethod(t *testing.T) {
	a := run(t,
		ir.Class("C", ""),
		ir.Do(ir.Set(ir.Var("o"), ir.NewObj("C"))),
		ir.Do(ir.CallMethod(ir.Var("o"), "missing")),
		ir.Do(ir.NewObj("Nowhere")),
	)
	expectWarning(t, a, phpsem.UndefinedMethod)
	expectWarning(t, a, phpsem.UndefinedClass)
}

func TestTruthinessNarrowing(t *testing.T) {
	a := run(t,
		ir.Do(ir.Set(ir.Var("x"), ir.Lit(nil))),
		ir.IfThen(ir.CallFn("rand", ir.Lit(0), ir.Lit(1)), ir.Stmts(ir.Do(ir.Set(ir.Var("x"), ir.Lit(5)))), nil),
		ir.IfThen(ir.Var("x"),
			ir.Stmts(ir.Do(ir.Set(ir.Var("y"), ir.Var("x")))),
			ir.Stmts(ir.Do(ir.Set(ir.Var("z"), ir.Var("x"))))),
	)
	expect(t, a, "y", values.Undefined{}, values.Integer(5))
	expect(t, a, "z", values.Undefined{})
	expect(t, a, "x", values.Undefined{}, values.Integer(5))
}

func TestIdenticalComparisonRefines(t *testing.T) {
	a := run(t,
		ir.Do(ir.Set(ir.Var("x"), ir.Idx(ir.Var("_GET"), ir.Lit("user")))),
		ir.IfThen(ir.Bin("===", ir.Var("x"), ir.Lit("admin")),
			ir.Stmts(ir.Do(ir.Set(ir.Var("y"), ir.Var("x")))), nil),
	)
	got := read(t, a, "y")
	if !got.Contains(values.String("admin")) || got.Contains(values.AnyValue{}) {
		t.Errorf("$y = %s, want admin or undefined", got)
	}
}

func TestInfeasibleBranch(t *testing.T) {
	a := run(t,
		ir.Do(ir.Set(ir.Var("x"), ir.Lit(1))),
		ir.IfThen(ir.Bin("==", ir.Var("x"), ir.Lit(2)), ir.Stmts(ir.Do(ir.Set(ir.Var("y"), ir.Lit(1)))), nil),
	)
	expect(t, a, "y", values.Undefined{})
}

func TestOrderedComparisonNarrowing(t *testing.T) {
	a := run(t,
		ir.Do(ir.Set(ir.Var("x"), ir.Lit(1))),
		ir.IfThen(ir.Bin("<", ir.Var("x"), ir.Lit(5)),
			ir.Stmts(ir.Do(ir.Set(ir.Var("lt"), ir.Lit(true)))),
			ir.Stmts(ir.Do(ir.Set(ir.Var("ge"), ir.Lit(true))))),
		ir.IfThen(ir.Bin(">", ir.Lit(5), ir.Var("x")),
			ir.Stmts(ir.Do(ir.Set(ir.Var("gt"), ir.Lit(true)))), nil),
		ir.IfThen(ir.Bin(">=", ir.Var("x"), ir.Lit(2)),
			ir.Stmts(ir.Do(ir.Set(ir.Var("no"), ir.Lit(true)))), nil),
	)
	expect(t, a, "lt", values.Boolean(true))
	expect(t, a, "ge", values.Undefined{})
	expect(t, a, "gt", values.Boolean(true))
	expect(t, a, "no", values.Undefined{})
}

func TestCountingLoops(t *testing.T) {
	i := func() ir.Expr { return ir.Var("i") }
	j := func() ir.Expr { return ir.Var("j") }
	a := run(t,
		ir.Do(ir.Set(i(), ir.Lit(0))),
		ir.Loop(ir.Bin("<", i(), ir.Lit(3)), ir.Do(ir.Inc(i()))),
		ir.Do(ir.Set(j(), ir.Lit(10))),
		ir.Loop(ir.Bin(">", j(), ir.Lit(0)), ir.Do(&ir.IncDec{X: j()})),
	)
	expect(t, a, "i", values.Integer(3))
	expect(t, a, "j", values.Integer(0))
}

func TestIsset(t *testing.T) {
	a := run(t,
		ir.Do(ir.Set(ir.Var("n"), ir.Lit(nil))),
		ir.Do(ir.Set(ir.Var("a"), ir.Arr(nil, ir.Lit(1)))),
		ir.Do(ir.Set(ir.Var("i"), &ir.Isset{Vars: []ir.Expr{ir.Var("n")}})),
		ir.Do(ir.Set(ir.Var("j"), &ir.Isset{Vars: []ir.Expr{ir.Idx(ir.Var("a"), ir.Lit(0))}})),
	)
	expect(t, a, "i", values.Boolean(false))
	expect(t, a, "j", values.Boolean(true))
}

func TestExceptionCaught(t *testing.T) {
	a := run(t,
		ir.TryCatch(
			ir.Stmts(ir.ThrowNew("RuntimeException"), ir.Do(ir.Set(ir.Var("a"), ir.Lit(1)))),
			"Exception", "e",
			ir.Do(ir.Set(ir.Var("b"), ir.Lit(2)))),
	)
	expect(t, a, "a", values.Undefined{})
	expect(t, a, "b", values.Integer(2))
	e := read(t, a, "e")
	if v, ok := e.Single(); !ok || !isObjectOf(v, "RuntimeException") {
		t.Errorf("$e = %s, want a RuntimeException", e)
	}
	expectNoWarning(t, a, phpsem.UncaughtException)
}

func TestExceptionFromCallee(t *testing.T) {
	a := run(t,
		ir.Func("f", nil, ir.ThrowNew("InvalidArgumentException")),
		ir.TryCatch(
			ir.Stmts(ir.Do(ir.CallFn("f"))),
			"LogicException", "e",
			ir.Do(ir.Set(ir.Var("c"), &ir.InstanceOf{X: ir.Var("e"), Class: "InvalidArgumentException"}))),
	)
	expect(t, a, "c", values.Boolean(true))
}

func TestUncaughtException(t *testing.T) {
	a := run(t, ir.ThrowNew("Exception"))
	expectWarning(t, a, phpsem.UncaughtException)
	if a.Output() != nil {
		t.Errorf("the end of a script throwing an uncaught exception is reached")
	}
}

func TestInclude(t *testing.T) {
	p := analysistest.NewIRProgram()
	p.AddFile("lib.php", ir.Func("g", nil, ir.Ret(ir.Lit(7))))
	p.AddFile("main.php",
		ir.Do(ir.Set(ir.Var("r"), &ir.Include{Kind: ir.RequirePlain, Path: ir.Lit("lib.php")})),
		ir.Do(ir.Set(ir.Var("v"), ir.CallFn("g"))),
		ir.Do(&ir.Include{Kind: ir.IncludePlain, Path: ir.Lit("missing.php")}),
	)
	a := analysistest.RunIR(t, nil, p, "main.php")
	expect(t, a, "r", values.Integer(1))
	expect(t, a, "v", values.Integer(7))
	expectWarning(t, a, phpsem.IncludeNotFound)
}

func TestIncludeOnce(t *testing.T) {
	p := analysistest.NewIRProgram()
	p.AddFile("lib.php", ir.Do(ir.Inc(ir.Var("n"))))
	once := func() ir.Stmt { return ir.Do(&ir.Include{Kind: ir.RequireOnce, Path: ir.Lit("lib.php")}) }
	p.AddFile("main.php",
		ir.Do(ir.Set(ir.Var("n"), ir.Lit(0))),
		once(),
		once(),
	)
	a := analysistest.RunIR(t, nil, p, "main.php")
	expect(t, a, "n", values.Integer(1))
}

func TestDynamicEval(t *testing.T) {
	a := run(t, ir.Do(&ir.Eval{Code: ir.Idx(ir.Var("_GET"), ir.Lit("c"))}))
	expectWarning(t, a, phpsem.DynamicEval)
}

func TestForeach(t *testing.T) {
	a := run(t,
		ir.Do(ir.Set(ir.Var("a"), ir.Arr(nil, ir.Lit("x"), nil, ir.Lit("y")))),
		&ir.Foreach{Subject: ir.Var("a"), Key: ir.Var("k"), Value: ir.Var("v"),
			Body: ir.Stmts(ir.Do(ir.Set(ir.Var("last"), ir.Var("v"))))},
	)
	expect(t, a, "v", values.Undefined{}, values.String("x"), values.String("y"))
	expect(t, a, "k", values.Undefined{}, values.Integer(0), values.Integer(1))
}

func TestForeachOverEmptyArray(t *testing.T) {
	a := run(t,
		ir.Do(ir.Set(ir.Var("a"), ir.Arr())),
		&ir.Foreach{Subject: ir.Var("a"), Value: ir.Var("v"),
			Body: ir.Stmts(ir.Do(ir.Set(ir.Var("inside"), ir.Lit(true))))},
	)
	expect(t, a, "inside", values.Undefined{})
}

func TestStaticVariable(t *testing.T) {
	counter := ir.Func("counter", nil,
		&ir.StaticVar{Vars: []ir.StaticItem{{Name: "n", Default: ir.Lit(0)}}},
		ir.Do(ir.Inc(ir.Var("n"))),
		ir.Ret(ir.Var("n")),
	)
	a := run(t,
		counter,
		ir.Do(ir.CallFn("counter")),
		ir.Do(ir.Set(ir.Var("x"), ir.CallFn("counter"))),
	)
	expect(t, a, "x", values.Integer(2))
}

func TestGlobalVariable(t *testing.T) {
	a := run(t,
		ir.Func("f", nil, &ir.Global{Names: []string{"g"}}, ir.Do(ir.Set(ir.Var("g"), ir.Lit(2)))),
		ir.Do(ir.Set(ir.Var("g"), ir.Lit(1))),
		ir.Do(ir.CallFn("f")),
	)
	expect(t, a, "g", values.Integer(2))
}

func TestConstants(t *testing.T) {
	class := &ir.ClassDecl{Name: "K", Consts: []ir.ConstItem{{Name: "LIMIT", Value: ir.Lit(9)}}}
	a := run(t,
		class,
		ir.Do(ir.CallFn("define", ir.Lit("A"), ir.Lit(5))),
		&ir.ConstStmt{Items: []ir.ConstItem{{Name: "B", Value: ir.Lit(3)}}},
		ir.Do(ir.Set(ir.Var("a"), &ir.ConstFetch{Name: "A"})),
		ir.Do(ir.Set(ir.Var("b"), &ir.ConstFetch{Name: "B"})),
		ir.Do(ir.Set(ir.Var("l"), &ir.ClassConst{Class: "K", Name: "LIMIT"})),
		ir.Do(ir.Set(ir.Var("u"), &ir.ConstFetch{Name: "UNKNOWN"})),
	)
	expect(t, a, "a", values.Integer(5))
	expect(t, a, "b", values.Integer(3))
	expect(t, a, "l", values.Integer(9))
	expectWarning(t, a, phpsem.UndefinedConstant)
}

func TestIndirectCall(t *testing.T) {
	a := run(t,
		ir.Func("f", nil, ir.Ret(ir.Lit(1))),
		ir.Func("g", nil, ir.Ret(ir.Lit(2))),
		ir.Do(ir.Set(ir.Var("fn"), ir.Lit("f"))),
		ir.IfThen(ir.CallFn("rand", ir.Lit(0), ir.Lit(1)), ir.Stmts(ir.Do(ir.Set(ir.Var("fn"), ir.Lit("g")))), nil),
		ir.Do(ir.Set(ir.Var("r"), ir.CallDyn(ir.Var("fn")))),
	)
	expect(t, a, "r", values.Integer(1), values.Integer(2))
}

func TestInitialSnapshot(t *testing.T) {
	s := phpsem.InitialSnapshot()
	for _, name := range []string{"_GET", "_POST", "_SERVER"} {
		if got := s.ReadValue(memory.VariablePath(name)); !got.Equal(memory.NewEntry(values.AnyArray{})) {
			t.Errorf("$%s = %s, want any array", name, got)
		}
	}
}
