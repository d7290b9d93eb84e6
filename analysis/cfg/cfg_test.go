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

package cfg

import (
	"strings"
	"testing"

	"github.com/awslabs/ar-php-tools/analysis/ir"
)

func build(body ...ir.Stmt) *Graph {
	f := ir.NewFile(&ir.IDAllocator{}, "a.php", body...)
	return Build(f.Body)
}

func expectGraph(t *testing.T, g *Graph, lines ...string) {
	t.Helper()
	want := strings.Join(lines, "\n") + "\n"
	if got := g.String(); got != want {
		t.Errorf("unexpected graph:\n%s\nexpected:\n%s", got, want)
	}
}

func TestIfWithoutElse(t *testing.T) {
	g := build(
		ir.Do(ir.Set(ir.Var("x"), ir.Lit(1))),
		ir.IfThen(ir.Var("c"), ir.Stmts(ir.Do(ir.Set(ir.Var("x"), ir.Lit(2)))), nil),
		ir.Print(ir.Var("x")),
	)
	expectGraph(t, g,
		"b0: [$x = 1] if $c -> b3 -> b2",
		"b3: [$x = 2] -> b2",
		"b2: [echo $x] -> b1",
		"b1 (exit):",
	)
}

func TestElseIfChain(t *testing.T) {
	g := build(&ir.If{
		Cond:    ir.Var("a"),
		Then:    ir.Stmts(ir.Print(ir.Lit(1))),
		ElseIfs: []ir.ElseIf{{Cond: ir.Var("b"), Body: ir.Stmts(ir.Print(ir.Lit(2)))}},
		Else:    ir.Stmts(ir.Ret(nil)),
	})
	// the else branch returns: only the first two branches reach the block after the if
	expectGraph(t, g,
		"b0: if $a -> b3 -> b4",
		"b3: [echo 1] -> b2",
		"b2: -> b1",
		"b1 (exit):",
		"b4: if $b -> b5 -> b6",
		"b5: [echo 2] -> b2",
		"b6: [return] -> b1",
	)
}

func TestWhileWithBreak(t *testing.T) {
	i := func() ir.Expr { return ir.Var("i") }
	g := build(
		ir.Do(ir.Set(i(), ir.Lit(0))),
		ir.Loop(ir.Bin("<", i(), ir.Lit(10)),
			ir.IfThen(ir.Bin("==", i(), ir.Lit(5)), ir.Stmts(&ir.Break{Depth: 1}), nil),
			ir.Do(ir.Inc(i())),
		),
		ir.Print(i()),
	)
	expectGraph(t, g,
		"b0: [$i = 0] -> b2",
		"b2: if $i < 10 -> b3 -> b4",
		"b3: if $i == 5 -> b6 -> b5",
		"b6: [break 1] -> b4",
		"b4: [echo $i] -> b1",
		"b1 (exit):",
		"b5: [$i++] -> b2",
	)
}

func TestInfiniteLoopHasNoExit(t *testing.T) {
	g := build(&ir.For{}, ir.Print(ir.Lit("never")))
	if g.Exit != nil {
		t.Errorf("the exit should not be reachable:\n%s", g)
	}
	if len(g.Blocks) != 4 {
		t.Errorf("expected the entry and the three loop blocks, got:\n%s", g)
	}
}

func TestSwitchFallthrough(t *testing.T) {
	g := build(&ir.Switch{
		Subject: ir.Var("x"),
		Cases: []ir.Case{
			{Cond: ir.Lit(1), Body: ir.Stmts(ir.Print(ir.Lit("a")))},
			{Cond: ir.Lit(2), Body: ir.Stmts(ir.Print(ir.Lit("b")), &ir.Break{Depth: 1})},
			{Body: ir.Stmts(ir.Print(ir.Lit("c")))},
		},
	})
	expectGraph(t, g,
		`b0: if $x == 1 -> b3 if $x == 2 -> b4 -> b5`,
		`b3: [echo "a"] -> b4`,
		`b4: [echo "b"] [break 1] -> b2`,
		`b2: -> b1`,
		`b1 (exit):`,
		`b5: [echo "c"] -> b2`,
	)
}

func TestSwitchSubjectEvaluatedOnce(t *testing.T) {
	sw := &ir.Switch{
		Subject: ir.CallFn("f"),
		Cases:   []ir.Case{{Cond: ir.Lit(1)}, {Cond: ir.Lit(2)}},
	}
	g := build(sw)
	first := g.Entry.Items[0]
	set, ok := first.Node.(*ir.Assign)
	if !ok || set.ID() >= 0 {
		t.Fatalf("expected a synthetic assignment of the subject, got %s", first)
	}
	v, ok := set.Target.(*ir.Variable)
	if !ok || !strings.HasPrefix(v.Name, SwitchPrefix) {
		t.Fatalf("unexpected target %s", ir.Format(set.Target))
	}
	for _, e := range g.Entry.Edges {
		cond := e.Cond.(*ir.Binary)
		if cond.Left != ir.Expr(v) || cond.ID() >= 0 {
			t.Errorf("case conditions should compare the hidden variable: %s", ir.Format(cond))
		}
	}
}

func TestForeach(t *testing.T) {
	g := build(&ir.Foreach{
		Subject: ir.Var("a"),
		Key:     ir.Var("k"),
		Value:   ir.Var("v"),
		Body:    ir.Stmts(ir.Print(ir.Var("v"))),
	})
	expectGraph(t, g,
		"b0: -> b2",
		"b2: if next($a) -> b3 -> b4",
		"b3: [foreach-bind foreach ($a as $k => $v) {...}] [echo $v] -> b2",
		"b4: -> b1",
		"b1 (exit):",
	)
}

func TestForeachSubjectEvaluatedOnce(t *testing.T) {
	g := build(&ir.Foreach{
		Subject: ir.CallFn("f"),
		Value:   ir.Var("v"),
		Body:    ir.Stmts(ir.Print(ir.Var("v"))),
	})
	expectGraph(t, g,
		"b0: [$.foreach1 = f()] -> b2",
		"b2: if next(f()) -> b3 -> b4",
		"b3: [foreach-bind foreach (f() as $v) {...}] [echo $v] -> b2",
		"b4: -> b1",
		"b1 (exit):",
	)
}

func TestTryCatchFinally(t *testing.T) {
	try := ir.TryCatch(
		ir.Stmts(ir.Do(ir.Set(ir.Var("x"), ir.Lit(1))), ir.ThrowNew("E")),
		"E", "e",
		ir.Do(ir.Set(ir.Var("x"), ir.Lit(2))),
	)
	try.Finally = ir.Stmts(ir.Print(ir.Var("x")))
	g := build(try)
	expectGraph(t, g,
		"b0: [try-enter try {...}] [$x = 1] [throw new E()]",
		"b3 (catch): [catch-bind catch (E $e)] [$x = 2] -> b2",
		"b2: [echo $x] -> b1",
		"b1 (exit):",
	)
	if len(g.Catches) != 1 || g.Catches[0].Catch != try.Catches[0] {
		t.Errorf("expected the catch block to be recorded")
	}
}

func TestReturnLeavesTryScopes(t *testing.T) {
	try := ir.TryCatch(
		ir.Stmts(ir.IfThen(ir.Var("c"), ir.Stmts(ir.Ret(ir.Lit(1))), nil)),
		"E", "e",
	)
	g := build(try)
	expectGraph(t, g,
		"b0: [try-enter try {...}] if $c -> b4 -> b3",
		"b4: [return 1] [try-exit try {...}] -> b1",
		"b1 (exit):",
		"b3: [try-exit try {...}] -> b2",
		"b2: -> b1",
		"b5 (catch): [catch-bind catch (E $e)] -> b2",
	)
	var exits []ItemKey
	for _, b := range g.Blocks {
		for _, it := range b.Items {
			if it.Role == TryExit {
				exits = append(exits, it.Key())
			}
		}
	}
	if len(exits) != 2 || exits[0] == exits[1] {
		t.Errorf("each try exit should have its own key: %v", exits)
	}
}

func TestHoisting(t *testing.T) {
	g := build(
		ir.Do(ir.CallFn("f")),
		ir.Func("f", nil, ir.Ret(ir.Lit(1))),
		ir.Class("C", ""),
	)
	expectGraph(t, g,
		"b0: [function f(...)] [class C] [f()] -> b1",
		"b1 (exit):",
	)
}
