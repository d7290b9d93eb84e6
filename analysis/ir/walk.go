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

package ir

// Inspect traverses the tree rooted at n in depth-first order: it calls f(n), and if f returns true, Inspect
// invokes f recursively for each of the non-nil children of n. Function and class declarations are traversed.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// InspectStmts calls Inspect on every statement of the list
func InspectStmts(stmts []Stmt, f func(Node) bool) {
	for _, s := range stmts {
		Inspect(s, f)
	}
}

// Children returns the non-nil direct children of n, in source order
func Children(n Node) []Node {
	var res []Node
	addE := func(es ...Expr) {
		for _, e := range es {
			if e != nil {
				res = append(res, e)
			}
		}
	}
	addS := func(ss []Stmt) {
		for _, s := range ss {
			if s != nil {
				res = append(res, s)
			}
		}
	}
	switch x := n.(type) {
	case *IndirectVariable:
		addE(x.NameExpr)
	case *ArrayLit:
		for _, it := range x.Items {
			addE(it.Key, it.Value)
		}
	case *Index:
		addE(x.Base, x.Key)
	case *Field:
		addE(x.Base, x.NameExpr)
	case *Binary:
		addE(x.Left, x.Right)
	case *Unary:
		addE(x.X)
	case *IncDec:
		addE(x.X)
	case *Assign:
		addE(x.Target, x.Value)
	case *AssignRef:
		addE(x.Target, x.Source)
	case *Interpolated:
		addE(x.Parts...)
	case *Call:
		addE(x.NameExpr)
		addE(x.Args...)
	case *MethodCall:
		addE(x.Object, x.NameExpr)
		addE(x.Args...)
	case *StaticCall:
		addE(x.Args...)
	case *New:
		addE(x.ClassExpr)
		addE(x.Args...)
	case *Include:
		addE(x.Path)
	case *Eval:
		addE(x.Code)
	case *Isset:
		addE(x.Vars...)
	case *Empty:
		addE(x.X)
	case *Ternary:
		addE(x.Cond, x.Then, x.Else)
	case *Cast:
		addE(x.X)
	case *InstanceOf:
		addE(x.X)
	case *List:
		addE(x.Items...)
	case *Exit:
		addE(x.X)
	case *ExprStmt:
		addE(x.X)
	case *Echo:
		addE(x.Args...)
	case *Return:
		addE(x.X)
	case *If:
		addE(x.Cond)
		addS(x.Then)
		for _, ei := range x.ElseIfs {
			addE(ei.Cond)
			addS(ei.Body)
		}
		addS(x.Else)
	case *While:
		addE(x.Cond)
		addS(x.Body)
	case *DoWhile:
		addS(x.Body)
		addE(x.Cond)
	case *For:
		addE(x.Init...)
		addE(x.Cond...)
		addE(x.Step...)
		addS(x.Body)
	case *Foreach:
		addE(x.Subject, x.Key, x.Value)
		addS(x.Body)
	case *Switch:
		addE(x.Subject)
		for _, c := range x.Cases {
			addE(c.Cond)
			addS(c.Body)
		}
	case *Block:
		addS(x.Body)
	case *FunctionDecl:
		for _, p := range x.Params {
			addE(p.Default)
		}
		addS(x.Body)
	case *ClassDecl:
		for _, c := range x.Consts {
			addE(c.Value)
		}
		for _, p := range x.Props {
			addE(p.Default)
		}
		for _, m := range x.Methods {
			res = append(res, m)
		}
	case *StaticVar:
		for _, v := range x.Vars {
			addE(v.Default)
		}
	case *Unset:
		addE(x.Vars...)
	case *Throw:
		addE(x.X)
	case *Try:
		addS(x.Body)
		for _, c := range x.Catches {
			res = append(res, c)
		}
		addS(x.Finally)
	case *Catch:
		addS(x.Body)
	case *ConstStmt:
		for _, c := range x.Items {
			addE(c.Value)
		}
	}
	return res
}
