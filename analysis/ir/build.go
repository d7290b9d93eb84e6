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

import "fmt"

// The constructors below build trees without positions. They are used by tests and by code synthesizing
// statements; trees must be numbered with Number before being analyzed.

// Var returns the variable $name
func Var(name string) *Variable { return &Variable{Name: name} }

// Lit returns the literal for a Go value: nil, bool, int, int64, float64 or string
func Lit(v any) Expr {
	switch x := v.(type) {
	case nil:
		return &NullLit{}
	case bool:
		return &BoolLit{Value: x}
	case int:
		return &IntLit{Value: int64(x)}
	case int64:
		return &IntLit{Value: x}
	case float64:
		return &FloatLit{Value: x}
	case string:
		return &StringLit{Value: x}
	default:
		panic(fmt.Sprintf("no literal for %T", v))
	}
}

// Bin returns the binary expression l op r
func Bin(op string, l, r Expr) *Binary { return &Binary{Op: op, Left: l, Right: r} }

// Not returns !x
func Not(x Expr) *Unary { return &Unary{Op: "!", X: x} }

// Set returns the assignment target = value
func Set(target, value Expr) *Assign { return &Assign{Target: target, Value: value} }

// SetOp returns the compound assignment target op= value
func SetOp(op string, target, value Expr) *Assign { return &Assign{Target: target, Value: value, Op: op} }

// SetRef returns target =& source
func SetRef(target, source Expr) *AssignRef { return &AssignRef{Target: target, Source: source} }

// Idx returns base[key]
func Idx(base, key Expr) *Index { return &Index{Base: base, Key: key} }

// Fld returns base->name
func Fld(base Expr, name string) *Field { return &Field{Base: base, Name: name} }

// Inc returns x++
func Inc(x Expr) *IncDec { return &IncDec{X: x, Inc: true} }

// CallFn returns name(args...)
func CallFn(name string, args ...Expr) *Call { return &Call{Name: name, Args: args} }

// CallDyn returns fn(args...) where fn is computed
func CallDyn(fn Expr, args ...Expr) *Call { return &Call{NameExpr: fn, Args: args} }

// CallMethod returns obj->name(args...)
func CallMethod(obj Expr, name string, args ...Expr) *MethodCall {
	return &MethodCall{Object: obj, Name: name, Args: args}
}

// NewObj returns new class(args...)
func NewObj(class string, args ...Expr) *New { return &New{Class: class, Args: args} }

// Arr returns the array literal of the items given as alternating keys and values. A nil key appends.
func Arr(kv ...Expr) *ArrayLit {
	a := &ArrayLit{}
	for i := 0; i+1 < len(kv); i += 2 {
		a.Items = append(a.Items, ArrayItem{Key: kv[i], Value: kv[i+1]})
	}
	return a
}

// Do returns the expression statement x;
func Do(x Expr) *ExprStmt { return &ExprStmt{X: x} }

// Print returns echo args...;
func Print(args ...Expr) *Echo { return &Echo{Args: args} }

// Ret returns return x;
func Ret(x Expr) *Return { return &Return{X: x} }

// IfThen returns if (cond) then else els. els may be nil.
func IfThen(cond Expr, then []Stmt, els []Stmt) *If { return &If{Cond: cond, Then: then, Else: els} }

// Loop returns while (cond) body
func Loop(cond Expr, body ...Stmt) *While { return &While{Cond: cond, Body: body} }

// Func returns the function declaration name(params) { body }
func Func(name string, params []string, body ...Stmt) *FunctionDecl {
	f := &FunctionDecl{Name: name, Body: body}
	for _, p := range params {
		f.Params = append(f.Params, Param{Name: p})
	}
	return f
}

// Class returns the class declaration class name extends parent { methods }
func Class(name, parent string, methods ...*FunctionDecl) *ClassDecl {
	c := &ClassDecl{Name: name, Parent: parent, Methods: methods}
	for _, m := range methods {
		m.Class = c
	}
	return c
}

// ThrowNew returns throw new class();
func ThrowNew(class string) *Throw { return &Throw{X: NewObj(class)} }

// TryCatch returns try { body } catch (class $v) { handler }
func TryCatch(body []Stmt, class, v string, handler ...Stmt) *Try {
	return &Try{Body: body, Catches: []*Catch{{Classes: []string{class}, Var: v, Body: handler}}}
}

// Stmts returns its arguments as a statement list
func Stmts(s ...Stmt) []Stmt { return s }

// NewFile returns a numbered file with the body
func NewFile(alloc *IDAllocator, path string, body ...Stmt) *File {
	f := &File{Path: path, Body: body}
	Number(alloc, f)
	return f
}

// SetPos sets the source position of the node
func SetPos(n Node, p Pos) {
	n.node().Pos = p
}
