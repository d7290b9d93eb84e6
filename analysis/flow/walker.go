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

package flow

import (
	"fmt"
	"strconv"

	"github.com/awslabs/ar-php-tools/analysis/cfg"
	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/values"
)

func unsupported(n ir.Node) {
	panic(&values.FatalError{Message: fmt.Sprintf("unsupported node %T: %s", n, ir.Format(n))})
}

// stmt executes a statement item. Expressions evaluated for their effects are items too.
func (c *Controller) stmt(n ir.Node) {
	c.node = n
	ev := c.Services.Evaluator
	fr := c.Services.Functions
	switch x := n.(type) {
	case *ir.ExprStmt:
		c.expr(x.X)
	case *ir.Echo:
		ev.Echo(c, c.exprs(x.Args))
	case *ir.Return:
		v := memory.UndefinedEntry
		if x.X != nil {
			v = c.expr(x.X)
		}
		fr.Return(c, v)
	case *ir.FunctionDecl:
		fr.DeclareFunction(c, x)
	case *ir.ClassDecl:
		fr.DeclareClass(c, x)
	case *ir.Global:
		ev.Global(c, x.Names)
	case *ir.StaticVar:
		for _, it := range x.Vars {
			init := memory.UndefinedEntry
			if it.Default != nil {
				init = c.expr(it.Default)
			}
			ev.Static(c, it.Name, init)
		}
	case *ir.Unset:
		for _, v := range x.Vars {
			ev.Unset(c, c.path(v))
		}
	case *ir.Throw:
		c.throw(c.expr(x.X))
	case *ir.ConstStmt:
		for _, it := range x.Items {
			ev.ConstantDeclaration(c, it.Name, c.expr(it.Value))
		}
	case *ir.Break, *ir.Continue, *ir.Nop:
	case ir.Expr:
		c.expr(x)
	default:
		unsupported(n)
	}
}

func (c *Controller) exprs(es []ir.Expr) []memory.Entry {
	res := make([]memory.Entry, len(es))
	for i, e := range es {
		res[i] = c.expr(e)
	}
	return res
}

// assignable returns true for the expressions denoting locations
func assignable(e ir.Expr) bool {
	switch e.(type) {
	case *ir.Variable, *ir.IndirectVariable, *ir.Index, *ir.Field, *ir.StaticField:
		return true
	}
	return false
}

func (c *Controller) path(e ir.Expr) memory.Path {
	ev := c.Services.Evaluator
	switch x := e.(type) {
	case *ir.Variable:
		return ev.ResolveVariable(c, x.Name)
	case *ir.IndirectVariable:
		return ev.ResolveIndirectVariable(c, c.expr(x.NameExpr))
	case *ir.Index:
		base := c.path(x.Base)
		var key memory.Entry
		if x.Key != nil {
			key = c.expr(x.Key)
		}
		c.node = x
		return ev.ResolveIndex(c, base, key)
	case *ir.Field:
		base := c.path(x.Base)
		names := memory.NewEntry(values.String(x.Name))
		if x.NameExpr != nil {
			names = c.expr(x.NameExpr)
		}
		c.node = x
		return ev.ResolveField(c, base, names)
	case *ir.StaticField:
		return ev.ResolveStaticField(c, c.ClassName(x.Class), x.Name)
	}
	v := c.expr(e)
	p := memory.TemporaryPath(tempName("value", e))
	ev.Assign(c, p, v)
	return p
}

func (c *Controller) expr(e ir.Expr) memory.Entry {
	prev := c.node
	c.node = e
	defer func() { c.node = prev }()
	ev := c.Services.Evaluator
	switch x := e.(type) {
	case *ir.IntLit:
		return memory.NewEntry(values.Integer(x.Value))
	case *ir.FloatLit:
		return memory.NewEntry(values.Float(x.Value))
	case *ir.StringLit:
		return memory.NewEntry(values.String(x.Value))
	case *ir.BoolLit:
		return memory.NewEntry(values.Boolean(x.Value))
	case *ir.NullLit:
		return memory.UndefinedEntry
	case *ir.Variable, *ir.IndirectVariable, *ir.Index, *ir.Field, *ir.StaticField:
		p := c.path(e)
		c.node = e
		return ev.ReadValue(c, p)
	case *ir.ArrayLit:
		return c.array(x)
	case *ir.Binary:
		return c.binary(x)
	case *ir.Unary:
		v := c.expr(x.X)
		if x.Op == "@" {
			return v
		}
		return ev.UnaryEx(c, x.Op, v)
	case *ir.IncDec:
		before, after := ev.IncDec(c, c.path(x.X), x.Inc)
		if x.Prefix {
			return after
		}
		return before
	case *ir.Assign:
		return c.assign(x)
	case *ir.AssignRef:
		switch x.Source.(type) {
		case *ir.Call, *ir.MethodCall, *ir.StaticCall, *ir.New:
			// functions returning references are not modeled
			v := c.expr(x.Source)
			ev.Assign(c, c.path(x.Target), v)
			return v
		}
		src := c.path(x.Source)
		dst := c.path(x.Target)
		ev.AssignAlias(c, dst, src)
		return ev.ReadValue(c, dst)
	case *ir.Interpolated:
		return ev.Concat(c, c.exprs(x.Parts))
	case *ir.Call:
		return c.call(x)
	case *ir.MethodCall:
		return c.methodCall(x)
	case *ir.StaticCall:
		targets := c.Services.Functions.StaticCall(c, x.Class, x.Name)
		return c.dispatchCall(x, targets, c.args(x.Args))
	case *ir.New:
		return c.newObject(x)
	case *ir.Include:
		paths := c.expr(x.Path)
		files, complete := c.Services.Flow.Include(c, x, paths)
		return c.dispatchInclude(x, files, complete)
	case *ir.Eval:
		code := c.expr(x.Code)
		codes, complete := c.Services.Flow.Eval(c, code)
		return c.dispatchEval(x, codes, complete)
	case *ir.Isset:
		paths := make([]memory.Path, len(x.Vars))
		for i, v := range x.Vars {
			paths[i] = c.path(v)
		}
		return ev.Isset(c, paths)
	case *ir.Empty:
		return ev.Empty(c, c.expr(x.X))
	case *ir.Ternary:
		return c.ternary(x)
	case *ir.ConstFetch:
		return ev.Constant(c, "", x.Name)
	case *ir.ClassConst:
		return ev.Constant(c, c.ClassName(x.Class), x.Name)
	case *ir.Cast:
		return ev.Cast(c, x.To, c.expr(x.X))
	case *ir.InstanceOf:
		return ev.InstanceOf(c, c.expr(x.X), c.ClassName(x.Class))
	case *ir.Exit:
		if x.X != nil {
			v := c.expr(x.X)
			if v.Filter(func(v values.Value) bool { return values.TypesOf(v)&values.TString != 0 }).Len() > 0 {
				ev.Echo(c, []memory.Entry{v})
			}
		}
		c.Block()
		return memory.UndefinedEntry
	case *ir.ForeachNext:
		c.expr(cfg.ForeachSubject(x.Loop))
		return memory.NewEntry(values.AnyBoolean{})
	case *ir.Opaque:
		c.SetWarning(UnsupportedWarning, "%s not analyzed", x.Kind)
		return memory.NewEntry(values.AnyValue{})
	}
	unsupported(e)
	return memory.Entry{}
}

// truth returns the boolean value of the entry when every value converts to the same boolean
func truth(e memory.Entry) (b bool, known bool) {
	for i, v := range e.Values() {
		vb, ok := values.ToBoolean(v)
		if !ok || (i > 0 && vb != b) {
			return false, false
		}
		b = vb
	}
	return b, e.Len() > 0
}

// mayBeNull returns true if some value of the entry may be null
func mayBeNull(e memory.Entry) bool {
	for _, v := range e.Values() {
		if values.TypesOf(v)&values.TNull != 0 {
			return true
		}
	}
	return false
}

func notNull(e memory.Entry) memory.Entry {
	return e.Filter(func(v values.Value) bool { return v != values.Undefined{} })
}

func (c *Controller) binary(x *ir.Binary) memory.Entry {
	ev := c.Services.Evaluator
	switch x.Op {
	case "&&", "and", "||", "or":
		l := c.expr(x.Left)
		short := x.Op == "||" || x.Op == "or"
		if b, ok := truth(l); ok && b == short {
			return memory.NewEntry(values.Boolean(short))
		}
		return ev.BinaryEx(c, x.Op, l, c.expr(x.Right))
	case "??":
		l := c.expr(x.Left)
		if !mayBeNull(l) {
			return l
		}
		return notNull(l).Union(c.expr(x.Right))
	case ".":
		l := c.expr(x.Left)
		return ev.Concat(c, []memory.Entry{l, c.expr(x.Right)})
	}
	l := c.expr(x.Left)
	r := c.expr(x.Right)
	return ev.BinaryEx(c, x.Op, l, r)
}

func (c *Controller) ternary(x *ir.Ternary) memory.Entry {
	cond := c.expr(x.Cond)
	then := func() memory.Entry {
		if x.Then == nil {
			return cond
		}
		return c.expr(x.Then)
	}
	if b, ok := truth(cond); ok {
		if b {
			return then()
		}
		return c.expr(x.Else)
	}
	return then().Union(c.expr(x.Else))
}

func (c *Controller) assign(x *ir.Assign) memory.Entry {
	ev := c.Services.Evaluator
	if l, ok := x.Target.(*ir.List); ok && x.Op == "" {
		v := c.expr(x.Value)
		c.destructure(l, v)
		return v
	}
	p := c.path(x.Target)
	v := c.expr(x.Value)
	c.node = x
	switch x.Op {
	case "":
	case ".":
		v = ev.Concat(c, []memory.Entry{ev.ReadValue(c, p), v})
	case "??":
		old := ev.ReadValue(c, p)
		if !mayBeNull(old) {
			return old
		}
		v = notNull(old).Union(v)
	default:
		v = ev.BinaryEx(c, x.Op, ev.ReadValue(c, p), v)
	}
	ev.Assign(c, p, v)
	return v
}

// destructure assigns the elements of the arrays in v to the items of the list, by position
func (c *Controller) destructure(l *ir.List, v memory.Entry) {
	ev := c.Services.Evaluator
	src := memory.TemporaryPath(tempName("list", l))
	ev.Assign(c, src, v)
	for i, item := range l.Items {
		if item == nil {
			continue
		}
		elem := ev.ReadValue(c, ev.ResolveIndex(c, src, memory.NewEntry(values.Integer(i))))
		if nested, ok := item.(*ir.List); ok {
			c.destructure(nested, elem)
			continue
		}
		ev.Assign(c, c.path(item), elem)
	}
}

func (c *Controller) array(x *ir.ArrayLit) memory.Entry {
	ev := c.Services.Evaluator
	tmp := memory.TemporaryPath(tempName("array", x))
	c.OutSet.AssignEmptyArray(tmp)
	for _, it := range x.Items {
		var key memory.Entry
		if it.Key != nil {
			key = c.expr(it.Key)
		}
		if it.ByRef {
			src := c.path(it.Value)
			ev.AssignAlias(c, ev.ResolveIndex(c, tmp, key), src)
			continue
		}
		v := c.expr(it.Value)
		ev.Assign(c, ev.ResolveIndex(c, tmp, key), v)
	}
	return ev.ReadValue(c, tmp)
}

// args evaluates the arguments of a call. Assignable arguments keep their path for by-reference parameters.
func (c *Controller) args(es []ir.Expr) []Argument {
	ev := c.Services.Evaluator
	res := make([]Argument, len(es))
	for i, e := range es {
		a := Argument{Expr: e}
		if assignable(e) {
			a.Path = c.path(e)
			a.Value = ev.ReadValue(c, a.Path)
		} else {
			a.Value = c.expr(e)
		}
		res[i] = a
	}
	return res
}

func (c *Controller) call(x *ir.Call) memory.Entry {
	fr := c.Services.Functions
	var targets []CallTarget
	if x.NameExpr != nil {
		targets = fr.IndirectCall(c, c.expr(x.NameExpr))
	} else {
		targets = fr.Call(c, x.Name)
	}
	return c.dispatchCall(x, targets, c.args(x.Args))
}

func (c *Controller) methodCall(x *ir.MethodCall) memory.Entry {
	fr := c.Services.Functions
	obj := c.expr(x.Object)
	names := []string{x.Name}
	if x.NameExpr != nil {
		names = fr.GetFunctionNames(c, c.expr(x.NameExpr))
	}
	var targets []CallTarget
	for _, n := range names {
		targets = append(targets, fr.MethodCall(c, obj, n)...)
	}
	return c.dispatchCall(x, targets, c.args(x.Args))
}

// allocationSite identifies the objects created by the expression
func allocationSite(x *ir.New) string {
	if pos := x.Position(); pos.IsValid() {
		return pos.String()
	}
	return "new#" + strconv.Itoa(x.ID())
}

func (c *Controller) newObject(x *ir.New) memory.Entry {
	ev := c.Services.Evaluator
	site := allocationSite(x)
	var obj memory.Entry
	if x.ClassExpr != nil {
		obj = ev.IndirectCreateObject(c, site, c.expr(x.ClassExpr))
	} else {
		obj = ev.CreateObject(c, site, c.ClassName(x.Class))
	}
	args := c.args(x.Args)
	if targets := c.Services.Functions.MethodCall(c, obj, "__construct"); len(targets) > 0 {
		c.dispatchCall(x, targets, args)
	}
	return obj
}

// foreachBind binds the next element of the iterated arrays to the key and value of the loop
func (c *Controller) foreachBind(loop *ir.Foreach) {
	c.node = loop
	ev := c.Services.Evaluator
	subject := c.path(cfg.ForeachSubject(loop))
	var key memory.Path
	if loop.Key != nil {
		key = c.path(loop.Key)
	}
	if l, ok := loop.Value.(*ir.List); ok {
		tmp := memory.TemporaryPath(tempName("foreach", loop))
		ev.Foreach(c, loop, subject, key, tmp)
		c.destructure(l, ev.ReadValue(c, tmp))
		return
	}
	ev.Foreach(c, loop, subject, key, c.path(loop.Value))
}
