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

package php

import (
	"strconv"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/ir"
	sitter "github.com/smacker/go-tree-sitter"
)

var castTypes = map[string]string{
	"int":     "int",
	"integer": "int",
	"bool":    "bool",
	"boolean": "bool",
	"float":   "float",
	"double":  "float",
	"real":    "float",
	"string":  "string",
	"binary":  "string",
	"array":   "array",
	"object":  "object",
	"unset":   "unset",
}

var includeKinds = map[string]ir.IncludeKind{
	"include_expression":      ir.IncludePlain,
	"include_once_expression": ir.IncludeOnce,
	"require_expression":      ir.RequirePlain,
	"require_once_expression": ir.RequireOnce,
}

func (l *lowerer) lit(n *sitter.Node, s string) *ir.StringLit {
	x := &ir.StringLit{Value: s}
	l.at(x, n)
	return x
}

func (l *lowerer) opaque(n *sitter.Node) *ir.Opaque {
	o := &ir.Opaque{Kind: n.Type()}
	l.at(o, n)
	return o
}

// exprList lowers the nodes, flattening comma-separated sequences
func (l *lowerer) exprList(nodes []*sitter.Node) []ir.Expr {
	var res []ir.Expr
	for _, n := range nodes {
		if n.Type() == "sequence_expression" {
			res = append(res, l.exprList(namedChildren(n))...)
			continue
		}
		res = append(res, l.expr(n))
	}
	return res
}

// expr lowers an expression
func (l *lowerer) expr(n *sitter.Node) ir.Expr {
	var x ir.Expr
	switch n.Type() {
	case "parenthesized_expression":
		return l.expr(namedChildren(n)[0])
	case "variable_name":
		x = &ir.Variable{Name: l.varName(n)}
	case "dynamic_variable_name":
		x = &ir.IndirectVariable{NameExpr: l.expr(namedChildren(n)[0])}
	case "integer":
		x = l.integer(n)
	case "float":
		f, err := strconv.ParseFloat(strings.ReplaceAll(l.text(n), "_", ""), 64)
		if err != nil {
			return l.opaque(n)
		}
		x = &ir.FloatLit{Value: f}
	case "boolean":
		x = &ir.BoolLit{Value: strings.EqualFold(l.text(n), "true")}
	case "null":
		x = &ir.NullLit{}
	case "string":
		x = &ir.StringLit{Value: l.quoted(n)}
	case "encapsed_string", "heredoc":
		x = l.interpolated(n)
	case "nowdoc":
		x = &ir.StringLit{Value: l.nowdoc(n)}
	case "name", "qualified_name":
		x = l.constant(l.name(n))
	case "array_creation_expression":
		x = l.array(n)
	case "list_literal":
		x = l.list(n)
	case "binary_expression":
		x = l.binary(n)
	case "unary_op_expression":
		x = l.unary(n)
	case "error_suppression_expression":
		x = &ir.Unary{Op: "@", X: l.expr(namedChildren(n)[0])}
	case "assignment_expression":
		x = l.assign(n)
	case "reference_assignment_expression":
		x = &ir.AssignRef{Target: l.expr(n.ChildByFieldName("left")), Source: l.expr(n.ChildByFieldName("right"))}
	case "augmented_assignment_expression":
		op := strings.TrimSuffix(n.ChildByFieldName("operator").Type(), "=")
		x = &ir.Assign{Target: l.expr(n.ChildByFieldName("left")), Value: l.expr(n.ChildByFieldName("right")), Op: op}
	case "update_expression":
		x = l.update(n)
	case "cast_expression":
		to, ok := castTypes[strings.ToLower(strings.Trim(l.text(n.ChildByFieldName("type")), "() \t"))]
		if !ok {
			return l.opaque(n)
		}
		x = &ir.Cast{To: to, X: l.expr(n.ChildByFieldName("value"))}
	case "conditional_expression":
		t := &ir.Ternary{Cond: l.expr(n.ChildByFieldName("condition")), Else: l.expr(n.ChildByFieldName("alternative"))}
		if b := n.ChildByFieldName("body"); b != nil {
			t.Then = l.expr(b)
		}
		x = t
	case "function_call_expression":
		x = l.call(n)
	case "member_call_expression", "nullsafe_member_call_expression":
		m := &ir.MethodCall{Object: l.expr(n.ChildByFieldName("object")), Args: l.args(n)}
		m.Name, m.NameExpr = l.member(n.ChildByFieldName("name"))
		x = m
	case "scoped_call_expression":
		class := l.scope(n.ChildByFieldName("scope"))
		if class == "" {
			return l.opaque(n)
		}
		x = &ir.StaticCall{Class: class, Name: l.text(n.ChildByFieldName("name")), Args: l.args(n)}
	case "member_access_expression", "nullsafe_member_access_expression":
		f := &ir.Field{Base: l.expr(n.ChildByFieldName("object"))}
		f.Name, f.NameExpr = l.member(n.ChildByFieldName("name"))
		x = f
	case "scoped_property_access_expression":
		class := l.scope(n.ChildByFieldName("scope"))
		name := n.ChildByFieldName("name")
		if class == "" || name.Type() != "variable_name" {
			return l.opaque(n)
		}
		x = &ir.StaticField{Class: class, Name: l.varName(name)}
	case "class_constant_access_expression":
		x = l.classConstant(n)
	case "subscript_expression":
		c := namedChildren(n)
		idx := &ir.Index{Base: l.expr(c[0])}
		if len(c) > 1 {
			idx.Key = l.expr(c[1])
		}
		x = idx
	case "object_creation_expression":
		x = l.newObject(n)
	case "include_expression", "include_once_expression", "require_expression", "require_once_expression":
		x = &ir.Include{Kind: includeKinds[n.Type()], Path: l.expr(namedChildren(n)[0])}
	case "exit_statement":
		e := &ir.Exit{}
		if c := namedChildren(n); len(c) > 0 {
			e.X = l.expr(c[0])
		}
		x = e
	case "by_ref":
		return l.expr(namedChildren(n)[0])
	default:
		return l.opaque(n)
	}
	l.at(x, n)
	return x
}

func (l *lowerer) integer(n *sitter.Node) ir.Expr {
	s := strings.ReplaceAll(l.text(n), "_", "")
	lower := strings.ToLower(s)
	base := 10
	switch {
	case strings.HasPrefix(lower, "0x"):
		base, s = 16, s[2:]
	case strings.HasPrefix(lower, "0b"):
		base, s = 2, s[2:]
	case strings.HasPrefix(lower, "0o"):
		base, s = 8, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}
	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		// integers out of range are floats
		u, uerr := strconv.ParseUint(s, base, 64)
		if uerr != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return &ir.FloatLit{}
			}
			return &ir.FloatLit{Value: f}
		}
		return &ir.FloatLit{Value: float64(u)}
	}
	return &ir.IntLit{Value: v}
}

// constant lowers a bare name, which reads a constant unless it is one of the literals the grammar does not
// distinguish
func (l *lowerer) constant(name string) ir.Expr {
	switch strings.ToLower(name) {
	case "true":
		return &ir.BoolLit{Value: true}
	case "false":
		return &ir.BoolLit{Value: false}
	case "null":
		return &ir.NullLit{}
	}
	return &ir.ConstFetch{Name: name}
}

// scope returns the class name of a static access, or "" when the class is computed
func (l *lowerer) scope(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "name", "qualified_name", "relative_scope":
		return l.name(n)
	}
	return ""
}

// member returns the name of a property or method, or its expression when it is computed
func (l *lowerer) member(n *sitter.Node) (string, ir.Expr) {
	if n.Type() == "name" {
		return l.text(n), nil
	}
	return "", l.expr(n)
}

func (l *lowerer) args(n *sitter.Node) []ir.Expr {
	a := n.ChildByFieldName("arguments")
	if a == nil {
		a = childOfType(n, "arguments")
	}
	if a == nil {
		return nil
	}
	var res []ir.Expr
	for _, c := range namedChildren(a) {
		if c.Type() == "argument" {
			children := namedChildren(c)
			c = children[len(children)-1]
		}
		res = append(res, l.expr(c))
	}
	return res
}

func (l *lowerer) call(n *sitter.Node) ir.Expr {
	fn := n.ChildByFieldName("function")
	if fn.Type() != "name" && fn.Type() != "qualified_name" {
		return &ir.Call{NameExpr: l.expr(fn), Args: l.args(n)}
	}
	name := l.name(fn)
	args := l.args(n)
	switch strings.ToLower(name) {
	case "isset":
		return &ir.Isset{Vars: args}
	case "empty":
		if len(args) == 1 {
			return &ir.Empty{X: args[0]}
		}
	case "eval":
		if len(args) == 1 {
			return &ir.Eval{Code: args[0]}
		}
	case "exit", "die":
		e := &ir.Exit{}
		if len(args) > 0 {
			e.X = args[0]
		}
		return e
	}
	return &ir.Call{Name: name, Args: args}
}

func (l *lowerer) newObject(n *sitter.Node) ir.Expr {
	c := namedChildren(n)
	if len(c) == 0 {
		return l.opaque(n)
	}
	switch c[0].Type() {
	case "name", "qualified_name", "relative_scope":
		return &ir.New{Class: l.name(c[0]), Args: l.args(n)}
	case "anonymous_class", "declaration_list", "arguments":
		return l.opaque(n)
	}
	return &ir.New{ClassExpr: l.expr(c[0]), Args: l.args(n)}
}

func (l *lowerer) classConstant(n *sitter.Node) ir.Expr {
	c := namedChildren(n)
	class := l.scope(c[0])
	if class == "" || len(c) < 2 {
		return l.opaque(n)
	}
	name := l.text(c[1])
	if strings.EqualFold(name, "class") {
		return &ir.StringLit{Value: class}
	}
	return &ir.ClassConst{Class: class, Name: name}
}

func (l *lowerer) binary(n *sitter.Node) ir.Expr {
	var op string
	if o := n.ChildByFieldName("operator"); o != nil {
		op = o.Type()
	} else {
		op = n.Child(1).Type()
	}
	op = strings.ToLower(op)
	left := l.expr(n.ChildByFieldName("left"))
	right := n.ChildByFieldName("right")
	if op == "instanceof" {
		class := l.scope(right)
		if class == "" {
			return l.opaque(n)
		}
		return &ir.InstanceOf{X: left, Class: class}
	}
	return &ir.Binary{Op: op, Left: left, Right: l.expr(right)}
}

func (l *lowerer) unary(n *sitter.Node) ir.Expr {
	var op string
	if o := n.ChildByFieldName("operator"); o != nil {
		op = o.Type()
	} else {
		op = n.Child(0).Type()
	}
	arg := n.ChildByFieldName("argument")
	if arg == nil {
		arg = namedChildren(n)[0]
	}
	return &ir.Unary{Op: op, X: l.expr(arg)}
}

func (l *lowerer) assign(n *sitter.Node) ir.Expr {
	left := l.expr(n.ChildByFieldName("left"))
	right := n.ChildByFieldName("right")
	if hasToken(n, "&") || right.Type() == "by_ref" {
		return &ir.AssignRef{Target: left, Source: l.expr(right)}
	}
	return &ir.Assign{Target: left, Value: l.expr(right)}
}

func (l *lowerer) update(n *sitter.Node) ir.Expr {
	first := n.Child(0)
	prefix := !first.IsNamed()
	var op string
	if prefix {
		op = first.Type()
	} else {
		op = n.Child(1).Type()
	}
	return &ir.IncDec{X: l.expr(namedChildren(n)[0]), Inc: op == "++", Prefix: prefix}
}

func (l *lowerer) array(n *sitter.Node) ir.Expr {
	a := &ir.ArrayLit{}
	for _, e := range namedChildren(n) {
		if e.Type() != "array_element_initializer" {
			continue
		}
		c := namedChildren(e)
		if len(c) == 0 {
			continue
		}
		var item ir.ArrayItem
		value := c[0]
		if hasToken(e, "=>") && len(c) > 1 {
			item.Key = l.expr(c[0])
			value = c[1]
		}
		if value.Type() == "by_ref" || hasToken(e, "&") {
			item.ByRef = true
		}
		item.Value = l.expr(value)
		a.Items = append(a.Items, item)
	}
	return a
}

// list lowers a destructuring target. Keyed destructuring has no ir counterpart.
func (l *lowerer) list(n *sitter.Node) ir.Expr {
	lst := &ir.List{}
	pending := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch {
		case !c.IsNamed() && c.Type() == "=>":
			return l.opaque(n)
		case !c.IsNamed() && c.Type() == ",":
			if !pending {
				lst.Items = append(lst.Items, nil)
			}
			pending = false
		case c.IsNamed() && c.Type() != "comment":
			if c.Type() == "array_element_initializer" && hasToken(c, "=>") {
				return l.opaque(n)
			}
			if c.Type() == "array_element_initializer" {
				c = namedChildren(c)[0]
			}
			lst.Items = append(lst.Items, l.expr(c))
			pending = true
		}
	}
	return lst
}
