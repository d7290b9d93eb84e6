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

	"github.com/awslabs/ar-php-tools/analysis/ir"
	sitter "github.com/smacker/go-tree-sitter"
)

func (l *lowerer) stmts(nodes []*sitter.Node) []ir.Stmt {
	var res []ir.Stmt
	for _, n := range nodes {
		res = append(res, l.stmt(n)...)
	}
	return res
}

// body lowers the statements of a compound statement, a colon block or a single statement
func (l *lowerer) body(n *sitter.Node) []ir.Stmt {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "compound_statement", "colon_block", "declaration_list", "switch_block":
		return l.stmts(namedChildren(n))
	}
	return l.stmt(n)
}

// bodyOf lowers the body field of n, or the named children of n from index from when the alternative syntax puts
// the statements directly under n
func (l *lowerer) bodyOf(n *sitter.Node, from int) []ir.Stmt {
	if b := n.ChildByFieldName("body"); b != nil {
		return l.body(b)
	}
	children := namedChildren(n)
	if from >= len(children) {
		return nil
	}
	return l.stmts(children[from:])
}

// stmt lowers a statement. Some statements lower to several ir statements, and tags to none.
func (l *lowerer) stmt(n *sitter.Node) []ir.Stmt {
	var s ir.Stmt
	switch n.Type() {
	case "php_tag", "comment", "empty_statement", "namespace_use_declaration", "declare_statement",
		"named_label_statement", "interface_declaration":
		return nil
	case "text_interpolation":
		return l.stmts(namedChildren(n))
	case "text":
		s = &ir.Echo{Args: []ir.Expr{l.lit(n, l.text(n))}}
	case "namespace_definition":
		return l.bodyOf(n, len(namedChildren(n)))
	case "compound_statement", "colon_block":
		s = &ir.Block{Body: l.body(n)}
	case "expression_statement":
		return l.expressionStatement(n)
	case "echo_statement":
		s = &ir.Echo{Args: l.exprList(namedChildren(n))}
	case "return_statement":
		r := &ir.Return{}
		if c := namedChildren(n); len(c) > 0 {
			r.X = l.expr(c[0])
		}
		s = r
	case "exit_statement":
		x := &ir.Exit{}
		if c := namedChildren(n); len(c) > 0 {
			x.X = l.expr(c[0])
		}
		s = &ir.ExprStmt{X: x}
		l.at(x, n)
	case "if_statement":
		s = l.ifStatement(n)
	case "while_statement":
		s = &ir.While{Cond: l.cond(n), Body: l.bodyOf(n, 1)}
	case "do_statement":
		s = &ir.DoWhile{Body: l.body(n.ChildByFieldName("body")), Cond: l.cond(n)}
	case "for_statement":
		s = l.forStatement(n)
	case "foreach_statement":
		s = l.foreachStatement(n)
	case "switch_statement":
		s = l.switchStatement(n)
	case "break_statement":
		s = &ir.Break{Depth: l.depth(n)}
	case "continue_statement":
		s = &ir.Continue{Depth: l.depth(n)}
	case "function_definition":
		s = l.function(n)
	case "class_declaration", "trait_declaration":
		s = l.class(n)
	case "global_declaration":
		g := &ir.Global{}
		for _, c := range namedChildren(n) {
			if c.Type() == "variable_name" {
				g.Names = append(g.Names, l.varName(c))
			}
		}
		s = g
	case "function_static_declaration":
		sv := &ir.StaticVar{}
		for _, c := range namedChildren(n) {
			if c.Type() != "static_variable_declaration" {
				continue
			}
			item := ir.StaticItem{Name: l.varName(c.ChildByFieldName("name"))}
			if v := c.ChildByFieldName("value"); v != nil {
				item.Default = l.expr(v)
			}
			sv.Vars = append(sv.Vars, item)
		}
		s = sv
	case "unset_statement":
		s = &ir.Unset{Vars: l.exprList(namedChildren(n))}
	case "throw_statement":
		s = &ir.Throw{X: l.expr(namedChildren(n)[0])}
	case "try_statement":
		s = l.tryStatement(n)
	case "const_declaration":
		s = &ir.ConstStmt{Items: l.constItems(n)}
	default:
		o := &ir.Opaque{Kind: n.Type()}
		l.at(o, n)
		s = &ir.ExprStmt{X: o}
	}
	l.at(s, n)
	return []ir.Stmt{s}
}

func (l *lowerer) expressionStatement(n *sitter.Node) []ir.Stmt {
	c := namedChildren(n)
	if len(c) == 0 {
		return nil
	}
	var s ir.Stmt
	x := c[0]
	switch x.Type() {
	case "print_intrinsic":
		s = &ir.Echo{Args: l.exprList(namedChildren(x))}
	case "throw_expression":
		s = &ir.Throw{X: l.expr(namedChildren(x)[0])}
	default:
		s = &ir.ExprStmt{X: l.expr(x)}
	}
	l.at(s, n)
	return []ir.Stmt{s}
}

// cond lowers the condition field of a loop or branch
func (l *lowerer) cond(n *sitter.Node) ir.Expr {
	c := n.ChildByFieldName("condition")
	if c == nil {
		c = namedChildren(n)[0]
	}
	return l.expr(c)
}

func (l *lowerer) depth(n *sitter.Node) int {
	c := namedChildren(n)
	if len(c) == 0 || c[0].Type() != "integer" {
		return 1
	}
	d, err := strconv.Atoi(l.text(c[0]))
	if err != nil || d < 1 {
		return 1
	}
	return d
}

func (l *lowerer) ifStatement(n *sitter.Node) *ir.If {
	s := &ir.If{Cond: l.cond(n), Then: l.body(n.ChildByFieldName("body"))}
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "else_if_clause":
			s.ElseIfs = append(s.ElseIfs, ir.ElseIf{Cond: l.cond(c), Body: l.bodyOf(c, 1)})
		case "else_clause":
			s.Else = l.bodyOf(c, 0)
			if s.Else == nil {
				s.Else = []ir.Stmt{}
			}
		}
	}
	return s
}

// forStatement splits the children between the parentheses on the semicolons
func (l *lowerer) forStatement(n *sitter.Node) *ir.For {
	s := &ir.For{}
	parts := [3]*[]ir.Expr{&s.Init, &s.Cond, &s.Step}
	part := 0
	inHeader := false
	var body []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch {
		case !c.IsNamed() && c.Type() == "(" && !inHeader && part == 0:
			inHeader = true
		case !c.IsNamed() && c.Type() == ";" && inHeader:
			part++
		case !c.IsNamed() && c.Type() == ")" && inHeader:
			inHeader = false
			part = 3
		case c.IsNamed() && c.Type() != "comment":
			if inHeader && part < 3 {
				*parts[part] = append(*parts[part], l.exprList([]*sitter.Node{c})...)
			} else if part == 3 {
				body = append(body, c)
			}
		}
	}
	if len(body) == 1 {
		s.Body = l.body(body[0])
	} else {
		s.Body = l.stmts(body)
	}
	return s
}

func (l *lowerer) foreachStatement(n *sitter.Node) *ir.Foreach {
	c := namedChildren(n)
	s := &ir.Foreach{Subject: l.expr(c[0])}
	value := c[1]
	if value.Type() == "pair" || value.Type() == "foreach_pair" {
		kv := namedChildren(value)
		s.Key = l.expr(kv[0])
		value = kv[1]
	}
	if value.Type() == "by_ref" {
		s.ByRef = true
		value = namedChildren(value)[0]
	}
	s.Value = l.expr(value)
	s.Body = l.bodyOf(n, 2)
	return s
}

func (l *lowerer) switchStatement(n *sitter.Node) *ir.Switch {
	s := &ir.Switch{Subject: l.cond(n)}
	block := n.ChildByFieldName("body")
	if block == nil {
		return s
	}
	for _, c := range namedChildren(block) {
		children := namedChildren(c)
		switch c.Type() {
		case "case_statement":
			s.Cases = append(s.Cases, ir.Case{Cond: l.expr(children[0]), Body: l.stmts(children[1:])})
		case "default_statement":
			s.Cases = append(s.Cases, ir.Case{Body: l.stmts(children)})
		}
	}
	return s
}

func (l *lowerer) tryStatement(n *sitter.Node) *ir.Try {
	s := &ir.Try{Body: l.body(n.ChildByFieldName("body"))}
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "catch_clause":
			catch := &ir.Catch{Body: l.body(c.ChildByFieldName("body"))}
			if types := c.ChildByFieldName("type"); types != nil {
				for _, t := range namedChildren(types) {
					catch.Classes = append(catch.Classes, l.name(t))
				}
			}
			if v := c.ChildByFieldName("name"); v != nil {
				catch.Var = l.varName(v)
			}
			l.at(catch, c)
			s.Catches = append(s.Catches, catch)
		case "finally_clause":
			s.Finally = l.body(c.ChildByFieldName("body"))
			if s.Finally == nil {
				s.Finally = []ir.Stmt{}
			}
		}
	}
	return s
}

func (l *lowerer) constItems(n *sitter.Node) []ir.ConstItem {
	var items []ir.ConstItem
	for _, c := range namedChildren(n) {
		if c.Type() != "const_element" {
			continue
		}
		kv := namedChildren(c)
		if len(kv) < 2 {
			continue
		}
		items = append(items, ir.ConstItem{Name: l.text(kv[0]), Value: l.expr(kv[1])})
	}
	return items
}

// ********* Declarations *********

func (l *lowerer) function(n *sitter.Node) *ir.FunctionDecl {
	f := &ir.FunctionDecl{Name: l.text(n.ChildByFieldName("name"))}
	var promoted []ir.Stmt
	if params := n.ChildByFieldName("parameters"); params != nil {
		for _, p := range namedChildren(params) {
			param, ok := l.param(p)
			if !ok {
				continue
			}
			f.Params = append(f.Params, param)
			if p.Type() == "property_promotion_parameter" {
				promoted = append(promoted, l.promote(p, param.Name))
			}
		}
	}
	f.Body = append(promoted, l.body(n.ChildByFieldName("body"))...)
	if childOfType(n, "static_modifier") != nil {
		f.Static = true
	}
	l.at(f, n)
	return f
}

func (l *lowerer) param(n *sitter.Node) (ir.Param, bool) {
	switch n.Type() {
	case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
	default:
		return ir.Param{}, false
	}
	name := n.ChildByFieldName("name")
	if name == nil {
		name = childOfType(n, "variable_name")
	}
	if name == nil {
		return ir.Param{}, false
	}
	p := ir.Param{Name: l.varName(name)}
	if n.ChildByFieldName("reference_modifier") != nil || childOfType(n, "reference_modifier") != nil ||
		hasToken(n, "&") {
		p.ByRef = true
	}
	if t := n.ChildByFieldName("type"); t != nil {
		p.Type = l.name(t)
	}
	if d := n.ChildByFieldName("default_value"); d != nil {
		p.Default = l.expr(d)
	}
	return p, true
}

// promote lowers a promoted constructor parameter to the assignment $this->name = $name
func (l *lowerer) promote(n *sitter.Node, name string) ir.Stmt {
	this := &ir.Variable{Name: "this"}
	target := &ir.Field{Base: this, Name: name}
	value := &ir.Variable{Name: name}
	a := &ir.Assign{Target: target, Value: value}
	s := &ir.ExprStmt{X: a}
	for _, x := range []ir.Node{this, target, value, a, s} {
		l.at(x, n)
	}
	return s
}

func (l *lowerer) class(n *sitter.Node) *ir.ClassDecl {
	c := &ir.ClassDecl{Name: l.text(n.ChildByFieldName("name"))}
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "base_clause":
			if names := namedChildren(child); len(names) > 0 {
				c.Parent = l.name(names[0])
			}
		case "class_interface_clause":
			for _, i := range namedChildren(child) {
				c.Interfaces = append(c.Interfaces, l.name(i))
			}
		}
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		body = childOfType(n, "declaration_list")
	}
	if body != nil {
		for _, member := range namedChildren(body) {
			l.classMember(c, member)
		}
	}
	l.at(c, n)
	return c
}

func (l *lowerer) classMember(c *ir.ClassDecl, n *sitter.Node) {
	switch n.Type() {
	case "method_declaration":
		m := l.function(n)
		m.Class = c
		c.Methods = append(c.Methods, m)
		params := n.ChildByFieldName("parameters")
		if params == nil {
			return
		}
		for _, p := range namedChildren(params) {
			if p.Type() != "property_promotion_parameter" {
				continue
			}
			if param, ok := l.param(p); ok {
				c.Props = append(c.Props, ir.Property{Name: param.Name})
			}
		}
	case "property_declaration":
		static := childOfType(n, "static_modifier") != nil
		for _, e := range namedChildren(n) {
			if e.Type() != "property_element" {
				continue
			}
			name := e.ChildByFieldName("name")
			if name == nil {
				name = childOfType(e, "variable_name")
			}
			if name == nil {
				continue
			}
			p := ir.Property{Name: l.varName(name), Static: static}
			if d := e.ChildByFieldName("default_value"); d != nil {
				p.Default = l.expr(d)
			} else if init := childOfType(e, "property_initializer"); init != nil {
				p.Default = l.expr(namedChildren(init)[0])
			}
			c.Props = append(c.Props, p)
		}
	case "const_declaration":
		c.Consts = append(c.Consts, l.constItems(n)...)
	}
}
