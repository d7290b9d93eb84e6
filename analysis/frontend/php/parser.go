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

// Package php lowers PHP source files into the statement trees of package ir, using the tree-sitter PHP grammar.
//
// Namespaces are flattened: qualified names are reduced to their last segment. Constructs that have no ir
// counterpart (closures, match, yield, anonymous classes...) are lowered to ir.Opaque nodes.
package php

import (
	"context"
	"fmt"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/ir"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// SyntaxError is returned when the source does not parse
type SyntaxError struct {
	Pos ir.Pos
	// Text is the source text of the erroneous node, truncated
	Text string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error near %q", e.Pos, e.Text)
}

// Parse parses the PHP file content src loaded from path. The returned file is not numbered.
func Parse(ctx context.Context, path string, src []byte) (*ir.File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(php.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstError(root, src, path)
	}
	l := &lowerer{src: src, path: path}
	return &ir.File{Path: path, Body: l.stmts(namedChildren(root))}, nil
}

// ParseCode parses the code of an eval call, which has no opening tag. Positions are
// reported in the file of origin.
func ParseCode(ctx context.Context, code string, origin ir.Pos) (*ir.File, error) {
	return Parse(ctx, origin.File, []byte("<?php "+code))
}

func firstError(root *sitter.Node, src []byte, path string) error {
	var found *sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if found != nil {
			return
		}
		if n.IsError() || n.IsMissing() {
			found = n
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)
	if found == nil {
		found = root
	}
	text := found.Content(src)
	if len(text) > 20 {
		text = text[:20]
	}
	return &SyntaxError{Pos: position(found, path), Text: text}
}

func position(n *sitter.Node, path string) ir.Pos {
	p := n.StartPoint()
	return ir.Pos{File: path, Line: int(p.Row) + 1, Col: int(p.Column) + 1}
}

// namedChildren returns the named children of n, without comments
func namedChildren(n *sitter.Node) []*sitter.Node {
	var res []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "comment" {
			res = append(res, c)
		}
	}
	return res
}

// hasToken returns true if n has a direct anonymous child of type tok
func hasToken(n *sitter.Node, tok string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}

// childOfType returns the first named child of n with type typ
func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for _, c := range namedChildren(n) {
		if c.Type() == typ {
			return c
		}
	}
	return nil
}

type lowerer struct {
	src  []byte
	path string
}

func (l *lowerer) text(n *sitter.Node) string {
	return n.Content(l.src)
}

func (l *lowerer) at(node ir.Node, n *sitter.Node) {
	ir.SetPos(node, position(n, l.path))
}

// name returns the unqualified name of a name, qualified_name or named_type node
func (l *lowerer) name(n *sitter.Node) string {
	s := strings.TrimSpace(l.text(n))
	s = strings.TrimPrefix(s, "?")
	if i := strings.LastIndex(s, `\`); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// varName returns the name of a variable_name node without the $
func (l *lowerer) varName(n *sitter.Node) string {
	return strings.TrimPrefix(l.text(n), "$")
}
