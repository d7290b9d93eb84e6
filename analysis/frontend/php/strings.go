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
	"unicode/utf8"

	"github.com/awslabs/ar-php-tools/analysis/ir"
	sitter "github.com/smacker/go-tree-sitter"
)

// quoted returns the value of a single or double quoted string without interpolation
func (l *lowerer) quoted(n *sitter.Node) string {
	s := strings.TrimLeft(l.text(n), "bB")
	if len(s) < 2 {
		return s
	}
	inner := s[1 : len(s)-1]
	if s[0] == '\'' {
		return unescapeSingle(inner)
	}
	return unescapeDouble(inner)
}

// nowdoc returns the lines between the opening and closing markers
func (l *lowerer) nowdoc(n *sitter.Node) string {
	s := l.text(n)
	first := strings.IndexByte(s, '\n')
	last := strings.LastIndexByte(s, '\n')
	if first < 0 || last <= first {
		return ""
	}
	return s[first+1 : last]
}

// interpolated lowers a double quoted string or a heredoc to a literal, or to an ir.Interpolated when it embeds
// expressions
func (l *lowerer) interpolated(n *sitter.Node) ir.Expr {
	var parts []ir.Expr
	var literal strings.Builder
	hasLiteral := false
	flush := func(at *sitter.Node) {
		if hasLiteral {
			parts = append(parts, l.lit(at, literal.String()))
			literal.Reset()
			hasLiteral = false
		}
	}
	var visit func(p *sitter.Node)
	visit = func(p *sitter.Node) {
		for i := 0; i < int(p.ChildCount()); i++ {
			c := p.Child(i)
			if !c.IsNamed() {
				continue
			}
			switch c.Type() {
			case "heredoc_start", "heredoc_end", "comment":
			case "heredoc_body":
				visit(c)
			case "string_content", "string_value", "string", "escape_sequence":
				literal.WriteString(unescapeDouble(l.text(c)))
				hasLiteral = true
			case "subscript_expression":
				flush(c)
				parts = append(parts, l.embeddedIndex(c))
			default:
				flush(c)
				parts = append(parts, l.expr(c))
			}
		}
	}
	visit(n)
	flush(n)
	if n.Type() == "heredoc" {
		trimHeredoc(parts)
	}
	switch {
	case len(parts) == 0:
		return &ir.StringLit{}
	case len(parts) == 1:
		if s, ok := parts[0].(*ir.StringLit); ok {
			return s
		}
	}
	return &ir.Interpolated{Parts: parts}
}

// embeddedIndex lowers "$a[key]" inside a string, where a bare key is a string rather than a constant
func (l *lowerer) embeddedIndex(n *sitter.Node) ir.Expr {
	c := namedChildren(n)
	if len(c) != 2 || c[1].Type() != "name" {
		return l.expr(n)
	}
	x := &ir.Index{Base: l.expr(c[0]), Key: l.lit(c[1], l.text(c[1]))}
	l.at(x, n)
	return x
}

// trimHeredoc removes the line breaks after the opening marker and before the closing marker
func trimHeredoc(parts []ir.Expr) {
	if len(parts) == 0 {
		return
	}
	if s, ok := parts[0].(*ir.StringLit); ok {
		s.Value = strings.TrimPrefix(s.Value, "\n")
	}
	if s, ok := parts[len(parts)-1].(*ir.StringLit); ok {
		s.Value = strings.TrimSuffix(s.Value, "\n")
	}
}

func unescapeSingle(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\\' || s[i+1] == '\'') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

var simpleEscapes = map[byte]string{
	'n': "\n", 't': "\t", 'r': "\r", 'v': "\v", 'e': "\x1b", 'f': "\f", '\\': `\`, '$': "$", '"': `"`,
}

// unescapeDouble decodes the escape sequences of double quoted strings. Unknown sequences are kept as is.
func unescapeDouble(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		next := s[i+1]
		if r, ok := simpleEscapes[next]; ok {
			b.WriteString(r)
			i++
			continue
		}
		switch {
		case next >= '0' && next <= '7':
			j := i + 1
			for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i+1:j], 8, 16)
			b.WriteByte(byte(v))
			i = j - 1
		case next == 'x' && i+2 < len(s) && isHex(s[i+2]):
			j := i + 2
			for j < len(s) && j < i+4 && isHex(s[j]) {
				j++
			}
			v, _ := strconv.ParseUint(s[i+2:j], 16, 8)
			b.WriteByte(byte(v))
			i = j - 1
		case next == 'u' && i+2 < len(s) && s[i+2] == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				b.WriteByte(s[i])
				continue
			}
			v, err := strconv.ParseUint(s[i+3:i+2+end], 16, 32)
			if err != nil {
				b.WriteByte(s[i])
				continue
			}
			var buf [utf8.UTFMax]byte
			b.Write(buf[:utf8.EncodeRune(buf[:], rune(v))])
			i += 2 + end
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
