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

import (
	"strconv"
	"strings"
)

// Format returns a short, single-line PHP-like rendering of a node. Statement bodies are elided.
func Format(n Node) string {
	var b strings.Builder
	format(&b, n)
	return b.String()
}

func formatList(b *strings.Builder, es []Expr) {
	for i, e := range es {
		if i > 0 {
			b.WriteString(", ")
		}
		format(b, e)
	}
}

//gocyclo:ignore
func format(b *strings.Builder, n Node) {
	switch x := n.(type) {
	case nil:
		b.WriteString("")
	case *Variable:
		b.WriteString("$" + x.Name)
	case *IndirectVariable:
		b.WriteString("${")
		format(b, x.NameExpr)
		b.WriteString("}")
	case *IntLit:
		b.WriteString(strconv.FormatInt(x.Value, 10))
	case *FloatLit:
		b.WriteString(strconv.FormatFloat(x.Value, 'g', -1, 64))
	case *StringLit:
		b.WriteString(strconv.Quote(x.Value))
	case *BoolLit:
		b.WriteString(strconv.FormatBool(x.Value))
	case *NullLit:
		b.WriteString("null")
	case *ArrayLit:
		b.WriteString("[")
		for i, it := range x.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			if it.Key != nil {
				format(b, it.Key)
				b.WriteString(" => ")
			}
			if it.ByRef {
				b.WriteString("&")
			}
			format(b, it.Value)
		}
		b.WriteString("]")
	case *Index:
		format(b, x.Base)
		b.WriteString("[")
		if x.Key != nil {
			format(b, x.Key)
		}
		b.WriteString("]")
	case *Field:
		format(b, x.Base)
		b.WriteString("->")
		if x.NameExpr != nil {
			b.WriteString("{")
			format(b, x.NameExpr)
			b.WriteString("}")
		} else {
			b.WriteString(x.Name)
		}
	case *StaticField:
		b.WriteString(x.Class + "::$" + x.Name)
	case *Binary:
		format(b, x.Left)
		b.WriteString(" " + x.Op + " ")
		format(b, x.Right)
	case *Unary:
		b.WriteString(x.Op)
		format(b, x.X)
	case *IncDec:
		op := "--"
		if x.Inc {
			op = "++"
		}
		if x.Prefix {
			b.WriteString(op)
		}
		format(b, x.X)
		if !x.Prefix {
			b.WriteString(op)
		}
	case *Assign:
		format(b, x.Target)
		b.WriteString(" " + x.Op + "= ")
		format(b, x.Value)
	case *AssignRef:
		format(b, x.Target)
		b.WriteString(" =& ")
		format(b, x.Source)
	case *Interpolated:
		b.WriteString("\"")
		for _, p := range x.Parts {
			if s, ok := p.(*StringLit); ok {
				b.WriteString(s.Value)
			} else {
				b.WriteString("{")
				format(b, p)
				b.WriteString("}")
			}
		}
		b.WriteString("\"")
	case *Call:
		if x.NameExpr != nil {
			format(b, x.NameExpr)
		} else {
			b.WriteString(x.Name)
		}
		b.WriteString("(")
		formatList(b, x.Args)
		b.WriteString(")")
	case *MethodCall:
		format(b, x.Object)
		b.WriteString("->" + x.Name + "(")
		formatList(b, x.Args)
		b.WriteString(")")
	case *StaticCall:
		b.WriteString(x.Class + "::" + x.Name + "(")
		formatList(b, x.Args)
		b.WriteString(")")
	case *New:
		b.WriteString("new ")
		if x.ClassExpr != nil {
			format(b, x.ClassExpr)
		} else {
			b.WriteString(x.Class)
		}
		b.WriteString("(")
		formatList(b, x.Args)
		b.WriteString(")")
	case *Include:
		b.WriteString(x.Kind.String() + " ")
		format(b, x.Path)
	case *Eval:
		b.WriteString("eval(")
		format(b, x.Code)
		b.WriteString(")")
	case *Isset:
		b.WriteString("isset(")
		formatList(b, x.Vars)
		b.WriteString(")")
	case *Empty:
		b.WriteString("empty(")
		format(b, x.X)
		b.WriteString(")")
	case *Ternary:
		format(b, x.Cond)
		b.WriteString(" ? ")
		format(b, x.Then)
		b.WriteString(" : ")
		format(b, x.Else)
	case *ConstFetch:
		b.WriteString(x.Name)
	case *ClassConst:
		b.WriteString(x.Class + "::" + x.Name)
	case *Cast:
		b.WriteString("(" + x.To + ")")
		format(b, x.X)
	case *InstanceOf:
		format(b, x.X)
		b.WriteString(" instanceof " + x.Class)
	case *List:
		b.WriteString("list(")
		formatList(b, x.Items)
		b.WriteString(")")
	case *Exit:
		b.WriteString("exit(")
		format(b, x.X)
		b.WriteString(")")
	case *Opaque:
		b.WriteString("<" + x.Kind + ">")
	case *ForeachNext:
		b.WriteString("next(")
		format(b, x.Loop.Subject)
		b.WriteString(")")
	case *ExprStmt:
		format(b, x.X)
	case *Echo:
		b.WriteString("echo ")
		formatList(b, x.Args)
	case *Return:
		b.WriteString("return")
		if x.X != nil {
			b.WriteString(" ")
			format(b, x.X)
		}
	case *If:
		b.WriteString("if (")
		format(b, x.Cond)
		b.WriteString(") {...}")
	case *While:
		b.WriteString("while (")
		format(b, x.Cond)
		b.WriteString(") {...}")
	case *DoWhile:
		b.WriteString("do {...} while (")
		format(b, x.Cond)
		b.WriteString(")")
	case *For:
		b.WriteString("for (...) {...}")
	case *Foreach:
		b.WriteString("foreach (")
		format(b, x.Subject)
		b.WriteString(" as ")
		if x.Key != nil {
			format(b, x.Key)
			b.WriteString(" => ")
		}
		format(b, x.Value)
		b.WriteString(") {...}")
	case *Switch:
		b.WriteString("switch (")
		format(b, x.Subject)
		b.WriteString(") {...}")
	case *Break:
		b.WriteString("break " + strconv.Itoa(x.Depth))
	case *Continue:
		b.WriteString("continue " + strconv.Itoa(x.Depth))
	case *Block:
		b.WriteString("{...}")
	case *FunctionDecl:
		b.WriteString("function " + x.QualifiedName() + "(...)")
	case *ClassDecl:
		b.WriteString("class " + x.Name)
	case *Global:
		b.WriteString("global $" + strings.Join(x.Names, ", $"))
	case *StaticVar:
		b.WriteString("static")
		for i, v := range x.Vars {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(" $" + v.Name)
		}
	case *Unset:
		b.WriteString("unset(")
		formatList(b, x.Vars)
		b.WriteString(")")
	case *Throw:
		b.WriteString("throw ")
		format(b, x.X)
	case *Try:
		b.WriteString("try {...}")
	case *Catch:
		b.WriteString("catch (" + strings.Join(x.Classes, "|") + " $" + x.Var + ")")
	case *ConstStmt:
		b.WriteString("const ...")
	case *Nop:
		b.WriteString(";")
	}
}
