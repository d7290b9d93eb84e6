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

// Package ir defines the statement and expression trees of PHP programs consumed by the control-flow graph builder.
// Trees are produced by a frontend (see analysis/frontend/php) or built directly with the constructors of build.go.
// Every node carries a stable identifier assigned by Number, which is used as the key for deduplicating program
// points and as the allocation site of arrays and objects.
package ir

import (
	"fmt"
	"strings"
)

// Pos is a position in a source file
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// IsValid returns true if the position has a line
func (p Pos) IsValid() bool {
	return p.Line > 0
}

// Node is implemented by all expressions and statements
type Node interface {
	// ID returns the identifier assigned by Number. Identifiers are unique across the files numbered with the same
	// allocator.
	ID() int
	// Position returns the position of the node in the source
	Position() Pos
	node() *base
}

// base is embedded in every node
type base struct {
	NodeID int
	Pos    Pos
}

// ID returns the node identifier
func (b *base) ID() int { return b.NodeID }

// Position returns the source position of the node
func (b *base) Position() Pos { return b.Pos }

func (b *base) node() *base { return b }

// Expr is an expression node
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node
type Stmt interface {
	Node
	stmtNode()
}

// File is a parsed PHP source file
type File struct {
	// Path is the path the file has been loaded from
	Path string
	// Body contains the top-level statements of the file
	Body []Stmt
}

// ********* Expressions *********

// Variable is a named variable $Name
type Variable struct {
	base
	Name string
}

// IndirectVariable is a variable variable $$NameExpr
type IndirectVariable struct {
	base
	NameExpr Expr
}

// IntLit is an integer literal
type IntLit struct {
	base
	Value int64
}

// FloatLit is a floating point literal
type FloatLit struct {
	base
	Value float64
}

// StringLit is a string literal, after unescaping
type StringLit struct {
	base
	Value string
}

// BoolLit is true or false
type BoolLit struct {
	base
	Value bool
}

// NullLit is null
type NullLit struct {
	base
}

// ArrayItem is one item of an array literal. Key is nil for items appended with the next integer key.
type ArrayItem struct {
	Key   Expr
	Value Expr
	ByRef bool
}

// ArrayLit is an array literal array(...) or [...]
type ArrayLit struct {
	base
	Items []ArrayItem
}

// Index is an array access Base[Key]. Key is nil in $a[] = ... appends.
type Index struct {
	base
	Base Expr
	Key  Expr
}

// Field is a property access Base->Name, or Base->{NameExpr} when the name is dynamic
type Field struct {
	base
	Base     Expr
	Name     string
	NameExpr Expr
}

// StaticField is a static property access Class::$Name
type StaticField struct {
	base
	Class string
	Name  string
}

// Binary is a binary operation. Op is the PHP operator (e.g. "+", "===", "&&", ".").
type Binary struct {
	base
	Op    string
	Left  Expr
	Right Expr
}

// Unary is a prefix operation -X, +X, !X or ~X
type Unary struct {
	base
	Op string
	X  Expr
}

// IncDec is ++X, X++, --X or X--
type IncDec struct {
	base
	X      Expr
	Inc    bool
	Prefix bool
}

// Assign is Target = Value, or a compound assignment Target Op= Value when Op is not empty
type Assign struct {
	base
	Target Expr
	Value  Expr
	Op     string
}

// AssignRef is Target =& Source
type AssignRef struct {
	base
	Target Expr
	Source Expr
}

// Interpolated is a string with embedded expressions "a $b c"
type Interpolated struct {
	base
	Parts []Expr
}

// Call is a function call Name(Args), or NameExpr(Args) when the callee is computed
type Call struct {
	base
	Name     string
	NameExpr Expr
	Args     []Expr
}

// MethodCall is Object->Name(Args), or Object->{NameExpr}(Args)
type MethodCall struct {
	base
	Object   Expr
	Name     string
	NameExpr Expr
	Args     []Expr
}

// StaticCall is Class::Name(Args). Class may be self, parent or static.
type StaticCall struct {
	base
	Class string
	Name  string
	Args  []Expr
}

// New is new Class(Args), or new ClassExpr(Args)
type New struct {
	base
	Class     string
	ClassExpr Expr
	Args      []Expr
}

// IncludeKind is one of include, include_once, require, require_once
type IncludeKind int

const (
	// IncludePlain is include
	IncludePlain IncludeKind = iota
	// IncludeOnce is include_once
	IncludeOnce
	// RequirePlain is require
	RequirePlain
	// RequireOnce is require_once
	RequireOnce
)

// Once returns true for the _once variants
func (k IncludeKind) Once() bool {
	return k == IncludeOnce || k == RequireOnce
}

func (k IncludeKind) String() string {
	switch k {
	case IncludeOnce:
		return "include_once"
	case RequirePlain:
		return "require"
	case RequireOnce:
		return "require_once"
	default:
		return "include"
	}
}

// Include is an include or require expression
type Include struct {
	base
	Kind IncludeKind
	Path Expr
}

// Eval is eval(Code)
type Eval struct {
	base
	Code Expr
}

// Isset is isset(Vars...)
type Isset struct {
	base
	Vars []Expr
}

// Empty is empty(X)
type Empty struct {
	base
	X Expr
}

// Ternary is Cond ? Then : Else. Then is nil for Cond ?: Else.
type Ternary struct {
	base
	Cond Expr
	Then Expr
	Else Expr
}

// ConstFetch reads the constant Name
type ConstFetch struct {
	base
	Name string
}

// ClassConst reads the class constant Class::Name
type ClassConst struct {
	base
	Class string
	Name  string
}

// Cast is (To) X, where To is one of int, float, string, bool, array, object, unset
type Cast struct {
	base
	To string
	X  Expr
}

// InstanceOf is X instanceof Class
type InstanceOf struct {
	base
	X     Expr
	Class string
}

// List is the assignment target list(Items...). Skipped items are nil.
type List struct {
	base
	Items []Expr
}

// Exit is exit(X) or die(X). X may be nil.
type Exit struct {
	base
	X Expr
}

// ForeachNext is the condition of the edge entering the body of a foreach loop: it holds when the iterated array
// may have another element. It is created by the control-flow graph builder.
type ForeachNext struct {
	base
	Loop *Foreach
}

// Opaque is a construct the frontend does not lower, such as a closure. Kind names the construct.
type Opaque struct {
	base
	Kind string
}

func (*Variable) exprNode()         {}
func (*IndirectVariable) exprNode() {}
func (*IntLit) exprNode()           {}
func (*FloatLit) exprNode()         {}
func (*StringLit) exprNode()        {}
func (*BoolLit) exprNode()          {}
func (*NullLit) exprNode()          {}
func (*ArrayLit) exprNode()         {}
func (*Index) exprNode()            {}
func (*Field) exprNode()            {}
func (*StaticField) exprNode()      {}
func (*Binary) exprNode()           {}
func (*Unary) exprNode()            {}
func (*IncDec) exprNode()           {}
func (*Assign) exprNode()           {}
func (*AssignRef) exprNode()        {}
func (*Interpolated) exprNode()     {}
func (*Call) exprNode()             {}
func (*MethodCall) exprNode()       {}
func (*StaticCall) exprNode()       {}
func (*New) exprNode()              {}
func (*Include) exprNode()          {}
func (*Eval) exprNode()             {}
func (*Isset) exprNode()            {}
func (*Empty) exprNode()            {}
func (*Ternary) exprNode()          {}
func (*ConstFetch) exprNode()       {}
func (*ClassConst) exprNode()       {}
func (*Cast) exprNode()             {}
func (*InstanceOf) exprNode()       {}
func (*List) exprNode()             {}
func (*Exit) exprNode()             {}
func (*ForeachNext) exprNode()      {}
func (*Opaque) exprNode()           {}

// ********* Statements *********

// ExprStmt is an expression evaluated for its effects
type ExprStmt struct {
	base
	X Expr
}

// Echo is echo Args... (also used for inline HTML)
type Echo struct {
	base
	Args []Expr
}

// Return is return X. X may be nil.
type Return struct {
	base
	X Expr
}

// ElseIf is an elseif branch of an If
type ElseIf struct {
	Cond Expr
	Body []Stmt
}

// If is if (Cond) Then elseif ... else Else. Else is nil when absent.
type If struct {
	base
	Cond    Expr
	Then    []Stmt
	ElseIfs []ElseIf
	Else    []Stmt
}

// While is while (Cond) Body
type While struct {
	base
	Cond Expr
	Body []Stmt
}

// DoWhile is do Body while (Cond)
type DoWhile struct {
	base
	Body []Stmt
	Cond Expr
}

// For is for (Init; Cond; Step) Body. The loop condition is the last expression of Cond, or true if Cond is empty.
type For struct {
	base
	Init []Expr
	Cond []Expr
	Step []Expr
	Body []Stmt
}

// Foreach is foreach (Subject as Key => Value) Body. Key may be nil.
type Foreach struct {
	base
	Subject Expr
	Key     Expr
	Value   Expr
	ByRef   bool
	Body    []Stmt
}

// Case is a case of a switch. Cond is nil for the default case.
type Case struct {
	Cond Expr
	Body []Stmt
}

// Switch is switch (Subject) { Cases... }
type Switch struct {
	base
	Subject Expr
	Cases   []Case
}

// Break is break Depth
type Break struct {
	base
	Depth int
}

// Continue is continue Depth
type Continue struct {
	base
	Depth int
}

// Block is a nested statement list { Body }
type Block struct {
	base
	Body []Stmt
}

// Param is a formal parameter of a function
type Param struct {
	Name    string
	Default Expr
	ByRef   bool
	Type    string
}

// FunctionDecl is a function or method declaration
type FunctionDecl struct {
	base
	Name   string
	Params []Param
	Body   []Stmt
	// Class is the declaring class of a method, nil for functions
	Class  *ClassDecl
	Static bool
	// File is the path of the file declaring the function
	File string
}

// QualifiedName returns Class::Name for methods and Name for functions
func (f *FunctionDecl) QualifiedName() string {
	if f.Class != nil {
		return f.Class.Name + "::" + f.Name
	}
	return f.Name
}

// Property is a property declaration of a class
type Property struct {
	Name    string
	Default Expr
	Static  bool
}

// ConstItem is one constant of a const statement or class constant declaration
type ConstItem struct {
	Name  string
	Value Expr
}

// ClassDecl is a class declaration
type ClassDecl struct {
	base
	Name       string
	Parent     string
	Interfaces []string
	Methods    []*FunctionDecl
	Props      []Property
	Consts     []ConstItem
}

// Method returns the method declared in the class with the name, ignoring case
func (c *ClassDecl) Method(name string) *FunctionDecl {
	for _, m := range c.Methods {
		if strings.EqualFold(m.Name, name) {
			return m
		}
	}
	return nil
}

// Global is global $Names...
type Global struct {
	base
	Names []string
}

// StaticItem is one variable of a static declaration
type StaticItem struct {
	Name    string
	Default Expr
}

// StaticVar is static $Vars...
type StaticVar struct {
	base
	Vars []StaticItem
}

// Unset is unset(Vars...)
type Unset struct {
	base
	Vars []Expr
}

// Throw is throw X
type Throw struct {
	base
	X Expr
}

// Catch is a catch clause of a Try. Var is the name of the bound variable.
type Catch struct {
	base
	Classes []string
	Var     string
	Body    []Stmt
}

// Try is try Body catch ... finally Finally. Finally is nil when absent.
type Try struct {
	base
	Body    []Stmt
	Catches []*Catch
	Finally []Stmt
}

// ConstStmt is const Items...
type ConstStmt struct {
	base
	Items []ConstItem
}

// Nop is an empty statement
type Nop struct {
	base
}

func (*ExprStmt) stmtNode()     {}
func (*Echo) stmtNode()         {}
func (*Return) stmtNode()       {}
func (*If) stmtNode()           {}
func (*While) stmtNode()        {}
func (*DoWhile) stmtNode()      {}
func (*For) stmtNode()          {}
func (*Foreach) stmtNode()      {}
func (*Switch) stmtNode()       {}
func (*Break) stmtNode()        {}
func (*Continue) stmtNode()     {}
func (*Block) stmtNode()        {}
func (*FunctionDecl) stmtNode() {}
func (*ClassDecl) stmtNode()    {}
func (*Global) stmtNode()       {}
func (*StaticVar) stmtNode()    {}
func (*Unset) stmtNode()        {}
func (*Throw) stmtNode()        {}
func (*Try) stmtNode()          {}
func (*ConstStmt) stmtNode()    {}
func (*Nop) stmtNode()          {}
