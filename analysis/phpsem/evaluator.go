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

// Package phpsem implements the default semantics of PHP used by the forward analysis: the expression evaluator,
// the function resolver, the flow resolver and the analyzers of a set of native functions.
package phpsem

import (
	"math"
	"strconv"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/flow"
	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/values"
	"github.com/awslabs/ar-php-tools/internal/funcutil"
)

// Warning kinds raised by the default semantics. Operations on values raise the kinds of values.IssueKind.
const (
	UndefinedFunction  = "UNDEFINED_FUNCTION"
	UndefinedMethod    = "UNDEFINED_METHOD"
	UndefinedClass     = "UNDEFINED_CLASS"
	UndefinedConstant  = "UNDEFINED_CONSTANT"
	WrongArgumentCount = "WRONG_ARGUMENT_COUNT"
	NonObjectCall      = "CALL_ON_NON_OBJECT"
	UncaughtException  = "UNCAUGHT_EXCEPTION"
	InvalidForeach     = "INVALID_FOREACH"
	DynamicInclude     = "DYNAMIC_INCLUDE"
	IncludeNotFound    = "INCLUDE_NOT_FOUND"
	DynamicEval        = "DYNAMIC_EVAL"
)

// maxProduct bounds the number of value pairs a binary operation is evaluated on. Larger operands are widened
// first.
const maxProduct = 64

// superglobals are the variables visible at every call level
var superglobals = funcutil.SetOf("_GET", "_POST", "_COOKIE", "_REQUEST", "_SERVER", "_FILES", "_ENV", "_SESSION")

// Evaluator is the default expression evaluator
type Evaluator struct{}

var _ flow.ExpressionEvaluator = Evaluator{}

func warnIssues(c *flow.Controller, issues []values.Issue) {
	for _, is := range issues {
		c.SetWarning(string(is.Kind), "%s", is.Message)
	}
}

func isNull(e memory.Entry) bool {
	return funcutil.ForAll(e.Values(), func(v values.Value) bool { return v == values.Undefined{} })
}

// concreteStrings returns the string conversions of the values of e. ok is false when a value has no concrete
// string conversion.
func concreteStrings(e memory.Entry) (res []string, ok bool) {
	for _, v := range e.Values() {
		if !values.IsConcrete(v) {
			return res, false
		}
		s, _ := values.ToString(v)
		str, isStr := s.(values.String)
		if !isStr {
			return res, false
		}
		res = append(res, string(str))
	}
	return res, e.Len() > 0
}

// ResolveVariable returns the path of the variable at the current level, or at the global level for superglobals
func (Evaluator) ResolveVariable(c *flow.Controller, name string) memory.Path {
	if superglobals[name] {
		return memory.VariablePath(name).At(memory.Global)
	}
	return memory.VariablePath(name)
}

// ResolveIndirectVariable returns the path of the variables named by the values, or of every variable when a name
// is not known
func (e Evaluator) ResolveIndirectVariable(c *flow.Controller, names memory.Entry) memory.Path {
	ns, ok := concreteStrings(names)
	if !ok {
		return memory.AnyVariablePath()
	}
	if len(ns) == 1 {
		return e.ResolveVariable(c, ns[0])
	}
	return memory.VariablePath(ns...)
}

// ResolveIndex returns the path of the elements at the keys. The next free key of $a[] is one more than the
// largest integer key of the arrays.
func (Evaluator) ResolveIndex(c *flow.Controller, base memory.Path, key memory.Entry) memory.Path {
	if key.IsEmpty() {
		keys, unknown := c.OutSet.Keys(base)
		if unknown {
			return base.AnyIndex()
		}
		next := int64(0)
		for _, k := range keys {
			if i, ok := values.KeyValue(k).(values.Integer); ok && int64(i) >= next {
				next = int64(i) + 1
			}
		}
		return base.Index(strconv.FormatInt(next, 10))
	}
	var keys []string
	for _, v := range key.Values() {
		k, ok := values.ToKey(v)
		if !ok {
			return base.AnyIndex()
		}
		if !funcutil.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return base.Index(keys...)
}

// ResolveField returns the path of the fields with the names
func (Evaluator) ResolveField(c *flow.Controller, base memory.Path, names memory.Entry) memory.Path {
	ns, ok := concreteStrings(names)
	if !ok {
		return base.AnyField()
	}
	return base.Field(ns...)
}

func staticFieldName(class, name string) string {
	return strings.ToLower(class) + "::$" + name
}

// ResolveStaticField returns the path of the global location holding the static property
func (Evaluator) ResolveStaticField(c *flow.Controller, class, name string) memory.Path {
	return memory.VariablePath(staticFieldName(class, name)).At(memory.Global)
}

// ReadValue returns the values at p
func (Evaluator) ReadValue(c *flow.Controller, p memory.Path) memory.Entry {
	return c.OutSet.ReadValue(p)
}

// Assign writes the value at the target
func (Evaluator) Assign(c *flow.Controller, target memory.Path, value memory.Entry) {
	c.OutSet.Assign(target, value)
}

// AssignAlias binds the target to the source
func (Evaluator) AssignAlias(c *flow.Controller, target, source memory.Path) {
	c.OutSet.AssignAlias(target, source)
}

// widenOperand bounds the number of values of an operand
func widenOperand(e memory.Entry, n int) memory.Entry {
	if e.Len()*n <= maxProduct {
		return e
	}
	return e.Map(values.Widen)
}

// BinaryEx evaluates the operator on every pair of values of the operands
func (Evaluator) BinaryEx(c *flow.Controller, op string, left, right memory.Entry) memory.Entry {
	bop, ok := values.ParseBinaryOp(op)
	if !ok {
		c.SetWarning(string(values.UnsupportedOperand), "unsupported operator %s", op)
		return memory.NewEntry(values.AnyValue{})
	}
	left = widenOperand(left, right.Len())
	right = widenOperand(right, left.Len())
	var res memory.Entry
	for _, l := range left.Values() {
		for _, r := range right.Values() {
			out := values.Binary(bop, l, r)
			warnIssues(c, out.Issues)
			res = res.Add(out.Values...)
		}
	}
	return res
}

// UnaryEx evaluates the operator on every value of the operand
func (Evaluator) UnaryEx(c *flow.Controller, op string, x memory.Entry) memory.Entry {
	uop, ok := values.ParseUnaryOp(op)
	if !ok {
		c.SetWarning(string(values.UnsupportedOperand), "unsupported operator %s", op)
		return memory.NewEntry(values.AnyValue{})
	}
	var res memory.Entry
	for _, v := range x.Values() {
		out := values.Unary(uop, v)
		warnIssues(c, out.Issues)
		res = res.Add(out.Values...)
	}
	return res
}

// IncDec increments or decrements the values at target
func (Evaluator) IncDec(c *flow.Controller, target memory.Path, inc bool) (before, after memory.Entry) {
	before = c.OutSet.ReadValue(target)
	for _, v := range before.Values() {
		after = after.Add(values.IncDec(v, inc).Values...)
	}
	c.OutSet.Assign(target, after)
	return before, after
}

// Concat concatenates the string conversions of the parts
func (Evaluator) Concat(c *flow.Controller, parts []memory.Entry) memory.Entry {
	acc := memory.NewEntry(values.String(""))
	for _, p := range parts {
		p = widenOperand(p, acc.Len())
		var next memory.Entry
		for _, l := range acc.Values() {
			for _, r := range p.Values() {
				out := values.Concat(l, r)
				warnIssues(c, out.Issues)
				next = next.Add(out.Values...)
			}
		}
		acc = next
	}
	return acc
}

// Foreach assigns the elements and keys of the iterated arrays to the value and key of the loop. A by-reference
// loop binds the value to the elements.
func (Evaluator) Foreach(c *flow.Controller, loop *ir.Foreach, subject, key, value memory.Path) {
	keys, unknown := c.OutSet.Keys(subject)
	iterable := false
	for _, v := range c.OutSet.ReadValue(subject).Values() {
		switch v.(type) {
		case values.Object, values.AnyObject, values.AnyCompound, values.AnyValue:
			unknown = true
			iterable = true
		case values.Array, values.AnyArray:
			iterable = true
		}
	}
	if !iterable {
		c.SetWarning(InvalidForeach, "foreach over a value that is not an array")
		return
	}
	if !key.IsEmpty() {
		var ks memory.Entry
		for _, k := range keys {
			ks = ks.Add(values.KeyValue(k))
		}
		if unknown {
			ks = ks.Add(values.AnyInteger{}, values.AnyString{})
		}
		c.OutSet.Assign(key, ks)
	}
	elems := subject.AnyIndex()
	if !unknown && len(keys) > 0 {
		elems = subject.Index(keys...)
	}
	if loop.ByRef {
		c.OutSet.AssignAlias(value, elems)
		return
	}
	vals := c.OutSet.ReadElements(subject)
	if unknown {
		vals = vals.Add(values.AnyValue{})
	}
	c.OutSet.Assign(value, vals)
}

// CreateObject creates an object of the class and initializes its declared properties
func (Evaluator) CreateObject(c *flow.Controller, site, class string) memory.Entry {
	decls := classDecls(c, class)
	if len(decls) == 0 && !isBuiltinClass(class) {
		c.SetWarning(UndefinedClass, "class %s is not defined", class)
	}
	name := class
	if len(decls) > 0 {
		name = decls[0].Name
	} else if b, ok := builtinName(class); ok {
		name = b
	}
	obj := c.OutSet.CreateObject(site, name)
	tmp := memory.TemporaryPath("new@" + site)
	c.OutSet.Assign(tmp, memory.NewEntry(obj))
	for _, d := range decls {
		for _, cls := range ancestry(c, d) {
			for _, p := range cls.Props {
				if p.Static {
					continue
				}
				f := tmp.Field(p.Name)
				if c.OutSet.IsDefined(f) {
					continue
				}
				v := memory.UndefinedEntry
				if p.Default != nil {
					v = c.Eval(p.Default)
				}
				c.OutSet.Assign(f, v)
			}
		}
	}
	return memory.NewEntry(obj)
}

// IndirectCreateObject creates objects of the classes named by the values. Unknown class names create unknown
// objects.
func (e Evaluator) IndirectCreateObject(c *flow.Controller, site string, classes memory.Entry) memory.Entry {
	names, ok := concreteStrings(classes)
	var res memory.Entry
	for _, n := range names {
		res = res.Union(e.CreateObject(c, site, n))
	}
	if !ok {
		res = res.Add(values.AnyObject{})
	}
	return res
}

// predefined holds the values of the predefined constants
var predefined = map[string]values.Value{
	"PHP_EOL":             values.String("\n"),
	"PHP_INT_MAX":         values.Integer(math.MaxInt64),
	"PHP_INT_MIN":         values.Integer(math.MinInt64),
	"PHP_INT_SIZE":        values.Integer(8),
	"PHP_FLOAT_EPSILON":   values.Float(math.SmallestNonzeroFloat64),
	"M_PI":                values.Float(math.Pi),
	"E_ALL":               values.Integer(32767),
	"E_ERROR":             values.Integer(1),
	"E_WARNING":           values.Integer(2),
	"E_NOTICE":            values.Integer(8),
	"DIRECTORY_SEPARATOR": values.String("/"),
	"PHP_VERSION":         values.AnyString{},
	"PHP_OS":              values.AnyString{},
}

func classConstantName(class, name string) string {
	return strings.ToLower(class) + "::" + name
}

// Constant returns the value of the constant. Class constants are searched in the class and its ancestors.
func (Evaluator) Constant(c *flow.Controller, class, name string) memory.Entry {
	if class == "" {
		switch strings.ToLower(name) {
		case "true":
			return memory.NewEntry(values.Boolean(true))
		case "false":
			return memory.NewEntry(values.Boolean(false))
		case "null":
			return memory.UndefinedEntry
		}
		if v, ok := predefined[name]; ok {
			return memory.NewEntry(v)
		}
		if e, ok := c.OutSet.ReadConstant(name); ok {
			return e
		}
		c.SetWarning(UndefinedConstant, "constant %s is not defined", name)
		return memory.NewEntry(values.AnyValue{})
	}
	if name == "class" {
		return memory.NewEntry(values.String(class))
	}
	var res memory.Entry
	for _, d := range classDecls(c, class) {
		for _, cls := range ancestry(c, d) {
			if e, ok := c.OutSet.ReadConstant(classConstantName(cls.Name, name)); ok {
				res = res.Union(e)
				break
			}
		}
	}
	if res.IsEmpty() {
		c.SetWarning(UndefinedConstant, "constant %s::%s is not defined", class, name)
		return memory.NewEntry(values.AnyValue{})
	}
	return res
}

// ConstantDeclaration declares the constant
func (Evaluator) ConstantDeclaration(c *flow.Controller, name string, value memory.Entry) {
	c.OutSet.DeclareConstant(name, value)
}

// Echo converts the parts to strings. The output itself is not modeled.
func (Evaluator) Echo(c *flow.Controller, parts []memory.Entry) {
	for _, p := range parts {
		for _, v := range p.Values() {
			_, issues := values.ToString(v)
			warnIssues(c, issues)
		}
	}
}

// Isset returns true when every path holds a non-null value, false when one of them is null
func (Evaluator) Isset(c *flow.Controller, paths []memory.Path) memory.Entry {
	all := true
	for _, p := range paths {
		v := c.OutSet.ReadValue(p)
		if isNull(v) {
			return memory.NewEntry(values.Boolean(false))
		}
		if v.Contains(values.Undefined{}) || v.Contains(values.AnyValue{}) {
			all = false
		}
	}
	if all {
		return memory.NewEntry(values.Boolean(true))
	}
	return memory.NewEntry(values.AnyBoolean{})
}

// Empty returns the negation of the boolean conversion of x
func (Evaluator) Empty(c *flow.Controller, x memory.Entry) memory.Entry {
	var res memory.Entry
	for _, v := range x.Values() {
		if b, ok := values.ToBoolean(v); ok {
			res = res.Add(values.Boolean(!b))
		} else {
			res = res.Add(values.AnyBoolean{})
		}
	}
	return res
}

// Cast converts the values. Scalars cast to arrays become arrays holding the scalar at key 0.
func (e Evaluator) Cast(c *flow.Controller, to string, x memory.Entry) memory.Entry {
	switch strings.ToLower(to) {
	case "array":
		var res memory.Entry
		for _, v := range x.Values() {
			switch v.(type) {
			case values.Array, values.AnyArray:
				res = res.Add(v)
			case values.Undefined:
				tmp := memory.TemporaryPath("cast-empty")
				c.OutSet.AssignEmptyArray(tmp)
				res = res.Union(c.OutSet.ReadValue(tmp))
			case values.Object, values.AnyObject, values.AnyCompound, values.AnyValue:
				res = res.Add(values.AnyArray{})
			default:
				tmp := memory.TemporaryPath("cast-" + v.String())
				c.OutSet.AssignEmptyArray(tmp)
				c.OutSet.Assign(tmp.Index("0"), memory.NewEntry(v))
				res = res.Union(c.OutSet.ReadValue(tmp))
			}
		}
		return res
	case "object":
		var res memory.Entry
		for _, v := range x.Values() {
			switch v.(type) {
			case values.Object, values.AnyObject:
				res = res.Add(v)
			default:
				res = res.Add(values.AnyObject{})
			}
		}
		return res
	}
	return e.UnaryEx(c, to, x)
}

// InstanceOf returns whether the objects are instances of the class
func (Evaluator) InstanceOf(c *flow.Controller, x memory.Entry, class string) memory.Entry {
	var res memory.Entry
	for _, v := range x.Values() {
		switch o := v.(type) {
		case values.Object:
			res = res.Add(values.Boolean(isSubclass(c, o.Class, class)))
		case values.AnyObject, values.AnyCompound, values.AnyValue:
			res = res.Add(values.AnyBoolean{})
		default:
			res = res.Add(values.Boolean(false))
		}
	}
	return res
}

// Unset removes the locations
func (Evaluator) Unset(c *flow.Controller, p memory.Path) {
	c.OutSet.Unset(p)
}

// Global binds the variables to the global variables with the same names
func (Evaluator) Global(c *flow.Controller, names []string) {
	if c.Level() == memory.Global {
		return
	}
	for _, n := range names {
		c.OutSet.BindIndex(memory.Variable(c.Level(), n), memory.VariablePath(n).At(memory.Global))
	}
}

func staticVariableName(fn *ir.FunctionDecl, name string) string {
	if fn == nil {
		return "static:$" + name
	}
	return "static:" + strings.ToLower(fn.QualifiedName()) + "#" + strconv.Itoa(fn.ID()) + "$" + name
}

// Static binds the variable to the global location of the static variable of the function. The location gets the
// initial value when it may not be initialized yet.
func (Evaluator) Static(c *flow.Controller, name string, initial memory.Entry) {
	p := memory.VariablePath(staticVariableName(c.Function(), name)).At(memory.Global)
	if cur := c.OutSet.ReadValue(p); cur.Contains(values.Undefined{}) {
		set := cur.Filter(func(v values.Value) bool { return v != values.Undefined{} }).Union(initial)
		c.OutSet.Assign(p, set)
	}
	c.OutSet.BindIndex(memory.Variable(c.Level(), name), p)
}
