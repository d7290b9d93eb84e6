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

package phpsem

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/flow"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/values"
	"github.com/awslabs/ar-php-tools/internal/funcutil"
)

// argcName is the variable holding the number of arguments passed to a native function
const argcName = ".argc"

// maxRepeat bounds the length of the strings built by str_repeat
const maxRepeat = 1000

// Native is the analyzer of a native function. Its arguments are bound to the variables "0", "1"... of the call
// level, and the number of arguments to .argc.
type Native struct {
	name    string
	minArgs int
	// byRef holds the positions of the by-reference parameters
	byRef []int
	fn    func(c *flow.Controller, args []memory.Entry) memory.Entry
}

var _ flow.NativeAnalyzer = (*Native)(nil)

// Name returns the name of the native function
func (n *Native) Name() string { return n.name }

func (n *Native) isByRef(i int) bool { return funcutil.Contains(n.byRef, i) }

func argPath(i int) memory.Path {
	return memory.VariablePath(strconv.Itoa(i))
}

// Analyze reads the arguments, computes the result of the function and returns it
func (n *Native) Analyze(c *flow.Controller) {
	argc := 0
	if v, ok := c.OutSet.ReadValue(memory.VariablePath(argcName)).Single(); ok {
		if i, ok := v.(values.Integer); ok {
			argc = int(i)
		}
	}
	if argc < n.minArgs {
		c.SetWarning(WrongArgumentCount, "%s expects at least %d arguments, %d given", n.name, n.minArgs, argc)
		c.Services.Functions.Return(c, memory.UndefinedEntry)
		return
	}
	args := make([]memory.Entry, argc)
	for i := range args {
		args[i] = c.OutSet.ReadValue(argPath(i))
	}
	c.Services.Functions.Return(c, n.fn(c, args))
}

// natives maps the lowercase names of the analyzed native functions to their analyzers
var natives = map[string]*Native{}

func init() {
	for _, n := range []*Native{
		{name: "strlen", minArgs: 1, fn: strlen},
		{name: "count", minArgs: 1, fn: count},
		{name: "is_int", minArgs: 1, fn: typeCheck(values.TInt)},
		{name: "is_float", minArgs: 1, fn: typeCheck(values.TFloat)},
		{name: "is_string", minArgs: 1, fn: typeCheck(values.TString)},
		{name: "is_array", minArgs: 1, fn: typeCheck(values.TArray)},
		{name: "is_object", minArgs: 1, fn: typeCheck(values.TObject)},
		{name: "is_null", minArgs: 1, fn: typeCheck(values.TNull)},
		{name: "is_bool", minArgs: 1, fn: typeCheck(values.TBool)},
		{name: "is_numeric", minArgs: 1, fn: isNumeric},
		{name: "intval", minArgs: 1, fn: convert(values.ToInteger)},
		{name: "floatval", minArgs: 1, fn: convert(values.ToFloat)},
		{name: "strval", minArgs: 1, fn: strval},
		{name: "abs", minArgs: 1, fn: abs},
		{name: "htmlspecialchars", minArgs: 1, fn: stringMap(htmlEscaper.Replace)},
		{name: "strtolower", minArgs: 1, fn: stringMap(strings.ToLower)},
		{name: "strtoupper", minArgs: 1, fn: stringMap(strings.ToUpper)},
		{name: "trim", minArgs: 1, fn: stringMap(func(s string) string { return strings.Trim(s, " \t\n\r\x00\x0B") })},
		{name: "str_repeat", minArgs: 2, fn: strRepeat},
		{name: "implode", minArgs: 2, fn: implode},
		{name: "array_keys", minArgs: 1, fn: arrayKeys},
		{name: "array_push", minArgs: 2, byRef: []int{0}, fn: arrayPush},
		{name: "rand", fn: random},
		{name: "mt_rand", fn: random},
		{name: "define", minArgs: 2, fn: define},
		{name: "defined", minArgs: 1, fn: defined},
		{name: "function_exists", minArgs: 1, fn: functionExists},
	} {
		natives[n.name] = n
	}
}

// LookupNative returns the analyzer of the native function, ignoring case
func LookupNative(name string) (*Native, bool) {
	n, ok := natives[strings.ToLower(name)]
	return n, ok
}

func mapValues(e memory.Entry, f func(values.Value) values.Value) memory.Entry {
	if e.IsEmpty() {
		e = memory.UndefinedEntry
	}
	return e.Map(f)
}

// stringOf returns the string conversion of v, when it is known
func stringOf(v values.Value) (string, bool) {
	s, _ := values.ToString(v)
	str, ok := s.(values.String)
	return string(str), ok
}

func intOf(v values.Value) (int64, bool) {
	if !values.IsConcrete(v) {
		return 0, false
	}
	out := values.ToInteger(v)
	if len(out.Values) != 1 {
		return 0, false
	}
	i, ok := out.Values[0].(values.Integer)
	return int64(i), ok
}

func strlen(c *flow.Controller, args []memory.Entry) memory.Entry {
	return mapValues(args[0], func(v values.Value) values.Value {
		if s, ok := stringOf(v); ok {
			return values.Integer(len(s))
		}
		return values.IntegerInterval{Lo: 0, Hi: math.MaxInt64}
	})
}

func count(c *flow.Controller, args []memory.Entry) memory.Entry {
	var res memory.Entry
	arrays := false
	for _, v := range args[0].Values() {
		switch v.(type) {
		case values.Undefined:
			res = res.Add(values.Integer(0))
		case values.Array:
			arrays = true
		case values.AnyArray, values.Object, values.AnyObject, values.AnyCompound, values.AnyValue:
			res = res.Add(values.AnyInteger{})
		default:
			res = res.Add(values.Integer(1))
		}
	}
	if !arrays {
		return res
	}
	keys, unknown := c.OutSet.Keys(argPath(0))
	if unknown {
		return res.Add(values.AnyInteger{})
	}
	// keys present on some paths only hold undefined
	must := 0
	for _, k := range keys {
		if !c.OutSet.ReadValue(argPath(0).Index(k)).Contains(values.Undefined{}) {
			must++
		}
	}
	if must == len(keys) {
		return res.Add(values.Integer(must))
	}
	return res.Add(values.IntegerInterval{Lo: int64(must), Hi: int64(len(keys))})
}

// typeCheck returns the analyzer of the is_ functions testing the runtime type
func typeCheck(mask values.TypeMask) func(*flow.Controller, []memory.Entry) memory.Entry {
	return func(c *flow.Controller, args []memory.Entry) memory.Entry {
		return mapValues(args[0], func(v values.Value) values.Value {
			t := values.TypesOf(v)
			switch {
			case t&mask == 0:
				return values.Boolean(false)
			case t&^mask == 0:
				return values.Boolean(true)
			}
			return values.AnyBoolean{}
		})
	}
}

func isNumeric(c *flow.Controller, args []memory.Entry) memory.Entry {
	return mapValues(args[0], func(v values.Value) values.Value {
		if s, ok := v.(values.String); ok {
			return values.Boolean(values.IsNumericString(string(s)))
		}
		t := values.TypesOf(v)
		switch {
		case t&^(values.TInt|values.TFloat) == 0:
			return values.Boolean(true)
		case t&(values.TInt|values.TFloat|values.TString) == 0:
			return values.Boolean(false)
		}
		return values.AnyBoolean{}
	})
}

func convert(f func(values.Value) values.Result) func(*flow.Controller, []memory.Entry) memory.Entry {
	return func(c *flow.Controller, args []memory.Entry) memory.Entry {
		var res memory.Entry
		for _, v := range args[0].Values() {
			out := f(v)
			warnIssues(c, out.Issues)
			res = res.Add(out.Values...)
		}
		return res
	}
}

func strval(c *flow.Controller, args []memory.Entry) memory.Entry {
	return mapValues(args[0], func(v values.Value) values.Value {
		s, issues := values.ToString(v)
		warnIssues(c, issues)
		return s
	})
}

func abs(c *flow.Controller, args []memory.Entry) memory.Entry {
	return mapValues(args[0], func(v values.Value) values.Value {
		switch x := v.(type) {
		case values.Integer:
			if x == math.MinInt64 {
				return values.Float(-float64(x))
			}
			if x < 0 {
				return -x
			}
			return x
		case values.Float:
			return values.Float(math.Abs(float64(x)))
		case values.IntegerInterval:
			if x.Lo >= 0 {
				return x
			}
			if x.Lo == math.MinInt64 {
				return values.AnyNumeric{}
			}
			if x.Hi <= 0 {
				return values.IntegerInterval{Lo: -x.Hi, Hi: -x.Lo}
			}
			hi := -x.Lo
			if x.Hi > hi {
				hi = x.Hi
			}
			return values.IntegerInterval{Lo: 0, Hi: hi}
		case values.AnyInteger:
			return values.AnyNumeric{}
		case values.FloatInterval, values.AnyFloat:
			return values.AnyFloat{}
		}
		return values.AnyNumeric{}
	})
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#039;")

// stringMap returns the analyzer of a function transforming its first argument as a string
func stringMap(f func(string) string) func(*flow.Controller, []memory.Entry) memory.Entry {
	return func(c *flow.Controller, args []memory.Entry) memory.Entry {
		return mapValues(args[0], func(v values.Value) values.Value {
			if s, ok := stringOf(v); ok {
				return values.String(f(s))
			}
			return values.AnyString{}
		})
	}
}

func strRepeat(c *flow.Controller, args []memory.Entry) memory.Entry {
	var res memory.Entry
	for _, sv := range args[0].Values() {
		for _, nv := range args[1].Values() {
			s, sok := stringOf(sv)
			n, nok := intOf(nv)
			if !sok || !nok || n < 0 || int64(len(s))*n > maxRepeat {
				res = res.Add(values.AnyString{})
				continue
			}
			res = res.Add(values.String(strings.Repeat(s, int(n))))
		}
	}
	return res
}

// orderedKeys sorts the keys of an array in the order integer keys are appended. ok is false when some key is not
// an integer.
func orderedKeys(keys []string) ([]string, bool) {
	ints := make([]int64, 0, len(keys))
	for _, k := range keys {
		i, isInt := values.KeyValue(k).(values.Integer)
		if !isInt {
			return nil, false
		}
		ints = append(ints, int64(i))
	}
	sort.Slice(ints, func(i, j int) bool { return ints[i] < ints[j] })
	return funcutil.Map(ints, func(i int64) string { return strconv.FormatInt(i, 10) }), true
}

func implode(c *flow.Controller, args []memory.Entry) memory.Entry {
	sep, ok := args[0].Single()
	s, sok := stringOf(sep)
	arr, aok := args[1].Single()
	if _, isArray := arr.(values.Array); !ok || !sok || !aok || !isArray {
		return memory.NewEntry(values.AnyString{})
	}
	keys, unknown := c.OutSet.Keys(argPath(1))
	ordered, ok := orderedKeys(keys)
	if unknown || !ok {
		return memory.NewEntry(values.AnyString{})
	}
	parts := make([]string, 0, len(ordered))
	for _, k := range ordered {
		v, ok := c.OutSet.ReadValue(argPath(1).Index(k)).Single()
		if !ok {
			return memory.NewEntry(values.AnyString{})
		}
		str, ok := stringOf(v)
		if !ok {
			return memory.NewEntry(values.AnyString{})
		}
		parts = append(parts, str)
	}
	return memory.NewEntry(values.String(strings.Join(parts, s)))
}

func isArray(v values.Value) bool {
	_, ok := v.(values.Array)
	return ok
}

func arrayKeys(c *flow.Controller, args []memory.Entry) memory.Entry {
	keys, unknown := c.OutSet.Keys(argPath(0))
	if unknown || !funcutil.ForAll(args[0].Values(), isArray) {
		return memory.NewEntry(values.AnyArray{})
	}
	if ordered, ok := orderedKeys(keys); ok {
		keys = ordered
	}
	tmp := memory.TemporaryPath("array_keys")
	c.OutSet.AssignEmptyArray(tmp)
	for i, k := range keys {
		c.OutSet.Assign(tmp.Index(strconv.Itoa(i)), memory.NewEntry(values.KeyValue(k)))
	}
	return c.OutSet.ReadValue(tmp)
}

func arrayPush(c *flow.Controller, args []memory.Entry) memory.Entry {
	ev := c.Services.Evaluator
	for _, v := range args[1:] {
		ev.Assign(c, ev.ResolveIndex(c, argPath(0), memory.Entry{}), v)
	}
	return count(c, args[:1])
}

func random(c *flow.Controller, args []memory.Entry) memory.Entry {
	if len(args) >= 2 {
		lo, lok := args[0].Single()
		hi, hok := args[1].Single()
		l, lok2 := intOf(lo)
		h, hok2 := intOf(hi)
		if lok && hok && lok2 && hok2 && l <= h {
			return memory.NewEntry(values.IntegerInterval{Lo: l, Hi: h})
		}
		return memory.NewEntry(values.AnyInteger{})
	}
	return memory.NewEntry(values.IntegerInterval{Lo: 0, Hi: math.MaxInt32})
}

func define(c *flow.Controller, args []memory.Entry) memory.Entry {
	names, ok := concreteStrings(args[0])
	if !ok {
		c.SetWarning(UndefinedConstant, "define with an unknown constant name")
		return memory.NewEntry(values.AnyBoolean{})
	}
	for _, n := range names {
		c.OutSet.DeclareConstant(n, args[1])
	}
	return memory.NewEntry(values.Boolean(true))
}

func defined(c *flow.Controller, args []memory.Entry) memory.Entry {
	return mapValues(args[0], func(v values.Value) values.Value {
		n, ok := stringOf(v)
		if !ok {
			return values.AnyBoolean{}
		}
		if _, ok := predefined[n]; ok {
			return values.Boolean(true)
		}
		_, ok = c.OutSet.ReadConstant(n)
		return values.Boolean(ok)
	})
}

func functionExists(c *flow.Controller, args []memory.Entry) memory.Entry {
	return mapValues(args[0], func(v values.Value) values.Value {
		n, ok := stringOf(v)
		if !ok {
			return values.AnyBoolean{}
		}
		if _, ok := LookupNative(n); ok {
			return values.Boolean(true)
		}
		return values.Boolean(!c.OutSet.ResolveFunction(n).IsEmpty())
	})
}
