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

// Package values implements the value lattice of the analysis: concrete PHP scalars, intervals, identity-bearing
// compound values, declarations and the abstract "any" values, with the operations of the language on them.
//
// All values are comparable Go values, so that two structurally equal values are equal map keys. A set of values
// (see memory.Entry) is the abstraction of the possible runtime values at one memory location.
package values

import (
	"fmt"
	"strconv"

	"github.com/awslabs/ar-php-tools/analysis/ir"
)

// Kind identifies the variant of a Value
type Kind int

// The kinds of values. The order is used to sort values deterministically.
const (
	KindUndefined Kind = iota
	KindBoolean
	KindInteger
	KindLong
	KindFloat
	KindString
	KindResource
	KindIntegerInterval
	KindLongInterval
	KindFloatInterval
	KindArray
	KindObject
	KindFunction
	KindNative
	KindType
	KindAnyValue
	KindAnyBoolean
	KindAnyInteger
	KindAnyLongint
	KindAnyFloat
	KindAnyString
	KindAnyResource
	KindAnyArray
	KindAnyObject
	KindAnyScalar
	KindAnyNumeric
	KindAnyCompound
	KindInfo
)

var kindNames = [...]string{
	"undefined", "boolean", "integer", "long", "float", "string", "resource",
	"integer-interval", "long-interval", "float-interval", "array", "object",
	"function", "native", "type",
	"any", "any-boolean", "any-integer", "any-longint", "any-float", "any-string", "any-resource",
	"any-array", "any-object", "any-scalar", "any-numeric", "any-compound", "info",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is the closed sum type of abstract values.
type Value interface {
	Kind() Kind
	String() string
	isValue()
}

// ********* Concrete scalars *********

// Undefined is the value of unset variables and null
type Undefined struct{}

// Boolean is a concrete boolean
type Boolean bool

// Integer is a concrete integer
type Integer int64

// Long is a concrete long integer. Long values are not supported by binary operations.
type Long int64

// Float is a concrete floating point number
type Float float64

// String is a concrete string
type String string

// Resource is a resource handle
type Resource struct {
	ID int
}

// ********* Intervals *********

// IntegerInterval is any integer in [Lo, Hi]
type IntegerInterval struct {
	Lo, Hi int64
}

// LongInterval is any long integer in [Lo, Hi]
type LongInterval struct {
	Lo, Hi int64
}

// FloatInterval is any float in [Lo, Hi]
type FloatInterval struct {
	Lo, Hi float64
}

// ********* Compound values *********

// Array is an array. Arrays have copy semantics: an array value is identified by the location that owns it, and the
// contents are stored in the children of that location. Owner must be a comparable memory location.
type Array struct {
	Owner fmt.Stringer
}

// Object is an object handle, identified by its allocation site and class. At most one recent object exists per
// site and class; the objects allocated before it are folded into a single summary object.
type Object struct {
	Site    string
	Class   string
	Summary bool
}

// Key returns the identifier of the object in the heap
func (o Object) Key() string {
	if o.Summary {
		return o.Site + "|" + o.Class + "#s"
	}
	return o.Site + "|" + o.Class + "#r"
}

// ********* Declarations *********

// Function is a user-defined function or method
type Function struct {
	Decl *ir.FunctionDecl
}

// Native is a native function, analyzed by a native analyzer
type Native struct {
	Name string
}

// Type is a class declaration
type Type struct {
	Class *ir.ClassDecl
}

// ********* Abstract values *********

// AnyValue is any value
type AnyValue struct{}

// AnyBoolean is any boolean
type AnyBoolean struct{}

// AnyInteger is any integer
type AnyInteger struct{}

// AnyLongint is any long integer
type AnyLongint struct{}

// AnyFloat is any float
type AnyFloat struct{}

// AnyString is any string
type AnyString struct{}

// AnyResource is any resource
type AnyResource struct{}

// AnyArray is any array
type AnyArray struct{}

// AnyObject is any object
type AnyObject struct{}

// AnyScalar is any boolean, integer, float or string
type AnyScalar struct{}

// AnyNumeric is any integer or float
type AnyNumeric struct{}

// AnyCompound is any array or object
type AnyCompound struct{}

// Info carries analysis data stored in memory, such as warnings and catch targets. Data must be comparable.
type Info struct {
	Data any
}

// Kind implementations

func (Undefined) Kind() Kind       { return KindUndefined }
func (Boolean) Kind() Kind         { return KindBoolean }
func (Integer) Kind() Kind         { return KindInteger }
func (Long) Kind() Kind            { return KindLong }
func (Float) Kind() Kind           { return KindFloat }
func (String) Kind() Kind          { return KindString }
func (Resource) Kind() Kind        { return KindResource }
func (IntegerInterval) Kind() Kind { return KindIntegerInterval }
func (LongInterval) Kind() Kind    { return KindLongInterval }
func (FloatInterval) Kind() Kind   { return KindFloatInterval }
func (Array) Kind() Kind           { return KindArray }
func (Object) Kind() Kind          { return KindObject }
func (Function) Kind() Kind        { return KindFunction }
func (Native) Kind() Kind          { return KindNative }
func (Type) Kind() Kind            { return KindType }
func (AnyValue) Kind() Kind        { return KindAnyValue }
func (AnyBoolean) Kind() Kind      { return KindAnyBoolean }
func (AnyInteger) Kind() Kind      { return KindAnyInteger }
func (AnyLongint) Kind() Kind      { return KindAnyLongint }
func (AnyFloat) Kind() Kind        { return KindAnyFloat }
func (AnyString) Kind() Kind       { return KindAnyString }
func (AnyResource) Kind() Kind     { return KindAnyResource }
func (AnyArray) Kind() Kind        { return KindAnyArray }
func (AnyObject) Kind() Kind       { return KindAnyObject }
func (AnyScalar) Kind() Kind       { return KindAnyScalar }
func (AnyNumeric) Kind() Kind      { return KindAnyNumeric }
func (AnyCompound) Kind() Kind     { return KindAnyCompound }
func (Info) Kind() Kind            { return KindInfo }

// String implementations. The rendering is injective within a kind.

func (Undefined) String() string   { return "null" }
func (b Boolean) String() string   { return strconv.FormatBool(bool(b)) }
func (i Integer) String() string   { return strconv.FormatInt(int64(i), 10) }
func (l Long) String() string      { return strconv.FormatInt(int64(l), 10) + "L" }
func (f Float) String() string     { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (s String) String() string    { return strconv.Quote(string(s)) }
func (r Resource) String() string  { return "resource#" + strconv.Itoa(r.ID) }
func (AnyValue) String() string    { return "AnyValue" }
func (AnyBoolean) String() string  { return "AnyBoolean" }
func (AnyInteger) String() string  { return "AnyInteger" }
func (AnyLongint) String() string  { return "AnyLongint" }
func (AnyFloat) String() string    { return "AnyFloat" }
func (AnyString) String() string   { return "AnyString" }
func (AnyResource) String() string { return "AnyResource" }
func (AnyArray) String() string    { return "AnyArray" }
func (AnyObject) String() string   { return "AnyObject" }
func (AnyScalar) String() string   { return "AnyScalar" }
func (AnyNumeric) String() string  { return "AnyNumeric" }
func (AnyCompound) String() string { return "AnyCompound" }

func (i IntegerInterval) String() string {
	return fmt.Sprintf("[%d..%d]", i.Lo, i.Hi)
}

func (i LongInterval) String() string {
	return fmt.Sprintf("[%dL..%dL]", i.Lo, i.Hi)
}

func (i FloatInterval) String() string {
	return fmt.Sprintf("[%s..%s]", Float(i.Lo), Float(i.Hi))
}

func (a Array) String() string {
	if a.Owner == nil {
		return "array"
	}
	return "array@" + a.Owner.String()
}

func (o Object) String() string {
	if o.Summary {
		return "object(" + o.Class + ")@" + o.Site + "*"
	}
	return "object(" + o.Class + ")@" + o.Site
}

func (f Function) String() string {
	if f.Decl == nil {
		return "function"
	}
	return fmt.Sprintf("function %s#%d", f.Decl.QualifiedName(), f.Decl.ID())
}

func (n Native) String() string { return "native " + n.Name }

func (t Type) String() string {
	if t.Class == nil {
		return "type"
	}
	return fmt.Sprintf("type %s#%d", t.Class.Name, t.Class.ID())
}

func (i Info) String() string { return fmt.Sprintf("info(%v)", i.Data) }

func (Undefined) isValue()       {}
func (Boolean) isValue()         {}
func (Integer) isValue()         {}
func (Long) isValue()            {}
func (Float) isValue()           {}
func (String) isValue()          {}
func (Resource) isValue()        {}
func (IntegerInterval) isValue() {}
func (LongInterval) isValue()    {}
func (FloatInterval) isValue()   {}
func (Array) isValue()           {}
func (Object) isValue()          {}
func (Function) isValue()        {}
func (Native) isValue()          {}
func (Type) isValue()            {}
func (AnyValue) isValue()        {}
func (AnyBoolean) isValue()      {}
func (AnyInteger) isValue()      {}
func (AnyLongint) isValue()      {}
func (AnyFloat) isValue()        {}
func (AnyString) isValue()       {}
func (AnyResource) isValue()     {}
func (AnyArray) isValue()        {}
func (AnyObject) isValue()       {}
func (AnyScalar) isValue()       {}
func (AnyNumeric) isValue()      {}
func (AnyCompound) isValue()     {}
func (Info) isValue()            {}

// IsAbstract returns true if v stands for more than one concrete value: the any values and the intervals
func IsAbstract(v Value) bool {
	switch v.(type) {
	case IntegerInterval, LongInterval, FloatInterval:
		return true
	}
	return v.Kind() >= KindAnyValue && v.Kind() <= KindAnyCompound
}

// IsScalar returns true if v is a concrete or abstract scalar
func IsScalar(v Value) bool {
	m := TypesOf(v)
	return m != 0 && m&^(TNull|TBool|TInt|TFloat|TString) == 0
}

// IsConcrete returns true if v is a single concrete scalar
func IsConcrete(v Value) bool {
	switch v.(type) {
	case Undefined, Boolean, Integer, Long, Float, String, Resource:
		return true
	}
	return false
}

// TypeMask is a set of PHP runtime types
type TypeMask uint16

// Runtime types
const (
	TNull TypeMask = 1 << iota
	TBool
	TInt
	TFloat
	TString
	TArray
	TObject
	TResource
	TAll = TNull | TBool | TInt | TFloat | TString | TArray | TObject | TResource
)

// TypesOf returns the runtime types a value may have at runtime. Declarations and analysis data have no runtime type.
func TypesOf(v Value) TypeMask {
	switch v.(type) {
	case Undefined:
		return TNull
	case Boolean, AnyBoolean:
		return TBool
	case Integer, Long, IntegerInterval, LongInterval, AnyInteger, AnyLongint:
		return TInt
	case Float, FloatInterval, AnyFloat:
		return TFloat
	case String, AnyString:
		return TString
	case Resource, AnyResource:
		return TResource
	case Array, AnyArray:
		return TArray
	case Object, AnyObject:
		return TObject
	case AnyScalar:
		return TBool | TInt | TFloat | TString
	case AnyNumeric:
		return TInt | TFloat
	case AnyCompound:
		return TArray | TObject
	case AnyValue:
		return TAll
	}
	return 0
}

// Less orders values deterministically: by kind, then by rendering
func Less(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return a.Kind() < b.Kind()
	}
	return a.String() < b.String()
}
