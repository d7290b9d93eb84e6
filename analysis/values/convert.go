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

package values

import (
	"math"
	"strconv"
	"strings"
)

// ToBoolean converts v to a boolean. known is false when the boolean value depends on the concrete value
// abstracted by v.
func ToBoolean(v Value) (b bool, known bool) {
	switch x := v.(type) {
	case Undefined:
		return false, true
	case Boolean:
		return bool(x), true
	case Integer:
		return x != 0, true
	case Long:
		return x != 0, true
	case Float:
		return x != 0, true
	case String:
		return x != "" && x != "0", true
	case Resource, Object, AnyObject, AnyResource, Function, Native, Type:
		return true, true
	case IntegerInterval:
		if x.Lo > 0 || x.Hi < 0 {
			return true, true
		}
		if x.Lo == 0 && x.Hi == 0 {
			return false, true
		}
	case LongInterval:
		if x.Lo > 0 || x.Hi < 0 {
			return true, true
		}
	case FloatInterval:
		if x.Lo > 0 || x.Hi < 0 {
			return true, true
		}
	}
	return false, false
}

// BooleanOf returns the boolean abstraction of v: a concrete Boolean when known, AnyBoolean otherwise
func BooleanOf(v Value) Value {
	if b, ok := ToBoolean(v); ok {
		return Boolean(b)
	}
	return AnyBoolean{}
}

// parseNumber parses the numeric prefix of s the way the language converts strings to numbers. numeric is true when
// the whole string (ignoring surrounding whitespace) is a number.
func parseNumber(s string) (v Value, numeric bool) {
	t := strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(t) && (t[end] == '+' || t[end] == '-') {
		end++
	}
	digits := 0
	for end < len(t) && t[end] >= '0' && t[end] <= '9' {
		end++
		digits++
	}
	isFloat := false
	if end < len(t) && t[end] == '.' {
		j := end + 1
		frac := 0
		for j < len(t) && t[j] >= '0' && t[j] <= '9' {
			j++
			frac++
		}
		if digits+frac > 0 {
			isFloat = true
			end = j
			digits += frac
		}
	}
	if digits > 0 && end < len(t) && (t[end] == 'e' || t[end] == 'E') {
		j := end + 1
		if j < len(t) && (t[j] == '+' || t[j] == '-') {
			j++
		}
		exp := 0
		for j < len(t) && t[j] >= '0' && t[j] <= '9' {
			j++
			exp++
		}
		if exp > 0 {
			isFloat = true
			end = j
		}
	}
	if digits == 0 {
		return Integer(0), false
	}
	numeric = strings.TrimRight(t[end:], " \t\n\r\v\f") == ""
	prefix := t[:end]
	if !isFloat {
		if i, err := strconv.ParseInt(prefix, 10, 64); err == nil {
			return Integer(i), numeric
		}
	}
	f, _ := strconv.ParseFloat(prefix, 64)
	return Float(f), numeric
}

// IsNumericString returns true if s is a numeric string
func IsNumericString(s string) bool {
	_, numeric := parseNumber(s)
	return numeric
}

// ToNumber converts v to an integer or float value (concrete, interval or abstract) as in arithmetic operations.
// Long values are returned as they are.
//
//gocyclo:ignore
func ToNumber(v Value) Result {
	switch x := v.(type) {
	case Undefined:
		return Of(Integer(0))
	case Boolean:
		if x {
			return Of(Integer(1))
		}
		return Of(Integer(0))
	case Integer, Float, IntegerInterval, FloatInterval, AnyInteger, AnyFloat, AnyNumeric, Long, LongInterval,
		AnyLongint:
		return Of(v)
	case String:
		n, _ := parseNumber(string(x))
		return Of(n)
	case Resource:
		return Of(Integer(x.ID))
	case AnyBoolean:
		return Of(IntegerInterval{0, 1})
	case AnyResource:
		return Of(AnyInteger{})
	case AnyString, AnyScalar, AnyValue:
		return Of(AnyNumeric{})
	case Array, AnyArray:
		return withIssue(ArrayConversion, "array used as a number").Add(AnyNumeric{})
	case Object, AnyObject:
		return withIssue(ObjectConversion, "object of class %s cannot be converted to a number", className(v)).
			Add(Integer(1))
	case AnyCompound:
		return withIssue(ObjectConversion, "compound value used as a number").Add(AnyNumeric{})
	}
	return Of(AnyNumeric{})
}

func className(v Value) string {
	if o, ok := v.(Object); ok {
		return o.Class
	}
	return "unknown"
}

// ToInteger converts v to an integer value as the (int) cast does
func ToInteger(v Value) Result {
	r := ToNumber(v)
	for i, n := range r.Values {
		r.Values[i] = numberToInteger(n)
	}
	return r
}

func numberToInteger(n Value) Value {
	switch x := n.(type) {
	case Float:
		return floatToInteger(float64(x))
	case FloatInterval:
		if x.Lo >= math.MinInt64 && x.Hi <= math.MaxInt64 {
			return mkInterval(int64(x.Lo), int64(x.Hi))
		}
		return AnyInteger{}
	case AnyFloat, AnyNumeric:
		return AnyInteger{}
	}
	return n
}

func floatToInteger(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return Integer(0)
	}
	return Integer(int64(f))
}

// ToFloat converts v to a float value as the (float) cast does
func ToFloat(v Value) Result {
	r := ToNumber(v)
	for i, n := range r.Values {
		switch x := n.(type) {
		case Integer:
			r.Values[i] = Float(float64(x))
		case IntegerInterval:
			r.Values[i] = FloatInterval{float64(x.Lo), float64(x.Hi)}
		case AnyInteger, AnyNumeric:
			r.Values[i] = AnyFloat{}
		}
	}
	return r
}

// FormatFloat renders a float the way the language converts floats to strings
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'G', 14, 64)
}

// ToString converts v to a string value, as the string conversion of concatenation does. The conversion is uniform
// over all variants: values without a known string rendering are converted to AnyString.
func ToString(v Value) (Value, []Issue) {
	switch x := v.(type) {
	case Undefined:
		return String(""), nil
	case Boolean:
		if x {
			return String("1"), nil
		}
		return String(""), nil
	case Integer:
		return String(strconv.FormatInt(int64(x), 10)), nil
	case Long:
		return String(strconv.FormatInt(int64(x), 10)), nil
	case Float:
		return String(FormatFloat(float64(x))), nil
	case String:
		return x, nil
	case Resource:
		return String("Resource id #" + strconv.Itoa(x.ID)), nil
	case Array, AnyArray:
		return String("Array"), []Issue{{ArrayConversion, "array to string conversion"}}
	case Object:
		return AnyString{}, []Issue{{ObjectConversion, "object of class " + x.Class + " converted to string"}}
	case AnyObject, AnyCompound:
		return AnyString{}, []Issue{{ObjectConversion, "object converted to string"}}
	}
	return AnyString{}, nil
}

// ToKey converts v to an array key. ok is false when the key is not known. Integer keys and canonical integer
// strings are rendered as decimal integers.
func ToKey(v Value) (key string, ok bool) {
	switch x := v.(type) {
	case Undefined:
		return "", true
	case Boolean:
		if x {
			return "1", true
		}
		return "0", true
	case Integer:
		return strconv.FormatInt(int64(x), 10), true
	case Float:
		if i, ok := floatToInteger(float64(x)).(Integer); ok {
			return strconv.FormatInt(int64(i), 10), true
		}
	case String:
		return string(x), true
	case Resource:
		return strconv.Itoa(x.ID), true
	}
	return "", false
}

// KeyValue returns the value of an array key as returned by key iteration: an Integer for canonical integer keys,
// a String otherwise.
func KeyValue(key string) Value {
	if i, err := strconv.ParseInt(key, 10, 64); err == nil && strconv.FormatInt(i, 10) == key {
		return Integer(i)
	}
	return String(key)
}
