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

// Widen returns the abstraction of v used when the values at a location keep growing: integers and integer intervals
// become AnyInteger, floats and float intervals AnyFloat, strings AnyString and long integers AnyLongint.
// Other values are returned unchanged; the lattice has finitely many of them at a given location.
func Widen(v Value) Value {
	switch v.(type) {
	case Integer, IntegerInterval:
		return AnyInteger{}
	case Float, FloatInterval:
		return AnyFloat{}
	case String:
		return AnyString{}
	case Long, LongInterval:
		return AnyLongint{}
	}
	return v
}

// Join returns the smallest interval containing the integer values a and b (concrete integers or intervals).
// ok is false if a or b is not an integer value.
func Join(a, b Value) (v Value, ok bool) {
	alo, ahi, aok := intBounds(a)
	blo, bhi, bok := intBounds(b)
	if !aok || !bok {
		return nil, false
	}
	return mkInterval(minInt(alo, blo), maxInt(ahi, bhi)), true
}

func intBounds(v Value) (lo, hi int64, ok bool) {
	switch x := v.(type) {
	case Integer:
		return int64(x), int64(x), true
	case IntegerInterval:
		return x.Lo, x.Hi, true
	}
	return 0, 0, false
}

// Covers returns true if the abstract value a stands for every concrete value b stands for
func Covers(a, b Value) bool {
	if a == b {
		return true
	}
	switch x := a.(type) {
	case AnyValue:
		return TypesOf(b) != 0
	case IntegerInterval:
		lo, hi, ok := intBounds(b)
		return ok && x.Lo <= lo && hi <= x.Hi
	case FloatInterval:
		if f, ok := b.(Float); ok {
			return x.Lo <= float64(f) && float64(f) <= x.Hi
		}
		if y, ok := b.(FloatInterval); ok {
			return x.Lo <= y.Lo && y.Hi <= x.Hi
		}
		return false
	}
	if IsAbstract(a) && !isInterval(a) {
		ta, tb := TypesOf(a), TypesOf(b)
		if _, ok := b.(Array); ok {
			return false
		}
		if _, ok := b.(Object); ok {
			return false
		}
		return tb != 0 && tb&^ta == 0
	}
	return false
}

func isInterval(v Value) bool {
	switch v.(type) {
	case IntegerInterval, LongInterval, FloatInterval:
		return true
	}
	return false
}
