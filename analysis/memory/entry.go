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

package memory

import (
	"math"
	"sort"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/values"
)

// Entry is the set of possible values at a memory location. Entries are immutable; the values are kept sorted and
// without duplicates so that equal sets have equal representations.
type Entry struct {
	vals []values.Value
}

// NewEntry returns the entry containing the values vs
func NewEntry(vs ...values.Value) Entry {
	if len(vs) == 0 {
		return Entry{}
	}
	seen := make(map[values.Value]bool, len(vs))
	out := make([]values.Value, 0, len(vs))
	for _, v := range vs {
		v = normalize(v)
		if v == nil || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return values.Less(out[i], out[j]) })
	return Entry{vals: out}
}

// normalize replaces the floats holding NaN, which are not equal to themselves, by AnyFloat
func normalize(v values.Value) values.Value {
	switch x := v.(type) {
	case values.Float:
		if math.IsNaN(float64(x)) {
			return values.AnyFloat{}
		}
	case values.FloatInterval:
		if math.IsNaN(x.Lo) || math.IsNaN(x.Hi) {
			return values.AnyFloat{}
		}
	}
	return v
}

// UndefinedEntry is the entry of locations that were never written
var UndefinedEntry = NewEntry(values.Undefined{})

// Values returns the values of the entry. The slice must not be modified.
func (e Entry) Values() []values.Value { return e.vals }

// Len returns the number of values in the entry
func (e Entry) Len() int { return len(e.vals) }

// IsEmpty returns true if the entry has no value
func (e Entry) IsEmpty() bool { return len(e.vals) == 0 }

// Contains returns true if v is one of the values of the entry
func (e Entry) Contains(v values.Value) bool {
	for _, x := range e.vals {
		if x == v {
			return true
		}
	}
	return false
}

// Single returns the value of an entry with exactly one value
func (e Entry) Single() (values.Value, bool) {
	if len(e.vals) == 1 {
		return e.vals[0], true
	}
	return nil, false
}

// Union returns the entry containing the values of e and o
func (e Entry) Union(o Entry) Entry {
	if len(o.vals) == 0 {
		return e
	}
	if len(e.vals) == 0 {
		return o
	}
	return NewEntry(append(append([]values.Value{}, e.vals...), o.vals...)...)
}

// Add returns the entry containing the values of e and vs
func (e Entry) Add(vs ...values.Value) Entry {
	return e.Union(NewEntry(vs...))
}

// Map returns the entry of the images of the values of e by f
func (e Entry) Map(f func(values.Value) values.Value) Entry {
	out := make([]values.Value, 0, len(e.vals))
	for _, v := range e.vals {
		out = append(out, f(v))
	}
	return NewEntry(out...)
}

// Filter returns the entry of the values of e satisfying f
func (e Entry) Filter(f func(values.Value) bool) Entry {
	var out []values.Value
	for _, v := range e.vals {
		if f(v) {
			out = append(out, v)
		}
	}
	return Entry{vals: out}
}

// Equal returns true if e and o contain the same values
func (e Entry) Equal(o Entry) bool {
	if len(e.vals) != len(o.vals) {
		return false
	}
	for i, v := range e.vals {
		if o.vals[i] != v {
			return false
		}
	}
	return true
}

func (e Entry) String() string {
	parts := make([]string, len(e.vals))
	for i, v := range e.vals {
		parts[i] = v.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
