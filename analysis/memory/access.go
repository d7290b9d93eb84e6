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
	"sort"
	"strconv"

	"github.com/awslabs/ar-php-tools/analysis/values"
)

// location is a memory location denoted by a path. must is true when the location is the only one the path can
// denote. exists is false for locations of a read that are not in the snapshot.
type location struct {
	idx    Index
	must   bool
	exists bool
}

// collect returns the locations denoted by p, and the values contributed by the parts of the path that do not
// denote locations (elements of abstract arrays, characters of strings, ...).
// When forWrite is set, missing locations are created, null values on the way are turned into arrays or objects,
// and no value is contributed. When bindLast is unset, the bindings of the last locations are not followed.
func (s *Snapshot) collect(p Path, forWrite bool, bindLast bool) ([]location, Entry) {
	level := p.Level
	if level == CurrentLevel {
		level = s.level
	}
	var cur []location
	if p.Root.Any {
		for _, c := range s.roots(p.Kind, level) {
			cur = append(cur, location{idx: c, exists: true})
		}
		anyRoot := Index{Root: p.Kind, Level: level, Name: AnyName}
		cur = append(cur, s.rootLocation(anyRoot, false, forWrite))
	} else {
		must := p.Root.IsMust()
		for _, n := range p.Root.Names {
			cur = append(cur, s.rootLocation(Index{Root: p.Kind, Level: level, Name: n}, must, forWrite))
		}
	}
	if bindLast || len(p.Steps) > 0 {
		cur = s.followBindings(cur)
	}
	var extra Entry
	for i, step := range p.Steps {
		var next []location
		extra = projectExtra(extra, step)
		for _, l := range cur {
			var locs []location
			var vals Entry
			if step.Field {
				locs, vals = s.fieldLocations(l, step, forWrite)
			} else {
				locs, vals = s.indexLocations(l, step, forWrite)
			}
			next = append(next, locs...)
			extra = extra.Union(vals)
		}
		cur = dedupe(next)
		if bindLast || i < len(p.Steps)-1 {
			cur = s.followBindings(cur)
		}
	}
	if forWrite {
		extra = Entry{}
	}
	return dedupe(cur), extra
}

func (s *Snapshot) rootLocation(c Index, must bool, forWrite bool) location {
	exists := s.exists(c)
	if !exists && forWrite {
		e := UndefinedEntry
		if c.Name != AnyName {
			e = e.Union(s.values[Index{Root: c.Root, Level: c.Level, Name: AnyName}])
		}
		s.values[c] = e
		exists = true
	}
	return location{idx: c, must: must, exists: exists}
}

// roots returns the existing root locations of kind at the level, excluding the unknown root
func (s *Snapshot) roots(kind RootKind, level int) []Index {
	var res []Index
	for _, c := range s.cells() {
		if c.Root == kind && c.Level == level && c.IsRoot() && c.Name != AnyName {
			res = append(res, c)
		}
	}
	return res
}

// followBindings replaces the bound locations by their targets. A location reached through a binding with several
// targets is not a must location.
func (s *Snapshot) followBindings(locs []location) []location {
	var res []location
	for _, l := range locs {
		b, ok := s.refs[l.idx]
		if !ok {
			res = append(res, l)
			continue
		}
		for _, t := range sortedSet(b) {
			res = append(res, location{idx: t, must: l.must && len(b) == 1, exists: s.exists(t)})
		}
	}
	return dedupe(res)
}

func dedupe(locs []location) []location {
	if len(locs) < 2 {
		return locs
	}
	pos := map[Index]int{}
	var res []location
	for _, l := range locs {
		if i, ok := pos[l.idx]; ok {
			res[i].must = false
			res[i].exists = res[i].exists || l.exists
			continue
		}
		pos[l.idx] = len(res)
		res = append(res, l)
	}
	return res
}

func arrayOf(e Entry, owner Index) bool {
	return e.Contains(values.Array{Owner: owner})
}

// autovivify replaces the null values of the location l by v, as writing an index or a field of null does
func (s *Snapshot) autovivify(l location, v values.Value) {
	e := s.values[l.idx]
	if l.must {
		e = e.Filter(func(x values.Value) bool { return x != values.Undefined{} })
	}
	s.values[l.idx] = e.Add(v)
}

func canVivify(e Entry) bool {
	return e.IsEmpty() || e.Contains(values.Undefined{})
}

// indexLocations returns the locations of the array elements selected by step in the array held at l
func (s *Snapshot) indexLocations(l location, step Step, forWrite bool) ([]location, Entry) {
	c := l.idx
	e := s.values[c]
	if !l.exists {
		e = UndefinedEntry
	}
	hasArray := arrayOf(e, c)
	var extra []values.Value
	for _, v := range e.Values() {
		if a, ok := v.(values.Array); ok && a.Owner == c {
			continue
		}
		extra = append(extra, indexOfValue(v, step)...)
	}
	if forWrite {
		if !hasArray {
			if !canVivify(e) {
				if e.Contains(values.AnyString{}) || hasString(e) {
					s.values[c] = e.Add(values.AnyString{})
				}
				return nil, Entry{}
			}
			s.autovivify(l, values.Array{Owner: c})
		} else if e.Contains(values.Undefined{}) {
			// null becomes an array holding only the written element
			for k := range s.children[c] {
				s.addUndefined(c.Child(k))
			}
			s.autovivify(l, values.Array{Owner: c})
		}
		s.ensureContainer(c)
	} else if !hasArray {
		return nil, NewEntry(extra...)
	}
	return s.childLocations(c, l.must, step, forWrite, AnyKey, Key), NewEntry(extra...)
}

func hasString(e Entry) bool {
	for _, v := range e.Values() {
		if _, ok := v.(values.String); ok {
			return true
		}
	}
	return false
}

// childLocations returns the locations of the children of the container c selected by step
func (s *Snapshot) childLocations(c Index, must bool, step Step, forWrite bool, anySeg Segment,
	named func(string) Segment) []location {
	kids := s.children[c]
	var res []location
	if step.Any {
		segs := make([]Segment, 0, len(kids))
		for k := range kids {
			if !k.Any {
				segs = append(segs, k)
			}
		}
		sort.Slice(segs, func(i, j int) bool { return segs[i].Name < segs[j].Name })
		for _, k := range segs {
			res = append(res, location{idx: c.Child(k), exists: true})
		}
		res = append(res, s.childLocation(c, anySeg, false, forWrite, anySeg))
		return res
	}
	for _, n := range step.Names {
		res = append(res, s.childLocation(c, named(n), must && len(step.Names) == 1, forWrite, anySeg))
	}
	return res
}

func (s *Snapshot) childLocation(c Index, seg Segment, must bool, forWrite bool, anySeg Segment) location {
	child := c.Child(seg)
	exists := s.children[c][seg]
	if !exists && forWrite {
		e := UndefinedEntry
		if !seg.Any {
			e = e.Union(s.values[c.Child(anySeg)])
		}
		s.values[child] = e
		s.addChild(c, seg)
		exists = true
	}
	return location{idx: child, must: must, exists: exists}
}

// fieldLocations returns the locations of the fields selected by step of the objects held at l
func (s *Snapshot) fieldLocations(l location, step Step, forWrite bool) ([]location, Entry) {
	c := l.idx
	e := s.values[c]
	if !l.exists {
		e = UndefinedEntry
	}
	var objs []values.Object
	var extra []values.Value
	for _, v := range e.Values() {
		if o, ok := v.(values.Object); ok {
			objs = append(objs, o)
			continue
		}
		extra = append(extra, fieldOfValue(v)...)
	}
	if forWrite && len(objs) == 0 {
		if !canVivify(e) {
			return nil, Entry{}
		}
		o := s.CreateObject("vivified "+c.String(), "stdClass")
		s.autovivify(l, o)
		objs = append(objs, o)
	}
	var res []location
	for _, o := range objs {
		root := ObjectIndex(o.Key())
		if forWrite {
			s.ensureContainer(root)
		}
		must := l.must && !o.Summary && (len(objs) == 1 || s.onlyHeldBy(o, c))
		res = append(res, s.childLocations(root, must, step, forWrite, AnyField, FieldNamed)...)
	}
	if forWrite {
		return res, Entry{}
	}
	return res, NewEntry(extra...)
}

// onlyHeldBy returns true if no location other than c holds the object o
func (s *Snapshot) onlyHeldBy(o values.Object, c Index) bool {
	for x, e := range s.values {
		if x != c && x != stageIndex && e.Contains(o) {
			return false
		}
	}
	return true
}

// indexOfValue returns the values read at an index of a value that is not an array owned by its location
func indexOfValue(v values.Value, step Step) []values.Value {
	switch x := v.(type) {
	case values.String:
		if step.IsMust() {
			if i, err := strconv.Atoi(step.Names[0]); err == nil {
				if i < 0 {
					i += len(x)
				}
				if i >= 0 && i < len(x) {
					return []values.Value{x[i : i+1]}
				}
			}
		}
		return []values.Value{values.AnyString{}}
	case values.AnyString:
		return []values.Value{values.AnyString{}}
	case values.AnyScalar:
		return []values.Value{values.AnyString{}, values.Undefined{}}
	case values.AnyArray, values.AnyValue, values.AnyCompound, values.AnyObject, values.Object, values.Array:
		return []values.Value{values.AnyValue{}}
	}
	return []values.Value{values.Undefined{}}
}

// fieldOfValue returns the values read at a field of a value that is not an object
func fieldOfValue(v values.Value) []values.Value {
	switch v.(type) {
	case values.AnyObject, values.AnyValue, values.AnyCompound:
		return []values.Value{values.AnyValue{}}
	}
	return []values.Value{values.Undefined{}}
}

// projectExtra returns the values read by step from values contributed by the previous steps
func projectExtra(e Entry, step Step) Entry {
	if e.IsEmpty() {
		return e
	}
	var res []values.Value
	for _, v := range e.Values() {
		if step.Field {
			res = append(res, fieldOfValue(v)...)
		} else {
			res = append(res, indexOfValue(v, step)...)
		}
	}
	return NewEntry(res...)
}

// readLocation returns the values at l: Undefined and the values of the unknown sibling for missing locations,
// and Undefined in addition for unknown segments, which may stand for missing elements
func (s *Snapshot) readLocation(l location) Entry {
	if l.exists {
		e, ok := s.values[l.idx]
		if !ok {
			e = UndefinedEntry
		}
		if _, last, ok := l.idx.Parent(); ok && last.Any {
			e = e.Add(values.Undefined{})
		} else if !ok && l.idx.Name == AnyName {
			e = e.Add(values.Undefined{})
		}
		return e
	}
	e := UndefinedEntry
	if parent, last, ok := l.idx.Parent(); ok {
		if !last.Any {
			e = e.Union(s.values[parent.Child(Segment{Field: last.Field, Any: true})])
		}
	} else if l.idx.Name != AnyName {
		e = e.Union(s.values[Index{Root: l.idx.Root, Level: l.idx.Level, Name: AnyName}])
	}
	return e
}

// ReadValue returns the possible values at p. Reading locations that were never written returns Undefined.
func (s *Snapshot) ReadValue(p Path) Entry {
	locs, extra := s.collect(p, false, true)
	res := extra
	for _, l := range locs {
		res = res.Union(s.readLocation(l))
	}
	if res.IsEmpty() {
		return UndefinedEntry
	}
	return res
}

// IsDefined returns true if some location denoted by p was written, even with null
func (s *Snapshot) IsDefined(p Path) bool {
	locs, _ := s.collect(p, false, true)
	for _, l := range locs {
		if l.exists {
			return true
		}
	}
	return false
}

// Locations returns the indices of the existing locations denoted by p, and whether every location denoted by p
// would be strongly updated by a write
func (s *Snapshot) Locations(p Path) ([]Index, bool) {
	locs, _ := s.collect(p, false, true)
	var res []Index
	strong := len(locs) > 0
	for _, l := range locs {
		if l.exists {
			res = append(res, l.idx)
		}
		strong = strong && l.must
	}
	return res, strong
}

// stage copies e to the staging location, copying the arrays it contains
func (s *Snapshot) stage(e Entry) {
	s.deleteTree(stageIndex, false)
	var owners []Index
	staged := e.Map(func(v values.Value) values.Value {
		if a, ok := v.(values.Array); ok {
			if idx, ok := a.Owner.(Index); ok {
				owners = append(owners, idx)
			}
			return values.Array{Owner: stageIndex}
		}
		return v
	})
	s.values[stageIndex] = staged
	if len(owners) == 0 {
		return
	}
	refd := s.referrers()
	for i, o := range owners {
		s.copyChildren(o, stageIndex, i > 0, refd)
		s.ensureContainer(stageIndex)
	}
}

// Assign writes e at the locations denoted by p. A must location, which is the location written in every
// execution where it exists, is strongly updated: its content is replaced. The other locations are weakly
// updated: e is joined with their content. Arrays in e are copied.
func (s *Snapshot) Assign(p Path, e Entry) {
	s.mutate()
	s.stage(e)
	locs, _ := s.collect(p, true, true)
	for _, l := range locs {
		if l.must {
			s.clearDescendants(l.idx)
			s.copyTree(stageIndex, l.idx, false)
		} else {
			s.copyTree(stageIndex, l.idx, true)
		}
	}
	s.deleteTree(stageIndex, false)
}

// Copy assigns the value at src to dst
func (s *Snapshot) Copy(src, dst Path) {
	s.Assign(dst, s.ReadValue(src))
}

// AssignEmptyArray writes a new empty array at the locations denoted by p
func (s *Snapshot) AssignEmptyArray(p Path) {
	s.mutate()
	locs, _ := s.collect(p, true, true)
	for _, l := range locs {
		arr := s.CreateArray(l.idx)
		if l.must {
			s.clearDescendants(l.idx)
			s.ensureContainer(l.idx)
			s.values[l.idx] = NewEntry(arr)
			continue
		}
		if !arrayOf(s.values[l.idx], l.idx) {
			s.values[l.idx] = s.values[l.idx].Add(arr)
			continue
		}
		// the location already holds an array: its elements may be missing
		for k := range s.children[l.idx] {
			s.addUndefined(l.idx.Child(k))
		}
	}
}

// CreateArray returns the array owned by the location owner, registering owner as an array container
func (s *Snapshot) CreateArray(owner Index) values.Array {
	s.mutate()
	s.ensureContainer(owner)
	return values.Array{Owner: owner}
}

// AssignAlias binds the locations denoted by target to the locations denoted by source, as the reference
// assignment target = &source does. Missing source locations are created with null.
func (s *Snapshot) AssignAlias(target, source Path) {
	s.mutate()
	srcLocs, _ := s.collect(source, true, true)
	targets := map[Index]bool{}
	for _, l := range srcLocs {
		targets[l.idx] = true
	}
	if len(targets) == 0 {
		return
	}
	locs, _ := s.collect(target, true, false)
	for _, l := range locs {
		if l.must {
			c := l.idx
			if len(targets) == 1 && targets[c] {
				continue
			}
			s.unbind(c)
			if parent, seg, ok := c.Parent(); ok {
				s.addChild(parent, seg)
			}
			s.setBinding(c, targets)
			continue
		}
		nb := map[Index]bool{}
		for t := range targets {
			nb[t] = true
		}
		if b, ok := s.refs[l.idx]; ok {
			for t := range b {
				nb[t] = true
			}
		} else {
			nb[l.idx] = true
		}
		s.setBinding(l.idx, nb)
	}
}

// BindIndex binds the location c to the locations denoted by source. It is used to bind global and static
// variables, and by-reference parameters at another call level.
func (s *Snapshot) BindIndex(c Index, source Path) {
	s.AssignAlias(PathOf(c), source)
}

// Unset removes the locations denoted by p. A location that p may not denote is weakly unset: Undefined is added
// to its values.
func (s *Snapshot) Unset(p Path) {
	s.mutate()
	locs, _ := s.collect(p, false, false)
	for _, l := range locs {
		switch {
		case !l.exists:
		case l.must:
			s.unbind(l.idx)
			if parent, seg, ok := l.idx.Parent(); ok {
				s.removeChild(parent, seg)
			}
		default:
			s.addUndefined(l.idx)
		}
	}
}

// Keys returns the keys of the arrays denoted by p, sorted. unknown is true when the arrays may have keys that are
// not statically known.
func (s *Snapshot) Keys(p Path) (keys []string, unknown bool) {
	locs, extra := s.collect(p, false, true)
	seen := map[string]bool{}
	for _, l := range locs {
		e := s.values[l.idx]
		for _, v := range e.Values() {
			switch x := v.(type) {
			case values.Array:
				if x.Owner != l.idx {
					continue
				}
				for k := range s.children[l.idx] {
					if k.Any {
						unknown = true
					} else if !seen[k.Name] {
						seen[k.Name] = true
						keys = append(keys, k.Name)
					}
				}
			case values.AnyArray, values.AnyValue, values.AnyCompound:
				unknown = true
			}
		}
	}
	for _, v := range extra.Values() {
		if _, ok := v.(values.AnyValue); ok {
			unknown = true
		}
	}
	sort.Strings(keys)
	return keys, unknown
}

// ReadElements returns the values of the elements of the arrays denoted by p, without the null value of missing
// elements
func (s *Snapshot) ReadElements(p Path) Entry {
	locs, _ := s.collect(p, false, true)
	var res Entry
	for _, l := range locs {
		e := s.values[l.idx]
		for _, v := range e.Values() {
			switch x := v.(type) {
			case values.Array:
				if x.Owner != l.idx {
					continue
				}
				for k := range s.children[l.idx] {
					child := location{idx: l.idx.Child(k), exists: true}
					for _, t := range s.followBindings([]location{child}) {
						res = res.Union(s.valuesAt(t.idx))
					}
				}
			case values.AnyArray, values.AnyValue, values.AnyCompound:
				res = res.Add(values.AnyValue{})
			}
		}
	}
	return res
}

func (s *Snapshot) valuesAt(c Index) Entry {
	if e, ok := s.values[c]; ok {
		return e
	}
	return UndefinedEntry
}

// ReadIndex returns the values at the location c, following its binding
func (s *Snapshot) ReadIndex(c Index) Entry {
	var res Entry
	for _, l := range s.followBindings([]location{{idx: c, exists: s.exists(c)}}) {
		res = res.Union(s.readLocation(l))
	}
	return res
}

// VariableNames returns the names of the variables of the call level, sorted
func (s *Snapshot) VariableNames(level int) []string {
	var res []string
	for _, c := range s.roots(VariableRoot, level) {
		res = append(res, c.Name)
	}
	return res
}
