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

	"github.com/awslabs/ar-php-tools/analysis/values"
)

// CreateObject allocates an object of the class at the allocation site. Only the object most recently allocated
// at a site is represented precisely: allocating a new one folds the previous recent object into the summary
// object of the site, which stands for all the older objects allocated there.
func (s *Snapshot) CreateObject(site, class string) values.Object {
	s.mutate()
	recent := values.Object{Site: site, Class: class}
	root := ObjectIndex(recent.Key())
	if s.isContainer(root) || s.holds(recent) {
		s.fold(recent)
	}
	s.children[root] = map[Segment]bool{}
	return recent
}

func (s *Snapshot) holds(o values.Object) bool {
	for _, e := range s.values {
		if e.Contains(o) {
			return true
		}
	}
	return false
}

// fold merges the recent object o into the summary object of its site
func (s *Snapshot) fold(o values.Object) {
	summary := o
	summary.Summary = true
	src, dst := ObjectIndex(o.Key()), ObjectIndex(summary.Key())
	existed := s.isContainer(dst)
	srcKids, dstKids := s.children[src], s.children[dst]
	s.moveTree(src, dst, existed)
	s.ensureContainer(dst)
	if existed {
		// fields present in one object only may be missing from the other
		for k := range srcKids {
			if !dstKids[k] {
				s.addUndefined(dst.Child(k))
			}
		}
		for k := range dstKids {
			if !srcKids[k] {
				s.addUndefined(dst.Child(k))
			}
		}
	}
	for c, e := range s.values {
		if e.Contains(o) {
			s.values[c] = e.Map(func(v values.Value) values.Value {
				if v == o {
					return summary
				}
				return v
			})
		}
	}
}

// FieldNames returns the names of the known fields of the object, sorted
func (s *Snapshot) FieldNames(o values.Object) []string {
	var res []string
	for k := range s.children[ObjectIndex(o.Key())] {
		if !k.Any {
			res = append(res, k.Name)
		}
	}
	sort.Strings(res)
	return res
}

// Objects returns the objects held at the locations denoted by p
func (s *Snapshot) Objects(p Path) []values.Object {
	var res []values.Object
	for _, v := range s.ReadValue(p).Values() {
		if o, ok := v.(values.Object); ok {
			res = append(res, o)
		}
	}
	return res
}

// ReadField returns the values of the field of the object
func (s *Snapshot) ReadField(o values.Object, name string) Entry {
	return s.ReadIndex(ObjectIndex(o.Key()).Child(FieldNamed(name)))
}
