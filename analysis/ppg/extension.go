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

package ppg

import (
	"sort"

	"github.com/awslabs/ar-php-tools/analysis/memory"
)

// ExtensionType is the kind of the branches of an extension
type ExtensionType uint8

const (
	// ParallelCall branches are the possible callees of a call. They run one call level above the caller.
	ParallelCall ExtensionType = iota
	// ParallelInclude branches are the possible files of an include. They run at the level of the includer.
	ParallelInclude
	// ParallelEval branches are the possible codes of an eval. They run at the level of the caller.
	ParallelEval
)

func (t ExtensionType) String() string {
	switch t {
	case ParallelInclude:
		return "include"
	case ParallelEval:
		return "eval"
	default:
		return "call"
	}
}

// Branch is one target of a call, include or eval site
type Branch struct {
	// Site is the node identifier of the call, include or eval expression
	Site int
	// Key identifies the target among the targets of the site
	Key   string
	Type  ExtensionType
	Graph *Graph
	// Input is the last input given to the graph
	Input *memory.Snapshot
	// Data is attached by the resolver that created the branch
	Data any
}

type branchKey struct {
	site int
	key  string
}

// Extension holds the branches of the calls, includes and evals made at a point. The branches of a site are
// rebuilt when its set of targets changes.
type Extension struct {
	Owner    *Point
	branches map[branchKey]*Branch
	// Rebuilds counts the changes of the target sets
	Rebuilds int
}

// Sync sets the targets of the site to keys, in that order. Branches of targets that are still present are kept,
// with their graphs and state; create builds the branches of new targets. It returns the branches of the site.
func (e *Extension) Sync(site int, keys []string, create func(key string) *Branch) []*Branch {
	if e.branches == nil {
		e.branches = map[branchKey]*Branch{}
	}
	wanted := map[string]bool{}
	for _, k := range keys {
		wanted[k] = true
	}
	changed := false
	for k := range e.branches {
		if k.site == site && !wanted[k.key] {
			delete(e.branches, k)
			changed = true
		}
	}
	res := make([]*Branch, 0, len(keys))
	for _, k := range keys {
		bk := branchKey{site: site, key: k}
		br, ok := e.branches[bk]
		if !ok {
			br = create(k)
			br.Site, br.Key = site, k
			e.branches[bk] = br
			changed = true
		}
		res = append(res, br)
	}
	if changed {
		e.Rebuilds++
	}
	return res
}

// Branches returns all the branches of the extension, ordered by site and key
func (e *Extension) Branches() []*Branch {
	res := make([]*Branch, 0, len(e.branches))
	for _, b := range e.branches {
		res = append(res, b)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Site != res[j].Site {
			return res[i].Site < res[j].Site
		}
		return res[i].Key < res[j].Key
	})
	return res
}

// IsEmpty returns true if the extension has no branch
func (e *Extension) IsEmpty() bool { return len(e.branches) == 0 }
