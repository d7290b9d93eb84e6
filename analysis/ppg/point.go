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

// Package ppg implements program point graphs: the graphs of program points built from the control-flow graph of a
// function or script, on which the fixed-point driver computes the memory snapshots. A point is a statement, an
// assumed condition, a native function or a structural node (start, end, empty block, catch entry). Points carry
// the state of the analysis: input and output snapshots, commit counts and the extension holding the graphs of the
// calls and includes made at the point.
package ppg

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/awslabs/ar-php-tools/analysis/cfg"
	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/values"
)

// Kind is the kind of a program point
type Kind uint8

const (
	// Start is the entry point of a graph
	Start Kind = iota
	// End is the exit point of a graph
	End
	// Statement is a statement, an expression evaluated for its effects or a marker of the control-flow graph
	Statement
	// Condition is a point where a condition is assumed
	Condition
	// Native is the body of a native function
	Native
	// CatchEntry is the first point of a catch clause, reached through thrown exceptions
	CatchEntry
	// Empty is an empty block where branches join or fork
	Empty
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "start"
	case End:
		return "end"
	case Statement:
		return "stmt"
	case Condition:
		return "cond"
	case Native:
		return "native"
	case CatchEntry:
		return "catch"
	default:
		return "empty"
	}
}

// NativeFunction is the analyzable unit of a native function
type NativeFunction interface {
	Name() string
}

var lastID int64

// Point is a program point
type Point struct {
	// ID is unique across all graphs
	ID int
	// Index is the position of the point in its graph
	Index int
	Kind  Kind
	// Item is the control-flow graph item of Statement and CatchEntry points
	Item cfg.Item
	// Cond is the assumed condition of Condition points
	Cond *AssumptionCondition
	// NativeFunction is the function of Native points
	NativeFunction NativeFunction
	Graph          *Graph
	Parents        []*Point
	Children       []*Point

	// InSet is the join of the outputs of the parents, read-only once computed
	InSet *memory.Snapshot
	// OutSet is the result of the point
	OutSet *memory.Snapshot
	// Reached is true when the output of the point flows to its children. Conditions that cannot hold and
	// statements that never complete are not reached.
	Reached bool
	// Commits counts the transactions committed on the output
	Commits int
	// Extension holds the graphs of the calls, includes and evals made at the point
	Extension *Extension

	initialized bool
	// dynamic holds the inputs that do not come from static parents: the input of the caller for a start point,
	// the outputs of the throwing points for a catch entry
	dynamic map[*Point]*memory.Snapshot
}

func newPoint(g *Graph, kind Kind) *Point {
	p := &Point{
		ID:    int(atomic.AddInt64(&lastID, 1)),
		Index: len(g.Points),
		Kind:  kind,
		Graph: g,
	}
	g.Points = append(g.Points, p)
	return p
}

// Initialize allocates the snapshots of the point. Initializing a point twice is a fatal error.
func (p *Point) Initialize() {
	if p.initialized {
		panic(&values.FatalError{Message: fmt.Sprintf("point %s initialized twice", p)})
	}
	p.initialized = true
	p.InSet = memory.New()
	p.OutSet = memory.New()
	p.Extension = &Extension{Owner: p}
}

// IsInitialized returns true once Initialize has been called
func (p *Point) IsInitialized() bool { return p.initialized }

// SetDynamicInput sets the input coming from the point from, which is nil for the input given to a start point by
// the caller. It returns true if the input changed.
func (p *Point) SetDynamicInput(from *Point, s *memory.Snapshot) bool {
	if p.dynamic == nil {
		p.dynamic = map[*Point]*memory.Snapshot{}
	}
	if old, ok := p.dynamic[from]; ok && old.Equal(s) {
		return false
	}
	p.dynamic[from] = s
	return true
}

// DynamicInputs returns the dynamic inputs of the point, ordered by origin
func (p *Point) DynamicInputs() []*memory.Snapshot {
	froms := make([]*Point, 0, len(p.dynamic))
	for f := range p.dynamic {
		froms = append(froms, f)
	}
	sort.Slice(froms, func(i, j int) bool { return pointID(froms[i]) < pointID(froms[j]) })
	res := make([]*memory.Snapshot, len(froms))
	for i, f := range froms {
		res[i] = p.dynamic[f]
	}
	return res
}

func pointID(p *Point) int {
	if p == nil {
		return 0
	}
	return p.ID
}

// Position returns the source position of the point
func (p *Point) Position() ir.Pos {
	switch p.Kind {
	case Statement, CatchEntry:
		return p.Item.Node.Position()
	case Condition:
		return p.Cond.Position()
	}
	if p.Graph.Owner != nil {
		return p.Graph.Owner.Position()
	}
	return ir.Pos{File: p.Graph.File}
}

// Label returns a short description of the point
func (p *Point) Label() string {
	switch p.Kind {
	case Statement, CatchEntry:
		return p.Item.String()
	case Condition:
		return p.Cond.String()
	case Native:
		return "native " + p.NativeFunction.Name()
	}
	return p.Kind.String()
}

func (p *Point) String() string {
	return fmt.Sprintf("%s#%d(%s)", p.Graph.Name, p.Index, p.Label())
}

func (p *Point) addChild(c *Point) {
	for _, x := range p.Children {
		if x == c {
			return
		}
	}
	p.Children = append(p.Children, c)
	c.Parents = append(c.Parents, p)
}
