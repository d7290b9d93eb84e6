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
	"fmt"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/cfg"
	"github.com/awslabs/ar-php-tools/analysis/ir"
)

// Graph is a program point graph. The structure of a graph does not change once built; the state of the analysis is
// held by its points.
type Graph struct {
	// Name identifies the graph in logs and renderings: a function name, a file path or a native function name
	Name string
	// Owner is the declaration of the function, nil for scripts and native functions
	Owner *ir.FunctionDecl
	// File is the path of the script of the graph
	File  string
	Start *Point
	// End is nil when no path of the graph completes
	End    *Point
	Points []*Point

	items   map[cfg.ItemKey]*Point
	edges   map[edgeKey]*Point
	blocks  map[*cfg.Block]*Point
	catches map[int]*Point
}

type edgeKey struct {
	block int
	// edge is the index of the edge in the block, -1 for the default edge
	edge int
}

// builder maps the blocks of a control-flow graph to points
type builder struct {
	g    *Graph
	flow *cfg.Graph
}

// Build returns the program point graph of the control-flow graph. The blocks are walked depth first from the
// entry and from the catch blocks; every item gets one point, every conditional edge gets a condition point
// assuming its condition, and the default edge of a block with conditional edges gets a condition point assuming
// that some of the other conditions do not hold. Points are keyed by their item or edge, so that a block reached
// several times is mapped to the same points.
func Build(c *cfg.Graph, name string) *Graph {
	g := &Graph{
		Name:    name,
		items:   map[cfg.ItemKey]*Point{},
		edges:   map[edgeKey]*Point{},
		blocks:  map[*cfg.Block]*Point{},
		catches: map[int]*Point{},
	}
	b := &builder{g: g, flow: c}
	g.Start = newPoint(g, Start)
	g.Start.addChild(b.block(c.Entry))
	for _, blk := range c.Catches {
		b.block(blk)
	}
	if c.Exit != nil {
		g.End = g.blocks[c.Exit]
	}
	return g
}

// NewNativeGraph returns the graph of a native function: start, the native point, end
func NewNativeGraph(f NativeFunction) *Graph {
	g := &Graph{Name: f.Name()}
	g.Start = newPoint(g, Start)
	n := newPoint(g, Native)
	n.NativeFunction = f
	g.End = newPoint(g, End)
	g.Start.addChild(n)
	n.addChild(g.End)
	return g
}

func (b *builder) itemPoint(it cfg.Item) *Point {
	if p, ok := b.g.items[it.Key()]; ok {
		return p
	}
	kind := Statement
	if it.Role == cfg.CatchBind {
		kind = CatchEntry
	}
	p := newPoint(b.g, kind)
	p.Item = it
	b.g.items[it.Key()] = p
	if kind == CatchEntry {
		b.g.catches[it.Node.ID()] = p
	}
	return p
}

func (b *builder) edgePoint(blk *cfg.Block, edge int, cond *AssumptionCondition) *Point {
	k := edgeKey{block: blk.ID, edge: edge}
	if p, ok := b.g.edges[k]; ok {
		return p
	}
	p := newPoint(b.g, Condition)
	p.Cond = cond
	b.g.edges[k] = p
	return p
}

// block returns the first point of the block, building the points of the block and of its successors on the first
// visit
func (b *builder) block(blk *cfg.Block) *Point {
	if p, ok := b.g.blocks[blk]; ok {
		return p
	}
	var first, last *Point
	switch {
	case blk == b.flow.Exit:
		first = newPoint(b.g, End)
		last = first
	case len(blk.Items) == 0:
		first = newPoint(b.g, Empty)
		last = first
	default:
		for _, it := range blk.Items {
			p := b.itemPoint(it)
			if last == nil {
				first = p
			} else {
				last.addChild(p)
			}
			last = p
		}
	}
	b.g.blocks[blk] = first
	if len(blk.Edges) == 0 {
		if blk.Default != nil {
			last.addChild(b.block(blk.Default))
		}
		return first
	}
	conds := make([]ir.Expr, 0, len(blk.Edges))
	for i, e := range blk.Edges {
		c := b.edgePoint(blk, i, &AssumptionCondition{Form: All, Parts: []ir.Expr{e.Cond}})
		last.addChild(c)
		c.addChild(b.block(e.To))
		conds = append(conds, e.Cond)
	}
	if blk.Default != nil {
		c := b.edgePoint(blk, -1, &AssumptionCondition{Form: SomeNot, Parts: conds})
		last.addChild(c)
		c.addChild(b.block(blk.Default))
	}
	return first
}

// ItemPoint returns the point of the item with the key, or nil
func (g *Graph) ItemPoint(k cfg.ItemKey) *Point {
	return g.items[k]
}

// CatchPoint returns the entry point of the catch clause with the node identifier, or nil
func (g *Graph) CatchPoint(catchID int) *Point {
	return g.catches[catchID]
}

// String returns a textual representation of the graph, one point per line with the indices of its children
func (g *Graph) String() string {
	var b strings.Builder
	for _, p := range g.Points {
		fmt.Fprintf(&b, "%d %s", p.Index, p.Label())
		if len(p.Children) > 0 {
			b.WriteString(" ->")
			for _, c := range p.Children {
				fmt.Fprintf(&b, " %d", c.Index)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
