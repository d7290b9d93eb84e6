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

package graphutil

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
)

// DGraph is a directed graph over the dense node identifiers 0..n-1, used to work with existing graph libraries.
// It implements the methods to satisfy yourbasic's graph.Iterator and Gonum's graph.Directed.
type DGraph struct {
	// labels are the node labels, used when the graph is rendered
	labels []string

	// succs[x] are the successors of x, in insertion order
	succs [][]int64

	// preds[x] are the predecessors of x, in insertion order
	preds [][]int64

	// edges is an adjacency matrix: edges[x][y] means there is a directed edge from x to y
	edges map[int64]map[int64]bool

	// include is the set of nodes of a subgraph. If nil, all nodes are included
	include map[int64]bool
}

// NewDGraph returns a graph with n nodes and no edges
func NewDGraph(n int) *DGraph {
	return &DGraph{
		labels: make([]string, n),
		succs:  make([][]int64, n),
		preds:  make([][]int64, n),
		edges:  make(map[int64]map[int64]bool, n),
	}
}

// SetLabel sets the label of node v
func (g *DGraph) SetLabel(v int, label string) {
	g.labels[v] = label
}

// AddEdge adds an edge from x to y. Returns false if the edge was already in the graph.
func (g *DGraph) AddEdge(x, y int) bool {
	from, to := int64(x), int64(y)
	if g.edges[from] == nil {
		g.edges[from] = map[int64]bool{}
	}
	if g.edges[from][to] {
		return false
	}
	g.edges[from][to] = true
	g.succs[x] = append(g.succs[x], to)
	g.preds[y] = append(g.preds[y], from)
	return true
}

// Successors returns the successors of v in the graph
func (g *DGraph) Successors(v int) []int {
	var res []int
	for _, w := range g.succs[v] {
		if g.has(w) {
			res = append(res, int(w))
		}
	}
	return res
}

// Keys returns the sorted identifiers of the nodes of the graph
func (g *DGraph) Keys() []int64 {
	var keys []int64
	for i := range g.labels {
		if g.has(int64(i)) {
			keys = append(keys, int64(i))
		}
	}
	return keys
}

func (g *DGraph) has(v int64) bool {
	if v < 0 || v >= int64(len(g.labels)) {
		return false
	}
	return g.include == nil || g.include[v]
}

// Subgraph returns a new graph that is the original graph with only the nodes in include. Only the edges that have
// both the origin and destination nodes in the include nodes are kept in the resulting graph.
// The subgraph's order and labels are the same as in the original, meaning that node indices will stay consistent
// across subgraphs.
func Subgraph(original *DGraph, include []int64) *DGraph {
	inc := make(map[int64]bool, len(include))
	for _, i := range include {
		if original.has(i) {
			inc[i] = true
		}
	}
	return &DGraph{
		labels:  original.labels,
		succs:   original.succs,
		preds:   original.preds,
		edges:   original.edges,
		include: inc,
	}
}

// Order implements the order of the graph.Iterator interface for the DGraph
func (g *DGraph) Order() int {
	return len(g.labels)
}

// Visit implements the graph.Iterator interface for the DGraph
func (g *DGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if !g.has(int64(v)) {
		return false
	}
	for _, w := range g.succs[v] {
		if g.has(w) && do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface. It returns nil if the node is not in the graph.
func (g *DGraph) Node(id int64) graph.Node {
	if !g.has(id) {
		return nil
	}
	return DNode{id: id, label: g.labels[id]}
}

// Nodes returns the set of nodes in the graph
func (g *DGraph) Nodes() graph.Nodes {
	return g.nodeSet(g.Keys())
}

// From returns the set of nodes that are the destination of an edge from the id
func (g *DGraph) From(id int64) graph.Nodes {
	if !g.has(id) {
		return g.nodeSet(nil)
	}
	return g.nodeSet(g.filter(g.succs[id]))
}

// To returns the set of nodes that are the origin of an edge to the id
func (g *DGraph) To(id int64) graph.Nodes {
	if !g.has(id) {
		return g.nodeSet(nil)
	}
	return g.nodeSet(g.filter(g.preds[id]))
}

func (g *DGraph) filter(ids []int64) []int64 {
	var res []int64
	for _, x := range ids {
		if g.has(x) {
			res = append(res, x)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func (g *DGraph) nodeSet(ids []int64) *NodeSet {
	return &NodeSet{graph: g, ids: ids, cur: -1}
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (g *DGraph) HasEdgeBetween(xid, yid int64) bool {
	return g.HasEdgeFromTo(xid, yid) || g.HasEdgeFromTo(yid, xid)
}

// HasEdgeFromTo returns a boolean indicating whether an edge exists from uid to vid
func (g *DGraph) HasEdgeFromTo(uid, vid int64) bool {
	return g.has(uid) && g.has(vid) && g.edges[uid][vid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (g *DGraph) Edge(uid, vid int64) graph.Edge {
	if g.HasEdgeFromTo(uid, vid) {
		return DEdge{from: DNode{uid, g.labels[uid]}, to: DNode{vid, g.labels[vid]}}
	}
	return nil
}

// *************** Nodes implementation **********************

// DNode is a node of a DGraph, implementing the graph.Node interface
type DNode struct {
	id    int64
	label string
}

// ID returns the id of the node
func (n DNode) ID() int64 {
	return n.id
}

func (n DNode) String() string {
	return n.label
}

// Attributes returns the label of the node as a DOT attribute
func (n DNode) Attributes() []encoding.Attribute {
	if n.label == "" {
		return nil
	}
	return []encoding.Attribute{{Key: "label", Value: n.label}}
}

// NodeSet implements the graph.Nodes interface, an iterator over a set of nodes
type NodeSet struct {
	graph *DGraph

	// ids is the set of node ids in the iterator
	ids []int64

	// cur is the current index of the iterator. The current node is ids[cur]
	// invariant: -1 <= cur < len(ids); -1 before the first call to Next
	cur int
}

// Next moves the current node to the next, and returns true if such a node exists. Otherwise, returns false
// and the current node has not changed.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	return false
}

// Len returns the number of nodes remaining in the iterator
func (ns *NodeSet) Len() int {
	return len(ns.ids) - ns.cur - 1
}

// Reset resets the iterator to before the first node of the set
func (ns *NodeSet) Reset() {
	ns.cur = -1
}

// Node return the current node in the set, or nil if Next has not been called
func (ns *NodeSet) Node() graph.Node {
	if ns.cur < 0 || ns.cur >= len(ns.ids) {
		return nil
	}
	return ns.graph.Node(ns.ids[ns.cur])
}

// *************** Edge implementation **********************

// DEdge implements the graph.Edge interface
type DEdge struct {
	from DNode
	to   DNode
}

// From returns the origin of the edge
func (e DEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e DEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e DEdge) ReversedEdge() graph.Edge {
	return DEdge{from: e.to, to: e.from}
}
