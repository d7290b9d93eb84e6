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

package cfg

import (
	"strconv"

	"github.com/awslabs/ar-php-tools/analysis/ir"
)

// SwitchPrefix starts the names of the hidden variables holding switch subjects that are not plain variables
const SwitchPrefix = ".switch"

// ForeachPrefix starts the names of the hidden variables holding foreach subjects that are not plain variables
const ForeachPrefix = ".foreach"

// ForeachSubject returns the expression read at each iteration of the loop: the subject when it is a variable, the
// hidden variable holding it otherwise
func ForeachSubject(s *ir.Foreach) ir.Expr {
	if _, ok := s.Subject.(*ir.Variable); ok {
		return s.Subject
	}
	return ir.Var(ForeachPrefix + strconv.Itoa(s.ID()))
}

type builder struct {
	g       *Graph
	nblocks int
	nsynth  int
	loops   *loopContext
	// tries is the stack of the try statements enclosing the current statement
	tries []*ir.Try
	seqs  map[ItemKey]int
}

// loopContext tracks the targets of break and continue statements
type loopContext struct {
	breakTarget    *Block
	continueTarget *Block
	parent         *loopContext
	// tryDepth is the number of enclosing try statements when the loop starts
	tryDepth int
}

// Build returns the control-flow graph of the statements. Unconditional function and class declarations of the list
// are hoisted to the entry block, as they are declared before the statements execute.
func Build(body []ir.Stmt) *Graph {
	b := &builder{g: &Graph{}, seqs: map[ItemKey]int{}}
	entry := b.newBlock()
	exit := b.newBlock()
	var rest []ir.Stmt
	for _, s := range body {
		switch s.(type) {
		case *ir.FunctionDecl, *ir.ClassDecl:
			entry.add(Exec, s)
		default:
			rest = append(rest, s)
		}
	}
	if end := b.stmts(rest, entry, exit); end != nil {
		end.Default = exit
	}
	b.g.Entry = entry
	b.g.Exit = exit
	b.prune()
	return b.g
}

func (b *builder) newBlock() *Block {
	blk := &Block{ID: b.nblocks}
	b.nblocks++
	return blk
}

// synthesize numbers the nodes of e created by the builder
func (b *builder) synthesize(e ir.Expr, pos ir.Pos) {
	ir.Inspect(e, func(n ir.Node) bool {
		if n.ID() == 0 {
			b.nsynth--
			ir.Synthetic(n, b.nsynth, pos)
		}
		return true
	})
}

// marker adds a marker item, numbering its occurrences
func (b *builder) marker(blk *Block, role Role, n ir.Node) {
	it := Item{Node: n, Role: role}
	it.Seq = b.seqs[it.Key()]
	b.seqs[it.Key()] = it.Seq + 1
	blk.Items = append(blk.Items, it)
}

// exitTries adds the markers leaving the try statements above depth, innermost first
func (b *builder) exitTries(blk *Block, depth int) {
	for i := len(b.tries) - 1; i >= depth; i-- {
		b.marker(blk, TryExit, b.tries[i])
	}
}

// stmts adds the statements to the graph starting in cur, and returns the block where execution continues after
// them, or nil when execution cannot continue.
func (b *builder) stmts(list []ir.Stmt, cur *Block, exit *Block) *Block {
	for _, s := range list {
		if cur == nil {
			// unreachable statements go to a block without predecessors
			cur = b.newBlock()
		}
		cur = b.stmt(s, cur, exit)
	}
	return cur
}

func (b *builder) stmt(s ir.Stmt, cur *Block, exit *Block) *Block {
	switch x := s.(type) {
	case *ir.Nop:
		return cur
	case *ir.Block:
		return b.stmts(x.Body, cur, exit)
	case *ir.ExprStmt:
		cur.add(Exec, x)
		if _, ok := x.X.(*ir.Exit); ok {
			return nil
		}
		return cur
	case *ir.Return:
		cur.add(Exec, x)
		b.exitTries(cur, 0)
		cur.Default = exit
		return nil
	case *ir.Throw:
		cur.add(Exec, x)
		return nil
	case *ir.If:
		return b.ifStmt(x, cur, exit)
	case *ir.While:
		return b.whileStmt(x, cur, exit)
	case *ir.DoWhile:
		return b.doWhileStmt(x, cur, exit)
	case *ir.For:
		return b.forStmt(x, cur, exit)
	case *ir.Foreach:
		return b.foreachStmt(x, cur, exit)
	case *ir.Switch:
		return b.switchStmt(x, cur, exit)
	case *ir.Break:
		return b.jump(x, x.Depth, cur, true)
	case *ir.Continue:
		return b.jump(x, x.Depth, cur, false)
	case *ir.Try:
		return b.tryStmt(x, cur, exit)
	default:
		cur.add(Exec, s)
		return cur
	}
}

func (b *builder) ifStmt(s *ir.If, cur *Block, exit *Block) *Block {
	after := b.newBlock()
	reached := false
	join := func(end *Block) {
		if end != nil {
			end.Default = after
			reached = true
		}
	}
	conds := []ir.Expr{s.Cond}
	bodies := [][]ir.Stmt{s.Then}
	for _, ei := range s.ElseIfs {
		conds = append(conds, ei.Cond)
		bodies = append(bodies, ei.Body)
	}
	for i, c := range conds {
		then := b.newBlock()
		cur.Edges = append(cur.Edges, Edge{Cond: c, To: then})
		join(b.stmts(bodies[i], then, exit))
		if i == len(conds)-1 && len(s.Else) == 0 {
			cur.Default = after
			reached = true
			break
		}
		next := b.newBlock()
		cur.Default = next
		cur = next
	}
	if len(s.Else) > 0 {
		join(b.stmts(s.Else, cur, exit))
	}
	if !reached {
		return nil
	}
	return after
}

// loop runs f with the break and continue targets of a new loop
func (b *builder) loop(breakTarget, continueTarget *Block, f func()) {
	b.loops = &loopContext{
		breakTarget:    breakTarget,
		continueTarget: continueTarget,
		parent:         b.loops,
		tryDepth:       len(b.tries),
	}
	f()
	b.loops = b.loops.parent
}

func (b *builder) whileStmt(s *ir.While, cur *Block, exit *Block) *Block {
	header, body, after := b.newBlock(), b.newBlock(), b.newBlock()
	cur.Default = header
	header.Edges = []Edge{{Cond: s.Cond, To: body}}
	header.Default = after
	b.loop(after, header, func() {
		if end := b.stmts(s.Body, body, exit); end != nil {
			end.Default = header
		}
	})
	return after
}

func (b *builder) doWhileStmt(s *ir.DoWhile, cur *Block, exit *Block) *Block {
	body, cond, after := b.newBlock(), b.newBlock(), b.newBlock()
	cur.Default = body
	b.loop(after, cond, func() {
		if end := b.stmts(s.Body, body, exit); end != nil {
			end.Default = cond
		}
	})
	cond.Edges = []Edge{{Cond: s.Cond, To: body}}
	cond.Default = after
	return after
}

func (b *builder) forStmt(s *ir.For, cur *Block, exit *Block) *Block {
	for _, e := range s.Init {
		cur.add(Exec, e)
	}
	header, body, step, after := b.newBlock(), b.newBlock(), b.newBlock(), b.newBlock()
	cur.Default = header
	if n := len(s.Cond); n > 0 {
		for _, e := range s.Cond[:n-1] {
			header.add(Exec, e)
		}
		header.Edges = []Edge{{Cond: s.Cond[n-1], To: body}}
		header.Default = after
	} else {
		header.Default = body
	}
	b.loop(after, step, func() {
		if end := b.stmts(s.Body, body, exit); end != nil {
			end.Default = step
		}
	})
	for _, e := range s.Step {
		step.add(Exec, e)
	}
	step.Default = header
	return after
}

func (b *builder) foreachStmt(s *ir.Foreach, cur *Block, exit *Block) *Block {
	header, body, after := b.newBlock(), b.newBlock(), b.newBlock()
	if _, ok := s.Subject.(*ir.Variable); !ok {
		set := ir.Set(ForeachSubject(s), s.Subject)
		b.synthesize(set, s.Position())
		cur.add(Exec, set)
	}
	cur.Default = header
	next := &ir.ForeachNext{Loop: s}
	b.synthesize(next, s.Position())
	header.Edges = []Edge{{Cond: next, To: body}}
	header.Default = after
	body.add(ForeachBind, s)
	b.loop(after, header, func() {
		if end := b.stmts(s.Body, body, exit); end != nil {
			end.Default = header
		}
	})
	return after
}

func (b *builder) switchStmt(s *ir.Switch, cur *Block, exit *Block) *Block {
	subject := s.Subject
	if _, ok := subject.(*ir.Variable); !ok {
		// the subject is evaluated once
		v := ir.Var(SwitchPrefix + strconv.Itoa(s.ID()))
		set := ir.Set(v, subject)
		b.synthesize(set, s.Position())
		cur.add(Exec, set)
		subject = v
	}
	after := b.newBlock()
	bodies := make([]*Block, len(s.Cases))
	for i := range s.Cases {
		bodies[i] = b.newBlock()
	}
	def := after
	for i, c := range s.Cases {
		if c.Cond == nil {
			def = bodies[i]
			continue
		}
		cond := ir.Bin("==", subject, c.Cond)
		b.synthesize(cond, c.Cond.Position())
		cur.Edges = append(cur.Edges, Edge{Cond: cond, To: bodies[i]})
	}
	cur.Default = def
	// continue targets the switch like break
	b.loop(after, after, func() {
		for i, c := range s.Cases {
			end := b.stmts(c.Body, bodies[i], exit)
			if end == nil {
				continue
			}
			if i+1 < len(bodies) {
				end.Default = bodies[i+1]
			} else {
				end.Default = after
			}
		}
	})
	return after
}

func (b *builder) jump(s ir.Stmt, depth int, cur *Block, isBreak bool) *Block {
	cur.add(Exec, s)
	ctx := b.loops
	for i := 1; i < depth && ctx != nil; i++ {
		ctx = ctx.parent
	}
	if ctx == nil {
		// a jump out of no loop ends the execution
		return nil
	}
	b.exitTries(cur, ctx.tryDepth)
	if isBreak {
		cur.Default = ctx.breakTarget
	} else {
		cur.Default = ctx.continueTarget
	}
	return nil
}

// tryStmt lowers try statements. The catch blocks are entered only through exceptions. The finally block runs after
// the body and after the catch blocks that complete normally.
func (b *builder) tryStmt(s *ir.Try, cur *Block, exit *Block) *Block {
	b.marker(cur, TryEnter, s)
	join := b.newBlock()
	reached := false
	b.tries = append(b.tries, s)
	end := b.stmts(s.Body, cur, exit)
	b.tries = b.tries[:len(b.tries)-1]
	if end != nil {
		b.marker(end, TryExit, s)
		end.Default = join
		reached = true
	}
	for _, c := range s.Catches {
		cb := b.newBlock()
		cb.Catch = c
		cb.add(CatchBind, c)
		b.g.Catches = append(b.g.Catches, cb)
		if end := b.stmts(c.Body, cb, exit); end != nil {
			end.Default = join
			reached = true
		}
	}
	if !reached {
		return nil
	}
	return b.stmts(s.Finally, join, exit)
}

// prune keeps the blocks reachable from the entry or from a catch block, and clears the exit when it is not
// reachable
func (b *builder) prune() {
	seen := map[*Block]bool{}
	var order []*Block
	var visit func(*Block)
	visit = func(blk *Block) {
		if blk == nil || seen[blk] {
			return
		}
		seen[blk] = true
		order = append(order, blk)
		for _, s := range blk.Successors() {
			visit(s)
		}
	}
	visit(b.g.Entry)
	for _, c := range b.g.Catches {
		visit(c)
	}
	b.g.Blocks = order
	if !seen[b.g.Exit] {
		b.g.Exit = nil
	}
}
