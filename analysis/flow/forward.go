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

package flow

import (
	"context"
	"fmt"
	"sort"

	"github.com/awslabs/ar-php-tools/analysis/cfg"
	"github.com/awslabs/ar-php-tools/analysis/config"
	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/ppg"
	"github.com/awslabs/ar-php-tools/analysis/values"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the OpenTelemetry tracer of the analysis
const TracerName = "ar-php-tools/analysis"

// Stats are the counters of a forward analysis
type Stats struct {
	// Points is the number of processed program points
	Points int
	// Commits is the number of transactions committed on output sets
	Commits int
	// MaxCommits is the largest number of commits of a single point
	MaxCommits int
	// Widenings is the number of commits that widened their output set
	Widenings int
	// Graphs is the number of program point graphs created for calls, includes and evals
	Graphs int
}

// ForwardAnalysis computes the fixed point of a program point graph and of the graphs of the calls, includes and
// evals it makes. Each graph instance has its own worklist, which persists across runs: a graph that is run again
// only processes the points whose inputs changed. Calls are analyzed by nested runs of the callee graphs during the
// processing of the call site.
type ForwardAnalysis struct {
	Config   *config.Config
	Logger   *config.LogGroup
	Services *Services
	Stats    Stats

	ctx       context.Context
	entry     *instance
	instances map[*ppg.Graph]*instance
	// stack holds the instances being run, innermost last
	stack []*instance
	// active maps the keys of the functions, files and codes on the stack to their instance
	active map[string]*instance
	// bodies caches the control-flow graphs of function bodies, files and evaluated codes
	bodies map[any]*cfg.Graph
	// shared holds the function graphs when all call sites share them
	shared   map[string]*ppg.Graph
	includes int
	running  bool
}

// instance is the analysis state of one graph
type instance struct {
	graph  *ppg.Graph
	key    string
	level  int
	queue  []*ppg.Point
	queued map[*ppg.Point]bool
	cyclic map[*ppg.Point]bool
	// owner is the call site that last ran the instance
	owner     *ppg.Point
	ownerInst *instance
	// site is the position of the call that last ran the instance
	site ir.Pos
	// dependents are the recursive call sites reading the output of the instance
	dependents map[*ppg.Point]*instance
	running    bool
}

func (inst *instance) enqueue(p *ppg.Point) {
	if inst.queued[p] {
		return
	}
	inst.queued[p] = true
	inst.queue = append(inst.queue, p)
}

func (inst *instance) dequeue() *ppg.Point {
	p := inst.queue[0]
	inst.queue = inst.queue[1:]
	delete(inst.queued, p)
	return p
}

// NewForwardAnalysis returns an analysis using the services
func NewForwardAnalysis(c *config.Config, logger *config.LogGroup, services *Services) *ForwardAnalysis {
	return &ForwardAnalysis{
		Config:    c,
		Logger:    logger,
		Services:  services,
		ctx:       context.Background(),
		instances: map[*ppg.Graph]*instance{},
		active:    map[string]*instance{},
		bodies:    map[any]*cfg.Graph{},
		shared:    map[string]*ppg.Graph{},
	}
}

// Run analyzes the entry graph from the input until a fixed point is reached, or until ctx is done. Running the
// same graph again with a different input continues from the previous state.
func (a *ForwardAnalysis) Run(ctx context.Context, entry *ppg.Graph, input *memory.Snapshot) error {
	if a.running {
		return fmt.Errorf("analysis of %s is already running", entry.Name)
	}
	ctx, span := otel.Tracer(TracerName).Start(ctx, "flow.Run",
		trace.WithAttributes(attribute.String("graph", entry.Name)))
	defer span.End()
	a.ctx = ctx
	a.running = true
	defer func() {
		a.running = false
		a.ctx = context.Background()
	}()
	a.entry = a.instanceOf(entry, "")
	a.run(a.entry, nil, input)
	span.SetAttributes(attribute.Int("points", a.Stats.Points), attribute.Int("commits", a.Stats.Commits))
	return ctx.Err()
}

func (a *ForwardAnalysis) instanceOf(g *ppg.Graph, key string) *instance {
	inst, ok := a.instances[g]
	if !ok {
		inst = &instance{
			graph:      g,
			key:        key,
			queued:     map[*ppg.Point]bool{},
			cyclic:     g.CyclicPoints(),
			dependents: map[*ppg.Point]*instance{},
		}
		a.instances[g] = inst
	}
	return inst
}

// run gives the input to the start point of the instance and processes its worklist until it is empty
func (a *ForwardAnalysis) run(inst *instance, from *ppg.Point, input *memory.Snapshot) {
	start := inst.graph.Start
	if start.SetDynamicInput(from, input) || !start.IsInitialized() {
		inst.enqueue(start)
	}
	if len(inst.queue) == 0 {
		return
	}
	ctx, span := otel.Tracer(TracerName).Start(a.ctx, "flow.graph",
		trace.WithAttributes(attribute.String("graph", inst.graph.Name)))
	prev := a.ctx
	a.ctx = ctx
	defer func() {
		a.ctx = prev
		span.End()
	}()

	a.Logger.Debugf("run %s at level %d (depth %d)", inst.graph.Name, input.CallLevel(), len(a.stack))
	inst.level = input.CallLevel()
	inst.running = true
	a.stack = append(a.stack, inst)
	if inst.key != "" {
		a.active[inst.key] = inst
	}
	for len(inst.queue) > 0 && a.ctx.Err() == nil {
		a.process(inst, inst.dequeue())
	}
	a.stack = a.stack[:len(a.stack)-1]
	if inst.key != "" {
		delete(a.active, inst.key)
	}
	inst.running = false
	a.Logger.Debugf("end of %s", inst.graph.Name)
}

// call runs the graph of a call, include or eval target from the call site of c and returns the output of its end
// point, or nil when the end is not reached. A target already on the run stack is not run again: its active
// instance receives the input, and the call site depends on its output.
func (a *ForwardAnalysis) call(c *Controller, g *ppg.Graph, key string, input *memory.Snapshot) *memory.Snapshot {
	if active := a.active[key]; active != nil {
		active.dependents[c.Point] = c.inst
		if active.graph.Start.SetDynamicInput(c.Point, input) {
			a.markDirty(active, active.graph.Start)
		}
		return output(active)
	}
	inst := a.instanceOf(g, key)
	inst.owner, inst.ownerInst, inst.site = c.Point, c.inst, c.Position()
	a.run(inst, c.Point, input)
	return output(inst)
}

func output(inst *instance) *memory.Snapshot {
	end := inst.graph.End
	if end == nil || !end.IsInitialized() || !end.Reached {
		return nil
	}
	return end.OutSet
}

// markDirty enqueues the point in its instance. When the instance is not running, the call site that ran it is
// enqueued as well, up to a running instance, so that the point is processed when the call site runs it again.
func (a *ForwardAnalysis) markDirty(inst *instance, p *ppg.Point) {
	for inst != nil && p != nil {
		inst.enqueue(p)
		if inst.running {
			return
		}
		p, inst = inst.owner, inst.ownerInst
	}
}

// catchPoint returns the entry of the catch clause of the target in the innermost instance on the run stack that
// declares it at the level of the target
func (a *ForwardAnalysis) catchPoint(t ThrowTarget) (*instance, *ppg.Point) {
	for i := len(a.stack) - 1; i >= 0; i-- {
		inst := a.stack[i]
		if inst.level != t.Level {
			continue
		}
		if p := inst.graph.CatchPoint(t.Catch); p != nil {
			return inst, p
		}
	}
	return nil, nil
}

// inputs returns the outputs of the reached parents of the point and its dynamic inputs
func inputs(p *ppg.Point) []*memory.Snapshot {
	var res []*memory.Snapshot
	for _, parent := range p.Parents {
		if parent.IsInitialized() && parent.Reached {
			res = append(res, parent.OutSet)
		}
	}
	return append(res, p.DynamicInputs()...)
}

// process recomputes the output of the point from its inputs and enqueues its children when the output changed
func (a *ForwardAnalysis) process(inst *instance, p *ppg.Point) {
	if !p.IsInitialized() {
		p.Initialize()
	}
	if a.Logger.Enabled(config.TraceLevel) {
		a.Logger.Tracef("process %s at level %d", p, inst.level)
	}
	a.Stats.Points++
	ins := inputs(p)
	if len(ins) == 0 {
		return
	}
	in := memory.New()
	in.Extend(ins...)
	p.InSet = in

	out := p.OutSet
	out.StartTransaction()
	out.Extend(in)
	c := &Controller{
		Point:    p,
		OutSet:   out,
		Config:   a.Config,
		Log:      a.Logger,
		Services: a.Services,
		analysis: a,
		inst:     inst,
	}
	a.flowThrough(c)
	out.ClearTemporaries(out.CallLevel())
	if a.widens(inst, p) {
		if n := out.WidenChanged(); n > 0 {
			a.Stats.Widenings++
			a.Logger.Debugf("widened %d locations at %s", n, p)
		}
	}
	changed := out.CommitTransaction()
	p.Commits++
	a.Stats.Commits++
	if p.Commits > a.Stats.MaxCommits {
		a.Stats.MaxCommits = p.Commits
	}
	reached := !c.blocked
	if !changed && reached == p.Reached && p.Commits > 1 {
		return
	}
	p.Reached = reached
	for _, child := range p.Children {
		inst.enqueue(child)
	}
	if p == inst.graph.End {
		a.notifyDependents(inst)
	}
}

// widens returns true if the output of the point must be widened at this commit: points on cycles and start points
// once the widening limit is exceeded, every point once twice the limit is exceeded
func (a *ForwardAnalysis) widens(inst *instance, p *ppg.Point) bool {
	n := p.Commits + 1
	if !a.Config.Widens(n) {
		return false
	}
	return inst.cyclic[p] || p == inst.graph.Start || n > 2*a.Config.WideningLimit
}

func (a *ForwardAnalysis) notifyDependents(inst *instance) {
	deps := make([]*ppg.Point, 0, len(inst.dependents))
	for p := range inst.dependents {
		deps = append(deps, p)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].ID < deps[j].ID })
	for _, p := range deps {
		a.markDirty(inst.dependents[p], p)
	}
}

// flowThrough applies the semantics of the point to the output set of the controller
func (a *ForwardAnalysis) flowThrough(c *Controller) {
	p := c.Point
	switch p.Kind {
	case ppg.Start, ppg.End, ppg.Empty:
	case ppg.Condition:
		if !a.Services.Flow.ConfirmAssumption(c, p.Cond) {
			c.Block()
		}
	case ppg.Statement:
		switch p.Item.Role {
		case cfg.Exec:
			c.stmt(p.Item.Node)
		case cfg.TryEnter:
			a.Services.Flow.TryScopeStart(c, p.Item.Node.(*ir.Try))
		case cfg.TryExit:
			a.Services.Flow.TryScopeEnd(c, p.Item.Node.(*ir.Try))
		case cfg.ForeachBind:
			c.foreachBind(p.Item.Node.(*ir.Foreach))
		default:
			unsupported(p.Item.Node)
		}
	case ppg.CatchEntry:
		a.Services.Flow.CatchEntry(c, p.Item.Node.(*ir.Catch))
	case ppg.Native:
		n, ok := p.NativeFunction.(NativeAnalyzer)
		if !ok {
			panic(&values.FatalError{Message: fmt.Sprintf("native function %s has no analyzer", p.NativeFunction.Name())})
		}
		n.Analyze(c)
	}
}

// body returns the control-flow graph of the statements, built once per key
func (a *ForwardAnalysis) body(key any, stmts []ir.Stmt) *cfg.Graph {
	if g, ok := a.bodies[key]; ok {
		return g
	}
	g := cfg.Build(stmts)
	a.bodies[key] = g
	return g
}

// calleeGraph returns a new graph for the target, or its shared graph
func (a *ForwardAnalysis) calleeGraph(t CallTarget) *ppg.Graph {
	if g, ok := a.shared[t.Key]; ok {
		return g
	}
	var g *ppg.Graph
	if t.Native != nil {
		g = ppg.NewNativeGraph(t.Native)
	} else {
		g = ppg.Build(a.body(t.Decl, t.Decl.Body), t.Decl.QualifiedName())
		g.Owner = t.Decl
		g.File = t.Decl.File
	}
	a.Stats.Graphs++
	if a.Config.SharedFunctionGraphs {
		a.shared[t.Key] = g
	}
	return g
}

// fileGraph returns a new graph of the included file
func (a *ForwardAnalysis) fileGraph(path string) (*ppg.Graph, error) {
	if a.Services.Files == nil {
		return nil, fmt.Errorf("cannot load %s", path)
	}
	f, err := a.Services.Files.LoadFile(path)
	if err != nil {
		return nil, err
	}
	g := ppg.Build(a.body(f, f.Body), f.Path)
	g.File = f.Path
	a.Stats.Graphs++
	return g, nil
}

// evalGraph returns a new graph of the evaluated code
func (a *ForwardAnalysis) evalGraph(code string, origin ir.Pos) (*ppg.Graph, error) {
	if a.Services.Parser == nil {
		return nil, fmt.Errorf("cannot parse evaluated code")
	}
	cg, ok := a.bodies[code]
	if !ok {
		f, err := a.Services.Parser.ParseCode(code, origin)
		if err != nil {
			return nil, err
		}
		cg = a.body(code, f.Body)
	}
	g := ppg.Build(cg, "eval@"+origin.String())
	g.File = origin.File
	a.Stats.Graphs++
	return g, nil
}

// Stable returns true when no analysis is running and the worklists of the graphs reachable from the entry are
// empty
func (a *ForwardAnalysis) Stable() bool {
	if a.running || a.entry == nil {
		return false
	}
	for _, g := range a.Graphs() {
		if inst, ok := a.instances[g]; ok && len(inst.queue) > 0 {
			return false
		}
	}
	return true
}

// Result returns the output set of the point. Reading a result before the analysis is stable is a fatal error.
func (a *ForwardAnalysis) Result(p *ppg.Point) *memory.Snapshot {
	if !a.Stable() {
		panic(&values.FatalError{Message: fmt.Sprintf("result of %s read before the fixed point", p)})
	}
	if !p.IsInitialized() {
		return nil
	}
	return p.OutSet
}

// Output returns the output of the end of the entry graph, nil when it is not reached
func (a *ForwardAnalysis) Output() *memory.Snapshot {
	if a.entry == nil || a.entry.graph.End == nil {
		return nil
	}
	end := a.Result(a.entry.graph.End)
	if end == nil || !a.entry.graph.End.Reached {
		return nil
	}
	return end
}

// Graphs returns the graphs reachable from the entry graph through the extensions of their points, entry first
func (a *ForwardAnalysis) Graphs() []*ppg.Graph {
	if a.entry == nil {
		return nil
	}
	seen := map[*ppg.Graph]bool{}
	var res []*ppg.Graph
	var visit func(g *ppg.Graph)
	visit = func(g *ppg.Graph) {
		if g == nil || seen[g] {
			return
		}
		seen[g] = true
		res = append(res, g)
		for _, p := range g.Points {
			if !p.IsInitialized() {
				continue
			}
			for _, br := range p.Extension.Branches() {
				visit(br.Graph)
			}
		}
	}
	visit(a.entry.graph)
	return res
}

// Warnings returns the warnings recorded in the output sets of all the points of the graphs reachable from the
// entry, ordered by position
func (a *ForwardAnalysis) Warnings() []memory.Warning {
	all := memory.New()
	for _, g := range a.Graphs() {
		for _, p := range g.Points {
			if p.IsInitialized() {
				for _, w := range p.OutSet.ReadWarnings() {
					all.SetWarning(w)
				}
			}
		}
	}
	return all.ReadWarnings()
}
