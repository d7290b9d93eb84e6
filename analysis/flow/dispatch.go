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
	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/ppg"
	"github.com/awslabs/ar-php-tools/analysis/values"
)

// dispatchCall analyzes the call of the targets at the site. Every target is analyzed in its own graph, from the
// output set of the caller with the arguments bound at the callee level, and the outputs of the targets are merged
// back at the caller level. The result is the join of the return values.
func (c *Controller) dispatchCall(site ir.Node, targets []CallTarget, args []Argument) memory.Entry {
	a := c.analysis
	c.node = site
	level := c.Level()
	if len(targets) == 0 {
		c.Point.Extension.Sync(site.ID(), nil, nil)
		return memory.NewEntry(values.AnyValue{})
	}
	if a.Config.ExceedsMaxCallDepth(level + 1) {
		c.SetWarning(CallDepthWarning, "call not analyzed: the call depth exceeds %d", a.Config.MaxCallDepth)
		return memory.NewEntry(values.AnyValue{})
	}
	keys := make([]string, len(targets))
	byKey := make(map[string]CallTarget, len(targets))
	for i, t := range targets {
		keys[i] = t.Key
		byKey[t.Key] = t
	}
	branches := c.Point.Extension.Sync(site.ID(), keys, func(key string) *ppg.Branch {
		return &ppg.Branch{Type: ppg.ParallelCall, Graph: a.calleeGraph(byKey[key])}
	})
	var outputs []*memory.Snapshot
	for i, br := range branches {
		t := targets[i]
		br.Data = t
		input := c.OutSet.Clone()
		calleeLevel := level + 1
		if active := a.active[t.Key]; active != nil {
			// recursive calls join the input of the active instance of the callee
			calleeLevel = active.level
			input.DropCallLevel(calleeLevel + 1)
		}
		input.EnterCallLevel(calleeLevel)
		c.Services.Functions.InitializeCall(c, input, t, args)
		br.Input = input
		c.node = site
		if out := a.call(c, br.Graph, t.Key, input); out != nil {
			outputs = append(outputs, out)
		}
	}
	c.node = site
	if len(outputs) == 0 {
		// no target returns
		c.Block()
		return memory.UndefinedEntry
	}
	result := memory.TemporaryPath(tempName("call", site)).At(level)
	clones := make([]*memory.Snapshot, len(outputs))
	for i, o := range outputs {
		clones[i] = o.Clone()
		c.Services.Functions.ResolveReturnValue(c, clones[i:i+1], o.CallLevel(), result)
	}
	c.Services.Flow.CallDispatchMerge(c, level, clones)
	return c.OutSet.ReadValue(result)
}

// dispatchInclude analyzes the included files at the call level of the includer. When the include is not
// complete, the includer's state also flows past the include with an unknown result.
func (c *Controller) dispatchInclude(site *ir.Include, files []string, complete bool) memory.Entry {
	a := c.analysis
	c.node = site
	if len(files) > 0 && a.Config.ExceedsMaxIncludeDepth(a.includes+1) {
		c.SetWarning(IncludeWarning, "include not analyzed: the include depth exceeds %d", a.Config.MaxIncludeDepth)
		files, complete = nil, false
	}
	branches := c.Point.Extension.Sync(site.ID(), files, func(key string) *ppg.Branch {
		br := &ppg.Branch{Type: ppg.ParallelInclude}
		g, err := a.fileGraph(key)
		if err != nil {
			br.Data = err
			return br
		}
		br.Graph = g
		return br
	})
	return c.runIncluded(site, branches, "file:", complete)
}

// dispatchEval analyzes the evaluated code strings like included files
func (c *Controller) dispatchEval(site *ir.Eval, codes []string, complete bool) memory.Entry {
	a := c.analysis
	c.node = site
	branches := c.Point.Extension.Sync(site.ID(), codes, func(key string) *ppg.Branch {
		br := &ppg.Branch{Type: ppg.ParallelEval}
		g, err := a.evalGraph(key, site.Position())
		if err != nil {
			br.Data = err
			return br
		}
		br.Graph = g
		return br
	})
	return c.runIncluded(site, branches, "eval:", complete)
}

func (c *Controller) runIncluded(site ir.Node, branches []*ppg.Branch, prefix string, complete bool) memory.Entry {
	a := c.analysis
	level := c.Level()
	var outputs []*memory.Snapshot
	for _, br := range branches {
		if br.Graph == nil {
			kind := IncludeWarning
			if br.Type == ppg.ParallelEval {
				kind = EvalWarning
			}
			c.SetWarning(kind, "%v", br.Data)
			complete = false
			continue
		}
		input := c.OutSet.Clone()
		file := br.Key
		if br.Type == ppg.ParallelEval {
			file = ""
		}
		c.Services.Functions.InitializeInclude(c, input, file)
		br.Input = input
		a.includes++
		c.node = site
		out := a.call(c, br.Graph, prefix+br.Key, input)
		a.includes--
		if out != nil {
			outputs = append(outputs, out)
		}
	}
	c.node = site
	result := memory.TemporaryPath(tempName("include", site)).At(level)
	var clones []*memory.Snapshot
	for _, o := range outputs {
		clone := o.Clone()
		c.Services.Functions.ResolveReturnValue(c, []*memory.Snapshot{clone}, level, result)
		clones = append(clones, clone)
	}
	if !complete {
		clone := c.OutSet.Clone()
		clone.Assign(result, memory.NewEntry(values.AnyValue{}))
		clones = append(clones, clone)
	}
	if len(clones) == 0 {
		c.Block()
		return memory.UndefinedEntry
	}
	c.Services.Flow.IncludeDispatchMerge(c, clones)
	return c.OutSet.ReadValue(result)
}

// throw routes the output set to the catch clauses the thrown values may be caught by. The throwing point does not
// complete.
func (c *Controller) throw(thrown memory.Entry) {
	a := c.analysis
	for _, t := range c.Services.Flow.Throw(c, thrown) {
		inst, cp := a.catchPoint(t)
		if cp == nil {
			a.Logger.Debugf("no active graph has the catch clause %d at level %d", t.Catch, t.Level)
			continue
		}
		s := c.OutSet.Clone()
		if s.CallLevel() > t.Level {
			s.MergeWithCallLevel(t.Level, nil, []*memory.Snapshot{s})
		}
		if cp.SetDynamicInput(c.Point, s) {
			a.markDirty(inst, cp)
		}
	}
	c.Block()
}
