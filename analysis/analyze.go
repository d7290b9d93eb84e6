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

// Package analysis is the entry point of the PHP analysis: it loads programs and runs the forward analysis of an
// entry script with the PHP semantics.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/awslabs/ar-php-tools/analysis/cfg"
	"github.com/awslabs/ar-php-tools/analysis/config"
	"github.com/awslabs/ar-php-tools/analysis/flow"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/phpsem"
	"github.com/awslabs/ar-php-tools/analysis/ppg"
	"github.com/awslabs/ar-php-tools/analysis/values"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer(flow.TracerName)

// Result is the result of the analysis of an entry script
type Result struct {
	Entry string
	// Warnings are the reported warnings, ordered by position
	Warnings []memory.Warning
	// Suppressed counts the warnings dropped by ignore directives or by the warning limit of the config
	Suppressed int
	// Output is the memory state at the end of the entry script, nil when the end is not reachable
	Output *memory.Snapshot
	Stats  flow.Stats
	// Duration is the wall time of the analysis
	Duration time.Duration
}

// Analyze runs the analysis of the entry script of the program until a fixed point is reached. If c is nil, the
// config of the program is used. Unsupported constructs abort the analysis with an error wrapping the
// *values.FatalError raised.
func Analyze(ctx context.Context, c *config.Config, p *Program, entry string) (res *Result, err error) {
	if c == nil {
		c = p.Config
	}
	ctx, span := tracer.Start(ctx, "analysis.Analyze", trace.WithAttributes(attribute.String("entry", entry)))
	defer span.End()

	logger := config.NewLogGroup(c)
	f, err := p.LoadFile(entry)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	graph := ppg.Build(cfg.Build(f.Body), f.Path)
	graph.File = f.Path
	a := flow.NewForwardAnalysis(c, logger, phpsem.NewServices(p, p, p))

	defer func() {
		if r := recover(); r != nil {
			fatal, ok := r.(*values.FatalError)
			if !ok {
				panic(r)
			}
			span.RecordError(fatal)
			span.SetStatus(codes.Error, fatal.Error())
			res, err = nil, fmt.Errorf("analysis of %s aborted: %w", entry, fatal)
		}
	}()

	start := time.Now()
	if err := a.Run(ctx, graph, phpsem.InitialSnapshot()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res = &Result{Entry: entry, Output: a.Output(), Stats: a.Stats, Duration: time.Since(start)}
	for _, w := range a.Warnings() {
		if p.Directives.Ignores(w.Pos) || (c.MaxWarnings > 0 && len(res.Warnings) >= c.MaxWarnings) {
			res.Suppressed++
			continue
		}
		res.Warnings = append(res.Warnings, w)
	}
	logger.Infof("analyzed %s in %.2fs: %d warnings, %d points, %d graphs", entry, res.Duration.Seconds(),
		len(res.Warnings), res.Stats.Points, res.Stats.Graphs)
	span.SetAttributes(attribute.Int("warnings", len(res.Warnings)), attribute.Int("suppressed", res.Suppressed))
	return res, nil
}
