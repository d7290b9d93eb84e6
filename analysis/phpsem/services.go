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

package phpsem

import (
	"github.com/awslabs/ar-php-tools/analysis/flow"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/values"
	"github.com/awslabs/ar-php-tools/internal/funcutil"
)

// NewServices returns the collaborators implementing the default semantics. Any argument may be nil.
func NewServices(files flow.FileLoader, includes IncludeResolver, parser flow.CodeParser) *flow.Services {
	return &flow.Services{
		Evaluator: Evaluator{},
		Functions: FunctionResolver{},
		Flow:      &FlowResolver{Includes: includes},
		Files:     files,
		Parser:    parser,
	}
}

// InitialSnapshot returns the input of a script: the request superglobals hold unknown arrays
func InitialSnapshot() *memory.Snapshot {
	s := memory.New()
	for _, name := range funcutil.SortedKeys(superglobals) {
		s.Assign(memory.VariablePath(name).At(memory.Global), memory.NewEntry(values.AnyArray{}))
	}
	return s
}
