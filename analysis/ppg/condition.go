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
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/ir"
)

// Form is the way the parts of an assumption condition combine
type Form uint8

const (
	// All holds when every part holds
	All Form = iota
	// Some holds when at least one part holds
	Some
	// None holds when no part holds
	None
	// SomeNot holds when at least one part does not hold
	SomeNot
)

func (f Form) String() string {
	switch f {
	case Some:
		return "some"
	case None:
		return "none"
	case SomeNot:
		return "some-not"
	default:
		return "all"
	}
}

// AssumptionCondition is the condition assumed on a branch of the control flow
type AssumptionCondition struct {
	Form  Form
	Parts []ir.Expr
}

// Position returns the position of the first part
func (c *AssumptionCondition) Position() ir.Pos {
	if len(c.Parts) == 0 {
		return ir.Pos{}
	}
	return c.Parts[0].Position()
}

func (c *AssumptionCondition) String() string {
	parts := make([]string, len(c.Parts))
	for i, e := range c.Parts {
		parts[i] = ir.Format(e)
	}
	return c.Form.String() + "(" + strings.Join(parts, ", ") + ")"
}
