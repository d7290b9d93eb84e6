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
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/flow"
	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/values"
)

type builtinClass struct {
	name   string
	parent string
}

// builtinClasses is the hierarchy of the predefined classes, by lowercase name
var builtinClasses = map[string]builtinClass{
	"stdclass":                 {"stdClass", ""},
	"throwable":                {"Throwable", ""},
	"exception":                {"Exception", "throwable"},
	"error":                    {"Error", "throwable"},
	"errorexception":           {"ErrorException", "exception"},
	"typeerror":                {"TypeError", "error"},
	"valueerror":               {"ValueError", "error"},
	"arithmeticerror":          {"ArithmeticError", "error"},
	"divisionbyzeroerror":      {"DivisionByZeroError", "arithmeticerror"},
	"logicexception":           {"LogicException", "exception"},
	"badfunctioncallexception": {"BadFunctionCallException", "logicexception"},
	"badmethodcallexception":   {"BadMethodCallException", "badfunctioncallexception"},
	"domainexception":          {"DomainException", "logicexception"},
	"invalidargumentexception": {"InvalidArgumentException", "logicexception"},
	"lengthexception":          {"LengthException", "logicexception"},
	"outofrangeexception":      {"OutOfRangeException", "logicexception"},
	"runtimeexception":         {"RuntimeException", "exception"},
	"outofboundsexception":     {"OutOfBoundsException", "runtimeexception"},
	"overflowexception":        {"OverflowException", "runtimeexception"},
	"rangeexception":           {"RangeException", "runtimeexception"},
	"underflowexception":       {"UnderflowException", "runtimeexception"},
	"unexpectedvalueexception": {"UnexpectedValueException", "runtimeexception"},
}

func isBuiltinClass(name string) bool {
	_, ok := builtinClasses[strings.ToLower(name)]
	return ok
}

func builtinName(name string) (string, bool) {
	b, ok := builtinClasses[strings.ToLower(name)]
	return b.name, ok
}

// classDecls returns the declarations of the class visible in the output set
func classDecls(c *flow.Controller, name string) []*ir.ClassDecl {
	var res []*ir.ClassDecl
	for _, v := range c.OutSet.ResolveClass(name).Values() {
		if t, ok := v.(values.Type); ok && t.Class != nil {
			res = append(res, t.Class)
		}
	}
	return res
}

// ancestry returns the declaration and the declarations of its ancestors, nearest first
func ancestry(c *flow.Controller, decl *ir.ClassDecl) []*ir.ClassDecl {
	res := []*ir.ClassDecl{decl}
	seen := map[*ir.ClassDecl]bool{decl: true}
	for i := 0; i < len(res); i++ {
		if res[i].Parent == "" {
			continue
		}
		for _, p := range classDecls(c, res[i].Parent) {
			if !seen[p] {
				seen[p] = true
				res = append(res, p)
			}
		}
	}
	return res
}

// supertypes returns the lowercase names of the class, its ancestors and the interfaces they implement
func supertypes(c *flow.Controller, class string) map[string]bool {
	res := map[string]bool{}
	queue := []string{class}
	for len(queue) > 0 {
		name := strings.ToLower(queue[0])
		queue = queue[1:]
		if name == "" || res[name] {
			continue
		}
		res[name] = true
		if b, ok := builtinClasses[name]; ok {
			queue = append(queue, b.parent)
		}
		for _, d := range classDecls(c, name) {
			queue = append(queue, d.Parent)
			queue = append(queue, d.Interfaces...)
		}
	}
	return res
}

// isSubclass returns true when class is target or one of its descendants
func isSubclass(c *flow.Controller, class, target string) bool {
	return supertypes(c, class)[strings.ToLower(target)]
}
