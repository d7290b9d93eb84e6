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

package config

const (
	// DefaultWideningLimit is the number of commits of a program point after which its output is widened.
	DefaultWideningLimit = 20
	// NoWidening disables widening: loops that do not converge on their own will not terminate.
	NoWidening = -1
	// DefaultMaxCallDepth bounds the depth of the analyzed call stack. Deeper calls are not analyzed and return an
	// unknown value.
	DefaultMaxCallDepth = 64
	// DefaultMaxIncludeDepth bounds the nesting of analyzed include/require statements.
	DefaultMaxIncludeDepth = 16
)
