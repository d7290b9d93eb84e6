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

/*
Package config provides a simple way to manage configuration files of the analyzer.

Use [Load](filename) to load a configuration from a specific filename.

Use [SetGlobalConfig](filename) to set filename as the global config, and then [LoadGlobal]() to load the global config.

A config file should be in yaml format. The top-level fields can be any of the fields defined in the Config
struct type, and the fields of [Options] are inlined at the top level.
For example, a valid config file is as follows:

	log-level: 4
	widening-limit: 30
	include-paths:
	  - lib
	natives:
	  - function: "^mysql_.*"

# Identifying code elements

The config uses [CodeIdentifier] to identify specific functions, for example native functions that should not be
analyzed. An important feature of the code identifiers is that the string specifications are seen as regexes if they
can be compiled to regexes, otherwise they are strings.

# Soundness options

The analysis is sound by default. The options that trade soundness or precision for performance are
shared-function-graphs (call contexts merged at function entry) and natives (matched natives return an unknown value).
*/
package config
