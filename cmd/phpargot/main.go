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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/awslabs/ar-php-tools/analysis"
	"github.com/awslabs/ar-php-tools/cmd/phpargot/analyze"
	"github.com/awslabs/ar-php-tools/cmd/phpargot/render"
	"github.com/awslabs/ar-php-tools/cmd/phpargot/tools"
)

const usage = `phpargot: Automated Reasoning PHP Tools
Usage:
  phpargot [tool] [options] <PHP file path(s)>
Tools:
  - analyze: runs the abstract interpretation of PHP scripts and reports warnings
  - render: renders the program point graph of a script or function in the DOT language
  - version: prints the version
Examples:
  Analyze a script: phpargot analyze -config config.yaml index.php
  Render a function: phpargot render -function helper lib.php`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	ctx := context.Background()
	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "analyze":
		flags, err := analyze.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		n, err := analyze.Run(ctx, flags, os.Stdout)
		if err != nil {
			errExit(err)
		}
		if n > 0 {
			os.Exit(1)
		}
	case "render":
		flags, err := render.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := render.Run(ctx, flags); err != nil {
			errExit(err)
		}
	case "version", "-version", "--version":
		fmt.Println(analysis.Version)
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
