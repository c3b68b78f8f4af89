// Copyright 2024 Alexandre Mahdhaoui
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli provides the entry point shared by the csx-stats command modes.
//
// It handles:
//   - Version flag handling (--version, -v, version)
//   - MCP server mode (--mcp)
//   - Exit codes: 0 on success, 1 on any error
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/alexandremahdhaoui/csx-stats/internal/version"
)

// Config holds the configuration for CLI bootstrap.
type Config struct {
	// Name is the command name.
	Name string

	// Version information (typically set via ldflags)
	Version        string
	CommitSHA      string
	BuildTimestamp string

	// RunCLI receives the arguments after the program name.
	RunCLI func(args []string) error

	// RunMCP is the function to execute in MCP server mode (optional).
	// If nil, --mcp results in an error.
	RunMCP func() error
}

// Bootstrap runs the command and exits the process with the resulting code.
func Bootstrap(cfg Config) {
	os.Exit(Run(cfg, os.Args[1:], os.Stdout, os.Stderr))
}

// Run dispatches args and returns the exit code.
func Run(cfg Config, args []string, stdout, stderr io.Writer) int {
	info := version.New(cfg.Name)
	info.Version = cfg.Version
	info.CommitSHA = cfg.CommitSHA
	info.BuildTimestamp = cfg.BuildTimestamp

	for _, arg := range args {
		if arg == "version" || arg == "--version" || arg == "-v" {
			info.Print(stdout)
			return 0
		}
	}

	for _, arg := range args {
		if arg != "--mcp" {
			continue
		}
		if cfg.RunMCP == nil {
			log.Printf("Error: MCP mode not supported for %s", cfg.Name)
			return 1
		}
		if err := cfg.RunMCP(); err != nil {
			log.Printf("MCP server error: %v", err)
			return 1
		}
		return 0
	}

	if err := cfg.RunCLI(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}
