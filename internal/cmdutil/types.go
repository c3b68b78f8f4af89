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

package cmdutil

import "io"

// ExecuteInput contains the parameters for running one external program.
type ExecuteInput struct {
	Command string            // Path of the executable
	Args    []string          // Program arguments
	Env     map[string]string // Extra environment entries, highest precedence
	EnvFile string            // Path to environment file (optional)
	WorkDir string            // Working directory of the child (optional)
	Stdout  io.Writer         // Receives the child's stdout; defaults to os.Stdout
	Stderr  io.Writer         // Receives the child's stderr; defaults to os.Stderr
}

// ExecuteOutput contains the termination status of a child process.
type ExecuteOutput struct {
	ExitCode int    // Exit code, -1 if the process never ran to completion
	Error    string // Error message if the process could not be started or waited on
}

// Succeeded reports whether the child started and exited with status 0.
func (o ExecuteOutput) Succeeded() bool {
	return o.ExitCode == 0 && o.Error == ""
}
