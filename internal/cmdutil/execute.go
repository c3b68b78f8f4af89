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

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"
)

// WaitDelay bounds how long Execute waits for the child's output pipes after
// the context is done. Descendants that inherited the pipes are not waited for.
const WaitDelay = 2 * time.Second

// Execute runs a program to completion and reports its termination status.
//
// The child's environment is built with the following precedence (highest to lowest):
//  1. Inline env vars (input.Env)
//  2. Env file vars (input.EnvFile)
//  3. System environment
//
// The calling process's environment and working directory are never modified.
// Output is streamed to input.Stdout and input.Stderr rather than captured.
func Execute(ctx context.Context, input ExecuteInput) ExecuteOutput {
	env, err := BuildEnv(os.Environ(), input.EnvFile, input.Env)
	if err != nil {
		return ExecuteOutput{ExitCode: -1, Error: err.Error()}
	}

	cmd := exec.CommandContext(ctx, input.Command, input.Args...)
	cmd.WaitDelay = WaitDelay
	killProcessGroupOnCancel(cmd)
	cmd.Dir = input.WorkDir
	if input.WorkDir != "" {
		// exec only rewrites PWD for a nil Env; keep it consistent with Dir ourselves.
		if abs, err := filepath.Abs(input.WorkDir); err == nil {
			env = append(env, "PWD="+abs)
		}
	}
	cmd.Env = env

	cmd.Stdout = input.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = input.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out := ExecuteOutput{ExitCode: exitErr.ExitCode()}
			// ExitCode is -1 when the child was killed by a signal (e.g. context cancel).
			if out.ExitCode == -1 {
				out.Error = exitErr.Error()
			}
			return out
		}
		return ExecuteOutput{ExitCode: -1, Error: err.Error()}
	}

	return ExecuteOutput{ExitCode: 0}
}

// BuildEnv merges base with the entries of envFile and then inline.
// Later sources override earlier ones. Inline keys are appended in sorted
// order so the resulting slice is deterministic.
func BuildEnv(base []string, envFile string, inline map[string]string) ([]string, error) {
	env := make([]string, 0, len(base)+len(inline))
	env = append(env, base...)

	if envFile != "" {
		fileVars, err := LoadEnvFile(envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
		env = appendSorted(env, fileVars)
	}

	return appendSorted(env, inline), nil
}

// appendSorted appends KEY=VALUE entries. exec.Cmd keeps the last value for a
// duplicated key, which gives appended entries precedence.
func appendSorted(env []string, vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, vars[k]))
	}
	return env
}
