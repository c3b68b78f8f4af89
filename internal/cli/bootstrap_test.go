//go:build unit

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

package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	var gotArgs []string
	var mcpCalled bool

	cfg := Config{
		Name:    "csx-stats",
		Version: "v0.1.0",
		RunCLI: func(args []string) error {
			gotArgs = args
			if len(args) > 0 && args[0] == "fail" {
				return errors.New("boom")
			}
			return nil
		},
		RunMCP: func() error {
			mcpCalled = true
			return nil
		},
	}

	t.Run("version", func(t *testing.T) {
		var stdout bytes.Buffer
		assert.Equal(t, 0, Run(cfg, []string{"--version"}, &stdout, &bytes.Buffer{}))
		assert.Contains(t, stdout.String(), "csx-stats version v0.1.0")
		assert.Nil(t, gotArgs)
	})

	t.Run("mcp", func(t *testing.T) {
		assert.Equal(t, 0, Run(cfg, []string{"--mcp"}, &bytes.Buffer{}, &bytes.Buffer{}))
		assert.True(t, mcpCalled)
	})

	t.Run("mcp unsupported", func(t *testing.T) {
		noMCP := cfg
		noMCP.RunMCP = nil
		assert.Equal(t, 1, Run(noMCP, []string{"--mcp"}, &bytes.Buffer{}, &bytes.Buffer{}))
	})

	t.Run("cli success", func(t *testing.T) {
		assert.Equal(t, 0, Run(cfg, []string{"--app-home", "/app"}, &bytes.Buffer{}, &bytes.Buffer{}))
		assert.Equal(t, []string{"--app-home", "/app"}, gotArgs)
	})

	t.Run("cli failure", func(t *testing.T) {
		var stderr bytes.Buffer
		assert.Equal(t, 1, Run(cfg, []string{"fail"}, &bytes.Buffer{}, &stderr))
		assert.Equal(t, "Error: boom\n", stderr.String())
	})
}
