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

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alexandremahdhaoui/csx-stats/pkg/statspub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptPaths(t *testing.T) {
	tests := []struct {
		name       string
		initial    statspub.Config
		input      string
		want       statspub.Config
		wantPrompt []string
		wantErr    bool
	}{
		{
			name:       "both missing",
			input:      "/app\n/tomcat/\n",
			want:       statspub.Config{AppHome: "/app", ServerHome: "/tomcat/"},
			wantPrompt: []string{promptAppHome, promptServerHome},
		},
		{
			name:       "windows line endings and spaces kept",
			input:      "/my app \r\n/tomcat\r\n",
			want:       statspub.Config{AppHome: "/my app ", ServerHome: "/tomcat"},
			wantPrompt: []string{promptAppHome, promptServerHome},
		},
		{
			name:       "only server home missing",
			initial:    statspub.Config{AppHome: "/app"},
			input:      "/tomcat",
			want:       statspub.Config{AppHome: "/app", ServerHome: "/tomcat"},
			wantPrompt: []string{promptServerHome},
		},
		{
			name:    "input ends early",
			input:   "/app\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			var out bytes.Buffer

			err := promptPaths(strings.NewReader(tt.input), &out, &cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
			assert.Equal(t, strings.Join(tt.wantPrompt, ""), out.String())
		})
	}
}
