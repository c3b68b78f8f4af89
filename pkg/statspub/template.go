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

package statspub

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// expandEnv expands {{.Env.KEY}} templates in every value of values using env.
// A template referencing a key absent from env is an error that lists the
// available keys.
func expandEnv(values map[string]string, env map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for key, value := range values {
		expanded, err := expandString(value, env)
		if err != nil {
			return nil, fmt.Errorf("env %s: %w", key, err)
		}
		out[key] = expanded
	}
	return out, nil
}

func expandString(str string, env map[string]string) (string, error) {
	if !strings.Contains(str, "{{") {
		return str, nil
	}

	tmpl, err := template.New("env").Option("missingkey=error").Parse(str)
	if err != nil {
		return "", fmt.Errorf("template parsing failed for '%s': %w", str, err)
	}

	data := struct {
		Env map[string]string
	}{
		Env: env,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		available := make([]string, 0, len(env))
		for k := range env {
			available = append(available, k)
		}
		sort.Strings(available)

		// Go template error format: `... at <.Env.VAR>: map has no entry for key "VAR"`
		if _, rest, ok := strings.Cut(err.Error(), `map has no entry for key "`); ok {
			missing, _, _ := strings.Cut(rest, `"`)
			return "", fmt.Errorf("variable '%s' not found for template '%s'. Available: %v", missing, str, available)
		}

		return "", fmt.Errorf("template expansion failed for '%s': %w. Available: %v", str, err, available)
	}

	return buf.String(), nil
}
