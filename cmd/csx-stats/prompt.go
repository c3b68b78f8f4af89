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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alexandremahdhaoui/csx-stats/pkg/statspub"
)

const (
	promptAppHome    = "Home of your CSX instance? "
	promptServerHome = "Home of your Tomcat server? "
)

// promptPaths asks for every home directory still missing from cfg.
// Answers are taken verbatim apart from the line terminator.
func promptPaths(in io.Reader, out io.Writer, cfg *statspub.Config) error {
	r := bufio.NewReader(in)

	if cfg.AppHome == "" {
		answer, err := promptLine(r, out, promptAppHome)
		if err != nil {
			return err
		}
		cfg.AppHome = answer
	}

	if cfg.ServerHome == "" {
		answer, err := promptLine(r, out, promptServerHome)
		if err != nil {
			return err
		}
		cfg.ServerHome = answer
	}

	return nil
}

func promptLine(r *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)

	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", fmt.Errorf("reading answer to %q: %w", strings.TrimSpace(question), err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}
