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
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexandremahdhaoui/csx-stats/internal/cli"
	"github.com/alexandremahdhaoui/csx-stats/pkg/statspub"
)

// Name is the command name.
const Name = "csx-stats"

// Version information (set via ldflags during build)
var (
	Version        = "dev"
	CommitSHA      = "unknown"
	BuildTimestamp = "unknown"
)

func main() {
	cli.Bootstrap(cli.Config{
		Name:           Name,
		Version:        Version,
		CommitSHA:      CommitSHA,
		BuildTimestamp: BuildTimestamp,
		RunCLI:         runCLI,
		RunMCP:         runMCPServer,
	})
}

func runCLI(args []string) error {
	if len(args) > 0 && args[0] == "history" {
		return runHistory(args[1:], os.Stdout, os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runPublish(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

// runPublish prints the banner, resolves the two home directories (prompting
// for any still missing) and runs the generate-and-publish procedure.
func runPublish(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fmt.Fprint(stdout, statspub.Banner)

	opts, err := loadOptions(args, stderr)
	if err != nil {
		return err
	}

	if !opts.noPrompt && (opts.config.AppHome == "" || opts.config.ServerHome == "") {
		if err := promptPaths(stdin, stdout, &opts.config); err != nil {
			return err
		}
	}

	orch, err := opts.orchestrator(ctx, stdout, stderr)
	if err != nil {
		return err
	}

	record, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	log.Printf("Publication %s recorded: %d file(s) in %s", record.ID, record.FileCount, record.Destination)
	return nil
}
