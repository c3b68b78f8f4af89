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
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alexandremahdhaoui/csx-stats/internal/cmdutil"
	"github.com/alexandremahdhaoui/csx-stats/pkg/flaterrors"
	"github.com/alexandremahdhaoui/csx-stats/pkg/ledger"
)

// Runner runs one external program to completion.
type Runner interface {
	Run(ctx context.Context, input cmdutil.ExecuteInput) cmdutil.ExecuteOutput
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, input cmdutil.ExecuteInput) cmdutil.ExecuteOutput

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, input cmdutil.ExecuteInput) cmdutil.ExecuteOutput {
	return f(ctx, input)
}

// ExecRunner runs programs with os/exec.
var ExecRunner Runner = RunnerFunc(cmdutil.Execute)

// Generate runs every configured generator in order. Each one must return
// before the next starts. The generators inherit the process environment plus
// the entries of Config.GeneratorEnv and run in Config.WorkDir.
//
// A failed generator aborts the sequence with ErrGeneratorFailed unless
// Config.AllowGeneratorFailure is set, in which case the failure is logged and
// the next generator runs. The returned runs cover every generator started.
func (o *Orchestrator) Generate(ctx context.Context) ([]ledger.GeneratorRun, error) {
	cfg := o.Config

	info, err := os.Stat(cfg.WorkDir())
	if err != nil {
		return nil, flaterrors.Join(err, ErrAppHomeInvalid)
	}
	if !info.IsDir() {
		return nil, flaterrors.Join(fmt.Errorf("%s is not a directory", cfg.WorkDir()), ErrAppHomeInvalid)
	}

	env, err := cfg.GeneratorEnv()
	if err != nil {
		return nil, flaterrors.Join(err, ErrInvalidConfig)
	}

	runs := make([]ledger.GeneratorRun, 0, len(cfg.Generators))
	for _, name := range cfg.Generators {
		if err := ctx.Err(); err != nil {
			return runs, err
		}

		run := o.runGenerator(ctx, name, env)
		runs = append(runs, run)

		if run.Succeeded() {
			continue
		}

		genErr := &GeneratorError{Name: run.Name, Path: run.Path, ExitCode: run.ExitCode, Message: run.Error}
		if !cfg.AllowGeneratorFailure {
			return runs, flaterrors.Join(genErr, ErrGeneratorFailed)
		}
		log.Printf("Warning: %v; continuing because generator failures are allowed", genErr)
	}

	return runs, nil
}

func (o *Orchestrator) runGenerator(ctx context.Context, name string, env map[string]string) ledger.GeneratorRun {
	cfg := o.Config
	path := cfg.GeneratorPath(name)

	if cfg.GeneratorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.GeneratorTimeout)
		defer cancel()
	}

	log.Printf("Running generator %s", path)
	start := time.Now()

	out := o.runner().Run(ctx, cmdutil.ExecuteInput{
		Command: path,
		Env:     env,
		EnvFile: cfg.EnvFile,
		WorkDir: cfg.WorkDir(),
		Stdout:  o.stdout(),
		Stderr:  o.stderr(),
	})

	return ledger.GeneratorRun{
		Name:     name,
		Path:     path,
		ExitCode: out.ExitCode,
		Error:    out.Error,
		Duration: time.Since(start).Seconds(),
	}
}
