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
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/alexandremahdhaoui/csx-stats/pkg/flaterrors"
	"github.com/alexandremahdhaoui/csx-stats/pkg/ledger"
	"github.com/alexandremahdhaoui/csx-stats/pkg/s3mirror"
	"github.com/alexandremahdhaoui/csx-stats/pkg/statspub"
	"github.com/caarlos0/env/v11"
)

// defaultConfigFile is read from the working directory when present.
const defaultConfigFile = "csx-stats.yaml"

// ----------------------------------------------------- ENVS ------------------------------------------------------- //

// Envs holds the environment variables read by csx-stats.
type Envs struct {
	AppHome    string `env:"CSX_STATS_APP_HOME"`
	ServerHome string `env:"CSX_STATS_SERVER_HOME"`
	ConfigPath string `env:"CSX_STATS_CONFIG"`
	LedgerPath string `env:"CSX_STATS_LEDGER" envDefault:".csx-stats/ledger.yaml"`

	AllowGeneratorFailure bool `env:"CSX_STATS_ALLOW_GENERATOR_FAILURE"`

	S3Endpoint        string `env:"CSX_STATS_S3_ENDPOINT"`
	S3Region          string `env:"CSX_STATS_S3_REGION"`
	S3Bucket          string `env:"CSX_STATS_S3_BUCKET"`
	S3Prefix          string `env:"CSX_STATS_S3_PREFIX"`
	S3AccessKeyID     string `env:"CSX_STATS_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"CSX_STATS_S3_SECRET_ACCESS_KEY"`
}

// ----------------------------------------------------- OPTIONS ---------------------------------------------------- //

var errLoadingOptions = errors.New("loading options")

// options is the resolved input of one csx-stats invocation.
type options struct {
	config     statspub.Config
	ledgerPath string
	noPrompt   bool
	mirror     *s3mirror.Options
}

// loadOptions layers defaults, the YAML config file, environment variables
// and flags, in increasing order of precedence.
func loadOptions(args []string, stderr io.Writer) (*options, error) {
	envs := Envs{} //nolint:exhaustruct // unmarshal
	if err := env.Parse(&envs); err != nil {
		return nil, flaterrors.Join(err, errLoadingOptions)
	}

	var flagCfg statspub.Config
	var configPath, ledgerPath string
	var noPrompt bool

	fs := flag.NewFlagSet("csx-stats", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&flagCfg.AppHome, "app-home", "", "home of the CSX instance")
	fs.StringVar(&flagCfg.ServerHome, "server-home", "", "home of the Tomcat server")
	fs.StringVar(&configPath, "config", "", "path to the YAML config file (default "+defaultConfigFile+" if present)")
	fs.StringVar(&ledgerPath, "ledger", "", "path to the publish ledger")
	fs.BoolVar(&flagCfg.AllowGeneratorFailure, "allow-generator-failure", false, "publish even if a generator fails")
	fs.DurationVar(&flagCfg.GeneratorTimeout, "generator-timeout", 0, "maximum run time of each generator (0 = unlimited)")
	fs.BoolVar(&noPrompt, "no-prompt", false, "never prompt for missing paths")

	if err := fs.Parse(args); err != nil {
		return nil, flaterrors.Join(err, errLoadingOptions)
	}
	if fs.NArg() > 0 {
		return nil, flaterrors.Join(fmt.Errorf("unexpected arguments: %v", fs.Args()), errLoadingOptions)
	}

	optional := false
	if configPath == "" {
		configPath = envs.ConfigPath
	}
	if configPath == "" {
		configPath = defaultConfigFile
		optional = true
	}

	fileCfg, err := statspub.LoadConfigFile(configPath, optional)
	if err != nil {
		return nil, flaterrors.Join(err, errLoadingOptions)
	}

	envCfg := statspub.Config{
		AppHome:               envs.AppHome,
		ServerHome:            envs.ServerHome,
		AllowGeneratorFailure: envs.AllowGeneratorFailure,
	}

	opts := &options{
		config:     fileCfg.Merge(envCfg).Merge(flagCfg).WithDefaults(),
		ledgerPath: envs.LedgerPath,
		noPrompt:   noPrompt,
	}
	if ledgerPath != "" {
		opts.ledgerPath = ledgerPath
	}

	if envs.S3Bucket != "" {
		opts.mirror = &s3mirror.Options{
			Endpoint:        envs.S3Endpoint,
			Region:          envs.S3Region,
			Bucket:          envs.S3Bucket,
			Prefix:          envs.S3Prefix,
			AccessKeyID:     envs.S3AccessKeyID,
			SecretAccessKey: envs.S3SecretAccessKey,
		}
	}

	return opts, nil
}

// orchestrator builds the Orchestrator for opts, writing operator output to stdout.
func (o *options) orchestrator(ctx context.Context, stdout, stderr io.Writer) (*statspub.Orchestrator, error) {
	orch := statspub.New(o.config)
	orch.Stdout = stdout
	orch.Stderr = stderr

	if o.ledgerPath != "" {
		orch.Ledger = ledger.New(o.ledgerPath)
	}

	if o.mirror != nil {
		m, err := s3mirror.New(ctx, *o.mirror)
		if err != nil {
			return nil, err
		}
		orch.Mirror = m
	}

	return orch, nil
}
