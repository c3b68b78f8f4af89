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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexandremahdhaoui/csx-stats/internal/cmdutil"
	"github.com/alexandremahdhaoui/csx-stats/pkg/flaterrors"
	"gopkg.in/yaml.v3"
)

// Defaults matching a stock Seersuite installation.
const (
	DefaultEnvVar    = "CSX_HOME"
	DefaultBinDir    = "bin"
	DefaultOutputDir = "bin/stats"
	DefaultWebapp    = "de.tudarmstadt.ukp.eduseer.citeseerx"
)

// DefaultGenerators are run in this order.
var DefaultGenerators = []string{"genStats", "genHomePageStats"}

// Config holds every input of the generate-and-publish procedure.
type Config struct {
	// AppHome is the root of the CiteSeerX instance (required).
	AppHome string `yaml:"appHome"`
	// ServerHome is the root of the Tomcat installation (required).
	ServerHome string `yaml:"serverHome"`

	// EnvVar is set to AppHome in every generator's environment.
	EnvVar string `yaml:"envVar,omitempty"`
	// BinDir is the generators' directory and working directory, relative to AppHome.
	BinDir string `yaml:"binDir,omitempty"`
	// OutputDir is where the generators write, relative to AppHome.
	OutputDir string `yaml:"outputDir,omitempty"`
	// Generators are executable names under BinDir, run sequentially without arguments.
	Generators []string `yaml:"generators,omitempty"`
	// Webapp is the deployed web application directory under <ServerHome>/webapps.
	Webapp string `yaml:"webapp,omitempty"`

	// AllowGeneratorFailure keeps going after a failed generator instead of aborting.
	AllowGeneratorFailure bool `yaml:"allowGeneratorFailure,omitempty"`
	// GeneratorTimeout bounds each generator run. Zero means no limit.
	GeneratorTimeout time.Duration `yaml:"generatorTimeout,omitempty"`

	// Env holds extra generator environment entries. Values may use {{.Env.KEY}}.
	Env map[string]string `yaml:"env,omitempty"`
	// EnvFile is an optional KEY=VALUE file loaded into the generators' environment.
	EnvFile string `yaml:"envFile,omitempty"`
}

// WithDefaults returns a copy of c with every unset optional field defaulted.
func (c Config) WithDefaults() Config {
	if c.EnvVar == "" {
		c.EnvVar = DefaultEnvVar
	}
	if c.BinDir == "" {
		c.BinDir = DefaultBinDir
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if len(c.Generators) == 0 {
		c.Generators = append([]string(nil), DefaultGenerators...)
	}
	if c.Webapp == "" {
		c.Webapp = DefaultWebapp
	}
	return c
}

// Merge returns c overlaid with every non-zero field of override.
func (c Config) Merge(override Config) Config {
	if override.AppHome != "" {
		c.AppHome = override.AppHome
	}
	if override.ServerHome != "" {
		c.ServerHome = override.ServerHome
	}
	if override.EnvVar != "" {
		c.EnvVar = override.EnvVar
	}
	if override.BinDir != "" {
		c.BinDir = override.BinDir
	}
	if override.OutputDir != "" {
		c.OutputDir = override.OutputDir
	}
	if len(override.Generators) > 0 {
		c.Generators = append([]string(nil), override.Generators...)
	}
	if override.Webapp != "" {
		c.Webapp = override.Webapp
	}
	if override.AllowGeneratorFailure {
		c.AllowGeneratorFailure = true
	}
	if override.GeneratorTimeout != 0 {
		c.GeneratorTimeout = override.GeneratorTimeout
	}
	if len(override.Env) > 0 {
		merged := make(map[string]string, len(c.Env)+len(override.Env))
		for k, v := range c.Env {
			merged[k] = v
		}
		for k, v := range override.Env {
			merged[k] = v
		}
		c.Env = merged
	}
	if override.EnvFile != "" {
		c.EnvFile = override.EnvFile
	}
	return c
}

// Validate checks c after defaults have been applied.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.AppHome) == "" {
		errs = append(errs, errors.New("appHome is required"))
	}
	if strings.TrimSpace(c.ServerHome) == "" {
		errs = append(errs, errors.New("serverHome is required"))
	}
	if c.EnvVar == "" || strings.ContainsAny(c.EnvVar, "= \t") {
		errs = append(errs, fmt.Errorf("envVar %q is not a valid variable name", c.EnvVar))
	}
	if len(c.Generators) == 0 {
		errs = append(errs, errors.New("at least one generator is required"))
	}
	for i, g := range c.Generators {
		if g == "" || strings.ContainsRune(g, '/') || g == "." || g == ".." {
			errs = append(errs, fmt.Errorf("generators[%d]: %q must be a file name under binDir", i, g))
		}
	}
	if filepath.IsAbs(c.BinDir) || filepath.IsAbs(c.OutputDir) {
		errs = append(errs, errors.New("binDir and outputDir must be relative to appHome"))
	}
	if c.Webapp == "" || strings.ContainsRune(c.Webapp, '/') {
		errs = append(errs, fmt.Errorf("webapp %q must be a single directory name", c.Webapp))
	}
	if c.GeneratorTimeout < 0 {
		errs = append(errs, errors.New("generatorTimeout must not be negative"))
	}

	if len(errs) > 0 {
		return flaterrors.Join(append(errs, ErrInvalidConfig)...)
	}
	return nil
}

// WorkDir is the generators' working directory.
func (c Config) WorkDir() string {
	return filepath.Join(c.AppHome, c.BinDir)
}

// GeneratorPath is the absolute location of the named generator.
func (c Config) GeneratorPath(name string) string {
	return filepath.Join(c.WorkDir(), name)
}

// SourceDir is the directory the generators produce.
func (c Config) SourceDir() string {
	return filepath.Join(c.AppHome, c.OutputDir)
}

// DestinationDir is the stats directory inside the deployed web application.
func (c Config) DestinationDir() string {
	return filepath.Join(c.ServerHome, "webapps", c.Webapp, "WEB-INF", "stats")
}

// GeneratorEnv returns the entries added to the inherited environment of
// every generator. EnvVar is always the literal AppHome string, even if Env
// tries to override it.
func (c Config) GeneratorEnv() (map[string]string, error) {
	lookup := map[string]string{}
	if c.EnvFile != "" {
		fileVars, err := cmdutil.LoadEnvFile(c.EnvFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fileVars {
			lookup[k] = v
		}
	}
	lookup[c.EnvVar] = c.AppHome

	expanded, err := expandEnv(c.Env, lookup)
	if err != nil {
		return nil, err
	}
	expanded[c.EnvVar] = c.AppHome

	return expanded, nil
}

// LoadConfigFile reads a YAML config file. Unknown fields are rejected.
// If optional is true a missing file yields an empty Config.
func LoadConfigFile(path string, optional bool) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
