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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexandremahdhaoui/csx-stats/pkg/ledger"
	"github.com/alexandremahdhaoui/csx-stats/pkg/statspub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type installation struct {
	appHome    string
	serverHome string
	ledgerPath string
}

func (i installation) destination() string {
	return filepath.Join(i.serverHome, "webapps", statspub.DefaultWebapp, "WEB-INF", "stats")
}

// newInstallation creates a CSX home with working generators and a Tomcat home,
// and points the ledger at a temp file.
func newInstallation(t *testing.T) installation {
	t.Helper()
	tmp := t.TempDir()

	inst := installation{
		appHome:    filepath.Join(tmp, "csx"),
		serverHome: filepath.Join(tmp, "tomcat") + "/",
		ledgerPath: filepath.Join(tmp, "ledger.yaml"),
	}

	bin := filepath.Join(inst.appHome, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.MkdirAll(inst.serverHome, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "genStats"),
		[]byte("#!/bin/sh\nmkdir -p stats\necho \"$CSX_HOME\" > stats/home.txt\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "genHomePageStats"),
		[]byte("#!/bin/sh\necho ok > stats/homepage.txt\n"), 0o755))

	t.Setenv("CSX_STATS_LEDGER", inst.ledgerPath)
	t.Setenv("CSX_STATS_APP_HOME", "")
	t.Setenv("CSX_STATS_SERVER_HOME", "")
	t.Setenv("CSX_STATS_CONFIG", "")
	t.Setenv("CSX_STATS_S3_BUCKET", "")

	return inst
}

func TestRunPublish_Flags(t *testing.T) {
	inst := newInstallation(t)
	var stdout bytes.Buffer

	err := runPublish(context.Background(),
		[]string{"--app-home", inst.appHome, "--server-home", inst.serverHome, "--no-prompt"},
		strings.NewReader(""), &stdout, &bytes.Buffer{})
	require.NoError(t, err)

	out := stdout.String()
	assert.True(t, strings.Contains(out, "GENERATE AND PUBLISH STATISTICS"))
	assert.NotContains(t, out, promptAppHome)
	assert.Contains(t, out, "Stats have been generated to")
	assert.Contains(t, out, "Removing existing stats folder and copy new stats")

	got, err := os.ReadFile(filepath.Join(inst.destination(), "home.txt"))
	require.NoError(t, err)
	assert.Equal(t, inst.appHome+"\n", string(got))

	records, err := ledger.New(inst.ledgerPath).List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ledger.StatusPublished, records[0].Status)
}

func TestRunPublish_Prompts(t *testing.T) {
	inst := newInstallation(t)
	var stdout bytes.Buffer

	stdin := strings.NewReader(inst.appHome + "\n" + inst.serverHome + "\n")
	err := runPublish(context.Background(), nil, stdin, &stdout, &bytes.Buffer{})
	require.NoError(t, err)

	out := stdout.String()
	bannerAt := strings.Index(out, "GENERATE AND PUBLISH STATISTICS")
	promptAt := strings.Index(out, promptAppHome)
	require.GreaterOrEqual(t, bannerAt, 0)
	require.Greater(t, promptAt, bannerAt, "banner must precede the prompts")
	assert.Contains(t, out, promptServerHome)

	_, err = os.Stat(filepath.Join(inst.destination(), "homepage.txt"))
	assert.NoError(t, err)
}

func TestRunPublish_NoPromptMissingPaths(t *testing.T) {
	newInstallation(t)

	err := runPublish(context.Background(), []string{"--no-prompt"}, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, statspub.ErrInvalidConfig)
}

func TestRunPublish_GeneratorFailure(t *testing.T) {
	inst := newInstallation(t)
	require.NoError(t, os.WriteFile(filepath.Join(inst.appHome, "bin", "genStats"), []byte("#!/bin/sh\nexit 2\n"), 0o755))

	err := runPublish(context.Background(),
		[]string{"--app-home", inst.appHome, "--server-home", inst.serverHome},
		strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, statspub.ErrGeneratorFailed)
}

func TestLoadOptions_Precedence(t *testing.T) {
	newInstallation(t)

	configPath := filepath.Join(t.TempDir(), "csx-stats.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
appHome: /from-file
serverHome: /tomcat-from-file
webapp: ROOT
`), 0o600))

	t.Setenv("CSX_STATS_CONFIG", configPath)
	t.Setenv("CSX_STATS_APP_HOME", "/from-env")

	opts, err := loadOptions(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "/from-env", opts.config.AppHome)
	assert.Equal(t, "/tomcat-from-file", opts.config.ServerHome)
	assert.Equal(t, "ROOT", opts.config.Webapp)
	assert.Equal(t, statspub.DefaultGenerators, opts.config.Generators)
	assert.Nil(t, opts.mirror)

	opts, err = loadOptions([]string{"--app-home", "/from-flag", "--generator-timeout", "90s", "--ledger", "/tmp/l.yaml"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "/from-flag", opts.config.AppHome)
	assert.Equal(t, 90*time.Second, opts.config.GeneratorTimeout)
	assert.Equal(t, "/tmp/l.yaml", opts.ledgerPath)
}

func TestLoadOptions_Errors(t *testing.T) {
	newInstallation(t)

	_, err := loadOptions([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, &bytes.Buffer{})
	assert.Error(t, err, "an explicit config file must exist")

	_, err = loadOptions([]string{"positional"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = loadOptions([]string{"--unknown-flag"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestLoadOptions_Mirror(t *testing.T) {
	newInstallation(t)
	t.Setenv("CSX_STATS_S3_BUCKET", "csx-stats")
	t.Setenv("CSX_STATS_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("CSX_STATS_S3_PREFIX", "prod")

	opts, err := loadOptions(nil, &bytes.Buffer{})
	require.NoError(t, err)
	require.NotNil(t, opts.mirror)
	assert.Equal(t, "csx-stats", opts.mirror.Bucket)
	assert.Equal(t, "http://localhost:9000", opts.mirror.Endpoint)
	assert.Equal(t, "prod", opts.mirror.Prefix)
}
