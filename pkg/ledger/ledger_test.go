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

package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, status string, start time.Time) PublishRecord {
	return PublishRecord{
		ID:          id,
		Status:      status,
		AppHome:     "/app",
		ServerHome:  "/tomcat/",
		Source:      "/app/bin/stats",
		Destination: "/tomcat/webapps/de.tudarmstadt.ukp.eduseer.citeseerx/WEB-INF/stats",
		StartTime:   start,
	}
}

func TestLedger_AppendAndList(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "state", "ledger.yaml"))
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, l.Append(record("first", StatusPublished, base)))
	require.NoError(t, l.Append(record("second", StatusFailed, base.Add(time.Minute))))

	records, err := l.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "second", records[0].ID)
	assert.Equal(t, "first", records[1].ID)
	assert.True(t, records[1].StartTime.Equal(base))

	last, err := l.Last(StatusPublished)
	require.NoError(t, err)
	assert.Equal(t, "first", last.ID)

	last, err = l.Last("")
	require.NoError(t, err)
	assert.Equal(t, "second", last.ID)
}

func TestLedger_ListMissingFile(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "ledger.yaml"))

	records, err := l.List()
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = l.Last(StatusPublished)
	assert.ErrorIs(t, err, errRecordNotFound)
}

func TestLedger_Prunes(t *testing.T) {
	l := &Ledger{Path: filepath.Join(t.TempDir(), "ledger.yaml"), Keep: 3}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Append(record(fmt.Sprintf("r%d", i), StatusPublished, base.Add(time.Duration(i)*time.Hour))))
	}

	records, err := l.List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "r4", records[0].ID)
	assert.Equal(t, "r2", records[2].ID)
}

func TestLedger_ConcurrentAppends(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "ledger.yaml"))
	base := time.Now().UTC()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.Append(record(fmt.Sprintf("r%d", i), StatusPublished, base.Add(time.Duration(i)*time.Second))))
		}(i)
	}
	wg.Wait()

	records, err := l.List()
	require.NoError(t, err)
	assert.Len(t, records, 8)
}

func TestRead_IncompatibleVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 2.0.0\nrecords: []\n"), 0o600))

	_, err := Read(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errIncompatibleLedger)
	assert.ErrorIs(t, err, errReadingLedger)
}

func TestRead_InvalidVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: not-a-version\n"), 0o600))

	_, err := Read(path)
	assert.ErrorIs(t, err, errIncompatibleLedger)
}

func TestRead_MissingFileWrapsNotExist(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGeneratorRun_Succeeded(t *testing.T) {
	assert.True(t, GeneratorRun{ExitCode: 0}.Succeeded())
	assert.False(t, GeneratorRun{ExitCode: 1}.Succeeded())
	assert.False(t, GeneratorRun{ExitCode: -1, Error: "exec format error"}.Succeeded())
}
