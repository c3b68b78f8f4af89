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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/alexandremahdhaoui/csx-stats/pkg/flaterrors"
	"sigs.k8s.io/yaml"
)

const (
	storeVersion = "1.0.0"
	// storeVersionConstraint accepts every ledger written by a 1.x release.
	storeVersionConstraint = "^1.0.0"

	// DefaultKeepRecords is the number of records kept when a Ledger has no explicit limit.
	DefaultKeepRecords = 20
)

var (
	errReadingLedger      = errors.New("reading ledger")
	errWritingLedger      = errors.New("writing ledger")
	errIncompatibleLedger = errors.New("incompatible ledger version")
	errRecordNotFound     = errors.New("publish record not found")
)

// Ledger appends and lists publish records stored at Path.
type Ledger struct {
	Path string
	// Keep is the maximum number of records retained. Zero means DefaultKeepRecords.
	Keep int
}

// New returns a Ledger stored at path with the default retention.
func New(path string) *Ledger {
	return &Ledger{Path: path, Keep: DefaultKeepRecords}
}

// Append adds record to the ledger. The read-modify-write happens under an
// exclusive lock so concurrent appends are preserved.
func (l *Ledger) Append(record PublishRecord) error {
	lockFile, err := lock(l.Path)
	if err != nil {
		return flaterrors.Join(err, errWritingLedger)
	}
	defer func() { _ = unlock(lockFile) }()

	store, err := ReadOrCreate(l.Path)
	if err != nil {
		return flaterrors.Join(err, errWritingLedger)
	}

	store.Records = append(store.Records, record)
	Prune(&store, l.keep())

	return write(l.Path, store)
}

// List returns every record, newest first.
func (l *Ledger) List() ([]PublishRecord, error) {
	store, err := ReadOrCreate(l.Path)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(store.Records)
	return store.Records, nil
}

// Last returns the most recent record with the given status, or any status if status is empty.
func (l *Ledger) Last(status string) (PublishRecord, error) {
	records, err := l.List()
	if err != nil {
		return PublishRecord{}, err
	}

	for _, r := range records {
		if status == "" || r.Status == status {
			return r, nil
		}
	}

	return PublishRecord{}, flaterrors.Join(
		fmt.Errorf("no record with status %q in %s", status, l.Path),
		errRecordNotFound,
	)
}

func (l *Ledger) keep() int {
	if l.Keep <= 0 {
		return DefaultKeepRecords
	}
	return l.Keep
}

// Read reads the ledger store at path. Returns an error wrapping
// os.ErrNotExist if the file doesn't exist.
func Read(path string) (Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Store{}, flaterrors.Join(err, errReadingLedger)
	}

	out := Store{} //nolint:exhaustruct // unmarshal

	if err := yaml.Unmarshal(b, &out); err != nil {
		return Store{}, flaterrors.Join(err, errReadingLedger)
	}

	if out.Version == "" {
		out.Version = storeVersion
	}
	if err := checkVersion(out.Version); err != nil {
		return Store{}, flaterrors.Join(err, errReadingLedger)
	}

	if out.Records == nil {
		out.Records = []PublishRecord{}
	}

	return out, nil
}

// ReadOrCreate reads the ledger store at path, or returns an empty store if
// the file does not exist yet.
func ReadOrCreate(path string) (Store, error) {
	store, err := Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Store{
				Version:     storeVersion,
				LastUpdated: time.Now().UTC(),
				Records:     []PublishRecord{},
			}, nil
		}
		return Store{}, err
	}
	return store, nil
}

// Prune keeps only the keep most recent records.
func Prune(store *Store, keep int) {
	if store == nil || len(store.Records) <= keep {
		return
	}

	sortNewestFirst(store.Records)
	store.Records = store.Records[:keep]
}

func sortNewestFirst(records []PublishRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartTime.After(records[j].StartTime)
	})
}

func checkVersion(v string) error {
	version, err := semver.NewVersion(v)
	if err != nil {
		return flaterrors.Join(fmt.Errorf("invalid ledger version %q: %w", v, err), errIncompatibleLedger)
	}

	constraint, err := semver.NewConstraint(storeVersionConstraint)
	if err != nil {
		return err
	}

	if !constraint.Check(version) {
		return flaterrors.Join(
			fmt.Errorf("ledger version %s does not satisfy %s", version, storeVersionConstraint),
			errIncompatibleLedger,
		)
	}

	return nil
}

func write(path string, store Store) error {
	store.Version = storeVersion
	store.LastUpdated = time.Now().UTC()

	b, err := yaml.Marshal(store)
	if err != nil {
		return flaterrors.Join(err, errWritingLedger)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return flaterrors.Join(err, errWritingLedger)
	}

	// Write to a sibling file and rename so readers never see a partial ledger.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return flaterrors.Join(err, errWritingLedger)
	}
	if err := os.Rename(tmp, path); err != nil {
		return flaterrors.Join(err, errWritingLedger)
	}

	return nil
}

// lock acquires an exclusive flock on <path>.lock. The caller must call unlock.
func lock(path string) (*os.File, error) {
	lockPath := path + ".lock"

	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, flaterrors.Join(err, errors.New("failed to create lock directory"))
	}

	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, flaterrors.Join(err, errors.New("failed to open lock file"))
	}

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		_ = lockFile.Close()
		return nil, flaterrors.Join(err, errors.New("failed to acquire lock"))
	}

	return lockFile, nil
}

func unlock(lockFile *os.File) error {
	if lockFile == nil {
		return nil
	}

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN); err != nil {
		_ = lockFile.Close()
		return flaterrors.Join(err, errors.New("failed to release lock"))
	}

	return lockFile.Close()
}
