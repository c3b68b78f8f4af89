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

	"github.com/alexandremahdhaoui/csx-stats/internal/fsutil"
	"github.com/alexandremahdhaoui/csx-stats/pkg/flaterrors"
)

// removeTree deletes the deployed tree before the copy; tests replace it.
var removeTree = fsutil.RemoveTree

// PublishResult describes the deployed stats tree.
type PublishResult struct {
	Source      string
	Destination string
	Digest      string
	FileCount   int
}

// Publish replaces the deployed stats directory with the generated one.
//
// The destination is removed first; a missing destination is not an error.
// The copy then fails with ErrOutputMissing if the generated directory does
// not exist, and with ErrDestinationExists if something recreated the
// destination in between. Nothing is written to the destination in either case.
func (o *Orchestrator) Publish() (PublishResult, error) {
	src := o.Config.SourceDir()
	dst := o.Config.DestinationDir()
	res := PublishResult{Source: src, Destination: dst}

	fmt.Fprintln(o.stdout(), "Removing existing stats folder and copy new stats")

	if err := removeTree(dst); err != nil {
		return res, flaterrors.Join(err, ErrPublish)
	}

	if err := fsutil.CopyTree(src, dst); err != nil {
		switch {
		case errors.Is(err, fsutil.ErrSourceMissing):
			return res, flaterrors.Join(err, ErrOutputMissing, ErrPublish)
		case errors.Is(err, fsutil.ErrDestinationExists):
			return res, flaterrors.Join(err, ErrDestinationExists, ErrPublish)
		default:
			return res, flaterrors.Join(err, ErrPublish)
		}
	}

	digest, files, err := fsutil.TreeDigest(dst)
	if err != nil {
		return res, flaterrors.Join(err, ErrPublish)
	}
	res.Digest = digest
	res.FileCount = files

	return res, nil
}
