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

// Package statspub generates CiteSeerX statistics and publishes them into a
// Tomcat deployment.
//
// The procedure is strictly sequential: every generator under
// <appHome>/bin runs to completion in turn, then the deployed
// WEB-INF/stats directory is deleted and replaced by a copy of
// <appHome>/bin/stats. Generators receive CSX_HOME through their own
// environment; the calling process's environment and working directory are
// left untouched.
package statspub

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/alexandremahdhaoui/csx-stats/pkg/flaterrors"
	"github.com/alexandremahdhaoui/csx-stats/pkg/ledger"
	"github.com/google/uuid"
)

// Banner is printed before the operator is asked for any input.
const Banner = `
--------------------------------------------------------------------------------
GENERATE AND PUBLISH STATISTICS

This tool generates Seersuite's statistics and publishes them to Tomcat.

It calls the generators located at bin/genStats and bin/genHomePageStats
and copies their output to the WEB-INF directory of the Seersuite webapp

--------------------------------------------------------------------------------
`

// TreeUploader mirrors a published directory elsewhere.
type TreeUploader interface {
	UploadTree(ctx context.Context, root string) (int, error)
	Location() string
}

// Orchestrator runs the generate-and-publish procedure for one Config.
type Orchestrator struct {
	Config Config

	// Runner defaults to ExecRunner.
	Runner Runner
	// Stdout receives operator messages and generator stdout. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives generator stderr. Defaults to os.Stderr.
	Stderr io.Writer

	// Ledger, if set, records every run.
	Ledger *ledger.Ledger
	// Mirror, if set, receives a copy of the published tree.
	Mirror TreeUploader

	// Now defaults to time.Now.
	Now func() time.Time
}

// New returns an Orchestrator for cfg with defaults applied.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{Config: cfg.WithDefaults()}
}

// Run generates the stats, publishes them and records the outcome.
//
// The returned record is always populated when the configuration is valid,
// including for failed runs, and is the one appended to the ledger.
func (o *Orchestrator) Run(ctx context.Context) (ledger.PublishRecord, error) {
	o.Config = o.Config.WithDefaults()
	cfg := o.Config

	if err := cfg.Validate(); err != nil {
		return ledger.PublishRecord{}, err
	}

	start := o.now()
	record := ledger.PublishRecord{
		ID:          uuid.New().String(),
		AppHome:     cfg.AppHome,
		ServerHome:  cfg.ServerHome,
		Source:      cfg.SourceDir(),
		Destination: cfg.DestinationDir(),
		StartTime:   start.UTC(),
	}

	runErr := o.run(ctx, &record)

	record.Duration = o.now().Sub(start).Seconds()
	record.Status = ledger.StatusPublished
	if runErr != nil {
		record.Status = ledger.StatusFailed
		record.ErrorMessage = runErr.Error()
	}

	if o.Ledger != nil {
		if err := o.Ledger.Append(record); err != nil {
			log.Printf("Warning: failed to record publication %s: %v", record.ID, err)
			return record, flaterrors.Join(runErr, err)
		}
	}

	return record, runErr
}

func (o *Orchestrator) run(ctx context.Context, record *ledger.PublishRecord) error {
	runs, err := o.Generate(ctx)
	record.Generators = runs
	if err != nil {
		return err
	}

	fmt.Fprintf(o.stdout(), "Stats have been generated to %s\n", o.Config.SourceDir())

	res, err := o.Publish()
	if err != nil {
		return err
	}
	record.Digest = res.Digest
	record.FileCount = res.FileCount
	log.Printf("Published %d file(s) to %s (digest %s)", res.FileCount, res.Destination, res.Digest)

	if o.Mirror != nil {
		record.MirrorLocation = o.Mirror.Location()
		if _, err := o.Mirror.UploadTree(ctx, res.Destination); err != nil {
			return flaterrors.Join(err, ErrMirror)
		}
	}

	return nil
}

func (o *Orchestrator) runner() Runner {
	if o.Runner == nil {
		return ExecRunner
	}
	return o.Runner
}

func (o *Orchestrator) stdout() io.Writer {
	if o.Stdout == nil {
		return os.Stdout
	}
	return o.Stdout
}

func (o *Orchestrator) stderr() io.Writer {
	if o.Stderr == nil {
		return os.Stderr
	}
	return o.Stderr
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}
