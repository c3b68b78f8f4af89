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

// Package ledger keeps a history of stats publications on disk.
//
// Every run of the publish procedure, successful or not, appends one
// PublishRecord. The ledger is a YAML file guarded by an flock so that two
// operators publishing at the same time do not drop each other's records.
//
// Example usage:
//
//	l := ledger.New(".csx-stats/ledger.yaml")
//	if err := l.Append(record); err != nil {
//	    return err
//	}
package ledger

import "time"

// Status of a publication.
const (
	StatusPublished = "published"
	StatusFailed    = "failed"
)

// GeneratorRun is the outcome of one generator invocation.
type GeneratorRun struct {
	// Name is the generator's file name (e.g. "genStats").
	Name string `json:"name"`
	// Path is the absolute path that was executed.
	Path string `json:"path"`
	// ExitCode is -1 when the process could not be started.
	ExitCode int `json:"exitCode"`
	// Error holds the start failure, if any.
	Error string `json:"error,omitempty"`
	// Duration in seconds.
	Duration float64 `json:"duration"`
}

// Succeeded reports whether the generator exited with status 0.
func (g GeneratorRun) Succeeded() bool {
	return g.ExitCode == 0 && g.Error == ""
}

// PublishRecord describes one run of the generate-and-publish procedure.
type PublishRecord struct {
	// ID is a UUID.
	ID string `json:"id"`

	// Status is StatusPublished or StatusFailed.
	Status string `json:"status"`

	AppHome    string `json:"appHome"`
	ServerHome string `json:"serverHome"`

	// Source is the generated output directory that was copied.
	Source string `json:"source"`
	// Destination is the deployment directory that was replaced.
	Destination string `json:"destination"`

	// Digest is the sha256 tree digest of Destination after the copy.
	Digest    string `json:"digest,omitempty"`
	FileCount int    `json:"fileCount,omitempty"`

	Generators []GeneratorRun `json:"generators,omitempty"`

	// MirrorLocation is the s3:// URL the stats were mirrored to, if mirroring is enabled.
	MirrorLocation string `json:"mirrorLocation,omitempty"`

	ErrorMessage string `json:"errorMessage,omitempty"`

	StartTime time.Time `json:"startTime"`
	// Duration in seconds.
	Duration float64 `json:"duration"`
}

// Store is the on-disk representation of the ledger.
type Store struct {
	Version     string          `json:"version"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Records     []PublishRecord `json:"records"`
}
