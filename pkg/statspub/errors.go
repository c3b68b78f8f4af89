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
)

var (
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrAppHomeInvalid is returned when the generator working directory is not a directory.
	ErrAppHomeInvalid = errors.New("application home is not usable")
	// ErrGeneratorFailed is returned when a generator could not be started or exited non-zero.
	ErrGeneratorFailed = errors.New("generator failed")
	// ErrOutputMissing is returned when the generated output directory is absent at copy time.
	ErrOutputMissing = errors.New("generated stats directory missing")
	// ErrDestinationExists is returned when the destination is still present after removal.
	ErrDestinationExists = errors.New("destination stats directory still present")
	// ErrPublish wraps every failure of the delete-then-copy step.
	ErrPublish = errors.New("publishing stats")
	// ErrMirror wraps a failure to upload the published stats to S3.
	ErrMirror = errors.New("mirroring stats")
)

// GeneratorError describes a generator that did not complete successfully.
type GeneratorError struct {
	Name     string
	Path     string
	ExitCode int
	// Message is set when the process could not be started or was killed.
	Message string
}

func (e *GeneratorError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%s): %s", e.Name, e.Path, e.Message)
	}
	return fmt.Sprintf("%s (%s) exited with code %d", e.Name, e.Path, e.ExitCode)
}
