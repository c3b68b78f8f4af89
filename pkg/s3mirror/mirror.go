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

// Package s3mirror uploads a published stats tree to S3-compatible storage,
// giving operators an off-host copy of what was deployed to Tomcat.
package s3mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexandremahdhaoui/csx-stats/pkg/flaterrors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var errMirroring = errors.New("mirroring stats to S3")

// Options configures a Mirror.
type Options struct {
	// Endpoint is a full URL (e.g. "http://localhost:9000" for MinIO).
	// Empty means the AWS default endpoint resolution.
	Endpoint string
	// Region defaults to "us-east-1".
	Region string
	Bucket string
	// Prefix is prepended to every object key.
	Prefix string

	// Static credentials; when AccessKeyID is empty the default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// putObjectAPI is the subset of *s3.Client used by Mirror.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Mirror copies directory trees into a bucket.
type Mirror struct {
	client putObjectAPI
	bucket string
	prefix string
}

// New creates a Mirror backed by an S3 client built from opts.
func New(ctx context.Context, opts Options) (*Mirror, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(normalizeRegion(opts.Region)),
	}

	if opts.Endpoint != "" {
		if err := validateEndpoint(opts.Endpoint); err != nil {
			return nil, err
		}
		loadOpts = append(loadOpts, config.WithBaseEndpoint(opts.Endpoint))
	}

	if opts.AccessKeyID != "" {
		creds := credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken)
		loadOpts = append(loadOpts, config.WithCredentialsProvider(creds))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Path-style addressing for MinIO and other S3-compatible services
		o.UsePathStyle = opts.Endpoint != ""
	})

	return newWithClient(client, opts.Bucket, opts.Prefix), nil
}

func newWithClient(client putObjectAPI, bucket, prefix string) *Mirror {
	return &Mirror{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Location returns the s3:// URL under which trees are uploaded.
func (m *Mirror) Location() string {
	if m.prefix == "" {
		return fmt.Sprintf("s3://%s", m.bucket)
	}
	return fmt.Sprintf("s3://%s/%s", m.bucket, m.prefix)
}

// UploadTree uploads every regular file below root. Object keys are the
// slash-separated paths relative to root, joined to the mirror's prefix.
// Returns the number of uploaded objects.
func (m *Mirror) UploadTree(ctx context.Context, root string) (int, error) {
	uploaded := 0

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		if err := m.putFile(ctx, p, m.objectKey(rel)); err != nil {
			return err
		}
		uploaded++
		return nil
	})
	if err != nil {
		return uploaded, flaterrors.Join(err, errMirroring)
	}

	log.Printf("Mirrored %d file(s) from %s to %s", uploaded, root, m.Location())
	return uploaded, nil
}

func (m *Mirror) objectKey(rel string) string {
	return path.Join(m.prefix, filepath.ToSlash(rel))
}

func (m *Mirror) putFile(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Warning: failed to close %s: %v", localPath, err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("S3 upload of %s timed out after 5 minutes", key)
		}
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return nil
}

// validateEndpoint validates that the endpoint is a valid HTTP/HTTPS URL.
func validateEndpoint(endpoint string) error {
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return fmt.Errorf("endpoint must start with http:// or https://")
	}
	return nil
}

// normalizeRegion returns the region, defaulting to "us-east-1" if empty.
func normalizeRegion(region string) string {
	region = strings.TrimSpace(region)
	if region == "" {
		return "us-east-1"
	}
	return region
}
