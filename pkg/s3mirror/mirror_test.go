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

package s3mirror

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
	failKey string
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(params.Key)
	if key == f.failKey {
		return nil, errors.New("access denied")
	}

	b, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string]string{}
	}
	f.objects[aws.ToString(params.Bucket)+"/"+key] = string(b)
	return &s3.PutObjectOutput{}, nil
}

func writeStats(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "home"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "summary"), []byte("s"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "home", "authors"), []byte("a"), 0o644))
	return root
}

func TestMirror_UploadTree(t *testing.T) {
	fake := &fakeS3{}
	m := newWithClient(fake, "stats-bucket", "/csx/prod/")

	n, err := m.UploadTree(context.Background(), writeStats(t))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	keys := make([]string, 0, len(fake.objects))
	for k := range fake.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"stats-bucket/csx/prod/home/authors", "stats-bucket/csx/prod/summary"}, keys)
	assert.Equal(t, "a", fake.objects["stats-bucket/csx/prod/home/authors"])
	assert.Equal(t, "s3://stats-bucket/csx/prod", m.Location())
}

func TestMirror_UploadTreeFailure(t *testing.T) {
	fake := &fakeS3{failKey: "summary"}
	m := newWithClient(fake, "b", "")

	_, err := m.UploadTree(context.Background(), writeStats(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, errMirroring)
	assert.Equal(t, "s3://b", m.Location())
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err, "bucket is required")

	_, err = New(context.Background(), Options{Bucket: "b", Endpoint: "localhost:9000"})
	assert.Error(t, err, "endpoint without scheme")
}

func TestNew_StaticCredentials(t *testing.T) {
	m, err := New(context.Background(), Options{
		Bucket:          "b",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
	})
	require.NoError(t, err)
	assert.Equal(t, "s3://b", m.Location())
}

func TestNormalizeRegion(t *testing.T) {
	assert.Equal(t, "us-east-1", normalizeRegion(""))
	assert.Equal(t, "us-east-1", normalizeRegion("  "))
	assert.Equal(t, "eu-central-1", normalizeRegion("eu-central-1"))
}
