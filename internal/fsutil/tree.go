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

// Package fsutil implements the directory tree operations of the publish step:
// removal, recursive copy and content digests.
package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alexandremahdhaoui/csx-stats/pkg/flaterrors"
)

var (
	// ErrSourceMissing is returned by CopyTree when the source is absent or not a directory.
	ErrSourceMissing = errors.New("source directory missing")
	// ErrDestinationExists is returned by CopyTree when the destination is already present.
	ErrDestinationExists = errors.New("destination already exists")

	errCopyingTree   = errors.New("copying directory tree")
	errRemovingTree  = errors.New("removing directory tree")
	errDigestingTree = errors.New("digesting directory tree")
)

// RemoveTree deletes path and everything below it. A missing path is not an error.
func RemoveTree(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return flaterrors.Join(err, errRemovingTree)
	}
	return nil
}

// CopyTree recursively copies the directory src to dst.
//
// dst must not exist; its parent directories are created as needed. A src
// that is itself a symbolic link is followed. Below src, regular files keep
// their permission bits and symbolic links are recreated as links. Other file
// types (sockets, devices) are rejected.
func CopyTree(src, dst string) error {
	root, err := filepath.EvalSymlinks(src)
	if err != nil {
		return flaterrors.Join(err, ErrSourceMissing, errCopyingTree)
	}

	info, err := os.Stat(root)
	if err != nil {
		return flaterrors.Join(err, ErrSourceMissing, errCopyingTree)
	}
	if !info.IsDir() {
		return flaterrors.Join(fmt.Errorf("%s is not a directory", src), ErrSourceMissing, errCopyingTree)
	}

	if _, err := os.Lstat(dst); err == nil {
		return flaterrors.Join(fmt.Errorf("%s is present", dst), ErrDestinationExists, errCopyingTree)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return flaterrors.Join(err, errCopyingTree)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return flaterrors.Join(err, errCopyingTree)
	}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			fi, err := d.Info()
			if err != nil {
				return err
			}
			// Owner write is kept so nested entries can be created.
			return os.MkdirAll(out, fi.Mode().Perm()|0o700)

		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(target, out)

		case d.Type().IsRegular():
			fi, err := d.Info()
			if err != nil {
				return err
			}
			return copyFile(p, out, fi.Mode().Perm())

		default:
			return fmt.Errorf("unsupported file type %s at %s", d.Type(), p)
		}
	})
	if err != nil {
		return flaterrors.Join(err, errCopyingTree)
	}

	return nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// TreeDigest returns a sha256 digest over the relative paths and contents of
// every file below root, together with the number of files hashed.
// Two trees with the same layout and bytes have the same digest regardless of
// timestamps or their location on disk.
func TreeDigest(root string) (string, int, error) {
	h := sha256.New()
	files := 0

	// WalkDir visits entries in lexical order, which makes the digest stable.
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Readlink(p)
			if err != nil {
				return err
			}
			fmt.Fprintf(h, "L %s\x00%s\x00", rel, target)
			files++
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()

		fh := sha256.New()
		if _, err := io.Copy(fh, f); err != nil {
			return err
		}
		fmt.Fprintf(h, "F %s\x00%x\x00", rel, fh.Sum(nil))
		files++
		return nil
	})
	if err != nil {
		return "", 0, flaterrors.Join(err, errDigestingTree)
	}

	return hex.EncodeToString(h.Sum(nil)), files, nil
}
