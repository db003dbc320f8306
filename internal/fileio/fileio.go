// Copyright 2026 Ian Lewis
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

// Package fileio opens and creates interchange files, compressing and
// decompressing them according to their extension. Files ending in ".gz" use
// gzip. Files ending in ".dz" use dictzip, which any gzip reader can read.
package fileio

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ianlewis/go-dictzip"
)

// Compression is the compression applied to a file.
type Compression int

const (
	// None is an uncompressed file.
	None Compression = iota

	// Gzip is a gzip compressed file.
	Gzip

	// DictZip is a dictzip compressed file.
	DictZip
)

// CompressionFor returns the compression implied by the path's extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return Gzip
	case ".dz":
		return DictZip
	default:
		return None
	}
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens the file at path for reading.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}

	if CompressionFor(path) == None {
		return f, nil
	}

	z, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	return &readCloser{
		Reader:  z,
		closers: []io.Closer{z, f},
	}, nil
}

type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Create creates or truncates the file at path for writing. The returned
// writer must be closed to flush any compressed data.
func Create(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %q: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %q: %w", path, err)
	}

	switch CompressionFor(path) {
	case Gzip:
		z := gzip.NewWriter(f)
		return &writeCloser{
			Writer:  z,
			closers: []io.Closer{z, f},
		}, nil
	case DictZip:
		z, err := dictzip.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("creating %q: %w", path, err)
		}
		return &writeCloser{
			Writer:  z,
			closers: []io.Closer{z, f},
		}, nil
	default:
		return f, nil
	}
}
