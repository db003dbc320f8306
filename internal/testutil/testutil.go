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

// Package testutil contains helpers for building interchange fixtures in
// tests.
package testutil

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ianlewis/go-dictzip"
)

// MakeFileOptions are options for MakeTempFile.
type MakeFileOptions struct {
	// Gzip indicates that the file should be compressed with gzip. A ".gz"
	// extension is appended to the name.
	Gzip bool

	// DictZip indicates that the file should be compressed with dictzip. A
	// ".dz" extension is appended to the name.
	DictZip bool
}

func (o *MakeFileOptions) ext() string {
	switch {
	case o == nil:
		return ""
	case o.DictZip:
		return ".dz"
	case o.Gzip:
		return ".gz"
	default:
		return ""
	}
}

// MakeTempFile writes data to a new file named name in a temporary directory
// and returns its path.
func MakeTempFile(t *testing.T, name string, data []byte, opts *MakeFileOptions) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name+opts.ext())
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	switch {
	case opts != nil && opts.DictZip:
		z, err := dictzip.NewWriter(f)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := z.Write(data); err != nil {
			t.Fatal(err)
		}
		if err := z.Close(); err != nil {
			t.Fatal(err)
		}
	case opts != nil && opts.Gzip:
		z := gzip.NewWriter(f)
		if _, err := z.Write(data); err != nil {
			t.Fatal(err)
		}
		if err := z.Close(); err != nil {
			t.Fatal(err)
		}
	default:
		if _, err := f.Write(data); err != nil {
			t.Fatal(err)
		}
	}

	return path
}

// MakeCSV makes a glossary CSV document with the standard header followed by
// rows. Fields are joined with commas without quoting.
func MakeCSV(rows ...[]string) []byte {
	var b strings.Builder
	b.WriteString("source_term,target_term,source_lang,target_lang,domain,context\n")
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Clock returns a clock that starts at start and advances by one second on
// every call.
func Clock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(time.Second)
		return t
	}
}
