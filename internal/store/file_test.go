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

package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type leaf struct {
	Text    string  `json:"text"`
	Context *string `json:"context"`
}

type row struct {
	Src, Tgt, Key, Text string
}

func rows(t *Table[leaf]) []row {
	var out []row
	for pair, b := range t.Pairs() {
		for k, v := range b.All() {
			out = append(out, row{pair[0], pair[1], k, v.Text})
		}
	}
	return out
}

func TestTable_Set(t *testing.T) {
	t.Parallel()

	tbl := NewTable[leaf]()
	tbl.Set("en", "fr", "zebra", leaf{Text: "zèbre"})
	tbl.Set("en", "de", "apple", leaf{Text: "Apfel"})
	tbl.Set("en", "fr", "apple", leaf{Text: "pomme"})
	tbl.Set("en", "fr", "zebra", leaf{Text: "ZÈBRE"})

	want := []row{
		{"en", "fr", "zebra", "ZÈBRE"},
		{"en", "fr", "apple", "pomme"},
		{"en", "de", "apple", "Apfel"},
	}
	if diff := cmp.Diff(want, rows(tbl)); diff != "" {
		t.Fatalf("rows (-want, +got):\n%s", diff)
	}

	if got := tbl.Len(); got != 3 {
		t.Fatalf("Len: want: 3, got: %d", got)
	}
	if b := tbl.Bucket("fr", "en"); b != nil {
		t.Fatalf("Bucket: want: nil, got: %v", b.Keys())
	}
	if _, ok := tbl.Get("en", "it", "apple"); ok {
		t.Fatal("Get: unexpected entry for missing bucket")
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	ctx := "greeting"
	tbl := NewTable[leaf]()
	tbl.Set("hi-IN", "en-IN", "नमस्ते", leaf{Text: "hello", Context: &ctx})
	tbl.Set("en-IN", "hi-IN", "b", leaf{Text: "<b>"})
	tbl.Set("en-IN", "hi-IN", "a", leaf{Text: "\"quoted\""})

	data, err := Encode(tbl)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode[leaf](data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if diff := cmp.Diff(rows(tbl), rows(got)); diff != "" {
		t.Fatalf("round trip (-want, +got):\n%s", diff)
	}
	v, _ := got.Get("hi-IN", "en-IN", "नमस्ते")
	if v.Context == nil || *v.Context != ctx {
		t.Fatalf("context: want: %q, got: %v", ctx, v.Context)
	}
	v, _ = got.Get("en-IN", "hi-IN", "a")
	if v.Context != nil {
		t.Fatalf("context: want: nil, got: %q", *v.Context)
	}
}

func TestDecode_corrupt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{
			name: "empty",
			data: "",
		},
		{
			name: "truncated",
			data: `{"en": {"fr": {"a": {"text": "b"}`,
		},
		{
			name: "root array",
			data: `[]`,
		},
		{
			name: "target not object",
			data: `{"en": "fr"}`,
		},
		{
			name: "bucket not object",
			data: `{"en": {"fr": []}}`,
		},
		{
			name: "leaf not object",
			data: `{"en": {"fr": {"a": "b"}}}`,
		},
		{
			name: "leaf wrong type",
			data: `{"en": {"fr": {"a": {"text": 1}}}}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Decode[leaf]([]byte(test.data)); err == nil {
				t.Fatal("Decode: expected failure")
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		tbl, err := ReadFile[leaf](filepath.Join(t.TempDir(), "missing.json"))
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if got := tbl.Len(); got != 0 {
			t.Fatalf("Len: want: 0, got: %d", got)
		}
	})

	t.Run("corrupt", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "store.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := ReadFile[leaf](path)
		if !errors.Is(err, ErrCorrupt) {
			t.Fatalf("ReadFile: want: %v, got: %v", ErrCorrupt, err)
		}
	})

	t.Run("written", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "store.json")
		tbl := NewTable[leaf]()
		tbl.Set("en", "fr", "hello", leaf{Text: "bonjour"})
		if err := WriteFile(path, tbl); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		got, err := ReadFile[leaf](path)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if diff := cmp.Diff(rows(tbl), rows(got)); diff != "" {
			t.Fatalf("ReadFile (-want, +got):\n%s", diff)
		}

		entries, err := os.ReadDir(filepath.Dir(path))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Fatalf("temporary files left behind: %v", entries)
		}
	})
}
