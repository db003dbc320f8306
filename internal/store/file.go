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
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// ErrCorrupt indicates that a persisted store could not be decoded.
var ErrCorrupt = errors.New("corrupt store")

var (
	errInvalidJSON = errors.New("invalid JSON")
	errNotObject   = errors.New("not an object")
)

var prettyOptions = &pretty.Options{
	Width:  80,
	Indent: "  ",
}

// ReadFile reads a Table from the file at path. A missing file yields an empty
// Table. Decoding failures wrap [ErrCorrupt].
func ReadFile[V any](path string) (*Table[V], error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewTable[V](), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	t, err := Decode[V](data)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrCorrupt, path, err)
	}
	return t, nil
}

// Decode decodes a Table from JSON, keeping the document order of keys at
// every level. Leaf values are decoded into V.
func Decode[V any](data []byte) (*Table[V], error) {
	if !gjson.ValidBytes(data) {
		return nil, errInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("root: %w", errNotObject)
	}

	t := NewTable[V]()
	var err error
	root.ForEach(func(src, targets gjson.Result) bool {
		if !targets.IsObject() {
			err = fmt.Errorf("%q: %w", src.String(), errNotObject)
			return false
		}
		targets.ForEach(func(tgt, entries gjson.Result) bool {
			if !entries.IsObject() {
				err = fmt.Errorf("%q/%q: %w", src.String(), tgt.String(), errNotObject)
				return false
			}
			entries.ForEach(func(key, value gjson.Result) bool {
				if !value.IsObject() {
					err = fmt.Errorf("%q/%q/%q: %w", src.String(), tgt.String(), key.String(), errNotObject)
					return false
				}
				var v V
				if uerr := sonic.UnmarshalString(value.Raw, &v); uerr != nil {
					err = fmt.Errorf("%q/%q/%q: %w", src.String(), tgt.String(), key.String(), uerr)
					return false
				}
				t.Set(src.String(), tgt.String(), key.String(), v)
				return true
			})
			return err == nil
		})
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Encode encodes the Table as indented JSON in insertion order.
func Encode[V any](t *Table[V]) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	firstSrc := true
	for src, targets := range t.langs.All() {
		if err := writeKey(&buf, src, &firstSrc); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		firstTgt := true
		for tgt, b := range targets.All() {
			if err := writeKey(&buf, tgt, &firstTgt); err != nil {
				return nil, err
			}
			buf.WriteByte('{')
			firstKey := true
			for key, v := range b.All() {
				if err := writeKey(&buf, key, &firstKey); err != nil {
					return nil, err
				}
				leaf, err := sonic.Marshal(v)
				if err != nil {
					return nil, fmt.Errorf("encoding %q: %w", key, err)
				}
				buf.Write(leaf)
			}
			buf.WriteByte('}')
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')

	return pretty.PrettyOptions(buf.Bytes(), prettyOptions), nil
}

func writeKey(buf *bytes.Buffer, key string, first *bool) error {
	if !*first {
		buf.WriteByte(',')
	}
	*first = false
	k, err := sonic.Marshal(key)
	if err != nil {
		return fmt.Errorf("encoding key %q: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	return nil
}

// WriteFile encodes the Table and replaces the file at path with the result.
// The data is written to a temporary file in the same directory first so that
// a failed write never leaves a truncated store behind.
func WriteFile[V any](path string, t *Table[V]) error {
	data, err := Encode(t)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %q: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %q: %w", tmp, err)
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		return fmt.Errorf("writing %q: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %q: %w", path, err)
	}
	return nil
}
