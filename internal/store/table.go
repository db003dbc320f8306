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

// Package store implements the in-memory layout shared by the translation
// memory and the glossary, and its on-disk JSON representation.
//
// Both stores are nested maps keyed by source language, then target language,
// then an entry key. Every level remembers insertion order so that scans,
// exports and the persisted file are stable across runs.
package store

import "iter"

// Map is a string keyed map that iterates in insertion order. Setting an
// existing key replaces its value but keeps its position.
type Map[V any] struct {
	keys   []string
	values map[string]V
}

// NewMap returns an empty Map.
func NewMap[V any]() *Map[V] {
	return &Map[V]{
		values: map[string]V{},
	}
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set stores v under key.
func (m *Map[V]) Set(key string, v V) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Len returns the number of keys.
func (m *Map[V]) Len() int {
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Map[V]) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// All iterates over key/value pairs in insertion order.
func (m *Map[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Table is the three level source language -> target language -> key layout.
type Table[V any] struct {
	langs *Map[*Map[*Map[V]]]
}

// NewTable returns an empty Table.
func NewTable[V any]() *Table[V] {
	return &Table[V]{
		langs: NewMap[*Map[*Map[V]]](),
	}
}

// Bucket returns the entries for a language pair, or nil if none were ever
// added.
func (t *Table[V]) Bucket(srcLang, tgtLang string) *Map[V] {
	targets, ok := t.langs.Get(srcLang)
	if !ok {
		return nil
	}
	b, _ := targets.Get(tgtLang)
	return b
}

// Get returns a single entry.
func (t *Table[V]) Get(srcLang, tgtLang, key string) (V, bool) {
	b := t.Bucket(srcLang, tgtLang)
	if b == nil {
		var zero V
		return zero, false
	}
	return b.Get(key)
}

// Set adds or replaces a single entry, creating intermediate levels as
// needed.
func (t *Table[V]) Set(srcLang, tgtLang, key string, v V) {
	targets, ok := t.langs.Get(srcLang)
	if !ok {
		targets = NewMap[*Map[V]]()
		t.langs.Set(srcLang, targets)
	}
	b, ok := targets.Get(tgtLang)
	if !ok {
		b = NewMap[V]()
		targets.Set(tgtLang, b)
	}
	b.Set(key, v)
}

// Pairs iterates over each language pair and its bucket in insertion order.
func (t *Table[V]) Pairs() iter.Seq2[[2]string, *Map[V]] {
	return func(yield func([2]string, *Map[V]) bool) {
		for src, targets := range t.langs.All() {
			for tgt, b := range targets.All() {
				if !yield([2]string{src, tgt}, b) {
					return
				}
			}
		}
	}
}

// Len returns the total number of entries across all buckets.
func (t *Table[V]) Len() int {
	n := 0
	for _, b := range t.Pairs() {
		n += b.Len()
	}
	return n
}
