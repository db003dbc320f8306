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

// Package tm implements a translation memory. A Memory stores translation
// units keyed by source language, target language and source text, and
// retrieves them by fuzzy matching on the source text. Every change is
// written through to a JSON file.
package tm

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/transform"

	"github.com/ianlewis/go-transmem/internal/folding"
	"github.com/ianlewis/go-transmem/internal/similarity"
	"github.com/ianlewis/go-transmem/internal/store"
)

var (
	// ErrCorruptStore indicates that the memory file could not be decoded.
	ErrCorruptStore = errors.New("corrupt translation memory")

	// ErrImport indicates that an interchange document could not be parsed.
	ErrImport = errors.New("import failed")

	// ErrIO indicates that the memory could not be persisted or that an
	// interchange file could not be read or written.
	ErrIO = errors.New("i/o error")
)

// DefaultThreshold is the similarity a stored unit must exceed to be returned
// by FindMatch in the translation pipeline.
const DefaultThreshold = 0.8

// Options are options for a Memory.
type Options struct {
	// Folder returns a [transform.Transformer] that folds source text before
	// fuzzy matching.
	Folder func() transform.Transformer

	// Now returns the time recorded on added units.
	Now func() time.Time

	// SourceLang is the srclang declared in exported TMX headers.
	SourceLang string

	// ToolVersion is the creationtoolversion declared in exported TMX
	// headers.
	ToolVersion string

	// Logger receives debug logs. Defaults to a disabled logger.
	Logger *zerolog.Logger
}

// DefaultOptions is the default options for a Memory.
var DefaultOptions = &Options{
	Folder:      folding.Lower,
	Now:         time.Now,
	SourceLang:  "en-IN",
	ToolVersion: "devel",
}

// Unit is a translation unit.
type Unit struct {
	SourceLang string
	TargetLang string
	SourceText string
	TargetText string

	// Context is optional free text. Empty means absent.
	Context string

	// Timestamp is when the unit was last written. It is zero if the stored
	// value could not be parsed.
	Timestamp time.Time
}

// Match is the result of a fuzzy lookup.
type Match struct {
	// Text is the stored target text.
	Text string

	// Score is the similarity between the query and the stored source text.
	Score float64
}

// Statistics summarizes the contents of a Memory.
type Statistics struct {
	TotalPairs      int      `json:"total_pairs"`
	LanguagePairs   []string `json:"language_pairs"`
	SourceLanguages []string `json:"source_languages"`
	TargetLanguages []string `json:"target_languages"`
}

// record is the stored form of a unit.
type record struct {
	Text      string  `json:"text"`
	Context   *string `json:"context"`
	Timestamp string  `json:"timestamp"`
}

// timestampLayouts are tried in order when reading stored timestamps. The
// second accepts timestamps without a zone offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Memory is a translation memory. A Memory is not safe for concurrent use.
type Memory struct {
	path  string
	units *store.Table[record]

	foldTransformer func() transform.Transformer
	now             func() time.Time
	srcLang         string
	toolVersion     string
	log             zerolog.Logger
}

// Open loads the translation memory stored at path. A missing file results
// in an empty memory that is created on the first write. If path is empty the
// memory is never persisted.
func Open(path string, options *Options) (*Memory, error) {
	if options == nil {
		options = DefaultOptions
	}

	m := &Memory{
		path:            path,
		foldTransformer: DefaultOptions.Folder,
		now:             DefaultOptions.Now,
		srcLang:         DefaultOptions.SourceLang,
		toolVersion:     DefaultOptions.ToolVersion,
		log:             zerolog.Nop(),
	}
	if options.Folder != nil {
		m.foldTransformer = options.Folder
	}
	if options.Now != nil {
		m.now = options.Now
	}
	if options.SourceLang != "" {
		m.srcLang = options.SourceLang
	}
	if options.ToolVersion != "" {
		m.toolVersion = options.ToolVersion
	}
	if options.Logger != nil {
		m.log = *options.Logger
	}

	if path == "" {
		m.units = store.NewTable[record]()
		return m, nil
	}

	units, err := store.ReadFile[record](path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptStore, err)
	}
	m.units = units

	m.log.Debug().
		Str("path", path).
		Int("units", units.Len()).
		Msg("loaded translation memory")

	return m, nil
}

// Add inserts a translation unit or overwrites the unit with the same source
// language, target language and source text. The memory is persisted before
// Add returns.
func (m *Memory) Add(sourceText, targetText, sourceLang, targetLang, context string) error {
	m.add(sourceText, targetText, sourceLang, targetLang, context)
	return m.save()
}

func (m *Memory) add(sourceText, targetText, sourceLang, targetLang, context string) {
	r := record{
		Text:      targetText,
		Timestamp: m.now().Format(time.RFC3339Nano),
	}
	if context != "" {
		r.Context = &context
	}
	m.units.Set(sourceLang, targetLang, sourceText, r)
}

func (m *Memory) save() error {
	if m.path == "" {
		return nil
	}
	if err := store.WriteFile(m.path, m.units); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	m.log.Debug().
		Str("path", m.path).
		Int("units", m.units.Len()).
		Msg("saved translation memory")
	return nil
}

func (m *Memory) fold(s string) string {
	return folding.String(m.foldTransformer(), s)
}

// FindMatch returns the stored unit whose folded source text is most similar
// to the folded sourceText. Only scores strictly greater than threshold are
// considered. When several units share the best score the earliest added
// wins.
func (m *Memory) FindMatch(sourceText, sourceLang, targetLang string, threshold float64) (Match, bool) {
	bucket := m.units.Bucket(sourceLang, targetLang)
	if bucket == nil {
		return Match{}, false
	}

	query := m.fold(sourceText)
	queryLen := len([]rune(query))

	var best Match
	found := false
	for stored, r := range bucket.All() {
		folded := m.fold(stored)

		// Skip units that cannot score high enough.
		bound := similarity.Bound(queryLen, len([]rune(folded)))
		if bound <= threshold || bound <= best.Score {
			continue
		}

		score := similarity.Ratio(query, folded)
		if score > threshold && score > best.Score {
			best = Match{
				Text:  r.Text,
				Score: score,
			}
			found = true
		}
	}

	// A stored empty translation is not a usable match.
	if !found || best.Text == "" {
		return Match{}, false
	}
	return best, true
}

// Get returns the unit stored under the exact key.
func (m *Memory) Get(sourceText, sourceLang, targetLang string) (Unit, bool) {
	r, ok := m.units.Get(sourceLang, targetLang, sourceText)
	if !ok {
		return Unit{}, false
	}
	return newUnit(sourceLang, targetLang, sourceText, r), true
}

// Len returns the number of stored units.
func (m *Memory) Len() int {
	return m.units.Len()
}

// Units returns every unit in storage order.
func (m *Memory) Units() []Unit {
	units := make([]Unit, 0, m.units.Len())
	for pair, bucket := range m.units.Pairs() {
		for source, r := range bucket.All() {
			units = append(units, newUnit(pair[0], pair[1], source, r))
		}
	}
	return units
}

func newUnit(sourceLang, targetLang, sourceText string, r record) Unit {
	u := Unit{
		SourceLang: sourceLang,
		TargetLang: targetLang,
		SourceText: sourceText,
		TargetText: r.Text,
		Timestamp:  parseTimestamp(r.Timestamp),
	}
	if r.Context != nil {
		u.Context = *r.Context
	}
	return u
}

// Statistics returns a summary of the memory's contents.
func (m *Memory) Statistics() Statistics {
	stats := Statistics{
		LanguagePairs:   []string{},
		SourceLanguages: []string{},
		TargetLanguages: []string{},
	}
	seenSrc := map[string]bool{}
	seenTgt := map[string]bool{}
	for pair, bucket := range m.units.Pairs() {
		src, tgt := pair[0], pair[1]
		if !seenSrc[src] {
			seenSrc[src] = true
			stats.SourceLanguages = append(stats.SourceLanguages, src)
		}
		if !seenTgt[tgt] {
			seenTgt[tgt] = true
			stats.TargetLanguages = append(stats.TargetLanguages, tgt)
		}
		stats.TotalPairs += bucket.Len()
		stats.LanguagePairs = append(stats.LanguagePairs, src+"->"+tgt)
	}
	return stats
}
