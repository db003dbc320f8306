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

// Package glossary implements a terminology glossary. Terms are stored per
// language pair under their lower-cased source term and are tagged with a
// domain. A Glossary substitutes approved terminology into translated text,
// longest terms first.
package glossary

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/transform"

	"github.com/ianlewis/go-transmem/internal/folding"
	"github.com/ianlewis/go-transmem/internal/store"
)

// DefaultDomain is the domain given to terms added without one.
const DefaultDomain = "general"

var (
	// ErrCorruptStore indicates that the glossary file could not be decoded.
	ErrCorruptStore = errors.New("corrupt glossary")

	// ErrImport indicates that an interchange document could not be read.
	ErrImport = errors.New("import failed")

	// ErrIO indicates that the glossary could not be persisted or that an
	// interchange file could not be read or written.
	ErrIO = errors.New("i/o error")

	// ErrUnsupportedFormat indicates an unknown interchange format.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Options are options for a Glossary.
type Options struct {
	// Folder returns a [transform.Transformer] that folds source terms into
	// keys. It is also applied to text before searching it for terms.
	Folder func() transform.Transformer

	// Logger receives debug logs. Defaults to a disabled logger.
	Logger *zerolog.Logger
}

// DefaultOptions is the default options for a Glossary.
var DefaultOptions = &Options{
	Folder: folding.Lower,
}

// Term is a term to add to the glossary.
type Term struct {
	Source     string
	Target     string
	SourceLang string
	TargetLang string

	// Domain defaults to DefaultDomain.
	Domain string

	// Context is optional free text. Empty means absent.
	Context string
}

// Entry is a stored glossary entry.
type Entry struct {
	SourceLang string
	TargetLang string

	// Key is the folded source term.
	Key string

	// Term is the approved translation.
	Term    string
	Domain  string
	Context string
}

// record is the stored form of an entry.
type record struct {
	Term    string  `json:"term"`
	Domain  string  `json:"domain"`
	Context *string `json:"context"`
}

// Glossary is a terminology glossary. A Glossary is not safe for concurrent
// use.
type Glossary struct {
	path  string
	terms *store.Table[record]

	foldTransformer func() transform.Transformer
	log             zerolog.Logger
}

// Open loads the glossary stored at path. A missing file results in an empty
// glossary that is created on the first write. If path is empty the glossary
// is never persisted.
func Open(path string, options *Options) (*Glossary, error) {
	if options == nil {
		options = DefaultOptions
	}

	g := &Glossary{
		path:            path,
		foldTransformer: DefaultOptions.Folder,
		log:             zerolog.Nop(),
	}
	if options.Folder != nil {
		g.foldTransformer = options.Folder
	}
	if options.Logger != nil {
		g.log = *options.Logger
	}

	if path == "" {
		g.terms = store.NewTable[record]()
		return g, nil
	}

	terms, err := store.ReadFile[record](path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptStore, err)
	}
	g.terms = terms

	g.log.Debug().
		Str("path", path).
		Int("terms", terms.Len()).
		Msg("loaded glossary")

	return g, nil
}

func (g *Glossary) fold(s string) string {
	return folding.String(g.foldTransformer(), s)
}

// Add inserts a term or overwrites the entry with the same languages and
// folded source term. The glossary is persisted before Add returns.
func (g *Glossary) Add(t Term) error {
	g.add(t)
	return g.save()
}

func (g *Glossary) add(t Term) {
	r := record{
		Term:   t.Target,
		Domain: t.Domain,
	}
	if r.Domain == "" {
		r.Domain = DefaultDomain
	}
	if t.Context != "" {
		r.Context = &t.Context
	}
	g.terms.Set(t.SourceLang, t.TargetLang, g.fold(t.Source), r)
}

func (g *Glossary) save() error {
	if g.path == "" {
		return nil
	}
	if err := store.WriteFile(g.path, g.terms); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	g.log.Debug().
		Str("path", g.path).
		Int("terms", g.terms.Len()).
		Msg("saved glossary")
	return nil
}

// Get returns the translation of sourceTerm. If domain is not empty the entry
// must belong to that domain. Entries with an empty translation are not
// returned.
func (g *Glossary) Get(sourceTerm, sourceLang, targetLang, domain string) (string, bool) {
	r, ok := g.terms.Get(sourceLang, targetLang, g.fold(sourceTerm))
	if !ok {
		return "", false
	}
	if domain != "" && r.Domain != domain {
		return "", false
	}
	if r.Term == "" {
		return "", false
	}
	return r.Term, true
}

// Apply substitutes glossary translations into text. Terms are tried longest
// first; each term found in the folded text is replaced in its stored form
// and with its first letter upper-cased. Terms outside domain are left
// alone unless domain is empty.
//
// Matching is by substring so terms may be replaced inside longer words.
func (g *Glossary) Apply(text, sourceLang, targetLang, domain string) string {
	bucket := g.terms.Bucket(sourceLang, targetLang)
	if bucket == nil {
		return text
	}

	keys := bucket.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return utf8.RuneCountInString(keys[i]) > utf8.RuneCountInString(keys[j])
	})

	folded := g.fold(text)
	result := text
	for _, key := range keys {
		if !strings.Contains(folded, key) {
			continue
		}
		translation, ok := g.Get(key, sourceLang, targetLang, domain)
		if !ok {
			continue
		}
		result = strings.ReplaceAll(result, key, translation)
		result = strings.ReplaceAll(result, folding.UpperFirst(key), folding.UpperFirst(translation))
	}
	return result
}

// Domains returns the sorted set of domains in use.
func (g *Glossary) Domains() []string {
	seen := map[string]bool{}
	domains := []string{}
	for _, bucket := range g.terms.Pairs() {
		for _, r := range bucket.All() {
			if !seen[r.Domain] {
				seen[r.Domain] = true
				domains = append(domains, r.Domain)
			}
		}
	}
	slices.Sort(domains)
	return domains
}

// Len returns the number of entries.
func (g *Glossary) Len() int {
	return g.terms.Len()
}

// Entries returns every entry in storage order.
func (g *Glossary) Entries() []Entry {
	entries := make([]Entry, 0, g.terms.Len())
	for pair, bucket := range g.terms.Pairs() {
		for key, r := range bucket.All() {
			e := Entry{
				SourceLang: pair[0],
				TargetLang: pair[1],
				Key:        key,
				Term:       r.Term,
				Domain:     r.Domain,
			}
			if r.Context != nil {
				e.Context = *r.Context
			}
			entries = append(entries, e)
		}
	}
	return entries
}
