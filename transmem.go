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

package transmem

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ianlewis/go-transmem/glossary"
	"github.com/ianlewis/go-transmem/provider"
	"github.com/ianlewis/go-transmem/tm"
)

const (
	memoryDir    = "tm"
	memoryFile   = "translation_memory.json"
	glossaryDir  = "glossaries"
	glossaryFile = "glossary.json"
)

// MemoryPath returns the translation memory file in the data directory.
func MemoryPath(dir string) string {
	return filepath.Join(dir, memoryDir, memoryFile)
}

// GlossaryPath returns the glossary file in the data directory.
func GlossaryPath(dir string) string {
	return filepath.Join(dir, glossaryDir, glossaryFile)
}

// MemoryExportPath returns the default TMX export path in the data directory.
func MemoryExportPath(dir string) string {
	return filepath.Join(dir, memoryDir, "export.tmx")
}

// GlossaryExportPath returns the default CSV export path in the data
// directory.
func GlossaryExportPath(dir string) string {
	return filepath.Join(dir, glossaryDir, "export.csv")
}

// Options are options for opening the stores.
type Options struct {
	Memory   *tm.Options
	Glossary *glossary.Options
}

// Stores are the stores in a data directory.
type Stores struct {
	Memory   *tm.Memory
	Glossary *glossary.Glossary
}

// Open opens the stores in the data directory dir.
func Open(dir string, options *Options) (*Stores, error) {
	if options == nil {
		options = &Options{}
	}

	m, err := tm.Open(MemoryPath(dir), options.Memory)
	if err != nil {
		return nil, fmt.Errorf("opening translation memory: %w", err)
	}
	g, err := glossary.Open(GlossaryPath(dir), options.Glossary)
	if err != nil {
		return nil, fmt.Errorf("opening glossary: %w", err)
	}

	return &Stores{
		Memory:   m,
		Glossary: g,
	}, nil
}

// Provider translates text.
type Provider interface {
	Translate(ctx context.Context, req provider.Request) (string, error)
}

// Origin is where a translation came from.
type Origin string

const (
	// OriginMemory is a translation memory match.
	OriginMemory Origin = "memory"

	// OriginProvider is a provider translation.
	OriginProvider Origin = "provider"
)

// Request is a translation request.
type Request struct {
	provider.Request

	// Domain selects glossary terms to apply to provider output. The
	// glossary is not applied if Domain is empty.
	Domain string
}

// Result is a translation.
type Result struct {
	Text   string `json:"text"`
	Origin Origin `json:"origin"`

	// Score is the similarity of the translation memory match.
	Score float64 `json:"score,omitempty"`
}

// TranslatorOptions are options for a Translator.
type TranslatorOptions struct {
	// Threshold is the similarity a translation memory match must exceed.
	// tm.DefaultThreshold is used if nil. Zero accepts any match with a
	// positive score.
	Threshold *float64

	// Locker guards store access. Store locks are not held while the
	// provider is called.
	Locker sync.Locker

	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
}

// DefaultTranslatorOptions is the default options for a Translator.
var DefaultTranslatorOptions = &TranslatorOptions{}

// Translator translates text using the stores and a provider.
type Translator struct {
	stores    *Stores
	provider  Provider
	threshold float64
	mu        sync.Locker
	log       zerolog.Logger
}

// NewTranslator returns a new Translator.
func NewTranslator(stores *Stores, p Provider, options *TranslatorOptions) *Translator {
	if options == nil {
		options = DefaultTranslatorOptions
	}

	t := &Translator{
		stores:    stores,
		provider:  p,
		threshold: tm.DefaultThreshold,
		mu:        options.Locker,
		log:       zerolog.Nop(),
	}
	if options.Threshold != nil {
		t.threshold = *options.Threshold
	}
	if t.mu == nil {
		t.mu = &sync.Mutex{}
	}
	if options.Logger != nil {
		t.log = *options.Logger
	}
	return t
}

// Translate translates req.Text. A translation memory match is returned
// as is. Otherwise the provider's translation has the glossary applied for
// req.Domain and is added to the translation memory. Provider errors are
// returned without touching the stores.
func (t *Translator) Translate(ctx context.Context, req Request) (Result, error) {
	t.mu.Lock()
	match, ok := t.stores.Memory.FindMatch(req.Text, req.SourceLang, req.TargetLang, t.threshold)
	t.mu.Unlock()
	if ok {
		t.log.Debug().
			Float64("score", match.Score).
			Msg("translation memory match")
		return Result{
			Text:   match.Text,
			Origin: OriginMemory,
			Score:  match.Score,
		}, nil
	}

	text, err := t.provider.Translate(ctx, req.Request)
	if err != nil {
		return Result{}, fmt.Errorf("translating: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if req.Domain != "" {
		text = t.stores.Glossary.Apply(text, req.SourceLang, req.TargetLang, req.Domain)
	}
	if err := t.stores.Memory.Add(req.Text, text, req.SourceLang, req.TargetLang, ""); err != nil {
		return Result{}, fmt.Errorf("recording translation: %w", err)
	}

	return Result{
		Text:   text,
		Origin: OriginProvider,
	}, nil
}

// DomainChoices returns the glossary's domains with glossary.DefaultDomain
// first. The default domain is always present.
func DomainChoices(g *glossary.Glossary) []string {
	choices := []string{glossary.DefaultDomain}
	for _, d := range g.Domains() {
		if d != glossary.DefaultDomain {
			choices = append(choices, d)
		}
	}
	return choices
}
