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

package transmem_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ianlewis/go-transmem"
	"github.com/ianlewis/go-transmem/glossary"
	"github.com/ianlewis/go-transmem/internal/testutil"
	"github.com/ianlewis/go-transmem/provider"
	"github.com/ianlewis/go-transmem/tm"
)

type fakeProvider struct {
	text     string
	err      error
	requests []provider.Request
}

func (p *fakeProvider) Translate(_ context.Context, req provider.Request) (string, error) {
	p.requests = append(p.requests, req)
	return p.text, p.err
}

func openStores(t *testing.T, dir string) *transmem.Stores {
	t.Helper()
	stores, err := transmem.Open(dir, &transmem.Options{
		Memory: &tm.Options{
			Now: testutil.Clock(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)),
		},
	})
	if err != nil {
		t.Fatalf("transmem.Open: %v", err)
	}
	return stores
}

func TestTranslator_Translate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		memory   [][2]string
		terms    []glossary.Term
		provider *fakeProvider
		req      transmem.Request

		expected         transmem.Result
		expectedRequests int
		expectedMemory   string
	}{
		{
			name:   "memory match",
			memory: [][2]string{{"Hello world", "नमस्ते दुनिया"}},
			provider: &fakeProvider{
				text: "unused",
			},
			req: transmem.Request{
				Request: provider.Request{Text: "hello world!", SourceLang: "en-IN", TargetLang: "hi-IN"},
			},
			expected: transmem.Result{
				Text:   "नमस्ते दुनिया",
				Origin: transmem.OriginMemory,
				Score:  22.0 / 23,
			},
			expectedRequests: 0,
		},
		{
			name:   "provider without domain",
			memory: [][2]string{{"goodbye", "अलविदा"}},
			terms: []glossary.Term{
				{Source: "court", Target: "न्यायालय", SourceLang: "en-IN", TargetLang: "hi-IN"},
			},
			provider: &fakeProvider{
				text: "court अदालत",
			},
			req: transmem.Request{
				Request: provider.Request{Text: "the court", SourceLang: "en-IN", TargetLang: "hi-IN"},
			},
			expected: transmem.Result{
				Text:   "court अदालत",
				Origin: transmem.OriginProvider,
			},
			expectedRequests: 1,
			expectedMemory:   "court अदालत",
		},
		{
			name: "provider with domain",
			terms: []glossary.Term{
				{Source: "court", Target: "न्यायालय", SourceLang: "en-IN", TargetLang: "hi-IN", Domain: "legal"},
			},
			provider: &fakeProvider{
				text: "court अदालत",
			},
			req: transmem.Request{
				Request: provider.Request{Text: "the court", SourceLang: "en-IN", TargetLang: "hi-IN"},
				Domain:  "legal",
			},
			expected: transmem.Result{
				Text:   "न्यायालय अदालत",
				Origin: transmem.OriginProvider,
			},
			expectedRequests: 1,
			expectedMemory:   "न्यायालय अदालत",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			stores := openStores(t, t.TempDir())
			for _, u := range test.memory {
				if err := stores.Memory.Add(u[0], u[1], "en-IN", "hi-IN", ""); err != nil {
					t.Fatalf("Add: %v", err)
				}
			}
			for _, term := range test.terms {
				if err := stores.Glossary.Add(term); err != nil {
					t.Fatalf("Add: %v", err)
				}
			}

			tr := transmem.NewTranslator(stores, test.provider, nil)
			got, err := tr.Translate(context.Background(), test.req)
			if err != nil {
				t.Fatalf("Translate: %v", err)
			}
			if diff := cmp.Diff(test.expected, got); diff != "" {
				t.Errorf("Translate (-want, +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.expectedRequests, len(test.provider.requests)); diff != "" {
				t.Errorf("provider requests (-want, +got):\n%s", diff)
			}

			if test.expectedMemory != "" {
				u, ok := stores.Memory.Get(test.req.Text, test.req.SourceLang, test.req.TargetLang)
				if !ok {
					t.Fatal("translation was not recorded")
				}
				if diff := cmp.Diff(test.expectedMemory, u.TargetText); diff != "" {
					t.Errorf("recorded translation (-want, +got):\n%s", diff)
				}
			}
		})
	}
}

// TestTranslator_Translate_providerError tests that provider failures leave
// the stores alone.
func TestTranslator_Translate_providerError(t *testing.T) {
	t.Parallel()

	stores := openStores(t, t.TempDir())
	p := &fakeProvider{
		err: &provider.StatusError{Code: 401, Body: "invalid key"},
	}

	tr := transmem.NewTranslator(stores, p, nil)
	_, err := tr.Translate(context.Background(), transmem.Request{
		Request: provider.Request{Text: "hello", SourceLang: "en-IN", TargetLang: "hi-IN"},
	})
	if !errors.Is(err, provider.ErrStatus) {
		t.Fatalf("Translate: want: %v, got: %v", provider.ErrStatus, err)
	}
	if got := stores.Memory.Len(); got != 0 {
		t.Fatalf("memory has %d units", got)
	}
}

// TestTranslator_Translate_writeBack tests that a translated text is served
// from memory the second time.
func TestTranslator_Translate_writeBack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stores := openStores(t, dir)
	p := &fakeProvider{text: "नमस्ते"}
	tr := transmem.NewTranslator(stores, p, nil)

	req := transmem.Request{
		Request: provider.Request{Text: "hello", SourceLang: "en-IN", TargetLang: "hi-IN"},
	}
	for range 2 {
		if _, err := tr.Translate(context.Background(), req); err != nil {
			t.Fatalf("Translate: %v", err)
		}
	}

	if diff := cmp.Diff(1, len(p.requests)); diff != "" {
		t.Errorf("provider requests (-want, +got):\n%s", diff)
	}

	reopened := openStores(t, dir)
	if diff := cmp.Diff(stores.Memory.Units(), reopened.Memory.Units()); diff != "" {
		t.Errorf("persisted units (-want, +got):\n%s", diff)
	}
}

func TestTranslator_Translate_threshold(t *testing.T) {
	t.Parallel()

	zero := 0.0
	tests := []struct {
		name      string
		threshold *float64

		expected transmem.Origin
	}{
		{
			name:     "default",
			expected: transmem.OriginProvider,
		},
		{
			name:      "zero",
			threshold: &zero,
			expected:  transmem.OriginMemory,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			stores := openStores(t, t.TempDir())
			if err := stores.Memory.Add("Hello world", "नमस्ते दुनिया", "en-IN", "hi-IN", ""); err != nil {
				t.Fatalf("Add: %v", err)
			}

			tr := transmem.NewTranslator(stores, &fakeProvider{text: "नमस्ते"}, &transmem.TranslatorOptions{
				Threshold: test.threshold,
			})
			got, err := tr.Translate(context.Background(), transmem.Request{
				Request: provider.Request{Text: "hello there", SourceLang: "en-IN", TargetLang: "hi-IN"},
			})
			if err != nil {
				t.Fatalf("Translate: %v", err)
			}
			if diff := cmp.Diff(test.expected, got.Origin); diff != "" {
				t.Errorf("Translate origin (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestDomainChoices(t *testing.T) {
	t.Parallel()

	stores := openStores(t, t.TempDir())
	if diff := cmp.Diff([]string{"general"}, transmem.DomainChoices(stores.Glossary)); diff != "" {
		t.Errorf("DomainChoices (-want, +got):\n%s", diff)
	}

	for _, term := range []glossary.Term{
		{Source: "dose", Target: "खुराक", SourceLang: "en-IN", TargetLang: "hi-IN", Domain: "medical"},
		{Source: "hello", Target: "नमस्ते", SourceLang: "en-IN", TargetLang: "hi-IN"},
		{Source: "court", Target: "अदालत", SourceLang: "en-IN", TargetLang: "hi-IN", Domain: "legal"},
	} {
		if err := stores.Glossary.Add(term); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if diff := cmp.Diff([]string{"general", "legal", "medical"}, transmem.DomainChoices(stores.Glossary)); diff != "" {
		t.Errorf("DomainChoices (-want, +got):\n%s", diff)
	}
}
