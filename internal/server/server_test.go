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

package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bytedance/sonic"
	testrequire "github.com/stretchr/testify/require"

	"github.com/ianlewis/go-transmem"
	"github.com/ianlewis/go-transmem/provider"
	"github.com/ianlewis/go-transmem/tm"
)

type fakeProvider struct {
	calls atomic.Int32
	text  string
	err   error
}

func (p *fakeProvider) Translate(_ context.Context, _ provider.Request) (string, error) {
	p.calls.Add(1)
	return p.text, p.err
}

func newTestServer(t *testing.T, p transmem.Provider) *httptest.Server {
	t.Helper()
	stores, err := transmem.Open(t.TempDir(), nil)
	testrequire.NoError(t, err)

	srv := httptest.NewServer(New(stores, &Options{Provider: p}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, srv.URL+path, r)
	testrequire.NoError(t, err)

	resp, err := srv.Client().Do(req)
	testrequire.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	testrequire.NoError(t, err)

	var got map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		testrequire.NoError(t, sonic.Unmarshal(b, &got), string(b))
	}
	return resp.StatusCode, got
}

func query(kv ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return "?" + v.Encode()
}

func TestServer_memory(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	code, _ := do(t, srv, http.MethodPost, "/v1/tm/units",
		`{"source_text": "hello", "target_text": "नमस्ते", "source_lang": "en-IN", "target_lang": "hi-IN"}`)
	testrequire.Equal(t, http.StatusCreated, code)

	code, got := do(t, srv, http.MethodGet, "/v1/tm/match"+query(
		"text", "Hello", "source_lang", "en-IN", "target_lang", "hi-IN"), "")
	testrequire.Equal(t, http.StatusOK, code)
	testrequire.Equal(t, map[string]any{"text": "नमस्ते", "score": 1.0}, got)

	code, _ = do(t, srv, http.MethodGet, "/v1/tm/match"+query(
		"text", "hello", "source_lang", "en-IN", "target_lang", "hi-IN", "threshold", "1"), "")
	testrequire.Equal(t, http.StatusNotFound, code)

	code, got = do(t, srv, http.MethodGet, "/v1/tm/stats", "")
	testrequire.Equal(t, http.StatusOK, code)
	testrequire.Equal(t, map[string]any{
		"total_pairs":      1.0,
		"language_pairs":   []any{"en-IN->hi-IN"},
		"source_languages": []any{"en-IN"},
		"target_languages": []any{"hi-IN"},
	}, got)
}

func TestServer_glossary(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	code, got := do(t, srv, http.MethodPost, "/v1/glossary/terms",
		`{"source_term": "Hello", "target_term": "bonjour", "source_lang": "en", "target_lang": "fr"}`)
	testrequire.Equal(t, http.StatusCreated, code)
	testrequire.Equal(t, "general", got["domain"])

	code, _ = do(t, srv, http.MethodPost, "/v1/glossary/terms",
		`{"source_term": "court", "target_term": "tribunal", "source_lang": "en", "target_lang": "fr", "domain": "legal"}`)
	testrequire.Equal(t, http.StatusCreated, code)

	code, got = do(t, srv, http.MethodGet, "/v1/glossary/term"+query(
		"term", "HELLO", "source_lang", "en", "target_lang", "fr"), "")
	testrequire.Equal(t, http.StatusOK, code)
	testrequire.Equal(t, map[string]any{"term": "bonjour"}, got)

	code, _ = do(t, srv, http.MethodGet, "/v1/glossary/term"+query(
		"term", "court", "source_lang", "en", "target_lang", "fr", "domain", "general"), "")
	testrequire.Equal(t, http.StatusNotFound, code)

	code, got = do(t, srv, http.MethodPost, "/v1/glossary/apply",
		`{"text": "Hello world", "source_lang": "en", "target_lang": "fr", "domain": "general"}`)
	testrequire.Equal(t, http.StatusOK, code)
	testrequire.Equal(t, map[string]any{"text": "Bonjour world"}, got)

	code, got = do(t, srv, http.MethodGet, "/v1/glossary/domains", "")
	testrequire.Equal(t, http.StatusOK, code)
	testrequire.Equal(t, map[string]any{"domains": []any{"general", "legal"}}, got)
}

func TestServer_translate(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{text: "नमस्ते दुनिया"}
	srv := newTestServer(t, p)

	body := `{"text": "hello world", "source_lang": "en-IN", "target_lang": "hi-IN"}`
	code, got := do(t, srv, http.MethodPost, "/v1/translate", body)
	testrequire.Equal(t, http.StatusOK, code)
	testrequire.Equal(t, map[string]any{"text": "नमस्ते दुनिया", "origin": "provider"}, got)

	code, got = do(t, srv, http.MethodPost, "/v1/translate", body)
	testrequire.Equal(t, http.StatusOK, code)
	testrequire.Equal(t, map[string]any{"text": "नमस्ते दुनिया", "origin": "memory", "score": 1.0}, got)

	testrequire.Equal(t, int32(1), p.calls.Load())
}

func TestServer_translate_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider transmem.Provider
		body     string

		expected int
	}{
		{
			name:     "no provider",
			body:     `{"text": "hello", "source_lang": "en-IN", "target_lang": "hi-IN"}`,
			expected: http.StatusServiceUnavailable,
		},
		{
			name:     "provider status",
			provider: &fakeProvider{err: &provider.StatusError{Code: 403}},
			body:     `{"text": "hello", "source_lang": "en-IN", "target_lang": "hi-IN"}`,
			expected: http.StatusBadGateway,
		},
		{
			name:     "invalid json",
			provider: &fakeProvider{text: "x"},
			body:     `{"text": `,
			expected: http.StatusBadRequest,
		},
		{
			name:     "missing fields",
			provider: &fakeProvider{text: "x"},
			body:     `{"text": "hello"}`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "unknown mode",
			provider: &fakeProvider{text: "x"},
			body:     `{"text": "hello", "source_lang": "en-IN", "target_lang": "hi-IN", "mode": "casual"}`,
			expected: http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, test.provider)
			code, got := do(t, srv, http.MethodPost, "/v1/translate", test.body)
			testrequire.Equal(t, test.expected, code)
			testrequire.NotEmpty(t, got["error"])
		})
	}
}

func TestServer_healthAndMetrics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	code, got := do(t, srv, http.MethodGet, "/healthz", "")
	testrequire.Equal(t, http.StatusOK, code)
	testrequire.Equal(t, map[string]any{"status": "ok"}, got)

	code, _ = do(t, srv, http.MethodPost, "/v1/tm/units",
		`{"source_text": "hello", "target_text": "नमस्ते", "source_lang": "en-IN", "target_lang": "hi-IN"}`)
	testrequire.Equal(t, http.StatusCreated, code)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	testrequire.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	testrequire.NoError(t, err)

	out := string(b)
	testrequire.Contains(t, out, `tmgloss_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	testrequire.Contains(t, out, `tmgloss_http_requests_total{method="POST",route="/v1/tm/units",status="201"} 1`)
	testrequire.Contains(t, out, "tmgloss_memory_units 1")
	testrequire.Contains(t, out, "tmgloss_glossary_entries 0")
}

func TestDefaultThreshold(t *testing.T) {
	t.Parallel()

	stores, err := transmem.Open(t.TempDir(), nil)
	testrequire.NoError(t, err)
	s := New(stores, nil)
	testrequire.InEpsilon(t, tm.DefaultThreshold, s.threshold, 1e-9)

	zero := 0.0
	s = New(stores, &Options{Threshold: &zero})
	testrequire.Zero(t, s.threshold)
}
