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

// Package server implements the tmgloss HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"github.com/ianlewis/go-transmem"
	"github.com/ianlewis/go-transmem/glossary"
	"github.com/ianlewis/go-transmem/provider"
	"github.com/ianlewis/go-transmem/tm"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

var (
	errBadRequest = errors.New("bad request")
	errNoProvider = errors.New("no translation provider configured")
)

// Options are options for a Server.
type Options struct {
	// Provider translates text. The translate route responds with 503
	// Service Unavailable if nil.
	Provider transmem.Provider

	// Threshold is the translation memory match threshold. Defaults to
	// tm.DefaultThreshold if nil.
	Threshold *float64

	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
}

// Server serves the HTTP API. Store access is serialized.
type Server struct {
	stores     *transmem.Stores
	translator *transmem.Translator
	threshold  float64

	// mu guards stores.
	mu sync.Mutex

	// group collapses identical concurrent translations.
	group singleflight.Group

	metrics *metrics
	log     zerolog.Logger
	mux     *http.ServeMux
}

// New returns a new Server over the stores.
func New(stores *transmem.Stores, options *Options) *Server {
	if options == nil {
		options = &Options{}
	}

	s := &Server{
		stores:    stores,
		threshold: tm.DefaultThreshold,
		log:       zerolog.Nop(),
		mux:       http.NewServeMux(),
	}
	if options.Threshold != nil {
		s.threshold = *options.Threshold
	}
	if options.Logger != nil {
		s.log = *options.Logger
	}
	if options.Provider != nil {
		s.translator = transmem.NewTranslator(stores, options.Provider, &transmem.TranslatorOptions{
			Threshold: &s.threshold,
			Locker:    &s.mu,
			Logger:    options.Logger,
		})
	}

	s.metrics = newMetrics(
		func() float64 {
			s.mu.Lock()
			defer s.mu.Unlock()
			return float64(s.stores.Memory.Len())
		},
		func() float64 {
			s.mu.Lock()
			defer s.mu.Unlock()
			return float64(s.stores.Glossary.Len())
		},
	)

	s.handle("POST /v1/translate", s.translate)
	s.handle("GET /v1/tm/match", s.memoryMatch)
	s.handle("POST /v1/tm/units", s.memoryAdd)
	s.handle("GET /v1/tm/stats", s.memoryStats)
	s.handle("GET /v1/glossary/term", s.glossaryGet)
	s.handle("POST /v1/glossary/terms", s.glossaryAdd)
	s.handle("POST /v1/glossary/apply", s.glossaryApply)
	s.handle("GET /v1/glossary/domains", s.glossaryDomains)
	s.handle("GET /healthz", s.health)
	s.mux.Handle("GET /metrics", s.metrics.handler())

	return s
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	route := pattern[strings.IndexByte(pattern, ' ')+1:]
	s.mux.Handle(pattern, s.metrics.instrument(route, h))
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type translateRequest struct {
	Text         string `json:"text"`
	SourceLang   string `json:"source_lang"`
	TargetLang   string `json:"target_lang"`
	Mode         string `json:"mode"`
	OutputScript string `json:"output_script"`
	Domain       string `json:"domain"`
}

func (s *Server) translate(w http.ResponseWriter, r *http.Request) {
	if s.translator == nil {
		s.writeError(w, r, errNoProvider)
		return
	}

	var req translateRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := require("text", req.Text, "source_lang", req.SourceLang, "target_lang", req.TargetLang); err != nil {
		s.writeError(w, r, err)
		return
	}
	mode, err := provider.ParseMode(req.Mode)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	key := strings.Join([]string{req.SourceLang, req.TargetLang, string(mode), req.OutputScript, req.Domain, req.Text}, "\x00")
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		// Callers share the result so the first caller's cancellation is
		// ignored.
		ctx := context.WithoutCancel(r.Context())
		return s.translator.Translate(ctx, transmem.Request{
			Request: provider.Request{
				Text:         req.Text,
				SourceLang:   req.SourceLang,
				TargetLang:   req.TargetLang,
				Mode:         mode,
				OutputScript: req.OutputScript,
			},
			Domain: req.Domain,
		})
	})
	if err != nil {
		s.metrics.translations.WithLabelValues("error").Inc()
		s.writeError(w, r, err)
		return
	}

	res, _ := v.(transmem.Result)
	s.metrics.translations.WithLabelValues(string(res.Origin)).Inc()
	s.log.Debug().
		Str("origin", string(res.Origin)).
		Bool("shared", shared).
		Msg("translated")
	s.writeJSON(w, http.StatusOK, res)
}

type matchResponse struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

func (s *Server) memoryMatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text, src, tgt := q.Get("text"), q.Get("source_lang"), q.Get("target_lang")
	if err := require("text", text, "source_lang", src, "target_lang", tgt); err != nil {
		s.writeError(w, r, err)
		return
	}
	threshold := s.threshold
	if v := q.Get("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
			return
		}
		threshold = f
	}

	s.mu.Lock()
	m, ok := s.stores.Memory.FindMatch(text, src, tgt, threshold)
	s.mu.Unlock()
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no match"})
		return
	}
	s.writeJSON(w, http.StatusOK, matchResponse{Text: m.Text, Score: m.Score})
}

type unitRequest struct {
	SourceText string `json:"source_text"`
	TargetText string `json:"target_text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Context    string `json:"context"`
}

func (s *Server) memoryAdd(w http.ResponseWriter, r *http.Request) {
	var req unitRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := require("source_text", req.SourceText, "source_lang", req.SourceLang, "target_lang", req.TargetLang); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	err := s.stores.Memory.Add(req.SourceText, req.TargetText, req.SourceLang, req.TargetLang, req.Context)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, req)
}

func (s *Server) memoryStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	stats := s.stores.Memory.Statistics()
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, stats)
}

type termResponse struct {
	Term string `json:"term"`
}

func (s *Server) glossaryGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term, src, tgt := q.Get("term"), q.Get("source_lang"), q.Get("target_lang")
	if err := require("term", term, "source_lang", src, "target_lang", tgt); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	t, ok := s.stores.Glossary.Get(term, src, tgt, q.Get("domain"))
	s.mu.Unlock()
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no term"})
		return
	}
	s.writeJSON(w, http.StatusOK, termResponse{Term: t})
}

type termRequest struct {
	SourceTerm string `json:"source_term"`
	TargetTerm string `json:"target_term"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Domain     string `json:"domain"`
	Context    string `json:"context"`
}

func (s *Server) glossaryAdd(w http.ResponseWriter, r *http.Request) {
	var req termRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := require("source_term", req.SourceTerm, "source_lang", req.SourceLang, "target_lang", req.TargetLang); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	err := s.stores.Glossary.Add(glossary.Term{
		Source:     req.SourceTerm,
		Target:     req.TargetTerm,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Domain:     req.Domain,
		Context:    req.Context,
	})
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Domain == "" {
		req.Domain = glossary.DefaultDomain
	}
	s.writeJSON(w, http.StatusCreated, req)
}

type applyRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Domain     string `json:"domain"`
}

type applyResponse struct {
	Text string `json:"text"`
}

func (s *Server) glossaryApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := require("source_lang", req.SourceLang, "target_lang", req.TargetLang); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	text := s.stores.Glossary.Apply(req.Text, req.SourceLang, req.TargetLang, req.Domain)
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, applyResponse{Text: text})
}

type domainsResponse struct {
	Domains []string `json:"domains"`
}

func (s *Server) glossaryDomains(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	domains := transmem.DomainChoices(s.stores.Glossary)
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, domainsResponse{Domains: domains})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

// require checks that the named values in pairs of name, value are not
// empty.
func require(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", errBadRequest, strings.Join(missing, ", "))
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errNoProvider),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	case errors.Is(err, provider.ErrStatus),
		errors.Is(err, provider.ErrEmptyTranslation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := sonic.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Msg("encoding response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		s.log.Debug().Err(err).Msg("writing response")
	}
}
