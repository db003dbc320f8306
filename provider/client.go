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

package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// DefaultEndpoint is the default translation endpoint.
const DefaultEndpoint = "https://api.sarvam.ai/translate"

// keyHeader carries the API key.
const keyHeader = "api-subscription-key"

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 1 << 20

// RetryOptions control retries of failed requests. Only network errors and
// 429 or 5xx responses are retried.
type RetryOptions struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
}

// BreakerOptions control the circuit breaker around the provider. The
// breaker opens after FailureThreshold consecutive failures and lets a probe
// through after Timeout.
type BreakerOptions struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

// Options are options for a Client.
type Options struct {
	// Endpoint is the translation URL.
	Endpoint string

	// APIKey is sent with every request. It is required.
	APIKey string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// HTTPClient is used to make requests. A client with Timeout is created
	// if nil.
	HTTPClient *http.Client

	Retry   RetryOptions
	Breaker BreakerOptions

	// Logger receives retry and breaker logs. Defaults to a disabled
	// logger.
	Logger *zerolog.Logger
}

// DefaultOptions is the default options for a Client. It has no API key.
var DefaultOptions = &Options{
	Endpoint: DefaultEndpoint,
	Timeout:  30 * time.Second,
	Retry: RetryOptions{
		MaxAttempts:    3,
		InitialDelay:   200 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	},
	Breaker: BreakerOptions{
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
	},
}

// Client is a translation provider client. A Client is safe for concurrent
// use.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	retry    RetryOptions
	breaker  *gobreaker.CircuitBreaker
	log      zerolog.Logger
}

// New returns a new Client.
func New(options *Options) (*Client, error) {
	if options == nil {
		options = DefaultOptions
	}
	if options.APIKey == "" {
		return nil, ErrMissingKey
	}

	c := &Client{
		endpoint: DefaultOptions.Endpoint,
		apiKey:   options.APIKey,
		retry:    options.Retry,
		log:      zerolog.Nop(),
	}
	if options.Endpoint != "" {
		c.endpoint = options.Endpoint
	}
	if options.Logger != nil {
		c.log = *options.Logger
	}

	defaults := DefaultOptions.Retry
	if c.retry.MaxAttempts <= 0 {
		c.retry.MaxAttempts = defaults.MaxAttempts
	}
	if c.retry.InitialDelay <= 0 {
		c.retry.InitialDelay = defaults.InitialDelay
	}
	if c.retry.MaxDelay <= 0 {
		c.retry.MaxDelay = defaults.MaxDelay
	}
	if c.retry.Multiplier <= 0 {
		c.retry.Multiplier = defaults.Multiplier
	}
	if c.retry.JitterFraction < 0 {
		c.retry.JitterFraction = 0
	}

	c.http = options.HTTPClient
	if c.http == nil {
		timeout := options.Timeout
		if timeout <= 0 {
			timeout = DefaultOptions.Timeout
		}
		c.http = &http.Client{Timeout: timeout}
	}

	threshold := options.Breaker.FailureThreshold
	if threshold == 0 {
		threshold = DefaultOptions.Breaker.FailureThreshold
	}
	breakerTimeout := options.Breaker.Timeout
	if breakerTimeout <= 0 {
		breakerTimeout = DefaultOptions.Breaker.Timeout
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "provider",
		Timeout: breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().
				Str("breaker", name).
				Stringer("from", from).
				Stringer("to", to).
				Msg("circuit breaker state changed")
		},
		// Client errors do not count against the provider.
		IsSuccessful: func(err error) bool {
			var serr *StatusError
			if errors.As(err, &serr) {
				return !serr.temporary()
			}
			return err == nil || errors.Is(err, ErrEmptyTranslation)
		},
	})

	return c, nil
}

type translateRequest struct {
	Input              string `json:"input"`
	SourceLanguageCode string `json:"source_language_code"`
	TargetLanguageCode string `json:"target_language_code"`
	Mode               Mode   `json:"mode"`
	OutputScript       string `json:"output_script,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// Translate translates req.Text. Temporary failures are retried with
// exponential backoff.
func (c *Client) Translate(ctx context.Context, req Request) (string, error) {
	payload := translateRequest{
		Input:              req.Text,
		SourceLanguageCode: req.SourceLang,
		TargetLanguageCode: req.TargetLang,
		Mode:               req.Mode,
	}
	if payload.Mode == "" {
		payload.Mode = ModeFormal
	}
	if req.OutputScript != "" && req.OutputScript != OutputScriptDefault {
		payload.OutputScript = strings.ToLower(req.OutputScript)
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	var text string
	err = c.withRetry(ctx, func() error {
		v, err := c.breaker.Execute(func() (interface{}, error) {
			return c.post(ctx, body)
		})
		if err != nil {
			return err
		}
		text, _ = v.(string)
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(keyHeader, c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("posting to provider: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(respBody)),
		}
	}

	var tr translateResponse
	if err := sonic.Unmarshal(respBody, &tr); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if tr.TranslatedText == "" {
		return "", ErrEmptyTranslation
	}
	return tr.TranslatedText, nil
}

func retryable(err error) bool {
	var serr *StatusError
	switch {
	case errors.As(err, &serr):
		return serr.temporary()
	case errors.Is(err, ErrEmptyTranslation),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			if attempt > 1 {
				c.log.Debug().Int("attempt", attempt).Msg("provider succeeded after retry")
			}
			return nil
		}
		if !retryable(err) || attempt == c.retry.MaxAttempts {
			break
		}

		delay := c.delay(attempt)
		c.log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", c.retry.MaxAttempts).
			Dur("next_delay", delay).
			Msg("provider request failed, retrying")

		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}
	}
	return err
}

// delay returns the backoff before the attempt after the given one.
func (c *Client) delay(attempt int) time.Duration {
	backoff := float64(c.retry.InitialDelay) * math.Pow(c.retry.Multiplier, float64(attempt-1))
	backoff += backoff * c.retry.JitterFraction * (2*rand.Float64() - 1)
	if backoff > float64(c.retry.MaxDelay) {
		backoff = float64(c.retry.MaxDelay)
	}
	if backoff < 0 {
		backoff = float64(c.retry.InitialDelay)
	}
	return time.Duration(backoff)
}
