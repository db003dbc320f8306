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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		env  map[string]string

		expected    func(*Config)
		expectedErr error
	}{
		{
			name:     "defaults",
			expected: func(*Config) {},
		},
		{
			name: "file",
			yaml: `
dataDir: /srv/tmgloss
provider:
  apiKey: from-file
  timeout: 5s
match:
  threshold: 0.9
logging:
  format: json
`,
			expected: func(c *Config) {
				c.DataDir = "/srv/tmgloss"
				c.Provider.APIKey = "from-file"
				c.Provider.Timeout = 5 * time.Second
				c.Match.Threshold = 0.9
				c.Logging.Format = "json"
			},
		},
		{
			name: "env overrides file",
			yaml: `
provider:
  apiKey: from-file
`,
			env: map[string]string{
				"TMGLOSS_PROVIDER_API_KEY": "from-env",
				"TMGLOSS_PROVIDER_TIMEOUT": "1m",
				"TMGLOSS_MATCH_THRESHOLD":  "0.75",
				"TMGLOSS_SERVER_ADDR":      ":9090",
			},
			expected: func(c *Config) {
				c.Provider.APIKey = "from-env"
				c.Provider.Timeout = time.Minute
				c.Match.Threshold = 0.75
				c.Server.Addr = ":9090"
			},
		},
		{
			name: "bad env value",
			env: map[string]string{
				"TMGLOSS_MATCH_THRESHOLD": "high",
			},
			expectedErr: ErrInvalid,
		},
		{
			name:        "threshold out of range",
			yaml:        "match:\n  threshold: 1\n",
			expectedErr: ErrInvalid,
		},
		{
			name:        "unknown log format",
			yaml:        "logging:\n  format: xml\n",
			expectedErr: ErrInvalid,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			path := ""
			if test.yaml != "" {
				path = filepath.Join(t.TempDir(), "config.yaml")
				if err := os.WriteFile(path, []byte(test.yaml), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			cfg, err := load(path, func(k string) string {
				return test.env[k]
			})
			if test.expectedErr != nil {
				if !errors.Is(err, test.expectedErr) {
					t.Fatalf("load: want: %v, got: %v", test.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("load: %v", err)
			}

			expected := Default()
			test.expected(expected)
			if diff := cmp.Diff(expected, cfg); diff != "" {
				t.Fatalf("load (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load: expected error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("TMGLOSS_TEST_DOTENV=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("TMGLOSS_TEST_DOTENV") })

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if diff := cmp.Diff("from-dotenv", os.Getenv("TMGLOSS_TEST_DOTENV")); diff != "" {
		t.Fatalf("TMGLOSS_TEST_DOTENV (-want, +got):\n%s", diff)
	}
}
