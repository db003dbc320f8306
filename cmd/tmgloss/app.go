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

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-transmem"
	"github.com/ianlewis/go-transmem/glossary"
	"github.com/ianlewis/go-transmem/internal/config"
	"github.com/ianlewis/go-transmem/internal/folding"
	"github.com/ianlewis/go-transmem/provider"
	"github.com/ianlewis/go-transmem/tm"
)

const (
	// ExitCodeSuccess is successful error code.
	ExitCodeSuccess int = iota

	// ExitCodeFlagParseError is the exit code for a flag parsing error.
	ExitCodeFlagParseError

	// ExitCodeUnknownError is the exit code for an unknown error.
	ExitCodeUnknownError

	// ExitCodeNotFound is the exit code when a lookup finds nothing.
	ExitCodeNotFound

	// ExitCodeConfigError is the exit code for an invalid configuration or
	// a store that cannot be loaded.
	ExitCodeConfigError
)

// ErrTmgloss is a parent error for all command errors.
var ErrTmgloss = errors.New("tmgloss")

// ErrFlagParse is a flag parsing error.
var ErrFlagParse = fmt.Errorf("%w: parsing flags", ErrTmgloss)

// ErrNotFound indicates that a lookup found nothing.
var ErrNotFound = fmt.Errorf("%w: not found", ErrTmgloss)

// ErrConfig indicates a configuration error.
var ErrConfig = fmt.Errorf("%w: configuration", ErrTmgloss)

var copyrightNames = []string{
	"2026 Ian Lewis",
}

//nolint:gochecknoinits // init needed needed for global variable.
func init() {
	// Set the HelpFlag to a random name so that it isn't used. `cli` handles
	// the flag with the root command such that it takes a command name argument
	// which prints "command foo not found" for `tmgloss --help foo`.
	//
	// This flag is hidden by the help output.
	// See: github.com/urfave/cli/issues/1809
	cli.HelpFlag = &cli.BoolFlag{
		// NOTE: Use a random name no one would guess.
		Name:               "d41d8cd98f00b204e980",
		DisableDefaultText: true,
	}
}

// check checks the error and panics if not nil.
func check(err error) {
	if err != nil {
		panic(err)
	}
}

// exitCode returns the process exit code for err.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, ErrFlagParse):
		return ExitCodeFlagParseError
	case errors.Is(err, ErrNotFound):
		return ExitCodeNotFound
	case errors.Is(err, ErrConfig),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, tm.ErrCorruptStore),
		errors.Is(err, glossary.ErrCorruptStore),
		errors.Is(err, provider.ErrMissingKey):
		return ExitCodeConfigError
	default:
		return ExitCodeUnknownError
	}
}

// env is the environment a command runs in.
type env struct {
	cfg *config.Config
	log zerolog.Logger
}

// loadEnv loads the configuration and applies global flags over it.
func loadEnv(c *cli.Context) (*env, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if c.IsSet("data-dir") || cfg.DataDir == "" {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Logging.Format = c.String("log-format")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	log, err := newLogger(c.App.ErrWriter, cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	return &env{
		cfg: cfg,
		log: log,
	}, nil
}

func newLogger(w io.Writer, cfg config.LoggingConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// openStores opens the stores in the configured data directory.
func (e *env) openStores() (*transmem.Stores, error) {
	stores, err := transmem.Open(e.cfg.DataDir, &transmem.Options{
		Memory: &tm.Options{
			SourceLang:  e.cfg.Match.SourceLang,
			ToolVersion: toolVersion(),
			Logger:      &e.log,
		},
		Glossary: &glossary.Options{
			Logger: &e.log,
		},
	})
	if err != nil {
		return nil, err
	}
	e.log.Debug().Str("dir", e.cfg.DataDir).Msg("opened stores")
	return stores, nil
}

// newProvider returns a provider client for the configuration.
func (e *env) newProvider() (*provider.Client, error) {
	//nolint:wrapcheck // provider errors are returned as is.
	return provider.New(&provider.Options{
		Endpoint: e.cfg.Provider.Endpoint,
		APIKey:   e.cfg.Provider.APIKey,
		Timeout:  e.cfg.Provider.Timeout,
		Retry: provider.RetryOptions{
			MaxAttempts: e.cfg.Provider.Retries,
		},
		Breaker: provider.BreakerOptions{
			FailureThreshold: e.cfg.Provider.BreakerFails,
			Timeout:          e.cfg.Provider.BreakerTimeout,
		},
		Logger: &e.log,
	})
}

// textArg returns the argument at i as is. If the argument is missing or
// "-" the text is read from standard input without its final line break.
// Blank text is rejected.
func textArg(c *cli.Context, i int) (string, error) {
	text := c.Args().Get(i)
	if text == "" || text == "-" {
		b, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return "", fmt.Errorf("reading standard input: %w", err)
		}
		text = strings.TrimSuffix(strings.TrimSuffix(string(b), "\n"), "\r")
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty text", ErrFlagParse)
	}
	return text, nil
}

// requiredArg returns the argument at i as is. It must not be blank.
func requiredArg(c *cli.Context, i int, name string) (string, error) {
	s := c.Args().Get(i)
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: missing %s", ErrFlagParse, name)
	}
	return s, nil
}

// termArg returns the glossary term at i with its whitespace folded.
func termArg(c *cli.Context, i int, name string) (string, error) {
	s := folding.String(folding.Whitespace(), c.Args().Get(i))
	if s == "" {
		return "", fmt.Errorf("%w: missing %s", ErrFlagParse, name)
	}
	return s, nil
}

var (
	fromFlag = &cli.StringFlag{
		Name:     "from",
		Usage:    "source language `CODE`",
		Aliases:  []string{"s"},
		Required: true,
	}
	toFlag = &cli.StringFlag{
		Name:     "to",
		Usage:    "target language `CODE`",
		Aliases:  []string{"t"},
		Required: true,
	}
)

func newTmglossApp() *cli.App {
	return &cli.App{
		Name:  filepath.Base(os.Args[0]),
		Usage: "Manage translation memories and glossaries.",
		Description: strings.Join([]string{
			"Translation memory and glossary tool written in Go.",
			"http://github.com/ianlewis/go-transmem",
		}, "\n"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "store data in `DIR`",
				Aliases: []string{"d"},
				Value:   dataLocation(),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "read configuration from `FILE`",
				Aliases: []string{"c"},
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log `LEVEL` (debug, info, warn, error)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log `FORMAT` (console, json)",
				Value: "console",
			},

			// Special flags are shown at the end.
			&cli.BoolFlag{
				Name:               "help",
				Usage:              "print this help text and exit",
				Aliases:            []string{"h"},
				DisableDefaultText: true,
			},
			&cli.BoolFlag{
				Name:               "version",
				Usage:              "print version information and exit",
				Aliases:            []string{"V"},
				DisableDefaultText: true,
			},
		},
		Copyright:       strings.Join(copyrightNames, "\n"),
		HideHelp:        true,
		HideHelpCommand: true,
		Action: func(c *cli.Context) error {
			if c.Bool("version") {
				return printVersion(c)
			}

			check(cli.ShowAppHelp(c))
			return nil
		},
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			return fmt.Errorf("%w: %w", ErrFlagParse, err)
		},
		Commands: []*cli.Command{
			tmCommand,
			glossaryCommand,
			translateCommand,
			serveCommand,
		},
	}
}
