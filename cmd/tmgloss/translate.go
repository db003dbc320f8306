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
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-transmem"
	"github.com/ianlewis/go-transmem/provider"
)

var translateCommand = &cli.Command{
	Name:  "translate",
	Usage: "translate text using the translation memory and provider",
	Description: "Text found in the translation memory is printed as is. Otherwise\n" +
		"the provider translates it, glossary terms for --domain are applied,\n" +
		"and the result is added to the translation memory.",
	ArgsUsage: "[TEXT]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "from",
			Usage:   "source language `CODE` (default from configuration)",
			Aliases: []string{"s"},
		},
		toFlag,
		&cli.StringFlag{
			Name:  "mode",
			Usage: "translation `MODE` (formal, modern-colloquial, classic-colloquial)",
		},
		&cli.StringFlag{
			Name:  "script",
			Usage: "output `SCRIPT` (roman, fully-native, spoken-form-in-native)",
		},
		&cli.StringFlag{
			Name:  "domain",
			Usage: "apply glossary terms from `DOMAIN`",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "print where the translation came from",
		},
	},
	Action: translate,
}

func translate(c *cli.Context) error {
	text, err := textArg(c, 0)
	if err != nil {
		return err
	}

	e, err := loadEnv(c)
	if err != nil {
		return err
	}

	modeName := e.cfg.Provider.Mode
	if c.IsSet("mode") {
		modeName = c.String("mode")
	}
	mode, err := provider.ParseMode(modeName)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFlagParse, err)
	}

	script := e.cfg.Provider.OutputScript
	if c.IsSet("script") {
		script = c.String("script")
	}

	from := e.cfg.Match.SourceLang
	if c.IsSet("from") {
		from = c.String("from")
	}

	stores, err := e.openStores()
	if err != nil {
		return err
	}
	p, err := e.newProvider()
	if err != nil {
		return err
	}

	tr := transmem.NewTranslator(stores, p, &transmem.TranslatorOptions{
		Threshold: &e.cfg.Match.Threshold,
		Logger:    &e.log,
	})
	res, err := tr.Translate(c.Context, transmem.Request{
		Request: provider.Request{
			Text:         text,
			SourceLang:   from,
			TargetLang:   c.String("to"),
			Mode:         mode,
			OutputScript: script,
		},
		Domain: c.String("domain"),
	})
	if err != nil {
		return err //nolint:wrapcheck // translation errors are descriptive.
	}

	if c.Bool("verbose") {
		_, err = fmt.Fprintf(c.App.Writer, "%s\t%s\t%.4f\n", res.Text, res.Origin, res.Score)
	} else {
		_, err = fmt.Fprintln(c.App.Writer, res.Text)
	}
	if err != nil {
		return fmt.Errorf("printing translation: %w", err)
	}
	return nil
}
