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
	"strings"

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-transmem"
	"github.com/ianlewis/go-transmem/glossary"
)

var (
	domainFlag = &cli.StringFlag{
		Name:  "domain",
		Usage: "glossary `DOMAIN`",
		Value: glossary.DefaultDomain,
	}
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "file `FORMAT` (csv)",
		Value: string(glossary.FormatCSV),
	}
)

var glossaryCommand = &cli.Command{
	Name:  "glossary",
	Usage: "manage the glossary",
	Subcommands: []*cli.Command{
		{
			Name:      "add",
			Usage:     "add a glossary term",
			ArgsUsage: "SOURCE TARGET",
			Flags: []cli.Flag{
				fromFlag,
				toFlag,
				domainFlag,
				&cli.StringFlag{
					Name:  "context",
					Usage: "free form `TEXT` describing the term",
				},
			},
			Action: glossaryAdd,
		},
		{
			Name:      "get",
			Usage:     "look up a glossary term",
			ArgsUsage: "TERM",
			Flags: []cli.Flag{
				fromFlag,
				toFlag,
				&cli.StringFlag{
					Name:  "domain",
					Usage: "restrict the lookup to `DOMAIN`",
				},
			},
			Action: glossaryGet,
		},
		{
			Name:      "apply",
			Usage:     "replace glossary terms in text",
			ArgsUsage: "[TEXT]",
			Flags: []cli.Flag{
				fromFlag,
				toFlag,
				domainFlag,
			},
			Action: glossaryApply,
		},
		{
			Name:      "import",
			Usage:     "import glossary terms from a file",
			ArgsUsage: "FILE",
			Flags:     []cli.Flag{formatFlag},
			Action:    glossaryImport,
		},
		{
			Name:      "export",
			Usage:     "export the glossary to a file",
			ArgsUsage: "[FILE]",
			Flags:     []cli.Flag{formatFlag},
			Action:    glossaryExport,
		},
		{
			Name:   "domains",
			Usage:  "list glossary domains",
			Action: glossaryDomains,
		},
		{
			Name:   "list",
			Usage:  "list glossary entries",
			Action: glossaryList,
		},
	},
}

func glossaryAdd(c *cli.Context) error {
	source, err := termArg(c, 0, "SOURCE")
	if err != nil {
		return err
	}
	target, err := requiredArg(c, 1, "TARGET")
	if err != nil {
		return err
	}

	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	stores, err := e.openStores()
	if err != nil {
		return err
	}

	//nolint:wrapcheck // store errors are descriptive.
	return stores.Glossary.Add(glossary.Term{
		Source:     source,
		Target:     target,
		SourceLang: c.String("from"),
		TargetLang: c.String("to"),
		Domain:     c.String("domain"),
		Context:    c.String("context"),
	})
}

func glossaryGet(c *cli.Context) error {
	term, err := termArg(c, 0, "TERM")
	if err != nil {
		return err
	}

	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	stores, err := e.openStores()
	if err != nil {
		return err
	}

	target, ok := stores.Glossary.Get(term, c.String("from"), c.String("to"), c.String("domain"))
	if !ok {
		return fmt.Errorf("%w: term %q", ErrNotFound, term)
	}
	if _, err := fmt.Fprintln(c.App.Writer, target); err != nil {
		return fmt.Errorf("printing term: %w", err)
	}
	return nil
}

func glossaryApply(c *cli.Context) error {
	text, err := textArg(c, 0)
	if err != nil {
		return err
	}

	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	stores, err := e.openStores()
	if err != nil {
		return err
	}

	out := stores.Glossary.Apply(text, c.String("from"), c.String("to"), c.String("domain"))
	if _, err := fmt.Fprintln(c.App.Writer, out); err != nil {
		return fmt.Errorf("printing text: %w", err)
	}
	return nil
}

func glossaryImport(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: expected one FILE", ErrFlagParse)
	}
	format, err := glossary.ParseFormat(c.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFlagParse, err)
	}

	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	stores, err := e.openStores()
	if err != nil {
		return err
	}

	n, err := stores.Glossary.ImportFile(c.Args().First(), format)
	if err != nil {
		return err //nolint:wrapcheck // import errors name the file.
	}
	e.log.Info().Int("terms", n).Str("file", c.Args().First()).Msg("imported")
	return nil
}

func glossaryExport(c *cli.Context) error {
	format, err := glossary.ParseFormat(c.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFlagParse, err)
	}

	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	stores, err := e.openStores()
	if err != nil {
		return err
	}

	path := c.Args().First()
	if path == "" {
		path = transmem.GlossaryExportPath(e.cfg.DataDir)
	}
	if err := stores.Glossary.ExportFile(path, format); err != nil {
		return err //nolint:wrapcheck // export errors name the file.
	}
	e.log.Info().Int("terms", stores.Glossary.Len()).Str("file", path).Msg("exported")
	return nil
}

func glossaryDomains(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	stores, err := e.openStores()
	if err != nil {
		return err
	}

	for _, d := range transmem.DomainChoices(stores.Glossary) {
		if _, err := fmt.Fprintln(c.App.Writer, d); err != nil {
			return fmt.Errorf("printing domains: %w", err)
		}
	}
	return nil
}

func glossaryList(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	stores, err := e.openStores()
	if err != nil {
		return err
	}

	tbl := table.New("Term", "Translation", "Languages", "Domain", "Context").WithWriter(c.App.Writer)
	for _, entry := range stores.Glossary.Entries() {
		tbl.AddRow(entry.Key, entry.Term, entry.SourceLang+"->"+entry.TargetLang, entry.Domain, entry.Context)
	}
	tbl.Print()
	return nil
}

// joinOrNone joins s with commas or returns "-" if s is empty.
func joinOrNone(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}
