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
	"strconv"

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-transmem"
)

var tmCommand = &cli.Command{
	Name:  "tm",
	Usage: "manage the translation memory",
	Subcommands: []*cli.Command{
		{
			Name:      "add",
			Usage:     "add a translation unit",
			ArgsUsage: "SOURCE TARGET",
			Flags: []cli.Flag{
				fromFlag,
				toFlag,
				&cli.StringFlag{
					Name:  "context",
					Usage: "free form `TEXT` describing the unit",
				},
			},
			Action: tmAdd,
		},
		{
			Name:      "match",
			Usage:     "find the best fuzzy match for text",
			ArgsUsage: "[TEXT]",
			Flags: []cli.Flag{
				fromFlag,
				toFlag,
				&cli.Float64Flag{
					Name:  "threshold",
					Usage: "minimum similarity `SCORE` (exclusive)",
				},
			},
			Action: tmMatch,
		},
		{
			Name:      "import",
			Usage:     "import translation units from a TMX file",
			ArgsUsage: "FILE",
			Action:    tmImport,
		},
		{
			Name:      "export",
			Usage:     "export the translation memory as TMX",
			ArgsUsage: "[FILE]",
			Action:    tmExport,
		},
		{
			Name:   "stats",
			Usage:  "print translation memory statistics",
			Action: tmStats,
		},
		{
			Name:   "list",
			Usage:  "list translation units",
			Action: tmList,
		},
	},
}

func tmAdd(c *cli.Context) error {
	source, err := requiredArg(c, 0, "SOURCE")
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
	return stores.Memory.Add(source, target, c.String("from"), c.String("to"), c.String("context"))
}

func tmMatch(c *cli.Context) error {
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

	threshold := e.cfg.Match.Threshold
	if c.IsSet("threshold") {
		threshold = c.Float64("threshold")
	}

	match, ok := stores.Memory.FindMatch(text, c.String("from"), c.String("to"), threshold)
	if !ok {
		return fmt.Errorf("%w: no match above %v", ErrNotFound, threshold)
	}

	_, err = fmt.Fprintf(c.App.Writer, "%s\t%.4f\n", match.Text, match.Score)
	if err != nil {
		return fmt.Errorf("printing match: %w", err)
	}
	return nil
}

func tmImport(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: expected one FILE", ErrFlagParse)
	}

	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	stores, err := e.openStores()
	if err != nil {
		return err
	}

	n, err := stores.Memory.ImportTMXFile(c.Args().First())
	if err != nil {
		return err //nolint:wrapcheck // import errors name the file.
	}
	e.log.Info().Int("units", n).Str("file", c.Args().First()).Msg("imported")
	return nil
}

func tmExport(c *cli.Context) error {
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
		path = transmem.MemoryExportPath(e.cfg.DataDir)
	}
	if err := stores.Memory.ExportTMXFile(path); err != nil {
		return err //nolint:wrapcheck // export errors name the file.
	}
	e.log.Info().Int("units", stores.Memory.Len()).Str("file", path).Msg("exported")
	return nil
}

func tmStats(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	stores, err := e.openStores()
	if err != nil {
		return err
	}

	stats := stores.Memory.Statistics()
	tbl := table.New("Statistic", "Value").WithWriter(c.App.Writer)
	tbl.AddRow("Total pairs", strconv.Itoa(stats.TotalPairs))
	tbl.AddRow("Language pairs", joinOrNone(stats.LanguagePairs))
	tbl.AddRow("Source languages", joinOrNone(stats.SourceLanguages))
	tbl.AddRow("Target languages", joinOrNone(stats.TargetLanguages))
	tbl.Print()
	return nil
}

func tmList(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	stores, err := e.openStores()
	if err != nil {
		return err
	}

	tbl := table.New("Source", "Target", "Languages", "Context", "Timestamp").WithWriter(c.App.Writer)
	for _, u := range stores.Memory.Units() {
		ts := ""
		if !u.Timestamp.IsZero() {
			ts = u.Timestamp.Format("2006-01-02 15:04:05")
		}
		tbl.AddRow(u.SourceText, u.TargetText, u.SourceLang+"->"+u.TargetLang, u.Context, ts)
	}
	tbl.Print()
	return nil
}
