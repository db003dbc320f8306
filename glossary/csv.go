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

package glossary

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ianlewis/go-transmem/internal/fileio"
)

// Format is a glossary interchange format.
type Format string

// FormatCSV is a comma separated format with a header line and the fields
// source_term, target_term, source_lang, target_lang, domain and context.
// Fields are not quoted and cannot contain commas.
const FormatCSV Format = "csv"

// csvHeader is written by Export and discarded by Import.
const csvHeader = "source_term,target_term,source_lang,target_lang,domain,context"

// minFields is the number of fields a row needs to be imported.
const minFields = 4

// ParseFormat returns the Format named by s.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Scanner scans terms from a glossary CSV document. The first line is taken
// as a header and discarded. Rows with fewer than four fields are skipped.
type Scanner struct {
	s       *bufio.Scanner
	header  bool
	term    Term
	skipped int
}

// NewScanner returns a new Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		s: bufio.NewScanner(r),
	}
}

// Scan advances to the next term. It returns false when the input is
// exhausted or an error occurs.
func (s *Scanner) Scan() bool {
	if !s.header {
		s.header = true
		if !s.s.Scan() {
			return false
		}
	}

	for s.s.Scan() {
		parts := strings.Split(strings.TrimSpace(s.s.Text()), ",")
		if len(parts) < minFields {
			s.skipped++
			continue
		}

		s.term = Term{
			Source:     parts[0],
			Target:     parts[1],
			SourceLang: parts[2],
			TargetLang: parts[3],
			Domain:     DefaultDomain,
		}
		if len(parts) > 4 {
			s.term.Domain = parts[4]
		}
		if len(parts) > 5 {
			s.term.Context = parts[5]
		}
		return true
	}
	return false
}

// Term returns the most recently scanned term.
func (s *Scanner) Term() Term {
	return s.term
}

// Skipped returns the number of rows skipped so far.
func (s *Scanner) Skipped() int {
	return s.skipped
}

// Err returns the first error encountered.
func (s *Scanner) Err() error {
	//nolint:wrapcheck // error should not be wrapped
	return s.s.Err()
}

// Import reads terms from r and adds them to the glossary. It returns the
// number of terms added. The glossary is persisted once after all terms are
// added.
func (g *Glossary) Import(r io.Reader, format Format) (int, error) {
	if format != FormatCSV {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	added := 0
	s := NewScanner(r)
	for s.Scan() {
		g.add(s.Term())
		added++
	}

	if s.Skipped() > 0 {
		g.log.Debug().Int("rows", s.Skipped()).Msg("skipped short glossary rows")
	}
	g.log.Debug().Int("terms", added).Msg("imported glossary")

	var err error
	if serr := s.Err(); serr != nil {
		err = fmt.Errorf("%w: reading CSV: %w", ErrImport, serr)
	}
	if added > 0 {
		// Terms read before an error are kept.
		if perr := g.save(); perr != nil && err == nil {
			err = perr
		}
	}
	return added, err
}

// ImportFile imports the glossary file at path. Files ending in ".gz" or
// ".dz" are decompressed.
func (g *Glossary) ImportFile(path string, format Format) (int, error) {
	if format != FormatCSV {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	r, err := fileio.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer r.Close()

	return g.Import(r, format)
}

// Export writes every entry to w. The context field is omitted for entries
// without one.
func (g *Glossary) Export(w io.Writer, format Format) error {
	if format != FormatCSV {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(csvHeader + "\n")
	for _, e := range g.Entries() {
		fields := []string{e.Key, e.Term, e.SourceLang, e.TargetLang, e.Domain}
		if e.Context != "" {
			fields = append(fields, e.Context)
		}
		bw.WriteString(strings.Join(fields, ",") + "\n")
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: writing CSV: %w", ErrIO, err)
	}
	return nil
}

// ExportFile writes the glossary to a file at path. Files ending in ".gz" are
// compressed with gzip and files ending in ".dz" with dictzip.
func (g *Glossary) ExportFile(path string, format Format) error {
	if format != FormatCSV {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	w, err := fileio.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := g.Export(w, format); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
