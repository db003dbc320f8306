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

package tm

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/ianlewis/go-transmem/internal/fileio"
)

var errTrailingData = errors.New("data after root element")

const (
	tmxVersion   = "1.4"
	creationTool = "go-transmem"

	// tmxDateLayout is the TMX date format, YYYYMMDDThhmmss.
	tmxDateLayout = "20060102T150405"
)

type tmxDocument struct {
	XMLName xml.Name  `xml:"tmx"`
	Version string    `xml:"version,attr"`
	Header  tmxHeader `xml:"header"`
	Body    tmxBody   `xml:"body"`
}

type tmxHeader struct {
	CreationTool        string `xml:"creationtool,attr,omitempty"`
	CreationToolVersion string `xml:"creationtoolversion,attr,omitempty"`
	SegType             string `xml:"segtype,attr,omitempty"`
	OTMF                string `xml:"o-tmf,attr,omitempty"`
	AdminLang           string `xml:"adminlang,attr,omitempty"`
	SrcLang             string `xml:"srclang,attr"`
	DataType            string `xml:"datatype,attr,omitempty"`
	CreationDate        string `xml:"creationdate,attr"`
}

type tmxBody struct {
	Units []tmxUnit `xml:"tu"`
}

type tmxUnit struct {
	Variants []tmxVariant `xml:"tuv"`
}

type tmxVariant struct {
	XMLLang string `xml:"http://www.w3.org/XML/1998/namespace lang,attr,omitempty"`

	// Lang is the pre-1.4 language attribute.
	Lang string `xml:"lang,attr,omitempty"`

	Seg *string `xml:"seg"`
}

func (v *tmxVariant) lang() string {
	if v.XMLLang != "" {
		return v.XMLLang
	}
	return v.Lang
}

// ImportTMX reads a TMX document from r and adds its translation units. The
// first two variants of each <tu> with non-empty segment text are taken as
// the source and the target, in document order. Units without two such
// variants are skipped. ImportTMX returns the number of units added.
//
// The document is decoded in full before any unit is added so a malformed
// document leaves the memory unchanged.
func (m *Memory) ImportTMX(r io.Reader) (int, error) {
	var doc tmxDocument
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return 0, fmt.Errorf("%w: decoding TMX: %w", ErrImport, err)
	}
	if err := expectEOF(dec); err != nil {
		return 0, fmt.Errorf("%w: decoding TMX: %w", ErrImport, err)
	}

	added := 0
	for i, tu := range doc.Body.Units {
		var populated []*tmxVariant
		for j := range tu.Variants {
			v := &tu.Variants[j]
			if v.Seg == nil || *v.Seg == "" {
				continue
			}
			populated = append(populated, v)
			if len(populated) == 2 {
				break
			}
		}
		if len(populated) < 2 {
			m.log.Debug().Int("tu", i).Msg("skipping translation unit with fewer than two segments")
			continue
		}

		src, tgt := populated[0], populated[1]
		if src.lang() == "" || tgt.lang() == "" {
			m.log.Debug().Int("tu", i).Msg("skipping translation unit without language")
			continue
		}

		m.add(*src.Seg, *tgt.Seg, src.lang(), tgt.lang(), "")
		added++
	}

	m.log.Debug().Int("units", added).Msg("imported TMX")

	if added == 0 {
		return 0, nil
	}
	return added, m.save()
}

// expectEOF consumes the rest of the document. Only whitespace, comments and
// processing instructions may follow the root element.
func expectEOF(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err //nolint:wrapcheck // wrapped by the caller.
		}

		switch tok := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(tok)) > 0 {
				return errTrailingData
			}
		default:
			return errTrailingData
		}
	}
}

// ImportTMXFile imports the TMX document at path. Files ending in ".gz" or
// ".dz" are decompressed.
func (m *Memory) ImportTMXFile(path string) (int, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer r.Close()

	return m.ImportTMX(r)
}

// ExportTMX writes every unit to w as a TMX 1.4 document. Unit context and
// timestamps are not exported.
func (m *Memory) ExportTMX(w io.Writer) error {
	doc := tmxDocument{
		Version: tmxVersion,
		Header: tmxHeader{
			CreationTool:        creationTool,
			CreationToolVersion: m.toolVersion,
			SegType:             "sentence",
			OTMF:                "json",
			AdminLang:           "en",
			SrcLang:             m.srcLang,
			DataType:            "plaintext",
			CreationDate:        m.now().Format(tmxDateLayout),
		},
	}
	for pair, bucket := range m.units.Pairs() {
		for source, r := range bucket.All() {
			doc.Body.Units = append(doc.Body.Units, tmxUnit{
				Variants: []tmxVariant{
					{XMLLang: pair[0], Seg: &source},
					{XMLLang: pair[1], Seg: &r.Text},
				},
			})
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("%w: writing TMX: %w", ErrIO, err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("%w: writing TMX: %w", ErrIO, err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("%w: writing TMX: %w", ErrIO, err)
	}
	return nil
}

// ExportTMXFile writes the memory to a TMX file at path. Files ending in
// ".gz" are compressed with gzip and files ending in ".dz" with dictzip.
func (m *Memory) ExportTMXFile(path string) error {
	w, err := fileio.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := m.ExportTMX(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
