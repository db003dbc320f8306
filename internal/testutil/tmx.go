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

package testutil

import (
	"encoding/xml"
	"strings"
)

// Variant is a TMX <tuv> used to build test documents.
type Variant struct {
	// Lang is written as xml:lang.
	Lang string

	// LegacyLang is written as the lang attribute.
	LegacyLang string

	// Seg is the segment text. NoSeg omits the <seg> element.
	Seg   string
	NoSeg bool
}

// MakeTMX makes a TMX 1.4 document with one <tu> per element of units.
func MakeTMX(units ...[]Variant) []byte {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<tmx version="1.4">` + "\n")
	b.WriteString(`  <header creationdate="20250101T000000" srclang="en-IN"/>` + "\n")
	b.WriteString("  <body>\n")
	for _, tu := range units {
		b.WriteString("    <tu>\n")
		for _, v := range tu {
			b.WriteString("      <tuv")
			if v.Lang != "" {
				b.WriteString(` xml:lang="` + escape(v.Lang) + `"`)
			}
			if v.LegacyLang != "" {
				b.WriteString(` lang="` + escape(v.LegacyLang) + `"`)
			}
			b.WriteString(">")
			if !v.NoSeg {
				b.WriteString("<seg>" + escape(v.Seg) + "</seg>")
			}
			b.WriteString("</tuv>\n")
		}
		b.WriteString("    </tu>\n")
	}
	b.WriteString("  </body>\n</tmx>\n")
	return []byte(b.String())
}

func escape(s string) string {
	var b strings.Builder
	// strings.Builder never returns an error.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
