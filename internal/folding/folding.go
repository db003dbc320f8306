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

// Package folding implements text folding used for term keys, fuzzy matching
// and command line input.
package folding

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
)

// Lower returns a [transform.Transformer] that lower-cases text using the
// language independent Unicode mapping.
func Lower() transform.Transformer {
	return cases.Lower(language.Und)
}

// String applies the transformer to s. If the transformer fails the input is
// returned unchanged.
func String(t transform.Transformer, s string) string {
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// UpperFirst upper-cases the first rune of s and leaves the rest untouched.
func UpperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return cases.Upper(language.Und).String(string(r)) + s[size:]
}

// WhitespaceFolder folds whitespace. Leading and trailing whitespace is
// dropped and every internal whitespace span becomes a single ASCII space.
type WhitespaceFolder struct {
	// seenText is set once a non-space rune has been emitted.
	seenText bool

	// pending is set while skipping an internal whitespace span.
	pending bool
}

// Whitespace returns a new [WhitespaceFolder].
func Whitespace() transform.Transformer {
	return &WhitespaceFolder{}
}

// Transform implements [transform.Transformer.Transform].
func (w *WhitespaceFolder) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	var nDst, nSrc int
	for nSrc < len(src) {
		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		r, size := utf8.DecodeRune(src[nSrc:])

		if unicode.IsSpace(r) {
			if w.seenText {
				w.pending = true
			}
			nSrc += size
			continue
		}

		need := utf8.RuneLen(r)
		if need < 0 {
			need = len(string(utf8.RuneError))
		}
		if w.pending {
			need++
		}
		if nDst+need > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		if w.pending {
			dst[nDst] = ' '
			nDst++
			w.pending = false
		}
		nDst += utf8.EncodeRune(dst[nDst:], r)
		nSrc += size
		w.seenText = true
	}
	return nDst, nSrc, nil
}

// Reset implements [transform.Transformer.Reset].
func (w *WhitespaceFolder) Reset() {
	*w = WhitespaceFolder{}
}
