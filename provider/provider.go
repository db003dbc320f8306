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

// Package provider implements a client for a machine translation HTTP API
// that accepts a JSON request with the text, the language codes and a
// translation mode and responds with the translated text.
package provider

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStatus indicates that the provider responded with a status other
	// than 200 OK. The concrete error is a *StatusError.
	ErrStatus = errors.New("unexpected provider status")

	// ErrMissingKey indicates that no API key was configured.
	ErrMissingKey = errors.New("missing API key")

	// ErrEmptyTranslation indicates that the provider responded without a
	// translation.
	ErrEmptyTranslation = errors.New("empty translation")
)

// StatusError is returned when the provider responds with an unexpected
// status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: %d", ErrStatus, e.Code)
	}
	return fmt.Sprintf("%v: %d: %s", ErrStatus, e.Code, e.Body)
}

// Is reports whether target is ErrStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// temporary reports whether the request may succeed if repeated.
func (e *StatusError) temporary() bool {
	return e.Code == 429 || e.Code >= 500
}

// Mode is the tone of a translation.
type Mode string

const (
	// ModeFormal is formal register.
	ModeFormal Mode = "formal"

	// ModeModernColloquial is modern everyday register.
	ModeModernColloquial Mode = "modern-colloquial"

	// ModeClassicColloquial is traditional everyday register.
	ModeClassicColloquial Mode = "classic-colloquial"
)

// Modes lists the supported modes.
var Modes = []Mode{
	ModeFormal,
	ModeModernColloquial,
	ModeClassicColloquial,
}

// OutputScriptDefault leaves the output script to the provider.
const OutputScriptDefault = "Default"

// OutputScripts lists the supported output scripts.
var OutputScripts = []string{
	"roman",
	"fully-native",
	"spoken-form-in-native",
}

// Language is a supported language.
type Language struct {
	Code string
	Name string
}

// Languages lists the supported languages.
var Languages = []Language{
	{"en-IN", "English"},
	{"hi-IN", "Hindi"},
	{"bn-IN", "Bengali"},
	{"gu-IN", "Gujarati"},
	{"kn-IN", "Kannada"},
	{"ml-IN", "Malayalam"},
	{"mr-IN", "Marathi"},
	{"od-IN", "Odia"},
	{"pa-IN", "Punjabi"},
	{"ta-IN", "Tamil"},
	{"te-IN", "Telugu"},
}

// LanguageName returns the name of the language with the given code.
func LanguageName(code string) (string, bool) {
	for _, l := range Languages {
		if l.Code == code {
			return l.Name, true
		}
	}
	return "", false
}

// ParseMode returns the Mode named by s. An empty string is ModeFormal.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeFormal, nil
	}
	for _, m := range Modes {
		if string(m) == strings.ToLower(s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Request is a translation request.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string

	// Mode defaults to ModeFormal.
	Mode Mode

	// OutputScript is one of OutputScripts. Empty or OutputScriptDefault
	// leaves the choice to the provider.
	OutputScript string
}
