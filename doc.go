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

// Package transmem combines a translation memory and a terminology glossary
// with a machine translation provider.
//
// A data directory holds both stores:
//
//	<dir>/tm/translation_memory.json
//	<dir>/glossaries/glossary.json
//
// A Translator first looks for a fuzzy match in the translation memory. If
// there is none it asks the provider, applies the glossary for the requested
// domain and records the result in the translation memory.
package transmem
