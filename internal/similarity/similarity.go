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

// Package similarity implements the Ratcliff/Obershelp "gestalt pattern
// matching" similarity ratio.
//
// The matching block search follows the algorithm popularized by Python's
// difflib.SequenceMatcher, including its automatic junk heuristic: when the
// second sequence is at least 200 runes long, runes that make up more than 1%
// of it are not used to seed matches, although matches may still be extended
// across them.
package similarity

// autojunkMin is the length of the second sequence at which popular runes are
// excluded from seeding matches.
const autojunkMin = 200

// Ratio returns a similarity score for a and b in the range [0, 1]. The score
// is 2*M/T where T is the total number of runes in both strings and M is the
// number of runes in the matching blocks found by recursively taking the
// longest common block and matching the pieces to its left and right. Two
// empty strings have a ratio of 1.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	m := newMatcher(ra, rb)
	return 2 * float64(m.matches()) / float64(total)
}

// Bound returns an upper bound on Ratio for strings of la and lb runes.
func Bound(la, lb int) float64 {
	total := la + lb
	if total == 0 {
		return 1
	}
	return 2 * float64(min(la, lb)) / float64(total)
}

type matcher struct {
	a, b []rune

	// b2j maps each rune in b to the ascending list of its positions.
	b2j map[rune][]int
}

func newMatcher(a, b []rune) *matcher {
	b2j := make(map[rune][]int)
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	if n := len(b); n >= autojunkMin {
		ntest := n/100 + 1
		for r, pos := range b2j {
			if len(pos) > ntest {
				delete(b2j, r)
			}
		}
	}

	return &matcher{
		a:   a,
		b:   b,
		b2j: b2j,
	}
}

// longest finds the longest matching block in a[alo:ahi] and b[blo:bhi]. Ties
// are broken by the earliest start in a and then in b.
func (m *matcher) longest(alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestk := alo, blo, 0

	// j2len[j] is the length of the match ending at a[i-1] and b[j].
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}

	// Extend the block over runes that were excluded from b2j.
	for besti > alo && bestj > blo && m.a[besti-1] == m.b[bestj-1] {
		besti, bestj, bestk = besti-1, bestj-1, bestk+1
	}
	for besti+bestk < ahi && bestj+bestk < bhi && m.a[besti+bestk] == m.b[bestj+bestk] {
		bestk++
	}

	return besti, bestj, bestk
}

// matches returns the total size of all matching blocks.
func (m *matcher) matches() int {
	type span struct {
		alo, ahi, blo, bhi int
	}

	total := 0
	queue := []span{{0, len(m.a), 0, len(m.b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := m.longest(s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		total += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return total
}
