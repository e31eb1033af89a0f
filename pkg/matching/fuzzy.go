// Package matching implements the deterministic half of identity
// resolution: name similarity scoring against a roster, and the confidence
// model that combines similarity with corroborating evidence.
package matching

import (
	"sort"
	"strings"
	"unicode"

	"github.com/raidscribe/raidscribe-engine/pkg/models"
)

// DefaultThreshold is the minimum token-sort similarity a candidate must
// reach before FindBestMatch reports it.
const DefaultThreshold = 0.85

// Candidate pairs a roster entry with its similarity score for a query.
type Candidate struct {
	Entry *models.RosterEntry
	Score float64
}

// Matcher scores transcript names against a roster. Matching is
// case-insensitive and name-order-insensitive: "Smith, John" and
// "John Smith" score 1.0 against each other.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher with the given acceptance threshold.
// A non-positive threshold falls back to DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the configured acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// FindBestMatch returns the roster entry whose name or alias scores highest
// against query, with its score. Returns (nil, 0) when the roster is empty
// or no candidate reaches the threshold. Ties between equal scores resolve
// arbitrarily.
func (m *Matcher) FindBestMatch(query string, roster []*models.RosterEntry) (*models.RosterEntry, float64) {
	var best *models.RosterEntry
	bestScore := 0.0

	for _, entry := range roster {
		score := m.entryScore(query, entry)
		if score > bestScore {
			bestScore = score
			best = entry
		}
	}

	if best == nil || bestScore < m.threshold {
		return nil, 0.0
	}
	return best, bestScore
}

// FindTopMatches returns up to limit candidates ordered by descending score,
// regardless of the threshold. Each person appears at most once: an entry's
// name and aliases contribute a single candidate at the best of their
// scores, keyed by email.
func (m *Matcher) FindTopMatches(query string, roster []*models.RosterEntry, limit int) []Candidate {
	if limit <= 0 || len(roster) == 0 {
		return nil
	}

	candidates := make([]Candidate, 0, len(roster))
	for _, entry := range roster {
		candidates = append(candidates, Candidate{Entry: entry, Score: m.entryScore(query, entry)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// entryScore is the best token-sort similarity between query and any of the
// entry's surface forms.
func (m *Matcher) entryScore(query string, entry *models.RosterEntry) float64 {
	best := TokenSortRatio(query, entry.Name)
	for _, alias := range entry.Aliases {
		if score := TokenSortRatio(query, alias); score > best {
			best = score
		}
	}
	return best
}

// TokenSortRatio computes a name-order-insensitive similarity in [0,1]:
// both strings are lowercased, tokenized on whitespace and punctuation,
// token-sorted, rejoined, and compared by Levenshtein ratio.
func TokenSortRatio(a, b string) float64 {
	na := normalizeTokenSort(a)
	nb := normalizeTokenSort(b)

	if na == "" && nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}

	longest := len(na)
	if len(nb) > longest {
		longest = len(nb)
	}
	return 1.0 - float64(levenshteinDistance(na, nb))/float64(longest)
}

// normalizeTokenSort lowercases, splits on anything that is not a letter or
// digit, sorts the tokens, and rejoins with single spaces.
func normalizeTokenSort(s string) string {
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// levenshteinDistance calculates the edit distance between two strings
// using a two-row DP table.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			curr[j] = minInt(
				curr[j-1]+1,    // insertion
				prev[j]+1,      // deletion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

// minInt returns the minimum of three integers.
func minInt(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
