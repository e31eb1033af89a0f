package models

import "fmt"

// MatchSource identifies which pipeline stage produced a resolution result.
type MatchSource string

const (
	// MatchSourceExact is a case-insensitive equality hit on a name or alias.
	MatchSourceExact MatchSource = "exact"
	// MatchSourceLearned is a hit on a previously confirmed name mapping.
	MatchSourceLearned MatchSource = "learned"
	// MatchSourceFuzzy is a similarity match against the roster.
	MatchSourceFuzzy MatchSource = "fuzzy"
	// MatchSourceInferred is an LLM disambiguation of an ambiguous name.
	MatchSourceInferred MatchSource = "inferred"
	// MatchSourceVerified is a fuzzy match corroborated by a secondary source.
	MatchSourceVerified MatchSource = "verified"
)

// Valid reports whether s is a known match source.
func (s MatchSource) Valid() bool {
	switch s {
	case MatchSourceExact, MatchSourceLearned, MatchSourceFuzzy, MatchSourceInferred, MatchSourceVerified:
		return true
	}
	return false
}

// AlternativeMatch is a candidate offered for operator review alongside a
// resolution result.
type AlternativeMatch struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// ResolutionResult is the outcome of resolving one transcript name against a
// roster. ResolvedEmail is set if and only if a match was found. Results are
// immutable once constructed.
type ResolutionResult struct {
	Query         string             `json:"query"`
	ResolvedEmail *string            `json:"resolved_email,omitempty"`
	ResolvedName  *string            `json:"resolved_name,omitempty"`
	Confidence    float64            `json:"confidence"`
	Source        MatchSource        `json:"source"`
	Alternatives  []AlternativeMatch `json:"alternatives,omitempty"`
	NeedsReview   bool               `json:"needs_review"`
}

// NewResolutionResult constructs a validated resolution result.
// Confidence outside [0,1] and unknown sources are rejected here so the
// rest of the pipeline never has to re-check.
func NewResolutionResult(query string, email, name *string, confidence float64, source MatchSource, alternatives []AlternativeMatch, needsReview bool) (*ResolutionResult, error) {
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("confidence %v outside [0,1]", confidence)
	}
	if !source.Valid() {
		return nil, fmt.Errorf("unknown match source %q", source)
	}
	if (email == nil) != (name == nil) {
		return nil, fmt.Errorf("resolved email and name must be set together")
	}
	return &ResolutionResult{
		Query:         query,
		ResolvedEmail: email,
		ResolvedName:  name,
		Confidence:    confidence,
		Source:        source,
		Alternatives:  alternatives,
		NeedsReview:   needsReview,
	}, nil
}

// NoMatch returns the terminal "no match, review required" result for query.
func NoMatch(query string, alternatives []AlternativeMatch) *ResolutionResult {
	return &ResolutionResult{
		Query:        query,
		Confidence:   0.0,
		Source:       MatchSourceFuzzy,
		Alternatives: alternatives,
		NeedsReview:  true,
	}
}

// IsResolved reports whether the result carries a match that does not need
// human confirmation.
func (r *ResolutionResult) IsResolved() bool {
	return r.ResolvedEmail != nil && !r.NeedsReview
}
