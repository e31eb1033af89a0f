package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/raidscribe/raidscribe-engine/pkg/llm"
	"github.com/raidscribe/raidscribe-engine/pkg/matching"
	"github.com/raidscribe/raidscribe-engine/pkg/models"
	"github.com/raidscribe/raidscribe-engine/pkg/prompts"
)

// InferenceConfidenceCap is the ceiling on LLM-inferred confidence.
// Reasoning-based inference counts as a single evidence source and is never
// fully trusted without independent corroboration.
const InferenceConfidenceCap = 0.85

// inferenceTemperature keeps disambiguation output near-deterministic.
const inferenceTemperature = 0.2

// NameInferenceService disambiguates transcript names that fuzzy matching
// could not confidently resolve (nicknames, initials, heavy misspellings).
// InferMatch always returns a usable result: every failure mode of the
// underlying LLM call degrades to "no match, review required".
type NameInferenceService interface {
	InferMatch(ctx context.Context, transcriptName string, roster []*models.RosterEntry, candidates []matching.Candidate) *models.ResolutionResult
}

type nameInferenceService struct {
	llmClient       llm.Client
	timeout         time.Duration
	reviewThreshold float64
	logger          *zap.Logger
}

// NewNameInferenceService creates a new NameInferenceService. The timeout
// bounds each LLM call; reviewThreshold marks results below it for human
// review.
func NewNameInferenceService(llmClient llm.Client, timeout time.Duration, reviewThreshold float64, logger *zap.Logger) NameInferenceService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &nameInferenceService{
		llmClient:       llmClient,
		timeout:         timeout,
		reviewThreshold: reviewThreshold,
		logger:          logger.Named("name-inference"),
	}
}

var _ NameInferenceService = (*nameInferenceService)(nil)

// nameInferenceResponse is the JSON contract the LLM is constrained to.
// Parsed and validated once at this boundary; nothing downstream re-checks.
type nameInferenceResponse struct {
	Email      string  `json:"email"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

func (s *nameInferenceService) InferMatch(ctx context.Context, transcriptName string, roster []*models.RosterEntry, candidates []matching.Candidate) *models.ResolutionResult {
	alternatives := alternativesFromCandidates(candidates, "")

	promptCandidates := make([]prompts.NameCandidate, 0, len(candidates))
	for _, c := range candidates {
		promptCandidates = append(promptCandidates, prompts.NameCandidate{
			Name:  c.Entry.Name,
			Email: c.Entry.Email,
			Score: c.Score,
		})
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := prompts.BuildNameResolutionPrompt(transcriptName, roster, promptCandidates)
	response, err := s.llmClient.GenerateResponse(callCtx, prompt, prompts.NameResolutionSystemMessage(), inferenceTemperature)
	if err != nil {
		s.logger.Warn("Name inference call failed",
			zap.String("name", transcriptName),
			zap.Error(err))
		return noMatchResult(transcriptName, alternatives)
	}

	parsed, err := llm.ParseJSONResponse[nameInferenceResponse](response)
	if err != nil {
		s.logger.Warn("Name inference returned unparseable output",
			zap.String("name", transcriptName),
			zap.Error(err))
		return noMatchResult(transcriptName, alternatives)
	}

	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		s.logger.Warn("Name inference returned out-of-range confidence",
			zap.String("name", transcriptName),
			zap.Float64("confidence", parsed.Confidence))
		return noMatchResult(transcriptName, alternatives)
	}

	if parsed.Email == "" {
		return noMatchResult(transcriptName, alternatives)
	}

	// The canonical name comes from the roster, never from the model, so an
	// inferred email outside the roster is rejected rather than trusted.
	entry := models.FindByEmail(roster, parsed.Email)
	if entry == nil {
		s.logger.Warn("Name inference returned email not on roster",
			zap.String("name", transcriptName),
			zap.String("email", parsed.Email))
		return noMatchResult(transcriptName, alternatives)
	}

	confidence := parsed.Confidence
	if confidence > InferenceConfidenceCap {
		confidence = InferenceConfidenceCap
	}

	s.logger.Debug("Name inference matched",
		zap.String("name", transcriptName),
		zap.String("email", entry.Email),
		zap.Float64("confidence", confidence),
		zap.String("rationale", parsed.Rationale))

	result, err := models.NewResolutionResult(
		transcriptName,
		&entry.Email,
		&entry.Name,
		confidence,
		models.MatchSourceInferred,
		alternativesFromCandidates(candidates, entry.Email),
		confidence < s.reviewThreshold,
	)
	if err != nil {
		s.logger.Error("Failed to construct inference result", zap.Error(err))
		return noMatchResult(transcriptName, alternatives)
	}
	return result
}

// noMatchResult tags the terminal result with the inferred source so callers
// can tell an attempted-but-failed inference from a plain fuzzy miss.
func noMatchResult(transcriptName string, alternatives []models.AlternativeMatch) *models.ResolutionResult {
	result := models.NoMatch(transcriptName, alternatives)
	result.Source = models.MatchSourceInferred
	return result
}

// alternativesFromCandidates converts fuzzy candidates for operator review,
// omitting excludeEmail (the chosen match, if any).
func alternativesFromCandidates(candidates []matching.Candidate, excludeEmail string) []models.AlternativeMatch {
	alternatives := make([]models.AlternativeMatch, 0, len(candidates))
	for _, c := range candidates {
		if excludeEmail != "" && c.Entry.Email == excludeEmail {
			continue
		}
		alternatives = append(alternatives, models.AlternativeMatch{
			Name:  c.Entry.Name,
			Score: c.Score,
		})
	}
	return alternatives
}
