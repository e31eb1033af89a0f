package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/raidscribe/raidscribe-engine/pkg/matching"
	"github.com/raidscribe/raidscribe-engine/pkg/models"
	"github.com/raidscribe/raidscribe-engine/pkg/repositories"
	"github.com/raidscribe/raidscribe-engine/pkg/verify"
)

// learnedConfidence is the fixed confidence for human-confirmed mappings:
// high, but below certainty, since the confirmation may itself have been a
// judgment call.
const learnedConfidence = 0.95

// ResolveOptions carries optional per-call parameters for secondary-source
// checks. When CalendarID or EventID is empty the attendance check is
// skipped, not failed.
type ResolveOptions struct {
	CalendarID string
	EventID    string
}

// ResolverConfig tunes the staged pipeline. Zero values fall back to the
// stated defaults.
type ResolverConfig struct {
	FuzzyThreshold  float64       // minimum fuzzy score to accept a match (default 0.85)
	ReviewThreshold float64       // below this, results need human review (default 0.85)
	MaxAlternatives int           // top-K alternatives computed per name (default 3)
	Concurrency     int           // max names resolved concurrently in a batch (default 4)
	VerifyTimeout   time.Duration // bound on each secondary-source check (default 10s)
}

func (c ResolverConfig) withDefaults() ResolverConfig {
	if c.FuzzyThreshold <= 0 {
		c.FuzzyThreshold = matching.DefaultThreshold
	}
	if c.ReviewThreshold <= 0 {
		c.ReviewThreshold = 0.85
	}
	if c.MaxAlternatives <= 0 {
		c.MaxAlternatives = 3
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.VerifyTimeout <= 0 {
		c.VerifyTimeout = 10 * time.Second
	}
	return c
}

// IdentityResolverService resolves transcript names against a roster
// through a staged pipeline: exact match, learned mapping, fuzzy match with
// secondary-source corroboration, LLM inference, then no-match. Every stage
// failure degrades to the next stage; a resolution call always produces a
// result for every input name.
type IdentityResolverService interface {
	// Resolve runs the staged pipeline for a single transcript name.
	Resolve(ctx context.Context, projectID uuid.UUID, transcriptName string, roster []*models.RosterEntry, opts *ResolveOptions) *models.ResolutionResult

	// ResolveAll resolves each name independently and returns results in
	// input order. The only error is context cancellation.
	ResolveAll(ctx context.Context, projectID uuid.UUID, names []string, roster []*models.RosterEntry, opts *ResolveOptions) ([]*models.ResolutionResult, error)

	// LearnMapping persists a human-confirmed correction, overwriting any
	// prior confirmation for the same (project, transcript name).
	LearnMapping(ctx context.Context, projectID uuid.UUID, transcriptName, email, canonicalName string, createdBy *string) error
}

type identityResolverService struct {
	mappingRepo repositories.NameMappingRepository
	matcher     *matching.Matcher
	inference   NameInferenceService // nil when no inference capability is configured
	membership  verify.MembershipVerifier
	attendance  verify.AttendanceVerifier
	cfg         ResolverConfig
	logger      *zap.Logger
}

// NewIdentityResolverService creates a resolver. The inference service and
// both verifiers are optional; pass nil to disable those stages.
func NewIdentityResolverService(
	mappingRepo repositories.NameMappingRepository,
	inference NameInferenceService,
	membership verify.MembershipVerifier,
	attendance verify.AttendanceVerifier,
	cfg ResolverConfig,
	logger *zap.Logger,
) IdentityResolverService {
	cfg = cfg.withDefaults()
	return &identityResolverService{
		mappingRepo: mappingRepo,
		matcher:     matching.NewMatcher(cfg.FuzzyThreshold),
		inference:   inference,
		membership:  membership,
		attendance:  attendance,
		cfg:         cfg,
		logger:      logger.Named("identity-resolver"),
	}
}

var _ IdentityResolverService = (*identityResolverService)(nil)

func (s *identityResolverService) Resolve(ctx context.Context, projectID uuid.UUID, transcriptName string, roster []*models.RosterEntry, opts *ResolveOptions) *models.ResolutionResult {
	// Stage 1: exact match on any surface form. Terminal; no verification.
	if result := s.resolveExact(transcriptName, roster); result != nil {
		return result
	}

	// Stage 2: learned mapping, keyed by the verbatim name as typed.
	// Terminal on hit; lookup failures degrade to the next stage.
	if result := s.resolveLearned(ctx, projectID, transcriptName); result != nil {
		return result
	}

	// Stage 3: fuzzy match. Alternatives are always computed: they feed
	// both the inference stage and the final no-match response.
	candidates := s.matcher.FindTopMatches(transcriptName, roster, s.cfg.MaxAlternatives)
	if result := s.resolveFuzzy(ctx, transcriptName, roster, candidates, opts); result != nil {
		return result
	}

	// Stage 4: LLM inference, only when configured and fuzzy produced
	// candidates worth reasoning about.
	if s.inference != nil && len(candidates) > 0 {
		if result := s.inference.InferMatch(ctx, transcriptName, roster, candidates); result.ResolvedEmail != nil {
			return result
		}
	}

	// Stage 5: no match.
	return models.NoMatch(transcriptName, alternativesFromCandidates(candidates, ""))
}

func (s *identityResolverService) ResolveAll(ctx context.Context, projectID uuid.UUID, names []string, roster []*models.RosterEntry, opts *ResolveOptions) ([]*models.ResolutionResult, error) {
	results := make([]*models.ResolutionResult, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.Resolve(gctx, projectID, name, roster, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *identityResolverService) LearnMapping(ctx context.Context, projectID uuid.UUID, transcriptName, email, canonicalName string, createdBy *string) error {
	mapping := &models.NameMapping{
		ProjectID:      projectID,
		TranscriptName: transcriptName,
		Email:          email,
		CanonicalName:  canonicalName,
		CreatedBy:      createdBy,
	}
	if err := s.mappingRepo.Upsert(ctx, mapping); err != nil {
		return err
	}

	s.logger.Info("Learned name mapping",
		zap.String("project_id", projectID.String()),
		zap.String("transcript_name", transcriptName),
		zap.String("email", email))
	return nil
}

// resolveExact returns a terminal result when the trimmed name equals any
// entry's name or alias, case-insensitively.
func (s *identityResolverService) resolveExact(transcriptName string, roster []*models.RosterEntry) *models.ResolutionResult {
	trimmed := strings.TrimSpace(transcriptName)
	for _, entry := range roster {
		for _, form := range entry.SurfaceForms() {
			if strings.EqualFold(trimmed, strings.TrimSpace(form)) {
				return &models.ResolutionResult{
					Query:         transcriptName,
					ResolvedEmail: &entry.Email,
					ResolvedName:  &entry.Name,
					Confidence:    1.0,
					Source:        models.MatchSourceExact,
					NeedsReview:   false,
				}
			}
		}
	}
	return nil
}

func (s *identityResolverService) resolveLearned(ctx context.Context, projectID uuid.UUID, transcriptName string) *models.ResolutionResult {
	if s.mappingRepo == nil {
		return nil
	}

	mapping, err := s.mappingRepo.Get(ctx, projectID, transcriptName)
	if err != nil {
		s.logger.Warn("Learned mapping lookup failed; continuing pipeline",
			zap.String("transcript_name", transcriptName),
			zap.Error(err))
		return nil
	}
	if mapping == nil {
		return nil
	}

	return &models.ResolutionResult{
		Query:         transcriptName,
		ResolvedEmail: &mapping.Email,
		ResolvedName:  &mapping.CanonicalName,
		Confidence:    learnedConfidence,
		Source:        models.MatchSourceLearned,
		NeedsReview:   false,
	}
}

// resolveFuzzy returns a result when the best fuzzy match clears the
// threshold, applying the confidence model with any secondary-source
// corroboration. Returns nil to fall through.
func (s *identityResolverService) resolveFuzzy(ctx context.Context, transcriptName string, roster []*models.RosterEntry, candidates []matching.Candidate, opts *ResolveOptions) *models.ResolutionResult {
	best, score := s.matcher.FindBestMatch(transcriptName, roster)
	if best == nil {
		return nil
	}

	flags, corroborated := s.runSecondaryChecks(ctx, best.Email, opts)
	confidence := matching.CalculateConfidence(score, true, flags...)

	source := models.MatchSourceFuzzy
	if corroborated {
		source = models.MatchSourceVerified
	}

	return &models.ResolutionResult{
		Query:         transcriptName,
		ResolvedEmail: &best.Email,
		ResolvedName:  &best.Name,
		Confidence:    confidence,
		Source:        source,
		Alternatives:  alternativesFromCandidates(candidates, best.Email),
		NeedsReview:   confidence < s.cfg.ReviewThreshold,
	}
}

// runSecondaryChecks consults the configured verifiers for the candidate
// email. A verifier that is absent, missing parameters, erroring, or timing
// out contributes no evidence; only a positive answer counts.
func (s *identityResolverService) runSecondaryChecks(ctx context.Context, email string, opts *ResolveOptions) (flags []bool, corroborated bool) {
	if s.membership != nil {
		flags = append(flags, s.checkMembership(ctx, email))
	}
	if s.attendance != nil && opts != nil && opts.CalendarID != "" && opts.EventID != "" {
		flags = append(flags, s.checkAttendance(ctx, email, opts.CalendarID, opts.EventID))
	}

	for _, agreed := range flags {
		if agreed {
			corroborated = true
			break
		}
	}
	return flags, corroborated
}

func (s *identityResolverService) checkMembership(ctx context.Context, email string) bool {
	checkCtx, cancel := context.WithTimeout(ctx, s.cfg.VerifyTimeout)
	defer cancel()

	member, err := s.membership.VerifyMembership(checkCtx, email)
	if err != nil {
		s.logger.Debug("Membership check unavailable; treating as no evidence",
			zap.String("email", email),
			zap.Error(err))
		return false
	}
	return member
}

func (s *identityResolverService) checkAttendance(ctx context.Context, email, calendarID, eventID string) bool {
	checkCtx, cancel := context.WithTimeout(ctx, s.cfg.VerifyTimeout)
	defer cancel()

	attended, err := s.attendance.VerifyAttendance(checkCtx, calendarID, eventID, email)
	if err != nil {
		s.logger.Debug("Attendance check unavailable; treating as no evidence",
			zap.String("email", email),
			zap.Error(err))
		return false
	}
	return attended
}
