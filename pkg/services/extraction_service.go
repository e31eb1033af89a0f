package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raidscribe/raidscribe-engine/pkg/llm"
	"github.com/raidscribe/raidscribe-engine/pkg/models"
	"github.com/raidscribe/raidscribe-engine/pkg/prompts"
	"github.com/raidscribe/raidscribe-engine/pkg/repositories"
)

// extractionTemperature balances recall against hallucinated items.
const extractionTemperature = 0.3

// ExtractionResult summarizes one transcript extraction run.
type ExtractionResult struct {
	Items           []*models.RAIDItem                  `json:"items"`
	ItemsSkipped    int                                 `json:"items_skipped"`
	OwnerResolution map[string]*models.ResolutionResult `json:"owner_resolution,omitempty"`
	DurationMs      int64                               `json:"duration_ms"`
}

// RAIDExtractionService extracts Risk/Action/Issue/Decision items from a
// meeting transcript, resolves the owner names it mentions, and persists the
// items.
type RAIDExtractionService interface {
	ExtractFromTranscript(ctx context.Context, projectID uuid.UUID, transcript string, roster []*models.RosterEntry, opts *ResolveOptions) (*ExtractionResult, error)
}

type raidExtractionService struct {
	llmClient llm.Client
	resolver  IdentityResolverService
	raidRepo  repositories.RAIDItemRepository
	logger    *zap.Logger
}

// NewRAIDExtractionService creates a new RAIDExtractionService.
func NewRAIDExtractionService(
	llmClient llm.Client,
	resolver IdentityResolverService,
	raidRepo repositories.RAIDItemRepository,
	logger *zap.Logger,
) RAIDExtractionService {
	return &raidExtractionService{
		llmClient: llmClient,
		resolver:  resolver,
		raidRepo:  raidRepo,
		logger:    logger.Named("raid-extraction"),
	}
}

var _ RAIDExtractionService = (*raidExtractionService)(nil)

// raidExtractionResponse is the JSON contract for transcript extraction.
type raidExtractionResponse struct {
	Items []raidItemPayload `json:"items"`
}

type raidItemPayload struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Owner       string `json:"owner"`
	DueDate     string `json:"due_date"`
}

func (s *raidExtractionService) ExtractFromTranscript(ctx context.Context, projectID uuid.UUID, transcript string, roster []*models.RosterEntry, opts *ResolveOptions) (*ExtractionResult, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript is empty")
	}

	startTime := time.Now()

	response, err := s.llmClient.GenerateResponse(ctx,
		prompts.BuildRAIDExtractionPrompt(transcript),
		prompts.RAIDExtractionSystemMessage(),
		extractionTemperature)
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	parsed, err := llm.ParseJSONResponse[raidExtractionResponse](response)
	if err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}

	result := &ExtractionResult{}
	var ownerNames []string
	seenOwners := make(map[string]bool)

	for _, payload := range parsed.Items {
		item, ok := s.itemFromPayload(projectID, payload)
		if !ok {
			result.ItemsSkipped++
			continue
		}
		result.Items = append(result.Items, item)

		if item.OwnerName != "" && !seenOwners[item.OwnerName] {
			seenOwners[item.OwnerName] = true
			ownerNames = append(ownerNames, item.OwnerName)
		}
	}

	// Resolve all distinct owner mentions in one batch, then stamp emails
	// onto the items whose owner resolved cleanly.
	if len(ownerNames) > 0 {
		resolutions, err := s.resolver.ResolveAll(ctx, projectID, ownerNames, roster, opts)
		if err != nil {
			return nil, fmt.Errorf("resolve owners: %w", err)
		}

		result.OwnerResolution = make(map[string]*models.ResolutionResult, len(resolutions))
		for i, name := range ownerNames {
			result.OwnerResolution[name] = resolutions[i]
		}

		for _, item := range result.Items {
			if resolution, ok := result.OwnerResolution[item.OwnerName]; ok && resolution.IsResolved() {
				item.OwnerEmail = resolution.ResolvedEmail
			}
		}
	}

	for _, item := range result.Items {
		if err := s.raidRepo.Create(ctx, item); err != nil {
			return nil, fmt.Errorf("store raid item %q: %w", item.Title, err)
		}
	}

	result.DurationMs = time.Since(startTime).Milliseconds()

	s.logger.Info("Transcript extraction complete",
		zap.String("project_id", projectID.String()),
		zap.Int("items", len(result.Items)),
		zap.Int("skipped", result.ItemsSkipped),
		zap.Int("owners", len(ownerNames)),
		zap.Int64("duration_ms", result.DurationMs))

	return result, nil
}

// itemFromPayload validates one extracted item at the LLM boundary. Items
// with an unknown type or empty title are dropped, not fatal.
func (s *raidExtractionService) itemFromPayload(projectID uuid.UUID, payload raidItemPayload) (*models.RAIDItem, bool) {
	itemType := models.RAIDType(strings.ToLower(strings.TrimSpace(payload.Type)))
	title := strings.TrimSpace(payload.Title)

	if !itemType.Valid() || title == "" {
		s.logger.Warn("Dropping invalid extracted item",
			zap.String("type", payload.Type),
			zap.String("title", payload.Title))
		return nil, false
	}

	item := &models.RAIDItem{
		ProjectID:   projectID,
		Type:        itemType,
		Title:       title,
		Description: strings.TrimSpace(payload.Description),
		Status:      models.RAIDStatusOpen,
		OwnerName:   strings.TrimSpace(payload.Owner),
	}

	if severity := models.RAIDSeverity(strings.ToLower(strings.TrimSpace(payload.Severity))); severity.Valid() {
		item.Severity = severity
	}

	if payload.DueDate != "" {
		if due, err := time.Parse("2006-01-02", strings.TrimSpace(payload.DueDate)); err == nil {
			item.DueDate = &due
		}
	}

	return item, true
}
