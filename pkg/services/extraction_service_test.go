package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/raidscribe/raidscribe-engine/pkg/llm"
	"github.com/raidscribe/raidscribe-engine/pkg/models"
)

// fakeRAIDItemRepo records created items in memory.
type fakeRAIDItemRepo struct {
	mu        sync.Mutex
	created   []*models.RAIDItem
	createErr error
}

func (r *fakeRAIDItemRepo) Create(ctx context.Context, item *models.RAIDItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.created = append(r.created, item)
	return nil
}

func (r *fakeRAIDItemRepo) GetByProject(ctx context.Context, projectID uuid.UUID) ([]*models.RAIDItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RAIDItem
	for _, item := range r.created {
		if item.ProjectID == projectID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeRAIDItemRepo) GetByType(ctx context.Context, projectID uuid.UUID, itemType models.RAIDType) ([]*models.RAIDItem, error) {
	return nil, nil
}

func (r *fakeRAIDItemRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RAIDStatus) error {
	return nil
}

func (r *fakeRAIDItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

const extractionResponse = `{
  "items": [
    {
      "type": "risk",
      "title": "Vendor API deprecation",
      "description": "The payments vendor sunsets v2 in Q4.",
      "severity": "high",
      "owner": "Bob",
      "due_date": "2026-10-01"
    },
    {
      "type": "action",
      "title": "Draft migration plan",
      "owner": "Jane Doe"
    },
    {
      "type": "decision",
      "title": "Stay on Postgres",
      "description": "Re-evaluated the datastore; no change.",
      "owner": ""
    }
  ]
}`

func newExtractionService(t *testing.T, llmResponse string, llmErr error) (RAIDExtractionService, *fakeRAIDItemRepo, *llm.MockClient) {
	t.Helper()

	mockLLM := llm.NewMockClient()
	mockLLM.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
		return llmResponse, llmErr
	}
	repo := &fakeRAIDItemRepo{}
	resolver := newTestResolver(newFakeMappingRepo(), nil, nil, nil)
	return NewRAIDExtractionService(mockLLM, resolver, repo, zap.NewNop()), repo, mockLLM
}

func TestExtractFromTranscript_PersistsItemsAndResolvesOwners(t *testing.T) {
	svc, repo, _ := newExtractionService(t, extractionResponse, nil)
	projectID := uuid.New()

	result, err := svc.ExtractFromTranscript(context.Background(), projectID,
		"Bob: the payments vendor sunsets v2 in Q4...", resolverRoster(), nil)
	require.NoError(t, err)

	require.Len(t, result.Items, 3)
	assert.Equal(t, 0, result.ItemsSkipped)
	assert.Len(t, repo.created, 3)

	risk := result.Items[0]
	assert.Equal(t, models.RAIDTypeRisk, risk.Type)
	assert.Equal(t, "Vendor API deprecation", risk.Title)
	assert.Equal(t, models.RAIDSeverityHigh, risk.Severity)
	assert.Equal(t, models.RAIDStatusOpen, risk.Status)
	assert.Equal(t, "Bob", risk.OwnerName)
	require.NotNil(t, risk.OwnerEmail)
	assert.Equal(t, "robert.williams@example.com", *risk.OwnerEmail)
	require.NotNil(t, risk.DueDate)
	assert.Equal(t, "2026-10-01", risk.DueDate.Format("2006-01-02"))

	action := result.Items[1]
	require.NotNil(t, action.OwnerEmail)
	assert.Equal(t, "jane.doe@example.com", *action.OwnerEmail)
	assert.Nil(t, action.DueDate)

	decision := result.Items[2]
	assert.Empty(t, decision.OwnerName)
	assert.Nil(t, decision.OwnerEmail)
}

func TestExtractFromTranscript_OwnerResolutionMap(t *testing.T) {
	svc, _, _ := newExtractionService(t, extractionResponse, nil)

	result, err := svc.ExtractFromTranscript(context.Background(), uuid.New(),
		"transcript", resolverRoster(), nil)
	require.NoError(t, err)

	require.Len(t, result.OwnerResolution, 2)
	require.Contains(t, result.OwnerResolution, "Bob")
	require.Contains(t, result.OwnerResolution, "Jane Doe")
	assert.Equal(t, 1.0, result.OwnerResolution["Bob"].Confidence)
	assert.Equal(t, models.MatchSourceExact, result.OwnerResolution["Bob"].Source)
}

func TestExtractFromTranscript_UnresolvedOwnerKeepsNameOnly(t *testing.T) {
	response := `{"items": [{"type": "action", "title": "Follow up", "owner": "Mystery Person"}]}`
	svc, repo, _ := newExtractionService(t, response, nil)

	result, err := svc.ExtractFromTranscript(context.Background(), uuid.New(),
		"transcript", resolverRoster(), nil)
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	item := result.Items[0]
	assert.Equal(t, "Mystery Person", item.OwnerName)
	assert.Nil(t, item.OwnerEmail)

	resolution := result.OwnerResolution["Mystery Person"]
	require.NotNil(t, resolution)
	assert.True(t, resolution.NeedsReview)
}

func TestExtractFromTranscript_SkipsInvalidItems(t *testing.T) {
	response := `{
	  "items": [
	    {"type": "blocker", "title": "Unknown category"},
	    {"type": "risk", "title": ""},
	    {"type": "issue", "title": "Flaky deploys", "severity": "urgent"}
	  ]
	}`
	svc, repo, _ := newExtractionService(t, response, nil)

	result, err := svc.ExtractFromTranscript(context.Background(), uuid.New(),
		"transcript", resolverRoster(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ItemsSkipped)
	require.Len(t, result.Items, 1)
	assert.Len(t, repo.created, 1)
	// Unknown severity is dropped, not fatal.
	assert.Equal(t, models.RAIDSeverity(""), result.Items[0].Severity)
}

func TestExtractFromTranscript_EmptyTranscript(t *testing.T) {
	svc, _, mockLLM := newExtractionService(t, extractionResponse, nil)

	_, err := svc.ExtractFromTranscript(context.Background(), uuid.New(), "   ", resolverRoster(), nil)
	require.Error(t, err)
	assert.Equal(t, 0, mockLLM.GenerateResponseCalls)
}

func TestExtractFromTranscript_LLMError(t *testing.T) {
	svc, repo, _ := newExtractionService(t, "", errors.New("model overloaded"))

	_, err := svc.ExtractFromTranscript(context.Background(), uuid.New(),
		"transcript", resolverRoster(), nil)
	require.Error(t, err)
	assert.Empty(t, repo.created)
}

func TestExtractFromTranscript_UnparseableResponse(t *testing.T) {
	svc, repo, _ := newExtractionService(t, "Sure! Here are the items you asked for.", nil)

	_, err := svc.ExtractFromTranscript(context.Background(), uuid.New(),
		"transcript", resolverRoster(), nil)
	require.Error(t, err)
	assert.Empty(t, repo.created)
}

func TestExtractFromTranscript_PersistFailure(t *testing.T) {
	svc, repo, _ := newExtractionService(t, extractionResponse, nil)
	repo.createErr = errors.New("insert failed")

	_, err := svc.ExtractFromTranscript(context.Background(), uuid.New(),
		"transcript", resolverRoster(), nil)
	require.Error(t, err)
}
