package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/raidscribe/raidscribe-engine/pkg/apperrors"
	"github.com/raidscribe/raidscribe-engine/pkg/models"
	"github.com/raidscribe/raidscribe-engine/pkg/services"
)

// mockResolverForHandler implements services.IdentityResolverService.
type mockResolverForHandler struct {
	results    []*models.ResolutionResult
	resolveErr error
	learnErr   error
	learned    []string
}

func (m *mockResolverForHandler) Resolve(ctx context.Context, projectID uuid.UUID, transcriptName string, roster []*models.RosterEntry, opts *services.ResolveOptions) *models.ResolutionResult {
	if len(m.results) > 0 {
		return m.results[0]
	}
	return models.NoMatch(transcriptName, nil)
}

func (m *mockResolverForHandler) ResolveAll(ctx context.Context, projectID uuid.UUID, names []string, roster []*models.RosterEntry, opts *services.ResolveOptions) ([]*models.ResolutionResult, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	return m.results, nil
}

func (m *mockResolverForHandler) LearnMapping(ctx context.Context, projectID uuid.UUID, transcriptName, email, canonicalName string, createdBy *string) error {
	if m.learnErr != nil {
		return m.learnErr
	}
	m.learned = append(m.learned, transcriptName)
	return nil
}

// mockMappingRepoForHandler implements repositories.NameMappingRepository.
type mockMappingRepoForHandler struct {
	mappings []*models.NameMapping
	listErr  error
	deleted  bool
}

func (m *mockMappingRepoForHandler) Get(ctx context.Context, projectID uuid.UUID, transcriptName string) (*models.NameMapping, error) {
	return nil, nil
}

func (m *mockMappingRepoForHandler) Upsert(ctx context.Context, mapping *models.NameMapping) error {
	return nil
}

func (m *mockMappingRepoForHandler) Delete(ctx context.Context, projectID uuid.UUID, transcriptName string) (bool, error) {
	return m.deleted, nil
}

func (m *mockMappingRepoForHandler) GetByProject(ctx context.Context, projectID uuid.UUID) ([]*models.NameMapping, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.mappings, nil
}

// mockRosterSource implements roster.Source.
type mockRosterSource struct {
	entries []*models.RosterEntry
	loadErr error
	loaded  []string
}

func (m *mockRosterSource) Load(ctx context.Context, rosterID string) ([]*models.RosterEntry, error) {
	m.loaded = append(m.loaded, rosterID)
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.entries, nil
}

func newResolutionTestServer(resolver *mockResolverForHandler, repo *mockMappingRepoForHandler, source *mockRosterSource) *httptest.Server {
	handler := NewResolutionHandler(resolver, repo, source, zap.NewNop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func resolvedResult(query, email, name string) *models.ResolutionResult {
	return &models.ResolutionResult{
		Query:         query,
		ResolvedEmail: &email,
		ResolvedName:  &name,
		Confidence:    1.0,
		Source:        models.MatchSourceExact,
	}
}

func TestResolutionHandler_Resolve(t *testing.T) {
	resolver := &mockResolverForHandler{
		results: []*models.ResolutionResult{
			resolvedResult("Bob", "robert.williams@example.com", "Robert Williams"),
		},
	}
	source := &mockRosterSource{entries: []*models.RosterEntry{{Name: "Robert Williams", Email: "robert.williams@example.com"}}}
	server := newResolutionTestServer(resolver, &mockMappingRepoForHandler{}, source)
	defer server.Close()

	body, _ := json.Marshal(ResolveRequest{Names: []string{"Bob"}, RosterID: "team-alpha"})
	resp, err := http.Post(
		fmt.Sprintf("%s/api/projects/%s/resolutions", server.URL, uuid.New()),
		"application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"team-alpha"}, source.loaded)

	var envelope struct {
		Success bool            `json:"success"`
		Data    ResolveResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.True(t, envelope.Success)
	require.Equal(t, 1, envelope.Data.Total)
	assert.Equal(t, "Bob", envelope.Data.Results[0].Query)
}

func TestResolutionHandler_Resolve_MissingNames(t *testing.T) {
	server := newResolutionTestServer(&mockResolverForHandler{}, &mockMappingRepoForHandler{}, &mockRosterSource{})
	defer server.Close()

	body, _ := json.Marshal(ResolveRequest{RosterID: "team-alpha"})
	resp, err := http.Post(
		fmt.Sprintf("%s/api/projects/%s/resolutions", server.URL, uuid.New()),
		"application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResolutionHandler_Resolve_InvalidProjectID(t *testing.T) {
	server := newResolutionTestServer(&mockResolverForHandler{}, &mockMappingRepoForHandler{}, &mockRosterSource{})
	defer server.Close()

	body, _ := json.Marshal(ResolveRequest{Names: []string{"Bob"}, RosterID: "team-alpha"})
	resp, err := http.Post(server.URL+"/api/projects/not-a-uuid/resolutions",
		"application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResolutionHandler_Resolve_UnknownRoster(t *testing.T) {
	source := &mockRosterSource{loadErr: fmt.Errorf("roster %q: %w", "ghost", apperrors.ErrNotFound)}
	server := newResolutionTestServer(&mockResolverForHandler{}, &mockMappingRepoForHandler{}, source)
	defer server.Close()

	body, _ := json.Marshal(ResolveRequest{Names: []string{"Bob"}, RosterID: "ghost"})
	resp, err := http.Post(
		fmt.Sprintf("%s/api/projects/%s/resolutions", server.URL, uuid.New()),
		"application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResolutionHandler_ConfirmMapping(t *testing.T) {
	resolver := &mockResolverForHandler{}
	server := newResolutionTestServer(resolver, &mockMappingRepoForHandler{}, &mockRosterSource{})
	defer server.Close()

	body, _ := json.Marshal(ConfirmMappingRequest{
		TranscriptName: "Chuckles",
		Email:          "robert.williams@example.com",
		CanonicalName:  "Robert Williams",
	})
	resp, err := http.Post(
		fmt.Sprintf("%s/api/projects/%s/mappings", server.URL, uuid.New()),
		"application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{"Chuckles"}, resolver.learned)
}

func TestResolutionHandler_ConfirmMapping_MissingFields(t *testing.T) {
	server := newResolutionTestServer(&mockResolverForHandler{}, &mockMappingRepoForHandler{}, &mockRosterSource{})
	defer server.Close()

	body, _ := json.Marshal(ConfirmMappingRequest{TranscriptName: "Chuckles"})
	resp, err := http.Post(
		fmt.Sprintf("%s/api/projects/%s/mappings", server.URL, uuid.New()),
		"application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResolutionHandler_ListMappings(t *testing.T) {
	repo := &mockMappingRepoForHandler{
		mappings: []*models.NameMapping{
			{ID: uuid.New(), TranscriptName: "Chuckles", Email: "robert.williams@example.com", CanonicalName: "Robert Williams"},
		},
	}
	server := newResolutionTestServer(&mockResolverForHandler{}, repo, &mockRosterSource{})
	defer server.Close()

	resp, err := http.Get(fmt.Sprintf("%s/api/projects/%s/mappings", server.URL, uuid.New()))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool                `json:"success"`
		Data    MappingListResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, 1, envelope.Data.Total)
	assert.Equal(t, "Chuckles", envelope.Data.Mappings[0].TranscriptName)
}

func TestResolutionHandler_ListMappings_Error(t *testing.T) {
	repo := &mockMappingRepoForHandler{listErr: errors.New("database down")}
	server := newResolutionTestServer(&mockResolverForHandler{}, repo, &mockRosterSource{})
	defer server.Close()

	resp, err := http.Get(fmt.Sprintf("%s/api/projects/%s/mappings", server.URL, uuid.New()))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestResolutionHandler_DeleteMapping(t *testing.T) {
	repo := &mockMappingRepoForHandler{deleted: true}
	server := newResolutionTestServer(&mockResolverForHandler{}, repo, &mockRosterSource{})
	defer server.Close()

	req, _ := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/api/projects/%s/mappings/Chuckles", server.URL, uuid.New()), nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResolutionHandler_DeleteMapping_NotFound(t *testing.T) {
	repo := &mockMappingRepoForHandler{deleted: false}
	server := newResolutionTestServer(&mockResolverForHandler{}, repo, &mockRosterSource{})
	defer server.Close()

	req, _ := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/api/projects/%s/mappings/Nobody", server.URL, uuid.New()), nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
