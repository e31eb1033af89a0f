package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/raidscribe/raidscribe-engine/pkg/database"
	"github.com/raidscribe/raidscribe-engine/pkg/models"
)

// NameMappingRepository provides data access for human-confirmed name
// corrections. The (project_id, transcript_name) pair is unique; saving an
// existing pair overwrites it.
type NameMappingRepository interface {
	// Get returns the mapping for (projectID, transcriptName), or nil if
	// none exists. The lookup is case-sensitive on the verbatim name.
	Get(ctx context.Context, projectID uuid.UUID, transcriptName string) (*models.NameMapping, error)
	// Upsert saves a mapping, overwriting email, canonical name, creator
	// and timestamp on conflict.
	Upsert(ctx context.Context, mapping *models.NameMapping) error
	// Delete removes a mapping, reporting whether a row existed.
	Delete(ctx context.Context, projectID uuid.UUID, transcriptName string) (bool, error)
	// GetByProject returns all mappings for a project ordered by
	// transcript name.
	GetByProject(ctx context.Context, projectID uuid.UUID) ([]*models.NameMapping, error)
}

// nameMappingRepository implements NameMappingRepository using PostgreSQL.
type nameMappingRepository struct {
	db *database.DB
}

// NewNameMappingRepository creates a new NameMappingRepository.
func NewNameMappingRepository(db *database.DB) NameMappingRepository {
	return &nameMappingRepository{db: db}
}

var _ NameMappingRepository = (*nameMappingRepository)(nil)

func (r *nameMappingRepository) Get(ctx context.Context, projectID uuid.UUID, transcriptName string) (*models.NameMapping, error) {
	query := `
		SELECT id, project_id, transcript_name, email, canonical_name, created_by, created_at, updated_at
		FROM engine_name_mappings
		WHERE project_id = $1 AND transcript_name = $2`

	row := r.db.QueryRow(ctx, query, projectID, transcriptName)
	mapping, err := scanNameMapping(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, err
	}
	return mapping, nil
}

func (r *nameMappingRepository) Upsert(ctx context.Context, mapping *models.NameMapping) error {
	now := time.Now()
	mapping.UpdatedAt = now
	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
		mapping.CreatedAt = now
	}

	// A single statement keeps the upsert atomic per key: concurrent
	// writers on the same (project_id, transcript_name) resolve
	// last-write-wins without mixed field combinations.
	query := `
		INSERT INTO engine_name_mappings (
			id, project_id, transcript_name, email, canonical_name, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (project_id, transcript_name)
		DO UPDATE SET
			email = EXCLUDED.email,
			canonical_name = EXCLUDED.canonical_name,
			created_by = EXCLUDED.created_by,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		mapping.ID, mapping.ProjectID, mapping.TranscriptName, mapping.Email,
		mapping.CanonicalName, mapping.CreatedBy, mapping.CreatedAt, mapping.UpdatedAt,
	).Scan(&mapping.ID, &mapping.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert name mapping: %w", err)
	}

	return nil
}

func (r *nameMappingRepository) Delete(ctx context.Context, projectID uuid.UUID, transcriptName string) (bool, error) {
	query := `DELETE FROM engine_name_mappings WHERE project_id = $1 AND transcript_name = $2`

	result, err := r.db.Exec(ctx, query, projectID, transcriptName)
	if err != nil {
		return false, fmt.Errorf("failed to delete name mapping: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *nameMappingRepository) GetByProject(ctx context.Context, projectID uuid.UUID) ([]*models.NameMapping, error) {
	query := `
		SELECT id, project_id, transcript_name, email, canonical_name, created_by, created_at, updated_at
		FROM engine_name_mappings
		WHERE project_id = $1
		ORDER BY transcript_name`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get name mappings: %w", err)
	}
	defer rows.Close()

	mappings := make([]*models.NameMapping, 0)
	for rows.Next() {
		m, err := scanNameMapping(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating name mappings: %w", err)
	}

	return mappings, nil
}

func scanNameMapping(row pgx.Row) (*models.NameMapping, error) {
	var m models.NameMapping

	err := row.Scan(
		&m.ID, &m.ProjectID, &m.TranscriptName, &m.Email, &m.CanonicalName,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan name mapping: %w", err)
	}

	return &m, nil
}
