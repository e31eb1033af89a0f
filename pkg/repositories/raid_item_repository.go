package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/raidscribe/raidscribe-engine/pkg/apperrors"
	"github.com/raidscribe/raidscribe-engine/pkg/database"
	"github.com/raidscribe/raidscribe-engine/pkg/models"
)

// RAIDItemRepository provides data access for extracted RAID items.
type RAIDItemRepository interface {
	Create(ctx context.Context, item *models.RAIDItem) error
	GetByProject(ctx context.Context, projectID uuid.UUID) ([]*models.RAIDItem, error)
	GetByType(ctx context.Context, projectID uuid.UUID, itemType models.RAIDType) ([]*models.RAIDItem, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.RAIDStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// raidItemRepository implements RAIDItemRepository using PostgreSQL.
type raidItemRepository struct {
	db *database.DB
}

// NewRAIDItemRepository creates a new RAIDItemRepository.
func NewRAIDItemRepository(db *database.DB) RAIDItemRepository {
	return &raidItemRepository{db: db}
}

var _ RAIDItemRepository = (*raidItemRepository)(nil)

func (r *raidItemRepository) Create(ctx context.Context, item *models.RAIDItem) error {
	if !item.Type.Valid() {
		return fmt.Errorf("%w: raid type %q", apperrors.ErrInvalidArgument, item.Type)
	}
	if item.Status == "" {
		item.Status = models.RAIDStatusOpen
	}

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	query := `
		INSERT INTO engine_raid_items (
			id, project_id, item_type, title, description, severity, status,
			owner_name, owner_email, due_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	var severity *string
	if item.Severity != "" {
		s := string(item.Severity)
		severity = &s
	}

	_, err := r.db.Exec(ctx, query,
		item.ID, item.ProjectID, item.Type, item.Title, nullable(item.Description),
		severity, item.Status, nullable(item.OwnerName), item.OwnerEmail,
		item.DueDate, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create raid item: %w", err)
	}

	return nil
}

func (r *raidItemRepository) GetByProject(ctx context.Context, projectID uuid.UUID) ([]*models.RAIDItem, error) {
	query := selectRAIDItems + ` WHERE project_id = $1 ORDER BY created_at, id`
	return r.queryItems(ctx, query, projectID)
}

func (r *raidItemRepository) GetByType(ctx context.Context, projectID uuid.UUID, itemType models.RAIDType) ([]*models.RAIDItem, error) {
	query := selectRAIDItems + ` WHERE project_id = $1 AND item_type = $2 ORDER BY created_at, id`
	return r.queryItems(ctx, query, projectID, itemType)
}

func (r *raidItemRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RAIDStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: raid status %q", apperrors.ErrInvalidArgument, status)
	}

	query := `UPDATE engine_raid_items SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update raid item status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *raidItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM engine_raid_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete raid item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

const selectRAIDItems = `
	SELECT id, project_id, item_type, title, description, severity, status,
	       owner_name, owner_email, due_date, created_at, updated_at
	FROM engine_raid_items`

func (r *raidItemRepository) queryItems(ctx context.Context, query string, args ...any) ([]*models.RAIDItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get raid items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.RAIDItem, 0)
	for rows.Next() {
		item, err := scanRAIDItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raid items: %w", err)
	}

	return items, nil
}

func scanRAIDItem(rows pgx.Rows) (*models.RAIDItem, error) {
	var item models.RAIDItem
	var description, severity, ownerName *string

	err := rows.Scan(
		&item.ID, &item.ProjectID, &item.Type, &item.Title, &description,
		&severity, &item.Status, &ownerName, &item.OwnerEmail,
		&item.DueDate, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan raid item: %w", err)
	}

	if description != nil {
		item.Description = *description
	}
	if severity != nil {
		item.Severity = models.RAIDSeverity(*severity)
	}
	if ownerName != nil {
		item.OwnerName = *ownerName
	}

	return &item, nil
}

// nullable maps an empty string to NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
