package models

import (
	"time"

	"github.com/google/uuid"
)

// NameMapping is a human-confirmed correction from a transcript name to a
// canonical identity. Stored in engine_name_mappings, unique per
// (project_id, transcript_name); a later confirmation overwrites the prior
// one. The transcript name is kept verbatim as typed.
type NameMapping struct {
	ID             uuid.UUID `json:"id"`
	ProjectID      uuid.UUID `json:"project_id"`
	TranscriptName string    `json:"transcript_name"`
	Email          string    `json:"email"`
	CanonicalName  string    `json:"canonical_name"`
	CreatedBy      *string   `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
