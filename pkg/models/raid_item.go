package models

import (
	"time"

	"github.com/google/uuid"
)

// RAIDType classifies an extracted project-management item.
type RAIDType string

const (
	RAIDTypeRisk     RAIDType = "risk"
	RAIDTypeAction   RAIDType = "action"
	RAIDTypeIssue    RAIDType = "issue"
	RAIDTypeDecision RAIDType = "decision"
)

// Valid reports whether t is a known RAID type.
func (t RAIDType) Valid() bool {
	switch t {
	case RAIDTypeRisk, RAIDTypeAction, RAIDTypeIssue, RAIDTypeDecision:
		return true
	}
	return false
}

// RAIDSeverity grades risks and issues.
type RAIDSeverity string

const (
	RAIDSeverityLow      RAIDSeverity = "low"
	RAIDSeverityMedium   RAIDSeverity = "medium"
	RAIDSeverityHigh     RAIDSeverity = "high"
	RAIDSeverityCritical RAIDSeverity = "critical"
)

// Valid reports whether s is a known severity.
func (s RAIDSeverity) Valid() bool {
	switch s {
	case RAIDSeverityLow, RAIDSeverityMedium, RAIDSeverityHigh, RAIDSeverityCritical:
		return true
	}
	return false
}

// RAIDStatus tracks the lifecycle of an item after extraction.
type RAIDStatus string

const (
	RAIDStatusOpen     RAIDStatus = "open"
	RAIDStatusTracking RAIDStatus = "tracking"
	RAIDStatusClosed   RAIDStatus = "closed"
)

// Valid reports whether s is a known status.
func (s RAIDStatus) Valid() bool {
	switch s {
	case RAIDStatusOpen, RAIDStatusTracking, RAIDStatusClosed:
		return true
	}
	return false
}

// RAIDItem is one structured artifact extracted from a meeting transcript.
// OwnerName holds the raw transcript mention; OwnerEmail is filled in when
// identity resolution succeeds.
type RAIDItem struct {
	ID          uuid.UUID    `json:"id"`
	ProjectID   uuid.UUID    `json:"project_id"`
	Type        RAIDType     `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Severity    RAIDSeverity `json:"severity,omitempty"`
	Status      RAIDStatus   `json:"status"`
	OwnerName   string       `json:"owner_name,omitempty"`
	OwnerEmail  *string      `json:"owner_email,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
