// Package roster loads project rosters from external sources. A roster is
// the authoritative list of known participants; every load returns a fresh
// snapshot with no caching across calls.
package roster

import (
	"context"

	"github.com/raidscribe/raidscribe-engine/pkg/models"
)

// Source loads a roster snapshot by identifier. Implementations must skip
// individually malformed rows (with a diagnostic) and fail the whole load
// only on configuration errors or missing required columns.
type Source interface {
	Load(ctx context.Context, rosterID string) ([]*models.RosterEntry, error)
}
