package roster

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/raidscribe/raidscribe-engine/pkg/apperrors"
	"github.com/raidscribe/raidscribe-engine/pkg/models"
)

// Required header columns. Optional: handle, role, aliases.
const (
	columnName    = "name"
	columnEmail   = "email"
	columnHandle  = "handle"
	columnRole    = "role"
	columnAliases = "aliases"
)

// aliasSeparator splits the aliases cell into individual surface forms.
const aliasSeparator = ";"

// CSVSource loads rosters from CSV files under a base directory. The roster
// identifier is the file name without extension.
type CSVSource struct {
	baseDir string
	logger  *zap.Logger
}

// NewCSVSource creates a roster source rooted at baseDir.
func NewCSVSource(baseDir string, logger *zap.Logger) (*CSVSource, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("roster directory: %w", apperrors.ErrNoCredentials)
	}
	return &CSVSource{
		baseDir: baseDir,
		logger:  logger.Named("roster"),
	}, nil
}

// Load implements Source. Rows missing a name or email are skipped with a
// warning; a header missing the required columns fails the whole load.
// Duplicate emails collapse into a single entry, with later rows
// contributing aliases.
func (s *CSVSource) Load(ctx context.Context, rosterID string) ([]*models.RosterEntry, error) {
	path := filepath.Join(s.baseDir, rosterID+".csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("roster %q: %w", rosterID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("open roster %q: %w", rosterID, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, col := range header {
		columns[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := columns[columnName]; !ok {
		return nil, fmt.Errorf("roster %q: %w: %s", rosterID, apperrors.ErrMissingColumns, columnName)
	}
	if _, ok := columns[columnEmail]; !ok {
		return nil, fmt.Errorf("roster %q: %w: %s", rosterID, apperrors.ErrMissingColumns, columnEmail)
	}

	byEmail := make(map[string]*models.RosterEntry)
	var entries []*models.RosterEntry
	line := 1

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			s.logger.Warn("Skipping malformed roster row",
				zap.String("roster", rosterID),
				zap.Int("line", line),
				zap.Error(err))
			continue
		}

		entry, err := entryFromRecord(record, columns)
		if err != nil {
			s.logger.Warn("Skipping invalid roster row",
				zap.String("roster", rosterID),
				zap.Int("line", line),
				zap.Error(err))
			continue
		}

		if existing, ok := byEmail[entry.Email]; ok {
			existing.Aliases = mergeAliases(existing, entry)
			continue
		}
		byEmail[entry.Email] = entry
		entries = append(entries, entry)
	}

	s.logger.Debug("Roster loaded",
		zap.String("roster", rosterID),
		zap.Int("entries", len(entries)))

	return entries, nil
}

func entryFromRecord(record []string, columns map[string]int) (*models.RosterEntry, error) {
	var aliases []string
	if raw := cell(record, columns, columnAliases); raw != "" {
		aliases = strings.Split(raw, aliasSeparator)
	}

	entry, err := models.NewRosterEntry(
		cell(record, columns, columnName),
		cell(record, columns, columnEmail),
		aliases,
	)
	if err != nil {
		return nil, err
	}

	if handle := cell(record, columns, columnHandle); handle != "" {
		entry.Handle = &handle
	}
	if role := cell(record, columns, columnRole); role != "" {
		entry.Role = &role
	}
	return entry, nil
}

// mergeAliases folds a duplicate row's name and aliases into the existing
// entry as additional surface forms.
func mergeAliases(existing, duplicate *models.RosterEntry) []string {
	known := make(map[string]bool, len(existing.Aliases)+1)
	known[strings.ToLower(existing.Name)] = true
	for _, alias := range existing.Aliases {
		known[strings.ToLower(alias)] = true
	}

	merged := existing.Aliases
	for _, form := range duplicate.SurfaceForms() {
		if !known[strings.ToLower(form)] {
			known[strings.ToLower(form)] = true
			merged = append(merged, form)
		}
	}
	return merged
}

func cell(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// Ensure CSVSource implements Source at compile time.
var _ Source = (*CSVSource)(nil)
