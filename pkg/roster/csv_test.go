package roster

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/raidscribe/raidscribe-engine/pkg/apperrors"
)

func writeRoster(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".csv"), []byte(content), 0o644))
}

func TestCSVSource_Load(t *testing.T) {
	dir := t.TempDir()
	writeRoster(t, dir, "alpha", `name,email,handle,role,aliases
Robert Williams,robert.williams@example.com,rwilliams,Engineer,Bob;Bobby
Jane Doe,jane.doe@example.com,,,JD
`)

	source, err := NewCSVSource(dir, zap.NewNop())
	require.NoError(t, err)

	entries, err := source.Load(context.Background(), "alpha")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Robert Williams", entries[0].Name)
	assert.Equal(t, "robert.williams@example.com", entries[0].Email)
	assert.Equal(t, []string{"Bob", "Bobby"}, entries[0].Aliases)
	require.NotNil(t, entries[0].Handle)
	assert.Equal(t, "rwilliams", *entries[0].Handle)
	require.NotNil(t, entries[0].Role)
	assert.Equal(t, "Engineer", *entries[0].Role)

	assert.Equal(t, []string{"JD"}, entries[1].Aliases)
	assert.Nil(t, entries[1].Handle)
}

func TestCSVSource_MissingRequiredColumn(t *testing.T) {
	dir := t.TempDir()
	writeRoster(t, dir, "broken", `name,handle
Robert Williams,rwilliams
`)

	source, err := NewCSVSource(dir, zap.NewNop())
	require.NoError(t, err)

	_, err = source.Load(context.Background(), "broken")
	assert.ErrorIs(t, err, apperrors.ErrMissingColumns)
}

func TestCSVSource_SkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	writeRoster(t, dir, "partial", `name,email
Robert Williams,robert.williams@example.com
,missing-name@example.com
No Email,
Jane Doe,jane.doe@example.com
`)

	source, err := NewCSVSource(dir, zap.NewNop())
	require.NoError(t, err)

	entries, err := source.Load(context.Background(), "partial")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "robert.williams@example.com", entries[0].Email)
	assert.Equal(t, "jane.doe@example.com", entries[1].Email)
}

func TestCSVSource_DuplicateEmailsMerge(t *testing.T) {
	dir := t.TempDir()
	writeRoster(t, dir, "dupes", `name,email,aliases
Robert Williams,robert.williams@example.com,Bob
Rob Williams,robert.williams@example.com,Robbie
`)

	source, err := NewCSVSource(dir, zap.NewNop())
	require.NoError(t, err)

	entries, err := source.Load(context.Background(), "dupes")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Robert Williams", entries[0].Name)
	assert.ElementsMatch(t, []string{"Bob", "Rob Williams", "Robbie"}, entries[0].Aliases)
}

func TestCSVSource_MissingFile(t *testing.T) {
	source, err := NewCSVSource(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, err = source.Load(context.Background(), "nope")
	assert.Error(t, err)
}

func TestNewCSVSource_NoDirectory(t *testing.T) {
	_, err := NewCSVSource("", zap.NewNop())
	assert.ErrorIs(t, err, apperrors.ErrNoCredentials)
}
