package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add buyers table", "add_buyers_table"},
		{"Add-Buyers-Table", "add_buyers_table"},
		{"ADD_BUYERS_TABLE", "add_buyers_table"},
		{"add__buyers__table", "add_buyers_table"},
		{"Add Buyers 123", "add_buyers_123"},
		{"create-buyer-history", "create_buyer_history"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, slugify(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	tmpDir := t.TempDir()

	pair, err := CreateMigration(tmpDir, "add buyers table", "Buyer leads with audit columns")
	require.NoError(t, err)
	require.NotNil(t, pair)

	// Version prefix is a 14-digit timestamp so pairs sort in creation order.
	assert.Len(t, pair.Version, 14)
	assert.True(t, strings.HasSuffix(pair.UpPath, "add_buyers_table.up.sql"))
	assert.True(t, strings.HasSuffix(pair.DownPath, "add_buyers_table.down.sql"))

	upBase := strings.TrimSuffix(filepath.Base(pair.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(pair.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase)

	upContent, err := os.ReadFile(pair.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "add buyers table")
	assert.Contains(t, string(upContent), "Buyer leads with audit columns")
	assert.Contains(t, string(upContent), "(up)")

	downContent, err := os.ReadFile(pair.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(downContent), "(down)")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	pair, err := CreateMigration(nested, "init", "")
	require.NoError(t, err)
	require.NotNil(t, pair)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListMigrations(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		"000001_create_users.up.sql",
		"000001_create_users.down.sql",
		"000002_create_buyers.up.sql",
		"000002_create_buyers.down.sql",
		"000003_create_buyer_histories.up.sql",
		"000003_create_buyer_histories.down.sql",
	}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, f), []byte("-- test"), 0o644))
	}

	names, err := ListMigrations(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"000001_create_users",
		"000002_create_buyers",
		"000003_create_buyer_histories",
	}, names)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	names, err := ListMigrations(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestListMigrations_IgnoresNonMigrationFiles(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		"000001_init.up.sql",
		"000001_init.down.sql",
		"README.md",
		".gitkeep",
	}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, f), []byte("test"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "archive.up.sql"), 0o755))

	names, err := ListMigrations(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init"}, names)
}
