package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stewardship/migrations"
)

func TestUpMigrationsOrdersAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"002_groups.up.sql":    {Data: []byte("--")},
		"001_records.up.sql":   {Data: []byte("--")},
		"001_records.down.sql": {Data: []byte("--")},
		"README.md":            {Data: []byte("x")},
	}

	files, err := UpMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_records.up.sql", "002_groups.up.sql"}, files)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := UpMigrations(migrations.FS)
	require.NoError(t, err)
	assert.NotEmpty(t, files)
}
