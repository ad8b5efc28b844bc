package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSelectsSQLite(t *testing.T) {
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "open.db"))
	require.NoError(t, err)
	defer repo.Close()

	_, ok := repo.(*SQLiteRepository)
	assert.True(t, ok)
	assert.True(t, isPostgres("postgres://user@localhost/bienes"))
	assert.True(t, isPostgres("postgresql://localhost/bienes"))
	assert.False(t, isPostgres("./data/bienes.db"))
}
