package csvio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/bienes/internal/index"
)

type memorySaver struct {
	saved [][]index.Observation
	err   error
}

func (m *memorySaver) SaveIndices(_ context.Context, obs []index.Observation) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, obs)
	return nil
}

func TestFileImporterImportsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indices.csv")
	require.NoError(t, os.WriteFile(path, []byte("Fecha;Indice\n31/12/2023;3533,19\n31/12/2024;7694,2\n"), 0o600))

	saver := &memorySaver{}
	fi := NewFileImporter(path, saver)
	ctx := context.Background()

	n, err := fi.ImportIndices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, saver.saved, 1)
	assert.Equal(t, "31/12/2023", saver.saved[0][0].Date)

	n, err = fi.ImportIndices(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "unchanged file is not imported again")

	require.NoError(t, os.WriteFile(path, []byte("31/01/2025;7864,1\n"), 0o600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	n, err = fi.ImportIndices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFileImporterRetriesAfterSaveFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indices.csv")
	require.NoError(t, os.WriteFile(path, []byte("31/12/2024;7694,2\n"), 0o600))

	saver := &memorySaver{err: errors.New("database down")}
	fi := NewFileImporter(path, saver)

	_, err := fi.ImportIndices(context.Background())
	require.Error(t, err)

	saver.err = nil
	n, err := fi.ImportIndices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFileImporterMissingFile(t *testing.T) {
	fi := NewFileImporter(filepath.Join(t.TempDir(), "none.csv"), &memorySaver{})
	_, err := fi.ImportIndices(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
