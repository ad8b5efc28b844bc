package csvio

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mtlprog/bienes/internal/index"
)

// IndexSaver persists index observations.
type IndexSaver interface {
	SaveIndices(ctx context.Context, obs []index.Observation) error
}

// FileImporter loads an index CSV into storage whenever the file changes.
type FileImporter struct {
	path  string
	saver IndexSaver

	mu      sync.Mutex
	lastMod time.Time
}

// NewFileImporter creates an importer for the CSV at path.
func NewFileImporter(path string, saver IndexSaver) *FileImporter {
	return &FileImporter{path: path, saver: saver}
}

// ImportIndices reads the file when its modification time differs from the last
// successful import and saves every observation it holds. An unchanged file
// imports nothing.
func (fi *FileImporter) ImportIndices(ctx context.Context) (int, error) {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	info, err := os.Stat(fi.path)
	if err != nil {
		return 0, fmt.Errorf("checking index file: %w", err)
	}
	if info.ModTime().Equal(fi.lastMod) {
		return 0, nil
	}

	f, err := os.Open(fi.path)
	if err != nil {
		return 0, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	reg := index.NewRegistry()
	if _, err := ReadIndices(f, reg); err != nil {
		return 0, fmt.Errorf("parsing %s: %w", fi.path, err)
	}

	obs := reg.All()
	if err := fi.saver.SaveIndices(ctx, obs); err != nil {
		return 0, err
	}

	fi.lastMod = info.ModTime()
	return len(obs), nil
}
