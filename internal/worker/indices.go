package worker

import (
	"context"
	"log/slog"
	"time"
)

// IndexImporter loads new index observations from an external source.
type IndexImporter interface {
	ImportIndices(ctx context.Context) (int, error)
}

// IndexImportWorker periodically imports the FACPCE index series.
type IndexImportWorker struct {
	importer IndexImporter
	interval time.Duration
}

// NewIndexImportWorker creates a new IndexImportWorker.
func NewIndexImportWorker(importer IndexImporter, interval time.Duration) *IndexImportWorker {
	return &IndexImportWorker{
		importer: importer,
		interval: interval,
	}
}

// Run starts the import loop. It blocks until the context is cancelled.
func (w *IndexImportWorker) Run(ctx context.Context) {
	slog.Info("IndexImportWorker: starting")

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("IndexImportWorker: shutting down")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *IndexImportWorker) runOnce(ctx context.Context) {
	n, err := w.importer.ImportIndices(ctx)
	if err != nil {
		slog.Error("IndexImportWorker: import failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("IndexImportWorker: import completed", "observations", n)
	}
}
