// Package worker runs the periodic background jobs of the server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/bienes/internal/valuation"
)

// Closer computes a company's fiscal close.
type Closer interface {
	Close(ctx context.Context, cuit, current, prior string) (valuation.Report, error)
}

// AfterCloseHook is called after each successful close computation.
type AfterCloseHook interface {
	Export(ctx context.Context, report valuation.Report) error
}

// CloseWorker periodically recomputes one company's close at its configured
// closing dates, so exported spreadsheets follow index data entry.
type CloseWorker struct {
	closer   Closer
	cuit     string
	interval time.Duration
	hook     AfterCloseHook // optional
}

// NewCloseWorker creates a new CloseWorker with an optional post-close hook.
func NewCloseWorker(closer Closer, cuit string, interval time.Duration, hook AfterCloseHook) *CloseWorker {
	return &CloseWorker{
		closer:   closer,
		cuit:     cuit,
		interval: interval,
		hook:     hook,
	}
}

// Run starts the close worker loop. It blocks until the context is cancelled.
func (w *CloseWorker) Run(ctx context.Context) {
	slog.Info("CloseWorker: starting", "cuit", w.cuit, "interval", w.interval)

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("CloseWorker: shutting down")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *CloseWorker) runOnce(ctx context.Context) {
	report, err := w.closer.Close(ctx, w.cuit, "", "")
	if err != nil {
		slog.Error("CloseWorker: close failed", "cuit", w.cuit, "error", err)
		return
	}
	slog.Info("CloseWorker: close completed",
		"closing", report.Closing, "assets", report.Totals.AssetCount, "missingIndices", len(report.MissingDates))

	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, report); err != nil {
		slog.Error("CloseWorker: export hook failed", "error", err)
	} else {
		slog.Info("CloseWorker: export hook completed")
	}
}
