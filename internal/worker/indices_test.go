package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type mockImporter struct {
	callCount atomic.Int32
}

func (m *mockImporter) ImportIndices(_ context.Context) (int, error) {
	m.callCount.Add(1)
	return 0, nil
}

func TestIndexImportWorkerRunsAndShutdown(t *testing.T) {
	mock := &mockImporter{}
	w := NewIndexImportWorker(mock, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	// Should have run at least the initial import + some ticks
	if got := mock.callCount.Load(); got < 2 {
		t.Errorf("call count = %d, want >= 2", got)
	}
}
