package valuation

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/bienes/internal/depreciation"
	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/inflation"
)

const defaultConcurrency = 4

// DepreciationEntry is one asset's batch outcome. When Error is set the
// amounts are zero and the residual equals the original value.
type DepreciationEntry struct {
	depreciation.Result
	Error string `json:"error,omitempty"`
}

// Depreciator computes one asset's historical depreciation.
type Depreciator interface {
	Compute(a domain.Asset, closing string) (depreciation.Result, error)
}

// Batch drives the depreciation and inflation engines over asset collections.
// Assets are computed independently, so entries may be produced in any order.
type Batch struct {
	depreciation Depreciator
	inflation    *inflation.Engine
	concurrency  int
}

// NewBatch creates a Batch resolving coefficients from indices.
// concurrency bounds the number of assets computed at once; values below 1 use the default.
func NewBatch(indices inflation.CoefficientResolver, concurrency int) *Batch {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	return &Batch{
		depreciation: depreciation.NewEngine(),
		inflation:    inflation.NewEngine(indices),
		concurrency:  concurrency,
	}
}

// Depreciation computes every asset's depreciation at closing. Every asset gets an
// entry; a failing asset never aborts the batch.
func (b *Batch) Depreciation(assets []domain.Asset, closing string) map[int]DepreciationEntry {
	results := make(map[int]DepreciationEntry, len(assets))
	var mu sync.Mutex

	b.each(assets, func(a domain.Asset) {
		entry := b.depreciate(a, closing)

		mu.Lock()
		defer mu.Unlock()
		results[a.ID] = entry
	})

	return results
}

// Inflation restates every asset between prior and current, using the asset's
// depreciation entry (zero when absent).
func (b *Batch) Inflation(assets []domain.Asset, current, prior string, depr map[int]DepreciationEntry) map[int]inflation.Result {
	results := make(map[int]inflation.Result, len(assets))
	var mu sync.Mutex

	b.each(assets, func(a domain.Asset) {
		res := b.inflation.Compute(a, current, prior, depr[a.ID].Result)
		if !res.OK() {
			slog.Warn("inflation adjustment unavailable", "asset", a.ID, "error", res.Failure.Message)
		}

		mu.Lock()
		defer mu.Unlock()
		results[a.ID] = res
	})

	return results
}

func (b *Batch) each(assets []domain.Asset, fn func(domain.Asset)) {
	var g errgroup.Group
	g.SetLimit(b.concurrency)

	for _, a := range assets {
		g.Go(func() error {
			fn(a)
			return nil
		})
	}

	_ = g.Wait()
}

// depreciate computes one entry, converting errors and panics into an error-tagged entry.
func (b *Batch) depreciate(a domain.Asset, closing string) (entry DepreciationEntry) {
	defer func() {
		if r := recover(); r != nil {
			entry = failedEntry(a, fmt.Errorf("computation panic: %v", r))
		}
	}()

	res, err := b.depreciation.Compute(a, closing)
	if err != nil {
		return failedEntry(a, err)
	}
	return DepreciationEntry{Result: res}
}

func failedEntry(a domain.Asset, err error) DepreciationEntry {
	slog.Warn("depreciation failed", "asset", a.ID, "error", err)
	return DepreciationEntry{
		Result: depreciation.Undepreciated(a),
		Error:  err.Error(),
	}
}
