package valuation

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/index"
	"github.com/mtlprog/bienes/internal/inflation"
)

// Loader supplies the inputs of a fiscal close.
type Loader interface {
	GetCompany(ctx context.Context, cuit string) (domain.Company, error)
	ListAssets(ctx context.Context, cuit string) ([]domain.Asset, error)
	ListIndices(ctx context.Context) ([]index.Observation, error)
}

// Report is the outcome of one fiscal close for one company.
type Report struct {
	Company      domain.Company            `json:"company"`
	Closing      string                    `json:"closing"`
	PriorClosing string                    `json:"priorClosing"`
	GeneratedAt  time.Time                 `json:"generatedAt"`
	Assets       []domain.Asset            `json:"assets"`
	Depreciation map[int]DepreciationEntry `json:"depreciation"`
	Inflation    map[int]inflation.Result  `json:"inflation"`
	MissingDates []string                  `json:"missingDates"`
	Totals       Totals                    `json:"totals"`
}

// Service runs fiscal closes from persisted company data.
type Service struct {
	loader      Loader
	concurrency int
}

// NewService creates a new valuation Service.
func NewService(loader Loader, concurrency int) *Service {
	return &Service{loader: loader, concurrency: concurrency}
}

// Close loads the company's assets and the index series and values them at current,
// restating from prior. Empty dates default to the company's configured closings.
func (s *Service) Close(ctx context.Context, cuit, current, prior string) (Report, error) {
	company, err := s.loader.GetCompany(ctx, cuit)
	if err != nil {
		return Report{}, fmt.Errorf("loading company: %w", err)
	}

	current = cmp.Or(current, company.ClosingDate)
	prior = cmp.Or(prior, company.PriorClosingDate)
	if err := domain.ValidateClosingPair(prior, current); err != nil {
		return Report{}, err
	}

	assets, err := s.loader.ListAssets(ctx, cuit)
	if err != nil {
		return Report{}, fmt.Errorf("loading assets: %w", err)
	}

	observations, err := s.loader.ListIndices(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("loading indices: %w", err)
	}

	reg := index.NewRegistry()
	for _, obs := range observations {
		if !reg.Restore(obs) {
			slog.Warn("skipping stored index with invalid date", "date", obs.Date)
		}
	}

	report := Run(company, assets, reg, current, prior, s.concurrency)
	slog.Info("close computed",
		"cuit", company.CUIT, "closing", current, "assets", len(report.Assets),
		"failed", report.Totals.FailedCount, "missingIndices", len(report.MissingDates))
	return report, nil
}

// Run filters the assets to those in force at current and runs both batches.
func Run(company domain.Company, assets []domain.Asset, indices inflation.CoefficientResolver, current, prior string, concurrency int) Report {
	inForce := FilterByClosing(assets, current)
	slices.SortFunc(inForce, func(a, b domain.Asset) int { return a.ID - b.ID })

	batch := NewBatch(indices, concurrency)
	depr := batch.Depreciation(inForce, current)
	infl := batch.Inflation(inForce, current, prior, depr)

	return Report{
		Company:      company,
		Closing:      current,
		PriorClosing: prior,
		GeneratedAt:  time.Now().UTC(),
		Assets:       inForce,
		Depreciation: depr,
		Inflation:    infl,
		MissingDates: collectMissingDates(infl),
		Totals:       calculateTotals(inForce, depr, infl),
	}
}

// collectMissingDates returns the distinct missing index dates, ordered by date.
func collectMissingDates(results map[int]inflation.Result) []string {
	var dates []string
	for _, r := range results {
		if r.Failure != nil {
			dates = append(dates, r.Failure.MissingDates...)
		}
	}
	dates = lo.Uniq(dates)

	slices.SortFunc(dates, func(a, b string) int {
		ta, errA := domain.ParseDate(a)
		tb, errB := domain.ParseDate(b)
		if errA != nil || errB != nil {
			return cmp.Compare(a, b)
		}
		return ta.Compare(tb)
	})
	return dates
}
