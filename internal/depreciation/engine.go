// Package depreciation computes historical straight-line depreciation using a
// whole-year convention: no pro-rating by month of acquisition or disposal.
package depreciation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/bienes/internal/domain"
)

// ErrInvalidPeriod indicates a closing date whose year cannot be extracted.
var ErrInvalidPeriod = errors.New("invalid closing period")

// Result is the historical depreciation of one asset as of one closing date.
type Result struct {
	StartAccumulated decimal.Decimal `json:"startAccumulated"`
	PeriodAmount     decimal.Decimal `json:"periodAmount"`
	EndAccumulated   decimal.Decimal `json:"endAccumulated"`
	ResidualValue    decimal.Decimal `json:"residualValue"`
}

// Undepreciated is the result for an asset carried at its original value.
func Undepreciated(a domain.Asset) Result {
	return Result{
		StartAccumulated: decimal.Zero,
		PeriodAmount:     decimal.Zero,
		EndAccumulated:   decimal.Zero,
		ResidualValue:    a.OriginalValue,
	}
}

// Engine computes depreciation. It is stateless and safe for concurrent use.
type Engine struct{}

// NewEngine creates a new depreciation Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Compute returns the depreciation of asset a for the fiscal year of closing.
// Non-depreciable assets are carried at original value whatever the closing.
func (e *Engine) Compute(a domain.Asset, closing string) (Result, error) {
	if !a.Depreciable || a.UsefulLifeYears == 0 {
		return Undepreciated(a), nil
	}

	closingYear, err := domain.ClosingYear(closing)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidPeriod, err)
	}

	life := a.UsefulLifeYears
	annual := a.OriginalValue.Div(decimal.NewFromInt(int64(life)))

	yearsToStart := closingYear - a.AcquisitionFiscalYear
	start := decimal.Zero
	if yearsToStart > 0 {
		start = annual.Mul(decimal.NewFromInt(int64(min(yearsToStart, life))))
	}

	period := decimal.Zero
	elapsed := yearsToStart + 1
	if elapsed > 0 && elapsed <= life && !disposedBefore(a, closingYear) {
		period = annual
	}

	end := domain.MinDecimal(start.Add(period), a.OriginalValue)
	residual := a.OriginalValue.Sub(end)

	return Result{
		StartAccumulated: domain.RoundMoney(start),
		PeriodAmount:     domain.RoundMoney(period),
		EndAccumulated:   domain.RoundMoney(end),
		ResidualValue:    domain.RoundMoney(residual),
	}, nil
}

// disposedBefore reports whether the asset left service in a year before closingYear.
// An unparseable disposal date does not suppress the charge.
func disposedBefore(a domain.Asset, closingYear int) bool {
	if !a.HasDisposal() {
		return false
	}
	t, err := domain.ParseDate(a.DisposalDate)
	if err != nil {
		return false
	}
	return t.Year() < closingYear
}
