package valuation

import (
	"slices"

	"github.com/samber/lo"

	"github.com/mtlprog/bienes/internal/domain"
)

// FilterByClosing keeps the assets already acquired by the closing's fiscal year.
// An empty or unparseable closing returns the input unchanged. Disposed assets are kept.
func FilterByClosing(assets []domain.Asset, closing string) []domain.Asset {
	if closing == "" {
		return slices.Clone(assets)
	}
	year, err := domain.ClosingYear(closing)
	if err != nil {
		return slices.Clone(assets)
	}

	return lo.Filter(assets, func(a domain.Asset, _ int) bool {
		return a.AcquisitionFiscalYear <= year
	})
}
