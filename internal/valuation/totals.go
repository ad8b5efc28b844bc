package valuation

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/inflation"
)

// Totals aggregates a close across assets. Restated totals only include assets
// whose restatement succeeded.
type Totals struct {
	AssetCount             int             `json:"assetCount"`
	FailedCount            int             `json:"failedCount"`
	OriginalValue          decimal.Decimal `json:"originalValue"`
	PeriodDepreciation     decimal.Decimal `json:"periodDepreciation"`
	EndAccumulated         decimal.Decimal `json:"endAccumulated"`
	ResidualValue          decimal.Decimal `json:"residualValue"`
	RestatedValue          decimal.Decimal `json:"restatedValue"`
	RestatedPeriod         decimal.Decimal `json:"restatedPeriod"`
	RestatedEndAccumulated decimal.Decimal `json:"restatedEndAccumulated"`
	RestatedResidual       decimal.Decimal `json:"restatedResidual"`
}

// calculateTotals sums historical and restated figures over the assets in force.
func calculateTotals(assets []domain.Asset, depr map[int]DepreciationEntry, infl map[int]inflation.Result) Totals {
	totals := lo.Reduce(assets, func(acc Totals, a domain.Asset, _ int) Totals {
		acc.AssetCount++
		acc.OriginalValue = acc.OriginalValue.Add(a.OriginalValue)

		d := depr[a.ID]
		acc.PeriodDepreciation = acc.PeriodDepreciation.Add(d.PeriodAmount)
		acc.EndAccumulated = acc.EndAccumulated.Add(d.EndAccumulated)
		acc.ResidualValue = acc.ResidualValue.Add(d.ResidualValue)

		r, ok := infl[a.ID]
		if ok && r.OK() {
			acc.RestatedValue = acc.RestatedValue.Add(r.ValueRestatedCurrent)
			acc.RestatedPeriod = acc.RestatedPeriod.Add(r.PeriodDepreciation)
			acc.RestatedEndAccumulated = acc.RestatedEndAccumulated.Add(r.EndAccumulated)
			acc.RestatedResidual = acc.RestatedResidual.Add(r.ResidualValue)
		}

		if d.Error != "" || !ok || !r.OK() {
			acc.FailedCount++
		}
		return acc
	}, Totals{})

	return totals
}
