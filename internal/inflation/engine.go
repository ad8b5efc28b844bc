// Package inflation restates historical asset values and depreciation into
// constant purchasing power at the prior and current closing dates.
package inflation

import (
	"errors"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/bienes/internal/depreciation"
	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/index"
)

// ReferenceURL is where users source missing FACPCE index values.
const ReferenceURL = "https://www.facpce.org.ar/indices-facpce/"

// CoefficientResolver resolves index(destination) / index(origin).
type CoefficientResolver interface {
	Coefficient(origin, destination string) (decimal.Decimal, error)
}

// Status discriminates a successful restatement from an index failure.
type Status string

const (
	StatusOK         Status = "ok"
	StatusIndexError Status = "index_error"
)

// Failure describes why an asset could not be restated.
type Failure struct {
	Message      string   `json:"message"`
	MissingDates []string `json:"missingDates"`
	ReferenceURL string   `json:"referenceUrl"`
}

// Result is the inflation-adjusted valuation of one asset.
// When Status is StatusIndexError only Failure is meaningful.
type Result struct {
	Status Status `json:"status"`

	OriginalValue        decimal.Decimal `json:"originalValue"`
	ValueRestatedPrior   decimal.Decimal `json:"valueRestatedPrior"`
	ValueRestatedCurrent decimal.Decimal `json:"valueRestatedCurrent"`
	ValueAdjustment      decimal.Decimal `json:"valueAdjustment"`

	DeprStartRestatedPrior   decimal.Decimal `json:"deprStartRestatedPrior"`
	DeprStartRestatedCurrent decimal.Decimal `json:"deprStartRestatedCurrent"`
	DeprStartAdjustment      decimal.Decimal `json:"deprStartAdjustment"`

	PeriodDepreciation decimal.Decimal `json:"periodDepreciation"`
	EndAccumulated     decimal.Decimal `json:"endAccumulated"`
	ResidualValue      decimal.Decimal `json:"residualValue"`

	CoefficientCurrent decimal.Decimal `json:"coefficientCurrent"`
	CoefficientPrior   decimal.Decimal `json:"coefficientPrior"`

	NewlyAcquired bool `json:"newlyAcquired"`
	// ClampApplied is set when a restated depreciation figure was capped at its
	// restated value or the residual was floored at zero.
	ClampApplied bool `json:"clampApplied"`

	Failure *Failure `json:"failure,omitempty"`
}

// OK reports whether the restatement succeeded.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Engine restates assets using coefficients from a resolver.
type Engine struct {
	indices CoefficientResolver
}

// NewEngine creates an Engine backed by the given resolver.
func NewEngine(indices CoefficientResolver) *Engine {
	return &Engine{indices: indices}
}

// Compute restates asset a between the prior and current closing dates using
// its historical depreciation breakdown.
func (e *Engine) Compute(a domain.Asset, current, prior string, depr depreciation.Result) Result {
	if !a.Depreciable {
		return nonDepreciable(a)
	}

	origin := a.AcquisitionDate

	coefCurrent, errCurrent := e.indices.Coefficient(origin, current)
	coefPrior, errPrior := e.indices.Coefficient(origin, prior)
	if errCurrent != nil || errPrior != nil {
		return failed(errCurrent, errPrior)
	}

	newlyAcquired := acquiredAfter(origin, prior)
	r := restate(a.OriginalValue, depr, coefCurrent, coefPrior, newlyAcquired)
	r.NewlyAcquired = newlyAcquired
	return r
}

// restate derives the adjusted figures, clamping every restated depreciation
// amount to its restated value and the residual to zero.
func restate(original decimal.Decimal, depr depreciation.Result, coefCurrent, coefPrior decimal.Decimal, newlyAcquired bool) Result {
	clamped := false
	clamp := func(v, limit decimal.Decimal) decimal.Decimal {
		if v.GreaterThan(limit) {
			clamped = true
			return limit
		}
		return v
	}

	valuePrior := decimal.Zero
	deprPrior := decimal.Zero
	if !newlyAcquired {
		valuePrior = original.Mul(coefPrior)
		deprPrior = depr.StartAccumulated.Mul(coefPrior)
	}
	valueCurrent := original.Mul(coefCurrent)
	valueAdjustment := valueCurrent.Sub(valuePrior)

	deprPrior = clamp(deprPrior, valuePrior)
	deprCurrent := clamp(depr.StartAccumulated.Mul(coefCurrent), valueCurrent)
	deprAdjustment := deprCurrent.Sub(deprPrior)

	period := decimal.Zero
	if deprCurrent.LessThan(valueCurrent) {
		period = clamp(depr.PeriodAmount.Mul(coefCurrent), valueCurrent.Sub(deprCurrent))
	}

	end := clamp(deprCurrent.Add(period), valueCurrent)

	residual := valueCurrent.Sub(end)
	if residual.IsNegative() {
		clamped = true
		residual = decimal.Zero
	}

	return Result{
		Status:                   StatusOK,
		OriginalValue:            domain.RoundMoney(original),
		ValueRestatedPrior:       domain.RoundMoney(valuePrior),
		ValueRestatedCurrent:     domain.RoundMoney(valueCurrent),
		ValueAdjustment:          domain.RoundMoney(valueAdjustment),
		DeprStartRestatedPrior:   domain.RoundMoney(deprPrior),
		DeprStartRestatedCurrent: domain.RoundMoney(deprCurrent),
		DeprStartAdjustment:      domain.RoundMoney(deprAdjustment),
		PeriodDepreciation:       domain.RoundMoney(period),
		EndAccumulated:           domain.RoundMoney(end),
		ResidualValue:            domain.RoundMoney(residual),
		CoefficientCurrent:       domain.RoundCoefficient(coefCurrent),
		CoefficientPrior:         domain.RoundCoefficient(coefPrior),
		ClampApplied:             clamped,
	}
}

// nonDepreciable carries the full original value as newly expressed at current terms.
func nonDepreciable(a domain.Asset) Result {
	value := domain.RoundMoney(a.OriginalValue)
	return Result{
		Status:                   StatusOK,
		OriginalValue:            value,
		ValueRestatedPrior:       decimal.Zero,
		ValueRestatedCurrent:     value,
		ValueAdjustment:          value,
		DeprStartRestatedPrior:   decimal.Zero,
		DeprStartRestatedCurrent: decimal.Zero,
		DeprStartAdjustment:      decimal.Zero,
		PeriodDepreciation:       decimal.Zero,
		EndAccumulated:           decimal.Zero,
		ResidualValue:            value,
		CoefficientCurrent:       decimal.Zero,
		CoefficientPrior:         decimal.Zero,
	}
}

func failed(errs ...error) Result {
	var messages, missing []string
	for _, err := range errs {
		if err == nil {
			continue
		}
		messages = append(messages, err.Error())

		var mie *index.MissingIndexError
		if errors.As(err, &mie) {
			missing = append(missing, mie.Date)
		}
	}

	return Result{
		Status: StatusIndexError,
		Failure: &Failure{
			Message:      strings.Join(lo.Uniq(messages), "; "),
			MissingDates: lo.Uniq(missing),
			ReferenceURL: ReferenceURL,
		},
	}
}

// acquiredAfter reports whether origin is strictly after prior. Unparseable dates yield false.
func acquiredAfter(origin, prior string) bool {
	o, err := domain.ParseDate(origin)
	if err != nil {
		return false
	}
	p, err := domain.ParseDate(prior)
	if err != nil {
		return false
	}
	return o.After(p)
}
