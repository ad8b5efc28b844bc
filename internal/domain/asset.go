package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Asset is a fixed asset ("bien de uso") as supplied by the registry.
type Asset struct {
	ID                    int             `json:"id"`
	Description           string          `json:"description"`
	Type                  string          `json:"type"`
	Depreciable           bool            `json:"depreciable"`
	UsefulLifeYears       int             `json:"usefulLifeYears"`
	AcquisitionFiscalYear int             `json:"acquisitionFiscalYear"`
	AcquisitionDate       string          `json:"acquisitionDate"`        // DD/MM/YYYY, index origin
	DisposalDate          string          `json:"disposalDate,omitempty"` // DD/MM/YYYY, empty when in service
	OriginalValue         decimal.Decimal `json:"originalValue"`
}

// NewAsset builds an asset, forcing the useful life to zero for non-depreciable assets.
func NewAsset(a Asset) Asset {
	if !a.Depreciable {
		a.UsefulLifeYears = 0
	}
	return a
}

// HasDisposal reports whether a disposal date is recorded.
func (a Asset) HasDisposal() bool {
	return strings.TrimSpace(a.DisposalDate) != ""
}

// ValidateAsset checks the registry-level rules for an asset record.
func ValidateAsset(a Asset, allowedTypes []string) error {
	var errs []error

	if strings.TrimSpace(a.Description) == "" {
		errs = append(errs, errors.New("description is empty"))
	}
	if len(allowedTypes) > 0 && !lo.Contains(allowedTypes, a.Type) {
		errs = append(errs, fmt.Errorf("asset type %q is not allowed", a.Type))
	}
	if a.Depreciable && a.UsefulLifeYears <= 0 {
		errs = append(errs, errors.New("depreciable asset needs a positive useful life"))
	}
	if !a.Depreciable && a.UsefulLifeYears != 0 {
		errs = append(errs, errors.New("non-depreciable asset must have zero useful life"))
	}
	if _, err := ParseDate(a.AcquisitionDate); err != nil {
		errs = append(errs, fmt.Errorf("acquisition date: %w", err))
	}
	if a.HasDisposal() {
		if _, err := ParseDate(a.DisposalDate); err != nil {
			errs = append(errs, fmt.Errorf("disposal date: %w", err))
		}
	}
	if a.OriginalValue.IsNegative() {
		errs = append(errs, errors.New("original value is negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("asset %d: %w", a.ID, errors.Join(errs...))
	}
	return nil
}
