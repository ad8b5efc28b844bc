package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Company is the firm whose assets are valued, together with its fiscal close settings.
type Company struct {
	CUIT             string   `json:"cuit" mapstructure:"cuit"`
	Name             string   `json:"name" mapstructure:"name"`
	FiscalYearStart  string   `json:"fiscalYearStart" mapstructure:"fiscal_year_start"`
	FiscalYearEnd    string   `json:"fiscalYearEnd" mapstructure:"fiscal_year_end"`
	ClosingDate      string   `json:"closingDate" mapstructure:"closing_date"`
	PriorClosingDate string   `json:"priorClosingDate" mapstructure:"prior_closing_date"`
	AssetTypes       []string `json:"assetTypes" mapstructure:"asset_types"`
}

// Validate checks the CUIT checksum and the closing date pair.
func (c Company) Validate() error {
	var errs []error
	if !ValidCUIT(c.CUIT) {
		errs = append(errs, fmt.Errorf("invalid CUIT %q", c.CUIT))
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, errors.New("company name is empty"))
	}
	if err := ValidateClosingPair(c.PriorClosingDate, c.ClosingDate); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidCUIT verifies an Argentine CUIT (11 digits, mod-11 check digit).
// Non-digit separators such as dashes are ignored.
func ValidCUIT(cuit string) bool {
	digits := make([]int, 0, 11)
	for _, r := range cuit {
		if unicode.IsDigit(r) {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) != 11 {
		return false
	}

	sum := 0
	for i, w := range cuitWeights {
		sum += w * digits[i]
	}

	check := 11 - sum%11
	switch check {
	case 11:
		check = 0
	case 10:
		check = 9
	}
	return digits[10] == check
}

// NormalizeCUIT strips everything but digits.
func NormalizeCUIT(cuit string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, cuit)
}
