package domain

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the only date format exchanged with the engine (DD/MM/YYYY).
const DateLayout = "02/01/2006"

// ErrInvalidDate indicates a date that is not in DD/MM/YYYY form.
var ErrInvalidDate = errors.New("invalid date, expected DD/MM/YYYY")

// ErrClosingOrder indicates a prior closing that is not before the current one.
var ErrClosingOrder = errors.New("prior closing must be before current closing")

// ParseDate parses a DD/MM/YYYY date. Any other format is rejected.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// ValidDate reports whether s parses as DD/MM/YYYY.
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// ClosingYear extracts the fiscal year from a closing date.
func ClosingYear(closing string) (int, error) {
	t, err := ParseDate(closing)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}

// ValidateClosingPair checks that both closing dates parse and prior is strictly before current.
func ValidateClosingPair(prior, current string) error {
	p, err := ParseDate(prior)
	if err != nil {
		return fmt.Errorf("prior closing: %w", err)
	}
	c, err := ParseDate(current)
	if err != nil {
		return fmt.Errorf("current closing: %w", err)
	}
	if !p.Before(c) {
		return fmt.Errorf("%w: %s is not before %s", ErrClosingOrder, prior, current)
	}
	return nil
}
