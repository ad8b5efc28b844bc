// Package index stores monthly price-index observations (FACPCE series) and
// resolves restatement coefficients between two dates.
package index

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/bienes/internal/domain"
)

// ErrZeroOriginIndex is returned when the origin month's index value is zero.
var ErrZeroOriginIndex = errors.New("origin index is zero")

// MissingIndexError names a date whose month has no observation.
type MissingIndexError struct {
	Date string
}

func (e *MissingIndexError) Error() string {
	return fmt.Sprintf("missing index for %s", e.Date)
}

// MonthKey identifies a calendar month. Observations are keyed at this granularity.
type MonthKey struct {
	Year  int
	Month time.Month
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%02d/%d", int(k.Month), k.Year)
}

// MonthKeyOf derives the month key of a DD/MM/YYYY date.
func MonthKeyOf(date string) (MonthKey, error) {
	t, err := domain.ParseDate(date)
	if err != nil {
		return MonthKey{}, err
	}
	return MonthKey{Year: t.Year(), Month: t.Month()}, nil
}

// Observation is one published index value.
type Observation struct {
	Date     string          `json:"date"`
	Value    decimal.Decimal `json:"value"`
	Note     string          `json:"note,omitempty"`
	LoadedAt time.Time       `json:"loadedAt"`
}

// Registry holds observations keyed by month. Reads may run concurrently.
type Registry struct {
	mu      sync.RWMutex
	entries map[MonthKey]Observation
	now     func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[MonthKey]Observation),
		now:     time.Now,
	}
}

// Add inserts or overwrites the observation for date's month.
// Returns false when date is not a valid DD/MM/YYYY date.
func (r *Registry) Add(date string, value decimal.Decimal, note string) bool {
	key, err := MonthKeyOf(date)
	if err != nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[key] = Observation{
		Date:     date,
		Value:    value,
		Note:     note,
		LoadedAt: r.now(),
	}
	return true
}

// Restore inserts an observation keeping its original load timestamp.
// Used when loading persisted observations.
func (r *Registry) Restore(obs Observation) bool {
	key, err := MonthKeyOf(obs.Date)
	if err != nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if obs.LoadedAt.IsZero() {
		obs.LoadedAt = r.now()
	}
	r.entries[key] = obs
	return true
}

// Get returns the observation for date's month.
func (r *Registry) Get(date string) (Observation, bool) {
	key, err := MonthKeyOf(date)
	if err != nil {
		return Observation{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	obs, ok := r.entries[key]
	return obs, ok
}

// Coefficient returns index(destination) / index(origin), unrounded.
func (r *Registry) Coefficient(origin, destination string) (decimal.Decimal, error) {
	if _, err := domain.ParseDate(origin); err != nil {
		return decimal.Zero, err
	}
	if _, err := domain.ParseDate(destination); err != nil {
		return decimal.Zero, err
	}

	from, ok := r.Get(origin)
	if !ok {
		return decimal.Zero, &MissingIndexError{Date: origin}
	}
	to, ok := r.Get(destination)
	if !ok {
		return decimal.Zero, &MissingIndexError{Date: destination}
	}

	if from.Value.IsZero() {
		return decimal.Zero, fmt.Errorf("%w for %s", ErrZeroOriginIndex, origin)
	}

	return to.Value.Div(from.Value), nil
}

// MissingDates returns the dates in required that have no observation, in input order.
func (r *Registry) MissingDates(required []string) []string {
	var missing []string
	for _, date := range required {
		if _, ok := r.Get(date); !ok {
			missing = append(missing, date)
		}
	}
	return missing
}

// All returns every observation ordered ascending by date.
func (r *Registry) All() []Observation {
	r.mu.RLock()
	keys := make([]MonthKey, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareMonthKeys)

	result := make([]Observation, 0, len(keys))
	for _, k := range keys {
		result = append(result, r.entries[k])
	}
	r.mu.RUnlock()

	return result
}

func compareMonthKeys(a, b MonthKey) int {
	if a.Year != b.Year {
		return a.Year - b.Year
	}
	return int(a.Month) - int(b.Month)
}

// Len returns the number of stored months.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
