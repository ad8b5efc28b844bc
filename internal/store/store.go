// Package store persists companies, their asset registers and the FACPCE index
// series in PostgreSQL or a single-file SQLite database.
package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/mtlprog/bienes/internal/database"
	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/index"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound indicates that the requested company does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines persistent storage for the valuation inputs.
type Repository interface {
	// UpsertCompany stores the company profile and replaces its asset types.
	UpsertCompany(ctx context.Context, c domain.Company) error
	GetCompany(ctx context.Context, cuit string) (domain.Company, error)
	// ReplaceAssets swaps the company's whole asset register in one transaction.
	ReplaceAssets(ctx context.Context, cuit string, assets []domain.Asset) error
	ListAssets(ctx context.Context, cuit string) ([]domain.Asset, error)
	// SaveIndices upserts observations; a month already stored is overwritten.
	SaveIndices(ctx context.Context, obs []index.Observation) error
	ListIndices(ctx context.Context) ([]index.Observation, error)
	Close() error
}

// Open connects to the database named by url. postgres:// URLs use PostgreSQL and
// apply pending migrations; anything else is treated as a SQLite file path.
func Open(ctx context.Context, url string) (Repository, error) {
	if !isPostgres(url) {
		return NewSQLiteRepository(url)
	}

	pool, err := database.Connect(ctx, url)
	if err != nil {
		return nil, err
	}

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("opening migrations: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, sub); err != nil {
		pool.Close()
		return nil, err
	}

	return NewPgRepository(pool), nil
}

func isPostgres(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

func monthKey(date string) (index.MonthKey, error) {
	k, err := index.MonthKeyOf(date)
	if err != nil {
		return index.MonthKey{}, fmt.Errorf("index observation: %w", err)
	}
	return k, nil
}
