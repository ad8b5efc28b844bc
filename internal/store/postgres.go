package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/index"
)

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) UpsertCompany(ctx context.Context, c domain.Company) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO companies (cuit, name, fiscal_year_start, fiscal_year_end, closing_date, prior_closing_date, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (cuit) DO UPDATE SET
		   name = $2, fiscal_year_start = $3, fiscal_year_end = $4,
		   closing_date = $5, prior_closing_date = $6, updated_at = NOW()`,
		c.CUIT, c.Name, c.FiscalYearStart, c.FiscalYearEnd, c.ClosingDate, c.PriorClosingDate)
	if err != nil {
		return fmt.Errorf("saving company %s: %w", c.CUIT, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM asset_types WHERE cuit = $1`, c.CUIT); err != nil {
		return fmt.Errorf("clearing asset types for %s: %w", c.CUIT, err)
	}

	batch := &pgx.Batch{}
	for i, name := range c.AssetTypes {
		batch.Queue(`INSERT INTO asset_types (cuit, name, position) VALUES ($1, $2, $3)`, c.CUIT, name, i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving asset types for %s: %w", c.CUIT, err)
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) GetCompany(ctx context.Context, cuit string) (domain.Company, error) {
	var c domain.Company
	err := r.pool.QueryRow(ctx,
		`SELECT cuit, name, fiscal_year_start, fiscal_year_end, closing_date, prior_closing_date
		 FROM companies WHERE cuit = $1`, cuit).
		Scan(&c.CUIT, &c.Name, &c.FiscalYearStart, &c.FiscalYearEnd, &c.ClosingDate, &c.PriorClosingDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Company{}, fmt.Errorf("company %s: %w", cuit, ErrNotFound)
		}
		return domain.Company{}, fmt.Errorf("getting company %s: %w", cuit, err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT name FROM asset_types WHERE cuit = $1 ORDER BY position`, cuit)
	if err != nil {
		return domain.Company{}, fmt.Errorf("getting asset types for %s: %w", cuit, err)
	}
	c.AssetTypes, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return domain.Company{}, fmt.Errorf("scanning asset types: %w", err)
	}
	return c, nil
}

func (r *PgRepository) ReplaceAssets(ctx context.Context, cuit string, assets []domain.Asset) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM assets WHERE cuit = $1`, cuit); err != nil {
		return fmt.Errorf("clearing assets for %s: %w", cuit, err)
	}

	batch := &pgx.Batch{}
	for _, a := range assets {
		batch.Queue(
			`INSERT INTO assets (cuit, id, description, type, depreciable, useful_life_years,
			   acquisition_fiscal_year, acquisition_date, disposal_date, original_value)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (cuit, id) DO UPDATE SET
			   description = $3, type = $4, depreciable = $5, useful_life_years = $6,
			   acquisition_fiscal_year = $7, acquisition_date = $8, disposal_date = $9, original_value = $10`,
			cuit, a.ID, a.Description, a.Type, a.Depreciable, a.UsefulLifeYears,
			a.AcquisitionFiscalYear, a.AcquisitionDate, a.DisposalDate, a.OriginalValue)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving assets for %s: %w", cuit, err)
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) ListAssets(ctx context.Context, cuit string) ([]domain.Asset, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, description, type, depreciable, useful_life_years,
		   acquisition_fiscal_year, acquisition_date, disposal_date, original_value
		 FROM assets WHERE cuit = $1 ORDER BY id`, cuit)
	if err != nil {
		return nil, fmt.Errorf("listing assets for %s: %w", cuit, err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.ID, &a.Description, &a.Type, &a.Depreciable, &a.UsefulLifeYears,
			&a.AcquisitionFiscalYear, &a.AcquisitionDate, &a.DisposalDate, &a.OriginalValue); err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *PgRepository) SaveIndices(ctx context.Context, obs []index.Observation) error {
	batch := &pgx.Batch{}
	for _, o := range obs {
		k, err := monthKey(o.Date)
		if err != nil {
			return err
		}
		batch.Queue(
			`INSERT INTO index_observations (year, month, date, value, note, loaded_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (year, month) DO UPDATE SET date = $3, value = $4, note = $5, loaded_at = $6`,
			k.Year, int(k.Month), o.Date, o.Value, o.Note, o.LoadedAt)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving indices: %w", err)
	}
	return nil
}

func (r *PgRepository) ListIndices(ctx context.Context) ([]index.Observation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT date, value, note, loaded_at FROM index_observations ORDER BY year, month`)
	if err != nil {
		return nil, fmt.Errorf("listing indices: %w", err)
	}
	defer rows.Close()

	var obs []index.Observation
	for rows.Next() {
		var o index.Observation
		if err := rows.Scan(&o.Date, &o.Value, &o.Note, &o.LoadedAt); err != nil {
			return nil, fmt.Errorf("scanning index: %w", err)
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

func (r *PgRepository) Close() error {
	r.pool.Close()
	return nil
}
