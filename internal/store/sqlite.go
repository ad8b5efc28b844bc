package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/index"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS companies (
	cuit               TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	fiscal_year_start  TEXT NOT NULL DEFAULT '',
	fiscal_year_end    TEXT NOT NULL DEFAULT '',
	closing_date       TEXT NOT NULL,
	prior_closing_date TEXT NOT NULL,
	updated_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS asset_types (
	cuit     TEXT    NOT NULL REFERENCES companies (cuit) ON DELETE CASCADE,
	name     TEXT    NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (cuit, name)
);

CREATE TABLE IF NOT EXISTS assets (
	cuit                    TEXT    NOT NULL REFERENCES companies (cuit) ON DELETE CASCADE,
	id                      INTEGER NOT NULL,
	description             TEXT    NOT NULL,
	type                    TEXT    NOT NULL,
	depreciable             INTEGER NOT NULL,
	useful_life_years       INTEGER NOT NULL,
	acquisition_fiscal_year INTEGER NOT NULL,
	acquisition_date        TEXT    NOT NULL,
	disposal_date           TEXT    NOT NULL DEFAULT '',
	original_value          TEXT    NOT NULL,
	PRIMARY KEY (cuit, id)
);

CREATE TABLE IF NOT EXISTS index_observations (
	year      INTEGER NOT NULL,
	month     INTEGER NOT NULL,
	date      TEXT    NOT NULL,
	value     TEXT    NOT NULL,
	note      TEXT    NOT NULL DEFAULT '',
	loaded_at TEXT    NOT NULL,
	PRIMARY KEY (year, month)
);
`

// SQLiteRepository implements Repository with an embedded SQLite database.
// Decimals are stored as text so no precision is lost.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at path and migrates
// its schema. Use ":memory:" for an in-memory database.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) UpsertCompany(ctx context.Context, c domain.Company) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO companies (cuit, name, fiscal_year_start, fiscal_year_end, closing_date, prior_closing_date, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (cuit) DO UPDATE SET
		   name = excluded.name, fiscal_year_start = excluded.fiscal_year_start,
		   fiscal_year_end = excluded.fiscal_year_end, closing_date = excluded.closing_date,
		   prior_closing_date = excluded.prior_closing_date, updated_at = excluded.updated_at`,
		c.CUIT, c.Name, c.FiscalYearStart, c.FiscalYearEnd, c.ClosingDate, c.PriorClosingDate,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving company %s: %w", c.CUIT, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM asset_types WHERE cuit = ?`, c.CUIT); err != nil {
		return fmt.Errorf("clearing asset types for %s: %w", c.CUIT, err)
	}
	for i, name := range c.AssetTypes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO asset_types (cuit, name, position) VALUES (?, ?, ?)`, c.CUIT, name, i); err != nil {
			return fmt.Errorf("saving asset type %q: %w", name, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetCompany(ctx context.Context, cuit string) (domain.Company, error) {
	var c domain.Company
	err := r.db.QueryRowContext(ctx,
		`SELECT cuit, name, fiscal_year_start, fiscal_year_end, closing_date, prior_closing_date
		 FROM companies WHERE cuit = ?`, cuit).
		Scan(&c.CUIT, &c.Name, &c.FiscalYearStart, &c.FiscalYearEnd, &c.ClosingDate, &c.PriorClosingDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Company{}, fmt.Errorf("company %s: %w", cuit, ErrNotFound)
		}
		return domain.Company{}, fmt.Errorf("getting company %s: %w", cuit, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM asset_types WHERE cuit = ? ORDER BY position`, cuit)
	if err != nil {
		return domain.Company{}, fmt.Errorf("getting asset types for %s: %w", cuit, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return domain.Company{}, fmt.Errorf("scanning asset type: %w", err)
		}
		c.AssetTypes = append(c.AssetTypes, name)
	}
	return c, rows.Err()
}

func (r *SQLiteRepository) ReplaceAssets(ctx context.Context, cuit string, assets []domain.Asset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM assets WHERE cuit = ?`, cuit); err != nil {
		return fmt.Errorf("clearing assets for %s: %w", cuit, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO assets (cuit, id, description, type, depreciable, useful_life_years,
		   acquisition_fiscal_year, acquisition_date, disposal_date, original_value)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing asset insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range assets {
		if _, err := stmt.ExecContext(ctx, cuit, a.ID, a.Description, a.Type, a.Depreciable,
			a.UsefulLifeYears, a.AcquisitionFiscalYear, a.AcquisitionDate, a.DisposalDate,
			a.OriginalValue.String()); err != nil {
			return fmt.Errorf("saving asset %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) ListAssets(ctx context.Context, cuit string) ([]domain.Asset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, type, depreciable, useful_life_years,
		   acquisition_fiscal_year, acquisition_date, disposal_date, original_value
		 FROM assets WHERE cuit = ? ORDER BY id`, cuit)
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

func (r *SQLiteRepository) SaveIndices(ctx context.Context, obs []index.Observation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, o := range obs {
		k, err := monthKey(o.Date)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO index_observations (year, month, date, value, note, loaded_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (year, month) DO UPDATE SET
			   date = excluded.date, value = excluded.value, note = excluded.note, loaded_at = excluded.loaded_at`,
			k.Year, int(k.Month), o.Date, o.Value.String(), o.Note, o.LoadedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("saving index %s: %w", o.Date, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) ListIndices(ctx context.Context) ([]index.Observation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, value, note, loaded_at FROM index_observations ORDER BY year, month`)
	if err != nil {
		return nil, fmt.Errorf("listing indices: %w", err)
	}
	defer rows.Close()

	var obs []index.Observation
	for rows.Next() {
		var (
			o      index.Observation
			loaded string
		)
		if err := rows.Scan(&o.Date, &o.Value, &o.Note, &loaded); err != nil {
			return nil, fmt.Errorf("scanning index: %w", err)
		}
		o.LoadedAt, err = time.Parse(time.RFC3339Nano, loaded)
		if err != nil {
			return nil, fmt.Errorf("parsing load time of %s: %w", o.Date, err)
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
