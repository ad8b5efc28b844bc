package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/index"
)

type backend struct {
	name string
	open func(t *testing.T) Repository
}

// backends returns SQLite always and PostgreSQL when DATABASE_URL names one.
// The PostgreSQL tables are truncated before each test.
func backends() []backend {
	bs := []backend{{name: "sqlite", open: openSQLite}}
	if url := os.Getenv("DATABASE_URL"); isPostgres(url) {
		bs = append(bs, backend{name: "postgres", open: func(t *testing.T) Repository { return openPostgres(t, url) }})
	}
	return bs
}

func openSQLite(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "bienes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func openPostgres(t *testing.T, url string) Repository {
	t.Helper()
	ctx := context.Background()
	repo, err := Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	pg, ok := repo.(*PgRepository)
	require.True(t, ok)
	_, err = pg.pool.Exec(ctx, `TRUNCATE companies, asset_types, assets, index_observations CASCADE`)
	require.NoError(t, err)
	return repo
}

func forEachBackend(t *testing.T, fn func(t *testing.T, repo Repository)) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open(t))
		})
	}
}

func testCompany() domain.Company {
	return domain.Company{
		CUIT:             "30712345671",
		Name:             "Estudio Contable SRL",
		FiscalYearStart:  "01/01/2024",
		FiscalYearEnd:    "31/12/2024",
		ClosingDate:      "31/12/2024",
		PriorClosingDate: "31/12/2023",
		AssetTypes:       []string{"Rodados", "Maquinaria", "Terrenos"},
	}
}

func TestCompanyRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		require.NoError(t, repo.UpsertCompany(ctx, testCompany()))

		got, err := repo.GetCompany(ctx, "30712345671")
		require.NoError(t, err)
		assert.Equal(t, testCompany(), got, "asset types keep their configured order")

		updated := testCompany()
		updated.Name = "Estudio Contable SA"
		updated.AssetTypes = []string{"Inmuebles"}
		require.NoError(t, repo.UpsertCompany(ctx, updated))

		got, err = repo.GetCompany(ctx, "30712345671")
		require.NoError(t, err)
		assert.Equal(t, "Estudio Contable SA", got.Name)
		assert.Equal(t, []string{"Inmuebles"}, got.AssetTypes, "asset types are replaced, not merged")
	})
}

func TestGetCompanyNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		_, err := repo.GetCompany(context.Background(), "20123456786")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestReplaceAssets(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		require.NoError(t, repo.UpsertCompany(ctx, testCompany()))

		first := []domain.Asset{
			{
				ID: 2, Description: "Camioneta", Type: "Rodados", Depreciable: true, UsefulLifeYears: 5,
				AcquisitionFiscalYear: 2022, AcquisitionDate: "15/08/2022", DisposalDate: "01/02/2024",
				OriginalValue: decimal.RequireFromString("500000.55"),
			},
			{
				ID: 1, Description: "Torno CNC", Type: "Maquinaria", Depreciable: true, UsefulLifeYears: 10,
				AcquisitionFiscalYear: 2015, AcquisitionDate: "01/06/2015",
				OriginalValue: decimal.RequireFromString("1000000"),
			},
		}
		require.NoError(t, repo.ReplaceAssets(ctx, "30712345671", first))

		got, err := repo.ListAssets(ctx, "30712345671")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 1, got[0].ID, "assets are listed by id")
		assert.Equal(t, "01/02/2024", got[1].DisposalDate)
		assert.True(t, got[1].OriginalValue.Equal(decimal.RequireFromString("500000.55")))
		assert.True(t, got[1].Depreciable)

		require.NoError(t, repo.ReplaceAssets(ctx, "30712345671", first[1:]))
		got, err = repo.ListAssets(ctx, "30712345671")
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestReplaceAssetsRequiresCompany(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		err := repo.ReplaceAssets(context.Background(), "20123456786", []domain.Asset{{ID: 1, OriginalValue: decimal.Zero}})
		assert.Error(t, err)
	})
}

func TestIndicesUpsertByMonth(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		loaded := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

		require.NoError(t, repo.SaveIndices(ctx, []index.Observation{
			{Date: "31/12/2024", Value: decimal.RequireFromString("7694.123456"), LoadedAt: loaded},
			{Date: "31/12/2023", Value: decimal.RequireFromString("3533.19"), Note: "dic", LoadedAt: loaded},
		}))
		require.NoError(t, repo.SaveIndices(ctx, []index.Observation{
			{Date: "01/12/2024", Value: decimal.RequireFromString("7700"), Note: "revisado", LoadedAt: loaded},
		}))

		got, err := repo.ListIndices(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, "31/12/2023", got[0].Date)
		assert.Equal(t, "dic", got[0].Note)
		assert.True(t, got[0].LoadedAt.Equal(loaded))

		assert.Equal(t, "01/12/2024", got[1].Date)
		assert.True(t, got[1].Value.Equal(decimal.NewFromInt(7700)))
		assert.Equal(t, "revisado", got[1].Note)
	})
}

func TestSaveIndicesRejectsInvalidDate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo Repository) {
		err := repo.SaveIndices(context.Background(), []index.Observation{{Date: "2024-12-31", Value: decimal.NewFromInt(1)}})
		assert.ErrorIs(t, err, domain.ErrInvalidDate)

		got, err := repo.ListIndices(context.Background())
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
