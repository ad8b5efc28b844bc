package csvio

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/inflation"
	"github.com/mtlprog/bienes/internal/valuation"
)

const (
	assetColumns       = 9
	defaultUsefulLife  = 5
	defaultExampleType = "Maquinaria"
)

var baseHeader = []string{
	"ID", "Descripción", "TipoBien", "Amortizable", "Años",
	"Ejercicio", "FechaIngreso", "FechaBaja", "ValorOrigen",
}

var historicalHeader = append(slices.Clone(baseHeader),
	"AmortizacionInicio", "AmortizacionEjercicio", "AmortizacionAcumulada", "ValorResidual")

var adjustedHeader = []string{
	"ID", "Descripción", "TipoBien", "F.Ingreso",
	"Valor_Origen_Historico", "VO_Ajustado_Anterior", "VO_Ajustado_Actual",
	"Ajuste_Infl_VO", "Amort_Inicio_Ajust_Ant", "Amort_Inicio_Ajust_Act",
	"Ajuste_Infl_Amort_Inicio", "Amort_Ejercicio_Ajust",
	"Amort_Acum_Cierre_Ajust", "Valor_Residual_Ajustado",
}

var trueFlags = []string{"SI", "SÍ", "S", "YES", "Y", "1"}

// Mode selects the asset export layout.
type Mode int

const (
	// ModeBase writes the nine import columns.
	ModeBase Mode = iota
	// ModeHistorical appends the historical depreciation breakdown.
	ModeHistorical
	// ModeAdjusted writes the inflation-adjusted figures.
	ModeAdjusted
)

// RowError reports one rejected input row. Line is the 1-based file line where the
// record starts, so quoted multi-line fields do not shift later rows.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// ReadAssets parses an asset register. Rows that fail to parse or validate are
// reported as RowErrors and skipped; only an unreadable input returns an error.
// An empty ID takes the record's starting line number; an empty useful life defaults to five years
// and an empty fiscal year to the acquisition date's year.
func ReadAssets(r io.Reader, allowedTypes []string) ([]domain.Asset, []RowError, error) {
	cr, err := newReader(r)
	if err != nil {
		return nil, nil, err
	}

	var (
		assets  []domain.Asset
		rowErrs []RowError
	)
	for record := 1; ; record++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return assets, rowErrs, fmt.Errorf("reading csv: %w", err)
		}
		if blank(row) || (record == 1 && isHeader(row, "ID")) {
			continue
		}
		line, _ := cr.FieldPos(0)

		a, err := parseAsset(row, line)
		if err == nil {
			err = domain.ValidateAsset(a, allowedTypes)
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		assets = append(assets, a)
	}

	return assets, rowErrs, nil
}

func parseAsset(row []string, line int) (domain.Asset, error) {
	if len(row) < assetColumns {
		return domain.Asset{}, fmt.Errorf("expected at least %d columns, got %d", assetColumns, len(row))
	}
	f := lo.Map(row, func(s string, _ int) string { return strings.TrimSpace(s) })

	id := line
	if f[0] != "" {
		v, err := strconv.Atoi(f[0])
		if err != nil {
			return domain.Asset{}, fmt.Errorf("invalid id %q", f[0])
		}
		id = v
	}

	depreciable := lo.Contains(trueFlags, strings.ToUpper(f[3]))

	life := defaultUsefulLife
	if f[4] != "" {
		v, err := strconv.Atoi(f[4])
		if err != nil {
			return domain.Asset{}, fmt.Errorf("invalid useful life %q", f[4])
		}
		life = v
	}

	var fiscalYear int
	if f[5] != "" {
		v, err := strconv.Atoi(f[5])
		if err != nil {
			return domain.Asset{}, fmt.Errorf("invalid fiscal year %q", f[5])
		}
		fiscalYear = v
	} else if t, err := domain.ParseDate(f[6]); err == nil {
		fiscalYear = t.Year()
	}

	value, err := domain.ParseArgentineDecimal(f[8])
	if err != nil {
		return domain.Asset{}, err
	}

	return domain.NewAsset(domain.Asset{
		ID:                    id,
		Description:           f[1],
		Type:                  f[2],
		Depreciable:           depreciable,
		UsefulLifeYears:       life,
		AcquisitionFiscalYear: fiscalYear,
		AcquisitionDate:       f[6],
		DisposalDate:          f[7],
		OriginalValue:         value,
	}), nil
}

// WriteAssets writes assets ordered by ID in the layout selected by mode.
// depr is used by ModeHistorical and infl by ModeAdjusted; missing entries print as zero.
func WriteAssets(w io.Writer, assets []domain.Asset, depr map[int]valuation.DepreciationEntry, infl map[int]inflation.Result, mode Mode) error {
	cw := newWriter(w)

	header := baseHeader
	switch mode {
	case ModeHistorical:
		header = historicalHeader
	case ModeAdjusted:
		header = adjustedHeader
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	sorted := slices.Clone(assets)
	slices.SortFunc(sorted, func(a, b domain.Asset) int { return a.ID - b.ID })

	for _, a := range sorted {
		var row []string
		switch mode {
		case ModeAdjusted:
			row = adjustedRow(a, infl[a.ID])
		case ModeHistorical:
			d := depr[a.ID]
			row = append(baseRow(a),
				money(d.StartAccumulated), money(d.PeriodAmount),
				money(d.EndAccumulated), money(d.ResidualValue))
		default:
			row = baseRow(a)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing asset %d: %w", a.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func baseRow(a domain.Asset) []string {
	flag := "NO"
	if a.Depreciable {
		flag = "SI"
	}
	return []string{
		strconv.Itoa(a.ID), a.Description, a.Type, flag,
		strconv.Itoa(a.UsefulLifeYears), strconv.Itoa(a.AcquisitionFiscalYear),
		a.AcquisitionDate, a.DisposalDate, money(a.OriginalValue),
	}
}

func adjustedRow(a domain.Asset, r inflation.Result) []string {
	return []string{
		strconv.Itoa(a.ID), a.Description, a.Type, a.AcquisitionDate,
		money(a.OriginalValue),
		money(r.ValueRestatedPrior), money(r.ValueRestatedCurrent), money(r.ValueAdjustment),
		money(r.DeprStartRestatedPrior), money(r.DeprStartRestatedCurrent), money(r.DeprStartAdjustment),
		money(r.PeriodDepreciation), money(r.EndAccumulated), money(r.ResidualValue),
	}
}

// WriteTemplate writes the import header and one example row using the first allowed type.
func WriteTemplate(w io.Writer, allowedTypes []string) error {
	example := defaultExampleType
	if len(allowedTypes) > 0 {
		example = allowedTypes[0]
	}

	cw := newWriter(w)
	if err := cw.WriteAll([][]string{
		baseHeader,
		{"1", "Ejemplo Máquina Industrial", example, "SI", "10", "2020", "15/03/2020", "", "1.250.000,00"},
	}); err != nil {
		return fmt.Errorf("writing template: %w", err)
	}
	return nil
}
