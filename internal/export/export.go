// Package export publishes fiscal close reports as spreadsheets, either to a local
// XLSX workbook or to Google Sheets.
package export

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/bienes/internal/index"
	"github.com/mtlprog/bienes/internal/inflation"
	"github.com/mtlprog/bienes/internal/valuation"
)

// Sheet names written by Export.
const (
	SheetHistorical = "HISTORICO"
	SheetAdjusted   = "AJUSTADO"
	SheetMissing    = "INDICES_FALTANTES"
	SheetCloseLog   = "CIERRES"
)

// Sheet is a named grid of cell values. The first row is the header.
type Sheet struct {
	Name string
	Rows [][]any
}

// SheetWriter writes sheets to a spreadsheet destination.
type SheetWriter interface {
	// Write replaces the content of each named sheet, creating it when missing.
	Write(ctx context.Context, sheets []Sheet) error
	// AppendRow adds row to the end of sheet, writing header first when the sheet is empty.
	AppendRow(ctx context.Context, sheet string, header, row []any) error
}

// Service renders close reports and delegates writing to a SheetWriter.
type Service struct {
	writer SheetWriter
}

// NewService creates a new export Service.
func NewService(writer SheetWriter) *Service {
	return &Service{writer: writer}
}

// Export writes the historical, adjusted and missing-index sheets of report and
// appends a summary line to the close log.
func (s *Service) Export(ctx context.Context, report valuation.Report) error {
	if err := s.writer.Write(ctx, BuildSheets(report)); err != nil {
		return fmt.Errorf("writing close sheets: %w", err)
	}
	if err := s.writer.AppendRow(ctx, SheetCloseLog, closeLogHeader, buildCloseLogRow(report)); err != nil {
		return fmt.Errorf("appending close log: %w", err)
	}
	return nil
}

// Fanout exports the same report to several destinations concurrently.
type Fanout []*Service

// Export runs every service and returns the first error.
func (f Fanout) Export(ctx context.Context, report valuation.Report) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range f {
		g.Go(func() error { return s.Export(ctx, report) })
	}
	return g.Wait()
}

// BuildSheets renders the three report sheets.
func BuildSheets(report valuation.Report) []Sheet {
	return []Sheet{
		{Name: SheetHistorical, Rows: buildHistorical(report)},
		{Name: SheetAdjusted, Rows: buildAdjusted(report)},
		{Name: SheetMissing, Rows: buildMissing(report)},
	}
}

// buildHistorical builds the HISTORICO sheet.
// Columns: ID | Descripción | TipoBien | Amortizable | Años | Ejercicio | F.Ingreso | F.Baja |
// Valor Origen | Amort. Inicio | Amort. Ejercicio | Amort. Acumulada | Valor Residual | Error
func buildHistorical(report valuation.Report) [][]any {
	data := make([][]any, 0, len(report.Assets)+2)
	data = append(data, []any{
		"ID", "Descripción", "TipoBien", "Amortizable", "Años", "Ejercicio",
		"F.Ingreso", "F.Baja", "Valor Origen",
		"Amort. Inicio", "Amort. Ejercicio", "Amort. Acumulada", "Valor Residual", "Error",
	})

	for _, a := range report.Assets {
		d := report.Depreciation[a.ID]
		data = append(data, []any{
			a.ID, a.Description, a.Type, yesNo(a.Depreciable), a.UsefulLifeYears, a.AcquisitionFiscalYear,
			a.AcquisitionDate, a.DisposalDate, toFloat(a.OriginalValue),
			toFloat(d.StartAccumulated), toFloat(d.PeriodAmount), toFloat(d.EndAccumulated), toFloat(d.ResidualValue),
			d.Error,
		})
	}

	t := report.Totals
	data = append(data, []any{
		"TOTAL", "", "", "", "", "", "", "", toFloat(t.OriginalValue),
		"", toFloat(t.PeriodDepreciation), toFloat(t.EndAccumulated), toFloat(t.ResidualValue), "",
	})
	return data
}

// buildAdjusted builds the AJUSTADO sheet. Assets whose restatement failed show
// their failure message and empty amounts.
func buildAdjusted(report valuation.Report) [][]any {
	data := make([][]any, 0, len(report.Assets)+2)
	data = append(data, []any{
		"ID", "Descripción", "TipoBien", "F.Ingreso", "Coef. Anterior", "Coef. Actual",
		"VO Histórico", "VO Ajustado Anterior", "VO Ajustado Actual", "Ajuste Infl. VO",
		"Amort. Inicio Ajust. Ant.", "Amort. Inicio Ajust. Act.", "Ajuste Infl. Amort. Inicio",
		"Amort. Ejercicio Ajust.", "Amort. Acum. Cierre Ajust.", "Valor Residual Ajustado", "Estado",
	})

	for _, a := range report.Assets {
		r, ok := report.Inflation[a.ID]
		row := []any{a.ID, a.Description, a.Type, a.AcquisitionDate}
		if !ok || !r.OK() {
			row = append(row, "", "", toFloat(a.OriginalValue), "", "", "", "", "", "", "", "", "", failureMessage(r))
			data = append(data, row)
			continue
		}
		row = append(row,
			toFloat(r.CoefficientPrior), toFloat(r.CoefficientCurrent),
			toFloat(r.OriginalValue), toFloat(r.ValueRestatedPrior), toFloat(r.ValueRestatedCurrent), toFloat(r.ValueAdjustment),
			toFloat(r.DeprStartRestatedPrior), toFloat(r.DeprStartRestatedCurrent), toFloat(r.DeprStartAdjustment),
			toFloat(r.PeriodDepreciation), toFloat(r.EndAccumulated), toFloat(r.ResidualValue),
			string(r.Status),
		)
		data = append(data, row)
	}

	t := report.Totals
	data = append(data, []any{
		"TOTAL", "", "", "", "", "", "", "", toFloat(t.RestatedValue), "",
		"", "", "", toFloat(t.RestatedPeriod), toFloat(t.RestatedEndAccumulated), toFloat(t.RestatedResidual), "",
	})
	return data
}

// buildMissing builds the INDICES_FALTANTES sheet listing each month to load.
func buildMissing(report valuation.Report) [][]any {
	data := [][]any{{"Fecha", "Mes", "Fuente"}}
	for _, date := range report.MissingDates {
		month := ""
		if k, err := index.MonthKeyOf(date); err == nil {
			month = k.String()
		}
		data = append(data, []any{date, month, inflation.ReferenceURL})
	}
	return data
}

func failureMessage(r inflation.Result) string {
	if r.Failure == nil {
		return "sin ajuste"
	}
	return r.Failure.Message
}

func yesNo(b bool) string {
	if b {
		return "SI"
	}
	return "NO"
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
