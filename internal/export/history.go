package export

import (
	"github.com/mtlprog/bienes/internal/valuation"
)

const closeLogTimeLayout = "02.01.2006 15:04"

// closeLogHeader names the CIERRES columns; every export appends one row so the
// sheet tracks how a close evolves as index data is loaded.
var closeLogHeader = []any{
	"Generado", "CUIT", "Empresa", "Cierre", "Cierre Anterior",
	"Bienes", "Con Error", "Indices Faltantes",
	"VO Histórico", "Amort. Ejercicio", "Residual Histórico",
	"VO Ajustado", "Amort. Ejercicio Ajust.", "Residual Ajustado",
}

// buildCloseLogRow summarizes report in one CIERRES row.
func buildCloseLogRow(report valuation.Report) []any {
	t := report.Totals
	return []any{
		report.GeneratedAt.UTC().Format(closeLogTimeLayout),
		report.Company.CUIT,
		report.Company.Name,
		report.Closing,
		report.PriorClosing,
		t.AssetCount,
		t.FailedCount,
		len(report.MissingDates),
		toFloat(t.OriginalValue),
		toFloat(t.PeriodDepreciation),
		toFloat(t.ResidualValue),
		toFloat(t.RestatedValue),
		toFloat(t.RestatedPeriod),
		toFloat(t.RestatedResidual),
	}
}
