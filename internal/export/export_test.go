package export

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/index"
	"github.com/mtlprog/bienes/internal/inflation"
	"github.com/mtlprog/bienes/internal/valuation"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleReport() valuation.Report {
	reg := index.NewRegistry()
	reg.Add("01/06/2015", dec("100"), "")
	reg.Add("31/12/2023", dec("150"), "")
	reg.Add("31/12/2024", dec("300"), "")

	assets := []domain.Asset{
		{
			ID: 1, Description: "Torno CNC", Type: "Maquinaria", Depreciable: true, UsefulLifeYears: 10,
			AcquisitionFiscalYear: 2015, AcquisitionDate: "01/06/2015", OriginalValue: dec("1000000"),
		},
		{
			ID: 2, Description: "Camioneta", Type: "Rodados", Depreciable: true, UsefulLifeYears: 5,
			AcquisitionFiscalYear: 2022, AcquisitionDate: "15/08/2022", OriginalValue: dec("500000"),
		},
	}
	company := domain.Company{CUIT: "30712345671", Name: "Estudio Contable SRL"}

	report := valuation.Run(company, assets, reg, "31/12/2024", "31/12/2023", 2)
	report.GeneratedAt = time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)
	return report
}

func TestBuildHistorical(t *testing.T) {
	rows := buildHistorical(sampleReport())

	// header + 2 assets + totals
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][13] != "Error" {
		t.Errorf("unexpected header %v", rows[0])
	}

	first := rows[1]
	if first[0] != 1 || first[3] != "SI" {
		t.Errorf("row 1 = %v", first)
	}
	if first[9] != 900000.0 || first[10] != 100000.0 || first[12] != 0.0 {
		t.Errorf("row 1 depreciation = %v %v %v", first[9], first[10], first[12])
	}

	totals := rows[3]
	if totals[0] != "TOTAL" || totals[8] != 1500000.0 {
		t.Errorf("totals row = %v", totals)
	}
	for _, row := range rows {
		if len(row) != len(rows[0]) {
			t.Errorf("row width %d, want %d", len(row), len(rows[0]))
		}
	}
}

func TestBuildAdjusted(t *testing.T) {
	rows := buildAdjusted(sampleReport())

	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			t.Errorf("row %d width %d, want %d", i, len(row), width)
		}
	}

	ok := rows[1]
	if ok[4] != 1.5 || ok[5] != 3.0 {
		t.Errorf("coefficients = %v %v, want 1.5 3", ok[4], ok[5])
	}
	if ok[8] != 3000000.0 {
		t.Errorf("restated value = %v, want 3000000", ok[8])
	}
	if ok[width-1] != "ok" {
		t.Errorf("status = %v, want ok", ok[width-1])
	}

	failed := rows[2]
	if msg, _ := failed[width-1].(string); !strings.Contains(msg, "missing index for 15/08/2022") {
		t.Errorf("failure message = %v", failed[width-1])
	}
	if failed[4] != "" {
		t.Errorf("failed row should leave coefficients empty, got %v", failed[4])
	}
}

func TestBuildMissing(t *testing.T) {
	rows := buildMissing(sampleReport())

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[1][0] != "15/08/2022" || rows[1][1] != "08/2022" || rows[1][2] != inflation.ReferenceURL {
		t.Errorf("missing row = %v", rows[1])
	}
}

func TestBuildCloseLogRow(t *testing.T) {
	row := buildCloseLogRow(sampleReport())

	if len(row) != len(closeLogHeader) {
		t.Fatalf("row width %d, header width %d", len(row), len(closeLogHeader))
	}
	if row[0] != "10.01.2025 09:30" {
		t.Errorf("Generado = %v", row[0])
	}
	if row[3] != "31/12/2024" || row[5] != 2 || row[6] != 1 || row[7] != 1 {
		t.Errorf("row = %v", row)
	}
}

type recordingWriter struct {
	written  []Sheet
	appended [][]any
	sheet    string
	err      error
}

func (w *recordingWriter) Write(_ context.Context, sheets []Sheet) error {
	w.written = sheets
	return w.err
}

func (w *recordingWriter) AppendRow(_ context.Context, sheet string, _, row []any) error {
	w.sheet = sheet
	w.appended = append(w.appended, row)
	return nil
}

func TestServiceExport(t *testing.T) {
	w := &recordingWriter{}
	if err := NewService(w).Export(context.Background(), sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := make([]string, 0, len(w.written))
	for _, s := range w.written {
		names = append(names, s.Name)
	}
	want := []string{SheetHistorical, SheetAdjusted, SheetMissing}
	if len(names) != len(want) {
		t.Fatalf("sheets = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("sheet[%d] = %s, want %s", i, names[i], want[i])
		}
	}
	if w.sheet != SheetCloseLog || len(w.appended) != 1 {
		t.Errorf("close log not appended: sheet=%q rows=%d", w.sheet, len(w.appended))
	}
}

func TestServiceExportWriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("quota exceeded")}
	if err := NewService(w).Export(context.Background(), sampleReport()); err == nil {
		t.Fatal("expected error")
	}
	if len(w.appended) != 0 {
		t.Error("close log must not be appended when writing fails")
	}
}

func TestFanoutExportsToEveryDestination(t *testing.T) {
	a, b := &recordingWriter{}, &recordingWriter{}
	if err := (Fanout{NewService(a), NewService(b)}).Export(context.Background(), sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.appended) != 1 || len(b.appended) != 1 {
		t.Errorf("appended rows = %d/%d, want 1/1", len(a.appended), len(b.appended))
	}
}

func TestFanoutReturnsError(t *testing.T) {
	ok, bad := &recordingWriter{}, &recordingWriter{err: errors.New("disk full")}
	err := (Fanout{NewService(ok), NewService(bad)}).Export(context.Background(), sampleReport())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error = %v, want disk full", err)
	}
}
