package export

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSXWriterWritesSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cierre.xlsx")
	w := NewXLSXWriter(path)
	ctx := context.Background()

	if err := NewService(w).Export(ctx, sampleReport()); err != nil {
		t.Fatalf("first export: %v", err)
	}
	if err := NewService(w).Export(ctx, sampleReport()); err != nil {
		t.Fatalf("second export: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	for _, name := range []string{SheetHistorical, SheetAdjusted, SheetMissing, SheetCloseLog} {
		if idx, _ := f.GetSheetIndex(name); idx < 0 {
			t.Errorf("sheet %s missing, have %v", name, sheets)
		}
	}
	if idx, _ := f.GetSheetIndex(defaultSheet); idx >= 0 {
		t.Errorf("placeholder %s should be removed", defaultSheet)
	}

	hist, err := f.GetRows(SheetHistorical)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 4 {
		t.Errorf("HISTORICO rows = %d, want 4 (rewritten, not appended)", len(hist))
	}
	if hist[1][1] != "Torno CNC" || hist[3][0] != "TOTAL" {
		t.Errorf("unexpected HISTORICO content %v", hist)
	}

	missing, err := f.GetRows(SheetMissing)
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 2 || missing[1][0] != "15/08/2022" {
		t.Errorf("INDICES_FALTANTES = %v", missing)
	}

	log, err := f.GetRows(SheetCloseLog)
	if err != nil {
		t.Fatal(err)
	}
	// header + one row per export
	if len(log) != 3 {
		t.Fatalf("CIERRES rows = %d, want 3", len(log))
	}
	if log[0][0] != "Generado" || log[2][3] != "31/12/2024" {
		t.Errorf("unexpected CIERRES content %v", log)
	}
}
