package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXWriter implements SheetWriter on a local workbook. Sheets it does not
// manage are preserved between writes.
type XLSXWriter struct {
	path string
	mu   sync.Mutex
}

// NewXLSXWriter creates a writer for the workbook at path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Write recreates each sheet with its rows and saves the workbook.
func (w *XLSXWriter) Write(_ context.Context, data []Sheet) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	header, err := headerStyle(f)
	if err != nil {
		return err
	}

	for _, s := range data {
		if idx, _ := f.GetSheetIndex(s.Name); idx >= 0 {
			if err := f.DeleteSheet(s.Name); err != nil {
				return fmt.Errorf("resetting sheet %s: %w", s.Name, err)
			}
		}
		if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", s.Name, err)
		}

		for i, row := range s.Rows {
			if err := setRow(f, s.Name, i+1, row); err != nil {
				return err
			}
		}
		if len(s.Rows) > 0 {
			if err := f.SetRowStyle(s.Name, 1, 1, header); err != nil {
				return fmt.Errorf("styling %s header: %w", s.Name, err)
			}
		}
	}

	return w.save(f)
}

// AppendRow adds row after the last used row of sheet.
func (w *XLSXWriter) AppendRow(_ context.Context, sheet string, header, row []any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sheet, err)
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("reading sheet %s: %w", sheet, err)
	}

	next := len(rows) + 1
	if len(rows) == 0 {
		if err := setRow(f, sheet, 1, header); err != nil {
			return err
		}
		style, err := headerStyle(f)
		if err != nil {
			return err
		}
		if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
			return fmt.Errorf("styling %s header: %w", sheet, err)
		}
		next = 2
	}

	if err := setRow(f, sheet, next, row); err != nil {
		return err
	}
	return w.save(f)
}

// open loads the existing workbook or starts a new one.
func (w *XLSXWriter) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.path)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	return nil, fmt.Errorf("opening workbook %s: %w", w.path, err)
}

// save drops the placeholder sheet of a new workbook once real sheets exist, then writes.
func (w *XLSXWriter) save(f *excelize.File) error {
	if idx, _ := f.GetSheetIndex(defaultSheet); idx >= 0 && len(f.GetSheetList()) > 1 {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("removing %s: %w", defaultSheet, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, fmt.Errorf("creating header style: %w", err)
	}
	return style, nil
}
