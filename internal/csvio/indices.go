package csvio

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mtlprog/bienes/internal/domain"
	"github.com/mtlprog/bienes/internal/index"
)

const (
	indexPlaces    = 6
	loadedAtLayout = "02/01/2006 15:04:05"
)

var indicesHeader = []string{"Fecha", "Indice", "Observaciones", "Fecha_Carga"}

// ReadIndices loads Fecha;Indice[;Observaciones] rows into reg and returns how many
// were stored. Rows with an unparseable date are skipped; an unparseable index value
// stops the load with an error.
func ReadIndices(r io.Reader, reg *index.Registry) (int, error) {
	cr, err := newReader(r)
	if err != nil {
		return 0, err
	}

	count := 0
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("reading csv line %d: %w", line, err)
		}
		if len(row) < 2 || isHeader(row, "Fecha") {
			continue
		}

		value, err := domain.ParseArgentineDecimal(row[1])
		if err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}

		note := ""
		if len(row) > 2 {
			note = strings.TrimSpace(row[2])
		}
		if reg.Add(strings.TrimSpace(row[0]), value, note) {
			count++
		}
	}

	return count, nil
}

// WriteIndices writes every observation in reg ordered by date.
func WriteIndices(w io.Writer, reg *index.Registry) error {
	cw := newWriter(w)
	if err := cw.Write(indicesHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, obs := range reg.All() {
		loaded := ""
		if !obs.LoadedAt.IsZero() {
			loaded = obs.LoadedAt.Format(loadedAtLayout)
		}
		row := []string{obs.Date, domain.FormatArgentine(obs.Value, indexPlaces), obs.Note, loaded}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing index %s: %w", obs.Date, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
