// Package csvio reads and writes the semicolon-separated files exchanged with
// accountants: asset registers and FACPCE index series, with Argentine number formatting.
package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/mtlprog/bienes/internal/domain"
)

const (
	delimiter = ';'
	sniffSize = 1024
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// newReader buffers r, decodes it as UTF-8 (falling back to Windows-1252 as
// spreadsheets on Windows save it) and picks ';' or ',' from the first kilobyte.
func newReader(r io.Reader) (*csv.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	if !utf8.Valid(data) {
		data, err = charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decoding csv: %w", err)
		}
	}

	sep := ','
	if bytes.ContainsRune(data[:min(len(data), sniffSize)], ';') {
		sep = delimiter
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr, nil
}

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	return cw
}

func isHeader(row []string, first string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), first)
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func money(d decimal.Decimal) string {
	return domain.FormatArgentine(d, 2)
}
