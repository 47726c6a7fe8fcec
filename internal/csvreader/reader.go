package csvreader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/apperr"
)

// RawRecord maps header field names, verbatim as they appeared in the
// source, to normalized scalar values: int64, float64, string or nil.
type RawRecord map[string]interface{}

// Reader yields one RawRecord per data row, in input order. It is a lazy,
// non-restartable pass over the payload. Ragged rows are not rejected:
// missing trailing cells become nil, surplus cells are dropped.
type Reader struct {
	header []string
	csv    *csv.Reader
}

// DetectDelimiter applies the upload-format fallback once: payloads whose
// header row yields exactly one comma-separated column are treated as
// semicolon-delimited.
func DetectDelimiter(payload []byte) rune {
	r := csv.NewReader(bytes.NewReader(payload))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rec, err := r.Read()
	if err == nil && len(rec) == 1 {
		return ';'
	}
	return ','
}

// NewReader validates the payload encoding and consumes the header row.
func NewReader(payload []byte, delimiter rune) (*Reader, error) {
	if !utf8.Valid(payload) {
		return nil, fmt.Errorf("%w: payload is not valid utf-8", apperr.ErrParse)
	}
	payload = bytes.TrimPrefix(payload, []byte("\uFEFF"))

	r := csv.NewReader(bytes.NewReader(payload))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: payload has no header row", apperr.ErrParse)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrParse, err)
	}
	return &Reader{header: header, csv: r}, nil
}

// Header returns the field names from the first row, verbatim.
func (r *Reader) Header() []string {
	return r.header
}

// Next returns the next row as a RawRecord, or io.EOF when the payload is
// exhausted.
func (r *Reader) Next() (RawRecord, error) {
	row, err := r.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrParse, err)
	}
	record := make(RawRecord, len(r.header))
	for i, name := range r.header {
		if i < len(row) {
			record[name] = cleanValue(row[i])
		} else {
			record[name] = nil
		}
	}
	return record, nil
}

// ReadAll drains the reader.
func (r *Reader) ReadAll() ([]RawRecord, error) {
	var records []RawRecord
	for {
		record, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

// cleanValue normalizes one cell: blank cells become nil, a decimal comma
// is rewritten to a decimal point before numeric coercion, and cells that
// fail numeric coercion keep the rewritten text (upstream behavior).
func cleanValue(raw string) interface{} {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if strings.Contains(cleaned, ".") {
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return f
		}
	} else if i, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
		return i
	}
	return cleaned
}
