// Package records parses raw claim uploads into typed records.
//
// Parsing is deliberately permissive at the value level: a row with an
// unparsable amount or date is kept with a sentinel value rather than
// dropped, so the caller always sees every uploaded row.
package records

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Required header columns, in canonical order.
var RequiredColumns = []string{"ClaimID", "Status", "Amount", "Date", "Type"}

// ClaimRecord is one parsed input row.
type ClaimRecord struct {
	ClaimID string
	Status  string
	Amount  float64   // unparsable values coerce to 0.0
	Date    time.Time // unparsable values coerce to the zero time
	Type    string
	Extra   map[string]string // passthrough columns, kept for report details
}

// Table holds parsed records together with the original column order,
// which the report renderer needs to reproduce the input layout.
type Table struct {
	Columns []string
	Records []ClaimRecord
}

// SchemaError reports required header columns missing from the input.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// EmptyInputError reports an input with no usable data rows.
type EmptyInputError struct {
	Reason string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("no data in input: %s", e.Reason)
}

// Accepted date layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"2006/01/02",
}

// Parse reads delimited text into a Table. It fails with SchemaError when a
// required column is absent from the header and with EmptyInputError when the
// input has no data rows or cannot be read as tabular data at all.
func Parse(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &EmptyInputError{Reason: "unparsable as tabular data"}
	}

	indices := make(map[string]int, len(header))
	for i, col := range header {
		indices[strings.TrimSpace(col)] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := indices[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	table := &Table{Columns: make([]string, len(header))}
	for i, col := range header {
		table.Columns[i] = strings.TrimSpace(col)
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line, keep whatever parsed rows we already have.
			continue
		}
		table.Records = append(table.Records, parseRow(table.Columns, indices, row))
	}

	if len(table.Records) == 0 {
		return nil, &EmptyInputError{Reason: "header only, zero data rows"}
	}

	return table, nil
}

func parseRow(columns []string, indices map[string]int, row []string) ClaimRecord {
	field := func(name string) string {
		idx, ok := indices[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := ClaimRecord{
		ClaimID: field("ClaimID"),
		Status:  field("Status"),
		Type:    field("Type"),
	}

	if amt, err := strconv.ParseFloat(field("Amount"), 64); err == nil {
		rec.Amount = amt
	}
	rec.Date = parseDate(field("Date"))

	for _, col := range columns {
		if isRequired(col) {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]string)
		}
		rec.Extra[col] = field(col)
	}

	return rec
}

func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func isRequired(col string) bool {
	for _, c := range RequiredColumns {
		if c == col {
			return true
		}
	}
	return false
}
