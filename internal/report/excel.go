package report

import (
	"fmt"

	"claimsight/internal/records"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	detailsSheet = "Details"
)

func writeExcel(table *records.Table, summary map[string]float64, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", summarySheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(summarySheet, "A1", &[]any{"Status", "Total Amount"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", headerStyle); err != nil {
		return err
	}
	for i, status := range sortedStatuses(summary) {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(summarySheet, cell, &[]any{status, summary[status]}); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(detailsSheet); err != nil {
		return err
	}
	header := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(detailsSheet, "A1", &header); err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(table.Columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(detailsSheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for r, rec := range table.Records {
		row := make([]any, len(table.Columns))
		for c, col := range table.Columns {
			row[c] = detailValue(rec, col)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(detailsSheet, cell, &row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func detailValue(rec records.ClaimRecord, col string) any {
	switch col {
	case "ClaimID":
		return rec.ClaimID
	case "Status":
		return rec.Status
	case "Amount":
		return rec.Amount
	case "Date":
		if rec.Date.IsZero() {
			return ""
		}
		return rec.Date.Format("2006-01-02")
	case "Type":
		return rec.Type
	default:
		return rec.Extra[col]
	}
}
