// Package report renders processed claim uploads into spreadsheet and PDF
// artifacts: an Excel workbook with a status-totals summary sheet and a raw
// details sheet, and a print-ready PDF of the same totals.
package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"claimsight/internal/records"
)

// Artifacts holds the rendered outputs of one upload.
type Artifacts struct {
	Summary   map[string]float64 // status -> total amount
	ExcelPath string
	PDFPath   string
}

// BuildSummary aggregates total claim amounts by status.
func BuildSummary(table *records.Table) map[string]float64 {
	summary := make(map[string]float64)
	for _, rec := range table.Records {
		summary[rec.Status] += rec.Amount
	}
	return summary
}

// Generate renders the Excel and PDF artifacts for a parsed upload into
// outDir and returns their paths together with the status summary.
func Generate(table *records.Table, outDir string) (*Artifacts, error) {
	summary := BuildSummary(table)

	timestamp := time.Now().UTC().Format("20060102150405")
	excelPath := filepath.Join(outDir, fmt.Sprintf("claims_report_%s.xlsx", timestamp))
	pdfPath := filepath.Join(outDir, fmt.Sprintf("claims_report_%s.pdf", timestamp))

	if err := writeExcel(table, summary, excelPath); err != nil {
		return nil, fmt.Errorf("excel render: %w", err)
	}
	if err := writePDF(summary, pdfPath); err != nil {
		return nil, fmt.Errorf("pdf render: %w", err)
	}

	return &Artifacts{Summary: summary, ExcelPath: excelPath, PDFPath: pdfPath}, nil
}

// sortedStatuses returns summary keys in a stable order for rendering.
func sortedStatuses(summary map[string]float64) []string {
	statuses := make([]string, 0, len(summary))
	for s := range summary {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	return statuses
}
