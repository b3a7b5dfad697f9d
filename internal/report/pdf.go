package report

import (
	"fmt"

	"github.com/go-pdf/fpdf"
)

func writePDF(summary map[string]float64, path string) error {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(true, 72)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 24, "Claims Totals by Status", "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(180, 18, "Status", "", 0, "L", false, 0, "")
	pdf.CellFormat(180, 18, "Total Amount", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	for _, status := range sortedStatuses(summary) {
		pdf.CellFormat(180, 16, status, "", 0, "L", false, 0, "")
		pdf.CellFormat(180, 16, fmt.Sprintf("%.2f", summary[status]), "", 1, "L", false, 0, "")
	}

	return pdf.OutputFileAndClose(path)
}
