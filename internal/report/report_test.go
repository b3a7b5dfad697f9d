package report

import (
	"os"
	"testing"
	"time"

	"claimsight/internal/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() *records.Table {
	return &records.Table{
		Columns: []string{"ClaimID", "Status", "Amount", "Date", "Type", "Provider"},
		Records: []records.ClaimRecord{
			{ClaimID: "C1", Status: "Paid", Amount: 100.50,
				Date: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), Type: "Dental",
				Extra: map[string]string{"Provider": "Acme"}},
			{ClaimID: "C2", Status: "Denied", Amount: 800,
				Date: time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), Type: "Surgery",
				Extra: map[string]string{"Provider": "Bolt"}},
			{ClaimID: "C3", Status: "Paid", Amount: 49.50,
				Date: time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC), Type: "Vision",
				Extra: map[string]string{"Provider": "Acme"}},
		},
	}
}

func TestBuildSummary(t *testing.T) {
	summary := BuildSummary(sampleTable())

	assert.InDelta(t, 150.0, summary["Paid"], 1e-9)
	assert.InDelta(t, 800.0, summary["Denied"], 1e-9)
	assert.Len(t, summary, 2)
}

func TestGenerate_WritesBothArtifacts(t *testing.T) {
	outDir := t.TempDir()

	artifacts, err := Generate(sampleTable(), outDir)
	require.NoError(t, err)

	for _, path := range []string{artifacts.ExcelPath, artifacts.PDFPath} {
		info, err := os.Stat(path)
		require.NoError(t, err, "artifact %s missing", path)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestGenerate_ExcelContents(t *testing.T) {
	outDir := t.TempDir()

	artifacts, err := Generate(sampleTable(), outDir)
	require.NoError(t, err)

	f, err := excelize.OpenFile(artifacts.ExcelPath)
	require.NoError(t, err)
	defer f.Close()

	// Summary sheet: statuses in sorted order with totals.
	got, err := f.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Denied", got)
	total, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "800", total)

	// Details sheet: original columns including passthrough.
	header, err := f.GetCellValue("Details", "F1")
	require.NoError(t, err)
	assert.Equal(t, "Provider", header)
	provider, err := f.GetCellValue("Details", "F2")
	require.NoError(t, err)
	assert.Equal(t, "Acme", provider)
}
