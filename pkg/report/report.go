// Package report renders run reports as XLSX workbooks and PDF documents.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/ektamehra-ue/uelogic/pkg/engine"
)

const (
	SheetSummary   = "summary"
	SheetMeters    = "meters"
	SheetAnomalies = "anomalies"

	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

func scopeText(s engine.Scope) string {
	org, site := s.OrgName, s.SiteName
	if org == "" {
		org = "all organizations"
	}
	if site == "" {
		return org
	}
	return org + " / " + site
}

func status(r *engine.RunReport) string {
	switch {
	case r.DryRun:
		return "dry run"
	case r.Committed:
		return "committed"
	default:
		return "not committed"
	}
}

// Build renders r in the given format, xlsx or pdf.
func Build(r *engine.RunReport, format string) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return BuildRunXLSX(r)
	case FormatPDF:
		return BuildRunPDF(r)
	default:
		return nil, fmt.Errorf("report: unknown format %q", format)
	}
}

// BuildRunXLSX renders a workbook with a summary, per meter counts and the
// skipped points.
func BuildRunXLSX(r *engine.RunReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", SheetSummary)
	if _, err := f.NewSheet(SheetMeters); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetAnomalies); err != nil {
		return nil, err
	}

	totals := r.Totals()
	summary := [][]any{
		{"Run", r.RunID},
		{"Scope", scopeText(r.Scope)},
		{"Window", r.Window.String()},
		{"Status", status(r)},
		{"Started", r.StartedAt.UTC().Format(time.RFC3339)},
		{"Finished", r.FinishedAt.UTC().Format(time.RFC3339)},
		{"Staged", totals.Staged},
		{"Written", totals.Written},
		{"Updated", totals.Updated},
		{"Skipped", totals.Skipped},
		{"Failed", totals.Failed},
	}
	_ = f.SetCellValue(SheetSummary, "A1", "Meter Engine Run")
	for i, row := range summary {
		_ = f.SetCellValue(SheetSummary, fmt.Sprintf("A%d", i+3), row[0])
		_ = f.SetCellValue(SheetSummary, fmt.Sprintf("B%d", i+3), row[1])
	}
	for i, w := range r.Warnings {
		_ = f.SetCellValue(SheetSummary, fmt.Sprintf("A%d", len(summary)+4+i), "Warning")
		_ = f.SetCellValue(SheetSummary, fmt.Sprintf("B%d", len(summary)+4+i), w)
	}

	headers := []string{"Meter", "Type", "Stage", "Level", "Staged", "Written", "Updated", "Skipped", "Failed"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetMeters, cell, h)
	}
	for i, m := range r.Meters {
		row := i + 2
		values := []any{m.Identifier, string(m.Type), m.Stage, m.Level, m.Staged, m.Written, m.Updated, m.Skipped, m.Failed}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			_ = f.SetCellValue(SheetMeters, cell, v)
		}
	}

	_ = f.SetCellValue(SheetAnomalies, "A1", "Meter")
	_ = f.SetCellValue(SheetAnomalies, "B1", "Timestamp")
	_ = f.SetCellValue(SheetAnomalies, "C1", "Kind")
	_ = f.SetCellValue(SheetAnomalies, "D1", "Detail")
	for i, a := range r.Anomalies {
		row := i + 2
		_ = f.SetCellValue(SheetAnomalies, fmt.Sprintf("A%d", row), a.Identifier)
		_ = f.SetCellValue(SheetAnomalies, fmt.Sprintf("B%d", row), a.Timestamp.UTC().Format(time.RFC3339))
		_ = f.SetCellValue(SheetAnomalies, fmt.Sprintf("C%d", row), string(a.Kind))
		_ = f.SetCellValue(SheetAnomalies, fmt.Sprintf("D%d", row), a.Detail)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildRunPDF renders the run header, the meter table and, when present,
// the skipped points.
func BuildRunPDF(r *engine.RunReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Meter Engine Run")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Run: %s", r.RunID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Scope: %s", scopeText(r.Scope)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Window: %s", r.Window.String()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", status(r)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Started: %s", r.StartedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(5)

	totals := r.Totals()
	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Written: %d  Updated: %d  Skipped: %d  Failed: %d",
		totals.Written, totals.Updated, totals.Skipped, totals.Failed))
	pdf.Ln(8)

	for _, w := range r.Warnings {
		pdf.Cell(0, 6, "Warning: "+w)
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Meter", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Stage", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Written", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Updated", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Skipped", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Failed", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, m := range r.Meters {
		pdf.CellFormat(50, 6, m.Identifier, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, m.Stage, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", m.Written), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", m.Updated), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", m.Skipped), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", m.Failed), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(r.Anomalies) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 6, "Meter", "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, "Timestamp", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Kind", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, a := range r.Anomalies {
			pdf.CellFormat(40, 6, a.Identifier, "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 6, a.Timestamp.UTC().Format(time.RFC3339), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 6, string(a.Kind), "1", 0, "C", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
