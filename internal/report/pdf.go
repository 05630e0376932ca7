// Package report renders forensic log summaries as PDF documents.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/verifixia-ai/verifixia/internal/model"
)

const maxRows = 200

// Build renders a forensic summary PDF for the given entries: totals, a
// threat-level breakdown and the most recent rows. owner is printed in the
// header when the report is ownership-scoped. Entries are expected newest
// first, as the store returns them.
func Build(entries []model.ForensicLogEntry, owner string, generatedAt time.Time) ([]byte, error) {
	fakes, threats := summarize(entries)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Verifixia Forensic Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Verifixia Forensic Report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Generated: "+generatedAt.UTC().Format(time.RFC3339))
	pdf.Ln(6)
	scope := "all entries"
	if owner != "" {
		scope = "entries owned by " + owner
	}
	pdf.Cell(0, 6, "Scope: "+scope)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total classifications: %d", len(entries)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Flagged as fake: %d", fakes))
	pdf.Ln(6)
	for _, lvl := range []model.ThreatLevel{model.ThreatHigh, model.ThreatMedium, model.ThreatLow, model.ThreatUnknown} {
		if threats[lvl] == 0 {
			continue
		}
		pdf.Cell(0, 6, fmt.Sprintf("Threat level %s: %d", lvl, threats[lvl]))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Recent entries")
	pdf.Ln(8)

	rows := entries
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	writeRows(pdf, rows)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func summarize(entries []model.ForensicLogEntry) (fakes int, threats map[model.ThreatLevel]int) {
	threats = make(map[model.ThreatLevel]int)
	for _, e := range entries {
		if e.Prediction == model.PredictionFake {
			fakes++
		}
		threats[e.ThreatLevel]++
	}
	return fakes, threats
}

func writeRows(pdf *gofpdf.Fpdf, rows []model.ForensicLogEntry) {
	widths := []float64{40, 55, 18, 20, 20, 25}
	headers := []string{"Timestamp", "File / Event", "Result", "Conf %", "Threat", "Tier"}

	pdf.SetFont("Helvetica", "B", 8)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, e := range rows {
		name := e.Filename
		if name == "" {
			name = e.EventName
		}
		cols := []string{
			truncate(e.Timestamp, 28),
			truncate(name, 38),
			string(e.Prediction),
			fmt.Sprintf("%.1f", e.Confidence),
			string(e.ThreatLevel),
			string(e.TierUsed),
		}
		for i, v := range cols {
			pdf.CellFormat(widths[i], 5, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
