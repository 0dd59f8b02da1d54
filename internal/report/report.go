// Package report renders a finished assessment as a one-page A4 PDF.
package report

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"neuroscreen/internal/models"

	"github.com/jung-kurt/gofpdf"
)

const (
	Title      = "NeuroScreen Report"
	Disclaimer = "CONFIDENTIAL: This is a screening report, not a clinical diagnosis. " +
		"Always consult a board-certified neurologist for evaluation. " +
		"This report is generated based on automated performance thresholds."
)

// Document is everything printed on a report.
type Document struct {
	ReportID string
	Date     time.Time
	Record   models.SessionRecord
	Outcome  models.ScoringOutcome
}

// NewReportID returns an identifier of the form NS-123456.
func NewReportID() string {
	return ReportIDFrom(rand.IntN)
}

// ReportIDFrom builds an ID from the given random source; intn(n) must
// return a value in [0, n).
func ReportIDFrom(intn func(int) int) string {
	return fmt.Sprintf("NS-%d", 100000+intn(900000))
}

// Filename is the name a report is saved under.
func Filename(reportID string) string {
	return fmt.Sprintf("NeuroScreen_Report_%s.pdf", reportID)
}

// Headlines are the four quantitative lines shown on the report and the
// results screen.
func Headlines(rec models.SessionRecord) []string {
	reaction, memory, control, executive := "n/a", "n/a", "n/a", "n/a"
	if r, ok := rec.Reaction(); ok {
		reaction = fmt.Sprintf("%dms", int64(math.Round(r.AverageReactionTime)))
	}
	if m, ok := rec.Memory(); ok {
		memory = fmt.Sprintf("%d Correct", m.MemoryScore)
	}
	if i, ok := rec.Interference(); ok {
		control = fmt.Sprintf("%d%%", int64(math.Round(i.Accuracy)))
	}
	if s, ok := rec.Sequencing(); ok {
		executive = fmt.Sprintf("%dms", s.SequencingTime)
	}
	return []string{
		"Motor Reaction: " + reaction,
		"Memory Span: " + memory,
		"Cognitive Control: " + control,
		"Executive Time: " + executive,
	}
}

// Render writes doc to w as a PDF.
func Render(w io.Writer, doc Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(Title, false)
	pdf.SetCreator("neuroscreen", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Header band
	pdf.SetFillColor(30, 41, 59)
	pdf.Rect(0, 0, 210, 40, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.Text(20, 18, Title)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(20, 26, fmt.Sprintf("REPORT ID: %s | DATE: %s", doc.ReportID, doc.Date.Format("2006-01-02")))
	pdf.Text(20, 32, "ALGORITHMIC PERFORMANCE ANALYSIS")

	// Score box
	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(150, 10, 40, 40, "F")
	pdf.SetTextColor(30, 41, 59)
	pdf.SetFont("Helvetica", "B", 30)
	pdf.SetXY(150, 18)
	pdf.CellFormat(40, 14, fmt.Sprintf("%d", doc.Outcome.HealthScore), "", 0, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(150, 38)
	pdf.CellFormat(40, 6, "HEALTH INDEX", "", 0, "C", false, 0, "")

	y := 55.0

	// Summary
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(20, y, "Performance Summary")
	y += 4
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(71, 85, 105)
	pdf.SetXY(20, y)
	pdf.MultiCell(170, 5, doc.Outcome.Summary, "", "L", false)
	y = pdf.GetY() + 10

	// Quantitative metrics
	headlines := Headlines(doc.Record)
	pdf.SetFillColor(248, 250, 252)
	pdf.Rect(20, y, 170, 35, "F")
	pdf.SetTextColor(30, 41, 59)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(25, y+10, "Quantitative Metrics")
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(30, y+20, headlines[0])
	pdf.Text(30, y+27, headlines[1])
	pdf.Text(110, y+20, headlines[2])
	pdf.Text(110, y+27, headlines[3])
	y += 50

	y = bulletList(pdf, y, "Performance Indicators", doc.Outcome.RiskIndicators, [3]int{37, 99, 235})
	y += 10
	bulletList(pdf, y, "Action Plan", doc.Outcome.Recommendations, [3]int{217, 119, 6})

	// Disclaimer footer
	pdf.SetFillColor(254, 242, 242)
	pdf.Rect(20, 250, 170, 20, "F")
	pdf.SetTextColor(153, 27, 27)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(25, 254)
	pdf.MultiCell(160, 4, Disclaimer, "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func bulletList(pdf *gofpdf.Fpdf, y float64, heading string, items []string, dot [3]int) float64 {
	pdf.SetTextColor(30, 41, 59)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Text(20, y, heading)
	y += 8
	pdf.SetFont("Helvetica", "", 10)
	for _, text := range items {
		pdf.SetFillColor(dot[0], dot[1], dot[2])
		pdf.Circle(23, y-1, 0.8, "F")
		pdf.Text(28, y, text)
		y += 7
	}
	return y
}

// Save renders doc into dir under its Filename and returns the full path.
func Save(dir string, doc Document) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create report directory: %w", err)
	}
	path := filepath.Join(dir, Filename(doc.ReportID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("could not create report file: %w", err)
	}
	if err := Render(f, doc); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("could not close report file: %w", err)
	}
	return path, nil
}
