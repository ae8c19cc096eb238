package infra

// pdf.go: insights digest rendering using go-pdf/fpdf.
// One A4 page flow with:
//   - Business name header and generation timestamp
//   - One section per insight category: title, summary, severity
//   - A table with the top items of the category
//   - The monthly health table of the current year

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shelfwise/internal/insights"

	"github.com/go-pdf/fpdf"
)

// pdfRowsPerSection caps each category table; the full lists live in the API.
const pdfRowsPerSection = 10

// InsightsReport is everything the digest PDF shows.
type InsightsReport struct {
	BusinessName string
	GeneratedAt  time.Time
	Data         *insights.Data
}

type pdfSection struct {
	title, summary string
	severity       insights.Severity
	headings       []string
	widths         []float64 // fractions of the content width
	rows           [][]string
}

// RenderInsightsPDF renders the digest and returns the PDF bytes.
func RenderInsightsPDF(report InsightsReport) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	// Core fonts are cp1252; translate so accented product names survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr(report.BusinessName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Inventory insights, generated "+report.GeneratedAt.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	for _, s := range sectionsOf(report.Data) {
		writeSection(pdf, tr, contentW, s)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSection(pdf *fpdf.Fpdf, tr func(string) string, contentW float64, s pdfSection) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW*0.8, 7, tr(s.title), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW*0.2, 7, string(s.severity), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(contentW, 5, tr(s.summary), "", "L", false)

	if len(s.rows) > 0 {
		pdf.SetFont("Helvetica", "B", 8)
		for i, h := range s.headings {
			pdf.CellFormat(contentW*s.widths[i], 5, h, "B", 0, align(i), false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
		for _, row := range s.rows {
			for i, v := range row {
				pdf.CellFormat(contentW*s.widths[i], 5, tr(truncate(v, 40)), "", 0, align(i), false, 0, "")
			}
			pdf.Ln(-1)
		}
	}
	pdf.Ln(4)
}

func align(col int) string {
	if col == 0 {
		return "L"
	}
	return "R"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "..."
}

func sectionsOf(d *insights.Data) []pdfSection {
	lm := pdfSection{
		title: d.LowMargin.Title, summary: d.LowMargin.Summary, severity: d.LowMargin.Severity,
		headings: []string{"Product", "Units", "Revenue", "Gross profit", "Margin %"},
		widths:   []float64{0.4, 0.12, 0.16, 0.16, 0.16},
	}
	for _, it := range firstN(d.LowMargin.Items) {
		lm.rows = append(lm.rows, []string{
			it.ProductName, fmt.Sprint(it.UnitsSold), it.Revenue.StringFixed(2),
			it.GrossProfit.StringFixed(2), it.MarginPercent.StringFixed(2),
		})
	}

	hd := pdfSection{
		title: d.HighDiscount.Title, summary: d.HighDiscount.Summary, severity: d.HighDiscount.Severity,
		headings: []string{"Product", "Sales", "Discount", "Avg %"},
		widths:   []float64{0.46, 0.18, 0.18, 0.18},
	}
	for _, it := range firstN(d.HighDiscount.Items) {
		hd.rows = append(hd.rows, []string{
			it.ProductName, fmt.Sprint(it.SalesCount), it.TotalDiscount.StringFixed(2), it.AvgDiscountPercent.StringFixed(2),
		})
	}

	ds := pdfSection{
		title: d.DeadStock.Title, summary: d.DeadStock.Summary, severity: d.DeadStock.Severity,
		headings: []string{"Product", "Qty", "Days idle", "Value"},
		widths:   []float64{0.46, 0.18, 0.18, 0.18},
	}
	for _, it := range firstN(d.DeadStock.Items) {
		idle := "never sold"
		if it.DaysSinceLastSale != nil {
			idle = fmt.Sprint(*it.DaysSinceLastSale)
		}
		ds.rows = append(ds.rows, []string{it.ProductName, fmt.Sprint(it.Quantity), idle, it.EstimatedValue.StringFixed(2)})
	}

	so := pdfSection{
		title: d.StockoutRisk.Title, summary: d.StockoutRisk.Summary, severity: d.StockoutRisk.Severity,
		headings: []string{"Product", "Qty", "Daily sales", "Days cover"},
		widths:   []float64{0.46, 0.18, 0.18, 0.18},
	}
	for _, it := range firstN(d.StockoutRisk.Items) {
		so.rows = append(so.rows, []string{
			it.ProductName, fmt.Sprint(it.Quantity), it.AvgDailySales.StringFixed(2), it.DaysCover.StringFixed(1),
		})
	}

	cs := pdfSection{
		title: d.CostSpike.Title, summary: d.CostSpike.Summary, severity: d.CostSpike.Severity,
		headings: []string{"Product", "Supplier", "Avg long", "Avg recent", "Change %"},
		widths:   []float64{0.3, 0.22, 0.16, 0.16, 0.16},
	}
	for _, it := range firstN(d.CostSpike.Items) {
		cs.rows = append(cs.rows, []string{
			it.ProductName, it.SupplierName, it.AvgCostLong.StringFixed(2),
			it.AvgCostRecent.StringFixed(2), it.ChangePercent.StringFixed(2),
		})
	}

	bh := pdfSection{
		title: d.BusinessHealth.Title, summary: d.BusinessHealth.Summary, severity: d.BusinessHealth.Severity,
		headings: []string{"Month", "Sales", "Revenue", "Discounts", "Gross profit"},
		widths:   []float64{0.24, 0.14, 0.2, 0.2, 0.22},
	}
	for _, m := range d.BusinessHealth.Items {
		bh.rows = append(bh.rows, []string{
			time.Month(m.Month + 1).String(), fmt.Sprint(m.SalesCount), m.TotalRevenue.StringFixed(2),
			m.TotalDiscounts.StringFixed(2), m.GrossProfit.StringFixed(2),
		})
	}

	return []pdfSection{lm, hd, ds, so, cs, bh}
}

func firstN[T any](items []T) []T {
	if len(items) > pdfRowsPerSection {
		return items[:pdfRowsPerSection]
	}
	return items
}

// SaveReport writes a rendered report under storagePath (created if needed)
// and returns the file path.
func SaveReport(storagePath, fileName string, data []byte) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fileName)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
