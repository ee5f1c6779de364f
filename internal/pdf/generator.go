package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tender-award/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders the award letter for a contract with its line schedule.
func (g *Generator) Generate(doc model.ContractDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Letter of Award", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Contract %s, issued %s", doc.Contract.ID.String(), formatDate(doc.Contract.CreatedAt))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	details := [][2]string{
		{"Project", doc.ProjectName},
		{"Package", doc.PackageName},
		{"Supplier", doc.SupplierName},
		{"Title", doc.Contract.Title},
		{"Status", string(doc.Contract.Status)},
		{"Period", formatPeriod(doc.Contract.StartDate, doc.Contract.EndDate)},
	}
	for _, d := range details {
		pdf.SetFont(g.fontName, "B", 11)
		pdf.CellFormat(35, 6, d[0], "", 0, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 11)
		pdf.MultiCell(0, 6, tr(safeValue(d[1])), "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Schedule of lines", "", 1, "L", false, 0, "")

	headers := []string{"Cost code", "Description", "Qty", "Rate", "Total"}
	colWidths := []float64{25, 75, 25, 25, 30}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	linesTotal := decimal.Zero
	for _, line := range doc.Lines {
		drawTableRow(pdf, g.fontName, []string{
			tr(safeValue(line.CostCode)),
			tr(truncate(line.Description, 45)),
			line.Qty.StringFixed(2),
			line.Rate.StringFixed(2),
			line.Total.StringFixed(2),
		}, colWidths, false)
		linesTotal = linesTotal.Add(line.Total)
	}

	pdf.Ln(2)
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Lines total: %s %s", linesTotal.StringFixed(2), doc.Contract.Currency), "", 1, "R", false, 0, "")
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contract value: %s %s", doc.Contract.Value.StringFixed(2), doc.Contract.Currency), "", 1, "R", false, 0, "")

	pdf.Ln(8)
	pdf.SetFont(g.fontName, "", 11)
	signatureBlock(pdf, g.fontName, "For the employer", "")
	signatureBlock(pdf, g.fontName, "For the supplier", tr(doc.SupplierName))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, fontName, label, name string) {
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("%s: ______________________ /%s/", label, safeValue(name)), "", 1, "L", false, 0, "")
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func truncate(value string, max int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max-3]) + "..."
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006")
}

func formatPeriod(start, end *time.Time) string {
	if start == nil && end == nil {
		return ""
	}
	from, to := "-", "-"
	if start != nil {
		from = formatDate(*start)
	}
	if end != nil {
		to = formatDate(*end)
	}
	return from + " to " + to
}
