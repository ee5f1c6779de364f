package excel

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/tender-award/internal/model"
)

const (
	summarySheet = "Summary"
	rankingSheet = "Ranking"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.BidEvaluation) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, summarySheet, report); err != nil {
		return nil, err
	}

	if _, err := file.NewSheet(rankingSheet); err != nil {
		return nil, err
	}
	if err := g.writeRanking(file, rankingSheet, report); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.BidEvaluation) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Package")
	set("B1", report.Package.Name)
	set("A2", "Project")
	set("B2", report.ProjectName)
	set("A3", "Status")
	set("B3", string(report.Package.Status))
	set("A4", "Submissions")
	set("B4", len(report.Submissions))
	set("A5", "Priced submissions")
	set("B5", report.PricedCount())
	set("A6", "Lowest price")
	set("B6", formatNullDecimal(report.LowestPrice, 2))
	set("A7", "Generated at")
	set("B7", formatDateTime(report.GeneratedAt))

	_ = file.SetColWidth(sheet, "A", "A", 24)
	_ = file.SetColWidth(sheet, "B", "B", 40)
	return nil
}

func (g *Generator) writeRanking(file *excelize.File, sheet string, report model.BidEvaluation) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"Rank",
		"Supplier",
		"Price",
		"Duration, weeks",
		"Price score",
		"Technical score",
		"Overall score",
		"Overridden",
		"Submitted at",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, sub := range report.Submissions {
		row := i + 2
		set(fmt.Sprintf("A%d", row), formatRank(sub.Rank))
		set(fmt.Sprintf("B%d", row), supplierLabel(sub))
		set(fmt.Sprintf("C%d", row), formatNullDecimal(sub.Price, 2))
		set(fmt.Sprintf("D%d", row), formatInt(sub.DurationWeeks))
		set(fmt.Sprintf("E%d", row), formatNullDecimal(sub.PriceScore, 2))
		set(fmt.Sprintf("F%d", row), formatNullDecimal(sub.TechnicalScore, 2))
		set(fmt.Sprintf("G%d", row), formatNullDecimal(sub.OverallScore, 2))
		set(fmt.Sprintf("H%d", row), formatBool(sub.ScoreOverridden))
		set(fmt.Sprintf("I%d", row), formatDateTime(sub.CreatedAt))
	}

	_ = file.SetColWidth(sheet, "A", "A", 8)
	_ = file.SetColWidth(sheet, "B", "B", 36)
	_ = file.SetColWidth(sheet, "C", "H", 16)
	_ = file.SetColWidth(sheet, "I", "I", 20)
	return nil
}

func supplierLabel(sub model.Submission) string {
	if sub.SupplierName != "" {
		return sub.SupplierName
	}
	return sub.SupplierID.String()
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatNullDecimal(value decimal.NullDecimal, places int32) string {
	if !value.Valid {
		return ""
	}
	return value.Decimal.StringFixed(places)
}

func formatRank(rank *int) string {
	if rank == nil {
		return ""
	}
	return fmt.Sprintf("%d", *rank)
}

func formatInt(value *int) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%d", *value)
}

func formatBool(value bool) string {
	if value {
		return "yes"
	}
	return ""
}
