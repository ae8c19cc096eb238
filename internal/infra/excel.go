package infra

// excel.go: year-over-year workbook export using excelize.
// Sheet "Summary" holds one row per year plus the comparison block; every
// year then gets its own sheet with the twelve monthly rows.

import (
	"fmt"
	"time"

	"shelfwise/internal/insights"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

var financialHeadings = []string{
	"Revenue (gross)", "Revenue (net)", "Purchases", "Cost of goods",
	"Gross profit", "Net profit", "Discounts", "Transactions",
}

func financialRow(f insights.Financials) []interface{} {
	return []interface{}{
		f.RevenueGross.InexactFloat64(),
		f.RevenueNet.InexactFloat64(),
		f.Purchases.InexactFloat64(),
		f.CostOfGoods.InexactFloat64(),
		f.GrossProfit.InexactFloat64(),
		f.NetProfit.InexactFloat64(),
		f.Discounts.InexactFloat64(),
		f.TransactionCount,
	}
}

// BuildYearOverYearWorkbook renders yoy as an .xlsx file and returns its bytes.
func BuildYearOverYearWorkbook(yoy *insights.YearOverYear) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("excel: rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("excel: style: %w", err)
	}

	// ── Summary ──────────────────────────────────────────────────────────────
	header := append([]interface{}{"Year", "Effective start"}, toAny(financialHeadings)...)
	if err := writeRow(f, summarySheet, 1, header); err != nil {
		return nil, err
	}
	row := 2
	for _, y := range yoy.Years {
		values := append([]interface{}{y.Year, y.EffectiveStart}, financialRow(y.Financials)...)
		if err := writeRow(f, summarySheet, row, values); err != nil {
			return nil, err
		}
		row++
	}

	if c := yoy.Comparisons; c != nil {
		row++
		rows := [][]interface{}{
			{fmt.Sprintf("%d vs %d", c.CurrentYear, c.PreviousYear), "Change", "Change %"},
			{"Revenue", c.RevenueChange.InexactFloat64(), c.RevenueChangePercent.InexactFloat64()},
			{"Net profit", c.NetProfitChange.InexactFloat64(), c.NetProfitChangePercent.InexactFloat64()},
			{"Discounts", c.DiscountChange.InexactFloat64(), c.DiscountChangePercent.InexactFloat64()},
		}
		if err := styleRow(f, summarySheet, row, len(rows[0]), bold); err != nil {
			return nil, err
		}
		for _, values := range rows {
			if err := writeRow(f, summarySheet, row, values); err != nil {
				return nil, err
			}
			row++
		}
	}
	if err := styleRow(f, summarySheet, 1, len(header), bold); err != nil {
		return nil, err
	}

	// ── One sheet per year ───────────────────────────────────────────────────
	for _, y := range yoy.Years {
		sheet := fmt.Sprint(y.Year)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("excel: new sheet %s: %w", sheet, err)
		}
		monthHeader := append([]interface{}{"Month"}, toAny(financialHeadings)...)
		if err := writeRow(f, sheet, 1, monthHeader); err != nil {
			return nil, err
		}
		if err := styleRow(f, sheet, 1, len(monthHeader), bold); err != nil {
			return nil, err
		}
		for i, m := range yoy.MonthlyByYear[y.Year] {
			values := append([]interface{}{time.Month(m.Month + 1).String()}, financialRow(m.Financials)...)
			if err := writeRow(f, sheet, i+2, values); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel: write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("excel: write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	from, _ := excelize.CoordinatesToCellName(1, row)
	to, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, style)
}

func toAny(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
