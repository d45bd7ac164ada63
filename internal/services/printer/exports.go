package printer

import (
	"fmt"

	"github.com/indusops/opsdesk/internal/workflow"
	"github.com/xuri/excelize/v2"
)

// Table is one sheet of an export: a title row, a header row and data rows
type Table struct {
	Sheet   string
	Title   string
	Headers []string
	Widths  []float64
	Rows    [][]interface{}
}

// WriteTable renders t into a single-sheet workbook
func WriteTable(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if sheet == "" {
		sheet = "Export"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()})
	if err != nil {
		return nil, fmt.Errorf("create cell style: %w", err)
	}

	if err := f.SetCellValue(sheet, "A1", t.Title); err != nil {
		return nil, fmt.Errorf("set title: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", titleStyle); err != nil {
		return nil, fmt.Errorf("style title: %w", err)
	}

	for i, h := range t.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("set header %s: %w", h, err)
		}
		col, _, _ := excelize.SplitCellName(cell)
		width := 16.0
		if i < len(t.Widths) {
			width = t.Widths[i]
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}
	if len(t.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), 3)
		if err := f.SetCellStyle(sheet, "A3", last, headerStyle); err != nil {
			return nil, fmt.Errorf("style header: %w", err)
		}
	}

	for r, row := range t.Rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+4)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		if len(row) > 0 {
			first, _ := excelize.CoordinatesToCellName(1, r+4)
			last, _ := excelize.CoordinatesToCellName(len(row), r+4)
			if err := f.SetCellStyle(sheet, first, last, cellStyle); err != nil {
				return nil, fmt.Errorf("style row %d: %w", r+4, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// RateQueriesWorkbook exports the rate-query list
func RateQueriesWorkbook(views []workflow.RateQueryView) ([]byte, error) {
	t := Table{
		Sheet:   "Rate Queries",
		Title:   "Rate Queries",
		Headers: []string{"Request ID", "Requestor", "Department", "Message", "Status", "Rate", "Hours Pending", "Overdue", "Created", "Responded"},
		Widths:  []float64{12, 18, 16, 48, 14, 12, 14, 10, 20, 20},
	}
	for _, v := range views {
		rate := ""
		if v.Rate != nil {
			rate = fmt.Sprintf("%.2f", *v.Rate)
		}
		responded := ""
		if v.RespondedAt != nil {
			responded = v.RespondedAt.Format("2006-01-02 15:04")
		}
		overdue := "No"
		if v.Overdue {
			overdue = "Yes"
		}
		t.Rows = append(t.Rows, []interface{}{
			v.RequestID, v.RequestorName, v.Department, v.RequestMessage, v.Badge.Label,
			rate, v.HoursPending, overdue, formatTime(v.CreatedAt), responded,
		})
	}
	return WriteTable(t)
}

// QuotationsWorkbook exports the quotation approval list
func QuotationsWorkbook(views []workflow.QuotationView) ([]byte, error) {
	t := Table{
		Sheet:   "Quotations",
		Title:   "Quotation Approvals",
		Headers: []string{"Booking No", "Client", "Job", "Status", "Level", "Approver", "Margin %", "Urgency", "Quoted Cost", "Final Cost", "Created"},
		Widths:  []float64{16, 24, 28, 20, 8, 14, 10, 10, 14, 14, 20},
	}
	for _, v := range views {
		level := string(v.Level)
		if v.LevelConflict {
			level += " *"
		}
		t.Rows = append(t.Rows, []interface{}{
			v.BookingNo, v.ClientName, v.JobName, v.Badge.Label, level, v.Approver,
			v.Margin, string(v.Urgency), v.QuotedCost, v.FinalCost, formatTime(v.CreatedAt),
		})
	}
	return WriteTable(t)
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
