package reports

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/MacJediWizard/availcheck/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxHeaderFill      = "4472C4"
	xlsxUnavailableFill = "FF0000"
	xlsxMaxColumnWidth  = 50
)

// XLSXColumns are the spreadsheet columns, in order.
var XLSXColumns = []string{"OS", "Domain", "Agent Name", "Status", "Reason", "Last Available Date"}

// XLSXRenderer writes one worksheet per operating system.
type XLSXRenderer struct{}

// NewXLSXRenderer creates a spreadsheet renderer.
func NewXLSXRenderer() *XLSXRenderer {
	return &XLSXRenderer{}
}

// Extension returns the file extension produced by the renderer.
func (r *XLSXRenderer) Extension() string {
	return ".xlsx"
}

// Render writes the workbook to w. Every supported operating system gets a
// sheet, even when its baseline is empty.
func (r *XLSXRenderer) Render(w io.Writer, report *models.AvailabilityReport) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{xlsxHeaderFill}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	unavailableStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{xlsxUnavailableFill}},
	})
	if err != nil {
		return fmt.Errorf("create row style: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, platform := range models.SupportedOperatingSystems {
		sheet := string(platform)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create %s sheet: %w", sheet, err)
		}

		if err := r.writeSheet(f, sheet, report.GroupsFor(platform), headerStyle, unavailableStyle); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (r *XLSXRenderer) writeSheet(f *excelize.File, sheet string, groups []models.GroupReport, headerStyle, unavailableStyle int) error {
	widths := make([]int, len(XLSXColumns))
	track := func(values []string) {
		for i, v := range values {
			if n := utf8.RuneCountInString(v); n > widths[i] {
				widths[i] = n
			}
		}
	}

	if err := setRow(f, sheet, 1, XLSXColumns); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, headerStyle); err != nil {
		return err
	}
	track(XLSXColumns)

	row := 2
	for _, group := range groups {
		for _, result := range group.Results {
			values := []string{
				string(result.Key.OS),
				result.Key.Domain,
				result.Key.AgentName,
				string(result.Status),
				result.Detail(),
				result.LastSeenString(),
			}
			if err := setRow(f, sheet, row, values); err != nil {
				return err
			}
			if !result.Available() {
				if err := styleRow(f, sheet, row, unavailableStyle); err != nil {
					return err
				}
			}
			track(values)
			row++
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(width+2, xlsxMaxColumnWidth))); err != nil {
			return fmt.Errorf("set %s column width: %w", col, err)
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(XLSXColumns), row)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("style %s row %d: %w", sheet, row, err)
	}
	return nil
}
