package service

import (
	"fmt"
	"io"
	"strings"

	"cruce-web/internal/models"

	"github.com/xuri/excelize/v2"
)

// CruceSheet is the sheet name of the exported workbook.
const CruceSheet = "Cruce"

// textColumns are exported as zero padded text so spreadsheet tools keep leading zeros.
var textColumns = map[string]bool{
	models.ColManufacturerCode: true,
	models.ColCategoryCode:     true,
	models.ColItemCode:         true,
}

type ExcelService struct{}

func NewExcelService() *ExcelService {
	return &ExcelService{}
}

// ExportCruce writes the report to w as an xlsx workbook with a single "Cruce" sheet.
func (s *ExcelService) ExportCruce(table models.ResultTable, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CruceSheet); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(CruceSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	// Set header style
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	// "@" text format
	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: 49})
	if err != nil {
		return err
	}

	// Set column widths for better readability
	for i, col := range models.ReportColumns {
		width := 14.0
		switch col {
		case models.ColName, models.ColManufacturer:
			width = 32
		case models.ColReference, models.ColCategory, models.ColLine, models.ColNote:
			width = 22
		}
		if err := sw.SetColWidth(i+1, i+1, width); err != nil {
			return err
		}
	}

	header := make([]interface{}, len(models.ReportColumns))
	for i, col := range models.ReportColumns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: col}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for rowIdx, row := range table {
		values := exportValues(row)
		cells := make([]interface{}, len(values))
		for i, v := range values {
			if textColumns[models.ReportColumns[i]] {
				cells[i] = excelize.Cell{StyleID: textStyle, Value: v}
			} else {
				cells[i] = v
			}
		}
		cell := fmt.Sprintf("A%d", rowIdx+2)
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowIdx+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

// ExportCruceFile saves the workbook to outputPath.
func (s *ExcelService) ExportCruceFile(table models.ResultTable, outputPath string) error {
	return writeFile(outputPath, func(w io.Writer) error {
		return s.ExportCruce(table, w)
	})
}

// exportValues returns the row in report order with code columns padded as text.
func exportValues(row models.ResultRow) []interface{} {
	values := row.Values()
	for i, col := range models.ReportColumns {
		if textColumns[col] {
			values[i] = padCode(models.ToString(values[i]))
		}
	}
	return values
}

// padCode left-pads a code with zeros to four characters.
func padCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) >= 4 {
		return code
	}
	return strings.Repeat("0", 4-len(code)) + code
}
