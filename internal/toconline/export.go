package toconline

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WriteResourcesXLSX dumps fetched resources to a workbook, one row per
// item: id, type, then the sorted union of attribute columns.
func WriteResourcesXLSX(resources []Resource, sheet, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "export"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F2937"}},
	})
	if err != nil {
		return err
	}

	cols := append([]string{"id", "type"}, ColumnSet(resources)...)
	for i, h := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for rowIdx, r := range resources {
		values := make([]string, len(cols))
		values[0], values[1] = r.ID, r.Type
		for i, c := range cols[2:] {
			values[i+2] = r.Attributes[c]
		}
		for i, v := range values {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
