package writers

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"tally/pkg/core"
)

// writeExcel writes a table as a one-sheet workbook: header row first, one
// row per table row, no index column.
func writeExcel(path string, t *core.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := setRow(f, sheet, 1, t.Columns()); err != nil {
		return err
	}
	for i := 0; i < t.NumRows(); i++ {
		if err := setRow(f, sheet, i+2, t.Row(i)); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
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
		return fmt.Errorf("failed to write sheet row %d: %w", row, err)
	}
	return nil
}
