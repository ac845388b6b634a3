package writers

import (
	"path/filepath"
	"strings"

	"tally/pkg/core"
)

// WriteTable persists a result table to path, choosing the format by
// extension: .xlsx gets a one-sheet workbook, everything else a BOM-UTF-8
// CSV file.
func WriteTable(path string, t *core.Table) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return writeExcel(path, t)
	default:
		return writeCSV(path, t)
	}
}
