// Package writers persists engine results: a streaming BOM-UTF-8 CSV
// appender for merge output and a single-sheet spreadsheet writer for
// summarize/filter results, selected by output path extension.
package writers

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"

	"tally/pkg/core"
)

// utf8BOM is prepended to merge output so spreadsheet applications pick
// the right encoding regardless of what the inputs used.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVAppender streams successive blocks into one delimited output file.
// The file is created (with a BOM) on the first Append; the header row is
// written once, by whichever Append asks for it.
type CSVAppender struct {
	path string
	file *os.File
	buf  *bufio.Writer
	csv  *csv.Writer
}

// NewCSVAppender prepares an appender for the given output path. Nothing
// is written until the first Append.
func NewCSVAppender(path string) *CSVAppender {
	return &CSVAppender{path: path}
}

// Append writes one block. When withHeader is true the block's header row
// precedes its data rows; callers arrange for exactly one block per output
// file to carry the header.
func (a *CSVAppender) Append(block *core.Table, withHeader bool) error {
	if a.file == nil {
		f, err := os.Create(a.path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		if _, err := f.Write(utf8BOM); err != nil {
			f.Close()
			return fmt.Errorf("failed to write BOM: %w", err)
		}
		a.file = f
		a.buf = bufio.NewWriter(f)
		a.csv = csv.NewWriter(a.buf)
	}

	if withHeader {
		if err := a.csv.Write(block.Columns()); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for i := 0; i < block.NumRows(); i++ {
		if err := a.csv.Write(block.Row(i)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	a.csv.Flush()
	return a.csv.Error()
}

// Close flushes and releases the output file. It is safe to call twice.
func (a *CSVAppender) Close() error {
	if a.file == nil {
		return nil
	}
	file := a.file
	a.file = nil
	a.csv.Flush()
	if err := a.csv.Error(); err != nil {
		file.Close()
		return err
	}
	if err := a.buf.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// writeCSV writes a whole table as one BOM-UTF-8 CSV file.
func writeCSV(path string, t *core.Table) error {
	a := NewCSVAppender(path)
	if err := a.Append(t, true); err != nil {
		a.Close()
		return err
	}
	return a.Close()
}
