// Package filter retains the rows of a data file whose key-column value
// belongs to an externally supplied allow-list, whole-file or chunk by
// chunk, preserving source order.
package filter

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"tally/pkg/core"
	"tally/pkg/readers"
	"tally/pkg/sniff"
	"tally/pkg/writers"
)

// chunkSize is the fixed internal chunk size for chunked filtering; it is
// independent of any aggregation chunk size the caller may use elsewhere.
const chunkSize = 10000

// Options configures one filter run.
type Options struct {
	FilterColumn string
	Encoding     string
	Delimiter    string
	Chunked      bool
	OutputPath   string
}

// Filter reads the allow-list from the first column of filterPath, keeps
// the rows of dataPath whose FilterColumn value is in the list, and writes
// the matching rows to OutputPath. An empty allow-list and a missing
// filter column are fatal; zero matches is a soft failure.
func Filter(dataPath, filterPath string, opts Options, progress core.ProgressFunc) (res core.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = core.Failure(fmt.Sprintf("filter failed: %v", r))
		}
	}()

	progress = core.Monotonic(progress)
	progress.Report(5, fmt.Sprintf("filtering %.2f MB...", sniff.FileSizeMB(dataPath)))

	progress.Report(20, "reading filter values...")
	values, err := LoadFilterValues(filterPath)
	if err != nil {
		return core.Failure(fmt.Sprintf("filter failed: %v", err))
	}
	if len(values) == 0 {
		return core.Failure("filter failed: no valid filter values found")
	}
	progress.Report(30, fmt.Sprintf("found %d filter values", len(values)))

	allow := make(map[string]struct{}, len(values))
	for _, v := range values {
		allow[v] = struct{}{}
	}

	var matched *core.Table
	if opts.Chunked {
		matched, err = filterChunked(dataPath, opts, allow, progress)
	} else {
		matched, err = filterWhole(dataPath, opts, allow, progress)
	}
	if err != nil {
		return core.Failure(fmt.Sprintf("filter failed: %v", err))
	}
	if matched == nil || matched.NumRows() == 0 {
		return core.Failure("filter failed: no matching rows found")
	}

	if err := writers.WriteTable(opts.OutputPath, matched); err != nil {
		return core.Failure(fmt.Sprintf("filter failed: %v", err))
	}
	return core.Successf(fmt.Sprintf("filtered %d matching rows, saved to %s", matched.NumRows(), opts.OutputPath))
}

// LoadFilterValues reads the allow-list from the first column of the
// source, skipping its header row and dropping blank entries. An .xlsx
// source is read with excelize; anything else goes through the robust
// delimited reader.
func LoadFilterValues(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadExcelValues(path)
	}

	t, _, _, err := readers.Read(path, core.ReadRequest{})
	if err != nil {
		return nil, fmt.Errorf("could not read filter source: %w", err)
	}
	if t.NumCols() == 0 {
		return nil, errors.New("filter source has no columns")
	}
	return dropBlanks(t.Column(t.Columns()[0])), nil
}

func loadExcelValues(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open filter workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("could not read filter sheet: %w", err)
	}
	var values []string
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) > 0 {
			values = append(values, row[0])
		} else {
			values = append(values, "")
		}
	}
	return dropBlanks(values), nil
}

func dropBlanks(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func filterWhole(dataPath string, opts Options, allow map[string]struct{}, progress core.ProgressFunc) (*core.Table, error) {
	progress.Report(40, "reading data file...")
	t, _, _, err := readers.Read(dataPath, core.ReadRequest{Encoding: opts.Encoding, Delimiter: opts.Delimiter})
	if err != nil {
		return nil, err
	}

	progress.Report(70, "applying filter...")
	return filterBlock(t, opts.FilterColumn, allow, "the data file")
}

func filterChunked(dataPath string, opts Options, allow map[string]struct{}, progress core.ProgressFunc) (*core.Table, error) {
	r, _, _, err := readers.OpenChunks(dataPath, core.ReadRequest{
		Encoding:  opts.Encoding,
		Delimiter: opts.Delimiter,
		ChunkSize: chunkSize,
	})
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var kept []*core.Table
	processedRows := 0
	matchedRows := 0
	for chunkIdx := 0; ; chunkIdx++ {
		chunk, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		// A filter column missing from any chunk aborts the whole run:
		// the schema must be stable across chunks of one file.
		hit, err := filterBlock(chunk, opts.FilterColumn, allow, "the current block")
		if err != nil {
			return nil, err
		}
		if hit.NumRows() > 0 {
			kept = append(kept, hit)
			matchedRows += hit.NumRows()
		}

		processedRows += chunk.NumRows()
		pct := 30 + (chunkIdx+1)*3
		if pct > 90 {
			pct = 90
		}
		progress.Report(pct, fmt.Sprintf("processed %d rows, %d matches...", processedRows, matchedRows))
	}

	progress.Report(95, "concatenating matches...")
	if len(kept) == 0 {
		return core.NewTable(r.Columns()), nil
	}
	return core.Concat(kept), nil
}

func filterBlock(block *core.Table, filterColumn string, allow map[string]struct{}, blockName string) (*core.Table, error) {
	if !block.HasColumn(filterColumn) {
		return nil, fmt.Errorf("filter column %q does not exist in %s", filterColumn, blockName)
	}
	col := block.Column(filterColumn)
	var keep []int
	for i, v := range col {
		if _, ok := allow[v]; ok {
			keep = append(keep, i)
		}
	}
	return block.SelectRows(keep), nil
}
