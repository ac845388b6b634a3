// Package aggregate computes grouped sums over one key column, either in
// one pass or chunk by chunk. The chunked fold is a key-indexed addition,
// associative and commutative per group key, so the result is identical
// for every chunk size.
package aggregate

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"tally/logger"
	"tally/pkg/core"
	"tally/pkg/readers"
	"tally/pkg/sniff"
	"tally/pkg/writers"
)

// Options configures one summarize run.
type Options struct {
	GroupColumn string
	SumColumns  []string
	Encoding    string
	Delimiter   string
	Chunked     bool
	ChunkSize   int
	Descending  bool
	OutputPath  string
}

// groupedSums is the running accumulator state: per-key totals for every
// requested sum column, with first-seen key order retained.
type groupedSums struct {
	sumColumns []string
	keys       []string
	totals     map[string][]float64
}

func newGroupedSums(sumColumns []string) *groupedSums {
	return &groupedSums{
		sumColumns: sumColumns,
		totals:     make(map[string][]float64),
	}
}

// add accumulates one value vector into the key's totals, inserting the
// key if new.
func (g *groupedSums) add(key string, values []float64) {
	row, ok := g.totals[key]
	if !ok {
		row = make([]float64, len(g.sumColumns))
		g.totals[key] = row
		g.keys = append(g.keys, key)
	}
	for i, v := range values {
		row[i] += v
	}
}

// fold merges another grouped result into g. Keys present on only one
// side keep their values; shared keys sum column-wise.
func (g *groupedSums) fold(other *groupedSums) {
	for _, key := range other.keys {
		g.add(key, other.totals[key])
	}
}

// table materializes the accumulator as [group, sum columns...], one row
// per distinct key.
func (g *groupedSums) table(groupColumn string) *core.Table {
	t := core.NewTable(append([]string{groupColumn}, g.sumColumns...))
	row := make([]string, 1+len(g.sumColumns))
	for _, key := range g.keys {
		row[0] = key
		for i, v := range g.totals[key] {
			row[i+1] = core.FormatNumber(v)
		}
		t.AppendRow(row)
	}
	return t
}

// Summarize groups the file by GroupColumn and sums each of SumColumns,
// writing the result table to OutputPath. A missing group column is fatal;
// a missing sum column contributes zeros for that block. Chunked and
// whole-file modes produce the same totals.
func Summarize(path string, opts Options, progress core.ProgressFunc) (res core.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = core.Failure(fmt.Sprintf("summarize failed: %v", r))
		}
	}()

	if len(opts.SumColumns) == 0 {
		return core.Failure("summarize failed: select at least one sum column")
	}

	progress = core.Monotonic(progress)
	progress.Report(5, fmt.Sprintf("summarizing %.2f MB...", sniff.FileSizeMB(path)))

	var (
		result *groupedSums
		err    error
	)
	if opts.Chunked && opts.ChunkSize > 0 {
		result, err = summarizeChunked(path, opts, progress)
	} else {
		result, err = summarizeWhole(path, opts, progress)
	}
	if err != nil {
		return core.Failure(fmt.Sprintf("summarize failed: %v", err))
	}
	if result == nil || len(result.keys) == 0 {
		return core.Failure("summarize failed: no valid data or empty result")
	}

	out := result.table(opts.GroupColumn)
	if opts.Descending {
		// Sort by the first sum column; the group column is only a
		// fallback when no sum columns were requested, which the guard
		// above already excludes.
		out.SortByFloatDesc(opts.SumColumns[0])
		progress.Report(96, "sorting result descending...")
	}

	if err := writers.WriteTable(opts.OutputPath, out); err != nil {
		return core.Failure(fmt.Sprintf("summarize failed: %v", err))
	}
	return core.Successf(fmt.Sprintf("summarized %d groups, saved to %s", out.NumRows(), opts.OutputPath))
}

func summarizeWhole(path string, opts Options, progress core.ProgressFunc) (*groupedSums, error) {
	progress.Report(30, "reading file...")
	t, _, _, err := readers.Read(path, core.ReadRequest{Encoding: opts.Encoding, Delimiter: opts.Delimiter})
	if err != nil {
		return nil, err
	}
	progress.Report(60, "converting value types...")
	g, err := groupBlock(t, opts.GroupColumn, opts.SumColumns, "the file")
	if err != nil {
		return nil, err
	}
	progress.Report(80, fmt.Sprintf("grouped into %d keys", len(g.keys)))
	return g, nil
}

func summarizeChunked(path string, opts Options, progress core.ProgressFunc) (*groupedSums, error) {
	progress.Report(10, "opening chunked reader...")
	r, _, _, err := readers.OpenChunks(path, core.ReadRequest{
		Encoding:  opts.Encoding,
		Delimiter: opts.Delimiter,
		ChunkSize: opts.ChunkSize,
	})
	if err != nil {
		return nil, err
	}
	defer r.Close()

	running := newGroupedSums(opts.SumColumns)
	processedRows := 0
	for chunkIdx := 0; ; chunkIdx++ {
		chunk, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		chunkResult, err := groupBlock(chunk, opts.GroupColumn, opts.SumColumns, "the current block")
		if err != nil {
			return nil, err
		}
		running.fold(chunkResult)

		processedRows += chunk.NumRows()
		pct := 10 + (chunkIdx+1)*5
		if pct > 90 {
			pct = 90
		}
		progress.Report(pct, fmt.Sprintf("processed %d rows...", processedRows))
	}
	return running, nil
}

// groupBlock computes the grouped sums of one block. blockName goes into
// the missing-group-column error so the caller can tell whole-file
// failures from chunk failures.
func groupBlock(block *core.Table, groupColumn string, sumColumns []string, blockName string) (*groupedSums, error) {
	if !block.HasColumn(groupColumn) {
		return nil, fmt.Errorf("group column %q does not exist in %s", groupColumn, blockName)
	}
	keys := block.Column(groupColumn)

	cols := make([][]string, len(sumColumns))
	for i, name := range sumColumns {
		cols[i] = block.Column(name)
		if cols[i] == nil && !block.HasColumn(name) {
			logger.GetLogger().Warn("sum column missing, treated as zero",
				zap.String("column", name), zap.String("block", blockName))
		}
	}

	g := newGroupedSums(sumColumns)
	values := make([]float64, len(sumColumns))
	for row := 0; row < block.NumRows(); row++ {
		for i, col := range cols {
			if col == nil {
				values[i] = 0
				continue
			}
			values[i] = core.ParseNumber(col[row])
		}
		g.add(keys[row], values)
	}
	return g, nil
}
