package aggregate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/logger"
	"tally/pkg/core"
	"tally/pkg/readers"
)

func TestMain(m *testing.M) {
	dir, _ := os.MkdirTemp("", "aggregate-test")
	logger.SetLogPath(filepath.Join(dir, "tally.log"))
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

// readResult loads a summarize output CSV into group -> column -> value.
func readResult(t *testing.T, path string) map[string]map[string]float64 {
	t.Helper()
	tbl, _, _, err := readers.Read(path, core.ReadRequest{Encoding: "utf-8-sig", Delimiter: ","})
	require.NoError(t, err)

	out := make(map[string]map[string]float64)
	group := tbl.Columns()[0]
	for i := 0; i < tbl.NumRows(); i++ {
		row := make(map[string]float64)
		for _, col := range tbl.Columns()[1:] {
			row[col] = core.ParseNumber(tbl.Cell(col, i))
		}
		out[tbl.Cell(group, i)] = row
	}
	return out
}

func deptFixture(t *testing.T, rows int) string {
	var b strings.Builder
	b.WriteString("dept,cost,qty\n")
	depts := []string{"sales", "ops", "eng"}
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%s,\"1,200.50\",%d\n", depts[i%len(depts)], i%7)
	}
	return writeFile(t, t.TempDir(), "depts.csv", b.String())
}

func TestSummarizeWholeFile(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.csv", "dept,cost\nsales,\"1,200.50\"\nops,100\nsales,99.5\nops,not-a-number\n")
	out := filepath.Join(dir, "summary.csv")

	res := Summarize(data, Options{
		GroupColumn: "dept",
		SumColumns:  []string{"cost"},
		Encoding:    "utf-8",
		Delimiter:   ",",
		OutputPath:  out,
	}, nil)
	require.True(t, res.Success, res.Message)
	assert.Contains(t, res.Message, "2 groups")

	got := readResult(t, out)
	assert.InDelta(t, 1300.0, got["sales"]["cost"], 1e-9)
	assert.InDelta(t, 100.0, got["ops"]["cost"], 1e-9) // malformed value counts as zero
}

func TestSummarizeChunkSizeInvariance(t *testing.T) {
	data := deptFixture(t, 1000)
	dir := t.TempDir()

	whole := filepath.Join(dir, "whole.csv")
	res := Summarize(data, Options{
		GroupColumn: "dept", SumColumns: []string{"cost", "qty"},
		Encoding: "utf-8", Delimiter: ",", OutputPath: whole,
	}, nil)
	require.True(t, res.Success, res.Message)
	want := readResult(t, whole)

	for _, k := range []int{1, 3, 128, 1000, 5000} {
		out := filepath.Join(dir, fmt.Sprintf("chunked-%d.csv", k))
		res := Summarize(data, Options{
			GroupColumn: "dept", SumColumns: []string{"cost", "qty"},
			Encoding: "utf-8", Delimiter: ",",
			Chunked: true, ChunkSize: k, OutputPath: out,
		}, nil)
		require.True(t, res.Success, res.Message)
		assert.Equal(t, want, readResult(t, out), "chunk size %d", k)
	}
}

func TestSummarizeDescending(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.csv", "k,n\na,1\nb,300\nc,20\n")
	out := filepath.Join(dir, "sorted.csv")

	res := Summarize(data, Options{
		GroupColumn: "k", SumColumns: []string{"n"},
		Encoding: "utf-8", Delimiter: ",",
		Descending: true, OutputPath: out,
	}, nil)
	require.True(t, res.Success, res.Message)

	tbl, _, _, err := readers.Read(out, core.ReadRequest{Encoding: "utf-8-sig", Delimiter: ","})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, tbl.Column("k"))
}

func TestSummarizeMissingGroupColumn(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.csv", "x,y\n1,2\n")
	out := filepath.Join(dir, "out.csv")

	res := Summarize(data, Options{
		GroupColumn: "dept", SumColumns: []string{"y"},
		Encoding: "utf-8", Delimiter: ",", OutputPath: out,
	}, nil)
	require.False(t, res.Success)
	assert.Contains(t, res.Message, `"dept"`)
	assert.Contains(t, res.Message, "the file")

	res = Summarize(data, Options{
		GroupColumn: "dept", SumColumns: []string{"y"},
		Encoding: "utf-8", Delimiter: ",",
		Chunked: true, ChunkSize: 1, OutputPath: out,
	}, nil)
	require.False(t, res.Success)
	assert.Contains(t, res.Message, `"dept"`)
	assert.Contains(t, res.Message, "the current block")
}

func TestSummarizeMissingSumColumnIsZero(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.csv", "k,n\na,5\na,6\n")
	out := filepath.Join(dir, "out.csv")

	res := Summarize(data, Options{
		GroupColumn: "k", SumColumns: []string{"n", "ghost"},
		Encoding: "utf-8", Delimiter: ",", OutputPath: out,
	}, nil)
	require.True(t, res.Success, res.Message)

	got := readResult(t, out)
	assert.InDelta(t, 11.0, got["a"]["n"], 1e-9)
	assert.InDelta(t, 0.0, got["a"]["ghost"], 1e-9)
}

func TestSummarizeNoSumColumns(t *testing.T) {
	res := Summarize("anything.csv", Options{GroupColumn: "k"}, nil)
	require.False(t, res.Success)
	assert.Contains(t, res.Message, "sum column")
}

func TestSummarizeUnreadableFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	res := Summarize(filepath.Join(t.TempDir(), "missing.csv"), Options{
		GroupColumn: "k", SumColumns: []string{"n"}, OutputPath: out,
	}, nil)
	require.False(t, res.Success)
}

func TestSummarizeProgressMonotonic(t *testing.T) {
	data := deptFixture(t, 200)
	out := filepath.Join(t.TempDir(), "out.csv")

	last := -1
	res := Summarize(data, Options{
		GroupColumn: "dept", SumColumns: []string{"cost"},
		Encoding: "utf-8", Delimiter: ",",
		Chunked: true, ChunkSize: 10, Descending: true, OutputPath: out,
	}, func(pct int, _ string) {
		assert.GreaterOrEqual(t, pct, last)
		assert.LessOrEqual(t, pct, 100)
		last = pct
	})
	require.True(t, res.Success, res.Message)
}

func TestFoldPreservesOneSidedKeys(t *testing.T) {
	a := newGroupedSums([]string{"n"})
	a.add("x", []float64{1})
	a.add("y", []float64{2})

	b := newGroupedSums([]string{"n"})
	b.add("y", []float64{3})
	b.add("z", []float64{4})

	a.fold(b)
	assert.Equal(t, []float64{1}, a.totals["x"])
	assert.Equal(t, []float64{5}, a.totals["y"])
	assert.Equal(t, []float64{4}, a.totals["z"])
}
