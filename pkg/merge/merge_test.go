package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"tally/logger"
	"tally/pkg/core"
	"tally/pkg/readers"
)

func TestMain(m *testing.M) {
	dir, _ := os.MkdirTemp("", "merge-test")
	logger.SetLogPath(filepath.Join(dir, "tally.log"))
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func readMerged(t *testing.T, path string) *core.Table {
	t.Helper()
	tbl, _, _, err := readers.Read(path, core.ReadRequest{Encoding: "utf-8-sig", Delimiter: ","})
	require.NoError(t, err)
	return tbl
}

func TestMergeSupersetSchema(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFile(t, dir, "f1.csv", []byte("id,amount\n1,100\n2,200\n"))
	f2 := writeFile(t, dir, "f2.csv", []byte("id,region\n3,east\n"))
	out := filepath.Join(dir, "merged.csv")

	res := Merge([]string{f1, f2}, out, Options{Encoding: "utf-8", Delimiter: ","}, nil)
	require.True(t, res.Success, res.Message)
	assert.Contains(t, res.Message, "merged 2 of 2 files")
	assert.Contains(t, res.Message, "3 rows")

	tbl := readMerged(t, out)
	assert.Equal(t, []string{"amount", "id", "region"}, tbl.Columns())
	require.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []string{"100", "200", ""}, tbl.Column("amount"))
	assert.Equal(t, []string{"", "", "east"}, tbl.Column("region"))
	assert.Equal(t, []string{"1", "2", "3"}, tbl.Column("id"))
}

func TestMergeHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFile(t, dir, "f1.csv", []byte("a\n1\n"))
	f2 := writeFile(t, dir, "f2.csv", []byte("a\n2\n"))
	out := filepath.Join(dir, "merged.csv")

	res := Merge([]string{f1, f2}, out, Options{Encoding: "utf-8", Delimiter: ","}, nil)
	require.True(t, res.Success, res.Message)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := strings.TrimPrefix(string(data), "\xEF\xBB\xBF")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	assert.Equal(t, []string{"a", "1", "2"}, lines)
}

func TestMergeChunkedMatchesWhole(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("id,v\n")
	for i := 0; i < 250; i++ {
		fmt.Fprintf(&b, "%d,v%d\n", i, i)
	}
	f1 := writeFile(t, dir, "f1.csv", []byte(b.String()))
	f2 := writeFile(t, dir, "f2.csv", []byte("id,w\n999,x\n"))

	wholeOut := filepath.Join(dir, "whole.csv")
	res := Merge([]string{f1, f2}, wholeOut, Options{Encoding: "utf-8", Delimiter: ","}, nil)
	require.True(t, res.Success, res.Message)

	chunkedOut := filepath.Join(dir, "chunked.csv")
	res = Merge([]string{f1, f2}, chunkedOut, Options{
		Encoding: "utf-8", Delimiter: ",", Chunked: true, ChunkSize: 64,
	}, nil)
	require.True(t, res.Success, res.Message)

	whole := readMerged(t, wholeOut)
	chunked := readMerged(t, chunkedOut)
	assert.Equal(t, whole.Columns(), chunked.Columns())
	require.Equal(t, whole.NumRows(), chunked.NumRows())
	assert.Equal(t, whole.Column("id"), chunked.Column("id"))
	assert.Equal(t, whole.Column("v"), chunked.Column("v"))
}

func TestMergeSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFile(t, dir, "f1.csv", []byte("a\n1\n"))
	missing := filepath.Join(dir, "missing.csv")
	out := filepath.Join(dir, "merged.csv")

	res := Merge([]string{f1, missing}, out, Options{Encoding: "utf-8", Delimiter: ","}, nil)
	require.True(t, res.Success, res.Message)
	assert.Contains(t, res.Message, "merged 1 of 2 files")
}

func TestMergeAllUnreadable(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "merged.csv")

	res := Merge([]string{filepath.Join(dir, "nope.csv")}, out, Options{Encoding: "utf-8", Delimiter: ","}, nil)
	require.False(t, res.Success)
}

func TestMergeNoInputs(t *testing.T) {
	res := Merge(nil, "out.csv", Options{}, nil)
	require.False(t, res.Success)
}

func TestMergeAutoDetectsFromFirstFile(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("部门;金额\n")
	depts := []string{"销售部", "市场部", "技术部", "财务部", "人力资源部", "行政管理部"}
	for i, d := range depts {
		fmt.Fprintf(&b, "%s;%d\n", d, (i+1)*100)
	}
	raw, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(b.String()))
	require.NoError(t, err)
	f1 := writeFile(t, dir, "gbk.csv", raw)
	out := filepath.Join(dir, "merged.csv")

	res := Merge([]string{f1}, out, Options{Encoding: "auto", Delimiter: "auto"}, nil)
	require.True(t, res.Success, res.Message)

	tbl := readMerged(t, out)
	assert.Equal(t, []string{"部门", "金额"}, tbl.Columns())
	assert.Equal(t, "销售部", tbl.Cell("部门", 0))
}

func TestMergeProgressMonotonic(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFile(t, dir, "f1.csv", []byte("a,b\n1,2\n3,4\n5,6\n"))
	f2 := writeFile(t, dir, "f2.csv", []byte("b,c\n7,8\n"))
	out := filepath.Join(dir, "merged.csv")

	last := -1
	res := Merge([]string{f1, f2}, out, Options{
		Encoding: "utf-8", Delimiter: ",", Chunked: true, ChunkSize: 1,
	}, func(pct int, _ string) {
		assert.GreaterOrEqual(t, pct, last)
		assert.LessOrEqual(t, pct, 100)
		last = pct
	})
	require.True(t, res.Success, res.Message)
}
