package sniff

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"tally/logger"
	"tally/pkg/encodings"
)

func TestMain(m *testing.M) {
	dir, _ := os.MkdirTemp("", "sniff-test")
	logger.SetLogPath(filepath.Join(dir, "tally.log"))
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestDetectEncodingNeverFails(t *testing.T) {
	// Missing file, empty file, and binary garbage all yield a usable name.
	assert.Equal(t, FallbackEncoding, DetectEncoding(filepath.Join(t.TempDir(), "missing.csv")))
	assert.Equal(t, FallbackEncoding, DetectEncoding(writeFile(t, "empty.csv", nil)))

	garbage := writeFile(t, "garbage.bin", []byte{0x00, 0xFF, 0xFE, 0x01, 0x02, 0x03, 0x80, 0x81})
	enc := DetectEncoding(garbage)
	assert.NotEmpty(t, enc)
}

func TestDetectEncodingGBK(t *testing.T) {
	text := "部门,金额\n销售部,1200\n市场部,800\n技术部,1500\n"
	raw, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)
	path := writeFile(t, "gbk.csv", raw)

	enc := DetectEncoding(path)
	assert.True(t, encodings.Known(enc), "expected a candidate encoding, got %q", enc)
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"comma", "a,b,c\n1,2,3\n", ','},
		{"semicolon", "a;b;c\n1;2;3\n", ';'},
		{"tab", "a\tb\tc\n1\t2\t3\n", '\t'},
		{"pipe", "a|b|c\n1|2|3\n", '|'},
		{"single line", "a;b;c\n", ';'},
		{"no delimiter", "justoneword\n", ','},
		{"empty file", "", ','},
		{"tie keeps comma", "a,b;c\n1,2;3\n", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "f.csv", []byte(tt.data))
			assert.Equal(t, tt.want, DetectDelimiter(path, encodings.UTF8))
		})
	}
}

func TestDetectDelimiterMissingFile(t *testing.T) {
	assert.Equal(t, FallbackDelimiter, DetectDelimiter(filepath.Join(t.TempDir(), "missing.csv"), encodings.UTF8))
}

func TestFileSizeMB(t *testing.T) {
	path := writeFile(t, "mb.bin", make([]byte, 1024*1024))
	assert.InDelta(t, 1.0, FileSizeMB(path), 0.001)
	assert.Equal(t, 0.0, FileSizeMB(filepath.Join(t.TempDir(), "missing.bin")))
}
