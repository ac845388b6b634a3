// Package sniff guesses a delimited file's character encoding and field
// delimiter from raw bytes. Detection never fails: every entry point falls
// back to a safe default instead of returning an error.
package sniff

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/saintfish/chardet"
	"go.uber.org/zap"

	"tally/logger"
	"tally/pkg/encodings"
)

const (
	// sampleSize is how many leading bytes feed the charset detector.
	sampleSize = 50 * 1024

	// minConfidence is the detector confidence (0-100) below which the
	// guess is considered unreliable.
	minConfidence = 70

	// FallbackEncoding is used whenever detection is unreliable or fails
	// outright. GBK covers the double-byte CJK files this engine most
	// often sees mislabeled.
	FallbackEncoding = "gbk"

	// FallbackDelimiter is the safe default when no candidate delimiter
	// appears at all.
	FallbackDelimiter = ','
)

// detectionDelimiters are the candidates considered by DetectDelimiter, in
// tie-break order.
var detectionDelimiters = []rune{',', ';', '\t', '|'}

// DetectEncoding samples the first 50 KB of the file and runs a statistical
// charset detector. Low-confidence guesses, unknown charsets, and I/O
// failures all collapse to FallbackEncoding.
func DetectEncoding(path string) string {
	f, err := os.Open(path)
	if err != nil {
		logger.GetLogger().Debug("encoding detection: open failed", zap.String("path", path), zap.Error(err))
		return FallbackEncoding
	}
	defer f.Close()

	sample := make([]byte, sampleSize)
	n, err := io.ReadFull(f, sample)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FallbackEncoding
	}
	sample = sample[:n]
	if len(sample) == 0 {
		return FallbackEncoding
	}

	best, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || best == nil || best.Confidence < minConfidence {
		return FallbackEncoding
	}
	name := encodings.Normalize(best.Charset)
	if !encodings.Known(name) {
		return FallbackEncoding
	}
	return name
}

// DetectDelimiter reads the first two lines of the file, decoded with the
// given encoding (undecodable bytes ignored), counts each candidate
// delimiter in both lines, and returns the candidate with the highest
// average count. Ties keep the earlier candidate, so comma wins an
// all-zero tie via FallbackDelimiter.
func DetectDelimiter(path, encoding string) rune {
	f, err := os.Open(path)
	if err != nil {
		logger.GetLogger().Debug("delimiter detection: open failed", zap.String("path", path), zap.Error(err))
		return FallbackDelimiter
	}
	defer f.Close()

	sc := bufio.NewScanner(encodings.DecodingReader(f, encoding))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var first, second string
	if sc.Scan() {
		first = strings.TrimSpace(sc.Text())
	}
	if sc.Scan() {
		second = strings.TrimSpace(sc.Text())
	}

	best := FallbackDelimiter
	bestAvg := 0.0
	for _, cand := range detectionDelimiters {
		avg := float64(strings.Count(first, string(cand))+strings.Count(second, string(cand))) / 2
		if avg > bestAvg {
			best = cand
			bestAvg = avg
		}
	}
	return best
}

// FileSizeMB returns the file size in megabytes, or 0 when the file cannot
// be stat'ed.
func FileSizeMB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / (1024 * 1024)
}
