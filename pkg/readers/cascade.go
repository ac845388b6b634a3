package readers

import (
	"errors"
	"os"

	"go.uber.org/zap"

	"tally/logger"
	"tally/pkg/core"
	"tally/pkg/encodings"
)

// ErrUnreadable reports that no candidate combination, including the
// last-resort utf-8 + comma attempt, could parse the file. Callers treat
// the file as unreadable; single-file operations fail, multi-file merge
// skips it.
var ErrUnreadable = errors.New("readers: no encoding/delimiter combination could parse the file")

// readDelimiters are the auto-mode delimiter candidates in try order.
// Space is a read-only candidate; detection never proposes it.
var readDelimiters = []rune{',', ';', '\t', '|', ' '}

func candidateEncodings(req core.ReadRequest) []string {
	if req.Encoding != "" && req.Encoding != "auto" {
		return []string{encodings.Normalize(req.Encoding)}
	}
	return encodings.Candidates()
}

func candidateDelimiters(req core.ReadRequest) []rune {
	if req.Delimiter != "" && req.Delimiter != "auto" {
		return []rune{[]rune(req.Delimiter)[0]}
	}
	return readDelimiters
}

// Read loads the whole file as one table, trying every candidate
// (encoding, delimiter) pair in order and returning the first success
// along with the winning pair. On total failure the table is nil, the
// encoding and delimiter are empty, and the error is ErrUnreadable.
func Read(path string, req core.ReadRequest) (*core.Table, string, rune, error) {
	for _, enc := range candidateEncodings(req) {
		for _, delim := range candidateDelimiters(req) {
			t, err := readWhole(path, enc, delim, true)
			if err != nil {
				continue
			}
			return t, enc, delim, nil
		}
	}

	// Last resort: utf-8 + comma with the same bad-row-skipping policy,
	// tolerating undecodable bytes.
	t, err := readWhole(path, encodings.UTF8, ',', false)
	if err != nil {
		logger.GetLogger().Warn("file unreadable", zap.String("path", path), zap.Error(err))
		return nil, "", 0, ErrUnreadable
	}
	return t, encodings.UTF8, ',', nil
}

// OpenChunks opens the file for chunked reading with the same cascade as
// Read. A candidate succeeds only if its first chunk materializes; the
// reader handed back is freshly reopened so it starts from row one.
func OpenChunks(path string, req core.ReadRequest) (*ChunkReader, string, rune, error) {
	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 10000
	}

	for _, enc := range candidateEncodings(req) {
		for _, delim := range candidateDelimiters(req) {
			if !probeChunk(path, enc, delim, chunkSize, true) {
				continue
			}
			r, err := openChunks(path, enc, delim, chunkSize, true)
			if err != nil {
				continue
			}
			return r, enc, delim, nil
		}
	}

	if probeChunk(path, encodings.UTF8, ',', chunkSize, false) {
		r, err := openChunks(path, encodings.UTF8, ',', chunkSize, false)
		if err == nil {
			return r, encodings.UTF8, ',', nil
		}
	}
	logger.GetLogger().Warn("file unreadable", zap.String("path", path))
	return nil, "", 0, ErrUnreadable
}

func readWhole(path, encoding string, delimiter rune, strict bool) (*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rr, err := newRowReader(f, encoding, delimiter, strict)
	if err != nil {
		return nil, err
	}
	return readAll(rr)
}

// probeChunk validates a candidate pair by materializing the first chunk.
// The probe consumes rows, so successful candidates are reopened before
// being returned to the caller.
func probeChunk(path, encoding string, delimiter rune, chunkSize int, strict bool) bool {
	r, err := openChunks(path, encoding, delimiter, chunkSize, strict)
	if err != nil {
		return false
	}
	defer r.Close()
	_, err = r.Next()
	return err == nil
}

func openChunks(path, encoding string, delimiter rune, chunkSize int, strict bool) (*ChunkReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rr, err := newRowReader(f, encoding, delimiter, strict)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &ChunkReader{
		file:      f,
		rows:      rr,
		chunkSize: chunkSize,
		Encoding:  encoding,
		Delimiter: delimiter,
	}, nil
}
