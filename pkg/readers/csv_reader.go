// Package readers turns delimited text files into core.Table values,
// tolerating unknown encodings, unknown delimiters, and malformed rows.
// The single entry points Read and OpenChunks try an ordered cascade of
// (encoding, delimiter) candidates and return the first combination that
// parses.
package readers

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"tally/pkg/core"
	"tally/pkg/encodings"
)

// rowReader yields validated rows from one decoded CSV stream. Rows whose
// field count differs from the header are skipped; parse errors on a single
// record skip that record. In strict mode any replacement rune produced by
// the decoder fails the whole stream, which is how a wrong encoding
// candidate is rejected.
type rowReader struct {
	csv    *csv.Reader
	header []string
	strict bool
}

// errBadDecode rejects an encoding candidate whose decoder had to
// substitute replacement runes.
var errBadDecode = errors.New("readers: undecodable bytes for candidate encoding")

func newRowReader(r io.Reader, encoding string, delimiter rune, strict bool) (*rowReader, error) {
	cr := csv.NewReader(encodings.DecodingReader(r, encoding))
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	if len(header) == 0 || (len(header) == 1 && strings.TrimSpace(header[0]) == "") {
		return nil, errors.New("readers: empty header")
	}
	rr := &rowReader{csv: cr, header: header, strict: strict}
	if strict && containsReplacement(header) {
		return nil, errBadDecode
	}
	return rr, nil
}

// next returns the next well-formed row, io.EOF at end of stream, or
// errBadDecode in strict mode when the decoder substituted bytes.
func (rr *rowReader) next() ([]string, error) {
	for {
		record, err := rr.csv.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue // bad line, skip
			}
			return nil, err
		}
		if len(record) != len(rr.header) {
			continue
		}
		if rr.strict && containsReplacement(record) {
			return nil, errBadDecode
		}
		return record, nil
	}
}

func containsReplacement(fields []string) bool {
	for _, f := range fields {
		if strings.ContainsRune(f, '�') {
			return true
		}
	}
	return false
}

// readAll drains the stream into one table.
func readAll(rr *rowReader) (*core.Table, error) {
	t := core.NewTable(rr.header)
	for {
		row, err := rr.next()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		t.AppendRow(row)
	}
}

// ChunkReader yields successive fixed-size chunks of one file. Chunks share
// the file's header and are independent of each other; Next returns io.EOF
// once the file is exhausted.
type ChunkReader struct {
	file      *os.File
	rows      *rowReader
	chunkSize int

	// Encoding and Delimiter are the combination that won the cascade.
	Encoding  string
	Delimiter rune
}

// Columns returns the file's header columns.
func (r *ChunkReader) Columns() []string {
	return r.rows.header
}

// Next reads the next chunk of up to chunkSize rows. It returns io.EOF
// when no rows remain.
func (r *ChunkReader) Next() (*core.Table, error) {
	t := core.NewTable(r.rows.header)
	for t.NumRows() < r.chunkSize {
		row, err := r.rows.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t.AppendRow(row)
	}
	if t.NumRows() == 0 {
		return nil, io.EOF
	}
	return t, nil
}

// Close releases the underlying file handle.
func (r *ChunkReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
