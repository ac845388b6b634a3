// Package merge streams many delimited files into one output file with a
// unified superset schema: every input row appears once, aligned to the
// sorted union of all input columns, missing cells as empty strings.
package merge

import (
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"tally/logger"
	"tally/pkg/core"
	"tally/pkg/readers"
	"tally/pkg/schema"
	"tally/pkg/sniff"
	"tally/pkg/writers"
)

// Options configures one merge run.
type Options struct {
	Encoding  string
	Delimiter string
	Chunked   bool
	ChunkSize int
}

// Merge combines the input files into outputPath. The encoding and
// delimiter are resolved once, against the first file, and applied to all
// of them; files that fail to read are skipped rather than failing the
// run. The output is BOM-UTF-8 with exactly one header row.
func Merge(paths []string, outputPath string, opts Options, progress core.ProgressFunc) (res core.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = core.Failure(fmt.Sprintf("merge failed: %v", r))
		}
	}()

	if len(paths) == 0 {
		return core.Failure("merge failed: no input files")
	}
	progress = core.Monotonic(progress)
	progress.Report(5, fmt.Sprintf("merging %d files...", len(paths)))

	encoding, delimiter := resolveParams(paths[0], opts.Encoding, opts.Delimiter)
	progress.Report(10, fmt.Sprintf("using encoding %s, delimiter %q", encoding, delimiter))

	unified := schema.CollectColumns(paths, encoding, string(delimiter), progress)
	if len(unified) == 0 {
		return core.Failure("merge failed: could not resolve column structure from any input file")
	}
	progress.Report(30, fmt.Sprintf("unified schema: %d columns", len(unified)))

	out := writers.NewCSVAppender(outputPath)
	defer out.Close()

	filesMerged := 0
	totalRows := 0
	headerWritten := false

	for i, path := range paths {
		base := 30 + int(float64(i)/float64(len(paths))*60)
		progress.Report(base, fmt.Sprintf("processing file %d/%d: %s", i+1, len(paths), filepath.Base(path)))

		rows, err := mergeOne(path, encoding, delimiter, opts, unified, out, &headerWritten, base, progress)
		if err != nil {
			logger.GetLogger().Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			continue
		}
		filesMerged++
		totalRows += rows
	}

	progress.Report(95, "finishing merge...")
	if err := out.Close(); err != nil {
		return core.Failure(fmt.Sprintf("merge failed: %v", err))
	}
	if filesMerged == 0 {
		return core.Failure("merge failed: none of the input files could be read")
	}
	return core.Successf(fmt.Sprintf("merged %d of %d files, %d rows, saved to %s", filesMerged, len(paths), totalRows, outputPath))
}

// resolveParams fills in "auto" settings by sniffing the first file; the
// resolved pair applies to every file of the run.
func resolveParams(firstFile, encoding, delimiter string) (string, rune) {
	if encoding == "" || encoding == "auto" {
		encoding = sniff.DetectEncoding(firstFile)
	}
	var delim rune
	if delimiter == "" || delimiter == "auto" {
		delim = sniff.DetectDelimiter(firstFile, encoding)
	} else {
		delim = []rune(delimiter)[0]
	}
	return encoding, delim
}

func mergeOne(path, encoding string, delimiter rune, opts Options, unified []string, out *writers.CSVAppender, headerWritten *bool, base int, progress core.ProgressFunc) (int, error) {
	req := core.ReadRequest{Encoding: encoding, Delimiter: string(delimiter)}

	if opts.Chunked && opts.ChunkSize > 0 {
		req.ChunkSize = opts.ChunkSize
		r, _, _, err := readers.OpenChunks(path, req)
		if err != nil {
			return 0, err
		}
		defer r.Close()

		rows := 0
		for chunkIdx := 0; ; chunkIdx++ {
			chunk, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return rows, err
			}
			if err := writeBlock(chunk, unified, out, headerWritten); err != nil {
				return rows, err
			}
			rows += chunk.NumRows()
			pct := base + (chunkIdx+1)*5
			if pct > 90 {
				pct = 90
			}
			progress.Report(pct, fmt.Sprintf("processed chunk %d (%d rows)", chunkIdx+1, rows))
		}
		return rows, nil
	}

	t, _, _, err := readers.Read(path, req)
	if err != nil {
		return 0, err
	}
	if err := writeBlock(t, unified, out, headerWritten); err != nil {
		return 0, err
	}
	return t.NumRows(), nil
}

// writeBlock aligns one block to the unified schema and appends it. The
// first block of the whole run carries the header.
func writeBlock(block *core.Table, unified []string, out *writers.CSVAppender, headerWritten *bool) error {
	for _, col := range unified {
		block.EnsureColumn(col, "")
	}
	aligned := block.Reindex(unified)

	withHeader := !*headerWritten
	if err := out.Append(aligned, withHeader); err != nil {
		return err
	}
	*headerWritten = true
	return nil
}
