package main

import (
	"github.com/spf13/cobra"

	"tally/pkg/core"
	"tally/pkg/merge"
)

// newMergeCommand creates the merge subcommand.
func newMergeCommand() *cobra.Command {
	var (
		output    string
		encoding  string
		delimiter string
		chunked   bool
		chunkSize int
	)

	cmd := &cobra.Command{
		Use:   "merge [files...]",
		Short: "Merge many delimited files into one superset-schema file",
		Long: `Merge combines delimited files into a single BOM-UTF-8 output file.
The column set of the output is the sorted union of every input's
columns; cells missing from a file are left empty. The encoding and
delimiter are resolved once, against the first file, and applied to all.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if encoding == "" {
				encoding = cfg.Defaults.Encoding
			}
			if delimiter == "" {
				delimiter = cfg.Defaults.Delimiter
			}
			if chunkSize <= 0 {
				chunkSize = cfg.Chunking.MergeChunkSize
			}
			return runWithSpinner(func(progress core.ProgressFunc) core.Result {
				return merge.Merge(args, output, merge.Options{
					Encoding:  encoding,
					Delimiter: delimiter,
					Chunked:   chunked,
					ChunkSize: chunkSize,
				}, progress)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "merged.csv", "Output file path")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Input encoding (utf-8-sig, gbk, gb18030, utf-8, latin1, auto)")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "Input delimiter character or 'auto'")
	cmd.Flags().BoolVar(&chunked, "chunked", false, "Stream each file in fixed-size chunks")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Rows per chunk in chunked mode")

	return cmd
}
