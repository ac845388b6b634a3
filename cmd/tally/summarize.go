package main

import (
	"github.com/spf13/cobra"

	"tally/pkg/aggregate"
	"tally/pkg/core"
)

// newSummarizeCommand creates the summarize subcommand.
func newSummarizeCommand() *cobra.Command {
	var (
		output     string
		groupCol   string
		sumCols    []string
		encoding   string
		delimiter  string
		chunked    bool
		chunkSize  int
		descending bool
	)

	cmd := &cobra.Command{
		Use:   "summarize [file]",
		Short: "Compute grouped sums over a key column",
		Long: `Summarize groups the file by a key column and totals one or more
numeric columns per distinct key. Thousands-separator commas are
stripped before parsing; unparseable values count as zero. Chunked and
whole-file runs produce identical totals for any chunk size.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if encoding == "" {
				encoding = cfg.Defaults.Encoding
			}
			if delimiter == "" {
				delimiter = cfg.Defaults.Delimiter
			}
			if chunkSize <= 0 {
				chunkSize = cfg.Chunking.SummarizeChunkSize
			}
			return runWithSpinner(func(progress core.ProgressFunc) core.Result {
				return aggregate.Summarize(args[0], aggregate.Options{
					GroupColumn: groupCol,
					SumColumns:  sumCols,
					Encoding:    encoding,
					Delimiter:   delimiter,
					Chunked:     chunked,
					ChunkSize:   chunkSize,
					Descending:  descending,
					OutputPath:  output,
				}, progress)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "summary.xlsx", "Output file path (.xlsx or .csv)")
	cmd.Flags().StringVarP(&groupCol, "group", "g", "", "Column to group by (required)")
	cmd.Flags().StringSliceVarP(&sumCols, "sum", "s", nil, "Columns to total, e.g. --sum cost,qty (required)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Input encoding (utf-8-sig, gbk, gb18030, utf-8, latin1, auto)")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "Input delimiter character or 'auto'")
	cmd.Flags().BoolVar(&chunked, "chunked", false, "Process the file in fixed-size chunks")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Rows per chunk in chunked mode")
	cmd.Flags().BoolVar(&descending, "descending", false, "Sort the result by the first sum column, descending")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("sum")

	return cmd
}
