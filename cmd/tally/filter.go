package main

import (
	"github.com/spf13/cobra"

	"tally/pkg/core"
	"tally/pkg/filter"
)

// newFilterCommand creates the filter subcommand.
func newFilterCommand() *cobra.Command {
	var (
		output    string
		filterCol string
		encoding  string
		delimiter string
		chunked   bool
	)

	cmd := &cobra.Command{
		Use:   "filter [data-file] [filter-file]",
		Short: "Keep rows whose key column matches an allow-list",
		Long: `Filter retains the rows of the data file whose key-column value
appears in the first column of the filter file (.xlsx or delimited
text; blank entries are dropped). Source row order is preserved.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if encoding == "" {
				encoding = cfg.Defaults.Encoding
			}
			if delimiter == "" {
				delimiter = cfg.Defaults.Delimiter
			}
			return runWithSpinner(func(progress core.ProgressFunc) core.Result {
				return filter.Filter(args[0], args[1], filter.Options{
					FilterColumn: filterCol,
					Encoding:     encoding,
					Delimiter:    delimiter,
					Chunked:      chunked,
					OutputPath:   output,
				}, progress)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "filtered.xlsx", "Output file path (.xlsx or .csv)")
	cmd.Flags().StringVarP(&filterCol, "column", "c", "", "Column to filter on (required)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Input encoding (utf-8-sig, gbk, gb18030, utf-8, latin1, auto)")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "Input delimiter character or 'auto'")
	cmd.Flags().BoolVar(&chunked, "chunked", false, "Process the data file in fixed-size chunks")
	_ = cmd.MarkFlagRequired("column")

	return cmd
}
