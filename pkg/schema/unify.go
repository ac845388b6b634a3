// Package schema computes the unified column superset across a set of
// input files, so a merge can align every block to one ordered schema.
package schema

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"tally/logger"
	"tally/pkg/core"
	"tally/pkg/readers"
)

// CollectColumns reads each file once (whole, never chunked) and returns
// the lexicographically sorted union of all column names. Files that fail
// to read are skipped; they do not fail the union. Progress runs from 10
// to 30 in proportion to files scanned.
func CollectColumns(paths []string, encoding, delimiter string, progress core.ProgressFunc) []string {
	seen := make(map[string]struct{})
	total := len(paths)

	for i, path := range paths {
		progress.Report(10+int(float64(i)/float64(total)*20), fmt.Sprintf("analyzing file structure %d/%d", i+1, total))

		t, _, _, err := readers.Read(path, core.ReadRequest{Encoding: encoding, Delimiter: delimiter})
		if err != nil {
			logger.GetLogger().Warn("skipping unreadable file while collecting columns", zap.String("path", path))
			continue
		}
		for _, c := range t.Columns() {
			seen[c] = struct{}{}
		}
	}

	union := make([]string, 0, len(seen))
	for c := range seen {
		union = append(union, c)
	}
	sort.Strings(union)
	return union
}
