package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"tally/pkg/core"
)

// runWithSpinner drives an engine operation with a terminal spinner that
// renders the engine's progress callbacks, then prints the result and
// maps failure onto a non-zero exit.
func runWithSpinner(op func(progress core.ProgressFunc) core.Result) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Start()

	res := op(func(percent int, status string) {
		s.Suffix = fmt.Sprintf(" [%3d%%] %s", percent, status)
	})
	s.Stop()

	fmt.Println(res.Message)
	if !res.Success {
		os.Exit(1)
	}
	return nil
}
