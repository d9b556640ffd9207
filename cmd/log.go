package cmd

import (
	"io"

	"github.com/charmbracelet/log"
)

// newLogger returns a leveled logger writing to w. Only warnings and errors are
// shown unless verbose is set.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}
