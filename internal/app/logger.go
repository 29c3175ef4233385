package app

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// newLogger returns an isolated slog.Logger backed by a charmbracelet/log
// handler. It does not set the global logger.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		level = log.InfoLevel
	}

	formatter := log.TextFormatter
	switch formatStr {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	handler := log.NewWithOptions(outW, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: formatter != log.TextFormatter,
	})
	return slog.New(handler)
}
