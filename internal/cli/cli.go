package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/tracksort/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogging routes logs to logFile, or discards them when logFile is
// empty so they do not interleave with the prompts. The returned closer
// releases the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var (
		out    io.Writer = io.Discard
		closer io.Closer = nopCloser{}
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		out, closer = file, file
	}

	if err := logger.Init(logger.WithOutput(out)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return nil, fmt.Errorf("failed to set log level: %w", err)
	}
	return closer, nil
}

// ShowHelp prints usage information for the terminal client.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `tracksort - rank the tracks of an album
=======================================

Answer a short series of "which do you prefer" questions and get the
album's tracks in your order of preference.

Usage:
  rank-cli [options]

Options:
  -query string
        Search albums for this text instead of prompting
  -album string
        Rank this album id directly, skipping the search
  -log string
        Write logs to this file (default: logs are discarded)
  -verbose
        Enable debug logging
  -help
        Show this help message

During a comparison type 1 or 2 to pick a track, or b to go back to search.
After the results type r to rank again, n for a new search or q to quit.

Environment:
  TRACKSORT_CONFIG and TRACKSORT_* variables configure the catalog client,
  the same way they configure the server.
`)
}
