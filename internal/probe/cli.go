package probe

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/canon/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "probe_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	os.Stdout.WriteString(`canon probe
===========

Checks a running canon service end to end: health, cache hits, batch
variant consistency, precision ordering and concurrent batch latency.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -teams string
        Comma separated team names (default "Lakers,Celtics")
  -players string
        Comma separated player names (default "LeBron James")
  -markets string
        Comma separated market names (default "Rush Yards")
  -sport string
        Sport scoping team lookups (default "Basketball")
  -rounds int
        Number of batch requests in the load phase (default 200)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for probe output (default: probe_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Probe with default settings
  go run ./cmd/probe

  # Heavier load phase against another host
  go run ./cmd/probe -rounds 5000 -workers 32 -url http://localhost:8080

  # Soccer names
  go run ./cmd/probe -sport Soccer -teams "Arsenal,Real Madrid" -players "Bukayo Saka"
`)
}
