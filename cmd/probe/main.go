package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/canon/internal/probe"
)

// Default configuration constants.
const (
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultProbeTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		teams   = flag.String("teams", "Lakers,Celtics", "Comma separated team names")
		players = flag.String("players", "LeBron James", "Comma separated player names")
		markets = flag.String("markets", "Rush Yards", "Comma separated market names")
		sport   = flag.String("sport", "Basketball", "Sport scoping team lookups")
		rounds  = flag.Int("rounds", probe.DefaultRounds, "Number of batch requests in the load phase")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout = flag.Duration("timeout", probe.DefaultTimeout, "HTTP request timeout")
		logFile = flag.String("log", "", "Log file for probe output (default: probe_log_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	if err := probe.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultProbeTimeout)
	defer cancel()

	config := &probe.Config{
		BaseURL: *baseURL,
		Teams:   probe.SplitNames(*teams),
		Players: probe.SplitNames(*players),
		Markets: probe.SplitNames(*markets),
		Sport:   *sport,
		Rounds:  *rounds,
		Workers: *workers,
		Timeout: *timeout,
		LogFile: *logFile,
		Verbose: *verbose,
	}

	if _, err := probe.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
