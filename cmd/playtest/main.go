package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/roshambo/internal/playtest"
	"github.com/okian/roshambo/pkg/logger"
)

const (
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	defaultRunTime = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		sessions = flag.Int("sessions", playtest.DefaultSessions, "Number of sessions to create")
		rounds   = flag.Int("rounds", playtest.DefaultRounds, "Rounds played in each session")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		resend   = flag.Float64("resend", playtest.DefaultResendRatio, "Fraction of rounds resent to check idempotency")
		timeout  = flag.Duration("timeout", playtest.DefaultTimeout, "HTTP request timeout")
		verbose  = flag.Bool("verbose", false, "Log every round")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		playtest.ShowHelp(os.Stdout)
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTime)
	defer cancel()

	_, err := playtest.Run(ctx, &playtest.Config{
		BaseURL:     *baseURL,
		Sessions:    *sessions,
		Rounds:      *rounds,
		Workers:     *workers,
		ResendRatio: *resend,
		Timeout:     *timeout,
		Verbose:     *verbose,
	})
	if err != nil {
		logger.Get().Error(ctx, "playtest failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
