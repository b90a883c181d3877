package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/okian/roshambo/internal/domain/random"
	"github.com/okian/roshambo/internal/session"
	"github.com/okian/roshambo/internal/terminal"
	"github.com/okian/roshambo/pkg/logger"
)

func main() {
	var (
		name     = flag.String("name", session.DefaultPlayerName, "Player display name")
		seed     = flag.Int64("seed", 0, "Seed for the computer's moves (0 picks a fresh one)")
		logLevel = flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	// Game output owns stdout; logs go to stderr.
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(*logLevel); err != nil {
		_ = logger.SetLevelString("warn")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []random.Option
	if *seed != 0 {
		opts = append(opts, random.WithSeed(*seed))
	}
	sess := session.New(uuid.NewString(),
		session.WithPlayerName(*name),
		session.WithMoveSource(random.NewSource(opts...)),
	)

	if err := terminal.New(os.Stdin, os.Stdout, sess).Run(ctx); err != nil {
		logger.Get().Error(ctx, "terminal client failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}
