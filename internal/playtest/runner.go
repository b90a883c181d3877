// Package playtest drives a running game service over HTTP and checks
// that every session's scoreboard matches what the client observed.
package playtest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/roshambo/internal/domain/move"
	"github.com/okian/roshambo/internal/domain/round"
	"github.com/okian/roshambo/pkg/logger"
)

// Defaults for unset Config fields.
const (
	DefaultSessions    = 100
	DefaultRounds      = 50
	DefaultResendRatio = 0.1
	DefaultTimeout     = 10 * time.Second
)

const percentageMultiplier = 100

// Run executes a complete playtest against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	cfg = withDefaults(cfg)
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("playtest")

	log.Info(ctx, "starting playtest",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers),
		logger.Float64("resendRatio", cfg.ResendRatio),
		logger.Duration("timeout", cfg.Timeout))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: check service health
	if err := client.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	log.Info(ctx, "service is healthy")

	// Step 2: play every session concurrently
	sessions, err := playSessions(ctx, cfg, client, stats)
	if err != nil {
		return stats, fmt.Errorf("playing sessions failed: %w", err)
	}

	// Step 3: verify server state against what was observed
	if err := verifySessions(ctx, client, sessions, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	// Step 4: end sessions
	for _, s := range sessions {
		if err := client.endSession(ctx, s.id); err != nil {
			log.Warn(ctx, "failed to end session", logger.String("session_id", s.id), logger.Error(err))
			continue
		}
		stats.SessionsEnded++
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats, client.stats(ctx))

	log.Info(ctx, "playtest completed successfully")
	return stats, nil
}

func withDefaults(cfg *Config) *Config {
	c := *cfg
	if c.Sessions <= 0 {
		c.Sessions = DefaultSessions
	}
	if c.Rounds <= 0 {
		c.Rounds = DefaultRounds
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.ResendRatio < 0 || c.ResendRatio > 1 {
		c.ResendRatio = DefaultResendRatio
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return &c
}

// playSessions creates cfg.Sessions sessions and plays them on cfg.Workers
// goroutines. Rounds within one session are sequential.
func playSessions(ctx context.Context, cfg *Config, client *HTTPClient, stats *Stats) ([]*tracked, error) {
	work := make(chan int, cfg.Workers)
	results := make([]*tracked, cfg.Sessions)
	errs := make([]error, cfg.Sessions)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				results[i], errs[i] = playSession(ctx, cfg, client, i)
			}
		}()
	}

	go func() {
		defer close(work)
		for i := 0; i < cfg.Sessions; i++ {
			select {
			case <-ctx.Done():
				return
			case work <- i:
			}
		}
	}()
	wg.Wait()

	var played []*tracked
	for i, t := range results {
		if errs[i] != nil {
			stats.RequestsFailed++
		}
		if t == nil {
			continue
		}
		stats.SessionsCreated++
		stats.RoundsPlayed += t.rounds
		stats.RoundsResent += t.resent
		stats.Wins += t.wins
		stats.Losses += t.losses
		stats.Ties += t.ties
		played = append(played, t)
	}
	if err := errors.Join(errs...); err != nil {
		return played, err
	}
	return played, ctx.Err()
}

func playSession(ctx context.Context, cfg *Config, client *HTTPClient, n int) (*tracked, error) {
	snap, err := client.createSession(ctx, fmt.Sprintf("PLAYTEST-%d", n))
	if err != nil {
		return nil, err
	}
	t := &tracked{id: snap.ID}
	moves := move.All()

	for r := 0; r < cfg.Rounds; r++ {
		roundID := uuid.NewString()
		mv := moves[rand.IntN(len(moves))].String()
		viaHeader := r%2 == 1

		res, err := client.play(ctx, t.id, roundID, mv, viaHeader)
		if err != nil {
			return t, err
		}
		if res.Duplicate || res.Outcome == nil {
			return t, fmt.Errorf("%w: fresh round %s reported as duplicate", ErrVerification, roundID)
		}
		t.rounds++
		switch res.Outcome.Result {
		case round.Win:
			t.wins++
		case round.Loss:
			t.losses++
		default:
			t.ties++
		}
		if cfg.Verbose {
			logger.Named("playtest").Debug(ctx, "round played",
				logger.String("session_id", t.id),
				logger.String("round_id", roundID),
				logger.Stringer("user_move", res.Outcome.UserMove),
				logger.Stringer("computer_move", res.Outcome.ComputerMove),
				logger.Stringer("result", res.Outcome.Result))
		}

		if rand.Float64() >= cfg.ResendRatio {
			continue
		}
		// resend through the other channel; it must be acknowledged as a duplicate
		dup, err := client.play(ctx, t.id, roundID, mv, !viaHeader)
		if err != nil {
			return t, err
		}
		if !dup.Duplicate || dup.Scoreboard != res.Scoreboard {
			return t, fmt.Errorf("%w: resent round %s was played again", ErrVerification, roundID)
		}
		t.resent++
	}
	return t, nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats, server map[string]any) {
	var winRate, roundsPerSecond float64
	if stats.RoundsPlayed > 0 {
		winRate = float64(stats.Wins) / float64(stats.RoundsPlayed) * percentageMultiplier
	}
	if stats.Duration > 0 {
		roundsPerSecond = float64(stats.RoundsPlayed+stats.RoundsResent) / stats.Duration.Seconds()
	}

	fields := []logger.Field{
		logger.Int("sessionsCreated", stats.SessionsCreated),
		logger.Int("sessionsVerified", stats.SessionsVerified),
		logger.Int("sessionsEnded", stats.SessionsEnded),
		logger.Int("roundsPlayed", stats.RoundsPlayed),
		logger.Int("roundsResent", stats.RoundsResent),
		logger.Int("wins", stats.Wins),
		logger.Int("losses", stats.Losses),
		logger.Int("ties", stats.Ties),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("winRate", winRate),
		logger.Float64("requestsPerSecond", roundsPerSecond),
	}
	if server != nil {
		fields = append(fields, logger.Any("server", server))
	}
	logger.Named("playtest").Info(ctx, "final statistics", fields...)
}
