package playtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/roshambo/pkg/logger"
)

// verifySessions fetches every session and compares its scoreboard with
// the rounds the client saw.
func verifySessions(ctx context.Context, client *HTTPClient, sessions []*tracked, stats *Stats) error {
	logger.Named("playtest").Info(ctx, "verifying sessions", logger.Int("count", len(sessions)))

	var errs []error
	for _, t := range sessions {
		if err := verifySession(ctx, client, t); err != nil {
			errs = append(errs, err)
			continue
		}
		stats.SessionsVerified++
	}
	return errors.Join(errs...)
}

func verifySession(ctx context.Context, client *HTTPClient, t *tracked) error {
	snap, err := client.session(ctx, t.id)
	if err != nil {
		return err
	}
	sb := snap.Scoreboard
	switch {
	case sb.User+sb.Computer+sb.Ties != sb.Rounds:
		return fmt.Errorf("%w: session %s: %d + %d + %d != %d rounds",
			ErrVerification, t.id, sb.User, sb.Computer, sb.Ties, sb.Rounds)
	case sb.Rounds != t.rounds:
		return fmt.Errorf("%w: session %s: server counted %d rounds, client played %d",
			ErrVerification, t.id, sb.Rounds, t.rounds)
	case sb.User != t.wins || sb.Computer != t.losses || sb.Ties != t.ties:
		return fmt.Errorf("%w: session %s: server %d/%d/%d, client %d/%d/%d",
			ErrVerification, t.id, sb.User, sb.Computer, sb.Ties, t.wins, t.losses, t.ties)
	}
	return nil
}
