// Package terminal plays a session over a line-oriented text stream.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/roshambo/internal/domain/move"
	"github.com/okian/roshambo/internal/session"
	"github.com/okian/roshambo/pkg/logger"
)

const (
	cmdScore = "score"
	cmdQuit  = "quit"
)

const prompt = "> "

const hint = `Type rock (r), paper (p) or scissors (s), "score" or "quit".`

// Client reads moves from in and writes results to out.
type Client struct {
	in   io.Reader
	out  io.Writer
	sess *session.Session
	err  error
}

// New creates a client playing sess.
func New(in io.Reader, out io.Writer, sess *session.Session) *Client {
	return &Client{in: in, out: out, sess: sess}
}

// Run plays until quit, end of input or ctx is done, then prints the final
// summary. It returns the first read or write failure.
func (c *Client) Run(ctx context.Context) error {
	log := logger.Named("terminal")
	log.Info(ctx, "session started",
		logger.String("session_id", c.sess.ID()),
		logger.String("player", c.sess.PlayerName()))

	c.printf("Rock, paper, scissors! %s\n", hint)
	c.printScore()

	sc := bufio.NewScanner(c.in)
	for c.err == nil && ctx.Err() == nil {
		c.printf("%s", prompt)
		if !sc.Scan() {
			c.printf("\n")
			break
		}
		if !c.handle(ctx, strings.TrimSpace(sc.Text())) {
			break
		}
	}

	c.printSummary()
	log.Info(ctx, "session ended",
		logger.String("session_id", c.sess.ID()),
		logger.Int("rounds", c.sess.Scoreboard().Rounds))

	return errors.Join(sc.Err(), c.err)
}

// handle processes one input line and reports whether to keep reading.
func (c *Client) handle(ctx context.Context, line string) bool {
	switch strings.ToLower(line) {
	case "":
		return true
	case cmdScore:
		c.printScore()
		return true
	case cmdQuit, "q", "exit":
		return false
	}

	m, err := move.Parse(line)
	if err != nil {
		c.printf("Unknown input %q. %s\n", line, hint)
		return true
	}

	out := c.sess.Play(m)
	logger.Named("terminal").Debug(ctx, "round played",
		logger.Int("round", out.Round),
		logger.Stringer("user_move", out.UserMove),
		logger.Stringer("computer_move", out.ComputerMove),
		logger.Stringer("result", out.Result))

	c.printf("%s\n%s\n", out.Title, out.Detail)
	c.printScore()
	return true
}

func (c *Client) printScore() {
	sb := c.sess.Scoreboard()
	c.printf("%s %d - %d %s\n", c.sess.PlayerName(), sb.User, sb.Computer, session.ComputerDisplayName)
}

func (c *Client) printSummary() {
	sb := c.sess.Scoreboard()
	c.printf("Final score after %d rounds (%d ties): %s %d - %d %s\n",
		sb.Rounds, sb.Ties, c.sess.PlayerName(), sb.User, sb.Computer, session.ComputerDisplayName)
	switch {
	case sb.User > sb.Computer:
		c.printf("You came out ahead.\n")
	case sb.User < sb.Computer:
		c.printf("The computer came out ahead.\n")
	default:
		c.printf("It's a draw.\n")
	}
}

// printf writes to out and keeps the first write failure.
func (c *Client) printf(format string, args ...any) {
	if c.err != nil {
		return
	}
	_, c.err = fmt.Fprintf(c.out, format, args...)
}
