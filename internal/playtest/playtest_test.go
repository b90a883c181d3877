package playtest

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/roshambo/internal/adapters/http/api"
	service "github.com/okian/roshambo/internal/app"
	"github.com/okian/roshambo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithOutput(&bytes.Buffer{})); err != nil {
		panic(err)
	}
}

func newTestServer() (*httptest.Server, *service.Service) {
	svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(1000))
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return httptest.NewServer(mux), svc
}

func TestRun(t *testing.T) {
	Convey("Given a running game service", t, func() {
		srv, svc := newTestServer()
		defer srv.Close()
		defer svc.Stop()

		Convey("When a playtest runs with resends", func() {
			stats, err := Run(context.Background(), &Config{
				BaseURL:     srv.URL,
				Sessions:    6,
				Rounds:      20,
				Workers:     3,
				ResendRatio: 0.5,
				Timeout:     5 * time.Second,
				Verbose:     true,
			})

			Convey("Then every session verifies and is ended", func() {
				So(err, ShouldBeNil)
				So(stats.SessionsCreated, ShouldEqual, 6)
				So(stats.SessionsVerified, ShouldEqual, 6)
				So(stats.SessionsEnded, ShouldEqual, 6)
				So(stats.RoundsPlayed, ShouldEqual, 120)
				So(stats.Wins+stats.Losses+stats.Ties, ShouldEqual, 120)
				So(stats.RequestsFailed, ShouldEqual, 0)
				So(svc.GetStats()["activeSessions"], ShouldEqual, 0)
			})
		})

		Convey("When every round is resent", func() {
			stats, err := Run(context.Background(), &Config{
				BaseURL:     srv.URL,
				Sessions:    2,
				Rounds:      5,
				Workers:     2,
				ResendRatio: 1,
			})

			Convey("Then each resend is acknowledged as a duplicate", func() {
				So(err, ShouldBeNil)
				So(stats.RoundsResent, ShouldEqual, 10)
				So(stats.RoundsPlayed, ShouldEqual, 10)
			})
		})
	})
}

func TestRun_Unhealthy(t *testing.T) {
	Convey("Given a server whose health check fails", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		Convey("Then Run stops before creating sessions", func() {
			stats, err := Run(context.Background(), &Config{BaseURL: srv.URL, Sessions: 1, Rounds: 1})
			So(errors.Is(err, ErrUnexpectedStatus), ShouldBeTrue)
			So(stats.SessionsCreated, ShouldEqual, 0)
		})
	})
}

func TestVerifySession(t *testing.T) {
	Convey("Given a session the client miscounted", t, func() {
		srv, svc := newTestServer()
		defer srv.Close()
		defer svc.Stop()

		ctx := context.Background()
		client := newHTTPClient(srv.URL, time.Second)
		snap, err := client.createSession(ctx, "")
		So(err, ShouldBeNil)
		_, err = client.play(ctx, snap.ID, "r-1", "rock", false)
		So(err, ShouldBeNil)

		Convey("Then verification reports the mismatch", func() {
			err := verifySession(ctx, client, &tracked{id: snap.ID, rounds: 2})
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})

		Convey("And an unknown session fails with the response status", func() {
			err := verifySession(ctx, client, &tracked{id: "missing"})
			So(errors.Is(err, ErrUnexpectedStatus), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "404")
		})
	})
}

func TestWithDefaults(t *testing.T) {
	Convey("Given an empty config", t, func() {
		cfg := withDefaults(&Config{ResendRatio: 2})

		Convey("Then defaults are filled in", func() {
			So(cfg.Sessions, ShouldEqual, DefaultSessions)
			So(cfg.Rounds, ShouldEqual, DefaultRounds)
			So(cfg.Workers, ShouldEqual, 1)
			So(cfg.ResendRatio, ShouldEqual, DefaultResendRatio)
			So(cfg.Timeout, ShouldEqual, DefaultTimeout)
		})
	})
}

func TestShowHelp(t *testing.T) {
	Convey("Given the help text", t, func() {
		var buf bytes.Buffer
		ShowHelp(&buf)
		So(buf.String(), ShouldContainSubstring, "-sessions int")
	})
}
