package playtest

import "time"

// Config holds configuration for a playtest run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Sessions    int           // Number of sessions to create
	Rounds      int           // Rounds played in each session
	Workers     int           // Number of concurrent workers
	ResendRatio float64       // Fraction of rounds sent a second time
	Timeout     time.Duration // HTTP request timeout
	Verbose     bool          // Log every round
}

// Stats holds run statistics.
type Stats struct {
	SessionsCreated  int
	SessionsVerified int
	SessionsEnded    int
	RoundsPlayed     int
	RoundsResent     int
	Wins             int
	Losses           int
	Ties             int
	RequestsFailed   int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

// tracked is what the client observed for one session.
type tracked struct {
	id     string
	rounds int
	wins   int
	losses int
	ties   int
	resent int
}
