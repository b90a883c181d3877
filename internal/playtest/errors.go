package playtest

import "errors"

var (
	// ErrUnexpectedStatus is returned for responses outside the expected status.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrVerification is returned when a session's server state disagrees with the client.
	ErrVerification = errors.New("verification failed")
)
