package supervisor

import "errors"

var (
	// ErrUnavailable indicates the supervisor could not be queried at all.
	ErrUnavailable = errors.New("supervisor: unavailable")

	// ErrEmptyCommand indicates a runner was configured without a command.
	ErrEmptyCommand = errors.New("supervisor: empty command")

	// ErrNoAuthMethod indicates an SSH runner has neither a key nor a password.
	ErrNoAuthMethod = errors.New("supervisor: no ssh auth method configured")
)
