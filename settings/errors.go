package settings

import "errors"

var (
	// ErrInvalidTimeout indicates a non-positive timeout.
	ErrInvalidTimeout = errors.New("settings: timeout must be positive")

	// ErrInvalidRunner indicates an unknown supervisor runner.
	ErrInvalidRunner = errors.New("settings: invalid supervisor runner")

	// ErrMissingSSHHost indicates the ssh runner was selected without a host.
	ErrMissingSSHHost = errors.New("settings: ssh runner requires a host")

	// ErrInvalidFormat indicates an unknown report format.
	ErrInvalidFormat = errors.New("settings: invalid report format")

	// ErrInvalidTelemetry indicates the telemetry section is rejected by observe.
	ErrInvalidTelemetry = errors.New("settings: invalid telemetry")
)
