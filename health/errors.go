package health

import "errors"

var (
	// ErrConfigMissing indicates a configuration source is absent or lacks a required key.
	ErrConfigMissing = errors.New("health: configuration missing")

	// ErrConnection indicates the target refused or reset a connection.
	ErrConnection = errors.New("health: connection failed")

	// ErrTimeout indicates a call exceeded its time budget.
	ErrTimeout = errors.New("health: check timeout")

	// ErrProtocol indicates a response did not match the expected contract.
	ErrProtocol = errors.New("health: protocol violation")

	// ErrSupervisionUnavailable indicates the process supervisor could not be reached.
	ErrSupervisionUnavailable = errors.New("health: supervision unavailable")

	// ErrCanceled indicates the run was interrupted before a check completed.
	ErrCanceled = errors.New("health: check canceled")
)
