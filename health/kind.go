package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/jonwraymond/smokecheck/resilience"
)

// Kind classifies why a check failed.
type Kind int

const (
	// KindNone is the kind of a successful outcome.
	KindNone Kind = iota
	// KindConfigMissing: a configuration source is absent or lacks a required key.
	KindConfigMissing
	// KindConnection: the target refused or reset a connection.
	KindConnection
	// KindTimeout: a call exceeded its bound.
	KindTimeout
	// KindProtocol: a response arrived but its status or body broke the contract.
	KindProtocol
	// KindSupervisionUnavailable: the process supervisor could not be reached.
	KindSupervisionUnavailable
	// KindCanceled: the run was interrupted before the check completed.
	KindCanceled
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfigMissing:
		return "config-missing"
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindProtocol:
		return "protocol"
	case KindSupervisionUnavailable:
		return "supervision-unavailable"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for the kind, or nil for KindNone.
func (k Kind) Err() error {
	switch k {
	case KindConfigMissing:
		return ErrConfigMissing
	case KindConnection:
		return ErrConnection
	case KindTimeout:
		return ErrTimeout
	case KindProtocol:
		return ErrProtocol
	case KindSupervisionUnavailable:
		return ErrSupervisionUnavailable
	case KindCanceled:
		return ErrCanceled
	default:
		return nil
	}
}

// Detailf formats a failure detail prefixed with the kind name,
// e.g. "timeout: no response within 10s".
func (k Kind) Detailf(format string, args ...any) string {
	return k.String() + ": " + fmt.Sprintf(format, args...)
}

// Classify maps a transport error to a failure kind.
//
// Deadlines (context, resilience budget, net.Error.Timeout) are KindTimeout.
// Refused, reset, DNS, other dial-level errors and a peer closing the
// connection mid-exchange are KindConnection.
// Cancellation of the run itself is KindCanceled.
// Errors already carrying one of this package's sentinels keep that kind.
// Anything else is KindProtocol.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	switch {
	case errors.Is(err, ErrConfigMissing):
		return KindConfigMissing
	case errors.Is(err, ErrSupervisionUnavailable):
		return KindSupervisionUnavailable
	case errors.Is(err, ErrProtocol):
		return KindProtocol
	case errors.Is(err, ErrTimeout),
		errors.Is(err, resilience.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrConnection):
		return KindConnection
	case errors.Is(err, ErrCanceled),
		errors.Is(err, context.Canceled):
		return KindCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return KindConnection
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindConnection
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnection
	}

	return KindProtocol
}
