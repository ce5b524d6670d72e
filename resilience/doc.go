// Package resilience bounds blocking calls made by the smoke checks.
//
// Every outbound call (HTTP request, supervisor query) runs under a Timeout.
// A call that exceeds its budget returns a *TimeoutError, which matches
// ErrTimeout, so checks can report it as an ordinary failure instead of
// hanging the run.
//
//	err := resilience.ExecuteWithTimeout(ctx, 10*time.Second, func(ctx context.Context) error {
//	    return callService(ctx)
//	})
//	if errors.Is(err, resilience.ErrTimeout) {
//	    // report a timeout outcome
//	}
//
// Retries and backoff are not provided; a failed call is reported once.
package resilience
