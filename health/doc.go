// Package health is the execution and aggregation engine of the smoke test.
//
// A Checker performs one bounded verification and returns an Outcome: a
// success flag, a failure Kind, a human-readable detail and, optionally, the
// raw response payload. Checkers never return errors; every failure is
// converted into an Outcome at the checker's boundary.
//
// # Failure kinds
//
// Kind is the error taxonomy shared by all checks: KindConfigMissing,
// KindConnection, KindTimeout, KindProtocol and KindSupervisionUnavailable,
// plus KindCanceled when the run itself is interrupted.
// Classify maps transport errors onto it, so an HTTP check can tell a
// refused connection from a timeout from a malformed reply.
//
// # Aggregation
//
// An Aggregator runs its checkers one after another, in registration order,
// regardless of earlier outcomes:
//
//	agg := health.NewAggregator(liveness, rootHealth, config, crud)
//	report := agg.Run(ctx)
//	_ = health.Render(os.Stdout, report)
//	os.Exit(report.ExitCode())
//
// Overall success follows GateCheck (the health check) alone. The other
// checks are advisory diagnostics: they are always reported but never change
// the verdict or the exit code.
package health
