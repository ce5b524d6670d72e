// Package harness wires one smoke-test run: it resolves the endpoint once,
// runs the liveness, health, config and CRUD checks in that order, renders
// the report and returns the process exit code.
//
// Run never fails. Unusable settings, telemetry setup errors and report
// write errors are logged; only the health check decides the exit code.
package harness
