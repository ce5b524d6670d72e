// Package checks implements the smoke checks that talk to the service or
// read its configuration.
//
// HealthCheck and CrudCheck issue HTTP calls through Client, which bounds
// every call with a timeout, records a client span and propagates the W3C
// trace context to the service. ConfigCheck only reads a file.
//
// Responses are decoded into explicit record types (RootResponse,
// StatusRecord). A body that does not decode is a protocol failure, never a
// panic or a silent pass.
package checks
