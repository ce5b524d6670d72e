// Package endpoint derives the base URL of the service under test.
//
// The address is read from a dotenv-style file (KEY=value lines) written for
// the service's clients. When the file or the key is missing, a fixed
// loopback address is used instead, so resolution never fails.
package endpoint
