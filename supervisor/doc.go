// Package supervisor implements the service liveness probe.
//
// A Runner returns the status text the process supervisor reports for a
// named program. CommandRunner runs supervisorctl locally; SSHRunner runs
// the same command on a remote host. Probe turns that text into a
// health.Outcome: the program is alive when the text contains the marker
// (RUNNING by default).
//
// supervisorctl exits non-zero for programs that are not running while
// still printing their status, so a runner only reports an error when it
// could not obtain any status text at all.
package supervisor
