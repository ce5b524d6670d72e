package supervisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// DefaultCommand is the status query; the service name is appended.
var DefaultCommand = []string{"sudo", "supervisorctl", "status"}

// Runner queries the supervisor for the status of one program.
//
// Contract:
//   - Status returns the supervisor's status text, even when the program is
//     not running.
//   - Errors wrap ErrUnavailable, or ctx.Err() when ctx ended first.
type Runner interface {
	Status(ctx context.Context, service string) (string, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, service string) (string, error)

// Status calls f.
func (f RunnerFunc) Status(ctx context.Context, service string) (string, error) {
	return f(ctx, service)
}

// CommandRunner runs the status command as a local process.
type CommandRunner struct {
	// Command is the argv prefix. Defaults to DefaultCommand.
	Command []string
}

// NewCommandRunner creates a runner for the given argv prefix.
func NewCommandRunner(command ...string) *CommandRunner {
	return &CommandRunner{Command: command}
}

func (r *CommandRunner) argv(service string) []string {
	command := r.Command
	if len(command) == 0 {
		command = DefaultCommand
	}
	argv := make([]string, 0, len(command)+1)
	argv = append(argv, command...)
	return append(argv, service)
}

// Status runs the command and returns its standard output.
func (r *CommandRunner) Status(ctx context.Context, service string) (string, error) {
	argv := r.argv(service)
	if argv[0] == "" {
		return "", ErrEmptyCommand
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	return statusText(stdout.String(), stderr.String(), err, strings.Join(argv, " "))
}

// statusText applies the exit rules shared by all runners: output wins over
// a non-zero exit, and no output at all is unavailability.
func statusText(stdout, stderr string, err error, command string) (string, error) {
	text := strings.TrimSpace(stdout)
	if err == nil {
		return text, nil
	}

	if text != "" && isExitError(err) {
		return text, nil
	}

	if msg := strings.TrimSpace(stderr); msg != "" {
		return "", fmt.Errorf("%w: %s: %s", ErrUnavailable, command, msg)
	}
	return "", fmt.Errorf("%w: %s: %w", ErrUnavailable, command, err)
}

type exitStatuser interface {
	ExitStatus() int
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return true
	}
	var remote exitStatuser
	return errors.As(err, &remote)
}

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9_./:=@%+,-]+$`)

// shellJoin quotes argv for a POSIX shell.
func shellJoin(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		if shellSafe.MatchString(arg) {
			quoted[i] = arg
			continue
		}
		quoted[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}
