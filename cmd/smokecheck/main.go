// Command smokecheck verifies that the deployed service is running,
// configured and answering, then exits 0 if its health check passed and 1
// otherwise.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/smokecheck/harness"
	"github.com/jonwraymond/smokecheck/health"
	"github.com/jonwraymond/smokecheck/settings"
)

var version = "dev"

func newRootCmd(settingsPath string, stdout, stderr io.Writer, code *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smokecheck",
		Short: "Smoke-test the deployed service",
		Long: "smokecheck checks that the service is running under its supervisor, answers its\n" +
			"health endpoint, has its database configured and serves its status endpoints.\n" +
			"Only the health endpoint decides the exit code.\n\n" +
			"Settings are read from " + settingsPath + " when present.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load(settingsPath)
			*code = harness.Run(cmd.Context(), harness.Options{
				Settings:    s,
				SettingsErr: err,
				Version:     version,
				Stdout:      stdout,
				Stderr:      stderr,
			})
			return nil
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

func execute(ctx context.Context, args []string, settingsPath string, stdout, stderr io.Writer) int {
	code := health.ExitOK
	cmd := newRootCmd(settingsPath, stdout, stderr, &code)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "smokecheck:", err)
		return health.ExitFailed
	}
	return code
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], settings.DefaultPath, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
