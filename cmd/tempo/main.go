// Command tempo records time spent on activities and reports on it, either
// from the command line or through the HTTP API started by `tempo serve`.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tempo/internal/auth"
	"tempo/internal/cli"
	"tempo/internal/observability"
)

const passwordEnv = "TEMPO_PASSWORD"

// annotationNoGate marks commands that run before any password exists.
const annotationNoGate = "tempo/no-gate"

var (
	errWrongPassword = errors.New("wrong password")
	errNoPassword    = errors.New("no password set, run `tempo password set` first")
)

// session is the per-invocation state shared by every subcommand.
type session struct {
	app      *cli.App
	in       *bufio.Reader
	out      io.Writer
	password string
	closed   bool
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs one command line and returns the process exit code.
func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	s := &session{in: bufio.NewReader(in), out: out}
	rootCmd := newRootCmd(s)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	err := rootCmd.ExecuteContext(ctx)
	if cerr := s.close(ctx); err == nil {
		err = cerr
	}
	if err != nil {
		cli.Fail(errOut, err)
		return 1
	}
	return 0
}

func newRootCmd(s *session) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tempo",
		Short:         "Track time spent on activities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.close(cmd.Context())
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&s.password, "password", "p", "",
		"access password (defaults to $"+passwordEnv+", then a prompt)")

	rootCmd.AddCommand(
		newAddCmd(s),
		newEditCmd(s),
		newDeleteCmd(s),
		newListCmd(s),
		newNamesCmd(s),
		newReportCmd(s),
		newChartCmd(s),
		newStatsCmd(s),
		newExportCmd(s),
		newBackupCmd(s),
		newPasswordCmd(s),
		newSheetsCmd(s),
		newServeCmd(s),
		newWorkerCmd(s),
	)
	return rootCmd
}

// open loads configuration, wires the app, runs the startup backup check and
// then asks for the password unless the command is exempt.
func (s *session) open(cmd *cobra.Command) error {
	if cmd.Name() == "help" {
		return nil
	}
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger, err := cli.SetupLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := cli.Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	s.app = app
	app.RunStartupBackup(ctx)

	if cmd.Annotations[annotationNoGate] == "true" {
		return nil
	}
	return s.gate(ctx)
}

func (s *session) gate(ctx context.Context) error {
	set, err := s.app.Verifier.IsSet(ctx)
	if err != nil {
		return err
	}
	if !set {
		return errNoPassword
	}

	candidate, err := s.resolvePassword("Password: ")
	if err != nil {
		return err
	}
	ok, err := s.app.Verifier.VerifySecret(ctx, candidate)
	if err != nil && !errors.Is(err, auth.ErrSecretNotSet) {
		return err
	}
	if !ok {
		observability.RecordAuthFailure("cli")
		return errWrongPassword
	}
	s.password = candidate
	return nil
}

// resolvePassword takes the --password flag, then the environment, then a prompt.
func (s *session) resolvePassword(label string) (string, error) {
	if s.password != "" {
		return s.password, nil
	}
	if v := os.Getenv(passwordEnv); v != "" {
		return v, nil
	}
	return s.prompt(label)
}

func (s *session) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	line, err := s.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(strings.TrimSuffix(label, ": ")), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *session) close(ctx context.Context) error {
	if s.app == nil || s.closed {
		return nil
	}
	s.closed = true
	return s.app.Close(ctx)
}
