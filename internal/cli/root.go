// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.


package cli

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-shamir/pkg/logging"
	"github.com/jeremyhahn/go-shamir/pkg/metrics"
)

// app carries the state resolved before a subcommand runs.
type app struct {
	v       *viper.Viper
	cfg     *Config
	logger  *logging.Logger
	printer *Printer
}

// NewRootCmd builds the shamir command tree. Each call returns an
// independent tree with its own configuration.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: viper.New()}
	defaults := NewConfig()

	rootCmd := &cobra.Command{
		Use:   "shamir",
		Short: "shamir - split secrets into threshold shares",
		Long: `shamir splits a secret file into n shares using Shamir's secret
sharing over GF(2^8). Any t of the shares reconstruct the secret; fewer
than t reveal nothing about it.

Shares carry no authentication. Store them on separate, trusted media.

Configuration is read from flags, then SHAMIR_* environment variables,
then $HOME/.shamir.yaml (or --config), then built-in defaults.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default is $HOME/.shamir.yaml)")
	pf.StringP("output", "o", defaults.OutputFormat, "output format (text, json)")
	pf.String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	pf.String("log-format", defaults.LogFormat, "log format (text, json)")
	pf.String("metrics-file", "", "write Prometheus metrics to this file after the command")
	pf.String("store", defaults.Store, "share store (file, vault)")
	pf.String("rng", defaults.RNG, "coefficient source (auto, software, tpm2, pkcs11)")
	pf.BoolP("verbose", "v", false, "verbose output (same as --log-level debug)")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	rootCmd.AddCommand(newShardCmd(a))
	rootCmd.AddCommand(newCombineCmd(a))
	rootCmd.AddCommand(newInspectCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))
	return rootCmd, a
}

// setup resolves configuration and builds the logger and printer.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(a.v, cmd.Flags())
	if err != nil {
		return err
	}
	if a.v.GetBool("verbose") {
		cfg.LogLevel = "debug"
	}

	logger, err := cfg.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return usageErrorf("%v", err)
	}

	a.cfg = cfg
	a.logger = logger.With("command", cmd.Name())
	a.printer = NewPrinter(cfg.OutputFormat, cmd.OutOrStdout())
	if cfg.ConfigFile != "" {
		a.logger.Debug("loaded config file", "path", cfg.ConfigFile)
	}
	return nil
}

// record reports a finished operation to the metrics registry and writes
// the textfile when one is configured.
func (a *app) record(op string, start time.Time, err error) {
	if a.cfg == nil {
		return
	}
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		metrics.RecordError(op, a.cfg.Store, errorType(err))
	}
	metrics.RecordOperation(op, a.cfg.Store, status, time.Since(start).Seconds())

	if a.cfg.MetricsFile == "" {
		return
	}
	metrics.CollectOnce()
	if werr := metrics.WriteTextfile(a.cfg.MetricsFile); werr != nil {
		a.logger.Warn("failed to write metrics", "path", a.cfg.MetricsFile, "error", werr)
	}
}

// Run executes the CLI with args and returns the process exit code. Errors
// are printed to stderr in the configured output format.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd, a := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitOK
	}

	format := string(OutputFormatText)
	if a.cfg != nil {
		format = a.cfg.OutputFormat
	}
	_ = NewPrinter(format, stderr).PrintError(err) // best-effort
	return ExitCode(err)
}

// Execute runs the CLI against the process streams.
func Execute() int {
	return Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}
