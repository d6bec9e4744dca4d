// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alvinbaena/pass-audit/internal/config"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "pass-audit [pass-names] [OPTIONS]",
		Short: "Audit a password store for breached, weak and duplicated passwords",
		Long: "A pass extension for auditing your password repository. It supports safe breached password " +
			"detection from haveibeenpwned.com using the K-anonymity method, duplicated passwords, and password " +
			"strength estimation using zxcvbn. If pass-names is empty the whole store is audited.",
		Version:       config.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) > 0 {
				root = args[0]
			}
			return auditCommand(cmd, root)
		},
	}
)

//goland:noinspection GoUnhandledErrorResult
func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Set verbosity level, can be used more than once")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Be quiet")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file (default $XDG_CONFIG_HOME/pass-audit/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&profile, "profile", false, "Enable the profiling server (pprof) when running commands")
	rootCmd.PersistentFlags().Uint16Var(&pprofPort, "profile-port", 6060, "The port to use for the pprof server. Only used if the profile flag is set")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Timeout of every request to the Pwned Passwords API (default from PASS_AUDIT_TIMEOUT, 10s)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.Flags().BoolP("version", "V", false, "Show the program version and exit")
	rootCmd.Flags().StringVarP(&name, "name", "n", "*", "Check only passwords with this filename")
	rootCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format of the report: text, json or yaml")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of concurrent requests to the Pwned Passwords API (default from PASS_AUDIT_WORKERS)")
	rootCmd.SetVersionTemplate("pass-audit {{.Version}}\n")
}

// Execute runs the command line. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
