// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/alvinbaena/pass-audit/internal/config"
	"github.com/alvinbaena/pass-audit/internal/msg"
	"github.com/alvinbaena/pass-audit/internal/store"
	"github.com/alvinbaena/pass-audit/internal/util"
	"github.com/alvinbaena/pass-audit/pkg/audit"
	"github.com/alvinbaena/pass-audit/pkg/hibp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// loadConfig reads the configuration and applies the command line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil && !errors.Is(err, config.ErrInvalid) {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}
	return cfg, cfg.Validate()
}

func newOracle(cfg config.Config) *hibp.Client {
	return hibp.NewClient(hibp.Options{
		BaseURL:   cfg.HibpURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		RetryMax:  cfg.Retries,
		Padding:   cfg.Padding,
	})
}

// newEstimator is nil when the strength check is turned off.
func newEstimator(cfg config.Config) audit.Estimator {
	if !cfg.Strength {
		return nil
	}
	return audit.NewZxcvbnEstimator()
}

func newStore(cfg config.Config) *store.PasswordStore {
	gpg := store.NewGPG(cfg.GPGBinary, cfg.GPGOptions())
	return store.New(cfg.StoreDir, store.Options{Decrypter: gpg, Keyring: gpg})
}

func newAuditor(cfg config.Config, oracle audit.RangeFetcher) *audit.Auditor {
	return audit.New(oracle, newEstimator(cfg),
		audit.WithWorkers(cfg.Workers),
		audit.WithRateLimit(cfg.Rate),
	)
}

func auditCommand(cmd *cobra.Command, root string) error {
	util.ApplyCliSettings(verbosity, quiet, profile, pprofPort)
	printer := msg.NewStd(verbosity, quiet)
	ctx := cmd.Context()

	if !msg.ValidFormat(format) {
		return fmt.Errorf("unsupported output format %q, use text, json or yaml", format)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if root == "" {
		printer.Message("Auditing whole store - this may take some time")
	}

	ps := newStore(cfg)
	if err = ps.Check(ctx); err != nil {
		return err
	}

	paths, err := ps.Select(root, name, cfg.IgnoreFile)
	if err != nil {
		return err
	}

	printer.Verbose("Reading the password store")
	entries, skipped := ps.ReadAll(ctx, paths)
	for _, err := range skipped {
		var entryErr *store.EntryError
		if errors.As(err, &entryErr) {
			printer.Warning("Impossible to read %s from the password store: %s", entryErr.Path, entryErr.Err)
		} else {
			printer.Warning("%s", err)
		}
	}

	oracle := newOracle(cfg)
	defer oracle.LogStats()

	printer.Verbose("Checking for breached, weak and duplicated passwords")
	report, err := newAuditor(cfg, oracle).Run(ctx, entries)
	if err != nil {
		return err
	}
	log.Debug().Str("audit", report.ID).Msgf("audit finished")

	if format == msg.FormatText {
		printer.Report(report)
		return nil
	}
	return msg.WriteReport(os.Stdout, format, report)
}
