// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

// Package audit checks a batch of password store entries for breached, weak
// and reused passwords.
package audit

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Auditor runs the three checks over the same entries and assembles the Report.
type Auditor struct {
	breach     *BreachChecker
	strength   *StrengthChecker
	duplicates *DuplicateChecker
	logger     zerolog.Logger
}

// New creates an Auditor. estimator may be nil, the strength check is then
// reported as skipped.
func New(fetcher RangeFetcher, estimator Estimator, opts ...Option) *Auditor {
	o := newOptions(opts)
	return &Auditor{
		breach:     NewBreachChecker(fetcher, opts...),
		strength:   NewStrengthChecker(estimator, opts...),
		duplicates: NewDuplicateChecker(opts...),
		logger:     o.logger,
	}
}

// Run audits entries. A failed breach check fails the run: a report claiming
// no breach while buckets are missing would be wrong.
func (a *Auditor) Run(ctx context.Context, entries Entries) (*Report, error) {
	report := &Report{
		ID:     uuid.NewString(),
		Tested: len(entries),
	}
	logger := a.logger.With().Str("audit", report.ID).Logger()

	logger.Debug().Msg("checking for breached passwords")
	breached, err := a.breach.Check(ctx, entries)
	if err != nil {
		return nil, err
	}
	report.Breached = breached

	logger.Debug().Msg("checking for weak passwords")
	weak, err := a.strength.Check(entries)
	switch {
	case errors.Is(err, ErrEstimatorUnavailable):
		logger.Warn().Msg("password strength estimator not present, skipping check")
		report.StrengthSkipped = true
	case err != nil:
		return nil, err
	default:
		report.Weak = weak
	}

	logger.Debug().Msg("checking for duplicated passwords")
	report.Duplicated = a.duplicates.Check(entries)

	logger.Debug().
		Int("breached", len(report.Breached)).
		Int("weak", len(report.Weak)).
		Int("duplicated", len(report.Duplicated)).
		Msgf("audited %d entries", report.Tested)
	return report, nil
}
