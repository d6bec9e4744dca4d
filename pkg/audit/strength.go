// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

package audit

import (
	"errors"
	"fmt"
	"math"

	"github.com/nbutton23/zxcvbn-go"
	"github.com/rs/zerolog"
)

// WeakScore is the highest estimator score still reported as weak. Scores 3
// and 4 are acceptable.
const WeakScore = 2

var (
	// ErrEstimatorUnavailable means the strength check did not run at all.
	ErrEstimatorUnavailable = errors.New("password strength estimator not available")
	// ErrEstimateFailed is returned by an Estimator that could not score one password.
	ErrEstimateFailed = errors.New("password strength estimation failed")
)

// Estimator scores how guessable a password is. userInputs are strings an
// attacker is assumed to know, they are treated as dictionary words.
type Estimator interface {
	Estimate(password string, userInputs []string) (Strength, error)
}

type zxcvbnEstimator struct{}

// NewZxcvbnEstimator returns the zxcvbn based Estimator.
func NewZxcvbnEstimator() Estimator {
	return zxcvbnEstimator{}
}

func (zxcvbnEstimator) Estimate(password string, userInputs []string) (s Strength, err error) {
	// zxcvbn-go panics on some inputs, it must not take the batch down.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrEstimateFailed, r)
		}
	}()

	res := zxcvbn.PasswordStrength(password, userInputs)

	s = Strength{
		Score:            res.Score,
		Entropy:          res.Entropy,
		Guesses:          math.Round(math.Pow(2, res.Entropy)),
		CrackTime:        res.CrackTime,
		CrackTimeDisplay: res.CrackTimeDisplay,
		Sequence:         make([]Token, 0, len(res.MatchSequence)),
	}
	for _, m := range res.MatchSequence {
		s.Sequence = append(s.Sequence, Token{Token: m.Token, Pattern: m.Pattern})
	}
	return s, nil
}

// StrengthChecker reports passwords the estimator scores at or below WeakScore.
type StrengthChecker struct {
	estimator Estimator
	logger    zerolog.Logger
}

// NewStrengthChecker builds the checker. A nil estimator is allowed and makes
// Check return ErrEstimatorUnavailable.
func NewStrengthChecker(estimator Estimator, opts ...Option) *StrengthChecker {
	o := newOptions(opts)
	return &StrengthChecker{estimator: estimator, logger: o.logger}
}

func (s *StrengthChecker) Available() bool {
	return s.estimator != nil
}

// Check returns the weak entries in input order. Entries the estimator fails
// on are logged and skipped.
func (s *StrengthChecker) Check(entries Entries) ([]WeaknessResult, error) {
	if s.estimator == nil {
		return nil, ErrEstimatorUnavailable
	}

	var weak []WeaknessResult
	for _, e := range entries.withPassword() {
		s.logger.Debug().Msgf("checking %s", e.Path)
		password := e.Password()

		strength, err := s.estimator.Estimate(password, UserInputs(e))
		if err != nil {
			s.logger.Warn().Err(err).Msgf("could not estimate the strength of %s, skipping", e.Path)
			continue
		}

		if strength.Score <= WeakScore {
			weak = append(weak, WeaknessResult{Path: e.Path, Password: password, Strength: strength})
		}
	}

	return weak, nil
}

// UserInputs is the context an attacker could know about the entry: every
// field value and every path level. The password itself is never part of it.
func UserInputs(e *Entry) []string {
	password := e.Password()
	values := append(e.Values(), e.Segments()...)

	inputs := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || v == password {
			continue
		}
		inputs = append(inputs, v)
	}
	return inputs
}
