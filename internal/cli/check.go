package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alvinbaena/pass-audit/internal/msg"
	"github.com/alvinbaena/pass-audit/internal/util"
	"github.com/alvinbaena/pass-audit/pkg/audit"
	"github.com/alvinbaena/pass-audit/pkg/hibp"
	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	checkCmd = &cobra.Command{
		Use:   "check [password]",
		Short: "Check a single password against Pwned Passwords and the strength estimator",
		Args: func(cmd *cobra.Command, args []string) error {
			if !interactive {
				if err := cobra.ExactArgs(1)(cmd, args); err != nil {
					return err
				}
			}

			return nil
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				// Dummy string
				return checkCommand(cmd, "")
			} else {
				return checkCommand(cmd, args[0])
			}
		},
	}
)

func init() {
	checkCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Interactive mode.")
	checkCmd.Flags().BoolVarP(&hashed, "hashed", "s", false, "If the supplied password will be a Hexadecimal SHA1 hash or a plain text string.")

	rootCmd.AddCommand(checkCmd)
}

// passwordChecker checks one input at a time, there is no store involved.
type passwordChecker struct {
	oracle    audit.RangeFetcher
	estimator audit.Estimator
	printer   *msg.Printer
	hashed    bool
}

func checkCommand(cmd *cobra.Command, password string) (err error) {
	util.ApplyCliSettings(verbosity, quiet, profile, pprofPort)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return
	}

	oracle := newOracle(cfg)
	defer oracle.LogStats()

	checker := &passwordChecker{
		oracle:    oracle,
		estimator: newEstimator(cfg),
		printer:   msg.NewStd(verbosity, quiet),
		hashed:    hashed,
	}

	if !interactive {
		return checker.check(cmd.Context(), password)
	}

	var label string
	if hashed {
		label = "SHA1 Hex hash"
	} else {
		label = "Password"
	}

	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if len(input) == 0 {
				return errors.New("please enter a valid password")
			}

			if hashed && !hibp.ValidHash(input) {
				return errors.New("input is not a valid SHA1 Hexadecimal hash")
			}
			return nil
		},
	}

	if !hashed {
		prompt.Mask = '*'
	} else {
		log.Info().Msgf("Flag 'hashed' is set. Please use SHA1 Hashed passwords.")
	}

	log.Info().Msgf("Running interactive session. ^C to exit")
	if err = checker.runInteractiveSession(cmd.Context(), prompt); err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			log.Info().Msgf("Goodbye")
		} else {
			log.Error().Err(err).Msgf("Error during interactive session")
		}
		// No return to avoid the default cobra error message
		return nil
	}

	return
}

func (p *passwordChecker) runInteractiveSession(ctx context.Context, prompt promptui.Prompt) error {
	for {
		result, err := prompt.Run()
		if err != nil {
			return err
		}

		if err = p.check(ctx, result); err != nil {
			log.Error().Err(err).Msg("Error during check")
		}
	}
}

// hash returns the uppercase SHA1 of the input, which may already be a hash.
func (p *passwordChecker) hash(input string) (string, error) {
	if p.hashed {
		if !hibp.ValidHash(input) {
			return "", errors.New("input is not a valid SHA1 Hexadecimal hash")
		}

		// The hash must be uppercase
		return strings.ToUpper(input), nil
	}
	return hibp.Hash(input), nil
}

func (p *passwordChecker) check(ctx context.Context, input string) error {
	hash, err := p.hash(input)
	if err != nil {
		return err
	}

	bucket, err := p.oracle.FetchRange(ctx, hibp.Prefix(hash))
	if err != nil {
		return fmt.Errorf("error checking the password: %w", err)
	}

	if count, found := bucket.Lookup(hash); found {
		p.printer.Warning("Password breached: it has been breached %d time(s).", count)
	} else {
		p.printer.Success("Password not found in the Pwned Passwords breaches.")
	}

	if p.hashed || p.estimator == nil {
		return nil
	}

	strength, err := p.estimator.Estimate(input, nil)
	if err != nil {
		p.printer.Warning("Impossible to estimate the password strength: %s", err)
		return nil
	}
	if strength.Score <= audit.WeakScore {
		p.printer.Warning("Weak password detected: it might be weak. %s", msg.StrengthDetails(strength))
	} else {
		p.printer.Success("Password strength score %d, %s to crack.", strength.Score, strength.CrackTimeDisplay)
	}
	return nil
}
