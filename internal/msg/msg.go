// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

// Package msg prints the command line output: progress, warnings, errors and
// the audit report.
package msg

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	magenta     = color.New(color.FgMagenta)
	boldMagenta = color.New(color.FgHiMagenta, color.Bold)
	green       = color.New(color.FgGreen)
	boldGreen   = color.New(color.FgHiGreen, color.Bold)
	yellow      = color.New(color.FgYellow)
	boldYellow  = color.New(color.FgHiYellow, color.Bold)
	boldRed     = color.New(color.FgHiRed, color.Bold)
	bold        = color.New(color.Bold)
)

// Printer writes to out, errors go to err. Quiet silences everything but errors.
type Printer struct {
	out       io.Writer
	err       io.Writer
	verbosity int
	quiet     bool
}

func New(out, err io.Writer, verbosity int, quiet bool) *Printer {
	if quiet {
		verbosity = 0
	}
	return &Printer{out: out, err: err, verbosity: verbosity, quiet: quiet}
}

// NewStd prints to stdout and stderr.
func NewStd(verbosity int, quiet bool) *Printer {
	return New(color.Output, color.Error, verbosity, quiet)
}

func (p *Printer) Verbose(format string, a ...interface{}) {
	if p.verbosity >= 1 {
		_, _ = fmt.Fprintf(p.out, "%s%s\n", boldMagenta.Sprint("  .  "), magenta.Sprintf(format, a...))
	}
}

func (p *Printer) Debug(format string, a ...interface{}) {
	if p.verbosity >= 3 {
		p.Verbose(format, a...)
	}
}

func (p *Printer) Message(format string, a ...interface{}) {
	if !p.quiet {
		_, _ = fmt.Fprintf(p.out, "%s%s\n", bold.Sprint("  .  "), fmt.Sprintf(format, a...))
	}
}

func (p *Printer) Success(format string, a ...interface{}) {
	if !p.quiet {
		_, _ = fmt.Fprintf(p.out, "%s%s\n", boldGreen.Sprint(" (*) "), green.Sprintf(format, a...))
	}
}

func (p *Printer) Warning(format string, a ...interface{}) {
	if !p.quiet {
		_, _ = fmt.Fprintf(p.out, "%s%s\n", boldYellow.Sprint("  w  "), yellow.Sprintf(format, a...))
	}
}

// Error is printed even when quiet.
func (p *Printer) Error(format string, a ...interface{}) {
	_, _ = fmt.Fprintf(p.err, "%s%s%s\n", boldRed.Sprint(" [x] "), bold.Sprint("Error: "), fmt.Sprintf(format, a...))
}

// Die prints the error and exits with status 1.
func (p *Printer) Die(format string, a ...interface{}) {
	p.Error(format, a...)
	os.Exit(1)
}
