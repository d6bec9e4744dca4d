package msg

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alvinbaena/pass-audit/pkg/audit"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var counts = message.NewPrinter(language.English)

// ValidFormat reports if format can be passed to WriteReport.
func ValidFormat(format string) bool {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// Sequence lists the estimator matches as "token(pattern) " pairs.
func Sequence(s audit.Strength) string {
	var b strings.Builder
	for _, t := range s.Sequence {
		b.WriteString(t.Token)
		b.WriteByte('(')
		b.WriteString(t.Pattern)
		b.WriteString(") ")
	}
	return b.String()
}

// StrengthDetails describes the score, guesses and match sequence of s.
func StrengthDetails(s audit.Strength) string {
	guesses := strconv.FormatFloat(s.Guesses, 'f', 0, 64)
	return fmt.Sprintf("Score %d (%s guesses). This estimate is based on the sequence %s", s.Score, guesses, Sequence(s))
}

// Report prints every finding of r, then a summary.
func (p *Printer) Report(r *audit.Report) {
	for _, b := range r.Breached {
		p.Warning("Password breached: %s from %s has been breached %s time(s).", b.Password, b.Path, counts.Sprintf("%d", b.Count))
	}

	if r.StrengthSkipped {
		p.Warning("password strength estimator not present, skipping check")
	}
	for _, w := range r.Weak {
		p.Warning("Weak password detected: %s from %s might be weak. %s", w.Password, w.Path, StrengthDetails(w.Strength))
	}

	for _, group := range r.Duplicated {
		p.Warning("Duplicated passwords detected in %s", strings.Join(group, ", "))
	}

	if r.Clean() {
		p.Success("None of the %d passwords tested are breached, duplicated or weak.", r.Tested)
		return
	}

	p.Error("%d passwords tested and %d breached, %d weak passwords found, %d duplicated passwords found.",
		r.Tested, len(r.Breached), len(r.Weak), len(r.Duplicated))
	p.Message("You should update them with 'pass update'.")
}

// WriteReport encodes r as json or yaml. Text goes through Printer.Report.
func WriteReport(w io.Writer, format string, r *audit.Report) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported output format %q", format)
}
