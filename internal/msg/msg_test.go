package msg

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/alvinbaena/pass-audit/pkg/audit"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func newTestPrinter(verbosity int, quiet bool) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return New(&out, &errOut, verbosity, quiet), &out, &errOut
}

func TestPrinter_Levels(t *testing.T) {
	p, out, errOut := newTestPrinter(0, false)
	p.Verbose("hidden")
	p.Message("message")
	p.Success("success")
	p.Warning("warning")
	p.Error("error")

	assert.Equal(t, "  .  message\n (*) success\n  w  warning\n", out.String())
	assert.Equal(t, " [x] Error: error\n", errOut.String())

	p, out, _ = newTestPrinter(1, false)
	p.Verbose("reading %s", "Email/john")
	p.Debug("hidden")
	assert.Equal(t, "  .  reading Email/john\n", out.String())

	p, out, _ = newTestPrinter(3, false)
	p.Debug("debug")
	assert.Equal(t, "  .  debug\n", out.String())
}

func TestPrinter_Quiet(t *testing.T) {
	p, out, errOut := newTestPrinter(3, true)
	p.Verbose("verbose")
	p.Debug("debug")
	p.Message("message")
	p.Success("success")
	p.Warning("warning")
	p.Error("error")

	assert.Empty(t, out.String())
	assert.Equal(t, " [x] Error: error\n", errOut.String())
}

func testReport() *audit.Report {
	return &audit.Report{
		ID:     "8d6e7c1a-5c8e-4a53-9e43-1b6c2e0f7a11",
		Tested: 4,
		Breached: []audit.BreachResult{
			{Path: "Password/pwned/5", Password: "password", Count: 3730471},
		},
		Weak: []audit.WeaknessResult{
			{
				Path:     "Password/pwned/5",
				Password: "password",
				Strength: audit.Strength{
					Score:    0,
					Guesses:  3,
					Sequence: []audit.Token{{Token: "password", Pattern: "dictionary"}},
				},
			},
		},
		Duplicated: []audit.DuplicateGroup{{"Password/pwned/5", "Email/john"}},
	}
}

func TestPrinter_Report(t *testing.T) {
	p, out, errOut := newTestPrinter(0, false)
	p.Report(testReport())

	want := []string{
		"  w  Password breached: password from Password/pwned/5 has been breached 3,730,471 time(s).",
		"  w  Weak password detected: password from Password/pwned/5 might be weak. " +
			"Score 0 (3 guesses). This estimate is based on the sequence password(dictionary) ",
		"  w  Duplicated passwords detected in Password/pwned/5, Email/john",
		"  .  You should update them with 'pass update'.",
		"",
	}
	assert.Equal(t, strings.Join(want, "\n"), out.String())
	assert.Equal(t, " [x] Error: 4 passwords tested and 1 breached, 1 weak passwords found, "+
		"1 duplicated passwords found.\n", errOut.String())
}

func TestPrinter_ReportClean(t *testing.T) {
	p, out, errOut := newTestPrinter(0, false)
	p.Report(&audit.Report{Tested: 12, StrengthSkipped: true})

	assert.Equal(t, "  w  password strength estimator not present, skipping check\n"+
		" (*) None of the 12 passwords tested are breached, duplicated or weak.\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestWriteReport(t *testing.T) {
	report := testReport()

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, FormatJSON, report))
	var fromJSON audit.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Equal(t, report.ID, fromJSON.ID)
	assert.Equal(t, report.Breached, fromJSON.Breached)
	assert.Contains(t, buf.String(), `"strengthSkipped": false`)

	buf.Reset()
	require.NoError(t, WriteReport(&buf, FormatYAML, report))
	var fromYAML audit.Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, report.Duplicated, fromYAML.Duplicated)
	assert.Contains(t, buf.String(), "count: 3730471")

	assert.Error(t, WriteReport(&buf, "xml", report))
	assert.True(t, ValidFormat(FormatText))
	assert.False(t, ValidFormat("xml"))
}
