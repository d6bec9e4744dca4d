package store

import (
	"path"
	"strings"
	"unicode/utf8"

	"github.com/alvinbaena/pass-audit/pkg/audit"
)

// FieldData holds the raw content of entries that are not valid UTF-8.
const FieldData = "data"

// ParseEntry reads a decrypted pass file. The first line is the password
// unless it is a "key: value" line. Following "key: value" lines become
// fields, otpauth:// URIs go to otpauth and any other line is appended to
// comments.
func ParseEntry(entryPath string, content []byte) *audit.Entry {
	e := audit.NewEntry(entryPath)

	group := path.Dir(entryPath)
	if group == "." || group == "/" {
		group = ""
	}
	e.Set(audit.FieldGroup, group)
	e.Set(audit.FieldTitle, path.Base(entryPath))

	if !utf8.Valid(content) {
		e.Set(FieldData, string(content))
		return e
	}

	text := strings.TrimSuffix(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	if text == "" {
		return e
	}
	lines := strings.Split(text, "\n")

	first := lines[0]
	// A password may well contain ": ", only plain keys are taken on the first line.
	if key, value, ok := keyValue(first); ok && !strings.ContainsAny(key, " \t") {
		e.Set(key, value)
	} else {
		e.Set(audit.FieldPassword, first)
	}

	var comments []string
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "otpauth://") {
			e.Set(audit.FieldOTPAuth, line)
		} else if key, value, ok := keyValue(line); ok {
			if key == audit.FieldComments {
				comments = append(comments, value)
				continue
			}
			e.Set(key, value)
		} else if strings.TrimSpace(line) != "" {
			comments = append(comments, line)
		}
	}

	if len(comments) > 0 {
		e.Set(audit.FieldComments, strings.Join(comments, "\n"))
	}
	return e
}

func keyValue(line string) (string, string, bool) {
	key, value, ok := strings.Cut(line, ": ")
	if !ok || strings.TrimSpace(key) == "" {
		return "", "", false
	}
	return key, value, true
}
