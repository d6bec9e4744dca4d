package store

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"strings"
)

// DefaultIgnoreFile is looked up at the root of the store.
const DefaultIgnoreFile = ".pass-audit-ignore"

// LoadIgnore reads path prefixes to exclude from the audit, one per line.
// Empty lines and lines starting with # are skipped. A missing file is not an error.
func LoadIgnore(file string) ([]string, error) {
	f, err := os.Open(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var prefixes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prefixes = append(prefixes, line)
	}
	return prefixes, scanner.Err()
}

// FilterIgnored drops the paths starting with any of the prefixes, keeping order.
func FilterIgnored(paths []string, prefixes []string) []string {
	if len(prefixes) == 0 {
		return paths
	}

	kept := make([]string, 0, len(paths))
outer:
	for _, p := range paths {
		for _, prefix := range prefixes {
			if strings.HasPrefix(p, prefix) {
				continue outer
			}
		}
		kept = append(kept, p)
	}
	return kept
}
