// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/alvinbaena/pass-audit/pkg/audit"
	"github.com/jfcg/sorty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoStore         = errors.New("no password store to audit")
	ErrInvalidKeyring  = errors.New("invalid user ID, password access aborted")
	ErrNotInStore      = errors.New("not in the password store")
	ErrUnreadableEntry = errors.New("impossible to read entry from the password store")
)

// EntryError is returned for a single entry that could not be read.
type EntryError struct {
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("impossible to read %s from the password store: %s", e.Path, e.Err)
}

func (e *EntryError) Unwrap() []error {
	return []error{ErrUnreadableEntry, e.Err}
}

type Decrypter interface {
	Decrypt(ctx context.Context, file string) ([]byte, error)
}

type Keyring interface {
	KeyTrusted(ctx context.Context, id string) (bool, error)
	HasSecretKey(ctx context.Context, id string) bool
}

type Options struct {
	// Decrypter and Keyring default to the gpg binary.
	Decrypter Decrypter
	Keyring   Keyring
	Logger    *zerolog.Logger
}

// PasswordStore reads a pass(1) store: a directory tree of gpg encrypted
// files, one per entry, with the key ids in .gpg-id.
type PasswordStore struct {
	dir       string
	decrypter Decrypter
	keyring   Keyring
	logger    zerolog.Logger
}

func New(dir string, opts Options) *PasswordStore {
	var gpg *GPG
	if opts.Decrypter == nil || opts.Keyring == nil {
		gpg = NewGPG("", nil)
	}
	if opts.Decrypter == nil {
		opts.Decrypter = gpg
	}
	if opts.Keyring == nil {
		opts.Keyring = gpg
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &PasswordStore{
		dir:       filepath.Clean(dir),
		decrypter: opts.Decrypter,
		keyring:   opts.Keyring,
		logger:    logger,
	}
}

func (s *PasswordStore) Dir() string {
	return s.dir
}

// Exist reports if the store is initialized.
func (s *PasswordStore) Exist() bool {
	info, err := os.Stat(filepath.Join(s.dir, ".gpg-id"))
	return err == nil && !info.IsDir()
}

// IsValid makes sure the keyring can be used: all the store keys are
// trusted and at least one secret key is available.
func (s *PasswordStore) IsValid(ctx context.Context) (bool, error) {
	ids, err := s.gpgIDs()
	if err != nil {
		return false, err
	}
	if len(ids) == 0 {
		return false, nil
	}

	for _, id := range ids {
		trusted, err := s.keyring.KeyTrusted(ctx, id)
		if err != nil {
			s.logger.Debug().Err(err).Msgf("error listing key %s", id)
			return false, nil
		}
		if !trusted {
			s.logger.Debug().Msgf("key %s is not trusted", id)
			return false, nil
		}
	}

	for _, id := range ids {
		if s.keyring.HasSecretKey(ctx, id) {
			return true, nil
		}
	}
	return false, nil
}

// Check fails with ErrNoStore or ErrInvalidKeyring when the store cannot be audited.
func (s *PasswordStore) Check(ctx context.Context) error {
	if !s.Exist() {
		return ErrNoStore
	}

	valid, err := s.IsValid(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidKeyring, err)
	}
	if !valid {
		return ErrInvalidKeyring
	}
	return nil
}

func (s *PasswordStore) gpgIDs() ([]string, error) {
	f, err := os.Open(filepath.Join(s.dir, ".gpg-id"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, scanner.Err()
}

// resolve maps an entry path to its location in the store, refusing paths
// that would leave it.
func (s *PasswordStore) resolve(entryPath string) (string, string, error) {
	slashed := filepath.ToSlash(entryPath)
	for _, segment := range strings.Split(slashed, "/") {
		if segment == ".." {
			return "", "", fmt.Errorf("%s is %w", entryPath, ErrNotInStore)
		}
	}

	clean := strings.Trim(path.Clean("/"+slashed), "/")
	return clean, filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

// List returns the entries under root whose name matches the glob pattern
// name, sorted. Hidden files and directories are skipped. When root is an
// entry itself it is returned alone.
func (s *PasswordStore) List(root, name string) ([]string, error) {
	if name == "" {
		name = "*"
	}
	if _, err := filepath.Match(name, ""); err != nil {
		return nil, fmt.Errorf("invalid name filter %q: %w", name, err)
	}

	clean, base, err := s.resolve(root)
	if err != nil {
		return nil, err
	}

	if clean != "" {
		if info, err := os.Stat(base + ".gpg"); err == nil && !info.IsDir() {
			return []string{clean}, nil
		}
	}

	var paths []string
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != base && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(p) != ".gpg" {
			return nil
		}

		title := strings.TrimSuffix(d.Name(), ".gpg")
		if ok, _ := filepath.Match(name, title); !ok {
			return nil
		}

		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(strings.TrimSuffix(rel, ".gpg")))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(paths) == 0) {
		return nil, fmt.Errorf("%s is %w", root, ErrNotInStore)
	}
	if err != nil {
		return nil, err
	}

	sorty.SortSlice(paths)
	return paths, nil
}

// Show decrypts and parses one entry.
func (s *PasswordStore) Show(ctx context.Context, entryPath string) (*audit.Entry, error) {
	clean, file, err := s.resolve(entryPath)
	if err != nil {
		return nil, &EntryError{Path: entryPath, Err: err}
	}

	content, err := s.decrypter.Decrypt(ctx, file+".gpg")
	if err != nil {
		return nil, &EntryError{Path: clean, Err: err}
	}
	return ParseEntry(clean, content), nil
}

// ReadAll shows every path. Unreadable entries are skipped and returned as
// errors, they do not stop the read.
func (s *PasswordStore) ReadAll(ctx context.Context, paths []string) (audit.Entries, []error) {
	s.logger.Debug().Msg("reading the password store")

	entries := make(audit.Entries, 0, len(paths))
	var skipped []error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			skipped = append(skipped, &EntryError{Path: p, Err: err})
			continue
		}

		s.logger.Debug().Msgf("reading %s", p)
		e, err := s.Show(ctx, p)
		if err != nil {
			s.logger.Debug().Err(err).Msgf("skipping %s", p)
			skipped = append(skipped, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, skipped
}

// IgnoreFile is the location of the ignore file inside the store.
func (s *PasswordStore) IgnoreFile(name string) string {
	if name == "" {
		name = DefaultIgnoreFile
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// Select lists the entries to audit: List filtered by the ignore file.
func (s *PasswordStore) Select(root, name, ignoreFile string) ([]string, error) {
	paths, err := s.List(root, name)
	if err != nil {
		return nil, err
	}

	prefixes, err := LoadIgnore(s.IgnoreFile(ignoreFile))
	if err != nil {
		return nil, fmt.Errorf("error reading ignore file: %w", err)
	}
	if len(prefixes) > 0 {
		s.logger.Debug().Msgf("ignoring paths starting with %s", strings.Join(prefixes, ", "))
	}
	return FilterIgnored(paths, prefixes), nil
}
