// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainDecrypter reads the test .gpg files as they are.
type plainDecrypter struct {
	fail map[string]bool
}

func (p plainDecrypter) Decrypt(_ context.Context, file string) ([]byte, error) {
	if p.fail[filepath.Base(file)] {
		return nil, errors.New("gpg: decryption failed: No secret key")
	}
	return os.ReadFile(file)
}

type fakeKeyring struct {
	trusted map[string]bool
	secret  map[string]bool
}

func (k fakeKeyring) KeyTrusted(_ context.Context, id string) (bool, error) {
	return k.trusted[id], nil
}

func (k fakeKeyring) HasSecretKey(_ context.Context, id string) bool {
	return k.secret[id]
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	file := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o700))
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
}

func testStore(t *testing.T, decrypter Decrypter) *PasswordStore {
	t.Helper()
	root := t.TempDir()

	writeFile(t, root, ".gpg-id", "D4C78DB7920E1E27F5416B81CC9DB947CF90C77B\n")
	writeFile(t, root, "Password/pwned/1.gpg", "password\nlogin: john\n")
	writeFile(t, root, "Password/pwned/2.gpg", "123456\n")
	writeFile(t, root, "Password/notpwned.gpg", "7Kf#q!p2LmZ9vX$w\n")
	writeFile(t, root, "Email/WebMail/john.gpg", "Sup3r$ecret\nurl: mail.example.com\n")
	writeFile(t, root, "Email/WebMail/notes.txt", "not an entry")
	writeFile(t, root, ".git/config.gpg", "hidden")
	writeFile(t, root, "Social/.hidden.gpg", "hidden")

	logger := zerolog.Nop()
	keyring := fakeKeyring{
		trusted: map[string]bool{"D4C78DB7920E1E27F5416B81CC9DB947CF90C77B": true},
		secret:  map[string]bool{"D4C78DB7920E1E27F5416B81CC9DB947CF90C77B": true},
	}
	return New(root, Options{Decrypter: decrypter, Keyring: keyring, Logger: &logger})
}

func TestPasswordStore_List(t *testing.T) {
	s := testStore(t, plainDecrypter{})

	cases := []struct {
		root string
		name string
		want []string
	}{
		{"", "", []string{"Email/WebMail/john", "Password/notpwned", "Password/pwned/1", "Password/pwned/2"}},
		{"Password", "*", []string{"Password/notpwned", "Password/pwned/1", "Password/pwned/2"}},
		{"Password/pwned/", "", []string{"Password/pwned/1", "Password/pwned/2"}},
		{"Password/notpwned", "", []string{"Password/notpwned"}},
		{"", "john", []string{"Email/WebMail/john"}},
		{"Password", "[12]", []string{"Password/pwned/1", "Password/pwned/2"}},
	}

	for _, tc := range cases {
		got, err := s.List(tc.root, tc.name)
		require.NoError(t, err, "root %q name %q", tc.root, tc.name)
		assert.Equal(t, tc.want, got, "root %q name %q", tc.root, tc.name)
	}
}

func TestPasswordStore_ListNotInStore(t *testing.T) {
	s := testStore(t, plainDecrypter{})

	for _, root := range []string{"not_a_file", "../etc", "Social"} {
		_, err := s.List(root, "")
		assert.True(t, errors.Is(err, ErrNotInStore), "root %q: %v", root, err)
	}

	_, err := s.List("", "nothing-matches")
	assert.True(t, errors.Is(err, ErrNotInStore))

	_, err = s.List("", "[")
	assert.Error(t, err)
}

func TestPasswordStore_ReadAll(t *testing.T) {
	s := testStore(t, plainDecrypter{fail: map[string]bool{"2.gpg": true}})

	paths, err := s.List("Password", "")
	require.NoError(t, err)

	entries, skipped := s.ReadAll(context.Background(), paths)
	require.Len(t, entries, 2)
	require.Len(t, skipped, 1)

	assert.Equal(t, "Password/notpwned", entries[0].Path)
	assert.Equal(t, "Password/pwned/1", entries[1].Path)
	assert.Equal(t, "password", entries[1].Password())
	login, _ := entries[1].Get("login")
	assert.Equal(t, "john", login)

	assert.True(t, errors.Is(skipped[0], ErrUnreadableEntry))
	var entryErr *EntryError
	require.True(t, errors.As(skipped[0], &entryErr))
	assert.Equal(t, "Password/pwned/2", entryErr.Path)
}

func TestPasswordStore_ShowOutsideStore(t *testing.T) {
	s := testStore(t, plainDecrypter{})

	_, err := s.Show(context.Background(), "../../etc/passwd")
	assert.True(t, errors.Is(err, ErrUnreadableEntry))
	assert.True(t, errors.Is(err, ErrNotInStore))
}

func TestPasswordStore_Check(t *testing.T) {
	s := testStore(t, plainDecrypter{})
	assert.True(t, s.Exist())
	assert.NoError(t, s.Check(context.Background()))

	s.keyring = fakeKeyring{}
	assert.True(t, errors.Is(s.Check(context.Background()), ErrInvalidKeyring))

	require.NoError(t, os.Remove(filepath.Join(s.Dir(), ".gpg-id")))
	assert.False(t, s.Exist())
	assert.True(t, errors.Is(s.Check(context.Background()), ErrNoStore))
}

func TestPasswordStore_IsValidNoSecretKey(t *testing.T) {
	s := testStore(t, plainDecrypter{})
	s.keyring = fakeKeyring{trusted: map[string]bool{"D4C78DB7920E1E27F5416B81CC9DB947CF90C77B": true}}

	valid, err := s.IsValid(context.Background())
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestPasswordStore_Select(t *testing.T) {
	s := testStore(t, plainDecrypter{})
	writeFile(t, s.Dir(), DefaultIgnoreFile, strings.Join([]string{
		"# not audited",
		"Password/pwned",
		"",
	}, "\n"))

	paths, err := s.Select("", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Email/WebMail/john", "Password/notpwned"}, paths)
}

func TestFilterIgnored(t *testing.T) {
	paths := []string{"a/1", "a/2", "b/1", "c"}
	assert.Equal(t, paths, FilterIgnored(paths, nil))
	assert.Equal(t, []string{"b/1", "c"}, FilterIgnored(paths, []string{"a/"}))
	assert.Empty(t, FilterIgnored(paths, []string{"a", "b", "c"}))
}

func TestLoadIgnore_Missing(t *testing.T) {
	prefixes, err := LoadIgnore(filepath.Join(t.TempDir(), "missing"))
	assert.NoError(t, err)
	assert.Empty(t, prefixes)
}
