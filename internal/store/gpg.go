// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Trust levels of a public key good enough to encrypt to, as printed by
// gpg --with-colons.
var trustedLevels = map[string]struct{}{
	"m": {}, "f": {}, "u": {}, "w": {}, "s": {},
}

type runFunc func(ctx context.Context, env []string, name string, args ...string) ([]byte, error)

// GPG decrypts pass files and inspects the keyring by running the gpg binary.
type GPG struct {
	binary string
	opts   []string
	env    []string
	run    runFunc
}

// NewGPG uses binary, or gpg2/gpg from PATH when empty. opts are extra
// options for decryption, like PASSWORD_STORE_GPG_OPTS.
func NewGPG(binary string, opts []string) *GPG {
	if binary == "" {
		binary = DefaultGPGBinary()
	}
	return &GPG{
		binary: binary,
		opts:   opts,
		env:    os.Environ(),
		run:    runCommand,
	}
}

func DefaultGPGBinary() string {
	if p, err := exec.LookPath("gpg2"); err == nil {
		return p
	}
	return "gpg"
}

func runCommand(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), fmt.Errorf("%s exited with %d: %s", name, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return stdout.Bytes(), err
	}
	return stdout.Bytes(), nil
}

// Decrypt returns the plaintext of an encrypted pass file.
func (g *GPG) Decrypt(ctx context.Context, file string) ([]byte, error) {
	args := []string{"--quiet", "--yes", "--compress-algo=none", "--no-encrypt-to", "--batch", "--use-agent"}
	args = append(args, g.opts...)
	args = append(args, "--decrypt", file)
	return g.run(ctx, g.env, g.binary, args...)
}

// KeyTrusted reports if every public key matching id has a usable trust level.
func (g *GPG) KeyTrusted(ctx context.Context, id string) (bool, error) {
	out, err := g.run(ctx, g.env, g.binary, "--with-colons", "--batch", "--list-keys", "--", id)
	if err != nil {
		return false, err
	}

	trust := keyTrust(string(out))
	if len(trust) == 0 {
		return false, nil
	}
	for _, t := range trust {
		if _, ok := trustedLevels[t]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// HasSecretKey reports if the keyring holds a secret key for id.
func (g *GPG) HasSecretKey(ctx context.Context, id string) bool {
	_, err := g.run(ctx, g.env, g.binary, "--with-colons", "--batch", "--list-secret-keys", "--", id)
	return err == nil
}

// keyTrust extracts the validity field of every "pub" record.
func keyTrust(colons string) []string {
	var trust []string
	for _, line := range strings.Split(colons, "\n") {
		record := strings.Split(strings.TrimSpace(line), ":")
		if len(record) > 1 && record[0] == "pub" {
			trust = append(trust, record[1])
		}
	}
	return trust
}
