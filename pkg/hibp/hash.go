// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
)

const (
	// PrefixLength is the number of hex characters sent to the range API, 20 bits of the hash.
	PrefixLength = 5
	// HashLength is the length of a hex encoded SHA1 hash.
	HashLength = 40
)

var (
	prefixRegexp = regexp.MustCompile("^[A-F\\d]{5}$")
	suffixRegexp = regexp.MustCompile("^[a-fA-F\\d]{35}$")
	hashRegexp   = regexp.MustCompile("^[a-fA-F\\d]{40}$")
)

// Hash returns the uppercase hex SHA1 digest of the password bytes.
func Hash(password string) string {
	sum := sha1.Sum([]byte(password))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Prefix returns the part of the hash that is sent to the range API. Only these
// characters ever leave the machine, the rest of the hash stays local.
func Prefix(hash string) string {
	return hash[:PrefixLength]
}

// Suffix returns the 35 characters that are matched locally.
func Suffix(hash string) string {
	return hash[PrefixLength:]
}

func ValidPrefix(prefix string) bool {
	return prefixRegexp.MatchString(prefix)
}

// ValidHash reports if s looks like a hex SHA1 hash, in either case.
func ValidHash(s string) bool {
	return hashRegexp.MatchString(s)
}
