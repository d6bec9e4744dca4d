// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

package audit

import "strings"

// Well known entry fields. Any other key is kept as is.
const (
	FieldPassword = "password"
	FieldLogin    = "login"
	FieldURL      = "url"
	FieldComments = "comments"
	FieldOTPAuth  = "otpauth"
	FieldGroup    = "group"
	FieldTitle    = "title"
)

// PathSeparator separates the levels of an entry path.
const PathSeparator = "/"

// Entry is a read only snapshot of one record of the secret store. Fields keep
// their insertion order.
type Entry struct {
	Path   string
	keys   []string
	fields map[string]string
}

func NewEntry(path string) *Entry {
	return &Entry{Path: path, fields: make(map[string]string)}
}

// Set adds or replaces a field. Replacing keeps the original position.
func (e *Entry) Set(key, value string) *Entry {
	if e.fields == nil {
		e.fields = make(map[string]string)
	}
	if _, ok := e.fields[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.fields[key] = value
	return e
}

func (e *Entry) Get(key string) (string, bool) {
	v, ok := e.fields[key]
	return v, ok
}

// Password returns the password field, empty when absent.
func (e *Entry) Password() string {
	return e.fields[FieldPassword]
}

func (e *Entry) HasPassword() bool {
	return e.Password() != ""
}

// Keys returns the field names in insertion order.
func (e *Entry) Keys() []string {
	keys := make([]string, len(e.keys))
	copy(keys, e.keys)
	return keys
}

// Values returns the field values in insertion order.
func (e *Entry) Values() []string {
	values := make([]string, 0, len(e.keys))
	for _, k := range e.keys {
		values = append(values, e.fields[k])
	}
	return values
}

func (e *Entry) Len() int {
	return len(e.keys)
}

// Segments splits the path on PathSeparator, ignoring empty levels.
func (e *Entry) Segments() []string {
	var segments []string
	for _, s := range strings.Split(e.Path, PathSeparator) {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// Entries is an ordered batch of entries. Checks report results in this order.
type Entries []*Entry

// withPassword yields entries with a non empty password, skipping repeated paths.
func (es Entries) withPassword() Entries {
	seen := make(map[string]struct{}, len(es))
	out := make(Entries, 0, len(es))
	for _, e := range es {
		if e == nil || !e.HasPassword() {
			continue
		}
		if _, ok := seen[e.Path]; ok {
			continue
		}
		seen[e.Path] = struct{}{}
		out = append(out, e)
	}
	return out
}
