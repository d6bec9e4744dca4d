// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformedRange is returned when a line of a range response is not "{suffix}:{count}".
var ErrMalformedRange = errors.New("malformed range response")

// Bucket holds every known breached hash sharing a prefix. Hashes and Counts
// are index aligned and always have the same length.
type Bucket struct {
	Prefix string
	Hashes []string
	Counts []int64

	index map[string]int
}

func newBucket(prefix string, size int) *Bucket {
	return &Bucket{
		Prefix: prefix,
		Hashes: make([]string, 0, size),
		Counts: make([]int64, 0, size),
		index:  make(map[string]int, size),
	}
}

func (b *Bucket) add(hash string, count int64) {
	if _, ok := b.index[hash]; !ok {
		b.index[hash] = len(b.Hashes)
	}
	b.Hashes = append(b.Hashes, hash)
	b.Counts = append(b.Counts, count)
}

// Len is the number of hashes in the bucket.
func (b *Bucket) Len() int {
	return len(b.Hashes)
}

// Lookup finds the full uppercase hash in the bucket and returns its occurrence count.
func (b *Bucket) Lookup(hash string) (int64, bool) {
	if b.index == nil {
		b.index = make(map[string]int, len(b.Hashes))
		for i, h := range b.Hashes {
			if _, ok := b.index[h]; !ok {
				b.index[h] = i
			}
		}
	}

	i, ok := b.index[hash]
	if !ok {
		return 0, false
	}
	return b.Counts[i], true
}

// ParseRange reads a range API body. Each record is "{35 hex suffix}:{count}",
// records are separated by CRLF. The prefix is prepended to every suffix so the
// bucket holds full hashes. Padding records (count 0) are dropped when
// skipPadding is set. A single bad line fails the whole bucket.
func ParseRange(prefix string, r io.Reader, skipPadding bool) (*Bucket, error) {
	bucket := newBucket(prefix, 1024)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		suffix, rawCount, found := strings.Cut(text, ":")
		if !found || !suffixRegexp.MatchString(suffix) {
			return nil, fmt.Errorf("%w: line %d of range %s", ErrMalformedRange, line, prefix)
		}

		count, err := strconv.ParseInt(rawCount, 10, 64)
		if err != nil || count < 0 {
			return nil, fmt.Errorf("%w: bad count on line %d of range %s", ErrMalformedRange, line, prefix)
		}

		if skipPadding && count == 0 {
			continue
		}

		bucket.add(prefix+strings.ToUpper(suffix), count)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return bucket, nil
}
