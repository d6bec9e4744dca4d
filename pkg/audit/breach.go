// Copyright (c) 2024. Alvin Baena.
// SPDX-License-Identifier: MIT

package audit

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/alvinbaena/pass-audit/pkg/hibp"
	"github.com/rs/zerolog"
	"github.com/thinhdanggroup/executor"
)

// RangeFetcher returns the complete bucket of breached hashes for a 5 character
// prefix. *hibp.Client implements it.
type RangeFetcher interface {
	FetchRange(ctx context.Context, prefix string) (*hibp.Bucket, error)
}

// BreachChecker detects breached passwords with the k-anonymity range model.
// Only hash prefixes leave the process, and each distinct prefix is requested
// once per Check call.
type BreachChecker struct {
	fetcher RangeFetcher
	workers int
	rate    int
	logger  zerolog.Logger
}

func NewBreachChecker(fetcher RangeFetcher, opts ...Option) *BreachChecker {
	o := newOptions(opts)
	return &BreachChecker{
		fetcher: fetcher,
		workers: o.workers,
		rate:    o.rate,
		logger:  o.logger,
	}
}

type candidate struct {
	entry  *Entry
	hash   string
	prefix string
}

// Check returns the breached entries in input order. If any bucket cannot be
// fetched the whole check fails, a missing bucket is never read as "not breached".
func (b *BreachChecker) Check(ctx context.Context, entries Entries) ([]BreachResult, error) {
	var candidates []candidate
	var prefixes []string
	seen := make(map[string]struct{})

	for _, e := range entries.withPassword() {
		b.logger.Debug().Msgf("getting the prefix of %s", e.Path)
		hash := hibp.Hash(e.Password())
		prefix := hibp.Prefix(hash)
		candidates = append(candidates, candidate{entry: e, hash: hash, prefix: prefix})

		if _, ok := seen[prefix]; !ok {
			seen[prefix] = struct{}{}
			prefixes = append(prefixes, prefix)
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	b.logger.Debug().Msgf("%d passwords share %d distinct prefixes", len(candidates), len(prefixes))
	buckets, err := b.fetchBuckets(ctx, prefixes)
	if err != nil {
		return nil, err
	}

	var breached []BreachResult
	for _, c := range candidates {
		bucket, ok := buckets[c.prefix]
		if !ok {
			return nil, fmt.Errorf("no bucket for prefix %s of %s", c.prefix, c.entry.Path)
		}

		if count, found := bucket.Lookup(c.hash); found {
			breached = append(breached, BreachResult{
				Path:     c.entry.Path,
				Password: c.entry.Password(),
				Count:    count,
			})
		}
	}

	return breached, nil
}

// fetchRange turns a panicking fetcher into an error. A worker that dies
// never marks its task done and Wait would block forever.
func (b *BreachChecker) fetchRange(ctx context.Context, prefix string) (bucket *hibp.Bucket, err error) {
	defer func() {
		if r := recover(); r != nil {
			bucket = nil
			err = fmt.Errorf("fetching range %s panicked: %v", prefix, r)
		}
	}()
	return b.fetcher.FetchRange(ctx, prefix)
}

// fetchBuckets downloads every prefix with a bounded pool of workers. The map
// it returns lives only as long as the Check call.
func (b *BreachChecker) fetchBuckets(parent context.Context, prefixes []string) (map[string]*hibp.Bucket, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	workers := b.workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(prefixes) {
		workers = len(prefixes)
	}

	tasks, err := executor.New(executor.Config{
		ReqPerSeconds: b.rate,
		QueueSize:     2 * workers,
		NumWorkers:    workers,
	})
	if err != nil {
		return nil, err
	}
	defer tasks.Close()

	var mu sync.Mutex
	var firstErr error
	buckets := make(map[string]*hibp.Bucket, len(prefixes))

	fetch := func(prefix string) {
		if ctx.Err() != nil {
			return
		}

		bucket, err := b.fetchRange(ctx, prefix)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if firstErr == nil {
				firstErr = err
				// Stop the rest, the check is failed anyway.
				cancel()
			}
			return
		}
		buckets[prefix] = bucket
	}

	for _, prefix := range prefixes {
		if ctx.Err() != nil {
			break
		}
		if err = tasks.Publish(fetch, prefix); err != nil {
			return nil, err
		}
	}
	tasks.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("breach check aborted: %w", firstErr)
	}
	if err = parent.Err(); err != nil {
		return nil, err
	}

	return buckets, nil
}
