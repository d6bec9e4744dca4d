package audit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/alvinbaena/pass-audit/pkg/hibp"
)

// fakeOracle serves buckets from seeded hashes and counts requests per prefix.
type fakeOracle struct {
	mu     sync.Mutex
	seeded map[string][]string
	calls  map[string]int
	fail   error
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		seeded: make(map[string][]string),
		calls:  make(map[string]int),
	}
}

func (f *fakeOracle) seed(password string, count int64) *fakeOracle {
	hash := hibp.Hash(password)
	prefix := hibp.Prefix(hash)
	f.seeded[prefix] = append(f.seeded[prefix], fmt.Sprintf("%s:%d", hibp.Suffix(hash), count))
	return f
}

func (f *fakeOracle) FetchRange(ctx context.Context, prefix string) (*hibp.Bucket, error) {
	f.mu.Lock()
	f.calls[prefix]++
	f.mu.Unlock()

	if f.fail != nil {
		return nil, &hibp.NetworkError{Prefix: prefix, Err: f.fail}
	}
	if err := ctx.Err(); err != nil {
		return nil, &hibp.NetworkError{Prefix: prefix, Err: err}
	}

	// Unrelated record so buckets are never trivially empty.
	lines := append([]string{"0000000000000000000000000000000000F:9"}, f.seeded[prefix]...)
	return hibp.ParseRange(prefix, strings.NewReader(strings.Join(lines, "\r\n")), true)
}

// panicOracle panics on one prefix and serves empty buckets otherwise.
type panicOracle struct {
	prefix string
}

func (p panicOracle) FetchRange(_ context.Context, prefix string) (*hibp.Bucket, error) {
	if prefix == p.prefix {
		panic("range decoder exploded")
	}
	return hibp.ParseRange(prefix, strings.NewReader(""), true)
}

func (f *fakeOracle) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, c := range f.calls {
		total += c
	}
	return total
}

type fakeEstimator struct {
	mu     sync.Mutex
	scores map[string]int
	fail   map[string]bool
	inputs map[string][]string
}

func newFakeEstimator() *fakeEstimator {
	return &fakeEstimator{
		scores: make(map[string]int),
		fail:   make(map[string]bool),
		inputs: make(map[string][]string),
	}
}

func (f *fakeEstimator) Estimate(password string, userInputs []string) (Strength, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs[password] = userInputs

	if f.fail[password] {
		return Strength{}, ErrEstimateFailed
	}
	score, ok := f.scores[password]
	if !ok {
		score = 4
	}
	return Strength{
		Score:    score,
		Guesses:  float64(score*1000 + 1),
		Sequence: []Token{{Token: password, Pattern: "bruteforce"}},
	}, nil
}

func entry(path, password string, fields ...string) *Entry {
	e := NewEntry(path)
	if password != "" {
		e.Set(FieldPassword, password)
	}
	for i := 0; i+1 < len(fields); i += 2 {
		e.Set(fields[i], fields[i+1])
	}
	return e
}
