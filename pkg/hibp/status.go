package hibp

import (
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"net/http"
	"sync/atomic"
	"time"
)

type status struct {
	requests         uint64
	failures         uint64
	hashesReceived   uint64
	cloudflareHits   uint64
	cloudflareMisses uint64
	requestTimeTotal uint64
	start            time.Time
}

// Stats counts the range requests made by a Client.
type Stats struct {
	Requests         uint64
	Failures         uint64
	HashesReceived   uint64
	CloudflareHits   uint64
	CloudflareMisses uint64
	AverageMillis    float64
}

func newStatus() *status {
	return &status{start: time.Now()}
}

func (s *status) RequestComplete(res *http.Response, millis int64, hashes int) {
	atomic.AddUint64(&s.requestTimeTotal, uint64(millis))
	atomic.AddUint64(&s.requests, 1)
	atomic.AddUint64(&s.hashesReceived, uint64(hashes))

	if cacheHit := res.Header.Get("CF-Cache-Status"); cacheHit == "HIT" {
		atomic.AddUint64(&s.cloudflareHits, 1)
	} else {
		atomic.AddUint64(&s.cloudflareMisses, 1)
	}
}

func (s *status) RequestFailed() {
	atomic.AddUint64(&s.failures, 1)
}

func (s *status) Snapshot() Stats {
	st := Stats{
		Requests:         atomic.LoadUint64(&s.requests),
		Failures:         atomic.LoadUint64(&s.failures),
		HashesReceived:   atomic.LoadUint64(&s.hashesReceived),
		CloudflareHits:   atomic.LoadUint64(&s.cloudflareHits),
		CloudflareMisses: atomic.LoadUint64(&s.cloudflareMisses),
	}
	if st.Requests > 0 {
		st.AverageMillis = float64(atomic.LoadUint64(&s.requestTimeTotal)) / float64(st.Requests)
	}
	return st
}

func (s *status) Log(logger zerolog.Logger) {
	st := s.Snapshot()
	if st.Requests == 0 && st.Failures == 0 {
		return
	}

	p := message.NewPrinter(language.English)
	logger.Debug().Msgf("made %s range requests (%d failed) in %v. Average response time %.2f ms",
		p.Sprintf("%d", st.Requests), st.Failures, time.Since(s.start), st.AverageMillis)
	logger.Debug().Msgf("received %s hashes. Cloudflare cache hits: %s, misses: %s",
		p.Sprintf("%d", st.HashesReceived), p.Sprintf("%d", st.CloudflareHits), p.Sprintf("%d", st.CloudflareMisses))
}
