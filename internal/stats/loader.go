// Package stats loads the backend's total property count. Failures are
// absorbed into a fixed fallback so the conversation never waits on them.
package stats

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/soyeahso/sumai/internal/logging"
)

// DefaultFallback is shown when the backend cannot report a total.
const DefaultFallback = 640736

const totalKey = "total_properties"

// Fetcher retrieves the live total.
type Fetcher interface {
	FetchStats(ctx context.Context) (int, error)
}

// Loader wraps a Fetcher with a fallback and a TTL cache. Only successful
// fetches are cached, so a failure is retried on the next call.
type Loader struct {
	fetcher  Fetcher
	fallback int
	cache    *cache.Cache
	log      *logging.Logger
}

// NewLoader creates a loader. A ttl of zero disables caching.
func NewLoader(f Fetcher, fallback int, ttl time.Duration, log *logging.Logger) *Loader {
	l := &Loader{
		fetcher:  f,
		fallback: fallback,
		log:      log.Sub("stats"),
	}
	if ttl > 0 {
		l.cache = cache.New(ttl, 2*ttl)
	}
	return l
}

// Total returns the live total, a cached one, or the fallback.
func (l *Loader) Total(ctx context.Context) int {
	n, _ := l.Lookup(ctx)
	return n
}

// Lookup is Total plus whether the value came from the backend (live or
// cached) rather than the fallback.
func (l *Loader) Lookup(ctx context.Context) (int, bool) {
	if l.cache != nil {
		if v, ok := l.cache.Get(totalKey); ok {
			return v.(int), true
		}
	}

	n, err := l.fetcher.FetchStats(ctx)
	if err != nil {
		l.log.Warn().Err(err).Int("fallback", l.fallback).Msg("stats unavailable, using fallback")
		return l.fallback, false
	}

	if l.cache != nil {
		l.cache.SetDefault(totalKey, n)
	}
	l.log.Debug().Int("total", n).Msg("stats loaded")
	return n, true
}

// Invalidate drops the cached total.
func (l *Loader) Invalidate() {
	if l.cache != nil {
		l.cache.Delete(totalKey)
	}
}
