// Package ratelimit paces fetches per origin so politeness holds regardless
// of the global concurrency level.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/littleweb/crawler/internal/metrics"
)

// Limiter tracks one courtesy window per origin. Each origin gets a
// rate.Limiter with burst 1, so concurrent callers to the same origin are
// serialized at least effectiveDelay apart while other origins proceed freely.
type Limiter struct {
	defaultDelay time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	delays   map[string]time.Duration
}

// New creates a Limiter using defaultDelay for origins with no learned delay.
func New(defaultDelay time.Duration) *Limiter {
	if defaultDelay <= 0 {
		defaultDelay = time.Second
	}
	return &Limiter{
		defaultDelay: defaultDelay,
		limiters:     make(map[string]*rate.Limiter),
		delays:       make(map[string]time.Duration),
	}
}

// Throttle blocks until it is safe to fetch from rawURL's origin, then stamps
// the courtesy window. delayHint (typically the robots crawl-delay) is sticky:
// the first positive hint for an origin becomes its effective delay.
func (l *Limiter) Throttle(ctx context.Context, rawURL string, delayHint time.Duration) error {
	origin, err := Origin(rawURL)
	if err != nil {
		return err
	}

	l.mu.Lock()
	if delayHint > 0 {
		if _, learned := l.delays[origin]; !learned {
			l.delays[origin] = delayHint
			if lim, ok := l.limiters[origin]; ok {
				lim.SetLimit(rate.Every(delayHint))
			}
		}
	}
	lim, ok := l.limiters[origin]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.effectiveDelayLocked(origin)), 1)
		l.limiters[origin] = lim
	}
	l.mu.Unlock()

	waitStart := time.Now()
	if err := lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", origin, err)
	}
	metrics.ObserveRateLimitDelay(time.Since(waitStart))
	return nil
}

// EffectiveDelay reports the current delay for rawURL's origin.
func (l *Limiter) EffectiveDelay(rawURL string) time.Duration {
	origin, err := Origin(rawURL)
	if err != nil {
		return l.defaultDelay
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.effectiveDelayLocked(origin)
}

func (l *Limiter) effectiveDelayLocked(origin string) time.Duration {
	if d, ok := l.delays[origin]; ok {
		return d
	}
	return l.defaultDelay
}

// Origin derives the scheme://host key rate limiting and robots apply to.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q has no origin", rawURL)
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), nil
}
