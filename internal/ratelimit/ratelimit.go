// Package ratelimit throttles the credential endpoints with one token bucket
// per client address.
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/time/rate"
)

type Config struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Limiter struct {
	conf    Config
	mu      sync.Mutex
	buckets map[string]*keyLimiter
	stop    chan struct{}
}

// New starts a limiter with a background sweep of idle keys. Call Close to
// stop the sweep.
func New(conf Config) *Limiter {
	if conf.IdleTTL <= 0 {
		conf.IdleTTL = 10 * time.Minute
	}
	l := &Limiter{
		conf:    conf,
		buckets: make(map[string]*keyLimiter),
		stop:    make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(conf.IdleTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-l.stop:
				return
			case now := <-ticker.C:
				l.sweep(now)
			}
		}
	}()

	return l
}

func (l *Limiter) Close() {
	close(l.stop)
}

func (l *Limiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, v := range l.buckets {
		if now.Sub(v.lastSeen) > l.conf.IdleTTL {
			delete(l.buckets, k)
		}
	}
}

// Allow takes a token from the bucket of key.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &keyLimiter{limiter: rate.NewLimiter(rate.Limit(l.conf.RPS), l.conf.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// retryAfter is the whole number of seconds until the next token.
func (l *Limiter) retryAfter() int {
	if l.conf.RPS <= 0 {
		return 60
	}
	secs := int(1/l.conf.RPS + 0.999)
	return max(secs, 1)
}

// Middleware rejects over-limit callers with 429 and a Retry-After header,
// keyed by the client address.
func (l *Limiter) Middleware(api huma.API) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !l.Allow(clientKey(ctx.RemoteAddr())) {
			ctx.SetHeader("Retry-After", strconv.Itoa(l.retryAfter()))
			huma.WriteErr(api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}
		next(ctx)
	}
}

// clientKey drops the ephemeral port so every connection from one host shares
// a bucket.
func clientKey(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
