// Package cache keeps rendered GET responses for the public event routes in
// Redis. Mutating handlers purge the affected keys through Invalidator.
package cache

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	listPrefix = "cache:events:list:"
	itemPrefix = "cache:events:item:"

	eventsPath = "/api/events"
)

type cachedResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// KeyFor returns the Redis key for a cacheable request, or "" when the request
// must not be cached. Only GET /api/events and GET /api/events/{id} qualify.
func KeyFor(r *http.Request) string {
	if r.Method != http.MethodGet {
		return ""
	}
	rest, ok := strings.CutPrefix(r.URL.Path, eventsPath)
	if !ok {
		return ""
	}

	switch {
	case rest == "" || rest == "/":
		return listPrefix + sha1Hex(r.URL.Query().Encode())
	case strings.Count(rest, "/") == 1:
		return itemPrefix + strings.TrimPrefix(rest, "/")
	default:
		return ""
	}
}

type ResponseCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewResponseCache(rdb *redis.Client, ttl time.Duration) *ResponseCache {
	return &ResponseCache{rdb: rdb, ttl: ttl}
}

// Middleware serves cached responses with X-Cache: HIT and stores fresh 2xx
// responses with X-Cache: MISS. Redis failures fall through to the handler.
func (c *ResponseCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := KeyFor(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		if b, err := c.rdb.Get(r.Context(), key).Bytes(); err == nil && len(b) > 0 {
			var hit cachedResponse
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
				if hit.ContentType != "" {
					w.Header().Set("Content-Type", hit.ContentType)
				}
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(hit.Status)
				_, _ = w.Write(hit.Body)
				return
			}
		} else if err != nil && err != redis.Nil {
			log.Printf("Response cache lookup failed: %v", err)
		}

		bw := &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(bw, r)

		if bw.status < 200 || bw.status >= 300 {
			return
		}
		item := cachedResponse{
			Status:      bw.status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        bw.buf.Bytes(),
		}
		var out bytes.Buffer
		if err := gob.NewEncoder(&out).Encode(item); err != nil {
			return
		}
		if err := c.rdb.Set(context.WithoutCancel(r.Context()), key, out.Bytes(), c.ttl).Err(); err != nil {
			log.Printf("Response cache store failed: %v", err)
		}
	})
}

// bufferedWriter keeps a copy of the body while writing it through.
type bufferedWriter struct {
	http.ResponseWriter
	buf         bytes.Buffer
	status      int
	wroteHeader bool
}

func (w *bufferedWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
		if status >= 200 && status < 300 {
			w.Header().Set("X-Cache", "MISS")
		}
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}
