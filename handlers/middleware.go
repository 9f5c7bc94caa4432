package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"feedback-triage/metrics"
)

const (
	requestIDHeader   = "X-Request-ID"
	requestIDKey      = "request_id"
	rateLimiterExpiry = 5 * time.Minute
)

// RequestID はリクエストIDを払い出してレスポンスヘッダーに付ける
// クライアントが送ってきた場合はそれを使う
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger はリクエストごとにアクセスログとメトリクスを記録する
func RequestLogger(clock clockwork.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := clock.Now()
		c.Next()
		elapsed := clock.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		metrics.HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, c.Request.Method).Observe(elapsed.Seconds())

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "http request",
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", elapsed),
			slog.String("client_ip", c.ClientIP()))
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter はクライアントIPごとのトークンバケット
type ipRateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	clock     clockwork.Clock
	lastSweep time.Time
}

func newIPRateLimiter(ratePerSecond float64, burst int, clock clockwork.Clock) *ipRateLimiter {
	return &ipRateLimiter{
		entries:   map[string]*limiterEntry{},
		limit:     rate.Limit(ratePerSecond),
		burst:     burst,
		clock:     clock,
		lastSweep: clock.Now(),
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) > rateLimiterExpiry {
		for key, entry := range l.entries {
			if now.Sub(entry.lastSeen) > rateLimiterExpiry {
				delete(l.entries, key)
			}
		}
		l.lastSweep = now
	}

	entry, ok := l.entries[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// RateLimit はクライアントIPごとに流量を制限する
// ratePerSecond が 0 以下なら制限しない
func RateLimit(ratePerSecond float64, burst int, clock clockwork.Clock) gin.HandlerFunc {
	if ratePerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newIPRateLimiter(ratePerSecond, burst, clock)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
