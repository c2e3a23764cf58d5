package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"todoTracker/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	Requests   int
	Window     time.Duration
	MaxClients int
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per identity. Idle buckets expire after
// a window and the table never grows past MaxClients.
type Limiter struct {
	cfg     RateLimitConfig
	every   rate.Limit
	mtx     sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.Requests <= 0 {
		cfg.Requests = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 10000
	}
	return &Limiter{
		cfg:     cfg,
		every:   rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Allow reports whether key may proceed and how long it should wait
// otherwise.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mtx.Lock()
	defer l.mtx.Unlock()

	c, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= l.cfg.MaxClients {
			l.evict(now)
		}
		c = &client{limiter: rate.NewLimiter(l.every, l.cfg.Requests)}
		l.clients[key] = c
	}
	c.lastSeen = now

	res := c.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// evict drops expired clients; if none expired, the least recently seen one
// goes.
func (l *Limiter) evict(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > l.cfg.Window {
			delete(l.clients, key)
			continue
		}
		if oldestKey == "" || c.lastSeen.Before(oldest) {
			oldestKey, oldest = key, c.lastSeen
		}
	}
	if len(l.clients) >= l.cfg.MaxClients && oldestKey != "" {
		delete(l.clients, oldestKey)
	}
}

func (l *Limiter) Len() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.clients)
}

// RateLimit keys by the authenticated user and must sit behind
// Authenticate. Anonymous requests are throttled there, by address, when
// they fail to authenticate.
func RateLimit(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := UserID(r.Context())
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Requests))
			if ok, wait := l.Allow(key); !ok {
				tooManyRequests(w, r, key, wait)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tooManyRequests(w http.ResponseWriter, r *http.Request, key string, wait time.Duration) {
	retryAfter := int(math.Ceil(wait.Seconds()))
	logger.Warn("HTTP: rate limit exceeded",
		zap.String("request_id", GetRequestID(r.Context())),
		zap.String("key", key))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":       "RATE_LIMITED",
		"message":     "too many requests, try again later",
		"retry_after": retryAfter,
		"request_id":  GetRequestID(r.Context()),
	})
}
