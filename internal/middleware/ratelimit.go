package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/wefixit/wefixit-backend/pkg/clientip"
)

const (
	// LoginMaxFailures failed logins within LoginWindow block the IP.
	LoginMaxFailures = 10
	LoginWindow      = 15 * time.Minute
	// LoginBlockDuration is how long a blocked IP stays blocked.
	LoginBlockDuration = 15 * time.Minute

	loginFailKeyPrefix  = "login_fail:"
	loginBlockKeyPrefix = "login_blocked:"
)

// LoginLimiter tracks failed login attempts per client IP.
type LoginLimiter interface {
	Blocked(ctx context.Context, ip string) (bool, error)
	RecordFailure(ctx context.Context, ip string) error
	Reset(ctx context.Context, ip string) error
}

// RedisLoginLimiter shares attempt counters between instances.
type RedisLoginLimiter struct {
	client      *redis.Client
	maxFailures int64
	window      time.Duration
	block       time.Duration
}

func NewRedisLoginLimiter(client *redis.Client) *RedisLoginLimiter {
	return &RedisLoginLimiter{
		client:      client,
		maxFailures: LoginMaxFailures,
		window:      LoginWindow,
		block:       LoginBlockDuration,
	}
}

func (l *RedisLoginLimiter) Blocked(ctx context.Context, ip string) (bool, error) {
	n, err := l.client.Exists(ctx, loginBlockKeyPrefix+ip).Result()
	if err != nil {
		return false, fmt.Errorf("check login block: %w", err)
	}
	return n > 0, nil
}

func (l *RedisLoginLimiter) RecordFailure(ctx context.Context, ip string) error {
	failKey := loginFailKeyPrefix + ip

	count, err := l.client.Incr(ctx, failKey).Result()
	if err != nil {
		return fmt.Errorf("count login failure: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, failKey, l.window).Err(); err != nil {
			return fmt.Errorf("expire login failures: %w", err)
		}
	}

	if count >= l.maxFailures {
		if err := l.client.Set(ctx, loginBlockKeyPrefix+ip, strconv.FormatInt(count, 10), l.block).Err(); err != nil {
			return fmt.Errorf("block ip: %w", err)
		}
		return l.client.Del(ctx, failKey).Err()
	}
	return nil
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, ip string) error {
	return l.client.Del(ctx, loginFailKeyPrefix+ip).Err()
}

// MemoryLoginLimiter approximates the Redis limiter with a token bucket per
// IP: every failure spends a token and tokens refill at
// LoginMaxFailures per LoginWindow. Counters are per process.
type MemoryLoginLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	entries map[string]*limiterEntry
}

func NewMemoryLoginLimiter() *MemoryLoginLimiter {
	return &MemoryLoginLimiter{
		limit:   rate.Every(LoginWindow / LoginMaxFailures),
		burst:   LoginMaxFailures,
		entries: make(map[string]*limiterEntry),
	}
}

func (l *MemoryLoginLimiter) entry(ip string) *limiterEntry {
	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = e
	}
	e.lastUse = time.Now()
	return e
}

func (l *MemoryLoginLimiter) Blocked(_ context.Context, ip string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[ip]
	if !ok {
		return false, nil
	}
	return e.limiter.Tokens() < 1, nil
}

func (l *MemoryLoginLimiter) RecordFailure(_ context.Context, ip string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entry(ip).limiter.Allow()
	if len(l.entries) > 10000 {
		l.evictIdle()
	}
	return nil
}

func (l *MemoryLoginLimiter) Reset(_ context.Context, ip string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, ip)
	return nil
}

// evictIdle must be called with l.mu held.
func (l *MemoryLoginLimiter) evictIdle() {
	now := time.Now()
	for ip, e := range l.entries {
		if now.Sub(e.lastUse) > LoginWindow {
			delete(l.entries, ip)
		}
	}
}

// LoginGuard rejects login requests from blocked IPs. Limiter errors fail
// open so a Redis outage cannot lock every admin out.
func LoginGuard(l LoginLimiter, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientip.FromRequest(r)
			blocked, err := l.Blocked(r.Context(), ip)
			if err != nil {
				logger.WithError(err).WithField("ip", ip).Warn("Login limiter unavailable")
			}
			if blocked {
				w.Header().Set("Retry-After", strconv.Itoa(int(LoginBlockDuration.Seconds())))
				writeError(w, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
