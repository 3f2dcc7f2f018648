package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tektome/ocrindex/internal/domain"
	"github.com/tektome/ocrindex/internal/logger"
)

const (
	keyPrefix      = domain.KeyPrefix + "ratelimit:"
	fieldCount     = "count"
	fieldWindowTS  = "last_request_time"
	counterTTLMult = 2
)

// store is the consumer interface for rate-limit counters (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HIncrBy(ctx context.Context, key, field string, incr int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Limiter is a per-client fixed-window admission counter backed by a shared
// hash store. The read-modify-write is deliberately not atomic: two racing
// requests can both pass the same check, which best-effort admission accepts.
type Limiter struct {
	store     store
	threshold int
	window    time.Duration
	now       func() time.Time
}

// New creates a limiter admitting up to threshold requests per window.
func New(s store, threshold int, window time.Duration) *Limiter {
	return &Limiter{
		store:     s,
		threshold: threshold,
		window:    window,
		now:       time.Now,
	}
}

// WithClock overrides the time source (test-only).
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Allow reports whether a request from clientID is admitted. The counter
// resets whenever the elapsed time since the recorded window start reaches
// the window length; a rejected request does not mutate the counter.
func (l *Limiter) Allow(ctx context.Context, clientID string) (bool, error) {
	key := keyPrefix + clientID
	nowUnix := l.now().Unix()

	fields, err := l.store.HGetAll(ctx, key)
	if err != nil {
		return false, fmt.Errorf("ratelimit HGETALL %s: %w", key, err)
	}

	if len(fields) == 0 {
		return true, l.reset(ctx, key, nowUnix)
	}

	count, cErr := strconv.Atoi(fields[fieldCount])
	windowStart, wErr := strconv.ParseInt(fields[fieldWindowTS], 10, 64)
	if cErr != nil || wErr != nil {
		// A counter we cannot parse is useless; start a fresh window
		// rather than guessing.
		logger.FromContext(ctx).Warn("corrupt rate-limit counter, resetting",
			zap.String("key", key),
			zap.String(fieldCount, fields[fieldCount]),
			zap.String(fieldWindowTS, fields[fieldWindowTS]),
		)
		return true, l.reset(ctx, key, nowUnix)
	}

	if nowUnix-windowStart < int64(l.window.Seconds()) {
		if count >= l.threshold {
			return false, nil
		}
		if _, err := l.store.HIncrBy(ctx, key, fieldCount, 1); err != nil {
			return false, fmt.Errorf("ratelimit HINCRBY %s: %w", key, err)
		}
		return true, nil
	}

	// Window elapsed: start a new one.
	return true, l.reset(ctx, key, nowUnix)
}

func (l *Limiter) reset(ctx context.Context, key string, nowUnix int64) error {
	err := l.store.HSet(ctx, key, map[string]string{
		fieldCount:    "1",
		fieldWindowTS: strconv.FormatInt(nowUnix, 10),
	})
	if err != nil {
		return fmt.Errorf("ratelimit HSET %s: %w", key, err)
	}

	// Counters from churned clients age out instead of accumulating.
	if err := l.store.Expire(ctx, key, counterTTLMult*l.window, false); err != nil {
		return fmt.Errorf("ratelimit EXPIRE %s: %w", key, err)
	}
	return nil
}
