package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/tektome/ocrindex/internal/db"
)

// RPush appends values to a list.
func (s *Store) RPush(ctx context.Context, key string, values ...string) error {
	cmd := s.b().Rpush().Key(key).Element(values...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpRPush, Err: err}
	}
	return nil
}

// BLPop pops the oldest element, blocking up to wait.
// Returns db.ErrQueueEmpty when the wait elapses with nothing to pop.
func (s *Store) BLPop(ctx context.Context, key string, wait time.Duration) (string, error) {
	cmd := s.b().Blpop().Key(key).Timeout(wait.Seconds()).Build()
	arr, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", db.ErrQueueEmpty
		}
		return "", &db.Error{Op: db.OpBLPop, Err: err}
	}
	// BLPOP replies [key, element]
	if len(arr) < 2 {
		return "", db.ErrQueueEmpty
	}
	return arr[1], nil
}

// LLen returns the list length.
func (s *Store) LLen(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Llen().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpLLen, Err: err}
	}
	return n, nil
}

// ZAdd adds a member with the given score to a sorted set.
func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	cmd := s.b().Zadd().Key(key).ScoreMember().ScoreMember(score, member).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZPopByScore removes and returns up to count members with score <= max.
// The range-then-remove pair is not atomic; a member raced by two consumers
// is delivered to both, which the at-least-once queue contract allows.
func (s *Store) ZPopByScore(ctx context.Context, key string, max float64, count int) ([]string, error) {
	rangeCmd := s.b().Zrangebyscore().Key(key).
		Min("-inf").Max(strconv.FormatFloat(max, 'f', -1, 64)).
		Limit(0, int64(count)).Build()
	members, err := s.do(ctx, rangeCmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRangeByScore, Err: err}
	}
	if len(members) == 0 {
		return nil, nil
	}

	remCmd := s.b().Zrem().Key(key).Member(members...).Build()
	if err := s.do(ctx, remCmd).Error(); err != nil {
		return nil, &db.Error{Op: db.OpZRem, Err: err}
	}
	return members, nil
}
