package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrQueueEmpty  = errors.New("db: queue empty")
)

// Op constants map to Redis command names for error context.
const (
	OpSearch        = "FT.SEARCH"
	OpDel           = "DEL"
	OpHGetAll       = "HGETALL"
	OpHSet          = "HSET"
	OpHIncrBy       = "HINCRBY"
	OpExists        = "EXISTS"
	OpGet           = "GET"
	OpSet           = "SET"
	OpExpire        = "EXPIRE"
	OpRPush         = "RPUSH"
	OpBLPop         = "BLPOP"
	OpLLen          = "LLEN"
	OpZAdd          = "ZADD"
	OpZRangeByScore = "ZRANGEBYSCORE"
	OpZRem          = "ZREM"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
