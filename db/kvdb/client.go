package kvdb

import (
	"context"
	"time"
)

// Client - the key-value operations the job queue needs. Missing keys are not
// errors: getters report found=false instead.
type Client interface {
	Init() error
	Close() error
	Conf() *Conf
	Ping(ctx context.Context) error

	//---- Key Ops ----

	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) (int64, error)
	// Expire sets/updates expiration for a key
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) // found & updated, err

	//---- Single-value Ops ----

	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error) // val, found, err
	// SetNX sets key only if it does not exist. Reports whether it was set.
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error)

	//---- List Ops ----

	Push(ctx context.Context, key string, value string) error
	Pop(ctx context.Context, key string) (string, bool, error) // val, found, err
	// BlockingPop waits up to timeout for an element. found=false on timeout.
	BlockingPop(ctx context.Context, timeout time.Duration, key string) (string, bool, error)
	Len(ctx context.Context, key string) (int64, error)
	Range(ctx context.Context, key string, start int64, stop int64) ([]string, error) // 0-basis, stop inclusive
	Remove(ctx context.Context, key string, cnt int64, value any) (int64, error)      // cnt = removed dups. 0 = all

	//---- Hash Ops ----

	SetFields(ctx context.Context, key string, fields map[string]any) error
	// GetAllFields returns an empty map for a missing key.
	GetAllFields(ctx context.Context, key string) (map[string]string, error)
}
