package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	lowimpl "github.com/redis/go-redis/v9"

	"github.com/zeptools/gw-docs/db/kvdb"
)

type Client struct {
	conf *kvdb.Conf
	pw   string

	// implementation details, not exported
	internal *lowimpl.Client
}

// Ensure redis.Client implements kvdb.Client interface
var _ kvdb.Client = (*Client)(nil)

// New - pw is the decrypted password; conf.PW is used when it is empty.
func New(conf *kvdb.Conf, pw string) *Client {
	if pw == "" {
		pw = conf.PW
	}
	return &Client{conf: conf, pw: pw}
}

func (c *Client) Init() error {
	c.internal = lowimpl.NewClient(&lowimpl.Options{
		Addr:     fmt.Sprintf("%s:%d", c.conf.Host, c.conf.Port),
		Password: c.pw,
		DB:       c.conf.DB,
	})
	return nil
}

func (c *Client) Close() error {
	if c.internal == nil {
		return nil
	}
	return c.internal.Close()
}

func (c *Client) Conf() *kvdb.Conf {
	return c.conf
}

func (c *Client) Ping(ctx context.Context) error {
	return c.internal.Ping(ctx).Err()
}

func (c *Client) key(k string) string {
	return c.conf.Prefix + k
}

//--- Key Ops ----

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.internal.Exists(ctx, c.key(key)).Result()
	return n > 0, err
}

func (c *Client) Delete(ctx context.Context, keys ...string) (int64, error) {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}
	return c.internal.Del(ctx, prefixed...).Result()
}

func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	// false if the key does not exist
	return c.internal.Expire(ctx, c.key(key), expiration).Result()
}

//---- Single-value Ops ----

func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	return found(c.internal.Get(ctx, c.key(key)).Result())
}

func (c *Client) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return c.internal.Set(ctx, c.key(key), value, expiration).Err()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error) {
	return c.internal.SetNX(ctx, c.key(key), value, expiration).Result()
}

//---- List Ops ----

func (c *Client) Push(ctx context.Context, key, value string) error {
	// tail (right) of the list
	return c.internal.RPush(ctx, c.key(key), value).Err()
}

func (c *Client) Pop(ctx context.Context, key string) (string, bool, error) {
	// head (left) of the list (FIFO)
	return found(c.internal.LPop(ctx, c.key(key)).Result())
}

func (c *Client) BlockingPop(ctx context.Context, timeout time.Duration, key string) (string, bool, error) {
	res, err := c.internal.BLPop(ctx, timeout, c.key(key)).Result()
	if errors.Is(err, lowimpl.Nil) {
		return "", false, nil // timed out
	}
	if err != nil {
		return "", false, err
	}
	return res[1], true, nil // [key, value]
}

func (c *Client) Len(ctx context.Context, key string) (int64, error) {
	return c.internal.LLen(ctx, c.key(key)).Result()
}

func (c *Client) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return c.internal.LRange(ctx, c.key(key), start, stop).Result()
}

func (c *Client) Remove(ctx context.Context, key string, cnt int64, value any) (int64, error) {
	return c.internal.LRem(ctx, c.key(key), cnt, value).Result()
}

//---- Hash Ops ----

func (c *Client) SetFields(ctx context.Context, key string, fields map[string]any) error {
	return c.internal.HSet(ctx, c.key(key), fields).Err()
}

func (c *Client) GetAllFields(ctx context.Context, key string) (map[string]string, error) {
	return c.internal.HGetAll(ctx, c.key(key)).Result()
}

// found maps redis.Nil to found=false, err=nil
func found(val string, err error) (string, bool, error) {
	if errors.Is(err, lowimpl.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
