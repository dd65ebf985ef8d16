// Package redis stores existence markers as Redis keys with a TTL.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/xenking/florist-storefront/internal/persist"
)

var _ persist.Markers = (*Markers)(nil)

// Markers implements persist.Markers on top of a Redis client. Expiry is
// delegated to Redis key TTLs.
type Markers struct {
	rdb    goredis.UniversalClient
	prefix string
}

// NewMarkers returns Markers that namespaces every key with prefix.
func NewMarkers(rdb goredis.UniversalClient, prefix string) *Markers {
	return &Markers{rdb: rdb, prefix: prefix}
}

func (m *Markers) key(name string) string {
	return m.prefix + name
}

func (m *Markers) Get(ctx context.Context, name string) (string, bool, error) {
	v, err := m.rdb.Get(ctx, m.key(name)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "get marker %q", name)
	}
	return v, true, nil
}

func (m *Markers) Set(ctx context.Context, name, value string, maxAge time.Duration) error {
	if maxAge <= 0 {
		return m.Clear(ctx, name)
	}
	if err := m.rdb.Set(ctx, m.key(name), value, maxAge).Err(); err != nil {
		return errors.Wrapf(err, "set marker %q", name)
	}
	return nil
}

func (m *Markers) Clear(ctx context.Context, name string) error {
	if err := m.rdb.Del(ctx, m.key(name)).Err(); err != nil {
		return errors.Wrapf(err, "clear marker %q", name)
	}
	return nil
}

// NewClient parses a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return rdb, nil
}
