package cache

import (
	"context"
	"strconv"
	"time"

	"cursor-paging/internal"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/twitsprout/tools"
)

// TotalCountKey is the redis key holding the cached picture count.
const TotalCountKey = "pictures:total_count"

// DefaultTTL is used when PictureStore.TTL is zero.
const DefaultTTL = 5 * time.Second

// PictureStore wraps a PictureStore, answering CountPictures from redis while
// the cached value is fresh. Every other method goes straight to the wrapped
// store. Redis failures are logged and the wrapped store is used instead.
type PictureStore struct {
	internal.PictureStore

	Client *redis.Client
	TTL    time.Duration
	Logger tools.Logger
}

// Config represents the options for connecting to redis.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient returns a redis client and checks it can reach the server.
func NewClient(ctx context.Context, c Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", c.Addr)
	}
	return client, nil
}

// CountPictures returns the cached count, refreshing it from the wrapped store
// when it is missing or expired.
func (s *PictureStore) CountPictures(ctx context.Context) (int, error) {
	val, err := s.Client.Get(ctx, TotalCountKey).Result()
	switch {
	case err == nil:
		n, convErr := strconv.Atoi(val)
		if convErr == nil {
			return n, nil
		}
		s.warn("invalid cached count", convErr)
	case err != redis.Nil:
		s.warn("read cached count", err)
	}

	n, err := s.PictureStore.CountPictures(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.Client.Set(ctx, TotalCountKey, n, s.ttl()).Err(); err != nil {
		s.warn("write cached count", err)
	}
	return n, nil
}

// Invalidate drops the cached count.
func (s *PictureStore) Invalidate(ctx context.Context) error {
	return errors.Wrap(s.Client.Del(ctx, TotalCountKey).Err(), "delete cached count")
}

func (s *PictureStore) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultTTL
}

func (s *PictureStore) warn(msg string, err error) {
	if s.Logger == nil {
		return
	}
	s.Logger.Warn(msg,
		"key", TotalCountKey,
		"details", err.Error(),
	)
}
