package cache

import (
	"context"
	"testing"
	"time"

	"cursor-paging/internal/mock"
	"cursor-paging/pkg/gallery"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	tm "github.com/twitsprout/tools/mock"
)

func newTestStore(t *testing.T, count func(ctx context.Context) (int, error)) (*PictureStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &PictureStore{
		PictureStore: &mock.PictureStore{CountPicturesFn: count},
		Client:       client,
		TTL:          5 * time.Second,
		Logger:       tm.NopLogger,
	}, mr
}

func TestCountPicturesCached(t *testing.T) {
	var calls int
	s, mr := newTestStore(t, func(ctx context.Context) (int, error) {
		calls++
		return 1000 + calls, nil
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		n, err := s.CountPictures(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %s", err.Error())
		}
		if n != 1001 {
			t.Fatalf("expected the cached count 1001, got %d", n)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one store call, got %d", calls)
	}
	if ttl := mr.TTL(TotalCountKey); ttl != 5*time.Second {
		t.Fatalf("unexpected ttl %s", ttl)
	}

	mr.FastForward(6 * time.Second)
	n, err := s.CountPictures(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if n != 1002 || calls != 2 {
		t.Fatalf("expected a refreshed count after expiry, got %d after %d calls", n, calls)
	}
}

func TestCountPicturesInvalidate(t *testing.T) {
	var calls int
	s, mr := newTestStore(t, func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	})
	ctx := context.Background()

	if _, err := s.CountPictures(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	if mr.Exists(TotalCountKey) {
		t.Fatal("expected the cached count to be removed")
	}
	if n, _ := s.CountPictures(ctx); n != 2 {
		t.Fatalf("expected a fresh count, got %d", n)
	}
}

func TestCountPicturesFallback(t *testing.T) {
	s, mr := newTestStore(t, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	ctx := context.Background()

	if err := mr.Set(TotalCountKey, "not a number"); err != nil {
		t.Fatal(err)
	}
	if n, err := s.CountPictures(ctx); err != nil || n != 42 {
		t.Fatalf("expected fallback to the store on a bad value, got %d %v", n, err)
	}

	mr.Close()
	if n, err := s.CountPictures(ctx); err != nil || n != 42 {
		t.Fatalf("expected fallback to the store without redis, got %d %v", n, err)
	}
}

func TestCountPicturesStoreError(t *testing.T) {
	expErr := errors.New("database is locked")
	s, mr := newTestStore(t, func(ctx context.Context) (int, error) {
		return 0, expErr
	})

	if _, err := s.CountPictures(context.Background()); err != expErr {
		t.Fatalf("expected %v, got %v", expErr, err)
	}
	if mr.Exists(TotalCountKey) {
		t.Fatal("expected nothing cached after a store error")
	}
}

func TestPassThrough(t *testing.T) {
	s, _ := newTestStore(t, nil)
	s.PictureStore = &mock.PictureStore{
		ListPicturesAfterFn: func(ctx context.Context, req gallery.CursorReq) (gallery.PictureRows, error) {
			return gallery.PictureRows{SQL: "after"}, nil
		},
	}
	rows, err := s.ListPicturesAfter(context.Background(), gallery.CursorReq{Size: 1})
	if err != nil || rows.SQL != "after" {
		t.Fatalf("expected the wrapped store to answer, got %+v %v", rows, err)
	}
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewClient(ctx, Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	_ = client.Close()

	addr := mr.Addr()
	mr.Close()
	if _, err := NewClient(ctx, Config{Addr: addr}); err == nil {
		t.Fatal("expected an error for an unreachable server")
	}
}
