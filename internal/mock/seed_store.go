package mock

import (
	"context"

	"cursor-paging/pkg/gallery"
)

// SeedStore mocks the store calls made around a seed.
type SeedStore struct {
	MigrateFn             func(ctx context.Context) error
	HasPicturesFn         func(ctx context.Context) (bool, error)
	SyncPictureSequenceFn func(ctx context.Context) error
}

func (s *SeedStore) Migrate(ctx context.Context) error {
	return s.MigrateFn(ctx)
}

func (s *SeedStore) HasPictures(ctx context.Context) (bool, error) {
	return s.HasPicturesFn(ctx)
}

func (s *SeedStore) SyncPictureSequence(ctx context.Context) error {
	return s.SyncPictureSequenceFn(ctx)
}

// BatchWriter mocks a seed writer.
type BatchWriter struct {
	NameFn       func() string
	BatchSizeFn  func() int
	WriteBatchFn func(ctx context.Context, pictures []gallery.Picture) error
}

func (w *BatchWriter) Name() string {
	return w.NameFn()
}

func (w *BatchWriter) BatchSize() int {
	return w.BatchSizeFn()
}

func (w *BatchWriter) WriteBatch(ctx context.Context, pictures []gallery.Picture) error {
	return w.WriteBatchFn(ctx, pictures)
}

// CountInvalidator mocks a picture count cache.
type CountInvalidator struct {
	InvalidateFn func(ctx context.Context) error
}

func (c *CountInvalidator) Invalidate(ctx context.Context) error {
	return c.InvalidateFn(ctx)
}
