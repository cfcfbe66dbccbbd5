package seed

import (
	"context"
	"time"

	"cursor-paging/internal"
	"cursor-paging/pkg/gallery"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/twitsprout/tools"
)

// DefaultTotal is the number of pictures a seed writes.
const DefaultTotal = 1_000_000

// Seeder populates an empty store with generated pictures, one batch at a
// time, through a single BatchWriter.
type Seeder struct {
	Store     internal.SeedStore
	Writer    BatchWriter
	Generator *Generator
	Logger    tools.Logger

	// CountCache, when set, is invalidated once any batch has been written.
	CountCache internal.CountInvalidator

	// Total is the number of pictures to write. Zero means DefaultTotal.
	Total int
}

// Seed writes Total pictures with ids 1..Total unless the store already has
// pictures, in which case it returns SeedSkip. On failure it logs the error
// and returns SeedError with it; batches written before the failure are kept.
func (s *Seeder) Seed(ctx context.Context) (gallery.SeedResult, error) {
	runID := uuid.NewString()
	start := time.Now()

	res, err := s.seed(ctx, runID)
	if err != nil {
		s.Logger.Error("seed pictures failed",
			"run_id", runID,
			"writer", s.Writer.Name(),
			"details", err.Error(),
		)
		return gallery.SeedError, err
	}

	s.Logger.Info("seed pictures complete",
		"run_id", runID,
		"writer", s.Writer.Name(),
		"result", res.String(),
		"duration", time.Since(start),
	)
	return res, nil
}

func (s *Seeder) seed(ctx context.Context, runID string) (gallery.SeedResult, error) {
	if err := s.Store.Migrate(ctx); err != nil {
		return gallery.SeedError, errors.Wrap(err, "migrate")
	}

	has, err := s.Store.HasPictures(ctx)
	if err != nil {
		return gallery.SeedError, err
	}
	if has {
		return gallery.SeedSkip, nil
	}

	total := s.total()
	size := s.Writer.BatchSize()
	if size <= 0 {
		size = total
	}

	written := 0
	defer func() {
		if written > 0 && s.CountCache != nil {
			s.invalidateCount(ctx, runID)
		}
	}()

	for written < total {
		if err := ctx.Err(); err != nil {
			return gallery.SeedError, err
		}
		n := min(size, total-written)
		batch := s.Generator.Generate(int64(written)+1, n)
		if err := s.Writer.WriteBatch(ctx, batch); err != nil {
			return gallery.SeedError, errors.Wrapf(err, "write batch starting at id %d", written+1)
		}
		written += n

		s.Logger.Info("loading pictures",
			"run_id", runID,
			"writer", s.Writer.Name(),
			"written", written,
			"total", total,
		)
	}

	if err := s.Store.SyncPictureSequence(ctx); err != nil {
		return gallery.SeedError, err
	}
	return gallery.SeedSeeded, nil
}

// invalidateCount drops the cached count. A failure only leaves the count
// stale until the cache entry expires, so it is logged and not returned.
func (s *Seeder) invalidateCount(ctx context.Context, runID string) {
	if err := s.CountCache.Invalidate(ctx); err != nil {
		s.Logger.Warn("invalidate picture count failed",
			"run_id", runID,
			"details", err.Error(),
		)
	}
}

func (s *Seeder) total() int {
	if s.Total > 0 {
		return s.Total
	}
	return DefaultTotal
}
