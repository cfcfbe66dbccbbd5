package seed

import (
	"context"

	"cursor-paging/internal/sqldb"
	"cursor-paging/pkg/gallery"

	"github.com/pkg/errors"
)

// Strategy names accepted by NewWriter.
const (
	StrategyTracked  = "tracked"
	StrategyBulk     = "bulk"
	StrategyRawSQL   = "rawsql"
	StrategyPrepared = "prepared"
)

// BatchWriter persists generated pictures. The Seeder hands it batches of at
// most BatchSize pictures with contiguous ids, in id order, one at a time.
type BatchWriter interface {
	Name() string
	BatchSize() int
	WriteBatch(ctx context.Context, pictures []gallery.Picture) error
}

// NewWriter returns the BatchWriter for the named strategy, writing to the
// store's database. total is the number of pictures the seed will write.
func NewWriter(strategy string, s *sqldb.Store, total int) (BatchWriter, error) {
	switch strategy {
	case StrategyTracked:
		return NewTrackedWriter(s.DB().DB, s.Dialect())
	case StrategyBulk:
		return NewBulkWriter(s.DB().DB, s.Dialect(), total)
	case StrategyRawSQL:
		return NewRawSQLWriter(s.DB()), nil
	case StrategyPrepared:
		return NewPreparedWriter(s.DB()), nil
	default:
		return nil, errors.Wrapf(gallery.ErrUnknownStrategy, "strategy %q", strategy)
	}
}
