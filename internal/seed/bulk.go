package seed

import (
	"context"
	"database/sql"

	"cursor-paging/internal/sqldb"
	"cursor-paging/pkg/gallery"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

// bulkPicture is the bun model of a picture row. ID is left zero so the
// database assigns it.
type bulkPicture struct {
	bun.BaseModel `bun:"table:pictures"`

	ID      int64             `bun:"id,pk,autoincrement"`
	URL     string            `bun:"url"`
	Created gallery.Timestamp `bun:"created"`
}

// BulkWriter loads the whole data set in one transaction, inserting it in
// chunks of NotifyAfter rows and reporting progress after each chunk.
type BulkWriter struct {
	db *bun.DB

	// Size is the number of pictures handed over in one call.
	Size int

	// NotifyAfter is the number of rows between progress notifications.
	NotifyAfter int

	// OnProgress is called with the rows written so far and the batch size.
	OnProgress func(done, total int)
}

func NewBulkWriter(db *sql.DB, dialect sqldb.Dialect, total int) (*BulkWriter, error) {
	var d schema.Dialect
	switch dialect {
	case sqldb.DialectSQLite:
		d = sqlitedialect.New()
	case sqldb.DialectPostgres:
		d = pgdialect.New()
	default:
		return nil, errors.Wrapf(gallery.ErrUnknownDialect, "dialect %q", dialect)
	}
	return &BulkWriter{
		db:          bun.NewDB(db, d),
		Size:        total,
		NotifyAfter: 100_000,
	}, nil
}

func (w *BulkWriter) Name() string {
	return StrategyBulk
}

func (w *BulkWriter) BatchSize() int {
	return w.Size
}

func (w *BulkWriter) WriteBatch(ctx context.Context, pictures []gallery.Picture) error {
	chunk := w.NotifyAfter
	if chunk <= 0 {
		chunk = len(pictures)
	}

	err := w.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for start := 0; start < len(pictures); start += chunk {
			end := min(start+chunk, len(pictures))
			rows := make([]bulkPicture, 0, end-start)
			for _, p := range pictures[start:end] {
				rows = append(rows, bulkPicture{URL: p.URL, Created: p.Created})
			}
			// Returning NULL keeps bun from scanning a million ids back.
			if _, err := tx.NewInsert().Model(&rows).Returning("NULL").Exec(ctx); err != nil {
				return errors.Wrapf(err, "insert rows %d-%d", start, end)
			}
			if w.OnProgress != nil {
				w.OnProgress(end, len(pictures))
			}
		}
		return nil
	})
	return errors.Wrap(err, "bulk insert")
}
