package seed

import (
	"context"

	"cursor-paging/pkg/gallery"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const insertPictureSQL = "insert into pictures (id, url, created) values (?, ?, ?)"

// PreparedWriter writes each batch in its own transaction, executing one
// prepared statement once per picture. Ids are written explicitly.
type PreparedWriter struct {
	db *sqlx.DB

	// Size is the number of pictures per transaction.
	Size int
}

func NewPreparedWriter(db *sqlx.DB) *PreparedWriter {
	return &PreparedWriter{
		db:   db,
		Size: 250_000,
	}
}

func (w *PreparedWriter) Name() string {
	return StrategyPrepared
}

func (w *PreparedWriter) BatchSize() int {
	return w.Size
}

func (w *PreparedWriter) WriteBatch(ctx context.Context, pictures []gallery.Picture) (err error) {
	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(insertPictureSQL))
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for _, p := range pictures {
		if _, err = stmt.ExecContext(ctx, p.ID, p.URL, p.Created); err != nil {
			return errors.Wrapf(err, "insert picture %d", p.ID)
		}
	}

	err = errors.Wrap(tx.Commit(), "commit transaction")
	return err
}
