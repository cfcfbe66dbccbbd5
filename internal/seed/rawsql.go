package seed

import (
	"context"
	"strconv"
	"strings"

	"cursor-paging/pkg/gallery"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// RawSQLWriter renders each batch as one multi-row INSERT with the values
// written inline and runs it as a single statement. Ids are written
// explicitly.
//
// Values are inlined rather than bound to measure raw statement throughput.
// This is only safe because every value comes from the Generator; string
// literals are still quote-escaped.
type RawSQLWriter struct {
	db *sqlx.DB

	// Size is the number of pictures per statement.
	Size int
}

func NewRawSQLWriter(db *sqlx.DB) *RawSQLWriter {
	return &RawSQLWriter{
		db:   db,
		Size: 250_000,
	}
}

func (w *RawSQLWriter) Name() string {
	return StrategyRawSQL
}

func (w *RawSQLWriter) BatchSize() int {
	return w.Size
}

func (w *RawSQLWriter) WriteBatch(ctx context.Context, pictures []gallery.Picture) error {
	if len(pictures) == 0 {
		return nil
	}
	_, err := w.db.ExecContext(ctx, insertValuesSQL(pictures))
	return errors.Wrap(err, "execute raw insert")
}

// insertValuesSQL returns the multi-row INSERT statement for pictures.
func insertValuesSQL(pictures []gallery.Picture) string {
	var b strings.Builder
	b.Grow(len(pictures) * 96)
	b.WriteString("insert into pictures (id, url, created) values ")
	for i, p := range pictures {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString("\n(")
		b.WriteString(strconv.FormatInt(p.ID, 10))
		b.WriteString(", ")
		writeQuoted(&b, p.URL)
		b.WriteString(", ")
		writeQuoted(&b, p.Created.String())
		b.WriteByte(')')
	}
	b.WriteByte(';')
	return b.String()
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('\'')
	b.WriteString(strings.ReplaceAll(s, "'", "''"))
	b.WriteByte('\'')
}
