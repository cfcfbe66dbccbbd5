package sqldb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cursor-paging/pkg/gallery"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const tablePictures = "pictures"

const (
	picturesColumnID      = "id"
	picturesColumnURL     = "url"
	picturesColumnCreated = "created"
)

var picturesColumns = []string{
	picturesColumnID,
	picturesColumnURL,
	picturesColumnCreated,
}

// picturesAfterSQL is the hand-written cursor query. The id predicate is
// answered from the primary key index, so its cost does not depend on how
// deep into the table the cursor points.
const picturesAfterSQL = `SELECT p.id, p.created, p.url
FROM pictures AS p
WHERE p.id > ?
ORDER BY p.id LIMIT ?`

func (s *Store) CountPictures(ctx context.Context) (int, error) {
	var n int
	err := s.Do(ctx, "count_pictures", func(ctx context.Context, conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &n, "SELECT count(id) FROM "+tablePictures)
	})
	return n, errors.Wrap(err, "count pictures")
}

func (s *Store) HasPictures(ctx context.Context) (bool, error) {
	var ids []int64
	err := s.Do(ctx, "has_pictures", func(ctx context.Context, conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &ids, "SELECT id FROM "+tablePictures+" LIMIT 1")
	})
	if err != nil {
		return false, errors.Wrap(err, "check for pictures")
	}
	return len(ids) > 0, nil
}

// ListPicturesPage returns the page of pictures by skipping every row before
// it. The skipped rows are still read by the database, so the cost grows
// with page * size.
func (s *Store) ListPicturesPage(ctx context.Context, req gallery.PagingReq) (gallery.PictureRows, error) {
	var res gallery.PictureRows

	q := s.buildListPicturesPageQuery(req)
	qv, err := toQueryValues(q)
	if err != nil {
		return res, errors.Wrap(err, "build list pictures page query")
	}

	r := []gallery.Picture{}
	err = s.Do(ctx, "list_pictures_page", func(ctx context.Context, conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &r, qv.query, qv.args...)
	})
	if err != nil {
		return res, errors.Wrap(err, "execute list pictures page query")
	}

	res = gallery.PictureRows{
		Pictures: r,
		SQL:      debugSQL(q),
	}
	return res, nil
}

func (s *Store) buildListPicturesPageQuery(req gallery.PagingReq) sq.SelectBuilder {
	return s.builder.
		Select(tableColumns(tablePictures, picturesColumns)...).
		From(tablePictures).
		OrderBy(tableColumn(tablePictures, picturesColumnID)).
		Limit(uint64(req.Size)).
		Offset(uint64(req.Offset()))
}

// ListPicturesAfter returns up to req.Size pictures with an id greater than
// req.After.
func (s *Store) ListPicturesAfter(ctx context.Context, req gallery.CursorReq) (gallery.PictureRows, error) {
	var res gallery.PictureRows

	q := s.buildListPicturesAfterQuery(req)
	qv, err := toQueryValues(q)
	if err != nil {
		return res, errors.Wrap(err, "build list pictures after query")
	}

	r := []gallery.Picture{}
	err = s.Do(ctx, "list_pictures_after", func(ctx context.Context, conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &r, qv.query, qv.args...)
	})
	if err != nil {
		return res, errors.Wrap(err, "execute list pictures after query")
	}

	res = gallery.PictureRows{
		Pictures: r,
		SQL:      debugSQL(q),
	}
	return res, nil
}

func (s *Store) buildListPicturesAfterQuery(req gallery.CursorReq) sq.SelectBuilder {
	id := tableColumn(tablePictures, picturesColumnID)
	return s.builder.
		Select(tableColumns(tablePictures, picturesColumns)...).
		From(tablePictures).
		Where(sq.Gt{id: req.After}).
		OrderBy(id).
		Limit(uint64(req.Size))
}

// ListPicturesAfterSQL is ListPicturesAfter using the hand-written query
// instead of the query builder.
func (s *Store) ListPicturesAfterSQL(ctx context.Context, req gallery.CursorReq) (gallery.PictureRows, error) {
	var res gallery.PictureRows

	r := []gallery.Picture{}
	err := s.Do(ctx, "list_pictures_after_sql", func(ctx context.Context, conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &r, conn.Rebind(picturesAfterSQL), req.After, req.Size)
	})
	if err != nil {
		return res, errors.Wrap(err, "execute list pictures after sql query")
	}

	res = gallery.PictureRows{
		Pictures: r,
		SQL:      picturesAfterSQL,
	}
	return res, nil
}

// SyncPictureSequence moves the id sequence past the highest stored id. Rows
// inserted with explicit ids do not advance a postgres sequence; SQLite
// tracks the maximum itself.
func (s *Store) SyncPictureSequence(ctx context.Context) error {
	if s.dialect != DialectPostgres {
		return nil
	}
	err := s.Do(ctx, "sync_picture_sequence", func(ctx context.Context, conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', '%[2]s'), COALESCE(MAX(%[2]s), 0) + 1, false) FROM %[1]s",
			tablePictures, picturesColumnID,
		))
		return err
	})
	return errors.Wrap(err, "sync picture sequence")
}

// DropPictures removes the pictures table and the migration bookkeeping so
// the next Migrate starts from an empty schema.
func (s *Store) DropPictures(ctx context.Context) error {
	err := s.Do(ctx, "drop_pictures", func(ctx context.Context, conn *sqlx.Conn) error {
		for _, table := range []string{tablePictures, migrationsTable} {
			if _, err := conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrap(err, "drop pictures")
}

func toQueryValues(q sq.SelectBuilder) (QueryValues, error) {
	query, args, err := q.ToSql()
	return QueryValues{query, args}, errors.Wrap(err, "build query into SQL string")
}

// debugSQL renders the query with its arguments inlined, for display only.
// Integers are written as bare numbers so the text reads like the statement
// that ran; anything else is quoted.
func debugSQL(q sq.SelectBuilder) string {
	query, args, err := q.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return fmt.Sprintf("[ToSql error: %s]", err)
	}

	var b strings.Builder
	for _, arg := range args {
		i := strings.IndexByte(query, '?')
		if i < 0 {
			break
		}
		b.WriteString(query[:i])
		b.WriteString(debugArg(arg))
		query = query[i+1:]
	}
	b.WriteString(query)
	return b.String()
}

func debugArg(arg interface{}) string {
	switch v := arg.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
	}
}
