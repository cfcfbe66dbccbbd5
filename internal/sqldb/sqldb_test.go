package sqldb

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"cursor-paging/pkg/gallery"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	tm "github.com/twitsprout/tools/mock"
)

func newSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{
		Dialect: DialectSQLite,
		Path:    filepath.Join(t.TempDir(), "pictures.db"),
		Timeout: 10 * time.Second,
	}, tm.NopLogger)
	if err != nil {
		t.Fatalf("Unable to create sqlite store: %s", err.Error())
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Unable to migrate sqlite store: %s", err.Error())
	}
	return s
}

var testCreated = gallery.NewTimestamp(time.Date(2021, 6, 22, 15, 10, 41, 0, time.UTC))

func insertTestPictures(t *testing.T, s *Store, n int) []gallery.Picture {
	t.Helper()
	pictures := make([]gallery.Picture, 0, n)
	for i := 1; i <= n; i++ {
		p := gallery.Picture{
			URL:     fmt.Sprintf("https://picsum.photos/640/480/?image=%d", i),
			Created: testCreated,
		}
		res, err := s.sqldb.Exec("INSERT INTO pictures (url, created) VALUES (?, ?)", p.URL, p.Created)
		if err != nil {
			t.Fatalf("Unable to insert picture: %s", err.Error())
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			t.Fatalf("Unable to read inserted id: %s", err.Error())
		}
		pictures = append(pictures, p)
	}
	return pictures
}

func ids(pictures []gallery.Picture) []int64 {
	r := make([]int64, 0, len(pictures))
	for _, p := range pictures {
		r = append(r, p.ID)
	}
	return r
}

func TestNewUnknownDialect(t *testing.T) {
	_, err := New(Config{Dialect: "oracle"}, tm.NopLogger)
	if errors.Cause(err) != gallery.ErrUnknownDialect {
		t.Fatalf("expected ErrUnknownDialect, got %v", err)
	}
}

func TestMigrate(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("unexpected error running migrations twice: %s", err.Error())
	}
	v, dirty, err := s.MigrationVersion(ctx)
	if err != nil {
		t.Fatalf("unexpected error reading version: %s", err.Error())
	}
	if v != 1 || dirty {
		t.Fatalf("unexpected migration version %d (dirty %t)", v, dirty)
	}

	var index string
	err = s.sqldb.Get(&index, "SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'pictures' AND name = 'ix_pictures_created'")
	if err != nil {
		t.Fatalf("expected created index to exist: %s", err.Error())
	}
}

func TestMigrateReleasesConnections(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("unexpected error migrating: %s", err.Error())
	}
	if _, _, err := s.MigrationVersion(ctx); err != nil {
		t.Fatalf("unexpected error reading version: %s", err.Error())
	}
	if n := s.DB().Stats().InUse; n != 0 {
		t.Fatalf("expected every connection back in the pool, %d still in use", n)
	}
}

func TestMigrateUnknownDialect(t *testing.T) {
	s := newSQLite(t)
	s.dialect = "oracle"

	if err := s.Migrate(context.Background()); errors.Cause(err) != gallery.ErrUnknownDialect {
		t.Fatalf("expected ErrUnknownDialect, got %v", err)
	}
}

func TestCountPictures(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	has, err := s.HasPictures(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if has {
		t.Fatal("expected an empty store")
	}

	insertTestPictures(t, s, 5)

	has, err = s.HasPictures(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if !has {
		t.Fatal("expected pictures in the store")
	}
	n, err := s.CountPictures(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if n != 5 {
		t.Fatalf("expected 5 pictures, got %d", n)
	}
}

func TestListPicturesPage(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	all := insertTestPictures(t, s, 25)

	table := []struct {
		label string
		req   gallery.PagingReq
		exp   []gallery.Picture
	}{
		{"should return the first page", gallery.PagingReq{Page: 1, Size: 10}, all[0:10]},
		{"should skip the previous pages", gallery.PagingReq{Page: 2, Size: 10}, all[10:20]},
		{"should return a partial last page", gallery.PagingReq{Page: 3, Size: 10}, all[20:25]},
		{"should return nothing past the end", gallery.PagingReq{Page: 4, Size: 10}, []gallery.Picture{}},
	}
	for _, ts := range table {
		t.Run(ts.label, func(t *testing.T) {
			res, err := s.ListPicturesPage(ctx, ts.req)
			if err != nil {
				t.Fatalf("unexpected error: %s", err.Error())
			}
			if !cmp.Equal(res.Pictures, ts.exp) {
				t.Fatalf("unexpected pictures returned: %s", cmp.Diff(ts.exp, res.Pictures))
			}
		})
	}
}

func TestListPicturesAfter(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	insertTestPictures(t, s, 3)

	list := map[string]func(context.Context, gallery.CursorReq) (gallery.PictureRows, error){
		"builder": s.ListPicturesAfter,
		"sql":     s.ListPicturesAfterSQL,
	}
	table := []struct {
		label string
		after int64
		exp   []int64
	}{
		{"should start at the first row", 0, []int64{1, 2}},
		{"should continue after the cursor", 2, []int64{3}},
		{"should be empty at the last id", 3, []int64{}},
		{"should be empty past the last id", 99, []int64{}},
	}
	for name, fn := range list {
		for _, ts := range table {
			t.Run(name+": "+ts.label, func(t *testing.T) {
				res, err := fn(ctx, gallery.CursorReq{After: ts.after, Size: 2})
				if err != nil {
					t.Fatalf("unexpected error: %s", err.Error())
				}
				if got := ids(res.Pictures); !cmp.Equal(got, ts.exp) {
					t.Fatalf("unexpected ids returned: %s", cmp.Diff(ts.exp, got))
				}
			})
		}
	}
}

func TestCursorChaining(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	all := insertTestPictures(t, s, 23)

	var seen []int64
	req := gallery.CursorReq{After: 0, Size: 5}
	for {
		res, err := s.ListPicturesAfter(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %s", err.Error())
		}
		if len(res.Pictures) == 0 {
			break
		}
		for _, p := range res.Pictures {
			if p.ID <= req.After {
				t.Fatalf("id %d returned for cursor after %d", p.ID, req.After)
			}
		}
		seen = append(seen, ids(res.Pictures)...)
		req.After = gallery.NewCursor(res.Pictures).After.Int64
	}

	if exp := ids(all); !cmp.Equal(seen, exp) {
		t.Fatalf("unexpected ids visited: %s", cmp.Diff(exp, seen))
	}
}

func TestFirstPageEquivalence(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	insertTestPictures(t, s, 15)

	page, err := s.ListPicturesPage(ctx, gallery.PagingReq{Page: 1, Size: 10})
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	cursor, err := s.ListPicturesAfter(ctx, gallery.CursorReq{After: 0, Size: 10})
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if !cmp.Equal(page.Pictures, cursor.Pictures) {
		t.Fatalf("first pages differ: %s", cmp.Diff(page.Pictures, cursor.Pictures))
	}
}

func TestQuerySQL(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	page, err := s.ListPicturesPage(ctx, gallery.PagingReq{Page: 3, Size: 10})
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	exp := "SELECT pictures.id, pictures.url, pictures.created FROM pictures ORDER BY pictures.id LIMIT 10 OFFSET 20"
	if page.SQL != exp {
		t.Fatalf("unexpected paging sql: %s", cmp.Diff(exp, page.SQL))
	}

	cursor, err := s.ListPicturesAfter(ctx, gallery.CursorReq{After: 40, Size: 10})
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	exp = "SELECT pictures.id, pictures.url, pictures.created FROM pictures WHERE pictures.id > 40 ORDER BY pictures.id LIMIT 10"
	if cursor.SQL != exp {
		t.Fatalf("unexpected cursor sql: %s", cmp.Diff(exp, cursor.SQL))
	}

	raw, err := s.ListPicturesAfterSQL(ctx, gallery.CursorReq{After: 40, Size: 10})
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if raw.SQL != picturesAfterSQL {
		t.Fatalf("unexpected raw sql: %s", cmp.Diff(picturesAfterSQL, raw.SQL))
	}
}

func TestDropPictures(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	insertTestPictures(t, s, 3)

	if err := s.DropPictures(ctx); err != nil {
		t.Fatalf("unexpected error dropping: %s", err.Error())
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("unexpected error migrating: %s", err.Error())
	}
	n, err := s.CountPictures(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if n != 0 {
		t.Fatalf("expected an empty table after drop, got %d rows", n)
	}
}

func TestDoTimeout(t *testing.T) {
	s := newSQLite(t)
	s.timeout = time.Millisecond

	err := s.Do(context.Background(), "sleep", func(ctx context.Context, _ *sqlx.Conn) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if errors.Cause(err) != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDebugSQL(t *testing.T) {
	table := []struct {
		label string
		query sq.SelectBuilder
		exp   string
	}{
		{
			label: "should write integers bare",
			query: sq.Select("id").From("pictures").Where(sq.Gt{"id": int64(7)}).Where(sq.Lt{"id": 9}),
			exp:   "SELECT id FROM pictures WHERE id > 7 AND id < 9",
		},
		{
			label: "should quote and escape strings",
			query: sq.Select("id").From("pictures").Where(sq.Eq{"url": "o'brien"}),
			exp:   "SELECT id FROM pictures WHERE url = 'o''brien'",
		},
		{
			label: "should render dollar placeholders the same way",
			query: sq.Select("id").From("pictures").Where(sq.Gt{"id": int64(40)}).PlaceholderFormat(sq.Dollar),
			exp:   "SELECT id FROM pictures WHERE id > 40",
		},
	}
	for _, ts := range table {
		t.Run(ts.label, func(t *testing.T) {
			if got := debugSQL(ts.query); got != ts.exp {
				t.Fatalf("unexpected sql: %s", cmp.Diff(ts.exp, got))
			}
		})
	}
}
