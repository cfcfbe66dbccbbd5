package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"cursor-paging/pkg/gallery"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/twitsprout/tools"
	"github.com/twitsprout/tools/postgres"

	// Blank import of the pure Go SQLite driver.
	_ "modernc.org/sqlite"
)

// Dialect names the SQL database a Store talks to.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// sqliteDriver is the database/sql driver name registered by modernc.org/sqlite.
const sqliteDriver = "sqlite"

func init() {
	sqlx.BindDriver(sqliteDriver, sqlx.QUESTION)
}

// Config represents the options for opening a Store.
type Config struct {
	Dialect Dialect

	// Path is the SQLite database file.
	Path string

	// Postgres holds the connection options for the postgres dialect.
	Postgres postgres.Config

	// Timeout bounds every operation run through Do. Zero disables it.
	Timeout time.Duration
}

var matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
var matchAllCap = regexp.MustCompile("([a-z0-9])([A-Z])")

func ToSnakeCase(str string) string {
	snake := matchFirstCap.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}

// Store represents the type to interact with the pictures database.
type Store struct {
	sqldb   *sqlx.DB
	pg      *postgres.DB
	dialect Dialect
	builder sq.StatementBuilderType
	timeout time.Duration
	logger  tools.Logger
}

type QueryValues struct {
	query string
	args  []interface{}
}

// New opens a new Store for the configured dialect.
func New(c Config, logger tools.Logger) (*Store, error) {
	s := &Store{
		dialect: c.Dialect,
		timeout: c.Timeout,
		logger:  logger,
	}
	switch c.Dialect {
	case DialectSQLite, "":
		db, err := sql.Open(sqliteDriver, sqliteDSN(c.Path))
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite database")
		}
		s.dialect = DialectSQLite
		s.sqldb = sqlx.NewDb(db, sqliteDriver)
		s.builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)
	case DialectPostgres:
		pg, err := postgres.NewDB(c.Postgres)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres database")
		}
		s.pg = pg
		s.sqldb = sqlx.NewDb(pg.SQLDB(), "postgres")
		s.builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	default:
		return nil, errors.Wrapf(gallery.ErrUnknownDialect, "dialect %q", c.Dialect)
	}
	s.sqldb.MapperFunc(ToSnakeCase)
	return s, nil
}

// sqliteDSN returns the modernc.org/sqlite DSN for a database file. Writers
// wait on a locked database instead of failing immediately.
func sqliteDSN(path string) string {
	if path == "" {
		path = "pictures.db"
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", path)
}

// DB returns the underlying connection pool. It is used by the seed writers,
// which manage their own transactions.
func (s *Store) DB() *sqlx.DB {
	return s.sqldb
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close releases every connection held by the Store.
func (s *Store) Close() error {
	if s.pg != nil {
		return s.pg.Close()
	}
	return s.sqldb.Close()
}

// Do acquires a single connection for the duration of fn and releases it
// once fn returns. The connection must not be retained outside of fn.
func (s *Store) Do(ctx context.Context, label string, fn func(context.Context, *sqlx.Conn) error) (err error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	conn, err := s.sqldb.Connx(ctx)
	if err != nil {
		return errors.Wrapf(err, "%s: acquire connection", label)
	}
	defer func() {
		_ = conn.Close()
		s.logger.Debug("database operation complete",
			"label", label,
			"duration", time.Since(start),
			"failed", err != nil,
		)
	}()

	return fn(ctx, conn)
}
