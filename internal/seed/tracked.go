package seed

import (
	"context"
	"database/sql"

	"cursor-paging/internal/sqldb"
	"cursor-paging/pkg/gallery"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// trackedPicture is the gorm model of a picture row. ID is left zero so the
// database assigns it.
type trackedPicture struct {
	ID      int64             `gorm:"column:id;primaryKey;autoIncrement"`
	URL     string            `gorm:"column:url"`
	Created gallery.Timestamp `gorm:"column:created"`
}

func (trackedPicture) TableName() string {
	return "pictures"
}

// TrackedWriter writes every batch through a fresh gorm session, so nothing
// from one batch is held on to while the next one is written.
type TrackedWriter struct {
	db *gorm.DB

	// Size is the number of pictures per batch.
	Size int

	// InsertSize is the number of rows per INSERT statement within a batch.
	InsertSize int
}

func NewTrackedWriter(db *sql.DB, dialect sqldb.Dialect) (*TrackedWriter, error) {
	var d gorm.Dialector
	switch dialect {
	case sqldb.DialectSQLite:
		d = &sqlite.Dialector{DriverName: "sqlite", Conn: db}
	case sqldb.DialectPostgres:
		d = postgres.New(postgres.Config{Conn: db})
	default:
		return nil, errors.Wrapf(gallery.ErrUnknownDialect, "dialect %q", dialect)
	}
	gdb, err := gorm.Open(d, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open gorm")
	}
	return &TrackedWriter{
		db:         gdb,
		Size:       10_000,
		InsertSize: 1_000,
	}, nil
}

func (w *TrackedWriter) Name() string {
	return StrategyTracked
}

func (w *TrackedWriter) BatchSize() int {
	return w.Size
}

func (w *TrackedWriter) WriteBatch(ctx context.Context, pictures []gallery.Picture) error {
	rows := make([]trackedPicture, len(pictures))
	for i, p := range pictures {
		rows[i] = trackedPicture{URL: p.URL, Created: p.Created}
	}

	session := w.db.Session(&gorm.Session{
		NewDB:           true,
		Context:         ctx,
		CreateBatchSize: w.InsertSize,
	})
	err := session.Create(&rows).Error
	return errors.Wrap(err, "create tracked batch")
}
