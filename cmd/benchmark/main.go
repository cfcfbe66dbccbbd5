package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"cursor-paging/internal/seed"
	"cursor-paging/internal/sqldb"
	"cursor-paging/pkg/gallery"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/twitsprout/tools"
	"github.com/twitsprout/tools/clock"
	"github.com/twitsprout/tools/lifecycle"
	"github.com/twitsprout/tools/postgres"
	"github.com/twitsprout/tools/zap"
)

var version string

type variables struct {
	DBDialect    string        `default:"sqlite" envconfig:"db_dialect"`
	DBPath       string        `default:"pictures.db" envconfig:"db_path"`
	DBTimeout    time.Duration `default:"10m" envconfig:"db_timeout"`
	PostgresHost string        `required:"false" envconfig:"postgres_host"`
	PostgresPort int           `required:"false" envconfig:"postgres_port"`
	PostgresDB   string        `required:"false" envconfig:"postgres_db"`
	PostgresUser string        `required:"false" envconfig:"postgres_user"`
	PostgresPass string        `required:"false" envconfig:"postgres_pass"`
	SeedTotal    int           `default:"1000000" envconfig:"seed_total"`
	Strategies   []string      `default:"rawsql,prepared,tracked" envconfig:"strategies"`
	LogLevel     string        `default:"warn" envconfig:"log_level"`
}

func main() {
	var v variables
	envconfig.MustProcess("cursor_paging", &v)

	logger := zap.New("cursor-paging-benchmark", version, os.Stderr)
	if err := logger.SetLevel(v.LogLevel); err != nil {
		logger.Error("failed to set log level", "error", err.Error())
	}

	lc, ctx := lifecycle.New(context.Background(), logger)
	lc.StartSignals(syscall.SIGINT, syscall.SIGTERM)
	var failed bool
	lc.Start("benchmark", func() error {
		for _, strategy := range v.Strategies {
			strategy = strings.TrimSpace(strategy)
			elapsed, err := run(ctx, v, strategy, logger)
			if err != nil {
				failed = true
				return errors.Wrapf(err, "strategy %s", strategy)
			}
			fmt.Printf("%s: %g seconds\n", strategy, elapsed.Seconds())
		}
		return errors.New("all strategies complete")
	})
	_ = lc.Wait(15 * time.Second)
	if failed {
		os.Exit(1)
	}
}

// run seeds a fresh store with the named strategy and returns how long the
// seed took.
func run(ctx context.Context, v variables, strategy string, logger tools.Logger) (time.Duration, error) {
	if err := reset(ctx, v, logger); err != nil {
		return 0, err
	}
	s, err := sqldb.New(config(v), logger)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	w, err := seed.NewWriter(strategy, s, v.SeedTotal)
	if err != nil {
		return 0, err
	}
	if bw, ok := w.(*seed.BulkWriter); ok {
		bw.OnProgress = func(done, total int) {
			logger.Info("bulk copy progress",
				"done", done,
				"total", total,
			)
		}
	}
	seeder := seed.Seeder{
		Store:     s,
		Writer:    w,
		Generator: seed.NewGenerator(&clock.Default{}, uint64(time.Now().UnixNano())),
		Logger:    logger,
		Total:     v.SeedTotal,
	}

	start := time.Now()
	res, err := seeder.Seed(ctx)
	elapsed := time.Since(start)
	if err != nil {
		return 0, err
	}
	if res != gallery.SeedSeeded {
		return 0, errors.Errorf("unexpected seed result %s", res)
	}
	return elapsed, nil
}

// reset removes every picture so each strategy starts from an empty store.
func reset(ctx context.Context, v variables, logger tools.Logger) error {
	if sqldb.Dialect(v.DBDialect) == sqldb.DialectPostgres {
		s, err := sqldb.New(config(v), logger)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.DropPictures(ctx)
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(v.DBPath + suffix); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "remove database file")
		}
	}
	return nil
}

func config(v variables) sqldb.Config {
	c := sqldb.Config{
		Dialect: sqldb.Dialect(v.DBDialect),
		Path:    v.DBPath,
		Timeout: v.DBTimeout,
		Postgres: postgres.Config{
			Host:       v.PostgresHost,
			Name:       v.PostgresDB,
			Password:   v.PostgresPass,
			Username:   v.PostgresUser,
			DisableSSL: true,
		},
	}
	if v.PostgresPort > 0 {
		c.Postgres.Port = v.PostgresPort
	}
	return c
}
