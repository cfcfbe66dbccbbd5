package main

import (
	"context"
	"log"
	"os"
	"syscall"
	"time"

	"cursor-paging/internal"
	"cursor-paging/internal/cache"
	"cursor-paging/internal/http"
	"cursor-paging/internal/seed"
	"cursor-paging/internal/sqldb"
	"cursor-paging/pkg/gallery"

	"cloud.google.com/go/compute/metadata"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/twitsprout/tools"
	"github.com/twitsprout/tools/clock"
	httputils "github.com/twitsprout/tools/http"
	"github.com/twitsprout/tools/lifecycle"
	"github.com/twitsprout/tools/postgres"
	"github.com/twitsprout/tools/zap"
)

var version string

type variables struct {
	Addr          string        `required:"true" envconfig:"addr"`
	DBDialect     string        `default:"sqlite" envconfig:"db_dialect"`
	DBPath        string        `default:"pictures.db" envconfig:"db_path"`
	DBTimeout     time.Duration `default:"2m" envconfig:"db_timeout"`
	PostgresHost  string        `required:"false" envconfig:"postgres_host"`
	PostgresPort  int           `required:"false" envconfig:"postgres_port"`
	PostgresDB    string        `required:"false" envconfig:"postgres_db"`
	PostgresUser  string        `required:"false" envconfig:"postgres_user"`
	PostgresPass  string        `required:"false" envconfig:"postgres_pass"`
	SeedTotal     int           `default:"1000000" envconfig:"seed_total"`
	SeedStrategy  string        `default:"rawsql" envconfig:"seed_strategy"`
	RedisAddr     string        `required:"false" envconfig:"redis_addr"`
	RedisPassword string        `required:"false" envconfig:"redis_password"`
	RedisDB       int           `required:"false" envconfig:"redis_db"`
	CountCacheTTL time.Duration `default:"5s" envconfig:"count_cache_ttl"`
	RateLimit     float64       `required:"false" envconfig:"rate_limit"`
	LogLevel      string        `required:"false" envconfig:"log_level"`
	AppName       string        `default:"cursor-paging" envconfig:"app_name"`
}

var v variables

func init() {
	if metadata.OnGCE() {
		port := os.Getenv("PORT")
		err := os.Setenv("ADDR", ":"+port)
		if err != nil {
			log.Fatal(err)
		}
	}

	envconfig.MustProcess("cursor_paging", &v)
	if v.LogLevel == "" {
		v.LogLevel = "info"
	}
}

func main() {
	logger := zap.New("cursor-paging", version, os.Stdout)
	if err := logger.SetLevel(v.LogLevel); err != nil {
		logger.Error("failed to set log level", "error", err.Error())
	}

	store := newStore(v, logger)
	defer store.Close()

	ctx := context.Background()

	lc, ctx := lifecycle.New(ctx, logger)
	lc.Start("cursor-paging root context", func() error {
		<-ctx.Done()
		return ctx.Err()
	})
	lc.StartSignals(syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var pictures internal.PictureStore = store
	var countCache *cache.PictureStore
	if v.RedisAddr != "" {
		countCache = newCountCache(ctx, v, store, logger)
		pictures = countCache
	}

	res, err := seedPictures(ctx, v, store, countCache, logger)
	logger.Info("seed operation returned",
		"result", res.String(),
	)
	if err != nil {
		logger.Error("failed to seed pictures", "error", err.Error())
	}

	h := http.Handler{
		Logger:       logger,
		Version:      version,
		PictureStore: pictures,
		AppName:      v.AppName,
		RateLimit:    v.RateLimit,
	}
	server := httputils.NewServer(v.Addr, h.Handler())
	lc.StartServer(server)
	_ = lc.Wait(15 * time.Second)
}

func newStore(v variables, logger tools.Logger) *sqldb.Store {
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
	// Only use a Postgres port if one was provided
	if v.PostgresPort > 0 {
		c.Postgres.Port = v.PostgresPort
	}
	s, err := sqldb.New(c, logger)
	if err != nil {
		panic(err)
	}
	return s
}

func seedPictures(ctx context.Context, v variables, s *sqldb.Store, countCache *cache.PictureStore, logger tools.Logger) (res gallery.SeedResult, err error) {
	w, err := seed.NewWriter(v.SeedStrategy, s, v.SeedTotal)
	if err != nil {
		return gallery.SeedError, err
	}
	seeder := seed.Seeder{
		Store:     s,
		Writer:    w,
		Generator: seed.NewGenerator(&clock.Default{}, uint64(time.Now().UnixNano())),
		Logger:    logger,
		Total:     v.SeedTotal,
	}
	if countCache != nil {
		seeder.CountCache = countCache
	}
	return seeder.Seed(ctx)
}

func newCountCache(ctx context.Context, v variables, s *sqldb.Store, logger tools.Logger) *cache.PictureStore {
	client, err := cache.NewClient(ctx, cache.Config{
		Addr:     v.RedisAddr,
		Password: v.RedisPassword,
		DB:       v.RedisDB,
	})
	if err != nil {
		panic(errors.Wrap(err, "count cache"))
	}
	return &cache.PictureStore{
		PictureStore: s,
		Client:       client,
		TTL:          v.CountCacheTTL,
		Logger:       logger,
	}
}
