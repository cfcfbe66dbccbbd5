package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"cursor-paging/internal/sqldb"

	"github.com/twitsprout/tools/postgres"
	"github.com/twitsprout/tools/zap"
)

var (
	dialect = flag.String("dialect", "sqlite", "sqlite or postgres")
	path    = flag.String("path", "pictures.db", "sqlite database file")
	db      = flag.String("database", "postgres", "")
	host    = flag.String("host", "localhost", "")
	port    = flag.Int("port", 5432, "")
	user    = flag.String("user", "postgres", "")
	pass    = flag.String("password", "", "")
)

func main() {
	flag.Parse()
	s, err := sqldb.New(sqldb.Config{
		Dialect: sqldb.Dialect(*dialect),
		Path:    *path,
		Timeout: time.Minute,
		Postgres: postgres.Config{
			Host:       *host,
			Port:       *port,
			Name:       *db,
			Username:   *user,
			Password:   *pass,
			DisableSSL: true,
		},
	}, zap.New("cursor-paging-migrate", "", os.Stderr))
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Migrate(ctx); err != nil {
		log.Fatal(err)
	}
	version, dirty, err := s.MigrationVersion(ctx)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("pictures schema at version %d (dirty: %t)", version, dirty)
}
