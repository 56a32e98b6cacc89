// Command migrate applies the SQL migrations under migrations/ to the
// database named by the loaded configuration.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/a16vhoss/neuropath-backend/internal/config"
)

func main() {
	dir := flag.String("dir", "migrations", "directory with migration files")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(*dir))
	if err != nil {
		log.Fatalf("create migration provider: %v", err)
	}

	results, err := provider.Up(context.Background())
	if err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	if len(results) == 0 {
		log.Println("database is up to date")
		return
	}
	for _, r := range results {
		log.Printf("applied %s in %s", r.Source.Path, r.Duration)
	}
}
