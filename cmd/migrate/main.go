// Command migrate applies the schema migrations and seed data under
// ops/migrations against the configured Postgres database.
//
// Usage:
//
//	migrate [flags] up|down|seed|status
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"storekeeper.org/internal/migrate"
)

func main() {
	log.SetFlags(0)
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dsn := flag.String("dsn", os.Getenv("STOREKEEPER_PG_DSN"), "PostgreSQL DSN")
	migrationsPath := flag.String("migrations", "ops/migrations/sql", "directory with *.up.sql / *.down.sql files")
	seedsPath := flag.String("seeds", "ops/migrations/seeds", "directory with seed *.sql files")
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		return fmt.Errorf("usage: migrate [flags] up|down|seed|status")
	}
	if *dsn == "" {
		return fmt.Errorf("missing DSN: set -dsn or STOREKEEPER_PG_DSN")
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mgr := migrate.NewManager(db, *migrationsPath, *seedsPath)

	switch cmd {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "status":
		applied, statusErr := mgr.Status(ctx)
		if statusErr != nil {
			err = statusErr
			break
		}
		if len(applied) == 0 {
			fmt.Println("no migrations applied")
			break
		}
		for _, name := range applied {
			fmt.Println(name)
		}
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", cmd, err)
	}
	return nil
}
