package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"pyramid_empire/internal/db"
	"pyramid_empire/internal/logger"
	"pyramid_empire/internal/migrations"

	"github.com/joho/godotenv"
)

func main() {
	apply := flag.Bool("apply", false, "apply migration")
	flag.Parse()

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool := db.Connect(ctx, dsn)
	defer pool.Close()

	files, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		logger.Fatal("list migrations", "error", err)
	}

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		logger.Fatal("create schema_migrations", "error", err)
	}

	for _, name := range files {
		var done bool
		if err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name,
		).Scan(&done); err != nil {
			logger.Fatal("check migration", "name", name, "error", err)
		}

		if !*apply {
			status := "pending"
			if done {
				status = "applied"
			}
			fmt.Printf("%s\t%s\n", name, status)
			continue
		}
		if done {
			continue
		}

		b, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			logger.Fatal("read migration", "name", name, "error", err)
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			logger.Fatal("begin tx", "error", err)
		}
		if _, err := tx.Exec(ctx, string(b)); err != nil {
			_ = tx.Rollback(ctx)
			logger.Fatal("failed to apply migration", "name", name, "error", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback(ctx)
			logger.Fatal("record migration", "name", name, "error", err)
		}
		if err := tx.Commit(ctx); err != nil {
			logger.Fatal("commit migration", "name", name, "error", err)
		}
		logger.Info("applied migration", "name", name)
	}
}
