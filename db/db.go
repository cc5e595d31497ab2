package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"task_app_backend/config"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// OpenDB opens and pings the database selected by cfg.Driver.
func OpenDB(cfg config.DB) (*sql.DB, error) {
	var dsn string
	switch cfg.Driver {
	case "postgres":
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
	case "sqlite":
		dsn = cfg.SQLiteDSN
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" {
		// :memory: databases are per connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

var schema = map[string]string{
	"postgres": `
        CREATE TABLE IF NOT EXISTS tasks (
            id              BIGSERIAL PRIMARY KEY,
            description     TEXT NOT NULL,
            is_reminder_set BOOLEAN NOT NULL DEFAULT FALSE,
            is_task_open    BOOLEAN NOT NULL DEFAULT TRUE,
            created_on      TIMESTAMP NOT NULL,
            priority        TEXT NOT NULL
        )`,
	"sqlite": `
        CREATE TABLE IF NOT EXISTS tasks (
            id              INTEGER PRIMARY KEY AUTOINCREMENT,
            description     TEXT NOT NULL,
            is_reminder_set BOOLEAN NOT NULL DEFAULT FALSE,
            is_task_open    BOOLEAN NOT NULL DEFAULT TRUE,
            created_on      TIMESTAMP NOT NULL,
            priority        TEXT NOT NULL
        )`,
}

// EnsureSchema creates the tasks table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB, driver string) error {
	ddl, ok := schema[driver]
	if !ok {
		return fmt.Errorf("no schema for driver %q", driver)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_description ON tasks(description)`); err != nil {
		return fmt.Errorf("create description index: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_open ON tasks(is_task_open)`); err != nil {
		return fmt.Errorf("create open index: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders into $n for postgres.
func rebind(driver, query string) string {
	if driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
