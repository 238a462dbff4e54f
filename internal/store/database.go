// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

//go:embed migrations
var migrations embed.FS

// Dialect describes the SQL differences between the supported databases.
type Dialect struct {
	Name          string // sqlite or mysql
	DriverName    string // database/sql driver name
	GooseDialect  string
	MigrationsDir string

	upsertSubscriber string
	upsertSession    string
}

// SQLite is the default dialect, backed by the pure-Go modernc driver.
var SQLite = Dialect{
	Name:          "sqlite",
	DriverName:    "sqlite",
	GooseDialect:  "sqlite3",
	MigrationsDir: "migrations/sqlite",
	upsertSubscriber: `
		INSERT INTO subscribers (email, name, subscribed_at, confirmed, unsubscribed, unsubscribed_at)
		VALUES (?, ?, ?, 0, 0, NULL)
		ON CONFLICT(email) DO UPDATE SET
			name = excluded.name,
			subscribed_at = excluded.subscribed_at,
			confirmed = 0,
			unsubscribed = 0,
			unsubscribed_at = NULL`,
	upsertSession: `
		INSERT INTO user_sessions (session_id, created_at, last_activity, page_count, country, user_agent)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			last_activity = excluded.last_activity,
			page_count = user_sessions.page_count + 1`,
}

// MySQL targets MySQL 8 / MariaDB through go-sql-driver/mysql.
var MySQL = Dialect{
	Name:          "mysql",
	DriverName:    "mysql",
	GooseDialect:  "mysql",
	MigrationsDir: "migrations/mysql",
	upsertSubscriber: `
		INSERT INTO subscribers (email, name, subscribed_at, confirmed, unsubscribed, unsubscribed_at)
		VALUES (?, ?, ?, 0, 0, NULL)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			subscribed_at = VALUES(subscribed_at),
			confirmed = 0,
			unsubscribed = 0,
			unsubscribed_at = NULL`,
	upsertSession: `
		INSERT INTO user_sessions (session_id, created_at, last_activity, page_count, country, user_agent)
		VALUES (?, ?, ?, 1, ?, ?)
		ON DUPLICATE KEY UPDATE
			last_activity = VALUES(last_activity),
			page_count = page_count + 1`,
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case "sqlite", "":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
	}
}

// DBConfig holds database connection pool options.
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns sensible pool defaults for a small edge service.
func DefaultDBConfig() DBConfig {
	return DBConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// sqlitePragmas are applied to every pooled connection through the DSN.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
	"temp_store(MEMORY)",
}

// Open opens and pings a database for the given dialect.
func Open(d Dialect, dsn string) (*sql.DB, error) {
	return OpenWithConfig(d, dsn, DefaultDBConfig())
}

// OpenWithConfig opens a database with a custom pool configuration.
func OpenWithConfig(d Dialect, dsn string, cfg DBConfig) (*sql.DB, error) {
	var err error
	switch d.Name {
	case "mysql":
		dsn, err = mysqlDSN(dsn)
	default:
		dsn = sqliteDSN(dsn)
	}
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// sqliteDSN turns a file path into a modernc DSN carrying the pragmas and
// a sortable time format. DSNs that already carry a query are used as-is.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	q := url.Values{}
	for _, p := range sqlitePragmas {
		q.Add("_pragma", p)
	}
	q.Set("_time_format", "sqlite")
	return "file:" + path + "?" + q.Encode()
}

// mysqlDSN forces the options the store relies on: parsed DATETIME columns in UTC.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// Migrate runs all pending database migrations for the dialect.
func Migrate(db *sql.DB, d Dialect) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect(d.GooseDialect); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db, d.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}
