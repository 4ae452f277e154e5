/**
 * @description
 * Relational store connection manager using GORM.
 * Picks the dialector from the DATABASE_URL scheme and applies pool settings.
 *
 * @dependencies
 * - gorm.io/gorm: ORM library
 * - gorm.io/driver/postgres: Postgres driver
 * - gorm.io/driver/sqlite: SQLite driver (local runs and tests)
 *
 * @notes
 * - sqlite:// URLs follow the SQLAlchemy layout: sqlite:///relative.db, sqlite:////abs.db,
 *   sqlite:// or sqlite:///:memory: for an in-memory database.
 * - SQLite is always opened with foreign key enforcement and a single pooled connection.
 */

package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/earnings-navigator/backend/internal/config"
	"github.com/earnings-navigator/backend/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Kind identifies the database engine behind a URL
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
)

const (
	memoryDSN      = ":memory:"
	connectTimeout = 5 * time.Second
	slowQuery      = 200 * time.Millisecond
)

// Connect opens the store named by cfg.DB.URL and configures its pool
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dialector, kind, memory, err := Dialector(cfg.DB.URL)
	if err != nil {
		return nil, err
	}

	// Configure GORM logger based on environment
	gormLogLevel := gormLogger.Error
	switch cfg.Server.Env {
	case "development":
		gormLogLevel = gormLogger.Info
	case "staging":
		gormLogLevel = gormLogger.Warn
	case "test":
		gormLogLevel = gormLogger.Silent
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.New(logger.GormWriter{}, gormLogger.Config{
			SlowThreshold:             slowQuery,
			LogLevel:                  gormLogLevel,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", kind, err)
	}

	// Get generic database object to set connection pool params
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindSQLite:
		// One writer at a time; an in-memory database also lives only as long as its connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		if !memory {
			sqlDB.SetConnMaxLifetime(cfg.DB.PoolRecycle)
			sqlDB.SetConnMaxIdleTime(cfg.DB.PoolRecycle)
		}
		logger.Debug("SQLite pool: max_open=1 memory=%t recycle=%s", memory, cfg.DB.PoolRecycle)
	default:
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.DB.PoolRecycle)
		sqlDB.SetConnMaxIdleTime(cfg.DB.PoolRecycle)
		logger.Debug("Postgres pool: max_open=%d max_idle=%d recycle=%s",
			cfg.DB.MaxOpenConns, cfg.DB.MaxIdleConns, cfg.DB.PoolRecycle)
	}

	if cfg.DB.PrePing {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to ping %s database: %w", kind, err)
		}
	}

	logger.Info("✅ Connected to %s", kind)
	return db, nil
}

// Dialector maps a DATABASE_URL to a gorm dialector
func Dialector(rawURL string) (gorm.Dialector, Kind, bool, error) {
	switch {
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		return postgres.New(postgres.Config{
			DSN:                  rawURL,
			PreferSimpleProtocol: true, // disable prepared statements to avoid stmtcache collisions behind poolers
		}), KindPostgres, false, nil
	case strings.HasPrefix(rawURL, "sqlite://"):
		dsn, memory, err := SQLiteDSN(rawURL)
		if err != nil {
			return nil, "", false, err
		}
		return sqlite.Open(dsn), KindSQLite, memory, nil
	default:
		return nil, "", false, fmt.Errorf("unsupported database url scheme in %q", redact(rawURL))
	}
}

// SQLiteDSN converts a sqlite:// URL into a go-sqlite3 DSN with foreign keys enabled.
// The boolean reports whether the database is in-memory.
func SQLiteDSN(rawURL string) (string, bool, error) {
	rest := strings.TrimPrefix(rawURL, "sqlite://")

	path, rawQuery, _ := strings.Cut(rest, "?")
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", false, fmt.Errorf("invalid sqlite url query: %w", err)
	}
	params.Set("_foreign_keys", "on")
	if params.Get("_busy_timeout") == "" {
		params.Set("_busy_timeout", "5000")
	}

	// "sqlite://" and "sqlite:///:memory:" are in-memory; "sqlite:///x.db" is relative;
	// "sqlite:////abs/x.db" is absolute.
	path = strings.TrimPrefix(path, "/")
	memory := path == "" || path == memoryDSN
	if memory {
		path = memoryDSN
	}

	return path + "?" + params.Encode(), memory, nil
}

// redact strips credentials from a URL before it is logged or returned in an error
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	return u.Redacted()
}
