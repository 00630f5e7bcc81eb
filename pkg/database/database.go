package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"task-manager/configs"
	"task-manager/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqlitePragmas: foreign key aktif, menunggu lock, dan mengambil write lock
// saat BEGIN supaya transaksi baca-lalu-tulis berjalan berurutan.
const sqlitePragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"

// ConnectDB membuka koneksi sesuai DB_DRIVER dan memastikan database bisa di-ping.
func ConnectDB(ctx context.Context, cfg configs.Config) (*sql.DB, repository.Dialect, error) {
	dialect, err := repository.DialectFor(cfg.DBDriver)
	if err != nil {
		return nil, 0, err
	}

	var db *sql.DB
	switch cfg.DBDriver {
	case "sqlite":
		db, err = OpenSQLite(cfg.DatabaseURL)
	default:
		db, err = sql.Open(cfg.DBDriver, cfg.PostgresDSN())
		if err == nil {
			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(time.Hour)
		}
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, 0, fmt.Errorf("ping database: %w", err)
	}
	return db, dialect, nil
}

// OpenSQLite membuka file sqlite. URL gaya SQLAlchemy juga diterima:
// sqlite:///relative.db dan sqlite:////absolute.db.
func OpenSQLite(path string) (*sql.DB, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "sqlite:///")
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	return sql.Open("sqlite", filepath.Clean(path)+sqlitePragmas)
}
