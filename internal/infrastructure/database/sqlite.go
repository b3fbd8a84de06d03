package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteDB giữ handle duy nhất tới file database.
// MaxOpenConns = 1: mọi read/write đi qua một connection, transaction của
// writer không bao giờ bị reader quan sát dở dang.
type SQLiteDB struct {
	DB   *sql.DB
	Path string
}

func sqliteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	return "file:" + path + "?" + q.Encode()
}

// OpenSQLite mở (hoặc tạo) database tại path và bootstrap schema
func OpenSQLite(ctx context.Context, path string) (*SQLiteDB, error) {
	log.Info().Str("path", path).Msg("[DATABASE] Opening SQLite database...")

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	if err := MigrateSQLite(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Msg("[DATABASE] SQLite ready")
	return &SQLiteDB{DB: db, Path: path}, nil
}

func (s *SQLiteDB) HealthCheck(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("sqlite database is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteDB) Close() error {
	if s.DB == nil {
		return nil
	}
	log.Info().Msg("[DATABASE] Closing SQLite database")
	return s.DB.Close()
}
