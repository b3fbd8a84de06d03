package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema bootstrap chạy mỗi lần khởi động; mọi statement đều idempotent.
// records.id dùng AUTOINCREMENT / IDENTITY nên id không bao giờ bị tái sử dụng.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		email TEXT NOT NULL,
		nickname TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target_body_name TEXT NOT NULL,
		center_body_name TEXT NOT NULL,
		epoch TEXT NOT NULL,
		orbital_elements TEXT,
		state_vector TEXT,
		record_payload TEXT NOT NULL,
		record_owner TEXT NOT NULL,
		record_time_received INTEGER NOT NULL,
		update_reason TEXT,
		edited INTEGER
	);`,
	`CREATE TABLE IF NOT EXISTS observatories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		observatory_name TEXT NOT NULL,
		temperature_in_kelvins REAL,
		cloudiness_percentage REAL,
		background_light_volume REAL,
		FOREIGN KEY(record_id) REFERENCES records(id) ON DELETE CASCADE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_observatories_record ON observatories(record_id, position);`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		email TEXT NOT NULL,
		nickname TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS records (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		target_body_name TEXT NOT NULL,
		center_body_name TEXT NOT NULL,
		epoch TEXT NOT NULL,
		orbital_elements JSONB,
		state_vector JSONB,
		record_payload TEXT NOT NULL,
		record_owner TEXT NOT NULL,
		record_time_received TIMESTAMPTZ NOT NULL,
		update_reason TEXT,
		edited TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS observatories (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		record_id BIGINT NOT NULL REFERENCES records(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		observatory_name TEXT NOT NULL,
		temperature_in_kelvins DOUBLE PRECISION,
		cloudiness_percentage DOUBLE PRECISION,
		background_light_volume DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS idx_observatories_record ON observatories(record_id, position)`,
}

// MigrateSQLite tạo tables nếu chưa có
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}

// MigratePostgres tạo tables nếu chưa có
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	return nil
}
