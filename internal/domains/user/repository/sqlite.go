package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	user "observatory-backend/internal/domains/user"
	"observatory-backend/pkg/cache"
)

type sqliteRepository struct {
	db        *sql.DB
	nicknames nicknameCache
}

// NewSQLiteRepository tạo user.Repository trên database/sql + modernc sqlite.
// c có thể nil (không cache).
func NewSQLiteRepository(db *sql.DB, c cache.Cache, nicknameTTL time.Duration) user.Repository {
	return &sqliteRepository{
		db:        db,
		nicknames: newNicknameCache(c, nicknameTTL),
	}
}

// Create dùng ON CONFLICT DO NOTHING: username trùng => 0 rows affected
func (r *sqliteRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (username, password_hash, email, nickname)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, u.Username, u.PasswordHash, u.Email, u.Nickname)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert user rows affected: %w", err)
	}
	if n == 0 {
		return user.ErrUsernameTaken
	}

	r.nicknames.set(ctx, u.Username, u.Nickname)
	return nil
}

func (r *sqliteRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `
		SELECT username, password_hash, email, nickname
		FROM users
		WHERE username = ?
	`

	var u user.User
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&u.Username,
		&u.PasswordHash,
		&u.Email,
		&u.Nickname,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}

	return &u, nil
}

func (r *sqliteRepository) FindNickname(ctx context.Context, username string) (string, error) {
	// STEP 1: CHECK CACHE FIRST
	if nickname, ok := r.nicknames.get(ctx, username); ok {
		return nickname, nil
	}

	// STEP 2: CACHE MISS - QUERY DATABASE
	var nickname string
	err := r.db.QueryRowContext(ctx, `SELECT nickname FROM users WHERE username = ?`, username).Scan(&nickname)
	if errors.Is(err, sql.ErrNoRows) {
		return "", user.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find nickname: %w", err)
	}

	// STEP 3: POPULATE CACHE
	r.nicknames.set(ctx, username, nickname)
	return nickname, nil
}
