package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	user "observatory-backend/internal/domains/user"
	"observatory-backend/pkg/cache"
)

// unique_violation
const uniqueViolation = "23505"

// postgresRepository là concrete implementation của user.Repository trên pgxpool
type postgresRepository struct {
	pool      *pgxpool.Pool
	nicknames nicknameCache
}

// NewPostgresRepository - return interface để caller không phụ thuộc implementation
func NewPostgresRepository(pool *pgxpool.Pool, c cache.Cache, nicknameTTL time.Duration) user.Repository {
	return &postgresRepository{
		pool:      pool,
		nicknames: newNicknameCache(c, nicknameTTL),
	}
}

func (r *postgresRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (username, password_hash, email, nickname)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.pool.Exec(ctx, query, u.Username, u.PasswordHash, u.Email, u.Nickname); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	r.nicknames.set(ctx, u.Username, u.Nickname)
	return nil
}

func (r *postgresRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `
		SELECT username, password_hash, email, nickname
		FROM users
		WHERE username = $1
	`

	var u user.User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&u.Username,
		&u.PasswordHash,
		&u.Email,
		&u.Nickname,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}

	return &u, nil
}

func (r *postgresRepository) FindNickname(ctx context.Context, username string) (string, error) {
	if nickname, ok := r.nicknames.get(ctx, username); ok {
		return nickname, nil
	}

	var nickname string
	err := r.pool.QueryRow(ctx, `SELECT nickname FROM users WHERE username = $1`, username).Scan(&nickname)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", user.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find nickname: %w", err)
	}

	r.nicknames.set(ctx, username, nickname)
	return nickname, nil
}
