package user

import "context"

// Repository định nghĩa contract cho data access layer.
// Hai implementation: SQLite (mặc định) và PostgreSQL.
type Repository interface {
	// Create tạo user mới
	// Returns: ErrUsernameTaken nếu username đã tồn tại
	Create(ctx context.Context, user *User) error

	// FindByUsername tìm user theo username (dùng cho authentication)
	// Returns: ErrUserNotFound nếu không tìm thấy
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindNickname trả về nickname, có cache (nickname không bao giờ đổi)
	// Returns: ErrUserNotFound nếu không tìm thấy
	FindNickname(ctx context.Context, username string) (string, error)
}
