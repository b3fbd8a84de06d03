package user

import "context"

// CredentialVerifier là phần authentication mà middleware cần.
// Verify trả (false, nil) khi user không tồn tại hoặc sai password;
// error chỉ dành cho lỗi storage.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (bool, error)
}

// Service định nghĩa business logic layer contract
type Service interface {
	CredentialVerifier

	// Register lưu user mới với password đã hash
	// Returns: ErrUsernameTaken nếu username đã tồn tại
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)

	// Nickname resolve username -> nickname
	Nickname(ctx context.Context, username string) (string, error)

	// IssueToken cấp access token cho user đã authenticate
	IssueToken(ctx context.Context, username string) (*TokenResponse, error)
}
