package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	user "observatory-backend/internal/domains/user"
	"observatory-backend/pkg/jwt"
	"observatory-backend/pkg/password"
)

// userService implement user.Service.
// Đây cũng là credential verifier duy nhất: thuật toán hash do Hasher quyết định.
type userService struct {
	repo       user.Repository
	hasher     password.Hasher
	jwtManager *jwt.Manager
}

// NewUserService - jwtManager có thể nil nếu không bật bearer tokens
func NewUserService(repo user.Repository, hasher password.Hasher, jwtManager *jwt.Manager) user.Service {
	return &userService{
		repo:       repo,
		hasher:     hasher,
		jwtManager: jwtManager,
	}
}

// Register: validate -> hash -> persist. Plaintext password không bao giờ được lưu.
func (s *userService) Register(ctx context.Context, req user.RegisterRequest) (*user.UserDTO, error) {
	// 1. VALIDATE INPUT
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. HASH PASSWORD
	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 3. PERSIST
	// username là unique key; repository trả ErrUsernameTaken khi trùng
	newUser := &user.User{
		Username:     req.Username,
		PasswordHash: passwordHash,
		Email:        strings.TrimSpace(req.Email),
		Nickname:     req.Nickname,
	}
	if err := s.repo.Create(ctx, newUser); err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	dto := newUser.ToDTO()
	return &dto, nil
}

// Verify kiểm tra username/password. Hash hỏng hoặc user không tồn tại => false.
func (s *userService) Verify(ctx context.Context, username, plain string) (bool, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, user.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find user: %w", err)
	}

	return s.hasher.Verify(plain, u.PasswordHash), nil
}

func (s *userService) Nickname(ctx context.Context, username string) (string, error) {
	nickname, err := s.repo.FindNickname(ctx, username)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(nickname) == "" {
		return "", user.ErrNicknameMissing
	}
	return nickname, nil
}

func (s *userService) IssueToken(ctx context.Context, username string) (*user.TokenResponse, error) {
	if s.jwtManager == nil {
		return nil, errors.New("token issuing is not configured")
	}

	token, expiresAt, err := s.jwtManager.GenerateAccessToken(username)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	return &user.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}
