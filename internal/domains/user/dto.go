package user

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ========================================
// REGISTRATION
// ========================================

// RegisterPayload là body thô của POST /registration.
// Pointer fields phân biệt "thiếu field" với "field rỗng".
type RegisterPayload struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Email    *string `json:"email"`
	Nickname *string `json:"nickname"`
}

// ToRequest kiểm tra đủ 4 fields rồi chuyển sang RegisterRequest
func (p RegisterPayload) ToRequest() (RegisterRequest, error) {
	if p.Username == nil || p.Password == nil || p.Email == nil || p.Nickname == nil {
		return RegisterRequest{}, ErrMissingFields
	}
	return RegisterRequest{
		Username: *p.Username,
		Password: *p.Password,
		Email:    *p.Email,
		Nickname: *p.Nickname,
	}, nil
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// Validate: mọi field phải non-blank, email đúng format
func (r RegisterRequest) Validate() error {
	trimmed := RegisterRequest{
		Username: strings.TrimSpace(r.Username),
		Password: strings.TrimSpace(r.Password),
		Email:    strings.TrimSpace(r.Email),
		Nickname: strings.TrimSpace(r.Nickname),
	}

	err := validation.ValidateStruct(&trimmed,
		validation.Field(&trimmed.Username, validation.Required),
		validation.Field(&trimmed.Password, validation.Required),
		validation.Field(&trimmed.Email, validation.Required),
		validation.Field(&trimmed.Nickname, validation.Required),
	)
	if err != nil {
		return ErrEmptyFields
	}

	if err := validation.Validate(trimmed.Email, is.EmailFormat); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// IsValidationError reports whether err came from request validation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrEmptyFields) ||
		errors.Is(err, ErrInvalidEmail)
}

// ========================================
// RESPONSES
// ========================================

type UserDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// TokenResponse - POST /token
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
