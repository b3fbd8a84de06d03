package user

import "errors"

// Repository-level errors
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("User already registered")
)

// Service-level errors
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNicknameMissing    = errors.New("user has no nickname")
)

// Request errors. Messages are returned to the client verbatim.
var (
	ErrMissingFields = errors.New("Missing required fields: username, password, email, nickname")
	ErrEmptyFields   = errors.New("Fields cannot be empty")
	ErrInvalidEmail  = errors.New("Invalid email format")
	ErrInvalidJSON   = errors.New("Invalid JSON format")
)
