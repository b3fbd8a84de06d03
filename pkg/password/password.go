// Package password chứa các hashing strategies cho credential verifier.
// Chỉ một strategy được chọn lúc khởi động (PASSWORD_HASHER).
package password

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"

	// DefaultBcryptCost giữ nguyên cost 12 như user service cũ
	DefaultBcryptCost = 12
)

var ErrUnknownAlgorithm = errors.New("unknown password hashing algorithm")

// Hasher tạo và kiểm tra password hash.
// Verify không bao giờ trả error: hash hỏng hoặc sai format => false.
type Hasher interface {
	Name() string
	Hash(plain string) (string, error)
	Verify(plain, encoded string) bool
}

// New trả về Hasher theo tên thuật toán
func New(algorithm string) (Hasher, error) {
	switch algorithm {
	case AlgorithmBcrypt, "":
		return NewBcrypt(DefaultBcryptCost), nil
	case AlgorithmArgon2id:
		return NewArgon2id(argon2id.DefaultParams), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}

// ========================================
// BCRYPT
// ========================================

type BcryptHasher struct {
	cost int
}

func NewBcrypt(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Name() string { return AlgorithmBcrypt }

func (h *BcryptHasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(plain, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain)) == nil
}

// ========================================
// ARGON2ID
// ========================================

type Argon2idHasher struct {
	params *argon2id.Params
}

func NewArgon2id(p *argon2id.Params) *Argon2idHasher {
	if p == nil {
		p = argon2id.DefaultParams
	}
	return &Argon2idHasher{params: p}
}

func (h *Argon2idHasher) Name() string { return AlgorithmArgon2id }

// Hash trả về chuỗi dạng $argon2id$v=19$m=...
func (h *Argon2idHasher) Hash(plain string) (string, error) {
	hash, err := argon2id.CreateHash(plain, h.params)
	if err != nil {
		return "", fmt.Errorf("argon2id hash: %w", err)
	}
	return hash, nil
}

func (h *Argon2idHasher) Verify(plain, encoded string) bool {
	match, err := argon2id.ComparePasswordAndHash(plain, encoded)
	if err != nil {
		return false
	}
	return match
}
