package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"observatory-backend/internal/shared/response"
	"observatory-backend/pkg/jwt"
	"observatory-backend/pkg/logger"
)

// ContextKeyUsername là key lưu username đã authenticate trong gin.Context
const ContextKeyUsername = "username"

// CredentialVerifier kiểm tra username/password (user.Service thỏa interface này)
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (bool, error)
}

// Authenticate - mọi request phải có Basic credentials hợp lệ hoặc Bearer token.
// tokens có thể nil: khi đó chỉ chấp nhận Basic.
func Authenticate(verifier CredentialVerifier, tokens *jwt.Manager, realm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			challenge(c, realm, "Authentication required")
			return
		}
		if authenticate(c, verifier, tokens, realm) {
			c.Next()
		}
	}
}

// OptionalAuthenticate cho phép request không có Authorization header đi qua.
// Header có mặt nhưng sai vẫn bị 401.
func OptionalAuthenticate(verifier CredentialVerifier, tokens *jwt.Manager, realm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		if authenticate(c, verifier, tokens, realm) {
			c.Next()
		}
	}
}

// Username trả username đã authenticate, "" nếu request anonymous
func Username(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

func authenticate(c *gin.Context, verifier CredentialVerifier, tokens *jwt.Manager, realm string) bool {
	authHeader := c.GetHeader("Authorization")

	// 1. Bearer <token>
	if scheme, token, ok := strings.Cut(authHeader, " "); ok && strings.EqualFold(scheme, "Bearer") {
		if tokens == nil {
			challenge(c, realm, "Bearer tokens are not enabled")
			return false
		}
		claims, err := tokens.ValidateAccessToken(strings.TrimSpace(token))
		if err != nil {
			challenge(c, realm, "Invalid token")
			return false
		}
		c.Set(ContextKeyUsername, claims.Username)
		return true
	}

	// 2. Basic base64(username:password)
	username, password, ok := c.Request.BasicAuth()
	if !ok {
		challenge(c, realm, "Invalid authorization header format")
		return false
	}

	valid, err := verifier.Verify(c.Request.Context(), username, password)
	if err != nil {
		logger.ErrorFields("credential verification failed", err, map[string]interface{}{
			"request_id": c.GetString(ContextKeyRequestID),
			"username":   username,
		})
		response.AbortWithError(c, http.StatusInternalServerError, "AUTH_002", "Database error")
		return false
	}
	if !valid {
		challenge(c, realm, "Invalid credentials")
		return false
	}

	c.Set(ContextKeyUsername, username)
	return true
}

func challenge(c *gin.Context, realm, message string) {
	c.Header("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", realm))
	response.AbortWithError(c, http.StatusUnauthorized, "AUTH_001", message)
}
