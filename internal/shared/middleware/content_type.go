package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"observatory-backend/internal/shared/response"
)

const MessageJSONRequired = "Content-Type must be application/json"

// IsJSON: gin.Context.ContentType() đã bỏ các params như "; charset=utf-8"
func IsJSON(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEJSON
}

// RequireJSON chặn body không phải JSON trước khi tới handler
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsJSON(c) {
			response.AbortWithError(c, http.StatusBadRequest, "REQ_001", MessageJSONRequired)
			return
		}
		c.Next()
	}
}
