package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"observatory-backend/internal/domains/user"
	"observatory-backend/internal/shared/middleware"
	"observatory-backend/internal/shared/response"
	"observatory-backend/pkg/logger"
)

// UserHandler xử lý HTTP requests cho user domain
// Struct này là stateless - chỉ chứa dependencies
type UserHandler struct {
	service user.Service
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// Register xử lý POST /registration (không cần authentication)
func (h *UserHandler) Register(c *gin.Context) {
	// STEP 1: PARSE REQUEST BODY
	// Content-Type đã được middleware.RequireJSON kiểm tra
	var payload user.RegisterPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.BadRequest(c, user.ErrInvalidJSON.Error())
		return
	}

	req, err := payload.ToRequest()
	if err != nil {
		h.handleError(c, err)
		return
	}

	// STEP 2: CALL SERVICE LAYER
	// Service hash password và lưu user; username trùng => ErrUsernameTaken
	userDTO, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, userDTO)
}

// IssueToken xử lý POST /token
// Route nằm sau middleware.Authenticate nên username đã được xác thực
func (h *UserHandler) IssueToken(c *gin.Context) {
	username := middleware.Username(c)

	token, err := h.service.IssueToken(c.Request.Context(), username)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, token)
}

// handleError map domain errors thành HTTP status codes
func (h *UserHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrUsernameTaken):
		response.Conflict(c, err.Error())
	case user.IsValidationError(err):
		response.BadRequest(c, err.Error())
	default:
		logger.ErrorFields("user request failed", err, map[string]interface{}{
			"request_id": c.GetString(middleware.ContextKeyRequestID),
			"path":       c.Request.URL.Path,
		})
		response.InternalServerError(c, "Internal server error")
	}
}
