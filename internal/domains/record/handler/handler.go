package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"observatory-backend/internal/domains/record/model"
	"observatory-backend/internal/domains/record/service"
	"observatory-backend/internal/shared/middleware"
	"observatory-backend/internal/shared/response"
)

// MaxBodyBytes giới hạn body của POST/PUT /datarecord
const MaxBodyBytes = 1 << 20

// =====================================================
// RECORD HANDLER
// =====================================================

type RecordHandler struct {
	recordService service.ServiceInterface
}

func NewRecordHandler(recordService service.ServiceInterface) *RecordHandler {
	return &RecordHandler{
		recordService: recordService,
	}
}

// =====================================================
// ENDPOINTS
// =====================================================

// CreateRecord stores a new observation record
// POST /datarecord
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	// Step 1: Resolve nickname của user đã authenticate
	nickname, err := h.recordService.ResolveOwner(c.Request.Context(), middleware.Username(c))
	if err != nil {
		respondRecordError(c, err)
		return
	}

	// Step 2: Parse + validate body
	req, err := parseBody(c)
	if err != nil {
		respondRecordError(c, err)
		return
	}

	// Step 3: Call service
	id, err := h.recordService.CreateRecord(c.Request.Context(), nickname, req)
	if err != nil {
		respondRecordError(c, err)
		return
	}

	// Step 4: 200 không có body
	c.Header("Location", fmt.Sprintf("/datarecord?id=%d", id))
	response.NoContent(c, http.StatusOK)
}

// GetRecords lists all records, or one record when ?id= is given
// GET /datarecord
func (h *RecordHandler) GetRecords(c *gin.Context) {
	if _, ok := c.GetQuery("id"); ok {
		h.getRecord(c)
		return
	}

	records, err := h.recordService.ListRecords(c.Request.Context())
	if err != nil {
		respondRecordError(c, err)
		return
	}

	// Zero records => 204, không phải []
	if len(records) == 0 {
		response.NoContent(c, http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *RecordHandler) getRecord(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondRecordError(c, err)
		return
	}

	record, err := h.recordService.GetRecord(c.Request.Context(), id)
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// UpdateRecord replaces the content of an owned record
// PUT /datarecord?id=N
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	// Step 1: Parse record ID
	id, err := parseID(c)
	if err != nil {
		respondRecordError(c, err)
		return
	}

	// Step 2: Parse + validate body
	req, err := parseBody(c)
	if err != nil {
		respondRecordError(c, err)
		return
	}

	// Step 3: Resolve nickname
	nickname, err := h.recordService.ResolveOwner(c.Request.Context(), middleware.Username(c))
	if err != nil {
		respondRecordError(c, err)
		return
	}

	// Step 4: Call service (exists -> owner -> persist -> re-read)
	record, err := h.recordService.UpdateRecord(c.Request.Context(), nickname, id, req)
	if err != nil {
		respondRecordError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// NotSupported trả 400 cho method không hỗ trợ
func NotSupported(c *gin.Context) {
	response.BadRequest(c, "Not supported")
}

// =====================================================
// HELPER FUNCTIONS
// =====================================================

func parseBody(c *gin.Context) (*model.RecordRequest, error) {
	if !middleware.IsJSON(c) {
		return nil, model.NewMediaTypeError()
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
	if err != nil {
		return nil, model.NewMalformedJSONError()
	}
	return model.ParseRecordRequest(body)
}

func parseID(c *gin.Context) (int64, error) {
	raw, ok := c.GetQuery("id")
	if !ok {
		return 0, model.NewInvalidIDError(model.MsgMissingID)
	}
	// id <= 0 vẫn hợp lệ về cú pháp, store trả not found
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, model.NewInvalidIDError(model.MsgInvalidID)
	}
	return id, nil
}

func respondRecordError(c *gin.Context, err error) {
	statusCode, errCode := mapRecordError(err)

	message := "Internal server error"
	var recErr *model.RecordError
	if errors.As(err, &recErr) {
		message = recErr.Message
	}
	response.ErrorResponse(c, statusCode, errCode, message)
}

// mapRecordError maps domain errors to HTTP status codes
func mapRecordError(err error) (int, string) {
	recErr, ok := model.AsRecordError(err)
	if !ok {
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}

	switch recErr.Code {
	case model.ErrCodeInvalidInput,
		model.ErrCodeMalformedJSON,
		model.ErrCodeMediaType,
		model.ErrCodeInvalidID:
		return http.StatusBadRequest, recErr.Code
	case model.ErrCodeRecordNotFound:
		return http.StatusNotFound, recErr.Code
	case model.ErrCodeForbidden:
		return http.StatusForbidden, recErr.Code
	default:
		return http.StatusInternalServerError, recErr.Code
	}
}
