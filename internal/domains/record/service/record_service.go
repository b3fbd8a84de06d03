package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"observatory-backend/internal/domains/record/model"
	"observatory-backend/internal/domains/record/repository"
	"observatory-backend/internal/domains/user"
	"observatory-backend/pkg/logger"
)

const (
	opCreate = "create"
	opGet    = "get"
	opList   = "list"
	opUpdate = "update"

	outcomeOK        = "ok"
	outcomeForbidden = "forbidden"
	outcomeNotFound  = "not_found"
	outcomeError     = "error"
)

// DefaultEnrichBudget - tổng thời gian weather enrichment cho một request
const DefaultEnrichBudget = 5 * time.Second

// =====================================================
// SERVICE IMPLEMENTATION
// =====================================================

type recordService struct {
	recordRepo   repository.RecordRepository
	nicknames    NicknameResolver
	weather      WeatherLookup
	recorder     OperationRecorder
	enrichBudget time.Duration
}

// Option cấu hình recordService
type Option func(*recordService)

// WithEnrichBudget giới hạn tổng thời gian lookup weather của một request.
// Hết budget thì các observatory còn lại nhận default sample.
func WithEnrichBudget(d time.Duration) Option {
	return func(s *recordService) {
		if d > 0 {
			s.enrichBudget = d
		}
	}
}

// NewRecordService - recorder có thể nil
func NewRecordService(
	recordRepo repository.RecordRepository,
	nicknames NicknameResolver,
	weather WeatherLookup,
	recorder OperationRecorder,
	opts ...Option,
) ServiceInterface {
	s := &recordService{
		recordRepo:   recordRepo,
		nicknames:    nicknames,
		weather:      weather,
		recorder:     recorder,
		enrichBudget: DefaultEnrichBudget,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =====================================================
// OWNER RESOLUTION
// =====================================================

func (s *recordService) ResolveOwner(ctx context.Context, username string) (string, error) {
	nickname, err := s.nicknames.Nickname(ctx, username)
	if err == nil {
		return nickname, nil
	}

	// User đã qua authentication nhưng không có nickname: lỗi dữ liệu, không phải lỗi client
	if errors.Is(err, user.ErrUserNotFound) || errors.Is(err, user.ErrNicknameMissing) {
		logger.ErrorFields("authenticated user has no nickname", err, map[string]interface{}{
			"username": username,
		})
		return "", model.NewOwnerUnresolvedError(err)
	}
	return "", s.storeError("resolve_owner", 0, err)
}

// =====================================================
// CREATE RECORD
// =====================================================

func (s *recordService) CreateRecord(ctx context.Context, nickname string, req *model.RecordRequest) (int64, error) {
	// Step 1: Ownership - client không được tạo record dưới tên người khác.
	// record_owner rỗng hoặc chỉ có khoảng trắng => auto-fill
	if strings.TrimSpace(req.Owner) != "" && req.Owner != nickname {
		s.record(opCreate, outcomeForbidden)
		return 0, model.NewForbiddenError(model.MsgOwnerMismatch)
	}

	// Step 2: Build entity, owner luôn là nickname của caller
	record := req.ToRecord(nickname)

	// Step 3: Weather enrichment (best effort)
	s.enrich(ctx, record, req.Observatories)

	// Step 4: Persist
	id, err := s.recordRepo.Create(ctx, record)
	if err != nil {
		s.record(opCreate, outcomeError)
		return 0, s.storeError(opCreate, 0, err)
	}

	s.record(opCreate, outcomeOK)
	logger.Info("record created", map[string]interface{}{
		"record_id": id,
		"owner":     nickname,
	})
	return id, nil
}

// =====================================================
// READ
// =====================================================

func (s *recordService) GetRecord(ctx context.Context, id int64) (*model.RecordResponse, error) {
	record, err := s.recordRepo.GetByID(ctx, id)
	if errors.Is(err, model.ErrRecordNotFound) {
		s.record(opGet, outcomeNotFound)
		return nil, model.NewRecordNotFoundError()
	}
	if err != nil {
		s.record(opGet, outcomeError)
		return nil, s.storeError(opGet, id, err)
	}

	s.record(opGet, outcomeOK)
	resp := record.ToResponse()
	return &resp, nil
}

func (s *recordService) ListRecords(ctx context.Context) ([]model.RecordResponse, error) {
	records, err := s.recordRepo.List(ctx)
	if err != nil {
		s.record(opList, outcomeError)
		return nil, s.storeError(opList, 0, err)
	}

	responses := make([]model.RecordResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, r.ToResponse())
	}

	s.record(opList, outcomeOK)
	return responses, nil
}

// =====================================================
// UPDATE RECORD
// =====================================================

func (s *recordService) UpdateRecord(ctx context.Context, nickname string, id int64, req *model.RecordRequest) (*model.RecordResponse, error) {
	// Step 1: Record phải tồn tại
	existing, err := s.recordRepo.GetByID(ctx, id)
	if errors.Is(err, model.ErrRecordNotFound) {
		s.record(opUpdate, outcomeNotFound)
		return nil, model.NewRecordNotFoundError()
	}
	if err != nil {
		s.record(opUpdate, outcomeError)
		return nil, s.storeError(opUpdate, id, err)
	}

	// Step 2: Ownership so với record đã lưu, bỏ qua record_owner trong payload
	if existing.Owner != nickname {
		s.record(opUpdate, outcomeForbidden)
		return nil, model.NewForbiddenError(model.MsgNotOwner)
	}

	// Step 3: Build entity mới giữ nguyên owner
	record := req.ToRecord(existing.Owner)
	record.ID = id
	s.enrich(ctx, record, req.Observatories)

	// Step 4: Persist
	if err := s.recordRepo.Update(ctx, record); err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			s.record(opUpdate, outcomeNotFound)
			return nil, model.NewRecordNotFoundError()
		}
		s.record(opUpdate, outcomeError)
		return nil, s.storeError(opUpdate, id, err)
	}

	// Step 5: Đọc lại để trả đúng trạng thái đã commit
	updated, err := s.recordRepo.GetByID(ctx, id)
	if err != nil {
		s.record(opUpdate, outcomeError)
		return nil, s.storeError(opUpdate, id, err)
	}

	s.record(opUpdate, outcomeOK)
	logger.Info("record updated", map[string]interface{}{
		"record_id": id,
		"owner":     nickname,
	})
	resp := updated.ToResponse()
	return &resp, nil
}

// =====================================================
// HELPERS
// =====================================================

// enrich gắn weather sample cho mỗi observatory có observatory_weather.
// requests và record.Observatories cùng thứ tự (ToRecord giữ index).
func (s *recordService) enrich(ctx context.Context, record *model.Record, requests []model.ObservatoryRequest) {
	if s.weather == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.enrichBudget)
	defer cancel()

	for i, o := range requests {
		if !o.WantsWeather {
			continue
		}
		sample := s.weather.Lookup(ctx, o.Latitude, o.Longitude)
		record.Observatories[i].Weather = &model.WeatherSample{
			TemperatureKelvin:     sample.TemperatureKelvin,
			CloudinessPercent:     sample.CloudinessPercent,
			BackgroundLightVolume: sample.BackgroundLightVolume,
		}
	}
}

func (s *recordService) storeError(operation string, id int64, err error) error {
	fields := map[string]interface{}{"operation": operation}
	if id != 0 {
		fields["record_id"] = id
	}
	logger.ErrorFields("record store unavailable", err, fields)
	return model.NewStoreUnavailableError(err)
}

func (s *recordService) record(operation, outcome string) {
	if s.recorder != nil {
		s.recorder.IncRecordOperation(operation, outcome)
	}
}
