package service

import (
	"context"

	"observatory-backend/internal/domains/record/model"
	"observatory-backend/internal/infrastructure/weather"
)

// =====================================================
// RECORD SERVICE INTERFACE
// =====================================================

type ServiceInterface interface {
	// ResolveOwner map username đã authenticate -> nickname dùng làm record_owner
	ResolveOwner(ctx context.Context, username string) (string, error)

	// CreateRecord lưu record mới thuộc về nickname, trả id
	CreateRecord(ctx context.Context, nickname string, req *model.RecordRequest) (int64, error)

	// GetRecord gets record by ID
	GetRecord(ctx context.Context, id int64) (*model.RecordResponse, error)

	// ListRecords trả tất cả records (slice rỗng nếu chưa có)
	ListRecords(ctx context.Context) ([]model.RecordResponse, error)

	// UpdateRecord chỉ owner mới được update; trả record sau khi đọc lại từ store
	UpdateRecord(ctx context.Context, nickname string, id int64, req *model.RecordRequest) (*model.RecordResponse, error)
}

// =====================================================
// DEPENDENCIES
// =====================================================

// NicknameResolver - user.Service thỏa interface này
type NicknameResolver interface {
	Nickname(ctx context.Context, username string) (string, error)
}

// WeatherLookup - weather.Enricher; Lookup không bao giờ fail
type WeatherLookup interface {
	Lookup(ctx context.Context, lat, lon float64) weather.Sample
}

// OperationRecorder đếm operations theo outcome (pkg/metrics)
type OperationRecorder interface {
	IncRecordOperation(operation, outcome string)
}
