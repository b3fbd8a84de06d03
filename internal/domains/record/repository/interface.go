package repository

import (
	"context"
	"time"

	"observatory-backend/internal/domains/record/model"
)

// =====================================================
// RECORD REPOSITORY INTERFACE
// =====================================================

// RecordRepository persists observation records with their observatories.
// Mọi operation chạy trong một transaction: reader không bao giờ thấy
// record thiếu observatories hoặc observatory set đang thay dở.
type RecordRepository interface {
	// Create gán id + record_time_received, lưu record và observatories (atomic)
	Create(ctx context.Context, record *model.Record) (int64, error)

	// GetByID returns model.ErrRecordNotFound nếu id không tồn tại
	GetByID(ctx context.Context, id int64) (*model.Record, error)

	// List trả tất cả records theo id tăng dần
	List(ctx context.Context) ([]*model.Record, error)

	// Update ghi đè mutable fields, stamp edited, thay toàn bộ observatories.
	// record_owner và record_time_received không bao giờ bị đụng tới.
	// Returns model.ErrRecordNotFound nếu id không tồn tại
	Update(ctx context.Context, record *model.Record) error
}

// Clock trả thời điểm hiện tại cho timestamps do store gán
type Clock func() time.Time

// Option cấu hình repository
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock thay clock mặc định (tests dùng clock cố định)
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		clock: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// now truncate về millisecond để khớp với storage (epoch millis)
func (o options) now() time.Time {
	return o.clock().UTC().Truncate(time.Millisecond)
}

// updateReason trả "N/A" khi client không gửi hoặc gửi chuỗi rỗng
func updateReason(reason *string) string {
	if reason == nil || isBlank(*reason) {
		return model.UpdateReasonNotAvailable
	}
	return *reason
}
