package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smallbiznis/clubos/internal/booking/domain"
	"gorm.io/gorm"
)

// lookupLimit is two so callers can tell a unique match from an inconsistent one.
const lookupLimit = 2

type bookingRecord struct {
	FacilityID string    `gorm:"column:facility_id;primaryKey;type:text"`
	ID         string    `gorm:"column:id;primaryKey;type:text;index"`
	CourtID    string    `gorm:"column:court_id;type:text"`
	StartTime  time.Time `gorm:"column:start_time"`
	EndTime    time.Time `gorm:"column:end_time"`
	Status     string    `gorm:"column:status;type:text;not null"`

	PaymentProvider     string     `gorm:"column:payment_provider;type:text"`
	PaymentProviderID   string     `gorm:"column:payment_provider_id;type:text"`
	PaymentSessionID    string     `gorm:"column:payment_session_id;type:text;index"`
	PaymentAmount       int64      `gorm:"column:payment_amount"`
	PaymentCurrency     string     `gorm:"column:payment_currency;type:text"`
	PaymentStatusDetail string     `gorm:"column:payment_status_detail;type:text"`
	PaymentApprovedAt   *time.Time `gorm:"column:payment_approved_at"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (bookingRecord) TableName() string { return "bookings" }

type repo struct {
	db *gorm.DB
}

func NewSQL(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

// Migrate creates the bookings table for dialects without SQL migrations.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&bookingRecord{})
}

func (r *repo) FindByID(ctx context.Context, bookingID string) ([]*domain.Booking, error) {
	var records []bookingRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", bookingID).
		Order("facility_id").
		Limit(lookupLimit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toBookings(records), nil
}

func (r *repo) FindBySessionID(ctx context.Context, sessionID string) ([]*domain.Booking, error) {
	var records []bookingRecord
	err := r.db.WithContext(ctx).
		Where("payment_session_id = ?", sessionID).
		Order("facility_id, id").
		Limit(lookupLimit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toBookings(records), nil
}

func (r *repo) FindInFacility(ctx context.Context, facilityID, bookingID string) (*domain.Booking, error) {
	var record bookingRecord
	err := r.db.WithContext(ctx).
		Where("facility_id = ? AND id = ?", facilityID, bookingID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *repo) ApplyUpdate(ctx context.Context, current *domain.Booking, update domain.StatusUpdate) (*domain.Booking, error) {
	if current == nil {
		return nil, domain.ErrNotFound
	}

	tx := r.db.WithContext(ctx).
		Model(&bookingRecord{}).
		Where("facility_id = ? AND id = ? AND status = ?", current.FacilityID, current.ID, string(current.Status)).
		Updates(updateColumns(update))
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		if _, err := r.FindInFacility(ctx, current.FacilityID, current.ID); err != nil {
			return nil, err
		}
		return nil, domain.ErrConcurrentUpdate
	}

	return r.FindInFacility(ctx, current.FacilityID, current.ID)
}

func updateColumns(update domain.StatusUpdate) map[string]any {
	columns := map[string]any{
		"status":     string(update.Status),
		"updated_at": update.UpdatedAt,
	}
	payment := update.Payment
	if payment == nil {
		return columns
	}
	if payment.Provider != "" {
		columns["payment_provider"] = payment.Provider
	}
	if payment.ProviderPaymentID != "" {
		columns["payment_provider_id"] = payment.ProviderPaymentID
	}
	if payment.SessionID != "" {
		columns["payment_session_id"] = payment.SessionID
	}
	if payment.Amount != 0 {
		columns["payment_amount"] = payment.Amount
	}
	if payment.Currency != "" {
		columns["payment_currency"] = payment.Currency
	}
	if payment.StatusDetail != "" {
		columns["payment_status_detail"] = payment.StatusDetail
	}
	if payment.ApprovedAt != nil {
		columns["payment_approved_at"] = payment.ApprovedAt.UTC()
	}
	return columns
}

func toBookings(records []bookingRecord) []*domain.Booking {
	out := make([]*domain.Booking, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out
}

func (r bookingRecord) toDomain() *domain.Booking {
	booking := &domain.Booking{
		ID:         r.ID,
		FacilityID: r.FacilityID,
		CourtID:    r.CourtID,
		StartTime:  r.StartTime.UTC(),
		EndTime:    r.EndTime.UTC(),
		Status:     domain.Status(strings.TrimSpace(r.Status)),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
		Revision:   r.UpdatedAt.UTC(),
	}
	if r.hasPayment() {
		payment := &domain.Payment{
			Provider:          r.PaymentProvider,
			ProviderPaymentID: r.PaymentProviderID,
			SessionID:         r.PaymentSessionID,
			Amount:            r.PaymentAmount,
			Currency:          r.PaymentCurrency,
			StatusDetail:      r.PaymentStatusDetail,
		}
		if r.PaymentApprovedAt != nil {
			approvedAt := r.PaymentApprovedAt.UTC()
			payment.ApprovedAt = &approvedAt
		}
		booking.Payment = payment
	}
	return booking
}

func (r bookingRecord) hasPayment() bool {
	return r.PaymentProvider != "" ||
		r.PaymentProviderID != "" ||
		r.PaymentSessionID != "" ||
		r.PaymentAmount != 0 ||
		r.PaymentCurrency != "" ||
		r.PaymentStatusDetail != "" ||
		r.PaymentApprovedAt != nil
}
