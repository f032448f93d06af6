package repository

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/clubos/internal/booking/domain"
	"github.com/smallbiznis/clubos/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) (domain.Repository, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))
	return NewSQL(conn), conn
}

func seedBooking(t *testing.T, conn *gorm.DB, b domain.Booking) {
	t.Helper()

	record := bookingRecord{
		FacilityID: b.FacilityID,
		ID:         b.ID,
		CourtID:    b.CourtID,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
	if p := b.Payment; p != nil {
		record.PaymentProvider = p.Provider
		record.PaymentSessionID = p.SessionID
	}
	require.NoError(t, conn.Create(&record).Error)
}

func pendingBooking(facilityID, bookingID string) domain.Booking {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return domain.Booking{
		ID:         bookingID,
		FacilityID: facilityID,
		CourtID:    "court-1",
		StartTime:  created.Add(24 * time.Hour),
		EndTime:    created.Add(25 * time.Hour),
		Status:     domain.StatusPending,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestFindByIDSearchesAllFacilities(t *testing.T) {
	repo, conn := newTestRepo(t)
	seedBooking(t, conn, pendingBooking("F1", "B1"))
	seedBooking(t, conn, pendingBooking("F3", "B2"))

	for _, id := range []string{"B1", "B2"} {
		found, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, id, found[0].ID)
	}

	found, err := repo.FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFindByIDReturnsDuplicatesInOrder(t *testing.T) {
	repo, conn := newTestRepo(t)
	seedBooking(t, conn, pendingBooking("F2", "DUP"))
	seedBooking(t, conn, pendingBooking("F1", "DUP"))

	found, err := repo.FindByID(context.Background(), "DUP")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "F1", found[0].FacilityID)
}

func TestFindBySessionID(t *testing.T) {
	repo, conn := newTestRepo(t)
	b := pendingBooking("F1", "B1")
	b.Payment = &domain.Payment{Provider: "stripe", SessionID: "cs_test_1"}
	seedBooking(t, conn, b)

	found, err := repo.FindBySessionID(context.Background(), "cs_test_1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "B1", found[0].ID)
	require.NotNil(t, found[0].Payment)
	assert.Equal(t, "cs_test_1", found[0].Payment.SessionID)
}

func TestFindInFacilityNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.FindInFacility(context.Background(), "F1", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyUpdateMergesPayment(t *testing.T) {
	repo, conn := newTestRepo(t)
	b := pendingBooking("F1", "B1")
	b.Payment = &domain.Payment{Provider: "stripe", SessionID: "cs_test_1"}
	seedBooking(t, conn, b)

	current, err := repo.FindInFacility(context.Background(), "F1", "B1")
	require.NoError(t, err)

	approvedAt := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	updated, err := repo.ApplyUpdate(context.Background(), current, domain.StatusUpdate{
		Status: domain.StatusConfirmed,
		Payment: &domain.Payment{
			Provider:          "stripe",
			ProviderPaymentID: "pi_1",
			Amount:            4500,
			Currency:          "USD",
			ApprovedAt:        &approvedAt,
		},
		UpdatedAt: approvedAt,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	assert.Equal(t, approvedAt, updated.UpdatedAt)
	require.NotNil(t, updated.Payment)
	assert.Equal(t, "cs_test_1", updated.Payment.SessionID)
	assert.Equal(t, "pi_1", updated.Payment.ProviderPaymentID)
	assert.Equal(t, int64(4500), updated.Payment.Amount)
	assert.Equal(t, "court-1", updated.CourtID)
}

func TestApplyUpdateDetectsConcurrentChange(t *testing.T) {
	repo, conn := newTestRepo(t)
	seedBooking(t, conn, pendingBooking("F1", "B1"))

	stale, err := repo.FindInFacility(context.Background(), "F1", "B1")
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = repo.ApplyUpdate(context.Background(), stale, domain.StatusUpdate{Status: domain.StatusConfirmed, UpdatedAt: now})
	require.NoError(t, err)

	_, err = repo.ApplyUpdate(context.Background(), stale, domain.StatusUpdate{Status: domain.StatusPaymentFailed, UpdatedAt: now})
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)

	final, err := repo.FindInFacility(context.Background(), "F1", "B1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, final.Status)
}

func TestApplyUpdateMissingBooking(t *testing.T) {
	repo, _ := newTestRepo(t)
	ghost := pendingBooking("F1", "ghost")

	_, err := repo.ApplyUpdate(context.Background(), &ghost, domain.StatusUpdate{Status: domain.StatusExpired, UpdatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
