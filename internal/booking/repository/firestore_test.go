package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/smallbiznis/clubos/internal/booking/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirestoreUpdatesUseFieldPaths(t *testing.T) {
	approvedAt := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	updates := firestoreUpdates(domain.StatusUpdate{
		Status:    domain.StatusConfirmed,
		UpdatedAt: approvedAt,
		Payment: &domain.Payment{
			Provider:          "mercadopago",
			ProviderPaymentID: "123",
			ApprovedAt:        &approvedAt,
		},
	})

	paths := make([]string, 0, len(updates))
	for _, u := range updates {
		paths = append(paths, u.Path)
	}
	assert.Equal(t, []string{
		"status",
		"updatedAt",
		"payment.provider",
		"payment.providerPaymentId",
		"payment.approvedAt",
	}, paths)
}

func TestFirestoreUpdatesWithoutPayment(t *testing.T) {
	updates := firestoreUpdates(domain.StatusUpdate{Status: domain.StatusExpired, UpdatedAt: time.Now()})
	require.Len(t, updates, 2)
	assert.Equal(t, "expired", updates[0].Value)
}

func TestFacilityOfAcceptsOnlyFacilityBookings(t *testing.T) {
	client := &firestore.Client{}

	id, ok := facilityOf(client.Doc("facilities/F1/bookings/B1"))
	require.True(t, ok)
	assert.Equal(t, "F1", id)

	for _, path := range []string{
		"users/U1/bookings/B1",
		"bookings/B1",
		"facilities/F1/reservations/B1",
		"tenants/T1/facilities/F1/bookings/B1",
	} {
		_, ok := facilityOf(client.Doc(path))
		assert.False(t, ok, path)
	}
	_, ok = facilityOf(nil)
	assert.False(t, ok)
}

func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "clubos-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestFirestoreRepositoryAgainstEmulator(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := context.Background()
	repo := NewFirestore(client)

	facilityID := "F-" + uuid.NewString()
	bookingID := "B-" + uuid.NewString()
	sessionID := "cs_" + uuid.NewString()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := client.Collection(facilitiesCollection).Doc(facilityID).Set(ctx, map[string]any{"name": "Club"})
	require.NoError(t, err)
	_, err = client.Collection(facilitiesCollection).Doc(facilityID).Collection(bookingsCollection).Doc(bookingID).Set(ctx, map[string]any{
		"status":    "pending",
		"createdAt": created,
		"updatedAt": created,
		"payment":   map[string]any{"provider": "stripe", "sessionId": sessionID},
	})
	require.NoError(t, err)

	stray := map[string]any{"id": bookingID, "status": "pending", "createdAt": created}
	_, err = client.Collection("users").Doc("U-"+uuid.NewString()).Collection(bookingsCollection).Doc(bookingID).Set(ctx, stray)
	require.NoError(t, err)
	_, err = client.Collection(bookingsCollection).Doc(bookingID).Set(ctx, stray)
	require.NoError(t, err)
	_, err = client.Collection(facilitiesCollection).Doc(facilityID).Collection(bookingsCollection).Doc(bookingID).Update(ctx, []firestore.Update{{Path: "id", Value: bookingID}})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, bookingID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, facilityID, found[0].FacilityID)

	bySession, err := repo.FindBySessionID(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, bySession, 1)

	current := found[0]
	updated, err := repo.ApplyUpdate(ctx, current, domain.StatusUpdate{
		Status:    domain.StatusConfirmed,
		UpdatedAt: created.Add(time.Hour),
		Payment:   &domain.Payment{ProviderPaymentID: "pi_1"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	assert.Equal(t, sessionID, updated.Payment.SessionID)

	_, err = repo.ApplyUpdate(ctx, current, domain.StatusUpdate{Status: domain.StatusPaymentFailed, UpdatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
}
