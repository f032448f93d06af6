package repository

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/smallbiznis/clubos/internal/booking/domain"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	facilitiesCollection = "facilities"
	bookingsCollection   = "bookings"
)

// firestoreRepo reads bookings stored at facilities/{facilityId}/bookings/{bookingId}.
type firestoreRepo struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) domain.Repository {
	return &firestoreRepo{client: client}
}

// FindByID queries the bookings collection group on the mirrored id field and
// falls back to point reads in every facility for documents written without it.
func (r *firestoreRepo) FindByID(ctx context.Context, bookingID string) ([]*domain.Booking, error) {
	matches, err := collectFacilityBookings(ctx, r.client.CollectionGroup(bookingsCollection).Where("id", "==", bookingID))
	if err != nil {
		return nil, fmt.Errorf("query bookings by id: %w", err)
	}
	if len(matches) > 0 {
		return matches, nil
	}

	facilities, err := r.client.Collection(facilitiesCollection).DocumentRefs(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	if len(facilities) == 0 {
		return nil, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(facilities))
	for _, facility := range facilities {
		refs = append(refs, facility.Collection(bookingsCollection).Doc(bookingID))
	}
	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("read bookings by id: %w", err)
	}

	existing := make([]*firestore.DocumentSnapshot, 0, lookupLimit)
	for _, snap := range snaps {
		if snap == nil || !snap.Exists() {
			continue
		}
		existing = append(existing, snap)
		if len(existing) == lookupLimit {
			break
		}
	}
	return decodeBookings(existing)
}

func (r *firestoreRepo) FindBySessionID(ctx context.Context, sessionID string) ([]*domain.Booking, error) {
	matches, err := collectFacilityBookings(ctx, r.client.CollectionGroup(bookingsCollection).Where("payment.sessionId", "==", sessionID))
	if err != nil {
		return nil, fmt.Errorf("query bookings by session: %w", err)
	}
	return matches, nil
}

func (r *firestoreRepo) FindInFacility(ctx context.Context, facilityID, bookingID string) (*domain.Booking, error) {
	snap, err := r.bookingRef(facilityID, bookingID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read booking: %w", err)
	}
	return decodeBooking(snap)
}

func (r *firestoreRepo) ApplyUpdate(ctx context.Context, current *domain.Booking, update domain.StatusUpdate) (*domain.Booking, error) {
	if current == nil {
		return nil, domain.ErrNotFound
	}

	ref := r.bookingRef(current.FacilityID, current.ID)
	var preconditions []firestore.Precondition
	if !current.Revision.IsZero() {
		preconditions = append(preconditions, firestore.LastUpdateTime(current.Revision))
	} else {
		preconditions = append(preconditions, firestore.Exists)
	}

	_, err := ref.Update(ctx, firestoreUpdates(update), preconditions...)
	if err != nil {
		switch status.Code(err) {
		case codes.NotFound:
			return nil, domain.ErrNotFound
		case codes.FailedPrecondition, codes.Aborted:
			return nil, domain.ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("update booking: %w", err)
	}

	return r.FindInFacility(ctx, current.FacilityID, current.ID)
}

func (r *firestoreRepo) bookingRef(facilityID, bookingID string) *firestore.DocumentRef {
	return r.client.Collection(facilitiesCollection).Doc(facilityID).Collection(bookingsCollection).Doc(bookingID)
}

// firestoreUpdates uses field paths so sibling payment fields survive the write.
func firestoreUpdates(update domain.StatusUpdate) []firestore.Update {
	updates := []firestore.Update{
		{Path: "status", Value: string(update.Status)},
		{Path: "updatedAt", Value: update.UpdatedAt},
	}
	payment := update.Payment
	if payment == nil {
		return updates
	}
	if payment.Provider != "" {
		updates = append(updates, firestore.Update{Path: "payment.provider", Value: payment.Provider})
	}
	if payment.ProviderPaymentID != "" {
		updates = append(updates, firestore.Update{Path: "payment.providerPaymentId", Value: payment.ProviderPaymentID})
	}
	if payment.SessionID != "" {
		updates = append(updates, firestore.Update{Path: "payment.sessionId", Value: payment.SessionID})
	}
	if payment.Amount != 0 {
		updates = append(updates, firestore.Update{Path: "payment.amount", Value: payment.Amount})
	}
	if payment.Currency != "" {
		updates = append(updates, firestore.Update{Path: "payment.currency", Value: payment.Currency})
	}
	if payment.StatusDetail != "" {
		updates = append(updates, firestore.Update{Path: "payment.statusDetail", Value: payment.StatusDetail})
	}
	if payment.ApprovedAt != nil {
		updates = append(updates, firestore.Update{Path: "payment.approvedAt", Value: payment.ApprovedAt.UTC()})
	}
	return updates
}

// collectFacilityBookings reads q until lookupLimit facility bookings are found.
// The collection group also matches other subcollections named bookings, so
// the limit is applied after those are skipped.
func collectFacilityBookings(ctx context.Context, q firestore.Query) ([]*domain.Booking, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	out := make([]*domain.Booking, 0, lookupLimit)
	for len(out) < lookupLimit {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		if _, ok := facilityOf(snap.Ref); !ok {
			continue
		}
		booking, err := decodeBooking(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, booking)
	}
	return out, nil
}

// decodeBookings keeps only documents stored under a facility.
func decodeBookings(docs []*firestore.DocumentSnapshot) ([]*domain.Booking, error) {
	out := make([]*domain.Booking, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if _, ok := facilityOf(doc.Ref); !ok {
			continue
		}
		booking, err := decodeBooking(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, booking)
	}
	return out, nil
}

func decodeBooking(snap *firestore.DocumentSnapshot) (*domain.Booking, error) {
	if snap == nil || !snap.Exists() {
		return nil, domain.ErrNotFound
	}

	facilityID, ok := facilityOf(snap.Ref)
	if !ok {
		return nil, fmt.Errorf("booking document %s is outside a facility", snap.Ref.Path)
	}

	var booking domain.Booking
	if err := snap.DataTo(&booking); err != nil {
		return nil, fmt.Errorf("decode booking %s: %w", snap.Ref.Path, err)
	}

	booking.ID = snap.Ref.ID
	booking.FacilityID = facilityID
	booking.Revision = snap.UpdateTime
	return &booking, nil
}

// facilityOf returns the facility id of a ref shaped
// facilities/{facilityId}/bookings/{bookingId}.
func facilityOf(ref *firestore.DocumentRef) (string, bool) {
	if ref == nil || ref.Parent == nil || ref.Parent.ID != bookingsCollection {
		return "", false
	}
	facility := ref.Parent.Parent
	if facility == nil || facility.ID == "" || facility.Parent == nil {
		return "", false
	}
	if facility.Parent.ID != facilitiesCollection || facility.Parent.Parent != nil {
		return "", false
	}
	return facility.ID, true
}
