package domain

import "context"

// LookupService resolves bookings without requiring the caller to know the facility.
// A booking that does not exist is reported as (nil, nil).
type LookupService interface {
	FindByID(ctx context.Context, bookingID string) (*Booking, error)
	FindBySessionID(ctx context.Context, sessionID string) (*Booking, error)
	FindInFacility(ctx context.Context, facilityID, bookingID string) (*Booking, error)
}
