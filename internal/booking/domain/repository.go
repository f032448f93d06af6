package domain

import "context"

// Repository reads bookings across every facility and applies conditional updates.
type Repository interface {
	// FindByID returns up to two bookings whose own id matches, in store order.
	FindByID(ctx context.Context, bookingID string) ([]*Booking, error)
	// FindBySessionID returns up to two bookings whose payment.sessionId matches.
	FindBySessionID(ctx context.Context, sessionID string) ([]*Booking, error)
	// FindInFacility is a point read; it returns ErrNotFound when absent.
	FindInFacility(ctx context.Context, facilityID, bookingID string) (*Booking, error)
	// ApplyUpdate writes update only if the booking is still in the state current was read in.
	// It returns ErrConcurrentUpdate when another writer got there first.
	ApplyUpdate(ctx context.Context, current *Booking, update StatusUpdate) (*Booking, error)
}
