package domain

import (
	"context"

	bookingdomain "github.com/smallbiznis/clubos/internal/booking/domain"
)

type ReconcileOutcome string

const (
	ReconcileApplied ReconcileOutcome = "applied"
	ReconcileNoOp    ReconcileOutcome = "noop"
)

// ReconcileResult reports what a payment event did to its booking.
// Booking is the state after the call and is nil when no booking matched.
type ReconcileResult struct {
	Outcome ReconcileOutcome
	Reason  string
	Booking *bookingdomain.Booking
}

type Reconciler interface {
	Reconcile(ctx context.Context, event *PaymentEvent) (*ReconcileResult, error)
}
