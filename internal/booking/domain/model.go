// Package domain contains the booking record and its lookup contracts.
package domain

import "time"

type Status string

const (
	StatusPending       Status = "pending"
	StatusConfirmed     Status = "confirmed"
	StatusCancelled     Status = "cancelled"
	StatusExpired       Status = "expired"
	StatusPaymentFailed Status = "payment_failed"
)

// IsTerminal reports whether the reconciler must never move a booking out of s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// Payment is the provider sub-record written by reconciliation.
type Payment struct {
	Provider          string     `json:"provider,omitempty" firestore:"provider,omitempty"`
	ProviderPaymentID string     `json:"providerPaymentId,omitempty" firestore:"providerPaymentId,omitempty"`
	SessionID         string     `json:"sessionId,omitempty" firestore:"sessionId,omitempty"`
	Amount            int64      `json:"amount,omitempty" firestore:"amount,omitempty"`
	Currency          string     `json:"currency,omitempty" firestore:"currency,omitempty"`
	StatusDetail      string     `json:"statusDetail,omitempty" firestore:"statusDetail,omitempty"`
	ApprovedAt        *time.Time `json:"approvedAt,omitempty" firestore:"approvedAt,omitempty"`
}

// Booking is a reserved slot on a court, stored under its facility.
type Booking struct {
	ID         string    `json:"id" firestore:"id,omitempty"`
	FacilityID string    `json:"facilityId" firestore:"facilityId,omitempty"`
	CourtID    string    `json:"courtId,omitempty" firestore:"courtId,omitempty"`
	StartTime  time.Time `json:"startTime" firestore:"startTime"`
	EndTime    time.Time `json:"endTime" firestore:"endTime"`
	Status     Status    `json:"status" firestore:"status"`
	Payment    *Payment  `json:"payment,omitempty" firestore:"payment,omitempty"`
	CreatedAt  time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" firestore:"updatedAt"`

	// Revision is the store's compare-and-set token for the read state.
	Revision time.Time `json:"-" firestore:"-"`
}

// StatusUpdate is a merge patch: zero payment fields are left untouched.
type StatusUpdate struct {
	Status    Status
	Payment   *Payment
	UpdatedAt time.Time
}

// Merge returns a copy of b with the update applied the way stores apply it.
func (b Booking) Merge(update StatusUpdate) Booking {
	next := b
	next.Status = update.Status
	next.UpdatedAt = update.UpdatedAt
	if update.Payment == nil {
		return next
	}

	payment := Payment{}
	if b.Payment != nil {
		payment = *b.Payment
	}
	patch := update.Payment
	if patch.Provider != "" {
		payment.Provider = patch.Provider
	}
	if patch.ProviderPaymentID != "" {
		payment.ProviderPaymentID = patch.ProviderPaymentID
	}
	if patch.SessionID != "" {
		payment.SessionID = patch.SessionID
	}
	if patch.Amount != 0 {
		payment.Amount = patch.Amount
	}
	if patch.Currency != "" {
		payment.Currency = patch.Currency
	}
	if patch.StatusDetail != "" {
		payment.StatusDetail = patch.StatusDetail
	}
	if patch.ApprovedAt != nil {
		approvedAt := *patch.ApprovedAt
		payment.ApprovedAt = &approvedAt
	}
	next.Payment = &payment
	return next
}
