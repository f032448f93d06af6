package events

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// BookingEvent is the payload of a booking.<status> message.
type BookingEvent struct {
	EventID           string    `json:"eventId"`
	BookingID         string    `json:"bookingId"`
	FacilityID        string    `json:"facilityId"`
	Status            string    `json:"status"`
	PreviousStatus    string    `json:"previousStatus"`
	Provider          string    `json:"provider"`
	ProviderPaymentID string    `json:"providerPaymentId,omitempty"`
	Amount            int64     `json:"amount,omitempty"`
	Currency          string    `json:"currency,omitempty"`
	OccurredAt        time.Time `json:"occurredAt"`
}

// RoutingKey is "booking." followed by the new status.
func (e BookingEvent) RoutingKey() string {
	return "booking." + e.Status
}

func NewEventID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), rand.Reader).String()
}
