package service

import (
	"context"
	"errors"
	"strings"
	"time"

	bookingdomain "github.com/smallbiznis/clubos/internal/booking/domain"
	"github.com/smallbiznis/clubos/internal/clock"
	"github.com/smallbiznis/clubos/internal/events"
	obsmetrics "github.com/smallbiznis/clubos/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/clubos/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	maxApplyAttempts = 3
	lockAttempts     = 5
	lockBackoff      = 50 * time.Millisecond
	lockKeyPrefix    = "clubos:reconcile:"
	publishTimeout   = 3 * time.Second
)

const (
	reasonNoReference = "no_reference"
	reasonNotFound    = "booking_not_found"
	reasonUnknown     = "unsupported_outcome"
	reasonRedelivery  = "redelivery"
	reasonTerminal    = "terminal_state"
)

const (
	resultApplied = "applied"
	resultNoOp    = "noop"
	resultFailed  = "failed"
)

// Locker serializes reconciliation of one booking across replicas.
type Locker interface {
	TryLock(ctx context.Context, key string) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

type Params struct {
	fx.In

	Repo       bookingdomain.Repository
	Lookup     bookingdomain.LookupService
	Log        *zap.Logger
	Locker     Locker              `optional:"true"`
	Publisher  events.Publisher    `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
	Clock      clock.Clock         `optional:"true"`
}

type Service struct {
	repo       bookingdomain.Repository
	lookup     bookingdomain.LookupService
	log        *zap.Logger
	locker     Locker
	publisher  events.Publisher
	obsMetrics *obsmetrics.Metrics
	clock      clock.Clock
}

func NewService(p Params) *Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	publisher := p.Publisher
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &Service{
		repo:       p.Repo,
		lookup:     p.Lookup,
		log:        p.Log.Named("payment.reconciler"),
		locker:     p.Locker,
		publisher:  publisher,
		obsMetrics: p.ObsMetrics,
		clock:      clk,
	}
}

// Reconcile applies a normalized payment event to the booking it references.
// A missing booking or an event that changes nothing is a no-op, not an error.
func (s *Service) Reconcile(ctx context.Context, event *paymentdomain.PaymentEvent) (*paymentdomain.ReconcileResult, error) {
	if event == nil {
		return nil, paymentdomain.ErrInvalidEvent
	}
	bookingID := strings.TrimSpace(event.ExternalReference)
	if bookingID == "" {
		return s.noop(ctx, event, reasonNoReference, nil), nil
	}

	log := s.log.With(
		zap.String("provider", event.Provider),
		zap.String("booking_id", bookingID),
		zap.String("outcome", string(event.Outcome)),
	)

	release := s.acquire(ctx, log, bookingID)
	defer release()

	for attempt := 1; attempt <= maxApplyAttempts; attempt++ {
		current, err := s.resolve(ctx, event, bookingID)
		if err != nil {
			s.record(ctx, event, resultFailed)
			return nil, err
		}
		if current == nil {
			log.Info("no booking for payment event")
			return s.noop(ctx, event, reasonNotFound, nil), nil
		}

		update, reason := planTransition(current, event, s.clock.Now())
		if reason != "" {
			if reason == reasonTerminal {
				log.Warn("payment event conflicts with terminal booking",
					zap.String("facility_id", current.FacilityID),
					zap.String("status", string(current.Status)),
				)
			}
			return s.noop(ctx, event, reason, current), nil
		}

		updated, err := s.repo.ApplyUpdate(ctx, current, update)
		if errors.Is(err, bookingdomain.ErrConcurrentUpdate) {
			log.Debug("booking changed during reconciliation, retrying", zap.Int("attempt", attempt))
			continue
		}
		if errors.Is(err, bookingdomain.ErrNotFound) {
			return s.noop(ctx, event, reasonNotFound, nil), nil
		}
		if err != nil {
			s.record(ctx, event, resultFailed)
			return nil, err
		}

		log.Info("booking reconciled",
			zap.String("facility_id", updated.FacilityID),
			zap.String("from", string(current.Status)),
			zap.String("to", string(updated.Status)),
		)
		s.record(ctx, event, resultApplied)
		s.publish(ctx, log, event, current.Status, updated)
		return &paymentdomain.ReconcileResult{
			Outcome: paymentdomain.ReconcileApplied,
			Booking: updated,
		}, nil
	}

	s.record(ctx, event, resultFailed)
	return nil, paymentdomain.ErrReconcileConflict
}

// resolve finds the booking an event refers to. Stripe echoes the facility
// back in metadata and gets a point read; everything else searches all facilities.
func (s *Service) resolve(ctx context.Context, event *paymentdomain.PaymentEvent, bookingID string) (*bookingdomain.Booking, error) {
	facilityID := strings.TrimSpace(event.FacilityID)
	if event.Provider == paymentdomain.ProviderStripe && facilityID != "" {
		return s.lookup.FindInFacility(ctx, facilityID, bookingID)
	}
	return s.lookup.FindByID(ctx, bookingID)
}

// planTransition returns the update for event, or the reason it changes nothing.
func planTransition(current *bookingdomain.Booking, event *paymentdomain.PaymentEvent, now time.Time) (bookingdomain.StatusUpdate, string) {
	target, ok := targetStatus(event.Outcome)
	if !ok {
		return bookingdomain.StatusUpdate{}, reasonUnknown
	}

	if current.Status.IsTerminal() {
		if current.Status == target {
			return bookingdomain.StatusUpdate{}, reasonRedelivery
		}
		return bookingdomain.StatusUpdate{}, reasonTerminal
	}
	if current.Status == target && samePayment(current.Payment, event) {
		return bookingdomain.StatusUpdate{}, reasonRedelivery
	}

	update := bookingdomain.StatusUpdate{
		Status:    target,
		UpdatedAt: now,
	}
	switch event.Outcome {
	case paymentdomain.OutcomeApproved:
		approvedAt := now
		if !event.OccurredAt.IsZero() {
			approvedAt = event.OccurredAt.UTC()
		}
		update.Payment = &bookingdomain.Payment{
			Provider:          event.Provider,
			ProviderPaymentID: event.ProviderPaymentID,
			Amount:            event.Amount,
			Currency:          event.Currency,
			ApprovedAt:        &approvedAt,
		}
	case paymentdomain.OutcomeRejected, paymentdomain.OutcomeCancelled:
		update.Payment = &bookingdomain.Payment{
			Provider:          event.Provider,
			ProviderPaymentID: event.ProviderPaymentID,
			Amount:            event.Amount,
			Currency:          event.Currency,
			StatusDetail:      event.StatusDetail,
		}
	}
	return update, ""
}

func targetStatus(outcome paymentdomain.Outcome) (bookingdomain.Status, bool) {
	switch outcome {
	case paymentdomain.OutcomeApproved:
		return bookingdomain.StatusConfirmed, true
	case paymentdomain.OutcomeRejected, paymentdomain.OutcomeCancelled:
		return bookingdomain.StatusPaymentFailed, true
	case paymentdomain.OutcomeExpired:
		return bookingdomain.StatusExpired, true
	default:
		return "", false
	}
}

func samePayment(payment *bookingdomain.Payment, event *paymentdomain.PaymentEvent) bool {
	if payment == nil {
		return false
	}
	return payment.Provider == event.Provider &&
		payment.ProviderPaymentID == event.ProviderPaymentID &&
		payment.StatusDetail == event.StatusDetail
}

// acquire takes the per-booking lock when one is configured. Failing to get
// it is not fatal: the conditional write still keeps the record consistent.
func (s *Service) acquire(ctx context.Context, log *zap.Logger, bookingID string) func() {
	if s.locker == nil {
		return func() {}
	}
	key := lockKeyPrefix + bookingID

	for attempt := 1; attempt <= lockAttempts; attempt++ {
		token, ok, err := s.locker.TryLock(ctx, key)
		if err != nil {
			log.Warn("reconcile lock unavailable", zap.Error(err))
			return func() {}
		}
		if ok {
			return func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
					log.Warn("reconcile lock release failed", zap.Error(err))
				}
			}
		}

		select {
		case <-ctx.Done():
			return func() {}
		case <-time.After(time.Duration(attempt) * lockBackoff):
		}
	}

	log.Warn("reconcile lock still held, continuing without it")
	return func() {}
}

func (s *Service) publish(ctx context.Context, log *zap.Logger, event *paymentdomain.PaymentEvent, previous bookingdomain.Status, booking *bookingdomain.Booking) {
	now := s.clock.Now()
	msg := events.BookingEvent{
		EventID:        events.NewEventID(now),
		BookingID:      booking.ID,
		FacilityID:     booking.FacilityID,
		Status:         string(booking.Status),
		PreviousStatus: string(previous),
		Provider:       event.Provider,
		OccurredAt:     now,
	}
	if booking.Payment != nil {
		msg.ProviderPaymentID = booking.Payment.ProviderPaymentID
		msg.Amount = booking.Payment.Amount
		msg.Currency = booking.Payment.Currency
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishJSON(pubCtx, msg.RoutingKey(), msg); err != nil {
		log.Warn("publish booking event failed", zap.String("routing_key", msg.RoutingKey()), zap.Error(err))
	}
}

func (s *Service) noop(ctx context.Context, event *paymentdomain.PaymentEvent, reason string, booking *bookingdomain.Booking) *paymentdomain.ReconcileResult {
	s.record(ctx, event, resultNoOp)
	return &paymentdomain.ReconcileResult{
		Outcome: paymentdomain.ReconcileNoOp,
		Reason:  reason,
		Booking: booking,
	}
}

func (s *Service) record(ctx context.Context, event *paymentdomain.PaymentEvent, result string) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordReconcile(ctx, event.Provider, result)
}

var _ paymentdomain.Reconciler = (*Service)(nil)
