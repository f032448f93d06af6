package service

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/clubos/internal/booking/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Repo domain.Repository
	Log  *zap.Logger
}

type Service struct {
	repo domain.Repository
	log  *zap.Logger
}

func New(p Params) domain.LookupService {
	return &Service{
		repo: p.Repo,
		log:  p.Log.Named("booking.lookup"),
	}
}

func (s *Service) FindByID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return nil, domain.ErrInvalidID
	}

	matches, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.first(matches, zap.String("booking_id", bookingID)), nil
}

func (s *Service) FindBySessionID(ctx context.Context, sessionID string) (*domain.Booking, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.ErrInvalidID
	}

	matches, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.first(matches, zap.String("session_id", sessionID)), nil
}

func (s *Service) FindInFacility(ctx context.Context, facilityID, bookingID string) (*domain.Booking, error) {
	facilityID = strings.TrimSpace(facilityID)
	bookingID = strings.TrimSpace(bookingID)
	if facilityID == "" || bookingID == "" {
		return nil, domain.ErrInvalidID
	}

	booking, err := s.repo.FindInFacility(ctx, facilityID, bookingID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return booking, err
}

// first returns the first match in store order. More than one match means the
// data is inconsistent; it is logged rather than failed.
func (s *Service) first(matches []*domain.Booking, key zap.Field) *domain.Booking {
	if len(matches) == 0 {
		return nil
	}
	if len(matches) > 1 {
		s.log.Warn("booking lookup matched more than one document",
			key,
			zap.String("facility_id", matches[0].FacilityID),
			zap.String("other_facility_id", matches[1].FacilityID),
		)
	}
	return matches[0]
}
