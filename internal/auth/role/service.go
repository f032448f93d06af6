package role

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smallbiznis/clubos/internal/auth/domain"
	"github.com/smallbiznis/clubos/internal/config"
	obsmetrics "github.com/smallbiznis/clubos/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	maxPendingPromotions = 16
	promotionTimeout     = 5 * time.Second
	// promotionTTL is how long a persisted grant is trusted before it is written again.
	promotionTTL = 10 * time.Minute
)

type Params struct {
	fx.In

	Lifecycle  fx.Lifecycle `optional:"true"`
	Repo       domain.UserRepository
	Allowlist  *config.AllowlistHolder
	Log        *zap.Logger
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	repo       domain.UserRepository
	allowlist  *config.AllowlistHolder
	log        *zap.Logger
	obsMetrics *obsmetrics.Metrics
	now        func() time.Time

	pending chan struct{}
	wg      sync.WaitGroup

	mu       sync.Mutex
	promoted map[string]time.Time
}

func NewService(p Params) *Service {
	svc := &Service{
		repo:       p.Repo,
		allowlist:  p.Allowlist,
		log:        p.Log.Named("auth.role"),
		obsMetrics: p.ObsMetrics,
		now:        time.Now,
		pending:    make(chan struct{}, maxPendingPromotions),
		promoted:   make(map[string]time.Time),
	}
	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				svc.Wait()
				return nil
			},
		})
	}
	return svc
}

// Resolve returns the caller's role. An allowlisted email is decided before any
// store read, so a store outage never denies it.
func (s *Service) Resolve(ctx context.Context, actor domain.Actor, scope domain.Scope) (domain.Role, error) {
	if s.allowlist.Get().Contains(actor.Email) {
		s.promote(ctx, actor)
		role, source := Resolve(Inputs{Allowlisted: true})
		return s.record(ctx, role, source)
	}

	user, err := s.repo.GetUser(ctx, actor.SubjectID)
	if err != nil {
		s.log.Error("user lookup failed", zap.String("subject_id", actor.SubjectID), zap.Error(err))
		return domain.RoleNone, fmt.Errorf("%w: %v", domain.ErrDependencyUnavailable, err)
	}

	in := Inputs{
		User:      user,
		Scope:     scope,
		ClaimRole: actor.ClaimRole,
	}
	role, source := Resolve(in)
	if source != SourceNone {
		return s.record(ctx, role, source)
	}

	exists, err := s.repo.CenterAdminExists(ctx, actor.SubjectID)
	if err != nil {
		s.log.Error("center admin lookup failed", zap.String("subject_id", actor.SubjectID), zap.Error(err))
		return domain.RoleNone, fmt.Errorf("%w: %v", domain.ErrDependencyUnavailable, err)
	}
	in.CenterAdmin = exists
	role, source = Resolve(in)
	return s.record(ctx, role, source)
}

// Wait blocks until background promotions have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) record(ctx context.Context, role domain.Role, source Source) (domain.Role, error) {
	s.obsMetrics.RecordRoleResolution(ctx, string(source), string(role))
	return role, nil
}

// promote persists the allowlist grant in the background. Failures are logged
// only. A subject promoted within promotionTTL, or with a promotion in flight,
// is not written again.
func (s *Service) promote(ctx context.Context, actor domain.Actor) {
	if !s.claimPromotion(actor.SubjectID) {
		return
	}

	select {
	case s.pending <- struct{}{}:
	default:
		s.forgetPromotion(actor.SubjectID)
		s.log.Warn("role promotion skipped, too many pending", zap.String("subject_id", actor.SubjectID))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.pending }()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), promotionTimeout)
		defer cancel()

		now := s.now().UTC()
		if err := s.repo.UpsertRole(ctx, actor.SubjectID, actor.Email, domain.RolePlatformAdmin, now); err != nil {
			s.forgetPromotion(actor.SubjectID)
			s.log.Warn("role upsert failed", zap.String("subject_id", actor.SubjectID), zap.Error(err))
			return
		}
		if err := s.repo.RequestClaimsRefresh(ctx, actor.SubjectID, domain.RolePlatformAdmin, now); err != nil {
			s.forgetPromotion(actor.SubjectID)
			s.log.Warn("claims refresh request failed", zap.String("subject_id", actor.SubjectID), zap.Error(err))
		}
	}()
}

func (s *Service) claimPromotion(subjectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if until, ok := s.promoted[subjectID]; ok && now.Before(until) {
		return false
	}
	s.promoted[subjectID] = now.Add(promotionTTL)
	return true
}

func (s *Service) forgetPromotion(subjectID string) {
	s.mu.Lock()
	delete(s.promoted, subjectID)
	s.mu.Unlock()
}

var _ domain.RoleResolver = (*Service)(nil)
