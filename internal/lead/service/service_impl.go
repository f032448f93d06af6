package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/clubos/internal/clock"
	"github.com/smallbiznis/clubos/internal/lead/domain"
	"github.com/smallbiznis/clubos/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	maxNameLength    = 200
	maxMessageLength = 4000
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		log:   p.Log.Named("lead.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: clk,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateLeadRequest) (domain.Lead, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > maxNameLength {
		return domain.Lead{}, domain.ErrInvalidName
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") || strings.ContainsAny(email, " \t") {
		return domain.Lead{}, domain.ErrInvalidEmail
	}

	facilityName := strings.TrimSpace(req.FacilityName)
	facilitySlug := slug.Make(facilityName)
	if facilityName == "" || facilitySlug == "" || len(facilityName) > maxNameLength {
		return domain.Lead{}, domain.ErrInvalidFacility
	}

	message := truncateUTF8(strings.TrimSpace(req.Message), maxMessageLength)

	attributes := datatypes.JSONMap{}
	for k, v := range req.Attributes {
		if k = strings.TrimSpace(k); k != "" {
			attributes[k] = v
		}
	}

	lead := domain.Lead{
		ID:           s.genID.Generate(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		FacilityName: facilityName,
		FacilitySlug: facilitySlug,
		Message:      message,
		Attributes:   attributes,
		CreatedAt:    s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, &lead); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			s.log.Info("duplicate lead", zap.String("facility_slug", facilitySlug))
		}
		return domain.Lead{}, err
	}

	s.log.Info("lead created", zap.String("lead_id", lead.ID.String()), zap.String("facility_slug", facilitySlug))
	return lead, nil
}

func (s *Service) List(ctx context.Context, req domain.ListLeadRequest) (domain.ListLeadResponse, error) {
	pageSize := pagination.ClampPageSize(req.PageSize)
	filter := domain.ListFilter{Limit: int(pageSize) + 1}

	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListLeadResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return domain.ListLeadResponse{}, domain.ErrInvalidPageToken
		}
		id, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return domain.ListLeadResponse{}, domain.ErrInvalidPageToken
		}
		filter.BeforeCreatedAt = &createdAt
		filter.BeforeID = snowflake.ID(id)
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListLeadResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(lead *domain.Lead) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        lead.ID.String(),
			CreatedAt: lead.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	leads := make([]domain.Lead, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		leads = append(leads, *item)
	}

	return domain.ListLeadResponse{
		PageInfo: *pageInfo,
		Leads:    leads,
	}, nil
}

// truncateUTF8 caps s at limit bytes without splitting a multi-byte rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
