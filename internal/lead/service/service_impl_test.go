package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/clubos/internal/clock"
	"github.com/smallbiznis/clubos/internal/lead/domain"
	"github.com/smallbiznis/clubos/internal/lead/repository"
	"github.com/smallbiznis/clubos/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := New(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.NewSQL(conn),
		Clock: clk,
	})
	return svc, clk
}

func TestCreateLead(t *testing.T) {
	svc, _ := newTestService(t)

	lead, err := svc.Create(context.Background(), domain.CreateLeadRequest{
		Name:         " Ana Souza ",
		Email:        "Ana@Example.com",
		FacilityName: "Padel Club São Paulo",
		Attributes:   map[string]any{"courts": 6, " ": "dropped"},
	})
	require.NoError(t, err)

	assert.NotZero(t, lead.ID)
	assert.Equal(t, "Ana Souza", lead.Name)
	assert.Equal(t, "ana@example.com", lead.Email)
	assert.Equal(t, "padel-club-sao-paulo", lead.FacilitySlug)
	assert.Equal(t, 6, lead.Attributes["courts"])
	assert.Len(t, lead.Attributes, 1)
}

func TestCreateLeadValidation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		name string
		req  domain.CreateLeadRequest
		want error
	}{
		{"missing name", domain.CreateLeadRequest{Email: "a@b.c", FacilityName: "Club"}, domain.ErrInvalidName},
		{"bad email", domain.CreateLeadRequest{Name: "A", Email: "nope", FacilityName: "Club"}, domain.ErrInvalidEmail},
		{"missing facility", domain.CreateLeadRequest{Name: "A", Email: "a@b.c"}, domain.ErrInvalidFacility},
		{"unsluggable facility", domain.CreateLeadRequest{Name: "A", Email: "a@b.c", FacilityName: "!!!"}, domain.ErrInvalidFacility},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateLeadTruncatesMessageOnRuneBoundary(t *testing.T) {
	svc, _ := newTestService(t)

	lead, err := svc.Create(context.Background(), domain.CreateLeadRequest{
		Name:         "Lucía",
		Email:        "lucia@example.com",
		FacilityName: "Club Ñandú",
		Message:      strings.Repeat("a", maxMessageLength-1) + "ñandú",
	})
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(lead.Message))
	assert.Equal(t, strings.Repeat("a", maxMessageLength-1), lead.Message)
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "short", truncateUTF8("short", 10))
	assert.Equal(t, "ab", truncateUTF8("abé", 3))
	assert.Equal(t, "abé", truncateUTF8("abéd", 4))
	assert.Equal(t, "", truncateUTF8("ñ", 1))
}

func TestCreateLeadRejectsDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	req := domain.CreateLeadRequest{Name: "Ana", Email: "ana@example.com", FacilityName: "Padel Club"}

	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	req.Email = "ANA@example.com"
	req.FacilityName = "padel   club"
	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestListLeadsPagesNewestFirst(t *testing.T) {
	svc, clk := newTestService(t)

	for _, facility := range []string{"One", "Two", "Three"} {
		_, err := svc.Create(context.Background(), domain.CreateLeadRequest{
			Name:         "Owner",
			Email:        "owner@example.com",
			FacilityName: facility,
		})
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}

	first, err := svc.List(context.Background(), domain.ListLeadRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Leads, 2)
	assert.Equal(t, "three", first.Leads[0].FacilitySlug)
	assert.Equal(t, "two", first.Leads[1].FacilitySlug)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := svc.List(context.Background(), domain.ListLeadRequest{PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Leads, 1)
	assert.Equal(t, "one", second.Leads[0].FacilitySlug)
	assert.False(t, second.HasMore)
}

func TestListLeadsRejectsBadToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.List(context.Background(), domain.ListLeadRequest{PageToken: "garbage"})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}
