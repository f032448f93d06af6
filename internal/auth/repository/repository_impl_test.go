package repository

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/clubos/internal/auth/domain"
	"github.com/smallbiznis/clubos/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) (domain.UserRepository, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))
	return NewSQL(conn), conn
}

func TestGetUserMissingIsNil(t *testing.T) {
	repo, _ := newTestRepo(t)

	user, err := repo.GetUser(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUpsertRoleCreatesThenUpdates(t *testing.T) {
	repo, conn := newTestRepo(t)
	ctx := context.Background()
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, conn.Create(&userRecord{SubjectID: "uid-1", Email: "p@clubos.test", Role: "player", LegacyRole: "clubAdmin", UpdatedAt: first}).Error)

	require.NoError(t, repo.UpsertRole(ctx, "uid-1", "", domain.RolePlatformAdmin, first.Add(time.Hour)))
	user, err := repo.GetUser(ctx, "uid-1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, domain.RolePlatformAdmin, user.Role)
	assert.Equal(t, "p@clubos.test", user.Email)
	assert.Equal(t, domain.Role("clubAdmin"), user.LegacyRole)

	require.NoError(t, repo.UpsertRole(ctx, "uid-2", "new@clubos.test", domain.RolePlatformAdmin, first))
	created, err := repo.GetUser(ctx, "uid-2")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "new@clubos.test", created.Email)
}

func TestRequestClaimsRefresh(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, repo.RequestClaimsRefresh(ctx, "ghost", domain.RolePlatformAdmin, at), domain.ErrUserNotFound)

	require.NoError(t, repo.UpsertRole(ctx, "uid-1", "a@clubos.test", domain.RolePlatformAdmin, at))
	require.NoError(t, repo.RequestClaimsRefresh(ctx, "uid-1", domain.RolePlatformAdmin, at))

	user, err := repo.GetUser(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RolePlatformAdmin, user.ClaimsRole)
	require.NotNil(t, user.ClaimsRefreshedAt)
	assert.True(t, at.Equal(*user.ClaimsRefreshedAt))
}

func TestCenterAdminExists(t *testing.T) {
	repo, conn := newTestRepo(t)
	ctx := context.Background()

	exists, err := repo.CenterAdminExists(ctx, "uid-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, conn.Create(&centerAdminRecord{SubjectID: "uid-1", CreatedAt: time.Now()}).Error)
	exists, err = repo.CenterAdminExists(ctx, "uid-1")
	require.NoError(t, err)
	assert.True(t, exists)
}
