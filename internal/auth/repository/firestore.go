package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/smallbiznis/clubos/internal/auth/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection        = "users"
	centerAdminsCollection = "centerAdmins"
)

type firestoreRepo struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) domain.UserRepository {
	return &firestoreRepo{client: client}
}

func (r *firestoreRepo) GetUser(ctx context.Context, subjectID string) (*domain.UserRecord, error) {
	snap, err := r.client.Collection(usersCollection).Doc(subjectID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("read user: %w", err)
	}

	var user domain.UserRecord
	if err := snap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", subjectID, err)
	}
	user.SubjectID = snap.Ref.ID
	user.Role = domain.NormalizeRole(string(user.Role))
	user.LegacyRole = domain.NormalizeRole(string(user.LegacyRole))
	return &user, nil
}

func (r *firestoreRepo) CenterAdminExists(ctx context.Context, subjectID string) (bool, error) {
	_, err := r.client.Collection(centerAdminsCollection).Doc(subjectID).Get(ctx)
	if err == nil {
		return true, nil
	}
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	return false, fmt.Errorf("read center admin marker: %w", err)
}

func (r *firestoreRepo) UpsertRole(ctx context.Context, subjectID, email string, role domain.Role, at time.Time) error {
	data := map[string]any{
		"role":      string(role),
		"updatedAt": at,
	}
	if email != "" {
		data["email"] = email
	}
	_, err := r.client.Collection(usersCollection).Doc(subjectID).Set(ctx, data, firestore.MergeAll)
	return err
}

func (r *firestoreRepo) RequestClaimsRefresh(ctx context.Context, subjectID string, role domain.Role, at time.Time) error {
	_, err := r.client.Collection(usersCollection).Doc(subjectID).Update(ctx, []firestore.Update{
		{Path: "claimsRole", Value: string(role)},
		{Path: "claimsRefreshedAt", Value: at},
		{Path: "updatedAt", Value: at},
	})
	if status.Code(err) == codes.NotFound {
		return domain.ErrUserNotFound
	}
	return err
}
