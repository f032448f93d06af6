package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/clubos/internal/auth/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRecord struct {
	SubjectID         string     `gorm:"column:subject_id;primaryKey;type:text"`
	Email             string     `gorm:"column:email;type:text;index"`
	Role              string     `gorm:"column:role;type:text"`
	LegacyRole        string     `gorm:"column:legacy_role;type:text"`
	ClaimsRole        string     `gorm:"column:claims_role;type:text"`
	ClaimsRefreshedAt *time.Time `gorm:"column:claims_refreshed_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;not null"`
}

func (userRecord) TableName() string { return "users" }

type centerAdminRecord struct {
	SubjectID string    `gorm:"column:subject_id;primaryKey;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (centerAdminRecord) TableName() string { return "center_admins" }

type repo struct {
	db *gorm.DB
}

func NewSQL(db *gorm.DB) domain.UserRepository {
	return &repo{db: db}
}

// Migrate creates the users and center_admins tables for dialects without SQL migrations.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&userRecord{}, &centerAdminRecord{})
}

func (r *repo) GetUser(ctx context.Context, subjectID string) (*domain.UserRecord, error) {
	var record userRecord
	err := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.UserRecord{
		SubjectID:         record.SubjectID,
		Email:             record.Email,
		Role:              domain.NormalizeRole(record.Role),
		LegacyRole:        domain.NormalizeRole(record.LegacyRole),
		ClaimsRole:        domain.NormalizeRole(record.ClaimsRole),
		ClaimsRefreshedAt: record.ClaimsRefreshedAt,
		UpdatedAt:         record.UpdatedAt,
	}, nil
}

func (r *repo) CenterAdminExists(ctx context.Context, subjectID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&centerAdminRecord{}).
		Where("subject_id = ?", subjectID).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) UpsertRole(ctx context.Context, subjectID, email string, role domain.Role, at time.Time) error {
	assignments := map[string]any{
		"role":       string(role),
		"updated_at": at,
	}
	if email != "" {
		assignments["email"] = email
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(&userRecord{
			SubjectID: subjectID,
			Email:     email,
			Role:      string(role),
			UpdatedAt: at,
		}).Error
}

func (r *repo) RequestClaimsRefresh(ctx context.Context, subjectID string, role domain.Role, at time.Time) error {
	tx := r.db.WithContext(ctx).
		Model(&userRecord{}).
		Where("subject_id = ?", subjectID).
		Updates(map[string]any{
			"claims_role":         string(role),
			"claims_refreshed_at": at,
			"updated_at":          at,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
