package repository

import (
	"context"

	"github.com/smallbiznis/clubos/internal/lead/domain"
	"github.com/smallbiznis/clubos/pkg/db"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func NewSQL(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

// Migrate creates the leads table for dialects without SQL migrations.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Lead{})
}

func (r *repo) Insert(ctx context.Context, lead *domain.Lead) error {
	err := r.db.WithContext(ctx).Create(lead).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrDuplicate
	}
	return err
}

func (r *repo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Lead, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Lead{})
	if filter.BeforeCreatedAt != nil {
		stmt = stmt.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			*filter.BeforeCreatedAt,
			*filter.BeforeCreatedAt,
			filter.BeforeID,
		)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var leads []*domain.Lead
	if err := stmt.Order("created_at desc, id desc").Find(&leads).Error; err != nil {
		return nil, err
	}
	return leads, nil
}
