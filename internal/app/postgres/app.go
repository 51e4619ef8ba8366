package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/account-hub/internal/app"
	appDatamodel "github.com/frahmantamala/account-hub/internal/core/datamodel/app"
	"gorm.io/gorm"
)

type AppRepository struct {
	db *gorm.DB
}

var _ app.Repository = (*AppRepository)(nil)

func NewAppRepository(db *gorm.DB) *AppRepository {
	return &AppRepository{db: db}
}

func (r *AppRepository) GetByID(ctx context.Context, id string) (*appDatamodel.Application, error) {
	var a appDatamodel.Application
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AppRepository) Create(ctx context.Context, a *appDatamodel.Application) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AppRepository) UpdateSecret(ctx context.Context, id, hashedSecret string) error {
	return r.db.WithContext(ctx).
		Model(&appDatamodel.Application{}).
		Where("id = ?", id).
		Update("hashed_secret", hashedSecret).Error
}

func (r *AppRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.db.WithContext(ctx).
		Model(&appDatamodel.Application{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}
