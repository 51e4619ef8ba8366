package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	userDatamodel "github.com/frahmantamala/account-hub/internal/core/datamodel/user"
	"github.com/frahmantamala/account-hub/internal/permission"
	"github.com/frahmantamala/account-hub/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

var (
	_ user.Repository      = (*UserRepository)(nil)
	_ permission.UserStore = (*UserRepository)(nil)
)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) withContacts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Emails", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("PhoneNumbers", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") })
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.withContacts(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var owner userDatamodel.Email
	err := r.db.WithContext(ctx).Where("address = ?", email).First(&owner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.GetByID(ctx, owner.UserID)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.withContacts(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts the user together with its emails and phone numbers.
func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	if u.Version == 0 {
		u.Version = 1
	}
	if u.Permissions == nil {
		u.Permissions = userDatamodel.PermissionSet{}
	}
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) GetPermissions(ctx context.Context, userID string) (*permission.Subject, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Select("id", "permissions", "version").
		Where("id = ?", userID).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &permission.Subject{
		UserID:      u.ID,
		Permissions: user.PermissionsFromDataModel(u.Permissions),
		Version:     u.Version,
	}, nil
}

// UpdatePermissions writes the full list only if the row still carries the
// version that was read; otherwise it reports a conflict.
func (r *UserRepository) UpdatePermissions(ctx context.Context, userID string, perms permission.List, version int64) error {
	res := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ? AND version = ?", userID, version).
		Updates(map[string]any{
			"permissions": user.PermissionsToDataModel(perms),
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("update permissions: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return permission.ErrVersionConflict
	}
	return nil
}
