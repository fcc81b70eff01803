package repositories

import (
	"context"

	"github.com/Anaqqa/supfile/models"

	"gorm.io/gorm"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) CountByEmail(ctx context.Context, tx *gorm.DB, email string) (int64, error) {
	var count int64
	err := useTx(ctx, r.db, tx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count, err
}

func (r *GormUserRepository) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return useTx(ctx, r.db, tx).Create(user).Error
}

func (r *GormUserRepository) GetByID(ctx context.Context, tx *gorm.DB, userID uint) (models.User, error) {
	var user models.User
	err := useTx(ctx, r.db, tx).First(&user, userID).Error
	return user, err
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (models.User, error) {
	var user models.User
	err := useTx(ctx, r.db, tx).Where("email = ?", email).First(&user).Error
	return user, err
}

func (r *GormUserRepository) GetByOAuth(ctx context.Context, tx *gorm.DB, provider string, providerID string) (models.User, error) {
	var user models.User
	err := useTx(ctx, r.db, tx).
		Where("oauth_provider = ? AND oauth_provider_id = ?", provider, providerID).
		First(&user).Error
	return user, err
}

func (r *GormUserRepository) UpdateByID(ctx context.Context, tx *gorm.DB, userID uint, updates map[string]interface{}) error {
	return useTx(ctx, r.db, tx).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}

func (r *GormUserRepository) AddStorageUsed(ctx context.Context, tx *gorm.DB, userID uint, delta int64) error {
	if delta == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("storage_used", gorm.Expr("storage_used + ?", delta)).Error
}

// SubStorageUsed decrements usage, flooring at zero.
func (r *GormUserRepository) SubStorageUsed(ctx context.Context, tx *gorm.DB, userID uint, delta int64) error {
	if delta <= 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("storage_used", gorm.Expr("CASE WHEN storage_used > ? THEN storage_used - ? ELSE 0 END", delta, delta)).Error
}

func (r *GormUserRepository) DeleteByID(ctx context.Context, tx *gorm.DB, userID uint) error {
	return useTx(ctx, r.db, tx).Delete(&models.User{}, userID).Error
}
