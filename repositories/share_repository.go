package repositories

import (
	"context"

	"github.com/Anaqqa/supfile/models"

	"gorm.io/gorm"
)

type GormShareRepository struct {
	db *gorm.DB
}

func NewGormShareRepository(db *gorm.DB) *GormShareRepository {
	return &GormShareRepository{db: db}
}

func (r *GormShareRepository) Create(ctx context.Context, tx *gorm.DB, share *models.Share) error {
	return useTx(ctx, r.db, tx).Create(share).Error
}

func (r *GormShareRepository) GetByToken(ctx context.Context, tx *gorm.DB, token string) (models.Share, error) {
	var share models.Share
	err := useTx(ctx, r.db, tx).Where("token = ?", token).First(&share).Error
	return share, err
}

// GetByIDAndOwner resolves a share through its file's owner.
func (r *GormShareRepository) GetByIDAndOwner(ctx context.Context, tx *gorm.DB, shareID uint, userID uint) (models.Share, error) {
	var share models.Share
	err := useTx(ctx, r.db, tx).
		Joins("JOIN files ON files.id = shares.file_id").
		Where("shares.id = ? AND files.user_id = ?", shareID, userID).
		First(&share).Error
	return share, err
}

func (r *GormShareRepository) ListByOwner(ctx context.Context, tx *gorm.DB, userID uint, fileID *uint) ([]models.Share, error) {
	db := useTx(ctx, r.db, tx).
		Joins("JOIN files ON files.id = shares.file_id").
		Where("files.user_id = ?", userID)
	if fileID != nil {
		db = db.Where("shares.file_id = ?", *fileID)
	}

	var shares []models.Share
	err := db.Order("shares.created_at DESC").Find(&shares).Error
	return shares, err
}

func (r *GormShareRepository) Deactivate(ctx context.Context, tx *gorm.DB, shareID uint) error {
	return useTx(ctx, r.db, tx).Model(&models.Share{}).Where("id = ?", shareID).Update("is_active", false).Error
}

func (r *GormShareRepository) DeleteByID(ctx context.Context, tx *gorm.DB, shareID uint) error {
	return useTx(ctx, r.db, tx).Delete(&models.Share{}, shareID).Error
}

func (r *GormShareRepository) DeleteByFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uint) error {
	if len(fileIDs) == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Where("file_id IN ?", fileIDs).Delete(&models.Share{}).Error
}
