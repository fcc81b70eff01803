package repositories

import (
	"context"

	"github.com/Anaqqa/supfile/models"

	"gorm.io/gorm"
)

type GormAccessLogRepository struct {
	db *gorm.DB
}

func NewGormAccessLogRepository(db *gorm.DB) *GormAccessLogRepository {
	return &GormAccessLogRepository{db: db}
}

func (r *GormAccessLogRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.FileAccessLog) error {
	return useTx(ctx, r.db, tx).Create(entry).Error
}

func (r *GormAccessLogRepository) CountByFile(ctx context.Context, tx *gorm.DB, fileID uint) (int64, error) {
	var count int64
	err := useTx(ctx, r.db, tx).Model(&models.FileAccessLog{}).Where("file_id = ?", fileID).Count(&count).Error
	return count, err
}

func (r *GormAccessLogRepository) DeleteByFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uint) error {
	if len(fileIDs) == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Where("file_id IN ?", fileIDs).Delete(&models.FileAccessLog{}).Error
}
