package repositories

import (
	"context"
	"time"

	"github.com/Anaqqa/supfile/models"

	"gorm.io/gorm"
)

type GormFileRepository struct {
	db *gorm.DB
}

func NewGormFileRepository(db *gorm.DB) *GormFileRepository {
	return &GormFileRepository{db: db}
}

func (r *GormFileRepository) Create(ctx context.Context, tx *gorm.DB, file *models.File) error {
	return useTx(ctx, r.db, tx).Create(file).Error
}

func (r *GormFileRepository) GetByID(ctx context.Context, tx *gorm.DB, fileID uint) (models.File, error) {
	var file models.File
	err := useTx(ctx, r.db, tx).First(&file, fileID).Error
	return file, err
}

func (r *GormFileRepository) GetByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint) (models.File, error) {
	var file models.File
	err := useTx(ctx, r.db, tx).Where("id = ? AND user_id = ?", fileID, userID).First(&file).Error
	return file, err
}

func (r *GormFileRepository) GetLiveByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint) (models.File, error) {
	var file models.File
	err := useTx(ctx, r.db, tx).
		Where("id = ? AND user_id = ? AND is_deleted = ?", fileID, userID, false).
		First(&file).Error
	return file, err
}

func (r *GormFileRepository) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.File, error) {
	var files []models.File
	err := useTx(ctx, r.db, tx).Where("user_id = ?", userID).Order("id ASC").Find(&files).Error
	return files, err
}

// ListByFolderIDs returns files of any state directly inside the given folders.
func (r *GormFileRepository) ListByFolderIDs(ctx context.Context, tx *gorm.DB, userID uint, folderIDs []uint) ([]models.File, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	var files []models.File
	err := useTx(ctx, r.db, tx).
		Where("user_id = ? AND folder_id IN ?", userID, folderIDs).
		Order("id ASC").
		Find(&files).Error
	return files, err
}

func (r *GormFileRepository) ListLiveByFolder(ctx context.Context, tx *gorm.DB, userID uint, folderID *uint) ([]models.File, error) {
	db := useTx(ctx, r.db, tx).Where("user_id = ? AND is_deleted = ?", userID, false)
	if folderID == nil {
		db = db.Where("folder_id IS NULL")
	} else {
		db = db.Where("folder_id = ?", *folderID)
	}

	var files []models.File
	err := db.Order("name ASC").Find(&files).Error
	return files, err
}

func (r *GormFileRepository) ListDeleted(ctx context.Context, tx *gorm.DB, userID uint) ([]models.File, error) {
	var files []models.File
	err := useTx(ctx, r.db, tx).
		Where("user_id = ? AND is_deleted = ?", userID, true).
		Order("deleted_at DESC").
		Find(&files).Error
	return files, err
}

func (r *GormFileRepository) ListDeletedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]models.File, error) {
	var files []models.File
	err := useTx(ctx, r.db, tx).
		Where("is_deleted = ? AND deleted_at < ?", true, cutoff).
		Order("user_id ASC").
		Find(&files).Error
	return files, err
}

func (r *GormFileRepository) SearchLive(ctx context.Context, tx *gorm.DB, in SearchInput) ([]models.File, error) {
	db, match := nameSearch(useTx(ctx, r.db, tx).
		Where("user_id = ? AND is_deleted = ?", in.UserID, false), in.Query)
	if in.ParentID != nil {
		db = db.Where("folder_id = ?", *in.ParentID)
	}

	var files []models.File
	if err := db.Order("name ASC").Find(&files).Error; err != nil {
		return nil, err
	}
	if match == nil {
		return files, nil
	}
	matched := files[:0]
	for _, n := range files {
		if match(n.Name) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

func (r *GormFileRepository) CountLiveByFolder(ctx context.Context, tx *gorm.DB, userID uint, folderID uint) (int64, error) {
	var count int64
	err := useTx(ctx, r.db, tx).Model(&models.File{}).
		Where("user_id = ? AND folder_id = ? AND is_deleted = ?", userID, folderID, false).
		Count(&count).Error
	return count, err
}

func (r *GormFileRepository) CountLiveByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := useTx(ctx, r.db, tx).Model(&models.File{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *GormFileRepository) UpdateByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint, updates map[string]interface{}) error {
	return useTx(ctx, r.db, tx).Model(&models.File{}).
		Where("id = ? AND user_id = ?", fileID, userID).
		Updates(updates).Error
}

func (r *GormFileRepository) MarkDeleted(ctx context.Context, tx *gorm.DB, fileIDs []uint, at time.Time) error {
	if len(fileIDs) == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Model(&models.File{}).
		Where("id IN ? AND is_deleted = ?", fileIDs, false).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": at}).Error
}

func (r *GormFileRepository) Restore(ctx context.Context, tx *gorm.DB, fileIDs []uint) error {
	if len(fileIDs) == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Model(&models.File{}).
		Where("id IN ?", fileIDs).
		Updates(map[string]interface{}{"is_deleted": false, "deleted_at": nil}).Error
}

func (r *GormFileRepository) DetachLiveFromFolders(ctx context.Context, tx *gorm.DB, folderIDs []uint) error {
	if len(folderIDs) == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Model(&models.File{}).
		Where("folder_id IN ? AND is_deleted = ?", folderIDs, false).
		Update("folder_id", nil).Error
}

func (r *GormFileRepository) DeleteByIDs(ctx context.Context, tx *gorm.DB, fileIDs []uint) error {
	if len(fileIDs) == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Where("id IN ?", fileIDs).Delete(&models.File{}).Error
}
