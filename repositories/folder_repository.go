package repositories

import (
	"context"
	"time"

	"github.com/Anaqqa/supfile/models"

	"gorm.io/gorm"
)

type GormFolderRepository struct {
	db *gorm.DB
}

func NewGormFolderRepository(db *gorm.DB) *GormFolderRepository {
	return &GormFolderRepository{db: db}
}

func (r *GormFolderRepository) Create(ctx context.Context, tx *gorm.DB, folder *models.Folder) error {
	return useTx(ctx, r.db, tx).Create(folder).Error
}

func (r *GormFolderRepository) GetByIDAndUser(ctx context.Context, tx *gorm.DB, folderID uint, userID uint) (models.Folder, error) {
	var folder models.Folder
	err := useTx(ctx, r.db, tx).Where("id = ? AND user_id = ?", folderID, userID).First(&folder).Error
	return folder, err
}

func (r *GormFolderRepository) GetLiveByIDAndUser(ctx context.Context, tx *gorm.DB, folderID uint, userID uint) (models.Folder, error) {
	var folder models.Folder
	err := useTx(ctx, r.db, tx).
		Where("id = ? AND user_id = ? AND is_deleted = ?", folderID, userID, false).
		First(&folder).Error
	return folder, err
}

// ListByUser loads every folder of the user regardless of state.
func (r *GormFolderRepository) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Folder, error) {
	var folders []models.Folder
	err := useTx(ctx, r.db, tx).Where("user_id = ?", userID).Order("id ASC").Find(&folders).Error
	return folders, err
}

// ListLiveByParent lists live direct children; a nil parentID means the root level.
func (r *GormFolderRepository) ListLiveByParent(ctx context.Context, tx *gorm.DB, userID uint, parentID *uint) ([]models.Folder, error) {
	db := useTx(ctx, r.db, tx).Where("user_id = ? AND is_deleted = ?", userID, false)
	if parentID == nil {
		db = db.Where("parent_id IS NULL")
	} else {
		db = db.Where("parent_id = ?", *parentID)
	}

	var folders []models.Folder
	err := db.Order("name ASC").Find(&folders).Error
	return folders, err
}

func (r *GormFolderRepository) ListDeleted(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Folder, error) {
	var folders []models.Folder
	err := useTx(ctx, r.db, tx).
		Where("user_id = ? AND is_deleted = ?", userID, true).
		Order("deleted_at DESC").
		Find(&folders).Error
	return folders, err
}

func (r *GormFolderRepository) ListDeletedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]models.Folder, error) {
	var folders []models.Folder
	err := useTx(ctx, r.db, tx).
		Where("is_deleted = ? AND deleted_at < ?", true, cutoff).
		Order("user_id ASC").
		Find(&folders).Error
	return folders, err
}

func (r *GormFolderRepository) SearchLive(ctx context.Context, tx *gorm.DB, in SearchInput) ([]models.Folder, error) {
	db, match := nameSearch(useTx(ctx, r.db, tx).
		Where("user_id = ? AND is_deleted = ?", in.UserID, false), in.Query)
	if in.ParentID != nil {
		db = db.Where("parent_id = ?", *in.ParentID)
	}

	var folders []models.Folder
	if err := db.Order("name ASC").Find(&folders).Error; err != nil {
		return nil, err
	}
	if match == nil {
		return folders, nil
	}
	matched := folders[:0]
	for _, n := range folders {
		if match(n.Name) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

func (r *GormFolderRepository) CountLiveByParent(ctx context.Context, tx *gorm.DB, userID uint, parentID uint) (int64, error) {
	var count int64
	err := useTx(ctx, r.db, tx).Model(&models.Folder{}).
		Where("user_id = ? AND parent_id = ? AND is_deleted = ?", userID, parentID, false).
		Count(&count).Error
	return count, err
}

func (r *GormFolderRepository) CountLiveByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := useTx(ctx, r.db, tx).Model(&models.Folder{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *GormFolderRepository) UpdateByID(ctx context.Context, tx *gorm.DB, folderID uint, updates map[string]interface{}) error {
	return useTx(ctx, r.db, tx).Model(&models.Folder{}).Where("id = ?", folderID).Updates(updates).Error
}

// MarkDeleted trashes the live folders among folderIDs; rows already in the
// trash keep their original deleted_at.
func (r *GormFolderRepository) MarkDeleted(ctx context.Context, tx *gorm.DB, folderIDs []uint, at time.Time) error {
	if len(folderIDs) == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Model(&models.Folder{}).
		Where("id IN ? AND is_deleted = ?", folderIDs, false).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": at}).Error
}

func (r *GormFolderRepository) Restore(ctx context.Context, tx *gorm.DB, folderIDs []uint) error {
	if len(folderIDs) == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Model(&models.Folder{}).
		Where("id IN ?", folderIDs).
		Updates(map[string]interface{}{"is_deleted": false, "deleted_at": nil}).Error
}

// DetachLiveChildren moves live folders whose parent is in parentIDs to the root.
func (r *GormFolderRepository) DetachLiveChildren(ctx context.Context, tx *gorm.DB, parentIDs []uint) error {
	if len(parentIDs) == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Model(&models.Folder{}).
		Where("parent_id IN ? AND is_deleted = ?", parentIDs, false).
		Update("parent_id", nil).Error
}

func (r *GormFolderRepository) DeleteByIDs(ctx context.Context, tx *gorm.DB, folderIDs []uint) error {
	if len(folderIDs) == 0 {
		return nil
	}
	return useTx(ctx, r.db, tx).Where("id IN ?", folderIDs).Delete(&models.Folder{}).Error
}

func (r *GormFolderRepository) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uint) error {
	return useTx(ctx, r.db, tx).Where("user_id = ?", userID).Delete(&models.Folder{}).Error
}
