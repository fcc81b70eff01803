package services

import (
	"context"
	"io"

	"github.com/Anaqqa/supfile/logger"
	"github.com/Anaqqa/supfile/models"
	"github.com/Anaqqa/supfile/repositories"
	"github.com/Anaqqa/supfile/storage"

	"gorm.io/gorm"
)

// ContentStore is the blob surface the services need; *storage.ContentStore
// implements it.
type ContentStore interface {
	Store(ctx context.Context, r io.Reader, declaredName string) (storage.StoredObject, error)
	Retrieve(ctx context.Context, key string) (io.ReadCloser, error)
	Purge(ctx context.Context, key string) error
}

// nodePurger performs the irreversible half of deletion for a set of files.
type nodePurger struct {
	files      repositories.FileRepository
	shares     repositories.ShareRepository
	accessLogs repositories.AccessLogRepository
	accountant StorageAccountant
	content    ContentStore
}

// purgeFiles removes blobs first (failures are logged, not returned), then
// releases each owner's usage and deletes the dependent rows inside tx.
func (p nodePurger) purgeFiles(ctx context.Context, tx *gorm.DB, files []models.File) error {
	if len(files) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(files))
	released := make(map[uint]int64)
	for _, f := range files {
		if err := p.content.Purge(ctx, f.StorageKey); err != nil {
			logger.WithFields(logger.Fields{
				"file_id":     f.ID,
				"user_id":     f.UserID,
				"storage_key": f.StorageKey,
			}).WithError(err).Warn("blob purge failed, continuing with metadata cleanup")
		}
		ids = append(ids, f.ID)
		released[f.UserID] += f.Size
	}

	for userID, size := range released {
		if err := p.accountant.Release(ctx, tx, userID, size); err != nil {
			return err
		}
	}
	if err := p.shares.DeleteByFileIDs(ctx, tx, ids); err != nil {
		return internalError("failed to delete shares", err)
	}
	if err := p.accessLogs.DeleteByFileIDs(ctx, tx, ids); err != nil {
		return internalError("failed to delete access logs", err)
	}
	if err := p.files.DeleteByIDs(ctx, tx, ids); err != nil {
		return internalError("failed to delete files", err)
	}
	return nil
}

func idsOfFiles(files []models.File) []uint {
	ids := make([]uint, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	return ids
}

func idsOfFolders(folders []models.Folder) []uint {
	ids := make([]uint, 0, len(folders))
	for _, f := range folders {
		ids = append(ids, f.ID)
	}
	return ids
}
