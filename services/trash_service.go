package services

import (
	"context"

	"github.com/Anaqqa/supfile/logger"
	"github.com/Anaqqa/supfile/metrics"
	"github.com/Anaqqa/supfile/models"
	"github.com/Anaqqa/supfile/repositories"

	"gorm.io/gorm"
)

type PurgeResult struct {
	Files   int `json:"files"`
	Folders int `json:"folders"`
}

type TrashService interface {
	ListTrash(ctx context.Context, userID uint) (NodeListing, error)
	EmptyTrash(ctx context.Context, userID uint) (PurgeResult, error)
}

type trashService struct {
	txManager TxManager
	folders   repositories.FolderRepository
	files     repositories.FileRepository
	purger    nodePurger
}

func NewTrashService(
	txManager TxManager,
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	purger nodePurger,
) TrashService {
	return &trashService{txManager: txManager, folders: folders, files: files, purger: purger}
}

func (s *trashService) ListTrash(ctx context.Context, userID uint) (NodeListing, error) {
	folders, err := s.folders.ListDeleted(ctx, nil, userID)
	if err != nil {
		return NodeListing{}, internalError("failed to list trashed folders", err)
	}
	files, err := s.files.ListDeleted(ctx, nil, userID)
	if err != nil {
		return NodeListing{}, internalError("failed to list trashed files", err)
	}
	return newNodeListing(folders, files), nil
}

func (s *trashService) EmptyTrash(ctx context.Context, userID uint) (PurgeResult, error) {
	var result PurgeResult
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		folders, err := s.folders.ListDeleted(ctx, tx, userID)
		if err != nil {
			return internalError("failed to list trashed folders", err)
		}
		files, err := s.files.ListDeleted(ctx, tx, userID)
		if err != nil {
			return internalError("failed to list trashed files", err)
		}

		result, err = purgeTrashed(ctx, tx, s.folders, s.files, s.purger, folders, files)
		return err
	})
	if err != nil {
		return PurgeResult{}, err
	}

	metrics.RecordTrashPurged("file", "manual", result.Files)
	metrics.RecordTrashPurged("folder", "manual", result.Folders)
	logger.WithFields(logger.Fields{
		"user_id": userID,
		"files":   result.Files,
		"folders": result.Folders,
	}).Info("trash emptied")
	return result, nil
}

// purgeTrashed permanently removes already-trashed nodes. Live nodes that
// still point at a purged folder are moved to the root so none become
// unreachable.
func purgeTrashed(
	ctx context.Context,
	tx *gorm.DB,
	folderRepo repositories.FolderRepository,
	fileRepo repositories.FileRepository,
	purger nodePurger,
	folders []models.Folder,
	files []models.File,
) (PurgeResult, error) {
	if err := purger.purgeFiles(ctx, tx, files); err != nil {
		return PurgeResult{}, err
	}

	folderIDs := idsOfFolders(folders)
	if len(folderIDs) > 0 {
		if err := fileRepo.DetachLiveFromFolders(ctx, tx, folderIDs); err != nil {
			return PurgeResult{}, internalError("failed to detach files", err)
		}
		if err := folderRepo.DetachLiveChildren(ctx, tx, folderIDs); err != nil {
			return PurgeResult{}, internalError("failed to detach folders", err)
		}
		if err := folderRepo.DeleteByIDs(ctx, tx, folderIDs); err != nil {
			return PurgeResult{}, internalError("failed to delete folders", err)
		}
	}
	return PurgeResult{Files: len(files), Folders: len(folderIDs)}, nil
}

func newNodeListing(folders []models.Folder, files []models.File) NodeListing {
	if folders == nil {
		folders = []models.Folder{}
	}
	if files == nil {
		files = []models.File{}
	}
	return NodeListing{Folders: folders, Files: files}
}
