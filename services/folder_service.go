package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Anaqqa/supfile/logger"
	"github.com/Anaqqa/supfile/models"
	"github.com/Anaqqa/supfile/repositories"

	"gorm.io/gorm"
)

type FolderService interface {
	GetFolder(ctx context.Context, userID uint, folderID uint) (models.Folder, error)
	CreateFolder(ctx context.Context, userID uint, name string, parentID *uint) (models.Folder, error)
	UpdateFolder(ctx context.Context, userID uint, folderID uint, update NodeUpdate) (models.Folder, error)
	DeleteFolder(ctx context.Context, userID uint, folderID uint, opts DeleteOptions) error
	RestoreFolder(ctx context.Context, userID uint, folderID uint, recursive bool) (models.Folder, error)
	ExportManifest(ctx context.Context, userID uint, folderID uint) (*ExportManifest, error)
}

type folderService struct {
	txManager TxManager
	folders   repositories.FolderRepository
	files     repositories.FileRepository
	purger    nodePurger
	now       func() time.Time
}

func NewFolderService(
	txManager TxManager,
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	purger nodePurger,
) FolderService {
	return &folderService{
		txManager: txManager,
		folders:   folders,
		files:     files,
		purger:    purger,
		now:       time.Now,
	}
}

func (s *folderService) GetFolder(ctx context.Context, userID uint, folderID uint) (models.Folder, error) {
	folder, err := s.folders.GetLiveByIDAndUser(ctx, nil, folderID, userID)
	if err != nil {
		return models.Folder{}, folderLookupError(err)
	}
	return folder, nil
}

func (s *folderService) CreateFolder(ctx context.Context, userID uint, name string, parentID *uint) (models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Folder{}, invalidOperation("folder name is required")
	}
	parentID = normalizeParent(parentID)

	folder := models.Folder{Name: name, ParentID: parentID, UserID: userID}
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if parentID != nil {
			if _, err := s.folders.GetLiveByIDAndUser(ctx, tx, *parentID, userID); err != nil {
				return parentLookupError(err)
			}
		}
		if err := s.folders.Create(ctx, tx, &folder); err != nil {
			return internalError("failed to create folder", err)
		}
		return nil
	})
	if err != nil {
		return models.Folder{}, err
	}
	return folder, nil
}

func (s *folderService) UpdateFolder(ctx context.Context, userID uint, folderID uint, update NodeUpdate) (models.Folder, error) {
	var result models.Folder
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		folder, err := s.folders.GetByIDAndUser(ctx, tx, folderID, userID)
		if err != nil {
			return folderLookupError(err)
		}

		updates := map[string]interface{}{}
		if update.Parent.Set {
			if update.Parent.ID == nil {
				updates["parent_id"] = nil
			} else {
				target := *update.Parent.ID
				if target == folderID {
					return invalidOperation("folder cannot be its own parent")
				}

				all, err := s.folders.ListByUser(ctx, tx, userID)
				if err != nil {
					return internalError("failed to load folder tree", err)
				}
				if newFolderTree(all).isAncestorOrSelf(folderID, target) {
					return invalidOperation("cannot move folder into its own descendant")
				}

				if _, err := s.folders.GetLiveByIDAndUser(ctx, tx, target, userID); err != nil {
					return parentLookupError(err)
				}
				updates["parent_id"] = target
			}
		}
		if name := strings.TrimSpace(update.Name); name != "" {
			updates["name"] = name
		}

		if len(updates) > 0 {
			if err := s.folders.UpdateByID(ctx, tx, folder.ID, updates); err != nil {
				return internalError("failed to update folder", err)
			}
		}

		result, err = s.folders.GetByIDAndUser(ctx, tx, folder.ID, userID)
		if err != nil {
			return internalError("failed to reload folder", err)
		}
		return nil
	})
	if err != nil {
		return models.Folder{}, err
	}
	return result, nil
}

func (s *folderService) DeleteFolder(ctx context.Context, userID uint, folderID uint, opts DeleteOptions) error {
	return s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		folder, err := s.folders.GetByIDAndUser(ctx, tx, folderID, userID)
		if err != nil {
			return folderLookupError(err)
		}

		switch {
		case !opts.Permanent && !opts.Recursive:
			// Children stay live under a trashed parent.
			return s.markDeleted(ctx, tx, []uint{folder.ID}, nil)
		case !opts.Permanent:
			folderIDs, files, err := s.collectSubtree(ctx, tx, userID, folder.ID)
			if err != nil {
				return err
			}
			return s.markDeleted(ctx, tx, folderIDs, idsOfFiles(files))
		case !opts.Recursive:
			return s.deleteEmptyFolder(ctx, tx, userID, folder.ID)
		default:
			folderIDs, files, err := s.collectSubtree(ctx, tx, userID, folder.ID)
			if err != nil {
				return err
			}
			if err := s.purger.purgeFiles(ctx, tx, files); err != nil {
				return err
			}
			if err := s.folders.DeleteByIDs(ctx, tx, folderIDs); err != nil {
				return internalError("failed to delete folders", err)
			}
			logger.WithFields(logger.Fields{
				"user_id":   userID,
				"folder_id": folder.ID,
				"folders":   len(folderIDs),
				"files":     len(files),
			}).Info("folder permanently deleted")
			return nil
		}
	})
}

func (s *folderService) markDeleted(ctx context.Context, tx *gorm.DB, folderIDs []uint, fileIDs []uint) error {
	now := s.now().UTC()
	if err := s.folders.MarkDeleted(ctx, tx, folderIDs, now); err != nil {
		return internalError("failed to move folders to trash", err)
	}
	if err := s.files.MarkDeleted(ctx, tx, fileIDs, now); err != nil {
		return internalError("failed to move files to trash", err)
	}
	return nil
}

func (s *folderService) deleteEmptyFolder(ctx context.Context, tx *gorm.DB, userID uint, folderID uint) error {
	childFolders, err := s.folders.CountLiveByParent(ctx, tx, userID, folderID)
	if err != nil {
		return internalError("failed to inspect folder", err)
	}
	childFiles, err := s.files.CountLiveByFolder(ctx, tx, userID, folderID)
	if err != nil {
		return internalError("failed to inspect folder", err)
	}
	if childFolders+childFiles > 0 {
		return invalidOperation("folder is not empty")
	}
	if err := s.folders.DeleteByIDs(ctx, tx, []uint{folderID}); err != nil {
		return internalError("failed to delete folder", err)
	}
	return nil
}

// collectSubtree returns the folder and all its descendant folders plus every
// file inside them, in any state.
func (s *folderService) collectSubtree(ctx context.Context, tx *gorm.DB, userID uint, folderID uint) ([]uint, []models.File, error) {
	all, err := s.folders.ListByUser(ctx, tx, userID)
	if err != nil {
		return nil, nil, internalError("failed to load folder tree", err)
	}
	ids := newFolderTree(all).subtree(folderID)

	files, err := s.files.ListByFolderIDs(ctx, tx, userID, ids)
	if err != nil {
		return nil, nil, internalError("failed to load folder contents", err)
	}
	return ids, files, nil
}

func (s *folderService) RestoreFolder(ctx context.Context, userID uint, folderID uint, recursive bool) (models.Folder, error) {
	var result models.Folder
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		folder, err := s.folders.GetByIDAndUser(ctx, tx, folderID, userID)
		if err != nil {
			return folderLookupError(err)
		}
		if !folder.IsDeleted {
			return notFound("folder not found in trash")
		}

		if folder.ParentID != nil {
			_, err := s.folders.GetLiveByIDAndUser(ctx, tx, *folder.ParentID, userID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := s.folders.UpdateByID(ctx, tx, folder.ID, map[string]interface{}{"parent_id": nil}); err != nil {
					return internalError("failed to detach folder", err)
				}
			} else if err != nil {
				return internalError("failed to load parent folder", err)
			}
		}

		if recursive {
			folderIDs, files, err := s.collectSubtree(ctx, tx, userID, folder.ID)
			if err != nil {
				return err
			}
			if err := s.folders.Restore(ctx, tx, folderIDs); err != nil {
				return internalError("failed to restore folders", err)
			}
			if err := s.files.Restore(ctx, tx, idsOfFiles(files)); err != nil {
				return internalError("failed to restore files", err)
			}
		} else if err := s.folders.Restore(ctx, tx, []uint{folder.ID}); err != nil {
			return internalError("failed to restore folder", err)
		}

		result, err = s.folders.GetByIDAndUser(ctx, tx, folder.ID, userID)
		if err != nil {
			return internalError("failed to reload folder", err)
		}
		return nil
	})
	if err != nil {
		return models.Folder{}, err
	}
	return result, nil
}

func (s *folderService) ExportManifest(ctx context.Context, userID uint, folderID uint) (*ExportManifest, error) {
	root, err := s.folders.GetLiveByIDAndUser(ctx, nil, folderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, internalError("failed to load folder", err)
	}

	all, err := s.folders.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, internalError("failed to load folder tree", err)
	}
	tree := newFolderTree(all)

	files, err := s.files.ListByFolderIDs(ctx, nil, userID, tree.subtree(root.ID))
	if err != nil {
		return nil, internalError("failed to load folder contents", err)
	}
	return buildExportManifest(tree, root, files), nil
}

func folderLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("folder not found")
	}
	return internalError("failed to load folder", err)
}

func parentLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("parent folder not found")
	}
	return internalError("failed to load parent folder", err)
}
