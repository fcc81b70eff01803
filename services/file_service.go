package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/Anaqqa/supfile/logger"
	"github.com/Anaqqa/supfile/models"
	"github.com/Anaqqa/supfile/repositories"
	"github.com/Anaqqa/supfile/storage"

	"github.com/disintegration/imaging"
	"gorm.io/gorm"
)

type UploadInput struct {
	Name     string
	Size     int64
	FolderID *uint
	Body     io.Reader
}

type AccessInfo struct {
	IPAddress string
	UserAgent string
}

type ThumbnailOptions struct {
	Width   int
	Height  int
	Quality int
}

type FileService interface {
	Upload(ctx context.Context, userID uint, in UploadInput) (models.File, error)
	GetFile(ctx context.Context, userID uint, fileID uint) (models.File, error)
	UpdateFile(ctx context.Context, userID uint, fileID uint, update NodeUpdate) (models.File, error)
	DeleteFile(ctx context.Context, userID uint, fileID uint, permanent bool) error
	RestoreFile(ctx context.Context, userID uint, fileID uint) (models.File, error)
	OpenFile(ctx context.Context, userID uint, fileID uint, access AccessInfo) (models.File, io.ReadCloser, error)
	Thumbnail(ctx context.Context, userID uint, fileID uint) ([]byte, error)
}

type fileService struct {
	txManager  TxManager
	folders    repositories.FolderRepository
	files      repositories.FileRepository
	accessLogs repositories.AccessLogRepository
	accountant StorageAccountant
	content    ContentStore
	purger     nodePurger
	thumbnail  ThumbnailOptions
	now        func() time.Time
}

func NewFileService(
	txManager TxManager,
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	accessLogs repositories.AccessLogRepository,
	accountant StorageAccountant,
	content ContentStore,
	purger nodePurger,
	thumbnail ThumbnailOptions,
) FileService {
	return &fileService{
		txManager:  txManager,
		folders:    folders,
		files:      files,
		accessLogs: accessLogs,
		accountant: accountant,
		content:    content,
		purger:     purger,
		thumbnail:  thumbnail,
		now:        time.Now,
	}
}

func (s *fileService) Upload(ctx context.Context, userID uint, in UploadInput) (models.File, error) {
	name := sanitizeFilename(in.Name)
	if name == "" {
		return models.File{}, invalidOperation("file name is required")
	}
	if in.Size < 0 {
		return models.File{}, invalidOperation("file size must not be negative")
	}
	folderID := normalizeParent(in.FolderID)

	if folderID != nil {
		if _, err := s.folders.GetLiveByIDAndUser(ctx, nil, *folderID, userID); err != nil {
			return models.File{}, folderLookupError(err)
		}
	}

	if err := s.accountant.AdmitUpload(ctx, userID, in.Size); err != nil {
		return models.File{}, err
	}

	obj, err := s.content.Store(ctx, in.Body, name)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return models.File{}, newAppError(KindPayloadTooLarge, "file exceeds the maximum upload size", err)
		}
		return models.File{}, newAppError(KindStorageIO, "failed to store file content", err)
	}
	// The declared size only gates admission; charge what was actually stored.
	if obj.Size != in.Size {
		if err := s.accountant.AdmitUpload(ctx, userID, obj.Size); err != nil {
			s.discardBlob(ctx, obj.Key)
			return models.File{}, err
		}
	}

	record := models.File{
		Name:         name,
		OriginalName: name,
		Size:         obj.Size,
		MimeType:     obj.MimeType,
		StorageKey:   obj.Key,
		FolderID:     folderID,
		UserID:       userID,
	}
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if folderID != nil {
			if _, err := s.folders.GetLiveByIDAndUser(ctx, tx, *folderID, userID); err != nil {
				return folderLookupError(err)
			}
		}
		if err := s.files.Create(ctx, tx, &record); err != nil {
			return internalError("failed to save file record", err)
		}
		return s.accountant.CommitUpload(ctx, tx, userID, obj.Size)
	})
	if err != nil {
		s.discardBlob(ctx, obj.Key)
		return models.File{}, err
	}

	logger.WithFields(logger.Fields{
		"user_id":     userID,
		"file_id":     record.ID,
		"storage_key": record.StorageKey,
		"size":        record.Size,
	}).Info("file uploaded")
	return record, nil
}

func (s *fileService) discardBlob(ctx context.Context, key string) {
	if err := s.content.Purge(context.WithoutCancel(ctx), key); err != nil {
		logger.WithFields(logger.Fields{"storage_key": key}).WithError(err).Warn("failed to remove orphaned blob")
	}
}

func (s *fileService) GetFile(ctx context.Context, userID uint, fileID uint) (models.File, error) {
	file, err := s.files.GetLiveByIDAndUser(ctx, nil, fileID, userID)
	if err != nil {
		return models.File{}, fileLookupError(err)
	}
	return file, nil
}

func (s *fileService) UpdateFile(ctx context.Context, userID uint, fileID uint, update NodeUpdate) (models.File, error) {
	var result models.File
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		file, err := s.files.GetByIDAndUser(ctx, tx, fileID, userID)
		if err != nil {
			return fileLookupError(err)
		}

		updates := map[string]interface{}{}
		if update.Parent.Set {
			if update.Parent.ID == nil {
				updates["folder_id"] = nil
			} else {
				if _, err := s.folders.GetLiveByIDAndUser(ctx, tx, *update.Parent.ID, userID); err != nil {
					return folderLookupError(err)
				}
				updates["folder_id"] = *update.Parent.ID
			}
		}
		if name := sanitizeFilename(update.Name); name != "" {
			updates["name"] = name
		}

		if len(updates) > 0 {
			if err := s.files.UpdateByIDAndUser(ctx, tx, file.ID, userID, updates); err != nil {
				return internalError("failed to update file", err)
			}
		}

		result, err = s.files.GetByIDAndUser(ctx, tx, file.ID, userID)
		if err != nil {
			return internalError("failed to reload file", err)
		}
		return nil
	})
	if err != nil {
		return models.File{}, err
	}
	return result, nil
}

func (s *fileService) DeleteFile(ctx context.Context, userID uint, fileID uint, permanent bool) error {
	return s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		file, err := s.files.GetByIDAndUser(ctx, tx, fileID, userID)
		if err != nil {
			return fileLookupError(err)
		}

		if !permanent {
			if err := s.files.MarkDeleted(ctx, tx, []uint{file.ID}, s.now().UTC()); err != nil {
				return internalError("failed to move file to trash", err)
			}
			return nil
		}
		return s.purger.purgeFiles(ctx, tx, []models.File{file})
	})
}

func (s *fileService) RestoreFile(ctx context.Context, userID uint, fileID uint) (models.File, error) {
	var result models.File
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		file, err := s.files.GetByIDAndUser(ctx, tx, fileID, userID)
		if err != nil {
			return fileLookupError(err)
		}
		if !file.IsDeleted {
			return notFound("file not found in trash")
		}

		if file.FolderID != nil {
			_, err := s.folders.GetLiveByIDAndUser(ctx, tx, *file.FolderID, userID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := s.files.UpdateByIDAndUser(ctx, tx, file.ID, userID, map[string]interface{}{"folder_id": nil}); err != nil {
					return internalError("failed to detach file", err)
				}
			} else if err != nil {
				return internalError("failed to load folder", err)
			}
		}

		if err := s.files.Restore(ctx, tx, []uint{file.ID}); err != nil {
			return internalError("failed to restore file", err)
		}
		result, err = s.files.GetByIDAndUser(ctx, tx, file.ID, userID)
		if err != nil {
			return internalError("failed to reload file", err)
		}
		return nil
	})
	if err != nil {
		return models.File{}, err
	}
	return result, nil
}

func (s *fileService) OpenFile(ctx context.Context, userID uint, fileID uint, access AccessInfo) (models.File, io.ReadCloser, error) {
	file, err := s.files.GetLiveByIDAndUser(ctx, nil, fileID, userID)
	if err != nil {
		return models.File{}, nil, fileLookupError(err)
	}

	rc, err := openBlob(ctx, s.content, file)
	if err != nil {
		return models.File{}, nil, err
	}

	uid := userID
	recordAccess(ctx, s.accessLogs, &models.FileAccessLog{
		FileID:    file.ID,
		UserID:    &uid,
		Action:    models.AccessActionDownload,
		IPAddress: access.IPAddress,
		UserAgent: access.UserAgent,
		FileSize:  file.Size,
	})
	return file, rc, nil
}

// Thumbnail renders a JPEG preview of an image file on demand.
func (s *fileService) Thumbnail(ctx context.Context, userID uint, fileID uint) ([]byte, error) {
	file, err := s.files.GetLiveByIDAndUser(ctx, nil, fileID, userID)
	if err != nil {
		return nil, fileLookupError(err)
	}
	if !file.IsImage() {
		return nil, invalidOperation("file is not an image")
	}

	rc, err := openBlob(ctx, s.content, file)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	if err != nil {
		return nil, newAppError(KindInvalidOperation, "image could not be decoded", err)
	}

	thumb := imaging.Fit(img, s.thumbnail.Width, s.thumbnail.Height, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(s.thumbnail.Quality)); err != nil {
		return nil, internalError("failed to encode thumbnail", err)
	}
	return buf.Bytes(), nil
}

func openBlob(ctx context.Context, content ContentStore, file models.File) (io.ReadCloser, error) {
	rc, err := content.Retrieve(ctx, file.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			logger.WithFields(logger.Fields{
				"file_id":     file.ID,
				"storage_key": file.StorageKey,
			}).Warn("file content missing from storage")
			return nil, notFound("file content not found")
		}
		return nil, newAppError(KindStorageIO, "failed to read file content", err)
	}
	return rc, nil
}

// recordAccess is best effort; a failed audit write never fails a download.
func recordAccess(ctx context.Context, logs repositories.AccessLogRepository, entry *models.FileAccessLog) {
	if len(entry.UserAgent) > 500 {
		entry.UserAgent = entry.UserAgent[:500]
	}
	if err := logs.Create(ctx, nil, entry); err != nil {
		logger.WithFields(logger.Fields{"file_id": entry.FileID}).WithError(err).Warn("failed to record file access")
	}
}

func fileLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("file not found")
	}
	return internalError("failed to load file", err)
}
