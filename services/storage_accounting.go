package services

import (
	"context"
	"errors"

	"github.com/Anaqqa/supfile/metrics"
	"github.com/Anaqqa/supfile/repositories"

	"gorm.io/gorm"
)

type StorageUsage struct {
	Quota       int64   `json:"storage_quota"`
	Used        int64   `json:"storage_used"`
	Available   int64   `json:"storage_available"`
	UsedPercent float64 `json:"used_percent"`
	FileCount   int64   `json:"file_count"`
	FolderCount int64   `json:"folder_count"`
}

// StorageAccountant enforces quota at admission and keeps storage_used in step
// with file rows. Admission and commit are not reserved together: two uploads
// racing between them can overshoot the quota.
type StorageAccountant interface {
	AdmitUpload(ctx context.Context, userID uint, incomingSize int64) error
	CommitUpload(ctx context.Context, tx *gorm.DB, userID uint, size int64) error
	Release(ctx context.Context, tx *gorm.DB, userID uint, size int64) error
	Usage(ctx context.Context, userID uint) (StorageUsage, error)
}

type storageAccountant struct {
	users       repositories.UserRepository
	folders     repositories.FolderRepository
	files       repositories.FileRepository
	maxFileSize int64
}

func NewStorageAccountant(
	users repositories.UserRepository,
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	maxFileSize int64,
) StorageAccountant {
	return &storageAccountant{users: users, folders: folders, files: files, maxFileSize: maxFileSize}
}

func (s *storageAccountant) AdmitUpload(ctx context.Context, userID uint, incomingSize int64) error {
	if s.maxFileSize > 0 && incomingSize > s.maxFileSize {
		metrics.RecordUploadRejection("too_large")
		return newAppErrorWithData(KindPayloadTooLarge, "file exceeds the maximum upload size",
			map[string]int64{"max_file_size": s.maxFileSize}, nil)
	}

	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("user not found")
		}
		return internalError("failed to load user", err)
	}

	if user.StorageUsed+incomingSize > user.StorageQuota {
		metrics.RecordUploadRejection("quota")
		return newAppErrorWithData(KindQuotaExceeded, "storage quota exceeded", map[string]int64{
			"storage_quota": user.StorageQuota,
			"storage_used":  user.StorageUsed,
			"requested":     incomingSize,
		}, nil)
	}
	return nil
}

func (s *storageAccountant) CommitUpload(ctx context.Context, tx *gorm.DB, userID uint, size int64) error {
	if err := s.users.AddStorageUsed(ctx, tx, userID, size); err != nil {
		return internalError("failed to update storage usage", err)
	}
	return nil
}

func (s *storageAccountant) Release(ctx context.Context, tx *gorm.DB, userID uint, size int64) error {
	if err := s.users.SubStorageUsed(ctx, tx, userID, size); err != nil {
		return internalError("failed to update storage usage", err)
	}
	return nil
}

func (s *storageAccountant) Usage(ctx context.Context, userID uint) (StorageUsage, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StorageUsage{}, notFound("user not found")
		}
		return StorageUsage{}, internalError("failed to load user", err)
	}

	fileCount, err := s.files.CountLiveByUser(ctx, nil, userID)
	if err != nil {
		return StorageUsage{}, internalError("failed to count files", err)
	}
	folderCount, err := s.folders.CountLiveByUser(ctx, nil, userID)
	if err != nil {
		return StorageUsage{}, internalError("failed to count folders", err)
	}

	available := user.StorageQuota - user.StorageUsed
	if available < 0 {
		available = 0
	}
	var percent float64
	if user.StorageQuota > 0 {
		percent = float64(user.StorageUsed) / float64(user.StorageQuota) * 100
	}

	return StorageUsage{
		Quota:       user.StorageQuota,
		Used:        user.StorageUsed,
		Available:   available,
		UsedPercent: percent,
		FileCount:   fileCount,
		FolderCount: folderCount,
	}, nil
}
