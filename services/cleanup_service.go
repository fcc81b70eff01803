package services

import (
	"context"
	"time"

	"github.com/Anaqqa/supfile/logger"
	"github.com/Anaqqa/supfile/metrics"
	"github.com/Anaqqa/supfile/repositories"

	"gorm.io/gorm"
)

// CleanupService purges nodes that have sat in the trash longer than the
// retention window.
type CleanupService interface {
	PurgeExpired(ctx context.Context) (PurgeResult, error)
	Start(ctx context.Context)
}

type cleanupService struct {
	txManager TxManager
	folders   repositories.FolderRepository
	files     repositories.FileRepository
	purger    nodePurger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewCleanupService(
	txManager TxManager,
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	purger nodePurger,
	retention time.Duration,
	interval time.Duration,
) CleanupService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &cleanupService{
		txManager: txManager,
		folders:   folders,
		files:     files,
		purger:    purger,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

func (s *cleanupService) PurgeExpired(ctx context.Context) (PurgeResult, error) {
	if s.retention <= 0 {
		return PurgeResult{}, nil
	}
	cutoff := s.now().UTC().Add(-s.retention)

	var result PurgeResult
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		folders, err := s.folders.ListDeletedBefore(ctx, tx, cutoff)
		if err != nil {
			return internalError("failed to list expired folders", err)
		}
		files, err := s.files.ListDeletedBefore(ctx, tx, cutoff)
		if err != nil {
			return internalError("failed to list expired files", err)
		}
		result, err = purgeTrashed(ctx, tx, s.folders, s.files, s.purger, folders, files)
		return err
	})
	if err != nil {
		return PurgeResult{}, err
	}

	metrics.RecordTrashPurged("file", "retention", result.Files)
	metrics.RecordTrashPurged("folder", "retention", result.Folders)
	if result.Files > 0 || result.Folders > 0 {
		logger.Infof("trash retention purged %d files and %d folders", result.Files, result.Folders)
	}
	return result, nil
}

// Start runs PurgeExpired on every tick until ctx is done. It returns at once
// when retention is disabled.
func (s *cleanupService) Start(ctx context.Context) {
	if s.retention <= 0 {
		logger.Infof("trash retention disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PurgeExpired(ctx); err != nil {
				logger.WithError(err).Error("trash retention run failed")
			}
		}
	}
}
