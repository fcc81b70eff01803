package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Anaqqa/supfile/logger"
	"github.com/Anaqqa/supfile/metrics"
	"github.com/Anaqqa/supfile/models"
	"github.com/Anaqqa/supfile/repositories"

	"gorm.io/gorm"
)

const shareTokenBytes = 32

type SharedFile struct {
	Share models.Share `json:"share"`
	File  models.File  `json:"file"`
}

type ShareService interface {
	CreateShare(ctx context.Context, userID uint, fileID uint, expiresAt *time.Time) (models.Share, error)
	ResolveShare(ctx context.Context, token string) (SharedFile, error)
	OpenShared(ctx context.Context, token string, access AccessInfo) (SharedFile, io.ReadCloser, error)
	DeleteShare(ctx context.Context, userID uint, shareID uint) error
	ListShares(ctx context.Context, userID uint, fileID *uint) ([]models.Share, error)
}

type shareService struct {
	txManager  TxManager
	files      repositories.FileRepository
	shares     repositories.ShareRepository
	accessLogs repositories.AccessLogRepository
	content    ContentStore
	now        func() time.Time
	newToken   func() (string, error)
}

func NewShareService(
	txManager TxManager,
	files repositories.FileRepository,
	shares repositories.ShareRepository,
	accessLogs repositories.AccessLogRepository,
	content ContentStore,
) ShareService {
	return &shareService{
		txManager:  txManager,
		files:      files,
		shares:     shares,
		accessLogs: accessLogs,
		content:    content,
		now:        time.Now,
		newToken:   generateShareToken,
	}
}

func (s *shareService) CreateShare(ctx context.Context, userID uint, fileID uint, expiresAt *time.Time) (models.Share, error) {
	if expiresAt != nil {
		at := expiresAt.UTC()
		if !at.After(s.now().UTC()) {
			return models.Share{}, invalidOperation("expiry must be in the future")
		}
		expiresAt = &at
	}

	if _, err := s.files.GetLiveByIDAndUser(ctx, nil, fileID, userID); err != nil {
		return models.Share{}, fileLookupError(err)
	}

	token, err := s.newToken()
	if err != nil {
		return models.Share{}, internalError("failed to generate share token", err)
	}

	share := models.Share{
		Token:     token,
		FileID:    fileID,
		IsActive:  true,
		ExpiresAt: expiresAt,
	}
	if err := s.shares.Create(ctx, nil, &share); err != nil {
		return models.Share{}, internalError("failed to create share", err)
	}

	logger.WithFields(logger.Fields{"user_id": userID, "file_id": fileID, "share_id": share.ID}).Info("share created")
	return share, nil
}

// ResolveShare validates a public token. Expiry is checked lazily: the first
// resolution past expires_at deactivates the share and reports Expired, later
// ones see an inactive share and report NotFound.
func (s *shareService) ResolveShare(ctx context.Context, token string) (SharedFile, error) {
	share, err := s.shares.GetByToken(ctx, nil, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordShareResolution("not_found")
			return SharedFile{}, notFound("share not found")
		}
		return SharedFile{}, internalError("failed to load share", err)
	}
	if !share.IsActive {
		metrics.RecordShareResolution("not_found")
		return SharedFile{}, notFound("share not found")
	}

	if share.Expired(s.now().UTC()) {
		if err := s.shares.Deactivate(ctx, nil, share.ID); err != nil {
			return SharedFile{}, internalError("failed to deactivate share", err)
		}
		metrics.RecordShareResolution("expired")
		return SharedFile{}, newAppError(KindExpired, "share has expired", nil)
	}

	file, err := s.files.GetByID(ctx, nil, share.FileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordShareResolution("not_found")
			return SharedFile{}, notFound("shared file not found")
		}
		return SharedFile{}, internalError("failed to load shared file", err)
	}
	if file.IsDeleted {
		metrics.RecordShareResolution("not_found")
		return SharedFile{}, notFound("shared file not found")
	}

	metrics.RecordShareResolution("ok")
	return SharedFile{Share: share, File: file}, nil
}

func (s *shareService) OpenShared(ctx context.Context, token string, access AccessInfo) (SharedFile, io.ReadCloser, error) {
	shared, err := s.ResolveShare(ctx, token)
	if err != nil {
		return SharedFile{}, nil, err
	}

	rc, err := openBlob(ctx, s.content, shared.File)
	if err != nil {
		return SharedFile{}, nil, err
	}

	shareID := shared.Share.ID
	recordAccess(ctx, s.accessLogs, &models.FileAccessLog{
		FileID:    shared.File.ID,
		ShareID:   &shareID,
		Action:    models.AccessActionShareDownload,
		IPAddress: access.IPAddress,
		UserAgent: access.UserAgent,
		FileSize:  shared.File.Size,
	})
	return shared, rc, nil
}

func (s *shareService) DeleteShare(ctx context.Context, userID uint, shareID uint) error {
	return s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		share, err := s.shares.GetByIDAndOwner(ctx, tx, shareID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("share not found")
			}
			return internalError("failed to load share", err)
		}
		if err := s.shares.DeleteByID(ctx, tx, share.ID); err != nil {
			return internalError("failed to delete share", err)
		}
		return nil
	})
}

func (s *shareService) ListShares(ctx context.Context, userID uint, fileID *uint) ([]models.Share, error) {
	shares, err := s.shares.ListByOwner(ctx, nil, userID, normalizeParent(fileID))
	if err != nil {
		return nil, internalError("failed to list shares", err)
	}
	if shares == nil {
		shares = []models.Share{}
	}
	return shares, nil
}

func generateShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
