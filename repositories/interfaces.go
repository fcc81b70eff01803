package repositories

import (
	"context"
	"time"

	"github.com/Anaqqa/supfile/models"

	"gorm.io/gorm"
)

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type UserRepository interface {
	CountByEmail(ctx context.Context, tx *gorm.DB, email string) (int64, error)
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, userID uint) (models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (models.User, error)
	GetByOAuth(ctx context.Context, tx *gorm.DB, provider string, providerID string) (models.User, error)
	UpdateByID(ctx context.Context, tx *gorm.DB, userID uint, updates map[string]interface{}) error
	AddStorageUsed(ctx context.Context, tx *gorm.DB, userID uint, delta int64) error
	SubStorageUsed(ctx context.Context, tx *gorm.DB, userID uint, delta int64) error
	DeleteByID(ctx context.Context, tx *gorm.DB, userID uint) error
}

// FolderRepository reads and writes folder rows. Methods named Live only see
// rows with is_deleted = false; the others see every state.
type FolderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, folder *models.Folder) error
	GetByIDAndUser(ctx context.Context, tx *gorm.DB, folderID uint, userID uint) (models.Folder, error)
	GetLiveByIDAndUser(ctx context.Context, tx *gorm.DB, folderID uint, userID uint) (models.Folder, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Folder, error)
	ListLiveByParent(ctx context.Context, tx *gorm.DB, userID uint, parentID *uint) ([]models.Folder, error)
	ListDeleted(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Folder, error)
	ListDeletedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]models.Folder, error)
	SearchLive(ctx context.Context, tx *gorm.DB, in SearchInput) ([]models.Folder, error)
	CountLiveByParent(ctx context.Context, tx *gorm.DB, userID uint, parentID uint) (int64, error)
	CountLiveByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error)
	UpdateByID(ctx context.Context, tx *gorm.DB, folderID uint, updates map[string]interface{}) error
	MarkDeleted(ctx context.Context, tx *gorm.DB, folderIDs []uint, at time.Time) error
	Restore(ctx context.Context, tx *gorm.DB, folderIDs []uint) error
	DetachLiveChildren(ctx context.Context, tx *gorm.DB, parentIDs []uint) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, folderIDs []uint) error
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uint) error
}

type SearchInput struct {
	UserID   uint
	Query    string
	ParentID *uint
}

type FileRepository interface {
	Create(ctx context.Context, tx *gorm.DB, file *models.File) error
	GetByID(ctx context.Context, tx *gorm.DB, fileID uint) (models.File, error)
	GetByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint) (models.File, error)
	GetLiveByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint) (models.File, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.File, error)
	ListByFolderIDs(ctx context.Context, tx *gorm.DB, userID uint, folderIDs []uint) ([]models.File, error)
	ListLiveByFolder(ctx context.Context, tx *gorm.DB, userID uint, folderID *uint) ([]models.File, error)
	ListDeleted(ctx context.Context, tx *gorm.DB, userID uint) ([]models.File, error)
	ListDeletedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]models.File, error)
	SearchLive(ctx context.Context, tx *gorm.DB, in SearchInput) ([]models.File, error)
	CountLiveByFolder(ctx context.Context, tx *gorm.DB, userID uint, folderID uint) (int64, error)
	CountLiveByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error)
	UpdateByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint, updates map[string]interface{}) error
	MarkDeleted(ctx context.Context, tx *gorm.DB, fileIDs []uint, at time.Time) error
	Restore(ctx context.Context, tx *gorm.DB, fileIDs []uint) error
	DetachLiveFromFolders(ctx context.Context, tx *gorm.DB, folderIDs []uint) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, fileIDs []uint) error
}

type ShareRepository interface {
	Create(ctx context.Context, tx *gorm.DB, share *models.Share) error
	GetByToken(ctx context.Context, tx *gorm.DB, token string) (models.Share, error)
	GetByIDAndOwner(ctx context.Context, tx *gorm.DB, shareID uint, userID uint) (models.Share, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, userID uint, fileID *uint) ([]models.Share, error)
	Deactivate(ctx context.Context, tx *gorm.DB, shareID uint) error
	DeleteByID(ctx context.Context, tx *gorm.DB, shareID uint) error
	DeleteByFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uint) error
}

type AccessLogRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.FileAccessLog) error
	CountByFile(ctx context.Context, tx *gorm.DB, fileID uint) (int64, error)
	DeleteByFileIDs(ctx context.Context, tx *gorm.DB, fileIDs []uint) error
}

// AccessCounter counts hits per key inside a fixed window.
type AccessCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type Container struct {
	TxManager     TxManager
	Users         UserRepository
	Folders       FolderRepository
	Files         FileRepository
	Shares        ShareRepository
	AccessLogs    AccessLogRepository
	AccessCounter AccessCounter
}
