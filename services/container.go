package services

import (
	"context"
	"time"

	"github.com/Anaqqa/supfile/repositories"
	"github.com/Anaqqa/supfile/utils"

	"gorm.io/gorm"
)

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Options struct {
	MaxFileSize     int64
	DefaultQuota    int64
	JWT             *utils.JWTManager
	Thumbnail       ThumbnailOptions
	RetentionDays   int
	CleanupInterval time.Duration
}

type Container struct {
	Auth    AuthService
	User    UserService
	Folder  FolderService
	File    FileService
	Node    NodeService
	Share   ShareService
	Trash   TrashService
	Cleanup CleanupService
	Storage StorageAccountant
}

func NewContainer(repos repositories.Container, content ContentStore, opts Options) *Container {
	accountant := NewStorageAccountant(repos.Users, repos.Folders, repos.Files, opts.MaxFileSize)
	purger := nodePurger{
		files:      repos.Files,
		shares:     repos.Shares,
		accessLogs: repos.AccessLogs,
		accountant: accountant,
		content:    content,
	}
	trash := NewTrashService(repos.TxManager, repos.Folders, repos.Files, purger)
	retention := time.Duration(opts.RetentionDays) * 24 * time.Hour

	return &Container{
		Auth:    NewAuthService(repos.TxManager, repos.Users, opts.JWT, opts.DefaultQuota),
		User:    NewUserService(repos.TxManager, repos.Users, repos.Folders, repos.Files, accountant, purger),
		Folder:  NewFolderService(repos.TxManager, repos.Folders, repos.Files, purger),
		File:    NewFileService(repos.TxManager, repos.Folders, repos.Files, repos.AccessLogs, accountant, content, purger, opts.Thumbnail),
		Node:    NewNodeService(repos.Folders, repos.Files, trash),
		Share:   NewShareService(repos.TxManager, repos.Files, repos.Shares, repos.AccessLogs, content),
		Trash:   trash,
		Cleanup: NewCleanupService(repos.TxManager, repos.Folders, repos.Files, purger, retention, opts.CleanupInterval),
		Storage: accountant,
	}
}
