package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Anaqqa/supfile/config"
	"github.com/Anaqqa/supfile/database"
	"github.com/Anaqqa/supfile/models"
	"github.com/Anaqqa/supfile/repositories"
	"github.com/Anaqqa/supfile/storage"
	"github.com/Anaqqa/supfile/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testMaxFileSize = 1 << 20

type testEnv struct {
	ctx     context.Context
	db      *gorm.DB
	repos   repositories.Container
	backend *storage.MemoryBackend
	svc     *Container
}

var userSeq atomic.Int64

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(&config.DatabaseConfig{
		Driver:   "sqlite",
		Database: filepath.Join(t.TempDir(), "services.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repos := repositories.NewGormRepositories(db, nil).BuildContainer()
	backend := storage.NewMemoryBackend()
	content := storage.NewContentStore(backend, testMaxFileSize)

	svc := NewContainer(repos, content, Options{
		MaxFileSize:   testMaxFileSize,
		DefaultQuota:  config.DefaultUserQuota,
		JWT:           utils.NewJWTManager("test-secret-0123456789", 1, "supfile"),
		Thumbnail:     ThumbnailOptions{Width: 32, Height: 32, Quality: 80},
		RetentionDays: 30,
	})

	return &testEnv{ctx: context.Background(), db: db, repos: repos, backend: backend, svc: svc}
}

func (e *testEnv) createUser(t *testing.T, quota int64, used int64) models.User {
	t.Helper()
	user := models.User{
		Email:        fmt.Sprintf("user%d@example.com", userSeq.Add(1)),
		IsActive:     true,
		StorageQuota: quota,
	}
	require.NoError(t, e.repos.Users.Create(e.ctx, nil, &user))
	if used > 0 {
		require.NoError(t, e.repos.Users.AddStorageUsed(e.ctx, nil, user.ID, used))
		user.StorageUsed = used
	}
	return user
}

func (e *testEnv) storageUsed(t *testing.T, userID uint) int64 {
	t.Helper()
	user, err := e.repos.Users.GetByID(e.ctx, nil, userID)
	require.NoError(t, err)
	return user.StorageUsed
}

func (e *testEnv) mkdir(t *testing.T, userID uint, name string, parentID *uint) models.Folder {
	t.Helper()
	folder, err := e.svc.Folder.CreateFolder(e.ctx, userID, name, parentID)
	require.NoError(t, err)
	return folder
}

func (e *testEnv) upload(t *testing.T, userID uint, name string, body string, folderID *uint) models.File {
	t.Helper()
	file, err := e.svc.File.Upload(e.ctx, userID, UploadInput{
		Name:     name,
		Size:     int64(len(body)),
		FolderID: folderID,
		Body:     strings.NewReader(body),
	})
	require.NoError(t, err)
	return file
}

func (e *testEnv) reloadFile(t *testing.T, fileID uint) (models.File, bool) {
	t.Helper()
	file, err := e.repos.Files.GetByID(e.ctx, nil, fileID)
	if err != nil {
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)
		return models.File{}, false
	}
	return file, true
}

func (e *testEnv) reloadFolder(t *testing.T, userID uint, folderID uint) (models.Folder, bool) {
	t.Helper()
	folder, err := e.repos.Folders.GetByIDAndUser(e.ctx, nil, folderID, userID)
	if err != nil {
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)
		return models.Folder{}, false
	}
	return folder, true
}
