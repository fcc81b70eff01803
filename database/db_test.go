package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Anaqqa/supfile/config"
	"github.com/Anaqqa/supfile/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:   "sqlite",
		Database: filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	}

	db, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, model := range []any{&models.User{}, &models.Folder{}, &models.File{}, &models.Share{}, &models.FileAccessLog{}} {
		assert.True(t, db.Migrator().HasTable(model))
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle", Database: "x"})
	require.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", sqliteDSN("a.db"))
	assert.Equal(t, "file:a.db?mode=rwc&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", sqliteDSN("file:a.db?mode=rwc"))
}

func TestNewRedisClientDisabled(t *testing.T) {
	client, err := NewRedisClient(context.Background(), &config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, client)
}
