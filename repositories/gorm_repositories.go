package repositories

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}

type GormRepositories struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewGormRepositories builds the repository set. redisClient may be nil, in
// which case AccessCounter is left unset.
func NewGormRepositories(db *gorm.DB, redisClient *redis.Client) *GormRepositories {
	return &GormRepositories{db: db, redis: redisClient}
}

func (r *GormRepositories) BuildContainer() Container {
	c := Container{
		TxManager:  NewGormTxManager(r.db),
		Users:      NewGormUserRepository(r.db),
		Folders:    NewGormFolderRepository(r.db),
		Files:      NewGormFileRepository(r.db),
		Shares:     NewGormShareRepository(r.db),
		AccessLogs: NewGormAccessLogRepository(r.db),
	}
	if r.redis != nil {
		c.AccessCounter = NewRedisAccessCounter(r.redis)
	}
	return c
}

func useTx(ctx context.Context, db *gorm.DB, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a LIKE pattern matching q anywhere, with q's own
// wildcards escaped by '!'.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}

// nameSearch narrows db to rows whose name contains q, ignoring case. SQLite's
// LOWER only folds ASCII, so a non-ASCII query on sqlite is matched in Go by
// the returned filter instead; otherwise the filter is nil.
func nameSearch(db *gorm.DB, q string) (*gorm.DB, func(name string) bool) {
	if db.Dialector.Name() == "sqlite" && !isASCII(q) {
		folded := strings.ToLower(q)
		return db, func(name string) bool {
			return strings.Contains(strings.ToLower(name), folded)
		}
	}
	return db.Where("LOWER(name) LIKE ? ESCAPE '!'", containsPattern(q)), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
