package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"microblog/apperrors"
	"microblog/cache"
	"microblog/search"
	"microblog/storage/models"
	"microblog/utils"
)

// Manager owns the record store and the follow graph. Every write runs
// inside a transaction whose searchable changes are snapshotted by the
// index synchronizer and mirrored into the full-text index only after
// the transaction commits.
type Manager struct {
	db         *gorm.DB
	search     *search.Synchronizer
	usersCache *cache.UsersCache
	detector   *utils.LanguageDetector
}

// NewManager wires the synchronizer's transaction hooks into db.
// usersCache and detector are optional.
func NewManager(
	db *gorm.DB,
	synchronizer *search.Synchronizer,
	usersCache *cache.UsersCache,
	detector *utils.LanguageDetector,
) (*Manager, error) {
	if err := synchronizer.Instrument(db); err != nil {
		return nil, err
	}
	return &Manager{
		db:         db,
		search:     synchronizer,
		usersCache: usersCache,
		detector:   detector,
	}, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Follow{},
	)
}

// Transaction runs fn inside a single transaction with a fresh index
// change set scoped to it. The change set is flushed to the index only
// after a successful commit; on rollback it is discarded untouched.
func (m *Manager) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ctx, changeSet := search.WithChangeSet(ctx)

	if err := m.db.WithContext(ctx).Transaction(fn); err != nil {
		return err
	}
	m.search.Flush(ctx, changeSet)
	return nil
}

func (m *Manager) CreateUser(ctx context.Context, user *models.User) error {
	if user.Username == "" || user.Email == "" {
		return apperrors.New(apperrors.Validation, "username and email are required")
	}
	if user.LastSeen.IsZero() {
		user.LastSeen = time.Now().UTC()
	}
	return m.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(user).Error
	})
}

func (m *Manager) UserByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := m.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, apperrors.Newf(apperrors.NotFound, "user %d not found", id)
	}
	return user, err
}

func (m *Manager) UserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := m.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, apperrors.Newf(apperrors.NotFound, "user %q not found", username)
	}
	return user, err
}

// UpdateLastSeen stamps the user's last activity.
func (m *Manager) UpdateLastSeen(ctx context.Context, userID uint) error {
	return m.db.
		WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_seen", time.Now().UTC()).
		Error
}

// UserStats returns the profile counters for a user, served from the
// redis cache when present. Writes that change the counters invalidate
// the cached entry.
func (m *Manager) UserStats(ctx context.Context, userID uint) (cache.UserStats, error) {
	if m.usersCache != nil {
		if ok, stats := m.usersCache.GetUser(userID); ok {
			return stats, nil
		}
	}

	if _, err := m.UserByID(ctx, userID); err != nil {
		return cache.UserStats{}, err
	}

	stats := cache.UserStats{UserID: userID}
	var err error
	if stats.FollowersCount, err = m.FollowerCount(ctx, userID); err != nil {
		return cache.UserStats{}, err
	}
	if stats.FollowingCount, err = m.FollowingCount(ctx, userID); err != nil {
		return cache.UserStats{}, err
	}
	err = m.db.
		WithContext(ctx).
		Model(&models.Post{}).
		Where("author_id = ?", userID).
		Count(&stats.PostsCount).
		Error
	if err != nil {
		return cache.UserStats{}, err
	}

	if m.usersCache != nil {
		m.usersCache.AddUser(stats)
	}
	return stats, nil
}

func (m *Manager) invalidateUserStats(userIDs ...uint) {
	if m.usersCache == nil {
		return
	}
	for _, userID := range userIDs {
		m.usersCache.DeleteUser(userID)
	}
}
