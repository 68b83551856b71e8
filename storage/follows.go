package storage

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"microblog/apperrors"
	"microblog/storage/models"
)

// Follow inserts the edge follower -> followed. Re-following is a
// no-op. Both users must exist. The store itself does not forbid a
// self-edge; that policy belongs to the caller.
func (m *Manager) Follow(ctx context.Context, followerID, followedID uint) error {
	var inserted bool
	err := m.Transaction(ctx, func(tx *gorm.DB) error {
		if err := usersExist(tx, followerID, followedID); err != nil {
			return err
		}
		follow := models.Follow{
			FollowerID: followerID,
			FollowedID: followedID,
			CreatedAt:  time.Now().UTC(),
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow)
		inserted = result.RowsAffected > 0
		return result.Error
	})
	if err == nil && inserted {
		m.invalidateUserStats(followerID, followedID)
	}
	return err
}

// Unfollow removes the edge follower -> followed. Removing an absent
// edge is a no-op, never an error.
func (m *Manager) Unfollow(ctx context.Context, followerID, followedID uint) error {
	var deleted bool
	err := m.Transaction(ctx, func(tx *gorm.DB) error {
		result := tx.
			Where("follower_id = ? AND followed_id = ?", followerID, followedID).
			Delete(&models.Follow{})
		deleted = result.RowsAffected > 0
		return result.Error
	})
	if err == nil && deleted {
		m.invalidateUserStats(followerID, followedID)
	}
	return err
}

func (m *Manager) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	err := m.db.
		WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).
		Error
	return count > 0, err
}

func (m *Manager) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := m.db.
		WithContext(ctx).
		Model(&models.Follow{}).
		Where("followed_id = ?", userID).
		Count(&count).
		Error
	return count, err
}

func (m *Manager) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := m.db.
		WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Count(&count).
		Error
	return count, err
}

func usersExist(tx *gorm.DB, userIDs ...uint) error {
	unique := make(map[uint]struct{}, len(userIDs))
	for _, userID := range userIDs {
		unique[userID] = struct{}{}
	}
	ids := make([]uint, 0, len(unique))
	for userID := range unique {
		ids = append(ids, userID)
	}

	var count int64
	if err := tx.Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return apperrors.New(apperrors.NotFound, "user not found")
	}
	return nil
}
