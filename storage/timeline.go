package storage

import (
	"context"

	"gorm.io/gorm"

	"microblog/apperrors"
	"microblog/storage/models"
)

// TimelinePage is one slice of a time-descending feed. HasPrev and
// HasNext are derived without a total-count query.
type TimelinePage struct {
	Posts   []models.Post `json:"posts"`
	HasPrev bool          `json:"has_prev"`
	HasNext bool          `json:"has_next"`
}

// Timeline returns the posts authored by the user or by anyone the
// user follows, newest first with id as tie-break. A single ordered
// query keeps pagination gap-free; the IN subquery over the follow
// edges cannot list a post twice even when the author matches both
// clauses.
func (m *Manager) Timeline(ctx context.Context, userID uint, page, pageSize int) (TimelinePage, error) {
	if err := validatePagination(page, pageSize); err != nil {
		return TimelinePage{}, err
	}

	followed := m.db.
		Model(&models.Follow{}).
		Select("followed_id").
		Where("follower_id = ?", userID)
	query := m.db.
		WithContext(ctx).
		Model(&models.Post{}).
		Where("author_id = ? OR author_id IN (?)", userID, followed).
		Order("created_at DESC, id DESC")

	return fetchPage(query, page, pageSize)
}

// PostsByUser returns the user's own posts, newest first, under the
// same pagination contract as Timeline.
func (m *Manager) PostsByUser(ctx context.Context, userID uint, page, pageSize int) (TimelinePage, error) {
	if err := validatePagination(page, pageSize); err != nil {
		return TimelinePage{}, err
	}
	if _, err := m.UserByID(ctx, userID); err != nil {
		return TimelinePage{}, err
	}

	query := m.db.
		WithContext(ctx).
		Model(&models.Post{}).
		Where("author_id = ?", userID).
		Order("created_at DESC, id DESC")

	return fetchPage(query, page, pageSize)
}

func fetchPage(query *gorm.DB, page, pageSize int) (TimelinePage, error) {
	// Fetch one extra row to learn whether a next page exists.
	var posts []models.Post
	err := query.
		Limit(pageSize + 1).
		Offset((page - 1) * pageSize).
		Find(&posts).
		Error
	if err != nil {
		return TimelinePage{}, err
	}

	result := TimelinePage{HasPrev: page > 1}
	if len(posts) > pageSize {
		result.HasNext = true
		posts = posts[:pageSize]
	}
	result.Posts = posts
	return result, nil
}

func validatePagination(page, pageSize int) error {
	if page < 1 || pageSize < 1 {
		return apperrors.New(apperrors.Validation, "page and pageSize must be positive")
	}
	return nil
}
