package storage

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"microblog/apperrors"
	"microblog/storage/models"
)

// CreatePost validates and stores a post. The author must exist. The
// language tag is detected from the body when a detector is configured
// and the caller did not set one; low confidence leaves it empty.
func (m *Manager) CreatePost(ctx context.Context, post *models.Post) error {
	body := strings.TrimSpace(post.Body)
	if body == "" {
		return apperrors.New(apperrors.Validation, "post body is empty")
	}
	if utf8.RuneCountInString(body) > models.MaxPostLength {
		return apperrors.Newf(apperrors.Validation, "post body exceeds %d characters", models.MaxPostLength)
	}
	post.Body = body

	if post.Language == "" && m.detector != nil {
		post.Language = m.detector.DetectLanguage(post.Body)
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	err := m.Transaction(ctx, func(tx *gorm.DB) error {
		if err := usersExist(tx, post.AuthorID); err != nil {
			return err
		}
		return tx.Create(post).Error
	})
	if err == nil {
		m.invalidateUserStats(post.AuthorID)
	}
	return err
}

func (m *Manager) PostByID(ctx context.Context, id uint) (models.Post, error) {
	var post models.Post
	err := m.db.WithContext(ctx).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Post{}, apperrors.Newf(apperrors.NotFound, "post %d not found", id)
	}
	return post, err
}

// DeletePost removes a post; the index entry is removed after commit
// through the synchronizer's delete hook.
func (m *Manager) DeletePost(ctx context.Context, id uint) error {
	var authorID uint
	err := m.Transaction(ctx, func(tx *gorm.DB) error {
		var post models.Post
		err := tx.First(&post, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Newf(apperrors.NotFound, "post %d not found", id)
		}
		if err != nil {
			return err
		}
		authorID = post.AuthorID
		return tx.Delete(&post).Error
	})
	if err == nil {
		m.invalidateUserStats(authorID)
	}
	return err
}
