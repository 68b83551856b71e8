package storage

import (
	"context"

	"gorm.io/gorm"

	"microblog/storage/models"
)

const reindexBatchSize = 500

// SearchPosts runs a full-text query against the external index and
// re-hydrates the matching posts from the record store. The store does
// not fetch in relevance order, so results are explicitly put back in
// the index's ranking before returning. Zero matches short-circuit
// without touching the store.
func (m *Manager) SearchPosts(
	ctx context.Context,
	text string,
	page int,
	pageSize int,
) ([]models.Post, int64, error) {
	if err := validatePagination(page, pageSize); err != nil {
		return nil, 0, err
	}

	ids, total, err := m.search.Query(ctx, models.PostSearchKind, text, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []models.Post{}, total, nil
	}

	var posts []models.Post
	if err := m.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, 0, err
	}

	postsByID := make(map[uint]models.Post, len(posts))
	for _, post := range posts {
		postsByID[post.ID] = post
	}
	ordered := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		// Skip ids the index still holds for records no longer in the
		// store; reindexing cleans them up.
		if post, ok := postsByID[id]; ok {
			ordered = append(ordered, post)
		}
	}
	return ordered, total, nil
}

// ReindexPosts rebuilds the posts index from the record store, for
// cold backfill or recovery after index-side failures. Idempotent and
// safe to run concurrently with live writes; later writes win.
func (m *Manager) ReindexPosts(ctx context.Context) (int64, error) {
	var indexed int64
	var posts []models.Post
	err := m.db.
		WithContext(ctx).
		FindInBatches(&posts, reindexBatchSize, func(tx *gorm.DB, batch int) error {
			for i := range posts {
				if err := m.search.Upsert(ctx, &posts[i]); err != nil {
					return err
				}
				indexed++
			}
			return nil
		}).
		Error
	return indexed, err
}
