package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"microblog/apperrors"
)

// Index is the external full-text index consumed by the synchronizer.
// Matching and ranking are entirely the index's concern; Query returns
// identities in rank order plus the total match count for the query.
type Index interface {
	Upsert(ctx context.Context, kind string, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, kind string, id uint) error
	Query(ctx context.Context, kind string, text string, page int, pageSize int) ([]uint, int64, error)
}

// RedisIndex implements Index on top of RediSearch. Documents live in
// hashes under one key prefix per kind, with one FT index per kind
// covering that prefix.
type RedisIndex struct {
	redisClient *redis.Client
}

func NewRedisIndex(options *redis.Options) *RedisIndex {
	return &RedisIndex{
		redisClient: redis.NewClient(options),
	}
}

// EnsureIndex creates the full-text index for the given kind. Creating
// an index that already exists is not an error.
func (x *RedisIndex) EnsureIndex(ctx context.Context, kind string, textFields ...string) error {
	schema := make([]*redis.FieldSchema, len(textFields))
	for i, field := range textFields {
		schema[i] = &redis.FieldSchema{
			FieldName: field,
			FieldType: redis.SearchFieldTypeText,
		}
	}

	err := x.redisClient.FTCreate(
		ctx,
		x.getIndexName(kind),
		&redis.FTCreateOptions{
			OnHash: true,
			Prefix: []interface{}{x.getKeyPrefix(kind)},
		},
		schema...,
	).Err()
	if err != nil {
		if strings.Contains(err.Error(), "Index already exists") {
			return nil
		}
		return apperrors.Wrap(apperrors.IndexUnavailable, fmt.Sprintf("creating index for %s", kind), err)
	}
	return nil
}

func (x *RedisIndex) Upsert(ctx context.Context, kind string, id uint, fields map[string]interface{}) error {
	err := x.redisClient.HSet(ctx, x.getKey(kind, id), fields).Err()
	if err != nil {
		return apperrors.Wrap(apperrors.IndexUnavailable, fmt.Sprintf("upserting %s/%d", kind, id), err)
	}
	return nil
}

func (x *RedisIndex) Delete(ctx context.Context, kind string, id uint) error {
	err := x.redisClient.Del(ctx, x.getKey(kind, id)).Err()
	if err != nil {
		return apperrors.Wrap(apperrors.IndexUnavailable, fmt.Sprintf("deleting %s/%d", kind, id), err)
	}
	return nil
}

func (x *RedisIndex) Query(
	ctx context.Context,
	kind string,
	text string,
	page int,
	pageSize int,
) ([]uint, int64, error) {
	result, err := x.redisClient.FTSearchWithArgs(
		ctx,
		x.getIndexName(kind),
		text,
		&redis.FTSearchOptions{
			NoContent:   true,
			LimitOffset: (page - 1) * pageSize,
			Limit:       pageSize,
		},
	).Result()
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.IndexUnavailable, fmt.Sprintf("querying index for %s", kind), err)
	}

	ids := make([]uint, 0, len(result.Docs))
	for _, doc := range result.Docs {
		id, err := strconv.ParseUint(strings.TrimPrefix(doc.ID, x.getKeyPrefix(kind)), 10, 64)
		if err != nil {
			log.Errorf("Malformed document key in %s index: %s", kind, doc.ID)
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, int64(result.Total), nil
}

func (x *RedisIndex) getIndexName(kind string) string {
	return fmt.Sprintf("idx__%s", kind)
}

func (x *RedisIndex) getKeyPrefix(kind string) string {
	return fmt.Sprintf("search__%s__", kind)
}

func (x *RedisIndex) getKey(kind string, id uint) string {
	return fmt.Sprintf("%s%d", x.getKeyPrefix(kind), id)
}
