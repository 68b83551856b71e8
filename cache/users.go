package cache

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const UsersCacheRedisKey = "users"

// UserStats holds the profile counters shown next to a user.
type UserStats struct {
	UserID         uint  `json:"user_id"`
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
	PostsCount     int64 `json:"posts_count"`
}

type UsersCache struct {
	redisClient *redis.Client
}

func NewUsersCache(options *redis.Options) *UsersCache {
	return &UsersCache{
		redisClient: redis.NewClient(options),
	}
}

func (c *UsersCache) AddUser(stats UserStats) {
	bytes, err := json.Marshal(stats)
	if err == nil {
		c.redisClient.HSet(
			context.Background(),
			UsersCacheRedisKey,
			c.getField(stats.UserID),
			bytes,
		)
	}
}

func (c *UsersCache) GetUser(userID uint) (bool, UserStats) {
	val, err := c.redisClient.HGet(
		context.Background(),
		UsersCacheRedisKey,
		c.getField(userID),
	).Result()
	if err != nil {
		return false, UserStats{}
	}

	var stats UserStats
	err = json.Unmarshal([]byte(val), &stats)
	if err != nil {
		log.Errorf("Error unmarshalling user stats: %s", err)
		return false, UserStats{}
	}
	return true, stats
}

func (c *UsersCache) DeleteUser(userID uint) {
	c.redisClient.HDel(
		context.Background(),
		UsersCacheRedisKey,
		c.getField(userID),
	)
}

func (c *UsersCache) getField(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}
