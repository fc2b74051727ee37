package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coursepay-api/internal/models"

	"github.com/redis/go-redis/v9"
)

const accessKeyPrefix = "course_access"

// RedisAccessCache caches access answers per (user, course) and drops them
// when a purchase or subscription changes.
type RedisAccessCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAccessCache creates a cache. A non-positive ttl defaults to one minute.
func NewRedisAccessCache(client *redis.Client, ttl time.Duration) *RedisAccessCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisAccessCache{client: client, ttl: ttl}
}

func accessKey(userID uint, courseID string) string {
	return fmt.Sprintf("%s:%d:%s", accessKeyPrefix, userID, courseID)
}

func userAccessPattern(userID uint) string {
	return fmt.Sprintf("%s:%d:*", accessKeyPrefix, userID)
}

// Get returns the cached answer. found is false on a miss.
func (c *RedisAccessCache) Get(ctx context.Context, userID uint, courseID string) (models.Access, bool, error) {
	raw, err := c.client.Get(ctx, accessKey(userID, courseID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Access{}, false, nil
		}
		return models.Access{}, false, err
	}

	var access models.Access
	if err := json.Unmarshal(raw, &access); err != nil {
		return models.Access{}, false, fmt.Errorf("failed to decode cached access: %w", err)
	}
	return access, true, nil
}

// Set stores an answer with the configured TTL.
func (c *RedisAccessCache) Set(ctx context.Context, userID uint, courseID string, access models.Access) error {
	data, err := json.Marshal(access)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, accessKey(userID, courseID), data, c.ttl).Err()
}

// InvalidateCourse drops the answer for one course.
func (c *RedisAccessCache) InvalidateCourse(ctx context.Context, userID uint, courseID string) error {
	return c.client.Del(ctx, accessKey(userID, courseID)).Err()
}

// InvalidateUser drops every cached answer of the user.
func (c *RedisAccessCache) InvalidateUser(ctx context.Context, userID uint) error {
	iter := c.client.Scan(ctx, 0, userAccessPattern(userID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
