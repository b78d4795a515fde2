package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
)

const cacheNamespace = "tutor"

// TutorAvailabilityPattern matches every cached course slot list of a tutor.
func TutorAvailabilityPattern(tutorID string) string {
	return fmt.Sprintf("%s:availability:tutor:%s:*", cacheNamespace, tutorID)
}

// TutorCourseAvailabilityKey scopes a course slot cache entry under its tutor.
func TutorCourseAvailabilityKey(tutorID, courseID string) string {
	return fmt.Sprintf("%s:availability:tutor:%s:%s", cacheNamespace, tutorID, courseID)
}

// TutorListCacheKey keys a tutor directory page by its normalised query.
func TutorListCacheKey(fingerprint string) string {
	return fmt.Sprintf("%s:tutors:list:%s", cacheNamespace, fingerprint)
}

// TutorListPattern matches every cached tutor directory page.
func TutorListPattern() string {
	return cacheNamespace + ":tutors:list:*"
}

// CacheRepository stores JSON payloads in Redis.
type CacheRepository struct {
	client redis.UniversalClient
}

// NewCacheRepository constructs a cache repository. A nil client disables caching.
func NewCacheRepository(client redis.UniversalClient) *CacheRepository {
	return &CacheRepository{client: client}
}

// Get retrieves and unmarshals the cached value into dest.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set marshals value and stores it with ttl.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeleteByPattern unlinks every key matching pattern in batches.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}

	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis unlink %s: %w", pattern, err)
		}
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}
	return flush()
}
