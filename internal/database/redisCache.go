package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ocrhub/ocr-gateway/internal/entity"
)

type redisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultCache(client *redis.Client, ttl time.Duration) ResultCache {
	return &redisResultCache{client: client, ttl: ttl}
}

func (r *redisResultCache) Get(ctx context.Context, key string) (*entity.RecognitionResult, error) {
	data, err := r.client.Get(ctx, "ocr:"+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var result entity.RecognitionResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *redisResultCache) Set(ctx context.Context, key string, result *entity.RecognitionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, "ocr:"+key, data, r.ttl).Err()
}
