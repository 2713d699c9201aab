package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mroshb/trivia_bot/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the JSON document under a single key.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (*models.Document, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.DefaultDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

func (s *RedisStore) Save(ctx context.Context, doc *models.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
