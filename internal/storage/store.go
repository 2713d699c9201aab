// Package storage persists the trivia document. Every backend stores the whole
// document and rewrites it wholesale on Save.
package storage

import (
	"context"
	"fmt"

	"github.com/mroshb/trivia_bot/internal/config"
	"github.com/mroshb/trivia_bot/internal/database"
	"github.com/mroshb/trivia_bot/internal/models"
	"github.com/redis/go-redis/v9"
)

// Store loads and saves the persisted document. Load on an empty backend
// returns models.DefaultDocument().
type Store interface {
	Load(ctx context.Context) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) error
	Close() error
}

// Open builds the store selected by cfg.StorageDriver.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case config.StorageFile:
		return NewFileStore(cfg.DataFile), nil
	case config.StorageMemory:
		return NewMemoryStore(nil), nil
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client, cfg.RedisKey), nil
	case config.StoragePostgres:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
		if err := database.SeedQuestions(db); err != nil {
			return nil, err
		}
		return NewPostgresStore(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
