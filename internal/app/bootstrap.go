package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stay-on-one/internal/config"
	"stay-on-one/internal/db"
	"stay-on-one/internal/llm"
	"stay-on-one/internal/repository"
)

// Cleanup libera las conexiones abiertas por el bootstrap.
type Cleanup func()

// NewRedisClient devuelve nil si REDIS_ADDR no esta configurado.
func NewRedisClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis ping failed", zap.Error(err))
	}
	return client
}

// OpenDocumentRepository abre el backend elegido en STORE_BACKEND.
func OpenDocumentRepository(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (repository.DocumentRepository, Cleanup, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("db migrate: %w", err)
		}
		logger.Info("document store", zap.String("backend", cfg.StoreBackend))
		return repository.NewPgDocumentRepository(pool), pool.Close, nil
	case config.StoreRedis:
		if redisClient == nil {
			return nil, nil, fmt.Errorf("redis backend selected without REDIS_ADDR")
		}
		logger.Info("document store", zap.String("backend", cfg.StoreBackend))
		return repository.NewRedisDocumentRepository(redisClient), func() {}, nil
	case config.StoreMongo:
		client, err := db.NewMongoClient(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		logger.Info("document store", zap.String("backend", cfg.StoreBackend))
		return repository.NewMongoDocumentRepository(client.Database(cfg.MongoDatabase)), func() {
			_ = client.Disconnect(context.Background())
		}, nil
	default:
		logger.Warn("document store is in-memory; data is lost on exit")
		return repository.NewMemoryDocumentRepository(), func() {}, nil
	}
}

// NewCoachClient construye el cliente LLM segun LLM_PROVIDER.
func NewCoachClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (llm.LLMClient, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMMaxTokens)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return client, nil
	default:
		return llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMMaxTokens, cfg.LLMTimeout(), logger), nil
	}
}
