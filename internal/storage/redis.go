package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talent-bridge-go/internal/config"
	"talent-bridge-go/internal/constants"
	"talent-bridge-go/internal/parser"
	"talent-bridge-go/internal/tracing"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var redisTracer = otel.Tracer("talent-bridge-go/storage/redis")

const defaultTextCacheTTL = 24 * time.Hour

// Redis 解码文本缓存
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

var _ parser.TextCache = (*Redis)(nil)

// NewRedisAdapter 创建Redis客户端，挂载OpenTelemetry钩子并检查连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxRetries:   cfg.MaxRetries,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// TextCacheTTL 解码文本缓存的过期时间
func (r *Redis) TextCacheTTL() time.Duration {
	if r.config == nil || r.config.TextCacheTTLHours <= 0 {
		return defaultTextCacheTTL
	}
	return time.Duration(r.config.TextCacheTTLHours) * time.Hour
}

// GetText 读取解码文本缓存，未命中时返回 ok=false
func (r *Redis) GetText(ctx context.Context, key string) (string, bool, error) {
	if r.Client == nil {
		return "", false, fmt.Errorf("redis客户端未初始化")
	}
	fullKey := fmt.Sprintf(constants.KeyDecodedText, key)

	ctx, span := redisTracer.Start(ctx, "Redis.GetText", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.redis.key", tracing.SafeRedisKey(fullKey))))
	defer span.End()

	val, err := r.Client.Get(ctx, fullKey).Result()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
		return "", false, nil
	}
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return "", false, err
	}
	span.SetAttributes(
		attribute.Bool("db.redis.key_exists", true),
		attribute.Int("db.redis.value_length", len(val)),
	)
	return val, true, nil
}

// SetText 写入解码文本缓存
func (r *Redis) SetText(ctx context.Context, key string, text string) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	fullKey := fmt.Sprintf(constants.KeyDecodedText, key)

	ctx, span := redisTracer.Start(ctx, "Redis.SetText", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.redis.key", tracing.SafeRedisKey(fullKey)),
			attribute.Int("db.redis.value_length", len(text)),
		))
	defer span.End()

	if err := r.Client.Set(ctx, fullKey, text, r.TextCacheTTL()).Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return err
	}
	return nil
}
