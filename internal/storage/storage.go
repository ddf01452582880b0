package storage

import (
	"context"
	"fmt"
	"strings"

	"talent-bridge-go/internal/config"
	"talent-bridge-go/internal/logger"
)

// Storage 存储管理器，聚合所有存储相关依赖
type Storage struct {
	// 对象存储
	MinIO *MinIO

	// 消息队列
	RabbitMQ *RabbitMQ

	// 关系型数据库
	MySQL *MySQL

	// 键值存储
	Redis *Redis
}

// NewStorage 创建存储管理器。MySQL 与 MinIO 是必需的，Redis 与 RabbitMQ 失败时降级运行。
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{}
	var err error
	var degraded []string

	s.MySQL, err = NewMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("初始化MySQL失败: %w", err)
	}

	s.MinIO, err = NewMinIO(&cfg.MinIO)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("初始化MinIO失败: %w", err)
	}

	if cfg.Redis.Address != "" {
		s.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化Redis失败，解码文本缓存将被禁用")
			degraded = append(degraded, fmt.Sprintf("Redis: %v", err))
		}
	} else {
		logger.Info().Msg("Redis未配置, 跳过初始化")
	}

	if cfg.RabbitMQ.URL != "" {
		s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化RabbitMQ失败，outbox事件将保留在数据库中")
			degraded = append(degraded, fmt.Sprintf("RabbitMQ: %v", err))
		} else if err := s.RabbitMQ.EnsureExchange(cfg.RabbitMQ.ProfileEventsExchange, "topic", true); err != nil {
			logger.Warn().Err(err).Msg("声明档案事件exchange失败")
		}
	}

	if len(degraded) > 0 {
		logger.Warn().Str("components", strings.Join(degraded, "; ")).Msg("部分存储组件初始化失败")
	}
	return s, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
