// Package outbox 实现发件箱模式：业务事务内写入事件，由中继服务异步发布到RabbitMQ。
package outbox

import (
	"context"
	"sync"
	"time"

	"talent-bridge-go/internal/logger"
	"talent-bridge-go/internal/storage/models"
	"talent-bridge-go/internal/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultBatchSize       = 10
	maxRetryCount          = 5
)

// Publisher 消息发布器，由 storage.RabbitMQ 实现
type Publisher interface {
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error
}

// MessageRelay 轮询 outbox 表并将消息发布到消息代理。
type MessageRelay struct {
	db              *gorm.DB
	publisher       Publisher
	pollingInterval time.Duration
	batchSize       int
	done            chan struct{}
	wg              sync.WaitGroup
	stopOnce        sync.Once
	tracer          trace.Tracer
}

// Option MessageRelay 的可选配置
type Option func(*MessageRelay)

// WithPollingInterval 设置轮询间隔，非正值忽略
func WithPollingInterval(d time.Duration) Option {
	return func(r *MessageRelay) {
		if d > 0 {
			r.pollingInterval = d
		}
	}
}

// WithBatchSize 设置每批处理的消息数量，非正值忽略
func WithBatchSize(n int) Option {
	return func(r *MessageRelay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// NewMessageRelay 创建一个新的 MessageRelay 实例。
func NewMessageRelay(db *gorm.DB, publisher Publisher, opts ...Option) *MessageRelay {
	r := &MessageRelay{
		db:              db,
		publisher:       publisher,
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		done:            make(chan struct{}),
		tracer:          otel.Tracer("talent-bridge-go/outbox-relay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start 开始消息中继的轮询过程。
func (r *MessageRelay) Start() {
	logger.Info().Dur("interval", r.pollingInterval).Int("batch_size", r.batchSize).Msg("MessageRelay starting")
	ticker := time.NewTicker(r.pollingInterval)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				logger.Info().Msg("MessageRelay stopped")
				return
			case <-ticker.C:
				if _, err := r.ProcessPendingMessages(context.Background()); err != nil {
					logger.Error().Err(err).Msg("处理outbox待发布消息失败")
				}
			}
		}
	}()
}

// Stop 停止轮询并等待正在处理的批次结束
func (r *MessageRelay) Stop() {
	r.stopOnce.Do(func() {
		logger.Info().Msg("MessageRelay stopping")
		close(r.done)
	})
	r.wg.Wait()
}

// ProcessPendingMessages 取一批待发布消息并逐条发布，返回本批处理的消息数量。
// FOR UPDATE SKIP LOCKED 保证多个实例不会处理同一条消息。
func (r *MessageRelay) ProcessPendingMessages(ctx context.Context) (int, error) {
	var messages []models.OutboxMessage

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, tx.Error
	}
	defer tx.Rollback()

	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at asc").
		Limit(r.batchSize).
		Find(&messages).Error
	if err != nil {
		return 0, err
	}

	// 空轮询不创建span
	if len(messages) == 0 {
		return 0, tx.Commit().Error
	}

	ctx, span := r.tracer.Start(ctx, "outbox.ProcessBatch",
		trace.WithAttributes(attribute.Int("messaging.batch.message_count", len(messages))),
	)
	defer span.End()

	logger.Debug().Int("count", len(messages)).Msg("获取到待发布的outbox消息")

	for _, msg := range messages {
		updates := map[string]interface{}{}

		pubErr := r.publisher.PublishMessage(ctx, msg.TargetExchange, msg.TargetRoutingKey, []byte(msg.Payload), true)
		if pubErr != nil {
			retries := msg.RetryCount + 1
			logger.Warn().Err(pubErr).Uint64("id", msg.ID).Str("aggregate_id", msg.AggregateID).Int("retries", retries).Msg("发布outbox消息失败")
			updates["retry_count"] = retries
			updates["error_message"] = pubErr.Error()
			if retries >= maxRetryCount {
				updates["status"] = models.OutboxStatusFailed
			}
		} else {
			now := time.Now()
			updates["status"] = models.OutboxStatusSent
			updates["processed_at"] = &now
			updates["error_message"] = ""
		}

		// 更新失败时整批回滚，消息在下一轮重新拾取
		if err := tx.Model(&models.OutboxMessage{}).Where("id = ?", msg.ID).Updates(updates).Error; err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeDB)
			return 0, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return 0, err
	}
	return len(messages), nil
}
