package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"icu-monitor/internal/config"
	"icu-monitor/internal/models"
	rediscommon "icu-monitor/internal/redis"
)

const (
	defaultBatchSize = 10
	defaultBlock     = 5 * time.Second
	initialBackoff   = time.Second
	maxBackoff       = 30 * time.Second
)

// Ingester 处理一条监护仪上报（service.MonitorService 实现）
type Ingester interface {
	Ingest(ctx context.Context, payload models.MonitorPayload) (*models.IngestResult, error)
}

// StreamConsumer Redis Streams 消费者：读取 -> Ingest -> ACK
type StreamConsumer struct {
	redisClient *redis.Client
	ingester    Ingester
	stream      string
	group       string
	consumer    string
	batchSize   int64
	block       time.Duration
	logger      *zap.Logger
}

// NewStreamConsumer 创建 Streams 消费者
func NewStreamConsumer(redisClient *redis.Client, ingester Ingester, cfg config.IngestConfig, logger *zap.Logger) *StreamConsumer {
	return &StreamConsumer{
		redisClient: redisClient,
		ingester:    ingester,
		stream:      cfg.Stream,
		group:       cfg.Group,
		consumer:    cfg.Consumer,
		batchSize:   defaultBatchSize,
		block:       defaultBlock,
		logger:      logger,
	}
}

// Start 启动消费循环，阻塞到 ctx 取消
func (c *StreamConsumer) Start(ctx context.Context) error {
	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, c.stream, c.group); err != nil {
		return fmt.Errorf("failed to create consumer group for %s: %w", c.stream, err)
	}
	c.logger.Info("Stream consumer started",
		zap.String("stream", c.stream),
		zap.String("consumer_group", c.group),
		zap.String("consumer_name", c.consumer),
	)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := c.consumeOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to consume stream",
				zap.String("stream", c.stream),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
			continue
		}
		backoff = initialBackoff
	}
}

// consumeOnce 读取一批；单条处理失败只记录，仍然 ACK
func (c *StreamConsumer) consumeOnce(ctx context.Context) error {
	messages, err := rediscommon.ReadFromStream(ctx, c.redisClient, c.stream, c.group, c.consumer, c.batchSize, c.block)
	if err != nil {
		return fmt.Errorf("failed to read from stream %s: %w", c.stream, err)
	}

	for _, msg := range messages {
		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Error("Failed to process message",
				zap.String("stream", msg.Stream),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
		if err := rediscommon.Ack(ctx, c.redisClient, c.stream, c.group, msg.ID); err != nil {
			c.logger.Warn("Failed to ack message", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
	return nil
}

func (c *StreamConsumer) processMessage(ctx context.Context, msg rediscommon.StreamMessage) error {
	data, ok := msg.Data()
	if !ok {
		return fmt.Errorf("message has no data field")
	}
	var payload models.MonitorPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	res, err := c.ingester.Ingest(ctx, payload)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", payload.DeviceID, err)
	}
	c.logger.Debug("Monitor message ingested",
		zap.String("device_id", payload.DeviceID),
		zap.String("status", res.Status),
	)
	return nil
}
