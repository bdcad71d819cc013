package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"icu-monitor/internal/config"
	"icu-monitor/internal/models"
	mqttcommon "icu-monitor/internal/mqtt"
	rediscommon "icu-monitor/internal/redis"
)

// Subscriber MQTT 订阅能力（mqttcommon.Client 实现）
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// MQTTConsumer 监护仪 MQTT 消息 -> Redis Stream
type MQTTConsumer struct {
	mqtt        Subscriber
	redisClient *redis.Client
	topic       string
	qos         byte
	stream      string
	logger      *zap.Logger
}

// NewMQTTConsumer 创建 MQTT 消费者
func NewMQTTConsumer(
	sub Subscriber,
	redisClient *redis.Client,
	mqttCfg config.MQTTConfig,
	ingestCfg config.IngestConfig,
	logger *zap.Logger,
) *MQTTConsumer {
	return &MQTTConsumer{
		mqtt:        sub,
		redisClient: redisClient,
		topic:       mqttCfg.Topic,
		qos:         mqttCfg.QoS,
		stream:      ingestCfg.Stream,
		logger:      logger,
	}
}

// Start 订阅主题并阻塞到 ctx 取消
func (c *MQTTConsumer) Start(ctx context.Context) error {
	if c.topic == "" {
		return fmt.Errorf("monitor MQTT topic not configured")
	}
	if err := c.mqtt.Subscribe(c.topic, c.qos, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to monitor topic: %w", err)
	}
	c.logger.Info("MQTT consumer started",
		zap.String("topic", c.topic),
		zap.String("stream", c.stream),
	)

	<-ctx.Done()
	return nil
}

// Stop 取消订阅
func (c *MQTTConsumer) Stop() {
	if err := c.mqtt.Unsubscribe(c.topic); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
	}
	c.logger.Info("MQTT consumer stopped")
}

// handleMessage 解析上报并写入 Stream；device_id 缺失时取主题中的设备段
func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	var msg models.MonitorPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal monitor message: %w", err)
	}
	if msg.DeviceID == "" {
		msg.DeviceID = DeviceFromTopic(c.topic, topic)
	}
	if msg.DeviceID == "" {
		return fmt.Errorf("no device id in message or topic %s", topic)
	}

	id, err := rediscommon.PublishJSONToStream(context.Background(), c.redisClient, c.stream, msg)
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", c.stream, err)
	}
	c.logger.Debug("Published monitor message",
		zap.String("device_id", msg.DeviceID),
		zap.String("message_id", id),
	)
	return nil
}

// DeviceFromTopic 取订阅模式中 "+" 位置对应的主题段
// 模式无 "+" 时取倒数第二段（icu/monitors/<id>/vitals）
func DeviceFromTopic(pattern, topic string) string {
	parts := strings.Split(topic, "/")
	for i, seg := range strings.Split(pattern, "/") {
		if seg == "+" && i < len(parts) {
			return parts[i]
		}
	}
	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}
	return ""
}
