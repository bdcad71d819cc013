package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"icu-monitor/internal/config"
	"icu-monitor/internal/models"
	mqttcommon "icu-monitor/internal/mqtt"
	rediscommon "icu-monitor/internal/redis"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

var ingestCfg = config.IngestConfig{Stream: "icu:monitor:raw", Group: "icu-monitor", Consumer: "c1"}

type fakeSubscriber struct {
	mu      sync.Mutex
	topic   string
	handler mqttcommon.MessageHandler
}

func (f *fakeSubscriber) Subscribe(topic string, _ byte, h mqttcommon.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topic, f.handler = topic, h
	return nil
}

func (f *fakeSubscriber) current() mqttcommon.MessageHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler
}

func (f *fakeSubscriber) Unsubscribe(...string) error { return nil }

type recordingIngester struct {
	mu   sync.Mutex
	got  []models.MonitorPayload
	fail bool
}

func (r *recordingIngester) Ingest(_ context.Context, p models.MonitorPayload) (*models.IngestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, p)
	if r.fail {
		return nil, errors.New("db down")
	}
	return &models.IngestResult{Status: models.IngestSuccess}, nil
}

func (r *recordingIngester) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func TestDeviceFromTopic(t *testing.T) {
	assert.Equal(t, "BED_7", DeviceFromTopic("icu/monitors/+/vitals", "icu/monitors/BED_7/vitals"))
	assert.Equal(t, "BED_7", DeviceFromTopic("icu/monitors/#", "icu/monitors/BED_7/vitals"))
	assert.Equal(t, "", DeviceFromTopic("vitals", "vitals"))
}

func TestMQTTConsumer_PublishesToStream(t *testing.T) {
	_, client := setupRedis(t)
	sub := &fakeSubscriber{}
	c := NewMQTTConsumer(sub, client, config.MQTTConfig{Topic: "icu/monitors/+/vitals", QoS: 1}, ingestCfg, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()
	require.Eventually(t, func() bool { return sub.current() != nil }, time.Second, 5*time.Millisecond)
	handler := sub.current()

	require.NoError(t, handler("icu/monitors/BED_7/vitals", []byte(`{"data":{"HR":72}}`)))
	assert.Error(t, handler("icu/monitors/BED_7/vitals", []byte(`not json`)))

	msgs, err := client.XRange(context.Background(), ingestCfg.Stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Values["data"], `"device_id":"BED_7"`)

	cancel()
	require.NoError(t, <-done)
	c.Stop()
}

func TestStreamConsumer_IngestsAndAcks(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()
	ing := &recordingIngester{fail: true}
	c := NewStreamConsumer(client, ing, ingestCfg, zap.NewNop())
	c.block = 20 * time.Millisecond

	require.NoError(t, rediscommon.CreateConsumerGroup(ctx, client, ingestCfg.Stream, ingestCfg.Group))
	_, err := rediscommon.PublishJSONToStream(ctx, client, ingestCfg.Stream, models.MonitorPayload{DeviceID: "D1"})
	require.NoError(t, err)
	_, err = client.XAdd(ctx, &redis.XAddArgs{Stream: ingestCfg.Stream, Values: map[string]interface{}{"data": "{bad"}}).Result()
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- c.Start(runCtx) }()

	require.Eventually(t, func() bool { return ing.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	// 处理失败的消息同样 ACK，不会留在 pending
	require.Eventually(t, func() bool {
		p, err := client.XPending(ctx, ingestCfg.Stream, ingestCfg.Group).Result()
		return err == nil && p.Count == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
	ing.mu.Lock()
	defer ing.mu.Unlock()
	assert.Equal(t, "D1", ing.got[0].DeviceID)
}
