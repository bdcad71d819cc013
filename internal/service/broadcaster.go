package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"icu-monitor/internal/metrics"
	"icu-monitor/internal/models"
	"icu-monitor/internal/playback"
)

// RosterSource 每个 tick 提供一份完整 roster
type RosterSource interface {
	Roster(ctx context.Context) ([]models.RosterPatient, error)
}

// PlaybackSource CSV 回放：每次调用推进一个 window
type PlaybackSource struct {
	Player *playback.Player
}

func (s PlaybackSource) Roster(context.Context) ([]models.RosterPatient, error) {
	return s.Player.Next(), nil
}

// Sink 推送目标（WSHub），返回当前连接数
type Sink interface {
	Broadcast(msg []byte) int
}

// Broadcaster 定时把 roster 推给所有 /ws 客户端
type Broadcaster struct {
	source   RosterSource
	sink     Sink
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewBroadcaster interval <= 0 时使用 2s
func NewBroadcaster(source RosterSource, sink Sink, interval time.Duration, m *metrics.Metrics, logger *zap.Logger) *Broadcaster {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Broadcaster{source: source, sink: sink, interval: interval, metrics: m, logger: logger}
}

// Run 阻塞直到 ctx 取消
func (b *Broadcaster) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.logger.Info("Starting roster broadcaster", zap.Duration("interval", b.interval))
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Roster broadcaster stopped")
			return nil
		case <-ticker.C:
			if err := b.Tick(ctx); err != nil {
				b.logger.Error("Failed to broadcast roster", zap.Error(err))
			}
		}
	}
}

// Tick 构建并推送一次；空 roster 不推送
func (b *Broadcaster) Tick(ctx context.Context) error {
	roster, err := b.source.Roster(ctx)
	if err != nil {
		return err
	}
	if len(roster) == 0 {
		return nil
	}
	msg, err := json.Marshal(roster)
	if err != nil {
		return err
	}

	clients := b.sink.Broadcast(msg)
	alarms := 0
	for _, p := range roster {
		alarms += len(p.Alarms)
	}
	b.metrics.ObserveBroadcast(len(roster), alarms)
	b.logger.Debug("Roster broadcast",
		zap.Int("patients", len(roster)),
		zap.Int("alarms", alarms),
		zap.Int("clients", clients),
	)
	return nil
}
