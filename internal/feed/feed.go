package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
)

// 重连退避
const (
	minBackoff = 1 * time.Second
	maxBackoff = 30 * time.Second
)

// Alarm 客户端报警条目；id 为 <patient_id>-<vital>-<毫秒时间戳>
type Alarm struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Room        string    `json:"room"`
}

// Options Feed 配置
type Options struct {
	URL    string
	Header http.Header
	// Reconnect 断线后按 1s..30s 指数退避重连，默认关闭
	Reconnect bool
	Dialer    *websocket.Dialer
	Logger    *zap.Logger
}

// Feed /ws 实时 roster 客户端
type Feed struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	mu        sync.RWMutex
	roster    []models.RosterPatient
	alarms    []Alarm
	role      *string
	connected bool
	listeners []func()

	connMu sync.Mutex
	conn   *websocket.Conn

	cancel context.CancelFunc
	done   chan struct{}
}

// New 创建 Feed；Start 之前不会建立连接
func New(opts Options) *Feed {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{opts: opts, logger: logger, now: time.Now}
}

// Start 建立首个连接并启动读循环。未开启重连时首连失败直接返回错误
func (f *Feed) Start(ctx context.Context) error {
	if f.done != nil {
		return errors.New("feed already started")
	}
	ctx, cancel := context.WithCancel(ctx)

	conn, err := f.dial(ctx)
	if err != nil && !f.opts.Reconnect {
		cancel()
		return err
	}
	f.cancel = cancel
	f.done = make(chan struct{})
	go f.run(ctx, conn)
	return nil
}

func (f *Feed) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := f.opts.Dialer.DialContext(ctx, f.opts.URL, f.opts.Header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", f.opts.URL, err)
	}
	f.logger.Info("WebSocket connected", zap.String("url", f.opts.URL))
	return conn, nil
}

func (f *Feed) run(ctx context.Context, conn *websocket.Conn) {
	defer close(f.done)
	backoff := minBackoff
	for {
		if conn != nil {
			backoff = minBackoff
			f.readLoop(ctx, conn)
		}
		if !f.opts.Reconnect || ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}

		var err error
		conn, err = f.dial(ctx)
		if err != nil {
			f.logger.Warn("WebSocket reconnect failed", zap.Error(err), zap.Duration("next_backoff", backoff))
		}
	}
}

func (f *Feed) readLoop(ctx context.Context, conn *websocket.Conn) {
	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()
	// Close 可能发生在 dial 与登记 conn 之间
	if ctx.Err() != nil {
		_ = conn.Close()
		return
	}
	f.setConnected(true)

	defer func() {
		f.connMu.Lock()
		f.conn = nil
		f.connMu.Unlock()
		_ = conn.Close()
		f.setConnected(false)
		f.logger.Info("WebSocket disconnected")
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				f.logger.Debug("WebSocket read ended", zap.Error(err))
			}
			return
		}
		if err := f.Apply(msg); err != nil {
			f.logger.Warn("Failed to parse WebSocket message", zap.Error(err))
		}
	}
}

func (f *Feed) setConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}

// Apply 解析一帧完整 roster 并整体替换；解析失败时保留原状态。
// 报警只来自当前角色可见的病人
func (f *Feed) Apply(msg []byte) error {
	var roster []models.RosterPatient
	if err := json.Unmarshal(msg, &roster); err != nil {
		return fmt.Errorf("decode roster: %w", err)
	}
	now := f.now()

	f.mu.Lock()
	f.roster = roster
	f.alarms = deriveAlarms(FilterByRole(f.role, roster), now)
	listeners := append([]func(){}, f.listeners...)
	f.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

func deriveAlarms(roster []models.RosterPatient, now time.Time) []Alarm {
	var out []Alarm
	for _, p := range roster {
		for _, a := range p.Alarms {
			out = append(out, Alarm{
				ID:          fmt.Sprintf("%s-%s-%d", a.PatientID, a.Vital, now.UnixMilli()),
				PatientID:   a.PatientID,
				PatientName: p.Name,
				Type:        a.Level,
				Message:     fmt.Sprintf("%s %s - Value: %s", a.Vital, a.Level, a.Value),
				Timestamp:   now,
				Room:        p.Room,
			})
		}
	}
	return out
}

// OnUpdate 每次成功应用消息后回调（在读 goroutine 中执行）
func (f *Feed) OnUpdate(fn func()) {
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
}

// SetRole nil 表示角色未加载；切换角色后按新的可见范围重建报警
func (f *Feed) SetRole(role *string) {
	now := f.now()
	f.mu.Lock()
	f.role = role
	f.alarms = deriveAlarms(FilterByRole(role, f.roster), now)
	f.mu.Unlock()
}

// Roster 按角色过滤后的 roster 副本
func (f *Feed) Roster() []models.RosterPatient {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return FilterByRole(f.role, f.roster)
}

// Alarms 当前报警副本
func (f *Feed) Alarms() []Alarm {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Alarm(nil), f.alarms...)
}

// Acknowledge 移除该 id 的报警，返回是否存在
func (f *Feed) Acknowledge(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.alarms[:0:0]
	found := false
	for _, a := range f.alarms {
		if a.ID == id {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	f.alarms = kept
	return found
}

func (f *Feed) Connected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

// Close 停止读循环与重连，等待 goroutine 退出
func (f *Feed) Close() error {
	if f.done == nil {
		return nil
	}
	f.cancel()
	f.connMu.Lock()
	if f.conn != nil {
		_ = f.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = f.conn.Close()
	}
	f.connMu.Unlock()
	<-f.done
	return nil
}

// FilterByRole admin/doctor/nurse 可见全部；未知角色为空；nil 返回全部
func FilterByRole(role *string, roster []models.RosterPatient) []models.RosterPatient {
	if role == nil {
		return append([]models.RosterPatient(nil), roster...)
	}
	switch *role {
	case domain.RoleAdmin, domain.RoleDoctor, domain.RoleNurse:
		return append([]models.RosterPatient(nil), roster...)
	}
	return []models.RosterPatient{}
}
