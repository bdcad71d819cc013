package feed

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultCycleInterval 自动轮播间隔
	DefaultCycleInterval = 2 * time.Second
	// DoubleTapWindow 两次点击间隔小于该值视为双击
	DoubleTapWindow = 300 * time.Millisecond
	// listPageStep 每次轮播列表偏移
	listPageStep = 10
)

// Cycler 焦点患者轮播状态，并发安全
type Cycler struct {
	mu       sync.Mutex
	interval time.Duration
	count    int
	focus    int
	offset   int
	locked   bool
	search   string
	lastTap  map[int]time.Time
}

// NewCycler interval <= 0 时使用 2s
func NewCycler(interval time.Duration) *Cycler {
	if interval <= 0 {
		interval = DefaultCycleInterval
	}
	return &Cycler{interval: interval, lastTap: make(map[int]time.Time)}
}

// SetCount 患者数变化；焦点越界时回到 0
func (c *Cycler) SetCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 {
		n = 0
	}
	c.count = n
	if c.focus >= n {
		c.focus = 0
	}
	if c.offset >= n {
		c.offset = 0
	}
}

// SetSearch 搜索词非空时暂停轮播
func (c *Cycler) SetSearch(term string) {
	c.mu.Lock()
	c.search = term
	c.mu.Unlock()
}

// Tick 满足条件时前进一格，返回是否发生轮播
func (c *Cycler) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count <= 1 || c.search != "" || c.locked {
		return false
	}
	c.focus = (c.focus + 1) % c.count
	c.offset = (c.offset + listPageStep) % c.count
	return true
}

// Lock 锁定到 i
func (c *Cycler) Lock(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lockLocked(i)
}

func (c *Cycler) lockLocked(i int) {
	if i >= 0 && i < c.count {
		c.focus = i
	}
	c.locked = true
}

func (c *Cycler) Unlock() {
	c.mu.Lock()
	c.locked = false
	c.mu.Unlock()
}

// Tap 点击 i；与上次点击同一患者间隔 < 300ms 为双击，双击切换锁定。返回是否为双击
func (c *Cycler) Tap(i int, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.lastTap[i]
	c.lastTap[i] = now
	if !ok || now.Sub(last) >= DoubleTapWindow {
		return false
	}
	if c.locked {
		c.locked = false
	} else {
		c.lockLocked(i)
	}
	return true
}

func (c *Cycler) Focus() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

func (c *Cycler) Offset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

func (c *Cycler) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// Visible 从 offset 开始的 pageSize 个下标（循环取）
func (c *Cycler) Visible(pageSize int) []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count == 0 || pageSize <= 0 {
		return nil
	}
	if pageSize > c.count {
		pageSize = c.count
	}
	out := make([]int, pageSize)
	for i := range out {
		out[i] = (c.offset + i) % c.count
	}
	return out
}

// Run 按 interval 调用 Tick，直到 ctx 结束；onTick 仅在轮播时调用，可为 nil
func (c *Cycler) Run(ctx context.Context, onTick func(focus int)) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.Tick() && onTick != nil {
				onTick(c.Focus())
			}
		}
	}
}
