package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"icu-monitor/internal/client"
	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
)

// User 当前登录用户（/auth/me）
type User = models.MeResponse

// BypassUser 开发模式下的固定用户
func BypassUser() *User {
	return &User{
		ID:          models.BypassUID,
		Email:       models.BypassEmail,
		DisplayName: models.BypassDisplayName,
		Role:        domain.RoleDoctor,
		HospitalID:  models.BypassHospitalID,
		IsActive:    true,
	}
}

// Provider 认证会话：持有当前用户，token 写入 TokenStore
type Provider struct {
	client *client.Client
	store  TokenStore
	bypass bool
	logger *zap.Logger

	mu   sync.RWMutex
	user *User
}

// NewProvider 创建会话；bypass 开启时所有操作不访问网络
func NewProvider(c *client.Client, store TokenStore, bypass bool, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{client: c, store: store, bypass: bypass, logger: logger}
	if bypass {
		p.user = BypassUser()
	}
	return p
}

func (p *Provider) Bypass() bool { return p.bypass }

// Restore 从本地存储恢复 token 并加载用户；token 失效时清除
func (p *Provider) Restore(ctx context.Context) (*User, error) {
	if p.bypass {
		return p.Current(), nil
	}
	token, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}
	p.client.SetToken(token)
	u, err := p.Me(ctx)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			p.logger.Info("Stored token rejected, clearing session")
			p.forget()
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// Login 登录并保存 token
func (p *Provider) Login(ctx context.Context, email, password string) (*User, error) {
	if p.bypass {
		return p.Current(), nil
	}
	tok, err := p.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := p.store.Save(tok.AccessToken); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return p.Me(ctx)
}

func (p *Provider) Register(ctx context.Context, req models.CreateUserRequest) (*domain.User, error) {
	if p.bypass {
		return nil, errors.New("register unavailable in bypass mode")
	}
	return p.client.Register(ctx, req)
}

func (p *Provider) RegisterHospital(ctx context.Context, req models.RegisterHospitalRequest) (*models.RegisterHospitalResponse, error) {
	if p.bypass {
		return nil, errors.New("register unavailable in bypass mode")
	}
	return p.client.RegisterHospital(ctx, req)
}

// RegisterStaff 需要管理员会话
func (p *Provider) RegisterStaff(ctx context.Context, req models.RegisterStaffRequest) (*models.RegisterStaffResponse, error) {
	if p.bypass {
		return nil, errors.New("register unavailable in bypass mode")
	}
	return p.client.RegisterStaff(ctx, req)
}

// Logout 服务端失败也会清除本地会话
func (p *Provider) Logout(ctx context.Context) error {
	if p.bypass {
		return nil
	}
	if err := p.client.Logout(ctx); err != nil {
		p.logger.Warn("Server logout failed", zap.Error(err))
	}
	return p.forget()
}

// Me 刷新当前用户
func (p *Provider) Me(ctx context.Context) (*User, error) {
	if p.bypass {
		return p.Current(), nil
	}
	u, err := p.client.Me(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.user = u
	p.mu.Unlock()
	return u, nil
}

// Current 未登录返回 nil
func (p *Provider) Current() *User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return nil
	}
	u := *p.user
	return &u
}

func (p *Provider) forget() error {
	p.client.SetToken("")
	p.mu.Lock()
	p.user = nil
	p.mu.Unlock()
	if err := p.store.Clear(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
