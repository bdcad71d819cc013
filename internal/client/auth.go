package client

import (
	"context"
	"net/http"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
)

// Login 表单登录，成功后自动携带 token
func (c *Client) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	var out models.TokenResponse
	req := c.request(ctx).SetFormData(map[string]string{
		"username": email,
		"password": password,
	})
	if err := c.execute(req, http.MethodPost, "/auth/login", &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req models.CreateUserRequest) (*domain.User, error) {
	var out domain.User
	if err := c.call(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterHospital 注册医院及其管理员
func (c *Client) RegisterHospital(ctx context.Context, req models.RegisterHospitalRequest) (*models.RegisterHospitalResponse, error) {
	var out models.RegisterHospitalResponse
	if err := c.call(ctx, http.MethodPost, "/auth/register-hospital", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterStaff 仅管理员
func (c *Client) RegisterStaff(ctx context.Context, req models.RegisterStaffRequest) (*models.RegisterStaffResponse, error) {
	var out models.RegisterStaffResponse
	if err := c.call(ctx, http.MethodPost, "/auth/register-staff", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout 服务端吊销 token，本地随之清除
func (c *Client) Logout(ctx context.Context) error {
	if err := c.call(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *Client) Me(ctx context.Context) (*models.MeResponse, error) {
	var out models.MeResponse
	if err := c.call(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
