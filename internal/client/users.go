package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
)

func (c *Client) CreateUser(ctx context.Context, req models.CreateUserRequest) (*domain.User, error) {
	var out domain.User
	if err := c.call(ctx, http.MethodPost, "/users/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	var out domain.User
	if err := c.call(ctx, http.MethodGet, "/users/"+url.PathEscape(uid), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var out domain.User
	if err := c.call(ctx, http.MethodGet, "/users/id/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser nil 字段不修改
func (c *Client) UpdateUser(ctx context.Context, uid string, upd domain.UserUpdate) (*domain.User, error) {
	var out domain.User
	if err := c.call(ctx, http.MethodPut, "/users/"+url.PathEscape(uid), upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeactivateUser 软删除
func (c *Client) DeactivateUser(ctx context.Context, uid string) error {
	return c.call(ctx, http.MethodDelete, "/users/"+url.PathEscape(uid), nil, nil)
}

func (c *Client) UsersByRole(ctx context.Context, hospitalID, role string) ([]*domain.User, error) {
	var out []*domain.User
	path := fmt.Sprintf("/users/hospital/%s/role/%s", url.PathEscape(hospitalID), url.PathEscape(role))
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Staff 在职医生与护士
func (c *Client) Staff(ctx context.Context, hospitalID string) ([]*domain.User, error) {
	var out []*domain.User
	if err := c.call(ctx, http.MethodGet, "/users/hospital/"+url.PathEscape(hospitalID)+"/staff", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AssignUserDepartment(ctx context.Context, uid string, departmentID int64) (*domain.User, error) {
	var out domain.User
	path := fmt.Sprintf("/users/%s/department/%d", url.PathEscape(uid), departmentID)
	if err := c.call(ctx, http.MethodPut, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
