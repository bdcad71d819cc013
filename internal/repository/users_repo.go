package repository

import (
	"context"

	"icu-monitor/internal/domain"
)

// UsersRepository 用户 Repository 接口
type UsersRepository interface {
	// ========== 查询（单个）==========
	GetUserByUID(ctx context.Context, uid string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	// GetUserByEmail 登录使用（email 唯一）
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// ========== 查询（列表）==========
	ListUsersByHospital(ctx context.Context, hospitalID string) ([]*domain.User, error)
	// ListUsersByDepartment 仅 active
	ListUsersByDepartment(ctx context.Context, departmentID int64) ([]*domain.User, error)

	// ========== 创建 / 更新 ==========
	// CreateUser uid/email 冲突返回 ErrConflict；成功后回填 ID 与时间戳
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
}
