package repository

import (
	"context"
	"time"

	"icu-monitor/internal/domain"
)

// DevicesRepository 监护仪映射 / 绑定 / 未绑定数据
type DevicesRepository interface {
	// ========== 字段映射 ==========
	CreateMapping(ctx context.Context, m *domain.DeviceMapping) error
	GetMapping(ctx context.Context, id string) (*domain.DeviceMapping, error)
	ListActiveMappings(ctx context.Context) ([]*domain.DeviceMapping, error)

	// ========== 设备绑定 ==========
	CreateAssignment(ctx context.Context, a *domain.DeviceAssignment) error
	// AssignIfFree 设备无任何 active 绑定时才写入，检查与写入原子完成；
	// 已被占用返回 ErrDeviceInUse
	AssignIfFree(ctx context.Context, a *domain.DeviceAssignment) error
	// GetActiveAssignment 设备当前 active 绑定，无则 ErrNotFound
	GetActiveAssignment(ctx context.Context, deviceID string) (*domain.DeviceAssignment, error)
	// FindActiveAssignment device + patient 的 active 绑定，无则 ErrNotFound
	FindActiveAssignment(ctx context.Context, deviceID, patientID string) (*domain.DeviceAssignment, error)
	// ListActiveAssignments 按 created_at 倒序；limit <= 0 不限制
	ListActiveAssignments(ctx context.Context, limit int) ([]*domain.DeviceAssignment, error)
	DeactivateAssignment(ctx context.Context, id, reason string, at time.Time) error

	// ========== 未绑定设备 ==========
	RecordUnassigned(ctx context.Context, r *domain.UnassignedReading) error
	// ListLatestUnassigned 每个 device_id 最新一条
	ListLatestUnassigned(ctx context.Context) ([]*domain.UnassignedReading, error)
}
