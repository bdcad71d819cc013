package repository

import (
	"context"

	"icu-monitor/internal/domain"
)

// HospitalsRepository 医院 Repository 接口
type HospitalsRepository interface {
	GetHospital(ctx context.Context, id string) (*domain.Hospital, error)
	// GetHospitalByAdmin 每个 admin 至多一家医院
	GetHospitalByAdmin(ctx context.Context, adminUID string) (*domain.Hospital, error)
	// CreateHospital id 冲突返回 ErrConflict（调用方重新生成 id）
	CreateHospital(ctx context.Context, h *domain.Hospital) error
	UpdateHospital(ctx context.Context, h *domain.Hospital) error
}

// DepartmentsRepository 科室 Repository 接口
type DepartmentsRepository interface {
	GetDepartment(ctx context.Context, id int64) (*domain.Department, error)
	ListDepartmentsByHospital(ctx context.Context, hospitalID string) ([]*domain.Department, error)
	CreateDepartment(ctx context.Context, d *domain.Department) error
	UpdateDepartment(ctx context.Context, d *domain.Department) error
}
