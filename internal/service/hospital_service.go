package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
	"icu-monitor/internal/repository"
)

// hospitalIDAttempts HOSPnnn 冲突时的最大重试次数
const hospitalIDAttempts = 10

// HospitalService 医院 + 科室服务接口
type HospitalService interface {
	CreateHospital(ctx context.Context, req models.CreateHospitalRequest) (*domain.Hospital, error)
	GetHospital(ctx context.Context, id string) (*domain.Hospital, error)
	GetHospitalByAdmin(ctx context.Context, adminUID string) (*domain.Hospital, error)
	UpdateHospital(ctx context.Context, id string, upd domain.HospitalUpdate) (*domain.Hospital, error)

	CreateDepartment(ctx context.Context, req models.CreateDepartmentRequest) (*domain.Department, error)
	GetDepartment(ctx context.Context, id int64) (*domain.Department, error)
	ListDepartments(ctx context.Context, hospitalID string) ([]*domain.Department, error)
	UpdateDepartment(ctx context.Context, id int64, upd domain.DepartmentUpdate) (*domain.Department, error)
	SetDepartmentHead(ctx context.Context, id int64, headUID string) (*domain.Department, error)
}

type hospitalService struct {
	hospitals   repository.HospitalsRepository
	departments repository.DepartmentsRepository
	logger      *zap.Logger
	newID       func() string
}

// NewHospitalService 创建 HospitalService 实例
func NewHospitalService(hospitals repository.HospitalsRepository, departments repository.DepartmentsRepository, logger *zap.Logger) HospitalService {
	return &hospitalService{
		hospitals:   hospitals,
		departments: departments,
		logger:      logger,
		newID:       randomHospitalID,
	}
}

// randomHospitalID HOSP + 3 位随机数（001-999）
func randomHospitalID() string {
	return fmt.Sprintf("HOSP%03d", rand.IntN(999)+1)
}

func (s *hospitalService) CreateHospital(ctx context.Context, req models.CreateHospitalRequest) (*domain.Hospital, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, invalid("name is required")
	}
	if blank(req.AdminUID) {
		return nil, invalid("admin_uid is required")
	}
	if req.Email != nil && *req.Email != "" && !validEmail(*req.Email) {
		return nil, invalid("Invalid email address")
	}
	if _, err := s.hospitals.GetHospitalByAdmin(ctx, req.AdminUID); err == nil {
		return nil, invalid("Admin already has a hospital")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	h := &domain.Hospital{
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		Email:    req.Email,
		AdminUID: req.AdminUID,
	}
	for attempt := 0; attempt < hospitalIDAttempts; attempt++ {
		h.ID = s.newID()
		err := s.hospitals.CreateHospital(ctx, h)
		if err == nil {
			s.logger.Info("Hospital created", zap.String("hospital_id", h.ID), zap.String("admin_uid", h.AdminUID))
			return h, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("create hospital: no free id after %d attempts", hospitalIDAttempts)
}

func (s *hospitalService) GetHospital(ctx context.Context, id string) (*domain.Hospital, error) {
	h, err := s.hospitals.GetHospital(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Hospital not found")
	}
	return h, nil
}

func (s *hospitalService) GetHospitalByAdmin(ctx context.Context, adminUID string) (*domain.Hospital, error) {
	h, err := s.hospitals.GetHospitalByAdmin(ctx, adminUID)
	if err != nil {
		return nil, orNotFound(err, "Hospital not found")
	}
	return h, nil
}

func (s *hospitalService) UpdateHospital(ctx context.Context, id string, upd domain.HospitalUpdate) (*domain.Hospital, error) {
	if upd.Email != nil && *upd.Email != "" && !validEmail(*upd.Email) {
		return nil, invalid("Invalid email address")
	}
	h, err := s.GetHospital(ctx, id)
	if err != nil {
		return nil, err
	}
	upd.Apply(h)
	if err := s.hospitals.UpdateHospital(ctx, h); err != nil {
		return nil, orNotFound(err, "Hospital not found")
	}
	return h, nil
}

func (s *hospitalService) CreateDepartment(ctx context.Context, req models.CreateDepartmentRequest) (*domain.Department, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, invalid("name is required")
	}
	if _, err := s.GetHospital(ctx, req.HospitalID); err != nil {
		return nil, err
	}
	d := &domain.Department{
		Name:        req.Name,
		Description: req.Description,
		HeadUID:     req.HeadUID,
		HospitalID:  req.HospitalID,
	}
	if err := s.departments.CreateDepartment(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *hospitalService) GetDepartment(ctx context.Context, id int64) (*domain.Department, error) {
	d, err := s.departments.GetDepartment(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Department not found")
	}
	return d, nil
}

func (s *hospitalService) ListDepartments(ctx context.Context, hospitalID string) ([]*domain.Department, error) {
	return s.departments.ListDepartmentsByHospital(ctx, hospitalID)
}

func (s *hospitalService) UpdateDepartment(ctx context.Context, id int64, upd domain.DepartmentUpdate) (*domain.Department, error) {
	if upd.Name != nil && blank(*upd.Name) {
		return nil, invalid("name is required")
	}
	d, err := s.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	upd.Apply(d)
	if err := s.departments.UpdateDepartment(ctx, d); err != nil {
		return nil, orNotFound(err, "Department not found")
	}
	return d, nil
}

func (s *hospitalService) SetDepartmentHead(ctx context.Context, id int64, headUID string) (*domain.Department, error) {
	return s.UpdateDepartment(ctx, id, domain.DepartmentUpdate{HeadUID: &headUID})
}
