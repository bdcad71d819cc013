package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
	"icu-monitor/internal/repository"
)

// DefaultPassword 注册医院/员工未提供密码时使用
const DefaultPassword = "Pass123"

// UserService 用户管理服务接口
type UserService interface {
	// 查询
	GetUser(ctx context.Context, uid string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	ListByHospital(ctx context.Context, hospitalID string) ([]*domain.User, error)
	ListByHospitalRole(ctx context.Context, hospitalID, role string) ([]*domain.User, error)
	// ListStaff 医生 + 护士（active）
	ListStaff(ctx context.Context, hospitalID string) ([]*domain.User, error)
	ListByDepartment(ctx context.Context, departmentID int64) ([]*domain.User, error)

	// 创建 / 更新
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*domain.User, error)
	UpdateUser(ctx context.Context, uid string, upd domain.UserUpdate) (*domain.User, error)
	AssignDepartment(ctx context.Context, uid string, departmentID int64) (*domain.User, error)

	// DeactivateUser 软删除
	DeactivateUser(ctx context.Context, uid string) error
}

// userService 实现
type userService struct {
	usersRepo repository.UsersRepository
	deptRepo  repository.DepartmentsRepository
	logger    *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(usersRepo repository.UsersRepository, deptRepo repository.DepartmentsRepository, logger *zap.Logger) UserService {
	return &userService{usersRepo: usersRepo, deptRepo: deptRepo, logger: logger}
}

func validateUserRequest(req *models.CreateUserRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	switch {
	case req.Email == "":
		return invalid("email is required")
	case !validEmail(req.Email):
		return invalid("Invalid email address")
	case req.DisplayName == "":
		return invalid("display_name is required")
	case !domain.ValidRole(req.Role):
		return invalid("Invalid role. Must be one of: admin, doctor, nurse")
	case req.Password == "":
		return invalid("password is required")
	}
	return nil
}

// createUser 校验 + hash + 入库；邮箱已存在返回 conflict(existsMsg)
func createUser(ctx context.Context, repo repository.UsersRepository, req models.CreateUserRequest, existsMsg string) (*domain.User, error) {
	if err := validateUserRequest(&req); err != nil {
		return nil, err
	}
	if _, err := repo.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, conflict("%s", existsMsg)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		UID:          "usr_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		Role:         req.Role,
		Phone:        req.Phone,
		HospitalID:   req.HospitalID,
		DepartmentID: req.DepartmentID,
		IsActive:     true,
		PasswordHash: hash,
	}
	if err := repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflict("%s", existsMsg)
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*domain.User, error) {
	u, err := createUser(ctx, s.usersRepo, req, "User already exists")
	if err != nil {
		return nil, err
	}
	s.logger.Info("User created", zap.String("uid", u.UID), zap.String("role", u.Role))
	return u, nil
}

func (s *userService) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	u, err := s.usersRepo.GetUserByUID(ctx, uid)
	if err != nil {
		return nil, orNotFound(err, "User not found")
	}
	return u, nil
}

func (s *userService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.usersRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "User not found")
	}
	return u, nil
}

func (s *userService) ListByHospital(ctx context.Context, hospitalID string) ([]*domain.User, error) {
	return s.usersRepo.ListUsersByHospital(ctx, hospitalID)
}

func (s *userService) filterActive(ctx context.Context, hospitalID string, keep func(role string) bool) ([]*domain.User, error) {
	all, err := s.usersRepo.ListUsersByHospital(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	out := []*domain.User{}
	for _, u := range all {
		if u.IsActive && keep(u.Role) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *userService) ListByHospitalRole(ctx context.Context, hospitalID, role string) ([]*domain.User, error) {
	return s.filterActive(ctx, hospitalID, func(r string) bool { return r == role })
}

func (s *userService) ListStaff(ctx context.Context, hospitalID string) ([]*domain.User, error) {
	return s.filterActive(ctx, hospitalID, func(r string) bool {
		return r == domain.RoleDoctor || r == domain.RoleNurse
	})
}

func (s *userService) ListByDepartment(ctx context.Context, departmentID int64) ([]*domain.User, error) {
	return s.usersRepo.ListUsersByDepartment(ctx, departmentID)
}

func (s *userService) UpdateUser(ctx context.Context, uid string, upd domain.UserUpdate) (*domain.User, error) {
	if upd.Email != nil && !validEmail(*upd.Email) {
		return nil, invalid("Invalid email address")
	}
	if upd.Role != nil && !domain.ValidRole(*upd.Role) {
		return nil, invalid("Invalid role. Must be one of: admin, doctor, nurse")
	}
	u, err := s.usersRepo.GetUserByUID(ctx, uid)
	if err != nil {
		return nil, orNotFound(err, "User not found")
	}
	upd.Apply(u)
	if err := s.usersRepo.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflict("User already exists")
		}
		return nil, orNotFound(err, "User not found")
	}
	return u, nil
}

func (s *userService) AssignDepartment(ctx context.Context, uid string, departmentID int64) (*domain.User, error) {
	if _, err := s.deptRepo.GetDepartment(ctx, departmentID); err != nil {
		return nil, orNotFound(err, "Department not found")
	}
	return s.UpdateUser(ctx, uid, domain.UserUpdate{DepartmentID: &departmentID})
}

func (s *userService) DeactivateUser(ctx context.Context, uid string) error {
	inactive := false
	if _, err := s.UpdateUser(ctx, uid, domain.UserUpdate{IsActive: &inactive}); err != nil {
		return err
	}
	s.logger.Info("User deactivated", zap.String("uid", uid))
	return nil
}
