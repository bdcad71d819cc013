package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
	"icu-monitor/internal/repository"
	"icu-monitor/internal/store"
)

// Principal 当前请求的身份
type Principal struct {
	UID        string
	Email      string
	Role       string
	HospitalID string
	JTI        string
	ExpiresAt  time.Time
	Bypass     bool
}

// IsAdmin 是否管理员
func (p *Principal) IsAdmin() bool { return p != nil && p.Role == domain.RoleAdmin }

// BypassPrincipal 无 token 时的 bypass 身份
func BypassPrincipal() *Principal {
	return &Principal{
		UID:        models.BypassUID,
		Email:      models.BypassEmail,
		Role:       domain.RoleDoctor,
		HospitalID: models.BypassHospitalID,
		Bypass:     true,
	}
}

// AuthService 认证服务接口
type AuthService interface {
	Register(ctx context.Context, req models.CreateUserRequest) (*domain.User, error)
	RegisterHospital(ctx context.Context, req models.RegisterHospitalRequest) (*models.RegisterHospitalResponse, error)
	RegisterStaff(ctx context.Context, req models.RegisterStaffRequest) (*models.RegisterStaffResponse, error)
	Login(ctx context.Context, req LoginRequest) (*models.TokenResponse, error)
	// Authenticate 校验 token 并加载用户
	Authenticate(ctx context.Context, token string) (*Principal, error)
	Logout(ctx context.Context, p *Principal) error
	Me(ctx context.Context, p *Principal) (*models.MeResponse, error)
}

// LoginRequest 表单登录：username 即 email
type LoginRequest struct {
	Username string
	Password string
}

type authService struct {
	usersRepo repository.UsersRepository
	hospitals HospitalService
	tokens    *TokenService
	revoker   *store.TokenRevoker
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(usersRepo repository.UsersRepository, hospitals HospitalService, tokens *TokenService, revoker *store.TokenRevoker, logger *zap.Logger) AuthService {
	return &authService{
		usersRepo: usersRepo,
		hospitals: hospitals,
		tokens:    tokens,
		revoker:   revoker,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req models.CreateUserRequest) (*domain.User, error) {
	u, err := createUser(ctx, s.usersRepo, req, "Email already registered")
	if err != nil {
		return nil, err
	}
	s.logger.Info("User registered", zap.String("uid", u.UID), zap.String("role", u.Role))
	return u, nil
}

func (s *authService) RegisterHospital(ctx context.Context, req models.RegisterHospitalRequest) (*models.RegisterHospitalResponse, error) {
	if blank(req.HospitalName) {
		return nil, invalid("hospital_name is required")
	}
	password := req.AdminPassword
	if password == "" {
		password = DefaultPassword
	}

	// 先建管理员，再建医院，最后回写 hospital_id
	admin, err := createUser(ctx, s.usersRepo, models.CreateUserRequest{
		Email:       req.AdminEmail,
		Password:    password,
		DisplayName: req.AdminDisplayName,
		Role:        domain.RoleAdmin,
		Phone:       req.AdminPhone,
	}, "Email already registered")
	if err != nil {
		return nil, err
	}

	email := admin.Email
	h, err := s.hospitals.CreateHospital(ctx, models.CreateHospitalRequest{
		Name:     req.HospitalName,
		Address:  req.HospitalAddress,
		Phone:    req.AdminPhone,
		Email:    &email,
		AdminUID: admin.UID,
	})
	if err != nil {
		return nil, err
	}

	admin.HospitalID = h.ID
	if err := s.usersRepo.UpdateUser(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info("Hospital registered",
		zap.String("hospital_id", h.ID),
		zap.String("admin_uid", admin.UID),
	)
	return &models.RegisterHospitalResponse{
		HospitalID:   h.ID,
		HospitalName: h.Name,
		AdminUID:     admin.UID,
		Message:      "Hospital registered successfully",
	}, nil
}

func (s *authService) RegisterStaff(ctx context.Context, req models.RegisterStaffRequest) (*models.RegisterStaffResponse, error) {
	if blank(req.HospitalID) {
		return nil, invalid("hospital_id is required")
	}
	password := req.Password
	if password == "" {
		password = DefaultPassword
	}
	u, err := createUser(ctx, s.usersRepo, models.CreateUserRequest{
		Email:        req.Email,
		Password:     password,
		DisplayName:  req.DisplayName,
		Role:         req.Role,
		HospitalID:   req.HospitalID,
		DepartmentID: req.DepartmentID,
		Phone:        req.Phone,
	}, "Email already registered")
	if err != nil {
		return nil, err
	}
	s.logger.Info("Staff registered", zap.String("uid", u.UID), zap.String("role", u.Role))
	return &models.RegisterStaffResponse{
		UserID:  u.ID,
		UID:     u.UID,
		Message: capitalize(u.Role) + " registered successfully",
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*models.TokenResponse, error) {
	badCredentials := &Error{Kind: ErrUnauthorized, Message: "Incorrect email or password"}

	email := strings.TrimSpace(req.Username)
	if email == "" || req.Password == "" {
		return nil, badCredentials
	}
	u, err := s.usersRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Login failed: unknown email", zap.String("email", email))
			return nil, badCredentials
		}
		return nil, err
	}
	if !CheckPasswordHash(req.Password, u.PasswordHash) {
		s.logger.Warn("Login failed: bad password", zap.String("uid", u.UID))
		return nil, badCredentials
	}

	token, _, err := s.tokens.Issue(u.Email, u.UID, u.Role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User logged in", zap.String("uid", u.UID))
	return &models.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, &Error{Kind: ErrUnauthorized, Message: "Token revoked"}
		}
	}
	u, err := s.usersRepo.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &Error{Kind: ErrUnauthorized, Message: "Could not validate credentials"}
		}
		return nil, err
	}
	p := &Principal{
		UID:        u.UID,
		Email:      u.Email,
		Role:       u.Role,
		HospitalID: u.HospitalID,
		JTI:        claims.ID,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

func (s *authService) Logout(ctx context.Context, p *Principal) error {
	if p == nil || p.Bypass || s.revoker == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, p.JTI, p.ExpiresAt.Sub(s.now())); err != nil {
		return err
	}
	s.logger.Info("User logged out", zap.String("uid", p.UID))
	return nil
}

func (s *authService) Me(ctx context.Context, p *Principal) (*models.MeResponse, error) {
	if p == nil {
		return nil, &Error{Kind: ErrUnauthorized, Message: "Not authenticated"}
	}
	if p.Bypass {
		return &models.MeResponse{
			ID:          models.BypassUID,
			Email:       models.BypassEmail,
			DisplayName: models.BypassDisplayName,
			Role:        domain.RoleDoctor,
			HospitalID:  models.BypassHospitalID,
			IsActive:    true,
		}, nil
	}
	u, err := s.usersRepo.GetUserByUID(ctx, p.UID)
	if err != nil {
		return nil, orNotFound(err, "User not found")
	}
	if !u.IsActive {
		return nil, invalid("Inactive user")
	}
	return &models.MeResponse{
		ID:           u.UID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		Role:         u.Role,
		HospitalID:   u.HospitalID,
		DepartmentID: u.DepartmentID,
		Phone:        u.Phone,
		IsActive:     u.IsActive,
	}, nil
}
