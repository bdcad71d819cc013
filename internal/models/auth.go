package models

// bypass 开发模式下的固定用户
const (
	BypassUID         = "bypass-doctor-123"
	BypassEmail       = "doctor@bypass.com"
	BypassDisplayName = "Dr. Bypass"
	BypassHospitalID  = "bypass-hospital"
)

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	DisplayName  string  `json:"display_name"`
	Role         string  `json:"role"`
	HospitalID   string  `json:"hospital_id"`
	DepartmentID *int64  `json:"department_id,omitempty"`
	Phone        *string `json:"phone,omitempty"`
}

// TokenResponse 登录响应
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterHospitalRequest 注册医院 + 管理员
type RegisterHospitalRequest struct {
	HospitalName     string  `json:"hospital_name"`
	HospitalAddress  *string `json:"hospital_address,omitempty"`
	AdminEmail       string  `json:"admin_email"`
	AdminPassword    string  `json:"admin_password,omitempty"`
	AdminDisplayName string  `json:"admin_display_name"`
	AdminPhone       *string `json:"admin_phone,omitempty"`
}

// RegisterHospitalResponse 注册医院响应
type RegisterHospitalResponse struct {
	HospitalID   string `json:"hospital_id"`
	HospitalName string `json:"hospital_name"`
	AdminUID     string `json:"admin_uid"`
	Message      string `json:"message"`
}

// RegisterStaffRequest 管理员注册员工
type RegisterStaffRequest struct {
	Email        string  `json:"email"`
	Password     string  `json:"password,omitempty"`
	DisplayName  string  `json:"display_name"`
	Role         string  `json:"role"`
	HospitalID   string  `json:"hospital_id"`
	DepartmentID *int64  `json:"department_id,omitempty"`
	Phone        *string `json:"phone,omitempty"`
}

// RegisterStaffResponse 注册员工响应
type RegisterStaffResponse struct {
	UserID  int64  `json:"user_id"`
	UID     string `json:"uid"`
	Message string `json:"message"`
}

// MeResponse /auth/me
type MeResponse struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	DisplayName  string  `json:"display_name"`
	Role         string  `json:"role"`
	HospitalID   string  `json:"hospital_id"`
	DepartmentID *int64  `json:"department_id,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	IsActive     bool    `json:"is_active"`
}
