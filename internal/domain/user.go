package domain

import "time"

// 角色
const (
	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
	RoleNurse  = "nurse"
)

// ValidRole 是否为已知角色
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDoctor, RoleNurse:
		return true
	}
	return false
}

// User 用户领域模型（对应 users 表）
type User struct {
	ID           int64     `db:"id" json:"id"`
	UID          string    `db:"uid" json:"uid"` // 对外唯一标识，JWT 中的 uid
	Email        string    `db:"email" json:"email"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	Role         string    `db:"role" json:"role"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	HospitalID   string    `db:"hospital_id" json:"hospital_id"`
	DepartmentID *int64    `db:"department_id" json:"department_id,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserUpdate 用户部分更新；nil 字段不修改
type UserUpdate struct {
	Email        *string `json:"email,omitempty"`
	DisplayName  *string `json:"display_name,omitempty"`
	Role         *string `json:"role,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	HospitalID   *string `json:"hospital_id,omitempty"`
	DepartmentID *int64  `json:"department_id,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// Apply 把非 nil 字段写入 u
func (p UserUpdate) Apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Phone != nil {
		u.Phone = p.Phone
	}
	if p.HospitalID != nil {
		u.HospitalID = *p.HospitalID
	}
	if p.DepartmentID != nil {
		u.DepartmentID = p.DepartmentID
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
}
