package session

import (
	"strings"

	"icu-monitor/internal/domain"
)

// UserSource 提供当前用户
type UserSource interface {
	Current() *User
}

// 受保护路由及允许的角色
var routeRoles = map[string][]string{
	"/admin":  {domain.RoleAdmin},
	"/doctor": {domain.RoleDoctor, domain.RoleAdmin},
	"/nurse":  {domain.RoleNurse, domain.RoleAdmin},
}

// RoleProvider 由当前用户推导粗粒度角色
type RoleProvider struct {
	src UserSource
}

func NewRoleProvider(src UserSource) *RoleProvider {
	return &RoleProvider{src: src}
}

// Role admin/doctor/nurse；未登录或未知角色返回 ""
func (r *RoleProvider) Role() string {
	u := r.src.Current()
	if u == nil {
		return ""
	}
	role := strings.ToLower(u.Role)
	if !domain.ValidRole(role) {
		return ""
	}
	return role
}

// RolePtr 供 feed.FilterByRole 使用；未登录为 nil
func (r *RoleProvider) RolePtr() *string {
	if r.src.Current() == nil {
		return nil
	}
	role := r.Role()
	return &role
}

// CanAccess 未受保护的路由总是可访问
func (r *RoleProvider) CanAccess(route string) bool {
	for prefix, allowed := range routeRoles {
		if route != prefix && !strings.HasPrefix(route, prefix+"/") {
			continue
		}
		role := r.Role()
		for _, a := range allowed {
			if role == a {
				return true
			}
		}
		return false
	}
	return true
}
