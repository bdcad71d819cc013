package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"icu-monitor/internal/domain"
)

// MemoryUsersRepository DB 未就绪时使用
type MemoryUsersRepository struct {
	mu     sync.RWMutex
	nextID int64
	byUID  map[string]*domain.User
}

func NewMemoryUsersRepository() *MemoryUsersRepository {
	return &MemoryUsersRepository{byUID: map[string]*domain.User{}}
}

var _ UsersRepository = (*MemoryUsersRepository)(nil)

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (r *MemoryUsersRepository) GetUserByUID(_ context.Context, uid string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byUID[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (r *MemoryUsersRepository) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *MemoryUsersRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *MemoryUsersRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byUID {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUsersRepository) filter(match func(*domain.User) bool) []*domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.User{}
	for _, u := range r.byUID {
		if match(u) {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MemoryUsersRepository) ListUsersByHospital(_ context.Context, hospitalID string) ([]*domain.User, error) {
	return r.filter(func(u *domain.User) bool { return u.HospitalID == hospitalID }), nil
}

func (r *MemoryUsersRepository) ListUsersByDepartment(_ context.Context, departmentID int64) ([]*domain.User, error) {
	return r.filter(func(u *domain.User) bool {
		return u.IsActive && u.DepartmentID != nil && *u.DepartmentID == departmentID
	}), nil
}

func (r *MemoryUsersRepository) CreateUser(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUID[u.UID]; ok {
		return ErrConflict
	}
	for _, existing := range r.byUID {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrConflict
		}
	}
	r.nextID++
	now := time.Now().UTC()
	u.ID = r.nextID
	u.CreatedAt, u.UpdatedAt = now, now
	r.byUID[u.UID] = copyUser(u)
	return nil
}

func (r *MemoryUsersRepository) UpdateUser(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byUID[u.UID]
	if !ok {
		return ErrNotFound
	}
	u.ID = existing.ID
	u.CreatedAt = existing.CreatedAt
	u.PasswordHash = existing.PasswordHash
	u.UpdatedAt = time.Now().UTC()
	r.byUID[u.UID] = copyUser(u)
	return nil
}
