package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"icu-monitor/internal/domain"
)

// MemoryHospitalsRepository 医院 + 科室（内存）
type MemoryHospitalsRepository struct {
	mu          sync.RWMutex
	hospitals   map[string]domain.Hospital
	departments map[int64]domain.Department
	nextDeptID  int64
}

func NewMemoryHospitalsRepository() *MemoryHospitalsRepository {
	return &MemoryHospitalsRepository{
		hospitals:   map[string]domain.Hospital{},
		departments: map[int64]domain.Department{},
	}
}

var (
	_ HospitalsRepository   = (*MemoryHospitalsRepository)(nil)
	_ DepartmentsRepository = (*MemoryHospitalsRepository)(nil)
)

func (r *MemoryHospitalsRepository) GetHospital(_ context.Context, id string) (*domain.Hospital, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hospitals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &h, nil
}

func (r *MemoryHospitalsRepository) GetHospitalByAdmin(_ context.Context, adminUID string) (*domain.Hospital, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.hospitals {
		if h.AdminUID == adminUID {
			h := h
			return &h, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryHospitalsRepository) CreateHospital(_ context.Context, h *domain.Hospital) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hospitals[h.ID]; ok {
		return ErrConflict
	}
	now := time.Now().UTC()
	h.CreatedAt, h.UpdatedAt = now, now
	r.hospitals[h.ID] = *h
	return nil
}

func (r *MemoryHospitalsRepository) UpdateHospital(_ context.Context, h *domain.Hospital) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.hospitals[h.ID]
	if !ok {
		return ErrNotFound
	}
	h.CreatedAt = existing.CreatedAt
	h.AdminUID = existing.AdminUID
	h.UpdatedAt = time.Now().UTC()
	r.hospitals[h.ID] = *h
	return nil
}

func (r *MemoryHospitalsRepository) GetDepartment(_ context.Context, id int64) (*domain.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.departments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r *MemoryHospitalsRepository) ListDepartmentsByHospital(_ context.Context, hospitalID string) ([]*domain.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.Department{}
	for _, d := range r.departments {
		if d.HospitalID == hospitalID {
			d := d
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryHospitalsRepository) CreateDepartment(_ context.Context, d *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextDeptID++
	now := time.Now().UTC()
	d.ID = r.nextDeptID
	d.CreatedAt, d.UpdatedAt = now, now
	r.departments[d.ID] = *d
	return nil
}

func (r *MemoryHospitalsRepository) UpdateDepartment(_ context.Context, d *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.departments[d.ID]
	if !ok {
		return ErrNotFound
	}
	d.CreatedAt = existing.CreatedAt
	d.HospitalID = existing.HospitalID
	d.UpdatedAt = time.Now().UTC()
	r.departments[d.ID] = *d
	return nil
}
