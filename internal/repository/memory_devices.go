package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"icu-monitor/internal/domain"
)

// MemoryDevicesRepository 监护仪相关数据（内存）
type MemoryDevicesRepository struct {
	mu          sync.RWMutex
	mappings    map[string]domain.DeviceMapping
	assignments []domain.DeviceAssignment
	unassigned  []domain.UnassignedReading
	nextReading int64
	now         func() time.Time
}

func NewMemoryDevicesRepository() *MemoryDevicesRepository {
	return &MemoryDevicesRepository{
		mappings: map[string]domain.DeviceMapping{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var _ DevicesRepository = (*MemoryDevicesRepository)(nil)

func copyMapping(m domain.DeviceMapping) *domain.DeviceMapping {
	fm := make(map[string]string, len(m.FieldMappings))
	for k, v := range m.FieldMappings {
		fm[k] = v
	}
	m.FieldMappings = fm
	return &m
}

func (r *MemoryDevicesRepository) CreateMapping(_ context.Context, m *domain.DeviceMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if _, ok := r.mappings[m.ID]; ok {
		return ErrConflict
	}
	m.CreatedAt = r.now()
	r.mappings[m.ID] = *copyMapping(*m)
	return nil
}

func (r *MemoryDevicesRepository) GetMapping(_ context.Context, id string) (*domain.DeviceMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mappings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyMapping(m), nil
}

func (r *MemoryDevicesRepository) ListActiveMappings(_ context.Context) ([]*domain.DeviceMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.DeviceMapping{}
	for _, m := range r.mappings {
		if m.IsActive {
			out = append(out, copyMapping(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryDevicesRepository) CreateAssignment(_ context.Context, a *domain.DeviceAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = r.now()
	r.assignments = append(r.assignments, *a)
	return nil
}

func (r *MemoryDevicesRepository) AssignIfFree(_ context.Context, a *domain.DeviceAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.assignments {
		if cur.IsActive && cur.DeviceID == a.DeviceID {
			return ErrDeviceInUse
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = r.now()
	r.assignments = append(r.assignments, *a)
	return nil
}

func (r *MemoryDevicesRepository) findActive(match func(domain.DeviceAssignment) bool) (*domain.DeviceAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.assignments) - 1; i >= 0; i-- {
		a := r.assignments[i]
		if a.IsActive && match(a) {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryDevicesRepository) GetActiveAssignment(_ context.Context, deviceID string) (*domain.DeviceAssignment, error) {
	return r.findActive(func(a domain.DeviceAssignment) bool { return a.DeviceID == deviceID })
}

func (r *MemoryDevicesRepository) FindActiveAssignment(_ context.Context, deviceID, patientID string) (*domain.DeviceAssignment, error) {
	return r.findActive(func(a domain.DeviceAssignment) bool {
		return a.DeviceID == deviceID && a.PatientID == patientID
	})
}

func (r *MemoryDevicesRepository) ListActiveAssignments(_ context.Context, limit int) ([]*domain.DeviceAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.DeviceAssignment{}
	// 倒序遍历即 created_at 倒序
	for i := len(r.assignments) - 1; i >= 0; i-- {
		a := r.assignments[i]
		if !a.IsActive {
			continue
		}
		out = append(out, &a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryDevicesRepository) DeactivateAssignment(_ context.Context, id, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.assignments {
		a := &r.assignments[i]
		if a.ID == id && a.IsActive {
			a.IsActive = false
			a.DeactivatedAt = &at
			a.DeactivationReason = reason
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryDevicesRepository) RecordUnassigned(_ context.Context, u *domain.UnassignedReading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextReading++
	u.ID = r.nextReading
	u.DiscoveredAt = r.now()
	c := *u
	c.RawData = append(json.RawMessage(nil), u.RawData...)
	r.unassigned = append(r.unassigned, c)
	return nil
}

func (r *MemoryDevicesRepository) ListLatestUnassigned(_ context.Context) ([]*domain.UnassignedReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	latest := map[string]domain.UnassignedReading{}
	for _, u := range r.unassigned {
		// 同一时间取后写入的
		if cur, ok := latest[u.DeviceID]; !ok || !u.DiscoveredAt.Before(cur.DiscoveredAt) {
			latest[u.DeviceID] = u
		}
	}
	out := make([]*domain.UnassignedReading, 0, len(latest))
	for _, u := range latest {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out, nil
}
