package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"icu-monitor/internal/domain"
)

// MemoryPatientsRepository 患者 + 预约（内存）
type MemoryPatientsRepository struct {
	mu           sync.RWMutex
	patients     map[int64]domain.Patient
	appointments map[int64]domain.Appointment
	nextPatient  int64
	nextAppt     int64
}

func NewMemoryPatientsRepository() *MemoryPatientsRepository {
	return &MemoryPatientsRepository{
		patients:     map[int64]domain.Patient{},
		appointments: map[int64]domain.Appointment{},
	}
}

var (
	_ PatientsRepository     = (*MemoryPatientsRepository)(nil)
	_ AppointmentsRepository = (*MemoryPatientsRepository)(nil)
)

func (r *MemoryPatientsRepository) GetPatient(_ context.Context, id int64) (*domain.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *MemoryPatientsRepository) filterPatients(match func(domain.Patient) bool) []*domain.Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.Patient{}
	for _, p := range r.patients {
		if match(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsActive != out[j].IsActive {
			return out[i].IsActive
		}
		return out[i].PatientCode > out[j].PatientCode
	})
	return out
}

func (r *MemoryPatientsRepository) ListPatientsByHospital(_ context.Context, hospitalID string) ([]*domain.Patient, error) {
	return r.filterPatients(func(p domain.Patient) bool { return p.HospitalID == hospitalID }), nil
}

func (r *MemoryPatientsRepository) ListPatientsByDepartment(_ context.Context, departmentID int64) ([]*domain.Patient, error) {
	return r.filterPatients(func(p domain.Patient) bool {
		return p.IsActive && p.DepartmentID != nil && *p.DepartmentID == departmentID
	}), nil
}

func (r *MemoryPatientsRepository) MaxPatientSeq(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	max := 0
	for _, p := range r.patients {
		if n := domain.ParsePatientCode(p.PatientCode); n > max {
			max = n
		}
	}
	return max, nil
}

func (r *MemoryPatientsRepository) CreatePatient(_ context.Context, p *domain.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.patients {
		if existing.PatientCode == p.PatientCode {
			return ErrConflict
		}
	}
	r.nextPatient++
	now := time.Now().UTC()
	p.ID = r.nextPatient
	p.CreatedAt, p.UpdatedAt = now, now
	r.patients[p.ID] = *p
	return nil
}

func (r *MemoryPatientsRepository) UpdatePatient(_ context.Context, p *domain.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.patients[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.PatientCode = existing.PatientCode
	p.HospitalID = existing.HospitalID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	r.patients[p.ID] = *p
	return nil
}

func (r *MemoryPatientsRepository) DeletePatient(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[id]; !ok {
		return ErrNotFound
	}
	delete(r.patients, id)
	return nil
}

// ========== Appointments ==========

func (r *MemoryPatientsRepository) GetAppointment(_ context.Context, id int64) (*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *MemoryPatientsRepository) ListAppointments(_ context.Context, filter AppointmentFilter) ([]*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.Appointment{}
	for _, a := range r.appointments {
		if filter.HospitalID != "" && a.HospitalID != filter.HospitalID {
			continue
		}
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.UserID != "" && a.UserID != filter.UserID {
			continue
		}
		if filter.Start != nil && a.AppointmentDate.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && a.AppointmentDate.After(*filter.End) {
			continue
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppointmentDate.Equal(out[j].AppointmentDate) {
			return out[i].AppointmentDate.Before(out[j].AppointmentDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryPatientsRepository) CreateAppointment(_ context.Context, a *domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextAppt++
	now := time.Now().UTC()
	a.ID = r.nextAppt
	a.CreatedAt, a.UpdatedAt = now, now
	r.appointments[a.ID] = *a
	return nil
}

func (r *MemoryPatientsRepository) UpdateAppointment(_ context.Context, a *domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.appointments[a.ID]
	if !ok {
		return ErrNotFound
	}
	a.PatientID = existing.PatientID
	a.UserID = existing.UserID
	a.HospitalID = existing.HospitalID
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	r.appointments[a.ID] = *a
	return nil
}

func (r *MemoryPatientsRepository) DeleteAppointment(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}
