package repository

import (
	"context"
	"time"

	"icu-monitor/internal/domain"
)

// PatientsRepository 患者 Repository 接口
type PatientsRepository interface {
	GetPatient(ctx context.Context, id int64) (*domain.Patient, error)
	// ListPatientsByHospital active 优先，其次按 patient_code 倒序
	ListPatientsByHospital(ctx context.Context, hospitalID string) ([]*domain.Patient, error)
	// ListPatientsByDepartment 仅 active
	ListPatientsByDepartment(ctx context.Context, departmentID int64) ([]*domain.Patient, error)
	// MaxPatientSeq 现有 IRN-nnnnn 的最大序号，无记录为 0
	MaxPatientSeq(ctx context.Context) (int, error)
	CreatePatient(ctx context.Context, p *domain.Patient) error
	UpdatePatient(ctx context.Context, p *domain.Patient) error
	DeletePatient(ctx context.Context, id int64) error
}

// AppointmentFilter 预约列表过滤
type AppointmentFilter struct {
	HospitalID string
	PatientID  *int64
	UserID     string
	Start      *time.Time
	End        *time.Time
}

// AppointmentsRepository 预约 Repository 接口
type AppointmentsRepository interface {
	GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error)
	// ListAppointments 按 appointment_date 升序
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]*domain.Appointment, error)
	CreateAppointment(ctx context.Context, a *domain.Appointment) error
	UpdateAppointment(ctx context.Context, a *domain.Appointment) error
	DeleteAppointment(ctx context.Context, id int64) error
}
