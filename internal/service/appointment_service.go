package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
	"icu-monitor/internal/repository"
)

const invalidStatusMsg = "Invalid status. Must be one of: scheduled, completed, cancelled, no-show"

// AppointmentService 预约服务接口
type AppointmentService interface {
	CreateAppointment(ctx context.Context, req models.CreateAppointmentRequest) (*domain.Appointment, error)
	GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error)
	ListByHospital(ctx context.Context, hospitalID string, start, end *time.Time) ([]*domain.Appointment, error)
	ListByPatient(ctx context.Context, patientID int64) ([]*domain.Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, upd domain.AppointmentUpdate) (*domain.Appointment, error)
	SetStatus(ctx context.Context, id int64, status string) (*domain.Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
}

type appointmentService struct {
	appointments repository.AppointmentsRepository
	patients     repository.PatientsRepository
	logger       *zap.Logger
}

// NewAppointmentService 创建 AppointmentService 实例
func NewAppointmentService(appointments repository.AppointmentsRepository, patients repository.PatientsRepository, logger *zap.Logger) AppointmentService {
	return &appointmentService{appointments: appointments, patients: patients, logger: logger}
}

func (s *appointmentService) CreateAppointment(ctx context.Context, req models.CreateAppointmentRequest) (*domain.Appointment, error) {
	req.Title = strings.TrimSpace(req.Title)
	switch {
	case req.Title == "":
		return nil, invalid("title is required")
	case blank(req.UserID):
		return nil, invalid("user_id is required")
	case blank(req.HospitalID):
		return nil, invalid("hospital_id is required")
	case req.AppointmentDate.IsZero():
		return nil, invalid("appointment_date is required")
	case req.DurationMinutes < 0:
		return nil, invalid("duration_minutes must be positive")
	}
	if req.Status == "" {
		req.Status = domain.AppointmentScheduled
	}
	if !domain.ValidAppointmentStatus(req.Status) {
		return nil, invalid(invalidStatusMsg)
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = domain.DefaultAppointmentMinutes
	}
	if _, err := s.patients.GetPatient(ctx, req.PatientID); err != nil {
		return nil, orNotFound(err, "Patient not found")
	}

	a := &domain.Appointment{
		PatientID:       req.PatientID,
		UserID:          req.UserID,
		Title:           req.Title,
		Description:     req.Description,
		AppointmentDate: req.AppointmentDate,
		DurationMinutes: req.DurationMinutes,
		Status:          req.Status,
		Room:            req.Room,
		Notes:           req.Notes,
		HospitalID:      req.HospitalID,
	}
	if err := s.appointments.CreateAppointment(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("Appointment created", zap.Int64("appointment_id", a.ID), zap.Int64("patient_id", a.PatientID))
	return a, nil
}

func (s *appointmentService) GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error) {
	a, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Appointment not found")
	}
	return a, nil
}

func (s *appointmentService) ListByHospital(ctx context.Context, hospitalID string, start, end *time.Time) ([]*domain.Appointment, error) {
	if start != nil && end != nil && end.Before(*start) {
		return nil, invalid("end_date must not be before start_date")
	}
	return s.appointments.ListAppointments(ctx, repository.AppointmentFilter{HospitalID: hospitalID, Start: start, End: end})
}

func (s *appointmentService) ListByPatient(ctx context.Context, patientID int64) ([]*domain.Appointment, error) {
	return s.appointments.ListAppointments(ctx, repository.AppointmentFilter{PatientID: &patientID})
}

func (s *appointmentService) ListByUser(ctx context.Context, userID string) ([]*domain.Appointment, error) {
	return s.appointments.ListAppointments(ctx, repository.AppointmentFilter{UserID: userID})
}

func (s *appointmentService) UpdateAppointment(ctx context.Context, id int64, upd domain.AppointmentUpdate) (*domain.Appointment, error) {
	if upd.Status != nil && !domain.ValidAppointmentStatus(*upd.Status) {
		return nil, invalid(invalidStatusMsg)
	}
	if upd.DurationMinutes != nil && *upd.DurationMinutes <= 0 {
		return nil, invalid("duration_minutes must be positive")
	}
	if upd.Title != nil && blank(*upd.Title) {
		return nil, invalid("title is required")
	}
	a, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	upd.Apply(a)
	if err := s.appointments.UpdateAppointment(ctx, a); err != nil {
		return nil, orNotFound(err, "Appointment not found")
	}
	return a, nil
}

func (s *appointmentService) SetStatus(ctx context.Context, id int64, status string) (*domain.Appointment, error) {
	return s.UpdateAppointment(ctx, id, domain.AppointmentUpdate{Status: &status})
}

func (s *appointmentService) DeleteAppointment(ctx context.Context, id int64) error {
	if err := s.appointments.DeleteAppointment(ctx, id); err != nil {
		return orNotFound(err, "Appointment not found")
	}
	return nil
}
