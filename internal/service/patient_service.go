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
)

// patientCodeAttempts 并发建患者时 IRN 冲突重试
const patientCodeAttempts = 3

// PatientService 患者服务接口
type PatientService interface {
	CreatePatient(ctx context.Context, req models.CreatePatientRequest) (*domain.Patient, error)
	GetPatient(ctx context.Context, id int64) (*domain.Patient, error)
	ListByHospital(ctx context.Context, hospitalID string) ([]*domain.Patient, error)
	ListByDepartment(ctx context.Context, departmentID int64) ([]*domain.Patient, error)
	UpdatePatient(ctx context.Context, id int64, upd domain.PatientUpdate) (*domain.Patient, error)
	Discharge(ctx context.Context, id int64) (*domain.Patient, error)
	Admit(ctx context.Context, id int64) (*domain.Patient, error)
	AssignDepartment(ctx context.Context, id, departmentID int64) (*domain.Patient, error)
	AssignRoom(ctx context.Context, id int64, room, bed string) (*domain.Patient, error)
	DeletePatient(ctx context.Context, id int64) error
}

type patientService struct {
	patients repository.PatientsRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewPatientService 创建 PatientService 实例
func NewPatientService(patients repository.PatientsRepository, logger *zap.Logger) PatientService {
	return &patientService{patients: patients, logger: logger, now: time.Now}
}

func (s *patientService) CreatePatient(ctx context.Context, req models.CreatePatientRequest) (*domain.Patient, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	switch {
	case req.FirstName == "":
		return nil, invalid("first_name is required")
	case req.LastName == "":
		return nil, invalid("last_name is required")
	case blank(req.HospitalID):
		return nil, invalid("hospital_id is required")
	case inFuture(req.DateOfBirth, s.now()):
		return nil, invalid("Date of birth cannot be in the future")
	case req.Email != nil && *req.Email != "" && !validEmail(*req.Email):
		return nil, invalid("Invalid email address")
	}

	admission := req.AdmissionDate
	if admission == nil {
		t := s.now().UTC()
		admission = &t
	}
	p := &domain.Patient{
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		DateOfBirth:           req.DateOfBirth,
		Gender:                req.Gender,
		Phone:                 req.Phone,
		Email:                 req.Email,
		Address:               req.Address,
		MedicalRecordNumber:   req.MedicalRecordNumber,
		BloodType:             req.BloodType,
		Allergies:             req.Allergies,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		AdmissionDate:         admission,
		RoomNumber:            req.RoomNumber,
		BedNumber:             req.BedNumber,
		HospitalID:            req.HospitalID,
		DepartmentID:          req.DepartmentID,
		Urgency:               req.Urgency,
		IsActive:              true,
	}

	for attempt := 0; attempt < patientCodeAttempts; attempt++ {
		seq, err := s.patients.MaxPatientSeq(ctx)
		if err != nil {
			return nil, err
		}
		p.PatientCode = domain.FormatPatientCode(seq + 1)
		err = s.patients.CreatePatient(ctx, p)
		if err == nil {
			s.logger.Info("Patient created",
				zap.Int64("patient_id", p.ID),
				zap.String("patient_code", p.PatientCode),
				zap.String("hospital_id", p.HospitalID),
			)
			return p, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
	}
	return nil, conflict("Could not allocate patient code")
}

func (s *patientService) GetPatient(ctx context.Context, id int64) (*domain.Patient, error) {
	p, err := s.patients.GetPatient(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Patient not found")
	}
	return p, nil
}

func (s *patientService) ListByHospital(ctx context.Context, hospitalID string) ([]*domain.Patient, error) {
	return s.patients.ListPatientsByHospital(ctx, hospitalID)
}

func (s *patientService) ListByDepartment(ctx context.Context, departmentID int64) ([]*domain.Patient, error) {
	return s.patients.ListPatientsByDepartment(ctx, departmentID)
}

// mutate 读取 -> 修改 -> 保存
func (s *patientService) mutate(ctx context.Context, id int64, fn func(p *domain.Patient)) (*domain.Patient, error) {
	p, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	fn(p)
	if err := s.patients.UpdatePatient(ctx, p); err != nil {
		return nil, orNotFound(err, "Patient not found")
	}
	return p, nil
}

func (s *patientService) UpdatePatient(ctx context.Context, id int64, upd domain.PatientUpdate) (*domain.Patient, error) {
	if inFuture(upd.DateOfBirth, s.now()) {
		return nil, invalid("Date of birth cannot be in the future")
	}
	if upd.Email != nil && *upd.Email != "" && !validEmail(*upd.Email) {
		return nil, invalid("Invalid email address")
	}
	return s.mutate(ctx, id, upd.Apply)
}

func (s *patientService) Discharge(ctx context.Context, id int64) (*domain.Patient, error) {
	return s.mutate(ctx, id, func(p *domain.Patient) {
		now := s.now().UTC()
		p.DischargeDate = &now
		p.IsActive = false
	})
}

func (s *patientService) Admit(ctx context.Context, id int64) (*domain.Patient, error) {
	return s.mutate(ctx, id, func(p *domain.Patient) {
		now := s.now().UTC()
		p.AdmissionDate = &now
		p.DischargeDate = nil
		p.IsActive = true
	})
}

func (s *patientService) AssignDepartment(ctx context.Context, id, departmentID int64) (*domain.Patient, error) {
	return s.mutate(ctx, id, func(p *domain.Patient) { p.DepartmentID = &departmentID })
}

func (s *patientService) AssignRoom(ctx context.Context, id int64, room, bed string) (*domain.Patient, error) {
	if blank(room) {
		return nil, invalid("room_number is required")
	}
	return s.mutate(ctx, id, func(p *domain.Patient) {
		p.RoomNumber = strPtr(room)
		if bed != "" {
			p.BedNumber = strPtr(bed)
		}
	})
}

func (s *patientService) DeletePatient(ctx context.Context, id int64) error {
	if err := s.patients.DeletePatient(ctx, id); err != nil {
		return orNotFound(err, "Patient not found")
	}
	s.logger.Info("Patient deleted", zap.Int64("patient_id", id))
	return nil
}
