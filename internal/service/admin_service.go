package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
	"icu-monitor/internal/repository"
)

// 库存固定值
const (
	defaultMonitorCapacity = 25
	recentAssignmentsLimit = 10
	defaultDepartment      = "cardiology_icu"
)

// 绑定来源
const (
	AssignedByAuto         = "auto_system"
	AssignedByManual       = "admin_manual"
	AssignedByReassignment = "admin_reassignment"
)

// monitorCatalog 可分配的监护仪清单
var monitorCatalog = []models.CatalogMonitor{
	{DeviceID: "PHILIPS_ICU_101_BED_1", Room: "ICU-101", Bed: "Bed 1", Type: "Philips"},
	{DeviceID: "PHILIPS_ICU_101_BED_2", Room: "ICU-101", Bed: "Bed 2", Type: "Philips"},
	{DeviceID: "PHILIPS_ICU_102_BED_1", Room: "ICU-102", Bed: "Bed 1", Type: "Philips"},
	{DeviceID: "MEDTRONIC_ICU_103_BED_1", Room: "ICU-103", Bed: "Bed 1", Type: "Medtronic"},
}

// AdminService 监护仪管理（admin 角色）
type AdminService interface {
	Catalog() []models.CatalogMonitor
	// Inventory 存储不可读时返回安全默认值，不报错
	Inventory(ctx context.Context) models.MonitorInventory
	MonitorStatus(ctx context.Context, deviceID string) models.MonitorStatus
	QuickAdmit(ctx context.Context, req models.QuickAdmitRequest) (*models.QuickAdmitResponse, error)
	AssignAuto(ctx context.Context, req models.AutoAssignRequest) (*models.AssignResponse, error)
	AssignSpecific(ctx context.Context, req models.ManualAssignRequest) (*models.AssignResponse, error)
	Reassign(ctx context.Context, req models.ReassignRequest) (*models.ReassignResponse, error)
	UnassignedMonitors(ctx context.Context) (*models.UnassignedMonitorsResponse, error)
	Overview(ctx context.Context) (*models.OverviewResponse, error)
}

type adminService struct {
	devices     repository.DevicesRepository
	patientsSvc PatientService
	patients    repository.PatientsRepository
	departments repository.DepartmentsRepository
	capacity    int
	logger      *zap.Logger
	now         func() time.Time
}

// NewAdminService 创建 AdminService 实例；capacity <= 0 使用 25
func NewAdminService(
	devices repository.DevicesRepository,
	patientsSvc PatientService,
	patients repository.PatientsRepository,
	departments repository.DepartmentsRepository,
	capacity int,
	logger *zap.Logger,
) AdminService {
	if capacity <= 0 {
		capacity = defaultMonitorCapacity
	}
	return &adminService{
		devices:     devices,
		patientsSvc: patientsSvc,
		patients:    patients,
		departments: departments,
		capacity:    capacity,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *adminService) Catalog() []models.CatalogMonitor {
	out := make([]models.CatalogMonitor, len(monitorCatalog))
	copy(out, monitorCatalog)
	return out
}

func (s *adminService) Inventory(ctx context.Context) models.MonitorInventory {
	assignments, err := s.devices.ListActiveAssignments(ctx, 0)
	if err != nil {
		s.logger.Warn("Failed to count monitor assignments", zap.Error(err))
		return models.MonitorInventory{TotalMonitors: s.capacity, FreeAvailable: s.capacity}
	}
	assigned := len(assignments)
	return models.MonitorInventory{
		TotalMonitors:  s.capacity,
		ActiveAssigned: assigned,
		FreeAvailable:  max(0, s.capacity-assigned),
		Maintenance:    1,
		Critical:       0,
	}
}

func (s *adminService) MonitorStatus(ctx context.Context, deviceID string) models.MonitorStatus {
	a, err := s.devices.GetActiveAssignment(ctx, deviceID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return models.MonitorStatus{DeviceID: deviceID, Status: "available", PatientName: "--", Location: "Unassigned"}
	case err != nil:
		s.logger.Warn("Failed to load monitor status", zap.String("device_id", deviceID), zap.Error(err))
		return models.MonitorStatus{DeviceID: deviceID, Status: "unknown", PatientName: "--", Location: "Error"}
	}
	return models.MonitorStatus{
		DeviceID:    deviceID,
		Status:      "assigned",
		PatientName: s.patientName(ctx, a.PatientID, "Unknown Patient"),
		Location:    "Room " + orUnknown(a.Room),
	}
}

// patientName 患者不存在时返回 fallback
func (s *adminService) patientName(ctx context.Context, patientID, fallback string) string {
	id, err := strconv.ParseInt(patientID, 10, 64)
	if err != nil {
		return fallback
	}
	p, err := s.patients.GetPatient(ctx, id)
	if err != nil {
		return fallback
	}
	if name := p.FullName(); name != "" {
		return name
	}
	return fallback
}

func (s *adminService) QuickAdmit(ctx context.Context, req models.QuickAdmitRequest) (*models.QuickAdmitResponse, error) {
	urgency := strings.ToLower(strings.TrimSpace(req.Urgency))
	if urgency == "" {
		urgency = domain.UrgencyMedium
	}
	switch urgency {
	case domain.UrgencyEmergency, domain.UrgencyHigh, domain.UrgencyMedium, domain.UrgencyLow:
	default:
		return nil, invalid("Invalid urgency. Must be one of: emergency, high, medium, low")
	}
	department := req.Department
	if department == "" {
		department = defaultDepartment
	}

	p, err := s.patientsSvc.CreatePatient(ctx, models.CreatePatientRequest{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		HospitalID:   req.HospitalID,
		DepartmentID: s.departmentID(ctx, req.HospitalID, department),
		Urgency:      &urgency,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Patient quick-admitted",
		zap.Int64("patient_id", p.ID),
		zap.String("urgency", urgency),
		zap.String("department", department),
	)
	return &models.QuickAdmitResponse{
		Status:    "success",
		PatientID: strconv.FormatInt(p.ID, 10),
		Message:   "Patient " + p.FirstName + " " + p.LastName + " admitted successfully",
		NextStep:  "assign_monitor",
	}, nil
}

// departmentID 按名称匹配医院科室（cardiology_icu == "Cardiology ICU"），未匹配返回 nil
func (s *adminService) departmentID(ctx context.Context, hospitalID, department string) *int64 {
	if hospitalID == "" {
		return nil
	}
	depts, err := s.departments.ListDepartmentsByHospital(ctx, hospitalID)
	if err != nil {
		return nil
	}
	key := normalizeDepartment(department)
	for _, d := range depts {
		if normalizeDepartment(d.Name) == key {
			id := d.ID
			return &id
		}
	}
	return nil
}

func normalizeDepartment(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}), " ")
}

// assignedDevices 当前有 active 绑定的设备
func (s *adminService) assignedDevices(ctx context.Context) (map[string]bool, error) {
	assignments, err := s.devices.ListActiveAssignments(ctx, 0)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		out[a.DeviceID] = true
	}
	return out, nil
}

func (s *adminService) AssignAuto(ctx context.Context, req models.AutoAssignRequest) (*models.AssignResponse, error) {
	if blank(req.PatientID) {
		return nil, invalid("patient_id is required")
	}
	assigned, err := s.assignedDevices(ctx)
	if err != nil {
		return nil, err
	}

	// 以 AssignIfFree 为准，被并发抢占时换下一台
	var selected *models.CatalogMonitor
	var a *domain.DeviceAssignment
	for i := range monitorCatalog {
		m := monitorCatalog[i]
		if assigned[m.DeviceID] {
			continue
		}
		if req.PreferredRoom != "" && m.Room != req.PreferredRoom {
			continue
		}
		candidate := &domain.DeviceAssignment{
			DeviceID:         m.DeviceID,
			PatientID:        req.PatientID,
			Room:             m.Room,
			Bed:              m.Bed,
			AssignedBy:       AssignedByAuto,
			AssignmentReason: "Auto-assigned via admin panel",
			IsActive:         true,
		}
		err := s.devices.AssignIfFree(ctx, candidate)
		if errors.Is(err, repository.ErrDeviceInUse) {
			continue
		}
		if err != nil {
			return nil, err
		}
		selected, a = &m, candidate
		break
	}
	if selected == nil {
		return nil, notFound("No available monitors found")
	}
	s.logger.Info("Monitor auto-assigned",
		zap.String("device_id", a.DeviceID),
		zap.String("patient_id", a.PatientID),
	)
	return &models.AssignResponse{
		Status:          "success",
		PatientID:       req.PatientID,
		AssignedMonitor: selected.DeviceID,
		Room:            selected.Room,
		Bed:             selected.Bed,
		Message:         "Monitor " + selected.DeviceID + " assigned to patient",
	}, nil
}

func (s *adminService) AssignSpecific(ctx context.Context, req models.ManualAssignRequest) (*models.AssignResponse, error) {
	if blank(req.PatientID) || blank(req.DeviceID) {
		return nil, invalid("patient_id and device_id are required")
	}
	a := &domain.DeviceAssignment{
		DeviceID:          req.DeviceID,
		PatientID:         req.PatientID,
		AssignedBy:        AssignedByManual,
		AssignmentReason:  req.Notes,
		CustomAlarmLimits: req.CustomAlarmLimits,
		IsActive:          true,
	}
	if err := s.devices.AssignIfFree(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDeviceInUse) {
			return nil, invalid("Monitor is already assigned to another patient")
		}
		return nil, err
	}
	s.logger.Info("Monitor manually assigned",
		zap.String("device_id", a.DeviceID),
		zap.String("patient_id", a.PatientID),
	)
	return &models.AssignResponse{
		Status:          "success",
		PatientID:       req.PatientID,
		AssignedMonitor: req.DeviceID,
		Message:         "Monitor " + req.DeviceID + " manually assigned to patient",
	}, nil
}

func (s *adminService) Reassign(ctx context.Context, req models.ReassignRequest) (*models.ReassignResponse, error) {
	if blank(req.OldDeviceID) || blank(req.NewPatientID) {
		return nil, invalid("old_device_id and new_patient_id are required")
	}
	current, err := s.devices.GetActiveAssignment(ctx, req.OldDeviceID)
	if err != nil {
		return nil, orNotFound(err, "Monitor not currently assigned")
	}

	if err := s.devices.DeactivateAssignment(ctx, current.ID, req.Reason, s.now().UTC()); err != nil {
		return nil, orNotFound(err, "Monitor not currently assigned")
	}
	next := &domain.DeviceAssignment{
		DeviceID:         req.OldDeviceID,
		PatientID:        req.NewPatientID,
		MappingID:        current.MappingID,
		AssignedBy:       AssignedByReassignment,
		AssignmentReason: "Reassigned from patient " + current.PatientID + " - " + req.Reason,
		Notes:            req.Notes,
		IsActive:         true,
	}
	if err := s.devices.CreateAssignment(ctx, next); err != nil {
		return nil, err
	}
	s.logger.Info("Monitor reassigned",
		zap.String("device_id", req.OldDeviceID),
		zap.String("old_patient_id", current.PatientID),
		zap.String("new_patient_id", req.NewPatientID),
	)
	return &models.ReassignResponse{
		Status:       "success",
		OldPatientID: current.PatientID,
		NewPatientID: req.NewPatientID,
		DeviceID:     req.OldDeviceID,
		Message:      "Monitor reassigned successfully",
	}, nil
}

func (s *adminService) UnassignedMonitors(ctx context.Context) (*models.UnassignedMonitorsResponse, error) {
	assigned, err := s.assignedDevices(ctx)
	if err != nil {
		return nil, err
	}
	available := make([]models.CatalogMonitor, 0, len(monitorCatalog))
	for _, m := range monitorCatalog {
		if !assigned[m.DeviceID] {
			available = append(available, m)
		}
	}
	return &models.UnassignedMonitorsResponse{Status: "success", AvailableMonitors: available, Count: len(available)}, nil
}

func (s *adminService) Overview(ctx context.Context) (*models.OverviewResponse, error) {
	inventory := s.Inventory(ctx)
	recent := []models.RecentAssignment{}

	assignments, err := s.devices.ListActiveAssignments(ctx, recentAssignmentsLimit)
	if err != nil {
		s.logger.Warn("Failed to load recent assignments", zap.Error(err))
	}
	for _, a := range assignments {
		recent = append(recent, models.RecentAssignment{
			DeviceID:    a.DeviceID,
			PatientID:   a.PatientID,
			Room:        orUnknown(a.Room),
			AssignedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
			PatientName: s.patientName(ctx, a.PatientID, unknownLocation),
		})
	}

	status := "operational"
	if inventory.TotalMonitors == 0 {
		status = "warning"
	}
	return &models.OverviewResponse{InventorySummary: inventory, RecentAssignments: recent, SystemStatus: status}, nil
}
