package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/metrics"
	"icu-monitor/internal/models"
	"icu-monitor/internal/playback"
	"icu-monitor/internal/repository"
	"icu-monitor/internal/store"
	"icu-monitor/internal/vitals"
)

const unknownLocation = "Unknown"

// testDevices test-ingest 的已知测试设备：name, room, bed
var testDevices = map[string][3]string{
	"philips_bed_01":   {"John Doe", "101-A", "Bed 1"},
	"medtronic_bed_02": {"Jane Smith", "101-B", "Bed 2"},
	"drager_bed_03":    {"Bob Johnson", "102-A", "Bed 1"},
}

// MonitorService 监护仪数据接入服务接口
type MonitorService interface {
	// Ingest 绑定 -> 映射 -> 标准化 -> 风险分析 -> 保存最新值
	Ingest(ctx context.Context, payload models.MonitorPayload) (*models.IngestResult, error)
	// TestIngest 默认映射，不落库
	TestIngest(ctx context.Context, payload models.MonitorPayload) (*models.IngestResult, error)

	ListMappings(ctx context.Context) ([]*domain.DeviceMapping, error)
	CreateMapping(ctx context.Context, req models.CreateMappingRequest) (*models.CreatedResponse, error)
	CreateAssignment(ctx context.Context, req models.CreateAssignmentRequest) (*models.CreatedResponse, error)
	ListUnassigned(ctx context.Context) ([]*domain.UnassignedReading, error)
	SupportedDevices() []models.SupportedDevice

	// Roster 实时模式的推送列表
	Roster(ctx context.Context) ([]models.RosterPatient, error)
}

type monitorService struct {
	devices   repository.DevicesRepository
	patients  repository.PatientsRepository
	vitals    *store.VitalsStore
	evaluator *vitals.Evaluator
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewMonitorService 创建 MonitorService 实例；m 可为 nil
func NewMonitorService(
	devices repository.DevicesRepository,
	patients repository.PatientsRepository,
	vitalsStore *store.VitalsStore,
	evaluator *vitals.Evaluator,
	m *metrics.Metrics,
	logger *zap.Logger,
) MonitorService {
	return &monitorService{
		devices:   devices,
		patients:  patients,
		vitals:    vitalsStore,
		evaluator: evaluator,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *monitorService) timestamp(p models.MonitorPayload) time.Time {
	if p.Timestamp != nil && !p.Timestamp.IsZero() {
		return p.Timestamp.UTC()
	}
	return s.now().UTC()
}

func (s *monitorService) Ingest(ctx context.Context, payload models.MonitorPayload) (*models.IngestResult, error) {
	if blank(payload.DeviceID) {
		return nil, invalid("device_id is required")
	}
	ts := s.timestamp(payload)

	assignment, err := s.devices.GetActiveAssignment(ctx, payload.DeviceID)
	if errors.Is(err, repository.ErrNotFound) {
		s.recordUnassigned(ctx, payload, ts)
		s.metrics.ObserveIngest(models.IngestUnassigned)
		return &models.IngestResult{
			Status:   models.IngestUnassigned,
			DeviceID: payload.DeviceID,
			Message:  "Device not assigned to any patient",
		}, nil
	}
	if err != nil {
		return nil, err
	}

	mapping, err := s.mappingFor(ctx, assignment)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		s.metrics.ObserveIngest(models.IngestNoMapping)
		return &models.IngestResult{
			Status:   models.IngestNoMapping,
			DeviceID: payload.DeviceID,
			Message:  "No field mapping configured for device type",
		}, nil
	}

	name, room, bed := s.patientInfo(ctx, assignment)
	sv := &models.StandardVitals{
		PatientID: assignment.PatientID,
		Name:      name,
		Room:      room,
		Bed:       bed,
		Timestamp: ts.Format(time.RFC3339Nano),
		Fields:    vitals.Transform(payload.Data, mapping.FieldMappings),
	}
	sv.AIAnalysis = s.evaluator.Analyze(sv.PatientID, sv.Fields)

	if err := s.vitals.Put(ctx, sv); err != nil {
		// 存储失败不影响本次处理结果
		s.logger.Warn("Failed to store realtime vitals",
			zap.String("patient_id", sv.PatientID),
			zap.Error(err),
		)
	}
	s.metrics.ObserveIngest(models.IngestSuccess)

	return &models.IngestResult{
		Status:          models.IngestSuccess,
		DeviceID:        payload.DeviceID,
		PatientID:       sv.PatientID,
		ProcessedVitals: sv,
		AIResult:        sv.AIAnalysis,
	}, nil
}

func (s *monitorService) recordUnassigned(ctx context.Context, payload models.MonitorPayload, ts time.Time) {
	raw, err := json.Marshal(payload.Data)
	if err != nil {
		s.logger.Warn("Failed to encode unassigned payload", zap.String("device_id", payload.DeviceID), zap.Error(err))
		return
	}
	deviceType := payload.DeviceType
	if deviceType == "" {
		deviceType = "unknown"
	}
	err = s.devices.RecordUnassigned(ctx, &domain.UnassignedReading{
		DeviceID:   payload.DeviceID,
		DeviceType: deviceType,
		RawData:    raw,
		Timestamp:  ts,
	})
	if err != nil {
		s.logger.Warn("Failed to record unassigned device", zap.String("device_id", payload.DeviceID), zap.Error(err))
		return
	}
	s.logger.Info("Unassigned device reported data", zap.String("device_id", payload.DeviceID))
}

// mappingFor 绑定未配置映射或映射不存在时返回 nil, nil
func (s *monitorService) mappingFor(ctx context.Context, a *domain.DeviceAssignment) (*domain.DeviceMapping, error) {
	if a.MappingID == "" {
		return nil, nil
	}
	m, err := s.devices.GetMapping(ctx, a.MappingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return m, err
}

// patientInfo 患者姓名/房间/床位；患者记录优先，其次绑定上的位置
func (s *monitorService) patientInfo(ctx context.Context, a *domain.DeviceAssignment) (name, room, bed string) {
	name = "Patient " + a.PatientID
	room, bed = orUnknown(a.Room), orUnknown(a.Bed)

	id, err := strconv.ParseInt(a.PatientID, 10, 64)
	if err != nil {
		return name, room, bed
	}
	p, err := s.patients.GetPatient(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Failed to load patient", zap.String("patient_id", a.PatientID), zap.Error(err))
		}
		return name, room, bed
	}
	if full := p.FullName(); full != "" {
		name = full
	}
	if p.RoomNumber != nil && *p.RoomNumber != "" {
		room = *p.RoomNumber
	}
	if p.BedNumber != nil && *p.BedNumber != "" {
		bed = *p.BedNumber
	}
	return name, room, bed
}

func orUnknown(s string) string {
	if s == "" {
		return unknownLocation
	}
	return s
}

func (s *monitorService) TestIngest(_ context.Context, payload models.MonitorPayload) (*models.IngestResult, error) {
	if payload.DeviceID == "" {
		payload.DeviceID = "test_device"
	}
	ts := s.timestamp(payload)

	name, room, bed := "Test Patient ("+payload.DeviceID+")", "Test Room", "Test Bed"
	if info, ok := testDevices[payload.DeviceID]; ok {
		name, room, bed = info[0], info[1], info[2]
	}
	sv := &models.StandardVitals{
		PatientID: payload.DeviceID,
		Name:      name,
		Room:      room,
		Bed:       bed,
		Timestamp: ts.Format(time.RFC3339Nano),
		Fields:    vitals.Transform(payload.Data, vitals.DefaultFieldMappings),
	}
	sv.AIAnalysis = s.evaluator.Analyze(sv.PatientID, sv.Fields)

	original := payload
	original.Timestamp = &ts
	return &models.IngestResult{
		Status:          models.IngestTestSuccess,
		DeviceID:        payload.DeviceID,
		PatientID:       sv.PatientID,
		Message:         "Processed in test mode (no database)",
		ProcessedVitals: sv,
		AIResult:        sv.AIAnalysis,
		OriginalData:    &original,
	}, nil
}

func (s *monitorService) ListMappings(ctx context.Context) ([]*domain.DeviceMapping, error) {
	return s.devices.ListActiveMappings(ctx)
}

func (s *monitorService) CreateMapping(ctx context.Context, req models.CreateMappingRequest) (*models.CreatedResponse, error) {
	if blank(req.DeviceType) {
		return nil, invalid("device_type is required")
	}
	if len(req.FieldMappings) == 0 {
		return nil, invalid("field_mappings is required")
	}
	manufacturer := req.Manufacturer
	if manufacturer == "" {
		manufacturer = req.Name
	}
	m := &domain.DeviceMapping{
		DeviceType:    strings.TrimSpace(req.DeviceType),
		Manufacturer:  manufacturer,
		FieldMappings: req.FieldMappings,
		IsActive:      req.IsActive == nil || *req.IsActive,
	}
	if err := s.devices.CreateMapping(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("Device mapping created", zap.String("mapping_id", m.ID), zap.String("device_type", m.DeviceType))
	return &models.CreatedResponse{Status: "success", MappingID: m.ID}, nil
}

func (s *monitorService) CreateAssignment(ctx context.Context, req models.CreateAssignmentRequest) (*models.CreatedResponse, error) {
	if blank(req.DeviceID) {
		return nil, invalid("device_id is required")
	}
	if blank(req.PatientID) {
		return nil, invalid("patient_id is required")
	}
	if _, err := s.devices.FindActiveAssignment(ctx, req.DeviceID, req.PatientID); err == nil {
		return nil, invalid("Device already assigned to this patient")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	a := &domain.DeviceAssignment{
		DeviceID:          req.DeviceID,
		PatientID:         req.PatientID,
		MappingID:         req.MappingID,
		Room:              req.Room,
		Bed:               req.Bed,
		AssignedBy:        "monitor_data_api",
		CustomAlarmLimits: req.CustomAlarmLimits,
		Notes:             req.Notes,
		IsActive:          true,
	}
	if err := s.devices.CreateAssignment(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("Device assigned",
		zap.String("device_id", a.DeviceID),
		zap.String("patient_id", a.PatientID),
		zap.String("assignment_id", a.ID),
	)
	return &models.CreatedResponse{Status: "success", AssignmentID: a.ID}, nil
}

func (s *monitorService) ListUnassigned(ctx context.Context) ([]*domain.UnassignedReading, error) {
	return s.devices.ListLatestUnassigned(ctx)
}

func (s *monitorService) SupportedDevices() []models.SupportedDevice {
	return supportedDevices
}

func (s *monitorService) Roster(ctx context.Context) ([]models.RosterPatient, error) {
	assignments, err := s.devices.ListActiveAssignments(ctx, 0)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	roster := make([]models.RosterPatient, 0, len(assignments))
	for _, a := range assignments {
		if seen[a.PatientID] {
			continue
		}
		seen[a.PatientID] = true

		sv, err := s.vitals.Latest(ctx, a.PatientID)
		if errors.Is(err, store.ErrMiss) {
			roster = append(roster, monitorPlaceholder(a.PatientID))
			continue
		}
		if err != nil {
			return nil, err
		}
		roster = append(roster, s.toRoster(*sv))
	}
	return roster, nil
}

func (s *monitorService) toRoster(sv models.StandardVitals) models.RosterPatient {
	res := s.evaluator.EvaluateStandard(sv)
	name := sv.Name
	if name == "" {
		name = "Patient " + sv.PatientID
	}
	ts := sv.Timestamp
	if ts == "" {
		ts = s.now().UTC().Format(playback.TimestampLayout)
	}
	return models.RosterPatient{
		PatientID:    sv.PatientID,
		Name:         name,
		Room:         orUnknown(sv.Room),
		Bed:          orUnknown(sv.Bed),
		Vitals:       res.Vitals,
		Alarms:       res.Alarms,
		AIPrediction: res.AIPrediction,
		LastUpdateTS: &ts,
	}
}

// monitorPlaceholder 已绑定但尚无数据的患者
func monitorPlaceholder(patientID string) models.RosterPatient {
	room := unknownLocation
	if _, err := strconv.Atoi(patientID); err == nil {
		room = playback.RoomFor(patientID)
	}
	empty := models.VitalReading{Value: nil, Status: models.VitalStable}
	return models.RosterPatient{
		PatientID: patientID,
		Name:      playback.NameFor(patientID),
		Room:      room,
		Bed:       unknownLocation,
		Vitals: map[string]models.VitalReading{
			vitals.NameHR:   empty,
			vitals.NameSpO2: empty,
			vitals.NameSBP:  empty,
			vitals.NameDBP:  empty,
		},
		Alarms:       []models.AlarmEntry{},
		AIPrediction: &models.AIPrediction{},
	}
}

var supportedDevices = []models.SupportedDevice{
	{
		Manufacturer:  "Philips",
		DeviceType:    "philips_intellivue",
		FieldMappings: map[string]string{"HR": "hr_mean", "SpO2": "spo2_mean", "NBP_SYS": "sbp_mean", "NBP_DIA": "dbp_mean", "RESP": "rr_mean"},
		SamplePayload: map[string]interface{}{
			"device_id": "PHILIPS_ICU_101_BED_1",
			"data":      map[string]interface{}{"HR": 78, "SpO2": 97, "NBP_SYS": 120, "NBP_DIA": 80, "RESP": 16},
		},
	},
	{
		Manufacturer:  "Medtronic",
		DeviceType:    "medtronic_capnostream",
		FieldMappings: map[string]string{"PULSE": "hr_mean", "SPO2": "spo2_mean", "RR": "rr_mean"},
		SamplePayload: map[string]interface{}{
			"device_id": "MEDTRONIC_ICU_103_BED_1",
			"data":      map[string]interface{}{"PULSE": "82 bpm", "SPO2": "96%", "RR": "18 /min"},
		},
	},
	{
		Manufacturer:  "Dräger",
		DeviceType:    "drager_infinity",
		FieldMappings: map[string]string{"HeartRate": "hr_mean", "SpO2": "spo2_mean", "ABP_S": "sbp_mean", "ABP_D": "dbp_mean", "RespRate": "rr_mean"},
		SamplePayload: map[string]interface{}{
			"device_id": "drager_bed_03",
			"data":      map[string]interface{}{"HeartRate": 90, "SpO2": 95, "ABP_S": "135 mmHg", "ABP_D": "85 mmHg", "RespRate": 20},
		},
	},
	{
		Manufacturer:  "Generic",
		DeviceType:    "generic",
		FieldMappings: vitals.DefaultFieldMappings,
		SamplePayload: map[string]interface{}{
			"device_id": "test_device",
			"data":      map[string]interface{}{"HR": "72 bpm", "SpO2": "98%", "NBP_SYS": "118", "NBP_DIA": "76", "RESP": 14},
		},
	},
}
