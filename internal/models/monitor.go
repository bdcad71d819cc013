package models

import (
	"encoding/json"
	"time"
)

// MonitorPayload 监护仪上报（HTTP ingest / MQTT / Stream 共用）
type MonitorPayload struct {
	DeviceID   string                 `json:"device_id"`
	DeviceType string                 `json:"device_type,omitempty"`
	Data       map[string]interface{} `json:"data"`
	Timestamp  *time.Time             `json:"timestamp,omitempty"`
}

// StandardVitals 映射后的标准体征 + 患者信息，按患者保存最新一条
type StandardVitals struct {
	PatientID  string              `json:"patient_id"`
	Name       string              `json:"name"`
	Room       string              `json:"room"`
	Bed        string              `json:"bed"`
	Timestamp  string              `json:"timestamp"`
	Fields     map[string]*float64 `json:"fields"`
	AIAnalysis *AIPrediction       `json:"ai_analysis,omitempty"`
}

// IngestResult 接入处理结果
type IngestResult struct {
	Status          string          `json:"status"`
	DeviceID        string          `json:"device_id,omitempty"`
	PatientID       string          `json:"patient_id,omitempty"`
	Message         string          `json:"message,omitempty"`
	ProcessedVitals *StandardVitals `json:"processed_vitals,omitempty"`
	AIResult        *AIPrediction   `json:"ai_result,omitempty"`
	OriginalData    *MonitorPayload `json:"original_data,omitempty"`
}

// 接入状态
const (
	IngestSuccess     = "success"
	IngestTestSuccess = "test_success"
	IngestUnassigned  = "unassigned_device"
	IngestNoMapping   = "no_mapping"
)

// MonitorInventory 监护仪库存
type MonitorInventory struct {
	TotalMonitors  int `json:"total_monitors"`
	ActiveAssigned int `json:"active_assigned"`
	FreeAvailable  int `json:"free_available"`
	Maintenance    int `json:"maintenance"`
	Critical       int `json:"critical"`
}

// MonitorStatus 单台监护仪状态
type MonitorStatus struct {
	DeviceID    string `json:"device_id"`
	Status      string `json:"status"`
	PatientName string `json:"patient_name"`
	Location    string `json:"location"`
}

// CatalogMonitor 可分配的监护仪
type CatalogMonitor struct {
	DeviceID string `json:"device_id"`
	Room     string `json:"room"`
	Bed      string `json:"bed"`
	Type     string `json:"type"`
}

// CreateMappingRequest 新建字段映射
type CreateMappingRequest struct {
	Name          string            `json:"name"`
	DeviceType    string            `json:"device_type"`
	Manufacturer  string            `json:"manufacturer,omitempty"`
	FieldMappings map[string]string `json:"field_mappings"`
	IsActive      *bool             `json:"is_active,omitempty"`
}

// CreateAssignmentRequest 设备绑定患者
type CreateAssignmentRequest struct {
	DeviceID          string          `json:"device_id"`
	PatientID         string          `json:"patient_id"`
	MappingID         string          `json:"mapping_id"`
	Room              string          `json:"room,omitempty"`
	Bed               string          `json:"bed,omitempty"`
	CustomAlarmLimits json.RawMessage `json:"custom_alarm_limits,omitempty"`
	Notes             string          `json:"notes,omitempty"`
}

// CreatedResponse {status, id}
type CreatedResponse struct {
	Status       string `json:"status"`
	MappingID    string `json:"mapping_id,omitempty"`
	AssignmentID string `json:"assignment_id,omitempty"`
}

// SupportedDevice 支持的监护仪格式说明
type SupportedDevice struct {
	Manufacturer  string                 `json:"manufacturer"`
	DeviceType    string                 `json:"device_type"`
	FieldMappings map[string]string      `json:"field_mappings"`
	SamplePayload map[string]interface{} `json:"sample_payload"`
}
