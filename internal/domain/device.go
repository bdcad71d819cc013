package domain

import (
	"encoding/json"
	"time"
)

// DeviceMapping 监护仪字段映射：原始字段 -> 标准字段（hr_mean 等）
type DeviceMapping struct {
	ID            string            `db:"id" json:"id"`
	DeviceType    string            `db:"device_type" json:"device_type"`
	Manufacturer  string            `db:"manufacturer" json:"manufacturer"`
	FieldMappings map[string]string `db:"field_mappings" json:"field_mappings"` // JSONB
	IsActive      bool              `db:"is_active" json:"is_active"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
}

// DeviceAssignment 设备 -> 患者绑定
type DeviceAssignment struct {
	ID                 string          `db:"id" json:"id"`
	DeviceID           string          `db:"device_id" json:"device_id"`
	PatientID          string          `db:"patient_id" json:"patient_id"`
	MappingID          string          `db:"mapping_id" json:"mapping_id,omitempty"`
	Room               string          `db:"room" json:"room,omitempty"`
	Bed                string          `db:"bed" json:"bed,omitempty"`
	AssignedBy         string          `db:"assigned_by" json:"assigned_by"`
	AssignmentReason   string          `db:"assignment_reason" json:"assignment_reason,omitempty"`
	CustomAlarmLimits  json.RawMessage `db:"custom_alarm_limits" json:"custom_alarm_limits,omitempty"`
	Notes              string          `db:"notes" json:"notes,omitempty"`
	IsActive           bool            `db:"is_active" json:"is_active"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	DeactivatedAt      *time.Time      `db:"deactivated_at" json:"deactivated_at,omitempty"`
	DeactivationReason string          `db:"deactivation_reason" json:"deactivation_reason,omitempty"`
}

// UnassignedReading 未绑定设备上报的数据，供后续配置
type UnassignedReading struct {
	ID           int64           `db:"id" json:"id"`
	DeviceID     string          `db:"device_id" json:"device_id"`
	DeviceType   string          `db:"device_type" json:"device_type"`
	RawData      json.RawMessage `db:"raw_data" json:"raw_data"`
	Timestamp    time.Time       `db:"timestamp" json:"timestamp"`
	DiscoveredAt time.Time       `db:"discovered_at" json:"discovered_at"`
}
