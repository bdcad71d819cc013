package models

import "encoding/json"

// QuickAdmitRequest 紧急入院
type QuickAdmitRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Urgency    string `json:"urgency,omitempty"`
	Department string `json:"department,omitempty"`
	HospitalID string `json:"hospital_id,omitempty"`
}

// QuickAdmitResponse 入院结果
type QuickAdmitResponse struct {
	Status    string `json:"status"`
	PatientID string `json:"patient_id"`
	Message   string `json:"message"`
	NextStep  string `json:"next_step"`
}

// AutoAssignRequest 自动分配
type AutoAssignRequest struct {
	PatientID          string   `json:"patient_id"`
	PreferredRoom      string   `json:"preferred_room,omitempty"`
	RequiredParameters []string `json:"required_parameters,omitempty"`
	Priority           string   `json:"priority,omitempty"`
}

// ManualAssignRequest 指定监护仪分配
type ManualAssignRequest struct {
	PatientID         string          `json:"patient_id"`
	DeviceID          string          `json:"device_id"`
	CustomAlarmLimits json.RawMessage `json:"custom_alarm_limits,omitempty"`
	Notes             string          `json:"notes,omitempty"`
}

// ReassignRequest 监护仪转给另一患者
type ReassignRequest struct {
	OldDeviceID  string `json:"old_device_id"`
	NewPatientID string `json:"new_patient_id"`
	Reason       string `json:"reason,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// AssignResponse 分配结果
type AssignResponse struct {
	Status          string `json:"status"`
	PatientID       string `json:"patient_id"`
	AssignedMonitor string `json:"assigned_monitor"`
	Room            string `json:"room,omitempty"`
	Bed             string `json:"bed,omitempty"`
	Message         string `json:"message"`
}

// ReassignResponse 转移结果
type ReassignResponse struct {
	Status       string `json:"status"`
	OldPatientID string `json:"old_patient_id"`
	NewPatientID string `json:"new_patient_id"`
	DeviceID     string `json:"device_id"`
	Message      string `json:"message"`
}

// UnassignedMonitorsResponse 空闲监护仪
type UnassignedMonitorsResponse struct {
	Status            string           `json:"status"`
	AvailableMonitors []CatalogMonitor `json:"available_monitors"`
	Count             int              `json:"count"`
}

// RecentAssignment 概览中的最近绑定
type RecentAssignment struct {
	DeviceID    string `json:"device_id"`
	PatientID   string `json:"patient_id"`
	Room        string `json:"room"`
	AssignedAt  string `json:"assigned_at"`
	PatientName string `json:"patient_name"`
}

// OverviewResponse 管理面板概览
type OverviewResponse struct {
	InventorySummary  MonitorInventory   `json:"inventory_summary"`
	RecentAssignments []RecentAssignment `json:"recent_assignments"`
	SystemStatus      string             `json:"system_status"`
}
