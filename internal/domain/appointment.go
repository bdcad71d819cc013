package domain

import "time"

// 预约状态
const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no-show"

	DefaultAppointmentMinutes = 30
)

// ValidAppointmentStatus 状态是否合法
func ValidAppointmentStatus(s string) bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

// Appointment 预约（对应 appointments 表）
type Appointment struct {
	ID              int64     `db:"id" json:"id"`
	PatientID       int64     `db:"patient_id" json:"patient_id"`
	UserID          string    `db:"user_id" json:"user_id"`
	Title           string    `db:"title" json:"title"`
	Description     *string   `db:"description" json:"description,omitempty"`
	AppointmentDate time.Time `db:"appointment_date" json:"appointment_date"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Status          string    `db:"status" json:"status"`
	Room            *string   `db:"room" json:"room,omitempty"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	HospitalID      string    `db:"hospital_id" json:"hospital_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// AppointmentUpdate 部分更新
type AppointmentUpdate struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	AppointmentDate *time.Time `json:"appointment_date,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Status          *string    `json:"status,omitempty"`
	Room            *string    `json:"room,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
}

func (u AppointmentUpdate) Apply(a *Appointment) {
	if u.Title != nil {
		a.Title = *u.Title
	}
	if u.Description != nil {
		a.Description = u.Description
	}
	if u.AppointmentDate != nil {
		a.AppointmentDate = *u.AppointmentDate
	}
	if u.DurationMinutes != nil {
		a.DurationMinutes = *u.DurationMinutes
	}
	if u.Status != nil {
		a.Status = *u.Status
	}
	if u.Room != nil {
		a.Room = u.Room
	}
	if u.Notes != nil {
		a.Notes = u.Notes
	}
}
