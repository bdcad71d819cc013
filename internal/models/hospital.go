package models

import "time"

// CreateHospitalRequest 创建医院请求
type CreateHospitalRequest struct {
	Name     string  `json:"name"`
	Address  *string `json:"address,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Email    *string `json:"email,omitempty"`
	AdminUID string  `json:"admin_uid"`
}

// CreateDepartmentRequest 创建科室请求
type CreateDepartmentRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	HeadUID     *string `json:"head_uid,omitempty"`
	HospitalID  string  `json:"hospital_id"`
}

// CreatePatientRequest 创建患者请求
type CreatePatientRequest struct {
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	DateOfBirth           *time.Time `json:"date_of_birth,omitempty"`
	Gender                *string    `json:"gender,omitempty"`
	Phone                 *string    `json:"phone,omitempty"`
	Email                 *string    `json:"email,omitempty"`
	Address               *string    `json:"address,omitempty"`
	MedicalRecordNumber   *string    `json:"medical_record_number,omitempty"`
	BloodType             *string    `json:"blood_type,omitempty"`
	Allergies             *string    `json:"allergies,omitempty"`
	EmergencyContactName  *string    `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone,omitempty"`
	AdmissionDate         *time.Time `json:"admission_date,omitempty"`
	RoomNumber            *string    `json:"room_number,omitempty"`
	BedNumber             *string    `json:"bed_number,omitempty"`
	HospitalID            string     `json:"hospital_id"`
	DepartmentID          *int64     `json:"department_id,omitempty"`
	Urgency               *string    `json:"urgency,omitempty"`
}

// CreateAppointmentRequest 创建预约请求
type CreateAppointmentRequest struct {
	PatientID       int64     `json:"patient_id"`
	UserID          string    `json:"user_id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description,omitempty"`
	AppointmentDate time.Time `json:"appointment_date"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	Status          string    `json:"status,omitempty"`
	Room            *string   `json:"room,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	HospitalID      string    `json:"hospital_id"`
}
