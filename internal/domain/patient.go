package domain

import (
	"fmt"
	"strings"
	"time"
)

// 紧急程度（quick-admit）
const (
	UrgencyEmergency = "emergency"
	UrgencyHigh      = "high"
	UrgencyMedium    = "medium"
	UrgencyLow       = "low"
)

// Patient 患者（对应 patients 表）
type Patient struct {
	ID                    int64      `db:"id" json:"id"`
	PatientCode           string     `db:"patient_code" json:"patient_code"` // IRN-00001
	FirstName             string     `db:"first_name" json:"first_name"`
	LastName              string     `db:"last_name" json:"last_name"`
	DateOfBirth           *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender                *string    `db:"gender" json:"gender,omitempty"`
	Phone                 *string    `db:"phone" json:"phone,omitempty"`
	Email                 *string    `db:"email" json:"email,omitempty"`
	Address               *string    `db:"address" json:"address,omitempty"`
	MedicalRecordNumber   *string    `db:"medical_record_number" json:"medical_record_number,omitempty"`
	BloodType             *string    `db:"blood_type" json:"blood_type,omitempty"`
	Allergies             *string    `db:"allergies" json:"allergies,omitempty"`
	EmergencyContactName  *string    `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string    `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
	AdmissionDate         *time.Time `db:"admission_date" json:"admission_date,omitempty"`
	DischargeDate         *time.Time `db:"discharge_date" json:"discharge_date,omitempty"`
	RoomNumber            *string    `db:"room_number" json:"room_number,omitempty"`
	BedNumber             *string    `db:"bed_number" json:"bed_number,omitempty"`
	HospitalID            string     `db:"hospital_id" json:"hospital_id"`
	DepartmentID          *int64     `db:"department_id" json:"department_id,omitempty"`
	Urgency               *string    `db:"urgency" json:"urgency,omitempty"`
	IsActive              bool       `db:"is_active" json:"is_active"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName "first last"，去掉多余空格
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// FormatPatientCode 生成 IRN-%05d
func FormatPatientCode(n int) string {
	return fmt.Sprintf("IRN-%05d", n)
}

// ParsePatientCode 解析 IRN-%05d 的序号，格式不符返回 0
func ParsePatientCode(code string) int {
	var n int
	if _, err := fmt.Sscanf(code, "IRN-%d", &n); err != nil {
		return 0
	}
	return n
}

// PatientUpdate 部分更新
type PatientUpdate struct {
	FirstName             *string    `json:"first_name,omitempty"`
	LastName              *string    `json:"last_name,omitempty"`
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
	RoomNumber            *string    `json:"room_number,omitempty"`
	BedNumber             *string    `json:"bed_number,omitempty"`
	DepartmentID          *int64     `json:"department_id,omitempty"`
}

func (u PatientUpdate) Apply(p *Patient) {
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if u.DateOfBirth != nil {
		p.DateOfBirth = u.DateOfBirth
	}
	setStr := func(dst **string, src *string) {
		if src != nil {
			*dst = src
		}
	}
	setStr(&p.Gender, u.Gender)
	setStr(&p.Phone, u.Phone)
	setStr(&p.Email, u.Email)
	setStr(&p.Address, u.Address)
	setStr(&p.MedicalRecordNumber, u.MedicalRecordNumber)
	setStr(&p.BloodType, u.BloodType)
	setStr(&p.Allergies, u.Allergies)
	setStr(&p.EmergencyContactName, u.EmergencyContactName)
	setStr(&p.EmergencyContactPhone, u.EmergencyContactPhone)
	setStr(&p.RoomNumber, u.RoomNumber)
	setStr(&p.BedNumber, u.BedNumber)
	if u.DepartmentID != nil {
		p.DepartmentID = u.DepartmentID
	}
}
