package repository

import (
	"context"
	"database/sql"
	"fmt"

	"icu-monitor/internal/domain"
)

// PostgresPatientsRepository 患者 Repository 实现
type PostgresPatientsRepository struct {
	db *sql.DB
}

func NewPostgresPatientsRepository(db *sql.DB) *PostgresPatientsRepository {
	return &PostgresPatientsRepository{db: db}
}

var _ PatientsRepository = (*PostgresPatientsRepository)(nil)

const patientColumns = `
	id, patient_code, first_name, last_name, date_of_birth, gender, phone, email, address,
	medical_record_number, blood_type, allergies, emergency_contact_name, emergency_contact_phone,
	admission_date, discharge_date, room_number, bed_number, hospital_id, department_id,
	urgency, is_active, created_at, updated_at`

func scanPatient(row rowScanner) (*domain.Patient, error) {
	var p domain.Patient
	err := row.Scan(
		&p.ID, &p.PatientCode, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender, &p.Phone, &p.Email, &p.Address,
		&p.MedicalRecordNumber, &p.BloodType, &p.Allergies, &p.EmergencyContactName, &p.EmergencyContactPhone,
		&p.AdmissionDate, &p.DischargeDate, &p.RoomNumber, &p.BedNumber, &p.HospitalID, &p.DepartmentID,
		&p.Urgency, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPatientsRepository) GetPatient(ctx context.Context, id int64) (*domain.Patient, error) {
	p, err := scanPatient(r.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("patient", err)
	}
	return p, nil
}

func (r *PostgresPatientsRepository) list(ctx context.Context, where, order string, arg any) ([]*domain.Patient, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE `+where+` ORDER BY `+order, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	out := []*domain.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresPatientsRepository) ListPatientsByHospital(ctx context.Context, hospitalID string) ([]*domain.Patient, error) {
	return r.list(ctx, "hospital_id = $1", "is_active DESC, patient_code DESC", hospitalID)
}

func (r *PostgresPatientsRepository) ListPatientsByDepartment(ctx context.Context, departmentID int64) ([]*domain.Patient, error) {
	return r.list(ctx, "department_id = $1 AND is_active = TRUE", "patient_code DESC", departmentID)
}

func (r *PostgresPatientsRepository) MaxPatientSeq(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(patient_code FROM 5) AS INTEGER)), 0)
		FROM patients
		WHERE patient_code ~ '^IRN-[0-9]+$'
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to get max patient code: %w", err)
	}
	return n, nil
}

func (r *PostgresPatientsRepository) CreatePatient(ctx context.Context, p *domain.Patient) error {
	query := `
		INSERT INTO patients (
			patient_code, first_name, last_name, date_of_birth, gender, phone, email, address,
			medical_record_number, blood_type, allergies, emergency_contact_name, emergency_contact_phone,
			admission_date, discharge_date, room_number, bed_number, hospital_id, department_id,
			urgency, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.PatientCode, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone, p.Email, p.Address,
		p.MedicalRecordNumber, p.BloodType, p.Allergies, p.EmergencyContactName, p.EmergencyContactPhone,
		p.AdmissionDate, p.DischargeDate, p.RoomNumber, p.BedNumber, p.HospitalID, p.DepartmentID,
		p.Urgency, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return wrapErr("create patient", err)
}

func (r *PostgresPatientsRepository) UpdatePatient(ctx context.Context, p *domain.Patient) error {
	query := `
		UPDATE patients SET
			first_name = $2, last_name = $3, date_of_birth = $4, gender = $5, phone = $6, email = $7,
			address = $8, medical_record_number = $9, blood_type = $10, allergies = $11,
			emergency_contact_name = $12, emergency_contact_phone = $13, admission_date = $14,
			discharge_date = $15, room_number = $16, bed_number = $17, department_id = $18,
			urgency = $19, is_active = $20, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone, p.Email,
		p.Address, p.MedicalRecordNumber, p.BloodType, p.Allergies,
		p.EmergencyContactName, p.EmergencyContactPhone, p.AdmissionDate,
		p.DischargeDate, p.RoomNumber, p.BedNumber, p.DepartmentID,
		p.Urgency, p.IsActive,
	).Scan(&p.UpdatedAt)
	return wrapErr("update patient", err)
}

func (r *PostgresPatientsRepository) DeletePatient(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete patient", err)
	}
	return checkAffected("delete patient", res)
}
