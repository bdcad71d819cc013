package repository

import (
	"context"
	"database/sql"
	"fmt"

	"icu-monitor/internal/domain"
)

// PostgresHospitalsRepository 医院 + 科室
type PostgresHospitalsRepository struct {
	db *sql.DB
}

func NewPostgresHospitalsRepository(db *sql.DB) *PostgresHospitalsRepository {
	return &PostgresHospitalsRepository{db: db}
}

var (
	_ HospitalsRepository   = (*PostgresHospitalsRepository)(nil)
	_ DepartmentsRepository = (*PostgresHospitalsRepository)(nil)
)

const hospitalColumns = `id, name, address, phone, email, admin_uid, created_at, updated_at`

func scanHospital(row rowScanner) (*domain.Hospital, error) {
	var h domain.Hospital
	if err := row.Scan(&h.ID, &h.Name, &h.Address, &h.Phone, &h.Email, &h.AdminUID, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *PostgresHospitalsRepository) GetHospital(ctx context.Context, id string) (*domain.Hospital, error) {
	h, err := scanHospital(r.db.QueryRowContext(ctx,
		`SELECT `+hospitalColumns+` FROM hospitals WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("hospital", err)
	}
	return h, nil
}

func (r *PostgresHospitalsRepository) GetHospitalByAdmin(ctx context.Context, adminUID string) (*domain.Hospital, error) {
	h, err := scanHospital(r.db.QueryRowContext(ctx,
		`SELECT `+hospitalColumns+` FROM hospitals WHERE admin_uid = $1`, adminUID))
	if err != nil {
		return nil, wrapErr("hospital by admin", err)
	}
	return h, nil
}

func (r *PostgresHospitalsRepository) CreateHospital(ctx context.Context, h *domain.Hospital) error {
	query := `
		INSERT INTO hospitals (id, name, address, phone, email, admin_uid)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, h.ID, h.Name, h.Address, h.Phone, h.Email, h.AdminUID).
		Scan(&h.CreatedAt, &h.UpdatedAt)
	return wrapErr("create hospital", err)
}

func (r *PostgresHospitalsRepository) UpdateHospital(ctx context.Context, h *domain.Hospital) error {
	query := `
		UPDATE hospitals SET name = $2, address = $3, phone = $4, email = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, h.ID, h.Name, h.Address, h.Phone, h.Email).Scan(&h.UpdatedAt)
	return wrapErr("update hospital", err)
}

// ---- departments ----

const departmentColumns = `id, name, description, head_uid, hospital_id, created_at, updated_at`

func scanDepartment(row rowScanner) (*domain.Department, error) {
	var d domain.Department
	if err := row.Scan(&d.ID, &d.Name, &d.Description, &d.HeadUID, &d.HospitalID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PostgresHospitalsRepository) GetDepartment(ctx context.Context, id int64) (*domain.Department, error) {
	d, err := scanDepartment(r.db.QueryRowContext(ctx,
		`SELECT `+departmentColumns+` FROM departments WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("department", err)
	}
	return d, nil
}

func (r *PostgresHospitalsRepository) ListDepartmentsByHospital(ctx context.Context, hospitalID string) ([]*domain.Department, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+departmentColumns+` FROM departments WHERE hospital_id = $1 ORDER BY id`, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	out := []*domain.Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PostgresHospitalsRepository) CreateDepartment(ctx context.Context, d *domain.Department) error {
	query := `
		INSERT INTO departments (name, description, head_uid, hospital_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, d.Name, d.Description, d.HeadUID, d.HospitalID).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return wrapErr("create department", err)
}

func (r *PostgresHospitalsRepository) UpdateDepartment(ctx context.Context, d *domain.Department) error {
	query := `
		UPDATE departments SET name = $2, description = $3, head_uid = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, d.ID, d.Name, d.Description, d.HeadUID).Scan(&d.UpdatedAt)
	return wrapErr("update department", err)
}
