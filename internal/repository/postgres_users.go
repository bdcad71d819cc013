package repository

import (
	"context"
	"database/sql"
	"fmt"

	"icu-monitor/internal/domain"
)

// PostgresUsersRepository 用户 Repository 实现
type PostgresUsersRepository struct {
	db *sql.DB
}

func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

const userColumns = `
	id, uid, email, display_name, role, phone,
	COALESCE(hospital_id, '') AS hospital_id, department_id,
	is_active, COALESCE(password_hash, '') AS password_hash,
	created_at, updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.UID, &u.Email, &u.DisplayName, &u.Role, &u.Phone,
		&u.HospitalID, &u.DepartmentID,
		&u.IsActive, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUsersRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, wrapErr("user", err)
	}
	return u, nil
}

func (r *PostgresUsersRepository) GetUserByUID(ctx context.Context, uid string) (*domain.User, error) {
	return r.getOne(ctx, "uid = $1", uid)
}

func (r *PostgresUsersRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *PostgresUsersRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "lower(email) = lower($1)", email)
}

func (r *PostgresUsersRepository) list(ctx context.Context, where string, args ...any) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	out := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresUsersRepository) ListUsersByHospital(ctx context.Context, hospitalID string) ([]*domain.User, error) {
	return r.list(ctx, "hospital_id = $1", hospitalID)
}

func (r *PostgresUsersRepository) ListUsersByDepartment(ctx context.Context, departmentID int64) ([]*domain.User, error) {
	return r.list(ctx, "department_id = $1 AND is_active = TRUE", departmentID)
}

func (r *PostgresUsersRepository) CreateUser(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (uid, email, display_name, role, phone, hospital_id, department_id, is_active, password_hash)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		u.UID, u.Email, u.DisplayName, u.Role, u.Phone, u.HospitalID, u.DepartmentID, u.IsActive, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return wrapErr("create user", err)
}

func (r *PostgresUsersRepository) UpdateUser(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users SET
			email = $2, display_name = $3, role = $4, phone = $5,
			hospital_id = NULLIF($6, ''), department_id = $7, is_active = $8,
			updated_at = NOW()
		WHERE uid = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		u.UID, u.Email, u.DisplayName, u.Role, u.Phone, u.HospitalID, u.DepartmentID, u.IsActive,
	).Scan(&u.UpdatedAt)
	return wrapErr("update user", err)
}
