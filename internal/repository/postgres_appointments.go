package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"icu-monitor/internal/domain"
)

// PostgresAppointmentsRepository 预约 Repository 实现
type PostgresAppointmentsRepository struct {
	db *sql.DB
}

func NewPostgresAppointmentsRepository(db *sql.DB) *PostgresAppointmentsRepository {
	return &PostgresAppointmentsRepository{db: db}
}

var _ AppointmentsRepository = (*PostgresAppointmentsRepository)(nil)

const appointmentColumns = `
	id, patient_id, user_id, title, description, appointment_date, duration_minutes,
	status, room, notes, hospital_id, created_at, updated_at`

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.UserID, &a.Title, &a.Description, &a.AppointmentDate, &a.DurationMinutes,
		&a.Status, &a.Room, &a.Notes, &a.HospitalID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresAppointmentsRepository) GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error) {
	a, err := scanAppointment(r.db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("appointment", err)
	}
	return a, nil
}

func (r *PostgresAppointmentsRepository) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]*domain.Appointment, error) {
	where := []string{}
	args := []any{}
	argIdx := 1

	if filter.HospitalID != "" {
		where = append(where, fmt.Sprintf("hospital_id = $%d", argIdx))
		args = append(args, filter.HospitalID)
		argIdx++
	}
	if filter.PatientID != nil {
		where = append(where, fmt.Sprintf("patient_id = $%d", argIdx))
		args = append(args, *filter.PatientID)
		argIdx++
	}
	if filter.UserID != "" {
		where = append(where, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, filter.UserID)
		argIdx++
	}
	if filter.Start != nil {
		where = append(where, fmt.Sprintf("appointment_date >= $%d", argIdx))
		args = append(args, *filter.Start)
		argIdx++
	}
	if filter.End != nil {
		where = append(where, fmt.Sprintf("appointment_date <= $%d", argIdx))
		args = append(args, *filter.End)
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments `+whereClause+` ORDER BY appointment_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	out := []*domain.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresAppointmentsRepository) CreateAppointment(ctx context.Context, a *domain.Appointment) error {
	query := `
		INSERT INTO appointments (
			patient_id, user_id, title, description, appointment_date, duration_minutes,
			status, room, notes, hospital_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.PatientID, a.UserID, a.Title, a.Description, a.AppointmentDate, a.DurationMinutes,
		a.Status, a.Room, a.Notes, a.HospitalID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return wrapErr("create appointment", err)
}

func (r *PostgresAppointmentsRepository) UpdateAppointment(ctx context.Context, a *domain.Appointment) error {
	query := `
		UPDATE appointments SET
			title = $2, description = $3, appointment_date = $4, duration_minutes = $5,
			status = $6, room = $7, notes = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.Title, a.Description, a.AppointmentDate, a.DurationMinutes, a.Status, a.Room, a.Notes,
	).Scan(&a.UpdatedAt)
	return wrapErr("update appointment", err)
}

func (r *PostgresAppointmentsRepository) DeleteAppointment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete appointment", err)
	}
	return checkAffected("delete appointment", res)
}
