package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"icu-monitor/internal/domain"
)

// PostgresDevicesRepository 监护仪相关表实现
type PostgresDevicesRepository struct {
	db *sql.DB
}

func NewPostgresDevicesRepository(db *sql.DB) *PostgresDevicesRepository {
	return &PostgresDevicesRepository{db: db}
}

var _ DevicesRepository = (*PostgresDevicesRepository)(nil)

// ========== 字段映射 ==========

func (r *PostgresDevicesRepository) CreateMapping(ctx context.Context, m *domain.DeviceMapping) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	raw, err := json.Marshal(m.FieldMappings)
	if err != nil {
		return fmt.Errorf("marshal field_mappings: %w", err)
	}
	query := `
		INSERT INTO device_mappings (id, device_type, manufacturer, field_mappings, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err = r.db.QueryRowContext(ctx, query, m.ID, m.DeviceType, m.Manufacturer, raw, m.IsActive).Scan(&m.CreatedAt)
	return wrapErr("create device mapping", err)
}

func scanMapping(row rowScanner) (*domain.DeviceMapping, error) {
	var m domain.DeviceMapping
	var raw []byte
	if err := row.Scan(&m.ID, &m.DeviceType, &m.Manufacturer, &raw, &m.IsActive, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.FieldMappings = map[string]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &m.FieldMappings); err != nil {
			return nil, fmt.Errorf("unmarshal field_mappings: %w", err)
		}
	}
	return &m, nil
}

const mappingColumns = `id, device_type, COALESCE(manufacturer, ''), field_mappings, is_active, created_at`

func (r *PostgresDevicesRepository) GetMapping(ctx context.Context, id string) (*domain.DeviceMapping, error) {
	m, err := scanMapping(r.db.QueryRowContext(ctx, `SELECT `+mappingColumns+` FROM device_mappings WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("device mapping", err)
	}
	return m, nil
}

func (r *PostgresDevicesRepository) ListActiveMappings(ctx context.Context) ([]*domain.DeviceMapping, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+mappingColumns+` FROM device_mappings WHERE is_active = TRUE ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list device mappings: %w", err)
	}
	defer rows.Close()

	out := []*domain.DeviceMapping{}
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device mapping: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ========== 设备绑定 ==========

const assignmentColumns = `
	id, device_id, patient_id, COALESCE(mapping_id, ''), COALESCE(room, ''), COALESCE(bed, ''),
	assigned_by, COALESCE(assignment_reason, ''), custom_alarm_limits, COALESCE(notes, ''),
	is_active, created_at, deactivated_at, COALESCE(deactivation_reason, '')`

func scanAssignment(row rowScanner) (*domain.DeviceAssignment, error) {
	var a domain.DeviceAssignment
	var limits []byte
	err := row.Scan(
		&a.ID, &a.DeviceID, &a.PatientID, &a.MappingID, &a.Room, &a.Bed,
		&a.AssignedBy, &a.AssignmentReason, &limits, &a.Notes,
		&a.IsActive, &a.CreatedAt, &a.DeactivatedAt, &a.DeactivationReason,
	)
	if err != nil {
		return nil, err
	}
	if len(limits) > 0 {
		a.CustomAlarmLimits = json.RawMessage(limits)
	}
	return &a, nil
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func (r *PostgresDevicesRepository) CreateAssignment(ctx context.Context, a *domain.DeviceAssignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	query := `
		INSERT INTO device_assignments (
			id, device_id, patient_id, mapping_id, room, bed, assigned_by,
			assignment_reason, custom_alarm_limits, notes, is_active
		) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''), $9, NULLIF($10, ''), $11)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.DeviceID, a.PatientID, a.MappingID, a.Room, a.Bed, a.AssignedBy,
		a.AssignmentReason, nullJSON(a.CustomAlarmLimits), a.Notes, a.IsActive,
	).Scan(&a.CreatedAt)
	return wrapErr("create device assignment", err)
}

// AssignIfFree 在事务内按 device_id 取 advisory 锁，READ COMMITTED 下
// 并发的 NOT EXISTS 互相看不到对方未提交的行
func (r *PostgresDevicesRepository) AssignIfFree(ctx context.Context, a *domain.DeviceAssignment) (err error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin device assignment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, a.DeviceID); err != nil {
		return fmt.Errorf("lock device %s: %w", a.DeviceID, err)
	}
	query := `
		INSERT INTO device_assignments (
			id, device_id, patient_id, mapping_id, room, bed, assigned_by,
			assignment_reason, custom_alarm_limits, notes, is_active
		)
		SELECT $1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''), $9, NULLIF($10, ''), $11
		WHERE NOT EXISTS (
			SELECT 1 FROM device_assignments WHERE device_id = $2 AND is_active = TRUE
		)
		RETURNING created_at
	`
	err = tx.QueryRowContext(ctx, query,
		a.ID, a.DeviceID, a.PatientID, a.MappingID, a.Room, a.Bed, a.AssignedBy,
		a.AssignmentReason, nullJSON(a.CustomAlarmLimits), a.Notes, a.IsActive,
	).Scan(&a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrDeviceInUse
		return err
	}
	if err != nil {
		return wrapErr("create device assignment", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit device assignment: %w", err)
	}
	return nil
}

func (r *PostgresDevicesRepository) GetActiveAssignment(ctx context.Context, deviceID string) (*domain.DeviceAssignment, error) {
	a, err := scanAssignment(r.db.QueryRowContext(ctx, `
		SELECT `+assignmentColumns+` FROM device_assignments
		WHERE device_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`, deviceID))
	if err != nil {
		return nil, wrapErr("device assignment", err)
	}
	return a, nil
}

func (r *PostgresDevicesRepository) FindActiveAssignment(ctx context.Context, deviceID, patientID string) (*domain.DeviceAssignment, error) {
	a, err := scanAssignment(r.db.QueryRowContext(ctx, `
		SELECT `+assignmentColumns+` FROM device_assignments
		WHERE device_id = $1 AND patient_id = $2 AND is_active = TRUE
		LIMIT 1
	`, deviceID, patientID))
	if err != nil {
		return nil, wrapErr("device assignment", err)
	}
	return a, nil
}

func (r *PostgresDevicesRepository) ListActiveAssignments(ctx context.Context, limit int) ([]*domain.DeviceAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM device_assignments WHERE is_active = TRUE ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list device assignments: %w", err)
	}
	defer rows.Close()

	out := []*domain.DeviceAssignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresDevicesRepository) DeactivateAssignment(ctx context.Context, id, reason string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE device_assignments
		SET is_active = FALSE, deactivated_at = $2, deactivation_reason = $3
		WHERE id = $1 AND is_active = TRUE
	`, id, at, reason)
	if err != nil {
		return wrapErr("deactivate device assignment", err)
	}
	return checkAffected("deactivate device assignment", res)
}

// ========== 未绑定设备 ==========

func (r *PostgresDevicesRepository) RecordUnassigned(ctx context.Context, u *domain.UnassignedReading) error {
	query := `
		INSERT INTO unassigned_devices (device_id, device_type, raw_data, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id, discovered_at
	`
	err := r.db.QueryRowContext(ctx, query,
		u.DeviceID, u.DeviceType, []byte(u.RawData), u.Timestamp,
	).Scan(&u.ID, &u.DiscoveredAt)
	return wrapErr("record unassigned device", err)
}

func (r *PostgresDevicesRepository) ListLatestUnassigned(ctx context.Context) ([]*domain.UnassignedReading, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (device_id) id, device_id, device_type, raw_data, timestamp, discovered_at
		FROM unassigned_devices
		ORDER BY device_id, discovered_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned devices: %w", err)
	}
	defer rows.Close()

	out := []*domain.UnassignedReading{}
	for rows.Next() {
		var u domain.UnassignedReading
		var raw []byte
		if err := rows.Scan(&u.ID, &u.DeviceID, &u.DeviceType, &raw, &u.Timestamp, &u.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("failed to scan unassigned device: %w", err)
		}
		u.RawData = json.RawMessage(raw)
		out = append(out, &u)
	}
	return out, rows.Err()
}
