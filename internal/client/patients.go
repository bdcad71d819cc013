package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
)

func (c *Client) CreatePatient(ctx context.Context, req models.CreatePatientRequest) (*domain.Patient, error) {
	var out domain.Patient
	if err := c.call(ctx, http.MethodPost, "/patients/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPatient(ctx context.Context, id int64) (*domain.Patient, error) {
	return c.patientCall(ctx, http.MethodGet, fmt.Sprintf("/patients/%d", id), nil)
}

// PatientsByHospital 在院优先，编号倒序
func (c *Client) PatientsByHospital(ctx context.Context, hospitalID string) ([]*domain.Patient, error) {
	var out []*domain.Patient
	if err := c.call(ctx, http.MethodGet, "/patients/hospital/"+url.PathEscape(hospitalID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PatientsByDepartment(ctx context.Context, departmentID int64) ([]*domain.Patient, error) {
	var out []*domain.Patient
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/patients/department/%d", departmentID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdatePatient(ctx context.Context, id int64, upd domain.PatientUpdate) (*domain.Patient, error) {
	return c.patientCall(ctx, http.MethodPut, fmt.Sprintf("/patients/%d", id), upd)
}

// Discharge 出院，is_active=false
func (c *Client) Discharge(ctx context.Context, id int64) (*domain.Patient, error) {
	return c.patientCall(ctx, http.MethodPut, fmt.Sprintf("/patients/%d/discharge", id), nil)
}

// Admit 重新入院
func (c *Client) Admit(ctx context.Context, id int64) (*domain.Patient, error) {
	return c.patientCall(ctx, http.MethodPut, fmt.Sprintf("/patients/%d/admit", id), nil)
}

func (c *Client) MovePatientDepartment(ctx context.Context, id, departmentID int64) (*domain.Patient, error) {
	return c.patientCall(ctx, http.MethodPut, fmt.Sprintf("/patients/%d/department/%d", id, departmentID), nil)
}

func (c *Client) AssignRoom(ctx context.Context, id int64, room, bed string) (*domain.Patient, error) {
	body := map[string]string{"room_number": room, "bed_number": bed}
	return c.patientCall(ctx, http.MethodPut, fmt.Sprintf("/patients/%d/room", id), body)
}

// DeletePatient 物理删除
func (c *Client) DeletePatient(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/patients/%d", id), nil, nil)
}

func (c *Client) patientCall(ctx context.Context, method, path string, body any) (*domain.Patient, error) {
	var out domain.Patient
	if err := c.call(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateAppointment(ctx context.Context, req models.CreateAppointmentRequest) (*domain.Appointment, error) {
	return c.appointmentCall(ctx, http.MethodPost, "/appointments/", req)
}

func (c *Client) GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error) {
	return c.appointmentCall(ctx, http.MethodGet, fmt.Sprintf("/appointments/%d", id), nil)
}

// AppointmentsByHospital start/end 可为 nil
func (c *Client) AppointmentsByHospital(ctx context.Context, hospitalID string, start, end *time.Time) ([]*domain.Appointment, error) {
	query := map[string]string{}
	if start != nil {
		query["start_date"] = start.UTC().Format(time.RFC3339)
	}
	if end != nil {
		query["end_date"] = end.UTC().Format(time.RFC3339)
	}
	var out []*domain.Appointment
	if err := c.callQuery(ctx, "/appointments/hospital/"+url.PathEscape(hospitalID), query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AppointmentsByPatient(ctx context.Context, patientID int64) ([]*domain.Appointment, error) {
	var out []*domain.Appointment
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/appointments/patient/%d", patientID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AppointmentsByUser(ctx context.Context, uid string) ([]*domain.Appointment, error) {
	var out []*domain.Appointment
	if err := c.call(ctx, http.MethodGet, "/appointments/user/"+url.PathEscape(uid), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateAppointment(ctx context.Context, id int64, upd domain.AppointmentUpdate) (*domain.Appointment, error) {
	return c.appointmentCall(ctx, http.MethodPut, fmt.Sprintf("/appointments/%d", id), upd)
}

func (c *Client) CancelAppointment(ctx context.Context, id int64) (*domain.Appointment, error) {
	return c.appointmentCall(ctx, http.MethodPut, fmt.Sprintf("/appointments/%d/cancel", id), nil)
}

func (c *Client) CompleteAppointment(ctx context.Context, id int64) (*domain.Appointment, error) {
	return c.appointmentCall(ctx, http.MethodPut, fmt.Sprintf("/appointments/%d/complete", id), nil)
}

// SetAppointmentStatus 服务端校验状态值
func (c *Client) SetAppointmentStatus(ctx context.Context, id int64, status string) (*domain.Appointment, error) {
	body := map[string]string{"status": status}
	return c.appointmentCall(ctx, http.MethodPut, fmt.Sprintf("/appointments/%d/status", id), body)
}

func (c *Client) DeleteAppointment(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/appointments/%d", id), nil, nil)
}

func (c *Client) appointmentCall(ctx context.Context, method, path string, body any) (*domain.Appointment, error) {
	var out domain.Appointment
	if err := c.call(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
