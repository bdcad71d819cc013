package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
)

func (c *Client) CreateHospital(ctx context.Context, req models.CreateHospitalRequest) (*domain.Hospital, error) {
	var out domain.Hospital
	if err := c.call(ctx, http.MethodPost, "/hospitals/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetHospital(ctx context.Context, id string) (*domain.Hospital, error) {
	var out domain.Hospital
	if err := c.call(ctx, http.MethodGet, "/hospitals/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HospitalByAdmin 管理员所属医院
func (c *Client) HospitalByAdmin(ctx context.Context, adminUID string) (*domain.Hospital, error) {
	var out domain.Hospital
	if err := c.call(ctx, http.MethodGet, "/hospitals/admin/"+url.PathEscape(adminUID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateHospital(ctx context.Context, id string, upd domain.HospitalUpdate) (*domain.Hospital, error) {
	var out domain.Hospital
	if err := c.call(ctx, http.MethodPut, "/hospitals/"+url.PathEscape(id), upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) HospitalUsers(ctx context.Context, id string) ([]*domain.User, error) {
	var out []*domain.User
	if err := c.call(ctx, http.MethodGet, hospitalChild(id, "users"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) HospitalPatients(ctx context.Context, id string) ([]*domain.Patient, error) {
	var out []*domain.Patient
	if err := c.call(ctx, http.MethodGet, hospitalChild(id, "patients"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) HospitalDepartments(ctx context.Context, id string) ([]*domain.Department, error) {
	var out []*domain.Department
	if err := c.call(ctx, http.MethodGet, hospitalChild(id, "departments"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) HospitalAppointments(ctx context.Context, id string) ([]*domain.Appointment, error) {
	var out []*domain.Appointment
	if err := c.call(ctx, http.MethodGet, hospitalChild(id, "appointments"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportPatients 患者名册 xlsx
func (c *Client) ExportPatients(ctx context.Context, id string) ([]byte, error) {
	return c.download(ctx, hospitalChild(id, "export"))
}

func hospitalChild(id, child string) string {
	return fmt.Sprintf("/hospitals/%s/%s", url.PathEscape(id), child)
}

func (c *Client) CreateDepartment(ctx context.Context, req models.CreateDepartmentRequest) (*domain.Department, error) {
	var out domain.Department
	if err := c.call(ctx, http.MethodPost, "/departments/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDepartment(ctx context.Context, id int64) (*domain.Department, error) {
	var out domain.Department
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/departments/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DepartmentsByHospital(ctx context.Context, hospitalID string) ([]*domain.Department, error) {
	var out []*domain.Department
	if err := c.call(ctx, http.MethodGet, "/departments/hospital/"+url.PathEscape(hospitalID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateDepartment(ctx context.Context, id int64, upd domain.DepartmentUpdate) (*domain.Department, error) {
	var out domain.Department
	if err := c.call(ctx, http.MethodPut, fmt.Sprintf("/departments/%d", id), upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetDepartmentHead(ctx context.Context, id int64, headUID string) (*domain.Department, error) {
	var out domain.Department
	path := fmt.Sprintf("/departments/%d/head/%s", id, url.PathEscape(headUID))
	if err := c.call(ctx, http.MethodPut, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DepartmentUsers(ctx context.Context, id int64) ([]*domain.User, error) {
	var out []*domain.User
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/departments/%d/users", id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DepartmentPatients 仅在院患者
func (c *Client) DepartmentPatients(ctx context.Context, id int64) ([]*domain.Patient, error) {
	var out []*domain.Patient
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/departments/%d/patients", id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
