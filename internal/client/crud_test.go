package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
)

func TestDepartmentsAndStaff(t *testing.T) {
	srv := newTestServer(t)
	c, hid := adminClient(t, srv)
	ctx := context.Background()

	dept, err := c.CreateDepartment(ctx, models.CreateDepartmentRequest{Name: "Cardiology ICU", HospitalID: hid})
	require.NoError(t, err)

	depts, err := c.HospitalDepartments(ctx, hid)
	require.NoError(t, err)
	require.Len(t, depts, 1)
	assert.Equal(t, "Cardiology ICU", depts[0].Name)

	staff, err := c.RegisterStaff(ctx, models.RegisterStaffRequest{
		Email: "nurse@general.org", DisplayName: "Nurse Joy", Role: domain.RoleNurse,
	})
	require.NoError(t, err)
	assert.Equal(t, "Nurse registered successfully", staff.Message)

	u, err := c.AssignUserDepartment(ctx, staff.UID, dept.ID)
	require.NoError(t, err)
	require.NotNil(t, u.DepartmentID)
	assert.Equal(t, dept.ID, *u.DepartmentID)

	inDept, err := c.DepartmentUsers(ctx, dept.ID)
	require.NoError(t, err)
	require.Len(t, inDept, 1)
	assert.Equal(t, staff.UID, inDept[0].UID)

	nurses, err := c.UsersByRole(ctx, hid, domain.RoleNurse)
	require.NoError(t, err)
	require.Len(t, nurses, 1)
	assert.Equal(t, "Nurse Joy", nurses[0].DisplayName)

	all, err := c.HospitalUsers(ctx, hid)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = c.AssignUserDepartment(ctx, staff.UID, 999)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestPatientDepartmentMove(t *testing.T) {
	srv := newTestServer(t)
	c, hid := adminClient(t, srv)
	ctx := context.Background()

	dept, err := c.CreateDepartment(ctx, models.CreateDepartmentRequest{Name: "Neuro ICU", HospitalID: hid})
	require.NoError(t, err)
	p, err := c.CreatePatient(ctx, models.CreatePatientRequest{FirstName: "Ada", LastName: "King"})
	require.NoError(t, err)

	p, err = c.MovePatientDepartment(ctx, p.ID, dept.ID)
	require.NoError(t, err)
	require.NotNil(t, p.DepartmentID)
	assert.Equal(t, dept.ID, *p.DepartmentID)

	inDept, err := c.PatientsByDepartment(ctx, dept.ID)
	require.NoError(t, err)
	assert.Len(t, inDept, 1)

	all, err := c.HospitalPatients(ctx, hid)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// 出院后不再出现在科室在院列表
	_, err = c.Discharge(ctx, p.ID)
	require.NoError(t, err)
	inDept, err = c.PatientsByDepartment(ctx, dept.ID)
	require.NoError(t, err)
	assert.Empty(t, inDept)
}

func TestAppointmentLifecycle(t *testing.T) {
	srv := newTestServer(t)
	c, hid := adminClient(t, srv)
	ctx := context.Background()

	p, err := c.CreatePatient(ctx, models.CreatePatientRequest{FirstName: "John", LastName: "Doe"})
	require.NoError(t, err)

	when := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	a, err := c.CreateAppointment(ctx, models.CreateAppointmentRequest{
		PatientID: p.ID, Title: "Echo", AppointmentDate: when,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentScheduled, a.Status)
	assert.Equal(t, domain.DefaultAppointmentMinutes, a.DurationMinutes)
	assert.Equal(t, hid, a.HospitalID)

	byPatient, err := c.AppointmentsByPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, byPatient, 1)

	byUser, err := c.AppointmentsByUser(ctx, a.UserID)
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	a, err = c.CancelAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentCancelled, a.Status)

	a, err = c.CompleteAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentCompleted, a.Status)

	_, err = c.SetAppointmentStatus(ctx, a.ID, "postponed")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestDeviceMappingsAndAssignments(t *testing.T) {
	srv := newTestServer(t)
	c, _ := adminClient(t, srv)
	ctx := context.Background()

	created, err := c.CreateDeviceMapping(ctx, models.CreateMappingRequest{
		DeviceType:    "philips_intellivue",
		Manufacturer:  "Philips",
		FieldMappings: map[string]string{"HR": "hr_mean"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.MappingID)

	mappings, err := c.DeviceMappings(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "hr_mean", mappings[0].FieldMappings["HR"])

	req := models.CreateAssignmentRequest{DeviceID: "PHILIPS_ICU_101_BED_1", PatientID: "1", MappingID: created.MappingID}
	assigned, err := c.CreateDeviceAssignment(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, assigned.AssignmentID)

	_, err = c.CreateDeviceAssignment(ctx, req)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Device already assigned to this patient", apiErr.Message)
}
