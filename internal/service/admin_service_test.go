package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
	"icu-monitor/internal/repository"
)

func TestAdminService_InventoryCounts(t *testing.T) {
	f := newFixture(t, 0.1)
	ctx := context.Background()

	inv := f.adminSvc.Inventory(ctx)
	assert.Equal(t, 25, inv.TotalMonitors)
	assert.Equal(t, 0, inv.ActiveAssigned)
	assert.Equal(t, 25, inv.FreeAvailable)
	assert.Equal(t, 1, inv.Maintenance)
	assert.Equal(t, 0, inv.Critical)

	_, err := f.adminSvc.AssignAuto(ctx, models.AutoAssignRequest{PatientID: "1"})
	require.NoError(t, err)
	inv = f.adminSvc.Inventory(ctx)
	assert.Equal(t, 1, inv.ActiveAssigned)
	assert.Equal(t, 24, inv.FreeAvailable)
}

func TestAdminService_AssignAutoSkipsAssignedAndHonorsRoom(t *testing.T) {
	f := newFixture(t, 0.1)
	ctx := context.Background()

	resp, err := f.adminSvc.AssignAuto(ctx, models.AutoAssignRequest{PatientID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "PHILIPS_ICU_101_BED_1", resp.AssignedMonitor)
	assert.Equal(t, "Monitor PHILIPS_ICU_101_BED_1 assigned to patient", resp.Message)

	resp, err = f.adminSvc.AssignAuto(ctx, models.AutoAssignRequest{PatientID: "2"})
	require.NoError(t, err)
	assert.Equal(t, "PHILIPS_ICU_101_BED_2", resp.AssignedMonitor)

	resp, err = f.adminSvc.AssignAuto(ctx, models.AutoAssignRequest{PatientID: "3", PreferredRoom: "ICU-103"})
	require.NoError(t, err)
	assert.Equal(t, "MEDTRONIC_ICU_103_BED_1", resp.AssignedMonitor)
	assert.Equal(t, "ICU-103", resp.Room)
	assert.Equal(t, "Bed 1", resp.Bed)

	a, err := f.devices.GetActiveAssignment(ctx, "MEDTRONIC_ICU_103_BED_1")
	require.NoError(t, err)
	assert.Equal(t, AssignedByAuto, a.AssignedBy)
	assert.Equal(t, "Auto-assigned via admin panel", a.AssignmentReason)

	_, err = f.adminSvc.AssignAuto(ctx, models.AutoAssignRequest{PatientID: "4", PreferredRoom: "ICU-101"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.Equal(t, "No available monitors found", err.Error())

	un, err := f.adminSvc.UnassignedMonitors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, un.Count)
	assert.Equal(t, "PHILIPS_ICU_102_BED_1", un.AvailableMonitors[0].DeviceID)
}

// slowListDevices 拉长"查空闲"与"写入"之间的窗口
type slowListDevices struct {
	*repository.MemoryDevicesRepository
}

func (r slowListDevices) ListActiveAssignments(ctx context.Context, limit int) ([]*domain.DeviceAssignment, error) {
	list, err := r.MemoryDevicesRepository.ListActiveAssignments(ctx, limit)
	time.Sleep(5 * time.Millisecond)
	return list, err
}

func TestAdminService_ConcurrentAssignAutoPicksDistinctMonitors(t *testing.T) {
	f := newFixture(t, 0.1)
	ctx := context.Background()
	admin := NewAdminService(slowListDevices{f.devices}, f.patientSvc, f.patients, f.hospitals, 25, zap.NewNop())

	const n = 4
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = admin.AssignAuto(ctx, models.AutoAssignRequest{PatientID: strconv.Itoa(i + 1)})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	active, err := f.devices.ListActiveAssignments(ctx, 0)
	require.NoError(t, err)
	require.Len(t, active, n)
	perDevice := map[string]int{}
	for _, a := range active {
		perDevice[a.DeviceID]++
	}
	assert.Len(t, perDevice, n)
	for dev, c := range perDevice {
		assert.Equal(t, 1, c, dev)
	}

	un, err := admin.UnassignedMonitors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, un.Count)
}

func TestAdminService_ConcurrentAssignSpecificOneWins(t *testing.T) {
	f := newFixture(t, 0.1)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.adminSvc.AssignSpecific(ctx, models.ManualAssignRequest{
				PatientID: strconv.Itoa(i + 1), DeviceID: "DRAGER_1",
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, repository.ErrInvalidInput))
		assert.Equal(t, "Monitor is already assigned to another patient", err.Error())
	}
	assert.Equal(t, 1, ok)
}

func TestAdminService_AssignSpecific(t *testing.T) {
	f := newFixture(t, 0.1)
	ctx := context.Background()

	resp, err := f.adminSvc.AssignSpecific(ctx, models.ManualAssignRequest{
		PatientID:         "5",
		DeviceID:          "DRAGER_1",
		CustomAlarmLimits: []byte(`{"hr_max":120}`),
		Notes:             "post-op",
	})
	require.NoError(t, err)
	assert.Equal(t, "Monitor DRAGER_1 manually assigned to patient", resp.Message)

	a, err := f.devices.GetActiveAssignment(ctx, "DRAGER_1")
	require.NoError(t, err)
	assert.Equal(t, AssignedByManual, a.AssignedBy)
	assert.Equal(t, "post-op", a.AssignmentReason)
	assert.JSONEq(t, `{"hr_max":120}`, string(a.CustomAlarmLimits))

	_, err = f.adminSvc.AssignSpecific(ctx, models.ManualAssignRequest{PatientID: "6", DeviceID: "DRAGER_1"})
	require.Error(t, err)
	assert.Equal(t, "Monitor is already assigned to another patient", err.Error())
}

func TestAdminService_ReassignDeactivatesOld(t *testing.T) {
	f := newFixture(t, 0.1)
	ctx := context.Background()
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f.adminSvc.(*adminService).now = func() time.Time { return fixed }

	_, err := f.adminSvc.AssignSpecific(ctx, models.ManualAssignRequest{PatientID: "5", DeviceID: "M1"})
	require.NoError(t, err)
	old, err := f.devices.GetActiveAssignment(ctx, "M1")
	require.NoError(t, err)

	resp, err := f.adminSvc.Reassign(ctx, models.ReassignRequest{
		OldDeviceID: "M1", NewPatientID: "9", Reason: "transfer", Notes: "bed swap",
	})
	require.NoError(t, err)
	assert.Equal(t, "5", resp.OldPatientID)
	assert.Equal(t, "9", resp.NewPatientID)
	assert.Equal(t, "Monitor reassigned successfully", resp.Message)

	current, err := f.devices.GetActiveAssignment(ctx, "M1")
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, current.ID)
	assert.Equal(t, "9", current.PatientID)
	assert.Equal(t, AssignedByReassignment, current.AssignedBy)
	assert.Equal(t, "Reassigned from patient 5 - transfer", current.AssignmentReason)
	assert.Equal(t, "bed swap", current.Notes)

	_, err = f.devices.FindActiveAssignment(ctx, "M1", "5")
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	_, err = f.adminSvc.Reassign(ctx, models.ReassignRequest{OldDeviceID: "NOPE", NewPatientID: "1"})
	require.Error(t, err)
	assert.Equal(t, "Monitor not currently assigned", err.Error())
}

func TestAdminService_MonitorStatus(t *testing.T) {
	f := newFixture(t, 0.1)
	ctx := context.Background()
	pid := f.admitPatient(t, "Ann", "Lee")

	st := f.adminSvc.MonitorStatus(ctx, "PHILIPS_ICU_101_BED_1")
	assert.Equal(t, "available", st.Status)
	assert.Equal(t, "--", st.PatientName)
	assert.Equal(t, "Unassigned", st.Location)

	_, err := f.adminSvc.AssignAuto(ctx, models.AutoAssignRequest{PatientID: strconv.FormatInt(pid, 10)})
	require.NoError(t, err)
	st = f.adminSvc.MonitorStatus(ctx, "PHILIPS_ICU_101_BED_1")
	assert.Equal(t, "assigned", st.Status)
	assert.Equal(t, "Ann Lee", st.PatientName)
	assert.Equal(t, "Room ICU-101", st.Location)
}

func TestAdminService_QuickAdmit(t *testing.T) {
	f := newFixture(t, 0.1)
	ctx := context.Background()
	f.hospSvc.(*hospitalService).newID = func() string { return "HOSP001" }
	_, err := f.hospSvc.CreateHospital(ctx, models.CreateHospitalRequest{Name: "General", AdminUID: "usr_admin"})
	require.NoError(t, err)
	dept, err := f.hospSvc.CreateDepartment(ctx, models.CreateDepartmentRequest{Name: "Cardiology ICU", HospitalID: "HOSP001"})
	require.NoError(t, err)

	resp, err := f.adminSvc.QuickAdmit(ctx, models.QuickAdmitRequest{FirstName: "Sam", LastName: "Hart", HospitalID: "HOSP001"})
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Patient Sam Hart admitted successfully", resp.Message)
	assert.Equal(t, "assign_monitor", resp.NextStep)

	id, err := strconv.ParseInt(resp.PatientID, 10, 64)
	require.NoError(t, err)
	p, err := f.patientSvc.GetPatient(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.UrgencyMedium, *p.Urgency)
	require.NotNil(t, p.DepartmentID)
	assert.Equal(t, dept.ID, *p.DepartmentID)

	_, err = f.adminSvc.QuickAdmit(ctx, models.QuickAdmitRequest{FirstName: "A", LastName: "B", HospitalID: "HOSP001", Urgency: "whenever"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrInvalidInput))
}

func TestAdminService_Overview(t *testing.T) {
	f := newFixture(t, 0.1)
	ctx := context.Background()
	pid := f.admitPatient(t, "Ann", "Lee")

	_, err := f.adminSvc.AssignAuto(ctx, models.AutoAssignRequest{PatientID: strconv.FormatInt(pid, 10)})
	require.NoError(t, err)
	_, err = f.adminSvc.AssignSpecific(ctx, models.ManualAssignRequest{PatientID: "ghost", DeviceID: "X1"})
	require.NoError(t, err)

	ov, err := f.adminSvc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, "operational", ov.SystemStatus)
	assert.Equal(t, 2, ov.InventorySummary.ActiveAssigned)
	require.Len(t, ov.RecentAssignments, 2)

	names := map[string]string{}
	for _, r := range ov.RecentAssignments {
		names[r.DeviceID] = r.PatientName
	}
	assert.Equal(t, "Ann Lee", names["PHILIPS_ICU_101_BED_1"])
	assert.Equal(t, "Unknown", names["X1"])
}
