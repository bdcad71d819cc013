package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httpapi "icu-monitor/internal/http"
	"icu-monitor/internal/models"
	"icu-monitor/internal/repository"
	"icu-monitor/internal/service"
	"icu-monitor/internal/store"
	"icu-monitor/internal/vitals"
)

// newTestServer 基于内存仓储启动完整 API
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	users := repository.NewMemoryUsersRepository()
	hospitals := repository.NewMemoryHospitalsRepository()
	patients := repository.NewMemoryPatientsRepository()
	devices := repository.NewMemoryDevicesRepository()
	kv := store.NewMemoryKV()

	hospSvc := service.NewHospitalService(hospitals, hospitals, logger)
	patientSvc := service.NewPatientService(patients, logger)
	tokens := service.NewTokenService("client-test", 30*time.Minute)
	evaluator := vitals.NewEvaluator(vitals.NewLogisticScorer(), vitals.RiskDefault)
	hub := httpapi.NewWSHub(nil, logger)
	t.Cleanup(hub.Close)

	srv := httptest.NewServer(httpapi.NewAPI(httpapi.APIDeps{
		Auth:         service.NewAuthService(users, hospSvc, tokens, store.NewTokenRevoker(kv), logger),
		Users:        service.NewUserService(users, hospitals, logger),
		Hospitals:    hospSvc,
		Patients:     patientSvc,
		Appointments: service.NewAppointmentService(patients, patients, logger),
		Admin:        service.NewAdminService(devices, patientSvc, patients, hospitals, 25, logger),
		Monitors:     service.NewMonitorService(devices, patients, store.NewVitalsStore(kv), evaluator, nil, logger),
		Hub:          hub,
		Logger:       logger,
	}))
	t.Cleanup(srv.Close)
	return srv
}

// adminClient 注册医院并以管理员登录
func adminClient(t *testing.T, srv *httptest.Server) (*Client, string) {
	t.Helper()
	ctx := context.Background()
	c := New(srv.URL, zap.NewNop())
	resp, err := c.RegisterHospital(ctx, models.RegisterHospitalRequest{
		HospitalName:     "General",
		AdminEmail:       "admin@general.org",
		AdminDisplayName: "Admin",
	})
	require.NoError(t, err)
	_, err = c.Login(ctx, "admin@general.org", service.DefaultPassword)
	require.NoError(t, err)
	return c, resp.HospitalID
}

func TestLoginMeLogout(t *testing.T) {
	srv := newTestServer(t)
	c, hid := adminClient(t, srv)
	ctx := context.Background()

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", me.Role)
	assert.Equal(t, hid, me.HospitalID)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Token())

	_, err = c.Me(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := newTestServer(t)
	adminClient(t, srv)

	c := New(srv.URL, zap.NewNop())
	_, err := c.Login(context.Background(), "admin@general.org", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, -1, apiErr.Code)
	assert.Equal(t, "Incorrect email or password", apiErr.Message)
	assert.Empty(t, c.Token())
}

func TestPatientLifecycle(t *testing.T) {
	srv := newTestServer(t)
	c, hid := adminClient(t, srv)
	ctx := context.Background()

	p, err := c.CreatePatient(ctx, models.CreatePatientRequest{FirstName: "John", LastName: "Doe"})
	require.NoError(t, err)
	assert.Equal(t, "IRN-00001", p.PatientCode)

	p, err = c.Discharge(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, p.IsActive)

	p, err = c.Admit(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, p.IsActive)

	p, err = c.AssignRoom(ctx, p.ID, "ICU-101", "1")
	require.NoError(t, err)
	require.NotNil(t, p.RoomNumber)
	assert.Equal(t, "ICU-101", *p.RoomNumber)

	list, err := c.PatientsByHospital(ctx, hid)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, c.DeletePatient(ctx, p.ID))
	_, err = c.GetPatient(ctx, p.ID)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestExportPatients(t *testing.T) {
	srv := newTestServer(t)
	c, hid := adminClient(t, srv)

	data, err := c.ExportPatients(context.Background(), hid)
	require.NoError(t, err)
	// xlsx 为 zip 格式
	assert.Equal(t, "PK", string(data[:2]))
}

func TestLoadDashboard_PartialFailure(t *testing.T) {
	srv := newTestServer(t)
	admin, hid := adminClient(t, srv)
	ctx := context.Background()

	_, err := admin.RegisterStaff(ctx, models.RegisterStaffRequest{
		Email:       "doc@general.org",
		DisplayName: "Doc",
		Role:        "doctor",
	})
	require.NoError(t, err)

	full, err := admin.LoadDashboard(ctx, hid)
	require.NoError(t, err)
	require.NotNil(t, full.Inventory)
	assert.Equal(t, 25, full.Inventory.TotalMonitors)
	assert.Len(t, full.Staff, 1)

	doctor := New(srv.URL, zap.NewNop())
	_, err = doctor.Login(ctx, "doc@general.org", service.DefaultPassword)
	require.NoError(t, err)

	d, err := doctor.LoadDashboard(ctx, hid)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, err.Error(), "inventory")
	assert.Nil(t, d.Inventory)
	assert.Len(t, d.Staff, 1)
}

func TestTestIngest(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, zap.NewNop())

	res, err := c.TestIngest(context.Background(), models.MonitorPayload{
		DeviceID: "philips_bed_01",
		Data:     map[string]interface{}{"HR": 72, "SpO2": 98},
	})
	require.NoError(t, err)
	assert.Equal(t, models.IngestTestSuccess, res.Status)

	devices, err := c.SupportedDevices(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, 4)
}

func TestEnvelopeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/me":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"code":-1,"type":"error","message":"nope","result":null}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()
	c := New(srv.URL, zap.NewNop())

	_, err := c.Me(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.Status)
	assert.Equal(t, -1, apiErr.Code)
	assert.Equal(t, "nope", apiErr.Message)

	_, err = c.MonitorInventory(context.Background())
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}
