package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"icu-monitor/internal/models"
	"icu-monitor/internal/prediction"
	"icu-monitor/internal/repository"
	"icu-monitor/internal/service"
	"icu-monitor/internal/store"
	"icu-monitor/internal/vitals"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testEnv struct {
	handler  http.Handler
	patients *repository.MemoryPatientsRepository
	devices  *repository.MemoryDevicesRepository
	hub      *WSHub
	disease  *prediction.DiseasePredictor
	wound    *prediction.WoundPredictor
}

func newTestEnv(t *testing.T, bypass bool) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	users := repository.NewMemoryUsersRepository()
	hospitals := repository.NewMemoryHospitalsRepository()
	patients := repository.NewMemoryPatientsRepository()
	devices := repository.NewMemoryDevicesRepository()
	kv := store.NewMemoryKV()

	userSvc := service.NewUserService(users, hospitals, logger)
	hospSvc := service.NewHospitalService(hospitals, hospitals, logger)
	patientSvc := service.NewPatientService(patients, logger)
	apptSvc := service.NewAppointmentService(patients, patients, logger)
	tokens := service.NewTokenService(testSecret, 30*time.Minute)
	authSvc := service.NewAuthService(users, hospSvc, tokens, store.NewTokenRevoker(kv), logger)
	evaluator := vitals.NewEvaluator(vitals.NewLogisticScorer(), vitals.RiskDefault)
	monitorSvc := service.NewMonitorService(devices, patients, store.NewVitalsStore(kv), evaluator, nil, logger)
	adminSvc := service.NewAdminService(devices, patientSvc, patients, hospitals, 25, logger)

	hub := NewWSHub(nil, logger)
	t.Cleanup(hub.Close)
	// 模型文件不存在，需要时由测试注入
	dir := t.TempDir()
	disease := prediction.NewDiseasePredictor(filepath.Join(dir, "disease.yaml"), logger)
	wound := prediction.NewWoundPredictor(filepath.Join(dir, "seg_model.yaml"), logger)
	return &testEnv{
		handler: NewAPI(APIDeps{
			Auth:         authSvc,
			Users:        userSvc,
			Hospitals:    hospSvc,
			Patients:     patientSvc,
			Appointments: apptSvc,
			Admin:        adminSvc,
			Monitors:     monitorSvc,
			Hub:          hub,
			Disease:      disease,
			Wound:        wound,
			Bypass:       bypass,
			Logger:       logger,
		}),
		patients: patients,
		devices:  devices,
		hub:      hub,
		disease:  disease,
		wound:    wound,
	}
}

// envelope 解析后的响应信封
type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.serve(t, req)
}

func (e *testEnv) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	var env envelope
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr, env
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr, env := e.serve(t, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var tok models.TokenResponse
	require.NoError(t, json.Unmarshal(env.Result, &tok))
	require.Equal(t, "bearer", tok.TokenType)
	return tok.AccessToken
}

// registerHospital 注册医院并以管理员登录，返回 token 与医院 id
func (e *testEnv) registerHospital(t *testing.T) (string, string) {
	t.Helper()
	rr, env := e.do(t, http.MethodPost, "/auth/register-hospital", "", models.RegisterHospitalRequest{
		HospitalName:     "General",
		AdminEmail:       "admin@general.org",
		AdminDisplayName: "Admin",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp models.RegisterHospitalResponse
	require.NoError(t, json.Unmarshal(env.Result, &resp))
	return e.login(t, "admin@general.org", service.DefaultPassword), resp.HospitalID
}

func decodeResult[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Result, &v))
	return v
}
