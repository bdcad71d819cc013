package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icu-monitor/internal/models"
	"icu-monitor/internal/service"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)
	rr, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ResultSuccess, body.Code)
	assert.Contains(t, rr.Body.String(), `"code":2000`)
}

func TestAuth_RegisterHospitalLoginMeLogout(t *testing.T) {
	env := newTestEnv(t, false)
	token, hid := env.registerHospital(t)
	require.NotEmpty(t, token)

	rr, body := env.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decodeResult[models.MeResponse](t, body)
	assert.Equal(t, "admin", me.Role)
	assert.Equal(t, hid, me.HospitalID)

	rr, _ = env.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr, body = env.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, ResultError, body.Code)
	assert.Equal(t, "Token revoked", body.Message)
}

func TestAuth_LoginBadPassword(t *testing.T) {
	env := newTestEnv(t, false)
	env.registerHospital(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.PostForm = map[string][]string{"username": {"admin@general.org"}, "password": {"wrong"}}
	rr, body := env.serve(t, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Incorrect email or password", body.Message)
}

func TestAuth_RequiresToken(t *testing.T) {
	env := newTestEnv(t, false)
	rr, body := env.do(t, http.MethodGet, "/patients/hospital/HOSP001", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Not authenticated", body.Message)
}

func TestAuth_ExpiredToken(t *testing.T) {
	env := newTestEnv(t, false)
	env.registerHospital(t)

	past := time.Now().Add(-time.Hour)
	claims := service.Claims{
		UID:  "usr_x",
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin@general.org",
			ID:        "jti-1",
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(past),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rr, body := env.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, ResultTokenExpired, body.Code)
}

func TestAuth_Bypass(t *testing.T) {
	env := newTestEnv(t, true)

	rr, body := env.do(t, http.MethodGet, "/auth/me", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decodeResult[models.MeResponse](t, body)
	assert.Equal(t, models.BypassUID, me.ID)
	assert.Equal(t, "doctor", me.Role)

	// 无效 token 同样按 bypass 处理
	rr, _ = env.do(t, http.MethodGet, "/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	// bypass 医生不能访问 admin 路由
	rr, _ = env.do(t, http.MethodGet, "/admin/monitor-inventory", "", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAuth_RegisterStaffAdminOnly(t *testing.T) {
	env := newTestEnv(t, false)
	adminToken, hid := env.registerHospital(t)

	rr, body := env.do(t, http.MethodPost, "/auth/register-staff", adminToken, models.RegisterStaffRequest{
		Email:       "nurse@general.org",
		DisplayName: "Nurse Joy",
		Role:        "nurse",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Nurse registered successfully", decodeResult[models.RegisterStaffResponse](t, body).Message)

	nurseToken := env.login(t, "nurse@general.org", service.DefaultPassword)
	rr, body = env.do(t, http.MethodGet, "/auth/me", nurseToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, hid, decodeResult[models.MeResponse](t, body).HospitalID)

	rr, _ = env.do(t, http.MethodPost, "/auth/register-staff", nurseToken, models.RegisterStaffRequest{
		Email: "other@general.org", DisplayName: "Other", Role: "doctor",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAuth_RegisterDuplicate(t *testing.T) {
	env := newTestEnv(t, false)
	req := models.CreateUserRequest{
		Email: "doc@general.org", Password: "secret1", DisplayName: "Doc", Role: "doctor",
	}
	rr, _ := env.do(t, http.MethodPost, "/auth/register", "", req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr, body := env.do(t, http.MethodPost, "/auth/register", "", req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Email already registered", body.Message)
}
