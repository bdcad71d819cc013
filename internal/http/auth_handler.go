package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"icu-monitor/internal/models"
	"icu-monitor/internal/service"
)

// AuthHandler 认证 Handler
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler 创建认证 Handler
func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	if r.Method != http.MethodPost && path != "/auth/me" {
		methodNotAllowed(w)
		return
	}
	switch path {
	case "/auth/register":
		h.Register(w, r)
	case "/auth/register-hospital":
		h.RegisterHospital(w, r)
	case "/auth/register-staff":
		h.RegisterStaff(w, r)
	case "/auth/login":
		h.Login(w, r)
	case "/auth/logout":
		h.Logout(w, r)
	case "/auth/me":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.Me(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.authService.Register(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "Register", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(u))
}

func (h *AuthHandler) RegisterHospital(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterHospitalRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.authService.RegisterHospital(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "RegisterHospital", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// RegisterStaff 未指定 hospital_id 时使用管理员自己的医院
func (h *AuthHandler) RegisterStaff(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterStaffRequest
	if !decode(w, r, &req) {
		return
	}
	if req.HospitalID == "" {
		if p := PrincipalFrom(r.Context()); p != nil {
			req.HospitalID = p.HospitalID
		}
	}
	resp, err := h.authService.RegisterStaff(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "RegisterStaff", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Login 表单提交 username/password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid form body"))
		return
	}
	resp, err := h.authService.Login(r.Context(), service.LoginRequest{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		writeError(w, h.logger, "Login", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), PrincipalFrom(r.Context())); err != nil {
		writeError(w, h.logger, "Logout", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"message": "Logged out"}))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.authService.Me(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		writeError(w, h.logger, "Me", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(me))
}
