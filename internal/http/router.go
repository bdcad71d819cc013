package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"icu-monitor/internal/metrics"
	"icu-monitor/internal/prediction"
	"icu-monitor/internal/service"
)

// Router 使用标准库 http.ServeMux，路径参数由各 Handler 自行解析
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（/metrics、/ws）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// handlePrefix 同时注册 /x 与 /x/
func (r *Router) handlePrefix(prefix string, h http.Handler) {
	r.mux.Handle(prefix, h)
	r.mux.Handle(prefix+"/", h)
}

// RegisterHealthRoutes /health
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "healthy"}))
	})
}

func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.HandleHandler("/auth/", h)
}

func (r *Router) RegisterUserRoutes(h *UserHandler) {
	r.handlePrefix("/users", h)
}

func (r *Router) RegisterHospitalRoutes(h *HospitalHandler) {
	r.handlePrefix("/hospitals", http.HandlerFunc(h.ServeHospitals))
	r.handlePrefix("/departments", http.HandlerFunc(h.ServeDepartments))
}

func (r *Router) RegisterPatientRoutes(h *PatientHandler) {
	r.handlePrefix("/patients", h)
}

func (r *Router) RegisterAppointmentRoutes(h *AppointmentHandler) {
	r.handlePrefix("/appointments", h)
}

func (r *Router) RegisterAdminRoutes(h *AdminHandler) {
	r.HandleHandler("/admin/", h)
}

func (r *Router) RegisterMonitorRoutes(h *MonitorHandler) {
	r.HandleHandler("/monitor-data/", h)
	r.HandleHandler("/test-ingest", h)
}

// RegisterPredictionRoutes /api/* 图像预测
func (r *Router) RegisterPredictionRoutes(h *PredictionHandler) {
	r.HandleHandler("/api/", h)
}

// RegisterWebSocket /ws 实时 roster 推送
func (r *Router) RegisterWebSocket(hub *WSHub) {
	r.HandleHandler("/ws", hub)
}

// RegisterMetrics /metrics
func (r *Router) RegisterMetrics(h http.Handler) {
	r.HandleHandler("/metrics", h)
}

// APIDeps HTTP API 依赖的服务
type APIDeps struct {
	Auth         service.AuthService
	Users        service.UserService
	Hospitals    service.HospitalService
	Patients     service.PatientService
	Appointments service.AppointmentService
	Admin        service.AdminService
	Monitors     service.MonitorService
	Hub          *WSHub
	Metrics      *metrics.Metrics
	// Disease / Wound 任一为 nil 时不挂载 /api/*
	Disease *prediction.DiseasePredictor
	Wound   *prediction.WoundPredictor
	// Bypass 开发模式：无有效 token 时按 bypass 医生处理
	Bypass bool
	Logger *zap.Logger
}

// NewAPI 注册全部路由并套上认证中间件
func NewAPI(d APIDeps) http.Handler {
	r := NewRouter(d.Logger)
	r.RegisterHealthRoutes()
	r.RegisterAuthRoutes(NewAuthHandler(d.Auth, d.Logger))
	r.RegisterUserRoutes(NewUserHandler(d.Users, d.Logger))
	r.RegisterHospitalRoutes(NewHospitalHandler(d.Hospitals, d.Users, d.Patients, d.Appointments, d.Logger))
	r.RegisterPatientRoutes(NewPatientHandler(d.Patients, d.Logger))
	r.RegisterAppointmentRoutes(NewAppointmentHandler(d.Appointments, d.Logger))
	r.RegisterAdminRoutes(NewAdminHandler(d.Admin, d.Logger))
	r.RegisterMonitorRoutes(NewMonitorHandler(d.Monitors, d.Logger))
	if d.Hub != nil {
		r.RegisterWebSocket(d.Hub)
	}
	if d.Disease != nil && d.Wound != nil {
		r.RegisterPredictionRoutes(NewPredictionHandler(d.Disease, d.Wound, d.Metrics, d.Logger))
	}
	r.RegisterMetrics(d.Metrics.Handler())
	return NewAuthMiddleware(d.Auth, d.Bypass, d.Logger).Wrap(r)
}
