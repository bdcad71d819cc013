package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"icu-monitor/internal/models"
	"icu-monitor/internal/service"
)

// MonitorHandler 监护仪数据接入 Handler
type MonitorHandler struct {
	monitors service.MonitorService
	logger   *zap.Logger
}

// NewMonitorHandler 创建监护仪数据 Handler
func NewMonitorHandler(monitors service.MonitorService, logger *zap.Logger) *MonitorHandler {
	return &MonitorHandler{monitors: monitors, logger: logger}
}

// ServeHTTP /monitor-data/*，另有 /test-ingest 兼容旧路径
func (h *MonitorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == "/test-ingest" {
		path = "/monitor-data/test-ingest"
	}

	switch path {
	case "/monitor-data/ingest", "/monitor-data/test-ingest":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var payload models.MonitorPayload
		if !decode(w, r, &payload) {
			return
		}
		if strings.HasSuffix(path, "test-ingest") {
			res, err := h.monitors.TestIngest(ctx, payload)
			respond(w, h.logger, "TestIngest", res, err)
			return
		}
		res, err := h.monitors.Ingest(ctx, payload)
		respond(w, h.logger, "Ingest", res, err)
	case "/monitor-data/supported-devices":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, Ok(h.monitors.SupportedDevices()))
	case "/monitor-data/device-mappings":
		switch r.Method {
		case http.MethodGet:
			list, err := h.monitors.ListMappings(ctx)
			respond(w, h.logger, "ListMappings", list, err)
		case http.MethodPost:
			var req models.CreateMappingRequest
			if !decode(w, r, &req) {
				return
			}
			resp, err := h.monitors.CreateMapping(ctx, req)
			respond(w, h.logger, "CreateMapping", resp, err)
		default:
			methodNotAllowed(w)
		}
	case "/monitor-data/device-assignments":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req models.CreateAssignmentRequest
		if !decode(w, r, &req) {
			return
		}
		resp, err := h.monitors.CreateAssignment(ctx, req)
		respond(w, h.logger, "CreateAssignment", resp, err)
	case "/monitor-data/unassigned-devices":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		list, err := h.monitors.ListUnassigned(ctx)
		respond(w, h.logger, "ListUnassigned", list, err)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
