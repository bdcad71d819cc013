package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"icu-monitor/internal/export"
	"icu-monitor/internal/models"
	"icu-monitor/internal/service"
)

// AdminHandler 监护仪管理 Handler（admin 角色，由 AuthMiddleware 拦截）
type AdminHandler struct {
	admin  service.AdminService
	logger *zap.Logger
}

// NewAdminHandler 创建监护仪管理 Handler
func NewAdminHandler(admin service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// ServeHTTP /admin/*
func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parts := pathParts(r.URL.Path, "/admin")
	if len(parts) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if r.Method == http.MethodGet {
		switch {
		case len(parts) == 1 && parts[0] == "monitor-inventory":
			writeJSON(w, http.StatusOK, Ok(h.admin.Inventory(ctx)))
		case len(parts) == 2 && parts[0] == "monitor-inventory" && parts[1] == "export":
			h.ExportInventory(w, r)
		case len(parts) == 2 && parts[0] == "monitor-status":
			writeJSON(w, http.StatusOK, Ok(h.admin.MonitorStatus(ctx, parts[1])))
		case len(parts) == 1 && parts[0] == "unassigned-monitors":
			resp, err := h.admin.UnassignedMonitors(ctx)
			respond(w, h.logger, "UnassignedMonitors", resp, err)
		case len(parts) == 1 && parts[0] == "monitor-overview":
			resp, err := h.admin.Overview(ctx)
			respond(w, h.logger, "MonitorOverview", resp, err)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
		return
	}

	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	switch {
	case len(parts) == 2 && parts[0] == "patients" && parts[1] == "quick-admit":
		h.QuickAdmit(w, r)
	case len(parts) == 1 && parts[0] == "assign-monitor-auto":
		var req models.AutoAssignRequest
		if !decode(w, r, &req) {
			return
		}
		resp, err := h.admin.AssignAuto(ctx, req)
		respond(w, h.logger, "AssignMonitorAuto", resp, err)
	case len(parts) == 1 && parts[0] == "assign-monitor-specific":
		var req models.ManualAssignRequest
		if !decode(w, r, &req) {
			return
		}
		resp, err := h.admin.AssignSpecific(ctx, req)
		respond(w, h.logger, "AssignMonitorSpecific", resp, err)
	case len(parts) == 1 && parts[0] == "reassign-monitor":
		var req models.ReassignRequest
		if !decode(w, r, &req) {
			return
		}
		resp, err := h.admin.Reassign(ctx, req)
		respond(w, h.logger, "ReassignMonitor", resp, err)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// QuickAdmit 未指定 hospital_id 时使用管理员所在医院
func (h *AdminHandler) QuickAdmit(w http.ResponseWriter, r *http.Request) {
	var req models.QuickAdmitRequest
	if !decode(w, r, &req) {
		return
	}
	if req.HospitalID == "" {
		if p := PrincipalFrom(r.Context()); p != nil {
			req.HospitalID = p.HospitalID
		}
	}
	resp, err := h.admin.QuickAdmit(r.Context(), req)
	respond(w, h.logger, "QuickAdmit", resp, err)
}

// ExportInventory 库存 + 清单 xlsx
func (h *AdminHandler) ExportInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	catalog := h.admin.Catalog()
	assigned := make(map[string]bool, len(catalog))
	for _, m := range catalog {
		assigned[m.DeviceID] = h.admin.MonitorStatus(ctx, m.DeviceID).Status == "assigned"
	}
	data, err := export.Inventory(h.admin.Inventory(ctx), catalog, assigned)
	if err != nil {
		h.logger.Error("Failed to generate inventory workbook", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("failed to generate Excel file: %v", err)))
		return
	}
	writeXLSX(w, fmt.Sprintf("monitor_inventory_%s.xlsx", time.Now().Format("20060102")), data)
}
