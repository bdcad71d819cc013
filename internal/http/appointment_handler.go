package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
	"icu-monitor/internal/service"
)

// AppointmentHandler 预约 Handler
type AppointmentHandler struct {
	appointments service.AppointmentService
	logger       *zap.Logger
}

// NewAppointmentHandler 创建预约 Handler
func NewAppointmentHandler(appointments service.AppointmentService, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, logger: logger}
}

type statusRequest struct {
	Status string `json:"status"`
}

// ServeHTTP /appointments/*
func (h *AppointmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parts := pathParts(r.URL.Path, "/appointments")
	switch {
	case len(parts) == 0 && r.Method == http.MethodPost:
		var req models.CreateAppointmentRequest
		if !decode(w, r, &req) {
			return
		}
		if p := PrincipalFrom(ctx); p != nil {
			if req.HospitalID == "" {
				req.HospitalID = p.HospitalID
			}
			if req.UserID == "" {
				req.UserID = p.UID
			}
		}
		a, err := h.appointments.CreateAppointment(ctx, req)
		respond(w, h.logger, "CreateAppointment", a, err)
	case len(parts) == 2 && parts[0] == "hospital" && r.Method == http.MethodGet:
		h.listByHospital(w, r, parts[1])
	case len(parts) == 2 && parts[0] == "patient" && r.Method == http.MethodGet:
		pid, ok := parseID(w, parts[1])
		if !ok {
			return
		}
		list, err := h.appointments.ListByPatient(ctx, pid)
		respond(w, h.logger, "ListPatientAppointments", list, err)
	case len(parts) == 2 && parts[0] == "user" && r.Method == http.MethodGet:
		list, err := h.appointments.ListByUser(ctx, parts[1])
		respond(w, h.logger, "ListUserAppointments", list, err)
	case len(parts) >= 1:
		id, ok := parseID(w, parts[0])
		if !ok {
			return
		}
		h.appointment(w, r, id, parts[1:])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// listByHospital 可选 start_date / end_date
func (h *AppointmentHandler) listByHospital(w http.ResponseWriter, r *http.Request, hid string) {
	q := r.URL.Query()
	start, err := parseDate(q.Get("start_date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	end, err := parseDate(q.Get("end_date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	list, err := h.appointments.ListByHospital(r.Context(), hid, start, end)
	respond(w, h.logger, "ListHospitalAppointments", list, err)
}

func (h *AppointmentHandler) appointment(w http.ResponseWriter, r *http.Request, id int64, rest []string) {
	ctx := r.Context()
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		a, err := h.appointments.GetAppointment(ctx, id)
		respond(w, h.logger, "GetAppointment", a, err)
	case len(rest) == 0 && r.Method == http.MethodPut:
		var upd domain.AppointmentUpdate
		if !decode(w, r, &upd) {
			return
		}
		a, err := h.appointments.UpdateAppointment(ctx, id, upd)
		respond(w, h.logger, "UpdateAppointment", a, err)
	case len(rest) == 0 && r.Method == http.MethodDelete:
		if err := h.appointments.DeleteAppointment(ctx, id); err != nil {
			writeError(w, h.logger, "DeleteAppointment", err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]string{"message": "Appointment deleted"}))
	case len(rest) == 1 && r.Method == http.MethodPut:
		var status string
		switch rest[0] {
		case "cancel":
			status = domain.AppointmentCancelled
		case "complete":
			status = domain.AppointmentCompleted
		case "status":
			var req statusRequest
			if !decode(w, r, &req) {
				return
			}
			status = req.Status
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		a, err := h.appointments.SetStatus(ctx, id, status)
		respond(w, h.logger, "SetAppointmentStatus", a, err)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
