package httpapi

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/export"
	"icu-monitor/internal/models"
	"icu-monitor/internal/service"
)

// HospitalHandler 医院 + 科室 Handler
type HospitalHandler struct {
	hospitals    service.HospitalService
	users        service.UserService
	patients     service.PatientService
	appointments service.AppointmentService
	logger       *zap.Logger
}

// NewHospitalHandler 创建医院 Handler
func NewHospitalHandler(
	hospitals service.HospitalService,
	users service.UserService,
	patients service.PatientService,
	appointments service.AppointmentService,
	logger *zap.Logger,
) *HospitalHandler {
	return &HospitalHandler{
		hospitals:    hospitals,
		users:        users,
		patients:     patients,
		appointments: appointments,
		logger:       logger,
	}
}

// ServeHospitals /hospitals/*
func (h *HospitalHandler) ServeHospitals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parts := pathParts(r.URL.Path, "/hospitals")
	switch {
	case len(parts) == 0 && r.Method == http.MethodPost:
		var req models.CreateHospitalRequest
		if !decode(w, r, &req) {
			return
		}
		hosp, err := h.hospitals.CreateHospital(ctx, req)
		respond(w, h.logger, "CreateHospital", hosp, err)
	case len(parts) == 2 && parts[0] == "admin" && r.Method == http.MethodGet:
		hosp, err := h.hospitals.GetHospitalByAdmin(ctx, parts[1])
		respond(w, h.logger, "GetHospitalByAdmin", hosp, err)
	case len(parts) == 1 && r.Method == http.MethodGet:
		hosp, err := h.hospitals.GetHospital(ctx, parts[0])
		respond(w, h.logger, "GetHospital", hosp, err)
	case len(parts) == 1 && r.Method == http.MethodPut:
		var upd domain.HospitalUpdate
		if !decode(w, r, &upd) {
			return
		}
		hosp, err := h.hospitals.UpdateHospital(ctx, parts[0], upd)
		respond(w, h.logger, "UpdateHospital", hosp, err)
	case len(parts) == 2 && r.Method == http.MethodGet:
		h.hospitalChild(w, r, parts[0], parts[1])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *HospitalHandler) hospitalChild(w http.ResponseWriter, r *http.Request, hid, child string) {
	ctx := r.Context()
	switch child {
	case "users":
		users, err := h.users.ListByHospital(ctx, hid)
		respond(w, h.logger, "ListHospitalUsers", users, err)
	case "patients":
		patients, err := h.patients.ListByHospital(ctx, hid)
		respond(w, h.logger, "ListHospitalPatients", patients, err)
	case "departments":
		depts, err := h.hospitals.ListDepartments(ctx, hid)
		respond(w, h.logger, "ListDepartments", depts, err)
	case "appointments":
		appts, err := h.appointments.ListByHospital(ctx, hid, nil, nil)
		respond(w, h.logger, "ListHospitalAppointments", appts, err)
	case "export":
		h.Export(w, r, hid)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Export 医院患者名册 xlsx
func (h *HospitalHandler) Export(w http.ResponseWriter, r *http.Request, hid string) {
	ctx := r.Context()
	hosp, err := h.hospitals.GetHospital(ctx, hid)
	if err != nil {
		writeError(w, h.logger, "ExportHospital", err)
		return
	}
	patients, err := h.patients.ListByHospital(ctx, hid)
	if err != nil {
		writeError(w, h.logger, "ExportHospital", err)
		return
	}
	data, err := export.PatientRoster(hosp.Name, patients)
	if err != nil {
		h.logger.Error("Failed to generate roster workbook", zap.String("hospital_id", hid), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("failed to generate Excel file: %v", err)))
		return
	}
	writeXLSX(w, fmt.Sprintf("%s_patients.xlsx", hid), data)
}

// ServeDepartments /departments/*
func (h *HospitalHandler) ServeDepartments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parts := pathParts(r.URL.Path, "/departments")
	switch {
	case len(parts) == 0 && r.Method == http.MethodPost:
		var req models.CreateDepartmentRequest
		if !decode(w, r, &req) {
			return
		}
		d, err := h.hospitals.CreateDepartment(ctx, req)
		respond(w, h.logger, "CreateDepartment", d, err)
	case len(parts) == 2 && parts[0] == "hospital" && r.Method == http.MethodGet:
		depts, err := h.hospitals.ListDepartments(ctx, parts[1])
		respond(w, h.logger, "ListDepartments", depts, err)
	case len(parts) == 1 && r.Method == http.MethodGet:
		id, ok := parseID(w, parts[0])
		if !ok {
			return
		}
		d, err := h.hospitals.GetDepartment(ctx, id)
		respond(w, h.logger, "GetDepartment", d, err)
	case len(parts) == 1 && r.Method == http.MethodPut:
		id, ok := parseID(w, parts[0])
		if !ok {
			return
		}
		var upd domain.DepartmentUpdate
		if !decode(w, r, &upd) {
			return
		}
		d, err := h.hospitals.UpdateDepartment(ctx, id, upd)
		respond(w, h.logger, "UpdateDepartment", d, err)
	case len(parts) == 3 && parts[1] == "head" && r.Method == http.MethodPut:
		id, ok := parseID(w, parts[0])
		if !ok {
			return
		}
		d, err := h.hospitals.SetDepartmentHead(ctx, id, parts[2])
		respond(w, h.logger, "SetDepartmentHead", d, err)
	case len(parts) == 2 && r.Method == http.MethodGet:
		id, ok := parseID(w, parts[0])
		if !ok {
			return
		}
		switch parts[1] {
		case "users":
			users, err := h.users.ListByDepartment(ctx, id)
			respond(w, h.logger, "ListDepartmentUsers", users, err)
		case "patients":
			patients, err := h.patients.ListByDepartment(ctx, id)
			respond(w, h.logger, "ListDepartmentPatients", patients, err)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
