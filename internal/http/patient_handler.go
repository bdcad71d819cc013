package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
	"icu-monitor/internal/service"
)

// PatientHandler 患者 Handler
type PatientHandler struct {
	patients service.PatientService
	logger   *zap.Logger
}

// NewPatientHandler 创建患者 Handler
func NewPatientHandler(patients service.PatientService, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{patients: patients, logger: logger}
}

type roomRequest struct {
	RoomNumber string `json:"room_number"`
	BedNumber  string `json:"bed_number"`
}

// ServeHTTP /patients/*
func (h *PatientHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	parts := pathParts(r.URL.Path, "/patients")
	switch {
	case len(parts) == 0 && r.Method == http.MethodPost:
		var req models.CreatePatientRequest
		if !decode(w, r, &req) {
			return
		}
		if req.HospitalID == "" {
			if p := PrincipalFrom(ctx); p != nil {
				req.HospitalID = p.HospitalID
			}
		}
		p, err := h.patients.CreatePatient(ctx, req)
		respond(w, h.logger, "CreatePatient", p, err)
	case len(parts) == 2 && parts[0] == "hospital" && r.Method == http.MethodGet:
		list, err := h.patients.ListByHospital(ctx, parts[1])
		respond(w, h.logger, "ListPatients", list, err)
	case len(parts) == 2 && parts[0] == "department" && r.Method == http.MethodGet:
		did, ok := parseID(w, parts[1])
		if !ok {
			return
		}
		list, err := h.patients.ListByDepartment(ctx, did)
		respond(w, h.logger, "ListDepartmentPatients", list, err)
	case len(parts) >= 1:
		id, ok := parseID(w, parts[0])
		if !ok {
			return
		}
		h.patient(w, r, id, parts[1:])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *PatientHandler) patient(w http.ResponseWriter, r *http.Request, id int64, rest []string) {
	ctx := r.Context()
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		p, err := h.patients.GetPatient(ctx, id)
		respond(w, h.logger, "GetPatient", p, err)
	case len(rest) == 0 && r.Method == http.MethodPut:
		var upd domain.PatientUpdate
		if !decode(w, r, &upd) {
			return
		}
		p, err := h.patients.UpdatePatient(ctx, id, upd)
		respond(w, h.logger, "UpdatePatient", p, err)
	case len(rest) == 0 && r.Method == http.MethodDelete:
		if err := h.patients.DeletePatient(ctx, id); err != nil {
			writeError(w, h.logger, "DeletePatient", err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]string{"message": "Patient deleted"}))
	case r.Method != http.MethodPut:
		methodNotAllowed(w)
	case len(rest) == 1 && rest[0] == "discharge":
		p, err := h.patients.Discharge(ctx, id)
		respond(w, h.logger, "Discharge", p, err)
	case len(rest) == 1 && rest[0] == "admit":
		p, err := h.patients.Admit(ctx, id)
		respond(w, h.logger, "Admit", p, err)
	case len(rest) == 1 && rest[0] == "room":
		var req roomRequest
		if !decode(w, r, &req) {
			return
		}
		p, err := h.patients.AssignRoom(ctx, id, req.RoomNumber, req.BedNumber)
		respond(w, h.logger, "AssignRoom", p, err)
	case len(rest) == 2 && rest[0] == "department":
		did, ok := parseID(w, rest[1])
		if !ok {
			return
		}
		p, err := h.patients.AssignDepartment(ctx, id, did)
		respond(w, h.logger, "AssignDepartment", p, err)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
