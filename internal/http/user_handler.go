package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"icu-monitor/internal/domain"
	"icu-monitor/internal/models"
	"icu-monitor/internal/service"
)

// UserHandler 用户管理 Handler
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler 创建用户管理 Handler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// ServeHTTP 路由分发
//
//	POST   /users/
//	GET    /users/{uid}            PUT /users/{uid}    DELETE /users/{uid}
//	GET    /users/id/{id}
//	GET    /users/hospital/{hid}   /users/hospital/{hid}/staff   /users/hospital/{hid}/role/{role}
//	PUT    /users/{uid}/department/{did}
func (h *UserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/users")
	switch {
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.CreateUser(w, r)
	case len(parts) == 2 && parts[0] == "id" && r.Method == http.MethodGet:
		id, ok := parseID(w, parts[1])
		if !ok {
			return
		}
		u, err := h.userService.GetUserByID(r.Context(), id)
		respond(w, h.logger, "GetUserByID", u, err)
	case len(parts) >= 2 && parts[0] == "hospital" && r.Method == http.MethodGet:
		h.listByHospital(w, r, parts[1:])
	case len(parts) == 3 && parts[1] == "department" && r.Method == http.MethodPut:
		did, ok := parseID(w, parts[2])
		if !ok {
			return
		}
		u, err := h.userService.AssignDepartment(r.Context(), parts[0], did)
		respond(w, h.logger, "AssignDepartment", u, err)
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			u, err := h.userService.GetUser(r.Context(), parts[0])
			respond(w, h.logger, "GetUser", u, err)
		case http.MethodPut:
			h.UpdateUser(w, r, parts[0])
		case http.MethodDelete:
			if err := h.userService.DeactivateUser(r.Context(), parts[0]); err != nil {
				writeError(w, h.logger, "DeactivateUser", err)
				return
			}
			writeJSON(w, http.StatusOK, Ok(map[string]string{"message": "User deactivated"}))
		default:
			methodNotAllowed(w)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.userService.CreateUser(r.Context(), req)
	respond(w, h.logger, "CreateUser", u, err)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request, uid string) {
	var upd domain.UserUpdate
	if !decode(w, r, &upd) {
		return
	}
	u, err := h.userService.UpdateUser(r.Context(), uid, upd)
	respond(w, h.logger, "UpdateUser", u, err)
}

// listByHospital parts: {hid} | {hid, staff} | {hid, role, role}
func (h *UserHandler) listByHospital(w http.ResponseWriter, r *http.Request, parts []string) {
	hid := parts[0]
	var (
		users []*domain.User
		err   error
	)
	switch {
	case len(parts) == 1:
		users, err = h.userService.ListByHospital(r.Context(), hid)
	case len(parts) == 2 && parts[1] == "staff":
		users, err = h.userService.ListStaff(r.Context(), hid)
	case len(parts) == 3 && parts[1] == "role":
		users, err = h.userService.ListByHospitalRole(r.Context(), hid, parts[2])
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	respond(w, h.logger, "ListUsers", users, err)
}
