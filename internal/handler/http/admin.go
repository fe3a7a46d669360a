package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/signal"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/idle"
	"github.com/go-chi/chi/v5"
)

// AdminHandler serves the break board and the reference data of employees
// and departments.
type AdminHandler interface {
	ListStatuses(w http.ResponseWriter, r *http.Request)
	GetEmployeeStatus(w http.ResponseWriter, r *http.Request)
	Buzz(w http.ResponseWriter, r *http.Request)
	Rebuild(w http.ResponseWriter, r *http.Request)

	GetEmployee(w http.ResponseWriter, r *http.Request)
	UpsertEmployee(w http.ResponseWriter, r *http.Request)

	ListDepartments(w http.ResponseWriter, r *http.Request)
	GetDepartment(w http.ResponseWriter, r *http.Request)
	UpsertDepartment(w http.ResponseWriter, r *http.Request)
}

type adminHandlerImpl struct {
	attendanceService attendance.AttendanceService
	signalService     signal.Service
	employeeService   employee.EmployeeService
	departmentService schedule.DepartmentService
	idleRegistry      *idle.Registry
}

func NewAdminHandler(
	attendanceService attendance.AttendanceService,
	signalService signal.Service,
	employeeService employee.EmployeeService,
	departmentService schedule.DepartmentService,
	idleRegistry *idle.Registry,
) AdminHandler {
	return &adminHandlerImpl{
		attendanceService: attendanceService,
		signalService:     signalService,
		employeeService:   employeeService,
		departmentService: departmentService,
		idleRegistry:      idleRegistry,
	}
}

// ListStatuses returns the live status of every clocked-in employee
func (h *adminHandlerImpl) ListStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.attendanceService.ListStatuses(r.Context())
	if err != nil {
		response.HandleActionError(w, err, "list statuses")
		return
	}

	for i := range statuses {
		h.overlayIdle(&statuses[i])
	}
	response.Success(w, statuses)
}

func (h *adminHandlerImpl) GetEmployeeStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := h.attendanceService.GetStatus(r.Context(), id)
	if err != nil {
		response.HandleActionError(w, err, "get status")
		return
	}

	h.overlayIdle(&status)
	response.Success(w, status)
}

// Buzz sends an attention signal to the employee's open streams
func (h *adminHandlerImpl) Buzz(w http.ResponseWriter, r *http.Request) {
	var req signal.BuzzRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", nil)
			return
		}
	}
	req.EmployeeID = chi.URLParam(r, "id")
	req.SenderID = employeeIDFrom(r)

	result, err := h.signalService.Buzz(r.Context(), req)
	if err != nil {
		response.HandleActionError(w, err, "send buzz")
		return
	}

	response.SuccessWithMessage(w, "Buzz sent", result)
}

// Rebuild recomputes the employee's status from the event log
func (h *adminHandlerImpl) Rebuild(w http.ResponseWriter, r *http.Request) {
	status, err := h.attendanceService.Rebuild(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleActionError(w, err, "rebuild status")
		return
	}

	response.SuccessWithMessage(w, "Status rebuilt", status)
}

func (h *adminHandlerImpl) GetEmployee(w http.ResponseWriter, r *http.Request) {
	result, err := h.employeeService.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleActionError(w, err, "get employee")
		return
	}

	response.Success(w, result)
}

func (h *adminHandlerImpl) UpsertEmployee(w http.ResponseWriter, r *http.Request) {
	var req employee.UpsertEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.employeeService.UpsertEmployee(r.Context(), req)
	if err != nil {
		response.HandleActionError(w, err, "save employee")
		return
	}

	response.SuccessWithMessage(w, "Employee saved", result)
}

func (h *adminHandlerImpl) ListDepartments(w http.ResponseWriter, r *http.Request) {
	result, err := h.departmentService.ListDepartments(r.Context())
	if err != nil {
		response.HandleActionError(w, err, "list departments")
		return
	}

	response.Success(w, result)
}

func (h *adminHandlerImpl) GetDepartment(w http.ResponseWriter, r *http.Request) {
	result, err := h.departmentService.GetDepartment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleActionError(w, err, "get department")
		return
	}

	response.Success(w, result)
}

func (h *adminHandlerImpl) UpsertDepartment(w http.ResponseWriter, r *http.Request) {
	var req schedule.UpsertDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.departmentService.UpsertDepartment(r.Context(), req)
	if err != nil {
		response.HandleActionError(w, err, "save department")
		return
	}

	response.SuccessWithMessage(w, "Department saved", result)
}

func (h *adminHandlerImpl) overlayIdle(status *attendance.StatusResponse) {
	if h.idleRegistry != nil && h.idleRegistry.Idle(status.EmployeeID) && attendance.Status(status.Status) == attendance.StatusWorking {
		status.DisplayStatus = string(attendance.StatusWorkingIdle)
	}
}
