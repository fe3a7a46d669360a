package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/idle"
)

type AttendanceHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	StartBreak(w http.ResponseWriter, r *http.Request)
	EndBreak(w http.ResponseWriter, r *http.Request)
	ToggleStandby(w http.ResponseWriter, r *http.Request)
	ResumeWorking(w http.ResponseWriter, r *http.Request)
	Activity(w http.ResponseWriter, r *http.Request)
	GetStatus(w http.ResponseWriter, r *http.Request)
	GetHistory(w http.ResponseWriter, r *http.Request)
	GetSummaries(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	idleRegistry      *idle.Registry
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, idleRegistry *idle.Registry) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		idleRegistry:      idleRegistry,
	}
}

type ActivityResponse struct {
	Tracked bool `json:"tracked"`
}

// ClockIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	req := attendance.ActionRequest{EmployeeID: employeeIDFrom(r)}

	result, err := h.attendanceService.ClockIn(r.Context(), req)
	if err != nil {
		response.HandleActionError(w, err, "clock in")
		return
	}

	h.writeTransition(w, "Clock in successful", result)
}

// ClockOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	req := attendance.ActionRequest{EmployeeID: employeeIDFrom(r)}

	result, err := h.attendanceService.ClockOut(r.Context(), req)
	if err != nil {
		response.HandleActionError(w, err, "clock out")
		return
	}

	h.writeTransition(w, "Clock out successful", result)
}

// StartBreak implements AttendanceHandler.
func (h *attendanceHandlerImpl) StartBreak(w http.ResponseWriter, r *http.Request) {
	var req attendance.BreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = employeeIDFrom(r)

	result, err := h.attendanceService.StartBreak(r.Context(), req)
	if err != nil {
		response.HandleActionError(w, err, "start break")
		return
	}

	h.writeTransition(w, "Break started", result)
}

// EndBreak implements AttendanceHandler.
func (h *attendanceHandlerImpl) EndBreak(w http.ResponseWriter, r *http.Request) {
	var req attendance.BreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = employeeIDFrom(r)

	result, err := h.attendanceService.EndBreak(r.Context(), req)
	if err != nil {
		response.HandleActionError(w, err, "end break")
		return
	}

	h.writeTransition(w, "Break ended", result)
}

// ToggleStandby implements AttendanceHandler.
func (h *attendanceHandlerImpl) ToggleStandby(w http.ResponseWriter, r *http.Request) {
	req := attendance.ActionRequest{EmployeeID: employeeIDFrom(r)}

	result, err := h.attendanceService.ToggleStandby(r.Context(), req)
	if err != nil {
		response.HandleActionError(w, err, "toggle standby")
		return
	}

	h.writeTransition(w, "Standby toggled", result)
}

// ResumeWorking implements AttendanceHandler.
func (h *attendanceHandlerImpl) ResumeWorking(w http.ResponseWriter, r *http.Request) {
	req := attendance.ActionRequest{EmployeeID: employeeIDFrom(r)}

	result, err := h.attendanceService.ResumeWorking(r.Context(), req)
	if err != nil {
		response.HandleActionError(w, err, "resume working")
		return
	}

	h.writeTransition(w, "Resumed working", result)
}

// Activity records user activity for the idle monitor of an open stream.
func (h *attendanceHandlerImpl) Activity(w http.ResponseWriter, r *http.Request) {
	tracked := h.idleRegistry != nil && h.idleRegistry.Touch(employeeIDFrom(r))
	response.Success(w, ActivityResponse{Tracked: tracked})
}

// GetStatus implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetStatus(w http.ResponseWriter, r *http.Request) {
	employeeID := employeeIDFrom(r)

	status, err := h.attendanceService.GetStatus(r.Context(), employeeID)
	if err != nil {
		response.HandleActionError(w, err, "get status")
		return
	}

	h.overlayIdle(employeeID, &status)
	response.Success(w, status)
}

// GetHistory implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetHistory(w http.ResponseWriter, r *http.Request) {
	filter := attendance.HistoryFilter{
		StartDate: optionalQuery(r, "start_date"),
		EndDate:   optionalQuery(r, "end_date"),
		SessionID: optionalQuery(r, "session_id"),
		Page:      getIntQueryParam(r, "page", 1),
		Limit:     getIntQueryParam(r, "limit", 20),
	}

	result, err := h.attendanceService.GetHistory(r.Context(), employeeIDFrom(r), filter)
	if err != nil {
		response.HandleActionError(w, err, "get attendance history")
		return
	}

	response.Success(w, result)
}

// GetSummaries implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetSummaries(w http.ResponseWriter, r *http.Request) {
	filter := attendance.SummaryFilter{
		StartDate: optionalQuery(r, "start_date"),
		EndDate:   optionalQuery(r, "end_date"),
		Page:      getIntQueryParam(r, "page", 1),
		Limit:     getIntQueryParam(r, "limit", 20),
	}

	result, err := h.attendanceService.GetSummaries(r.Context(), employeeIDFrom(r), filter)
	if err != nil {
		response.HandleActionError(w, err, "get attendance summaries")
		return
	}

	response.Success(w, result)
}

func (h *attendanceHandlerImpl) writeTransition(w http.ResponseWriter, message string, result attendance.TransitionResponse) {
	h.overlayIdle(result.Status.EmployeeID, &result.Status)
	if !result.Applied {
		message = "No change for the current status"
	}
	response.SuccessWithMessage(w, message, result)
}

// overlayIdle shows Working Idle when an open stream reports inactivity.
func (h *attendanceHandlerImpl) overlayIdle(employeeID string, status *attendance.StatusResponse) {
	if h.idleRegistry == nil {
		return
	}
	if h.idleRegistry.Idle(employeeID) && attendance.Status(status.Status) == attendance.StatusWorking {
		status.DisplayStatus = string(attendance.StatusWorkingIdle)
	}
}
