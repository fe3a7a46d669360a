package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/signal"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/idle"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/livesync"
	signalsvc "github.com/cmlabs-hris/timeclock-backend-go/internal/service/signal"
	"github.com/go-chi/chi/v5"
)

const defaultKeepalive = 30 * time.Second

type StreamHandler interface {
	StreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
	StreamEmployee(w http.ResponseWriter, r *http.Request)
}

type streamHandlerImpl struct {
	channel      *livesync.Channel
	idleRegistry *idle.Registry
	jwtService   jwt.Service
	keepalive    time.Duration
}

func NewStreamHandler(channel *livesync.Channel, idleRegistry *idle.Registry, jwtService jwt.Service, keepalive time.Duration) StreamHandler {
	if keepalive <= 0 {
		keepalive = defaultKeepalive
	}
	return &streamHandlerImpl{
		channel:      channel,
		idleRegistry: idleRegistry,
		jwtService:   jwtService,
		keepalive:    keepalive,
	}
}

type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// StreamStatus is the payload of snapshot and status events.
type StreamStatus struct {
	EmployeeID     string                  `json:"employee_id"`
	Seq            int64                   `json:"seq"`
	EventType      string                  `json:"event_type,omitempty"`
	Status         string                  `json:"status"`
	DisplayStatus  string                  `json:"display_status"`
	SessionID      *string                 `json:"session_id,omitempty"`
	StateStartTime *string                 `json:"state_start_time,omitempty"`
	ClockInTime    *string                 `json:"clock_in_time,omitempty"`
	Signals        []signal.SignalResponse `json:"signals,omitempty"`
}

// StreamIdle is the payload of idle events; Seq is that of the last status.
type StreamIdle struct {
	EmployeeID    string `json:"employee_id"`
	Seq           int64  `json:"seq"`
	Idle          bool   `json:"idle"`
	DisplayStatus string `json:"display_status"`
}

// StreamToken issues a short-lived token for the stream endpoints
func (h *streamHandlerImpl) StreamToken(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateStreamToken(claims.EmployeeID, claims.IsAdmin)
	if err != nil {
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, StreamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream pushes the caller's own status and signals
func (h *streamHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, employeeIDFrom(r))
}

// StreamEmployee lets an admin observe any employee
func (h *streamHandlerImpl) StreamEmployee(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, chi.URLParam(r, "id"))
}

func (h *streamHandlerImpl) serve(w http.ResponseWriter, r *http.Request, employeeID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()

	// the snapshot is delivered before Subscribe returns, so the buffer
	// must hold at least one change
	changes := make(chan livesync.Change, 16)
	unsubscribe, err := h.channel.Subscribe(ctx, employeeID, func(c livesync.Change) {
		select {
		case changes <- c:
		case <-ctx.Done():
		}
	})
	if err != nil {
		response.HandleActionError(w, err, "open stream")
		return
	}
	defer unsubscribe()

	monitor, release := h.idleRegistry.Acquire(employeeID)
	defer release()
	idleFlips, stopWatch := monitor.Watch()
	defer stopWatch()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	writeEvent(w, flusher, "connected", map[string]string{"status": "connected", "employee_id": employeeID})
	slog.Debug("Stream opened", "employee_id", employeeID, "observers", h.channel.Observers(employeeID))

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	status := attendance.StatusClockedOut
	var seq int64

	for {
		select {
		case c := <-changes:
			switch c.Kind {
			case livesync.ChangeSnapshot, livesync.ChangeStatus:
				status, seq = c.Status(), c.Seq
				monitor.SetStatus(status)
				writeEvent(w, flusher, string(c.Kind), toStreamStatus(c, monitor.Display(status)))
			case livesync.ChangeSignal, livesync.ChangeSignalAcked:
				if c.Signal != nil {
					writeEvent(w, flusher, string(c.Kind), signalsvc.ToSignalResponse(*c.Signal))
				}
			}

		case isIdle := <-idleFlips:
			writeEvent(w, flusher, "idle", StreamIdle{
				EmployeeID:    employeeID,
				Seq:           seq,
				Idle:          isIdle,
				DisplayStatus: string(monitor.Display(status)),
			})

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-ctx.Done():
			slog.Debug("Stream closed", "employee_id", employeeID)
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode stream event", "event", event, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

func toStreamStatus(c livesync.Change, display attendance.Status) StreamStatus {
	s := StreamStatus{
		EmployeeID:    c.EmployeeID,
		Seq:           c.Seq,
		EventType:     string(c.EventType),
		Status:        string(c.Status()),
		DisplayStatus: string(display),
	}
	if p := c.Projection; p != nil {
		sessionID := p.SessionID
		stateStart := p.StateStartTime.Format(time.RFC3339)
		clockIn := p.ClockInTime.Format(time.RFC3339)
		s.SessionID = &sessionID
		s.StateStartTime = &stateStart
		s.ClockInTime = &clockIn
	}
	for _, sig := range c.Signals {
		s.Signals = append(s.Signals, signalsvc.ToSignalResponse(sig))
	}
	return s
}
