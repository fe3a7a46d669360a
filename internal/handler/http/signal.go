package http

import (
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/signal"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type SignalHandler interface {
	ListPending(w http.ResponseWriter, r *http.Request)
	Ack(w http.ResponseWriter, r *http.Request)
}

type signalHandlerImpl struct {
	signalService signal.Service
}

func NewSignalHandler(signalService signal.Service) SignalHandler {
	return &signalHandlerImpl{
		signalService: signalService,
	}
}

// ListPending returns the unacknowledged signals of the caller
func (h *signalHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	signals, err := h.signalService.ListPending(r.Context(), employeeIDFrom(r))
	if err != nil {
		response.HandleActionError(w, err, "list signals")
		return
	}

	response.Success(w, signals)
}

// Ack acknowledges one of the caller's signals
func (h *signalHandlerImpl) Ack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Signal ID is required", nil)
		return
	}

	result, err := h.signalService.Ack(r.Context(), signal.AckRequest{
		ID:         id,
		EmployeeID: employeeIDFrom(r),
	})
	if err != nil {
		response.HandleActionError(w, err, "acknowledge signal")
		return
	}

	response.Success(w, result)
}
