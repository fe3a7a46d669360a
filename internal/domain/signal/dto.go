package signal

import "github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"

type BuzzRequest struct {
	EmployeeID string `json:"-"`
	SenderID   string `json:"-"`
	Message    string `json:"message"`
}

func (r *BuzzRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if len(r.Message) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "message",
			Message: "message must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type AckRequest struct {
	ID         string `json:"-"`
	EmployeeID string `json:"-"`
}

func (r *AckRequest) Validate() error {
	if !validator.IsValidUUID(r.ID) {
		return validator.ValidationErrors{{
			Field:   "id",
			Message: "id must be a valid signal id",
		}}
	}
	return nil
}

// SignalResponse represents the response for a single signal
type SignalResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	Kind       Kind    `json:"kind"`
	SenderID   string  `json:"sender_id"`
	Message    string  `json:"message"`
	CreatedAt  string  `json:"created_at"`
	AckedAt    *string `json:"acked_at,omitempty"`
}

type AckResponse struct {
	ID    string `json:"id"`
	Fired bool   `json:"fired"`
}
