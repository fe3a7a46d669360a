package employee

import "github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"

type UpsertEmployeeRequest struct {
	ID           string  `json:"-"`
	Name         string  `json:"name"`
	DepartmentID *string `json:"department_id,omitempty"`
	IsAdmin      bool    `json:"is_admin"`
}

func (r *UpsertEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if r.DepartmentID != nil && validator.IsEmpty(*r.DepartmentID) {
		r.DepartmentID = nil
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type EmployeeResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	DepartmentID *string `json:"department_id,omitempty"`
	IsAdmin      bool    `json:"is_admin"`
	UpdatedAt    string  `json:"updated_at"`
}
