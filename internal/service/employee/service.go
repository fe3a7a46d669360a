package employee

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
)

type EmployeeServiceImpl struct {
	employeeRepo employee.EmployeeRepository
}

func NewEmployeeService(employeeRepo employee.EmployeeRepository) employee.EmployeeService {
	return &EmployeeServiceImpl{
		employeeRepo: employeeRepo,
	}
}

func mapEmployeeToResponse(emp employee.Employee) employee.EmployeeResponse {
	return employee.EmployeeResponse{
		ID:           emp.ID,
		Name:         emp.Name,
		DepartmentID: emp.DepartmentID,
		IsAdmin:      emp.IsAdmin,
		UpdatedAt:    emp.UpdatedAt.Format(time.RFC3339),
	}
}

// GetEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return mapEmployeeToResponse(emp), nil
}

// UpsertEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) UpsertEmployee(ctx context.Context, req employee.UpsertEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	emp, err := s.employeeRepo.Upsert(ctx, employee.Employee{
		ID:           req.ID,
		Name:         req.Name,
		DepartmentID: req.DepartmentID,
		IsAdmin:      req.IsAdmin,
	})
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to save employee: %w", err)
	}
	return mapEmployeeToResponse(emp), nil
}
