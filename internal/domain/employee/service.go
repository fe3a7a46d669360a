package employee

import "context"

type EmployeeService interface {
	GetEmployee(ctx context.Context, id string) (EmployeeResponse, error)
	UpsertEmployee(ctx context.Context, req UpsertEmployeeRequest) (EmployeeResponse, error)
}
