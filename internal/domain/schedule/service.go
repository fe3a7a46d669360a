package schedule

import (
	"context"
)

// DepartmentService manages departments and resolves them for the engine
type DepartmentService interface {
	GetDepartment(ctx context.Context, id string) (DepartmentResponse, error)
	ListDepartments(ctx context.Context) ([]DepartmentResponse, error)
	UpsertDepartment(ctx context.Context, req UpsertDepartmentRequest) (DepartmentResponse, error)

	// Resolve returns nil when departmentID is nil or the lookup fails;
	// callers treat a nil department as "no schedule"
	Resolve(ctx context.Context, departmentID *string) *Department
}
