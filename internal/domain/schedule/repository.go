package schedule

import "context"

type DepartmentRepository interface {
	GetByID(ctx context.Context, id string) (Department, error)
	List(ctx context.Context) ([]Department, error)
	Upsert(ctx context.Context, department Department) (Department, error)
}
