package employee

import "time"

type Employee struct {
	ID           string
	Name         string
	DepartmentID *string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
