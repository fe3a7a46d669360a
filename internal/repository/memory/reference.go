package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
)

type employeeRepository struct{ s *Store }

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	st, unlock := r.s.read(ctx)
	defer unlock()

	emp, ok := st.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (r *employeeRepository) Upsert(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	st, unlock := r.s.write(ctx)
	defer unlock()

	now := time.Now()
	emp.CreatedAt = now
	if existing, ok := st.employees[emp.ID]; ok {
		emp.CreatedAt = existing.CreatedAt
	}
	emp.UpdatedAt = now
	st.employees[emp.ID] = emp
	return emp, nil
}

type departmentRepository struct{ s *Store }

func (r *departmentRepository) GetByID(ctx context.Context, id string) (schedule.Department, error) {
	st, unlock := r.s.read(ctx)
	defer unlock()

	d, ok := st.departments[id]
	if !ok {
		return schedule.Department{}, schedule.ErrDepartmentNotFound
	}
	return d, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]schedule.Department, error) {
	st, unlock := r.s.read(ctx)
	defer unlock()

	departments := make([]schedule.Department, 0, len(st.departments))
	for _, d := range st.departments {
		departments = append(departments, d)
	}
	sort.Slice(departments, func(i, j int) bool {
		return departments[i].Name < departments[j].Name
	})
	return departments, nil
}

func (r *departmentRepository) Upsert(ctx context.Context, d schedule.Department) (schedule.Department, error) {
	st, unlock := r.s.write(ctx)
	defer unlock()

	now := time.Now()
	d.CreatedAt = now
	if existing, ok := st.departments[d.ID]; ok {
		d.CreatedAt = existing.CreatedAt
	}
	d.UpdatedAt = now
	if d.Schedule != nil {
		sched := *d.Schedule
		d.Schedule = &sched
	}
	d.BreakTypes = append([]string(nil), d.BreakTypes...)
	st.departments[d.ID] = d
	return d, nil
}
