package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
)

type DepartmentServiceImpl struct {
	departmentRepo schedule.DepartmentRepository
}

func NewDepartmentService(departmentRepo schedule.DepartmentRepository) schedule.DepartmentService {
	return &DepartmentServiceImpl{
		departmentRepo: departmentRepo,
	}
}

// GetDepartment implements schedule.DepartmentService.
func (s *DepartmentServiceImpl) GetDepartment(ctx context.Context, id string) (schedule.DepartmentResponse, error) {
	department, err := s.departmentRepo.GetByID(ctx, id)
	if err != nil {
		return schedule.DepartmentResponse{}, fmt.Errorf("failed to get department: %w", err)
	}
	return toDepartmentResponse(department), nil
}

// ListDepartments implements schedule.DepartmentService.
func (s *DepartmentServiceImpl) ListDepartments(ctx context.Context) ([]schedule.DepartmentResponse, error) {
	departments, err := s.departmentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}

	responses := make([]schedule.DepartmentResponse, 0, len(departments))
	for _, d := range departments {
		responses = append(responses, toDepartmentResponse(d))
	}
	return responses, nil
}

// UpsertDepartment implements schedule.DepartmentService.
func (s *DepartmentServiceImpl) UpsertDepartment(ctx context.Context, req schedule.UpsertDepartmentRequest) (schedule.DepartmentResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.DepartmentResponse{}, err
	}

	department := schedule.Department{
		ID:         req.ID,
		Name:       req.Name,
		Timezone:   req.Timezone,
		BreakTypes: req.BreakTypes,
	}
	if len(department.BreakTypes) == 0 {
		department.BreakTypes = append([]string(nil), attendance.DefaultBreakTypes...)
	}
	if req.Schedule != nil {
		department.Schedule = &schedule.Schedule{
			ClockIn:           req.Schedule.ClockIn,
			ClockOut:          req.Schedule.ClockOut,
			GracePeriod:       req.Schedule.GracePeriod,
			OvertimeThreshold: req.Schedule.OvertimeThreshold,
		}
	}

	saved, err := s.departmentRepo.Upsert(ctx, department)
	if err != nil {
		return schedule.DepartmentResponse{}, fmt.Errorf("failed to save department: %w", err)
	}

	slog.Info("Department saved", "department_id", saved.ID, "name", saved.Name)
	return toDepartmentResponse(saved), nil
}

// Resolve implements schedule.DepartmentService.
func (s *DepartmentServiceImpl) Resolve(ctx context.Context, departmentID *string) *schedule.Department {
	if departmentID == nil || *departmentID == "" {
		return nil
	}

	department, err := s.departmentRepo.GetByID(ctx, *departmentID)
	if err != nil {
		if errors.Is(err, schedule.ErrDepartmentNotFound) {
			slog.Warn("Department not found, treating as unscheduled", "department_id", *departmentID)
		} else {
			slog.Warn("Failed to load department, treating as unscheduled", "department_id", *departmentID, "error", err)
		}
		return nil
	}

	if len(department.BreakTypes) == 0 {
		department.BreakTypes = append([]string(nil), attendance.DefaultBreakTypes...)
	}
	return &department
}

func toDepartmentResponse(d schedule.Department) schedule.DepartmentResponse {
	resp := schedule.DepartmentResponse{
		ID:         d.ID,
		Name:       d.Name,
		Timezone:   d.Timezone,
		BreakTypes: d.BreakTypes,
		UpdatedAt:  d.UpdatedAt.Format(time.RFC3339),
	}
	if resp.BreakTypes == nil {
		resp.BreakTypes = []string{}
	}
	if d.Schedule != nil {
		resp.Schedule = &schedule.ScheduleResponse{
			ClockIn:           d.Schedule.ClockIn,
			ClockOut:          d.Schedule.ClockOut,
			GracePeriod:       d.Schedule.GracePeriod,
			OvertimeThreshold: d.Schedule.OvertimeThreshold,
		}
	}
	return resp
}
