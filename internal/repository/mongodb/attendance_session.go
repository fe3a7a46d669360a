package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type attendanceSessionRepository struct {
	col *mongo.Collection
}

func NewAttendanceSessionRepository(m *database.MongoDB) attendance.SessionRepository {
	return &attendanceSessionRepository{col: m.DB.Collection(colSessions)}
}

// Create implements attendance.SessionRepository.
func (r *attendanceSessionRepository) Create(ctx context.Context, s attendance.Session) error {
	now := time.Now()
	doc := sessionDoc{
		ID:                 s.ID,
		EmployeeID:         s.EmployeeID,
		DepartmentID:       s.DepartmentID,
		ClockInTime:        s.ClockInTime,
		AccumulatedBreakMs: s.AccumulatedBreak.Milliseconds(),
		Late:               toLateDoc(s.Late),
		IsOvertime:         s.IsOvertime,
		OvertimeMinutes:    s.OvertimeMinutes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create attendance session: %w", err)
	}
	return nil
}

// GetByID implements attendance.SessionRepository.
func (r *attendanceSessionRepository) GetByID(ctx context.Context, id string) (attendance.Session, error) {
	var doc sessionDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return attendance.Session{}, attendance.ErrSessionNotFound
		}
		return attendance.Session{}, fmt.Errorf("failed to get attendance session: %w", err)
	}
	return doc.toEntity(), nil
}

// AddBreak implements attendance.SessionRepository.
func (r *attendanceSessionRepository) AddBreak(ctx context.Context, id string, segment time.Duration) error {
	return r.update(ctx, "add break to attendance session", id, bson.M{
		"$inc": bson.M{"accumulated_break_ms": segment.Milliseconds()},
		"$set": bson.M{"updated_at": time.Now()},
	})
}

// SetAccumulatedBreak implements attendance.SessionRepository.
func (r *attendanceSessionRepository) SetAccumulatedBreak(ctx context.Context, id string, total time.Duration) error {
	return r.update(ctx, "set accumulated break", id, bson.M{
		"$set": bson.M{"accumulated_break_ms": total.Milliseconds(), "updated_at": time.Now()},
	})
}

// MarkOvertime implements attendance.SessionRepository.
func (r *attendanceSessionRepository) MarkOvertime(ctx context.Context, id string, minutes int) error {
	return r.update(ctx, "mark overtime", id, bson.M{
		"$set": bson.M{"is_overtime": true, "updated_at": time.Now()},
		"$max": bson.M{"overtime_minutes": minutes},
	})
}

// Close implements attendance.SessionRepository.
func (r *attendanceSessionRepository) Close(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, "close attendance session", id, bson.M{
		"$set": bson.M{"closed_at": at, "updated_at": time.Now()},
	})
}

func (r *attendanceSessionRepository) update(ctx context.Context, action, id string, update bson.M) error {
	res, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if res.MatchedCount == 0 {
		return attendance.ErrSessionNotFound
	}
	return nil
}
