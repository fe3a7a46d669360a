package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type attendanceEventRepository struct {
	db *mongo.Database
}

func NewAttendanceEventRepository(m *database.MongoDB) attendance.EventRepository {
	return &attendanceEventRepository{db: m.DB}
}

// eventCounter names the per-employee seq counter; seq only orders one
// employee's events.
func eventCounter(employeeID string) string {
	return colEvents + ":" + employeeID
}

// Append implements attendance.EventRepository.
func (r *attendanceEventRepository) Append(ctx context.Context, event attendance.AttendanceEvent) (attendance.AttendanceEvent, error) {
	if event.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.AttendanceEvent{}, fmt.Errorf("failed to generate event id: %w", err)
		}
		event.ID = id.String()
	}

	seq, err := nextSeq(ctx, r.db, eventCounter(event.EmployeeID))
	if err != nil {
		return attendance.AttendanceEvent{}, err
	}
	event.Seq = seq

	if _, err := r.db.Collection(colEvents).InsertOne(ctx, toEventDoc(event)); err != nil {
		return attendance.AttendanceEvent{}, fmt.Errorf("failed to append attendance event: %w", err)
	}
	return event, nil
}

// ListByEmployee implements attendance.EventRepository.
func (r *attendanceEventRepository) ListByEmployee(ctx context.Context, employeeID string, filter attendance.HistoryFilter) ([]attendance.AttendanceEvent, int64, error) {
	query := bson.M{"employee_id": employeeID}
	if filter.SessionID != nil && *filter.SessionID != "" {
		query["session_id"] = *filter.SessionID
	}
	if rng := dateRange(filter.StartDate, filter.EndDate, true); len(rng) > 0 {
		query["occurred_at"] = rng
	}

	col := r.db.Collection(colEvents)
	total, err := col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance events: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "seq", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	events, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListBySession implements attendance.EventRepository.
func (r *attendanceEventRepository) ListBySession(ctx context.Context, sessionID string) ([]attendance.AttendanceEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	return r.find(ctx, bson.M{"session_id": sessionID}, opts)
}

// LatestSeq implements attendance.EventRepository.
func (r *attendanceEventRepository) LatestSeq(ctx context.Context, employeeID string) (int64, error) {
	var doc eventDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}}).SetProjection(bson.M{"seq": 1})
	err := r.db.Collection(colEvents).FindOne(ctx, bson.M{"employee_id": employeeID}, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get latest event seq: %w", err)
	}
	return doc.Seq, nil
}

func (r *attendanceEventRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]attendance.AttendanceEvent, error) {
	cursor, err := r.db.Collection(colEvents).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find attendance events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []eventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode attendance events: %w", err)
	}

	events := make([]attendance.AttendanceEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.toEntity())
	}
	return events, nil
}

// dateRange builds a range filter from YYYY-MM-DD bounds (UTC). With
// exclusiveEnd the upper bound covers the whole end day.
func dateRange(start, end *string, exclusiveEnd bool) bson.M {
	rng := bson.M{}
	if start != nil && *start != "" {
		if t, err := time.Parse("2006-01-02", *start); err == nil {
			rng["$gte"] = t
		}
	}
	if end != nil && *end != "" {
		if t, err := time.Parse("2006-01-02", *end); err == nil {
			if exclusiveEnd {
				rng["$lt"] = t.AddDate(0, 0, 1)
			} else {
				rng["$lte"] = t
			}
		}
	}
	return rng
}
