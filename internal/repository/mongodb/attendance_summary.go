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

type attendanceSummaryRepository struct {
	col *mongo.Collection
}

func NewAttendanceSummaryRepository(m *database.MongoDB) attendance.SummaryRepository {
	return &attendanceSummaryRepository{col: m.DB.Collection(colSummaries)}
}

// Create implements attendance.SummaryRepository.
func (r *attendanceSummaryRepository) Create(ctx context.Context, s attendance.AttendanceSummary) (attendance.AttendanceSummary, error) {
	if s.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.AttendanceSummary{}, fmt.Errorf("failed to generate summary id: %w", err)
		}
		s.ID = id.String()
	}
	s.CreatedAt = time.Now()

	doc := summaryDoc{
		ID:         s.ID,
		EmployeeID: s.EmployeeID,
		SessionID:  s.SessionID,
		Date:       s.Date,
		Totals:     toTotalsDoc(s.SessionTotals),
		CreatedAt:  s.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return attendance.AttendanceSummary{}, fmt.Errorf("failed to create attendance summary: %w", err)
	}
	return s, nil
}

// ListByEmployee implements attendance.SummaryRepository.
func (r *attendanceSummaryRepository) ListByEmployee(ctx context.Context, employeeID string, filter attendance.SummaryFilter) ([]attendance.AttendanceSummary, int64, error) {
	query := bson.M{"employee_id": employeeID}
	if rng := dateRange(filter.StartDate, filter.EndDate, false); len(rng) > 0 {
		query["date"] = rng
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance summaries: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "clock_out_time", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance summaries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []summaryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode attendance summaries: %w", err)
	}

	summaries := make([]attendance.AttendanceSummary, 0, len(docs))
	for _, d := range docs {
		summaries = append(summaries, d.toEntity())
	}
	return summaries, total, nil
}
