package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type scheduleDoc struct {
	ClockIn           string `bson:"clock_in"`
	ClockOut          string `bson:"clock_out"`
	GracePeriod       int    `bson:"grace_period"`
	OvertimeThreshold int    `bson:"overtime_threshold"`
}

type departmentDoc struct {
	ID         string       `bson:"_id"`
	Name       string       `bson:"name"`
	Timezone   string       `bson:"timezone"`
	Schedule   *scheduleDoc `bson:"schedule,omitempty"`
	BreakTypes []string     `bson:"break_types"`
	CreatedAt  time.Time    `bson:"created_at"`
	UpdatedAt  time.Time    `bson:"updated_at"`
}

func (d departmentDoc) toEntity() schedule.Department {
	dep := schedule.Department{
		ID:         d.ID,
		Name:       d.Name,
		Timezone:   d.Timezone,
		BreakTypes: d.BreakTypes,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if d.Schedule != nil {
		s := schedule.Schedule(*d.Schedule)
		dep.Schedule = &s
	}
	return dep
}

type departmentRepository struct {
	col *mongo.Collection
}

func NewDepartmentRepository(m *database.MongoDB) schedule.DepartmentRepository {
	return &departmentRepository{col: m.DB.Collection(colDepartments)}
}

// GetByID implements schedule.DepartmentRepository.
func (r *departmentRepository) GetByID(ctx context.Context, id string) (schedule.Department, error) {
	var doc departmentDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return schedule.Department{}, schedule.ErrDepartmentNotFound
		}
		return schedule.Department{}, fmt.Errorf("failed to get department: %w", err)
	}
	return doc.toEntity(), nil
}

// List implements schedule.DepartmentRepository.
func (r *departmentRepository) List(ctx context.Context) ([]schedule.Department, error) {
	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []departmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode departments: %w", err)
	}

	departments := make([]schedule.Department, 0, len(docs))
	for _, d := range docs {
		departments = append(departments, d.toEntity())
	}
	return departments, nil
}

// Upsert implements schedule.DepartmentRepository.
func (r *departmentRepository) Upsert(ctx context.Context, d schedule.Department) (schedule.Department, error) {
	now := time.Now()
	set := bson.M{
		"name":        d.Name,
		"timezone":    d.Timezone,
		"break_types": d.BreakTypes,
		"updated_at":  now,
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}
	if d.Schedule != nil {
		set["schedule"] = scheduleDoc(*d.Schedule)
	} else {
		update["$unset"] = bson.M{"schedule": ""}
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc departmentDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": d.ID}, update, opts).Decode(&doc); err != nil {
		return schedule.Department{}, fmt.Errorf("failed to upsert department: %w", err)
	}
	return doc.toEntity(), nil
}
