package mongodb

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type statusProjectionRepository struct {
	col *mongo.Collection
}

func NewStatusProjectionRepository(m *database.MongoDB) attendance.StatusRepository {
	return &statusProjectionRepository{col: m.DB.Collection(colProjections)}
}

// Get implements attendance.StatusRepository.
func (r *statusProjectionRepository) Get(ctx context.Context, employeeID string) (*attendance.StatusProjection, error) {
	var doc projectionDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": employeeID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get status projection: %w", err)
	}
	p := doc.toEntity()
	return &p, nil
}

// Insert implements attendance.StatusRepository.
func (r *statusProjectionRepository) Insert(ctx context.Context, p attendance.StatusProjection) error {
	if _, err := r.col.InsertOne(ctx, toProjectionDoc(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return attendance.ErrStaleProjection
		}
		return fmt.Errorf("failed to insert status projection: %w", err)
	}
	return nil
}

// Replace implements attendance.StatusRepository.
func (r *statusProjectionRepository) Replace(ctx context.Context, p attendance.StatusProjection, expectedSeq int64) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.EmployeeID, "last_event_seq": expectedSeq}, toProjectionDoc(p))
	if err != nil {
		return fmt.Errorf("failed to update status projection: %w", err)
	}
	if res.MatchedCount == 0 {
		return attendance.ErrStaleProjection
	}
	return nil
}

// Delete implements attendance.StatusRepository.
func (r *statusProjectionRepository) Delete(ctx context.Context, employeeID string, expectedSeq int64) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": employeeID, "last_event_seq": expectedSeq})
	if err != nil {
		return fmt.Errorf("failed to delete status projection: %w", err)
	}
	if res.DeletedCount == 0 {
		return attendance.ErrStaleProjection
	}
	return nil
}

// Put implements attendance.StatusRepository.
func (r *statusProjectionRepository) Put(ctx context.Context, p attendance.StatusProjection) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.EmployeeID}, toProjectionDoc(p), opts); err != nil {
		return fmt.Errorf("failed to put status projection: %w", err)
	}
	return nil
}

// ListActive implements attendance.StatusRepository.
func (r *statusProjectionRepository) ListActive(ctx context.Context) ([]attendance.StatusProjection, error) {
	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list status projections: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []projectionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode status projections: %w", err)
	}

	projections := make([]attendance.StatusProjection, 0, len(docs))
	for _, d := range docs {
		projections = append(projections, d.toEntity())
	}
	return projections, nil
}
