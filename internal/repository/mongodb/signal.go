package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/signal"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type signalDoc struct {
	ID         string     `bson:"_id"`
	EmployeeID string     `bson:"employee_id"`
	Kind       string     `bson:"kind"`
	SenderID   string     `bson:"sender_id"`
	Message    string     `bson:"message"`
	CreatedAt  time.Time  `bson:"created_at"`
	AckedAt    *time.Time `bson:"acked_at"`
}

func (d signalDoc) toEntity() signal.Signal {
	return signal.Signal{
		ID:         d.ID,
		EmployeeID: d.EmployeeID,
		Kind:       signal.Kind(d.Kind),
		SenderID:   d.SenderID,
		Message:    d.Message,
		CreatedAt:  d.CreatedAt,
		AckedAt:    d.AckedAt,
	}
}

type signalRepository struct {
	col *mongo.Collection
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(m *database.MongoDB) signal.Repository {
	return &signalRepository{col: m.DB.Collection(colSignals)}
}

// Create creates a new signal
func (r *signalRepository) Create(ctx context.Context, s signal.Signal) (signal.Signal, error) {
	if s.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return signal.Signal{}, fmt.Errorf("failed to generate signal id: %w", err)
		}
		s.ID = id.String()
	}

	doc := signalDoc{
		ID:         s.ID,
		EmployeeID: s.EmployeeID,
		Kind:       string(s.Kind),
		SenderID:   s.SenderID,
		Message:    s.Message,
		CreatedAt:  s.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return signal.Signal{}, fmt.Errorf("failed to create signal: %w", err)
	}
	return s, nil
}

// GetByID retrieves a signal by ID
func (r *signalRepository) GetByID(ctx context.Context, id string) (signal.Signal, error) {
	var doc signalDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return signal.Signal{}, signal.ErrSignalNotFound
		}
		return signal.Signal{}, fmt.Errorf("failed to get signal: %w", err)
	}
	return doc.toEntity(), nil
}

// Ack marks a signal acknowledged if nobody did before
func (r *signalRepository) Ack(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "acked_at": nil},
		bson.M{"$set": bson.M{"acked_at": at}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to ack signal: %w", err)
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// ListPending returns unacknowledged signals of an employee
func (r *signalRepository) ListPending(ctx context.Context, employeeID string) ([]signal.Signal, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"employee_id": employeeID, "acked_at": nil}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending signals: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []signalDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode signals: %w", err)
	}

	signals := make([]signal.Signal, 0, len(docs))
	for _, d := range docs {
		signals = append(signals, d.toEntity())
	}
	return signals, nil
}
