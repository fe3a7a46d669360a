package mongodb

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	colCounters    = "counters"
	colEvents      = "attendance_events"
	colProjections = "status_projections"
	colSessions    = "attendance_sessions"
	colSummaries   = "attendance_summaries"
	colEmployees   = "employees"
	colDepartments = "departments"
	colSignals     = "signals"
)

type transactor struct {
	client *mongo.Client
}

func NewTransactor(m *database.MongoDB) database.Transactor {
	return &transactor{client: m.Client}
}

// WithinTx runs fn in a multi-document transaction. A ctx that already
// carries a session joins it.
func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// EnsureIndexes creates the indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, m *database.MongoDB) error {
	indexes := map[string][]mongo.IndexModel{
		colEvents: {
			{Keys: bson.D{{Key: "employee_id", Value: 1}, {Key: "seq", Value: -1}}, Options: options.Index().SetName("uniq_employee_seq").SetUnique(true)},
			{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "seq", Value: 1}}, Options: options.Index().SetName("idx_session_seq")},
		},
		colSummaries: {
			{Keys: bson.D{{Key: "employee_id", Value: 1}, {Key: "date", Value: -1}}, Options: options.Index().SetName("idx_employee_date")},
			{Keys: bson.D{{Key: "session_id", Value: 1}}, Options: options.Index().SetName("uniq_session").SetUnique(true)},
		},
		colSignals: {
			{Keys: bson.D{{Key: "employee_id", Value: 1}, {Key: "acked_at", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("idx_pending")},
		},
	}

	for name, models := range indexes {
		if _, err := m.DB.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// nextSeq increments and returns the named counter.
func nextSeq(ctx context.Context, db *mongo.Database, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := db.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", name, err)
	}
	return counter.Seq, nil
}
