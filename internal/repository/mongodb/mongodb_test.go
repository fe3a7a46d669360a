package mongodb

import (
	"context"
	"os"
	"testing"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/repotest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// newTestMongo connects to TEST_MONGO_URI, which must point at a replica set,
// and uses a throwaway database.
func newTestMongo(t *testing.T) *database.MongoDB {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI is not set")
	}

	ctx := context.Background()
	m, err := database.NewMongoDB(ctx, uri, "timeclock_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = m.DB.Drop(context.Background())
		_ = m.Close(context.Background())
	})

	require.NoError(t, EnsureIndexes(ctx, m))
	return m
}

func TestRepositories(t *testing.T) {
	m := newTestMongo(t)

	repotest.Run(t, repotest.Repositories{
		Tx:          NewTransactor(m),
		Events:      NewAttendanceEventRepository(m),
		Projections: NewStatusProjectionRepository(m),
		Sessions:    NewAttendanceSessionRepository(m),
		Summaries:   NewAttendanceSummaryRepository(m),
		Employees:   NewEmployeeRepository(m),
		Departments: NewDepartmentRepository(m),
		Signals:     NewSignalRepository(m),
	})
}

func TestAppend_SeqCountedPerEmployee(t *testing.T) {
	m := newTestMongo(t)
	events := NewAttendanceEventRepository(m)
	ctx := context.Background()

	for _, employeeID := range []string{"emp-a", "emp-b"} {
		for want := int64(1); want <= 2; want++ {
			e, err := events.Append(ctx, attendance.AttendanceEvent{EmployeeID: employeeID, SessionID: "s-" + employeeID})
			require.NoError(t, err)
			assert.Equal(t, want, e.Seq)
		}
	}

	counters, err := m.DB.Collection(colCounters).CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counters)
}
