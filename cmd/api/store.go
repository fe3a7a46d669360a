package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/config"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/signal"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/mongodb"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/postgresql"
)

// repositories is the persistence set selected by STORE_DRIVER.
type repositories struct {
	tx          database.Transactor
	events      attendance.EventRepository
	projections attendance.StatusRepository
	sessions    attendance.SessionRepository
	summaries   attendance.SummaryRepository
	employees   employee.EmployeeRepository
	departments schedule.DepartmentRepository
	signals     signal.Repository
	close       func(ctx context.Context)
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Engine.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := postgresql.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("Connected to PostgreSQL", "host", cfg.Database.Host, "database", cfg.Database.Name)
		return &repositories{
			tx:          postgresql.NewTransactor(db),
			events:      postgresql.NewAttendanceEventRepository(db),
			projections: postgresql.NewStatusProjectionRepository(db),
			sessions:    postgresql.NewAttendanceSessionRepository(db),
			summaries:   postgresql.NewAttendanceSummaryRepository(db),
			employees:   postgresql.NewEmployeeRepository(db),
			departments: postgresql.NewDepartmentRepository(db),
			signals:     postgresql.NewSignalRepository(db),
			close:       func(context.Context) { db.Close() },
		}, nil

	case config.StoreDriverMongo:
		m, err := database.NewMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		if err := mongodb.EnsureIndexes(ctx, m); err != nil {
			_ = m.Close(ctx)
			return nil, err
		}
		slog.Info("Connected to MongoDB", "database", cfg.Mongo.Database)
		return &repositories{
			tx:          mongodb.NewTransactor(m),
			events:      mongodb.NewAttendanceEventRepository(m),
			projections: mongodb.NewStatusProjectionRepository(m),
			sessions:    mongodb.NewAttendanceSessionRepository(m),
			summaries:   mongodb.NewAttendanceSummaryRepository(m),
			employees:   mongodb.NewEmployeeRepository(m),
			departments: mongodb.NewDepartmentRepository(m),
			signals:     mongodb.NewSignalRepository(m),
			close: func(ctx context.Context) {
				if err := m.Close(ctx); err != nil {
					slog.Warn("Failed to disconnect from MongoDB", "error", err)
				}
			},
		}, nil

	default:
		slog.Warn("Using the in-memory store, state is lost on restart")
		store := memory.NewStore()
		return &repositories{
			tx:          store,
			events:      store.Events(),
			projections: store.Projections(),
			sessions:    store.Sessions(),
			summaries:   store.Summaries(),
			employees:   store.Employees(),
			departments: store.Departments(),
			signals:     store.Signals(),
			close:       func(context.Context) {},
		}, nil
	}
}
