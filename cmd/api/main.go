package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/config"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/queue"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/repository/memory"
	redisrepo "github.com/cmlabs-hris/timeclock-backend-go/internal/repository/redis"
	attendanceService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/attendance"
	employeeService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/idle"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/service/livesync"
	scheduleService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/schedule"
	signalService "github.com/cmlabs-hris/timeclock-backend-go/internal/service/signal"
	"github.com/hibiken/asynq"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg); err != nil {
		stop()
		log.Fatal(err)
	}
}

// run wires the service and blocks until ctx is cancelled. Everything it
// opens is closed on return, including when startup fails part way.
func run(ctx context.Context, stop context.CancelFunc, cfg *config.Config) error {
	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error opening store: %w", err)
	}
	defer repos.close(context.Background())

	// Redis is optional: without it the session cache stays in process and
	// boundary reconciles rely on the periodic tick alone.
	var sessionCache attendance.SessionCache = memory.NewSessionCache()
	var boundaryScheduler *queue.Scheduler
	var worker *queue.Worker
	if cfg.Redis.Addr != "" {
		redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("error connecting to redis: %w", err)
		}
		defer redisClient.Close()

		sessionCache = redisrepo.NewSessionCache(redisClient, cfg.Redis.CacheTTL)
		redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
		boundaryScheduler = queue.NewScheduler(redisOpt)
		defer func() {
			if err := boundaryScheduler.Close(); err != nil {
				slog.Warn("Failed to close task scheduler", "error", err)
			}
		}()
		worker = queue.NewWorker(redisOpt, cfg.Engine.WorkerConcurrency)
	}

	hub := sse.NewHub(cfg.Engine.StreamBuffer)
	channel := livesync.NewChannel(hub, repos.projections, repos.events, repos.signals)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	departmentService := scheduleService.NewDepartmentService(repos.departments)
	employeeSvc := employeeService.NewEmployeeService(repos.employees)
	signalSvc := signalService.NewSignalService(repos.signals, repos.employees, channel)

	var reconcileScheduler attendanceService.ReconcileScheduler
	if boundaryScheduler != nil {
		reconcileScheduler = boundaryScheduler
	}
	engine := attendanceService.NewAttendanceService(
		repos.tx,
		repos.events,
		repos.projections,
		repos.sessions,
		repos.summaries,
		repos.employees,
		departmentService,
		sessionCache,
		channel,
		reconcileScheduler,
		attendanceService.Config{Location: cfg.Location()},
	)

	idleRegistry := idle.NewRegistry(cfg.Engine.IdleThreshold, cfg.Engine.IdleTick)
	defer idleRegistry.Stop()

	cronScheduler := cron.NewScheduler()
	cron.NewReconcileJobs(engine, cfg.Engine.ReconcileInterval).RegisterJobs(cronScheduler)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	if worker != nil {
		worker.Handle(queue.TypeReconcile, queue.HandleReconcile(engine.Reconcile))
		if err := worker.Start(); err != nil {
			return fmt.Errorf("error starting task worker: %w", err)
		}
		defer worker.Shutdown()
	}

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Env:            cfg.App.Env,
		Version:        version,
		LogLevel:       cfg.SlogLevel(),
		AllowedOrigins: cfg.App.AllowedOrigins,
	}, JWTService, appHTTP.Handlers{
		Attendance: appHTTP.NewAttendanceHandler(engine, idleRegistry),
		Signal:     appHTTP.NewSignalHandler(signalSvc),
		Admin:      appHTTP.NewAdminHandler(engine, signalSvc, employeeSvc, departmentService, idleRegistry),
		Stream:     appHTTP.NewStreamHandler(channel, idleRegistry, JWTService, cfg.Engine.StreamKeepalive),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "store", cfg.Engine.StoreDriver, "redis", cfg.Redis.Addr != "")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
	slog.Info("Shutdown complete", "open_streams", hub.TotalSubscribers())
	return nil
}
