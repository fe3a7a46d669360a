package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	Env            string
	Version        string
	LogLevel       slog.Level
	AllowedOrigins []string
}

type Handlers struct {
	Attendance AttendanceHandler
	Signal     SignalHandler
	Admin      AdminHandler
	Stream     StreamHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "timeclock-cmlabs"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	// EventSource cannot send headers; streams authenticate with ?token=
	streamAuth := middleware.StreamAuth(JWTService)
	authenticated := func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired)
	}

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/attendance", func(r chi.Router) {
			r.With(streamAuth).Get("/stream", h.Stream.Stream)

			r.Group(func(r chi.Router) {
				authenticated(r)

				r.Post("/clock-in", h.Attendance.ClockIn)
				r.Post("/clock-out", h.Attendance.ClockOut)
				r.Route("/breaks", func(r chi.Router) {
					r.Post("/start", h.Attendance.StartBreak)
					r.Post("/end", h.Attendance.EndBreak)
				})
				r.Post("/standby/toggle", h.Attendance.ToggleStandby)
				r.Post("/resume", h.Attendance.ResumeWorking)
				r.Post("/activity", h.Attendance.Activity)

				r.Get("/status", h.Attendance.GetStatus)
				r.Get("/history", h.Attendance.GetHistory)
				r.Get("/summaries", h.Attendance.GetSummaries)
				r.Get("/stream-token", h.Stream.StreamToken)
			})
		})

		r.Route("/signals", func(r chi.Router) {
			authenticated(r)
			r.Get("/", h.Signal.ListPending)
			r.Post("/{id}/ack", h.Signal.Ack)
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(streamAuth, middleware.AdminOnly).Get("/employees/{id}/stream", h.Stream.StreamEmployee)

			// Admin only
			r.Group(func(r chi.Router) {
				authenticated(r)
				r.Use(middleware.AdminOnly)

				r.Get("/statuses", h.Admin.ListStatuses)

				r.Route("/employees/{id}", func(r chi.Router) {
					r.Get("/", h.Admin.GetEmployee)
					r.Put("/", h.Admin.UpsertEmployee)
					r.Get("/status", h.Admin.GetEmployeeStatus)
					r.Post("/buzz", h.Admin.Buzz)
					r.Post("/rebuild", h.Admin.Rebuild)
				})

				r.Route("/departments", func(r chi.Router) {
					r.Get("/", h.Admin.ListDepartments)
					r.Get("/{id}", h.Admin.GetDepartment)
					r.Put("/{id}", h.Admin.UpsertDepartment)
				})
			})
		})
	})
	return r
}
