package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/config"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/jwt"
)

func NewRouter(cfg *config.Config, JWTService jwt.Service, limiter *middleware.RateLimiter, timesheetHandler TimesheetHandler, teamHandler TeamHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "timesheet-cmlabs"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Retry-After"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.SlogLevel(),
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	authenticated := func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
	}

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/timesheet", func(r chi.Router) {
			authenticated(r)
			r.Use(chiMiddleware.AllowContentType("application/json"))

			r.Get("/status", timesheetHandler.Status)
			r.Get("/entries", timesheetHandler.Entries)

			// Clock mutations are rate limited per user
			r.Group(func(r chi.Router) {
				r.Use(limiter.Handler)
				r.Post("/clock-in", timesheetHandler.ClockIn)
				r.Post("/clock-out", timesheetHandler.ClockOut)
				r.Post("/break/start", timesheetHandler.StartBreak)
				r.Post("/break/end", timesheetHandler.EndBreak)
				r.Post("/update-status", timesheetHandler.UpdateStatus)
			})
		})

		r.Route("/team", func(r chi.Router) {
			// Authenticated with a short-lived SSE token in the query
			r.Get("/status/stream", teamHandler.Stream)

			r.Group(func(r chi.Router) {
				authenticated(r)
				r.Get("/public-status", teamHandler.PublicStatus)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Get("/status", teamHandler.AdminStatus)
					r.Get("/status/stream-token", teamHandler.StreamToken)
				})
			})
		})
	})
	return r
}
