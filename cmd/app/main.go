package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"timetable-service/internal/config"
	absenceGet "timetable-service/internal/http-server/handlers/absence_periods/get"
	availableGet "timetable-service/internal/http-server/handlers/available_teachers/get"
	conflictGet "timetable-service/internal/http-server/handlers/conflicts/get"
	dayPatternCreate "timetable-service/internal/http-server/handlers/day_patterns/create"
	dayPatternDelete "timetable-service/internal/http-server/handlers/day_patterns/delete"
	dayPatternGet "timetable-service/internal/http-server/handlers/day_patterns/get"
	dayPatternUpdate "timetable-service/internal/http-server/handlers/day_patterns/update"
	dayPlanAssign "timetable-service/internal/http-server/handlers/day_plan/assign"
	dayPlanGet "timetable-service/internal/http-server/handlers/day_plan/get"
	entryBulk "timetable-service/internal/http-server/handlers/entries/bulk"
	entryDelete "timetable-service/internal/http-server/handlers/entries/delete"
	entryUpsert "timetable-service/internal/http-server/handlers/entries/upsert"
	slotCreate "timetable-service/internal/http-server/handlers/period_slots/create"
	slotDelete "timetable-service/internal/http-server/handlers/period_slots/delete"
	slotGet "timetable-service/internal/http-server/handlers/period_slots/get"
	slotUpdate "timetable-service/internal/http-server/handlers/period_slots/update"
	shiftCreate "timetable-service/internal/http-server/handlers/shifts/create"
	shiftDelete "timetable-service/internal/http-server/handlers/shifts/delete"
	shiftGet "timetable-service/internal/http-server/handlers/shifts/get"
	shiftUpdate "timetable-service/internal/http-server/handlers/shifts/update"
	subCancel "timetable-service/internal/http-server/handlers/substitutions/cancel"
	subConfirm "timetable-service/internal/http-server/handlers/substitutions/confirm"
	subCreate "timetable-service/internal/http-server/handlers/substitutions/create"
	subDelete "timetable-service/internal/http-server/handlers/substitutions/delete"
	subGet "timetable-service/internal/http-server/handlers/substitutions/get"
	subUpdate "timetable-service/internal/http-server/handlers/substitutions/update"
	scheduleGet "timetable-service/internal/http-server/handlers/teacher_schedule/get"
	ttArchive "timetable-service/internal/http-server/handlers/timetables/archive"
	ttCreate "timetable-service/internal/http-server/handlers/timetables/create"
	ttDelete "timetable-service/internal/http-server/handlers/timetables/delete"
	ttGet "timetable-service/internal/http-server/handlers/timetables/get"
	ttPublish "timetable-service/internal/http-server/handlers/timetables/publish"
	ttUpdate "timetable-service/internal/http-server/handlers/timetables/update"
	"timetable-service/internal/lock"
	svc "timetable-service/internal/service"
	"timetable-service/internal/storage/postgres"
	slogpretty "timetable-service/pkg/handlers/slogPretty"
	"timetable-service/pkg/middleware/mwLogger"
	"timetable-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Tenant-ID")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	service := svc.NewService(storage, locker)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Shifts
	router.Post("/shifts", shiftCreate.New(log, service))
	router.Get("/shifts", shiftGet.New(log, service))
	router.Get("/shifts/{id}", shiftGet.New(log, service))
	router.Put("/shifts/{id}", shiftUpdate.New(log, service))
	router.Delete("/shifts/{id}", shiftDelete.New(log, service))

	// Day Patterns
	router.Post("/day_patterns", dayPatternCreate.New(log, service))
	router.Get("/day_patterns", dayPatternGet.New(log, service))
	router.Get("/day_patterns/{id}", dayPatternGet.New(log, service))
	router.Put("/day_patterns/{id}", dayPatternUpdate.New(log, service))
	router.Delete("/day_patterns/{id}", dayPatternDelete.New(log, service))

	// Period Slots
	router.Post("/period_slots", slotCreate.New(log, service))
	router.Get("/period_slots", slotGet.New(log, service))
	router.Get("/period_slots/{id}", slotGet.New(log, service))
	router.Put("/period_slots/{id}", slotUpdate.New(log, service))
	router.Delete("/period_slots/{id}", slotDelete.New(log, service))

	// Week Plan
	router.Put("/day_plan", dayPlanAssign.New(log, service))
	router.Get("/day_plan", dayPlanGet.New(log, service))

	// Timetables
	router.Post("/timetables", ttCreate.New(log, service))
	router.Get("/timetables/published", ttGet.New(log, service))
	router.Get("/timetables/{id}", ttGet.New(log, service))
	router.Put("/timetables/{id}", ttUpdate.New(log, service))
	router.Delete("/timetables/{id}", ttDelete.New(log, service))
	router.Post("/timetables/{id}/publish", ttPublish.New(log, service))
	router.Post("/timetables/{id}/archive", ttArchive.New(log, service))

	// Timetable Entries
	router.Put("/timetables/{id}/entries", entryUpsert.New(log, service))
	router.Put("/timetables/{id}/entries/bulk", entryBulk.New(log, service))
	router.Delete("/timetables/{id}/entries/{entryID}", entryDelete.New(log, service))

	// Teacher views
	router.Get("/teachers/{teacherID}/schedule", scheduleGet.New(log, service))
	router.Get("/teachers/{teacherID}/conflicts", conflictGet.New(log, service))
	router.Get("/teachers/{teacherID}/absence_periods", absenceGet.New(log, service))

	// Substitutions
	router.Post("/substitutions", subCreate.New(log, service))
	router.Get("/substitutions", subGet.New(log, service))
	router.Get("/substitutions/available_teachers", availableGet.New(log, service))
	router.Get("/substitutions/{id}", subGet.New(log, service))
	router.Put("/substitutions/{id}", subUpdate.New(log, service))
	router.Delete("/substitutions/{id}", subDelete.New(log, service))
	router.Post("/substitutions/{id}/confirm", subConfirm.New(log, service))
	router.Post("/substitutions/{id}/cancel", subCancel.New(log, service))

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	} else {
		log.Debug("Storage is nil, nothing to close")
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
