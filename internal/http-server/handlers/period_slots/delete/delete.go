package delete

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"timetable-service/pkg/response"
	"timetable-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type PeriodSlotDeleter interface {
	DeletePeriodSlot(ctx context.Context, tenantID, id string) error
}

func New(log *slog.Logger, deleter PeriodSlotDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.period_slots.delete.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		tenantID := r.Header.Get("X-Tenant-ID")
		if tenantID == "" {
			log.Error("tenant header is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "X-Tenant-ID header is required"))
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		err := deleter.DeletePeriodSlot(r.Context(), tenantID, id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("period slot not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "period slot not found"))
			return
		}

		if errors.Is(err, response.ErrInUse) {
			log.Error("period slot is referenced by timetable entries")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.IN_USE), "period slot is referenced by timetable entries"))
			return
		}

		if err != nil {
			log.Error("Failed to delete period slot", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to delete period slot"))
			return
		}

		log.Info("Period slot deleted", slog.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}
