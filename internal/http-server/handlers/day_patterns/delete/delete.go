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

type DayPatternDeleter interface {
	DeleteDayPattern(ctx context.Context, tenantID, id string) error
}

func New(log *slog.Logger, deleter DayPatternDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.day_patterns.delete.New"

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

		err := deleter.DeleteDayPattern(r.Context(), tenantID, id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("day pattern not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "day pattern not found"))
			return
		}

		if errors.Is(err, response.ErrInUse) {
			log.Error("day pattern is referenced by day plans or period slots")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.IN_USE), "day pattern is referenced by day plans or period slots"))
			return
		}

		if err != nil {
			log.Error("Failed to delete day pattern", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to delete day pattern"))
			return
		}

		log.Info("Day pattern deleted", slog.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}
