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

type SubstitutionDeleter interface {
	DeleteSubstitution(ctx context.Context, tenantID, id string) error
}

func New(log *slog.Logger, deleter SubstitutionDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.substitutions.delete.New"

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

		err := deleter.DeleteSubstitution(r.Context(), tenantID, id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("substitution not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "substitution not found"))
			return
		}

		if errors.Is(err, response.ErrNotPending) {
			log.Error("substitution is not pending")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.NOT_PENDING), "only pending substitutions can be deleted"))
			return
		}

		if err != nil {
			log.Error("Failed to delete substitution", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to delete substitution"))
			return
		}

		log.Info("Substitution deleted", slog.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}
