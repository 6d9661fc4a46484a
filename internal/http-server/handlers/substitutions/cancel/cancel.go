package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"timetable-service/api"
	"timetable-service/pkg/response"
	"timetable-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type SubstitutionCanceller interface {
	CancelSubstitution(ctx context.Context, tenantID, id string) (*api.SubstitutionResponse, error)
}

type Response struct {
	response.Response
	Substitution *api.SubstitutionResponse `json:"substitution,omitempty"`
}

func New(log *slog.Logger, canceller SubstitutionCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.substitutions.cancel.New"

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

		sub, err := canceller.CancelSubstitution(r.Context(), tenantID, id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("substitution not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "substitution not found"))
			return
		}

		if errors.Is(err, response.ErrNotCancellable) {
			log.Error("substitution is already cancelled")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.NOT_CANCELLABLE), "substitution cannot be cancelled"))
			return
		}

		if err != nil {
			log.Error("Failed to cancel substitution", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to cancel substitution"))
			return
		}

		log.Info("Substitution cancelled", slog.String("id", id))
		render.JSON(w, r, Response{Substitution: sub})
	}
}
