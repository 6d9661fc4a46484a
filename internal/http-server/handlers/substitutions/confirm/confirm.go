package confirm

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
	"github.com/go-playground/validator/v10"
)

type SubstitutionConfirmer interface {
	ConfirmSubstitution(ctx context.Context, tenantID, id string, req *api.ConfirmRequest) (*api.SubstitutionResponse, error)
}

type Request struct {
	api.ConfirmRequest
}

type Response struct {
	response.Response
	Substitution *api.SubstitutionResponse `json:"substitution,omitempty"`
}

func New(log *slog.Logger, confirmer SubstitutionConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.substitutions.confirm.New"

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

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		sub, err := confirmer.ConfirmSubstitution(r.Context(), tenantID, id, &req.ConfirmRequest)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("substitution not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "substitution not found"))
			return
		}

		if errors.Is(err, response.ErrNotPending) {
			log.Error("substitution is not pending")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.NOT_PENDING), "only pending substitutions can be confirmed"))
			return
		}

		if err != nil {
			log.Error("Failed to confirm substitution", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to confirm substitution"))
			return
		}

		log.Info("Substitution confirmed", slog.String("id", id))
		render.JSON(w, r, Response{Substitution: sub})
	}
}
