package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"timetable-service/api"
	"timetable-service/pkg/response"
	"timetable-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type SubstitutionCreator interface {
	CreateSubstitution(ctx context.Context, tenantID string, req *api.SubstitutionRequest) (*api.SubstitutionResponse, error)
}

type Request struct {
	api.SubstitutionRequest
}

type Response struct {
	response.Response
	Substitution *api.SubstitutionResponse `json:"substitution,omitempty"`
}

func New(log *slog.Logger, creator SubstitutionCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.substitutions.create.New"

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

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		sub, err := creator.CreateSubstitution(r.Context(), tenantID, &req.SubstitutionRequest)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("referenced period slot not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "referenced period slot not found"))
			return
		}

		if errors.Is(err, response.ErrSubstitutionConflict) {
			log.Error("absence is already covered for these periods")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SUBSTITUTION_CONFLICT), "absence is already covered for these periods"))
			return
		}

		if errors.Is(err, response.ErrSubstituteConflict) {
			log.Error("substitute teacher is not available")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SUBSTITUTE_CONFLICT), "substitute teacher is not available"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("substitute is being booked by another request")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "substitute is being booked, try again"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid substitution payload", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid substitution payload"))
			return
		}

		if err != nil {
			log.Error("Failed to create substitution", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create substitution"))
			return
		}

		log.Info("Substitution created", slog.String("id", sub.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Substitution: sub})
	}
}
