package update

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

type DayPatternUpdater interface {
	UpdateDayPattern(ctx context.Context, tenantID, id string, patch *api.DayPatternPatch) (*api.DayPatternResponse, error)
}

type Request struct {
	api.DayPatternPatch
}

type Response struct {
	response.Response
	DayPattern *api.DayPatternResponse `json:"day_pattern,omitempty"`
}

func New(log *slog.Logger, updater DayPatternUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.day_patterns.update.New"

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

		pattern, err := updater.UpdateDayPattern(r.Context(), tenantID, id, &req.DayPatternPatch)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("day pattern not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "day pattern not found"))
			return
		}

		if errors.Is(err, response.ErrCodeExists) {
			log.Error("day pattern code already exists")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CODE_EXISTS), "day pattern code already exists"))
			return
		}

		if err != nil {
			log.Error("Failed to update day pattern", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update day pattern"))
			return
		}

		log.Info("Day pattern updated", slog.String("id", id))
		render.JSON(w, r, Response{DayPattern: pattern})
	}
}
