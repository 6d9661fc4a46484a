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

type PeriodSlotUpdater interface {
	UpdatePeriodSlot(ctx context.Context, tenantID, id string, patch *api.PeriodSlotPatch) (*api.PeriodSlotResponse, error)
}

type Request struct {
	api.PeriodSlotPatch
}

type Response struct {
	response.Response
	PeriodSlot *api.PeriodSlotResponse `json:"period_slot,omitempty"`
}

func New(log *slog.Logger, updater PeriodSlotUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.period_slots.update.New"

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

		slot, err := updater.UpdatePeriodSlot(r.Context(), tenantID, id, &req.PeriodSlotPatch)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("period slot not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "period slot not found"))
			return
		}

		if errors.Is(err, response.ErrCodeExists) {
			log.Error("period slot already exists for this pattern and position")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CODE_EXISTS), "period slot already exists for this pattern and position"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid period slot payload", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid period slot payload"))
			return
		}

		if err != nil {
			log.Error("Failed to update period slot", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update period slot"))
			return
		}

		log.Info("Period slot updated", slog.String("id", id))
		render.JSON(w, r, Response{PeriodSlot: slot})
	}
}
