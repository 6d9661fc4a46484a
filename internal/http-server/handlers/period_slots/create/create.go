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

type PeriodSlotCreator interface {
	CreatePeriodSlot(ctx context.Context, tenantID string, req *api.PeriodSlotRequest) (*api.PeriodSlotResponse, error)
}

type Request struct {
	api.PeriodSlotRequest
}

type Response struct {
	response.Response
	PeriodSlot *api.PeriodSlotResponse `json:"period_slot,omitempty"`
}

func New(log *slog.Logger, creator PeriodSlotCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.period_slots.create.New"

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

		slot, err := creator.CreatePeriodSlot(r.Context(), tenantID, &req.PeriodSlotRequest)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("referenced day pattern or shift not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "referenced day pattern or shift not found"))
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
			log.Error("Failed to create period slot", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create period slot"))
			return
		}

		log.Info("Period slot created", slog.String("id", slot.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{PeriodSlot: slot})
	}
}
