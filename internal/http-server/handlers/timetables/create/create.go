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

type TimetableCreator interface {
	CreateTimetable(ctx context.Context, tenantID string, req *api.TimetableRequest) (*api.TimetableResponse, error)
}

type Request struct {
	api.TimetableRequest
}

type Response struct {
	response.Response
	Timetable *api.TimetableResponse `json:"timetable,omitempty"`
}

func New(log *slog.Logger, creator TimetableCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timetables.create.New"

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

		timetable, err := creator.CreateTimetable(r.Context(), tenantID, &req.TimetableRequest)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid timetable payload", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid timetable payload"))
			return
		}

		if err != nil {
			log.Error("Failed to create timetable", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create timetable"))
			return
		}

		log.Info("Timetable created", slog.String("id", timetable.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Timetable: timetable})
	}
}
