package publish

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

type TimetablePublisher interface {
	PublishTimetable(ctx context.Context, tenantID, id string, req *api.PublishRequest) (*api.TimetableResponse, error)
}

type Request struct {
	api.PublishRequest
}

type Response struct {
	response.Response
	Timetable *api.TimetableResponse `json:"timetable,omitempty"`
}

func New(log *slog.Logger, publisher TimetablePublisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timetables.publish.New"

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

		timetable, err := publisher.PublishTimetable(r.Context(), tenantID, id, &req.PublishRequest)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("timetable not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "timetable not found"))
			return
		}

		if errors.Is(err, response.ErrAlreadyPublished) {
			log.Error("timetable is already published")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.ALREADY_PUBLISHED), "timetable is already published"))
			return
		}

		if errors.Is(err, response.ErrNotDraft) {
			log.Error("timetable is not a draft")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.NOT_DRAFT), "only draft timetables can be published"))
			return
		}

		if errors.Is(err, response.ErrTeacherConflict) {
			log.Error("teacher conflict detected at publish")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.TEACHER_CONFLICT), "a teacher in this timetable is committed elsewhere"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("publish is locked by another request")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "publish in progress, try again"))
			return
		}

		if err != nil {
			log.Error("Failed to publish timetable", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to publish timetable"))
			return
		}

		log.Info("Timetable published", slog.String("id", id))
		render.JSON(w, r, Response{Timetable: timetable})
	}
}
