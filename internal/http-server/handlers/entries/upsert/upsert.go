package upsert

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

type EntryUpserter interface {
	UpsertEntry(ctx context.Context, tenantID, timetableID string, req *api.EntryRequest) (*api.EntryResponse, error)
}

type Request struct {
	api.EntryRequest
}

type Response struct {
	response.Response
	Entry *api.EntryResponse `json:"entry,omitempty"`
}

func New(log *slog.Logger, upserter EntryUpserter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.entries.upsert.New"

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

		timetableID := chi.URLParam(r, "id")
		if timetableID == "" {
			log.Error("timetable id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "timetable id is required"))
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

		entry, err := upserter.UpsertEntry(r.Context(), tenantID, timetableID, &req.EntryRequest)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("timetable or period slot not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "timetable or period slot not found"))
			return
		}

		if errors.Is(err, response.ErrNotDraft) {
			log.Error("timetable is not a draft")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.NOT_DRAFT), "only draft timetables can be edited"))
			return
		}

		if errors.Is(err, response.ErrTeacherConflict) {
			log.Error("teacher is committed elsewhere at this period")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.TEACHER_CONFLICT), "teacher is committed elsewhere at this period"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("entry slot is locked by another request")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "slot is being assigned, try again"))
			return
		}

		if err != nil {
			log.Error("Failed to upsert entry", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to upsert entry"))
			return
		}

		log.Info("Entry upserted", slog.String("id", entry.ID))
		render.JSON(w, r, Response{Entry: entry})
	}
}
