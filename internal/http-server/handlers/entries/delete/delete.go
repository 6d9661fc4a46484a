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

type EntryDeleter interface {
	DeleteEntry(ctx context.Context, tenantID, timetableID, entryID string) error
}

func New(log *slog.Logger, deleter EntryDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.entries.delete.New"

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
		entryID := chi.URLParam(r, "entryID")
		if timetableID == "" || entryID == "" {
			log.Error("timetable id or entry id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "timetable id and entry id are required"))
			return
		}

		err := deleter.DeleteEntry(r.Context(), tenantID, timetableID, entryID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("entry not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "entry not found"))
			return
		}

		if errors.Is(err, response.ErrNotDraft) {
			log.Error("timetable is not a draft")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.NOT_DRAFT), "only draft timetables can be edited"))
			return
		}

		if err != nil {
			log.Error("Failed to delete entry", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to delete entry"))
			return
		}

		log.Info("Entry deleted", slog.String("entry_id", entryID))
		w.WriteHeader(http.StatusNoContent)
	}
}
