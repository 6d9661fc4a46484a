package archive

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

type TimetableArchiver interface {
	ArchiveTimetable(ctx context.Context, tenantID, id string) (*api.TimetableResponse, error)
}

type Response struct {
	response.Response
	Timetable *api.TimetableResponse `json:"timetable,omitempty"`
}

func New(log *slog.Logger, archiver TimetableArchiver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timetables.archive.New"

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

		timetable, err := archiver.ArchiveTimetable(r.Context(), tenantID, id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("timetable not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "timetable not found"))
			return
		}

		if err != nil {
			log.Error("Failed to archive timetable", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to archive timetable"))
			return
		}

		log.Info("Timetable archived", slog.String("id", id))
		render.JSON(w, r, Response{Timetable: timetable})
	}
}
