package get

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

type TimetableGetter interface {
	GetTimetable(ctx context.Context, tenantID, id string) (*api.TimetableResponse, error)
	GetPublishedForSection(ctx context.Context, tenantID, sectionID, academicYearID string) (*api.TimetableResponse, error)
}

type Response struct {
	response.Response
	Timetable *api.TimetableResponse `json:"timetable,omitempty"`
}

func New(log *slog.Logger, getter TimetableGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timetables.get.New"

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

		var (
			timetable *api.TimetableResponse
			err       error
		)

		if id := chi.URLParam(r, "id"); id != "" {
			timetable, err = getter.GetTimetable(r.Context(), tenantID, id)
		} else {
			// The published view for a section: /timetables/published.
			sectionID := r.URL.Query().Get("section_id")
			academicYearID := r.URL.Query().Get("academic_year_id")

			if sectionID == "" || academicYearID == "" {
				log.Error("section_id or academic_year_id is empty")
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "section_id and academic_year_id are required"))
				return
			}

			timetable, err = getter.GetPublishedForSection(r.Context(), tenantID, sectionID, academicYearID)
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("timetable not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "timetable not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get timetable", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get timetable"))
			return
		}

		log.Info("Timetable retrieved", slog.String("id", timetable.ID))
		render.JSON(w, r, Response{Timetable: timetable})
	}
}
