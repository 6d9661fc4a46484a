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

type AbsencePeriodsGetter interface {
	GetTeacherAbsencePeriods(ctx context.Context, tenantID, teacherID, dateStr string) (*api.AbsencePeriodsResponse, error)
}

type Response struct {
	response.Response
	Absence *api.AbsencePeriodsResponse `json:"absence,omitempty"`
}

func New(log *slog.Logger, getter AbsencePeriodsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.absence_periods.get.New"

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

		teacherID := chi.URLParam(r, "teacherID")
		if teacherID == "" {
			log.Error("teacher id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "teacher id is required"))
			return
		}

		date := r.URL.Query().Get("date")
		if date == "" {
			log.Error("date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date is required"))
			return
		}

		absence, err := getter.GetTeacherAbsencePeriods(r.Context(), tenantID, teacherID, date)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("date is not a valid date")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date must be YYYY-MM-DD"))
			return
		}

		if err != nil {
			log.Error("Failed to get absence periods", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get absence periods"))
			return
		}

		log.Info("Absence periods retrieved",
			slog.String("teacher_id", teacherID),
			slog.Int("count", absence.Total),
		)
		render.JSON(w, r, Response{Absence: absence})
	}
}
