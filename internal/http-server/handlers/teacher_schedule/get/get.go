package get

import (
	"context"
	"log/slog"
	"net/http"

	"timetable-service/api"
	"timetable-service/pkg/response"
	"timetable-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type TeacherScheduleGetter interface {
	GetTeacherSchedule(ctx context.Context, tenantID, teacherID, academicYearID string) (*api.TeacherScheduleResponse, error)
}

type Response struct {
	response.Response
	Schedule *api.TeacherScheduleResponse `json:"schedule,omitempty"`
}

func New(log *slog.Logger, getter TeacherScheduleGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.teacher_schedule.get.New"

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

		academicYearID := r.URL.Query().Get("academic_year_id")

		schedule, err := getter.GetTeacherSchedule(r.Context(), tenantID, teacherID, academicYearID)

		if err != nil {
			log.Error("Failed to get teacher schedule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get teacher schedule"))
			return
		}

		log.Info("Teacher schedule retrieved",
			slog.String("teacher_id", teacherID),
			slog.Int("count", schedule.Total),
		)
		render.JSON(w, r, Response{Schedule: schedule})
	}
}
