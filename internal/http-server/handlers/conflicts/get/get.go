package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"timetable-service/api"
	"timetable-service/pkg/response"
	"timetable-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type ConflictFinder interface {
	FindTeacherConflicts(ctx context.Context, tenantID, teacherID string, dayOfWeek int, periodSlotID string, excludeTimetableID *string) ([]api.ScheduleEntryResponse, error)
}

type Response struct {
	response.Response
	Conflicts []api.ScheduleEntryResponse `json:"conflicts"`
	Total     int                         `json:"total"`
}

func New(log *slog.Logger, finder ConflictFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.conflicts.get.New"

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

		dayOfWeek, err := strconv.Atoi(r.URL.Query().Get("day_of_week"))
		if err != nil {
			log.Error("day_of_week is not a number")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "day_of_week must be 0-6"))
			return
		}

		periodSlotID := r.URL.Query().Get("period_slot_id")
		if periodSlotID == "" {
			log.Error("period_slot_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "period_slot_id is required"))
			return
		}

		var excludeTimetableID *string
		if v := r.URL.Query().Get("exclude_timetable_id"); v != "" {
			excludeTimetableID = &v
		}

		conflicts, err := finder.FindTeacherConflicts(r.Context(), tenantID, teacherID, dayOfWeek, periodSlotID, excludeTimetableID)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("day_of_week out of range")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "day_of_week must be 0-6"))
			return
		}

		if err != nil {
			log.Error("Failed to find teacher conflicts", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to find teacher conflicts"))
			return
		}

		log.Info("Conflicts checked",
			slog.String("teacher_id", teacherID),
			slog.Int("count", len(conflicts)),
		)
		render.JSON(w, r, Response{Conflicts: conflicts, Total: len(conflicts)})
	}
}
