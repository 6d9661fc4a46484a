package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"timetable-service/api"
	"timetable-service/pkg/response"
	"timetable-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type AvailableTeachersGetter interface {
	GetAvailableTeachers(ctx context.Context, tenantID, branchID, dateStr string, slotIDs []string, excludeTeacherID string) (*api.AvailableTeachersResponse, error)
}

type Response struct {
	response.Response
	Availability *api.AvailableTeachersResponse `json:"availability,omitempty"`
}

func New(log *slog.Logger, getter AvailableTeachersGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.available_teachers.get.New"

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

		branchID := r.URL.Query().Get("branch_id")
		if branchID == "" {
			log.Error("branch_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "branch_id is required"))
			return
		}

		date := r.URL.Query().Get("date")
		if date == "" {
			log.Error("date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date is required"))
			return
		}

		var slotIDs []string
		if raw := r.URL.Query().Get("period_slot_ids"); raw != "" {
			for _, id := range strings.Split(raw, ",") {
				if id = strings.TrimSpace(id); id != "" {
					slotIDs = append(slotIDs, id)
				}
			}
		}

		excludeTeacherID := r.URL.Query().Get("exclude_teacher_id")

		availability, err := getter.GetAvailableTeachers(r.Context(), tenantID, branchID, date, slotIDs, excludeTeacherID)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid availability query", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date must be YYYY-MM-DD and period_slot_ids must not be empty"))
			return
		}

		if err != nil {
			log.Error("Failed to get available teachers", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get available teachers"))
			return
		}

		log.Info("Available teachers retrieved", slog.Int("count", availability.Total))
		render.JSON(w, r, Response{Availability: availability})
	}
}
