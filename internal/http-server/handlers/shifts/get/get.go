package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"timetable-service/api"
	"timetable-service/internal/models"
	"timetable-service/pkg/response"
	"timetable-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type ShiftGetter interface {
	GetShift(ctx context.Context, tenantID, id string) (*api.ShiftResponse, error)
	ListShifts(ctx context.Context, tenantID string, f *models.ShiftFilters) (*api.ShiftListResponse, error)
}

type Response struct {
	response.Response
	Shift  *api.ShiftResponse     `json:"shift,omitempty"`
	Shifts *api.ShiftListResponse `json:"shifts,omitempty"`
}

func New(log *slog.Logger, getter ShiftGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.shifts.get.New"

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

		if id != "" {
			shift, err := getter.GetShift(r.Context(), tenantID, id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("shift not found")
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "shift not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get shift", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get shift"))
				return
			}

			log.Info("Shift retrieved", slog.String("id", id))
			render.JSON(w, r, Response{Shift: shift})
			return
		}

		var filters models.ShiftFilters

		if branchID := r.URL.Query().Get("branch_id"); branchID != "" {
			filters.BranchID = &branchID
		}
		if isActive := r.URL.Query().Get("is_active"); isActive != "" {
			active := isActive == "true"
			filters.IsActive = &active
		}

		shifts, err := getter.ListShifts(r.Context(), tenantID, &filters)

		if err != nil {
			log.Error("Failed to list shifts", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list shifts"))
			return
		}

		log.Info("Shifts retrieved", slog.Int("count", shifts.Total))
		render.JSON(w, r, Response{Shifts: shifts})
	}
}
