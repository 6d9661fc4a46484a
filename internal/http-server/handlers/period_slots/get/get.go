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

type PeriodSlotGetter interface {
	GetPeriodSlot(ctx context.Context, tenantID, id string) (*api.PeriodSlotResponse, error)
	ListPeriodSlots(ctx context.Context, tenantID string, f *models.PeriodSlotFilters) (*api.PeriodSlotListResponse, error)
}

type Response struct {
	response.Response
	PeriodSlot  *api.PeriodSlotResponse     `json:"period_slot,omitempty"`
	PeriodSlots *api.PeriodSlotListResponse `json:"period_slots,omitempty"`
}

func New(log *slog.Logger, getter PeriodSlotGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.period_slots.get.New"

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
			slot, err := getter.GetPeriodSlot(r.Context(), tenantID, id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("period slot not found")
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "period slot not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get period slot", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get period slot"))
				return
			}

			log.Info("Period slot retrieved", slog.String("id", id))
			render.JSON(w, r, Response{PeriodSlot: slot})
			return
		}

		var filters models.PeriodSlotFilters

		if patternID := r.URL.Query().Get("day_pattern_id"); patternID != "" {
			filters.DayPatternID = &patternID
		}
		if shiftID := r.URL.Query().Get("shift_id"); shiftID != "" {
			filters.ShiftID = &shiftID
		}
		if slotType := r.URL.Query().Get("slot_type"); slotType != "" {
			filters.SlotType = &slotType
		}
		if isActive := r.URL.Query().Get("is_active"); isActive != "" {
			active := isActive == "true"
			filters.IsActive = &active
		}

		slots, err := getter.ListPeriodSlots(r.Context(), tenantID, &filters)

		if err != nil {
			log.Error("Failed to list period slots", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list period slots"))
			return
		}

		log.Info("Period slots retrieved", slog.Int("count", slots.Total))
		render.JSON(w, r, Response{PeriodSlots: slots})
	}
}
