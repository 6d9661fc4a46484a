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

type DayPatternGetter interface {
	GetDayPattern(ctx context.Context, tenantID, id string) (*api.DayPatternResponse, error)
	ListDayPatterns(ctx context.Context, tenantID string, f *models.DayPatternFilters) (*api.DayPatternListResponse, error)
}

type Response struct {
	response.Response
	DayPattern  *api.DayPatternResponse     `json:"day_pattern,omitempty"`
	DayPatterns *api.DayPatternListResponse `json:"day_patterns,omitempty"`
}

func New(log *slog.Logger, getter DayPatternGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.day_patterns.get.New"

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
			pattern, err := getter.GetDayPattern(r.Context(), tenantID, id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("day pattern not found")
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "day pattern not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get day pattern", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get day pattern"))
				return
			}

			log.Info("Day pattern retrieved", slog.String("id", id))
			render.JSON(w, r, Response{DayPattern: pattern})
			return
		}

		var filters models.DayPatternFilters

		if isActive := r.URL.Query().Get("is_active"); isActive != "" {
			active := isActive == "true"
			filters.IsActive = &active
		}

		patterns, err := getter.ListDayPatterns(r.Context(), tenantID, &filters)

		if err != nil {
			log.Error("Failed to list day patterns", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list day patterns"))
			return
		}

		log.Info("Day patterns retrieved", slog.Int("count", patterns.Total))
		render.JSON(w, r, Response{DayPatterns: patterns})
	}
}
