package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"timetable-service/api"
	"timetable-service/internal/models"
	"timetable-service/pkg/response"
	"timetable-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type SubstitutionGetter interface {
	GetSubstitution(ctx context.Context, tenantID, id string) (*api.SubstitutionResponse, error)
	ListSubstitutions(ctx context.Context, tenantID string, f *models.SubstitutionFilters) (*api.SubstitutionListResponse, error)
}

type Response struct {
	response.Response
	Substitution  *api.SubstitutionResponse     `json:"substitution,omitempty"`
	Substitutions *api.SubstitutionListResponse `json:"substitutions,omitempty"`
}

func New(log *slog.Logger, getter SubstitutionGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.substitutions.get.New"

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
			sub, err := getter.GetSubstitution(r.Context(), tenantID, id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("substitution not found")
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "substitution not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get substitution", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get substitution"))
				return
			}

			log.Info("Substitution retrieved", slog.String("id", id))
			render.JSON(w, r, Response{Substitution: sub})
			return
		}

		var filters models.SubstitutionFilters

		if branchID := r.URL.Query().Get("branch_id"); branchID != "" {
			filters.BranchID = &branchID
		}
		if status := r.URL.Query().Get("status"); status != "" {
			filters.Status = &status
		}
		if dateStr := r.URL.Query().Get("date"); dateStr != "" {
			date, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				log.Error("date is not a valid date")
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date must be YYYY-MM-DD"))
				return
			}
			filters.Date = &date
		}

		subs, err := getter.ListSubstitutions(r.Context(), tenantID, &filters)

		if err != nil {
			log.Error("Failed to list substitutions", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list substitutions"))
			return
		}

		log.Info("Substitutions retrieved", slog.Int("count", subs.Total))
		render.JSON(w, r, Response{Substitutions: subs})
	}
}
