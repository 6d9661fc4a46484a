package get

import (
	"context"
	"log/slog"
	"net/http"

	"timetable-service/api"
	"timetable-service/pkg/response"
	"timetable-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type WeekPlanGetter interface {
	GetWeekPlan(ctx context.Context, tenantID, branchID string) (*api.WeekPlanResponse, error)
}

type Response struct {
	response.Response
	WeekPlan *api.WeekPlanResponse `json:"week_plan,omitempty"`
}

func New(log *slog.Logger, getter WeekPlanGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.day_plan.get.New"

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

		plan, err := getter.GetWeekPlan(r.Context(), tenantID, branchID)

		if err != nil {
			log.Error("Failed to get week plan", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get week plan"))
			return
		}

		log.Info("Week plan retrieved", slog.Int("count", plan.Total))
		render.JSON(w, r, Response{WeekPlan: plan})
	}
}
