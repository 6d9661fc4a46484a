package assign

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"timetable-service/api"
	"timetable-service/pkg/response"
	"timetable-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type DayPatternAssigner interface {
	AssignDayPattern(ctx context.Context, tenantID string, req *api.DayPlanAssignRequest) (*api.DayPlanResponse, error)
}

type Request struct {
	api.DayPlanAssignRequest
}

type Response struct {
	response.Response
	DayPlan *api.DayPlanResponse `json:"day_plan,omitempty"`
}

func New(log *slog.Logger, assigner DayPatternAssigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.day_plan.assign.New"

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

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		plan, err := assigner.AssignDayPattern(r.Context(), tenantID, &req.DayPlanAssignRequest)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("day pattern not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "day pattern not found"))
			return
		}

		if err != nil {
			log.Error("Failed to assign day pattern", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to assign day pattern"))
			return
		}

		log.Info("Day pattern assigned",
			slog.String("branch_id", plan.BranchID),
			slog.Int("day_of_week", plan.DayOfWeek),
		)
		render.JSON(w, r, Response{DayPlan: plan})
	}
}
