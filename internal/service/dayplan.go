package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"timetable-service/api"
	"timetable-service/internal/models"
	"timetable-service/pkg/response"
)

func dayPlanResponse(m *models.DayPlan) *api.DayPlanResponse {
	return &api.DayPlanResponse{
		BranchID:     m.BranchID,
		DayOfWeek:    m.DayOfWeek,
		DayPatternID: m.DayPatternID,
		IsWorkingDay: m.IsWorkingDay,
	}
}

// AssignDayPattern applies a partial update to the (branch, day-of-week)
// assignment. A missing assignment is initialized as a working day with
// no pattern before the patch lands. Concurrent writers are serialized
// by the upsert key; the last writer wins.
func (s *Service) AssignDayPattern(ctx context.Context, tenantID string, req *api.DayPlanAssignRequest) (*api.DayPlanResponse, error) {
	const op = "service.AssignDayPattern"

	if req.DayPatternID != nil {
		if _, err := s.store.GetDayPattern(ctx, tenantID, *req.DayPatternID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	plan, err := s.store.GetDayPlan(ctx, tenantID, req.BranchID, req.DayOfWeek)
	if err != nil {
		if !errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		plan = &models.DayPlan{
			ID:           uuid.NewString(),
			TenantID:     tenantID,
			BranchID:     req.BranchID,
			DayOfWeek:    req.DayOfWeek,
			IsWorkingDay: true,
		}
	}

	if req.DayPatternID != nil {
		plan.DayPatternID = req.DayPatternID
	}
	if req.IsWorkingDay != nil {
		plan.IsWorkingDay = *req.IsWorkingDay
	}

	if err := s.store.UpsertDayPlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return dayPlanResponse(plan), nil
}

func (s *Service) GetWeekPlan(ctx context.Context, tenantID, branchID string) (*api.WeekPlanResponse, error) {
	const op = "service.GetWeekPlan"

	plans, err := s.store.ListDayPlans(ctx, tenantID, branchID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]api.DayPlanResponse, 0, len(plans))
	for _, plan := range plans {
		items = append(items, *dayPlanResponse(plan))
	}

	return &api.WeekPlanResponse{Items: items, Total: len(items)}, nil
}
