package service

import (
	"context"
	"errors"
	"testing"

	"timetable-service/api"
	"timetable-service/pkg/response"
)

func TestAssignDayPatternInitializesDay(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	pattern, err := svc.CreateDayPattern(ctx, testTenant, &api.DayPatternRequest{
		Code:         "REGULAR",
		Name:         "Regular Day",
		TotalPeriods: 8,
	})
	if err != nil {
		t.Fatalf("CreateDayPattern: %v", err)
	}

	plan, err := svc.AssignDayPattern(ctx, testTenant, &api.DayPlanAssignRequest{
		BranchID:     "branch-1",
		DayOfWeek:    1,
		DayPatternID: &pattern.ID,
	})
	if err != nil {
		t.Fatalf("AssignDayPattern: %v", err)
	}

	if !plan.IsWorkingDay {
		t.Error("AssignDayPattern: new day should default to working")
	}
	if plan.DayPatternID == nil || *plan.DayPatternID != pattern.ID {
		t.Error("AssignDayPattern: pattern not assigned")
	}
}

func TestAssignDayPatternPartialUpdate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	pattern, err := svc.CreateDayPattern(ctx, testTenant, &api.DayPatternRequest{
		Code:         "REGULAR",
		Name:         "Regular Day",
		TotalPeriods: 8,
	})
	if err != nil {
		t.Fatalf("CreateDayPattern: %v", err)
	}

	if _, err := svc.AssignDayPattern(ctx, testTenant, &api.DayPlanAssignRequest{
		BranchID:     "branch-1",
		DayOfWeek:    5,
		DayPatternID: &pattern.ID,
	}); err != nil {
		t.Fatalf("AssignDayPattern: %v", err)
	}

	// Flip the working flag; the pattern must survive.
	plan, err := svc.AssignDayPattern(ctx, testTenant, &api.DayPlanAssignRequest{
		BranchID:     "branch-1",
		DayOfWeek:    5,
		IsWorkingDay: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("AssignDayPattern partial: %v", err)
	}

	if plan.IsWorkingDay {
		t.Error("AssignDayPattern: working flag not updated")
	}
	if plan.DayPatternID == nil || *plan.DayPatternID != pattern.ID {
		t.Error("AssignDayPattern: pattern lost on partial update")
	}
}

func TestAssignDayPatternUnknownPattern(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AssignDayPattern(context.Background(), testTenant, &api.DayPlanAssignRequest{
		BranchID:     "branch-1",
		DayOfWeek:    1,
		DayPatternID: strPtr("missing"),
	})
	if !errors.Is(err, response.ErrNotFound) {
		t.Fatalf("AssignDayPattern: expected ErrNotFound, got %v", err)
	}
}

func TestGetWeekPlan(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	pattern, err := svc.CreateDayPattern(ctx, testTenant, &api.DayPatternRequest{
		Code:         "REGULAR",
		Name:         "Regular Day",
		TotalPeriods: 8,
	})
	if err != nil {
		t.Fatalf("CreateDayPattern: %v", err)
	}

	for _, dow := range []int{3, 1} {
		if _, err := svc.AssignDayPattern(ctx, testTenant, &api.DayPlanAssignRequest{
			BranchID:     "branch-1",
			DayOfWeek:    dow,
			DayPatternID: &pattern.ID,
		}); err != nil {
			t.Fatalf("AssignDayPattern day %d: %v", dow, err)
		}
	}

	week, err := svc.GetWeekPlan(ctx, testTenant, "branch-1")
	if err != nil {
		t.Fatalf("GetWeekPlan: %v", err)
	}

	if week.Total != 2 {
		t.Fatalf("GetWeekPlan: total = %d, want 2", week.Total)
	}
	if week.Items[0].DayOfWeek != 1 || week.Items[1].DayOfWeek != 3 {
		t.Error("GetWeekPlan: items not ordered by day of week")
	}
}
