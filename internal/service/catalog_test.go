package service

import (
	"context"
	"errors"
	"testing"

	"timetable-service/api"
	"timetable-service/internal/models"
	"timetable-service/pkg/response"
)

const testTenant = "tenant-1"

func TestCreateShift(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	shift, err := svc.CreateShift(ctx, testTenant, &api.ShiftRequest{
		BranchID:  "branch-1",
		Code:      "MORNING",
		Name:      "Morning Shift",
		StartTime: "08:00",
		EndTime:   "13:30",
	})
	if err != nil {
		t.Fatalf("CreateShift: %v", err)
	}

	if shift.ID == "" {
		t.Fatal("CreateShift: empty id")
	}
	if !shift.IsActive {
		t.Error("CreateShift: expected is_active to default to true")
	}
	if shift.StartTime != "08:00:00" || shift.EndTime != "13:30:00" {
		t.Errorf("CreateShift: times not normalized: %s-%s", shift.StartTime, shift.EndTime)
	}
}

func TestCreateShiftDuplicateCode(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	req := &api.ShiftRequest{
		BranchID:  "branch-1",
		Code:      "MORNING",
		Name:      "Morning Shift",
		StartTime: "08:00",
		EndTime:   "13:30",
	}

	if _, err := svc.CreateShift(ctx, testTenant, req); err != nil {
		t.Fatalf("CreateShift: %v", err)
	}

	_, err := svc.CreateShift(ctx, testTenant, req)
	if !errors.Is(err, response.ErrCodeExists) {
		t.Fatalf("CreateShift duplicate: expected ErrCodeExists, got %v", err)
	}
}

func TestCreateShiftInvalidRange(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateShift(context.Background(), testTenant, &api.ShiftRequest{
		BranchID:  "branch-1",
		Code:      "BAD",
		Name:      "Backwards",
		StartTime: "13:30",
		EndTime:   "08:00",
	})
	if err == nil {
		t.Fatal("CreateShift: expected error for end before start")
	}
}

func TestDeleteShiftInUse(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	shift, err := svc.CreateShift(ctx, testTenant, &api.ShiftRequest{
		BranchID:  "branch-1",
		Code:      "MORNING",
		Name:      "Morning Shift",
		StartTime: "08:00",
		EndTime:   "13:30",
	})
	if err != nil {
		t.Fatalf("CreateShift: %v", err)
	}

	store.slots["slot-1"] = &models.PeriodSlot{
		ID:       "slot-1",
		TenantID: testTenant,
		ShiftID:  &shift.ID,
		SlotType: models.SlotTeaching,
	}

	err = svc.DeleteShift(ctx, testTenant, shift.ID)
	if !errors.Is(err, response.ErrInUse) {
		t.Fatalf("DeleteShift: expected ErrInUse, got %v", err)
	}

	delete(store.slots, "slot-1")

	if err := svc.DeleteShift(ctx, testTenant, shift.ID); err != nil {
		t.Fatalf("DeleteShift after unreferencing: %v", err)
	}
}

func TestUpdateDayPatternPartial(t *testing.T) {
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

	updated, err := svc.UpdateDayPattern(ctx, testTenant, pattern.ID, &api.DayPatternPatch{
		TotalPeriods: intPtr(6),
	})
	if err != nil {
		t.Fatalf("UpdateDayPattern: %v", err)
	}

	if updated.TotalPeriods != 6 {
		t.Errorf("UpdateDayPattern: total_periods = %d, want 6", updated.TotalPeriods)
	}
	if updated.Name != "Regular Day" {
		t.Errorf("UpdateDayPattern: name changed to %q", updated.Name)
	}
}

func TestDeleteDayPatternInUse(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	pattern, err := svc.CreateDayPattern(ctx, testTenant, &api.DayPatternRequest{
		Code:         "REGULAR",
		Name:         "Regular Day",
		TotalPeriods: 8,
	})
	if err != nil {
		t.Fatalf("CreateDayPattern: %v", err)
	}

	store.plans[planKey("branch-1", 1)] = &models.DayPlan{
		ID:           "plan-1",
		TenantID:     testTenant,
		BranchID:     "branch-1",
		DayOfWeek:    1,
		DayPatternID: &pattern.ID,
		IsWorkingDay: true,
	}

	err = svc.DeleteDayPattern(ctx, testTenant, pattern.ID)
	if !errors.Is(err, response.ErrInUse) {
		t.Fatalf("DeleteDayPattern: expected ErrInUse, got %v", err)
	}
}

func TestCreatePeriodSlot(t *testing.T) {
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

	slot, err := svc.CreatePeriodSlot(ctx, testTenant, &api.PeriodSlotRequest{
		DayPatternID: &pattern.ID,
		PeriodNumber: intPtr(1),
		SlotType:     "teaching",
		StartTime:    "08:00",
		EndTime:      "08:45",
	})
	if err != nil {
		t.Fatalf("CreatePeriodSlot: %v", err)
	}

	if slot.DurationMinutes != 45 {
		t.Errorf("CreatePeriodSlot: duration = %d, want 45", slot.DurationMinutes)
	}
}

func TestCreatePeriodSlotUnknownPattern(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreatePeriodSlot(context.Background(), testTenant, &api.PeriodSlotRequest{
		DayPatternID: strPtr("missing"),
		SlotType:     "break",
		StartTime:    "10:00",
		EndTime:      "10:15",
	})
	if !errors.Is(err, response.ErrNotFound) {
		t.Fatalf("CreatePeriodSlot: expected ErrNotFound, got %v", err)
	}
}
