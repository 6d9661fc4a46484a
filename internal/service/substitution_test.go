package service

import (
	"context"
	"errors"
	"testing"

	"timetable-service/api"
	"timetable-service/internal/models"
	"timetable-service/pkg/response"
)

// 2026-09-07 is a Monday, so entries at day_of_week 1 apply.
const testDate = "2026-09-07"

func subRequest(original, substitute string) *api.SubstitutionRequest {
	return &api.SubstitutionRequest{
		BranchID:            "branch-1",
		OriginalTeacherID:   original,
		SubstituteTeacherID: substitute,
		Date:                testDate,
		Reason:              strPtr("sick leave"),
		Periods: []api.SubstitutionPeriodRequest{
			{PeriodSlotID: "slot-1"},
		},
	}
}

func TestCreateSubstitutionPending(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	seedPublished(store, "tt-1", "section-1", "teacher-1", "slot-1", 1)

	sub, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-2"))
	if err != nil {
		t.Fatalf("CreateSubstitution: %v", err)
	}

	if sub.Status != string(models.SubstitutionPending) {
		t.Errorf("CreateSubstitution: status = %s, want pending", sub.Status)
	}
	if len(sub.Periods) != 1 {
		t.Errorf("CreateSubstitution: %d periods, want 1", len(sub.Periods))
	}
	if sub.Date != testDate {
		t.Errorf("CreateSubstitution: date = %s", sub.Date)
	}
}

func TestCreateSubstitutionDuplicateCoverage(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")

	if _, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-2")); err != nil {
		t.Fatalf("CreateSubstitution: %v", err)
	}

	// Same absence, same period, different substitute.
	_, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-3"))
	if !errors.Is(err, response.ErrSubstitutionConflict) {
		t.Fatalf("CreateSubstitution duplicate: expected ErrSubstitutionConflict, got %v", err)
	}
}

func TestCreateSubstitutionSubstituteTeaching(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	// The would-be substitute already teaches at Monday slot-1.
	seedPublished(store, "tt-1", "section-1", "teacher-2", "slot-1", 1)

	_, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-2"))
	if !errors.Is(err, response.ErrSubstituteConflict) {
		t.Fatalf("CreateSubstitution: expected ErrSubstituteConflict, got %v", err)
	}
}

func TestCreateSubstitutionSubstituteAlreadyBooked(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")

	if _, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-2")); err != nil {
		t.Fatalf("CreateSubstitution: %v", err)
	}

	// teacher-2 is already covering slot-1 that day for teacher-1.
	_, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-3", "teacher-2"))
	if !errors.Is(err, response.ErrSubstituteConflict) {
		t.Fatalf("CreateSubstitution booked substitute: expected ErrSubstituteConflict, got %v", err)
	}
}

func TestCreateSubstitutionEmptyPeriods(t *testing.T) {
	svc, _, _ := newTestService()

	req := subRequest("teacher-1", "teacher-2")
	req.Periods = nil

	_, err := svc.CreateSubstitution(context.Background(), testTenant, req)
	if !errors.Is(err, response.ErrBadRequest) {
		t.Fatalf("CreateSubstitution empty periods: expected ErrBadRequest, got %v", err)
	}
}

func TestCreateSubstitutionLocksBothTeachers(t *testing.T) {
	svc, store, locker := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")

	if _, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-2")); err != nil {
		t.Fatalf("CreateSubstitution: %v", err)
	}

	want := map[string]bool{
		"sub:" + testTenant + ":teacher-2:" + testDate: false,
		"sub:" + testTenant + ":teacher-1:" + testDate: false,
	}
	for _, key := range locker.locks {
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for key, seen := range want {
		if !seen {
			t.Errorf("CreateSubstitution: lock %s not taken", key)
		}
	}
}

func TestCreateSubstitutionSerializesOnAbsentTeacher(t *testing.T) {
	svc, store, locker := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")

	// Another create covering the same absence holds the absent
	// teacher's lock; this one must back off instead of racing the
	// overlap check.
	held := "sub:" + testTenant + ":teacher-1:" + testDate
	if ok, err := locker.Lock(ctx, held, lockTTL); err != nil || !ok {
		t.Fatalf("Lock: ok=%v err=%v", ok, err)
	}

	_, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-3"))
	if !errors.Is(err, response.ErrLocked) {
		t.Fatalf("CreateSubstitution: expected ErrLocked, got %v", err)
	}

	if err := locker.Unlock(ctx, held); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	if _, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-3")); err != nil {
		t.Fatalf("CreateSubstitution after release: %v", err)
	}
}

func TestCreateSubstitutionDuplicateSlotInRequest(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")

	req := subRequest("teacher-1", "teacher-2")
	req.Periods = append(req.Periods, api.SubstitutionPeriodRequest{PeriodSlotID: "slot-1"})

	_, err := svc.CreateSubstitution(ctx, testTenant, req)
	if !errors.Is(err, response.ErrBadRequest) {
		t.Fatalf("CreateSubstitution: expected ErrBadRequest, got %v", err)
	}
}

func TestConfirmSubstitution(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")

	sub, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-2"))
	if err != nil {
		t.Fatalf("CreateSubstitution: %v", err)
	}

	confirmed, err := svc.ConfirmSubstitution(ctx, testTenant, sub.ID, &api.ConfirmRequest{ApprovedBy: "admin-1"})
	if err != nil {
		t.Fatalf("ConfirmSubstitution: %v", err)
	}

	if confirmed.Status != string(models.SubstitutionConfirmed) {
		t.Errorf("ConfirmSubstitution: status = %s", confirmed.Status)
	}
	if confirmed.ApprovedBy == nil || *confirmed.ApprovedBy != "admin-1" {
		t.Error("ConfirmSubstitution: approver not recorded")
	}
	if confirmed.ApprovedAt == nil {
		t.Error("ConfirmSubstitution: approval time not recorded")
	}

	_, err = svc.ConfirmSubstitution(ctx, testTenant, sub.ID, &api.ConfirmRequest{ApprovedBy: "admin-2"})
	if !errors.Is(err, response.ErrNotPending) {
		t.Fatalf("ConfirmSubstitution twice: expected ErrNotPending, got %v", err)
	}
}

func TestCancelSubstitution(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")

	sub, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-2"))
	if err != nil {
		t.Fatalf("CreateSubstitution: %v", err)
	}

	if _, err := svc.ConfirmSubstitution(ctx, testTenant, sub.ID, &api.ConfirmRequest{ApprovedBy: "admin-1"}); err != nil {
		t.Fatalf("ConfirmSubstitution: %v", err)
	}

	cancelled, err := svc.CancelSubstitution(ctx, testTenant, sub.ID)
	if err != nil {
		t.Fatalf("CancelSubstitution: %v", err)
	}
	if cancelled.Status != string(models.SubstitutionCancelled) {
		t.Errorf("CancelSubstitution: status = %s", cancelled.Status)
	}

	_, err = svc.CancelSubstitution(ctx, testTenant, sub.ID)
	if !errors.Is(err, response.ErrNotCancellable) {
		t.Fatalf("CancelSubstitution twice: expected ErrNotCancellable, got %v", err)
	}
}

func TestCancelledCoverageFreesTheSlot(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")

	first, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-2"))
	if err != nil {
		t.Fatalf("CreateSubstitution: %v", err)
	}

	if _, err := svc.CancelSubstitution(ctx, testTenant, first.ID); err != nil {
		t.Fatalf("CancelSubstitution: %v", err)
	}

	// The absence can be covered again once the first attempt is
	// cancelled, even by the same substitute.
	if _, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-2")); err != nil {
		t.Fatalf("CreateSubstitution after cancel: %v", err)
	}
}

func TestDeleteSubstitutionNotPending(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")

	sub, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-2"))
	if err != nil {
		t.Fatalf("CreateSubstitution: %v", err)
	}

	if _, err := svc.ConfirmSubstitution(ctx, testTenant, sub.ID, &api.ConfirmRequest{ApprovedBy: "admin-1"}); err != nil {
		t.Fatalf("ConfirmSubstitution: %v", err)
	}

	err = svc.DeleteSubstitution(ctx, testTenant, sub.ID)
	if !errors.Is(err, response.ErrNotPending) {
		t.Fatalf("DeleteSubstitution: expected ErrNotPending, got %v", err)
	}
}

func TestDeleteSubstitutionRemovesPeriods(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")

	sub, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-2"))
	if err != nil {
		t.Fatalf("CreateSubstitution: %v", err)
	}

	if err := svc.DeleteSubstitution(ctx, testTenant, sub.ID); err != nil {
		t.Fatalf("DeleteSubstitution: %v", err)
	}

	if _, err := svc.GetSubstitution(ctx, testTenant, sub.ID); !errors.Is(err, response.ErrNotFound) {
		t.Fatalf("GetSubstitution after delete: expected ErrNotFound, got %v", err)
	}
	if periods := store.subPeriods[sub.ID]; len(periods) != 0 {
		t.Errorf("DeleteSubstitution: %d periods left behind", len(periods))
	}
}

func TestUpdateSubstitutionRechecksNewSubstitute(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	// teacher-3 teaches at Monday slot-1.
	seedPublished(store, "tt-1", "section-1", "teacher-3", "slot-1", 1)

	sub, err := svc.CreateSubstitution(ctx, testTenant, subRequest("teacher-1", "teacher-2"))
	if err != nil {
		t.Fatalf("CreateSubstitution: %v", err)
	}

	_, err = svc.UpdateSubstitution(ctx, testTenant, sub.ID, &api.SubstitutionPatch{
		SubstituteTeacherID: strPtr("teacher-3"),
	})
	if !errors.Is(err, response.ErrSubstituteConflict) {
		t.Fatalf("UpdateSubstitution: expected ErrSubstituteConflict, got %v", err)
	}
}

func TestGetAvailableTeachers(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	seedPublished(store, "tt-1", "section-1", "teacher-1", "slot-1", 1)
	seedPublished(store, "tt-2", "section-2", "teacher-3", "slot-1", 1)

	pattern := &models.DayPattern{ID: "pattern-1", TenantID: testTenant, Code: "REG", Name: "Regular", TotalPeriods: 6, IsActive: true}
	store.patterns[pattern.ID] = pattern
	store.plans[planKey("branch-1", 1)] = &models.DayPlan{
		ID: "plan-1", TenantID: testTenant, BranchID: "branch-1",
		DayOfWeek: 1, DayPatternID: &pattern.ID, IsWorkingDay: true,
	}

	store.staff = []*models.StaffMember{
		{ID: "teacher-1", Name: "Original", BranchID: "branch-1"},
		{ID: "teacher-2", Name: "Free", BranchID: "branch-1"},
		{ID: "teacher-3", Name: "Busy", BranchID: "branch-1"},
	}

	avail, err := svc.GetAvailableTeachers(ctx, testTenant, "branch-1", testDate, []string{"slot-1"}, "teacher-1")
	if err != nil {
		t.Fatalf("GetAvailableTeachers: %v", err)
	}

	if avail.Total != 2 {
		t.Fatalf("GetAvailableTeachers: total = %d, want 2 (absent teacher excluded)", avail.Total)
	}

	byID := make(map[string]api.TeacherAvailabilityResponse, avail.Total)
	for _, item := range avail.Items {
		byID[item.TeacherID] = item
	}

	free := byID["teacher-2"]
	if free.HasConflict {
		t.Error("GetAvailableTeachers: teacher-2 should be conflict free")
	}
	if free.TotalPeriods != 6 || free.FreePeriods != 6 {
		t.Errorf("GetAvailableTeachers: teacher-2 periods %d/%d, want 6/6", free.FreePeriods, free.TotalPeriods)
	}

	busy := byID["teacher-3"]
	if !busy.HasConflict {
		t.Error("GetAvailableTeachers: teacher-3 teaches at the slot, expected conflict")
	}
	if busy.CommittedPeriods != 1 || busy.FreePeriods != 5 {
		t.Errorf("GetAvailableTeachers: teacher-3 committed=%d free=%d, want 1/5", busy.CommittedPeriods, busy.FreePeriods)
	}
}

func TestGetAvailableTeachersDefaultDenominator(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	store.staff = []*models.StaffMember{
		{ID: "teacher-2", Name: "Free", BranchID: "branch-1"},
	}

	avail, err := svc.GetAvailableTeachers(ctx, testTenant, "branch-1", testDate, []string{"slot-1"}, "")
	if err != nil {
		t.Fatalf("GetAvailableTeachers: %v", err)
	}

	if avail.Items[0].TotalPeriods != defaultDayPeriods {
		t.Errorf("GetAvailableTeachers: total = %d, want default %d", avail.Items[0].TotalPeriods, defaultDayPeriods)
	}
}

func TestGetAvailableTeachersDayPlanStoreError(t *testing.T) {
	svc, store, _ := newTestService()

	seedSlot(store, "slot-1")
	store.staff = []*models.StaffMember{
		{ID: "teacher-2", Name: "Free", BranchID: "branch-1"},
	}
	store.planErr = errors.New("connection reset")

	_, err := svc.GetAvailableTeachers(context.Background(), testTenant, "branch-1", testDate, []string{"slot-1"}, "")
	if err == nil || !errors.Is(err, store.planErr) {
		t.Fatalf("GetAvailableTeachers: expected store error to propagate, got %v", err)
	}
}

func TestGetTeacherAbsencePeriods(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	seedPublished(store, "tt-1", "section-1", "teacher-1", "slot-1", 1)

	absence, err := svc.GetTeacherAbsencePeriods(ctx, testTenant, "teacher-1", testDate)
	if err != nil {
		t.Fatalf("GetTeacherAbsencePeriods: %v", err)
	}

	if absence.DayOfWeek != 1 {
		t.Errorf("GetTeacherAbsencePeriods: day_of_week = %d, want 1", absence.DayOfWeek)
	}
	if absence.Total != 1 {
		t.Fatalf("GetTeacherAbsencePeriods: total = %d, want 1", absence.Total)
	}
	if absence.Items[0].PeriodSlotID != "slot-1" {
		t.Error("GetTeacherAbsencePeriods: wrong period returned")
	}
}
