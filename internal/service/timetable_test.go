package service

import (
	"context"
	"errors"
	"testing"

	"timetable-service/api"
	"timetable-service/internal/models"
	"timetable-service/pkg/response"
)

func seedSlot(store *fakeStore, id string) {
	store.slots[id] = &models.PeriodSlot{
		ID:        id,
		TenantID:  testTenant,
		SlotType:  models.SlotTeaching,
		StartTime: "08:00:00",
		EndTime:   "08:45:00",
		IsActive:  true,
	}
}

func seedPublished(store *fakeStore, ttID, sectionID, teacherID, slotID string, dayOfWeek int) {
	store.timetables[ttID] = &models.Timetable{
		ID:             ttID,
		TenantID:       testTenant,
		BranchID:       "branch-1",
		SectionID:      sectionID,
		AcademicYearID: "year-1",
		Name:           sectionID + " grid",
		Status:         models.TimetablePublished,
	}
	store.entries[ttID+"-e1"] = &models.TimetableEntry{
		ID:           ttID + "-e1",
		TimetableID:  ttID,
		DayOfWeek:    dayOfWeek,
		PeriodSlotID: slotID,
		TeacherID:    &teacherID,
	}
}

func createDraft(t *testing.T, svc *Service, sectionID string) *api.TimetableResponse {
	t.Helper()

	draft, err := svc.CreateTimetable(context.Background(), testTenant, &api.TimetableRequest{
		BranchID:       "branch-1",
		SectionID:      sectionID,
		AcademicYearID: "year-1",
		Name:           sectionID + " draft",
	})
	if err != nil {
		t.Fatalf("CreateTimetable: %v", err)
	}

	return draft
}

func TestCreateTimetableStartsDraft(t *testing.T) {
	svc, _, _ := newTestService()

	draft := createDraft(t, svc, "section-1")

	if draft.Status != string(models.TimetableDraft) {
		t.Fatalf("CreateTimetable: status = %s, want draft", draft.Status)
	}
}

func TestUpdateTimetableNotDraft(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	draft := createDraft(t, svc, "section-1")
	store.timetables[draft.ID].Status = models.TimetablePublished

	_, err := svc.UpdateTimetable(ctx, testTenant, draft.ID, &api.TimetablePatch{
		Name: strPtr("renamed"),
	})
	if !errors.Is(err, response.ErrNotDraft) {
		t.Fatalf("UpdateTimetable: expected ErrNotDraft, got %v", err)
	}
}

func TestUpsertEntryIdempotent(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	draft := createDraft(t, svc, "section-1")

	req := &api.EntryRequest{
		DayOfWeek:    1,
		PeriodSlotID: "slot-1",
		TeacherID:    strPtr("teacher-1"),
		SubjectID:    strPtr("subject-1"),
	}

	first, err := svc.UpsertEntry(ctx, testTenant, draft.ID, req)
	if err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	req.SubjectID = strPtr("subject-2")
	second, err := svc.UpsertEntry(ctx, testTenant, draft.ID, req)
	if err != nil {
		t.Fatalf("UpsertEntry repeat: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("UpsertEntry: id changed %s -> %s", first.ID, second.ID)
	}
	if len(store.entries) != 1 {
		t.Errorf("UpsertEntry: %d entries stored, want 1", len(store.entries))
	}
	if *store.entries[first.ID].SubjectID != "subject-2" {
		t.Error("UpsertEntry: repeat did not overwrite the cell")
	}
}

func TestUpsertEntryConflictWithPublished(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	seedPublished(store, "tt-other", "section-2", "teacher-1", "slot-1", 1)
	draft := createDraft(t, svc, "section-1")

	_, err := svc.UpsertEntry(ctx, testTenant, draft.ID, &api.EntryRequest{
		DayOfWeek:    1,
		PeriodSlotID: "slot-1",
		TeacherID:    strPtr("teacher-1"),
	})
	if !errors.Is(err, response.ErrTeacherConflict) {
		t.Fatalf("UpsertEntry: expected ErrTeacherConflict, got %v", err)
	}
}

func TestUpsertEntryAllowsOwnSectionCommitment(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	// The section's current published version holds the same assignment.
	seedPublished(store, "tt-old", "section-1", "teacher-1", "slot-1", 1)
	draft := createDraft(t, svc, "section-1")

	if _, err := svc.UpsertEntry(ctx, testTenant, draft.ID, &api.EntryRequest{
		DayOfWeek:    1,
		PeriodSlotID: "slot-1",
		TeacherID:    strPtr("teacher-1"),
	}); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}
}

func TestUpsertEntryIgnoresDraftCommitments(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	seedPublished(store, "tt-other", "section-2", "teacher-1", "slot-1", 1)
	store.timetables["tt-other"].Status = models.TimetableDraft

	draft := createDraft(t, svc, "section-1")

	if _, err := svc.UpsertEntry(ctx, testTenant, draft.ID, &api.EntryRequest{
		DayOfWeek:    1,
		PeriodSlotID: "slot-1",
		TeacherID:    strPtr("teacher-1"),
	}); err != nil {
		t.Fatalf("UpsertEntry: drafts must not count as commitments: %v", err)
	}
}

func TestUpsertEntryLockDenied(t *testing.T) {
	svc, store, locker := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	draft := createDraft(t, svc, "section-1")

	locker.deny = true

	_, err := svc.UpsertEntry(ctx, testTenant, draft.ID, &api.EntryRequest{
		DayOfWeek:    1,
		PeriodSlotID: "slot-1",
		TeacherID:    strPtr("teacher-1"),
	})
	if !errors.Is(err, response.ErrLocked) {
		t.Fatalf("UpsertEntry: expected ErrLocked, got %v", err)
	}
}

func TestPublishArchivesPreviousVersion(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	seedPublished(store, "tt-old", "section-1", "teacher-1", "slot-1", 1)

	draft := createDraft(t, svc, "section-1")
	if _, err := svc.UpsertEntry(ctx, testTenant, draft.ID, &api.EntryRequest{
		DayOfWeek:    1,
		PeriodSlotID: "slot-1",
		TeacherID:    strPtr("teacher-1"),
	}); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	published, err := svc.PublishTimetable(ctx, testTenant, draft.ID, &api.PublishRequest{
		PublishedBy: "admin-1",
	})
	if err != nil {
		t.Fatalf("PublishTimetable: %v", err)
	}

	if published.Status != string(models.TimetablePublished) {
		t.Fatalf("PublishTimetable: status = %s", published.Status)
	}
	if published.PublishedBy == nil || *published.PublishedBy != "admin-1" {
		t.Error("PublishTimetable: published_by not recorded")
	}
	if store.timetables["tt-old"].Status != models.TimetableArchived {
		t.Error("PublishTimetable: previous published version not archived")
	}

	current, err := svc.GetPublishedForSection(ctx, testTenant, "section-1", "year-1")
	if err != nil {
		t.Fatalf("GetPublishedForSection: %v", err)
	}
	if current.ID != draft.ID {
		t.Errorf("GetPublishedForSection: got %s, want %s", current.ID, draft.ID)
	}
}

func TestPublishTwice(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	draft := createDraft(t, svc, "section-1")

	if _, err := svc.PublishTimetable(ctx, testTenant, draft.ID, &api.PublishRequest{PublishedBy: "admin-1"}); err != nil {
		t.Fatalf("PublishTimetable: %v", err)
	}

	_, err := svc.PublishTimetable(ctx, testTenant, draft.ID, &api.PublishRequest{PublishedBy: "admin-1"})
	if !errors.Is(err, response.ErrAlreadyPublished) {
		t.Fatalf("PublishTimetable twice: expected ErrAlreadyPublished, got %v", err)
	}
}

func TestPublishRechecksConflicts(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	draft := createDraft(t, svc, "section-1")

	if _, err := svc.UpsertEntry(ctx, testTenant, draft.ID, &api.EntryRequest{
		DayOfWeek:    1,
		PeriodSlotID: "slot-1",
		TeacherID:    strPtr("teacher-1"),
	}); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	// Another section grabs the teacher and publishes after the draft
	// entry was accepted.
	seedPublished(store, "tt-other", "section-2", "teacher-1", "slot-1", 1)

	_, err := svc.PublishTimetable(ctx, testTenant, draft.ID, &api.PublishRequest{PublishedBy: "admin-1"})
	if !errors.Is(err, response.ErrTeacherConflict) {
		t.Fatalf("PublishTimetable: expected ErrTeacherConflict, got %v", err)
	}

	if store.timetables[draft.ID].Status != models.TimetableDraft {
		t.Error("PublishTimetable: failed publish must leave the draft untouched")
	}
}

func TestDeleteTimetableRemovesEntries(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	draft := createDraft(t, svc, "section-1")

	if _, err := svc.UpsertEntry(ctx, testTenant, draft.ID, &api.EntryRequest{
		DayOfWeek:    2,
		PeriodSlotID: "slot-1",
	}); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	if err := svc.DeleteTimetable(ctx, testTenant, draft.ID); err != nil {
		t.Fatalf("DeleteTimetable: %v", err)
	}

	if len(store.entries) != 0 {
		t.Error("DeleteTimetable: entries left behind")
	}
	if _, err := svc.GetTimetable(ctx, testTenant, draft.ID); !errors.Is(err, response.ErrNotFound) {
		t.Fatalf("GetTimetable after delete: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTimetablePublished(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	draft := createDraft(t, svc, "section-1")
	store.timetables[draft.ID].Status = models.TimetablePublished

	err := svc.DeleteTimetable(ctx, testTenant, draft.ID)
	if !errors.Is(err, response.ErrNotDraft) {
		t.Fatalf("DeleteTimetable: expected ErrNotDraft, got %v", err)
	}
}

func TestFindTeacherConflictsDayOutOfRange(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.FindTeacherConflicts(context.Background(), testTenant, "teacher-1", 7, "slot-1", nil)
	if !errors.Is(err, response.ErrBadRequest) {
		t.Fatalf("FindTeacherConflicts: expected ErrBadRequest, got %v", err)
	}
}

func TestGetTeacherSchedulePublishedOnly(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	seedSlot(store, "slot-1")
	seedPublished(store, "tt-pub", "section-1", "teacher-1", "slot-1", 1)
	seedPublished(store, "tt-draft", "section-2", "teacher-1", "slot-1", 2)
	store.timetables["tt-draft"].Status = models.TimetableDraft

	schedule, err := svc.GetTeacherSchedule(ctx, testTenant, "teacher-1", "year-1")
	if err != nil {
		t.Fatalf("GetTeacherSchedule: %v", err)
	}

	if schedule.Total != 1 {
		t.Fatalf("GetTeacherSchedule: total = %d, want 1", schedule.Total)
	}
	if schedule.Items[0].TimetableID != "tt-pub" {
		t.Error("GetTeacherSchedule: wrong commitment returned")
	}
}
