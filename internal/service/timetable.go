package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"timetable-service/api"
	"timetable-service/internal/models"
	"timetable-service/pkg/response"
)

func timetableResponse(m *models.Timetable, entries []*models.TimetableEntry) *api.TimetableResponse {
	resp := &api.TimetableResponse{
		ID:             m.ID,
		BranchID:       m.BranchID,
		SectionID:      m.SectionID,
		AcademicYearID: m.AcademicYearID,
		Name:           m.Name,
		Description:    m.Description,
		Status:         string(m.Status),
		PublishedBy:    m.PublishedBy,
		PublishedAt:    m.PublishedAt,
	}

	if m.EffectiveFrom != nil {
		from := m.EffectiveFrom.Format("2006-01-02")
		resp.EffectiveFrom = &from
	}
	if m.EffectiveTo != nil {
		to := m.EffectiveTo.Format("2006-01-02")
		resp.EffectiveTo = &to
	}

	for _, e := range entries {
		resp.Entries = append(resp.Entries, *entryResponse(e))
	}

	return resp
}

func entryResponse(m *models.TimetableEntry) *api.EntryResponse {
	return &api.EntryResponse{
		ID:           m.ID,
		TimetableID:  m.TimetableID,
		DayOfWeek:    m.DayOfWeek,
		PeriodSlotID: m.PeriodSlotID,
		SubjectID:    m.SubjectID,
		TeacherID:    m.TeacherID,
		RoomID:       m.RoomID,
		IsFreePeriod: m.IsFreePeriod,
		Notes:        m.Notes,
	}
}

func parseEffectiveDates(op string, from, to *string) (*time.Time, *time.Time, error) {
	var fromT, toT *time.Time

	if from != nil {
		d, err := parseDate(op, *from)
		if err != nil {
			return nil, nil, err
		}
		fromT = &d
	}
	if to != nil {
		d, err := parseDate(op, *to)
		if err != nil {
			return nil, nil, err
		}
		toT = &d
	}

	if fromT != nil && toT != nil && toT.Before(*fromT) {
		return nil, nil, fmt.Errorf("%s: effective_to is before effective_from", op)
	}

	return fromT, toT, nil
}

// requireDraft loads the timetable and rejects any mutation of a
// published or archived version.
func (s *Service) requireDraft(ctx context.Context, op, tenantID, id string) (*models.Timetable, error) {
	timetable, err := s.store.GetTimetable(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if timetable.Status != models.TimetableDraft {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotDraft)
	}

	return timetable, nil
}

func (s *Service) CreateTimetable(ctx context.Context, tenantID string, req *api.TimetableRequest) (*api.TimetableResponse, error) {
	const op = "service.CreateTimetable"

	fromT, toT, err := parseEffectiveDates(op, req.EffectiveFrom, req.EffectiveTo)
	if err != nil {
		return nil, err
	}

	timetable := &models.Timetable{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		BranchID:       req.BranchID,
		SectionID:      req.SectionID,
		AcademicYearID: req.AcademicYearID,
		Name:           req.Name,
		Description:    req.Description,
		Status:         models.TimetableDraft,
		EffectiveFrom:  fromT,
		EffectiveTo:    toT,
	}

	if err := s.store.CreateTimetable(ctx, timetable); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return timetableResponse(timetable, nil), nil
}

func (s *Service) GetTimetable(ctx context.Context, tenantID, id string) (*api.TimetableResponse, error) {
	const op = "service.GetTimetable"

	timetable, err := s.store.GetTimetable(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries, err := s.store.ListEntries(ctx, timetable.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return timetableResponse(timetable, entries), nil
}

func (s *Service) GetPublishedForSection(ctx context.Context, tenantID, sectionID, academicYearID string) (*api.TimetableResponse, error) {
	const op = "service.GetPublishedForSection"

	timetable, err := s.store.GetPublishedTimetable(ctx, tenantID, sectionID, academicYearID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries, err := s.store.ListEntries(ctx, timetable.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return timetableResponse(timetable, entries), nil
}

func (s *Service) UpdateTimetable(ctx context.Context, tenantID, id string, patch *api.TimetablePatch) (*api.TimetableResponse, error) {
	const op = "service.UpdateTimetable"

	timetable, err := s.requireDraft(ctx, op, tenantID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		timetable.Name = *patch.Name
	}
	if patch.Description != nil {
		timetable.Description = patch.Description
	}

	from := patch.EffectiveFrom
	to := patch.EffectiveTo
	if from == nil && timetable.EffectiveFrom != nil {
		f := timetable.EffectiveFrom.Format("2006-01-02")
		from = &f
	}
	if to == nil && timetable.EffectiveTo != nil {
		t := timetable.EffectiveTo.Format("2006-01-02")
		to = &t
	}

	fromT, toT, err := parseEffectiveDates(op, from, to)
	if err != nil {
		return nil, err
	}
	timetable.EffectiveFrom = fromT
	timetable.EffectiveTo = toT

	if err := s.store.UpdateTimetable(ctx, timetable); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return timetableResponse(timetable, nil), nil
}

// PublishTimetable archives every other published timetable for the
// section/year and marks this one published, in one transaction. A
// reader must never observe two published timetables for one
// section/year.
func (s *Service) PublishTimetable(ctx context.Context, tenantID, id string, req *api.PublishRequest) (*api.TimetableResponse, error) {
	const op = "service.PublishTimetable"

	timetable, err := s.store.GetTimetable(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if timetable.Status != models.TimetableDraft {
		return nil, fmt.Errorf("%s: %w", op, response.ErrAlreadyPublished)
	}

	lockKey := fmt.Sprintf("publish:%s:%s:%s", tenantID, timetable.SectionID, timetable.AcademicYearID)

	locked, err := s.locker.Lock(ctx, lockKey, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	// Drafts are allowed to hold entries that clash with the currently
	// published version of another section's grid; the clash becomes
	// real only at publish time, so re-check every teacher here.
	entries, err := s.store.ListEntries(ctx, timetable.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, e := range entries {
		if e.TeacherID == nil {
			continue
		}

		conflicts, err := s.store.FindTeacherConflicts(ctx, tenantID, *e.TeacherID, e.DayOfWeek, e.PeriodSlotID, &timetable.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		for _, c := range conflicts {
			// Commitments held by the outgoing version of this same
			// section/year are archived in the same transaction, so they
			// do not block the replacement.
			if c.SectionID == timetable.SectionID && c.AcademicYearID == timetable.AcademicYearID {
				continue
			}
			return nil, fmt.Errorf("%s: teacher %s at day %d: %w", op, *e.TeacherID, e.DayOfWeek, response.ErrTeacherConflict)
		}
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := s.store.ArchivePublishedTx(ctx, tx, tenantID, timetable.SectionID, timetable.AcademicYearID, timetable.ID); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.PublishTimetableTx(ctx, tx, tenantID, timetable.ID, req.PublishedBy, time.Now().UTC()); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetTimetable(ctx, tenantID, id)
}

// ArchiveTimetable is legal from any state; it backs both the publish
// side effect and the standalone administrative action.
func (s *Service) ArchiveTimetable(ctx context.Context, tenantID, id string) (*api.TimetableResponse, error) {
	const op = "service.ArchiveTimetable"

	if err := s.store.SetTimetableStatus(ctx, tenantID, id, models.TimetableArchived); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetTimetable(ctx, tenantID, id)
}

func (s *Service) DeleteTimetable(ctx context.Context, tenantID, id string) error {
	const op = "service.DeleteTimetable"

	if _, err := s.requireDraft(ctx, op, tenantID, id); err != nil {
		return err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := s.store.DeleteTimetableTx(ctx, tx, tenantID, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

// UpsertEntry writes one grid cell after the conflict detector clears
// the teacher. The lock closes the race between the check and the
// commit for two drafts targeting the same teacher/day/slot.
func (s *Service) UpsertEntry(ctx context.Context, tenantID, timetableID string, req *api.EntryRequest) (*api.EntryResponse, error) {
	const op = "service.UpsertEntry"

	timetable, err := s.requireDraft(ctx, op, tenantID, timetableID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetPeriodSlot(ctx, tenantID, req.PeriodSlotID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.TeacherID != nil {
		lockKey := fmt.Sprintf("entry:%s:%s:%d:%s", tenantID, *req.TeacherID, req.DayOfWeek, req.PeriodSlotID)

		locked, err := s.locker.Lock(ctx, lockKey, lockTTL)
		if err != nil {
			return nil, fmt.Errorf("%s: lock error: %w", op, err)
		}
		if !locked {
			return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
		}
		defer func() {
			_ = s.locker.Unlock(ctx, lockKey)
		}()

		conflicts, err := s.store.FindTeacherConflicts(ctx, tenantID, *req.TeacherID, req.DayOfWeek, req.PeriodSlotID, &timetable.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		for _, c := range conflicts {
			// The published version of this same section/year is replaced
			// when the draft publishes; holding the same assignment there
			// is not a clash.
			if c.SectionID == timetable.SectionID && c.AcademicYearID == timetable.AcademicYearID {
				continue
			}
			return nil, fmt.Errorf("%s: %w", op, response.ErrTeacherConflict)
		}
	}

	entry := &models.TimetableEntry{
		ID:           uuid.NewString(),
		TimetableID:  timetable.ID,
		DayOfWeek:    req.DayOfWeek,
		PeriodSlotID: req.PeriodSlotID,
		SubjectID:    req.SubjectID,
		TeacherID:    req.TeacherID,
		RoomID:       req.RoomID,
		IsFreePeriod: req.IsFreePeriod,
		Notes:        req.Notes,
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	id, err := s.store.UpsertEntryTx(ctx, tx, entry)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	entry.ID = id

	return entryResponse(entry), nil
}

// BulkUpsertEntries proceeds entry by entry and stops on the first
// failure, reporting which entry failed; already committed entries are
// kept.
func (s *Service) BulkUpsertEntries(ctx context.Context, tenantID, timetableID string, req *api.BulkEntriesRequest) ([]*api.EntryResponse, error) {
	const op = "service.BulkUpsertEntries"

	result := make([]*api.EntryResponse, 0, len(req.Entries))

	for i := range req.Entries {
		entry, err := s.UpsertEntry(ctx, tenantID, timetableID, &req.Entries[i])
		if err != nil {
			return nil, fmt.Errorf("%s: entry %d (day %d, slot %s): %w",
				op, i, req.Entries[i].DayOfWeek, req.Entries[i].PeriodSlotID, err)
		}

		result = append(result, entry)
	}

	return result, nil
}

func (s *Service) DeleteEntry(ctx context.Context, tenantID, timetableID, entryID string) error {
	const op = "service.DeleteEntry"

	if _, err := s.requireDraft(ctx, op, tenantID, timetableID); err != nil {
		return err
	}

	if err := s.store.DeleteEntry(ctx, timetableID, entryID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// GetTeacherSchedule returns the teacher's entries across published
// timetables only, ordered by (day of week, period slot).
func (s *Service) GetTeacherSchedule(ctx context.Context, tenantID, teacherID, academicYearID string) (*api.TeacherScheduleResponse, error) {
	const op = "service.GetTeacherSchedule"

	schedule, err := s.store.GetTeacherSchedule(ctx, tenantID, teacherID, academicYearID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]api.ScheduleEntryResponse, 0, len(schedule))
	for _, c := range schedule {
		items = append(items, scheduleEntryResponse(c))
	}

	return &api.TeacherScheduleResponse{
		TeacherID: teacherID,
		Items:     items,
		Total:     len(items),
	}, nil
}
