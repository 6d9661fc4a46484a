package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"timetable-service/api"
	"timetable-service/internal/models"
	"timetable-service/pkg/response"
)

func substitutionResponse(m *models.Substitution, periods []*models.SubstitutionPeriod) *api.SubstitutionResponse {
	resp := &api.SubstitutionResponse{
		ID:                  m.ID,
		BranchID:            m.BranchID,
		OriginalTeacherID:   m.OriginalTeacherID,
		SubstituteTeacherID: m.SubstituteTeacherID,
		Date:                m.Date.Format("2006-01-02"),
		Reason:              m.Reason,
		Notes:               m.Notes,
		Status:              string(m.Status),
		ApprovedBy:          m.ApprovedBy,
		ApprovedAt:          m.ApprovedAt,
	}

	for _, p := range periods {
		resp.Periods = append(resp.Periods, api.SubstitutionPeriodResponse{
			ID:               p.ID,
			PeriodSlotID:     p.PeriodSlotID,
			TimetableEntryID: p.TimetableEntryID,
			SubjectID:        p.SubjectID,
			SectionID:        p.SectionID,
			RoomID:           p.RoomID,
			Notes:            p.Notes,
		})
	}

	return resp
}

// checkSubstituteAvailable is the two-way availability check for a
// candidate substitute: published timetable entries on the weekday of
// the date, and other non-cancelled substitutions where the candidate
// is already the substitute. It reuses the conflict detector for the
// first leg so both write paths share one predicate.
func (s *Service) checkSubstituteAvailable(ctx context.Context, tenantID, teacherID string, date time.Time, slotIDs []string, excludeSubID *string) error {
	dayOfWeek := int(date.Weekday())

	for _, slotID := range slotIDs {
		conflicts, err := s.store.FindTeacherConflicts(ctx, tenantID, teacherID, dayOfWeek, slotID, nil)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return response.ErrSubstituteConflict
		}
	}

	busy, err := s.store.HasSubstituteOverlap(ctx, tenantID, teacherID, date, slotIDs, excludeSubID)
	if err != nil {
		return err
	}
	if busy {
		return response.ErrSubstituteConflict
	}

	return nil
}

func (s *Service) CreateSubstitution(ctx context.Context, tenantID string, req *api.SubstitutionRequest) (*api.SubstitutionResponse, error) {
	const op = "service.CreateSubstitution"

	date, err := parseDate(op, req.Date)
	if err != nil {
		return nil, err
	}

	if len(req.Periods) == 0 {
		return nil, fmt.Errorf("%s: empty period list: %w", op, response.ErrBadRequest)
	}

	slotIDs := make([]string, 0, len(req.Periods))
	seen := make(map[string]struct{}, len(req.Periods))

	for _, p := range req.Periods {
		if _, ok := seen[p.PeriodSlotID]; ok {
			return nil, fmt.Errorf("%s: duplicate period slot %s: %w", op, p.PeriodSlotID, response.ErrBadRequest)
		}
		seen[p.PeriodSlotID] = struct{}{}

		if _, err := s.store.GetPeriodSlot(ctx, tenantID, p.PeriodSlotID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		slotIDs = append(slotIDs, p.PeriodSlotID)
	}

	// Both sides of the check-then-write race: two creates booking the
	// same substitute, and two creates covering the same absence with
	// different substitutes. Each teacher/date pair gets its own lock.
	lockKeys := []string{
		fmt.Sprintf("sub:%s:%s:%s", tenantID, req.SubstituteTeacherID, req.Date),
	}
	if req.OriginalTeacherID != req.SubstituteTeacherID {
		lockKeys = append(lockKeys, fmt.Sprintf("sub:%s:%s:%s", tenantID, req.OriginalTeacherID, req.Date))
	}

	for _, lockKey := range lockKeys {
		lockKey := lockKey
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
	}

	// The same absence must not be covered twice.
	covered, err := s.store.HasOriginalOverlap(ctx, tenantID, req.OriginalTeacherID, date, slotIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if covered {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSubstitutionConflict)
	}

	if err := s.checkSubstituteAvailable(ctx, tenantID, req.SubstituteTeacherID, date, slotIDs, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sub := &models.Substitution{
		ID:                  uuid.NewString(),
		TenantID:            tenantID,
		BranchID:            req.BranchID,
		OriginalTeacherID:   req.OriginalTeacherID,
		SubstituteTeacherID: req.SubstituteTeacherID,
		Date:                date,
		Reason:              req.Reason,
		Notes:               req.Notes,
		Status:              models.SubstitutionPending,
	}

	periods := make([]*models.SubstitutionPeriod, 0, len(req.Periods))
	for _, p := range req.Periods {
		periods = append(periods, &models.SubstitutionPeriod{
			ID:               uuid.NewString(),
			SubstitutionID:   sub.ID,
			PeriodSlotID:     p.PeriodSlotID,
			TimetableEntryID: p.TimetableEntryID,
			SubjectID:        p.SubjectID,
			SectionID:        p.SectionID,
			RoomID:           p.RoomID,
			Notes:            p.Notes,
		})
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

	if err := s.store.CreateSubstitutionTx(ctx, tx, sub, periods); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return substitutionResponse(sub, periods), nil
}

func (s *Service) GetSubstitution(ctx context.Context, tenantID, id string) (*api.SubstitutionResponse, error) {
	const op = "service.GetSubstitution"

	sub, err := s.store.GetSubstitution(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	periods, err := s.store.ListSubstitutionPeriods(ctx, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return substitutionResponse(sub, periods), nil
}

func (s *Service) ListSubstitutions(ctx context.Context, tenantID string, f *models.SubstitutionFilters) (*api.SubstitutionListResponse, error) {
	const op = "service.ListSubstitutions"

	subs, err := s.store.ListSubstitutions(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]api.SubstitutionResponse, 0, len(subs))
	for _, sub := range subs {
		items = append(items, *substitutionResponse(sub, nil))
	}

	return &api.SubstitutionListResponse{Items: items, Total: len(items)}, nil
}

// UpdateSubstitution edits the substitute/reason/notes of a pending
// substitution. Changing the substitute re-runs the availability check
// against the new teacher. Status transitions go through Confirm/Cancel;
// a force-set via Status is allowed for authorized administrative
// corrections.
func (s *Service) UpdateSubstitution(ctx context.Context, tenantID, id string, patch *api.SubstitutionPatch) (*api.SubstitutionResponse, error) {
	const op = "service.UpdateSubstitution"

	sub, err := s.store.GetSubstitution(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	editing := patch.SubstituteTeacherID != nil || patch.Reason != nil || patch.Notes != nil
	if editing && sub.Status != models.SubstitutionPending {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotPending)
	}

	if patch.SubstituteTeacherID != nil && *patch.SubstituteTeacherID != sub.SubstituteTeacherID {
		periods, err := s.store.ListSubstitutionPeriods(ctx, sub.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		slotIDs := make([]string, 0, len(periods))
		for _, p := range periods {
			slotIDs = append(slotIDs, p.PeriodSlotID)
		}

		lockKey := fmt.Sprintf("sub:%s:%s:%s", tenantID, *patch.SubstituteTeacherID, sub.Date.Format("2006-01-02"))

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

		if err := s.checkSubstituteAvailable(ctx, tenantID, *patch.SubstituteTeacherID, sub.Date, slotIDs, &sub.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		sub.SubstituteTeacherID = *patch.SubstituteTeacherID
	}

	if patch.Reason != nil {
		sub.Reason = patch.Reason
	}
	if patch.Notes != nil {
		sub.Notes = patch.Notes
	}
	if patch.Status != nil {
		sub.Status = models.SubstitutionStatus(*patch.Status)
	}

	if err := s.store.UpdateSubstitution(ctx, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetSubstitution(ctx, tenantID, id)
}

func (s *Service) ConfirmSubstitution(ctx context.Context, tenantID, id string, req *api.ConfirmRequest) (*api.SubstitutionResponse, error) {
	const op = "service.ConfirmSubstitution"

	if _, err := s.store.GetSubstitution(ctx, tenantID, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()

	n, err := s.store.SetSubstitutionStatus(ctx, tenantID, id,
		[]string{string(models.SubstitutionPending)},
		models.SubstitutionConfirmed, &req.ApprovedBy, &now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotPending)
	}

	return s.GetSubstitution(ctx, tenantID, id)
}

func (s *Service) CancelSubstitution(ctx context.Context, tenantID, id string) (*api.SubstitutionResponse, error) {
	const op = "service.CancelSubstitution"

	if _, err := s.store.GetSubstitution(ctx, tenantID, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	n, err := s.store.SetSubstitutionStatus(ctx, tenantID, id,
		[]string{string(models.SubstitutionPending), string(models.SubstitutionConfirmed)},
		models.SubstitutionCancelled, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotCancellable)
	}

	return s.GetSubstitution(ctx, tenantID, id)
}

func (s *Service) DeleteSubstitution(ctx context.Context, tenantID, id string) error {
	const op = "service.DeleteSubstitution"

	sub, err := s.store.GetSubstitution(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if sub.Status != models.SubstitutionPending {
		return fmt.Errorf("%s: %w", op, response.ErrNotPending)
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

	if err := s.store.DeleteSubstitutionTx(ctx, tx, tenantID, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

// dayPeriodTotal derives the free-period denominator for a branch/day
// from the assigned day pattern, falling back to a default when the day
// has no pattern.
func (s *Service) dayPeriodTotal(ctx context.Context, tenantID, branchID string, dayOfWeek int) (int, error) {
	plan, err := s.store.GetDayPlan(ctx, tenantID, branchID, dayOfWeek)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return defaultDayPeriods, nil
		}
		return 0, err
	}
	if plan.DayPatternID == nil {
		return defaultDayPeriods, nil
	}

	pattern, err := s.store.GetDayPattern(ctx, tenantID, *plan.DayPatternID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return defaultDayPeriods, nil
		}
		return 0, err
	}

	return pattern.TotalPeriods, nil
}

// GetAvailableTeachers is an advisory read: it does not reserve
// anything, and CreateSubstitution re-validates before committing.
func (s *Service) GetAvailableTeachers(ctx context.Context, tenantID, branchID, dateStr string, slotIDs []string, excludeTeacherID string) (*api.AvailableTeachersResponse, error) {
	const op = "service.GetAvailableTeachers"

	date, err := parseDate(op, dateStr)
	if err != nil {
		return nil, err
	}

	if len(slotIDs) == 0 {
		return nil, fmt.Errorf("%s: period_slot_ids is empty: %w", op, response.ErrBadRequest)
	}

	dayOfWeek := int(date.Weekday())

	total, err := s.dayPeriodTotal(ctx, tenantID, branchID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	staff, err := s.store.ListActiveTeachers(ctx, tenantID, branchID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]api.TeacherAvailabilityResponse, 0, len(staff))

	for _, teacher := range staff {
		if teacher.ID == excludeTeacherID {
			continue
		}

		schedule, err := s.store.GetTeacherDaySchedule(ctx, tenantID, teacher.ID, dayOfWeek)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		committed := len(schedule)

		free := total - committed
		if free < 0 {
			free = 0
		}

		hasConflict := false
		if err := s.checkSubstituteAvailable(ctx, tenantID, teacher.ID, date, slotIDs, nil); err != nil {
			if errors.Is(err, response.ErrSubstituteConflict) {
				hasConflict = true
			} else {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}

		items = append(items, api.TeacherAvailabilityResponse{
			TeacherID:        teacher.ID,
			Name:             teacher.Name,
			CommittedPeriods: committed,
			TotalPeriods:     total,
			FreePeriods:      free,
			HasConflict:      hasConflict,
		})
	}

	return &api.AvailableTeachersResponse{
		Date:  date.Format("2006-01-02"),
		Items: items,
		Total: len(items),
	}, nil
}

// GetTeacherAbsencePeriods lists the published entries the teacher
// would miss on the date, to pre-populate which periods need covering.
func (s *Service) GetTeacherAbsencePeriods(ctx context.Context, tenantID, teacherID, dateStr string) (*api.AbsencePeriodsResponse, error) {
	const op = "service.GetTeacherAbsencePeriods"

	date, err := parseDate(op, dateStr)
	if err != nil {
		return nil, err
	}

	dayOfWeek := int(date.Weekday())

	schedule, err := s.store.GetTeacherDaySchedule(ctx, tenantID, teacherID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]api.ScheduleEntryResponse, 0, len(schedule))
	for _, c := range schedule {
		items = append(items, scheduleEntryResponse(c))
	}

	return &api.AbsencePeriodsResponse{
		TeacherID: teacherID,
		Date:      date.Format("2006-01-02"),
		DayOfWeek: dayOfWeek,
		Items:     items,
		Total:     len(items),
	}, nil
}
