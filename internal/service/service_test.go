package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sort"
	"time"

	"timetable-service/internal/models"
	"timetable-service/pkg/response"
)

// A stub sql driver so the fake store can hand out real *sql.Tx values
// whose Commit and Rollback are no-ops.
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

func init() {
	sql.Register("servicetest", stubDriver{})
}

type fakeStore struct {
	db *sql.DB

	shifts     map[string]*models.Shift
	patterns   map[string]*models.DayPattern
	slots      map[string]*models.PeriodSlot
	plans      map[string]*models.DayPlan
	timetables map[string]*models.Timetable
	entries    map[string]*models.TimetableEntry
	subs       map[string]*models.Substitution
	subPeriods map[string][]*models.SubstitutionPeriod
	staff      []*models.StaffMember

	planErr error
}

func newFakeStore() *fakeStore {
	db, err := sql.Open("servicetest", "")
	if err != nil {
		panic(err)
	}

	return &fakeStore{
		db:         db,
		shifts:     make(map[string]*models.Shift),
		patterns:   make(map[string]*models.DayPattern),
		slots:      make(map[string]*models.PeriodSlot),
		plans:      make(map[string]*models.DayPlan),
		timetables: make(map[string]*models.Timetable),
		entries:    make(map[string]*models.TimetableEntry),
		subs:       make(map[string]*models.Substitution),
		subPeriods: make(map[string][]*models.SubstitutionPeriod),
	}
}

func (f *fakeStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return f.db.BeginTx(ctx, nil)
}

func planKey(branchID string, dayOfWeek int) string {
	return branchID + "|" + string(rune('0'+dayOfWeek))
}

// Shifts

func (f *fakeStore) CreateShift(_ context.Context, m *models.Shift) error {
	for _, s := range f.shifts {
		if s.TenantID == m.TenantID && s.Code == m.Code {
			return response.ErrCodeExists
		}
	}
	cp := *m
	f.shifts[m.ID] = &cp
	return nil
}

func (f *fakeStore) GetShift(_ context.Context, tenantID, id string) (*models.Shift, error) {
	s, ok := f.shifts[id]
	if !ok || s.TenantID != tenantID {
		return nil, response.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) ListShifts(_ context.Context, tenantID string, flt *models.ShiftFilters) ([]*models.Shift, error) {
	var out []*models.Shift
	for _, s := range f.shifts {
		if s.TenantID != tenantID {
			continue
		}
		if flt.BranchID != nil && s.BranchID != *flt.BranchID {
			continue
		}
		if flt.IsActive != nil && s.IsActive != *flt.IsActive {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (f *fakeStore) UpdateShift(_ context.Context, m *models.Shift) error {
	if _, ok := f.shifts[m.ID]; !ok {
		return response.ErrNotFound
	}
	for _, s := range f.shifts {
		if s.ID != m.ID && s.TenantID == m.TenantID && s.Code == m.Code {
			return response.ErrCodeExists
		}
	}
	cp := *m
	f.shifts[m.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteShift(_ context.Context, tenantID, id string) error {
	delete(f.shifts, id)
	return nil
}

func (f *fakeStore) CountPeriodSlotsByShift(_ context.Context, tenantID, shiftID string) (int, error) {
	n := 0
	for _, s := range f.slots {
		if s.ShiftID != nil && *s.ShiftID == shiftID {
			n++
		}
	}
	return n, nil
}

// Day patterns

func (f *fakeStore) CreateDayPattern(_ context.Context, m *models.DayPattern) error {
	for _, p := range f.patterns {
		if p.TenantID == m.TenantID && p.Code == m.Code {
			return response.ErrCodeExists
		}
	}
	cp := *m
	f.patterns[m.ID] = &cp
	return nil
}

func (f *fakeStore) GetDayPattern(_ context.Context, tenantID, id string) (*models.DayPattern, error) {
	p, ok := f.patterns[id]
	if !ok || p.TenantID != tenantID {
		return nil, response.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ListDayPatterns(_ context.Context, tenantID string, flt *models.DayPatternFilters) ([]*models.DayPattern, error) {
	var out []*models.DayPattern
	for _, p := range f.patterns {
		if p.TenantID != tenantID {
			continue
		}
		if flt.IsActive != nil && p.IsActive != *flt.IsActive {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) UpdateDayPattern(_ context.Context, m *models.DayPattern) error {
	if _, ok := f.patterns[m.ID]; !ok {
		return response.ErrNotFound
	}
	cp := *m
	f.patterns[m.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteDayPattern(_ context.Context, tenantID, id string) error {
	delete(f.patterns, id)
	return nil
}

func (f *fakeStore) CountDayPlansByPattern(_ context.Context, tenantID, patternID string) (int, error) {
	n := 0
	for _, p := range f.plans {
		if p.DayPatternID != nil && *p.DayPatternID == patternID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountPeriodSlotsByPattern(_ context.Context, tenantID, patternID string) (int, error) {
	n := 0
	for _, s := range f.slots {
		if s.DayPatternID != nil && *s.DayPatternID == patternID {
			n++
		}
	}
	return n, nil
}

// Period slots

func (f *fakeStore) CreatePeriodSlot(_ context.Context, m *models.PeriodSlot) error {
	cp := *m
	f.slots[m.ID] = &cp
	return nil
}

func (f *fakeStore) GetPeriodSlot(_ context.Context, tenantID, id string) (*models.PeriodSlot, error) {
	s, ok := f.slots[id]
	if !ok || s.TenantID != tenantID {
		return nil, response.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) ListPeriodSlots(_ context.Context, tenantID string, flt *models.PeriodSlotFilters) ([]*models.PeriodSlot, error) {
	var out []*models.PeriodSlot
	for _, s := range f.slots {
		if s.TenantID != tenantID {
			continue
		}
		if flt.DayPatternID != nil && (s.DayPatternID == nil || *s.DayPatternID != *flt.DayPatternID) {
			continue
		}
		if flt.ShiftID != nil && (s.ShiftID == nil || *s.ShiftID != *flt.ShiftID) {
			continue
		}
		if flt.SlotType != nil && string(s.SlotType) != *flt.SlotType {
			continue
		}
		if flt.IsActive != nil && s.IsActive != *flt.IsActive {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (f *fakeStore) UpdatePeriodSlot(_ context.Context, m *models.PeriodSlot) error {
	if _, ok := f.slots[m.ID]; !ok {
		return response.ErrNotFound
	}
	cp := *m
	f.slots[m.ID] = &cp
	return nil
}

func (f *fakeStore) DeletePeriodSlot(_ context.Context, tenantID, id string) error {
	delete(f.slots, id)
	return nil
}

func (f *fakeStore) CountEntriesBySlot(_ context.Context, tenantID, slotID string) (int, error) {
	n := 0
	for _, e := range f.entries {
		if e.PeriodSlotID == slotID {
			n++
		}
	}
	return n, nil
}

// Day plans

func (f *fakeStore) GetDayPlan(_ context.Context, tenantID, branchID string, dayOfWeek int) (*models.DayPlan, error) {
	if f.planErr != nil {
		return nil, f.planErr
	}
	p, ok := f.plans[planKey(branchID, dayOfWeek)]
	if !ok || p.TenantID != tenantID {
		return nil, response.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) UpsertDayPlan(_ context.Context, m *models.DayPlan) error {
	cp := *m
	f.plans[planKey(m.BranchID, m.DayOfWeek)] = &cp
	return nil
}

func (f *fakeStore) ListDayPlans(_ context.Context, tenantID, branchID string) ([]*models.DayPlan, error) {
	var out []*models.DayPlan
	for _, p := range f.plans {
		if p.TenantID == tenantID && p.BranchID == branchID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out, nil
}

// Timetables

func (f *fakeStore) CreateTimetable(_ context.Context, m *models.Timetable) error {
	cp := *m
	f.timetables[m.ID] = &cp
	return nil
}

func (f *fakeStore) GetTimetable(_ context.Context, tenantID, id string) (*models.Timetable, error) {
	t, ok := f.timetables[id]
	if !ok || t.TenantID != tenantID {
		return nil, response.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) GetPublishedTimetable(_ context.Context, tenantID, sectionID, academicYearID string) (*models.Timetable, error) {
	for _, t := range f.timetables {
		if t.TenantID == tenantID && t.SectionID == sectionID &&
			t.AcademicYearID == academicYearID && t.Status == models.TimetablePublished {
			cp := *t
			return &cp, nil
		}
	}
	return nil, response.ErrNotFound
}

func (f *fakeStore) UpdateTimetable(_ context.Context, m *models.Timetable) error {
	if _, ok := f.timetables[m.ID]; !ok {
		return response.ErrNotFound
	}
	cp := *m
	f.timetables[m.ID] = &cp
	return nil
}

func (f *fakeStore) ArchivePublishedTx(_ context.Context, _ *sql.Tx, tenantID, sectionID, academicYearID, excludeID string) error {
	for _, t := range f.timetables {
		if t.TenantID == tenantID && t.SectionID == sectionID &&
			t.AcademicYearID == academicYearID && t.Status == models.TimetablePublished &&
			t.ID != excludeID {
			t.Status = models.TimetableArchived
		}
	}
	return nil
}

func (f *fakeStore) PublishTimetableTx(_ context.Context, _ *sql.Tx, tenantID, id, publishedBy string, publishedAt time.Time) error {
	t, ok := f.timetables[id]
	if !ok || t.TenantID != tenantID {
		return response.ErrNotFound
	}
	if t.Status != models.TimetableDraft {
		return response.ErrAlreadyPublished
	}
	t.Status = models.TimetablePublished
	t.PublishedBy = &publishedBy
	t.PublishedAt = &publishedAt
	return nil
}

func (f *fakeStore) SetTimetableStatus(_ context.Context, tenantID, id string, status models.TimetableStatus) error {
	t, ok := f.timetables[id]
	if !ok || t.TenantID != tenantID {
		return response.ErrNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeStore) DeleteTimetableTx(_ context.Context, _ *sql.Tx, tenantID, id string) error {
	for eid, e := range f.entries {
		if e.TimetableID == id {
			delete(f.entries, eid)
		}
	}
	delete(f.timetables, id)
	return nil
}

// Timetable entries

func (f *fakeStore) ListEntries(_ context.Context, timetableID string) ([]*models.TimetableEntry, error) {
	var out []*models.TimetableEntry
	for _, e := range f.entries {
		if e.TimetableID == timetableID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].PeriodSlotID < out[j].PeriodSlotID
	})
	return out, nil
}

func (f *fakeStore) GetEntry(_ context.Context, timetableID, entryID string) (*models.TimetableEntry, error) {
	e, ok := f.entries[entryID]
	if !ok || e.TimetableID != timetableID {
		return nil, response.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) UpsertEntryTx(_ context.Context, _ *sql.Tx, m *models.TimetableEntry) (string, error) {
	for _, e := range f.entries {
		if e.TimetableID == m.TimetableID && e.DayOfWeek == m.DayOfWeek && e.PeriodSlotID == m.PeriodSlotID {
			id := e.ID
			cp := *m
			cp.ID = id
			f.entries[id] = &cp
			return id, nil
		}
	}
	cp := *m
	f.entries[m.ID] = &cp
	return m.ID, nil
}

func (f *fakeStore) DeleteEntry(_ context.Context, timetableID, entryID string) error {
	e, ok := f.entries[entryID]
	if !ok || e.TimetableID != timetableID {
		return response.ErrNotFound
	}
	delete(f.entries, entryID)
	return nil
}

func (f *fakeStore) commitment(e *models.TimetableEntry, t *models.Timetable) *models.TeacherCommitment {
	return &models.TeacherCommitment{
		EntryID:        e.ID,
		TimetableID:    e.TimetableID,
		SectionID:      t.SectionID,
		AcademicYearID: t.AcademicYearID,
		SubjectID:      e.SubjectID,
		DayOfWeek:      e.DayOfWeek,
		PeriodSlotID:   e.PeriodSlotID,
	}
}

func (f *fakeStore) FindTeacherConflicts(_ context.Context, tenantID, teacherID string, dayOfWeek int, periodSlotID string, excludeTimetableID *string) ([]*models.TeacherCommitment, error) {
	var out []*models.TeacherCommitment
	for _, e := range f.entries {
		if e.TeacherID == nil || *e.TeacherID != teacherID {
			continue
		}
		if e.DayOfWeek != dayOfWeek || e.PeriodSlotID != periodSlotID {
			continue
		}
		t, ok := f.timetables[e.TimetableID]
		if !ok || t.TenantID != tenantID || t.Status != models.TimetablePublished {
			continue
		}
		if excludeTimetableID != nil && t.ID == *excludeTimetableID {
			continue
		}
		out = append(out, f.commitment(e, t))
	}
	return out, nil
}

func (f *fakeStore) GetTeacherSchedule(_ context.Context, tenantID, teacherID, academicYearID string) ([]*models.TeacherCommitment, error) {
	var out []*models.TeacherCommitment
	for _, e := range f.entries {
		if e.TeacherID == nil || *e.TeacherID != teacherID {
			continue
		}
		t, ok := f.timetables[e.TimetableID]
		if !ok || t.TenantID != tenantID || t.Status != models.TimetablePublished {
			continue
		}
		if academicYearID != "" && t.AcademicYearID != academicYearID {
			continue
		}
		out = append(out, f.commitment(e, t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].PeriodSlotID < out[j].PeriodSlotID
	})
	return out, nil
}

func (f *fakeStore) GetTeacherDaySchedule(ctx context.Context, tenantID, teacherID string, dayOfWeek int) ([]*models.TeacherCommitment, error) {
	all, err := f.GetTeacherSchedule(ctx, tenantID, teacherID, "")
	if err != nil {
		return nil, err
	}
	var out []*models.TeacherCommitment
	for _, c := range all {
		if c.DayOfWeek == dayOfWeek {
			out = append(out, c)
		}
	}
	return out, nil
}

// Substitutions

func (f *fakeStore) CreateSubstitutionTx(_ context.Context, _ *sql.Tx, m *models.Substitution, periods []*models.SubstitutionPeriod) error {
	cp := *m
	f.subs[m.ID] = &cp
	for _, p := range periods {
		pc := *p
		f.subPeriods[m.ID] = append(f.subPeriods[m.ID], &pc)
	}
	return nil
}

func (f *fakeStore) GetSubstitution(_ context.Context, tenantID, id string) (*models.Substitution, error) {
	s, ok := f.subs[id]
	if !ok || s.TenantID != tenantID {
		return nil, response.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) ListSubstitutionPeriods(_ context.Context, substitutionID string) ([]*models.SubstitutionPeriod, error) {
	var out []*models.SubstitutionPeriod
	for _, p := range f.subPeriods[substitutionID] {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeStore) ListSubstitutions(_ context.Context, tenantID string, flt *models.SubstitutionFilters) ([]*models.Substitution, error) {
	var out []*models.Substitution
	for _, s := range f.subs {
		if s.TenantID != tenantID {
			continue
		}
		if flt.BranchID != nil && s.BranchID != *flt.BranchID {
			continue
		}
		if flt.Status != nil && string(s.Status) != *flt.Status {
			continue
		}
		if flt.Date != nil && !s.Date.Equal(*flt.Date) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (f *fakeStore) UpdateSubstitution(_ context.Context, m *models.Substitution) error {
	if _, ok := f.subs[m.ID]; !ok {
		return response.ErrNotFound
	}
	cp := *m
	f.subs[m.ID] = &cp
	return nil
}

func (f *fakeStore) SetSubstitutionStatus(_ context.Context, tenantID, id string, from []string, to models.SubstitutionStatus, approvedBy *string, approvedAt *time.Time) (int64, error) {
	s, ok := f.subs[id]
	if !ok || s.TenantID != tenantID {
		return 0, nil
	}
	match := false
	for _, st := range from {
		if string(s.Status) == st {
			match = true
			break
		}
	}
	if !match {
		return 0, nil
	}
	s.Status = to
	if approvedBy != nil {
		s.ApprovedBy = approvedBy
	}
	if approvedAt != nil {
		s.ApprovedAt = approvedAt
	}
	return 1, nil
}

func (f *fakeStore) DeleteSubstitutionTx(_ context.Context, _ *sql.Tx, tenantID, id string) error {
	delete(f.subPeriods, id)
	delete(f.subs, id)
	return nil
}

func (f *fakeStore) hasOverlap(teacherOf func(*models.Substitution) string, tenantID, teacherID string, date time.Time, slotIDs []string, excludeID *string) bool {
	for _, s := range f.subs {
		if s.TenantID != tenantID || teacherOf(s) != teacherID {
			continue
		}
		if s.Status == models.SubstitutionCancelled || !s.Date.Equal(date) {
			continue
		}
		if excludeID != nil && s.ID == *excludeID {
			continue
		}
		for _, p := range f.subPeriods[s.ID] {
			for _, slotID := range slotIDs {
				if p.PeriodSlotID == slotID {
					return true
				}
			}
		}
	}
	return false
}

func (f *fakeStore) HasOriginalOverlap(_ context.Context, tenantID, teacherID string, date time.Time, slotIDs []string) (bool, error) {
	return f.hasOverlap(func(s *models.Substitution) string { return s.OriginalTeacherID },
		tenantID, teacherID, date, slotIDs, nil), nil
}

func (f *fakeStore) HasSubstituteOverlap(_ context.Context, tenantID, teacherID string, date time.Time, slotIDs []string, excludeID *string) (bool, error) {
	return f.hasOverlap(func(s *models.Substitution) string { return s.SubstituteTeacherID },
		tenantID, teacherID, date, slotIDs, excludeID), nil
}

func (f *fakeStore) ListActiveTeachers(_ context.Context, tenantID, branchID string) ([]*models.StaffMember, error) {
	var out []*models.StaffMember
	for _, m := range f.staff {
		if m.BranchID == branchID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeLocker mimics the SetNX semantics: a second Lock on a held key
// fails until Unlock releases it.
type fakeLocker struct {
	deny  bool
	held  map[string]bool
	locks []string
}

func (l *fakeLocker) Lock(_ context.Context, key string, _ time.Duration) (bool, error) {
	if l.deny {
		return false, nil
	}
	if l.held == nil {
		l.held = make(map[string]bool)
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	l.locks = append(l.locks, key)
	return true, nil
}

func (l *fakeLocker) Unlock(_ context.Context, key string) error {
	delete(l.held, key)
	return nil
}

func newTestService() (*Service, *fakeStore, *fakeLocker) {
	store := newFakeStore()
	locker := &fakeLocker{}
	return NewService(store, locker), store, locker
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func intPtr(n int) *int { return &n }
