package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"timetable-service/internal/lock"
	"timetable-service/internal/models"
)

// defaultDayPeriods is the fallback free-period denominator for days
// without an assigned day pattern.
const defaultDayPeriods = 8

const lockTTL = 10 * time.Second

type Service struct {
	store  Store
	locker lock.Locker
}

func NewService(store Store, locker lock.Locker) *Service {
	return &Service{store: store, locker: locker}
}

type Store interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// Shifts
	CreateShift(ctx context.Context, m *models.Shift) error
	GetShift(ctx context.Context, tenantID, id string) (*models.Shift, error)
	ListShifts(ctx context.Context, tenantID string, f *models.ShiftFilters) ([]*models.Shift, error)
	UpdateShift(ctx context.Context, m *models.Shift) error
	DeleteShift(ctx context.Context, tenantID, id string) error
	CountPeriodSlotsByShift(ctx context.Context, tenantID, shiftID string) (int, error)

	// Day patterns
	CreateDayPattern(ctx context.Context, m *models.DayPattern) error
	GetDayPattern(ctx context.Context, tenantID, id string) (*models.DayPattern, error)
	ListDayPatterns(ctx context.Context, tenantID string, f *models.DayPatternFilters) ([]*models.DayPattern, error)
	UpdateDayPattern(ctx context.Context, m *models.DayPattern) error
	DeleteDayPattern(ctx context.Context, tenantID, id string) error
	CountDayPlansByPattern(ctx context.Context, tenantID, patternID string) (int, error)
	CountPeriodSlotsByPattern(ctx context.Context, tenantID, patternID string) (int, error)

	// Period slots
	CreatePeriodSlot(ctx context.Context, m *models.PeriodSlot) error
	GetPeriodSlot(ctx context.Context, tenantID, id string) (*models.PeriodSlot, error)
	ListPeriodSlots(ctx context.Context, tenantID string, f *models.PeriodSlotFilters) ([]*models.PeriodSlot, error)
	UpdatePeriodSlot(ctx context.Context, m *models.PeriodSlot) error
	DeletePeriodSlot(ctx context.Context, tenantID, id string) error
	CountEntriesBySlot(ctx context.Context, tenantID, slotID string) (int, error)

	// Day plans
	GetDayPlan(ctx context.Context, tenantID, branchID string, dayOfWeek int) (*models.DayPlan, error)
	UpsertDayPlan(ctx context.Context, m *models.DayPlan) error
	ListDayPlans(ctx context.Context, tenantID, branchID string) ([]*models.DayPlan, error)

	// Timetables
	CreateTimetable(ctx context.Context, m *models.Timetable) error
	GetTimetable(ctx context.Context, tenantID, id string) (*models.Timetable, error)
	GetPublishedTimetable(ctx context.Context, tenantID, sectionID, academicYearID string) (*models.Timetable, error)
	UpdateTimetable(ctx context.Context, m *models.Timetable) error
	ArchivePublishedTx(ctx context.Context, tx *sql.Tx, tenantID, sectionID, academicYearID, excludeID string) error
	PublishTimetableTx(ctx context.Context, tx *sql.Tx, tenantID, id, publishedBy string, publishedAt time.Time) error
	SetTimetableStatus(ctx context.Context, tenantID, id string, status models.TimetableStatus) error
	DeleteTimetableTx(ctx context.Context, tx *sql.Tx, tenantID, id string) error

	// Timetable entries
	ListEntries(ctx context.Context, timetableID string) ([]*models.TimetableEntry, error)
	GetEntry(ctx context.Context, timetableID, entryID string) (*models.TimetableEntry, error)
	UpsertEntryTx(ctx context.Context, tx *sql.Tx, m *models.TimetableEntry) (string, error)
	DeleteEntry(ctx context.Context, timetableID, entryID string) error
	FindTeacherConflicts(ctx context.Context, tenantID, teacherID string, dayOfWeek int, periodSlotID string, excludeTimetableID *string) ([]*models.TeacherCommitment, error)
	GetTeacherSchedule(ctx context.Context, tenantID, teacherID, academicYearID string) ([]*models.TeacherCommitment, error)
	GetTeacherDaySchedule(ctx context.Context, tenantID, teacherID string, dayOfWeek int) ([]*models.TeacherCommitment, error)

	// Substitutions
	CreateSubstitutionTx(ctx context.Context, tx *sql.Tx, m *models.Substitution, periods []*models.SubstitutionPeriod) error
	GetSubstitution(ctx context.Context, tenantID, id string) (*models.Substitution, error)
	ListSubstitutionPeriods(ctx context.Context, substitutionID string) ([]*models.SubstitutionPeriod, error)
	ListSubstitutions(ctx context.Context, tenantID string, f *models.SubstitutionFilters) ([]*models.Substitution, error)
	UpdateSubstitution(ctx context.Context, m *models.Substitution) error
	SetSubstitutionStatus(ctx context.Context, tenantID, id string, from []string, to models.SubstitutionStatus, approvedBy *string, approvedAt *time.Time) (int64, error)
	DeleteSubstitutionTx(ctx context.Context, tx *sql.Tx, tenantID, id string) error
	HasOriginalOverlap(ctx context.Context, tenantID, teacherID string, date time.Time, slotIDs []string) (bool, error)
	HasSubstituteOverlap(ctx context.Context, tenantID, teacherID string, date time.Time, slotIDs []string, excludeID *string) (bool, error)
	ListActiveTeachers(ctx context.Context, tenantID, branchID string) ([]*models.StaffMember, error)
}

// parseClock accepts "15:04" or "15:04:05" and returns the parsed time
// of day.
func parseClock(s string) (time.Time, error) {
	t, err := time.Parse("15:04", s)
	if err == nil {
		return t, nil
	}

	return time.Parse("15:04:05", s)
}

// validateTimeRange parses both clock strings and rejects end <= start.
func validateTimeRange(op, start, end string) (time.Time, time.Time, error) {
	startT, err := parseClock(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s: invalid start_time: %w", op, err)
	}

	endT, err := parseClock(end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s: invalid end_time: %w", op, err)
	}

	if !endT.After(startT) {
		return time.Time{}, time.Time{}, fmt.Errorf("%s: end_time must be after start_time", op)
	}

	return startT, endT, nil
}

func parseDate(op, s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid date: %w", op, err)
	}

	return d, nil
}
