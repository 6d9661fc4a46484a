package models

import "time"

type TimetableStatus string

const (
	TimetableDraft     TimetableStatus = "draft"
	TimetablePublished TimetableStatus = "published"
	TimetableArchived  TimetableStatus = "archived"
)

type Timetable struct {
	ID             string          `db:"timetable_id"`
	TenantID       string          `db:"tenant_id"`
	BranchID       string          `db:"branch_id"`
	SectionID      string          `db:"section_id"`
	AcademicYearID string          `db:"academic_year_id"`
	Name           string          `db:"name"`
	Description    *string         `db:"description"`
	Status         TimetableStatus `db:"status"`
	EffectiveFrom  *time.Time      `db:"effective_from"`
	EffectiveTo    *time.Time      `db:"effective_to"`
	PublishedBy    *string         `db:"published_by"`
	PublishedAt    *time.Time      `db:"published_at"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// TimetableEntry is one cell of the weekly grid, unique per
// (timetable, day_of_week, period_slot).
type TimetableEntry struct {
	ID           string  `db:"entry_id"`
	TimetableID  string  `db:"timetable_id"`
	DayOfWeek    int     `db:"day_of_week"`
	PeriodSlotID string  `db:"period_slot_id"`
	SubjectID    *string `db:"subject_id"`
	TeacherID    *string `db:"teacher_id"`
	RoomID       *string `db:"room_id"`
	IsFreePeriod bool    `db:"is_free_period"`
	Notes        *string `db:"notes"`
}

// TeacherCommitment is a timetable entry joined to its published parent,
// carrying enough context to tell a caller who/what the teacher is
// committed to.
type TeacherCommitment struct {
	EntryID        string  `db:"entry_id"`
	TimetableID    string  `db:"timetable_id"`
	SectionID      string  `db:"section_id"`
	AcademicYearID string  `db:"academic_year_id"`
	SubjectID      *string `db:"subject_id"`
	DayOfWeek      int     `db:"day_of_week"`
	PeriodSlotID   string  `db:"period_slot_id"`
	PeriodNumber   *int    `db:"period_number"`
	StartTime      string  `db:"start_time"`
	EndTime        string  `db:"end_time"`
}
