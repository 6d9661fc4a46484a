package api

import "time"

type TimetableRequest struct {
	BranchID       string  `json:"branch_id" validate:"required"`
	SectionID      string  `json:"section_id" validate:"required"`
	AcademicYearID string  `json:"academic_year_id" validate:"required"`
	Name           string  `json:"name" validate:"required,max=150"`
	Description    *string `json:"description"`
	EffectiveFrom  *string `json:"effective_from"`
	EffectiveTo    *string `json:"effective_to"`
}

type TimetablePatch struct {
	Name          *string `json:"name" validate:"omitempty,max=150"`
	Description   *string `json:"description"`
	EffectiveFrom *string `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to"`
}

type TimetableResponse struct {
	ID             string          `json:"id"`
	BranchID       string          `json:"branch_id"`
	SectionID      string          `json:"section_id"`
	AcademicYearID string          `json:"academic_year_id"`
	Name           string          `json:"name"`
	Description    *string         `json:"description,omitempty"`
	Status         string          `json:"status"`
	EffectiveFrom  *string         `json:"effective_from,omitempty"`
	EffectiveTo    *string         `json:"effective_to,omitempty"`
	PublishedBy    *string         `json:"published_by,omitempty"`
	PublishedAt    *time.Time      `json:"published_at,omitempty"`
	Entries        []EntryResponse `json:"entries,omitempty"`
}

type PublishRequest struct {
	PublishedBy string `json:"published_by" validate:"required"`
}

type EntryRequest struct {
	DayOfWeek    int     `json:"day_of_week" validate:"min=0,max=6"`
	PeriodSlotID string  `json:"period_slot_id" validate:"required"`
	SubjectID    *string `json:"subject_id"`
	TeacherID    *string `json:"teacher_id"`
	RoomID       *string `json:"room_id"`
	IsFreePeriod bool    `json:"is_free_period"`
	Notes        *string `json:"notes"`
}

type BulkEntriesRequest struct {
	Entries []EntryRequest `json:"entries" validate:"required,min=1,dive"`
}

type EntryResponse struct {
	ID           string  `json:"id"`
	TimetableID  string  `json:"timetable_id"`
	DayOfWeek    int     `json:"day_of_week"`
	PeriodSlotID string  `json:"period_slot_id"`
	SubjectID    *string `json:"subject_id,omitempty"`
	TeacherID    *string `json:"teacher_id,omitempty"`
	RoomID       *string `json:"room_id,omitempty"`
	IsFreePeriod bool    `json:"is_free_period"`
	Notes        *string `json:"notes,omitempty"`
}

// ScheduleEntryResponse is one committed period of a teacher, joined to
// its published timetable.
type ScheduleEntryResponse struct {
	EntryID        string  `json:"entry_id"`
	TimetableID    string  `json:"timetable_id"`
	SectionID      string  `json:"section_id"`
	AcademicYearID string  `json:"academic_year_id"`
	SubjectID      *string `json:"subject_id,omitempty"`
	DayOfWeek      int     `json:"day_of_week"`
	PeriodSlotID   string  `json:"period_slot_id"`
	PeriodNumber   *int    `json:"period_number,omitempty"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
}

type TeacherScheduleResponse struct {
	TeacherID string                  `json:"teacher_id"`
	Items     []ScheduleEntryResponse `json:"items"`
	Total     int                     `json:"total"`
}
