package api

import "time"

type SubstitutionPeriodRequest struct {
	PeriodSlotID     string  `json:"period_slot_id" validate:"required"`
	TimetableEntryID *string `json:"timetable_entry_id"`
	SubjectID        *string `json:"subject_id"`
	SectionID        *string `json:"section_id"`
	RoomID           *string `json:"room_id"`
	Notes            *string `json:"notes"`
}

type SubstitutionRequest struct {
	BranchID            string                      `json:"branch_id" validate:"required"`
	OriginalTeacherID   string                      `json:"original_teacher_id" validate:"required"`
	SubstituteTeacherID string                      `json:"substitute_teacher_id" validate:"required"`
	Date                string                      `json:"date" validate:"required"`
	Reason              *string                     `json:"reason"`
	Notes               *string                     `json:"notes"`
	Periods             []SubstitutionPeriodRequest `json:"periods" validate:"required,min=1,dive"`
}

type SubstitutionPatch struct {
	SubstituteTeacherID *string `json:"substitute_teacher_id"`
	Reason              *string `json:"reason"`
	Notes               *string `json:"notes"`
	Status              *string `json:"status" validate:"omitempty,oneof=pending confirmed cancelled"`
}

type ConfirmRequest struct {
	ApprovedBy string `json:"approved_by" validate:"required"`
}

type SubstitutionPeriodResponse struct {
	ID               string  `json:"id"`
	PeriodSlotID     string  `json:"period_slot_id"`
	TimetableEntryID *string `json:"timetable_entry_id,omitempty"`
	SubjectID        *string `json:"subject_id,omitempty"`
	SectionID        *string `json:"section_id,omitempty"`
	RoomID           *string `json:"room_id,omitempty"`
	Notes            *string `json:"notes,omitempty"`
}

type SubstitutionResponse struct {
	ID                  string                       `json:"id"`
	BranchID            string                       `json:"branch_id"`
	OriginalTeacherID   string                       `json:"original_teacher_id"`
	SubstituteTeacherID string                       `json:"substitute_teacher_id"`
	Date                string                       `json:"date"`
	Reason              *string                      `json:"reason,omitempty"`
	Notes               *string                      `json:"notes,omitempty"`
	Status              string                       `json:"status"`
	ApprovedBy          *string                      `json:"approved_by,omitempty"`
	ApprovedAt          *time.Time                   `json:"approved_at,omitempty"`
	Periods             []SubstitutionPeriodResponse `json:"periods,omitempty"`
}

type SubstitutionListResponse struct {
	Items []SubstitutionResponse `json:"items"`
	Total int                    `json:"total"`
}

type TeacherAvailabilityResponse struct {
	TeacherID        string `json:"teacher_id"`
	Name             string `json:"name"`
	CommittedPeriods int    `json:"committed_periods"`
	TotalPeriods     int    `json:"total_periods"`
	FreePeriods      int    `json:"free_periods"`
	HasConflict      bool   `json:"has_conflict"`
}

type AvailableTeachersResponse struct {
	Date  string                        `json:"date"`
	Items []TeacherAvailabilityResponse `json:"items"`
	Total int                           `json:"total"`
}

type AbsencePeriodsResponse struct {
	TeacherID string                  `json:"teacher_id"`
	Date      string                  `json:"date"`
	DayOfWeek int                     `json:"day_of_week"`
	Items     []ScheduleEntryResponse `json:"items"`
	Total     int                     `json:"total"`
}
