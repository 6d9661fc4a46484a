package models

import "time"

type SubstitutionStatus string

const (
	SubstitutionPending   SubstitutionStatus = "pending"
	SubstitutionConfirmed SubstitutionStatus = "confirmed"
	SubstitutionCancelled SubstitutionStatus = "cancelled"
)

type Substitution struct {
	ID                  string             `db:"substitution_id"`
	TenantID            string             `db:"tenant_id"`
	BranchID            string             `db:"branch_id"`
	OriginalTeacherID   string             `db:"original_teacher_id"`
	SubstituteTeacherID string             `db:"substitute_teacher_id"`
	Date                time.Time          `db:"date"`
	Reason              *string            `db:"reason"`
	Notes               *string            `db:"notes"`
	Status              SubstitutionStatus `db:"status"`
	ApprovedBy          *string            `db:"approved_by"`
	ApprovedAt          *time.Time         `db:"approved_at"`
	CreatedAt           time.Time          `db:"created_at"`
	UpdatedAt           time.Time          `db:"updated_at"`
}

type SubstitutionPeriod struct {
	ID               string  `db:"substitution_period_id"`
	SubstitutionID   string  `db:"substitution_id"`
	PeriodSlotID     string  `db:"period_slot_id"`
	TimetableEntryID *string `db:"timetable_entry_id"`
	SubjectID        *string `db:"subject_id"`
	SectionID        *string `db:"section_id"`
	RoomID           *string `db:"room_id"`
	Notes            *string `db:"notes"`
}

type SubstitutionFilters struct {
	BranchID *string
	Date     *time.Time
	Status   *string
}

// StaffMember is the slice of the staff directory this service reads;
// the directory itself lives elsewhere.
type StaffMember struct {
	ID       string `db:"staff_id"`
	Name     string `db:"name"`
	BranchID string `db:"branch_id"`
}

// TeacherAvailability is the advisory availability row returned per
// candidate substitute.
type TeacherAvailability struct {
	Teacher          StaffMember
	CommittedPeriods int
	TotalPeriods     int
	FreePeriods      int
	HasConflict      bool
}
