package models

import "time"

type SlotType string

const (
	SlotTeaching SlotType = "teaching"
	SlotBreak    SlotType = "break"
	SlotAssembly SlotType = "assembly"
	SlotActivity SlotType = "activity"
)

type Shift struct {
	ID           string    `db:"shift_id"`
	TenantID     string    `db:"tenant_id"`
	BranchID     string    `db:"branch_id"`
	Code         string    `db:"code"`
	Name         string    `db:"name"`
	StartTime    string    `db:"start_time"` // "15:04"
	EndTime      string    `db:"end_time"`
	DisplayOrder int       `db:"display_order"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type DayPattern struct {
	ID           string    `db:"day_pattern_id"`
	TenantID     string    `db:"tenant_id"`
	Code         string    `db:"code"`
	Name         string    `db:"name"`
	TotalPeriods int       `db:"total_periods"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// DayPlan binds a day of week (0=Sunday..6) to a day pattern for one branch.
type DayPlan struct {
	ID           string    `db:"day_plan_id"`
	TenantID     string    `db:"tenant_id"`
	BranchID     string    `db:"branch_id"`
	DayOfWeek    int       `db:"day_of_week"`
	DayPatternID *string   `db:"day_pattern_id"`
	IsWorkingDay bool      `db:"is_working_day"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type PeriodSlot struct {
	ID              string   `db:"period_slot_id"`
	TenantID        string   `db:"tenant_id"`
	DayPatternID    *string  `db:"day_pattern_id"`
	ShiftID         *string  `db:"shift_id"`
	PeriodNumber    *int     `db:"period_number"` // nil for non-teaching slots
	SlotType        SlotType `db:"slot_type"`
	StartTime       string   `db:"start_time"`
	EndTime         string   `db:"end_time"`
	DurationMinutes int      `db:"duration_minutes"`
	DisplayOrder    int      `db:"display_order"`
	IsActive        bool     `db:"is_active"`
}

type ShiftFilters struct {
	BranchID *string
	IsActive *bool
}

type DayPatternFilters struct {
	IsActive *bool
}

type PeriodSlotFilters struct {
	DayPatternID *string
	ShiftID      *string
	SlotType     *string
	IsActive     *bool
}
