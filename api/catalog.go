package api

type ShiftRequest struct {
	BranchID     string `json:"branch_id" validate:"required"`
	Code         string `json:"code" validate:"required,max=20"`
	Name         string `json:"name" validate:"required,max=100"`
	StartTime    string `json:"start_time" validate:"required"`
	EndTime      string `json:"end_time" validate:"required"`
	DisplayOrder int    `json:"display_order"`
	IsActive     *bool  `json:"is_active"`
}

type ShiftPatch struct {
	Code         *string `json:"code" validate:"omitempty,max=20"`
	Name         *string `json:"name" validate:"omitempty,max=100"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	DisplayOrder *int    `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

type ShiftResponse struct {
	ID           string `json:"id"`
	BranchID     string `json:"branch_id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

type ShiftListResponse struct {
	Items []ShiftResponse `json:"items"`
	Total int             `json:"total"`
}

type DayPatternRequest struct {
	Code         string `json:"code" validate:"required,max=20"`
	Name         string `json:"name" validate:"required,max=100"`
	TotalPeriods int    `json:"total_periods" validate:"required,min=1,max=20"`
	IsActive     *bool  `json:"is_active"`
}

type DayPatternPatch struct {
	Code         *string `json:"code" validate:"omitempty,max=20"`
	Name         *string `json:"name" validate:"omitempty,max=100"`
	TotalPeriods *int    `json:"total_periods" validate:"omitempty,min=1,max=20"`
	IsActive     *bool   `json:"is_active"`
}

type DayPatternResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	TotalPeriods int    `json:"total_periods"`
	IsActive     bool   `json:"is_active"`
}

type DayPatternListResponse struct {
	Items []DayPatternResponse `json:"items"`
	Total int                  `json:"total"`
}

type PeriodSlotRequest struct {
	DayPatternID *string `json:"day_pattern_id"`
	ShiftID      *string `json:"shift_id"`
	PeriodNumber *int    `json:"period_number" validate:"omitempty,min=1,max=20"`
	SlotType     string  `json:"slot_type" validate:"required,oneof=teaching break assembly activity"`
	StartTime    string  `json:"start_time" validate:"required"`
	EndTime      string  `json:"end_time" validate:"required"`
	DisplayOrder int     `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

type PeriodSlotPatch struct {
	PeriodNumber *int    `json:"period_number" validate:"omitempty,min=1,max=20"`
	SlotType     *string `json:"slot_type" validate:"omitempty,oneof=teaching break assembly activity"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	DisplayOrder *int    `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

type PeriodSlotResponse struct {
	ID              string  `json:"id"`
	DayPatternID    *string `json:"day_pattern_id,omitempty"`
	ShiftID         *string `json:"shift_id,omitempty"`
	PeriodNumber    *int    `json:"period_number,omitempty"`
	SlotType        string  `json:"slot_type"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationMinutes int     `json:"duration_minutes"`
	DisplayOrder    int     `json:"display_order"`
	IsActive        bool    `json:"is_active"`
}

type PeriodSlotListResponse struct {
	Items []PeriodSlotResponse `json:"items"`
	Total int                  `json:"total"`
}

type DayPlanAssignRequest struct {
	BranchID     string  `json:"branch_id" validate:"required"`
	DayOfWeek    int     `json:"day_of_week" validate:"min=0,max=6"`
	DayPatternID *string `json:"day_pattern_id"`
	IsWorkingDay *bool   `json:"is_working_day"`
}

type DayPlanResponse struct {
	BranchID     string  `json:"branch_id"`
	DayOfWeek    int     `json:"day_of_week"`
	DayPatternID *string `json:"day_pattern_id,omitempty"`
	IsWorkingDay bool    `json:"is_working_day"`
}

type WeekPlanResponse struct {
	Items []DayPlanResponse `json:"items"`
	Total int               `json:"total"`
}
