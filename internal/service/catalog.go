package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"timetable-service/api"
	"timetable-service/internal/models"
	"timetable-service/pkg/response"
)

// Shifts

func shiftResponse(m *models.Shift) *api.ShiftResponse {
	return &api.ShiftResponse{
		ID:           m.ID,
		BranchID:     m.BranchID,
		Code:         m.Code,
		Name:         m.Name,
		StartTime:    m.StartTime,
		EndTime:      m.EndTime,
		DisplayOrder: m.DisplayOrder,
		IsActive:     m.IsActive,
	}
}

func (s *Service) CreateShift(ctx context.Context, tenantID string, req *api.ShiftRequest) (*api.ShiftResponse, error) {
	const op = "service.CreateShift"

	startT, endT, err := validateTimeRange(op, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	shift := &models.Shift{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		BranchID:     req.BranchID,
		Code:         req.Code,
		Name:         req.Name,
		StartTime:    startT.Format("15:04:05"),
		EndTime:      endT.Format("15:04:05"),
		DisplayOrder: req.DisplayOrder,
		IsActive:     isActive,
	}

	if err := s.store.CreateShift(ctx, shift); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return shiftResponse(shift), nil
}

func (s *Service) GetShift(ctx context.Context, tenantID, id string) (*api.ShiftResponse, error) {
	const op = "service.GetShift"

	shift, err := s.store.GetShift(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return shiftResponse(shift), nil
}

func (s *Service) ListShifts(ctx context.Context, tenantID string, f *models.ShiftFilters) (*api.ShiftListResponse, error) {
	const op = "service.ListShifts"

	shifts, err := s.store.ListShifts(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]api.ShiftResponse, 0, len(shifts))
	for _, shift := range shifts {
		items = append(items, *shiftResponse(shift))
	}

	return &api.ShiftListResponse{Items: items, Total: len(items)}, nil
}

func (s *Service) UpdateShift(ctx context.Context, tenantID, id string, patch *api.ShiftPatch) (*api.ShiftResponse, error) {
	const op = "service.UpdateShift"

	shift, err := s.store.GetShift(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if patch.Code != nil {
		shift.Code = *patch.Code
	}
	if patch.Name != nil {
		shift.Name = *patch.Name
	}
	if patch.StartTime != nil {
		shift.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		shift.EndTime = *patch.EndTime
	}
	if patch.DisplayOrder != nil {
		shift.DisplayOrder = *patch.DisplayOrder
	}
	if patch.IsActive != nil {
		shift.IsActive = *patch.IsActive
	}

	startT, endT, err := validateTimeRange(op, shift.StartTime, shift.EndTime)
	if err != nil {
		return nil, err
	}
	shift.StartTime = startT.Format("15:04:05")
	shift.EndTime = endT.Format("15:04:05")

	if err := s.store.UpdateShift(ctx, shift); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return shiftResponse(shift), nil
}

func (s *Service) DeleteShift(ctx context.Context, tenantID, id string) error {
	const op = "service.DeleteShift"

	if _, err := s.store.GetShift(ctx, tenantID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := s.store.CountPeriodSlotsByShift(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		return fmt.Errorf("%s: %w", op, response.ErrInUse)
	}

	if err := s.store.DeleteShift(ctx, tenantID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Day patterns

func dayPatternResponse(m *models.DayPattern) *api.DayPatternResponse {
	return &api.DayPatternResponse{
		ID:           m.ID,
		Code:         m.Code,
		Name:         m.Name,
		TotalPeriods: m.TotalPeriods,
		IsActive:     m.IsActive,
	}
}

func (s *Service) CreateDayPattern(ctx context.Context, tenantID string, req *api.DayPatternRequest) (*api.DayPatternResponse, error) {
	const op = "service.CreateDayPattern"

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	pattern := &models.DayPattern{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Code:         req.Code,
		Name:         req.Name,
		TotalPeriods: req.TotalPeriods,
		IsActive:     isActive,
	}

	if err := s.store.CreateDayPattern(ctx, pattern); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return dayPatternResponse(pattern), nil
}

func (s *Service) GetDayPattern(ctx context.Context, tenantID, id string) (*api.DayPatternResponse, error) {
	const op = "service.GetDayPattern"

	pattern, err := s.store.GetDayPattern(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return dayPatternResponse(pattern), nil
}

func (s *Service) ListDayPatterns(ctx context.Context, tenantID string, f *models.DayPatternFilters) (*api.DayPatternListResponse, error) {
	const op = "service.ListDayPatterns"

	patterns, err := s.store.ListDayPatterns(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]api.DayPatternResponse, 0, len(patterns))
	for _, pattern := range patterns {
		items = append(items, *dayPatternResponse(pattern))
	}

	return &api.DayPatternListResponse{Items: items, Total: len(items)}, nil
}

func (s *Service) UpdateDayPattern(ctx context.Context, tenantID, id string, patch *api.DayPatternPatch) (*api.DayPatternResponse, error) {
	const op = "service.UpdateDayPattern"

	pattern, err := s.store.GetDayPattern(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if patch.Code != nil {
		pattern.Code = *patch.Code
	}
	if patch.Name != nil {
		pattern.Name = *patch.Name
	}
	if patch.TotalPeriods != nil {
		pattern.TotalPeriods = *patch.TotalPeriods
	}
	if patch.IsActive != nil {
		pattern.IsActive = *patch.IsActive
	}

	if err := s.store.UpdateDayPattern(ctx, pattern); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return dayPatternResponse(pattern), nil
}

func (s *Service) DeleteDayPattern(ctx context.Context, tenantID, id string) error {
	const op = "service.DeleteDayPattern"

	if _, err := s.store.GetDayPattern(ctx, tenantID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	plans, err := s.store.CountDayPlansByPattern(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	slots, err := s.store.CountPeriodSlotsByPattern(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if plans > 0 || slots > 0 {
		return fmt.Errorf("%s: %w", op, response.ErrInUse)
	}

	if err := s.store.DeleteDayPattern(ctx, tenantID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Period slots

func periodSlotResponse(m *models.PeriodSlot) *api.PeriodSlotResponse {
	return &api.PeriodSlotResponse{
		ID:              m.ID,
		DayPatternID:    m.DayPatternID,
		ShiftID:         m.ShiftID,
		PeriodNumber:    m.PeriodNumber,
		SlotType:        string(m.SlotType),
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		DurationMinutes: m.DurationMinutes,
		DisplayOrder:    m.DisplayOrder,
		IsActive:        m.IsActive,
	}
}

func (s *Service) CreatePeriodSlot(ctx context.Context, tenantID string, req *api.PeriodSlotRequest) (*api.PeriodSlotResponse, error) {
	const op = "service.CreatePeriodSlot"

	startT, endT, err := validateTimeRange(op, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if req.DayPatternID != nil {
		if _, err := s.store.GetDayPattern(ctx, tenantID, *req.DayPatternID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if req.ShiftID != nil {
		if _, err := s.store.GetShift(ctx, tenantID, *req.ShiftID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	slot := &models.PeriodSlot{
		ID:              uuid.NewString(),
		TenantID:        tenantID,
		DayPatternID:    req.DayPatternID,
		ShiftID:         req.ShiftID,
		PeriodNumber:    req.PeriodNumber,
		SlotType:        models.SlotType(req.SlotType),
		StartTime:       startT.Format("15:04:05"),
		EndTime:         endT.Format("15:04:05"),
		DurationMinutes: int(endT.Sub(startT).Minutes()),
		DisplayOrder:    req.DisplayOrder,
		IsActive:        isActive,
	}

	if err := s.store.CreatePeriodSlot(ctx, slot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return periodSlotResponse(slot), nil
}

func (s *Service) GetPeriodSlot(ctx context.Context, tenantID, id string) (*api.PeriodSlotResponse, error) {
	const op = "service.GetPeriodSlot"

	slot, err := s.store.GetPeriodSlot(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return periodSlotResponse(slot), nil
}

func (s *Service) ListPeriodSlots(ctx context.Context, tenantID string, f *models.PeriodSlotFilters) (*api.PeriodSlotListResponse, error) {
	const op = "service.ListPeriodSlots"

	slots, err := s.store.ListPeriodSlots(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]api.PeriodSlotResponse, 0, len(slots))
	for _, slot := range slots {
		items = append(items, *periodSlotResponse(slot))
	}

	return &api.PeriodSlotListResponse{Items: items, Total: len(items)}, nil
}

func (s *Service) UpdatePeriodSlot(ctx context.Context, tenantID, id string, patch *api.PeriodSlotPatch) (*api.PeriodSlotResponse, error) {
	const op = "service.UpdatePeriodSlot"

	slot, err := s.store.GetPeriodSlot(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if patch.PeriodNumber != nil {
		slot.PeriodNumber = patch.PeriodNumber
	}
	if patch.SlotType != nil {
		slot.SlotType = models.SlotType(*patch.SlotType)
	}
	if patch.StartTime != nil {
		slot.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		slot.EndTime = *patch.EndTime
	}
	if patch.DisplayOrder != nil {
		slot.DisplayOrder = *patch.DisplayOrder
	}
	if patch.IsActive != nil {
		slot.IsActive = *patch.IsActive
	}

	startT, endT, err := validateTimeRange(op, slot.StartTime, slot.EndTime)
	if err != nil {
		return nil, err
	}
	slot.StartTime = startT.Format("15:04:05")
	slot.EndTime = endT.Format("15:04:05")
	slot.DurationMinutes = int(endT.Sub(startT).Minutes())

	if err := s.store.UpdatePeriodSlot(ctx, slot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return periodSlotResponse(slot), nil
}

func (s *Service) DeletePeriodSlot(ctx context.Context, tenantID, id string) error {
	const op = "service.DeletePeriodSlot"

	if _, err := s.store.GetPeriodSlot(ctx, tenantID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := s.store.CountEntriesBySlot(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		return fmt.Errorf("%s: %w", op, response.ErrInUse)
	}

	if err := s.store.DeletePeriodSlot(ctx, tenantID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
