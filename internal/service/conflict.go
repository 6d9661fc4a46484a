package service

import (
	"context"
	"fmt"

	"timetable-service/api"
	"timetable-service/internal/models"
	"timetable-service/pkg/response"
)

func scheduleEntryResponse(m *models.TeacherCommitment) api.ScheduleEntryResponse {
	return api.ScheduleEntryResponse{
		EntryID:        m.EntryID,
		TimetableID:    m.TimetableID,
		SectionID:      m.SectionID,
		AcademicYearID: m.AcademicYearID,
		SubjectID:      m.SubjectID,
		DayOfWeek:      m.DayOfWeek,
		PeriodSlotID:   m.PeriodSlotID,
		PeriodNumber:   m.PeriodNumber,
		StartTime:      m.StartTime,
		EndTime:        m.EndTime,
	}
}

// FindTeacherConflicts is the single authority for "is this teacher free
// at (day, slot)". Both the timetable lifecycle and the substitution
// workflow go through here; only published timetables count. The result
// is a set — no ordering is guaranteed.
func (s *Service) FindTeacherConflicts(ctx context.Context, tenantID, teacherID string, dayOfWeek int, periodSlotID string, excludeTimetableID *string) ([]api.ScheduleEntryResponse, error) {
	const op = "service.FindTeacherConflicts"

	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, fmt.Errorf("%s: day_of_week out of range: %w", op, response.ErrBadRequest)
	}

	conflicts, err := s.store.FindTeacherConflicts(ctx, tenantID, teacherID, dayOfWeek, periodSlotID, excludeTimetableID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.ScheduleEntryResponse, 0, len(conflicts))
	for _, c := range conflicts {
		result = append(result, scheduleEntryResponse(c))
	}

	return result, nil
}
