package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"timetable-service/internal/models"
	"timetable-service/pkg/response"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// mapPqError translates the constraint violations this schema can raise
// into sentinel errors. 23505 = unique_violation, 23503 = foreign_key_violation.
func mapPqError(err error, onUnique error) error {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return err
	}
	switch pqErr.Code {
	case "23505":
		return onUnique
	case "23503":
		return response.ErrNotFound
	}
	return err
}

// #### shifts ####

func (s *Storage) CreateShift(ctx context.Context, m *models.Shift) error {
	const op = "storage.postgres.CreateShift"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shifts
		(shift_id, tenant_id, branch_id, code, name, start_time, end_time, display_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.TenantID, m.BranchID, m.Code, m.Name,
		m.StartTime, m.EndTime, m.DisplayOrder, m.IsActive,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPqError(err, response.ErrCodeExists))
	}

	return nil
}

func (s *Storage) GetShift(ctx context.Context, tenantID, id string) (*models.Shift, error) {
	const op = "storage.postgres.GetShift"

	var m models.Shift

	err := s.db.QueryRowContext(ctx,
		`SELECT shift_id, tenant_id, branch_id, code, name, start_time, end_time, display_order, is_active, created_at, updated_at
		FROM shifts WHERE tenant_id=$1 AND shift_id=$2`, tenantID, id).
		Scan(
			&m.ID, &m.TenantID, &m.BranchID, &m.Code, &m.Name,
			&m.StartTime, &m.EndTime, &m.DisplayOrder, &m.IsActive,
			&m.CreatedAt, &m.UpdatedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &m, nil
}

func (s *Storage) ListShifts(ctx context.Context, tenantID string, f *models.ShiftFilters) ([]*models.Shift, error) {
	const op = "storage.postgres.ListShifts"

	conds := []string{"tenant_id=$1"}
	args := []any{tenantID}

	if f != nil && f.BranchID != nil {
		args = append(args, *f.BranchID)
		conds = append(conds, fmt.Sprintf("branch_id=$%d", len(args)))
	}
	if f != nil && f.IsActive != nil {
		args = append(args, *f.IsActive)
		conds = append(conds, fmt.Sprintf("is_active=$%d", len(args)))
	}

	query := fmt.Sprintf(
		`SELECT shift_id, tenant_id, branch_id, code, name, start_time, end_time, display_order, is_active, created_at, updated_at
		FROM shifts WHERE %s
		ORDER BY display_order, name`,
		strings.Join(conds, " AND "),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var shifts []*models.Shift

	for rows.Next() {
		var m models.Shift
		err := rows.Scan(
			&m.ID, &m.TenantID, &m.BranchID, &m.Code, &m.Name,
			&m.StartTime, &m.EndTime, &m.DisplayOrder, &m.IsActive,
			&m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		shifts = append(shifts, &m)
	}

	return shifts, nil
}

func (s *Storage) UpdateShift(ctx context.Context, m *models.Shift) error {
	const op = "storage.postgres.UpdateShift"

	res, err := s.db.ExecContext(ctx,
		`UPDATE shifts
		SET code=$1, name=$2, start_time=$3, end_time=$4, display_order=$5, is_active=$6, updated_at=now()
		WHERE tenant_id=$7 AND shift_id=$8`,
		m.Code, m.Name, m.StartTime, m.EndTime, m.DisplayOrder, m.IsActive,
		m.TenantID, m.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPqError(err, response.ErrCodeExists))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) DeleteShift(ctx context.Context, tenantID, id string) error {
	const op = "storage.postgres.DeleteShift"

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM shifts WHERE tenant_id=$1 AND shift_id=$2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPqError(err, response.ErrInUse))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) CountPeriodSlotsByShift(ctx context.Context, tenantID, shiftID string) (int, error) {
	const op = "storage.postgres.CountPeriodSlotsByShift"

	var n int

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM period_slots WHERE tenant_id=$1 AND shift_id=$2`,
		tenantID, shiftID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// #### day patterns ####

func (s *Storage) CreateDayPattern(ctx context.Context, m *models.DayPattern) error {
	const op = "storage.postgres.CreateDayPattern"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO day_patterns
		(day_pattern_id, tenant_id, code, name, total_periods, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.TenantID, m.Code, m.Name, m.TotalPeriods, m.IsActive,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPqError(err, response.ErrCodeExists))
	}

	return nil
}

func (s *Storage) GetDayPattern(ctx context.Context, tenantID, id string) (*models.DayPattern, error) {
	const op = "storage.postgres.GetDayPattern"

	var m models.DayPattern

	err := s.db.QueryRowContext(ctx,
		`SELECT day_pattern_id, tenant_id, code, name, total_periods, is_active, created_at, updated_at
		FROM day_patterns WHERE tenant_id=$1 AND day_pattern_id=$2`, tenantID, id).
		Scan(&m.ID, &m.TenantID, &m.Code, &m.Name, &m.TotalPeriods, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &m, nil
}

func (s *Storage) ListDayPatterns(ctx context.Context, tenantID string, f *models.DayPatternFilters) ([]*models.DayPattern, error) {
	const op = "storage.postgres.ListDayPatterns"

	conds := []string{"tenant_id=$1"}
	args := []any{tenantID}

	if f != nil && f.IsActive != nil {
		args = append(args, *f.IsActive)
		conds = append(conds, fmt.Sprintf("is_active=$%d", len(args)))
	}

	query := fmt.Sprintf(
		`SELECT day_pattern_id, tenant_id, code, name, total_periods, is_active, created_at, updated_at
		FROM day_patterns WHERE %s ORDER BY name`,
		strings.Join(conds, " AND "),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var patterns []*models.DayPattern

	for rows.Next() {
		var m models.DayPattern
		err := rows.Scan(&m.ID, &m.TenantID, &m.Code, &m.Name, &m.TotalPeriods, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		patterns = append(patterns, &m)
	}

	return patterns, nil
}

func (s *Storage) UpdateDayPattern(ctx context.Context, m *models.DayPattern) error {
	const op = "storage.postgres.UpdateDayPattern"

	res, err := s.db.ExecContext(ctx,
		`UPDATE day_patterns
		SET code=$1, name=$2, total_periods=$3, is_active=$4, updated_at=now()
		WHERE tenant_id=$5 AND day_pattern_id=$6`,
		m.Code, m.Name, m.TotalPeriods, m.IsActive, m.TenantID, m.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPqError(err, response.ErrCodeExists))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) DeleteDayPattern(ctx context.Context, tenantID, id string) error {
	const op = "storage.postgres.DeleteDayPattern"

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM day_patterns WHERE tenant_id=$1 AND day_pattern_id=$2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPqError(err, response.ErrInUse))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) CountDayPlansByPattern(ctx context.Context, tenantID, patternID string) (int, error) {
	const op = "storage.postgres.CountDayPlansByPattern"

	var n int

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM day_plans WHERE tenant_id=$1 AND day_pattern_id=$2`,
		tenantID, patternID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (s *Storage) CountPeriodSlotsByPattern(ctx context.Context, tenantID, patternID string) (int, error) {
	const op = "storage.postgres.CountPeriodSlotsByPattern"

	var n int

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM period_slots WHERE tenant_id=$1 AND day_pattern_id=$2`,
		tenantID, patternID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// #### period slots ####

func (s *Storage) CreatePeriodSlot(ctx context.Context, m *models.PeriodSlot) error {
	const op = "storage.postgres.CreatePeriodSlot"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO period_slots
		(period_slot_id, tenant_id, day_pattern_id, shift_id, period_number, slot_type, start_time, end_time, duration_minutes, display_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.TenantID, m.DayPatternID, m.ShiftID, m.PeriodNumber,
		string(m.SlotType), m.StartTime, m.EndTime, m.DurationMinutes,
		m.DisplayOrder, m.IsActive,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPqError(err, response.ErrCodeExists))
	}

	return nil
}

func (s *Storage) GetPeriodSlot(ctx context.Context, tenantID, id string) (*models.PeriodSlot, error) {
	const op = "storage.postgres.GetPeriodSlot"

	var m models.PeriodSlot

	err := s.db.QueryRowContext(ctx,
		`SELECT period_slot_id, tenant_id, day_pattern_id, shift_id, period_number, slot_type, start_time, end_time, duration_minutes, display_order, is_active
		FROM period_slots WHERE tenant_id=$1 AND period_slot_id=$2`, tenantID, id).
		Scan(
			&m.ID, &m.TenantID, &m.DayPatternID, &m.ShiftID, &m.PeriodNumber,
			&m.SlotType, &m.StartTime, &m.EndTime, &m.DurationMinutes,
			&m.DisplayOrder, &m.IsActive,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &m, nil
}

func (s *Storage) ListPeriodSlots(ctx context.Context, tenantID string, f *models.PeriodSlotFilters) ([]*models.PeriodSlot, error) {
	const op = "storage.postgres.ListPeriodSlots"

	conds := []string{"tenant_id=$1"}
	args := []any{tenantID}

	if f != nil && f.DayPatternID != nil {
		args = append(args, *f.DayPatternID)
		conds = append(conds, fmt.Sprintf("day_pattern_id=$%d", len(args)))
	}
	if f != nil && f.ShiftID != nil {
		args = append(args, *f.ShiftID)
		conds = append(conds, fmt.Sprintf("shift_id=$%d", len(args)))
	}
	if f != nil && f.SlotType != nil {
		args = append(args, *f.SlotType)
		conds = append(conds, fmt.Sprintf("slot_type=$%d", len(args)))
	}
	if f != nil && f.IsActive != nil {
		args = append(args, *f.IsActive)
		conds = append(conds, fmt.Sprintf("is_active=$%d", len(args)))
	}

	query := fmt.Sprintf(
		`SELECT period_slot_id, tenant_id, day_pattern_id, shift_id, period_number, slot_type, start_time, end_time, duration_minutes, display_order, is_active
		FROM period_slots WHERE %s
		ORDER BY display_order, start_time`,
		strings.Join(conds, " AND "),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var slots []*models.PeriodSlot

	for rows.Next() {
		var m models.PeriodSlot
		err := rows.Scan(
			&m.ID, &m.TenantID, &m.DayPatternID, &m.ShiftID, &m.PeriodNumber,
			&m.SlotType, &m.StartTime, &m.EndTime, &m.DurationMinutes,
			&m.DisplayOrder, &m.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		slots = append(slots, &m)
	}

	return slots, nil
}

func (s *Storage) UpdatePeriodSlot(ctx context.Context, m *models.PeriodSlot) error {
	const op = "storage.postgres.UpdatePeriodSlot"

	res, err := s.db.ExecContext(ctx,
		`UPDATE period_slots
		SET period_number=$1, slot_type=$2, start_time=$3, end_time=$4, duration_minutes=$5, display_order=$6, is_active=$7
		WHERE tenant_id=$8 AND period_slot_id=$9`,
		m.PeriodNumber, string(m.SlotType), m.StartTime, m.EndTime,
		m.DurationMinutes, m.DisplayOrder, m.IsActive,
		m.TenantID, m.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) DeletePeriodSlot(ctx context.Context, tenantID, id string) error {
	const op = "storage.postgres.DeletePeriodSlot"

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM period_slots WHERE tenant_id=$1 AND period_slot_id=$2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPqError(err, response.ErrInUse))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) CountEntriesBySlot(ctx context.Context, tenantID, slotID string) (int, error) {
	const op = "storage.postgres.CountEntriesBySlot"

	var n int

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM timetable_entries e
		JOIN timetables t ON t.timetable_id = e.timetable_id
		WHERE t.tenant_id=$1 AND e.period_slot_id=$2`,
		tenantID, slotID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// #### day plans ####

func (s *Storage) GetDayPlan(ctx context.Context, tenantID, branchID string, dayOfWeek int) (*models.DayPlan, error) {
	const op = "storage.postgres.GetDayPlan"

	var m models.DayPlan

	err := s.db.QueryRowContext(ctx,
		`SELECT day_plan_id, tenant_id, branch_id, day_of_week, day_pattern_id, is_working_day, updated_at
		FROM day_plans WHERE tenant_id=$1 AND branch_id=$2 AND day_of_week=$3`,
		tenantID, branchID, dayOfWeek).
		Scan(&m.ID, &m.TenantID, &m.BranchID, &m.DayOfWeek, &m.DayPatternID, &m.IsWorkingDay, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &m, nil
}

// UpsertDayPlan is keyed on (tenant, branch, day_of_week); the last
// writer wins.
func (s *Storage) UpsertDayPlan(ctx context.Context, m *models.DayPlan) error {
	const op = "storage.postgres.UpsertDayPlan"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO day_plans
		(day_plan_id, tenant_id, branch_id, day_of_week, day_pattern_id, is_working_day)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, branch_id, day_of_week)
		DO UPDATE
		SET day_pattern_id = EXCLUDED.day_pattern_id,
			is_working_day = EXCLUDED.is_working_day,
			updated_at = now()`,
		m.ID, m.TenantID, m.BranchID, m.DayOfWeek, m.DayPatternID, m.IsWorkingDay,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPqError(err, response.ErrBadRequest))
	}

	return nil
}

func (s *Storage) ListDayPlans(ctx context.Context, tenantID, branchID string) ([]*models.DayPlan, error) {
	const op = "storage.postgres.ListDayPlans"

	rows, err := s.db.QueryContext(ctx,
		`SELECT day_plan_id, tenant_id, branch_id, day_of_week, day_pattern_id, is_working_day, updated_at
		FROM day_plans WHERE tenant_id=$1 AND branch_id=$2
		ORDER BY day_of_week`,
		tenantID, branchID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var plans []*models.DayPlan

	for rows.Next() {
		var m models.DayPlan
		err := rows.Scan(&m.ID, &m.TenantID, &m.BranchID, &m.DayOfWeek, &m.DayPatternID, &m.IsWorkingDay, &m.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		plans = append(plans, &m)
	}

	return plans, nil
}
