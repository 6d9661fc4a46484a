package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"timetable-service/internal/models"
	"timetable-service/pkg/response"
)

// #### substitutions ####

// CreateSubstitutionTx persists the substitution and all its periods as
// one unit; either everything is recorded or nothing is.
func (s *Storage) CreateSubstitutionTx(ctx context.Context, tx *sql.Tx, m *models.Substitution, periods []*models.SubstitutionPeriod) error {
	const op = "storage.postgres.CreateSubstitutionTx"

	_, err := tx.ExecContext(ctx,
		`INSERT INTO substitutions
		(substitution_id, tenant_id, branch_id, original_teacher_id, substitute_teacher_id, date, reason, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.TenantID, m.BranchID, m.OriginalTeacherID, m.SubstituteTeacherID,
		m.Date, m.Reason, m.Notes, string(m.Status),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPqError(err, response.ErrBadRequest))
	}

	for _, p := range periods {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO substitution_periods
			(substitution_period_id, substitution_id, period_slot_id, timetable_entry_id, subject_id, section_id, room_id, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.ID, p.SubstitutionID, p.PeriodSlotID, p.TimetableEntryID,
			p.SubjectID, p.SectionID, p.RoomID, p.Notes,
		)
		if err != nil {
			return fmt.Errorf("%s: %w", op, mapPqError(err, response.ErrBadRequest))
		}
	}

	return nil
}

func (s *Storage) GetSubstitution(ctx context.Context, tenantID, id string) (*models.Substitution, error) {
	const op = "storage.postgres.GetSubstitution"

	var m models.Substitution

	err := s.db.QueryRowContext(ctx,
		`SELECT substitution_id, tenant_id, branch_id, original_teacher_id, substitute_teacher_id, date, reason, notes, status, approved_by, approved_at, created_at, updated_at
		FROM substitutions WHERE tenant_id=$1 AND substitution_id=$2`, tenantID, id).
		Scan(
			&m.ID, &m.TenantID, &m.BranchID, &m.OriginalTeacherID, &m.SubstituteTeacherID,
			&m.Date, &m.Reason, &m.Notes, &m.Status, &m.ApprovedBy, &m.ApprovedAt,
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

func (s *Storage) ListSubstitutionPeriods(ctx context.Context, substitutionID string) ([]*models.SubstitutionPeriod, error) {
	const op = "storage.postgres.ListSubstitutionPeriods"

	rows, err := s.db.QueryContext(ctx,
		`SELECT sp.substitution_period_id, sp.substitution_id, sp.period_slot_id, sp.timetable_entry_id, sp.subject_id, sp.section_id, sp.room_id, sp.notes
		FROM substitution_periods sp
		JOIN period_slots p ON p.period_slot_id = sp.period_slot_id
		WHERE sp.substitution_id=$1
		ORDER BY p.display_order`,
		substitutionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var periods []*models.SubstitutionPeriod

	for rows.Next() {
		var m models.SubstitutionPeriod
		err := rows.Scan(
			&m.ID, &m.SubstitutionID, &m.PeriodSlotID, &m.TimetableEntryID,
			&m.SubjectID, &m.SectionID, &m.RoomID, &m.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		periods = append(periods, &m)
	}

	return periods, nil
}

func (s *Storage) ListSubstitutions(ctx context.Context, tenantID string, f *models.SubstitutionFilters) ([]*models.Substitution, error) {
	const op = "storage.postgres.ListSubstitutions"

	conds := []string{"tenant_id=$1"}
	args := []any{tenantID}

	if f != nil && f.BranchID != nil {
		args = append(args, *f.BranchID)
		conds = append(conds, fmt.Sprintf("branch_id=$%d", len(args)))
	}
	if f != nil && f.Date != nil {
		args = append(args, *f.Date)
		conds = append(conds, fmt.Sprintf("date=$%d", len(args)))
	}
	if f != nil && f.Status != nil {
		args = append(args, *f.Status)
		conds = append(conds, fmt.Sprintf("status=$%d", len(args)))
	}

	query := fmt.Sprintf(
		`SELECT substitution_id, tenant_id, branch_id, original_teacher_id, substitute_teacher_id, date, reason, notes, status, approved_by, approved_at, created_at, updated_at
		FROM substitutions WHERE %s
		ORDER BY date DESC, created_at DESC`,
		strings.Join(conds, " AND "),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var subs []*models.Substitution

	for rows.Next() {
		var m models.Substitution
		err := rows.Scan(
			&m.ID, &m.TenantID, &m.BranchID, &m.OriginalTeacherID, &m.SubstituteTeacherID,
			&m.Date, &m.Reason, &m.Notes, &m.Status, &m.ApprovedBy, &m.ApprovedAt,
			&m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		subs = append(subs, &m)
	}

	return subs, nil
}

func (s *Storage) UpdateSubstitution(ctx context.Context, m *models.Substitution) error {
	const op = "storage.postgres.UpdateSubstitution"

	res, err := s.db.ExecContext(ctx,
		`UPDATE substitutions
		SET substitute_teacher_id=$1, reason=$2, notes=$3, status=$4, updated_at=now()
		WHERE tenant_id=$5 AND substitution_id=$6`,
		m.SubstituteTeacherID, m.Reason, m.Notes, string(m.Status), m.TenantID, m.ID,
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

// SetSubstitutionStatus applies a guarded transition: the row is updated
// only while its status is one of `from`, so racing callers cannot
// double-apply a transition. Returns the number of rows changed.
func (s *Storage) SetSubstitutionStatus(ctx context.Context, tenantID, id string, from []string, to models.SubstitutionStatus, approvedBy *string, approvedAt *time.Time) (int64, error) {
	const op = "storage.postgres.SetSubstitutionStatus"

	res, err := s.db.ExecContext(ctx,
		`UPDATE substitutions
		SET status=$1,
			approved_by = COALESCE($2, approved_by),
			approved_at = COALESCE($3, approved_at),
			updated_at = now()
		WHERE tenant_id=$4 AND substitution_id=$5 AND status = ANY($6)`,
		string(to), approvedBy, approvedAt, tenantID, id, pq.Array(from),
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// DeleteSubstitutionTx removes the substitution and its periods as one
// unit; a failure between the two deletes rolls both back.
func (s *Storage) DeleteSubstitutionTx(ctx context.Context, tx *sql.Tx, tenantID, id string) error {
	const op = "storage.postgres.DeleteSubstitutionTx"

	_, err := tx.ExecContext(ctx,
		`DELETE FROM substitution_periods WHERE substitution_id=$1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM substitutions WHERE tenant_id=$1 AND substitution_id=$2`, tenantID, id)
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

// HasOriginalOverlap reports whether the teacher already has a
// non-cancelled substitution on the date covering any of the slots.
func (s *Storage) HasOriginalOverlap(ctx context.Context, tenantID, teacherID string, date time.Time, slotIDs []string) (bool, error) {
	const op = "storage.postgres.HasOriginalOverlap"

	var exists bool

	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM substitutions sub
			JOIN substitution_periods sp ON sp.substitution_id = sub.substitution_id
			WHERE sub.tenant_id=$1 AND sub.original_teacher_id=$2
			AND sub.date=$3 AND sub.status != 'cancelled'
			AND sp.period_slot_id = ANY($4)
		)`,
		tenantID, teacherID, date, pq.Array(slotIDs)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

// HasSubstituteOverlap reports whether the teacher is already booked as
// a substitute on the date for any of the slots. excludeID skips one
// substitution, used when re-checking an update against itself.
func (s *Storage) HasSubstituteOverlap(ctx context.Context, tenantID, teacherID string, date time.Time, slotIDs []string, excludeID *string) (bool, error) {
	const op = "storage.postgres.HasSubstituteOverlap"

	query := `SELECT EXISTS (
			SELECT 1 FROM substitutions sub
			JOIN substitution_periods sp ON sp.substitution_id = sub.substitution_id
			WHERE sub.tenant_id=$1 AND sub.substitute_teacher_id=$2
			AND sub.date=$3 AND sub.status != 'cancelled'
			AND sp.period_slot_id = ANY($4)`
	args := []any{tenantID, teacherID, date, pq.Array(slotIDs)}

	if excludeID != nil {
		args = append(args, *excludeID)
		query += fmt.Sprintf(" AND sub.substitution_id != $%d", len(args))
	}
	query += ")"

	var exists bool

	err := s.db.QueryRowContext(ctx, query, args...).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

// #### staff directory (read-only) ####

func (s *Storage) ListActiveTeachers(ctx context.Context, tenantID, branchID string) ([]*models.StaffMember, error) {
	const op = "storage.postgres.ListActiveTeachers"

	rows, err := s.db.QueryContext(ctx,
		`SELECT staff_id, name, branch_id FROM staff
		WHERE tenant_id=$1 AND branch_id=$2 AND is_teaching=TRUE AND is_active=TRUE
		ORDER BY name`,
		tenantID, branchID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var staff []*models.StaffMember

	for rows.Next() {
		var m models.StaffMember
		err := rows.Scan(&m.ID, &m.Name, &m.BranchID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		staff = append(staff, &m)
	}

	return staff, nil
}
