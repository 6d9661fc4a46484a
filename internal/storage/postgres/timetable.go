package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"timetable-service/internal/models"
	"timetable-service/pkg/response"
)

// #### timetables ####

func (s *Storage) CreateTimetable(ctx context.Context, m *models.Timetable) error {
	const op = "storage.postgres.CreateTimetable"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO timetables
		(timetable_id, tenant_id, branch_id, section_id, academic_year_id, name, description, status, effective_from, effective_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.TenantID, m.BranchID, m.SectionID, m.AcademicYearID,
		m.Name, m.Description, string(m.Status), m.EffectiveFrom, m.EffectiveTo,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapPqError(err, response.ErrBadRequest))
	}

	return nil
}

func (s *Storage) GetTimetable(ctx context.Context, tenantID, id string) (*models.Timetable, error) {
	const op = "storage.postgres.GetTimetable"

	var m models.Timetable

	err := s.db.QueryRowContext(ctx,
		`SELECT timetable_id, tenant_id, branch_id, section_id, academic_year_id, name, description, status, effective_from, effective_to, published_by, published_at, created_at, updated_at
		FROM timetables WHERE tenant_id=$1 AND timetable_id=$2`, tenantID, id).
		Scan(
			&m.ID, &m.TenantID, &m.BranchID, &m.SectionID, &m.AcademicYearID,
			&m.Name, &m.Description, &m.Status, &m.EffectiveFrom, &m.EffectiveTo,
			&m.PublishedBy, &m.PublishedAt, &m.CreatedAt, &m.UpdatedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &m, nil
}

func (s *Storage) GetPublishedTimetable(ctx context.Context, tenantID, sectionID, academicYearID string) (*models.Timetable, error) {
	const op = "storage.postgres.GetPublishedTimetable"

	var m models.Timetable

	err := s.db.QueryRowContext(ctx,
		`SELECT timetable_id, tenant_id, branch_id, section_id, academic_year_id, name, description, status, effective_from, effective_to, published_by, published_at, created_at, updated_at
		FROM timetables
		WHERE tenant_id=$1 AND section_id=$2 AND academic_year_id=$3 AND status='published'`,
		tenantID, sectionID, academicYearID).
		Scan(
			&m.ID, &m.TenantID, &m.BranchID, &m.SectionID, &m.AcademicYearID,
			&m.Name, &m.Description, &m.Status, &m.EffectiveFrom, &m.EffectiveTo,
			&m.PublishedBy, &m.PublishedAt, &m.CreatedAt, &m.UpdatedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &m, nil
}

func (s *Storage) UpdateTimetable(ctx context.Context, m *models.Timetable) error {
	const op = "storage.postgres.UpdateTimetable"

	res, err := s.db.ExecContext(ctx,
		`UPDATE timetables
		SET name=$1, description=$2, effective_from=$3, effective_to=$4, updated_at=now()
		WHERE tenant_id=$5 AND timetable_id=$6`,
		m.Name, m.Description, m.EffectiveFrom, m.EffectiveTo, m.TenantID, m.ID,
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

// ArchivePublishedTx archives every published timetable for the
// section/year except the one being published.
func (s *Storage) ArchivePublishedTx(ctx context.Context, tx *sql.Tx, tenantID, sectionID, academicYearID, excludeID string) error {
	const op = "storage.postgres.ArchivePublishedTx"

	_, err := tx.ExecContext(ctx,
		`UPDATE timetables SET status='archived', updated_at=now()
		WHERE tenant_id=$1 AND section_id=$2 AND academic_year_id=$3
		AND status='published' AND timetable_id != $4`,
		tenantID, sectionID, academicYearID, excludeID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) PublishTimetableTx(ctx context.Context, tx *sql.Tx, tenantID, id, publishedBy string, publishedAt time.Time) error {
	const op = "storage.postgres.PublishTimetableTx"

	res, err := tx.ExecContext(ctx,
		`UPDATE timetables
		SET status='published', published_by=$1, published_at=$2, updated_at=now()
		WHERE tenant_id=$3 AND timetable_id=$4 AND status='draft'`,
		publishedBy, publishedAt, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrAlreadyPublished)
	}

	return nil
}

func (s *Storage) SetTimetableStatus(ctx context.Context, tenantID, id string, status models.TimetableStatus) error {
	const op = "storage.postgres.SetTimetableStatus"

	res, err := s.db.ExecContext(ctx,
		`UPDATE timetables SET status=$1, updated_at=now()
		WHERE tenant_id=$2 AND timetable_id=$3`,
		string(status), tenantID, id,
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

// DeleteTimetableTx removes the entries first; the timetable owns them.
func (s *Storage) DeleteTimetableTx(ctx context.Context, tx *sql.Tx, tenantID, id string) error {
	const op = "storage.postgres.DeleteTimetableTx"

	_, err := tx.ExecContext(ctx,
		`DELETE FROM timetable_entries WHERE timetable_id=$1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM timetables WHERE tenant_id=$1 AND timetable_id=$2`, tenantID, id)
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

// #### timetable entries ####

func (s *Storage) ListEntries(ctx context.Context, timetableID string) ([]*models.TimetableEntry, error) {
	const op = "storage.postgres.ListEntries"

	rows, err := s.db.QueryContext(ctx,
		`SELECT e.entry_id, e.timetable_id, e.day_of_week, e.period_slot_id, e.subject_id, e.teacher_id, e.room_id, e.is_free_period, e.notes
		FROM timetable_entries e
		JOIN period_slots p ON p.period_slot_id = e.period_slot_id
		WHERE e.timetable_id=$1
		ORDER BY e.day_of_week, p.display_order`,
		timetableID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var entries []*models.TimetableEntry

	for rows.Next() {
		var m models.TimetableEntry
		err := rows.Scan(
			&m.ID, &m.TimetableID, &m.DayOfWeek, &m.PeriodSlotID,
			&m.SubjectID, &m.TeacherID, &m.RoomID, &m.IsFreePeriod, &m.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		entries = append(entries, &m)
	}

	return entries, nil
}

func (s *Storage) GetEntry(ctx context.Context, timetableID, entryID string) (*models.TimetableEntry, error) {
	const op = "storage.postgres.GetEntry"

	var m models.TimetableEntry

	err := s.db.QueryRowContext(ctx,
		`SELECT entry_id, timetable_id, day_of_week, period_slot_id, subject_id, teacher_id, room_id, is_free_period, notes
		FROM timetable_entries WHERE timetable_id=$1 AND entry_id=$2`,
		timetableID, entryID).
		Scan(
			&m.ID, &m.TimetableID, &m.DayOfWeek, &m.PeriodSlotID,
			&m.SubjectID, &m.TeacherID, &m.RoomID, &m.IsFreePeriod, &m.Notes,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &m, nil
}

// UpsertEntryTx writes one grid cell; an occupied (timetable, day, slot)
// cell is overwritten and keeps its entry id.
func (s *Storage) UpsertEntryTx(ctx context.Context, tx *sql.Tx, m *models.TimetableEntry) (string, error) {
	const op = "storage.postgres.UpsertEntryTx"

	var id string

	err := tx.QueryRowContext(ctx,
		`INSERT INTO timetable_entries
		(entry_id, timetable_id, day_of_week, period_slot_id, subject_id, teacher_id, room_id, is_free_period, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (timetable_id, day_of_week, period_slot_id)
		DO UPDATE
		SET subject_id = EXCLUDED.subject_id,
			teacher_id = EXCLUDED.teacher_id,
			room_id = EXCLUDED.room_id,
			is_free_period = EXCLUDED.is_free_period,
			notes = EXCLUDED.notes
		RETURNING entry_id`,
		m.ID, m.TimetableID, m.DayOfWeek, m.PeriodSlotID,
		m.SubjectID, m.TeacherID, m.RoomID, m.IsFreePeriod, m.Notes,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapPqError(err, response.ErrBadRequest))
	}

	return id, nil
}

func (s *Storage) DeleteEntry(ctx context.Context, timetableID, entryID string) error {
	const op = "storage.postgres.DeleteEntry"

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM timetable_entries WHERE timetable_id=$1 AND entry_id=$2`,
		timetableID, entryID)
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

// FindTeacherConflicts scans published timetables only; drafts and
// archived versions never constitute a conflict.
func (s *Storage) FindTeacherConflicts(ctx context.Context, tenantID, teacherID string, dayOfWeek int, periodSlotID string, excludeTimetableID *string) ([]*models.TeacherCommitment, error) {
	const op = "storage.postgres.FindTeacherConflicts"

	query := `SELECT e.entry_id, e.timetable_id, t.section_id, t.academic_year_id, e.subject_id, e.day_of_week, e.period_slot_id, p.period_number, p.start_time, p.end_time
		FROM timetable_entries e
		JOIN timetables t ON t.timetable_id = e.timetable_id
		JOIN period_slots p ON p.period_slot_id = e.period_slot_id
		WHERE t.tenant_id=$1 AND t.status='published'
		AND e.teacher_id=$2 AND e.day_of_week=$3 AND e.period_slot_id=$4`
	args := []any{tenantID, teacherID, dayOfWeek, periodSlotID}

	if excludeTimetableID != nil {
		args = append(args, *excludeTimetableID)
		query += fmt.Sprintf(" AND e.timetable_id != $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var conflicts []*models.TeacherCommitment

	for rows.Next() {
		var m models.TeacherCommitment
		err := rows.Scan(
			&m.EntryID, &m.TimetableID, &m.SectionID, &m.AcademicYearID,
			&m.SubjectID, &m.DayOfWeek, &m.PeriodSlotID, &m.PeriodNumber,
			&m.StartTime, &m.EndTime,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		conflicts = append(conflicts, &m)
	}

	return conflicts, nil
}

func (s *Storage) GetTeacherSchedule(ctx context.Context, tenantID, teacherID, academicYearID string) ([]*models.TeacherCommitment, error) {
	const op = "storage.postgres.GetTeacherSchedule"

	rows, err := s.db.QueryContext(ctx,
		`SELECT e.entry_id, e.timetable_id, t.section_id, t.academic_year_id, e.subject_id, e.day_of_week, e.period_slot_id, p.period_number, p.start_time, p.end_time
		FROM timetable_entries e
		JOIN timetables t ON t.timetable_id = e.timetable_id
		JOIN period_slots p ON p.period_slot_id = e.period_slot_id
		WHERE t.tenant_id=$1 AND t.status='published'
		AND e.teacher_id=$2 AND t.academic_year_id=$3
		ORDER BY e.day_of_week, p.display_order`,
		tenantID, teacherID, academicYearID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var schedule []*models.TeacherCommitment

	for rows.Next() {
		var m models.TeacherCommitment
		err := rows.Scan(
			&m.EntryID, &m.TimetableID, &m.SectionID, &m.AcademicYearID,
			&m.SubjectID, &m.DayOfWeek, &m.PeriodSlotID, &m.PeriodNumber,
			&m.StartTime, &m.EndTime,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		schedule = append(schedule, &m)
	}

	return schedule, nil
}

func (s *Storage) GetTeacherDaySchedule(ctx context.Context, tenantID, teacherID string, dayOfWeek int) ([]*models.TeacherCommitment, error) {
	const op = "storage.postgres.GetTeacherDaySchedule"

	rows, err := s.db.QueryContext(ctx,
		`SELECT e.entry_id, e.timetable_id, t.section_id, t.academic_year_id, e.subject_id, e.day_of_week, e.period_slot_id, p.period_number, p.start_time, p.end_time
		FROM timetable_entries e
		JOIN timetables t ON t.timetable_id = e.timetable_id
		JOIN period_slots p ON p.period_slot_id = e.period_slot_id
		WHERE t.tenant_id=$1 AND t.status='published'
		AND e.teacher_id=$2 AND e.day_of_week=$3
		ORDER BY p.display_order`,
		tenantID, teacherID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var schedule []*models.TeacherCommitment

	for rows.Next() {
		var m models.TeacherCommitment
		err := rows.Scan(
			&m.EntryID, &m.TimetableID, &m.SectionID, &m.AcademicYearID,
			&m.SubjectID, &m.DayOfWeek, &m.PeriodSlotID, &m.PeriodNumber,
			&m.StartTime, &m.EndTime,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		schedule = append(schedule, &m)
	}

	return schedule, nil
}
