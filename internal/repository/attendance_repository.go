package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
)

// AttendanceRepo persists attendance marks in the attendance_records
// table.  Two upsert keys exist:
//
//   - slot-scoped marks are unique per (student_id, time_slot_id),
//     enforced by a unique index and written with a single
//     INSERT ... ON DUPLICATE KEY UPDATE statement;
//   - ad-hoc marks carry a NULL time_slot_id and are unique per
//     (student_id, att_date).  MySQL unique indexes admit repeated
//     NULLs, so the day-scoped upsert runs as a locked read-modify-write
//     inside one transaction instead.
//
// A repeated mark never creates a second row; it updates status and
// marked_by on the existing one.
type AttendanceRepo struct {
	db *sql.DB
}

// NewAttendanceRepo returns a new AttendanceRepo bound to the database.
func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{db: db} }

const attendanceColumns = `id, student_id, time_slot_id, status, marked_by,
       DATE_FORMAT(att_date, '%Y-%m-%d'), created_at, updated_at`

func scanAttendance(row interface{ Scan(...any) error }) (model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	var slotID sql.NullInt64
	err := row.Scan(&rec.ID, &rec.StudentID, &slotID, &rec.Status, &rec.MarkedBy,
		&rec.Date, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	if slotID.Valid {
		id := uint64(slotID.Int64)
		rec.TimeSlotID = &id
	}
	return rec, nil
}

// UpsertForSlot writes a slot-scoped attendance mark.  The unique
// (student_id, time_slot_id) index plus ON DUPLICATE KEY UPDATE makes
// the whole upsert one atomic statement; LAST_INSERT_ID(id) yields the
// row id for both the insert and the update case.
func (r *AttendanceRepo) UpsertForSlot(ctx context.Context, studentID, slotID uint64, date, status string, markedBy uint64) (model.AttendanceRecord, error) {
	const q = `INSERT INTO attendance_records (student_id, time_slot_id, att_date, status, marked_by)
	           VALUES (?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	               id = LAST_INSERT_ID(id),
	               status = VALUES(status),
	               marked_by = VALUES(marked_by),
	               att_date = VALUES(att_date)`
	res, err := r.db.ExecContext(ctx, q, studentID, slotID, date, status, markedBy)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	return r.getByID(ctx, uint64(id))
}

// UpsertAdHoc writes a day-scoped mark with no slot reference.  The
// match key is (student_id, att_date, time_slot_id IS NULL): one ad-hoc
// record per student per calendar day.  The existing row is locked with
// FOR UPDATE so two concurrent marks for the same day cannot both
// insert.
func (r *AttendanceRepo) UpsertAdHoc(ctx context.Context, studentID uint64, date, status string, markedBy uint64) (model.AttendanceRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var id uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM attendance_records
		 WHERE student_id = ? AND att_date = ? AND time_slot_id IS NULL
		 FOR UPDATE`,
		studentID, date).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, insErr := tx.ExecContext(ctx,
			`INSERT INTO attendance_records (student_id, time_slot_id, att_date, status, marked_by)
			 VALUES (?, NULL, ?, ?, ?)`,
			studentID, date, status, markedBy)
		if insErr != nil {
			return model.AttendanceRecord{}, insErr
		}
		newID, idErr := res.LastInsertId()
		if idErr != nil {
			return model.AttendanceRecord{}, idErr
		}
		id = uint64(newID)
	case err != nil:
		return model.AttendanceRecord{}, err
	default:
		if _, upErr := tx.ExecContext(ctx,
			`UPDATE attendance_records SET status = ?, marked_by = ? WHERE id = ?`,
			status, markedBy, id); upErr != nil {
			return model.AttendanceRecord{}, upErr
		}
	}
	if err := tx.Commit(); err != nil {
		return model.AttendanceRecord{}, err
	}
	committed = true
	return r.getByID(ctx, id)
}

// ListByDay returns every mark for a calendar day, slot-scoped and
// ad-hoc alike, ordered by student.
func (r *AttendanceRepo) ListByDay(ctx context.Context, date string) ([]model.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance_records
		 WHERE att_date = ? ORDER BY student_id, id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := make([]model.AttendanceRecord, 0)
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *AttendanceRepo) getByID(ctx context.Context, id uint64) (model.AttendanceRecord, error) {
	return scanAttendance(r.db.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance_records WHERE id = ?`, id))
}
