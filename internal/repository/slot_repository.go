package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
)

// SlotRepo provides persistence for lesson time slots and their student
// rosters.  Slots live in the time_slots table; the students booked into
// a slot live in the slot_students table, one row per (slot, student).
// The natural key (slot_date, start_time, instructor_id) is enforced by
// a unique index, and (slot_id, student_id) is unique in slot_students,
// so duplicate bookings are rejected by the database rather than by a
// read-then-write check.
//
// time_slots additionally carries a booked_count column kept in sync
// with the roster inside the same transaction.  Capacity enforcement is
// a single conditional UPDATE on that counter, which makes "append a
// student if room remains" atomic under concurrent requests.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a new SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

// SlotSpec describes a slot to create.  Date and times use the model
// layouts (YYYY-MM-DD and HH:MM); callers must validate them first.
type SlotSpec struct {
	Date         string
	StartTime    string
	EndTime      string
	InstructorID uint64
	VehicleID    uint64
	MaxCapacity  int
}

// slotColumns is the select list shared by every slot query.  Dates are
// formatted in SQL so the Go side never deals with zero time-of-day.
const slotColumns = `id, DATE_FORMAT(slot_date, '%Y-%m-%d'), start_time, end_time, status,
       instructor_id, vehicle_id, max_capacity, version, created_at, updated_at`

// isDuplicateKey reports whether err is a MySQL 1062 duplicate-key error.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// scanSlot reads one time_slots row.  The roster is not populated here;
// use loadRosters afterwards.
func scanSlot(row interface{ Scan(...any) error }) (model.TimeSlot, error) {
	var s model.TimeSlot
	err := row.Scan(&s.ID, &s.Date, &s.StartTime, &s.EndTime, &s.Status,
		&s.InstructorID, &s.VehicleID, &s.MaxCapacity,
		&s.Version, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// FindOrCreate resolves the slot identified by the spec's natural key,
// creating it when absent.  The insert uses ON DUPLICATE KEY UPDATE with
// the LAST_INSERT_ID trick so lookup and creation are a single atomic
// statement: two concurrent calls for the same key both resolve to the
// same row.  Vehicle and capacity from the spec only apply when the row
// is newly created; an existing slot keeps its own values.  The second
// return value reports whether a new slot was created.
func (r *SlotRepo) FindOrCreate(ctx context.Context, spec SlotSpec) (model.TimeSlot, bool, error) {
	const q = `INSERT INTO time_slots
	           (slot_date, start_time, end_time, status, instructor_id, vehicle_id, booked_count, max_capacity, version)
	           VALUES (?, ?, ?, 'ACTIVE', ?, ?, 0, ?, 0)
	           ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`
	res, err := r.db.ExecContext(ctx, q,
		spec.Date, spec.StartTime, spec.EndTime, spec.InstructorID, spec.VehicleID, spec.MaxCapacity)
	if err != nil {
		return model.TimeSlot{}, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.TimeSlot{}, false, err
	}
	// MySQL reports 1 affected row for an insert and 0 for a no-op
	// duplicate-key update, which tells us whether the slot is new.
	affected, err := res.RowsAffected()
	if err != nil {
		return model.TimeSlot{}, false, err
	}
	slot, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return model.TimeSlot{}, false, err
	}
	return slot, affected == 1, nil
}

// Create inserts a slot and fails with ErrSlotExists when the natural
// key is already taken.  Used by the explicit dashboard action; the
// booking path goes through FindOrCreate instead.
func (r *SlotRepo) Create(ctx context.Context, spec SlotSpec) (model.TimeSlot, error) {
	const q = `INSERT INTO time_slots
	           (slot_date, start_time, end_time, status, instructor_id, vehicle_id, booked_count, max_capacity, version)
	           VALUES (?, ?, ?, 'ACTIVE', ?, ?, 0, ?, 0)`
	res, err := r.db.ExecContext(ctx, q,
		spec.Date, spec.StartTime, spec.EndTime, spec.InstructorID, spec.VehicleID, spec.MaxCapacity)
	if err != nil {
		if isDuplicateKey(err) {
			return model.TimeSlot{}, ErrSlotExists
		}
		return model.TimeSlot{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.TimeSlot{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID loads a single slot with its roster.  Returns ErrSlotNotFound
// when the id does not exist.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (model.TimeSlot, error) {
	slot, err := scanSlot(r.db.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM time_slots WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.TimeSlot{}, ErrSlotNotFound
		}
		return model.TimeSlot{}, err
	}
	slots := []model.TimeSlot{slot}
	if err := r.loadRosters(ctx, slots); err != nil {
		return model.TimeSlot{}, err
	}
	return slots[0], nil
}

// BookStudent appends a student to a slot's roster, enforcing both slot
// invariants in one transaction: the unique (slot_id, student_id) index
// rejects duplicates and the conditional counter update rejects appends
// beyond max_capacity.  Either both writes commit or neither does, so
// booked_count always equals the roster size.  Returns ErrAlreadyBooked
// or ErrSlotFull on invariant violations.
func (r *SlotRepo) BookStudent(ctx context.Context, slotID, studentID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO slot_students (slot_id, student_id) VALUES (?, ?)`,
		slotID, studentID); err != nil {
		if isDuplicateKey(err) {
			return ErrAlreadyBooked
		}
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE time_slots
		 SET booked_count = booked_count + 1, version = version + 1
		 WHERE id = ? AND booked_count < max_capacity`,
		slotID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// The roster insert is rolled back with the transaction.
		return ErrSlotFull
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// RemoveStudent deletes a student from a slot's roster and decrements
// the counter in the same transaction.  Returns ErrNotBooked when the
// student is not in the slot.
func (r *SlotRepo) RemoveStudent(ctx context.Context, slotID, studentID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		`DELETE FROM slot_students WHERE slot_id = ? AND student_id = ?`,
		slotID, studentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotBooked
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE time_slots
		 SET booked_count = booked_count - 1, version = version + 1
		 WHERE id = ? AND booked_count > 0`,
		slotID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Disable retires a slot.  There is no transition back to ACTIVE.
// Returns ErrSlotNotFound when the id does not exist.
func (r *SlotRepo) Disable(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE time_slots SET status = 'DISABLED', version = version + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// ListByDay returns all slots on the given calendar day with rosters
// attached, ordered by start time then instructor for deterministic
// output.
func (r *SlotRepo) ListByDay(ctx context.Context, date string) ([]model.TimeSlot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM time_slots
		 WHERE slot_date = ?
		 ORDER BY start_time, instructor_id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]model.TimeSlot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadRosters(ctx, slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// UpcomingAppointment is one flattened (slot, student) pair returned by
// the upcoming appointments listing, with names resolved via joins.
type UpcomingAppointment struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	Student    string `json:"student"`
	Instructor string `json:"instructor"`
}

// ListUpcoming returns one row per booked seat for every slot dated on
// or after the given day, ordered chronologically.  Slots with an empty
// roster are omitted since there is no appointment to show.
func (r *SlotRepo) ListUpcoming(ctx context.Context, fromDate string) ([]UpcomingAppointment, error) {
	const q = `SELECT DATE_FORMAT(t.slot_date, '%Y-%m-%d'), t.start_time, stu.full_name, ins.full_name
	           FROM time_slots t
	           JOIN slot_students ss ON ss.slot_id = t.id
	           JOIN users stu ON stu.id = ss.student_id
	           JOIN users ins ON ins.id = t.instructor_id
	           WHERE t.slot_date >= ?
	           ORDER BY t.slot_date, t.start_time, ss.id`
	rows, err := r.db.QueryContext(ctx, q, fromDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]UpcomingAppointment, 0)
	for rows.Next() {
		var a UpcomingAppointment
		if err := rows.Scan(&a.Date, &a.Time, &a.Student, &a.Instructor); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// loadRosters populates BookedStudents for every slot in one query,
// using the insertion order of slot_students rows so rosters stay
// ordered.
func (r *SlotRepo) loadRosters(ctx context.Context, slots []model.TimeSlot) error {
	if len(slots) == 0 {
		return nil
	}
	ids := make([]interface{}, 0, len(slots))
	placeholders := make([]string, 0, len(slots))
	index := make(map[uint64]int, len(slots))
	for i := range slots {
		slots[i].BookedStudents = []uint64{}
		ids = append(ids, slots[i].ID)
		placeholders = append(placeholders, "?")
		index[slots[i].ID] = i
	}
	q := `SELECT slot_id, student_id FROM slot_students
	      WHERE slot_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY slot_id, id`
	rows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var slotID, studentID uint64
		if err := rows.Scan(&slotID, &studentID); err != nil {
			return err
		}
		if i, ok := index[slotID]; ok {
			slots[i].BookedStudents = append(slots[i].BookedStudents, studentID)
		}
	}
	return rows.Err()
}
