// Package attendance records per-student presence marks, either tied to
// a specific lesson slot or as ad-hoc marks scoped to a calendar day.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
)

// ErrInvalidStatus is returned when the requested status is missing or
// not one of PRESENT, ABSENT, LATE.  Handlers answer 400.
var ErrInvalidStatus = errors.New("invalid attendance status")

// Store is the slice of the attendance repository the recorder needs.
// Both operations are upserts: a repeated mark for the same key updates
// the stored record instead of creating a duplicate.
type Store interface {
	UpsertForSlot(ctx context.Context, studentID, slotID uint64, date, status string, markedBy uint64) (model.AttendanceRecord, error)
	UpsertAdHoc(ctx context.Context, studentID uint64, date, status string, markedBy uint64) (model.AttendanceRecord, error)
}

// SlotGetter loads a slot so the mark inherits its calendar day.
type SlotGetter interface {
	GetByID(ctx context.Context, id uint64) (model.TimeSlot, error)
}

// Directory resolves the student being marked.
type Directory interface {
	GetActiveByRole(ctx context.Context, id uint64, role string) (model.User, error)
}

// Recorder validates and stores attendance marks.
type Recorder struct {
	store Store
	slots SlotGetter
	users Directory
	now   func() time.Time
}

// NewRecorder constructs a Recorder.  All dependencies must be non-nil.
func NewRecorder(store Store, slots SlotGetter, users Directory) *Recorder {
	if store == nil || slots == nil || users == nil {
		panic("nil dependency passed to NewRecorder")
	}
	return &Recorder{store: store, slots: slots, users: users, now: time.Now}
}

// MarkRequest carries one attendance mark.  TimeSlotID is optional;
// when absent the mark is an ad-hoc record for today.
type MarkRequest struct {
	StudentID  uint64  `json:"student_id"`
	TimeSlotID *uint64 `json:"time_slot_id,omitempty"`
	Status     string  `json:"status"`
	MarkedBy   uint64  `json:"-"`
}

// Mark resolves the student, scopes the upsert key and stores the mark.
// Slot-scoped marks take their date from the slot; ad-hoc marks use the
// current day.  The stored record is returned.
func (r *Recorder) Mark(ctx context.Context, req MarkRequest) (model.AttendanceRecord, error) {
	if !model.ValidAttendanceStatus(req.Status) {
		return model.AttendanceRecord{}, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}
	student, err := r.users.GetActiveByRole(ctx, req.StudentID, model.RoleStudent)
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("student %d: %w", req.StudentID, err)
	}
	if req.TimeSlotID != nil {
		slot, err := r.slots.GetByID(ctx, *req.TimeSlotID)
		if err != nil {
			return model.AttendanceRecord{}, fmt.Errorf("slot %d: %w", *req.TimeSlotID, err)
		}
		return r.store.UpsertForSlot(ctx, student.ID, slot.ID, slot.Date, req.Status, req.MarkedBy)
	}
	today := r.now().UTC().Format(model.DateLayout)
	return r.store.UpsertAdHoc(ctx, student.ID, today, req.Status, req.MarkedBy)
}
