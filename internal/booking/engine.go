// Package booking implements the recurring lesson booking workflow.  A
// single request books one student with one instructor at a fixed
// weekly time across one or more consecutive weeks.  Weeks commit
// sequentially and independently: when week k fails, weeks [0, k) stay
// committed and the result reports both the committed slots and the
// failing date, so callers can always tell "nothing happened" apart
// from "some weeks succeeded".
package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
	"github.com/iliyamo/driving-lesson-scheduler/internal/repository"
)

// defaultCapacity is the seat limit attached to slots the engine
// creates lazily.  Explicitly created slots may carry a larger limit.
const defaultCapacity = 1

// maxWeeks bounds a recurring request; a typical course runs far below
// this.
const maxWeeks = 52

// ErrValidation wraps all malformed-request failures.  Handlers match
// it with errors.Is and answer 400.
var ErrValidation = errors.New("invalid booking request")

// SlotStore is the slice of the slot repository the engine needs.  Both
// operations must be atomic with respect to concurrent callers:
// FindOrCreate is a single upsert on the natural key, and BookStudent
// is a single conditional append that fails with
// repository.ErrSlotFull or repository.ErrAlreadyBooked.
type SlotStore interface {
	FindOrCreate(ctx context.Context, spec repository.SlotSpec) (model.TimeSlot, bool, error)
	BookStudent(ctx context.Context, slotID, studentID uint64) error
	GetByID(ctx context.Context, id uint64) (model.TimeSlot, error)
}

// Directory resolves identities by id constrained to a role.
type Directory interface {
	GetActiveByRole(ctx context.Context, id uint64, role string) (model.User, error)
}

// VehicleRegistry checks that a referenced vehicle exists.
type VehicleRegistry interface {
	GetByID(ctx context.Context, id uint64) (model.Vehicle, error)
}

// Engine orchestrates booking requests against the slot store and the
// identity and vehicle collaborators.
type Engine struct {
	slots    SlotStore
	users    Directory
	vehicles VehicleRegistry
}

// NewEngine constructs an Engine.  All dependencies must be non-nil.
func NewEngine(slots SlotStore, users Directory, vehicles VehicleRegistry) *Engine {
	if slots == nil || users == nil || vehicles == nil {
		panic("nil dependency passed to NewEngine")
	}
	return &Engine{slots: slots, users: users, vehicles: vehicles}
}

// Request carries one booking request.  Identities are referenced by id;
// name search belongs to the directory endpoint, not the booking path.
// Weeks is only honored when Recurring is set; otherwise one week is
// booked.
type Request struct {
	StudentID    uint64 `json:"student_id"`
	InstructorID uint64 `json:"instructor_id"`
	VehicleID    uint64 `json:"vehicle_id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Recurring    bool   `json:"recurring"`
	Weeks        int    `json:"weeks"`
}

// Result reports what a booking request committed.  On full success
// FailedDate is empty and Committed holds one slot per requested week.
// On failure Committed holds the slots from the weeks that succeeded
// before the failing one.
type Result struct {
	Committed  []model.TimeSlot `json:"slots"`
	FailedDate string           `json:"failed_date,omitempty"`
}

// WeekError reports which week of a recurring request failed and why.
// The wrapped cause is one of the repository sentinels, so handlers can
// keep matching with errors.Is.
type WeekError struct {
	Date string
	Err  error
}

func (e *WeekError) Error() string { return fmt.Sprintf("week of %s: %v", e.Date, e.Err) }
func (e *WeekError) Unwrap() error { return e.Err }

// validate checks the request shape before any identity resolution or
// mutation happens.  Validation failures never have side effects.
func (r Request) validate() (weeks int, err error) {
	switch {
	case r.StudentID == 0:
		return 0, fmt.Errorf("%w: student_id is required", ErrValidation)
	case r.InstructorID == 0:
		return 0, fmt.Errorf("%w: instructor_id is required", ErrValidation)
	case r.VehicleID == 0:
		return 0, fmt.Errorf("%w: vehicle_id is required", ErrValidation)
	case r.Date == "":
		return 0, fmt.Errorf("%w: date is required", ErrValidation)
	case r.Time == "":
		return 0, fmt.Errorf("%w: time is required", ErrValidation)
	}
	if _, err := model.ParseDate(r.Date); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := model.ParseClock(r.Time); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	weeks = 1
	if r.Recurring {
		weeks = r.Weeks
		if weeks < 1 {
			return 0, fmt.Errorf("%w: weeks must be at least 1 for a recurring booking", ErrValidation)
		}
		if weeks > maxWeeks {
			return 0, fmt.Errorf("%w: weeks may not exceed %d", ErrValidation, maxWeeks)
		}
	}
	return weeks, nil
}

// Book executes the request.  For each week i in [0, weeks) it resolves
// the slot at (date + i*7 days, time, instructor) with an atomic
// find-or-create, then appends the student with an atomic conditional
// write.  Slots committed before a failing week remain committed; the
// returned Result always carries them, error or not.
func (e *Engine) Book(ctx context.Context, req Request) (Result, error) {
	var result Result
	result.Committed = []model.TimeSlot{}

	weeks, err := req.validate()
	if err != nil {
		return result, err
	}

	student, err := e.users.GetActiveByRole(ctx, req.StudentID, model.RoleStudent)
	if err != nil {
		return result, fmt.Errorf("student %d: %w", req.StudentID, err)
	}
	if _, err := e.users.GetActiveByRole(ctx, req.InstructorID, model.RoleInstructor); err != nil {
		return result, fmt.Errorf("instructor %d: %w", req.InstructorID, err)
	}
	if _, err := e.vehicles.GetByID(ctx, req.VehicleID); err != nil {
		return result, fmt.Errorf("vehicle %d: %w", req.VehicleID, err)
	}

	base, _ := model.ParseDate(req.Date)
	endTime, err := model.LessonEnd(req.Time)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	for i := 0; i < weeks; i++ {
		date := base.AddDate(0, 0, 7*i).Format(model.DateLayout)
		slot, created, err := e.slots.FindOrCreate(ctx, repository.SlotSpec{
			Date:         date,
			StartTime:    req.Time,
			EndTime:      endTime,
			InstructorID: req.InstructorID,
			VehicleID:    req.VehicleID,
			MaxCapacity:  defaultCapacity,
		})
		if err != nil {
			result.FailedDate = date
			return result, &WeekError{Date: date, Err: err}
		}
		if !created && slot.Status == model.SlotStatusDisabled {
			result.FailedDate = date
			return result, &WeekError{Date: date, Err: repository.ErrSlotDisabled}
		}
		if err := e.slots.BookStudent(ctx, slot.ID, student.ID); err != nil {
			result.FailedDate = date
			return result, &WeekError{Date: date, Err: err}
		}
		committed, err := e.slots.GetByID(ctx, slot.ID)
		if err != nil {
			// The append itself committed; fall back to the pre-append
			// view rather than losing the slot from the result.
			committed = slot
			committed.BookedStudents = append(committed.BookedStudents, student.ID)
		}
		result.Committed = append(result.Committed, committed)
	}
	return result, nil
}
