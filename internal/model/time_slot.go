package model

import (
	"fmt"
	"time"
)

// Slot status values.  A slot is bookable while ACTIVE.  Retirement is a
// one-way transition to DISABLED; disabled slots stay on record because
// past bookings and attendance entries may still reference them.
const (
	SlotStatusActive   = "ACTIVE"
	SlotStatusDisabled = "DISABLED"
)

// LessonDuration is the fixed length of every lesson.  End times are always
// derived from the start time; the duration is not configurable.
const LessonDuration = 60 * time.Minute

// TimeSlot is a bookable lesson unit.  The combination of Date, StartTime
// and InstructorID forms the natural key: at most one slot exists per
// instructor per date per start time.
//
// Fields:
//  ID             – primary key identifier.
//  Date           – calendar day of the lesson (no time-of-day component).
//  StartTime      – local start time in "HH:MM" form.
//  EndTime        – local end time in "HH:MM" form, always start + 60m.
//  Status         – ACTIVE or DISABLED.
//  InstructorID   – instructor giving the lesson.
//  VehicleID      – vehicle assigned to the lesson.
//  BookedStudents – ordered student IDs booked into the slot; no duplicates.
//  MaxCapacity    – seat limit; len(BookedStudents) never exceeds it.
//  Version        – incremented on every roster mutation.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last modification timestamp.
type TimeSlot struct {
	ID             uint64    `json:"id"`
	Date           string    `json:"date"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	Status         string    `json:"status"`
	InstructorID   uint64    `json:"instructor_id"`
	VehicleID      uint64    `json:"vehicle_id"`
	BookedStudents []uint64  `json:"booked_students"`
	MaxCapacity    int       `json:"max_capacity"`
	Version        uint32    `json:"-"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// dateLayout and clockLayout are the wire and storage formats for slot
// dates and times.  Dates carry no zone; times are local wall clock.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ParseDate validates a calendar day in YYYY-MM-DD form and returns it as a
// midnight UTC time.Time for arithmetic (adding weeks, day windows).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseClock validates a wall-clock time in HH:MM form.  Seconds are not
// accepted; slots begin on whole minutes.
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return t, nil
}

// LessonEnd returns the HH:MM end time for a lesson starting at the given
// HH:MM start time.  The caller must have validated start with ParseClock.
func LessonEnd(start string) (string, error) {
	t, err := ParseClock(start)
	if err != nil {
		return "", err
	}
	return t.Add(LessonDuration).Format(ClockLayout), nil
}
