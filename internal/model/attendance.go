package model

import "time"

// Attendance status values recorded per student per session.
const (
	AttendancePresent = "PRESENT"
	AttendanceAbsent  = "ABSENT"
	AttendanceLate    = "LATE"
)

// ValidAttendanceStatus reports whether s is one of the recognised
// attendance statuses.
func ValidAttendanceStatus(s string) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}

// AttendanceRecord marks a student's presence for a session.  When
// TimeSlotID is set the record is scoped to that slot and at most one
// record exists per (student, slot).  When TimeSlotID is nil the record is
// an ad-hoc mark scoped to (student, calendar day); repeated marks for the
// same day update the existing record rather than creating new ones.
//
// Fields:
//  ID         – primary key identifier.
//  StudentID  – student the mark applies to.
//  TimeSlotID – slot the mark is tied to, nil for ad-hoc day marks.
//  Status     – PRESENT, ABSENT or LATE.
//  MarkedBy   – staff member who recorded the mark.
//  Date       – calendar day of the session in YYYY-MM-DD form.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last modification timestamp.
type AttendanceRecord struct {
	ID         uint64    `json:"id"`
	StudentID  uint64    `json:"student_id"`
	TimeSlotID *uint64   `json:"time_slot_id,omitempty"`
	Status     string    `json:"status"`
	MarkedBy   uint64    `json:"marked_by"`
	Date       string    `json:"date"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}
