// Package queue defines message payloads exchanged over the message broker.
package queue

// LessonBookedEvent is published after a booking request commits in
// full.  It carries enough for downstream consumers (reminder delivery,
// analytics) to act without querying the primary database.
type LessonBookedEvent struct {
	StudentID    uint64   `json:"student_id"`
	InstructorID uint64   `json:"instructor_id"`
	VehicleID    uint64   `json:"vehicle_id"`
	StartTime    string   `json:"start_time"`
	Weeks        int      `json:"weeks"`
	Dates        []string `json:"dates"`
	BookedBy     uint64   `json:"booked_by"`
	BookedAt     string   `json:"booked_at"`
}
