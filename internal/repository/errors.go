// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the booking engine to distinguish between different
// failure scenarios without inspecting database errors directly. For
// example, ErrSlotFull indicates that a conditional roster append was
// rejected because the slot is at capacity, while ErrAlreadyBooked
// signals that the student already occupies a seat in the slot.
package repository

import "errors"

// ErrSlotFull is returned when a roster append is rejected because the
// slot already holds max_capacity students. Handlers should translate
// this into an HTTP 409 response.
var ErrSlotFull = errors.New("slot full")

// ErrAlreadyBooked is returned when the student being appended is
// already present in the slot's roster. Handlers should translate this
// into an HTTP 409 response.
var ErrAlreadyBooked = errors.New("student already booked")

// ErrSlotExists is returned by explicit slot creation when a slot with
// the same (date, start time, instructor) natural key already exists.
var ErrSlotExists = errors.New("slot already exists")

// ErrSlotNotFound is returned when no slot matches the requested id or
// natural key. Handlers should translate this into an HTTP 404 response.
var ErrSlotNotFound = errors.New("slot not found")

// ErrSlotDisabled is returned when a booking targets a slot that has
// been retired. Disabled slots stay on record but accept no students.
var ErrSlotDisabled = errors.New("slot disabled")

// ErrNotBooked is returned when a roster removal targets a student who
// is not in the slot.
var ErrNotBooked = errors.New("student not booked in slot")

// ErrUserNotFound is returned when no user matches the requested id,
// email or role constraint.
var ErrUserNotFound = errors.New("user not found")

// ErrVehicleNotFound is returned when a referenced vehicle does not
// exist in the registry.
var ErrVehicleNotFound = errors.New("vehicle not found")
