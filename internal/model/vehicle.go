package model

import "time"

// Vehicle mirrors the 'vehicles' table.  Vehicles are referenced by slots
// and reported on by the vehicle usage dashboard.
//
// Fields:
//  ID           – primary key identifier.
//  Registration – licence plate, unique.
//  Model        – make/model description.
//  IsActive     – whether the vehicle is available for new slots.
//  CreatedAt    – creation timestamp.
type Vehicle struct {
	ID           uint64    `json:"id"`
	Registration string    `json:"registration"`
	Model        string    `json:"model"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"-"`
}
