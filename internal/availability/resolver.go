// Package availability derives read-only schedule views from the slot
// store: the slots of a given day, the today overview counters and the
// per-vehicle usage report.  Nothing here mutates state, so calling any
// view twice without an intervening booking yields identical results.
package availability

import (
	"context"
	"time"

	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
)

// SlotSource lists slots for a calendar day.
type SlotSource interface {
	ListByDay(ctx context.Context, date string) ([]model.TimeSlot, error)
}

// VehicleSource lists the known vehicles for the usage report.
type VehicleSource interface {
	List(ctx context.Context) ([]model.Vehicle, error)
}

// Resolver builds the dashboard views.
type Resolver struct {
	slots    SlotSource
	vehicles VehicleSource
	now      func() time.Time
}

// NewResolver constructs a Resolver.  Dependencies must be non-nil.
func NewResolver(slots SlotSource, vehicles VehicleSource) *Resolver {
	if slots == nil || vehicles == nil {
		panic("nil dependency passed to NewResolver")
	}
	return &Resolver{slots: slots, vehicles: vehicles, now: time.Now}
}

// Vehicle usage statuses reported by the dashboard.
const (
	UsageInUse = "In Use"
	UsageFree  = "Free"
)

// VehicleUsage reports whether a vehicle has a lesson today.  TimeRange
// holds the first matching slot's "start - end" span when in use.
type VehicleUsage struct {
	VehicleID    uint64 `json:"vehicle_id"`
	Registration string `json:"registration"`
	Status       string `json:"status"`
	TimeRange    string `json:"time_range,omitempty"`
}

// Overview aggregates today's schedule.  Classes mirrors Appointments
// under a different label, and Cancellations is a stub that always
// reports zero; nothing tracks cancelled slots yet.
type Overview struct {
	Date          string `json:"date"`
	Appointments  int    `json:"appointments"`
	Students      int    `json:"students"`
	Classes       int    `json:"classes"`
	Cancellations int    `json:"cancellations"`
}

// today returns the current calendar day in the model date layout.
func (r *Resolver) today() string {
	return r.now().UTC().Format(model.DateLayout)
}

// SlotsForDay returns all slots on the given day.
func (r *Resolver) SlotsForDay(ctx context.Context, date string) ([]model.TimeSlot, error) {
	return r.slots.ListByDay(ctx, date)
}

// TodayOverview counts today's appointments and the distinct students
// booked across them.
func (r *Resolver) TodayOverview(ctx context.Context) (Overview, error) {
	day := r.today()
	slots, err := r.slots.ListByDay(ctx, day)
	if err != nil {
		return Overview{}, err
	}
	distinct := make(map[uint64]struct{})
	for _, s := range slots {
		for _, id := range s.BookedStudents {
			distinct[id] = struct{}{}
		}
	}
	return Overview{
		Date:          day,
		Appointments:  len(slots),
		Students:      len(distinct),
		Classes:       len(slots),
		Cancellations: 0,
	}, nil
}

// VehicleUsage reports the status of every known vehicle for today.  A
// vehicle is "In Use" when at least one of today's slots references it;
// with several slots the earliest one provides the reported time range.
func (r *Resolver) VehicleUsage(ctx context.Context) ([]VehicleUsage, error) {
	day := r.today()
	slots, err := r.slots.ListByDay(ctx, day)
	if err != nil {
		return nil, err
	}
	vehicles, err := r.vehicles.List(ctx)
	if err != nil {
		return nil, err
	}
	// ListByDay orders by start time, so the first hit per vehicle is
	// the earliest lesson of the day.
	firstSlot := make(map[uint64]model.TimeSlot, len(slots))
	for _, s := range slots {
		if _, seen := firstSlot[s.VehicleID]; !seen {
			firstSlot[s.VehicleID] = s
		}
	}
	report := make([]VehicleUsage, 0, len(vehicles))
	for _, v := range vehicles {
		u := VehicleUsage{VehicleID: v.ID, Registration: v.Registration, Status: UsageFree}
		if s, ok := firstSlot[v.ID]; ok {
			u.Status = UsageInUse
			u.TimeRange = s.StartTime + " - " + s.EndTime
		}
		report = append(report, u)
	}
	return report, nil
}
