package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/driving-lesson-scheduler/internal/availability"
	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
	"github.com/iliyamo/driving-lesson-scheduler/internal/repository"
)

// ScheduleViews is the read-only side of the schedule.  Satisfied by
// *availability.Resolver.
type ScheduleViews interface {
	SlotsForDay(ctx context.Context, date string) ([]model.TimeSlot, error)
	TodayOverview(ctx context.Context) (availability.Overview, error)
	VehicleUsage(ctx context.Context) ([]availability.VehicleUsage, error)
}

// SlotAdmin is the administrative side: explicit slot creation and
// retirement.  Satisfied by *repository.SlotRepo.
type SlotAdmin interface {
	Create(ctx context.Context, spec repository.SlotSpec) (model.TimeSlot, error)
	Disable(ctx context.Context, id uint64) error
}

// ScheduleHandler exposes the dashboards and the slot admin actions.
type ScheduleHandler struct {
	Views ScheduleViews
	Slots SlotAdmin
}

// NewScheduleHandler constructs a ScheduleHandler.
func NewScheduleHandler(views ScheduleViews, slots SlotAdmin) *ScheduleHandler {
	if views == nil || slots == nil {
		panic("nil dependency passed to NewScheduleHandler")
	}
	return &ScheduleHandler{Views: views, Slots: slots}
}

// TodayOverview handles GET /v1/todayOverview.
func (h *ScheduleHandler) TodayOverview(c echo.Context) error {
	overview, err := h.Views.TodayOverview(c.Request().Context())
	if err != nil {
		log.Printf("schedule: today overview failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load overview"})
	}
	return c.JSON(http.StatusOK, overview)
}

// VehicleUsage handles GET /v1/vehicleUsage.
func (h *ScheduleHandler) VehicleUsage(c echo.Context) error {
	usage, err := h.Views.VehicleUsage(c.Request().Context())
	if err != nil {
		log.Printf("schedule: vehicle usage failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load vehicle usage"})
	}
	return c.JSON(http.StatusOK, echo.Map{"vehicles": usage})
}

// DaySchedule handles GET /v1/schedule?date=YYYY-MM-DD.  Without a date
// it shows today.
func (h *ScheduleHandler) DaySchedule(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		overview, err := h.Views.TodayOverview(c.Request().Context())
		if err != nil {
			log.Printf("schedule: day schedule failed: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load schedule"})
		}
		date = overview.Date
	}
	if _, err := model.ParseDate(date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	slots, err := h.Views.SlotsForDay(c.Request().Context(), date)
	if err != nil {
		log.Printf("schedule: day schedule failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load schedule"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "slots": slots})
}

// createSlotReq is the body of the explicit slot creation action.
type createSlotReq struct {
	Date         string `json:"date"`
	Time         string `json:"time"`
	InstructorID uint64 `json:"instructor_id"`
	VehicleID    uint64 `json:"vehicle_id"`
	MaxCapacity  int    `json:"max_capacity"`
}

// CreateSlot handles POST /v1/slots.  It creates a bookable slot ahead
// of any booking request, optionally with a capacity above the default
// of one.  A slot already occupying the (date, time, instructor) key
// yields 409.
func (h *ScheduleHandler) CreateSlot(c echo.Context) error {
	var req createSlotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.InstructorID == 0 || req.VehicleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "instructor_id and vehicle_id are required"})
	}
	if _, err := model.ParseDate(req.Date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if _, err := model.ParseClock(req.Time); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.MaxCapacity < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_capacity must be positive"})
	}
	if req.MaxCapacity == 0 {
		req.MaxCapacity = 1
	}
	endTime, err := model.LessonEnd(req.Time)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	slot, err := h.Slots.Create(c.Request().Context(), repository.SlotSpec{
		Date:         req.Date,
		StartTime:    req.Time,
		EndTime:      endTime,
		InstructorID: req.InstructorID,
		VehicleID:    req.VehicleID,
		MaxCapacity:  req.MaxCapacity,
	})
	if err != nil {
		if errors.Is(err, repository.ErrSlotExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slot already exists"})
		}
		log.Printf("schedule: create slot failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create slot"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"slot": slot})
}

// DisableSlot handles PUT /v1/slots/:id/disable.  Retiring a slot is a
// one-way transition; there is no endpoint to re-enable one.
func (h *ScheduleHandler) DisableSlot(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	if err := h.Slots.Disable(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		log.Printf("schedule: disable slot failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to disable slot"})
	}
	return c.NoContent(http.StatusNoContent)
}
