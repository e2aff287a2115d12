package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/driving-lesson-scheduler/internal/booking"
	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
	"github.com/iliyamo/driving-lesson-scheduler/internal/queue"
	"github.com/iliyamo/driving-lesson-scheduler/internal/repository"
)

// Booker runs a booking request.  Satisfied by *booking.Engine.
type Booker interface {
	Book(ctx context.Context, req booking.Request) (booking.Result, error)
}

// SlotAccess is the slice of the slot repository the handler needs for
// the listing and cancellation paths.  Satisfied by *repository.SlotRepo.
type SlotAccess interface {
	ListUpcoming(ctx context.Context, fromDate string) ([]repository.UpcomingAppointment, error)
	RemoveStudent(ctx context.Context, slotID, studentID uint64) error
}

// BookingHandler exposes the booking workflow over HTTP.  The publish
// hook sends the lesson.booked event after a fully successful request;
// publishing runs detached and its failure never affects the response.
type BookingHandler struct {
	Engine  Booker
	Slots   SlotAccess
	publish func(context.Context, queue.LessonBookedEvent) error
}

// NewBookingHandler constructs a BookingHandler.  Engine and slots must
// be non-nil; publish may be nil to disable event publishing.
func NewBookingHandler(engine Booker, slots SlotAccess, publish func(context.Context, queue.LessonBookedEvent) error) *BookingHandler {
	if engine == nil || slots == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: engine, Slots: slots, publish: publish}
}

// BookAppointment handles POST /v1/bookAppointment.  The body carries a
// booking.Request.  On full success it answers 201 with the committed
// slots.  When a later week of a recurring request fails, the earlier
// weeks stay committed and the error response carries both the failing
// date and the partially committed slot list, so the caller can tell a
// partial booking from no booking at all.
func (h *BookingHandler) BookAppointment(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req booking.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	result, err := h.Engine.Book(ctx, req)
	if err != nil {
		return h.bookingError(c, err, result)
	}
	if h.publish != nil {
		event := queue.LessonBookedEvent{
			StudentID:    req.StudentID,
			InstructorID: req.InstructorID,
			VehicleID:    req.VehicleID,
			StartTime:    req.Time,
			Weeks:        len(result.Committed),
			BookedBy:     userID,
			BookedAt:     time.Now().UTC().Format(time.RFC3339),
		}
		for _, s := range result.Committed {
			event.Dates = append(event.Dates, s.Date)
		}
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := h.publish(pubCtx, event); err != nil {
				log.Printf("booking: publish lesson.booked failed: %v", err)
			}
		}()
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "appointment booked",
		"slots":   result.Committed,
	})
}

// bookingError maps engine failures to HTTP responses.  Conflict-class
// failures carry the partial result alongside the error.
func (h *BookingHandler) bookingError(c echo.Context, err error, result booking.Result) error {
	switch {
	case errors.Is(err, booking.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrVehicleNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrSlotFull),
		errors.Is(err, repository.ErrAlreadyBooked),
		errors.Is(err, repository.ErrSlotDisabled):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":       err.Error(),
			"failed_date": result.FailedDate,
			"slots":       result.Committed,
		})
	default:
		log.Printf("booking: unexpected error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
}

// cancelReq is the body of a cancellation.
type cancelReq struct {
	StudentID  uint64 `json:"student_id"`
	TimeSlotID uint64 `json:"time_slot_id"`
}

// CancelAppointment handles DELETE /v1/bookAppointment.  It frees the
// student's seat in the slot; the slot itself stays on the schedule.
// Cancelling a seat that was never booked answers 404.
func (h *BookingHandler) CancelAppointment(c echo.Context) error {
	var req cancelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.StudentID == 0 || req.TimeSlotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_id and time_slot_id are required"})
	}
	if err := h.Slots.RemoveStudent(c.Request().Context(), req.TimeSlotID, req.StudentID); err != nil {
		if errors.Is(err, repository.ErrNotBooked) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student is not booked into this slot"})
		}
		log.Printf("booking: cancel failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancellation failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// UpcomingAppointments handles GET /v1/upcomingAppointments.  It
// returns one flattened {date, time, student, instructor} entry per
// booked seat for every slot dated today or later.
func (h *BookingHandler) UpcomingAppointments(c echo.Context) error {
	today := time.Now().UTC().Format(model.DateLayout)
	items, err := h.Slots.ListUpcoming(c.Request().Context(), today)
	if err != nil {
		log.Printf("booking: list upcoming failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load appointments"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
