package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/driving-lesson-scheduler/internal/attendance"
	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
	"github.com/iliyamo/driving-lesson-scheduler/internal/repository"
)

// Marker stores an attendance mark.  Satisfied by *attendance.Recorder.
type Marker interface {
	Mark(ctx context.Context, req attendance.MarkRequest) (model.AttendanceRecord, error)
}

// RecordLister reads back the marks of a day.  Satisfied by
// *repository.AttendanceRepo.
type RecordLister interface {
	ListByDay(ctx context.Context, date string) ([]model.AttendanceRecord, error)
}

// AttendanceHandler exposes attendance marking and the day report.
type AttendanceHandler struct {
	Recorder Marker
	Records  RecordLister
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(recorder Marker, records RecordLister) *AttendanceHandler {
	if recorder == nil || records == nil {
		panic("nil dependency passed to NewAttendanceHandler")
	}
	return &AttendanceHandler{Recorder: recorder, Records: records}
}

// MarkAttendance handles PUT /v1/markAttendance.  The body carries
// {student_id, status, time_slot_id?}; the marking staff member comes
// from the JWT.  Marking the same student twice for the same slot (or
// the same day, for ad-hoc marks) updates the stored record in place.
func (h *AttendanceHandler) MarkAttendance(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req attendance.MarkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.MarkedBy = userID
	record, err := h.Recorder.Mark(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrUserNotFound),
			errors.Is(err, repository.ErrSlotNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		default:
			log.Printf("attendance: mark failed: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record attendance"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"record": record})
}

// DayAttendance handles GET /v1/attendance?date=YYYY-MM-DD.  Without a
// date it reports today.  Both slot-scoped and ad-hoc marks appear.
func (h *AttendanceHandler) DayAttendance(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = time.Now().UTC().Format(model.DateLayout)
	}
	if _, err := model.ParseDate(date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	records, err := h.Records.ListByDay(c.Request().Context(), date)
	if err != nil {
		log.Printf("attendance: day report failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load attendance"})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "records": records})
}
