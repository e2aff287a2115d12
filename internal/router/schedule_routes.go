package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/driving-lesson-scheduler/internal/handler"
	"github.com/iliyamo/driving-lesson-scheduler/internal/middleware"
	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
)

// ScheduleDeps bundles the handlers behind the scheduling surface.
// Cache, when non-nil, wraps the dashboard reads only; writes always
// reach the database.
type ScheduleDeps struct {
	Booking    *handler.BookingHandler
	Attendance *handler.AttendanceHandler
	Schedule   *handler.ScheduleHandler
	Directory  *handler.DirectoryHandler
	Cache      echo.MiddlewareFunc
}

// RegisterSchedule registers the booking, attendance, dashboard and
// slot administration endpoints under /v1.  Role boundaries follow the
// front desk workflow: students may book their own lessons, staff mark
// attendance and manage slots.
func RegisterSchedule(e *echo.Echo, d ScheduleDeps, jwtSecret string) {
	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	// Booking: students book for themselves; reception books on behalf.
	book := auth.Group("", middleware.RequireRole(
		model.RoleStudent, model.RoleReceptionist, model.RoleAdmin,
	))
	book.POST("/bookAppointment", d.Booking.BookAppointment)
	book.DELETE("/bookAppointment", d.Booking.CancelAppointment)

	// Staff-only surfaces.
	staff := auth.Group("", middleware.RequireRole(
		model.RoleInstructor, model.RoleReceptionist, model.RoleAdmin,
	))
	staff.PUT("/markAttendance", d.Attendance.MarkAttendance)
	staff.GET("/attendance", d.Attendance.DayAttendance)
	staff.GET("/directory/search", d.Directory.Search)

	// Dashboards: read-heavy, so they sit behind the response cache.
	dash := staff
	if d.Cache != nil {
		dash = auth.Group("", middleware.RequireRole(
			model.RoleInstructor, model.RoleReceptionist, model.RoleAdmin,
		), d.Cache)
	}
	dash.GET("/upcomingAppointments", d.Booking.UpcomingAppointments)
	dash.GET("/todayOverview", d.Schedule.TodayOverview)
	dash.GET("/vehicleUsage", d.Schedule.VehicleUsage)
	dash.GET("/schedule", d.Schedule.DaySchedule)

	// Slot administration is reception/admin only.
	admin := auth.Group("", middleware.RequireRole(
		model.RoleReceptionist, model.RoleAdmin,
	))
	admin.POST("/slots", d.Schedule.CreateSlot)
	admin.PUT("/slots/:id/disable", d.Schedule.DisableSlot)
}
