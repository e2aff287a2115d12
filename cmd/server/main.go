package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/driving-lesson-scheduler/internal/attendance"
	"github.com/iliyamo/driving-lesson-scheduler/internal/availability"
	"github.com/iliyamo/driving-lesson-scheduler/internal/booking"
	"github.com/iliyamo/driving-lesson-scheduler/internal/config"
	"github.com/iliyamo/driving-lesson-scheduler/internal/database"
	"github.com/iliyamo/driving-lesson-scheduler/internal/handler"
	"github.com/iliyamo/driving-lesson-scheduler/internal/middleware"
	"github.com/iliyamo/driving-lesson-scheduler/internal/queue"
	"github.com/iliyamo/driving-lesson-scheduler/internal/repository"
	"github.com/iliyamo/driving-lesson-scheduler/internal/router"
	queue_publisher "github.com/iliyamo/driving-lesson-scheduler/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: with no client the limiter and cache are no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	slots := repository.NewSlotRepo(db)
	vehicles := repository.NewVehicleRepo(db)
	attRepo := repository.NewAttendanceRepo(db)

	// Domain services.
	engine := booking.NewEngine(slots, users, vehicles)
	recorder := attendance.NewRecorder(attRepo, slots, users)
	resolver := availability.NewResolver(slots, vehicles)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	bookingH := handler.NewBookingHandler(engine, slots, queue_publisher.PublishLessonBooked)
	attendanceH := handler.NewAttendanceHandler(recorder, attRepo)
	scheduleH := handler.NewScheduleHandler(resolver, slots)
	directoryH := handler.NewDirectoryHandler(users)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterSchedule(e, router.ScheduleDeps{
		Booking:    bookingH,
		Attendance: attendanceH,
		Schedule:   scheduleH,
		Directory:  directoryH,
		Cache:      middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}, cfg.JWTSecret)

	// Reminder consumer runs for the lifetime of the process and
	// reconnects on broker failure.
	go func() {
		if err := queue.StartReminderConsumer(); err != nil {
			log.Printf("reminder consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
