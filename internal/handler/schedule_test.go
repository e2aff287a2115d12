package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/driving-lesson-scheduler/internal/availability"
	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
	"github.com/iliyamo/driving-lesson-scheduler/internal/repository"
)

type stubViews struct {
	overview availability.Overview
	usage    []availability.VehicleUsage
	slots    []model.TimeSlot
	gotDate  string
}

func (s *stubViews) SlotsForDay(ctx context.Context, date string) ([]model.TimeSlot, error) {
	s.gotDate = date
	return s.slots, nil
}

func (s *stubViews) TodayOverview(ctx context.Context) (availability.Overview, error) {
	return s.overview, nil
}

func (s *stubViews) VehicleUsage(ctx context.Context) ([]availability.VehicleUsage, error) {
	return s.usage, nil
}

type stubSlotAdmin struct {
	created  model.TimeSlot
	err      error
	disabled uint64
	gotSpec  repository.SlotSpec
}

func (s *stubSlotAdmin) Create(ctx context.Context, spec repository.SlotSpec) (model.TimeSlot, error) {
	s.gotSpec = spec
	return s.created, s.err
}

func (s *stubSlotAdmin) Disable(ctx context.Context, id uint64) error {
	s.disabled = id
	return s.err
}

func TestTodayOverviewHandler(t *testing.T) {
	views := &stubViews{overview: availability.Overview{Date: "2026-09-07", Appointments: 2, Students: 3, Classes: 2}}
	h := NewScheduleHandler(views, &stubSlotAdmin{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/todayOverview", nil)
	rec := httptest.NewRecorder()
	if err := h.TodayOverview(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got availability.Overview
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got != views.overview {
		t.Errorf("overview = %+v, want %+v", got, views.overview)
	}
}

func TestVehicleUsageHandler(t *testing.T) {
	views := &stubViews{usage: []availability.VehicleUsage{
		{VehicleID: 1, Registration: "AB-123", Status: availability.UsageInUse, TimeRange: "09:00 - 10:00"},
	}}
	h := NewScheduleHandler(views, &stubSlotAdmin{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/vehicleUsage", nil)
	rec := httptest.NewRecorder()
	if err := h.VehicleUsage(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	var resp struct {
		Vehicles []availability.VehicleUsage `json:"vehicles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Vehicles) != 1 || resp.Vehicles[0].Status != availability.UsageInUse {
		t.Errorf("vehicles = %+v", resp.Vehicles)
	}
}

func TestDayScheduleExplicitDate(t *testing.T) {
	views := &stubViews{slots: []model.TimeSlot{{ID: 1, Date: "2026-09-10"}}}
	h := NewScheduleHandler(views, &stubSlotAdmin{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/schedule?date=2026-09-10", nil)
	rec := httptest.NewRecorder()
	if err := h.DaySchedule(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if views.gotDate != "2026-09-10" {
		t.Errorf("queried date = %q, want 2026-09-10", views.gotDate)
	}
}

func TestDayScheduleRejectsBadDate(t *testing.T) {
	h := NewScheduleHandler(&stubViews{}, &stubSlotAdmin{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/schedule?date=10-09-2026", nil)
	rec := httptest.NewRecorder()
	if err := h.DaySchedule(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func createSlotCtx(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/slots", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCreateSlot(t *testing.T) {
	admin := &stubSlotAdmin{created: model.TimeSlot{ID: 8, Date: "2026-09-07"}}
	h := NewScheduleHandler(&stubViews{}, admin)

	c, rec := createSlotCtx(t, `{"date":"2026-09-07","time":"10:00","instructor_id":2,"vehicle_id":7,"max_capacity":3}`)
	if err := h.CreateSlot(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if admin.gotSpec.MaxCapacity != 3 || admin.gotSpec.EndTime != "11:00" {
		t.Errorf("spec = %+v, want capacity 3 and derived end 11:00", admin.gotSpec)
	}
}

func TestCreateSlotDefaultsCapacity(t *testing.T) {
	admin := &stubSlotAdmin{}
	h := NewScheduleHandler(&stubViews{}, admin)

	c, _ := createSlotCtx(t, `{"date":"2026-09-07","time":"10:00","instructor_id":2,"vehicle_id":7}`)
	if err := h.CreateSlot(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if admin.gotSpec.MaxCapacity != 1 {
		t.Errorf("MaxCapacity = %d, want default 1", admin.gotSpec.MaxCapacity)
	}
}

func TestCreateSlotValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing instructor", `{"date":"2026-09-07","time":"10:00","vehicle_id":7}`},
		{"missing vehicle", `{"date":"2026-09-07","time":"10:00","instructor_id":2}`},
		{"bad date", `{"date":"07/09/2026","time":"10:00","instructor_id":2,"vehicle_id":7}`},
		{"bad time", `{"date":"2026-09-07","time":"10am","instructor_id":2,"vehicle_id":7}`},
		{"negative capacity", `{"date":"2026-09-07","time":"10:00","instructor_id":2,"vehicle_id":7,"max_capacity":-1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewScheduleHandler(&stubViews{}, &stubSlotAdmin{})
			c, rec := createSlotCtx(t, tc.body)
			if err := h.CreateSlot(c); err != nil {
				t.Fatalf("handler: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCreateSlotConflict(t *testing.T) {
	h := NewScheduleHandler(&stubViews{}, &stubSlotAdmin{err: repository.ErrSlotExists})
	c, rec := createSlotCtx(t, `{"date":"2026-09-07","time":"10:00","instructor_id":2,"vehicle_id":7}`)
	if err := h.CreateSlot(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestDisableSlot(t *testing.T) {
	admin := &stubSlotAdmin{}
	h := NewScheduleHandler(&stubViews{}, admin)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/v1/slots/5/disable", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5")
	if err := h.DisableSlot(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if admin.disabled != 5 {
		t.Errorf("disabled id = %d, want 5", admin.disabled)
	}
}

func TestDisableSlotNotFound(t *testing.T) {
	h := NewScheduleHandler(&stubViews{}, &stubSlotAdmin{err: repository.ErrSlotNotFound})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/v1/slots/99/disable", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")
	if err := h.DisableSlot(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
