package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/iliyamo/driving-lesson-scheduler/internal/model"
	"github.com/iliyamo/driving-lesson-scheduler/internal/repository"
)

// fakeSlotStore implements SlotStore in memory with the same atomicity
// contract as the SQL repository: FindOrCreate is keyed on
// (date, start, instructor) and BookStudent rejects duplicates and
// full slots under a single lock.
type fakeSlotStore struct {
	mu     sync.Mutex
	nextID uint64
	byKey  map[string]uint64
	byID   map[uint64]*model.TimeSlot
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{byKey: map[string]uint64{}, byID: map[uint64]*model.TimeSlot{}}
}

func slotKey(date, start string, instructorID uint64) string {
	return fmt.Sprintf("%s|%s|%d", date, start, instructorID)
}

// seed inserts a slot directly, bypassing FindOrCreate.
func (f *fakeSlotStore) seed(s model.TimeSlot) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s.ID = f.nextID
	f.byKey[slotKey(s.Date, s.StartTime, s.InstructorID)] = s.ID
	f.byID[s.ID] = &s
	return s.ID
}

func (f *fakeSlotStore) FindOrCreate(ctx context.Context, spec repository.SlotSpec) (model.TimeSlot, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := slotKey(spec.Date, spec.StartTime, spec.InstructorID)
	if id, ok := f.byKey[key]; ok {
		return *f.byID[id], false, nil
	}
	f.nextID++
	s := model.TimeSlot{
		ID:           f.nextID,
		Date:         spec.Date,
		StartTime:    spec.StartTime,
		EndTime:      spec.EndTime,
		Status:       model.SlotStatusActive,
		InstructorID: spec.InstructorID,
		VehicleID:    spec.VehicleID,
		MaxCapacity:  spec.MaxCapacity,
	}
	f.byKey[key] = s.ID
	f.byID[s.ID] = &s
	return s, true, nil
}

func (f *fakeSlotStore) BookStudent(ctx context.Context, slotID, studentID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[slotID]
	if !ok {
		return repository.ErrSlotNotFound
	}
	for _, id := range s.BookedStudents {
		if id == studentID {
			return repository.ErrAlreadyBooked
		}
	}
	if len(s.BookedStudents) >= s.MaxCapacity {
		return repository.ErrSlotFull
	}
	s.BookedStudents = append(s.BookedStudents, studentID)
	s.Version++
	return nil
}

func (f *fakeSlotStore) GetByID(ctx context.Context, id uint64) (model.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return model.TimeSlot{}, repository.ErrSlotNotFound
	}
	out := *s
	out.BookedStudents = append([]uint64(nil), s.BookedStudents...)
	return out, nil
}

type fakeDirectory map[uint64]string // id -> role

func (f fakeDirectory) GetActiveByRole(ctx context.Context, id uint64, role string) (model.User, error) {
	if f[id] != role {
		return model.User{}, repository.ErrUserNotFound
	}
	return model.User{ID: id, Role: role, IsActive: true}, nil
}

type fakeVehicles map[uint64]bool

func (f fakeVehicles) GetByID(ctx context.Context, id uint64) (model.Vehicle, error) {
	if !f[id] {
		return model.Vehicle{}, repository.ErrVehicleNotFound
	}
	return model.Vehicle{ID: id, Registration: "AB-123", IsActive: true}, nil
}

func testEngine() (*Engine, *fakeSlotStore) {
	store := newFakeSlotStore()
	users := fakeDirectory{
		1: model.RoleStudent,
		2: model.RoleInstructor,
		3: model.RoleStudent,
	}
	return NewEngine(store, users, fakeVehicles{7: true}), store
}

func baseRequest() Request {
	return Request{StudentID: 1, InstructorID: 2, VehicleID: 7, Date: "2026-09-07", Time: "10:00"}
}

func TestBookSingleWeek(t *testing.T) {
	engine, _ := testEngine()
	res, err := engine.Book(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if len(res.Committed) != 1 {
		t.Fatalf("committed %d slots, want 1", len(res.Committed))
	}
	s := res.Committed[0]
	if s.Date != "2026-09-07" || s.StartTime != "10:00" || s.EndTime != "11:00" {
		t.Errorf("slot = %s %s-%s, want 2026-09-07 10:00-11:00", s.Date, s.StartTime, s.EndTime)
	}
	if len(s.BookedStudents) != 1 || s.BookedStudents[0] != 1 {
		t.Errorf("roster = %v, want [1]", s.BookedStudents)
	}
	if res.FailedDate != "" {
		t.Errorf("FailedDate = %q, want empty", res.FailedDate)
	}
}

func TestBookRecurringWeeklySpacing(t *testing.T) {
	engine, _ := testEngine()
	req := baseRequest()
	req.Recurring = true
	req.Weeks = 4
	res, err := engine.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	want := []string{"2026-09-07", "2026-09-14", "2026-09-21", "2026-09-28"}
	if len(res.Committed) != len(want) {
		t.Fatalf("committed %d slots, want %d", len(res.Committed), len(want))
	}
	for i, s := range res.Committed {
		if s.Date != want[i] {
			t.Errorf("week %d date = %s, want %s", i, s.Date, want[i])
		}
		if s.StartTime != "10:00" {
			t.Errorf("week %d start = %s, want 10:00", i, s.StartTime)
		}
	}
}

func TestBookPartialCommitOnFullWeek(t *testing.T) {
	engine, store := testEngine()
	// Third week is already taken by another student.
	store.seed(model.TimeSlot{
		Date: "2026-09-21", StartTime: "10:00", EndTime: "11:00",
		Status: model.SlotStatusActive, InstructorID: 2, VehicleID: 7,
		MaxCapacity: 1, BookedStudents: []uint64{3},
	})

	req := baseRequest()
	req.Recurring = true
	req.Weeks = 4
	res, err := engine.Book(context.Background(), req)
	if !errors.Is(err, repository.ErrSlotFull) {
		t.Fatalf("err = %v, want ErrSlotFull", err)
	}
	var we *WeekError
	if !errors.As(err, &we) || we.Date != "2026-09-21" {
		t.Fatalf("err = %v, want WeekError for 2026-09-21", err)
	}
	if res.FailedDate != "2026-09-21" {
		t.Errorf("FailedDate = %q, want 2026-09-21", res.FailedDate)
	}
	// The first two weeks must stay committed.
	if len(res.Committed) != 2 {
		t.Fatalf("committed %d slots, want 2", len(res.Committed))
	}
	if res.Committed[0].Date != "2026-09-07" || res.Committed[1].Date != "2026-09-14" {
		t.Errorf("committed dates = %s, %s", res.Committed[0].Date, res.Committed[1].Date)
	}
}

func TestBookSameStudentTwice(t *testing.T) {
	engine, _ := testEngine()
	ctx := context.Background()
	if _, err := engine.Book(ctx, baseRequest()); err != nil {
		t.Fatalf("first Book: %v", err)
	}
	res, err := engine.Book(ctx, baseRequest())
	if !errors.Is(err, repository.ErrAlreadyBooked) {
		t.Fatalf("err = %v, want ErrAlreadyBooked", err)
	}
	if len(res.Committed) != 0 {
		t.Errorf("committed %d slots, want 0", len(res.Committed))
	}
}

func TestBookDisabledSlot(t *testing.T) {
	engine, store := testEngine()
	store.seed(model.TimeSlot{
		Date: "2026-09-07", StartTime: "10:00", EndTime: "11:00",
		Status: model.SlotStatusDisabled, InstructorID: 2, VehicleID: 7,
		MaxCapacity: 1,
	})
	res, err := engine.Book(context.Background(), baseRequest())
	if !errors.Is(err, repository.ErrSlotDisabled) {
		t.Fatalf("err = %v, want ErrSlotDisabled", err)
	}
	if res.FailedDate != "2026-09-07" {
		t.Errorf("FailedDate = %q, want 2026-09-07", res.FailedDate)
	}
}

func TestBookSharedSlotCapacity(t *testing.T) {
	engine, store := testEngine()
	// A pre-created two-seat slot admits two different students.
	store.seed(model.TimeSlot{
		Date: "2026-09-07", StartTime: "10:00", EndTime: "11:00",
		Status: model.SlotStatusActive, InstructorID: 2, VehicleID: 7,
		MaxCapacity: 2,
	})
	ctx := context.Background()
	if _, err := engine.Book(ctx, baseRequest()); err != nil {
		t.Fatalf("first student: %v", err)
	}
	second := baseRequest()
	second.StudentID = 3
	res, err := engine.Book(ctx, second)
	if err != nil {
		t.Fatalf("second student: %v", err)
	}
	if got := res.Committed[0].BookedStudents; len(got) != 2 {
		t.Errorf("roster = %v, want two students", got)
	}
}

func TestBookValidation(t *testing.T) {
	engine, store := testEngine()
	mod := func(fn func(*Request)) Request {
		r := baseRequest()
		fn(&r)
		return r
	}
	cases := []struct {
		name string
		req  Request
	}{
		{"missing student", mod(func(r *Request) { r.StudentID = 0 })},
		{"missing instructor", mod(func(r *Request) { r.InstructorID = 0 })},
		{"missing vehicle", mod(func(r *Request) { r.VehicleID = 0 })},
		{"missing date", mod(func(r *Request) { r.Date = "" })},
		{"bad date", mod(func(r *Request) { r.Date = "07/09/2026" })},
		{"missing time", mod(func(r *Request) { r.Time = "" })},
		{"bad time", mod(func(r *Request) { r.Time = "10am" })},
		{"recurring zero weeks", mod(func(r *Request) { r.Recurring = true; r.Weeks = 0 })},
		{"recurring too many weeks", mod(func(r *Request) { r.Recurring = true; r.Weeks = 53 })},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Book(context.Background(), tc.req)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
	if len(store.byID) != 0 {
		t.Errorf("validation failures created %d slots, want 0", len(store.byID))
	}
}

func TestBookUnknownReferences(t *testing.T) {
	engine, _ := testEngine()
	ctx := context.Background()

	req := baseRequest()
	req.StudentID = 99
	if _, err := engine.Book(ctx, req); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("unknown student: err = %v, want ErrUserNotFound", err)
	}

	// An instructor id pointing at a student account must not resolve.
	req = baseRequest()
	req.InstructorID = 3
	if _, err := engine.Book(ctx, req); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("role mismatch: err = %v, want ErrUserNotFound", err)
	}

	req = baseRequest()
	req.VehicleID = 99
	if _, err := engine.Book(ctx, req); !errors.Is(err, repository.ErrVehicleNotFound) {
		t.Errorf("unknown vehicle: err = %v, want ErrVehicleNotFound", err)
	}
}

func TestBookConcurrentSingleSeat(t *testing.T) {
	store := newFakeSlotStore()
	users := fakeDirectory{2: model.RoleInstructor}
	const n = 16
	for i := uint64(0); i < n; i++ {
		users[100+i] = model.RoleStudent
	}
	engine := NewEngine(store, users, fakeVehicles{7: true})

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := baseRequest()
			req.StudentID = uint64(100 + i)
			_, errs[i] = engine.Book(context.Background(), req)
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, repository.ErrSlotFull):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("%d bookings succeeded on a one-seat slot, want exactly 1", won)
	}
	if len(store.byID) != 1 {
		t.Errorf("%d slots created for one key, want 1", len(store.byID))
	}
}
